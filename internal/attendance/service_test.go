package attendance

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
)

// memSessionStore enforces the same code-uniqueness rule the Postgres
// store gets from its unique index.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]Session
	byCode   map[string]uuid.UUID
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: make(map[uuid.UUID]Session),
		byCode:   make(map[string]uuid.UUID),
	}
}

func (m *memSessionStore) Create(_ context.Context, s Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byCode[s.Code]; taken {
		return Session{}, apperr.New(apperr.Conflict, "session code already in use")
	}
	m.sessions[s.ID] = s
	m.byCode[s.Code] = s.ID
	return s, nil
}

func (m *memSessionStore) GetByID(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *memSessionStore) GetByCode(_ context.Context, code string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byCode[code]; ok {
		s := m.sessions[id]
		return &s, nil
	}
	return nil, nil
}

func (m *memSessionStore) ActiveForLecturer(_ context.Context, lecturerID uuid.UUID, now time.Time) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.LecturerID == lecturerID && s.Active(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessionStore) ByCourse(_ context.Context, courseID uuid.UUID) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.CourseID == courseID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessionStore) UpdateWindow(_ context.Context, id uuid.UUID, expiresAt time.Time, fence *GeoFence) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	s.ExpiresAt = expiresAt
	s.GeoFence = fence
	m.sessions[id] = s
	return true, nil
}

// memRecordStore enforces at-most-one record per (student, session), the
// partial unique index's job in Postgres.
type memRecordStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]Record
	pairs   map[string]struct{}
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{
		records: make(map[uuid.UUID]Record),
		pairs:   make(map[string]struct{}),
	}
}

func pairKey(studentID, sessionID uuid.UUID) string {
	return studentID.String() + "/" + sessionID.String()
}

func (m *memRecordStore) Create(_ context.Context, r Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.SessionID != nil {
		key := pairKey(r.StudentID, *r.SessionID)
		if _, dup := m.pairs[key]; dup {
			return Record{}, apperr.New(apperr.Conflict, "attendance already marked for this session")
		}
		m.pairs[key] = struct{}{}
	}
	m.records[r.ID] = r
	return r, nil
}

func (m *memRecordStore) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memRecordStore) GetByStudentAndSession(_ context.Context, studentID, sessionID uuid.UUID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.StudentID == studentID && r.SessionID != nil && *r.SessionID == sessionID {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *memRecordStore) ByStudentAndCourse(_ context.Context, studentID, courseID uuid.UUID) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if r.StudentID == studentID && r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecordStore) BySession(_ context.Context, sessionID uuid.UUID) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if r.SessionID != nil && *r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecordStore) ByCourse(_ context.Context, courseID uuid.UUID, from, to *time.Time) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if r.CourseID != courseID {
			continue
		}
		if from != nil && r.MarkedAt.Before(*from) {
			continue
		}
		if to != nil && r.MarkedAt.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memRecordStore) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return false, nil
	}
	r.Status = status
	m.records[id] = r
	return true, nil
}

type memCourseDir map[uuid.UUID]CourseInfo

func (m memCourseDir) CourseInfo(_ context.Context, id uuid.UUID) (*CourseInfo, error) {
	if c, ok := m[id]; ok {
		return &c, nil
	}
	return nil, nil
}

type memUserDir map[uuid.UUID]UserInfo

func (m memUserDir) UserInfo(_ context.Context, id uuid.UUID) (*UserInfo, error) {
	if u, ok := m[id]; ok {
		return &u, nil
	}
	return nil, nil
}

type fixture struct {
	svc      *Service
	sessions *memSessionStore
	records  *memRecordStore

	lecturerID uuid.UUID
	studentID  uuid.UUID
	courseID   uuid.UUID
	now        time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		sessions:   newMemSessionStore(),
		records:    newMemRecordStore(),
		lecturerID: uuid.New(),
		studentID:  uuid.New(),
		courseID:   uuid.New(),
		now:        time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	courses := memCourseDir{
		f.courseID: {ID: f.courseID, Name: "Distributed Systems", LecturerID: f.lecturerID},
	}
	users := memUserDir{
		f.lecturerID: {ID: f.lecturerID, Name: "Dr. Mensah", Role: auth.RoleLecturer},
		f.studentID:  {ID: f.studentID, Name: "Kofi Boateng", Role: auth.RoleStudent},
	}
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	f.svc = NewService(f.sessions, f.records, courses, users, zap.NewNop(), opts...)
	return f
}

func (f *fixture) openSession(t *testing.T, req CreateSessionRequest) SessionDTO {
	t.Helper()
	dto, err := f.svc.CreateSession(context.Background(), f.lecturerID, req)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return dto
}

func onlineRequest(courseID uuid.UUID) CreateSessionRequest {
	return CreateSessionRequest{
		CourseID:        courseID.String(),
		SessionType:     "ONLINE",
		DurationMinutes: 45,
	}
}

func physicalRequest(courseID uuid.UUID) CreateSessionRequest {
	return CreateSessionRequest{
		CourseID:        courseID.String(),
		SessionType:     "PHYSICAL",
		DurationMinutes: 45,
		GeoFence:        &GeoFence{Latitude: 0, Longitude: 0, RadiusMeters: 100},
	}
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t)
	otherLecturer := uuid.New()

	tests := []struct {
		name     string
		caller   uuid.UUID
		mutate   func(*CreateSessionRequest)
		wantKind apperr.Kind
	}{
		{
			name:     "zero duration",
			caller:   f.lecturerID,
			mutate:   func(r *CreateSessionRequest) { r.DurationMinutes = 0 },
			wantKind: apperr.BadRequest,
		},
		{
			name:     "unknown session type",
			caller:   f.lecturerID,
			mutate:   func(r *CreateSessionRequest) { r.SessionType = "HYBRID" },
			wantKind: apperr.BadRequest,
		},
		{
			name:   "physical without geofence",
			caller: f.lecturerID,
			mutate: func(r *CreateSessionRequest) {
				r.SessionType = "PHYSICAL"
				r.GeoFence = nil
			},
			wantKind: apperr.BadRequest,
		},
		{
			name:   "physical with zero radius",
			caller: f.lecturerID,
			mutate: func(r *CreateSessionRequest) {
				r.SessionType = "PHYSICAL"
				r.GeoFence = &GeoFence{Latitude: 0, Longitude: 0, RadiusMeters: 0}
			},
			wantKind: apperr.BadRequest,
		},
		{
			name:     "unknown course",
			caller:   f.lecturerID,
			mutate:   func(r *CreateSessionRequest) { r.CourseID = uuid.NewString() },
			wantKind: apperr.NotFound,
		},
		{
			name:     "caller does not own course",
			caller:   otherLecturer,
			mutate:   func(r *CreateSessionRequest) {},
			wantKind: apperr.NotFound, // unknown lecturer resolves first
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := onlineRequest(f.courseID)
			tt.mutate(&req)
			_, err := f.svc.CreateSession(context.Background(), tt.caller, req)
			if !apperr.IsKind(err, tt.wantKind) {
				t.Errorf("CreateSession error = %v, want kind %v", err, tt.wantKind)
			}
		})
	}
}

func TestCreateSessionForbiddenForNonOwner(t *testing.T) {
	f := newFixture(t)
	otherCourse := uuid.New()
	dir := memCourseDir{
		f.courseID:  {ID: f.courseID, Name: "Distributed Systems", LecturerID: f.lecturerID},
		otherCourse: {ID: otherCourse, Name: "Databases", LecturerID: uuid.New()},
	}
	users := memUserDir{
		f.lecturerID: {ID: f.lecturerID, Name: "Dr. Mensah", Role: auth.RoleLecturer},
	}
	svc := NewService(f.sessions, f.records, dir, users, zap.NewNop())

	_, err := svc.CreateSession(context.Background(), f.lecturerID, onlineRequest(otherCourse))
	if !apperr.IsKind(err, apperr.Forbidden) {
		t.Errorf("CreateSession error = %v, want Forbidden", err)
	}
}

func TestCreateSessionOnline(t *testing.T) {
	f := newFixture(t)

	dto := f.openSession(t, onlineRequest(f.courseID))

	if len(dto.SessionCode) != 6 {
		t.Errorf("session code %q, want 6 characters", dto.SessionCode)
	}
	if dto.SessionType != "ONLINE" {
		t.Errorf("session type = %q, want ONLINE", dto.SessionType)
	}
	if dto.GeoFence != nil {
		t.Errorf("online session carries geofence %+v", dto.GeoFence)
	}
	if want := f.now.Add(45 * time.Minute); !dto.ExpiresAt.Equal(want) {
		t.Errorf("expires at %v, want %v", dto.ExpiresAt, want)
	}
	if dto.CourseName != "Distributed Systems" || dto.LecturerName != "Dr. Mensah" {
		t.Errorf("display names = %q / %q", dto.CourseName, dto.LecturerName)
	}
}

func TestCreateSessionRetriesOnCodeCollision(t *testing.T) {
	f := newFixture(t)

	// Occupy the code a zero-byte generator would produce.
	taken := Session{
		ID:         uuid.New(),
		CourseID:   f.courseID,
		LecturerID: f.lecturerID,
		Code:       "AAAAAA",
		Type:       SessionOnline,
		CreatedAt:  f.now,
		ExpiresAt:  f.now.Add(time.Hour),
	}
	if _, err := f.sessions.Create(context.Background(), taken); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	// First draw collides ("AAAAAA"), second succeeds ("BBBBBB").
	gen := NewCodeGeneratorFrom(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}))
	svc := NewService(f.sessions, f.records, memCourseDir{
		f.courseID: {ID: f.courseID, Name: "Distributed Systems", LecturerID: f.lecturerID},
	}, memUserDir{
		f.lecturerID: {ID: f.lecturerID, Name: "Dr. Mensah", Role: auth.RoleLecturer},
	}, zap.NewNop(), WithClock(func() time.Time { return f.now }), WithCodeGenerator(gen))

	dto, err := svc.CreateSession(context.Background(), f.lecturerID, onlineRequest(f.courseID))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if dto.SessionCode != "BBBBBB" {
		t.Errorf("session code = %q, want BBBBBB", dto.SessionCode)
	}
}

func TestCreateSessionGivesUpAfterRetries(t *testing.T) {
	f := newFixture(t)

	taken := Session{
		ID:         uuid.New(),
		CourseID:   f.courseID,
		LecturerID: f.lecturerID,
		Code:       "AAAAAA",
		Type:       SessionOnline,
		CreatedAt:  f.now,
		ExpiresAt:  f.now.Add(time.Hour),
	}
	if _, err := f.sessions.Create(context.Background(), taken); err != nil {
		t.Fatalf("seeding session: %v", err)
	}

	// Every draw yields the taken code.
	gen := NewCodeGeneratorFrom(bytes.NewReader(make([]byte, 64)))
	svc := NewService(f.sessions, f.records, memCourseDir{
		f.courseID: {ID: f.courseID, Name: "Distributed Systems", LecturerID: f.lecturerID},
	}, memUserDir{
		f.lecturerID: {ID: f.lecturerID, Name: "Dr. Mensah", Role: auth.RoleLecturer},
	}, zap.NewNop(), WithClock(func() time.Time { return f.now }), WithCodeGenerator(gen), WithCodeRetries(3))

	_, err := svc.CreateSession(context.Background(), f.lecturerID, onlineRequest(f.courseID))
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("CreateSession error = %v, want Conflict", err)
	}
}

func TestMarkAttendanceOnline(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, onlineRequest(f.courseID))

	rec, err := f.svc.MarkAttendance(context.Background(), f.studentID, MarkAttendanceRequest{
		SessionCode: sess.SessionCode,
	})
	if err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}
	if rec.Status != string(StatusPresent) {
		t.Errorf("status = %q, want %q", rec.Status, StatusPresent)
	}
	if rec.VerificationMethod != string(MethodQRCode) {
		t.Errorf("method = %q, want %q", rec.VerificationMethod, MethodQRCode)
	}
	if rec.SessionID == nil || *rec.SessionID != sess.ID {
		t.Errorf("record session id = %v, want %s", rec.SessionID, sess.ID)
	}
}

func TestMarkAttendanceCodeIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, onlineRequest(f.courseID))

	_, err := f.svc.MarkAttendance(context.Background(), f.studentID, MarkAttendanceRequest{
		SessionCode: "  " + strings.ToLower(sess.SessionCode) + " ",
	})
	if err != nil {
		t.Fatalf("MarkAttendance with lowercase code: %v", err)
	}
}

func TestMarkAttendanceRejections(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, physicalRequest(f.courseID))
	inside := &Location{Latitude: 0, Longitude: 0.0005}

	tests := []struct {
		name     string
		student  uuid.UUID
		req      MarkAttendanceRequest
		at       time.Time
		wantKind apperr.Kind
	}{
		{
			name:     "unknown code",
			student:  f.studentID,
			req:      MarkAttendanceRequest{SessionCode: "ZZZZZZ", Location: inside},
			at:       f.now,
			wantKind: apperr.NotFound,
		},
		{
			name:     "expired session",
			student:  f.studentID,
			req:      MarkAttendanceRequest{SessionCode: sess.SessionCode, Location: inside},
			at:       f.now.Add(46 * time.Minute),
			wantKind: apperr.BadRequest,
		},
		{
			name:     "expiry boundary is exclusive",
			student:  f.studentID,
			req:      MarkAttendanceRequest{SessionCode: sess.SessionCode, Location: inside},
			at:       f.now.Add(45 * time.Minute),
			wantKind: apperr.BadRequest,
		},
		{
			name:     "missing location for physical session",
			student:  f.studentID,
			req:      MarkAttendanceRequest{SessionCode: sess.SessionCode},
			at:       f.now,
			wantKind: apperr.BadRequest,
		},
		{
			name:    "outside the geofence",
			student: f.studentID,
			req: MarkAttendanceRequest{
				SessionCode: sess.SessionCode,
				Location:    &Location{Latitude: 0, Longitude: 0.01},
			},
			at:       f.now,
			wantKind: apperr.BadRequest,
		},
		{
			name:     "lecturer cannot check in",
			student:  f.lecturerID,
			req:      MarkAttendanceRequest{SessionCode: sess.SessionCode, Location: inside},
			at:       f.now,
			wantKind: apperr.BadRequest,
		},
		{
			name:     "unknown student",
			student:  uuid.New(),
			req:      MarkAttendanceRequest{SessionCode: sess.SessionCode, Location: inside},
			at:       f.now,
			wantKind: apperr.NotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.now = tt.at
			_, err := f.svc.MarkAttendance(context.Background(), tt.student, tt.req)
			if !apperr.IsKind(err, tt.wantKind) {
				t.Errorf("MarkAttendance error = %v, want kind %v", err, tt.wantKind)
			}
		})
	}
}

func TestMarkAttendanceInsideGeofence(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, physicalRequest(f.courseID))

	// Roughly 55m east of the fence center, inside the 100m radius.
	rec, err := f.svc.MarkAttendance(context.Background(), f.studentID, MarkAttendanceRequest{
		SessionCode: sess.SessionCode,
		Location:    &Location{Latitude: 0, Longitude: 0.0005},
	})
	if err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}
	if rec.VerificationMethod != string(MethodGeolocation) {
		t.Errorf("method = %q, want %q", rec.VerificationMethod, MethodGeolocation)
	}
}

func TestMarkAttendanceDuplicate(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, onlineRequest(f.courseID))
	req := MarkAttendanceRequest{SessionCode: sess.SessionCode}

	if _, err := f.svc.MarkAttendance(context.Background(), f.studentID, req); err != nil {
		t.Fatalf("first MarkAttendance: %v", err)
	}
	_, err := f.svc.MarkAttendance(context.Background(), f.studentID, req)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("second MarkAttendance error = %v, want Conflict", err)
	}
}

func TestMarkAttendanceConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, onlineRequest(f.courseID))
	req := MarkAttendanceRequest{SessionCode: sess.SessionCode}

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.MarkAttendance(context.Background(), f.studentID, req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.IsKind(err, apperr.Conflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d check-ins succeeded, want exactly 1", succeeded)
	}
}

func TestManualMark(t *testing.T) {
	f := newFixture(t)
	adminID := uuid.New()

	t.Run("course owner marks late", func(t *testing.T) {
		rec, err := f.svc.ManualMark(context.Background(), f.lecturerID, auth.RoleLecturer, ManualMarkRequest{
			StudentID: f.studentID.String(),
			CourseID:  f.courseID.String(),
			Status:    "LATE",
		})
		if err != nil {
			t.Fatalf("ManualMark: %v", err)
		}
		if rec.Status != string(StatusLate) {
			t.Errorf("status = %q, want %q", rec.Status, StatusLate)
		}
		if rec.VerificationMethod != string(MethodManual) {
			t.Errorf("method = %q, want %q", rec.VerificationMethod, MethodManual)
		}
		if rec.SessionID != nil {
			t.Errorf("manual record carries session id %v", rec.SessionID)
		}
	})

	t.Run("admin marks any course", func(t *testing.T) {
		_, err := f.svc.ManualMark(context.Background(), adminID, auth.RoleAdmin, ManualMarkRequest{
			StudentID: f.studentID.String(),
			CourseID:  f.courseID.String(),
			Status:    "ABSENT",
		})
		if err != nil {
			t.Fatalf("ManualMark as admin: %v", err)
		}
	})

	t.Run("non-owner lecturer is rejected", func(t *testing.T) {
		_, err := f.svc.ManualMark(context.Background(), uuid.New(), auth.RoleLecturer, ManualMarkRequest{
			StudentID: f.studentID.String(),
			CourseID:  f.courseID.String(),
			Status:    "PRESENT",
		})
		if !apperr.IsKind(err, apperr.Forbidden) {
			t.Errorf("ManualMark error = %v, want Forbidden", err)
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := f.svc.ManualMark(context.Background(), f.lecturerID, auth.RoleLecturer, ManualMarkRequest{
			StudentID: f.studentID.String(),
			CourseID:  f.courseID.String(),
			Status:    "SLEEPING",
		})
		if !apperr.IsKind(err, apperr.BadRequest) {
			t.Errorf("ManualMark error = %v, want BadRequest", err)
		}
	})
}

func TestExtendSession(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, onlineRequest(f.courseID))
	id := uuid.MustParse(sess.ID)

	t.Run("pushes out expiry", func(t *testing.T) {
		dto, err := f.svc.ExtendSession(context.Background(), f.lecturerID, id, ExtendSessionRequest{AdditionalMinutes: 15})
		if err != nil {
			t.Fatalf("ExtendSession: %v", err)
		}
		if want := sess.ExpiresAt.Add(15 * time.Minute); !dto.ExpiresAt.Equal(want) {
			t.Errorf("expires at %v, want %v", dto.ExpiresAt, want)
		}
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		_, err := f.svc.ExtendSession(context.Background(), uuid.New(), id, ExtendSessionRequest{AdditionalMinutes: 15})
		if !apperr.IsKind(err, apperr.Forbidden) {
			t.Errorf("ExtendSession error = %v, want Forbidden", err)
		}
	})

	t.Run("expired session stays closed", func(t *testing.T) {
		f.now = f.now.Add(2 * time.Hour)
		_, err := f.svc.ExtendSession(context.Background(), f.lecturerID, id, ExtendSessionRequest{AdditionalMinutes: 15})
		if !apperr.IsKind(err, apperr.BadRequest) {
			t.Errorf("ExtendSession error = %v, want BadRequest", err)
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, onlineRequest(f.courseID))

	rec, err := f.svc.MarkAttendance(context.Background(), f.studentID, MarkAttendanceRequest{SessionCode: sess.SessionCode})
	if err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}

	updated, err := f.svc.UpdateStatus(context.Background(), uuid.MustParse(rec.ID), StatusLate)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != string(StatusLate) {
		t.Errorf("status = %q, want %q", updated.Status, StatusLate)
	}

	_, err = f.svc.UpdateStatus(context.Background(), uuid.New(), StatusAbsent)
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("UpdateStatus for unknown record = %v, want NotFound", err)
	}
}

func TestAttendanceForStudent(t *testing.T) {
	f := newFixture(t)
	sess := f.openSession(t, onlineRequest(f.courseID))

	if _, err := f.svc.MarkAttendance(context.Background(), f.studentID, MarkAttendanceRequest{SessionCode: sess.SessionCode}); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}

	records, err := f.svc.AttendanceForStudent(context.Background(), f.studentID, f.courseID)
	if err != nil {
		t.Fatalf("AttendanceForStudent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].StudentName != "Kofi Boateng" || records[0].CourseName != "Distributed Systems" {
		t.Errorf("display names = %q / %q", records[0].StudentName, records[0].CourseName)
	}

	_, err = f.svc.AttendanceForStudent(context.Background(), f.studentID, uuid.New())
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("AttendanceForStudent for unknown course = %v, want NotFound", err)
	}
}
