package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
	"classtrack/internal/store"
)

// Service orchestrates the attendance-session verification flow. It holds
// no mutable state of its own; both concurrency-sensitive invariants live
// in the stores.
type Service struct {
	sessions SessionStore
	records  RecordStore
	courses  CourseDirectory
	users    UserDirectory
	codes    *CodeGenerator
	cache    *store.Redis
	log      *zap.Logger

	codeLength  int
	codeRetries int
	now         func() time.Time
}

// Option tweaks service construction.
type Option func(*Service)

// WithCodeLength overrides the generated session code length.
func WithCodeLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeLength = n
		}
	}
}

// WithCodeRetries bounds the regeneration attempts on code collision.
func WithCodeRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeRetries = n
		}
	}
}

// WithCodeGenerator injects the code source, for tests.
func WithCodeGenerator(g *CodeGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.codes = g
		}
	}
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCodeCache attaches the redis-backed session code cache.
func WithCodeCache(cache *store.Redis) Option {
	return func(s *Service) { s.cache = cache }
}

// NewService creates the attendance core.
func NewService(sessions SessionStore, records RecordStore, courses CourseDirectory, users UserDirectory, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		sessions:    sessions,
		records:     records,
		courses:     courses,
		users:       users,
		codes:       NewCodeGenerator(),
		log:         log,
		codeLength:  6,
		codeRetries: 5,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession opens an attendance window for a course the lecturer owns.
// Code generation retries a bounded number of times on collision before
// surfacing Conflict.
func (s *Service) CreateSession(ctx context.Context, lecturerID uuid.UUID, req CreateSessionRequest) (SessionDTO, error) {
	if req.DurationMinutes <= 0 {
		return SessionDTO{}, apperr.New(apperr.BadRequest, "duration must be greater than 0 minutes")
	}

	sessionType, err := ParseSessionType(req.SessionType)
	if err != nil {
		return SessionDTO{}, err
	}

	if sessionType == SessionPhysical {
		if req.GeoFence == nil {
			return SessionDTO{}, apperr.New(apperr.BadRequest, "geofence is required for physical sessions")
		}
		if err := req.GeoFence.Validate(); err != nil {
			return SessionDTO{}, err
		}
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return SessionDTO{}, apperr.New(apperr.BadRequest, "invalid course id")
	}

	course, err := s.courses.CourseInfo(ctx, courseID)
	if err != nil {
		return SessionDTO{}, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return SessionDTO{}, apperr.New(apperr.NotFound, "course not found")
	}

	lecturer, err := s.users.UserInfo(ctx, lecturerID)
	if err != nil {
		return SessionDTO{}, fmt.Errorf("resolving lecturer: %w", err)
	}
	if lecturer == nil {
		return SessionDTO{}, apperr.New(apperr.NotFound, "lecturer not found")
	}

	if course.LecturerID != lecturerID {
		return SessionDTO{}, apperr.New(apperr.Forbidden, "you do not own this course")
	}

	now := s.now()
	sess := Session{
		ID:         uuid.New(),
		CourseID:   courseID,
		LecturerID: lecturerID,
		Type:       sessionType,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(req.DurationMinutes) * time.Minute),
	}
	if sessionType == SessionPhysical {
		fence := *req.GeoFence
		sess.GeoFence = &fence
	}

	created, err := s.createWithFreshCode(ctx, sess)
	if err != nil {
		return SessionDTO{}, err
	}

	if s.cache != nil {
		if cerr := s.cache.CacheSessionCode(ctx, created.Code, created.ID.String(), created.ExpiresAt.Sub(now)); cerr != nil {
			s.log.Warn("caching session code failed", zap.Error(cerr))
		}
	}

	sessionsCreated.Inc()
	s.log.Info("attendance session created",
		zap.String("session_id", created.ID.String()),
		zap.String("course_id", courseID.String()),
		zap.String("type", string(sessionType)))

	return sessionDTO(created, course.Name, lecturer.Name), nil
}

func (s *Service) createWithFreshCode(ctx context.Context, sess Session) (Session, error) {
	var lastErr error
	for attempt := 0; attempt < s.codeRetries; attempt++ {
		code, err := s.codes.Generate(s.codeLength, DefaultAlphabet)
		if err != nil {
			return Session{}, err
		}
		sess.Code = code

		created, err := s.sessions.Create(ctx, sess)
		if err == nil {
			return created, nil
		}
		if !apperr.IsKind(err, apperr.Conflict) {
			return Session{}, err
		}
		lastErr = err
		s.log.Warn("session code collision, regenerating", zap.Int("attempt", attempt+1))
	}
	return Session{}, lastErr
}

// SessionByID resolves one session with display names.
func (s *Service) SessionByID(ctx context.Context, id uuid.UUID) (SessionDTO, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return SessionDTO{}, err
	}
	if sess == nil {
		return SessionDTO{}, apperr.New(apperr.NotFound, "attendance session not found")
	}
	return s.decorateSession(ctx, *sess)
}

// SessionByCode resolves one session by its code, case-insensitively.
func (s *Service) SessionByCode(ctx context.Context, code string) (SessionDTO, error) {
	sess, err := s.resolveByCode(ctx, code)
	if err != nil {
		return SessionDTO{}, err
	}
	if sess == nil {
		return SessionDTO{}, apperr.New(apperr.NotFound, "attendance session not found")
	}
	return s.decorateSession(ctx, *sess)
}

// resolveByCode consults the cache first, then the store. The cache maps
// code to session id; the session row itself is always read from the
// store, so a stale cache entry can never resurrect a deleted session.
func (s *Service) resolveByCode(ctx context.Context, code string) (*Session, error) {
	normalized := NormalizeCode(code)
	if s.cache != nil {
		if id := s.cache.LookupSessionCode(ctx, normalized); id != "" {
			if parsed, err := uuid.Parse(id); err == nil {
				sess, err := s.sessions.GetByID(ctx, parsed)
				if err != nil {
					return nil, err
				}
				if sess != nil {
					return sess, nil
				}
			}
		}
	}
	return s.sessions.GetByCode(ctx, normalized)
}

func (s *Service) decorateSession(ctx context.Context, sess Session) (SessionDTO, error) {
	course, err := s.courses.CourseInfo(ctx, sess.CourseID)
	if err != nil {
		return SessionDTO{}, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return SessionDTO{}, apperr.New(apperr.NotFound, "course not found")
	}
	lecturer, err := s.users.UserInfo(ctx, sess.LecturerID)
	if err != nil {
		return SessionDTO{}, fmt.Errorf("resolving lecturer: %w", err)
	}
	if lecturer == nil {
		return SessionDTO{}, apperr.New(apperr.NotFound, "lecturer not found")
	}
	return sessionDTO(sess, course.Name, lecturer.Name), nil
}

// ActiveSessionsForLecturer lists the lecturer's unexpired sessions.
// Sessions whose course no longer resolves are skipped.
func (s *Service) ActiveSessionsForLecturer(ctx context.Context, lecturerID uuid.UUID) ([]SessionDTO, error) {
	sessions, err := s.sessions.ActiveForLecturer(ctx, lecturerID, s.now())
	if err != nil {
		return nil, err
	}
	return s.decorateSessions(ctx, sessions)
}

// SessionsForCourse lists every session for a course.
func (s *Service) SessionsForCourse(ctx context.Context, courseID uuid.UUID) ([]SessionDTO, error) {
	course, err := s.courses.CourseInfo(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return nil, apperr.New(apperr.NotFound, "course not found")
	}
	sessions, err := s.sessions.ByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.decorateSessions(ctx, sessions)
}

func (s *Service) decorateSessions(ctx context.Context, sessions []Session) ([]SessionDTO, error) {
	out := make([]SessionDTO, 0, len(sessions))
	for _, sess := range sessions {
		course, err := s.courses.CourseInfo(ctx, sess.CourseID)
		if err != nil {
			return nil, fmt.Errorf("resolving course: %w", err)
		}
		lecturer, err := s.users.UserInfo(ctx, sess.LecturerID)
		if err != nil {
			return nil, fmt.Errorf("resolving lecturer: %w", err)
		}
		if course == nil || lecturer == nil {
			continue
		}
		out = append(out, sessionDTO(sess, course.Name, lecturer.Name))
	}
	return out, nil
}

// ExtendSession pushes a live session's expiry further out and optionally
// swaps its geofence. Expired sessions stay expired; a new session is the
// way to reopen a window.
func (s *Service) ExtendSession(ctx context.Context, lecturerID, id uuid.UUID, req ExtendSessionRequest) (SessionDTO, error) {
	if req.AdditionalMinutes <= 0 {
		return SessionDTO{}, apperr.New(apperr.BadRequest, "additional minutes must be greater than 0")
	}
	if req.GeoFence != nil {
		if err := req.GeoFence.Validate(); err != nil {
			return SessionDTO{}, err
		}
	}

	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return SessionDTO{}, err
	}
	if sess == nil {
		return SessionDTO{}, apperr.New(apperr.NotFound, "attendance session not found")
	}
	if sess.LecturerID != lecturerID {
		return SessionDTO{}, apperr.New(apperr.Forbidden, "you do not own this session")
	}

	now := s.now()
	if !sess.Active(now) {
		return SessionDTO{}, apperr.New(apperr.BadRequest, "attendance session has expired")
	}

	fence := sess.GeoFence
	if req.GeoFence != nil {
		f := *req.GeoFence
		fence = &f
	}
	expiresAt := sess.ExpiresAt.Add(time.Duration(req.AdditionalMinutes) * time.Minute)

	ok, err := s.sessions.UpdateWindow(ctx, id, expiresAt, fence)
	if err != nil {
		return SessionDTO{}, err
	}
	if !ok {
		return SessionDTO{}, apperr.New(apperr.NotFound, "attendance session not found")
	}
	sess.ExpiresAt = expiresAt
	sess.GeoFence = fence

	if s.cache != nil {
		if cerr := s.cache.CacheSessionCode(ctx, sess.Code, sess.ID.String(), expiresAt.Sub(now)); cerr != nil {
			s.log.Warn("caching session code failed", zap.Error(cerr))
		}
	}

	return s.decorateSession(ctx, *sess)
}

// QRCodeForSession renders the session's code as a PNG.
func (s *Service) QRCodeForSession(ctx context.Context, id uuid.UUID, size int) ([]byte, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.New(apperr.NotFound, "attendance session not found")
	}
	return QRCodePNG(sess.Code, size)
}

// MarkAttendance runs the check-in state machine: resolve by code, enforce
// expiry, reject duplicates, verify the geofence for physical sessions,
// then write exactly one PRESENT record. Nothing is persisted on failure.
func (s *Service) MarkAttendance(ctx context.Context, studentID uuid.UUID, req MarkAttendanceRequest) (RecordDTO, error) {
	sess, err := s.resolveByCode(ctx, req.SessionCode)
	if err != nil {
		return RecordDTO{}, err
	}
	if sess == nil {
		checkins.WithLabelValues(checkinRejected).Inc()
		return RecordDTO{}, apperr.New(apperr.NotFound, "invalid session code")
	}

	now := s.now()
	if !sess.Active(now) {
		checkins.WithLabelValues(checkinExpired).Inc()
		return RecordDTO{}, apperr.New(apperr.BadRequest, "attendance session has expired")
	}

	// Friendly early rejection; the record store's uniqueness guard is
	// what actually closes the race between concurrent duplicates.
	existing, err := s.records.GetByStudentAndSession(ctx, studentID, sess.ID)
	if err != nil {
		return RecordDTO{}, err
	}
	if existing != nil {
		checkins.WithLabelValues(checkinDuplicate).Inc()
		return RecordDTO{}, apperr.New(apperr.Conflict, "attendance already marked for this session")
	}

	student, err := s.users.UserInfo(ctx, studentID)
	if err != nil {
		return RecordDTO{}, fmt.Errorf("resolving student: %w", err)
	}
	if student == nil {
		return RecordDTO{}, apperr.New(apperr.NotFound, "student not found")
	}
	if student.Role != auth.RoleStudent {
		return RecordDTO{}, apperr.New(apperr.BadRequest, "only students can mark attendance")
	}

	course, err := s.courses.CourseInfo(ctx, sess.CourseID)
	if err != nil {
		return RecordDTO{}, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return RecordDTO{}, apperr.New(apperr.NotFound, "course not found")
	}

	method := MethodQRCode
	if sess.Type == SessionPhysical && sess.GeoFence != nil {
		if req.Location == nil {
			checkins.WithLabelValues(checkinRejected).Inc()
			return RecordDTO{}, apperr.New(apperr.BadRequest, "location is required for physical attendance")
		}
		fence := sess.GeoFence
		if !WithinRadius(req.Location.Latitude, req.Location.Longitude, fence.Latitude, fence.Longitude, fence.RadiusMeters) {
			checkins.WithLabelValues(checkinGeofence).Inc()
			return RecordDTO{}, apperr.New(apperr.BadRequest, "you are not within the required attendance area")
		}
		method = MethodGeolocation
	}

	sessionID := sess.ID
	rec := Record{
		ID:        uuid.New(),
		StudentID: studentID,
		CourseID:  sess.CourseID,
		SessionID: &sessionID,
		MarkedAt:  now,
		Status:    StatusPresent,
		Method:    method,
		DeviceID:  req.DeviceID,
	}
	if req.Location != nil {
		rec.Latitude = &req.Location.Latitude
		rec.Longitude = &req.Location.Longitude
	}

	created, err := s.records.Create(ctx, rec)
	if err != nil {
		if apperr.IsKind(err, apperr.Conflict) {
			checkins.WithLabelValues(checkinDuplicate).Inc()
		}
		return RecordDTO{}, err
	}

	checkins.WithLabelValues(checkinOK).Inc()
	s.log.Info("attendance marked",
		zap.String("record_id", created.ID.String()),
		zap.String("student_id", studentID.String()),
		zap.String("session_id", sessionID.String()),
		zap.String("method", string(method)))

	return recordDTO(created, student.Name, course.Name), nil
}

// ManualMark records attendance without a session, on a lecturer's or
// admin's authority. Lecturers may only mark students in courses they own.
func (s *Service) ManualMark(ctx context.Context, callerID uuid.UUID, callerRole string, req ManualMarkRequest) (RecordDTO, error) {
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return RecordDTO{}, apperr.New(apperr.BadRequest, "invalid student id")
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return RecordDTO{}, apperr.New(apperr.BadRequest, "invalid course id")
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		return RecordDTO{}, err
	}

	course, err := s.courses.CourseInfo(ctx, courseID)
	if err != nil {
		return RecordDTO{}, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return RecordDTO{}, apperr.New(apperr.NotFound, "course not found")
	}
	if callerRole != auth.RoleAdmin && course.LecturerID != callerID {
		return RecordDTO{}, apperr.New(apperr.Forbidden, "you do not own this course")
	}

	student, err := s.users.UserInfo(ctx, studentID)
	if err != nil {
		return RecordDTO{}, fmt.Errorf("resolving student: %w", err)
	}
	if student == nil {
		return RecordDTO{}, apperr.New(apperr.NotFound, "student not found")
	}

	rec := Record{
		ID:        uuid.New(),
		StudentID: studentID,
		CourseID:  courseID,
		MarkedAt:  s.now(),
		Status:    status,
		Method:    MethodManual,
	}
	created, err := s.records.Create(ctx, rec)
	if err != nil {
		return RecordDTO{}, err
	}
	return recordDTO(created, student.Name, course.Name), nil
}

// AttendanceForStudent lists a student's records in a course.
func (s *Service) AttendanceForStudent(ctx context.Context, studentID, courseID uuid.UUID) ([]RecordDTO, error) {
	student, err := s.users.UserInfo(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("resolving student: %w", err)
	}
	if student == nil {
		return nil, apperr.New(apperr.NotFound, "student not found")
	}
	course, err := s.courses.CourseInfo(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return nil, apperr.New(apperr.NotFound, "course not found")
	}

	records, err := s.records.ByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]RecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, recordDTO(rec, student.Name, course.Name))
	}
	return out, nil
}

// AttendanceForSession lists all records for one session. Records whose
// student no longer resolves are skipped rather than failing the whole
// projection.
func (s *Service) AttendanceForSession(ctx context.Context, sessionID uuid.UUID) ([]RecordDTO, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.New(apperr.NotFound, "attendance session not found")
	}
	course, err := s.courses.CourseInfo(ctx, sess.CourseID)
	if err != nil {
		return nil, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return nil, apperr.New(apperr.NotFound, "course not found")
	}

	records, err := s.records.BySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]RecordDTO, 0, len(records))
	for _, rec := range records {
		student, err := s.users.UserInfo(ctx, rec.StudentID)
		if err != nil {
			return nil, fmt.Errorf("resolving student: %w", err)
		}
		if student == nil {
			continue
		}
		out = append(out, recordDTO(rec, student.Name, course.Name))
	}
	return out, nil
}

// AttendanceForCourse lists records for a course within an optional date
// range, with the same lenient join as AttendanceForSession.
func (s *Service) AttendanceForCourse(ctx context.Context, courseID uuid.UUID, from, to *time.Time) ([]RecordDTO, error) {
	course, err := s.courses.CourseInfo(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return nil, apperr.New(apperr.NotFound, "course not found")
	}

	records, err := s.records.ByCourse(ctx, courseID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]RecordDTO, 0, len(records))
	for _, rec := range records {
		student, err := s.users.UserInfo(ctx, rec.StudentID)
		if err != nil {
			return nil, fmt.Errorf("resolving student: %w", err)
		}
		if student == nil {
			continue
		}
		out = append(out, recordDTO(rec, student.Name, course.Name))
	}
	return out, nil
}

// UpdateStatus overrides a record's status. Authorization happened at the
// boundary; the only gate here is that the record exists.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (RecordDTO, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return RecordDTO{}, err
	}
	if rec == nil {
		return RecordDTO{}, apperr.New(apperr.NotFound, "attendance record not found")
	}

	ok, err := s.records.UpdateStatus(ctx, id, status)
	if err != nil {
		return RecordDTO{}, err
	}
	if !ok {
		return RecordDTO{}, apperr.New(apperr.NotFound, "attendance record not found")
	}
	rec.Status = status

	studentName, courseName := "", ""
	if student, err := s.users.UserInfo(ctx, rec.StudentID); err == nil && student != nil {
		studentName = student.Name
	}
	if course, err := s.courses.CourseInfo(ctx, rec.CourseID); err == nil && course != nil {
		courseName = course.Name
	}
	return recordDTO(*rec, studentName, courseName), nil
}
