package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore is the persistence boundary for attendance sessions. It
// holds exactly one integrity rule: session codes must not collide
// (Conflict from Create). Everything else is dumb persistence.
type SessionStore interface {
	Create(ctx context.Context, s Session) (Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	// GetByCode looks up by normalized code.
	GetByCode(ctx context.Context, code string) (*Session, error)
	ActiveForLecturer(ctx context.Context, lecturerID uuid.UUID, now time.Time) ([]Session, error)
	ByCourse(ctx context.Context, courseID uuid.UUID) ([]Session, error)
	// UpdateWindow adjusts expiry and geofence, the only mutable fields.
	UpdateWindow(ctx context.Context, id uuid.UUID, expiresAt time.Time, fence *GeoFence) (bool, error)
}

// RecordStore is the persistence boundary for attendance records. Create
// must enforce at-most-one record per (student, session) atomically; the
// service relies on that, not on a prior read, to close the concurrent
// double check-in race.
type RecordStore interface {
	Create(ctx context.Context, r Record) (Record, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByStudentAndSession(ctx context.Context, studentID, sessionID uuid.UUID) (*Record, error)
	ByStudentAndCourse(ctx context.Context, studentID, courseID uuid.UUID) ([]Record, error)
	BySession(ctx context.Context, sessionID uuid.UUID) ([]Record, error)
	ByCourse(ctx context.Context, courseID uuid.UUID, from, to *time.Time) ([]Record, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error)
}

// CourseInfo is the slice of course state this package needs from the
// course collaborator.
type CourseInfo struct {
	ID         uuid.UUID
	Name       string
	LecturerID uuid.UUID
}

// UserInfo is the slice of user state this package needs from the user
// collaborator.
type UserInfo struct {
	ID   uuid.UUID
	Name string
	Role string
}

// CourseDirectory resolves courses owned by the external course module.
// A nil result with nil error means the course does not exist.
type CourseDirectory interface {
	CourseInfo(ctx context.Context, id uuid.UUID) (*CourseInfo, error)
}

// UserDirectory resolves users owned by the external user module.
type UserDirectory interface {
	UserInfo(ctx context.Context, id uuid.UUID) (*UserInfo, error)
}
