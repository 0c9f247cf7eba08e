package attendance

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"classtrack/internal/apperr"
)

// SessionType distinguishes in-person sessions (geofenced) from online
// ones.
type SessionType string

const (
	SessionPhysical SessionType = "PHYSICAL"
	SessionOnline   SessionType = "ONLINE"
)

// ParseSessionType normalizes and validates a session type string.
func ParseSessionType(s string) (SessionType, error) {
	switch t := SessionType(strings.ToUpper(s)); t {
	case SessionPhysical, SessionOnline:
		return t, nil
	default:
		return "", apperr.Newf(apperr.BadRequest, "invalid session type: %s", s)
	}
}

// Status of an attendance record.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
)

// ParseStatus normalizes and validates an attendance status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(s)); st {
	case StatusPresent, StatusAbsent, StatusLate:
		return st, nil
	default:
		return "", apperr.Newf(apperr.BadRequest, "invalid status: %s", s)
	}
}

// Method records how an attendance record was verified. BIOMETRIC and
// WEBCAM exist for forward compatibility; no flow in this service produces
// them.
type Method string

const (
	MethodManual      Method = "MANUAL"
	MethodQRCode      Method = "QR_CODE"
	MethodGeolocation Method = "GEOLOCATION"
	MethodBiometric   Method = "BIOMETRIC"
	MethodWebcam      Method = "WEBCAM"
	MethodOTP         Method = "OTP"
)

// GeoFence is a circular area around a center coordinate.
type GeoFence struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radiusMeters"`
}

// Validate checks coordinate ranges and the radius.
func (g GeoFence) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 {
		return apperr.New(apperr.BadRequest, "latitude must be between -90 and 90")
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return apperr.New(apperr.BadRequest, "longitude must be between -180 and 180")
	}
	if g.RadiusMeters <= 0 {
		return apperr.New(apperr.BadRequest, "radius must be greater than 0 meters")
	}
	return nil
}

// Location is a submitted coordinate, without a radius. No binding tags:
// 0 is a legal latitude and longitude, and gin's required validator
// rejects zero values. Presence is enforced in the service for physical
// sessions.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Session is a time-boxed attendance window identified by a short code.
// Immutable after creation except for expiry and geofence updates.
type Session struct {
	ID         uuid.UUID
	CourseID   uuid.UUID
	LecturerID uuid.UUID
	Code       string
	Type       SessionType
	CreatedAt  time.Time
	ExpiresAt  time.Time
	GeoFence   *GeoFence
}

// Active reports whether the session accepts check-ins at the given time.
func (s Session) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Record is one student's attendance for a course, optionally tied to a
// session. SessionID is nil for manual marks.
type Record struct {
	ID        uuid.UUID
	StudentID uuid.UUID
	CourseID  uuid.UUID
	SessionID *uuid.UUID
	MarkedAt  time.Time
	Status    Status
	Method    Method
	DeviceID  *string
	Latitude  *float64
	Longitude *float64
}

// NormalizeCode maps a user-entered session code to its stored form.
// Codes are case-insensitive on input and stored uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
