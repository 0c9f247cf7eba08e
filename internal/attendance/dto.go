package attendance

import "time"

// CreateSessionRequest is the payload for opening an attendance session.
type CreateSessionRequest struct {
	CourseID        string    `json:"courseId" binding:"required"`
	SessionType     string    `json:"sessionType" binding:"required"`
	DurationMinutes int       `json:"durationMinutes" binding:"required"`
	GeoFence        *GeoFence `json:"geoFence"`
}

// ExtendSessionRequest pushes out a session's expiry and optionally
// replaces its geofence.
type ExtendSessionRequest struct {
	AdditionalMinutes int       `json:"additionalMinutes" binding:"required"`
	GeoFence          *GeoFence `json:"geoFence"`
}

// MarkAttendanceRequest is a student's check-in submission.
type MarkAttendanceRequest struct {
	SessionCode string    `json:"sessionCode" binding:"required"`
	Location    *Location `json:"location"`
	DeviceID    *string   `json:"deviceId"`
}

// ManualMarkRequest lets a lecturer record attendance without a session.
type ManualMarkRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	CourseID  string `json:"courseId" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// SessionDTO is the response shape for attendance sessions, with display
// names joined in from the user and course collaborators.
type SessionDTO struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"courseId"`
	CourseName   string    `json:"courseName"`
	LecturerID   string    `json:"lecturerId"`
	LecturerName string    `json:"lecturerName"`
	SessionCode  string    `json:"sessionCode"`
	SessionType  string    `json:"sessionType"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	GeoFence     *GeoFence `json:"geoFence,omitempty"`
}

// RecordDTO is the response shape for attendance records.
type RecordDTO struct {
	ID                 string    `json:"id"`
	StudentID          string    `json:"studentId"`
	StudentName        string    `json:"studentName"`
	CourseID           string    `json:"courseId"`
	CourseName         string    `json:"courseName"`
	SessionID          *string   `json:"sessionId,omitempty"`
	Date               time.Time `json:"date"`
	Status             string    `json:"status"`
	VerificationMethod string    `json:"verificationMethod"`
}

func sessionDTO(s Session, courseName, lecturerName string) SessionDTO {
	return SessionDTO{
		ID:           s.ID.String(),
		CourseID:     s.CourseID.String(),
		CourseName:   courseName,
		LecturerID:   s.LecturerID.String(),
		LecturerName: lecturerName,
		SessionCode:  s.Code,
		SessionType:  string(s.Type),
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
		GeoFence:     s.GeoFence,
	}
}

func recordDTO(r Record, studentName, courseName string) RecordDTO {
	dto := RecordDTO{
		ID:                 r.ID.String(),
		StudentID:          r.StudentID.String(),
		StudentName:        studentName,
		CourseID:           r.CourseID.String(),
		CourseName:         courseName,
		Date:               r.MarkedAt,
		Status:             string(r.Status),
		VerificationMethod: string(r.Method),
	}
	if r.SessionID != nil {
		id := r.SessionID.String()
		dto.SessionID = &id
	}
	return dto
}
