package courses

import (
	"time"

	"github.com/google/uuid"
)

// Course is a unit of teaching owned by one lecturer.
type Course struct {
	ID         uuid.UUID
	Name       string
	LecturerID uuid.UUID
	CreatedAt  time.Time
}

// Schedule is a recurring weekly meeting slot for a course. Either a room
// number (physical) or a meeting link (online) is set.
type Schedule struct {
	ID          uuid.UUID
	CourseID    uuid.UUID
	DayOfWeek   int
	StartTime   string
	EndTime     string
	RoomNumber  *string
	MeetingLink *string
}

// DTO is the response shape for courses.
type DTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LecturerID string    `json:"lecturerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ScheduleDTO is the response shape for schedules.
type ScheduleDTO struct {
	ID          string  `json:"id"`
	CourseID    string  `json:"courseId"`
	DayOfWeek   int     `json:"dayOfWeek"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	RoomNumber  *string `json:"roomNumber,omitempty"`
	MeetingLink *string `json:"meetingLink,omitempty"`
}

func courseDTO(c Course) DTO {
	return DTO{
		ID:         c.ID.String(),
		Name:       c.Name,
		LecturerID: c.LecturerID.String(),
		CreatedAt:  c.CreatedAt,
	}
}

func scheduleDTO(s Schedule) ScheduleDTO {
	return ScheduleDTO{
		ID:          s.ID.String(),
		CourseID:    s.CourseID.String(),
		DayOfWeek:   s.DayOfWeek,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		RoomNumber:  s.RoomNumber,
		MeetingLink: s.MeetingLink,
	}
}
