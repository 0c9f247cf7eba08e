package assignments

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is coursework set by a lecturer with a due date.
type Assignment struct {
	ID          uuid.UUID
	CourseID    uuid.UUID
	LecturerID  uuid.UUID
	Title       string
	Description string
	DueDate     time.Time
	CreatedAt   time.Time
}

// Submission is a student's answer to an assignment. Score and feedback
// are nil until graded.
type Submission struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	AssignmentID uuid.UUID
	FileURL      string
	SubmittedAt  time.Time
	Late         bool
	Score        *float64
	Feedback     *string
	GradedAt     *time.Time
}

// DTO is the response shape for assignments.
type DTO struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	LecturerID  string    `json:"lecturerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SubmissionDTO is the response shape for submissions.
type SubmissionDTO struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"studentId"`
	AssignmentID string     `json:"assignmentId"`
	FileURL      string     `json:"fileUrl"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	Late         bool       `json:"late"`
	Score        *float64   `json:"score,omitempty"`
	Feedback     *string    `json:"feedback,omitempty"`
	GradedAt     *time.Time `json:"gradedAt,omitempty"`
}

func assignmentDTO(a Assignment) DTO {
	return DTO{
		ID:          a.ID.String(),
		CourseID:    a.CourseID.String(),
		LecturerID:  a.LecturerID.String(),
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		CreatedAt:   a.CreatedAt,
	}
}

func submissionDTO(s Submission) SubmissionDTO {
	return SubmissionDTO{
		ID:           s.ID.String(),
		StudentID:    s.StudentID.String(),
		AssignmentID: s.AssignmentID.String(),
		FileURL:      s.FileURL,
		SubmittedAt:  s.SubmittedAt,
		Late:         s.Late,
		Score:        s.Score,
		Feedback:     s.Feedback,
		GradedAt:     s.GradedAt,
	}
}
