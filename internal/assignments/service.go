package assignments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
)

// CreateAssignmentRequest sets coursework for a course.
type CreateAssignmentRequest struct {
	CourseID    string    `json:"courseId" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	DueDate     time.Time `json:"dueDate" binding:"required"`
}

// GradeRequest scores a submission.
type GradeRequest struct {
	Score    float64 `json:"score"`
	Feedback *string `json:"feedback"`
}

// CourseInfo is the slice of course state this package needs.
type CourseInfo struct {
	ID         uuid.UUID
	Name       string
	LecturerID uuid.UUID
}

// CourseDirectory resolves courses owned by the course module. Nil with
// nil error means the course does not exist.
type CourseDirectory interface {
	CourseInfo(ctx context.Context, id uuid.UUID) (*CourseInfo, error)
}

// Uploader stores a submission document and returns its hosted URL.
type Uploader interface {
	Upload(data []byte, filename string) (string, error)
}

// Service implements assignment management, submission and grading.
type Service struct {
	store    Store
	courses  CourseDirectory
	uploader Uploader
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates the assignment service. uploader may be nil when file
// storage is not configured; submissions then require a pre-hosted URL.
func NewService(store Store, courses CourseDirectory, uploader Uploader, log *zap.Logger) *Service {
	return &Service{store: store, courses: courses, uploader: uploader, log: log, now: time.Now}
}

// Create sets an assignment on a course the caller owns.
func (s *Service) Create(ctx context.Context, callerID uuid.UUID, callerRole string, req CreateAssignmentRequest) (DTO, error) {
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return DTO{}, apperr.New(apperr.BadRequest, "invalid course id")
	}
	if !req.DueDate.After(s.now()) {
		return DTO{}, apperr.New(apperr.BadRequest, "due date must be in the future")
	}

	course, err := s.courses.CourseInfo(ctx, courseID)
	if err != nil {
		return DTO{}, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return DTO{}, apperr.New(apperr.NotFound, "course not found")
	}
	if callerRole != auth.RoleAdmin && course.LecturerID != callerID {
		return DTO{}, apperr.New(apperr.Forbidden, "you do not own this course")
	}

	a := Assignment{
		ID:          uuid.New(),
		CourseID:    courseID,
		LecturerID:  course.LecturerID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatedAt:   s.now(),
	}
	created, err := s.store.CreateAssignment(ctx, a)
	if err != nil {
		return DTO{}, err
	}
	s.log.Info("assignment created", zap.String("assignment_id", created.ID.String()), zap.String("course_id", courseID.String()))
	return assignmentDTO(created), nil
}

// ForCourse lists a course's assignments.
func (s *Service) ForCourse(ctx context.Context, courseID uuid.UUID) ([]DTO, error) {
	course, err := s.courses.CourseInfo(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("resolving course: %w", err)
	}
	if course == nil {
		return nil, apperr.New(apperr.NotFound, "course not found")
	}
	list, err := s.store.AssignmentsForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]DTO, 0, len(list))
	for _, a := range list {
		out = append(out, assignmentDTO(a))
	}
	return out, nil
}

// Submit uploads a student's answer file and records the submission.
// Submissions past the due date are accepted but flagged late.
func (s *Service) Submit(ctx context.Context, studentID, assignmentID uuid.UUID, file []byte, filename string) (SubmissionDTO, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return SubmissionDTO{}, err
	}
	if assignment == nil {
		return SubmissionDTO{}, apperr.New(apperr.NotFound, "assignment not found")
	}
	if s.uploader == nil {
		return SubmissionDTO{}, apperr.New(apperr.Internal, "file storage not configured")
	}
	if len(file) == 0 {
		return SubmissionDTO{}, apperr.New(apperr.BadRequest, "submission file is required")
	}

	url, err := s.uploader.Upload(file, filename)
	if err != nil {
		return SubmissionDTO{}, apperr.Wrap(apperr.Internal, "uploading submission", err)
	}

	now := s.now()
	sub := Submission{
		ID:           uuid.New(),
		StudentID:    studentID,
		AssignmentID: assignmentID,
		FileURL:      url,
		SubmittedAt:  now,
		Late:         now.After(assignment.DueDate),
	}
	created, err := s.store.CreateSubmission(ctx, sub)
	if err != nil {
		return SubmissionDTO{}, err
	}
	s.log.Info("submission received",
		zap.String("submission_id", created.ID.String()),
		zap.String("assignment_id", assignmentID.String()),
		zap.Bool("late", created.Late))
	return submissionDTO(created), nil
}

// ForAssignment lists submissions for an assignment the caller may grade.
func (s *Service) ForAssignment(ctx context.Context, callerID uuid.UUID, callerRole string, assignmentID uuid.UUID) ([]SubmissionDTO, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, apperr.New(apperr.NotFound, "assignment not found")
	}
	if callerRole != auth.RoleAdmin && assignment.LecturerID != callerID {
		return nil, apperr.New(apperr.Forbidden, "you do not own this assignment")
	}
	list, err := s.store.SubmissionsForAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	out := make([]SubmissionDTO, 0, len(list))
	for _, sub := range list {
		out = append(out, submissionDTO(sub))
	}
	return out, nil
}

// OwnSubmissions lists the calling student's submissions.
func (s *Service) OwnSubmissions(ctx context.Context, studentID uuid.UUID) ([]SubmissionDTO, error) {
	list, err := s.store.SubmissionsForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]SubmissionDTO, 0, len(list))
	for _, sub := range list {
		out = append(out, submissionDTO(sub))
	}
	return out, nil
}

// Grade scores a submission on the caller's authority over its
// assignment.
func (s *Service) Grade(ctx context.Context, callerID uuid.UUID, callerRole string, submissionID uuid.UUID, req GradeRequest) (SubmissionDTO, error) {
	if req.Score < 0 || req.Score > 100 {
		return SubmissionDTO{}, apperr.New(apperr.BadRequest, "score must be between 0 and 100")
	}
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return SubmissionDTO{}, err
	}
	if sub == nil {
		return SubmissionDTO{}, apperr.New(apperr.NotFound, "submission not found")
	}
	assignment, err := s.store.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return SubmissionDTO{}, err
	}
	if assignment == nil {
		return SubmissionDTO{}, apperr.New(apperr.NotFound, "assignment not found")
	}
	if callerRole != auth.RoleAdmin && assignment.LecturerID != callerID {
		return SubmissionDTO{}, apperr.New(apperr.Forbidden, "you do not own this assignment")
	}

	ok, err := s.store.Grade(ctx, submissionID, req.Score, req.Feedback)
	if err != nil {
		return SubmissionDTO{}, err
	}
	if !ok {
		return SubmissionDTO{}, apperr.New(apperr.NotFound, "submission not found")
	}

	graded, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return SubmissionDTO{}, err
	}
	if graded == nil {
		return SubmissionDTO{}, apperr.New(apperr.NotFound, "submission not found")
	}
	return submissionDTO(*graded), nil
}
