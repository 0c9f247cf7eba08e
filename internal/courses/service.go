package courses

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
)

// CreateCourseRequest names a course and, for admins, assigns a lecturer.
type CreateCourseRequest struct {
	Name       string `json:"name" binding:"required"`
	LecturerID string `json:"lecturerId"`
}

// AddScheduleRequest adds a weekly meeting slot.
type AddScheduleRequest struct {
	DayOfWeek   int     `json:"dayOfWeek" binding:"required,min=1,max=7"`
	StartTime   string  `json:"startTime" binding:"required"`
	EndTime     string  `json:"endTime" binding:"required"`
	RoomNumber  *string `json:"roomNumber"`
	MeetingLink *string `json:"meetingLink"`
}

// Service implements course management. Ownership checks are plain
// conditionals over the caller's id and role.
type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

// NewService creates the course service.
func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Create registers a course. Lecturers own what they create; admins may
// assign any lecturer.
func (s *Service) Create(ctx context.Context, callerID uuid.UUID, callerRole string, req CreateCourseRequest) (DTO, error) {
	lecturerID := callerID
	if req.LecturerID != "" {
		parsed, err := uuid.Parse(req.LecturerID)
		if err != nil {
			return DTO{}, apperr.New(apperr.BadRequest, "invalid lecturer id")
		}
		if parsed != callerID && callerRole != auth.RoleAdmin {
			return DTO{}, apperr.New(apperr.Forbidden, "only admins may assign courses to other lecturers")
		}
		lecturerID = parsed
	}

	course := Course{
		ID:         uuid.New(),
		Name:       req.Name,
		LecturerID: lecturerID,
		CreatedAt:  s.now(),
	}
	created, err := s.store.Create(ctx, course)
	if err != nil {
		return DTO{}, err
	}
	s.log.Info("course created", zap.String("course_id", created.ID.String()), zap.String("lecturer_id", lecturerID.String()))
	return courseDTO(created), nil
}

// Get returns one course.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (DTO, error) {
	course, err := s.store.GetByID(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	if course == nil {
		return DTO{}, apperr.New(apperr.NotFound, "course not found")
	}
	return courseDTO(*course), nil
}

// List returns the caller's courses, or every course for admins.
func (s *Service) List(ctx context.Context, callerID uuid.UUID, callerRole string) ([]DTO, error) {
	var (
		list []Course
		err  error
	)
	if callerRole == auth.RoleAdmin {
		list, err = s.store.ListAll(ctx)
	} else {
		list, err = s.store.ListForLecturer(ctx, callerID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]DTO, 0, len(list))
	for _, c := range list {
		out = append(out, courseDTO(c))
	}
	return out, nil
}

// AddSchedule attaches a weekly slot to a course the caller owns.
func (s *Service) AddSchedule(ctx context.Context, callerID uuid.UUID, callerRole string, courseID uuid.UUID, req AddScheduleRequest) (ScheduleDTO, error) {
	course, err := s.store.GetByID(ctx, courseID)
	if err != nil {
		return ScheduleDTO{}, err
	}
	if course == nil {
		return ScheduleDTO{}, apperr.New(apperr.NotFound, "course not found")
	}
	if callerRole != auth.RoleAdmin && course.LecturerID != callerID {
		return ScheduleDTO{}, apperr.New(apperr.Forbidden, "you do not own this course")
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return ScheduleDTO{}, apperr.New(apperr.BadRequest, "startTime must be HH:MM")
	}
	if _, err := time.Parse("15:04", req.EndTime); err != nil {
		return ScheduleDTO{}, apperr.New(apperr.BadRequest, "endTime must be HH:MM")
	}

	sch := Schedule{
		ID:          uuid.New(),
		CourseID:    courseID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		RoomNumber:  req.RoomNumber,
		MeetingLink: req.MeetingLink,
	}
	created, err := s.store.AddSchedule(ctx, sch)
	if err != nil {
		return ScheduleDTO{}, fmt.Errorf("adding schedule: %w", err)
	}
	return scheduleDTO(created), nil
}

// Schedules lists a course's weekly slots.
func (s *Service) Schedules(ctx context.Context, courseID uuid.UUID) ([]ScheduleDTO, error) {
	course, err := s.store.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apperr.New(apperr.NotFound, "course not found")
	}
	list, err := s.store.SchedulesForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]ScheduleDTO, 0, len(list))
	for _, sch := range list {
		out = append(out, scheduleDTO(sch))
	}
	return out, nil
}
