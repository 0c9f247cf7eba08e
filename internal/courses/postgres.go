package courses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Store is the persistence boundary for courses and schedules.
type Store interface {
	Create(ctx context.Context, c Course) (Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Course, error)
	ListForLecturer(ctx context.Context, lecturerID uuid.UUID) ([]Course, error)
	ListAll(ctx context.Context) ([]Course, error)
	AddSchedule(ctx context.Context, s Schedule) (Schedule, error)
	SchedulesForCourse(ctx context.Context, courseID uuid.UUID) ([]Schedule, error)
}

// PostgresStore persists courses in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a course store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a course.
func (s *PostgresStore) Create(ctx context.Context, c Course) (Course, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, name, lecturer_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.Name, c.LecturerID, c.CreatedAt)
	if err != nil {
		return Course{}, fmt.Errorf("inserting course: %w", err)
	}
	return c, nil
}

// GetByID returns a course or nil when absent.
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Course, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, lecturer_id, created_at FROM courses WHERE id = $1
	`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Name, &c.LecturerID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning course: %w", err)
	}
	return &c, nil
}

// ListForLecturer returns the lecturer's courses.
func (s *PostgresStore) ListForLecturer(ctx context.Context, lecturerID uuid.UUID) ([]Course, error) {
	return s.list(ctx, `
		SELECT id, name, lecturer_id, created_at FROM courses
		WHERE lecturer_id = $1 ORDER BY name
	`, lecturerID)
}

// ListAll returns every course.
func (s *PostgresStore) ListAll(ctx context.Context) ([]Course, error) {
	return s.list(ctx, `
		SELECT id, name, lecturer_id, created_at FROM courses ORDER BY name
	`)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.LecturerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddSchedule inserts a weekly slot for a course.
func (s *PostgresStore) AddSchedule(ctx context.Context, sch Schedule) (Schedule, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO course_schedules (id, course_id, day_of_week, start_time, end_time, room_number, meeting_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sch.ID, sch.CourseID, sch.DayOfWeek, sch.StartTime, sch.EndTime, sch.RoomNumber, sch.MeetingLink)
	if err != nil {
		return Schedule{}, fmt.Errorf("inserting schedule: %w", err)
	}
	return sch, nil
}

// SchedulesForCourse returns a course's slots ordered by day and start.
func (s *PostgresStore) SchedulesForCourse(ctx context.Context, courseID uuid.UUID) ([]Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, course_id, day_of_week, start_time, end_time, room_number, meeting_link
		FROM course_schedules WHERE course_id = $1
		ORDER BY day_of_week, start_time
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var sch Schedule
		if err := rows.Scan(&sch.ID, &sch.CourseID, &sch.DayOfWeek, &sch.StartTime, &sch.EndTime, &sch.RoomNumber, &sch.MeetingLink); err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		out = append(out, sch)
	}
	return out, rows.Err()
}
