package assignments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"classtrack/internal/apperr"
)

// Store is the persistence boundary for assignments and submissions.
type Store interface {
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (*Assignment, error)
	AssignmentsForCourse(ctx context.Context, courseID uuid.UUID) ([]Assignment, error)
	CreateSubmission(ctx context.Context, s Submission) (Submission, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error)
	SubmissionsForAssignment(ctx context.Context, assignmentID uuid.UUID) ([]Submission, error)
	SubmissionsForStudent(ctx context.Context, studentID uuid.UUID) ([]Submission, error)
	Grade(ctx context.Context, id uuid.UUID, score float64, feedback *string) (bool, error)
}

// PostgresStore persists assignments in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates an assignment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateAssignment inserts an assignment.
func (s *PostgresStore) CreateAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignments (id, course_id, lecturer_id, title, description, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.CourseID, a.LecturerID, a.Title, a.Description, a.DueDate, a.CreatedAt)
	if err != nil {
		return Assignment{}, fmt.Errorf("inserting assignment: %w", err)
	}
	return a, nil
}

// GetAssignment returns one assignment or nil.
func (s *PostgresStore) GetAssignment(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, course_id, lecturer_id, title, description, due_date, created_at
		FROM assignments WHERE id = $1
	`, id)
	var a Assignment
	if err := row.Scan(&a.ID, &a.CourseID, &a.LecturerID, &a.Title, &a.Description, &a.DueDate, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning assignment: %w", err)
	}
	return &a, nil
}

// AssignmentsForCourse returns a course's assignments by due date.
func (s *PostgresStore) AssignmentsForCourse(ctx context.Context, courseID uuid.UUID) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, course_id, lecturer_id, title, description, due_date, created_at
		FROM assignments WHERE course_id = $1 ORDER BY due_date
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.LecturerID, &a.Title, &a.Description, &a.DueDate, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const submissionColumns = `id, student_id, assignment_id, file_url, submitted_at, late, score, feedback, graded_at`

// CreateSubmission inserts a submission; one per (student, assignment).
func (s *PostgresStore) CreateSubmission(ctx context.Context, sub Submission) (Submission, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, student_id, assignment_id, file_url, submitted_at, late)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sub.ID, sub.StudentID, sub.AssignmentID, sub.FileURL, sub.SubmittedAt, sub.Late)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Submission{}, apperr.New(apperr.Conflict, "assignment already submitted")
		}
		return Submission{}, fmt.Errorf("inserting submission: %w", err)
	}
	return sub, nil
}

// GetSubmission returns one submission or nil.
func (s *PostgresStore) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions WHERE id = $1
	`, id)
	var sub Submission
	err := row.Scan(&sub.ID, &sub.StudentID, &sub.AssignmentID, &sub.FileURL,
		&sub.SubmittedAt, &sub.Late, &sub.Score, &sub.Feedback, &sub.GradedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning submission: %w", err)
	}
	return &sub, nil
}

// SubmissionsForAssignment returns all submissions for an assignment.
func (s *PostgresStore) SubmissionsForAssignment(ctx context.Context, assignmentID uuid.UUID) ([]Submission, error) {
	return s.listSubmissions(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE assignment_id = $1 ORDER BY submitted_at
	`, assignmentID)
}

// SubmissionsForStudent returns a student's submissions, newest first.
func (s *PostgresStore) SubmissionsForStudent(ctx context.Context, studentID uuid.UUID) ([]Submission, error) {
	return s.listSubmissions(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE student_id = $1 ORDER BY submitted_at DESC
	`, studentID)
}

func (s *PostgresStore) listSubmissions(ctx context.Context, query string, args ...any) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.StudentID, &sub.AssignmentID, &sub.FileURL,
			&sub.SubmittedAt, &sub.Late, &sub.Score, &sub.Feedback, &sub.GradedAt); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// Grade sets score, feedback and the grading timestamp on a submission.
func (s *PostgresStore) Grade(ctx context.Context, id uuid.UUID, score float64, feedback *string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET score = $2, feedback = $3, graded_at = NOW() WHERE id = $1
	`, id, score, feedback)
	if err != nil {
		return false, fmt.Errorf("grading submission: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
