package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"classtrack/internal/apperr"
)

// Store is the persistence boundary for user accounts and role profiles.
type Store interface {
	Create(ctx context.Context, u User, student *StudentProfile, staff *StaffProfile) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role string) ([]User, error)
}

// PostgresStore persists users in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a user store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the account and its role profile in one transaction.
// A duplicate email or registration number surfaces as Conflict.
func (s *PostgresStore) Create(ctx context.Context, u User, student *StudentProfile, staff *StaffProfile) (User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("beginning signup tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, apperr.New(apperr.Conflict, "email already registered")
		}
		return User{}, fmt.Errorf("inserting user: %w", err)
	}

	if student != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO student_profiles (user_id, reg_no, department, year_of_study)
			VALUES ($1, $2, $3, $4)
		`, u.ID, student.RegNo, student.Department, student.YearOfStudy)
		if err != nil {
			if isUniqueViolation(err) {
				return User{}, apperr.New(apperr.Conflict, "registration number already in use")
			}
			return User{}, fmt.Errorf("inserting student profile: %w", err)
		}
	}
	if staff != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO staff_profiles (user_id, employee_id, department, position)
			VALUES ($1, $2, $3, $4)
		`, u.ID, staff.EmployeeID, staff.Department, staff.Position)
		if err != nil {
			if isUniqueViolation(err) {
				return User{}, apperr.New(apperr.Conflict, "employee id already in use")
			}
			return User{}, fmt.Errorf("inserting staff profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("committing signup tx: %w", err)
	}
	return u, nil
}

// GetByID returns a user or nil when absent.
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1
	`, id)
	return scanUser(row)
}

// GetByEmail returns a user by email or nil when absent.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1
	`, email)
	return scanUser(row)
}

// ListByRole returns all users holding a role, ordered by name.
func (s *PostgresStore) ListByRole(ctx context.Context, role string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE role = $1 ORDER BY name
	`, role)
	if err != nil {
		return nil, fmt.Errorf("querying users by role: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
