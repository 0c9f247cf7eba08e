package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"classtrack/internal/apperr"
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// PostgresSessionStore persists attendance sessions in Postgres.
type PostgresSessionStore struct {
	db *sql.DB
}

// NewPostgresSessionStore creates a session store.
func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

const sessionColumns = `id, course_id, lecturer_id, session_code, session_type, created_at, expires_at, latitude, longitude, radius_meters`

// Create inserts a session. The unique index on session_code turns a
// colliding code into Conflict, atomically with respect to concurrent
// creates.
func (s *PostgresSessionStore) Create(ctx context.Context, sess Session) (Session, error) {
	var lat, lon, radius *float64
	if sess.GeoFence != nil {
		lat = &sess.GeoFence.Latitude
		lon = &sess.GeoFence.Longitude
		radius = &sess.GeoFence.RadiusMeters
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_sessions (`+sessionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, sess.ID, sess.CourseID, sess.LecturerID, sess.Code, sess.Type,
		sess.CreatedAt, sess.ExpiresAt, lat, lon, radius)
	if err != nil {
		if isUniqueViolation(err) {
			return Session{}, apperr.New(apperr.Conflict, "session code already in use")
		}
		return Session{}, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

// GetByID returns a session or nil when absent.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM attendance_sessions WHERE id = $1
	`, id)
	return scanSession(row)
}

// GetByCode returns the session holding a code, case-normalized.
func (s *PostgresSessionStore) GetByCode(ctx context.Context, code string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM attendance_sessions WHERE session_code = $1
	`, NormalizeCode(code))
	return scanSession(row)
}

// ActiveForLecturer returns the lecturer's sessions whose expiry is still
// in the future.
func (s *PostgresSessionStore) ActiveForLecturer(ctx context.Context, lecturerID uuid.UUID, now time.Time) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM attendance_sessions
		WHERE lecturer_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`, lecturerID, now)
	if err != nil {
		return nil, fmt.Errorf("querying active sessions: %w", err)
	}
	return scanSessions(rows)
}

// ByCourse returns all sessions for a course, newest first.
func (s *PostgresSessionStore) ByCourse(ctx context.Context, courseID uuid.UUID) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM attendance_sessions
		WHERE course_id = $1
		ORDER BY created_at DESC
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying course sessions: %w", err)
	}
	return scanSessions(rows)
}

// UpdateWindow adjusts a session's expiry and geofence.
func (s *PostgresSessionStore) UpdateWindow(ctx context.Context, id uuid.UUID, expiresAt time.Time, fence *GeoFence) (bool, error) {
	var lat, lon, radius *float64
	if fence != nil {
		lat = &fence.Latitude
		lon = &fence.Longitude
		radius = &fence.RadiusMeters
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance_sessions
		SET expires_at = $2, latitude = $3, longitude = $4, radius_meters = $5
		WHERE id = $1
	`, id, expiresAt, lat, lon, radius)
	if err != nil {
		return false, fmt.Errorf("updating session window: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	var lat, lon, radius sql.NullFloat64
	err := row.Scan(&sess.ID, &sess.CourseID, &sess.LecturerID, &sess.Code,
		&sess.Type, &sess.CreatedAt, &sess.ExpiresAt, &lat, &lon, &radius)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if lat.Valid && lon.Valid && radius.Valid {
		sess.GeoFence = &GeoFence{Latitude: lat.Float64, Longitude: lon.Float64, RadiusMeters: radius.Float64}
	}
	return &sess, nil
}

func scanSessions(rows *sql.Rows) ([]Session, error) {
	defer rows.Close()
	var out []Session
	for rows.Next() {
		var sess Session
		var lat, lon, radius sql.NullFloat64
		if err := rows.Scan(&sess.ID, &sess.CourseID, &sess.LecturerID, &sess.Code,
			&sess.Type, &sess.CreatedAt, &sess.ExpiresAt, &lat, &lon, &radius); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if lat.Valid && lon.Valid && radius.Valid {
			sess.GeoFence = &GeoFence{Latitude: lat.Float64, Longitude: lon.Float64, RadiusMeters: radius.Float64}
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// PostgresRecordStore persists attendance records in Postgres.
type PostgresRecordStore struct {
	db *sql.DB
}

// NewPostgresRecordStore creates a record store.
func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

const recordColumns = `id, student_id, course_id, session_id, marked_at, status, verification_method, device_id, latitude, longitude`

// Create inserts a record. The partial unique index on
// (student_id, session_id) makes a duplicate check-in surface as Conflict
// even when two requests race.
func (s *PostgresRecordStore) Create(ctx context.Context, rec Record) (Record, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, rec.ID, rec.StudentID, rec.CourseID, rec.SessionID, rec.MarkedAt,
		rec.Status, rec.Method, rec.DeviceID, rec.Latitude, rec.Longitude)
	if err != nil {
		if isUniqueViolation(err) {
			return Record{}, apperr.New(apperr.Conflict, "attendance already marked for this session")
		}
		return Record{}, fmt.Errorf("inserting attendance record: %w", err)
	}
	return rec, nil
}

// GetByID returns a record or nil when absent.
func (s *PostgresRecordStore) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records WHERE id = $1
	`, id)
	return scanRecord(row)
}

// GetByStudentAndSession returns the record for a (student, session) pair,
// or nil.
func (s *PostgresRecordStore) GetByStudentAndSession(ctx context.Context, studentID, sessionID uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE student_id = $1 AND session_id = $2
	`, studentID, sessionID)
	return scanRecord(row)
}

// ByStudentAndCourse returns a student's records for a course, newest
// first.
func (s *PostgresRecordStore) ByStudentAndCourse(ctx context.Context, studentID, courseID uuid.UUID) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE student_id = $1 AND course_id = $2
		ORDER BY marked_at DESC
	`, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("querying student records: %w", err)
	}
	return scanRecords(rows)
}

// BySession returns all records for a session, newest first.
func (s *PostgresRecordStore) BySession(ctx context.Context, sessionID uuid.UUID) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE session_id = $1
		ORDER BY marked_at DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session records: %w", err)
	}
	return scanRecords(rows)
}

// ByCourse returns records for a course, optionally bounded by a date
// range.
func (s *PostgresRecordStore) ByCourse(ctx context.Context, courseID uuid.UUID, from, to *time.Time) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE course_id = $1`
	args := []any{courseID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND marked_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND marked_at <= $%d", len(args))
	}
	query += " ORDER BY marked_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying course records: %w", err)
	}
	return scanRecords(rows)
}

// UpdateStatus sets a record's status; false when the record is unknown.
func (s *PostgresRecordStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance_records SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return false, fmt.Errorf("updating record status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanRecord(row *sql.Row) (*Record, error) {
	var rec Record
	var sessionID uuid.NullUUID
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.CourseID, &sessionID,
		&rec.MarkedAt, &rec.Status, &rec.Method, &rec.DeviceID, &rec.Latitude, &rec.Longitude)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning attendance record: %w", err)
	}
	if sessionID.Valid {
		rec.SessionID = &sessionID.UUID
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		var sessionID uuid.NullUUID
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.CourseID, &sessionID,
			&rec.MarkedAt, &rec.Status, &rec.Method, &rec.DeviceID, &rec.Latitude, &rec.Longitude); err != nil {
			return nil, fmt.Errorf("scanning attendance record: %w", err)
		}
		if sessionID.Valid {
			rec.SessionID = &sessionID.UUID
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
