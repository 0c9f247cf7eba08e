package store

import "context"

// schema is applied idempotently at startup. The two unique indexes are
// load-bearing: they are what makes the duplicate check-in guard and the
// session-code collision check atomic under concurrent requests.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS student_profiles (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		reg_no TEXT NOT NULL UNIQUE,
		department TEXT,
		year_of_study INT
	)`,
	`CREATE TABLE IF NOT EXISTS staff_profiles (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL UNIQUE,
		department TEXT,
		position TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		lecturer_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS course_schedules (
		id UUID PRIMARY KEY,
		course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		day_of_week INT NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
		start_time TIME NOT NULL,
		end_time TIME NOT NULL,
		room_number TEXT,
		meeting_link TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_sessions (
		id UUID PRIMARY KEY,
		course_id UUID NOT NULL REFERENCES courses(id),
		lecturer_id UUID NOT NULL REFERENCES users(id),
		session_code TEXT NOT NULL,
		session_type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		radius_meters DOUBLE PRECISION,
		CHECK (expires_at > created_at)
	)`,
	// Codes stay unique for the whole retention period, not just while the
	// session is active, so a fresh code can never shadow a code a student
	// still has on screen.
	`CREATE UNIQUE INDEX IF NOT EXISTS attendance_sessions_code_key
		ON attendance_sessions (session_code)`,
	`CREATE INDEX IF NOT EXISTS attendance_sessions_lecturer_idx
		ON attendance_sessions (lecturer_id, expires_at)`,
	`CREATE TABLE IF NOT EXISTS attendance_records (
		id UUID PRIMARY KEY,
		student_id UUID NOT NULL REFERENCES users(id),
		course_id UUID NOT NULL REFERENCES courses(id),
		session_id UUID REFERENCES attendance_sessions(id),
		marked_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		verification_method TEXT NOT NULL,
		device_id TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	)`,
	// At most one record per (student, session); manual marks carry a NULL
	// session_id and are exempt.
	`CREATE UNIQUE INDEX IF NOT EXISTS attendance_records_student_session_key
		ON attendance_records (student_id, session_id)
		WHERE session_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS attendance_records_course_idx
		ON attendance_records (course_id, marked_at)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id UUID PRIMARY KEY,
		course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		lecturer_id UUID NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		due_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id UUID PRIMARY KEY,
		student_id UUID NOT NULL REFERENCES users(id),
		assignment_id UUID NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
		file_url TEXT NOT NULL,
		submitted_at TIMESTAMPTZ NOT NULL,
		late BOOLEAN NOT NULL DEFAULT FALSE,
		score REAL,
		feedback TEXT,
		graded_at TIMESTAMPTZ,
		UNIQUE (student_id, assignment_id)
	)`,
}

// Migrate applies the schema statements in order.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
