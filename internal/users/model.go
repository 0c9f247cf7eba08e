package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an account of any role. The password field always holds a bcrypt
// hash, never plaintext.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// StudentProfile carries the student-only registration fields.
type StudentProfile struct {
	UserID      uuid.UUID
	RegNo       string
	Department  *string
	YearOfStudy *int
}

// StaffProfile carries the lecturer/admin-only fields.
type StaffProfile struct {
	UserID     uuid.UUID
	EmployeeID string
	Department *string
	Position   *string
}

// DTO is the response shape for users; it never includes the hash.
type DTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func userDTO(u User) DTO {
	return DTO{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
