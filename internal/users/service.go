package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
)

// SignUpRequest is a tagged union: Role selects which optional fields are
// required. Students register with a regNo, lecturers with an employeeId.
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`

	RegNo       string  `json:"regNo"`
	EmployeeID  string  `json:"employeeId"`
	Department  *string `json:"department"`
	YearOfStudy *int    `json:"yearOfStudy"`
	Position    *string `json:"position"`
}

// LoginRequest authenticates by email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest trades a refresh token for a fresh pair.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Role         string `json:"role"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// TokenConfig holds what the service needs to mint JWTs.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service implements registration and login for all roles.
type Service struct {
	store  Store
	tokens TokenConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewService creates the user service.
func NewService(store Store, tokens TokenConfig, log *zap.Logger) *Service {
	return &Service{store: store, tokens: tokens, log: log, now: time.Now}
}

// SignUp validates the role-discriminated request, hashes the password and
// creates the account plus its profile.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (AuthResponse, error) {
	role := strings.ToUpper(req.Role)

	var student *StudentProfile
	var staff *StaffProfile
	switch role {
	case auth.RoleStudent:
		if req.RegNo == "" {
			return AuthResponse{}, apperr.New(apperr.BadRequest, "regNo is required for student signup")
		}
		student = &StudentProfile{RegNo: req.RegNo, Department: req.Department, YearOfStudy: req.YearOfStudy}
	case auth.RoleLecturer:
		if req.EmployeeID == "" {
			return AuthResponse{}, apperr.New(apperr.BadRequest, "employeeId is required for lecturer signup")
		}
		staff = &StaffProfile{EmployeeID: req.EmployeeID, Department: req.Department, Position: req.Position}
	case auth.RoleAdmin:
		if req.EmployeeID == "" {
			return AuthResponse{}, apperr.New(apperr.BadRequest, "employeeId is required for admin signup")
		}
		staff = &StaffProfile{EmployeeID: req.EmployeeID, Department: req.Department, Position: req.Position}
	default:
		return AuthResponse{}, apperr.Newf(apperr.BadRequest, "invalid role: %s", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("hashing password: %w", err)
	}

	u := User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if student != nil {
		student.UserID = u.ID
	}
	if staff != nil {
		staff.UserID = u.ID
	}

	created, err := s.store.Create(ctx, u, student, staff)
	if err != nil {
		return AuthResponse{}, err
	}

	s.log.Info("user registered", zap.String("user_id", created.ID.String()), zap.String("role", role))
	return s.issue(created)
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return AuthResponse{}, err
	}
	if u == nil {
		return AuthResponse{}, apperr.New(apperr.Unauthorized, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return AuthResponse{}, apperr.New(apperr.Unauthorized, "invalid credentials")
	}
	return s.issue(*u)
}

// Refresh validates a refresh token and mints a fresh pair for the same
// user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResponse, error) {
	claims, err := auth.Parse(refreshToken, s.tokens.SigningKey, s.tokens.Issuer)
	if err != nil {
		return AuthResponse{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return AuthResponse{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return AuthResponse{}, err
	}
	if u == nil {
		return AuthResponse{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}
	return s.issue(*u)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (DTO, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	if u == nil {
		return DTO{}, apperr.New(apperr.NotFound, "user not found")
	}
	return userDTO(*u), nil
}

// ListByRole returns all users with a role.
func (s *Service) ListByRole(ctx context.Context, role string) ([]DTO, error) {
	role = strings.ToUpper(role)
	switch role {
	case auth.RoleStudent, auth.RoleLecturer, auth.RoleAdmin:
	default:
		return nil, apperr.Newf(apperr.BadRequest, "invalid role: %s", role)
	}
	list, err := s.store.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]DTO, 0, len(list))
	for _, u := range list {
		out = append(out, userDTO(u))
	}
	return out, nil
}

func (s *Service) issue(u User) (AuthResponse, error) {
	pair, err := auth.Issue(u.ID.String(), u.Role, s.tokens.Issuer, s.tokens.SigningKey, s.tokens.AccessTTL, s.tokens.RefreshTTL)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("issuing tokens: %w", err)
	}
	return AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       u.ID.String(),
		Role:         u.Role,
		ExpiresAt:    pair.AccessExp.Unix(),
	}, nil
}
