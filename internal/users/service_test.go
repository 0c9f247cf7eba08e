package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classtrack/internal/apperr"
	"classtrack/internal/auth"
)

type memStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]User
	byEmail map[string]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		byID:    make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *memStore) Create(_ context.Context, u User, _ *StudentProfile, _ *StaffProfile) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[u.Email]; taken {
		return User{}, apperr.New(apperr.Conflict, "email already registered")
	}
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return u, nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byEmail[email]; ok {
		u := m.byID[id]
		return &u, nil
	}
	return nil, nil
}

func (m *memStore) ListByRole(_ context.Context, role string) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.byID {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	svc := NewService(store, TokenConfig{
		Issuer:     "classtrack-test",
		SigningKey: "test-signing-key",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, zap.NewNop())
	return svc, store
}

func studentRequest() SignUpRequest {
	return SignUpRequest{
		Name:     "Ama Owusu",
		Email:    "ama@example.edu",
		Password: "correct-horse",
		Role:     "student",
		RegNo:    "CS/2024/001",
	}
}

func TestSignUpStudent(t *testing.T) {
	svc, store := newTestService()

	resp, err := svc.SignUp(context.Background(), studentRequest())
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if resp.Role != auth.RoleStudent {
		t.Errorf("role = %q, want %q", resp.Role, auth.RoleStudent)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("signup did not issue tokens")
	}

	u, err := store.GetByEmail(context.Background(), "ama@example.edu")
	if err != nil || u == nil {
		t.Fatalf("GetByEmail after signup: %v, %v", u, err)
	}
	if u.PasswordHash == "correct-horse" {
		t.Error("password stored in plain text")
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name   string
		mutate func(*SignUpRequest)
	}{
		{"student without regNo", func(r *SignUpRequest) { r.RegNo = "" }},
		{"lecturer without employeeId", func(r *SignUpRequest) { r.Role = "LECTURER" }},
		{"admin without employeeId", func(r *SignUpRequest) { r.Role = "ADMIN" }},
		{"unknown role", func(r *SignUpRequest) { r.Role = "JANITOR" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := studentRequest()
			tt.mutate(&req)
			_, err := svc.SignUp(context.Background(), req)
			if !apperr.IsKind(err, apperr.BadRequest) {
				t.Errorf("SignUp error = %v, want BadRequest", err)
			}
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.SignUp(context.Background(), studentRequest()); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	req := studentRequest()
	req.Email = "AMA@example.edu" // normalization makes this the same account
	_, err := svc.SignUp(context.Background(), req)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("second SignUp error = %v, want Conflict", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.SignUp(context.Background(), studentRequest()); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), LoginRequest{Email: "ama@example.edu", Password: "correct-horse"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if resp.AccessToken == "" {
			t.Error("login did not issue an access token")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginRequest{Email: "ama@example.edu", Password: "wrong"})
		if !apperr.IsKind(err, apperr.Unauthorized) {
			t.Errorf("Login error = %v, want Unauthorized", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.edu", Password: "correct-horse"})
		if !apperr.IsKind(err, apperr.Unauthorized) {
			t.Errorf("Login error = %v, want Unauthorized", err)
		}
	})
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService()
	signedUp, err := svc.SignUp(context.Background(), studentRequest())
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), signedUp.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if resp.UserID != signedUp.UserID {
		t.Errorf("refresh returned user %q, want %q", resp.UserID, signedUp.UserID)
	}

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !apperr.IsKind(err, apperr.Unauthorized) {
		t.Errorf("Refresh with garbage token = %v, want Unauthorized", err)
	}
}

func TestListByRole(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.SignUp(context.Background(), studentRequest()); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	list, err := svc.ListByRole(context.Background(), "student")
	if err != nil {
		t.Fatalf("ListByRole: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d students, want 1", len(list))
	}

	if _, err := svc.ListByRole(context.Background(), "wizard"); !apperr.IsKind(err, apperr.BadRequest) {
		t.Errorf("ListByRole with bad role = %v, want BadRequest", err)
	}
}
