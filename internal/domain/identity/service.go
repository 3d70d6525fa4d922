package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Signup registers a new account. Only PATIENT and DOCTOR may be chosen at
// signup; ADMIN accounts are provisioned out of band.
func (s *Service) Signup(ctx context.Context, email, name, role string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, fault.New(fault.InvalidInput, "a valid email is required")
	}
	if name == "" {
		return nil, fault.New(fault.InvalidInput, "name is required")
	}
	if role != RolePatient && role != RoleDoctor {
		return nil, fault.Errorf(fault.InvalidInput, "role must be %s or %s", RolePatient, RoleDoctor)
	}

	u := &User{Email: email, Name: name, Role: role}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile lets a user change their display name. Email and role are
// immutable once the account exists.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fault.New(fault.InvalidInput, "name is required")
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Name = name
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListDoctors returns doctor accounts; any authenticated user may browse them
// when choosing who to book with.
func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.ListByRole(ctx, RoleDoctor, limit, offset)
}

// ListUsers returns every account; reserved for administrators.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}
