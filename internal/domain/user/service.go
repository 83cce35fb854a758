package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service manages staff accounts.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, u *User) (*User, error) {
	if !ValidRoles[u.Role] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, u.Role)
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Active = true

	if existing, err := s.repo.GetByEmail(ctx, u.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, name, email, role string, active *bool) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		u.Name = name
	}
	if email != "" {
		u.Email = strings.ToLower(strings.TrimSpace(email))
	}
	if role != "" {
		if !ValidRoles[role] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
		}
		u.Role = role
	}
	if active != nil {
		u.Active = *active
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}
