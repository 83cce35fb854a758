package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockUserRepo struct {
	items map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{items: map[uuid.UUID]*User{}}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now().UTC()
	m.items[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	if u, ok := m.items[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.items {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.items[u.ID]; !ok {
		return ErrUserNotFound
	}
	m.items[u.ID] = u
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.items {
		out = append(out, u)
	}
	return out, len(out), nil
}

func TestCreateUser(t *testing.T) {
	svc := NewService(newMockUserRepo())

	u, err := svc.Create(context.Background(), &User{Name: "Dana Park", Email: "Dana@Example.COM ", Role: "counselor"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "dana@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if !u.Active {
		t.Error("new accounts start active")
	}
}

func TestCreateUser_InvalidRole(t *testing.T) {
	svc := NewService(newMockUserRepo())
	_, err := svc.Create(context.Background(), &User{Name: "X", Email: "x@example.com", Role: "janitor"})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc := NewService(newMockUserRepo())

	if _, err := svc.Create(context.Background(), &User{Name: "A", Email: "a@example.com", Role: "counselor"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(context.Background(), &User{Name: "B", Email: "A@example.com", Role: "admin"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), &User{Name: "Dana Park", Email: "dana@example.com", Role: "counselor"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inactive := false
	updated, err := svc.Update(context.Background(), u.ID, "", "", "supervisor", &inactive)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != "supervisor" || updated.Active {
		t.Errorf("unexpected user after update: %+v", updated)
	}
	if updated.Name != "Dana Park" {
		t.Errorf("empty fields must be left alone, name = %q", updated.Name)
	}
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	svc := NewService(newMockUserRepo())
	u, _ := svc.Create(context.Background(), &User{Name: "A", Email: "a@example.com", Role: "counselor"})

	if _, err := svc.Update(context.Background(), u.ID, "", "", "janitor", nil); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
