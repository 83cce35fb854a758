package client

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	clients map[uuid.UUID]*Client
}

func newMockRepo() *mockRepo {
	return &mockRepo{clients: make(map[uuid.UUID]*Client)}
}

func (m *mockRepo) Create(_ context.Context, c *Client) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	m.clients[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return c, nil
}

func (m *mockRepo) Update(_ context.Context, c *Client) error {
	if _, ok := m.clients[c.ID]; !ok {
		return ErrClientNotFound
	}
	m.clients[c.ID] = c
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.clients[id]; !ok {
		return ErrClientNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Client, int, error) {
	var items []*Client
	for _, c := range m.clients {
		items = append(items, c)
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByCounselor(_ context.Context, counselorID uuid.UUID, limit, offset int) ([]*Client, int, error) {
	var items []*Client
	for _, c := range m.clients {
		if c.CounselorID == counselorID {
			items = append(items, c)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Client, int, error) {
	var items []*Client
	for _, c := range m.clients {
		if st, ok := params["status"]; ok && c.Status != st {
			continue
		}
		items = append(items, c)
	}
	return items, len(items), nil
}

func TestCreateClient_Defaults(t *testing.T) {
	svc := NewService(newMockRepo())

	c := &Client{FirstName: "Jordan", LastName: "Reyes", CounselorID: uuid.New()}
	if err := svc.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if c.Status != "active" {
		t.Errorf("expected default status active, got %s", c.Status)
	}
	if c.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
}

func TestCreateClient_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.CreateClient(ctx, &Client{CounselorID: uuid.New()}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreateClient(ctx, &Client{FirstName: "A"}); err == nil {
		t.Error("expected error for missing counselor_id")
	}
	if err := svc.CreateClient(ctx, &Client{FirstName: "A", CounselorID: uuid.New(), Email: "not-an-email"}); err == nil {
		t.Error("expected error for invalid email")
	}
	if err := svc.CreateClient(ctx, &Client{FirstName: "A", CounselorID: uuid.New(), Status: "bogus"}); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestArchiveClient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c := &Client{FirstName: "Sam", LastName: "Okafor", CounselorID: uuid.New()}
	if err := svc.CreateClient(ctx, c); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	archived, err := svc.ArchiveClient(ctx, c.ID)
	if err != nil {
		t.Fatalf("ArchiveClient: %v", err)
	}
	if archived.Status != "archived" {
		t.Errorf("expected archived status, got %s", archived.Status)
	}

	// Record remains retrievable after archiving
	got, err := svc.GetClient(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetClient after archive: %v", err)
	}
	if got.Status != "archived" {
		t.Errorf("expected stored status archived, got %s", got.Status)
	}
}

func TestArchiveClient_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.ArchiveClient(context.Background(), uuid.New()); err != ErrClientNotFound {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}

func TestFullName(t *testing.T) {
	c := &Client{FirstName: "Jordan", LastName: "Reyes"}
	if c.FullName() != "Jordan Reyes" {
		t.Errorf("unexpected full name: %s", c.FullName())
	}
	c = &Client{LastName: "Reyes"}
	if c.FullName() != "Reyes" {
		t.Errorf("unexpected full name: %s", c.FullName())
	}
}
