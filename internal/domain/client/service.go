package client

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
)

type Service struct {
	clients Repository
}

func NewService(clients Repository) *Service {
	return &Service{clients: clients}
}

func (s *Service) CreateClient(ctx context.Context, c *Client) error {
	if c.FirstName == "" && c.LastName == "" {
		return fmt.Errorf("client name is required")
	}
	if c.CounselorID == uuid.Nil {
		return fmt.Errorf("counselor_id is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("invalid email address: %s", c.Email)
		}
	}
	if c.Status == "" {
		c.Status = "active"
	}
	if !ValidStatuses[c.Status] {
		return fmt.Errorf("invalid status: %s", c.Status)
	}
	return s.clients.Create(ctx, c)
}

func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.clients.GetByID(ctx, id)
}

func (s *Service) UpdateClient(ctx context.Context, c *Client) error {
	if c.Status != "" && !ValidStatuses[c.Status] {
		return fmt.Errorf("invalid status: %s", c.Status)
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("invalid email address: %s", c.Email)
		}
	}
	return s.clients.Update(ctx, c)
}

// ArchiveClient marks a client archived instead of removing the record, so
// session history and generated reports stay reachable.
func (s *Service) ArchiveClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Status = "archived"
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return s.clients.Delete(ctx, id)
}

func (s *Service) ListClients(ctx context.Context, limit, offset int) ([]*Client, int, error) {
	return s.clients.List(ctx, limit, offset)
}

func (s *Service) ListClientsByCounselor(ctx context.Context, counselorID uuid.UUID, limit, offset int) ([]*Client, int, error) {
	return s.clients.ListByCounselor(ctx, counselorID, limit, offset)
}

func (s *Service) SearchClients(ctx context.Context, params map[string]string, limit, offset int) ([]*Client, int, error) {
	return s.clients.Search(ctx, params, limit, offset)
}
