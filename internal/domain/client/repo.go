package client

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for client records.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Client, int, error)
	ListByCounselor(ctx context.Context, counselorID uuid.UUID, limit, offset int) ([]*Client, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Client, int, error)
}
