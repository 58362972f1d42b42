package claims

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	GetByDocumentID(ctx context.Context, userID uuid.UUID, documentID string) (*Claim, error)
	ListByUser(ctx context.Context, userID uuid.UUID, f ListFilter, limit, offset int) ([]*Claim, int, error)
}
