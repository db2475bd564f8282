package notes

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, n *Note) error
	// GetByID returns the note only when it has the given kind.
	GetByID(ctx context.Context, kind Kind, id uuid.UUID) (*Note, error)
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, kind Kind, id uuid.UUID) error
	ListByProfile(ctx context.Context, kind Kind, profileID uuid.UUID) ([]*Note, error)
	ListByAccount(ctx context.Context, kind Kind, accountID uuid.UUID) ([]*Note, error)
}
