package profile

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists profiles. Implementations return apperr NOT_FOUND for
// unknown ids and CONFLICT when a guarded write loses a race.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	// Update writes the editable attributes. A non-zero p.Version must match
	// the stored version.
	Update(ctx context.Context, p *Profile) error
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Profile, int, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Profile, error)
	// SetStatus moves a profile from one status to another and fails with
	// CONFLICT if it is no longer in from.
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Profile, error)
	SetWorkflow(ctx context.Context, id uuid.UUID, field WorkflowField, value string) (*Profile, error)
}
