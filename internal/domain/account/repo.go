package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists accounts. Implementations return apperr NOT_FOUND for
// unknown ids and CONFLICT for a duplicate e-mail.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Update(ctx context.Context, a *Account) error
	List(ctx context.Context, search string, limit, offset int) ([]*Account, int, error)
}
