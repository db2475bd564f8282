package form

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists form documents.
type Repository interface {
	// GetOrCreate returns the document, creating an empty one the first time
	// an existing profile is accessed.
	GetOrCreate(ctx context.Context, profileID uuid.UUID) (*Document, error)
	// Save writes doc if the stored version still equals doc.Version and
	// bumps the version. A mismatch is a CONFLICT.
	Save(ctx context.Context, doc *Document) error
	SetEditable(ctx context.Context, profileID uuid.UUID, editable bool) (*Document, error)
}
