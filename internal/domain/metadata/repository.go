package metadata

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	// Query matches case-insensitively against title and abstract.
	Query string
	// OrganisationID restricts to one custodian's records.
	OrganisationID uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id uuid.UUID) (Record, error)
	// List returns active records ordered by id, starting after the cursor,
	// along with the cursor for the next page ("" when exhausted).
	List(ctx context.Context, filter ListFilter, cursor string, limit int) ([]Record, string, error)
}
