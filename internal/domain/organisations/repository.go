package organisations

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, org Organisation) error
	Update(ctx context.Context, org Organisation) error
	GetByID(ctx context.Context, id uuid.UUID) (Organisation, error)
	// List returns active organisations ordered by id, starting after the
	// cursor, along with the cursor for the next page ("" when exhausted).
	List(ctx context.Context, cursor string, limit int) ([]Organisation, string, error)
	// FindMatch returns any active organisation sharing the given name, ABN
	// or email.
	FindMatch(ctx context.Context, name, abn, email string) (Organisation, error)
}
