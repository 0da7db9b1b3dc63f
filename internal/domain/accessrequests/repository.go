package accessrequests

import (
	"context"

	"github.com/google/uuid"

	"rasd-api/internal/domain/metadata"
	"rasd-api/internal/domain/organisations"
	"rasd-api/internal/domain/rasdid"
)

// Filter narrows Scan results. Zero values mean "no constraint".
type Filter struct {
	ActiveOnly  bool
	RequestorID uuid.UUID
	// CustodianID matches aggregates whose custodian id set contains it.
	CustodianID uuid.UUID
}

// Page is one page of scan results, keyed by the last identifier returned.
type Page struct {
	Count   int             `json:"count"`
	Cursor  string          `json:"cursor,omitempty"`
	Results []AccessRequest `json:"results"`
}

// Repository is the aggregate record store. There are no partial updates: Put
// overwrites the whole record, and concurrent writers to the same aggregate
// are last-writer-wins (accepted for this human-paced workflow).
type Repository interface {
	Get(ctx context.Context, id rasdid.ID) (AccessRequest, error)
	Put(ctx context.Context, req AccessRequest) error
	Scan(ctx context.Context, filter Filter, cursor string, limit int) (Page, error)
}

// OrganisationDirectory resolves custodian and requestor organisations during
// creation. Satisfied by *organisations.Service.
type OrganisationDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (organisations.Organisation, error)
}

// MetadataCatalog resolves the requested datasets during creation. Satisfied
// by *metadata.Service.
type MetadataCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (metadata.Record, error)
}
