package registrations

import (
	"context"

	"github.com/google/uuid"

	"rasd-api/internal/domain/organisations"
	"rasd-api/internal/ports/auth"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	ActiveOnly bool
	Status     Status
}

type Repository interface {
	Create(ctx context.Context, reg Registration) error
	Update(ctx context.Context, reg Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (Registration, error)
	List(ctx context.Context, filter ListFilter, cursor string, limit int) ([]Registration, string, error)
	// FindByUsername returns the registration for a username, if any.
	FindByUsername(ctx context.Context, username string) (Registration, error)
}

// OrganisationRegistry resolves existing organisations and creates proposed
// ones on approval. Satisfied by *organisations.Service.
type OrganisationRegistry interface {
	Get(ctx context.Context, id uuid.UUID) (organisations.Organisation, error)
	Create(ctx context.Context, in organisations.CreateInput) (organisations.Organisation, error)
}

// ProvisionInput is what the identity provider needs to create a login for an
// approved applicant.
type ProvisionInput struct {
	Username       string
	GivenName      string
	FamilyName     string
	OrganisationID uuid.UUID
	Group          auth.Group
}

// Provisioner creates the user account in the identity provider and returns
// its temporary password, which is mailed to the applicant.
type Provisioner interface {
	Register(ctx context.Context, in ProvisionInput) (tempPassword string, err error)
}

// ABNChecker verifies a proposed organisation's ABN against the business
// register: it must be registered, active, and held under the given entity
// name.
type ABNChecker interface {
	Check(ctx context.Context, abn, entityName string) error
}
