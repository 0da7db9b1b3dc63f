package registrations

import (
	"time"

	"github.com/google/uuid"

	"rasd-api/internal/ports/auth"
)

// Status of a registration. New registrations await an administrator's
// decision; Approved and Declined are terminal.
type Status string

const (
	StatusNew      Status = "New"
	StatusApproved Status = "Approved"
	StatusDeclined Status = "Declined"
)

// NewOrganisation holds the details of an organisation proposed as part of a
// registration, to be created on approval.
type NewOrganisation struct {
	Name  string `json:"name"`
	ABN   string `json:"abn"`
	Email string `json:"email"`
}

// Registration is a request to join the service, submitted without
// authentication and actioned by an administrator. The applicant either names
// an existing organisation by id or proposes a new one; exactly one of
// OrganisationID and NewOrganisation is set.
type Registration struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	GivenName  string     `json:"given_name"`
	FamilyName string     `json:"family_name"`
	Group      auth.Group `json:"group"`

	OrganisationID  uuid.UUID        `json:"organisation_id,omitempty"`
	NewOrganisation *NewOrganisation `json:"new_organisation,omitempty"`

	Agreements []string `json:"agreements"`

	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	// Set when an administrator approved against a different organisation
	// than the one the applicant named.
	OrganisationOverride *uuid.UUID `json:"organisation_override,omitempty"`
	ActionedBy           string     `json:"actioned_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	Active               bool       `json:"active"`
}
