package metadata

import "github.com/google/uuid"

// Record describes a dataset listed in the catalogue. The owning organisation
// is its custodian; dataset requests snapshot the fields they need from here.
type Record struct {
	ID             uuid.UUID
	OrganisationID uuid.UUID
	Title          string
	Abstract       string
	Keywords       []string
	Custodian      string
	DataSourceDOI  string
	DataSourceURL  string
	ContactEmail   string
	Active         bool
}
