package accessrequests

import (
	"time"

	"github.com/google/uuid"

	"rasd-api/internal/domain/rasdid"
)

// AuditEntry records one action taken against a dataset request.
type AuditEntry struct {
	Action Action    `json:"action"`
	By     string    `json:"by"`
	At     time.Time `json:"at"`
}

// DatasetRequest is the per-custodian sub-request embedded in an
// AccessRequest. It has no identity outside its parent; every mutation is a
// rewrite of the whole parent record.
type DatasetRequest struct {
	ID     rasdid.ID `json:"id"`
	Status Status    `json:"status"`

	// Dataset snapshot, denormalized at creation time.
	MetadataID            uuid.UUID `json:"metadata_id"`
	MetadataTitle         string    `json:"metadata_title"`
	MetadataDataSourceDOI string    `json:"metadata_data_source_doi,omitempty"`
	MetadataDataSourceURL string    `json:"metadata_data_source_url,omitempty"`

	// Custodian snapshot, denormalized at creation time. Immutable.
	CustodianID    uuid.UUID `json:"custodian_id"`
	CustodianName  string    `json:"custodian_name"`
	CustodianEmail string    `json:"custodian_email"`

	// Append-only, one entry per transition including creation.
	Audit []AuditEntry `json:"audit"`

	// Free text, settable by the custodian only.
	Notes string `json:"notes,omitempty"`
}

// AccessRequest is the aggregate root. Custodian mutations replace the whole
// record in the store; children are never added or removed after creation.
type AccessRequest struct {
	ID          rasdid.ID  `json:"id"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DOI         string     `json:"doi,omitempty"`

	DatasetRequests []DatasetRequest `json:"dataset_requests"`

	// Duplicated from the children for querying and authorization. Immutable.
	CustodianIDs []uuid.UUID `json:"custodian_ids"`

	// Requestor snapshot at creation time, not live-linked.
	RequestorID                uuid.UUID `json:"requestor_id"`
	RequestorGivenName         string    `json:"requestor_given_name"`
	RequestorFamilyName        string    `json:"requestor_family_name"`
	RequestorEmail             string    `json:"requestor_email"`
	RequestorOrganisationID    uuid.UUID `json:"requestor_organisation_id"`
	RequestorOrganisationName  string    `json:"requestor_organisation_name"`
	RequestorOrganisationEmail string    `json:"requestor_organisation_email"`

	// Project justification form, provided by the requestor.
	RequestorOrganisationAddress        string `json:"requestor_organisation_address"`
	RequestorOrganisationIndigenousBody bool   `json:"requestor_organisation_indigenous_body"`
	RequestorORCID                      string `json:"requestor_orcid,omitempty"`
	ProjectTitle                        string `json:"project_title"`
	ProjectPurpose                      string `json:"project_purpose"`
	ProjectResearch                     string `json:"project_research,omitempty"`
	ProjectIndustry                     string `json:"project_industry,omitempty"`
	ProjectCommercial                   bool   `json:"project_commercial"`
	ProjectPublicBenefitExplanation     string `json:"project_public_benefit_explanation"`
	DataRequested                       string `json:"data_requested"`
	DataRelevanceExplanation            string `json:"data_relevance_explanation"`
	DataFrequency                       string `json:"data_frequency"`
	DataRequiredFrom                    string `json:"data_required_from,omitempty"`
	DataRequiredTo                      string `json:"data_required_to,omitempty"`
	DataFrequencyExplanation            string `json:"data_frequency_explanation,omitempty"`
	DataArea                            string `json:"data_area"`
	DataAreaExplanation                 string `json:"data_area_explanation,omitempty"`
	DataSecurityExplanation             string `json:"data_security_explanation"`
	DataAccess                          string `json:"data_access"`
	DataAccessExplanation               string `json:"data_access_explanation"`
	DataDistributionExplanation         string `json:"data_distribution_explanation"`
	DataAcceptTransformed               bool   `json:"data_accept_transformed"`
}

// Clone deep-copies the aggregate so callers can hand out mutable views
// (censoring) without touching the stored record.
func (a AccessRequest) Clone() AccessRequest {
	out := a

	if a.CompletedAt != nil {
		at := *a.CompletedAt
		out.CompletedAt = &at
	}

	out.CustodianIDs = make([]uuid.UUID, len(a.CustodianIDs))
	copy(out.CustodianIDs, a.CustodianIDs)

	out.DatasetRequests = make([]DatasetRequest, len(a.DatasetRequests))
	for i, d := range a.DatasetRequests {
		audit := make([]AuditEntry, len(d.Audit))
		copy(audit, d.Audit)
		d.Audit = audit
		out.DatasetRequests[i] = d
	}
	return out
}

// DatasetRequest returns the child with the given identifier, if present.
func (a *AccessRequest) DatasetRequest(id rasdid.ID) (DatasetRequest, bool) {
	for _, d := range a.DatasetRequests {
		if d.ID == id {
			return d, true
		}
	}
	return DatasetRequest{}, false
}

func (a *AccessRequest) replaceDatasetRequest(d DatasetRequest) {
	for i := range a.DatasetRequests {
		if a.DatasetRequests[i].ID == d.ID {
			a.DatasetRequests[i] = d
			return
		}
	}
}

// isDone reports whether every child is in a terminal state.
func (a *AccessRequest) isDone() bool {
	for _, d := range a.DatasetRequests {
		if !d.Status.Terminal() {
			return false
		}
	}
	return true
}
