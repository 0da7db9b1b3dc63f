package accessrequests

import (
	"github.com/google/uuid"

	"rasd-api/internal/ports/auth"
)

// CensorForCustodian narrows aggregates to the caller's organisation: the
// custodian id set collapses to the caller's org, and dataset requests owned
// by other custodians are dropped. Mutates in place, so it must only ever run
// on response copies, never on the stored record.
func CensorForCustodian(claims auth.Claims, reqs ...*AccessRequest) {
	for _, req := range reqs {
		req.CustodianIDs = []uuid.UUID{claims.OrganisationID}

		kept := make([]DatasetRequest, 0, len(req.DatasetRequests))
		for _, d := range req.DatasetRequests {
			if d.CustodianID == claims.OrganisationID {
				kept = append(kept, d)
			}
		}
		req.DatasetRequests = kept
	}
}
