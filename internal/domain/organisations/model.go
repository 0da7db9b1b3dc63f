package organisations

import (
	"regexp"

	"github.com/google/uuid"
)

// Organisation is a registered data custodian or requestor organisation.
type Organisation struct {
	ID     uuid.UUID
	Name   string
	ABN    string
	Email  string
	Active bool
}

var abnPattern = regexp.MustCompile(`^\d{11}$`)

// ValidABN reports whether s looks like an Australian Business Number.
// Registry-level verification is handled outside this service.
func ValidABN(s string) bool {
	return abnPattern.MatchString(s)
}
