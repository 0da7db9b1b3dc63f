package auth

import "github.com/google/uuid"

// Group mirrors the identity provider's user groups.
type Group string

const (
	GroupDataRequestors Group = "DataRequestors"
	GroupDataCustodians Group = "DataCustodians"
	GroupAdministrators Group = "Administrators"
)

// ParseGroup maps a raw group name onto a known Group, or "" if unknown.
func ParseGroup(s string) Group {
	switch Group(s) {
	case GroupDataRequestors, GroupDataCustodians, GroupAdministrators:
		return Group(s)
	}
	return ""
}

// Claims is the caller identity extracted from a verified token.
type Claims struct {
	UserID         uuid.UUID
	Email          string
	GivenName      string
	FamilyName     string
	OrganisationID uuid.UUID
	Groups         []Group
}

func (c Claims) IsRequestor() bool { return c.inGroup(GroupDataRequestors) }
func (c Claims) IsCustodian() bool { return c.inGroup(GroupDataCustodians) }
func (c Claims) IsAdmin() bool     { return c.inGroup(GroupAdministrators) }

func (c Claims) inGroup(g Group) bool {
	for _, have := range c.Groups {
		if have == g {
			return true
		}
	}
	return false
}
