package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rasd-api/internal/domain/organisations"
)

type OrganisationStore struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]organisations.Organisation
}

func NewOrganisationStore() *OrganisationStore {
	return &OrganisationStore{orgs: map[uuid.UUID]organisations.Organisation{}}
}

func (s *OrganisationStore) Create(_ context.Context, org organisations.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orgs[org.ID] = org
	return nil
}

func (s *OrganisationStore) Update(_ context.Context, org organisations.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[org.ID]; !ok {
		return errNotFound
	}
	s.orgs[org.ID] = org
	return nil
}

func (s *OrganisationStore) GetByID(_ context.Context, id uuid.UUID) (organisations.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[id]
	if !ok {
		return organisations.Organisation{}, errNotFound
	}
	return org, nil
}

func (s *OrganisationStore) List(_ context.Context, cursor string, limit int) ([]organisations.Organisation, string, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	all := make([]organisations.Organisation, 0, len(s.orgs))
	for _, org := range s.orgs {
		if org.Active {
			all = append(all, org)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	start := 0
	if cursor != "" {
		for i, org := range all {
			if org.ID.String() > cursor {
				start = i
				break
			}
			start = len(all)
		}
	}

	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := all[start:end]

	next := ""
	if end < len(all) && len(page) > 0 {
		next = page[len(page)-1].ID.String()
	}
	return page, next, nil
}

func (s *OrganisationStore) FindMatch(_ context.Context, name, abn, email string) (organisations.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, org := range s.orgs {
		if !org.Active {
			continue
		}
		if strings.EqualFold(org.Name, name) || org.ABN == abn || strings.EqualFold(org.Email, email) {
			return org, nil
		}
	}
	return organisations.Organisation{}, errNotFound
}
