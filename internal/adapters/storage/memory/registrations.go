package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rasd-api/internal/domain/registrations"
)

type RegistrationStore struct {
	mu   sync.RWMutex
	regs map[uuid.UUID]registrations.Registration
}

func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{regs: map[uuid.UUID]registrations.Registration{}}
}

func (s *RegistrationStore) Create(_ context.Context, reg registrations.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.regs[reg.ID] = reg
	return nil
}

func (s *RegistrationStore) Update(_ context.Context, reg registrations.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.regs[reg.ID]; !ok {
		return errNotFound
	}
	s.regs[reg.ID] = reg
	return nil
}

func (s *RegistrationStore) GetByID(_ context.Context, id uuid.UUID) (registrations.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.regs[id]
	if !ok {
		return registrations.Registration{}, errNotFound
	}
	return reg, nil
}

func (s *RegistrationStore) List(_ context.Context, filter registrations.ListFilter, cursor string, limit int) ([]registrations.Registration, string, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	all := make([]registrations.Registration, 0, len(s.regs))
	for _, reg := range s.regs {
		if filter.ActiveOnly && !reg.Active {
			continue
		}
		if filter.Status != "" && reg.Status != filter.Status {
			continue
		}
		all = append(all, reg)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	start := 0
	if cursor != "" {
		for i, reg := range all {
			if reg.ID.String() > cursor {
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

func (s *RegistrationStore) FindByUsername(_ context.Context, username string) (registrations.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, reg := range s.regs {
		if strings.EqualFold(reg.Username, username) {
			return reg, nil
		}
	}
	return registrations.Registration{}, errNotFound
}
