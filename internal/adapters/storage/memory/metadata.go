package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rasd-api/internal/domain/metadata"
)

type MetadataStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]metadata.Record
}

func NewMetadataStore() *MetadataStore {
	return &MetadataStore{records: map[uuid.UUID]metadata.Record{}}
}

func (s *MetadataStore) Create(_ context.Context, rec metadata.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	return nil
}

func (s *MetadataStore) Update(_ context.Context, rec metadata.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return errNotFound
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MetadataStore) GetByID(_ context.Context, id uuid.UUID) (metadata.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return metadata.Record{}, errNotFound
	}
	return rec, nil
}

func (s *MetadataStore) List(_ context.Context, filter metadata.ListFilter, cursor string, limit int) ([]metadata.Record, string, error) {
	limit = clampLimit(limit)
	query := strings.ToLower(filter.Query)

	s.mu.RLock()
	all := make([]metadata.Record, 0, len(s.records))
	for _, rec := range s.records {
		if !rec.Active {
			continue
		}
		if filter.OrganisationID != uuid.Nil && rec.OrganisationID != filter.OrganisationID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(rec.Title), query) &&
			!strings.Contains(strings.ToLower(rec.Abstract), query) {
			continue
		}
		all = append(all, rec)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	start := 0
	if cursor != "" {
		for i, rec := range all {
			if rec.ID.String() > cursor {
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
