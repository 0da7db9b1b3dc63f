package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rasd-api/internal/domain/accessrequests"
	"rasd-api/internal/domain/rasdid"
)

var errNotFound = errors.New("memory: not found")

// RequestStore keeps access request aggregates in a map keyed by their RASD
// identifier. Reads hand out deep copies so callers can censor or otherwise
// mutate responses without touching the stored record.
type RequestStore struct {
	mu      sync.RWMutex
	records map[rasdid.ID]accessrequests.AccessRequest
}

func NewRequestStore() *RequestStore {
	return &RequestStore{records: map[rasdid.ID]accessrequests.AccessRequest{}}
}

func (s *RequestStore) Get(_ context.Context, id rasdid.ID) (accessrequests.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.records[id]
	if !ok {
		return accessrequests.AccessRequest{}, errNotFound
	}
	return req.Clone(), nil
}

func (s *RequestStore) Put(_ context.Context, req accessrequests.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[req.ID] = req.Clone()
	return nil
}

func (s *RequestStore) Scan(_ context.Context, filter accessrequests.Filter, cursor string, limit int) (accessrequests.Page, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	matched := make([]accessrequests.AccessRequest, 0, len(s.records))
	for _, req := range s.records {
		if !matchesFilter(req, filter) {
			continue
		}
		matched = append(matched, req.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start := 0
	if cursor != "" {
		for i, req := range matched {
			if string(req.ID) > cursor {
				start = i
				break
			}
			start = len(matched)
		}
	}

	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := accessrequests.Page{Results: matched[start:end]}
	page.Count = len(page.Results)
	if end < len(matched) && page.Count > 0 {
		page.Cursor = string(page.Results[page.Count-1].ID)
	}
	return page, nil
}

func matchesFilter(req accessrequests.AccessRequest, filter accessrequests.Filter) bool {
	if filter.ActiveOnly && !req.Active {
		return false
	}
	if filter.RequestorID != uuid.Nil && req.RequestorID != filter.RequestorID {
		return false
	}
	if filter.CustodianID != uuid.Nil {
		found := false
		for _, id := range req.CustodianIDs {
			if id == filter.CustodianID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
