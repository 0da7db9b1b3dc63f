package metadata

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	OrganisationID uuid.UUID
	Title          string
	Abstract       string
	Keywords       []string
	Custodian      string
	DataSourceDOI  string
	DataSourceURL  string
	ContactEmail   string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Record, error) {
	title := strings.TrimSpace(in.Title)
	doi := strings.TrimSpace(in.DataSourceDOI)
	url := strings.TrimSpace(in.DataSourceURL)

	if title == "" || in.OrganisationID == uuid.Nil || strings.TrimSpace(in.ContactEmail) == "" {
		return Record{}, ErrInvalidInput
	}
	// A record must point at its data source one way or another.
	if doi == "" && url == "" {
		return Record{}, ErrInvalidInput
	}

	rec := Record{
		ID:             uuid.New(),
		OrganisationID: in.OrganisationID,
		Title:          title,
		Abstract:       strings.TrimSpace(in.Abstract),
		Keywords:       cleanKeywords(in.Keywords),
		Custodian:      strings.TrimSpace(in.Custodian),
		DataSourceDOI:  doi,
		DataSourceURL:  url,
		ContactEmail:   strings.TrimSpace(in.ContactEmail),
		Active:         true,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, cursor string, limit int) ([]Record, string, error) {
	return s.repo.List(ctx, filter, cursor, limit)
}

type UpdateInput struct {
	Title         *string
	Abstract      *string
	Keywords      []string
	DataSourceDOI *string
	DataSourceURL *string
	ContactEmail  *string
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, ErrNotFound
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Record{}, ErrInvalidInput
		}
		rec.Title = title
	}
	if in.Abstract != nil {
		rec.Abstract = strings.TrimSpace(*in.Abstract)
	}
	if in.Keywords != nil {
		rec.Keywords = cleanKeywords(in.Keywords)
	}
	if in.DataSourceDOI != nil {
		rec.DataSourceDOI = strings.TrimSpace(*in.DataSourceDOI)
	}
	if in.DataSourceURL != nil {
		rec.DataSourceURL = strings.TrimSpace(*in.DataSourceURL)
	}
	if rec.DataSourceDOI == "" && rec.DataSourceURL == "" {
		return Record{}, ErrInvalidInput
	}
	if in.ContactEmail != nil {
		email := strings.TrimSpace(*in.ContactEmail)
		if email == "" {
			return Record{}, ErrInvalidInput
		}
		rec.ContactEmail = email
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
