package organisations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("organisation with matching details already exists")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Name  string
	ABN   string
	Email string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Organisation, error) {
	name := strings.TrimSpace(in.Name)
	abn := strings.TrimSpace(in.ABN)
	email := strings.TrimSpace(in.Email)

	if name == "" || email == "" || !ValidABN(abn) {
		return Organisation{}, ErrInvalidInput
	}

	if _, err := s.repo.FindMatch(ctx, name, abn, email); err == nil {
		return Organisation{}, ErrConflict
	}

	org := Organisation{
		ID:     uuid.New(),
		Name:   name,
		ABN:    abn,
		Email:  email,
		Active: true,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return Organisation{}, err
	}
	return org, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Organisation, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Organisation{}, ErrNotFound
	}
	return org, nil
}

func (s *Service) List(ctx context.Context, cursor string, limit int) ([]Organisation, string, error) {
	return s.repo.List(ctx, cursor, limit)
}

type UpdateInput struct {
	Name  *string
	Email *string
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Organisation, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Organisation{}, ErrNotFound
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Organisation{}, ErrInvalidInput
		}
		org.Name = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return Organisation{}, ErrInvalidInput
		}
		org.Email = email
	}

	if err := s.repo.Update(ctx, org); err != nil {
		return Organisation{}, err
	}
	return org, nil
}
