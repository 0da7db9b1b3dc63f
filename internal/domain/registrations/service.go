package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rasd-api/internal/domain/notify"
	"rasd-api/internal/domain/organisations"
	"rasd-api/internal/platform/logger"
	"rasd-api/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	// ErrConflict reports a registration already on file for the username.
	ErrConflict = errors.New("registration with matching details already exists")
	// ErrInvalidState reports an approve or decline of a non-New registration.
	ErrInvalidState = errors.New("registration has already been actioned")
)

type Config struct {
	Repo        Repository
	Orgs        OrganisationRegistry
	Provisioner Provisioner
	ABN         ABNChecker
	Notifier    notify.Notifier
	Logger      logger.Logger
	// AdminInbox is told about each new registration.
	AdminInbox string
	// CreatePasswordURL is included in the approval email so the applicant
	// can replace the temporary password.
	CreatePasswordURL string
}

type Service struct {
	repo        Repository
	orgs        OrganisationRegistry
	provisioner Provisioner
	abn         ABNChecker
	notifier    notify.Notifier
	log         logger.Logger

	adminInbox        string
	createPasswordURL string
	now               func() time.Time
}

func NewService(cfg Config) *Service {
	return &Service{
		repo:              cfg.Repo,
		orgs:              cfg.Orgs,
		provisioner:       cfg.Provisioner,
		abn:               cfg.ABN,
		notifier:          cfg.Notifier,
		log:               cfg.Logger,
		adminInbox:        cfg.AdminInbox,
		createPasswordURL: cfg.CreatePasswordURL,
		now:               time.Now,
	}
}

type CreateInput struct {
	Username   string
	GivenName  string
	FamilyName string
	Group      auth.Group
	// Exactly one of OrganisationID and NewOrganisation must be set.
	OrganisationID  uuid.UUID
	NewOrganisation *NewOrganisation
	Agreements      []string
}

// Create files a registration. Unauthenticated: this is how users get in.
func (s *Service) Create(ctx context.Context, in CreateInput) (Registration, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" || !strings.Contains(username, "@") {
		return Registration{}, fmt.Errorf("%w: a valid email address is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.GivenName) == "" || strings.TrimSpace(in.FamilyName) == "" {
		return Registration{}, fmt.Errorf("%w: given and family names are required", ErrInvalidInput)
	}

	switch in.Group {
	case auth.GroupDataRequestors, auth.GroupDataCustodians:
	case auth.GroupAdministrators:
		return Registration{}, fmt.Errorf("%w: registering an administrator is not allowed", ErrInvalidInput)
	default:
		return Registration{}, fmt.Errorf("%w: unknown group %q", ErrInvalidInput, in.Group)
	}

	// One registration per email address, ever.
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return Registration{}, ErrConflict
	}

	if (in.OrganisationID == uuid.Nil) == (in.NewOrganisation == nil) {
		return Registration{}, fmt.Errorf("%w: provide either an organisation id or new organisation details", ErrInvalidInput)
	}

	if in.OrganisationID != uuid.Nil {
		if _, err := s.orgs.Get(ctx, in.OrganisationID); err != nil {
			return Registration{}, fmt.Errorf("%w: organisation %q does not exist", ErrInvalidInput, in.OrganisationID)
		}
	} else {
		newOrg := *in.NewOrganisation
		newOrg.Name = strings.TrimSpace(newOrg.Name)
		newOrg.ABN = strings.TrimSpace(newOrg.ABN)
		newOrg.Email = strings.TrimSpace(newOrg.Email)
		if newOrg.Name == "" || newOrg.Email == "" || !organisations.ValidABN(newOrg.ABN) {
			return Registration{}, fmt.Errorf("%w: new organisation requires a name, email and valid ABN", ErrInvalidInput)
		}
		if err := s.abn.Check(ctx, newOrg.ABN, newOrg.Name); err != nil {
			return Registration{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		in.NewOrganisation = &newOrg
	}

	reg := Registration{
		ID:              uuid.New(),
		Username:        username,
		GivenName:       strings.TrimSpace(in.GivenName),
		FamilyName:      strings.TrimSpace(in.FamilyName),
		Group:           in.Group,
		OrganisationID:  in.OrganisationID,
		NewOrganisation: in.NewOrganisation,
		Agreements:      in.Agreements,
		Status:          StatusNew,
		CreatedAt:       s.now(),
		Active:          true,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return Registration{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.RegistrationCreated,
		To:       []string{s.adminInbox},
		Data:     map[string]any{"registration_id": reg.ID.String()},
	})
	return reg, nil
}

func (s *Service) Get(ctx context.Context, claims auth.Claims, id uuid.UUID) (Registration, error) {
	if !claims.IsAdmin() {
		return Registration{}, ErrForbidden
	}
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Registration{}, ErrNotFound
	}
	return reg, nil
}

func (s *Service) List(ctx context.Context, claims auth.Claims, filter ListFilter, cursor string, limit int) ([]Registration, string, error) {
	if !claims.IsAdmin() {
		return nil, "", ErrForbidden
	}
	return s.repo.List(ctx, filter, cursor, limit)
}

// Approve resolves or creates the organisation, provisions the login, marks
// the registration approved and mails the applicant their temporary password.
// overrideOrgID, when set, replaces the organisation the applicant named.
func (s *Service) Approve(ctx context.Context, claims auth.Claims, id uuid.UUID, overrideOrgID *uuid.UUID) (Registration, error) {
	if !claims.IsAdmin() {
		return Registration{}, ErrForbidden
	}

	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Registration{}, ErrNotFound
	}
	if reg.Status != StatusNew {
		return Registration{}, fmt.Errorf("%w: status is %q", ErrInvalidState, reg.Status)
	}

	var orgID uuid.UUID
	switch {
	case overrideOrgID != nil:
		if _, err := s.orgs.Get(ctx, *overrideOrgID); err != nil {
			return Registration{}, fmt.Errorf("%w: organisation %q does not exist", ErrInvalidInput, *overrideOrgID)
		}
		orgID = *overrideOrgID
	case reg.OrganisationID != uuid.Nil:
		if _, err := s.orgs.Get(ctx, reg.OrganisationID); err != nil {
			return Registration{}, fmt.Errorf("%w: organisation %q does not exist", ErrInvalidInput, reg.OrganisationID)
		}
		orgID = reg.OrganisationID
	case reg.NewOrganisation != nil:
		org, err := s.orgs.Create(ctx, organisations.CreateInput{
			Name:  reg.NewOrganisation.Name,
			ABN:   reg.NewOrganisation.ABN,
			Email: reg.NewOrganisation.Email,
		})
		if err != nil {
			return Registration{}, err
		}
		orgID = org.ID
	default:
		return Registration{}, fmt.Errorf("%w: registration names no organisation", ErrInvalidInput)
	}

	tempPassword, err := s.provisioner.Register(ctx, ProvisionInput{
		Username:       reg.Username,
		GivenName:      reg.GivenName,
		FamilyName:     reg.FamilyName,
		OrganisationID: orgID,
		Group:          reg.Group,
	})
	if err != nil {
		return Registration{}, fmt.Errorf("provisioning user: %w", err)
	}

	reg.Status = StatusApproved
	reg.OrganisationOverride = overrideOrgID
	reg.ActionedBy = claims.Email
	if err := s.repo.Update(ctx, reg); err != nil {
		return Registration{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.RegistrationApproved,
		To:       []string{reg.Username},
		Data: map[string]any{
			"given_name":          reg.GivenName,
			"family_name":         reg.FamilyName,
			"temporary_password":  tempPassword,
			"create_password_url": s.createPasswordURL,
		},
	})
	return reg, nil
}

// Decline marks the registration declined with an optional reason and tells
// the applicant.
func (s *Service) Decline(ctx context.Context, claims auth.Claims, id uuid.UUID, reason string) (Registration, error) {
	if !claims.IsAdmin() {
		return Registration{}, ErrForbidden
	}

	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Registration{}, ErrNotFound
	}
	if reg.Status != StatusNew {
		return Registration{}, fmt.Errorf("%w: status is %q", ErrInvalidState, reg.Status)
	}

	reg.Status = StatusDeclined
	reg.Reason = strings.TrimSpace(reason)
	reg.ActionedBy = claims.Email
	if err := s.repo.Update(ctx, reg); err != nil {
		return Registration{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.RegistrationDeclined,
		To:       []string{reg.Username},
		Data: map[string]any{
			"registration_id": reg.ID.String(),
			"given_name":      reg.GivenName,
			"family_name":     reg.FamilyName,
			"reason":          reg.Reason,
		},
	})
	return reg, nil
}

func (s *Service) send(ctx context.Context, email notify.Email) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, email); err != nil {
		s.log.Error("notification send failed", map[string]any{
			"template": string(email.Template),
			"error":    err.Error(),
		})
	}
}
