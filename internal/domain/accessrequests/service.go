package accessrequests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rasd-api/internal/domain/notify"
	"rasd-api/internal/domain/rasdid"
	"rasd-api/internal/platform/logger"
	"rasd-api/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound also masks unauthorized access so record existence is not
	// leaked to callers who cannot see it.
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid transition")
)

type Config struct {
	Repo     Repository
	Orgs     OrganisationDirectory
	Catalog  MetadataCatalog
	Notifier notify.Notifier
	Logger   logger.Logger
	// AdminInbox receives a copy of the parent-level completion email.
	AdminInbox string
}

type Service struct {
	repo       Repository
	orgs       OrganisationDirectory
	catalog    MetadataCatalog
	notifier   notify.Notifier
	log        logger.Logger
	adminInbox string
	now        func() time.Time
}

func NewService(cfg Config) *Service {
	return &Service{
		repo:       cfg.Repo,
		orgs:       cfg.Orgs,
		catalog:    cfg.Catalog,
		notifier:   cfg.Notifier,
		log:        cfg.Logger,
		adminInbox: cfg.AdminInbox,
		now:        time.Now,
	}
}

type CreateInput struct {
	MetadataIDs []uuid.UUID

	RequestorOrganisationAddress        string
	RequestorOrganisationIndigenousBody bool
	RequestorORCID                      string
	ProjectTitle                        string
	ProjectPurpose                      string
	ProjectResearch                     string
	ProjectIndustry                     string
	ProjectCommercial                   bool
	ProjectPublicBenefitExplanation     string
	DataRequested                       string
	DataRelevanceExplanation            string
	DataFrequency                       string
	DataRequiredFrom                    string
	DataRequiredTo                      string
	DataFrequencyExplanation            string
	DataArea                            string
	DataAreaExplanation                 string
	DataSecurityExplanation             string
	DataAccess                          string
	DataAccessExplanation               string
	DataDistributionExplanation         string
	DataAcceptTransformed               bool
}

// Create builds and persists a new access request with one dataset request
// per distinct selected dataset, then notifies the requestor and each
// custodian.
func (s *Service) Create(ctx context.Context, claims auth.Claims, in CreateInput) (AccessRequest, error) {
	if claims.UserID == uuid.Nil || strings.TrimSpace(claims.Email) == "" {
		return AccessRequest{}, ErrForbidden
	}

	metadataIDs := dedupeIDs(in.MetadataIDs)
	if len(metadataIDs) == 0 || len(metadataIDs) > 10 {
		return AccessRequest{}, fmt.Errorf("%w: between 1 and 10 datasets must be selected", ErrInvalidInput)
	}
	if strings.TrimSpace(in.ProjectTitle) == "" {
		return AccessRequest{}, fmt.Errorf("%w: project title is required", ErrInvalidInput)
	}

	// Resolve each dataset, keeping the caller's enumeration order.
	type resolved struct {
		metadataID     uuid.UUID
		title          string
		dataSourceDOI  string
		dataSourceURL  string
		organisationID uuid.UUID
	}
	datasets := make([]resolved, 0, len(metadataIDs))
	for _, id := range metadataIDs {
		rec, err := s.catalog.Get(ctx, id)
		if err != nil {
			return AccessRequest{}, fmt.Errorf("%w: metadata %q", ErrNotFound, id)
		}
		datasets = append(datasets, resolved{
			metadataID:     rec.ID,
			title:          rec.Title,
			dataSourceDOI:  rec.DataSourceDOI,
			dataSourceURL:  rec.DataSourceURL,
			organisationID: rec.OrganisationID,
		})
	}

	// Custodian ids are the deduplicated owning organisations.
	custodianIDs := make([]uuid.UUID, 0, len(datasets))
	custodians := map[uuid.UUID]custodianInfo{}
	for _, d := range datasets {
		if _, ok := custodians[d.organisationID]; ok {
			continue
		}
		org, err := s.orgs.Get(ctx, d.organisationID)
		if err != nil {
			return AccessRequest{}, fmt.Errorf("%w: organisation %q", ErrNotFound, d.organisationID)
		}
		custodians[d.organisationID] = custodianInfo{name: org.Name, email: org.Email}
		custodianIDs = append(custodianIDs, d.organisationID)
	}

	userOrg, err := s.orgs.Get(ctx, claims.OrganisationID)
	if err != nil {
		return AccessRequest{}, fmt.Errorf("%w: requestor associated with non-existent organisation %q", ErrInvalidState, claims.OrganisationID)
	}

	// The parent identifier is generated ahead of time for the children.
	parentID := rasdid.Generate()
	now := s.now()
	created := AuditEntry{Action: ActionCreated, By: claims.Email, At: now}

	children := make([]DatasetRequest, 0, len(datasets))
	for i, d := range datasets {
		childID, err := parentID.Sub(i + 1)
		if err != nil {
			return AccessRequest{}, err
		}
		custodian := custodians[d.organisationID]
		children = append(children, DatasetRequest{
			ID:                    childID,
			Status:                StatusNew,
			MetadataID:            d.metadataID,
			MetadataTitle:         d.title,
			MetadataDataSourceDOI: d.dataSourceDOI,
			MetadataDataSourceURL: d.dataSourceURL,
			CustodianID:           d.organisationID,
			CustodianName:         custodian.name,
			CustodianEmail:        custodian.email,
			Audit:                 []AuditEntry{created},
		})
	}

	req := AccessRequest{
		ID:              parentID,
		Active:          true,
		CreatedAt:       now,
		DatasetRequests: children,
		CustodianIDs:    custodianIDs,

		RequestorID:                claims.UserID,
		RequestorGivenName:         claims.GivenName,
		RequestorFamilyName:        claims.FamilyName,
		RequestorEmail:             claims.Email,
		RequestorOrganisationID:    userOrg.ID,
		RequestorOrganisationName:  userOrg.Name,
		RequestorOrganisationEmail: userOrg.Email,

		RequestorOrganisationAddress:        in.RequestorOrganisationAddress,
		RequestorOrganisationIndigenousBody: in.RequestorOrganisationIndigenousBody,
		RequestorORCID:                      in.RequestorORCID,
		ProjectTitle:                        strings.TrimSpace(in.ProjectTitle),
		ProjectPurpose:                      in.ProjectPurpose,
		ProjectResearch:                     in.ProjectResearch,
		ProjectIndustry:                     in.ProjectIndustry,
		ProjectCommercial:                   in.ProjectCommercial,
		ProjectPublicBenefitExplanation:     in.ProjectPublicBenefitExplanation,
		DataRequested:                       in.DataRequested,
		DataRelevanceExplanation:            in.DataRelevanceExplanation,
		DataFrequency:                       in.DataFrequency,
		DataRequiredFrom:                    in.DataRequiredFrom,
		DataRequiredTo:                      in.DataRequiredTo,
		DataFrequencyExplanation:            in.DataFrequencyExplanation,
		DataArea:                            in.DataArea,
		DataAreaExplanation:                 in.DataAreaExplanation,
		DataSecurityExplanation:             in.DataSecurityExplanation,
		DataAccess:                          in.DataAccess,
		DataAccessExplanation:               in.DataAccessExplanation,
		DataDistributionExplanation:         in.DataDistributionExplanation,
		DataAcceptTransformed:               in.DataAcceptTransformed,
	}

	if err := s.repo.Put(ctx, req); err != nil {
		return AccessRequest{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.AccessRequestCreated,
		To:       []string{req.RequestorEmail, req.RequestorOrganisationEmail},
		Data: map[string]any{
			"request_id":  string(req.ID),
			"given_name":  req.RequestorGivenName,
			"family_name": req.RequestorFamilyName,
		},
	})
	for _, d := range req.DatasetRequests {
		s.send(ctx, notify.Email{
			Template: notify.DatasetRequestCreated,
			To:       []string{d.CustodianEmail},
			Data: map[string]any{
				"request_id":    string(d.ID),
				"project_title": req.ProjectTitle,
			},
		})
	}

	return req, nil
}

type custodianInfo struct {
	name  string
	email string
}

// Get returns one access request, censored for custodian-only callers.
// Callers without access get ErrNotFound, indistinguishable from absence.
func (s *Service) Get(ctx context.Context, claims auth.Claims, id rasdid.ID) (AccessRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return AccessRequest{}, ErrNotFound
	}

	isRequestor := claims.UserID == req.RequestorID
	isCustodian := claims.IsCustodian() && containsID(req.CustodianIDs, claims.OrganisationID)

	if !claims.IsAdmin() && !isRequestor && !isCustodian {
		return AccessRequest{}, ErrNotFound
	}

	if !claims.IsAdmin() && !isRequestor && isCustodian {
		CensorForCustodian(claims, &req)
	}
	return req, nil
}

// List returns a page of all access requests. Administrators only.
func (s *Service) List(ctx context.Context, claims auth.Claims, activeOnly bool, cursor string, limit int) (Page, error) {
	if !claims.IsAdmin() {
		return Page{}, ErrForbidden
	}
	return s.repo.Scan(ctx, Filter{ActiveOnly: activeOnly}, cursor, limit)
}

// ListForCustodian returns the caller's organisation's slice of the requests
// it is involved in, censored.
func (s *Service) ListForCustodian(ctx context.Context, claims auth.Claims, activeOnly bool, cursor string, limit int) (Page, error) {
	if !claims.IsAdmin() && !claims.IsCustodian() {
		return Page{}, ErrForbidden
	}

	page, err := s.repo.Scan(ctx, Filter{ActiveOnly: activeOnly, CustodianID: claims.OrganisationID}, cursor, limit)
	if err != nil {
		return Page{}, err
	}
	for i := range page.Results {
		CensorForCustodian(claims, &page.Results[i])
	}
	return page, nil
}

// ListForRequestor returns the requests created by the caller.
func (s *Service) ListForRequestor(ctx context.Context, claims auth.Claims, activeOnly bool, cursor string, limit int) (Page, error) {
	if claims.UserID == uuid.Nil {
		return Page{}, ErrForbidden
	}
	return s.repo.Scan(ctx, Filter{ActiveOnly: activeOnly, RequestorID: claims.UserID}, cursor, limit)
}

// UpdateDOI sets the DOI minted for a completed access request.
// Administrators only, and only once the request is complete.
func (s *Service) UpdateDOI(ctx context.Context, claims auth.Claims, id rasdid.ID, doi string) (AccessRequest, error) {
	if !claims.IsAdmin() {
		return AccessRequest{}, ErrForbidden
	}

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return AccessRequest{}, ErrNotFound
	}
	if req.CompletedAt == nil {
		return AccessRequest{}, fmt.Errorf("%w: cannot update a data access request that is not complete", ErrInvalidState)
	}

	req.DOI = strings.TrimSpace(doi)
	if err := s.repo.Put(ctx, req); err != nil {
		return AccessRequest{}, err
	}
	return req, nil
}

// GetDatasetRequest returns one child. Access: admin, the original requestor,
// or the child's custodian; everyone else sees ErrNotFound.
func (s *Service) GetDatasetRequest(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID) (DatasetRequest, error) {
	req, err := s.repo.Get(ctx, pk)
	if err != nil {
		return DatasetRequest{}, ErrNotFound
	}
	child, ok := req.DatasetRequest(drpk)
	if !ok {
		return DatasetRequest{}, ErrNotFound
	}

	isRequestor := claims.UserID == req.RequestorID
	isCustodian := claims.IsCustodian() && claims.OrganisationID == child.CustodianID
	if !claims.IsAdmin() && !isRequestor && !isCustodian {
		return DatasetRequest{}, ErrNotFound
	}
	return child, nil
}

// UpdateDatasetRequestNotes sets the custodian's free-text notes on a child.
func (s *Service) UpdateDatasetRequestNotes(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID, notes string) (DatasetRequest, error) {
	req, child, err := s.loadForCustodian(ctx, claims, pk, drpk)
	if err != nil {
		return DatasetRequest{}, err
	}

	child.Notes = notes
	if err := s.updateDatasetRequest(ctx, &req, child); err != nil {
		return DatasetRequest{}, err
	}
	return child, nil
}

// Acknowledge moves a child from New to Acknowledged and notifies the
// requestor.
func (s *Service) Acknowledge(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID) (DatasetRequest, error) {
	req, child, err := s.transition(ctx, claims, pk, drpk, StatusNew, StatusAcknowledged, ActionAcknowledged)
	if err != nil {
		return DatasetRequest{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.DatasetRequestAcknowledged,
		To:       []string{req.RequestorEmail},
		Data: map[string]any{
			"request_id":    string(child.ID),
			"project_title": req.ProjectTitle,
			"given_name":    req.RequestorGivenName,
			"family_name":   req.RequestorFamilyName,
		},
	})
	return child, nil
}

// Approve moves a child from Acknowledged to Approved and notifies the
// requestor.
func (s *Service) Approve(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID) (DatasetRequest, error) {
	req, child, err := s.transition(ctx, claims, pk, drpk, StatusAcknowledged, StatusApproved, ActionApproved)
	if err != nil {
		return DatasetRequest{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.DatasetRequestApproved,
		To:       []string{req.RequestorEmail},
		Data: map[string]any{
			"request_id":  string(child.ID),
			"given_name":  req.RequestorGivenName,
			"family_name": req.RequestorFamilyName,
		},
	})
	return child, nil
}

// Decline moves a child from Acknowledged to Declined (a terminal state) and
// notifies the requestor.
func (s *Service) Decline(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID) (DatasetRequest, error) {
	req, child, err := s.transition(ctx, claims, pk, drpk, StatusAcknowledged, StatusDeclined, ActionDeclined)
	if err != nil {
		return DatasetRequest{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.DatasetRequestDeclined,
		To:       []string{req.RequestorEmail},
		Data: map[string]any{
			"request_id":  string(child.ID),
			"given_name":  req.RequestorGivenName,
			"family_name": req.RequestorFamilyName,
		},
	})
	return child, nil
}

// AgreementSent moves a child from Approved to Data Agreement Sent and
// notifies the requestor.
func (s *Service) AgreementSent(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID) (DatasetRequest, error) {
	req, child, err := s.transition(ctx, claims, pk, drpk, StatusApproved, StatusDataAgreementSent, ActionDataAgreementSent)
	if err != nil {
		return DatasetRequest{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.DatasetRequestAgreement,
		To:       []string{req.RequestorEmail},
		Data: map[string]any{
			"request_id":  string(child.ID),
			"given_name":  req.RequestorGivenName,
			"family_name": req.RequestorFamilyName,
		},
	})
	return child, nil
}

// Complete moves a child from Data Agreement Sent to Complete (a terminal
// state) and notifies the requestor.
func (s *Service) Complete(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID) (DatasetRequest, error) {
	req, child, err := s.transition(ctx, claims, pk, drpk, StatusDataAgreementSent, StatusComplete, ActionComplete)
	if err != nil {
		return DatasetRequest{}, err
	}

	s.send(ctx, notify.Email{
		Template: notify.DatasetRequestCompleted,
		To:       []string{req.RequestorEmail},
		Data: map[string]any{
			"request_id":  string(child.ID),
			"given_name":  req.RequestorGivenName,
			"family_name": req.RequestorFamilyName,
		},
	})
	return child, nil
}

// transition performs the shared transition steps: authorize, check the
// source status, append the audit entry, rewrite the parent. The caller sends
// the transition-specific notification afterwards.
func (s *Service) transition(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID, from, to Status, action Action) (AccessRequest, DatasetRequest, error) {
	req, child, err := s.loadForCustodian(ctx, claims, pk, drpk)
	if err != nil {
		return AccessRequest{}, DatasetRequest{}, err
	}

	if child.Status != from {
		return AccessRequest{}, DatasetRequest{}, &InvalidTransitionError{From: child.Status, To: to}
	}

	child.Status = to
	child.Audit = append(child.Audit, AuditEntry{Action: action, By: claims.Email, At: s.now()})

	if err := s.updateDatasetRequest(ctx, &req, child); err != nil {
		return AccessRequest{}, DatasetRequest{}, err
	}
	return req, child, nil
}

// updateDatasetRequest replaces the child inside the parent, re-evaluates
// completion and persists the whole aggregate as a single write.
//
// There is no optimistic-concurrency token: two concurrent transitions on
// different children of the same parent can clobber one another
// (last-writer-wins). Accepted for this human-paced workflow.
func (s *Service) updateDatasetRequest(ctx context.Context, req *AccessRequest, child DatasetRequest) error {
	req.replaceDatasetRequest(child)

	justCompleted := false
	if req.isDone() && req.CompletedAt == nil {
		at := s.now()
		req.CompletedAt = &at
		justCompleted = true
	}

	if err := s.repo.Put(ctx, *req); err != nil {
		return err
	}

	// The completion notification fires exactly once, on the transition into
	// the completed state.
	if justCompleted {
		s.send(ctx, notify.Email{
			Template: notify.AccessRequestCompleted,
			To:       []string{req.RequestorEmail, req.RequestorOrganisationEmail, s.adminInbox},
			Data: map[string]any{
				"request_id":    string(req.ID),
				"project_title": req.ProjectTitle,
				"given_name":    req.RequestorGivenName,
				"family_name":   req.RequestorFamilyName,
			},
		})
	}
	return nil
}

// loadForCustodian loads a parent and child for a write operation. Only an
// administrator or the child's custodian may proceed; anyone else gets
// ErrNotFound.
func (s *Service) loadForCustodian(ctx context.Context, claims auth.Claims, pk, drpk rasdid.ID) (AccessRequest, DatasetRequest, error) {
	req, err := s.repo.Get(ctx, pk)
	if err != nil {
		return AccessRequest{}, DatasetRequest{}, ErrNotFound
	}
	child, ok := req.DatasetRequest(drpk)
	if !ok {
		return AccessRequest{}, DatasetRequest{}, ErrNotFound
	}

	isCustodian := claims.IsCustodian() && claims.OrganisationID == child.CustodianID
	if !claims.IsAdmin() && !isCustodian {
		return AccessRequest{}, DatasetRequest{}, ErrNotFound
	}
	return req, child, nil
}

// send dispatches a notification and only logs failures: a broken mail
// pipeline never fails a committed transition.
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

func dedupeIDs(in []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	seen := map[uuid.UUID]struct{}{}
	for _, id := range in {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}
