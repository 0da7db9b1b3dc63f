package registrations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"rasd-api/internal/domain/notify"
	"rasd-api/internal/domain/organisations"
	"rasd-api/internal/platform/logger"
	"rasd-api/internal/ports/auth"
)

type fakeRepo struct {
	byID map[uuid.UUID]Registration
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]Registration{}}
}

func (f *fakeRepo) Create(_ context.Context, reg Registration) error {
	f.byID[reg.ID] = reg
	return nil
}

func (f *fakeRepo) Update(_ context.Context, reg Registration) error {
	f.byID[reg.ID] = reg
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (Registration, error) {
	reg, ok := f.byID[id]
	if !ok {
		return Registration{}, errors.New("no such registration")
	}
	return reg, nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter, _ string, _ int) ([]Registration, string, error) {
	var out []Registration
	for _, reg := range f.byID {
		if filter.ActiveOnly && !reg.Active {
			continue
		}
		if filter.Status != "" && reg.Status != filter.Status {
			continue
		}
		out = append(out, reg)
	}
	return out, "", nil
}

func (f *fakeRepo) FindByUsername(_ context.Context, username string) (Registration, error) {
	for _, reg := range f.byID {
		if reg.Username == username {
			return reg, nil
		}
	}
	return Registration{}, errors.New("no such registration")
}

type fakeOrgs struct {
	orgs    map[uuid.UUID]organisations.Organisation
	created []organisations.CreateInput
}

func (f *fakeOrgs) Get(_ context.Context, id uuid.UUID) (organisations.Organisation, error) {
	org, ok := f.orgs[id]
	if !ok {
		return organisations.Organisation{}, errors.New("no such organisation")
	}
	return org, nil
}

func (f *fakeOrgs) Create(_ context.Context, in organisations.CreateInput) (organisations.Organisation, error) {
	f.created = append(f.created, in)
	org := organisations.Organisation{ID: uuid.New(), Name: in.Name, ABN: in.ABN, Email: in.Email, Active: true}
	f.orgs[org.ID] = org
	return org, nil
}

type fakeProvisioner struct {
	calls []ProvisionInput
	err   error
}

func (f *fakeProvisioner) Register(_ context.Context, in ProvisionInput) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, in)
	return "Temp#Pass1", nil
}

type fakeABN struct{ err error }

func (f *fakeABN) Check(context.Context, string, string) error { return f.err }

type fakeNotifier struct {
	sent []notify.Email
}

func (f *fakeNotifier) Send(_ context.Context, email notify.Email) error {
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeNotifier) last(t *testing.T) notify.Email {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no emails sent")
	}
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	svc         *Service
	repo        *fakeRepo
	orgs        *fakeOrgs
	provisioner *fakeProvisioner
	abn         *fakeABN
	notifier    *fakeNotifier

	existingOrg uuid.UUID
	admin       auth.Claims
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:        newFakeRepo(),
		orgs:        &fakeOrgs{orgs: map[uuid.UUID]organisations.Organisation{}},
		provisioner: &fakeProvisioner{},
		abn:         &fakeABN{},
		notifier:    &fakeNotifier{},
		existingOrg: uuid.New(),
	}
	f.orgs.orgs[f.existingOrg] = organisations.Organisation{
		ID: f.existingOrg, Name: "Marine Data Office", Email: "data@marine.example", Active: true,
	}

	f.svc = NewService(Config{
		Repo:              f.repo,
		Orgs:              f.orgs,
		Provisioner:       f.provisioner,
		ABN:               f.abn,
		Notifier:          f.notifier,
		Logger:            logger.Discard(),
		AdminInbox:        "admin@rasd.example",
		CreatePasswordURL: "https://rasd.example/create-password",
	})
	f.svc.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }

	f.admin = auth.Claims{
		UserID: uuid.New(),
		Email:  "ops@rasd.example",
		Groups: []auth.Group{auth.GroupAdministrators},
	}
	return f
}

func validInput(orgID uuid.UUID) CreateInput {
	return CreateInput{
		Username:       "Jess@Reef.Example",
		GivenName:      "Jess",
		FamilyName:     "Park",
		Group:          auth.GroupDataRequestors,
		OrganisationID: orgID,
		Agreements:     []string{"code-of-conduct"},
	}
}

func TestCreateRegistration(t *testing.T) {
	f := newFixture(t)

	reg, err := f.svc.Create(context.Background(), validInput(f.existingOrg))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if reg.Status != StatusNew {
		t.Errorf("status = %q, want %q", reg.Status, StatusNew)
	}
	if reg.Username != "jess@reef.example" {
		t.Errorf("username not normalised: %q", reg.Username)
	}

	email := f.notifier.last(t)
	if email.Template != notify.RegistrationCreated || email.To[0] != "admin@rasd.example" {
		t.Errorf("admin notification = %+v", email)
	}

	// Same address again is a conflict.
	if _, err := f.svc.Create(context.Background(), validInput(f.existingOrg)); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate: err = %v, want ErrConflict", err)
	}
}

func TestCreateRegistrationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput(f.existingOrg)
	in.Group = auth.GroupAdministrators
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("admin group: err = %v, want ErrInvalidInput", err)
	}

	in = validInput(uuid.New())
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown organisation: err = %v, want ErrInvalidInput", err)
	}

	// Neither an existing id nor new-organisation details.
	in = validInput(uuid.Nil)
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no organisation: err = %v, want ErrInvalidInput", err)
	}

	// Both forms at once.
	in = validInput(f.existingOrg)
	in.NewOrganisation = &NewOrganisation{Name: "X", ABN: "51824753556", Email: "x@y.example"}
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("both organisation forms: err = %v, want ErrInvalidInput", err)
	}

	// ABN rejected by the register.
	f.abn.err = errors.New("abn is no longer active")
	in = validInput(uuid.Nil)
	in.NewOrganisation = &NewOrganisation{Name: "New Org", ABN: "51824753556", Email: "x@y.example"}
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("inactive abn: err = %v, want ErrInvalidInput", err)
	}
}

func TestApproveRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, validInput(f.existingOrg))
	if err != nil {
		t.Fatal(err)
	}

	requestor := auth.Claims{UserID: uuid.New(), Email: "x@y.example", Groups: []auth.Group{auth.GroupDataRequestors}}
	if _, err := f.svc.Approve(ctx, requestor, reg.ID, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin approve: err = %v, want ErrForbidden", err)
	}

	approved, err := f.svc.Approve(ctx, f.admin, reg.ID, nil)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != StatusApproved || approved.ActionedBy != f.admin.Email {
		t.Errorf("approved = %+v", approved)
	}

	if len(f.provisioner.calls) != 1 {
		t.Fatalf("provisioner calls = %d, want 1", len(f.provisioner.calls))
	}
	call := f.provisioner.calls[0]
	if call.Username != "jess@reef.example" || call.OrganisationID != f.existingOrg || call.Group != auth.GroupDataRequestors {
		t.Errorf("provision input = %+v", call)
	}

	email := f.notifier.last(t)
	if email.Template != notify.RegistrationApproved || email.To[0] != "jess@reef.example" {
		t.Errorf("approval email = %+v", email)
	}
	if email.Data["temporary_password"] != "Temp#Pass1" {
		t.Errorf("approval email data = %+v", email.Data)
	}

	// A decided registration cannot be actioned again.
	if _, err := f.svc.Approve(ctx, f.admin, reg.ID, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("re-approve: err = %v, want ErrInvalidState", err)
	}
	if _, err := f.svc.Decline(ctx, f.admin, reg.ID, "late"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("decline after approve: err = %v, want ErrInvalidState", err)
	}
}

func TestApproveCreatesProposedOrganisation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validInput(uuid.Nil)
	in.NewOrganisation = &NewOrganisation{Name: "Reef Research Institute", ABN: "51824753556", Email: "admin@reef.example"}
	reg, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Approve(ctx, f.admin, reg.ID, nil); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if len(f.orgs.created) != 1 || f.orgs.created[0].Name != "Reef Research Institute" {
		t.Fatalf("organisations created = %+v", f.orgs.created)
	}
	if len(f.provisioner.calls) != 1 {
		t.Fatal("provisioner not called")
	}
	if f.provisioner.calls[0].OrganisationID == uuid.Nil {
		t.Error("provisioned without an organisation id")
	}
}

func TestApproveWithOverrideOrganisation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, validInput(f.existingOrg))
	if err != nil {
		t.Fatal(err)
	}

	other := uuid.New()
	f.orgs.orgs[other] = organisations.Organisation{ID: other, Name: "Fisheries Authority", Email: "data@fisheries.example", Active: true}

	approved, err := f.svc.Approve(ctx, f.admin, reg.ID, &other)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.OrganisationOverride == nil || *approved.OrganisationOverride != other {
		t.Errorf("override not recorded: %+v", approved.OrganisationOverride)
	}
	if f.provisioner.calls[0].OrganisationID != other {
		t.Errorf("provisioned against %v, want override %v", f.provisioner.calls[0].OrganisationID, other)
	}
}

func TestDeclineRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, validInput(f.existingOrg))
	if err != nil {
		t.Fatal(err)
	}

	declined, err := f.svc.Decline(ctx, f.admin, reg.ID, "details could not be verified")
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if declined.Status != StatusDeclined || declined.Reason != "details could not be verified" {
		t.Errorf("declined = %+v", declined)
	}
	if len(f.provisioner.calls) != 0 {
		t.Error("declined registration must not be provisioned")
	}

	email := f.notifier.last(t)
	if email.Template != notify.RegistrationDeclined || email.To[0] != "jess@reef.example" {
		t.Errorf("decline email = %+v", email)
	}
}
