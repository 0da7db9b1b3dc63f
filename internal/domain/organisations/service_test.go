package organisations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type fakeRepo struct {
	orgs map[uuid.UUID]Organisation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orgs: map[uuid.UUID]Organisation{}}
}

func (f *fakeRepo) Create(_ context.Context, org Organisation) error {
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeRepo) Update(_ context.Context, org Organisation) error {
	if _, ok := f.orgs[org.ID]; !ok {
		return errors.New("no such organisation")
	}
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (Organisation, error) {
	org, ok := f.orgs[id]
	if !ok {
		return Organisation{}, errors.New("no such organisation")
	}
	return org, nil
}

func (f *fakeRepo) List(_ context.Context, _ string, _ int) ([]Organisation, string, error) {
	out := make([]Organisation, 0, len(f.orgs))
	for _, org := range f.orgs {
		out = append(out, org)
	}
	return out, "", nil
}

func (f *fakeRepo) FindMatch(_ context.Context, name, abn, email string) (Organisation, error) {
	for _, org := range f.orgs {
		if strings.EqualFold(org.Name, name) || org.ABN == abn || strings.EqualFold(org.Email, email) {
			return org, nil
		}
	}
	return Organisation{}, errors.New("no match")
}

func TestCreateOrganisation(t *testing.T) {
	svc := NewService(newFakeRepo())

	org, err := svc.Create(context.Background(), CreateInput{
		Name:  " Marine Data Office ",
		ABN:   "51824753556",
		Email: "data@marine.example",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if org.Name != "Marine Data Office" || !org.Active {
		t.Errorf("org = %+v", org)
	}

	// Any shared detail makes a duplicate.
	_, err = svc.Create(context.Background(), CreateInput{
		Name:  "Different Name",
		ABN:   "51824753556",
		Email: "other@marine.example",
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate abn: err = %v, want ErrConflict", err)
	}
}

func TestCreateOrganisationValidatesABN(t *testing.T) {
	svc := NewService(newFakeRepo())

	for _, abn := range []string{"", "1234", "5182475355a", "518247535561"} {
		if _, err := svc.Create(context.Background(), CreateInput{
			Name:  "Marine Data Office",
			ABN:   abn,
			Email: "data@marine.example",
		}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("abn %q: err = %v, want ErrInvalidInput", abn, err)
		}
	}
}

func TestUpdateOrganisation(t *testing.T) {
	svc := NewService(newFakeRepo())

	org, err := svc.Create(context.Background(), CreateInput{
		Name:  "Marine Data Office",
		ABN:   "51824753556",
		Email: "data@marine.example",
	})
	if err != nil {
		t.Fatal(err)
	}

	name := "Marine and Coastal Data Office"
	updated, err := svc.Update(context.Background(), org.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != name || updated.ABN != "51824753556" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
}
