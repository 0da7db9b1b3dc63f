package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"rasd-api/internal/domain/accessrequests"
	"rasd-api/internal/domain/rasdid"
)

func seedRequest(t *testing.T, store *RequestStore, active bool, requestor, custodian uuid.UUID) rasdid.ID {
	t.Helper()

	id := rasdid.Generate()
	childID, err := id.Sub(1)
	if err != nil {
		t.Fatal(err)
	}
	req := accessrequests.AccessRequest{
		ID:           id,
		Active:       active,
		CreatedAt:    time.Now(),
		RequestorID:  requestor,
		CustodianIDs: []uuid.UUID{custodian},
		DatasetRequests: []accessrequests.DatasetRequest{
			{ID: childID, Status: accessrequests.StatusNew, CustodianID: custodian},
		},
	}
	if err := store.Put(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestRequestStoreGetReturnsDetachedCopy(t *testing.T) {
	store := NewRequestStore()
	id := seedRequest(t, store, true, uuid.New(), uuid.New())

	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the returned value (as censoring does) must not leak into the
	// stored record.
	got.CustodianIDs = nil
	got.DatasetRequests[0].Status = accessrequests.StatusDeclined

	again, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.CustodianIDs) != 1 || again.DatasetRequests[0].Status != accessrequests.StatusNew {
		t.Errorf("stored record was mutated through a read: %+v", again)
	}
}

func TestRequestStoreScanFilters(t *testing.T) {
	store := NewRequestStore()
	ctx := context.Background()

	requestor := uuid.New()
	custodian := uuid.New()
	seedRequest(t, store, true, requestor, custodian)
	seedRequest(t, store, false, requestor, uuid.New())
	seedRequest(t, store, true, uuid.New(), uuid.New())

	page, err := store.Scan(ctx, accessrequests.Filter{RequestorID: requestor}, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Count != 2 {
		t.Errorf("requestor filter count = %d, want 2", page.Count)
	}

	page, err = store.Scan(ctx, accessrequests.Filter{RequestorID: requestor, ActiveOnly: true}, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Count != 1 {
		t.Errorf("active requestor filter count = %d, want 1", page.Count)
	}

	page, err = store.Scan(ctx, accessrequests.Filter{CustodianID: custodian}, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Count != 1 {
		t.Errorf("custodian filter count = %d, want 1", page.Count)
	}
}

func TestRequestStoreScanPaginates(t *testing.T) {
	store := NewRequestStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedRequest(t, store, true, uuid.New(), uuid.New())
	}

	seen := map[rasdid.ID]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := store.Scan(ctx, accessrequests.Filter{}, cursor, 2)
		if err != nil {
			t.Fatal(err)
		}
		pages++
		for _, req := range page.Results {
			if seen[req.ID] {
				t.Fatalf("request %s returned twice", req.ID)
			}
			seen[req.ID] = true
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	if len(seen) != 5 {
		t.Errorf("paginated over %d requests, want 5", len(seen))
	}
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
}
