package abr

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newLookupServer(t *testing.T, calls *atomic.Int64, status, entityName, message string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("callback") != "rasd" {
			t.Errorf("callback = %q", r.URL.Query().Get("callback"))
		}
		fmt.Fprintf(w, `rasd({"Abn":%q,"AbnStatus":%q,"EntityName":%q,"Message":%q})`,
			r.URL.Query().Get("abn"), status, entityName, message)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck(t *testing.T) {
	var calls atomic.Int64
	srv := newLookupServer(t, &calls, "Active", "MARINE DATA OFFICE", "")
	client := New(srv.URL, "guid")

	if err := client.Check(context.Background(), "51824753556", "Marine Data Office"); err != nil {
		t.Fatalf("Check: %v", err)
	}

	// The second check for the same ABN is served from cache.
	if err := client.Check(context.Background(), "51824753556", "Marine Data Office"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("lookup calls = %d, want 1", calls.Load())
	}
}

func TestCheckRejections(t *testing.T) {
	cases := []struct {
		name       string
		status     string
		entityName string
		message    string
	}{
		{"unregistered", "", "", "Search text is not a valid ABN or ACN"},
		{"cancelled", "Cancelled", "Marine Data Office", ""},
		{"wrong name", "Active", "Someone Else Pty Ltd", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int64
			srv := newLookupServer(t, &calls, tc.status, tc.entityName, tc.message)
			client := New(srv.URL, "guid")

			if err := client.Check(context.Background(), "51824753556", "Marine Data Office"); err == nil {
				t.Error("Check accepted an invalid ABN")
			}
		})
	}
}
