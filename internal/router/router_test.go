package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"rasd-api/internal/platform/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(Options{
		Logger:     logger.Discard(),
		AdminInbox: "admin@rasd.example",
	}))
	t.Cleanup(srv.Close)
	return srv
}

type caller struct {
	userID uuid.UUID
	email  string
	orgID  uuid.UUID
	groups string
}

func (c caller) do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if c.userID != uuid.Nil {
		req.Header.Set("X-Debug-User-ID", c.userID.String())
		req.Header.Set("X-Debug-Email", c.email)
		req.Header.Set("X-Debug-Groups", c.groups)
		if c.orgID != uuid.Nil {
			req.Header.Set("X-Debug-Org-ID", c.orgID.String())
		}
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, status int) map[string]any {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d", resp.StatusCode, status)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/v1/requests/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

// TestRequestLifecycleOverHTTP drives a whole request through the API with
// the dev auth headers: an administrator sets up the custodian organisation
// and its dataset, a requestor lodges a request, and the custodian walks it
// to completion.
func TestRequestLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	admin := caller{userID: uuid.New(), email: "ops@rasd.example", groups: "Administrators"}

	// Custodian organisation and its dataset.
	org := decode(t, admin.do(t, srv, http.MethodPost, "/api/v1/organisations/", map[string]any{
		"name":  "Marine Data Office",
		"abn":   "51824753556",
		"email": "data@marine.example",
	}), http.StatusCreated)
	orgID := uuid.MustParse(org["id"].(string))

	custodian := caller{userID: uuid.New(), email: "casey@marine.example", orgID: orgID, groups: "DataCustodians"}

	rec := decode(t, custodian.do(t, srv, http.MethodPost, "/api/v1/metadata/", map[string]any{
		"title":         "Coral cover surveys",
		"abstract":      "Annual reef transect data.",
		"contact_email": "data@marine.example",
		"data_source_url": "https://data.marine.example/coral",
	}), http.StatusCreated)
	metadataID := rec["id"].(string)

	// The requestor's organisation must exist too.
	reqOrg := decode(t, admin.do(t, srv, http.MethodPost, "/api/v1/organisations/", map[string]any{
		"name":  "Reef Research Institute",
		"abn":   "53004085616",
		"email": "admin@reef.example",
	}), http.StatusCreated)
	requestor := caller{
		userID: uuid.New(),
		email:  "jess@reef.example",
		orgID:  uuid.MustParse(reqOrg["id"].(string)),
		groups: "DataRequestors",
	}

	created := decode(t, requestor.do(t, srv, http.MethodPost, "/api/v1/requests/", map[string]any{
		"metadata_ids":  []string{metadataID},
		"project_title": "Reef resilience study",
	}), http.StatusCreated)

	requestID := created["id"].(string)
	children := created["dataset_requests"].([]any)
	if len(children) != 1 {
		t.Fatalf("dataset requests = %d, want 1", len(children))
	}
	childID := children[0].(map[string]any)["id"].(string)
	if childID != requestID+"-01" {
		t.Fatalf("child id = %q, want %q", childID, requestID+"-01")
	}

	base := fmt.Sprintf("/api/v1/requests/%s/dataset-requests/%s", requestID, childID)
	for _, step := range []string{"acknowledge", "approve", "agreement-sent", "complete"} {
		child := decode(t, custodian.do(t, srv, http.MethodPost, base+"/"+step, nil), http.StatusOK)
		if child["id"].(string) != childID {
			t.Fatalf("%s returned child %v", step, child["id"])
		}
	}

	// Completion is aggregated onto the parent.
	final := decode(t, requestor.do(t, srv, http.MethodGet, "/api/v1/requests/"+requestID+"/", nil), http.StatusOK)
	if final["completed_at"] == nil {
		t.Error("completed_at not set after all children finished")
	}

	// Repeating a transition conflicts.
	resp := custodian.do(t, srv, http.MethodPost, base+"/complete", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("repeat complete status = %d, want 409", resp.StatusCode)
	}

	// An unrelated custodian cannot see the request at all.
	stranger := caller{userID: uuid.New(), email: "x@y.example", orgID: uuid.New(), groups: "DataCustodians"}
	resp = stranger.do(t, srv, http.MethodGet, "/api/v1/requests/"+requestID+"/", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("stranger status = %d, want 404", resp.StatusCode)
	}
}

func TestRegistrationOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	// Unauthenticated submission.
	none := caller{}
	reg := decode(t, none.do(t, srv, http.MethodPost, "/api/v1/registrations/", map[string]any{
		"username":    "finn@fisheries.example",
		"given_name":  "Finn",
		"family_name": "Harper",
		"group":       "DataCustodians",
		"new_organisation": map[string]any{
			"name":  "Fisheries Authority",
			"abn":   "51824753556",
			"email": "data@fisheries.example",
		},
		"agreements": []string{"code-of-conduct"},
	}), http.StatusCreated)
	regID := reg["id"].(string)

	admin := caller{userID: uuid.New(), email: "ops@rasd.example", groups: "Administrators"}
	approved := decode(t, admin.do(t, srv, http.MethodPost, "/api/v1/registrations/"+regID+"/approve", nil), http.StatusOK)
	if approved["status"].(string) != "Approved" {
		t.Fatalf("status = %v, want Approved", approved["status"])
	}

	// The proposed organisation now exists.
	orgs := decode(t, admin.do(t, srv, http.MethodGet, "/api/v1/organisations/", nil), http.StatusOK)
	if int(orgs["count"].(float64)) != 1 {
		t.Fatalf("organisations = %v, want 1", orgs["count"])
	}
}
