// Package abr checks ABNs against the Australian Business Register's lookup
// service.
package abr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// The lookup endpoint only speaks JSONP; the fixed callback wrapper is
// stripped before decoding.
var callbackRE = regexp.MustCompile(`^rasd\((.*)\)$`)

type lookupResult struct {
	Abn        string `json:"Abn"`
	AbnStatus  string `json:"AbnStatus"`
	EntityName string `json:"EntityName"`
	Message    string `json:"Message"`
}

// Client calls the ABR lookup service. Results are cached per ABN, so the
// repeated checks during a registration cost one HTTP call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	guid       string

	mu    sync.Mutex
	cache map[string]lookupResult
}

func New(baseURL, guid string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		guid:       guid,
		cache:      map[string]lookupResult{},
	}
}

// Check verifies that the ABN is registered, active, and held under the given
// entity name.
func (c *Client) Check(ctx context.Context, abn, entityName string) error {
	result, err := c.lookup(ctx, abn)
	if err != nil {
		return err
	}

	if result.Message != "" {
		return fmt.Errorf("abn is not registered: %s", result.Message)
	}
	if result.AbnStatus != "Active" {
		return fmt.Errorf("abn is no longer active")
	}
	if !strings.EqualFold(result.EntityName, entityName) {
		return fmt.Errorf("abn registered entity name does not match %q", entityName)
	}
	return nil
}

func (c *Client) lookup(ctx context.Context, abn string) (lookupResult, error) {
	c.mu.Lock()
	cached, ok := c.cache[abn]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("guid", c.guid)
	params.Set("abn", abn)
	params.Set("callback", "rasd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return lookupResult{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return lookupResult{}, fmt.Errorf("abr lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return lookupResult{}, fmt.Errorf("abr lookup: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return lookupResult{}, fmt.Errorf("abr lookup: %w", err)
	}

	stripped := callbackRE.ReplaceAll([]byte(strings.TrimSpace(string(body))), []byte("$1"))

	var result lookupResult
	if err := json.Unmarshal(stripped, &result); err != nil {
		return lookupResult{}, fmt.Errorf("abr lookup: decoding response: %w", err)
	}

	c.mu.Lock()
	c.cache[abn] = result
	c.mu.Unlock()
	return result, nil
}

// StaticChecker accepts every ABN. Development only.
type StaticChecker struct{}

func (StaticChecker) Check(context.Context, string, string) error { return nil }
