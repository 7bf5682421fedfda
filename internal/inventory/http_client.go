package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 10 * time.Second

// HTTPClient talks to a remote VM inventory service over HTTP.
type HTTPClient struct {
	base   string
	client *http.Client
}

// NewHTTPClient creates an inventory client for the service at base
// (e.g. "http://vmapi.internal:8080"). A zero timeout selects the default.
func NewHTTPClient(base string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}
}

// GetVM fetches one VM by id. A 404 from the service maps to ErrNotFound;
// every other failure is returned as-is and treated as transient upstream.
func (c *HTTPClient) GetVM(ctx context.Context, id string) (*VM, error) {
	u := fmt.Sprintf("%s/vms/%s", c.base, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build vm lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vm lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var vm VM
		if err := json.NewDecoder(resp.Body).Decode(&vm); err != nil {
			return nil, fmt.Errorf("unexpected response for vm %s: %w", id, err)
		}
		return &vm, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d looking up vm %s: %s",
			resp.StatusCode, id, string(body))
	}
}
