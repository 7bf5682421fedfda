package rulestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/perimetra/fwapi/internal/rules"
)

const defaultTimeout = 10 * time.Second

// HTTPStore talks to a remote rule store service over HTTP.
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore creates a store client for the service at base.
// A zero timeout selects the default.
func NewHTTPStore(base string, timeout time.Duration) *HTTPStore {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &HTTPStore{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStore) Query(ctx context.Context, f Filter) ([]*rules.Rule, error) {
	params := url.Values{}
	if f.OwnerUUID != "" {
		params.Set("owner_uuid", f.OwnerUUID)
	}
	for _, t := range f.Tags {
		params.Add("tag", t)
	}
	for _, id := range f.VMs {
		params.Add("vm", id)
	}
	u := s.base + "/rules"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := s.do(ctx, http.MethodGet, u, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var out []*rules.Rule
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unexpected rule query response: %w", err)
	}
	return out, nil
}

func (s *HTTPStore) Get(ctx context.Context, id string) (*rules.Rule, error) {
	u := fmt.Sprintf("%s/rules/%s", s.base, url.PathEscape(id))
	body, err := s.do(ctx, http.MethodGet, u, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var r rules.Rule
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("unexpected rule response: %w", err)
	}
	return &r, nil
}

func (s *HTTPStore) Add(ctx context.Context, r *rules.Rule) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to serialize rule: %w", err)
	}
	body, err := s.do(ctx, http.MethodPost, s.base+"/rules", payload, http.StatusCreated)
	if err != nil {
		return err
	}
	// the store assigns the uuid on create
	var created rules.Rule
	if err := json.Unmarshal(body, &created); err == nil && created.UUID != "" {
		r.UUID = created.UUID
	}
	return nil
}

func (s *HTTPStore) Delete(ctx context.Context, id string) error {
	u := fmt.Sprintf("%s/rules/%s", s.base, url.PathEscape(id))
	_, err := s.do(ctx, http.MethodDelete, u, nil, http.StatusNoContent)
	if errors.Is(err, ErrNotFound) {
		// already gone: idempotent success
		return nil
	}
	return err
}

// do performs one request and returns the body on the expected status.
// 404 maps to ErrNotFound; anything else unexpected is a wrapped error the
// callers treat as transient.
func (s *HTTPStore) do(ctx context.Context, method, u string, payload []byte, want int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule store request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rule store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read rule store response: %w", err)
	}

	switch resp.StatusCode {
	case want:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("unexpected status code %d from rule store (%s %s): %s",
			resp.StatusCode, method, u, string(body))
	}
}
