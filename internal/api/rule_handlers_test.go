package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/perimetra/fwapi/internal/inventory"
	"github.com/perimetra/fwapi/internal/rules"
	"github.com/perimetra/fwapi/internal/rulestore"
)

func postJSON(s *Server, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestCreateAndGetRule(t *testing.T) {
	s := newTestServer(new(inventory.MockClient), rulestore.NewMemoryStore())

	body := `{"owner_uuid":"` + owner + `","from":{"vms":["` + vmA + `"]},"to":{"wildcards":["any"]}}`
	rr := postJSON(s, "/firewalls/rules", body)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created rules.Rule
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.NotEmpty(t, created.UUID, "store assigns a uuid when the caller omits one")
	assert.Equal(t, owner, created.OwnerUUID)

	rr = doRequest(s, http.MethodGet, "/firewalls/rules/"+created.UUID)
	require.Equal(t, http.StatusOK, rr.Code)

	var got rules.Rule
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, created.UUID, got.UUID)
}

func TestCreateRuleRejectsBadPayload(t *testing.T) {
	s := newTestServer(new(inventory.MockClient), rulestore.NewMemoryStore())

	rr := postJSON(s, "/firewalls/rules", "{not json")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = postJSON(s, "/firewalls/rules", `{"uuid":"short","owner_uuid":"`+owner+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// non-global rules must carry an owner
	rr = postJSON(s, "/firewalls/rules", `{"from":{"wildcards":["any"]},"to":{"wildcards":["any"]}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCreateGlobalRuleWithoutOwner(t *testing.T) {
	s := newTestServer(new(inventory.MockClient), rulestore.NewMemoryStore())

	rr := postJSON(s, "/firewalls/rules", `{"global":true,"from":{"wildcards":["any"]},"to":{"subnets":["10.0.0.0/8"]}}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestListRulesOwnerFilter(t *testing.T) {
	store := rulestore.NewMemoryStore()
	s := newTestServer(new(inventory.MockClient), store)

	mine := &rules.Rule{OwnerUUID: owner, From: rules.Side{Wildcards: []string{"any"}}, To: rules.Side{Wildcards: []string{"any"}}}
	theirs := &rules.Rule{OwnerUUID: otherOwner, From: rules.Side{Wildcards: []string{"any"}}, To: rules.Side{Wildcards: []string{"any"}}}
	global := &rules.Rule{Global: true, From: rules.Side{Wildcards: []string{"any"}}, To: rules.Side{Wildcards: []string{"any"}}}
	for _, r := range []*rules.Rule{mine, theirs, global} {
		require.NoError(t, store.Add(context.Background(), r))
	}

	rr := doRequest(s, http.MethodGet, "/firewalls/rules")
	require.Equal(t, http.StatusOK, rr.Code)
	var all []*rules.Rule
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&all))
	assert.Len(t, all, 3)

	rr = doRequest(s, http.MethodGet, "/firewalls/rules?owner_uuid="+owner)
	require.Equal(t, http.StatusOK, rr.Code)
	var scoped []*rules.Rule
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&scoped))
	require.Len(t, scoped, 2, "owner scope includes global rules")

	rr = doRequest(s, http.MethodGet, "/firewalls/rules?owner_uuid=nope")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestGetRuleNotFound(t *testing.T) {
	s := newTestServer(new(inventory.MockClient), rulestore.NewMemoryStore())

	rr := doRequest(s, http.MethodGet, "/firewalls/rules/"+vmB)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(s, http.MethodGet, "/firewalls/rules/not-a-uuid")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestDeleteRuleIdempotent(t *testing.T) {
	store := rulestore.NewMemoryStore()
	s := newTestServer(new(inventory.MockClient), store)

	r := &rules.Rule{OwnerUUID: owner, From: rules.Side{Wildcards: []string{"any"}}, To: rules.Side{Wildcards: []string{"any"}}}
	require.NoError(t, store.Add(context.Background(), r))

	rr := doRequest(s, http.MethodDelete, "/firewalls/rules/"+r.UUID)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, store.Len())

	// deleting an already-deleted rule still succeeds
	rr = doRequest(s, http.MethodDelete, "/firewalls/rules/"+r.UUID)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(new(inventory.MockClient), rulestore.NewMemoryStore())

	rr := doRequest(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Store)
}

func TestHealthEndpointDegraded(t *testing.T) {
	store := new(rulestore.MockStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("store down"))
	s := newTestServer(new(inventory.MockClient), store)

	rr := doRequest(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unreachable", resp.Store)
}
