package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientGetVM(t *testing.T) {
	const vmID = "9895e1a6-1a45-4d7c-b516-6ac0551cd7e8"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vms/"+vmID, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uuid":"` + vmID + `","owner_uuid":"930896af-bf8c-48d4-885c-6573a94b1853","state":"running","tags":["role=web"]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 0)
	vm, err := c.GetVM(context.Background(), vmID)
	require.NoError(t, err)
	assert.Equal(t, vmID, vm.UUID)
	assert.Equal(t, "running", vm.State)
	assert.False(t, vm.Destroyed())
}

func TestHTTPClientGetVMNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"vm not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 0)
	vm, err := c.GetVM(context.Background(), "4dace5e7-39cf-4e9b-9ecf-78a5c6a56d63")
	assert.Nil(t, vm)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClientGetVMBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 0)
	_, err := c.GetVM(context.Background(), "4dace5e7-39cf-4e9b-9ecf-78a5c6a56d63")
	require.Error(t, err)
	// 500s must not be confused with the not-found signal
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestVMDestroyed(t *testing.T) {
	assert.True(t, (&VM{State: StateDestroyed}).Destroyed())
	assert.False(t, (&VM{State: "running"}).Destroyed())
	assert.False(t, (&VM{State: "stopped"}).Destroyed())
}
