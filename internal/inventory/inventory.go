// Package inventory is the client side of the VM inventory service. The
// GC engine only needs point lookup: fetch one VM by id and learn whether
// it still exists and what state it is in.
package inventory

import (
	"context"
	"errors"
)

// StateDestroyed is the terminal VM state. A destroyed VM counts as dead
// for rule garbage collection even though the inventory still returns it.
const StateDestroyed = "destroyed"

// ErrNotFound is returned when the inventory has no record of the VM.
// Callers consume it as "VM is dead"; it is not a transient failure.
var ErrNotFound = errors.New("vm not found")

// VM is the inventory's view of a virtual machine.
type VM struct {
	UUID      string   `json:"uuid"`
	OwnerUUID string   `json:"owner_uuid"`
	Tags      []string `json:"tags,omitempty"`
	State     string   `json:"state"`
}

// Destroyed reports whether the VM is in its terminal state.
func (v *VM) Destroyed() bool {
	return v.State == StateDestroyed
}

// Client defines the interface for VM inventory lookups.
// This interface enables mocking in unit tests.
type Client interface {
	GetVM(ctx context.Context, id string) (*VM, error)
}
