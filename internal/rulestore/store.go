// Package rulestore provides access to the firewall rule store: filtered
// queries plus idempotent delete-by-id. Three implementations exist: an
// HTTP client for a remote store, a SQLite-backed store for standalone
// deployments, and an in-memory store for tests.
package rulestore

import (
	"context"
	"errors"

	"github.com/perimetra/fwapi/internal/rules"
)

// ErrNotFound is returned by Get for an unknown rule id. Delete never
// returns it: deleting an already-gone rule is success.
var ErrNotFound = errors.New("rule not found")

// Filter selects candidate rules. Criteria are OR-ed: a rule matches if it
// is global, owned by OwnerUUID, carries one of Tags (at rule or side
// level), or lists one of VMs on either side. A zero Filter matches every
// rule.
type Filter struct {
	OwnerUUID string
	Tags      []string
	VMs       []string
}

// Empty reports whether the filter carries no criteria.
func (f Filter) Empty() bool {
	return f.OwnerUUID == "" && len(f.Tags) == 0 && len(f.VMs) == 0
}

// Matches applies the filter semantics to a single rule.
func (f Filter) Matches(r *rules.Rule) bool {
	if f.Empty() {
		return true
	}
	if r.Global {
		return true
	}
	if f.OwnerUUID != "" && r.OwnerUUID == f.OwnerUUID {
		return true
	}
	if len(f.Tags) > 0 {
		want := make(map[string]bool, len(f.Tags))
		for _, t := range f.Tags {
			want[t] = true
		}
		for _, t := range r.Tags {
			if want[t] {
				return true
			}
		}
		for _, side := range []rules.Side{r.From, r.To} {
			for _, t := range side.Tags {
				if want[t] {
					return true
				}
			}
		}
	}
	if len(f.VMs) > 0 {
		want := make(map[string]bool, len(f.VMs))
		for _, id := range f.VMs {
			want[id] = true
		}
		for _, side := range []rules.Side{r.From, r.To} {
			for _, id := range side.VMs {
				if want[id] {
					return true
				}
			}
		}
	}
	return false
}

// Store defines the rule store contract consumed by the API and the GC
// engine. This interface enables mocking in unit tests.
type Store interface {
	// Query returns all rules matching the filter, in stable store order.
	Query(ctx context.Context, f Filter) ([]*rules.Rule, error)

	// Get fetches a single rule by id, ErrNotFound if unknown.
	Get(ctx context.Context, id string) (*rules.Rule, error)

	// Add creates a rule. The store assigns a uuid when the rule has none.
	Add(ctx context.Context, r *rules.Rule) error

	// Delete removes a rule by id. Deleting an unknown id is success.
	Delete(ctx context.Context, id string) error
}
