// Package rules defines the firewall rule model as consumed by this
// service. Rules are authored and parsed elsewhere; fwapi reads them,
// serves them, and garbage-collects the ones no VM can ever match again.
package rules

import (
	"fmt"
)

// Side is one endpoint of a rule: a combination of wildcard, VM-list, tag,
// IP, and subnet selectors. Selector meaning is opaque here; only presence
// matters for classification.
type Side struct {
	Wildcards []string `json:"wildcards,omitempty"`
	VMs       []string `json:"vms,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	IPs       []string `json:"ips,omitempty"`
	Subnets   []string `json:"subnets,omitempty"`
}

// IsStructural reports whether the side stays meaningful regardless of any
// VM's existence: true iff it carries a wildcard, IP, or subnet selector.
// Side-level tags deliberately do not count; rules with tag selectors are
// exempted from GC before sides are ever classified.
func (s Side) IsStructural() bool {
	return len(s.Wildcards) > 0 || len(s.IPs) > 0 || len(s.Subnets) > 0
}

// HasVMs reports whether the side lists any VMs.
func (s Side) HasVMs() bool {
	return len(s.VMs) > 0
}

// Rule is a firewall policy statement. The action/protocol/port portion is
// carried verbatim in Text and never inspected by this service.
type Rule struct {
	UUID      string   `json:"uuid"`
	Enabled   bool     `json:"enabled"`
	Global    bool     `json:"global,omitempty"`
	OwnerUUID string   `json:"owner_uuid,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	From      Side     `json:"from"`
	To        Side     `json:"to"`
	Text      string   `json:"rule,omitempty"`
}

// HasTags reports whether the rule carries rule-level tag selectors.
// Tag-bearing rules belong to the tag-liveness subsystem and are never
// garbage-collected here.
func (r *Rule) HasTags() bool {
	return len(r.Tags) > 0
}

// Validate checks the read contract this service depends on.
func (r *Rule) Validate() error {
	if r.UUID == "" {
		return fmt.Errorf("rule is missing a uuid")
	}
	if !r.Global && r.OwnerUUID == "" {
		return fmt.Errorf("rule %s: owner_uuid is required for non-global rules", r.UUID)
	}
	return nil
}

func (r *Rule) String() string {
	scope := r.OwnerUUID
	if r.Global {
		scope = "global"
	}
	return fmt.Sprintf("rule %s (%s)", r.UUID, scope)
}
