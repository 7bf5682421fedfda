// Package gc implements VM-triggered rule garbage collection: when a VM is
// removed from inventory, every rule that could reference it is examined
// and deleted once no live endpoint remains on a VM-bound side.
//
// A rule side is "structural" when it carries a wildcard, IP, or subnet
// selector: its relevance never depends on any VM existing. A side that
// only lists VMs is vacuous once every listed VM is gone, and a rule with
// a vacuous side can never match traffic again.
package gc

import (
	"context"
	"errors"
	"fmt"

	"github.com/perimetra/fwapi/internal/inventory"
	"github.com/perimetra/fwapi/internal/logging"
	"github.com/perimetra/fwapi/internal/metrics"
	"github.com/perimetra/fwapi/internal/rules"
	"github.com/perimetra/fwapi/internal/rulestore"
)

// Decision is the outcome of evaluating one rule. A failed evaluation is
// reported through the error return, never as a Decision value.
type Decision int

const (
	Keep Decision = iota
	Delete
)

func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Result summarizes one GC pass.
type Result struct {
	TargetVM     string   `json:"target_vm"`
	Examined     int      `json:"examined"`
	Kept         int      `json:"kept"`
	Deleted      int      `json:"deleted"`
	DeletedRules []string `json:"deleted_rules,omitempty"`
}

// Engine composes the inventory client and the rule store into the
// per-rule decision procedure and the sequential pass over candidates.
type Engine struct {
	inv     inventory.Client
	store   rulestore.Store
	logger  *logging.Logger
	metrics *metrics.Registry
}

// NewEngine creates a GC engine.
func NewEngine(inv inventory.Client, store rulestore.Store, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		inv:     inv,
		store:   store,
		logger:  logger.WithComponent("gc"),
		metrics: metrics.Get(),
	}
}

// hasLiveMember probes vmIDs in order and reports whether any listed VM is
// still alive. The target VM of the pass (ignore) counts as dead, as do
// destroyed and unknown VMs. The probe stops at the first live hit, so its
// cost is bounded by the position of that hit, not the list length. Any
// lookup failure other than not-found aborts the probe.
func (e *Engine) hasLiveMember(ctx context.Context, vmIDs []string, ignore string) (bool, error) {
	for _, id := range vmIDs {
		e.metrics.VMLookups.Inc()
		vm, err := e.inv.GetVM(ctx, id)
		if errors.Is(err, inventory.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("probing vm %s: %w", id, err)
		}
		if vm.UUID == ignore || vm.Destroyed() {
			continue
		}
		return true, nil
	}
	return false, nil
}

// Evaluate decides the fate of one rule given that targetVM is being
// removed. It never mutates the store; Run performs the deletions.
func (e *Engine) Evaluate(ctx context.Context, r *rules.Rule, targetVM string) (Decision, error) {
	// Tag liveness is owned by a separate subsystem; tag-bearing rules are
	// exempt no matter what their sides contain.
	if r.HasTags() {
		return Keep, nil
	}

	fromStructural := r.From.IsStructural()
	toStructural := r.To.IsStructural()

	switch {
	case fromStructural && toStructural:
		// Neither side can ever be emptied by VM removal.
		return Keep, nil

	case fromStructural || toStructural:
		bound := r.From
		if fromStructural {
			bound = r.To
		}
		if !bound.HasVMs() {
			// Malformed stored data: a VM-bound side should list VMs.
			// Resolved as Keep so a writer-side bug never cascades into
			// rule loss.
			e.logger.Warn("vm-bound side with no vms, keeping rule",
				"rule", r.UUID, "target_vm", targetVM)
			return Keep, nil
		}
		live, err := e.hasLiveMember(ctx, bound.VMs, targetVM)
		if err != nil {
			return Keep, err
		}
		if live {
			return Keep, nil
		}
		return Delete, nil

	default:
		// Both sides are VM-bound.
		if !r.From.HasVMs() || !r.To.HasVMs() {
			e.logger.Warn("vm-bound side with no vms, keeping rule",
				"rule", r.UUID, "target_vm", targetVM)
			return Keep, nil
		}
		liveFrom, err := e.hasLiveMember(ctx, r.From.VMs, targetVM)
		if err != nil {
			return Keep, err
		}
		if !liveFrom {
			// One empty side already makes the rule vacuous; the to side
			// is not probed.
			return Delete, nil
		}
		liveTo, err := e.hasLiveMember(ctx, r.To.VMs, targetVM)
		if err != nil {
			return Keep, err
		}
		if !liveTo {
			return Delete, nil
		}
		return Keep, nil
	}
}

// Run evaluates candidates strictly sequentially in store order, deleting
// the vacuous ones as it goes. The first failure aborts the pass: rules
// already decided keep their outcome (deletion is idempotent cleanup, so
// callers retry the whole pass), remaining rules are left untouched.
func (e *Engine) Run(ctx context.Context, candidates []*rules.Rule, targetVM string) (*Result, error) {
	res := &Result{TargetVM: targetVM}
	for _, r := range candidates {
		decision, err := e.Evaluate(ctx, r, targetVM)
		if err != nil {
			e.metrics.GCPasses.WithLabelValues("failed").Inc()
			return res, fmt.Errorf("evaluating rule %s: %w", r.UUID, err)
		}
		res.Examined++
		e.metrics.GCDecisions.WithLabelValues(decision.String()).Inc()

		if decision == Keep {
			res.Kept++
			continue
		}

		if err := e.store.Delete(ctx, r.UUID); err != nil {
			e.metrics.GCPasses.WithLabelValues("failed").Inc()
			return res, fmt.Errorf("deleting rule %s: %w", r.UUID, err)
		}
		e.metrics.RulesDeleted.Inc()
		e.logger.Audit("rule.delete", "rule:"+r.UUID, map[string]any{
			"target_vm": targetVM,
			"reason":    "no live endpoint remains",
		})
		res.Deleted++
		res.DeletedRules = append(res.DeletedRules, r.UUID)
	}
	e.metrics.GCPasses.WithLabelValues("ok").Inc()
	e.logger.Info("gc pass complete",
		"target_vm", targetVM,
		"examined", res.Examined,
		"kept", res.Kept,
		"deleted", res.Deleted)
	return res, nil
}
