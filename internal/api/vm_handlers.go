package api

import (
	"errors"
	"net/http"

	"github.com/perimetra/fwapi/internal/inventory"
	"github.com/perimetra/fwapi/internal/rules"
	"github.com/perimetra/fwapi/internal/rulestore"
	"github.com/perimetra/fwapi/internal/validation"
)

// vmParams validates the path uuid and the optional owner_uuid query
// parameter. Validation failures are rejected before any backend call.
func vmParams(r *http.Request) (vmID, owner string, err error) {
	vmID = r.PathValue("uuid")
	if err = validation.ValidateUUID("uuid", vmID); err != nil {
		return "", "", err
	}
	owner = r.URL.Query().Get("owner_uuid")
	if err = validation.ValidateOptionalUUID("owner_uuid", owner); err != nil {
		return "", "", err
	}
	return vmID, owner, nil
}

// candidateFilter builds the rule filter that selects every rule which
// could possibly reference the VM: by owner, by tag, or by listed VM id.
// Global rules always match.
func candidateFilter(vm *inventory.VM) rulestore.Filter {
	return rulestore.Filter{
		OwnerUUID: vm.OwnerUUID,
		Tags:      vm.Tags,
		VMs:       []string{vm.UUID},
	}
}

// handleListVMRules returns all rules touching a VM.
//
//	GET /firewalls/vms/{uuid}?owner_uuid=<uuid>
func (s *Server) handleListVMRules(w http.ResponseWriter, r *http.Request) {
	vmID, owner, err := vmParams(r)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	vm, err := s.inv.GetVM(r.Context(), vmID)
	if errors.Is(err, inventory.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "vm not found")
		return
	}
	if err != nil {
		s.logger.Error("vm resolve failed", "vm", vmID, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "inventory unavailable")
		return
	}
	if owner != "" && vm.OwnerUUID != owner {
		// scoped lookup: a VM outside the caller's owner scope does not exist
		WriteError(w, http.StatusNotFound, "vm not found")
		return
	}

	matched, err := s.store.Query(r.Context(), candidateFilter(vm))
	if err != nil {
		s.logger.Error("rule query failed", "vm", vmID, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "rule store unavailable")
		return
	}
	if matched == nil {
		matched = []*rules.Rule{}
	}
	WriteJSON(w, http.StatusOK, matched)
}

// handleVMRuleGC runs a VM-triggered GC pass: every candidate rule is
// evaluated sequentially and the vacuous ones are deleted.
//
//	DELETE /firewalls/vms/{uuid}?owner_uuid=<uuid>
//
// Failures after the pass has started leave already-issued deletions in
// place; the whole request is safe to retry because deletion is
// idempotent.
func (s *Server) handleVMRuleGC(w http.ResponseWriter, r *http.Request) {
	vmID, owner, err := vmParams(r)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	vm, err := s.inv.GetVM(r.Context(), vmID)
	if err != nil {
		// the write path has no not-found contract: any resolve failure is
		// reported as transient and the caller retries
		s.logger.Error("vm resolve failed", "vm", vmID, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "could not resolve vm")
		return
	}
	if owner != "" && vm.OwnerUUID != owner {
		WriteError(w, http.StatusServiceUnavailable, "could not resolve vm")
		return
	}

	candidates, err := s.store.Query(r.Context(), candidateFilter(vm))
	if err != nil {
		s.logger.Error("rule query failed", "vm", vmID, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "rule store unavailable")
		return
	}

	res, err := s.engine.Run(r.Context(), candidates, vm.UUID)
	if err != nil {
		s.logger.Error("gc pass aborted", "vm", vmID, "error", err,
			"deleted_so_far", res.Deleted)
		WriteError(w, http.StatusServiceUnavailable, "gc pass aborted", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
