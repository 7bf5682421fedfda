package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/perimetra/fwapi/internal/rules"
	"github.com/perimetra/fwapi/internal/rulestore"
	"github.com/perimetra/fwapi/internal/validation"
)

// handleListRules lists rules, optionally scoped to an owner.
//
//	GET /firewalls/rules?owner_uuid=<uuid>
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner_uuid")
	if err := validation.ValidateOptionalUUID("owner_uuid", owner); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	matched, err := s.store.Query(r.Context(), rulestore.Filter{OwnerUUID: owner})
	if err != nil {
		s.logger.Error("rule query failed", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "rule store unavailable")
		return
	}
	if matched == nil {
		matched = []*rules.Rule{}
	}
	WriteJSON(w, http.StatusOK, matched)
}

// handleGetRule fetches one rule by id.
//
//	GET /firewalls/rules/{uuid}
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("uuid")
	if err := validation.ValidateUUID("uuid", id); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rule, err := s.store.Get(r.Context(), id)
	if errors.Is(err, rulestore.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "rule not found")
		return
	}
	if err != nil {
		s.logger.Error("rule lookup failed", "rule", id, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "rule store unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, rule)
}

// handleCreateRule stores a new rule.
//
//	POST /firewalls/rules
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule rules.Rule
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&rule); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "invalid rule payload", err.Error())
		return
	}
	if rule.UUID != "" {
		if err := validation.ValidateUUID("uuid", rule.UUID); err != nil {
			WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	if !rule.Global && rule.OwnerUUID == "" {
		WriteError(w, http.StatusUnprocessableEntity, "owner_uuid is required for non-global rules")
		return
	}

	if err := s.store.Add(r.Context(), &rule); err != nil {
		s.logger.Error("rule create failed", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "rule store unavailable")
		return
	}
	s.logger.Audit("rule.create", "rule:"+rule.UUID, map[string]any{
		"owner_uuid": rule.OwnerUUID,
		"global":     rule.Global,
	})
	WriteJSON(w, http.StatusCreated, &rule)
}

// handleDeleteRule terminally deletes a rule by id. Deleting an unknown
// rule succeeds: the caller wanted it gone and it is.
//
//	DELETE /firewalls/rules/{uuid}
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("uuid")
	if err := validation.ValidateUUID("uuid", id); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.logger.Error("rule delete failed", "rule", id, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "rule store unavailable")
		return
	}
	s.logger.Audit("rule.delete", "rule:"+id, map[string]any{"via": "api"})
	w.WriteHeader(http.StatusNoContent)
}
