// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/quorumlab/rubric/internal/domain/model"
)

// RosterDependencies defines the interface for roster registration.
type RosterDependencies interface {
	RegisterRoster(ctx context.Context, runID string, roster model.Roster) error
}

// RosterHandler handles roster registration requests.
type RosterHandler struct {
	deps RosterDependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps RosterDependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

type rosterAgent struct {
	ID      string `json:"id"`
	Profile string `json:"profile"`
}

type rosterRequest struct {
	Agents []rosterAgent `json:"agents"`
}

func (req rosterRequest) validate() error {
	if len(req.Agents) == 0 {
		return ErrEmptyRoster
	}
	seen := make(map[string]struct{}, len(req.Agents))
	for i, a := range req.Agents {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return fmt.Errorf("%w: agent %d has no id", ErrBadRequest, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate agent id %q", ErrBadRequest, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (req rosterRequest) toModel() model.Roster {
	roster := make(model.Roster, 0, len(req.Agents))
	for _, a := range req.Agents {
		roster = append(roster, model.Agent{
			ID:      model.AgentID(strings.TrimSpace(a.ID)),
			Profile: a.Profile,
		})
	}
	return roster
}

// HandlePutRoster handles PUT /runs/{id}/roster requests.
func (h *RosterHandler) HandlePutRoster(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req rosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.RegisterRoster(r.Context(), id, req.toModel()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "accepted", RunID: id})
}
