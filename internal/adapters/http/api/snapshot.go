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

// SnapshotDependencies defines the interface for metrics ingestion.
type SnapshotDependencies interface {
	IngestSnapshot(ctx context.Context, runID string, snap model.MetricsSnapshot) error
}

// SnapshotHandler handles metrics snapshot ingestion requests.
type SnapshotHandler struct {
	deps SnapshotDependencies
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps SnapshotDependencies) *SnapshotHandler {
	return &SnapshotHandler{deps: deps}
}

type milestoneEntry struct {
	AgentID string `json:"agent_id"`
	Count   int    `json:"count"`
}

type snapshotRequest struct {
	Milestones          []milestoneEntry `json:"agent_kpis"`
	TotalMilestones     int              `json:"total_milestones"`
	PlanningScores      []float64        `json:"planning_score"`
	CommunicationScores []float64        `json:"communication_score"`
}

func (req snapshotRequest) validate() error {
	for i, m := range req.Milestones {
		if strings.TrimSpace(m.AgentID) == "" {
			return fmt.Errorf("%w: milestone entry %d has no agent_id", ErrBadRequest, i)
		}
		if m.Count < 0 {
			return fmt.Errorf("%w: milestone count for %q is negative", ErrBadRequest, m.AgentID)
		}
	}
	return nil
}

func (req snapshotRequest) toModel() model.MetricsSnapshot {
	milestones := make([]model.MilestoneCount, 0, len(req.Milestones))
	for _, m := range req.Milestones {
		milestones = append(milestones, model.MilestoneCount{
			AgentID: model.AgentID(strings.TrimSpace(m.AgentID)),
			Count:   m.Count,
		})
	}
	return model.MetricsSnapshot{
		Milestones:          milestones,
		TotalMilestones:     req.TotalMilestones,
		PlanningScores:      req.PlanningScores,
		CommunicationScores: req.CommunicationScores,
	}
}

// HandlePutSnapshot handles PUT /runs/{id}/metrics requests. Each request
// replaces the run's snapshot wholesale.
func (h *SnapshotHandler) HandlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.IngestSnapshot(r.Context(), id, req.toModel()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "accepted", RunID: id})
}
