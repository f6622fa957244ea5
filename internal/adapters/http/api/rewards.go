// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/quorumlab/rubric/internal/domain/model"
	"github.com/quorumlab/rubric/internal/feedback"
)

// RewardsDependencies defines the interface for reward queries.
type RewardsDependencies interface {
	Latest(ctx context.Context, runID string) (feedback.Report, error)
}

// RewardsHandler handles reward queries.
type RewardsHandler struct {
	deps RewardsDependencies
}

// NewRewardsHandler creates a new rewards handler.
func NewRewardsHandler(deps RewardsDependencies) *RewardsHandler {
	return &RewardsHandler{deps: deps}
}

type rewardsResponse struct {
	RunID   string                       `json:"run_id"`
	CycleID string                       `json:"cycle_id"`
	Rewards map[model.AgentID]float64    `json:"agent_rewards"`
	Tiers   map[model.AgentID]model.Tier `json:"reward_tiers"`
	Weights model.Weights                `json:"reward_weights"`
}

// HandleGetRewards handles GET /runs/{id}/rewards requests.
func (h *RewardsHandler) HandleGetRewards(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.Latest(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewardsResponse{
		RunID:   id,
		CycleID: report.CycleID,
		Rewards: report.Package.Rewards,
		Tiers:   report.Package.Tiers,
		Weights: report.Package.Weights,
	})
}
