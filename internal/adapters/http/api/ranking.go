// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/quorumlab/rubric/internal/domain/model"
)

// RankingDependencies defines the interface for contribution ranking queries.
type RankingDependencies interface {
	Ranking(ctx context.Context, runID string, limit int) ([]model.RankedContribution, error)
}

// RankingHandler handles contribution ranking queries.
type RankingHandler struct {
	deps     RankingDependencies
	maxLimit int
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies, maxLimit int) *RankingHandler {
	return &RankingHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

type rankingResponse struct {
	RunID   string                     `json:"run_id"`
	Ranking []model.RankedContribution `json:"sorted_agent_contribution"`
}

// HandleGetRanking handles GET /runs/{id}/ranking?limit=N requests.
// Omitting limit returns the full ranking.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidLimit)
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded",
				fmt.Errorf("%w: limit %d exceeds maximum %d", ErrInvalidLimit, n, h.maxLimit))
			return
		}
		limit = n
	}
	ranking, err := h.deps.Ranking(r.Context(), id, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingResponse{RunID: id, Ranking: ranking})
}
