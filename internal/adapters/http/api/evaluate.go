// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/quorumlab/rubric/internal/feedback"
)

// EvaluateDependencies defines the interface for running evaluation cycles.
type EvaluateDependencies interface {
	Evaluate(ctx context.Context, runID, task, iterationData string) (feedback.Report, error)
}

// EvaluateHandler handles evaluation cycle requests.
type EvaluateHandler struct {
	deps EvaluateDependencies
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(deps EvaluateDependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps}
}

type evaluateRequest struct {
	Task          string `json:"task"`
	IterationData string `json:"iteration_data"`
}

// HandleEvaluate handles POST /runs/{id}/evaluate requests. The body is
// optional; task and iteration context only feed the feedback prompts.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	report, err := h.deps.Evaluate(r.Context(), id, req.Task, req.IterationData)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
