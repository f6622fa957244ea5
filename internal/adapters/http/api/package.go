// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/quorumlab/rubric/internal/feedback"
)

// PackageDependencies defines the interface for feedback package queries.
type PackageDependencies interface {
	Latest(ctx context.Context, runID string) (feedback.Report, error)
}

// PackageHandler serves the full report of a run's latest evaluated cycle.
type PackageHandler struct {
	deps PackageDependencies
}

// NewPackageHandler creates a new package handler.
func NewPackageHandler(deps PackageDependencies) *PackageHandler {
	return &PackageHandler{deps: deps}
}

// HandleGetPackage handles GET /runs/{id}/package requests.
func (h *PackageHandler) HandleGetPackage(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, report)
}
