// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/quorumlab/rubric/internal/adapters/evaluator"
	service "github.com/quorumlab/rubric/internal/app"
	"github.com/quorumlab/rubric/internal/domain/model"
	"github.com/quorumlab/rubric/internal/domain/reward"
	"github.com/quorumlab/rubric/internal/feedback"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Write operations feed a run's evaluation state.
	RegisterRoster(ctx context.Context, runID string, roster model.Roster) error
	IngestSnapshot(ctx context.Context, runID string, snap model.MetricsSnapshot) error

	// Evaluate runs one cycle and returns its report.
	Evaluate(ctx context.Context, runID, task, iterationData string) (feedback.Report, error)

	// Read operations expose the latest evaluated cycle.
	Rewards(ctx context.Context, runID string) (map[model.AgentID]float64, error)
	Ranking(ctx context.Context, runID string, limit int) ([]model.RankedContribution, error)
	Latest(ctx context.Context, runID string) (feedback.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	rosterHandler   *RosterHandler
	snapshotHandler *SnapshotHandler
	evaluateHandler *EvaluateHandler
	rewardsHandler  *RewardsHandler
	rankingHandler  *RankingHandler
	packageHandler  *PackageHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRankingLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		rosterHandler:   NewRosterHandler(deps),
		snapshotHandler: NewSnapshotHandler(deps),
		evaluateHandler: NewEvaluateHandler(deps),
		rewardsHandler:  NewRewardsHandler(deps),
		rankingHandler:  NewRankingHandler(deps, maxRankingLimit),
		packageHandler:  NewPackageHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("PUT /runs/{id}/roster", MetricsMiddleware(s.rosterHandler.HandlePutRoster, "roster"))
	mux.HandleFunc("PUT /runs/{id}/metrics", MetricsMiddleware(s.snapshotHandler.HandlePutSnapshot, "metrics"))
	mux.HandleFunc("POST /runs/{id}/evaluate", MetricsMiddleware(s.evaluateHandler.HandleEvaluate, "evaluate"))
	mux.HandleFunc("GET /runs/{id}/rewards", MetricsMiddleware(s.rewardsHandler.HandleGetRewards, "rewards"))
	mux.HandleFunc("GET /runs/{id}/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
	mux.HandleFunc("GET /runs/{id}/package", MetricsMiddleware(s.packageHandler.HandleGetPackage, "package"))
}

type ackResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates upstream errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, evaluator.ErrRunNotFound), errors.Is(err, service.ErrNotEvaluated):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, evaluator.ErrEmptyRunID),
		errors.Is(err, reward.ErrInvalidSnapshot),
		errors.Is(err, reward.ErrInvalidWeights):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// runID pulls the run identifier out of the matched route pattern.
func runID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", ErrBadRequest
	}
	return id, nil
}
