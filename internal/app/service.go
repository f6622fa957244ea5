// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quorumlab/rubric/internal/adapters/completion"
	"github.com/quorumlab/rubric/internal/adapters/evaluator"
	"github.com/quorumlab/rubric/internal/domain/model"
	"github.com/quorumlab/rubric/internal/domain/reward"
	"github.com/quorumlab/rubric/internal/feedback"
	"github.com/quorumlab/rubric/pkg/logger"
	"github.com/quorumlab/rubric/pkg/metrics"
)

// Service implements the API dependencies for the reward and feedback system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     evaluator.Store
	engine    *reward.Engine
	completer completion.Completer
	generator *feedback.Generator

	// Configuration
	weights               model.Weights
	tiers                 reward.Tiers
	feedbackEnabled       bool
	feedbackConcurrency   int
	completionModel       string
	completionMaxTokens   int
	completionTemperature float64

	// Cycle-scoped results: the latest report per run, replaced wholesale on
	// each evaluation so readers never observe a mix of old and new rewards.
	latest map[string]feedback.Report

	// State
	started bool
	cycles  int

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithStore sets the evaluator metrics store.
func WithStore(store evaluator.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCompleter sets the LLM completion client used for feedback text.
func WithCompleter(c completion.Completer) Option {
	return func(s *Service) {
		s.completer = c
	}
}

// WithWeights sets the reward blend weights.
func WithWeights(w model.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithTiers sets the reward tier thresholds.
func WithTiers(t reward.Tiers) Option {
	return func(s *Service) {
		s.tiers = t
	}
}

// WithFeedbackEnabled toggles natural-language feedback generation.
func WithFeedbackEnabled(enabled bool) Option {
	return func(s *Service) {
		s.feedbackEnabled = enabled
	}
}

// WithFeedbackConcurrency bounds parallel per-agent completion calls.
func WithFeedbackConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.feedbackConcurrency = n
		}
	}
}

// WithCompletionModel sets the completion model for feedback prompts.
func WithCompletionModel(m string) Option {
	return func(s *Service) {
		if m != "" {
			s.completionModel = m
		}
	}
}

// WithCompletionMaxTokens bounds the length of generated feedback text.
func WithCompletionMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.completionMaxTokens = n
		}
	}
}

// WithCompletionTemperature sets the sampling temperature for feedback prompts.
func WithCompletionTemperature(t float64) Option {
	return func(s *Service) {
		if t > 0 {
			s.completionTemperature = t
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:             reward.DefaultWeights(),
		tiers:               reward.DefaultTiers(),
		feedbackEnabled:     true,
		feedbackConcurrency: 4,
		latest:              make(map[string]feedback.Report),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components. Invalid reward configuration
// surfaces here, before any cycle runs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting reward and feedback service...")

	engine, err := reward.New(
		reward.WithWeights(s.weights),
		reward.WithTiers(s.tiers),
	)
	if err != nil {
		return fmt.Errorf("configure reward engine: %w", err)
	}
	s.engine = engine

	if s.store == nil {
		s.store = evaluator.NewInMemoryStore()
		s.logger.Info(ctx, "using in-memory evaluator store")
	}

	if s.feedbackEnabled && s.completer != nil {
		s.generator = feedback.New(s.completer,
			feedback.WithModel(s.completionModel),
			feedback.WithMaxTokens(s.completionMaxTokens),
			feedback.WithTemperature(s.completionTemperature),
			feedback.WithConcurrency(s.feedbackConcurrency),
			feedback.WithLogger(s.logger),
		)
	} else if s.feedbackEnabled {
		s.logger.Warn(ctx, "feedback enabled but no completer configured; reports will carry rewards only")
	}

	s.started = true
	s.logger.Info(ctx, "reward and feedback service started",
		logger.Float64("planning_weight", s.weights.Planning),
		logger.Float64("communication_weight", s.weights.Communication),
		logger.Float64("contribution_weight", s.weights.Contribution),
		logger.Any("feedback_enabled", s.feedbackEnabled),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping reward and feedback service...")
	s.latest = make(map[string]feedback.Report)
	s.started = false
	s.logger.Info(context.Background(), "reward and feedback service stopped")
}

func (s *Service) requireStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// RegisterRoster stores or replaces the agent roster for a run.
func (s *Service) RegisterRoster(ctx context.Context, runID string, roster model.Roster) error {
	if err := s.requireStarted(); err != nil {
		return err
	}
	if err := s.store.PutRoster(ctx, runID, roster); err != nil {
		metrics.RecordErrorByComponent("evaluator", "put_roster")
		return err
	}
	metrics.UpdateRunsTracked(s.store.Runs(ctx))
	s.logger.Debug(ctx, "roster registered",
		logger.String("run_id", runID),
		logger.Int("agents", len(roster)),
	)
	return nil
}

// IngestSnapshot replaces the run's metrics snapshot wholesale. Invariant
// violations are rejected here, before the snapshot can feed a cycle.
func (s *Service) IngestSnapshot(ctx context.Context, runID string, snap model.MetricsSnapshot) error {
	if err := s.requireStarted(); err != nil {
		return err
	}
	if snap.TotalMilestones < 0 {
		metrics.RecordErrorByComponent("evaluator", "invalid_snapshot")
		return fmt.Errorf("%w: total_milestones %d is negative", reward.ErrInvalidSnapshot, snap.TotalMilestones)
	}
	if err := s.store.PutSnapshot(ctx, runID, snap); err != nil {
		metrics.RecordErrorByComponent("evaluator", "put_snapshot")
		return err
	}
	metrics.UpdateRunsTracked(s.store.Runs(ctx))
	s.logger.Debug(ctx, "snapshot ingested",
		logger.String("run_id", runID),
		logger.Int("total_milestones", snap.TotalMilestones),
	)
	return nil
}

// Evaluate runs one evaluation cycle for a run: reads the roster and the
// latest snapshot, computes the feedback package, optionally generates
// natural-language feedback, and replaces the run's cached report.
func (s *Service) Evaluate(ctx context.Context, runID, task, iterationData string) (feedback.Report, error) {
	if err := s.requireStarted(); err != nil {
		return feedback.Report{}, err
	}
	start := time.Now()

	roster, err := s.store.Roster(ctx, runID)
	if err != nil {
		metrics.RecordCycleError()
		return feedback.Report{}, err
	}
	snap, err := s.store.Snapshot(ctx, runID)
	if err != nil {
		metrics.RecordCycleError()
		return feedback.Report{}, err
	}

	pkg, err := s.engine.Assemble(roster, snap)
	if err != nil {
		metrics.RecordCycleError()
		metrics.RecordErrorByComponent("reward", "assemble")
		return feedback.Report{}, err
	}
	for _, r := range pkg.Rewards {
		metrics.RecordReward(r)
	}

	cycleID := uuid.New().String()
	var report feedback.Report
	if s.generator != nil {
		report = s.generator.Generate(ctx, cycleID, feedback.Input{
			RunID:         runID,
			Task:          task,
			IterationData: iterationData,
			Roster:        roster,
			Snapshot:      snap,
			Package:       pkg,
		})
	} else {
		report = feedback.Report{
			CycleID:     cycleID,
			RunID:       runID,
			Task:        task,
			Package:     pkg,
			GeneratedAt: time.Now().UTC(),
		}
	}

	s.mu.Lock()
	s.latest[runID] = report
	s.cycles++
	s.mu.Unlock()

	metrics.RecordCycleEvaluated()
	metrics.RecordEvaluateLatency(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "evaluation cycle completed",
		logger.String("run_id", runID),
		logger.String("cycle_id", cycleID),
		logger.Int("agents", len(roster)),
	)
	return report, nil
}

// Rewards returns the reward map from the run's latest evaluated cycle.
func (s *Service) Rewards(ctx context.Context, runID string) (map[model.AgentID]float64, error) {
	report, err := s.Latest(ctx, runID)
	if err != nil {
		return nil, err
	}
	return report.Package.Rewards, nil
}

// Ranking returns up to limit rows of the run's latest contribution ranking.
func (s *Service) Ranking(ctx context.Context, runID string, limit int) ([]model.RankedContribution, error) {
	report, err := s.Latest(ctx, runID)
	if err != nil {
		return nil, err
	}
	ranking := report.Package.Ranking
	if limit > 0 && limit < len(ranking) {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// Latest returns the run's most recent cycle report.
// Returns ErrNotEvaluated if no cycle has been evaluated for the run.
func (s *Service) Latest(_ context.Context, runID string) (feedback.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.latest[runID]
	if !ok {
		return feedback.Report{}, fmt.Errorf("run %q: %w", runID, ErrNotEvaluated)
	}
	return report, nil
}

// RunsTracked returns the number of runs known to the evaluator store.
func (s *Service) RunsTracked(ctx context.Context) int {
	if err := s.requireStarted(); err != nil {
		return 0
	}
	return s.store.Runs(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"cycles_evaluated": s.cycles,
		"feedback_enabled": s.feedbackEnabled,
		"reward_weights": map[string]float64{
			"planning":      s.weights.Planning,
			"communication": s.weights.Communication,
			"contribution":  s.weights.Contribution,
		},
	}

	if s.started {
		runs := s.store.Runs(context.Background())
		stats["runs_tracked"] = runs
		metrics.UpdateRunsTracked(runs)
	}

	return stats
}
