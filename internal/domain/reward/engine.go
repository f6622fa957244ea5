// Package reward computes per-agent rewards, contribution rankings, and the
// per-cycle feedback package from a read-only metrics snapshot.
//
// Every entry point is pure: the engine holds only validated configuration,
// reads the snapshot it is handed, and returns fresh values. Two calls with
// the same inputs yield identical outputs.
package reward

import (
	"fmt"
	"math"
	"sort"

	"github.com/quorumlab/rubric/internal/domain/model"
)

// Score domain constants. Raw planning/communication scores are 1-5 with -1
// meaning "explicitly scored zero"; an empty history means "no score yet" and
// defaults to a neutral 3.0 before normalization. The asymmetry is deliberate
// and load-bearing for reward semantics.
const (
	scoreCeiling    = 5.0
	defaultRawScore = 3.0
	noScoreSentinel = -1.0

	weightSumTolerance = 1e-9
)

// DefaultWeights returns the standard reward blend: planning 0.4,
// communication 0.3, contribution 0.3.
func DefaultWeights() model.Weights {
	return model.Weights{Planning: 0.4, Communication: 0.3, Contribution: 0.3}
}

// Tiers holds the reward thresholds separating reinforcement from correction.
type Tiers struct {
	High float64 `koanf:"high_reward_threshold"`
	Low  float64 `koanf:"low_reward_threshold"`
}

// DefaultTiers returns the standard thresholds: high at 0.6, low at 0.3.
func DefaultTiers() Tiers {
	return Tiers{High: 0.6, Low: 0.3}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the reward blend weights.
func WithWeights(w model.Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithTiers sets the reward tier thresholds.
func WithTiers(t Tiers) Option {
	return func(e *Engine) {
		e.tiers = t
	}
}

// Engine computes rewards under a fixed, validated configuration. Weights are
// explicit constructor state, never package globals, so concurrent cycles with
// different configurations can coexist.
type Engine struct {
	weights model.Weights
	tiers   Tiers
}

// New creates an Engine, validating configuration up front. Invalid weights or
// tiers fail fast here rather than producing nonsensical rewards later.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights: DefaultWeights(),
		tiers:   DefaultTiers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := ValidateWeights(e.weights); err != nil {
		return nil, err
	}
	if err := validateTiers(e.tiers); err != nil {
		return nil, err
	}
	return e, nil
}

// Weights returns the engine's reward blend.
func (e *Engine) Weights() model.Weights {
	return e.weights
}

// ValidateWeights checks that the blend weights are non-negative and sum to 1.
func ValidateWeights(w model.Weights) error {
	if w.Planning < 0 || w.Communication < 0 || w.Contribution < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
	}
	sum := w.Planning + w.Communication + w.Contribution
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: got sum %v", ErrInvalidWeights, sum)
	}
	return nil
}

func validateTiers(t Tiers) error {
	if t.Low < 0 || t.High > 1 || t.Low >= t.High {
		return fmt.Errorf("%w: low=%v high=%v", ErrInvalidTiers, t.Low, t.High)
	}
	return nil
}

// NormalizeLatest maps the most recent raw score in history into [0,1].
// Empty history defaults to the neutral 3.0 raw score; the -1 sentinel maps
// to 0.0, not to a negative value and not to the default.
func NormalizeLatest(history []float64) float64 {
	raw := defaultRawScore
	if len(history) > 0 {
		raw = history[len(history)-1]
	}
	if raw == noScoreSentinel {
		raw = 0.0
	}
	return raw / scoreCeiling
}

// ContributionRatio returns the agent's share of completed milestones.
// Agents absent from the snapshot and snapshots with zero total milestones
// both yield 0.0; there is no division-by-zero path.
func ContributionRatio(snap model.MetricsSnapshot, id model.AgentID) float64 {
	if snap.TotalMilestones <= 0 {
		return 0.0
	}
	return float64(snap.MilestonesFor(id)) / float64(snap.TotalMilestones)
}

// Rewards computes the blended reward for every agent on the roster.
//
// Planning and communication are team-level signals: the same latest
// normalized score feeds every agent's blend. Only the contribution term is
// agent-specific, so agents without milestone data are still rewarded for the
// team's planning and communication quality. Every output is clamped to [0,1].
func (e *Engine) Rewards(roster model.Roster, snap model.MetricsSnapshot) (map[model.AgentID]float64, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}
	planning := NormalizeLatest(snap.PlanningScores)
	communication := NormalizeLatest(snap.CommunicationScores)

	rewards := make(map[model.AgentID]float64, len(roster))
	for _, agent := range roster {
		r := e.weights.Planning*planning +
			e.weights.Communication*communication +
			e.weights.Contribution*ContributionRatio(snap, agent.ID)
		rewards[agent.ID] = clamp01(r)
	}
	return rewards, nil
}

// RankContributions orders the agents present in the snapshot's milestone
// data by contribution ratio, descending. The sort is stable: equal ratios
// keep their snapshot order. Agents never mentioned in the milestone data are
// excluded, unlike the reward map which covers the full roster.
func RankContributions(snap model.MetricsSnapshot) []model.RankedContribution {
	ranking := make([]model.RankedContribution, 0, len(snap.Milestones))
	for _, m := range snap.Milestones {
		ranking = append(ranking, model.RankedContribution{
			AgentID: m.AgentID,
			Ratio:   ContributionRatio(snap, m.AgentID),
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Ratio > ranking[j].Ratio
	})
	return ranking
}

// TierFor buckets a reward value against the engine's thresholds.
func (e *Engine) TierFor(reward float64) model.Tier {
	switch {
	case reward >= e.tiers.High:
		return model.TierHigh
	case reward < e.tiers.Low:
		return model.TierLow
	default:
		return model.TierMid
	}
}

// Assemble runs one full evaluation cycle and bundles the results into an
// immutable FeedbackPackage. Each call produces a fresh value; the engine
// keeps no state between cycles.
func (e *Engine) Assemble(roster model.Roster, snap model.MetricsSnapshot) (model.FeedbackPackage, error) {
	rewards, err := e.Rewards(roster, snap)
	if err != nil {
		return model.FeedbackPackage{}, err
	}
	tiers := make(map[model.AgentID]model.Tier, len(rewards))
	for id, r := range rewards {
		tiers[id] = e.TierFor(r)
	}
	return model.FeedbackPackage{
		Rewards:                 rewards,
		Tiers:                   tiers,
		Ranking:                 RankContributions(snap),
		NormalizedPlanning:      NormalizeLatest(snap.PlanningScores),
		NormalizedCommunication: NormalizeLatest(snap.CommunicationScores),
		TotalMilestones:         snap.TotalMilestones,
		Weights:                 e.weights,
	}, nil
}

func validateSnapshot(snap model.MetricsSnapshot) error {
	if snap.TotalMilestones < 0 {
		return fmt.Errorf("%w: total_milestones %d is negative", ErrInvalidSnapshot, snap.TotalMilestones)
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
