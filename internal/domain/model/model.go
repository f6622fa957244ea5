// Package model contains domain values passed between layers.
package model

// AgentID identifies one agent within a run. Opaque; unique per run.
type AgentID string

// Agent pairs an agent id with its free-text profile description.
// The profile text only matters to the prompting layer; reward math
// uses the id set.
type Agent struct {
	ID      AgentID `json:"agent_id"`
	Profile string  `json:"profile"`
}

// Roster is the complete ordered set of agents participating in a run.
// Order is preserved from registration and drives deterministic iteration.
type Roster []Agent

// IDs returns the agent ids in roster order.
func (r Roster) IDs() []AgentID {
	ids := make([]AgentID, len(r))
	for i, a := range r {
		ids[i] = a.ID
	}
	return ids
}

// ProfileFor returns the profile text for id, or the empty string when the
// agent is not on the roster.
func (r Roster) ProfileFor(id AgentID) string {
	for _, a := range r {
		if a.ID == id {
			return a.Profile
		}
	}
	return ""
}

// MilestoneCount records how many milestones one agent completed.
type MilestoneCount struct {
	AgentID AgentID `json:"agent_id"`
	Count   int     `json:"count"`
}

// MetricsSnapshot is the read-only input to one evaluation cycle.
// Milestones is ordered; ranking tie-breaks preserve this order, so the
// snapshot keeps a slice rather than a map.
type MetricsSnapshot struct {
	Milestones          []MilestoneCount `json:"agent_kpis"`
	TotalMilestones     int              `json:"total_milestones"`
	PlanningScores      []float64        `json:"planning_score"`
	CommunicationScores []float64        `json:"communication_score"`
}

// MilestonesFor returns the milestone count for id, or 0 when the agent has
// no entry in the snapshot.
func (s MetricsSnapshot) MilestonesFor(id AgentID) int {
	for _, m := range s.Milestones {
		if m.AgentID == id {
			return m.Count
		}
	}
	return 0
}

// HasMilestones reports whether the snapshot carries a milestone entry for id.
func (s MetricsSnapshot) HasMilestones(id AgentID) bool {
	for _, m := range s.Milestones {
		if m.AgentID == id {
			return true
		}
	}
	return false
}

// Weights configures the reward blend. The three weights must sum to 1.0.
type Weights struct {
	Planning      float64 `json:"planning" koanf:"planning_weight"`
	Communication float64 `json:"communication" koanf:"communication_weight"`
	Contribution  float64 `json:"contribution" koanf:"contribution_weight"`
}

// RankedContribution is one row of the contribution ranking.
type RankedContribution struct {
	AgentID AgentID `json:"agent_id"`
	Ratio   float64 `json:"ratio"`
}

// Tier buckets a reward value for reinforcement feedback.
type Tier string

// Reward tiers. High rewards reinforce, low rewards correct.
const (
	TierHigh Tier = "high"
	TierMid  Tier = "mid"
	TierLow  Tier = "low"
)

// FeedbackPackage is the immutable hand-off value produced once per
// evaluation cycle. Field names mirror the serialized contract consumed by
// the prompting and logging layers.
type FeedbackPackage struct {
	Rewards                 map[AgentID]float64  `json:"agent_rewards"`
	Tiers                   map[AgentID]Tier     `json:"agent_reward_tiers"`
	Ranking                 []RankedContribution `json:"sorted_agent_contribution"`
	NormalizedPlanning      float64              `json:"latest_planning_score"`
	NormalizedCommunication float64              `json:"latest_communication_score"`
	TotalMilestones         int                  `json:"total_milestones"`
	Weights                 Weights              `json:"reward_weights"`
}
