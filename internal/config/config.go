// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/quorumlab/rubric/internal/domain/model"
	"github.com/quorumlab/rubric/internal/domain/reward"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Reward blend weights. Must sum to 1.0.
	PlanningWeight      float64 `koanf:"planning_weight"`
	CommunicationWeight float64 `koanf:"communication_weight"`
	ContributionWeight  float64 `koanf:"contribution_weight"`

	// Reward tier thresholds: high rewards reinforce, low rewards correct.
	HighRewardThreshold float64 `koanf:"high_reward_threshold"`
	LowRewardThreshold  float64 `koanf:"low_reward_threshold"`

	// MaxRankingLimit caps GET /runs/{id}/ranking?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// FeedbackEnabled toggles natural-language feedback generation. Reward
	// computation always runs; only the LLM prompting is switched off.
	FeedbackEnabled bool `koanf:"feedback_enabled"`

	// FeedbackConcurrency bounds parallel per-agent completion calls.
	FeedbackConcurrency int `koanf:"feedback_concurrency"`

	// Completion collaborator settings.
	CompletionAPIKey         string  `koanf:"completion_api_key"`
	CompletionModel          string  `koanf:"completion_model"`
	CompletionMaxTokens      int     `koanf:"completion_max_tokens"`
	CompletionTemperature    float64 `koanf:"completion_temperature"`
	CompletionMaxRetries     int     `koanf:"completion_max_retries"`
	CompletionRetryInitialMS int     `koanf:"completion_retry_initial_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	w := reward.DefaultWeights()
	t := reward.DefaultTiers()
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":9090",
		PlanningWeight:           w.Planning,
		CommunicationWeight:      w.Communication,
		ContributionWeight:       w.Contribution,
		HighRewardThreshold:      t.High,
		LowRewardThreshold:       t.Low,
		MaxRankingLimit:          100,
		FeedbackEnabled:          true,
		FeedbackConcurrency:      runtime.NumCPU(),
		CompletionModel:          "gemini-2.0-flash",
		CompletionMaxTokens:      1024,
		CompletionTemperature:    0.1,
		CompletionMaxRetries:     3,
		CompletionRetryInitialMS: 500,
	}
}

// Weights returns the configured reward blend.
func (c *Config) Weights() model.Weights {
	return model.Weights{
		Planning:      c.PlanningWeight,
		Communication: c.CommunicationWeight,
		Contribution:  c.ContributionWeight,
	}
}

// Tiers returns the configured reward thresholds.
func (c *Config) Tiers() reward.Tiers {
	return reward.Tiers{High: c.HighRewardThreshold, Low: c.LowRewardThreshold}
}
