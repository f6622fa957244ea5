package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/quorumlab/rubric/internal/domain/reward"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if RUBRIC_CONFIG is set
//  3. env (prefix RUBRIC_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("RUBRIC_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RUBRIC_ADDR, RUBRIC_PLANNING_WEIGHT, ...
	// Map env keys like RUBRIC_PLANNING_WEIGHT -> planning_weight (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RUBRIC_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "rubric_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations that would make the reward engine produce
// nonsensical values. These are precondition faults and fail fast, never
// silently corrected.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := reward.ValidateWeights(c.Weights()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.LowRewardThreshold < 0 || c.HighRewardThreshold > 1 || c.LowRewardThreshold >= c.HighRewardThreshold {
		return fmt.Errorf("%w: reward thresholds must satisfy 0 <= low < high <= 1", ErrInvalidConfig)
	}
	if c.MaxRankingLimit < 1 {
		return fmt.Errorf("%w: max_ranking_limit must be positive", ErrInvalidConfig)
	}
	if c.FeedbackConcurrency < 1 {
		return fmt.Errorf("%w: feedback_concurrency must be positive", ErrInvalidConfig)
	}
	if c.CompletionMaxRetries < 0 {
		return fmt.Errorf("%w: completion_max_retries must not be negative", ErrInvalidConfig)
	}
	if c.CompletionRetryInitialMS < 1 {
		return fmt.Errorf("%w: completion_retry_initial_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
