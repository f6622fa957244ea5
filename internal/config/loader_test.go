package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/quorumlab/rubric/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.PlanningWeight, convey.ShouldEqual, 0.4)
				convey.So(cfg.CommunicationWeight, convey.ShouldEqual, 0.3)
				convey.So(cfg.ContributionWeight, convey.ShouldEqual, 0.3)
				convey.So(cfg.HighRewardThreshold, convey.ShouldEqual, 0.6)
				convey.So(cfg.LowRewardThreshold, convey.ShouldEqual, 0.3)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RUBRIC_ADDR", ":8080")
			_ = os.Setenv("RUBRIC_PLANNING_WEIGHT", "0.5")
			_ = os.Setenv("RUBRIC_COMMUNICATION_WEIGHT", "0.25")
			_ = os.Setenv("RUBRIC_CONTRIBUTION_WEIGHT", "0.25")
			_ = os.Setenv("RUBRIC_MAX_RANKING_LIMIT", "20")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PlanningWeight, convey.ShouldEqual, 0.5)
				convey.So(cfg.CommunicationWeight, convey.ShouldEqual, 0.25)
				convey.So(cfg.ContributionWeight, convey.ShouldEqual, 0.25)
				convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9191"
planning_weight: 0.6
communication_weight: 0.2
contribution_weight: 0.2
feedback_enabled: false
completion_model: "gemini-2.0-pro"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RUBRIC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9191")
				convey.So(cfg.PlanningWeight, convey.ShouldEqual, 0.6)
				convey.So(cfg.FeedbackEnabled, convey.ShouldBeFalse)
				convey.So(cfg.CompletionModel, convey.ShouldEqual, "gemini-2.0-pro")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9191"
max_ranking_limit: 50
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RUBRIC_CONFIG", tmpFile)
			_ = os.Setenv("RUBRIC_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")      // Overridden by env
				convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 50) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RUBRIC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RUBRIC_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RUBRIC_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When weights do not sum to 1", func() {
			_ = os.Setenv("RUBRIC_PLANNING_WEIGHT", "0.9")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail fast with a config error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When reward thresholds are inverted", func() {
			_ = os.Setenv("RUBRIC_HIGH_REWARD_THRESHOLD", "0.2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail fast with a config error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			yamlContent := `
addr: ":9191"
feedback_concurrency: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RUBRIC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9191")        // From file
				convey.So(cfg.FeedbackConcurrency, convey.ShouldEqual, 8) // From file
				convey.So(cfg.PlanningWeight, convey.ShouldEqual, 0.4)  // From defaults
				convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 100) // From defaults
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RUBRIC_CONFIG",
		"RUBRIC_ADDR",
		"RUBRIC_PLANNING_WEIGHT",
		"RUBRIC_COMMUNICATION_WEIGHT",
		"RUBRIC_CONTRIBUTION_WEIGHT",
		"RUBRIC_HIGH_REWARD_THRESHOLD",
		"RUBRIC_LOW_REWARD_THRESHOLD",
		"RUBRIC_MAX_RANKING_LIMIT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "rubric-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
