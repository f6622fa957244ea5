package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	service "github.com/quorumlab/rubric/internal/app"
	"github.com/quorumlab/rubric/internal/adapters/completion"
	"github.com/quorumlab/rubric/internal/domain/model"
	"github.com/quorumlab/rubric/internal/domain/reward"
	"github.com/quorumlab/rubric/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// staticCompleter returns a canned response for every prompt.
type staticCompleter struct {
	reply string
	calls int
}

func (c *staticCompleter) Complete(_ context.Context, req completion.Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", completion.ErrEmptyRequest
	}
	c.calls++
	return c.reply, nil
}

func testRoster() model.Roster {
	return model.Roster{
		{ID: "agent_a", Profile: "planner"},
		{ID: "agent_b", Profile: "builder"},
	}
}

func testSnapshot() model.MetricsSnapshot {
	return model.MetricsSnapshot{
		Milestones: []model.MilestoneCount{
			{AgentID: "agent_a", Count: 3},
			{AgentID: "agent_b", Count: 1},
		},
		TotalMilestones:     4,
		PlanningScores:      []float64{4.0},
		CommunicationScores: []float64{3.0},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWeights(model.Weights{Planning: 0.5, Communication: 0.25, Contribution: 0.25}),
			service.WithTiers(reward.Tiers{High: 0.7, Low: 0.2}),
			service.WithFeedbackEnabled(false),
			service.WithFeedbackConcurrency(2),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithFeedbackEnabled(false))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})
		})
	})

	Convey("Given a service with invalid weights", t, func() {
		svc := service.New(
			service.WithWeights(model.Weights{Planning: 0.9, Communication: 0.3, Contribution: 0.3}),
		)

		Convey("When starting the service", func() {
			err := svc.Start(context.Background())

			Convey("Then startup should fail fast", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, reward.ErrInvalidWeights), ShouldBeTrue)
			})
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	Convey("Given a started service with a roster and a snapshot", t, func() {
		comp := &staticCompleter{reply: "solid work this cycle"}
		svc := service.New(service.WithCompleter(comp))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		ctx := context.Background()
		So(svc.RegisterRoster(ctx, "run-1", testRoster()), ShouldBeNil)
		So(svc.IngestSnapshot(ctx, "run-1", testSnapshot()), ShouldBeNil)

		Convey("When evaluating a cycle", func() {
			report, err := svc.Evaluate(ctx, "run-1", "build the widget", "iteration 3 went fine")

			Convey("Then rewards are computed for every roster agent", func() {
				So(err, ShouldBeNil)
				So(report.Package.Rewards, ShouldHaveLength, 2)
				So(report.Package.Rewards["agent_a"], ShouldAlmostEqual, 0.545, 1e-9)
				So(report.Package.Rewards["agent_b"], ShouldAlmostEqual, 0.395, 1e-9)
			})

			Convey("And the ranking orders contributors by ratio", func() {
				So(report.Package.Ranking, ShouldHaveLength, 2)
				So(report.Package.Ranking[0].AgentID, ShouldEqual, model.AgentID("agent_a"))
			})

			Convey("And each agent received generated feedback", func() {
				So(report.IndividualFeedbacks, ShouldHaveLength, 2)
				So(report.TeamFeedback, ShouldEqual, "solid work this cycle")
				So(report.CycleID, ShouldNotBeEmpty)
			})

			Convey("And the report is retrievable afterwards", func() {
				latest, lerr := svc.Latest(ctx, "run-1")
				So(lerr, ShouldBeNil)
				So(latest.CycleID, ShouldEqual, report.CycleID)
			})
		})

		Convey("When evaluating twice", func() {
			first, err := svc.Evaluate(ctx, "run-1", "task", "")
			So(err, ShouldBeNil)
			second, err := svc.Evaluate(ctx, "run-1", "task", "")
			So(err, ShouldBeNil)

			Convey("Then the cached report is replaced wholesale", func() {
				So(second.CycleID, ShouldNotEqual, first.CycleID)
				latest, lerr := svc.Latest(ctx, "run-1")
				So(lerr, ShouldBeNil)
				So(latest.CycleID, ShouldEqual, second.CycleID)
			})
		})
	})

	Convey("Given a started service without a completer", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		ctx := context.Background()
		So(svc.RegisterRoster(ctx, "run-2", testRoster()), ShouldBeNil)
		So(svc.IngestSnapshot(ctx, "run-2", testSnapshot()), ShouldBeNil)

		Convey("When evaluating a cycle", func() {
			report, err := svc.Evaluate(ctx, "run-2", "task", "")

			Convey("Then the report carries rewards but no feedback text", func() {
				So(err, ShouldBeNil)
				So(report.Package.Rewards, ShouldHaveLength, 2)
				So(report.TeamFeedback, ShouldBeEmpty)
				So(report.IndividualFeedbacks, ShouldBeEmpty)
			})
		})
	})
}

func TestService_IngestSnapshot(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithFeedbackEnabled(false))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		ctx := context.Background()
		So(svc.RegisterRoster(ctx, "run-1", testRoster()), ShouldBeNil)

		Convey("When ingesting a snapshot with a negative milestone total", func() {
			snap := testSnapshot()
			snap.TotalMilestones = -1
			err := svc.IngestSnapshot(ctx, "run-1", snap)

			Convey("Then it should be rejected before any cycle can use it", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, reward.ErrInvalidSnapshot), ShouldBeTrue)
			})
		})
	})
}

func TestService_Reads(t *testing.T) {
	Convey("Given a started service with an evaluated run", t, func() {
		svc := service.New(service.WithFeedbackEnabled(false))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		ctx := context.Background()
		roster := model.Roster{
			{ID: "a"}, {ID: "b"}, {ID: "c"},
		}
		snap := model.MetricsSnapshot{
			Milestones: []model.MilestoneCount{
				{AgentID: "a", Count: 5},
				{AgentID: "b", Count: 3},
				{AgentID: "c", Count: 2},
			},
			TotalMilestones: 10,
		}
		So(svc.RegisterRoster(ctx, "run-1", roster), ShouldBeNil)
		So(svc.IngestSnapshot(ctx, "run-1", snap), ShouldBeNil)
		_, err := svc.Evaluate(ctx, "run-1", "task", "")
		So(err, ShouldBeNil)

		Convey("When reading rewards", func() {
			rewards, rerr := svc.Rewards(ctx, "run-1")

			Convey("Then all roster agents are present", func() {
				So(rerr, ShouldBeNil)
				So(rewards, ShouldHaveLength, 3)
			})
		})

		Convey("When reading the ranking with a limit", func() {
			ranking, rerr := svc.Ranking(ctx, "run-1", 2)

			Convey("Then only the top entries are returned in order", func() {
				So(rerr, ShouldBeNil)
				So(ranking, ShouldHaveLength, 2)
				So(ranking[0].AgentID, ShouldEqual, model.AgentID("a"))
				So(ranking[1].AgentID, ShouldEqual, model.AgentID("b"))
			})
		})

		Convey("When reading a run that was never evaluated", func() {
			_, rerr := svc.Latest(ctx, "run-unknown")

			Convey("Then ErrNotEvaluated is returned", func() {
				So(errors.Is(rerr, service.ErrNotEvaluated), ShouldBeTrue)
				So(strings.Contains(rerr.Error(), "run-unknown"), ShouldBeTrue)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithFeedbackEnabled(false))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		ctx := context.Background()
		So(svc.RegisterRoster(ctx, "run-1", testRoster()), ShouldBeNil)
		So(svc.IngestSnapshot(ctx, "run-1", testSnapshot()), ShouldBeNil)
		_, err := svc.Evaluate(ctx, "run-1", "task", "")
		So(err, ShouldBeNil)

		Convey("When fetching stats", func() {
			stats := svc.GetStats()

			Convey("Then they reflect service state", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["cycles_evaluated"], ShouldEqual, 1)
				So(stats["runs_tracked"], ShouldEqual, 1)
			})
		})
	})
}
