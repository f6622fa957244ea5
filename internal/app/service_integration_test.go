package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/quorumlab/rubric/internal/app"
	"github.com/quorumlab/rubric/internal/adapters/completion"
	"github.com/quorumlab/rubric/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// flakyIntegrationCompleter fails a fixed number of times before recovering.
type flakyIntegrationCompleter struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (c *flakyIntegrationCompleter) Complete(_ context.Context, req completion.Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", completion.ErrEmptyRequest
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.failures {
		return "", fmt.Errorf("%w: upstream unavailable", completion.ErrComplete)
	}
	return "generated feedback", nil
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service wired with a retrying completer", t, func() {
		flaky := &flakyIntegrationCompleter{failures: 2}
		retrier := completion.NewRetrier(flaky,
			completion.WithMaxRetries(3),
			completion.WithInitialInterval(time.Millisecond),
		)
		svc := service.New(
			service.WithCompleter(retrier),
			service.WithFeedbackConcurrency(1),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When running a full roster-snapshot-evaluate cycle", func() {
			roster := model.Roster{
				{ID: "planner", Profile: "plans the work"},
				{ID: "builder", Profile: "builds the work"},
				{ID: "reviewer", Profile: "reviews the work"},
			}
			snap := model.MetricsSnapshot{
				Milestones: []model.MilestoneCount{
					{AgentID: "planner", Count: 2},
					{AgentID: "builder", Count: 5},
					{AgentID: "reviewer", Count: 3},
				},
				TotalMilestones:     10,
				PlanningScores:      []float64{2.0, 4.5},
				CommunicationScores: []float64{3.5},
			}
			So(svc.RegisterRoster(ctx, "run-int", roster), ShouldBeNil)
			So(svc.IngestSnapshot(ctx, "run-int", snap), ShouldBeNil)

			report, err := svc.Evaluate(ctx, "run-int", "ship the release", "iteration summary")

			Convey("Then the cycle succeeds despite transient completion failures", func() {
				So(err, ShouldBeNil)
				So(report.Package.Rewards, ShouldHaveLength, 3)
				So(report.Package.Ranking[0].AgentID, ShouldEqual, model.AgentID("builder"))
				So(report.IndividualFeedbacks["planner"], ShouldNotBeEmpty)
				So(flaky.calls, ShouldBeGreaterThan, 2)
			})
		})

		Convey("When multiple runs are evaluated on the same service", func() {
			for i := 0; i < 3; i++ {
				runID := fmt.Sprintf("run-%d", i)
				roster := model.Roster{{ID: model.AgentID(fmt.Sprintf("agent-%d", i))}}
				snap := model.MetricsSnapshot{
					Milestones:      []model.MilestoneCount{{AgentID: roster[0].ID, Count: i + 1}},
					TotalMilestones: i + 1,
				}
				So(svc.RegisterRoster(ctx, runID, roster), ShouldBeNil)
				So(svc.IngestSnapshot(ctx, runID, snap), ShouldBeNil)
				_, err := svc.Evaluate(ctx, runID, "task", "")
				So(err, ShouldBeNil)
			}

			Convey("Then each run keeps its own latest report", func() {
				for i := 0; i < 3; i++ {
					report, err := svc.Latest(ctx, fmt.Sprintf("run-%d", i))
					So(err, ShouldBeNil)
					So(report.RunID, ShouldEqual, fmt.Sprintf("run-%d", i))
				}
				So(svc.RunsTracked(ctx), ShouldEqual, 3)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a started service under concurrent load", t, func() {
		svc := service.New(service.WithFeedbackEnabled(false))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		roster := model.Roster{{ID: "a"}, {ID: "b"}}
		snap := model.MetricsSnapshot{
			Milestones: []model.MilestoneCount{
				{AgentID: "a", Count: 3},
				{AgentID: "b", Count: 1},
			},
			TotalMilestones: 4,
		}
		So(svc.RegisterRoster(ctx, "run-c", roster), ShouldBeNil)
		So(svc.IngestSnapshot(ctx, "run-c", snap), ShouldBeNil)
		_, err := svc.Evaluate(ctx, "run-c", "task", "")
		So(err, ShouldBeNil)

		Convey("When goroutines evaluate and read concurrently", func() {
			numGoroutines := 10
			errs := make(chan error, numGoroutines*20)
			var wg sync.WaitGroup

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 10; j++ {
						if _, err := svc.Evaluate(ctx, "run-c", "task", ""); err != nil {
							errs <- err
							continue
						}
						rewards, err := svc.Rewards(ctx, "run-c")
						if err != nil {
							errs <- err
							continue
						}
						if len(rewards) != 2 {
							errs <- fmt.Errorf("expected 2 rewards, got %d", len(rewards))
						}
					}
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then no operation fails or observes partial state", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
			})
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service started and stopped repeatedly", t, func() {
		svc := service.New(service.WithFeedbackEnabled(false))
		ctx := context.Background()

		So(svc.Start(ctx), ShouldBeNil)
		svc.Stop()
		So(svc.GetStats()["started"], ShouldEqual, false)

		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(svc.GetStats()["started"], ShouldEqual, true)

		Convey("When operating before Start", func() {
			cold := service.New()
			err := cold.RegisterRoster(ctx, "run-x", model.Roster{{ID: "a"}})

			Convey("Then operations fail with ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, eerr := cold.Evaluate(ctx, "run-x", "task", "")
				So(errors.Is(eerr, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When stopping clears cached reports", func() {
			So(svc.RegisterRoster(ctx, "run-l", model.Roster{{ID: "a"}}), ShouldBeNil)
			So(svc.IngestSnapshot(ctx, "run-l", model.MetricsSnapshot{
				Milestones:      []model.MilestoneCount{{AgentID: "a", Count: 1}},
				TotalMilestones: 1,
			}), ShouldBeNil)
			_, err := svc.Evaluate(ctx, "run-l", "task", "")
			So(err, ShouldBeNil)

			svc.Stop()
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then the restarted service has no stale report", func() {
				_, lerr := svc.Latest(ctx, "run-l")
				So(errors.Is(lerr, service.ErrNotEvaluated), ShouldBeTrue)
			})
		})
	})
}
