// Package feedback renders prompts from an assembled feedback package and
// generates agent-facing text through the completion collaborator.
//
// Generation is best-effort: one agent's completion failure degrades to an
// error note for that agent and never fails the cycle. The reward math
// upstream is already done by the time this package runs.
package feedback

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quorumlab/rubric/internal/adapters/completion"
	"github.com/quorumlab/rubric/internal/domain/model"
	"github.com/quorumlab/rubric/internal/domain/reward"
	"github.com/quorumlab/rubric/pkg/logger"
	"github.com/quorumlab/rubric/pkg/metrics"
)

// Default generation parameters.
const (
	defaultConcurrency      = 4
	defaultMaxTokens        = 1024
	defaultExplainMaxTokens = 512
	defaultTemperature      = 0.1
	missingProfile          = "no profile configured"
)

// Input bundles everything one cycle's feedback generation needs.
type Input struct {
	RunID         string
	Task          string
	IterationData string
	Roster        model.Roster
	Snapshot      model.MetricsSnapshot
	Package       model.FeedbackPackage
}

// Report is the final hand-off artifact: the assembled package plus the
// generated natural-language feedback.
type Report struct {
	CycleID             string                   `json:"cycle_id"`
	RunID               string                   `json:"run_id"`
	Task                string                   `json:"task"`
	TeamFeedback        string                   `json:"team_feedback"`
	IndividualFeedbacks map[model.AgentID]string `json:"individual_feedbacks"`
	RewardExplanations  map[model.AgentID]string `json:"agent_reward_explanations"`
	Package             model.FeedbackPackage    `json:"feedback_package"`
	GeneratedAt         time.Time                `json:"generated_at"`
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithModel sets the completion model.
func WithModel(m string) Option {
	return func(g *Generator) {
		if m != "" {
			g.model = m
		}
	}
}

// WithConcurrency bounds how many agent feedbacks are generated in parallel.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithMaxTokens caps the completion length for feedback prompts.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature for feedback prompts.
func WithTemperature(t float64) Option {
	return func(g *Generator) {
		if t > 0 {
			g.temperature = t
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// Generator turns feedback packages into agent-facing text.
type Generator struct {
	completer   completion.Completer
	model       string
	maxTokens   int
	temperature float64
	concurrency int
	log         logger.Logger
}

// New creates a Generator over the given completer.
func New(completer completion.Completer, opts ...Option) *Generator {
	g := &Generator{
		completer:   completer,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Get()
	}
	return g
}

// Generate produces the full report for one cycle: individual feedback per
// roster agent (bounded concurrency), team feedback, and per-agent reward
// explanations.
func (g *Generator) Generate(ctx context.Context, cycleID string, in Input) Report {
	start := time.Now()
	report := Report{
		CycleID:             cycleID,
		RunID:               in.RunID,
		Task:                in.Task,
		IndividualFeedbacks: make(map[model.AgentID]string, len(in.Roster)),
		RewardExplanations:  make(map[model.AgentID]string, len(in.Roster)),
		Package:             in.Package,
		GeneratedAt:         start.UTC(),
	}

	var mu sync.Mutex
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.concurrency)

	for _, agent := range in.Roster {
		grp.Go(func() error {
			individual := g.generateIndividual(grpCtx, agent, in)
			explanation := g.generateExplanation(grpCtx, agent, in)
			mu.Lock()
			report.IndividualFeedbacks[agent.ID] = individual
			report.RewardExplanations[agent.ID] = explanation
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures degrade to notes in the report.
	_ = grp.Wait()

	report.TeamFeedback = g.generateTeam(ctx, in)

	metrics.RecordFeedbackLatency(float64(time.Since(start).Milliseconds()))
	return report
}

func (g *Generator) generateIndividual(ctx context.Context, agent model.Agent, in Input) string {
	profile := agent.Profile
	if profile == "" {
		profile = missingProfile
	}
	prompt, err := render(individualTmpl, map[string]any{
		"Task":               in.Task,
		"AgentID":            agent.ID,
		"Profile":            profile,
		"Reward":             in.Package.Rewards[agent.ID],
		"Tier":               in.Package.Tiers[agent.ID],
		"PlanningScore":      in.Package.NormalizedPlanning,
		"CommunicationScore": in.Package.NormalizedCommunication,
		"Milestones":         in.Snapshot.MilestonesFor(agent.ID),
		"TotalMilestones":    in.Snapshot.TotalMilestones,
		"ContributionPct":    reward.ContributionRatio(in.Snapshot, agent.ID) * 100,
		"IterationData":      in.IterationData,
	})
	if err != nil {
		return g.degrade(ctx, "individual", agent.ID, err)
	}
	return g.complete(ctx, "individual", agent.ID, prompt, g.maxTokens)
}

func (g *Generator) generateExplanation(ctx context.Context, agent model.Agent, in Input) string {
	prompt, err := render(explainTmpl, map[string]any{
		"AgentID":            agent.ID,
		"Reward":             in.Package.Rewards[agent.ID],
		"Weights":            in.Package.Weights,
		"PlanningScore":      in.Package.NormalizedPlanning,
		"CommunicationScore": in.Package.NormalizedCommunication,
		"ContributionRatio":  reward.ContributionRatio(in.Snapshot, agent.ID),
	})
	if err != nil {
		return g.degrade(ctx, "explanation", agent.ID, err)
	}
	return g.complete(ctx, "explanation", agent.ID, prompt, defaultExplainMaxTokens)
}

func (g *Generator) generateTeam(ctx context.Context, in Input) string {
	prompt, err := render(teamTmpl, map[string]any{
		"Task":               in.Task,
		"PlanningScore":      in.Package.NormalizedPlanning,
		"CommunicationScore": in.Package.NormalizedCommunication,
		"TotalMilestones":    in.Package.TotalMilestones,
		"Ranking":            FormatRanking(in.Package.Ranking),
		"IterationData":      in.IterationData,
	})
	if err != nil {
		return g.degrade(ctx, "team", "", err)
	}
	return g.complete(ctx, "team", "", prompt, g.maxTokens)
}

// complete runs one prompt through the completer, degrading on failure.
func (g *Generator) complete(ctx context.Context, kind string, agentID model.AgentID, prompt string, maxTokens int) string {
	text, err := g.completer.Complete(ctx, completion.Request{
		Model:       g.model,
		Messages:    []completion.Message{{Role: completion.RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return g.degrade(ctx, kind, agentID, err)
	}
	metrics.RecordFeedbackGenerated()
	return text
}

func (g *Generator) degrade(ctx context.Context, kind string, agentID model.AgentID, err error) string {
	metrics.RecordFeedbackError()
	metrics.RecordErrorByComponent("feedback", kind)
	g.log.Error(ctx, "feedback generation degraded",
		logger.String("kind", kind),
		logger.String("agent_id", string(agentID)),
		logger.Error(err),
	)
	return fmt.Sprintf("feedback generation failed: %v", err)
}

// FormatRanking renders a contribution ranking as numbered lines for prompt
// embedding, e.g. "1. agent-a: 75.00%".
func FormatRanking(ranking []model.RankedContribution) string {
	if len(ranking) == 0 {
		return "no contribution data"
	}
	var b strings.Builder
	for i, rc := range ranking {
		fmt.Fprintf(&b, "%d. %s: %.2f%%\n", i+1, rc.AgentID, rc.Ratio*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
