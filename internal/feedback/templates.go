package feedback

import "text/template"

// Prompt templates filled from one cycle's feedback package. The engine never
// sees these; they exist purely on the presentation side of the boundary.
var (
	individualTmpl = template.Must(template.New("individual").Parse(
		`You are a reinforcement coach for a multi-agent team working on: {{.Task}}

Agent {{.AgentID}} ({{.Profile}}) earned a reward of {{printf "%.4f" .Reward}} ({{.Tier}} tier) this cycle.
Team planning score: {{printf "%.2f" .PlanningScore}}. Team communication score: {{printf "%.2f" .CommunicationScore}}.
The agent completed {{.Milestones}} of {{.TotalMilestones}} team milestones (contribution ratio {{printf "%.2f%%" .ContributionPct}}).
Last cycle's task data: {{.IterationData}}

Write concise, actionable feedback for this agent: reinforce what drove the reward when it is high, and give concrete corrective guidance when it is low.`))

	teamTmpl = template.Must(template.New("team").Parse(
		`You are reviewing a multi-agent team working on: {{.Task}}

Team planning score: {{printf "%.2f" .PlanningScore}}. Team communication score: {{printf "%.2f" .CommunicationScore}}.
Total milestones completed: {{.TotalMilestones}}.
Contribution ranking:
{{.Ranking}}
Last cycle's task data: {{.IterationData}}

Write feedback for the whole team and suggest how the collaboration structure should change next cycle.`))

	explainTmpl = template.Must(template.New("explain").Parse(
		`Explain to agent {{.AgentID}} why it received a reward of {{printf "%.4f" .Reward}} this cycle.
The reward blends planning ({{printf "%.2f" .Weights.Planning}} weight, normalized score {{printf "%.2f" .PlanningScore}}), communication ({{printf "%.2f" .Weights.Communication}} weight, normalized score {{printf "%.2f" .CommunicationScore}}), and individual contribution ({{printf "%.2f" .Weights.Contribution}} weight, ratio {{printf "%.2f" .ContributionRatio}}).
Keep the explanation short and tie each term to the agent's behavior.`))
)
