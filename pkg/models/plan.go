// Package models defines the plan and result types that flow between
// the planner, the orchestrator, and the worker agents. Plan types are
// what the planner LLM emits as JSON; result types accumulate what the
// workers produced.
package models

// PlanMode selects how the planner is consulted.
type PlanMode string

const (
	// PlanModeFull asks the planner for all remaining steps each
	// iteration.
	PlanModeFull PlanMode = "full"
	// PlanModeIterative asks the planner for exactly one next step each
	// iteration.
	PlanModeIterative PlanMode = "iterative"
)

// Valid reports whether the mode is one of the known plan modes.
func (m PlanMode) Valid() bool {
	return m == PlanModeFull || m == PlanModeIterative
}

// AgentTask is one unit of work addressed to a named worker agent.
type AgentTask struct {
	// Description tells the worker what to do.
	Description string `json:"description"`
	// Agent names the worker, matched by exact string equality against
	// the registry.
	Agent string `json:"agent"`
}

// Step is a group of tasks that can run in parallel. Steps themselves
// are sequential.
type Step struct {
	Description string      `json:"description"`
	Tasks       []AgentTask `json:"tasks"`
}

// Plan is the planner's output: the remaining steps toward the
// objective, and its claim about whether the objective is already
// satisfied by the results so far.
type Plan struct {
	Steps []Step `json:"steps"`
	// IsComplete means the objective is satisfiable from existing
	// results, not that this plan's steps have run.
	IsComplete bool `json:"is_complete"`
}

// NextStep is the planner's output in iterative mode: a single step
// plus the completion claim.
type NextStep struct {
	Description string      `json:"description"`
	Tasks       []AgentTask `json:"tasks"`
	IsComplete  bool        `json:"is_complete"`
}

// Step converts the NextStep to a plain Step.
func (n *NextStep) Step() Step {
	return Step{
		Description: n.Description,
		Tasks:       n.Tasks,
	}
}

// Plan wraps the NextStep as a one-step Plan so both plan modes share
// the same execution path.
func (n *NextStep) Plan() *Plan {
	return &Plan{
		Steps:      []Step{n.Step()},
		IsComplete: n.IsComplete,
	}
}
