package models

import (
	"fmt"
	"strings"
)

// TaskResult is one worker's output for one task.
type TaskResult struct {
	Description string `json:"description"`
	Agent       string `json:"agent"`
	Result      string `json:"result"`
}

// StepResult collects the task results of one executed step.
type StepResult struct {
	Step        Step         `json:"step"`
	TaskResults []TaskResult `json:"task_results"`
	// Result is the rendered transcript of this step, stored so the
	// planner sees exactly what later prompts will contain.
	Result string `json:"result"`
}

// Render formats the step and its task results for planner prompts.
func (s *StepResult) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step: %s\n", s.Step.Description)
	b.WriteString("Step Subtasks:\n")
	for _, task := range s.TaskResults {
		fmt.Fprintf(&b, "- Task: %s\n", task.Description)
		fmt.Fprintf(&b, "  Agent: %s\n", task.Agent)
		fmt.Fprintf(&b, "  Result: %s\n", task.Result)
	}
	return b.String()
}

// PlanResult is the run transcript: the objective, every executed step
// with its task results, the most recent plan, and eventually the
// synthesized final answer. It is the only continuity between planning
// iterations.
type PlanResult struct {
	Objective   string       `json:"objective"`
	StepResults []StepResult `json:"step_results"`
	// Plan is the most recent plan produced for this objective.
	Plan *Plan `json:"plan,omitempty"`
	// IsComplete is set once the planner's completion claim is honored.
	IsComplete bool `json:"is_complete"`
	// Result is the synthesized final answer.
	Result string `json:"result"`
}

// NewPlanResult creates an empty transcript for an objective.
func NewPlanResult(objective string) *PlanResult {
	return &PlanResult{
		Objective:   objective,
		StepResults: []StepResult{},
	}
}

// AppendStep records one executed step.
func (p *PlanResult) AppendStep(step StepResult) {
	p.StepResults = append(p.StepResults, step)
}

// Status summarizes the run state for planner prompts.
func (p *PlanResult) Status() string {
	if p.IsComplete {
		return "Complete"
	}
	if len(p.StepResults) > 0 {
		return "In Progress"
	}
	return "Not Started"
}

// Render formats the full transcript for planner prompts.
func (p *PlanResult) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan Objective: %s\n\n", p.Objective)
	if len(p.StepResults) == 0 {
		b.WriteString("No steps executed yet.\n")
		return b.String()
	}
	b.WriteString("Progress So Far (steps completed):\n\n")
	for _, step := range p.StepResults {
		b.WriteString(step.Render())
		b.WriteString("\n")
	}
	return b.String()
}
