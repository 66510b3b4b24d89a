// Package orchestrator implements the plan/execute/synthesize control
// loop: a planner LLM decomposes an objective into steps, each step fans
// its tasks out to named worker agents concurrently, and the loop repeats
// until the planner signals completion or the iteration budget runs out.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cadrehq/cadre/internal/agent"
	"github.com/cadrehq/cadre/internal/executor"
	"github.com/cadrehq/cadre/internal/llm"
	"github.com/cadrehq/cadre/internal/state"
	"github.com/cadrehq/cadre/pkg/models"
)

const (
	// defaultMaxIterations is higher than a plain agent's budget since
	// plan/execute loops legitimately need many rounds.
	defaultMaxIterations = 30
	// defaultMaxTokens is sized for planning prompts that embed the
	// full growing run transcript.
	defaultMaxTokens = 8192
)

// Config contains configuration options for the Orchestrator.
type Config struct {
	// Name identifies this orchestrator in logs and events.
	Name string
	// Planner is the LLM that produces plans and the final synthesis.
	Planner llm.AugmentedLLM
	// AvailableAgents are the workers tasks can be addressed to.
	// Duplicate names overwrite, last one wins.
	AvailableAgents []*agent.Agent
	// PlanMode selects full or iterative planning. Defaults to full.
	PlanMode models.PlanMode
	// Servers supplies server descriptions for the planner's agent
	// catalogue. Optional.
	Servers *agent.ServerRegistry
	// Executor runs a step's tasks concurrently. Defaults to a
	// ParallelExecutor.
	Executor executor.Executor
	// StateDB records run history. Optional; nil disables recording.
	StateDB *state.DB
	// Defaults are the orchestrator-level request params; caller
	// overrides on Execute are merged onto these.
	Defaults llm.RequestParams
}

// Orchestrator owns the planner, the worker registry, and the
// plan/execute/check-complete/synthesize cycle. It is stateless across
// top-level calls: all continuity is carried explicitly through the
// PlanResult transcript, never through provider chat history.
type Orchestrator struct {
	name     string
	planner  llm.AugmentedLLM
	agents   map[string]*agent.Agent
	planMode models.PlanMode
	servers  *agent.ServerRegistry
	exec     executor.Executor
	stateDB  *state.DB
	defaults llm.RequestParams

	// agentNames is the sorted key list, kept for deterministic
	// catalogue and error formatting.
	agentNames []string

	// events carries run-progress notifications for the TUI.
	events chan Event
}

// New creates an Orchestrator from the given configuration.
func New(cfg Config) *Orchestrator {
	agents := make(map[string]*agent.Agent, len(cfg.AvailableAgents))
	for _, a := range cfg.AvailableAgents {
		agents[a.Name] = a
	}
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)

	planMode := cfg.PlanMode
	if planMode == "" {
		planMode = models.PlanModeFull
	}

	exec := cfg.Executor
	if exec == nil {
		exec = executor.NewParallelExecutor()
	}

	defaults := cfg.Defaults
	if defaults.MaxIterations <= 0 {
		defaults.MaxIterations = defaultMaxIterations
	}
	if defaults.MaxTokens <= 0 {
		defaults.MaxTokens = defaultMaxTokens
	}
	defaults.ParallelToolCalls = true
	// The orchestrator's own calls never use chat history; the run
	// transcript carries all continuity.
	defaults.UseHistory = false

	return &Orchestrator{
		name:       cfg.Name,
		planner:    cfg.Planner,
		agents:     agents,
		agentNames: names,
		planMode:   planMode,
		servers:    cfg.Servers,
		exec:       exec,
		stateDB:    cfg.StateDB,
		defaults:   defaults,
		events:     make(chan Event, 100),
	}
}

// Events returns a read-only channel of run-progress events.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// Execute runs the control loop for one objective:
//  1. Ask the planner for a plan (full) or a single next step (iterative)
//  2. Validate agent names (log-only; containment happens per task)
//  3. Execute the plan's steps in order, tasks fanning out concurrently
//     within each step
//  4. If the planner claimed completion and at least one step has now
//     executed, synthesize the final answer and return. A completion
//     claim with zero executed steps is ignored so a run can never
//     finish without doing work.
//  5. Repeat until completion or the iteration budget is exhausted
//
// IsComplete on a plan means "the objective is satisfied once the steps
// below run", not "stop now": the final plan's steps are executed before
// synthesis, never discarded.
func (o *Orchestrator) Execute(ctx context.Context, objective string, params *llm.RequestParams) (*models.PlanResult, error) {
	p := o.defaults.Merge(params)
	// Forced off even when the caller asked otherwise; this override is
	// intentional and not bypassable.
	p.UseHistory = false

	runID := uuid.New().String()[:8]
	o.createRunState(runID, objective)

	planResult := models.NewPlanResult(objective)

	iterations := 0
	for iterations < p.MaxIterations {
		plan, err := o.makePlan(ctx, objective, planResult, &p)
		if err != nil {
			o.finishRunState(runID, state.RunFailed, "")
			return nil, err
		}

		o.validateAgentNames(plan)
		planResult.Plan = plan

		o.emitEvent(Event{
			Type:      EventPlanCreated,
			Iteration: iterations,
			Message:   fmt.Sprintf("Planner produced %d step(s)", len(plan.Steps)),
			Timestamp: time.Now(),
		})

		for i := range plan.Steps {
			stepResult, err := o.executeStep(ctx, iterations, objective, &plan.Steps[i], planResult, &p)
			if err != nil {
				o.finishRunState(runID, state.RunFailed, "")
				return nil, err
			}
			planResult.AppendStep(*stepResult)
			o.recordStepState(runID, len(planResult.StepResults)-1, stepResult)
		}

		if plan.IsComplete {
			if len(planResult.StepResults) > 0 {
				planResult.IsComplete = true
				if err := o.synthesize(ctx, planResult, &p); err != nil {
					o.finishRunState(runID, state.RunFailed, "")
					return nil, err
				}
				o.finishRunState(runID, state.RunCompleted, planResult.Result)
				o.emitEvent(Event{
					Type:      EventRunCompleted,
					Iteration: iterations,
					Message:   "Objective complete",
					Timestamp: time.Now(),
				})
				return planResult, nil
			}
			// The planner claimed completion without producing any steps
			// and nothing has executed yet. Ignore the claim and re-plan.
			log.Printf("[orchestrator] planner claimed completion with no executed steps, continuing")
		}

		iterations++
	}

	o.finishRunState(runID, state.RunFailed, "")
	return nil, fmt.Errorf("objective failed to complete in %d iterations", p.MaxIterations)
}

// GenerateString runs Execute and unwraps the synthesized answer.
func (o *Orchestrator) GenerateString(ctx context.Context, objective string, params *llm.RequestParams) (string, error) {
	planResult, err := o.Execute(ctx, objective, params)
	if err != nil {
		return "", err
	}
	return planResult.Result, nil
}

// GenerateStructured runs Execute and re-expresses the synthesized
// answer as a typed value via the planner.
func (o *Orchestrator) GenerateStructured(ctx context.Context, objective string, out any, params *llm.RequestParams) error {
	result, err := o.GenerateString(ctx, objective, params)
	if err != nil {
		return err
	}
	return o.planner.GenerateStructured(ctx, result, out, params)
}

// makePlan asks the planner for the next unit of planning: a complete
// plan in full mode, or a single step wrapped into a one-step plan in
// iterative mode so the downstream execution path is shared.
func (o *Orchestrator) makePlan(ctx context.Context, objective string, result *models.PlanResult, params *llm.RequestParams) (*models.Plan, error) {
	if o.planMode == models.PlanModeIterative {
		nextStep, err := o.getNextStep(ctx, objective, result, params)
		if err != nil {
			return nil, err
		}
		return nextStep.Plan(), nil
	}
	return o.getFullPlan(ctx, objective, result, params)
}

// getFullPlan obtains a complete plan from the planner.
func (o *Orchestrator) getFullPlan(ctx context.Context, objective string, result *models.PlanResult, params *llm.RequestParams) (*models.Plan, error) {
	p := *params
	p.UseHistory = false

	prompt := o.renderFullPlanPrompt(objective, result)
	raw, err := o.planner.GenerateString(ctx, prompt, &p)
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	plan, err := parseResponse[models.Plan](ctx, o.planner, raw, &p)
	if err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return plan, nil
}

// getNextStep obtains a single next step from the planner.
func (o *Orchestrator) getNextStep(ctx context.Context, objective string, result *models.PlanResult, params *llm.RequestParams) (*models.NextStep, error) {
	p := *params
	p.UseHistory = false

	prompt := o.renderNextStepPrompt(objective, result)
	raw, err := o.planner.GenerateString(ctx, prompt, &p)
	if err != nil {
		return nil, fmt.Errorf("generate next step: %w", err)
	}

	nextStep, err := parseResponse[models.NextStep](ctx, o.planner, raw, &p)
	if err != nil {
		return nil, fmt.Errorf("parse next step: %w", err)
	}
	return nextStep, nil
}

// executeStep fans a step's tasks out to their workers concurrently and
// gathers the results. Tasks naming unknown agents never reach the
// executor: they get a synthesized ERROR result and the rest of the step
// proceeds. A worker error during the gather is fatal and propagates.
func (o *Orchestrator) executeStep(ctx context.Context, iteration int, objective string, step *models.Step, previous *models.PlanResult, params *llm.RequestParams) (*models.StepResult, error) {
	contextText := previous.Render()

	o.emitEvent(Event{
		Type:            EventStepStarted,
		Iteration:       iteration,
		StepDescription: step.Description,
		Timestamp:       time.Now(),
	})

	var futures []executor.TaskFunc
	var scheduled []models.AgentTask
	var errorResults []models.TaskResult

	for _, task := range step.Tasks {
		worker, ok := o.agents[task.Agent]
		if !ok {
			message := fmt.Sprintf("Agent '%s' not found. The plan names an agent that is not registered. Available agents: %s",
				task.Agent, strings.Join(o.agentNames, ", "))
			log.Printf("[orchestrator] %s", message)
			errorResults = append(errorResults, models.TaskResult{
				Description: task.Description,
				Agent:       task.Agent,
				Result:      "ERROR: " + message,
			})
			o.emitEvent(Event{
				Type:            EventTaskFailed,
				Iteration:       iteration,
				StepDescription: step.Description,
				TaskDescription: task.Description,
				AgentName:       task.Agent,
				Message:         message,
				Timestamp:       time.Now(),
			})
			continue
		}

		prompt := renderTaskPrompt(objective, task.Description, contextText)
		scheduled = append(scheduled, task)
		futures = append(futures, func(ctx context.Context) (string, error) {
			return worker.Generate(ctx, prompt)
		})
		o.emitEvent(Event{
			Type:            EventTaskStarted,
			Iteration:       iteration,
			StepDescription: step.Description,
			TaskDescription: task.Description,
			AgentName:       task.Agent,
			Timestamp:       time.Now(),
		})
	}

	outputs, err := o.exec.ExecuteAll(ctx, futures...)
	if err != nil {
		return nil, fmt.Errorf("execute step %q: %w", step.Description, err)
	}

	stepResult := &models.StepResult{Step: *step}
	for i, output := range outputs {
		stepResult.TaskResults = append(stepResult.TaskResults, models.TaskResult{
			Description: scheduled[i].Description,
			Agent:       scheduled[i].Agent,
			Result:      output,
		})
		o.emitEvent(Event{
			Type:            EventTaskCompleted,
			Iteration:       iteration,
			StepDescription: step.Description,
			TaskDescription: scheduled[i].Description,
			AgentName:       scheduled[i].Agent,
			Timestamp:       time.Now(),
		})
	}
	// Error tasks are appended after the executed batch so every
	// original task has exactly one result entry.
	stepResult.TaskResults = append(stepResult.TaskResults, errorResults...)
	stepResult.Result = stepResult.Render()

	o.emitEvent(Event{
		Type:            EventStepCompleted,
		Iteration:       iteration,
		StepDescription: step.Description,
		Timestamp:       time.Now(),
	})

	return stepResult, nil
}

// synthesize composes the final answer from the full run transcript.
// MaxIterations is forced to 1 on this call so the synthesis request
// cannot recursively trigger further planning inside an iterating
// planner.
func (o *Orchestrator) synthesize(ctx context.Context, result *models.PlanResult, params *llm.RequestParams) error {
	o.emitEvent(Event{
		Type:      EventSynthesisStarted,
		Message:   "Composing final answer",
		Timestamp: time.Now(),
	})

	p := *params
	p.MaxIterations = 1
	p.UseHistory = false

	answer, err := o.planner.GenerateString(ctx, renderSynthesisPrompt(result), &p)
	if err != nil {
		return fmt.Errorf("synthesize result: %w", err)
	}
	result.Result = answer
	return nil
}

// emitEvent sends an event without blocking; full channels drop events.
func (o *Orchestrator) emitEvent(event Event) {
	select {
	case o.events <- event:
	default:
	}
}

// createRunState records a new run in the state database.
func (o *Orchestrator) createRunState(runID, objective string) {
	if o.stateDB == nil {
		return
	}
	run := &state.Run{
		ID:        runID,
		Objective: objective,
		PlanMode:  string(o.planMode),
		Status:    state.RunActive,
		StartedAt: time.Now(),
	}
	if err := o.stateDB.CreateRun(run); err != nil {
		log.Printf("[orchestrator] warning: failed to record run: %v", err)
	}
}

// recordStepState persists one executed step's results.
func (o *Orchestrator) recordStepState(runID string, index int, sr *models.StepResult) {
	if o.stateDB == nil {
		return
	}
	if err := o.stateDB.RecordStep(runID, index, sr); err != nil {
		log.Printf("[orchestrator] warning: failed to record step result: %v", err)
	}
}

// finishRunState marks the run finished in the state database.
func (o *Orchestrator) finishRunState(runID string, status state.RunStatus, result string) {
	if o.stateDB == nil {
		return
	}
	if err := o.stateDB.FinishRun(runID, status, result); err != nil {
		log.Printf("[orchestrator] warning: failed to finish run record: %v", err)
	}
}
