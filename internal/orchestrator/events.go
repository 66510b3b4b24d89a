package orchestrator

import "time"

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPlanCreated indicates the planner produced a new plan.
	EventPlanCreated EventType = "plan_created"
	// EventStepStarted indicates a step began executing.
	EventStepStarted EventType = "step_started"
	// EventStepCompleted indicates a step's fan-in barrier completed.
	EventStepCompleted EventType = "step_completed"
	// EventTaskStarted indicates a task was dispatched to a worker.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a worker returned a task result.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task could not be scheduled.
	EventTaskFailed EventType = "task_failed"
	// EventSynthesisStarted indicates the final answer is being composed.
	EventSynthesisStarted EventType = "synthesis_started"
	// EventRunCompleted indicates the run finished with a result.
	EventRunCompleted EventType = "run_completed"
)

// Event is emitted by the orchestrator as the run progresses. Events are
// advisory: the TUI and console renderers consume them, and dropping one
// never affects the run itself.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Iteration is the planning iteration the event belongs to.
	Iteration int
	// StepDescription identifies the related step, if applicable.
	StepDescription string
	// TaskDescription identifies the related task, if applicable.
	TaskDescription string
	// AgentName is the worker the task was addressed to, if applicable.
	AgentName string
	// Message provides additional context about the event.
	Message string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
