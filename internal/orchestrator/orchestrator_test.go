package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cadrehq/cadre/internal/agent"
	"github.com/cadrehq/cadre/internal/llm"
	"github.com/cadrehq/cadre/pkg/models"
)

// llmCall records one GenerateString invocation.
type llmCall struct {
	message string
	params  llm.RequestParams
}

// fakeLLM plays back scripted responses in order and records every call.
// When generate is set it overrides the script entirely, which is how
// worker agents answer with a fixed reply. GenerateStructured unmarshals
// repairJSON into the target, standing in for the planner's structured
// repair pass.
type fakeLLM struct {
	mu         sync.Mutex
	responses  []string
	calls      []llmCall
	generate   func(message string) (string, error)
	repairJSON string
	repairs    int
}

func (f *fakeLLM) GenerateString(ctx context.Context, message string, params *llm.RequestParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var p llm.RequestParams
	if params != nil {
		p = *params
	}
	f.calls = append(f.calls, llmCall{message: message, params: p})
	if f.generate != nil {
		return f.generate(message)
	}
	if len(f.responses) == 0 {
		return "", errors.New("fakeLLM: no scripted responses left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeLLM) GenerateStructured(ctx context.Context, message string, out any, params *llm.RequestParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repairs++
	if f.repairJSON == "" {
		return errors.New("fakeLLM: no repair payload scripted")
	}
	return json.Unmarshal([]byte(f.repairJSON), out)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) recordedCalls() []llmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llmCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func newWorker(name, reply string) *agent.Agent {
	model := &fakeLLM{generate: func(string) (string, error) { return reply, nil }}
	return agent.New(name, name+" agent", model)
}

func newFailingWorker(name string, err error) *agent.Agent {
	model := &fakeLLM{generate: func(string) (string, error) { return "", err }}
	return agent.New(name, name+" agent", model)
}

func TestNew_Defaults(t *testing.T) {
	planner := &fakeLLM{}
	o := New(Config{
		Name:            "test",
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("reader", "ok")},
		Defaults:        llm.RequestParams{UseHistory: true},
	})

	if o.defaults.MaxIterations != 30 {
		t.Errorf("MaxIterations = %d, want 30", o.defaults.MaxIterations)
	}
	if o.defaults.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", o.defaults.MaxTokens)
	}
	if !o.defaults.ParallelToolCalls {
		t.Error("ParallelToolCalls = false, want true")
	}
	if o.defaults.UseHistory {
		t.Error("UseHistory = true, want forced false")
	}
	if o.planMode != models.PlanModeFull {
		t.Errorf("planMode = %q, want full", o.planMode)
	}
}

func TestNew_DuplicateAgentNamesLastWins(t *testing.T) {
	first := newWorker("worker", "first")
	second := newWorker("worker", "second")
	o := New(Config{
		Planner:         &fakeLLM{},
		AvailableAgents: []*agent.Agent{first, second},
	})

	if len(o.agents) != 1 {
		t.Fatalf("len(agents) = %d, want 1", len(o.agents))
	}
	if o.agents["worker"] != second {
		t.Error("registry kept the first agent, want last registration to win")
	}
	if len(o.agentNames) != 1 || o.agentNames[0] != "worker" {
		t.Errorf("agentNames = %v, want [worker]", o.agentNames)
	}
}

func TestExecute_EndToEnd(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"steps":[{"description":"read files","tasks":[
			{"description":"read file A","agent":"reader"},
			{"description":"read file B","agent":"reader"}]}],"is_complete":false}`,
		`{"steps":[{"description":"write summary","tasks":[
			{"description":"write combined summary","agent":"writer"}]}],"is_complete":true}`,
		"Final answer",
	}}
	o := New(Config{
		Planner: planner,
		AvailableAgents: []*agent.Agent{
			newWorker("reader", "file text"),
			newWorker("writer", "Summary text"),
		},
	})

	result, err := o.Execute(context.Background(), "Summarize two files", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !result.IsComplete {
		t.Error("IsComplete = false, want true")
	}
	if result.Result != "Final answer" {
		t.Errorf("Result = %q, want Final answer", result.Result)
	}
	if len(result.StepResults) != 2 {
		t.Fatalf("len(StepResults) = %d, want 2", len(result.StepResults))
	}

	// The final plan's step runs before synthesis; it is never discarded.
	last := result.StepResults[1]
	if last.Step.Description != "write summary" {
		t.Errorf("StepResults[1] = %q, want write summary", last.Step.Description)
	}
	if len(last.TaskResults) != 1 || last.TaskResults[0].Result != "Summary text" {
		t.Errorf("writer TaskResults = %+v, want single Summary text", last.TaskResults)
	}

	// Two plan calls plus one synthesis call.
	calls := planner.recordedCalls()
	if len(calls) != 3 {
		t.Fatalf("planner calls = %d, want 3", len(calls))
	}
	synthesis := calls[2]
	if !strings.Contains(synthesis.message, "Synthesize") {
		t.Errorf("third planner call is not synthesis:\n%s", synthesis.message)
	}
	if synthesis.params.MaxIterations != 1 {
		t.Errorf("synthesis MaxIterations = %d, want 1", synthesis.params.MaxIterations)
	}
	for i, call := range calls {
		if call.params.UseHistory {
			t.Errorf("call %d had UseHistory = true, want false", i)
		}
	}
}

func TestExecute_StepAndTaskOrderPreserved(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"steps":[
			{"description":"S1","tasks":[
				{"description":"t1","agent":"reader"},
				{"description":"t2","agent":"writer"}]},
			{"description":"S2","tasks":[
				{"description":"t3","agent":"writer"},
				{"description":"t4","agent":"reader"}]}],"is_complete":true}`,
		"done",
	}}
	o := New(Config{
		Planner: planner,
		AvailableAgents: []*agent.Agent{
			newWorker("reader", "r"),
			newWorker("writer", "w"),
		},
	})

	result, err := o.Execute(context.Background(), "ordered", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.StepResults) != 2 {
		t.Fatalf("len(StepResults) = %d, want 2", len(result.StepResults))
	}
	if result.StepResults[0].Step.Description != "S1" || result.StepResults[1].Step.Description != "S2" {
		t.Errorf("step order = %q, %q; want S1, S2",
			result.StepResults[0].Step.Description, result.StepResults[1].Step.Description)
	}
	wantTasks := [][]string{{"t1", "t2"}, {"t3", "t4"}}
	for i, sr := range result.StepResults {
		for j, tr := range sr.TaskResults {
			if tr.Description != wantTasks[i][j] {
				t.Errorf("StepResults[%d].TaskResults[%d] = %q, want %q", i, j, tr.Description, wantTasks[i][j])
			}
		}
	}
}

func TestExecute_CompletionClaimWithoutStepsIgnored(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"steps":[],"is_complete":true}`,
		`{"steps":[{"description":"do work","tasks":[
			{"description":"task","agent":"reader"}]}],"is_complete":true}`,
		"synthesized",
	}}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("reader", "output")},
	})

	result, err := o.Execute(context.Background(), "objective", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.StepResults) != 1 {
		t.Fatalf("len(StepResults) = %d, want 1; a run must never finish with zero executed steps", len(result.StepResults))
	}
	if result.Result != "synthesized" {
		t.Errorf("Result = %q, want synthesized", result.Result)
	}
}

func TestExecute_FirstIterationCompleteStillExecutes(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"steps":[{"description":"only step","tasks":[
			{"description":"task","agent":"reader"}]}],"is_complete":true}`,
		"answer",
	}}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("reader", "output")},
	})

	result, err := o.Execute(context.Background(), "objective", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.StepResults) != 1 {
		t.Fatalf("len(StepResults) = %d, want 1", len(result.StepResults))
	}
	if result.StepResults[0].TaskResults[0].Result != "output" {
		t.Errorf("task result = %q, want output", result.StepResults[0].TaskResults[0].Result)
	}
	if planner.callCount() != 2 {
		t.Errorf("planner calls = %d, want 2 (one plan, one synthesis)", planner.callCount())
	}
}

func TestExecute_IterativeMode(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"description":"first step","tasks":[
			{"description":"gather","agent":"reader"}],"is_complete":false}`,
		`{"description":"second step","tasks":[
			{"description":"compose","agent":"writer"}],"is_complete":true}`,
		"iterative answer",
	}}
	o := New(Config{
		Planner:  planner,
		PlanMode: models.PlanModeIterative,
		AvailableAgents: []*agent.Agent{
			newWorker("reader", "gathered"),
			newWorker("writer", "composed"),
		},
	})

	result, err := o.Execute(context.Background(), "objective", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.StepResults) != 2 {
		t.Fatalf("len(StepResults) = %d, want 2", len(result.StepResults))
	}
	if result.StepResults[0].Step.Description != "first step" {
		t.Errorf("StepResults[0] = %q, want first step", result.StepResults[0].Step.Description)
	}
	if result.StepResults[1].TaskResults[0].Result != "composed" {
		t.Errorf("second step result = %q, want composed", result.StepResults[1].TaskResults[0].Result)
	}
	if result.Result != "iterative answer" {
		t.Errorf("Result = %q, want iterative answer", result.Result)
	}
}

func TestExecute_UnknownAgentContained(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"steps":[{"description":"mixed step","tasks":[
			{"description":"valid task","agent":"reader"},
			{"description":"phantom task","agent":"ghost"}]}],"is_complete":true}`,
		"contained answer",
	}}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("reader", "real output")},
	})

	result, err := o.Execute(context.Background(), "objective", nil)
	if err != nil {
		t.Fatalf("Execute failed, unknown agents must not abort the run: %v", err)
	}
	if len(result.StepResults) != 1 {
		t.Fatalf("len(StepResults) = %d, want 1", len(result.StepResults))
	}

	tasks := result.StepResults[0].TaskResults
	if len(tasks) != 2 {
		t.Fatalf("len(TaskResults) = %d, want 2 (valid task must still run)", len(tasks))
	}
	// Executed tasks come first; error entries are appended after.
	if tasks[0].Agent != "reader" || tasks[0].Result != "real output" {
		t.Errorf("tasks[0] = %+v, want executed reader result first", tasks[0])
	}
	if tasks[1].Agent != "ghost" {
		t.Errorf("tasks[1].Agent = %q, want ghost", tasks[1].Agent)
	}
	if !strings.HasPrefix(tasks[1].Result, "ERROR: Agent 'ghost' not found") {
		t.Errorf("tasks[1].Result = %q, want ERROR: Agent 'ghost' not found prefix", tasks[1].Result)
	}
}

func TestExecute_WorkerErrorIsFatal(t *testing.T) {
	workerErr := errors.New("model unavailable")
	planner := &fakeLLM{responses: []string{
		`{"steps":[{"description":"doomed step","tasks":[
			{"description":"task","agent":"flaky"}]}],"is_complete":false}`,
	}}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newFailingWorker("flaky", workerErr)},
	})

	_, err := o.Execute(context.Background(), "objective", nil)
	if err == nil {
		t.Fatal("expected worker error to propagate")
	}
	if !errors.Is(err, workerErr) {
		t.Errorf("err = %v, want wrapped %v", err, workerErr)
	}
	if !strings.Contains(err.Error(), "doomed step") {
		t.Errorf("err = %v, want step description in message", err)
	}
}

func TestExecute_IterationCap(t *testing.T) {
	neverDone := `{"steps":[{"description":"spin","tasks":[
		{"description":"task","agent":"reader"}]}],"is_complete":false}`
	planner := &fakeLLM{responses: []string{neverDone, neverDone}}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("reader", "output")},
	})

	_, err := o.Execute(context.Background(), "objective", &llm.RequestParams{MaxIterations: 2})
	if err == nil {
		t.Fatal("expected error after exhausting iterations")
	}
	if !strings.Contains(err.Error(), "2 iterations") {
		t.Errorf("err = %v, want mention of 2 iterations", err)
	}
	if planner.callCount() != 2 {
		t.Errorf("planner calls = %d, want exactly 2 plan requests", planner.callCount())
	}
}

func TestExecute_RepairFallback(t *testing.T) {
	planner := &fakeLLM{
		responses: []string{
			"I think we should just read the file and be done.",
			"repaired answer",
		},
		repairJSON: `{"steps":[{"description":"read","tasks":[
			{"description":"task","agent":"reader"}]}],"is_complete":true}`,
	}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("reader", "output")},
	})

	result, err := o.Execute(context.Background(), "objective", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if planner.repairs != 1 {
		t.Errorf("structured repairs = %d, want 1", planner.repairs)
	}
	if len(result.StepResults) != 1 {
		t.Errorf("len(StepResults) = %d, want 1 from repaired plan", len(result.StepResults))
	}
	if result.Result != "repaired answer" {
		t.Errorf("Result = %q, want repaired answer", result.Result)
	}
}

func TestExecute_AgentNamePreservedExactly(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"steps":[{"description":"d","tasks":[
			{"description":"t","agent":"Worker_A"}]}],"is_complete":true}`,
		"answer",
	}}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("Worker_A", "output")},
	})

	result, err := o.Execute(context.Background(), "objective", nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Plan == nil || len(result.Plan.Steps) != 1 {
		t.Fatalf("Plan = %+v, want one step", result.Plan)
	}
	got := result.Plan.Steps[0].Tasks[0].Agent
	if got != "Worker_A" {
		t.Errorf("Agent = %q, want Worker_A byte-for-byte", got)
	}
}

func TestExecute_EmitsEvents(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"steps":[{"description":"step","tasks":[
			{"description":"task","agent":"reader"}]}],"is_complete":true}`,
		"answer",
	}}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("reader", "output")},
	})

	if _, err := o.Execute(context.Background(), "objective", nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	seen := make(map[EventType]bool)
drain:
	for {
		select {
		case ev := <-o.Events():
			seen[ev.Type] = true
		default:
			break drain
		}
	}

	for _, want := range []EventType{
		EventPlanCreated,
		EventStepStarted,
		EventTaskStarted,
		EventTaskCompleted,
		EventStepCompleted,
		EventSynthesisStarted,
		EventRunCompleted,
	} {
		if !seen[want] {
			t.Errorf("missing event %q", want)
		}
	}
}

func TestGenerateString_ReturnsSynthesizedAnswer(t *testing.T) {
	planner := &fakeLLM{responses: []string{
		`{"steps":[{"description":"step","tasks":[
			{"description":"task","agent":"reader"}]}],"is_complete":true}`,
		"the answer",
	}}
	o := New(Config{
		Planner:         planner,
		AvailableAgents: []*agent.Agent{newWorker("reader", "output")},
	})

	got, err := o.GenerateString(context.Background(), "objective", nil)
	if err != nil {
		t.Fatalf("GenerateString failed: %v", err)
	}
	if got != "the answer" {
		t.Errorf("GenerateString = %q, want the answer", got)
	}
}

func TestFormatAgents_CataloguesAllWorkers(t *testing.T) {
	o := New(Config{
		Planner: &fakeLLM{},
		AvailableAgents: []*agent.Agent{
			newWorker("writer", "w"),
			newWorker("reader", "r"),
		},
	})

	catalogue := o.formatAgents()
	readerIdx := strings.Index(catalogue, "Agent Name: reader")
	writerIdx := strings.Index(catalogue, "Agent Name: writer")
	if readerIdx < 0 || writerIdx < 0 {
		t.Fatalf("catalogue missing agents:\n%s", catalogue)
	}
	// Sorted by name for deterministic prompts.
	if readerIdx > writerIdx {
		t.Error("catalogue not sorted by agent name")
	}
}
