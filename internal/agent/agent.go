// Package agent defines worker agents: named, LLM-backed components the
// orchestrator addresses by name when executing planned tasks.
package agent

import (
	"context"
	"fmt"

	"github.com/cadrehq/cadre/internal/llm"
)

// Agent is a worker registered with the orchestrator under a unique name.
// The orchestrator only ever invokes its text-generation capability; how
// the agent executes internally is its own business.
type Agent struct {
	// Name is the registry key. Planned tasks reference it by exact
	// string match.
	Name string
	// Instruction describes the agent's role, used when formatting the
	// planner's agent catalogue.
	Instruction string
	// InstructionFunc, when set, takes precedence over Instruction and
	// is evaluated at formatting time.
	InstructionFunc func() string
	// ServerNames lists the tool servers attached to this agent, used
	// only to enrich the planner prompt with server descriptions.
	ServerNames []string

	llm llm.AugmentedLLM
}

// New creates a worker agent backed by the given LLM.
func New(name, instruction string, model llm.AugmentedLLM) *Agent {
	return &Agent{
		Name:        name,
		Instruction: instruction,
		llm:         model,
	}
}

// InstructionText resolves the agent's instruction, preferring the
// callable form.
func (a *Agent) InstructionText() string {
	if a.InstructionFunc != nil {
		return a.InstructionFunc()
	}
	return a.Instruction
}

// Generate runs the agent's LLM on a message and returns the raw text.
func (a *Agent) Generate(ctx context.Context, message string) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("agent %s has no LLM attached", a.Name)
	}
	return a.llm.GenerateString(ctx, message, &llm.RequestParams{
		SystemPrompt: a.InstructionText(),
	})
}

// LLM returns the agent's underlying model.
func (a *Agent) LLM() llm.AugmentedLLM {
	return a.llm
}
