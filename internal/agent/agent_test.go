package agent

import (
	"context"
	"testing"

	"github.com/cadrehq/cadre/internal/llm"
)

// echoLLM records the last request and returns a canned reply.
type echoLLM struct {
	lastMessage string
	lastParams  *llm.RequestParams
	reply       string
}

func (e *echoLLM) GenerateString(ctx context.Context, message string, params *llm.RequestParams) (string, error) {
	e.lastMessage = message
	e.lastParams = params
	return e.reply, nil
}

func (e *echoLLM) GenerateStructured(ctx context.Context, message string, out any, params *llm.RequestParams) error {
	return nil
}

func TestAgent_Generate_UsesInstructionAsSystemPrompt(t *testing.T) {
	model := &echoLLM{reply: "done"}
	a := New("worker", "You are a careful worker.", model)

	got, err := a.Generate(context.Background(), "do the thing")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "done" {
		t.Errorf("Generate = %q, want done", got)
	}
	if model.lastMessage != "do the thing" {
		t.Errorf("message = %q, want do the thing", model.lastMessage)
	}
	if model.lastParams == nil || model.lastParams.SystemPrompt != "You are a careful worker." {
		t.Errorf("system prompt = %+v, want instruction", model.lastParams)
	}
}

func TestAgent_Generate_NoLLM(t *testing.T) {
	a := New("orphan", "instruction", nil)
	if _, err := a.Generate(context.Background(), "task"); err == nil {
		t.Error("expected error for agent without LLM")
	}
}

func TestAgent_InstructionText_PrefersCallable(t *testing.T) {
	a := New("worker", "static instruction", nil)
	if got := a.InstructionText(); got != "static instruction" {
		t.Errorf("InstructionText = %q, want static instruction", got)
	}

	a.InstructionFunc = func() string { return "dynamic instruction" }
	if got := a.InstructionText(); got != "dynamic instruction" {
		t.Errorf("InstructionText = %q, want dynamic instruction", got)
	}
}

func TestServerRegistry_DuplicateNamesLastWins(t *testing.T) {
	r := NewServerRegistry([]ServerConfig{
		{Name: "fetch", Description: "first"},
		{Name: "fetch", Description: "second"},
	})

	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
	cfg := r.GetServerConfig("fetch")
	if cfg == nil {
		t.Fatal("GetServerConfig returned nil")
	}
	if cfg.Description != "second" {
		t.Errorf("Description = %q, want second (last wins)", cfg.Description)
	}
}

func TestServerRegistry_UnknownName(t *testing.T) {
	r := NewServerRegistry(nil)
	if cfg := r.GetServerConfig("missing"); cfg != nil {
		t.Errorf("GetServerConfig(missing) = %+v, want nil", cfg)
	}
}
