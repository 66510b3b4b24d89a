package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ollama "github.com/ollama/ollama/api"
)

// OllamaConfig contains configuration for creating an OllamaLLM.
type OllamaConfig struct {
	// Model is the local model name (e.g. "llama3.1:8b").
	Model string
	// Defaults are the provider-level request params.
	Defaults RequestParams
}

// OllamaLLM implements AugmentedLLM against a local Ollama server. The
// client is resolved from OLLAMA_HOST or the default local address.
type OllamaLLM struct {
	client   *ollama.Client
	model    string
	defaults RequestParams

	histMu  sync.Mutex
	history []ollama.Message
}

// NewOllamaLLM creates a provider backed by a local Ollama server and
// verifies the model is available.
func NewOllamaLLM(ctx context.Context, cfg OllamaConfig) (*OllamaLLM, error) {
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	listResp, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list local models: %w", err)
	}

	found := false
	available := make([]string, 0, len(listResp.Models))
	for _, m := range listResp.Models {
		available = append(available, m.Name)
		if m.Name == cfg.Model {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("model %s not found locally, available models: %v", cfg.Model, available)
	}

	return &OllamaLLM{
		client:   client,
		model:    cfg.Model,
		defaults: cfg.Defaults,
	}, nil
}

// GenerateString implements AugmentedLLM.
func (o *OllamaLLM) GenerateString(ctx context.Context, message string, params *RequestParams) (string, error) {
	p := o.defaults.Merge(params)
	if params != nil {
		p.UseHistory = params.UseHistory
	}

	model := o.model
	if p.Model != "" {
		model = p.Model
	}

	var messages []ollama.Message
	if p.SystemPrompt != "" {
		messages = append(messages, ollama.Message{Role: "system", Content: p.SystemPrompt})
	}
	if p.UseHistory {
		o.histMu.Lock()
		messages = append(messages, o.history...)
		o.histMu.Unlock()
	}
	messages = append(messages, ollama.Message{Role: "user", Content: message})

	options := map[string]any{}
	if p.Temperature > 0 {
		options["temperature"] = p.Temperature
	}
	if p.MaxTokens > 0 {
		options["num_predict"] = p.MaxTokens
	}

	stream := false
	req := &ollama.ChatRequest{
		Model:    model,
		Messages: messages,
		Options:  options,
		Stream:   &stream,
	}

	var response strings.Builder
	respFunc := func(res ollama.ChatResponse) error {
		response.WriteString(res.Message.Content)
		return nil
	}
	if err := o.client.Chat(ctx, req, respFunc); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	text := response.String()

	if p.UseHistory {
		o.histMu.Lock()
		o.history = append(o.history,
			ollama.Message{Role: "user", Content: message},
			ollama.Message{Role: "assistant", Content: text})
		o.histMu.Unlock()
	}

	return text, nil
}

// GenerateStructured implements AugmentedLLM.
func (o *OllamaLLM) GenerateStructured(ctx context.Context, message string, out any, params *RequestParams) error {
	response, err := o.GenerateString(ctx, structuredPrompt(message, out), params)
	if err != nil {
		return err
	}
	return UnmarshalResponse(response, out)
}
