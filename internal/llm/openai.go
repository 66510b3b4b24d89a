package llm

import (
	"context"
	"fmt"
	"os"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig contains configuration for creating an OpenAILLM.
type OpenAIConfig struct {
	// Model is the model name. Defaults to gpt-4o.
	Model string
	// APIKey is the OpenAI API key. If empty, uses OPENAI_API_KEY.
	APIKey string
	// BaseURL overrides the API endpoint, for OpenAI-compatible servers.
	BaseURL string
	// Defaults are the provider-level request params.
	Defaults RequestParams
}

// OpenAILLM implements AugmentedLLM over the OpenAI chat completions API.
type OpenAILLM struct {
	client   *openai.Client
	model    string
	defaults RequestParams

	histMu  sync.Mutex
	history []openai.ChatCompletionMessage
}

// NewOpenAILLM creates a provider backed by the OpenAI API.
func NewOpenAILLM(cfg OpenAIConfig) (*OpenAILLM, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAILLM{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		defaults: cfg.Defaults,
	}, nil
}

// GenerateString implements AugmentedLLM.
func (o *OpenAILLM) GenerateString(ctx context.Context, message string, params *RequestParams) (string, error) {
	return o.generate(ctx, message, params, nil)
}

// GenerateStructured implements AugmentedLLM using the JSON response
// format, then unmarshals the reply into out.
func (o *OpenAILLM) GenerateStructured(ctx context.Context, message string, out any, params *RequestParams) error {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	response, err := o.generate(ctx, structuredPrompt(message, out), params, format)
	if err != nil {
		return err
	}
	return UnmarshalResponse(response, out)
}

func (o *OpenAILLM) generate(ctx context.Context, message string, params *RequestParams, format *openai.ChatCompletionResponseFormat) (string, error) {
	p := o.defaults.Merge(params)
	if params != nil {
		p.UseHistory = params.UseHistory
	}

	model := o.model
	if p.Model != "" {
		model = p.Model
	}

	var messages []openai.ChatCompletionMessage
	if p.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.SystemPrompt,
		})
	}
	if p.UseHistory {
		o.histMu.Lock()
		messages = append(messages, o.history...)
		o.histMu.Unlock()
	}
	userMsg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	}
	messages = append(messages, userMsg)

	req := openai.ChatCompletionRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: format,
	}
	if p.MaxTokens > 0 {
		req.MaxTokens = p.MaxTokens
	}
	if p.Temperature > 0 {
		req.Temperature = float32(p.Temperature)
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	text := resp.Choices[0].Message.Content

	if p.UseHistory {
		o.histMu.Lock()
		o.history = append(o.history, userMsg, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: text,
		})
		o.histMu.Unlock()
	}

	return text, nil
}
