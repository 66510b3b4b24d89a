package llm

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// AnthropicConfig contains configuration for creating an AnthropicLLM.
type AnthropicConfig struct {
	// Model is the Claude model to use. Defaults to Sonnet.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the
	// direct API.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS shared-config profile.
	AWSProfile string
	// Defaults are the provider-level request params.
	Defaults RequestParams
}

// AnthropicLLM implements AugmentedLLM over the Anthropic Messages API,
// with optional AWS Bedrock transport.
type AnthropicLLM struct {
	inner    anthropic.Client
	model    anthropic.Model
	defaults RequestParams

	// history holds prior turns, used only when a call asks for it.
	histMu  sync.Mutex
	history []anthropic.MessageParam
}

// NewAnthropicLLM creates a provider backed by the Anthropic SDK.
func NewAnthropicLLM(cfg AnthropicConfig) (*AnthropicLLM, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return &AnthropicLLM{
		inner:    anthropic.NewClient(opts...),
		model:    model,
		defaults: cfg.Defaults,
	}, nil
}

// translateModelForBedrock converts standard Anthropic model names to
// Bedrock cross-region inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

// GenerateString implements AugmentedLLM.
func (a *AnthropicLLM) GenerateString(ctx context.Context, message string, params *RequestParams) (string, error) {
	p := a.defaults.Merge(params)
	if params != nil {
		p.UseHistory = params.UseHistory
	}

	model := a.model
	if p.Model != "" {
		model = anthropic.Model(p.Model)
	}
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	var messages []anthropic.MessageParam
	if p.UseHistory {
		a.histMu.Lock()
		messages = append(messages, a.history...)
		a.histMu.Unlock()
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	req := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if p.SystemPrompt != "" {
		req.System = []anthropic.TextBlockParam{{Text: p.SystemPrompt}}
	}

	resp, err := a.inner.Messages.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}

	if p.UseHistory {
		a.histMu.Lock()
		a.history = append(a.history,
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		a.histMu.Unlock()
	}

	return text, nil
}

// GenerateStructured implements AugmentedLLM. It constrains the model to
// JSON output and unmarshals the result into out.
func (a *AnthropicLLM) GenerateStructured(ctx context.Context, message string, out any, params *RequestParams) error {
	response, err := a.GenerateString(ctx, structuredPrompt(message, out), params)
	if err != nil {
		return err
	}
	return UnmarshalResponse(response, out)
}
