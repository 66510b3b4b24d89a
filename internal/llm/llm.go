// Package llm provides the language-model provider abstraction used by
// planners and worker agents. Providers implement AugmentedLLM; the
// orchestrator and agents only ever see that interface.
package llm

import "context"

// AugmentedLLM is the minimal capability surface the framework consumes
// from a provider: raw text generation and structured (typed JSON)
// generation used as a repair path for malformed planner output.
type AugmentedLLM interface {
	// GenerateString sends a message and returns the model's raw text.
	// A nil params uses the provider's defaults.
	GenerateString(ctx context.Context, message string, params *RequestParams) (string, error)
	// GenerateStructured asks the model to re-express message as JSON
	// and unmarshals the response into out, which must be a pointer.
	GenerateStructured(ctx context.Context, message string, out any, params *RequestParams) error
}

// RequestParams carries per-call generation settings. Zero values mean
// "inherit from the defaults being merged onto".
type RequestParams struct {
	// Model overrides the provider's configured model.
	Model string
	// MaxTokens caps the response length.
	MaxTokens int
	// MaxIterations caps internal agent loops for providers that
	// iterate (tool use); the orchestrator forces this to 1 for
	// synthesis calls.
	MaxIterations int
	// Temperature controls sampling randomness.
	Temperature float64
	// SystemPrompt is prepended as the system message when set.
	SystemPrompt string
	// UseHistory enables provider-side chat history. The orchestrator
	// forces this off for its own calls: all continuity is carried
	// explicitly through the plan transcript.
	UseHistory bool
	// ParallelToolCalls allows concurrent tool execution in providers
	// that support it.
	ParallelToolCalls bool
}

// Merge overlays the caller's explicit values onto the receiver's
// defaults and returns the result. The receiver is not modified. Boolean
// fields stay at the receiver's values: false is indistinguishable from
// unset on an override, and the orchestrator re-forces UseHistory off
// after every merge regardless.
func (p RequestParams) Merge(override *RequestParams) RequestParams {
	if override == nil {
		return p
	}
	merged := p
	if override.Model != "" {
		merged.Model = override.Model
	}
	if override.MaxTokens > 0 {
		merged.MaxTokens = override.MaxTokens
	}
	if override.MaxIterations > 0 {
		merged.MaxIterations = override.MaxIterations
	}
	if override.Temperature > 0 {
		merged.Temperature = override.Temperature
	}
	if override.SystemPrompt != "" {
		merged.SystemPrompt = override.SystemPrompt
	}
	return merged
}
