package main

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/cadrehq/cadre/internal/agent"
	"github.com/cadrehq/cadre/internal/config"
	"github.com/cadrehq/cadre/internal/llm"
)

// buildLLM creates a provider client for the configured backend. The
// model argument overrides the provider's configured default when set.
func buildLLM(ctx context.Context, cfg *config.Config, model string) (llm.AugmentedLLM, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		if model == "" {
			model = cfg.Anthropic.Model
		}
		apiKey, _ := config.GetAnthropicAPIKey(cfg)
		if apiKey == "" && !cfg.Anthropic.UseBedrock {
			return nil, fmt.Errorf("anthropic provider selected but no API key configured (set ANTHROPIC_API_KEY or anthropic.api_key)")
		}
		return llm.NewAnthropicLLM(llm.AnthropicConfig{
			Model:         anthropic.Model(model),
			APIKey:        apiKey,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
		})

	case config.ProviderOpenAI:
		if model == "" {
			model = cfg.OpenAI.Model
		}
		apiKey, _ := config.GetOpenAIAPIKey(cfg)
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider selected but no API key configured (set OPENAI_API_KEY or openai.api_key)")
		}
		return llm.NewOpenAILLM(llm.OpenAIConfig{
			Model:   model,
			APIKey:  apiKey,
			BaseURL: cfg.OpenAI.BaseURL,
		})

	case config.ProviderOllama:
		if model == "" {
			model = cfg.Ollama.Model
		}
		return llm.NewOllamaLLM(ctx, llm.OllamaConfig{Model: model})

	default:
		return nil, fmt.Errorf("unknown provider %q (expected anthropic, openai, or ollama)", cfg.Provider)
	}
}

// buildAgents turns agent definitions into worker agents, each with its
// own provider client so per-agent model overrides and history stay
// isolated.
func buildAgents(ctx context.Context, cfg *config.Config, defs []config.AgentDef) ([]*agent.Agent, error) {
	agents := make([]*agent.Agent, 0, len(defs))
	for _, def := range defs {
		model, err := buildLLM(ctx, cfg, def.Model)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", def.Name, err)
		}
		worker := agent.New(def.Name, def.Instruction, model)
		worker.ServerNames = def.Servers
		agents = append(agents, worker)
	}
	return agents, nil
}

// loadServers loads the server registry if one is configured.
func loadServers(cfg *config.Config) (*agent.ServerRegistry, error) {
	if cfg.Agents.ServersFile == "" {
		return nil, nil
	}
	registry, err := agent.LoadServerRegistry(cfg.Agents.ServersFile)
	if err != nil {
		return nil, fmt.Errorf("load servers file: %w", err)
	}
	return registry, nil
}
