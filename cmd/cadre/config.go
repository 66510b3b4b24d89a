package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cadrehq/cadre/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify cadre configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/cadre/config.yaml
Project-specific overrides can be placed in .cadre.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("provider: %s\n", cfg.Provider)
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("openai.api_key: %s\n", config.MaskAPIKey(cfg.OpenAI.APIKey))
	fmt.Printf("openai.base_url: %s\n", cfg.OpenAI.BaseURL)
	fmt.Printf("openai.model: %s\n", cfg.OpenAI.Model)
	fmt.Printf("ollama.model: %s\n", cfg.Ollama.Model)
	fmt.Printf("defaults.plan_mode: %s\n", cfg.Defaults.PlanMode)
	fmt.Printf("defaults.max_iterations: %d\n", cfg.Defaults.MaxIterations)
	fmt.Printf("defaults.max_tokens: %d\n", cfg.Defaults.MaxTokens)
	fmt.Printf("defaults.temperature: %g\n", cfg.Defaults.Temperature)
	fmt.Printf("agents.file: %s\n", cfg.Agents.File)
	fmt.Printf("agents.servers_file: %s\n", cfg.Agents.ServersFile)
	fmt.Printf("history.enabled: %t\n", cfg.History.Enabled)
	fmt.Printf("history.path: %s\n", cfg.History.Path)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "provider":
		return cfg.Provider, nil
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "openai.api_key":
		return config.MaskAPIKey(cfg.OpenAI.APIKey), nil
	case "openai.base_url":
		return cfg.OpenAI.BaseURL, nil
	case "openai.model":
		return cfg.OpenAI.Model, nil
	case "ollama.model":
		return cfg.Ollama.Model, nil
	case "defaults.plan_mode":
		return cfg.Defaults.PlanMode, nil
	case "defaults.max_iterations":
		return strconv.Itoa(cfg.Defaults.MaxIterations), nil
	case "defaults.max_tokens":
		return strconv.Itoa(cfg.Defaults.MaxTokens), nil
	case "defaults.temperature":
		return strconv.FormatFloat(cfg.Defaults.Temperature, 'g', -1, 64), nil
	case "agents.file":
		return cfg.Agents.File, nil
	case "agents.servers_file":
		return cfg.Agents.ServersFile, nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.path":
		return cfg.History.Path, nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "provider":
		switch value {
		case config.ProviderAnthropic, config.ProviderOpenAI, config.ProviderOllama:
			cfg.Provider = value
		default:
			return fmt.Errorf("invalid provider %q (expected anthropic, openai, or ollama)", value)
		}
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "openai.api_key":
		cfg.OpenAI.APIKey = value
	case "openai.base_url":
		cfg.OpenAI.BaseURL = value
	case "openai.model":
		cfg.OpenAI.Model = value
	case "ollama.model":
		cfg.Ollama.Model = value
	case "defaults.plan_mode":
		if value != "full" && value != "iterative" {
			return fmt.Errorf("invalid plan_mode %q (expected full or iterative)", value)
		}
		cfg.Defaults.PlanMode = value
	case "defaults.max_iterations":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_iterations: %w", err)
		}
		cfg.Defaults.MaxIterations = n
	case "defaults.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_tokens: %w", err)
		}
		cfg.Defaults.MaxTokens = n
	case "defaults.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for temperature: %w", err)
		}
		cfg.Defaults.Temperature = f
	case "agents.file":
		cfg.Agents.File = value
	case "agents.servers_file":
		cfg.Agents.ServersFile = value
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for history.enabled: %w", err)
		}
		cfg.History.Enabled = b
	case "history.path":
		cfg.History.Path = value
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
