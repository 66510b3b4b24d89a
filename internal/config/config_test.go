package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTempConfig writes a YAML config file into a temp dir and
// returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Provider != ProviderAnthropic {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderAnthropic)
	}
	if cfg.Defaults.PlanMode != "full" {
		t.Errorf("PlanMode = %q, want full", cfg.Defaults.PlanMode)
	}
	if cfg.Defaults.MaxIterations != 30 {
		t.Errorf("MaxIterations = %d, want 30", cfg.Defaults.MaxIterations)
	}
	if cfg.Defaults.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", cfg.Defaults.MaxTokens)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
}

func TestLoadFromPath(t *testing.T) {
	path := writeTempConfig(t, `
provider: openai
openai:
  api_key: test-key
  model: gpt-4o-mini
defaults:
  plan_mode: iterative
  max_iterations: 10
agents:
  file: workers.yaml
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("OpenAI.Model = %q, want gpt-4o-mini", cfg.OpenAI.Model)
	}
	if cfg.Defaults.PlanMode != "iterative" {
		t.Errorf("PlanMode = %q, want iterative", cfg.Defaults.PlanMode)
	}
	if cfg.Defaults.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.Defaults.MaxIterations)
	}
	if cfg.Agents.File != "workers.yaml" {
		t.Errorf("Agents.File = %q, want workers.yaml", cfg.Agents.File)
	}
}

func TestLoadFromPath_DefaultsFillGaps(t *testing.T) {
	path := writeTempConfig(t, `
provider: ollama
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", cfg.Provider)
	}
	if cfg.Defaults.MaxIterations != 30 {
		t.Errorf("MaxIterations = %d, want default 30", cfg.Defaults.MaxIterations)
	}
	if cfg.Ollama.Model != "llama3.1" {
		t.Errorf("Ollama.Model = %q, want default llama3.1", cfg.Ollama.Model)
	}
}

func TestLoadFromPath_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_CADRE_KEY", "expanded-secret")

	path := writeTempConfig(t, `
anthropic:
  api_key: ${TEST_CADRE_KEY}
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "expanded-secret" {
		t.Errorf("APIKey = %q, want expanded-secret", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestGetUserConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := getUserConfigDir()
	expected := "/custom/config/cadre"
	if dir != expected {
		t.Errorf("getUserConfigDir() = %q, want %q", dir, expected)
	}
}

func TestLoadAgentDefs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yaml")
	content := `
agents:
  - name: researcher
    instruction: Find relevant information.
    servers: [fetch, filesystem]
  - name: writer
    instruction: Write the final report.
    model: claude-opus-4-1
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write agents file: %v", err)
	}

	defs, err := LoadAgentDefs(path)
	if err != nil {
		t.Fatalf("LoadAgentDefs failed: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	if defs[0].Name != "researcher" {
		t.Errorf("defs[0].Name = %q, want researcher", defs[0].Name)
	}
	if len(defs[0].Servers) != 2 {
		t.Errorf("len(defs[0].Servers) = %d, want 2", len(defs[0].Servers))
	}
	if defs[1].Model != "claude-opus-4-1" {
		t.Errorf("defs[1].Model = %q, want claude-opus-4-1", defs[1].Model)
	}
}

func TestLoadAgentDefs_MissingName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yaml")
	content := `
agents:
  - instruction: No name here.
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write agents file: %v", err)
	}

	_, err := LoadAgentDefs(path)
	if err == nil {
		t.Error("expected error for agent without a name")
	}
}
