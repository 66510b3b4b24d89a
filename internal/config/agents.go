package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentDef is one worker agent definition loaded from the agents file.
type AgentDef struct {
	// Name is the unique agent name plans address tasks to.
	Name string `yaml:"name"`
	// Instruction is the agent's system prompt.
	Instruction string `yaml:"instruction"`
	// Servers lists the names of servers the agent is attached to.
	Servers []string `yaml:"servers"`
	// Model optionally overrides the provider's default model for
	// this agent.
	Model string `yaml:"model"`
}

// agentsFile is the top-level shape of the agents YAML file.
type agentsFile struct {
	Agents []AgentDef `yaml:"agents"`
}

// LoadAgentDefs loads worker agent definitions from a YAML file.
func LoadAgentDefs(path string) ([]AgentDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}

	var file agentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse agents file %s: %w", path, err)
	}

	for i, def := range file.Agents {
		if def.Name == "" {
			return nil, fmt.Errorf("agents file %s: agent %d has no name", path, i)
		}
	}

	return file.Agents, nil
}
