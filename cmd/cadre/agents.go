package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cadrehq/cadre/internal/config"
)

var agentsFileFlag string

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured worker agents",
	Long: `List the worker agents defined in the agents file.

These are the names a plan can address tasks to. Each agent has an
instruction (its system prompt) and optionally a model override and a
list of attached servers.`,
	RunE: listAgents,
}

func init() {
	agentsCmd.Flags().StringVar(&agentsFileFlag, "agents", "", "Path to the agents definition file")
}

func listAgents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.Agents.File
	if agentsFileFlag != "" {
		path = agentsFileFlag
	}

	defs, err := config.LoadAgentDefs(path)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Printf("No agents defined in %s\n", path)
		return nil
	}

	fmt.Printf("Agents in %s:\n\n", path)
	for _, def := range defs {
		color.New(color.FgCyan, color.Bold).Printf("%s\n", def.Name)
		instruction := def.Instruction
		if len(instruction) > 100 {
			instruction = instruction[:97] + "..."
		}
		fmt.Printf("  %s\n", instruction)
		if def.Model != "" {
			fmt.Printf("  model: %s\n", def.Model)
		}
		if len(def.Servers) > 0 {
			fmt.Printf("  servers: %s\n", strings.Join(def.Servers, ", "))
		}
		fmt.Println()
	}
	return nil
}
