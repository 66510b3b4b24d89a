package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a cadre project",
	Long: `Initialize a directory for use with cadre.

This command creates:
  - an example agents.yaml with starter worker agents
  - a .cadre.yaml project configuration template
  - the .cadre directory used for run control signals

The directory argument is optional and defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing example files")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing cadre in %s...\n\n", absPath)

	if err := os.MkdirAll(filepath.Join(absPath, ".cadre", "signals"), 0755); err != nil {
		return fmt.Errorf("creating .cadre directory: %w", err)
	}
	printStatus("✓", "Created .cadre directory", color.FgGreen)

	if err := writeTemplate(filepath.Join(absPath, "agents.yaml"), agentsTemplate); err != nil {
		return err
	}
	printStatus("✓", "Created agents.yaml", color.FgGreen)

	if err := writeTemplate(filepath.Join(absPath, ".cadre.yaml"), projectConfigTemplate); err != nil {
		return err
	}
	printStatus("✓", "Created .cadre.yaml", color.FgGreen)

	if os.Getenv("ANTHROPIC_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" {
		printStatus("⚠", "No API key set (ANTHROPIC_API_KEY or OPENAI_API_KEY)", color.FgYellow)
	} else {
		printStatus("✓", "API key found in environment", color.FgGreen)
	}

	fmt.Printf("\n%s cadre initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit agents.yaml to define your worker agents")
	fmt.Println("  2. Run an objective:")
	fmt.Println("     cadre run \"your objective here\"")
	return nil
}

// writeTemplate writes a template file, refusing to overwrite unless
// --force is set.
func writeTemplate(path, content string) error {
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Printf("  %s exists, skipping (use --force to overwrite)\n", filepath.Base(path))
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

const agentsTemplate = `# cadre worker agents
#
# Each agent is a named worker the planner can address tasks to.
# The instruction becomes the agent's system prompt.

agents:
  - name: researcher
    instruction: >
      You are a careful researcher. Find and summarize the information
      the task asks for, citing where it came from.

  - name: analyst
    instruction: >
      You analyze information gathered by other agents and draw out the
      key findings relevant to the objective.

  - name: writer
    instruction: >
      You write clear, well-structured prose from the findings provided
      in context.
`

const projectConfigTemplate = `# cadre project configuration
# This file overrides defaults from ~/.config/cadre/config.yaml

# provider: anthropic

# defaults:
#   plan_mode: full
#   max_iterations: 30
#   max_tokens: 8192

# agents:
#   file: agents.yaml

# history:
#   enabled: true
`
