package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cadre",
	Short: "Multi-agent plan and execute orchestrator",
	Long: `Cadre orchestrates a team of LLM worker agents against an objective.

A planner model decomposes the objective into sequential steps. Tasks
within a step run in parallel, each addressed to a named worker agent
with its own instruction. Step results feed back into planning until the
planner declares the objective complete, then a final answer is
synthesized from everything the workers produced.

Core capabilities:
- Full upfront planning or step-at-a-time iterative planning
- Parallel task fan-out to named worker agents
- Anthropic (direct or Bedrock), OpenAI, and local Ollama backends
- Run history stored locally for later inspection`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
