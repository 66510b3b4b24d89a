package orchestrator

import (
	"fmt"
	"strings"

	"github.com/cadrehq/cadre/internal/agent"
	"github.com/cadrehq/cadre/pkg/models"
)

// fullPlanPrompt asks the planner for the complete multi-step plan in one
// shot. The plan JSON schema is spelled out because agent names in the
// response are later matched by exact string equality.
const fullPlanPrompt = `You are tasked with orchestrating a plan to complete an objective.
You can analyze results from the previous steps already executed to decide if the objective is complete.

Objective: %s

%s

Plan Status: %s

You have access to the following agents:

%s

Generate a plan with all remaining steps needed to reach the objective.
Steps are sequential, but tasks within a step can run in parallel.
Every task must be assigned to one of the agents listed above, referenced by its exact name.

Return ONLY a JSON object with this exact structure (no other text):
{
  "steps": [
    {
      "description": "Description of the step",
      "tasks": [
        {
          "description": "Description of the task",
          "agent": "agent_name"
        }
      ]
    }
  ],
  "is_complete": false
}

Set "is_complete" to true only if the objective is fully satisfied by the results so far.`

// nextStepPrompt asks the planner for exactly one step, re-planned each
// iteration against the updated transcript.
const nextStepPrompt = `You are tasked with determining only the next step in a plan
required to complete an objective. You must analyze the current state of the plan
and the results of previous steps to decide what to do next.

Objective: %s

%s

Plan Status: %s

You have access to the following agents:

%s

Generate the next step, by which I mean the next group of parallelizable tasks.
Every task must be assigned to one of the agents listed above, referenced by its exact name.

Return ONLY a JSON object with this exact structure (no other text):
{
  "description": "Description of the step",
  "tasks": [
    {
      "description": "Description of the task",
      "agent": "agent_name"
    }
  ],
  "is_complete": false
}

Set "is_complete" to true only if the objective is fully satisfied by the results so far.`

// taskPrompt is the per-task message sent to a worker agent.
const taskPrompt = `You are part of a larger workflow to achieve the objective: %s.
Your job is to accomplish only the following task: %s.

Results so far that may provide helpful context:

%s`

// synthesisPrompt produces the final answer from the full run transcript.
const synthesisPrompt = `Synthesize the results of this plan into a cohesive result:

%s`

// renderFullPlanPrompt fills the full-plan template.
func (o *Orchestrator) renderFullPlanPrompt(objective string, result *models.PlanResult) string {
	return fmt.Sprintf(fullPlanPrompt, objective, result.Render(), result.Status(), o.formatAgents())
}

// renderNextStepPrompt fills the iterative-step template.
func (o *Orchestrator) renderNextStepPrompt(objective string, result *models.PlanResult) string {
	return fmt.Sprintf(nextStepPrompt, objective, result.Render(), result.Status(), o.formatAgents())
}

// renderTaskPrompt fills the per-task worker message.
func renderTaskPrompt(objective, task, context string) string {
	return fmt.Sprintf(taskPrompt, objective, task, context)
}

// renderSynthesisPrompt fills the synthesis template.
func renderSynthesisPrompt(result *models.PlanResult) string {
	return fmt.Sprintf(synthesisPrompt, result.Render())
}

// formatAgents renders the worker catalogue for planner prompts: one
// numbered entry per agent with its instruction and attached server
// descriptions.
func (o *Orchestrator) formatAgents() string {
	var b strings.Builder
	for i, name := range o.agentNames {
		worker := o.agents[name]
		fmt.Fprintf(&b, "%d. %s", i+1, formatAgentInfo(worker, o.servers))
	}
	return b.String()
}

// formatAgentInfo renders one agent's catalogue entry.
func formatAgentInfo(worker *agent.Agent, servers *agent.ServerRegistry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agent Name: %s\n", worker.Name)
	fmt.Fprintf(&b, "Description: %s\n", worker.InstructionText())
	for _, serverName := range worker.ServerNames {
		desc := ""
		if servers != nil {
			if cfg := servers.GetServerConfig(serverName); cfg != nil {
				desc = cfg.Description
			}
		}
		if desc != "" {
			fmt.Fprintf(&b, "- Server: %s (%s)\n", serverName, desc)
		} else {
			fmt.Fprintf(&b, "- Server: %s\n", serverName)
		}
	}
	b.WriteString("\n")
	return b.String()
}
