package orchestrator

import (
	"log"
	"strings"

	"github.com/cadrehq/cadre/pkg/models"
)

// validateAgentNames checks every task in the plan against the worker
// registry. Unknown names are logged in one aggregated message for
// visibility, but nothing is raised and the plan is not mutated: each
// invalid task is contained individually during step execution instead,
// so one mis-named task never invalidates the rest of the plan.
func (o *Orchestrator) validateAgentNames(plan *models.Plan) {
	var invalid []string
	for _, step := range plan.Steps {
		for _, task := range step.Tasks {
			if _, ok := o.agents[task.Agent]; !ok {
				invalid = append(invalid, task.Agent)
			}
		}
	}
	if len(invalid) > 0 {
		log.Printf("[orchestrator] plan references unknown agents: %s (available: %s)",
			strings.Join(invalid, ", "), strings.Join(o.agentNames, ", "))
	}
}
