package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cadrehq/cadre/internal/config"
	"github.com/cadrehq/cadre/internal/control"
	"github.com/cadrehq/cadre/internal/llm"
	"github.com/cadrehq/cadre/internal/orchestrator"
	"github.com/cadrehq/cadre/internal/state"
	"github.com/cadrehq/cadre/internal/tui"
	"github.com/cadrehq/cadre/pkg/models"
)

var (
	runMode          string
	runHeadless      bool
	runMaxIterations int
	runModel         string
	runAgentsFile    string
	runNoHistory     bool
	runTemperature   float64
)

var runCmd = &cobra.Command{
	Use:   "run <objective>",
	Short: "Run an objective with a team of worker agents",
	Long: `Run an objective through the plan/execute/synthesize loop.

A planner model decomposes the objective into steps. Tasks within each
step are dispatched in parallel to the worker agents defined in the
agents file, and step results feed back into planning until the planner
declares the objective complete.

Planning modes (--mode):
  - full:      Plan all remaining steps each iteration (default)
  - iterative: Plan only the next step each iteration

Workers come from the agents file (agents.yaml by default):

  agents:
    - name: researcher
      instruction: Find and summarize relevant information.
    - name: writer
      instruction: Write the final report.

To stop a run from another terminal, write a file at .cadre/signals/stop.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runObjective,
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "", "Planning mode: full or iterative")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without TUI (plain console output)")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Maximum planning iterations before giving up")
	runCmd.Flags().StringVar(&runModel, "model", "", "Planner model override")
	runCmd.Flags().StringVar(&runAgentsFile, "agents", "", "Path to the agents definition file")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Skip recording this run in the history database")
	runCmd.Flags().Float64Var(&runTemperature, "temperature", 0, "Sampling temperature for all model calls")
}

func runObjective(cmd *cobra.Command, args []string) error {
	objective := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	planMode := models.PlanMode(cfg.Defaults.PlanMode)
	if runMode != "" {
		planMode = models.PlanMode(runMode)
	}
	if !planMode.Valid() {
		return fmt.Errorf("invalid plan mode %q (expected full or iterative)", planMode)
	}

	agentsFile := cfg.Agents.File
	if runAgentsFile != "" {
		agentsFile = runAgentsFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch, stateDB, err := buildOrchestrator(ctx, cfg, planMode, agentsFile)
	if err != nil {
		return err
	}
	if stateDB != nil {
		defer stateDB.Close()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	signals, runCtx, err := control.NewSignalManager(ctx, cwd)
	if err != nil {
		return fmt.Errorf("set up signal manager: %w", err)
	}
	defer signals.Close()
	signals.ClearSignals()

	params := &llm.RequestParams{
		MaxIterations: runMaxIterations,
		Temperature:   runTemperature,
	}
	if runModel != "" {
		params.Model = runModel
	}

	if runHeadless {
		return runHeadlessMode(runCtx, orch, objective, params)
	}
	return runTUIMode(runCtx, orch, objective, params)
}

// buildOrchestrator assembles the planner, workers, servers, and state
// database into an Orchestrator.
func buildOrchestrator(ctx context.Context, cfg *config.Config, planMode models.PlanMode, agentsFile string) (*orchestrator.Orchestrator, *state.DB, error) {
	planner, err := buildLLM(ctx, cfg, runModel)
	if err != nil {
		return nil, nil, err
	}

	defs, err := config.LoadAgentDefs(agentsFile)
	if err != nil {
		return nil, nil, err
	}
	if len(defs) == 0 {
		return nil, nil, fmt.Errorf("agents file %s defines no agents", agentsFile)
	}

	workers, err := buildAgents(ctx, cfg, defs)
	if err != nil {
		return nil, nil, err
	}

	servers, err := loadServers(cfg)
	if err != nil {
		return nil, nil, err
	}

	var stateDB *state.DB
	if cfg.History.Enabled && !runNoHistory {
		dbPath := cfg.History.Path
		if dbPath == "" {
			dbPath = state.DefaultDBPath()
		}
		stateDB, err = state.Open(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open history database: %w", err)
		}
		if err := stateDB.Migrate(); err != nil {
			stateDB.Close()
			return nil, nil, fmt.Errorf("migrate history database: %w", err)
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Name:            "cadre",
		Planner:         planner,
		AvailableAgents: workers,
		PlanMode:        planMode,
		Servers:         servers,
		StateDB:         stateDB,
		Defaults: llm.RequestParams{
			MaxIterations: cfg.Defaults.MaxIterations,
			MaxTokens:     cfg.Defaults.MaxTokens,
			Temperature:   cfg.Defaults.Temperature,
		},
	})

	return orch, stateDB, nil
}

// runHeadlessMode executes the run with plain console output.
func runHeadlessMode(ctx context.Context, orch *orchestrator.Orchestrator, objective string, params *llm.RequestParams) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range orch.Events() {
			printEvent(ev)
		}
	}()

	result, err := orch.Execute(ctx, objective, params)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", color.GreenString("Objective complete."))
	fmt.Println(result.Result)
	return nil
}

// printEvent renders one orchestrator event to the console.
func printEvent(ev orchestrator.Event) {
	switch ev.Type {
	case orchestrator.EventPlanCreated:
		color.Cyan("[plan] iteration %d: %s", ev.Iteration, ev.Message)
	case orchestrator.EventStepStarted:
		color.Magenta("[step] %s", ev.StepDescription)
	case orchestrator.EventTaskStarted:
		fmt.Printf("  %s %s: %s\n", color.YellowString("->"), ev.AgentName, ev.TaskDescription)
	case orchestrator.EventTaskCompleted:
		fmt.Printf("  %s %s: %s\n", color.GreenString("ok"), ev.AgentName, ev.TaskDescription)
	case orchestrator.EventTaskFailed:
		fmt.Printf("  %s %s\n", color.RedString("!!"), ev.Message)
	case orchestrator.EventSynthesisStarted:
		color.Cyan("[final] composing answer")
	}
}

// runTUIMode executes the run behind the bubbletea interface, feeding
// orchestrator events into the program from outside.
func runTUIMode(ctx context.Context, orch *orchestrator.Orchestrator, objective string, params *llm.RequestParams) error {
	program, _ := tui.NewRunProgram(objective)

	go func() {
		for ev := range orch.Events() {
			program.Send(tui.EventMsg{Event: ev})
		}
	}()

	var runErr error
	go func() {
		result, err := orch.Execute(ctx, objective, params)
		runErr = err
		msg := tui.RunDoneMsg{Err: err}
		if result != nil {
			msg.Result = result.Result
		}
		program.Send(msg)
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return runErr
}
