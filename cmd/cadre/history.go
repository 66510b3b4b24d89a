package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cadrehq/cadre/internal/config"
	"github.com/cadrehq/cadre/internal/state"
)

var historyPurgeOlderThan time.Duration

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Inspect past runs",
	Long: `Inspect the run history database.

Without arguments, lists all recorded runs newest first.
With a run ID, shows that run's steps and per-task worker results.`,
	Args: cobra.MaximumNArgs(1),
	RunE: showHistory,
}

func init() {
	historyCmd.Flags().DurationVar(&historyPurgeOlderThan, "purge-older-than", 0, "Delete runs older than this duration (e.g. 168h) and exit")
}

func showHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPath := cfg.History.Path
	if dbPath == "" {
		dbPath = state.DefaultDBPath()
	}
	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate history database: %w", err)
	}

	if historyPurgeOlderThan > 0 {
		deleted, err := db.PurgeOldRuns(historyPurgeOlderThan)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d run(s)\n", deleted)
		return nil
	}

	if len(args) == 1 {
		return showRun(db, args[0])
	}
	return listRuns(db)
}

// listRuns prints all recorded runs.
func listRuns(db *state.DB) error {
	runs, err := db.ListRuns(nil)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, r := range runs {
		objective := r.Objective
		if len(objective) > 60 {
			objective = objective[:57] + "..."
		}
		fmt.Printf("%s  %s  %-9s  %s\n",
			color.CyanString(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			statusColor(r.Status),
			objective)
	}
	return nil
}

// showRun prints one run's full transcript.
func showRun(db *state.DB, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}

	fmt.Printf("Run:       %s\n", color.CyanString(run.ID))
	fmt.Printf("Objective: %s\n", run.Objective)
	fmt.Printf("Mode:      %s\n", run.PlanMode)
	fmt.Printf("Status:    %s\n", statusColor(run.Status))
	fmt.Printf("Started:   %s\n", run.StartedAt.Local().Format(time.RFC1123))
	if run.FinishedAt != nil {
		fmt.Printf("Finished:  %s\n", run.FinishedAt.Local().Format(time.RFC1123))
	}

	steps, err := db.ListSteps(id)
	if err != nil {
		return err
	}
	for _, step := range steps {
		fmt.Printf("\n%s %s\n", color.MagentaString("Step %d:", step.StepIndex+1), step.Description)
		for _, task := range step.Tasks {
			fmt.Printf("  %s (%s)\n", task.Description, color.YellowString(task.Agent))
			fmt.Printf("    %s\n", task.Result)
		}
	}

	if run.Result != "" {
		fmt.Printf("\n%s\n%s\n", color.GreenString("Result:"), run.Result)
	}
	return nil
}

// statusColor renders a run status with color.
func statusColor(s state.RunStatus) string {
	switch s {
	case state.RunCompleted:
		return color.GreenString(string(s))
	case state.RunFailed:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}
