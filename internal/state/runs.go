package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cadrehq/cadre/pkg/models"
)

// RunStatus represents the status of an orchestrator run.
type RunStatus string

const (
	RunActive    RunStatus = "active"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run represents one orchestrator run.
type Run struct {
	ID         string     `json:"id"`
	Objective  string     `json:"objective"`
	PlanMode   string     `json:"plan_mode"`
	Status     RunStatus  `json:"status"`
	Result     string     `json:"result"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// StoredStep is one executed step of a stored run.
type StoredStep struct {
	RunID       string             `json:"run_id"`
	StepIndex   int                `json:"step_index"`
	Description string             `json:"description"`
	Rendered    string             `json:"rendered"`
	Tasks       []StoredTaskResult `json:"tasks"`
}

// StoredTaskResult is one worker result of a stored step.
type StoredTaskResult struct {
	TaskIndex   int    `json:"task_index"`
	Description string `json:"description"`
	Agent       string `json:"agent"`
	Result      string `json:"result"`
}

// Run CRUD operations

// CreateRun creates a new run record.
func (db *DB) CreateRun(r *Run) error {
	_, err := db.Exec(`
		INSERT INTO runs (id, objective, plan_mode, status, result, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Objective, r.PlanMode, string(r.Status), r.Result, formatTime(r.StartedAt), nil)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when no run matches.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, objective, plan_mode, status, result, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	var r Run
	var result sql.NullString
	var startedAt string
	var finishedAt sql.NullString
	err := row.Scan(&r.ID, &r.Objective, &r.PlanMode, &r.Status, &result, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if result.Valid {
		r.Result = result.String
	}
	r.StartedAt, _ = parseTime(startedAt)
	r.FinishedAt = parseNullableTime(finishedAt)
	return &r, nil
}

// FinishRun marks a run finished with the given status and result.
func (db *DB) FinishRun(id string, status RunStatus, result string) error {
	_, err := db.Exec(`
		UPDATE runs SET status = ?, result = ?, finished_at = ? WHERE id = ?
	`, string(status), result, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// DeleteRun deletes a run and its steps and task results.
func (db *DB) DeleteRun(id string) error {
	_, err := db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// ListRuns lists all runs, optionally filtered by status, newest first.
func (db *DB) ListRuns(status *RunStatus) ([]Run, error) {
	var rows *sql.Rows
	var err error

	if status != nil {
		rows, err = db.Query(`
			SELECT id, objective, plan_mode, status, result, started_at, finished_at
			FROM runs WHERE status = ? ORDER BY started_at DESC
		`, string(*status))
	} else {
		rows, err = db.Query(`
			SELECT id, objective, plan_mode, status, result, started_at, finished_at
			FROM runs ORDER BY started_at DESC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var result sql.NullString
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.Objective, &r.PlanMode, &r.Status, &result, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if result.Valid {
			r.Result = result.String
		}
		r.StartedAt, _ = parseTime(startedAt)
		r.FinishedAt = parseNullableTime(finishedAt)
		runs = append(runs, r)
	}
	return runs, nil
}

// RecordStep persists one executed step and its task results atomically.
func (db *DB) RecordStep(runID string, index int, sr *models.StepResult) error {
	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO step_results (run_id, step_index, description, rendered)
			VALUES (?, ?, ?, ?)
		`, runID, index, sr.Step.Description, sr.Result)
		if err != nil {
			return fmt.Errorf("record step: %w", err)
		}

		for i, tr := range sr.TaskResults {
			_, err := tx.Exec(`
				INSERT INTO task_results (run_id, step_index, task_index, description, agent, result)
				VALUES (?, ?, ?, ?, ?, ?)
			`, runID, index, i, tr.Description, tr.Agent, tr.Result)
			if err != nil {
				return fmt.Errorf("record task result: %w", err)
			}
		}
		return nil
	})
}

// ListSteps lists a run's executed steps in order, with task results.
func (db *DB) ListSteps(runID string) ([]StoredStep, error) {
	rows, err := db.Query(`
		SELECT run_id, step_index, description, rendered
		FROM step_results WHERE run_id = ? ORDER BY step_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []StoredStep
	for rows.Next() {
		var s StoredStep
		if err := rows.Scan(&s.RunID, &s.StepIndex, &s.Description, &s.Rendered); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, s)
	}

	for i := range steps {
		tasks, err := db.listTaskResults(runID, steps[i].StepIndex)
		if err != nil {
			return nil, err
		}
		steps[i].Tasks = tasks
	}
	return steps, nil
}

// listTaskResults lists one step's task results in order.
func (db *DB) listTaskResults(runID string, stepIndex int) ([]StoredTaskResult, error) {
	rows, err := db.Query(`
		SELECT task_index, description, agent, result
		FROM task_results WHERE run_id = ? AND step_index = ? ORDER BY task_index
	`, runID, stepIndex)
	if err != nil {
		return nil, fmt.Errorf("list task results: %w", err)
	}
	defer rows.Close()

	var tasks []StoredTaskResult
	for rows.Next() {
		var t StoredTaskResult
		if err := rows.Scan(&t.TaskIndex, &t.Description, &t.Agent, &t.Result); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
