// Package executor provides the concurrent fan-out/fan-in primitive used
// to run a step's tasks in parallel.
package executor

import (
	"context"
	"sync"
)

// TaskFunc is one schedulable unit of work.
type TaskFunc func(ctx context.Context) (string, error)

// Executor gathers a batch of tasks concurrently. Results are returned in
// the same order the tasks were passed in.
type Executor interface {
	// ExecuteAll runs every task, waits for all of them to finish, and
	// returns their results index-aligned with the inputs. If any task
	// fails, the first error (in input order) is returned after the
	// barrier completes.
	ExecuteAll(ctx context.Context, fns ...TaskFunc) ([]string, error)
}

// ParallelExecutor runs each task in its own goroutine with a WaitGroup
// barrier. It holds no state between calls and is safe for concurrent use.
type ParallelExecutor struct{}

// NewParallelExecutor creates a ParallelExecutor.
func NewParallelExecutor() *ParallelExecutor {
	return &ParallelExecutor{}
}

// ExecuteAll implements Executor.
func (e *ParallelExecutor) ExecuteAll(ctx context.Context, fns ...TaskFunc) ([]string, error) {
	results := make([]string, len(fns))
	errs := make([]error, len(fns))

	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func(index int, task TaskFunc) {
			defer wg.Done()
			results[index], errs[index] = task(ctx)
		}(i, fn)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
