package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteAll_PreservesInputOrder(t *testing.T) {
	exec := NewParallelExecutor()

	var fns []TaskFunc
	for i := 0; i < 10; i++ {
		i := i
		fns = append(fns, func(ctx context.Context) (string, error) {
			// Later tasks finish first to prove ordering is by
			// input index, not completion time.
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return fmt.Sprintf("result-%d", i), nil
		})
	}

	results, err := exec.ExecuteAll(context.Background(), fns...)
	if err != nil {
		t.Fatalf("ExecuteAll failed: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("len(results) = %d, want 10", len(results))
	}
	for i, r := range results {
		want := fmt.Sprintf("result-%d", i)
		if r != want {
			t.Errorf("results[%d] = %q, want %q", i, r, want)
		}
	}
}

func TestExecuteAll_RunsConcurrently(t *testing.T) {
	exec := NewParallelExecutor()

	var running int32
	var peak int32
	fn := func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return "ok", nil
	}

	_, err := exec.ExecuteAll(context.Background(), fn, fn, fn, fn)
	if err != nil {
		t.Fatalf("ExecuteAll failed: %v", err)
	}
	if atomic.LoadInt32(&peak) < 2 {
		t.Errorf("peak concurrency = %d, want >= 2", peak)
	}
}

func TestExecuteAll_FirstErrorInInputOrder(t *testing.T) {
	exec := NewParallelExecutor()

	errA := errors.New("error A")
	errB := errors.New("error B")

	_, err := exec.ExecuteAll(context.Background(),
		func(ctx context.Context) (string, error) {
			// Finishes last but is first in input order.
			time.Sleep(20 * time.Millisecond)
			return "", errA
		},
		func(ctx context.Context) (string, error) {
			return "", errB
		},
	)
	if !errors.Is(err, errA) {
		t.Errorf("err = %v, want first input-order error %v", err, errA)
	}
}

func TestExecuteAll_WaitsForAllBeforeError(t *testing.T) {
	exec := NewParallelExecutor()

	var finished int32
	_, err := exec.ExecuteAll(context.Background(),
		func(ctx context.Context) (string, error) {
			return "", errors.New("fast failure")
		},
		func(ctx context.Context) (string, error) {
			time.Sleep(30 * time.Millisecond)
			atomic.StoreInt32(&finished, 1)
			return "slow ok", nil
		},
	)
	if err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&finished) != 1 {
		t.Error("ExecuteAll returned before the slow task finished")
	}
}

func TestExecuteAll_Empty(t *testing.T) {
	exec := NewParallelExecutor()

	results, err := exec.ExecuteAll(context.Background())
	if err != nil {
		t.Fatalf("ExecuteAll failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}
