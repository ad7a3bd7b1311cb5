package keyops

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// ErrTaskPanic marks a language whose task panicked.
var ErrTaskPanic = errors.New("task panicked")

// runParallel runs fn for every task on a bounded pool and waits for all
// of them. Results keep the order of tasks. A panic in fn becomes the
// error of that task only.
func runParallel[T, R any](ctx context.Context, tasks []T, maxConcurrent int, fn func(context.Context, T) (R, error)) ([]R, []error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	results := make([]R, len(tasks))
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return results, errs
	}

	pool, err := ants.NewPool(maxConcurrent)
	if err != nil {
		for i := range errs {
			errs[i] = fmt.Errorf("creating worker pool: %w", err)
		}
		return results, errs
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, task := range tasks {
		i, task := i, task
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					errs[i] = fmt.Errorf("%w: %v\n%s", ErrTaskPanic, p, debug.Stack())
				}
			}()
			results[i], errs[i] = fn(ctx, task)
		})
		if submitErr != nil {
			errs[i] = fmt.Errorf("submitting task: %w", submitErr)
			wg.Done()
		}
	}

	wg.Wait()
	return results, errs
}
