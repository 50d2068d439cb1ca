// internal/fusion/runner.go
package fusion

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/metrics"
	"merchant-onboarding/internal/models"
)

// ErrSchedulingFailed is logged when concurrent dispatch is unavailable and
// the runner falls back to running tasks one after another.
var ErrSchedulingFailed = errors.New("SCHEDULING_FAILED")

var ErrTaskPanicked = errors.New("TASK_PANICKED")

// Task produces one analyzer result. It should not return nil, but the runner
// tolerates it.
type Task func(ctx context.Context) models.AnalyzerResult

// Runner runs independent tasks concurrently, bounded by a process-wide
// slot pool. When no slots are free it runs them sequentially instead of
// queueing.
type Runner struct {
	slots  *semaphore.Weighted
	size   int64
	logger logger.Logger
}

func NewRunner(maxConcurrent int64, log logger.Logger) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{
		slots:  semaphore.NewWeighted(maxConcurrent),
		size:   maxConcurrent,
		logger: log,
	}
}

// RunAll returns one result per task, in task order. A task that panics
// yields a Failure; it never affects its siblings.
func (r *Runner) RunAll(ctx context.Context, tasks ...Task) []models.AnalyzerResult {
	results := make([]models.AnalyzerResult, len(tasks))
	n := int64(len(tasks))
	if n == 0 {
		return results
	}

	if n > r.size || !r.slots.TryAcquire(n) {
		r.logger.Warn("concurrent dispatch unavailable, running analyzers sequentially", map[string]interface{}{
			"error": fmt.Errorf("%w: %d tasks", ErrSchedulingFailed, n).Error(),
			"tasks": n,
		})
		metrics.SequentialFallbacks.Inc()
		for i, task := range tasks {
			var err error
			results[i], err = runSafely(ctx, task)
			r.logPanic(err)
		}
		return results
	}
	defer r.slots.Release(n)

	var g errgroup.Group
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			var err error
			results[i], err = runSafely(ctx, task)
			return err
		})
	}
	r.logPanic(g.Wait())
	return results
}

func (r *Runner) logPanic(err error) {
	if err == nil {
		return
	}
	r.logger.Error("analyzer task panicked", map[string]interface{}{"error": err.Error()})
}

// runSafely always yields a result. A recovered panic is also returned as
// an error so the caller can report it.
func runSafely(ctx context.Context, task Task) (result models.AnalyzerResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, rec)
			result = &models.AnalyzerFailure{Reason: fmt.Sprintf("analyzer panicked: %v", rec)}
		}
	}()
	if task == nil {
		return &models.AnalyzerFailure{Reason: "no analyzer configured"}, nil
	}
	result = task(ctx)
	if result == nil {
		result = &models.AnalyzerFailure{Reason: "analyzer returned no result"}
	}
	return result, nil
}
