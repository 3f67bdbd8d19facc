package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrTaskTimeout is captured when a task exceeds the per-invocation timeout
var ErrTaskTimeout = errors.New("task timed out")

// Task is one isolated unit of work in a fan-out phase
type Task struct {
	Key string
	Run func(ctx context.Context) (models.PartialResult, error)
}

// PhaseExecutor runs independent tasks concurrently and joins every outcome.
// A task that fails, panics or stalls past the timeout is captured as a
// failure outcome under its own key; siblings are never cancelled.
type PhaseExecutor struct {
	logger         arbor.ILogger
	timeout        time.Duration
	maxConcurrency int
}

// NewPhaseExecutor creates an executor. A zero timeout disables the
// per-invocation deadline; maxConcurrency <= 0 means unlimited.
func NewPhaseExecutor(logger arbor.ILogger, timeout time.Duration, maxConcurrency int) *PhaseExecutor {
	return &PhaseExecutor{
		logger:         logger,
		timeout:        timeout,
		maxConcurrency: maxConcurrency,
	}
}

// Execute runs every task and returns one outcome per task key.
// It returns only after all tasks have settled.
func (e *PhaseExecutor) Execute(ctx context.Context, phase string, tasks []Task) map[string]models.Outcome {
	outcomes := make([]models.Outcome, len(tasks))

	// Tasks never return errors to the group, so the derived context is only
	// cancelled when the parent is.
	g, gctx := errgroup.WithContext(ctx)
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}

	started := time.Now()
	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = e.runIsolated(gctx, phase, task)
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]models.Outcome, len(tasks))
	failed := 0
	for i, task := range tasks {
		results[task.Key] = outcomes[i]
		if !outcomes[i].OK() {
			failed++
		}
	}

	e.logger.Debug().
		Str("phase", phase).
		Int("tasks", len(tasks)).
		Int("failed", failed).
		Dur("duration", time.Since(started)).
		Msg("Phase fan-out settled")

	return results
}

type taskResult struct {
	value models.PartialResult
	err   error
}

func (e *PhaseExecutor) runIsolated(ctx context.Context, phase string, task Task) models.Outcome {
	if task.Run == nil {
		return models.Failed(fmt.Errorf("task %s has no run function", task.Key))
	}

	taskCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	started := time.Now()
	done := make(chan taskResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				e.logger.Error().
					Str("phase", phase).
					Str("task", task.Key).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(buf[:n])).
					Msg("Recovered from panic in task")
				done <- taskResult{err: fmt.Errorf("task %s panicked: %v", task.Key, r)}
			}
		}()
		value, err := task.Run(taskCtx)
		done <- taskResult{value: value, err: err}
	}()

	var outcome models.Outcome
	select {
	case r := <-done:
		outcome = models.FromResult(r.value, r.err)
	case <-taskCtx.Done():
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			outcome = models.Failed(fmt.Errorf("%w after %s", ErrTaskTimeout, e.timeout))
		} else {
			outcome = models.Failed(taskCtx.Err())
		}
	}

	if outcome.OK() {
		e.logger.Debug().
			Str("phase", phase).
			Str("task", task.Key).
			Dur("duration", time.Since(started)).
			Msg("Task completed")
	} else {
		e.logger.Warn().
			Str("phase", phase).
			Str("task", task.Key).
			Str("error", outcome.Err).
			Dur("duration", time.Since(started)).
			Msg("Task failed, result captured")
	}

	return outcome
}
