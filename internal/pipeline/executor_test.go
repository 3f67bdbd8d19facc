package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/marketlens/internal/models"
)

func TestPhaseExecutor_IsolatesFailures(t *testing.T) {
	executor := NewPhaseExecutor(testLogger(), time.Second, 0)

	outcomes := executor.Execute(context.Background(), "test", []Task{
		{Key: "ok", Run: func(ctx context.Context) (models.PartialResult, error) {
			return models.PartialResult{"value": 1}, nil
		}},
		{Key: "error", Run: func(ctx context.Context) (models.PartialResult, error) {
			return nil, errors.New("upstream unavailable")
		}},
		{Key: "panic", Run: func(ctx context.Context) (models.PartialResult, error) {
			panic("boom")
		}},
		{Key: "by-value", Run: func(ctx context.Context) (models.PartialResult, error) {
			return models.PartialResult{"success": false, "error": "quota exceeded"}, nil
		}},
	})

	require.Len(t, outcomes, 4)

	assert.True(t, outcomes["ok"].OK())
	assert.Equal(t, 1, outcomes["ok"].Value["value"])

	assert.False(t, outcomes["error"].OK())
	assert.Contains(t, outcomes["error"].Err, "upstream unavailable")

	assert.False(t, outcomes["panic"].OK())
	assert.Contains(t, outcomes["panic"].Err, "panicked")
	assert.Contains(t, outcomes["panic"].Err, "boom")

	assert.False(t, outcomes["by-value"].OK())
	assert.Equal(t, "quota exceeded", outcomes["by-value"].Err)
	assert.Equal(t, models.PartialResult{"success": false, "error": "quota exceeded"}, outcomes["by-value"].AsMap())
}

func TestPhaseExecutor_TimeoutBecomesFailure(t *testing.T) {
	executor := NewPhaseExecutor(testLogger(), 50*time.Millisecond, 0)

	release := make(chan struct{})
	defer close(release)

	started := time.Now()
	outcomes := executor.Execute(context.Background(), "test", []Task{
		{Key: "stalled", Run: func(ctx context.Context) (models.PartialResult, error) {
			// ignores ctx on purpose
			<-release
			return models.PartialResult{}, nil
		}},
		{Key: "fast", Run: func(ctx context.Context) (models.PartialResult, error) {
			return models.PartialResult{"done": true}, nil
		}},
	})

	assert.Less(t, time.Since(started), time.Second)
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes["stalled"].OK())
	assert.Contains(t, outcomes["stalled"].Err, ErrTaskTimeout.Error())
	assert.True(t, outcomes["fast"].OK())
}

func TestPhaseExecutor_RespectsConcurrencyLimit(t *testing.T) {
	executor := NewPhaseExecutor(testLogger(), time.Second, 1)

	var running, peak int32
	task := func(ctx context.Context) (models.PartialResult, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return models.PartialResult{}, nil
	}

	outcomes := executor.Execute(context.Background(), "test", []Task{
		{Key: "a", Run: task},
		{Key: "b", Run: task},
		{Key: "c", Run: task},
	})

	assert.Len(t, outcomes, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestPhaseExecutor_NoTasks(t *testing.T) {
	executor := NewPhaseExecutor(testLogger(), 0, 0)
	outcomes := executor.Execute(context.Background(), "test", nil)
	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)
}

func TestPhaseExecutor_NilRunIsFailure(t *testing.T) {
	executor := NewPhaseExecutor(testLogger(), 0, 0)
	outcomes := executor.Execute(context.Background(), "test", []Task{{Key: "empty"}})
	require.Contains(t, outcomes, "empty")
	assert.False(t, outcomes["empty"].OK())
}
