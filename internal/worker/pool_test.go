package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osse101/SmartList_Go/internal/testing/leaktest"
)

type testJob struct {
	executed *int32
	done     *sync.WaitGroup
}

func (j *testJob) Process(ctx context.Context) error {
	defer j.done.Done()
	atomic.AddInt32(j.executed, 1)
	return nil
}

func TestPool(t *testing.T) {
	var (
		executed int32
		done     sync.WaitGroup
	)
	checker := leaktest.NewGoroutineChecker(t)
	pool := NewPool(TestWorkerCount, TestQueueSize)
	pool.Start()

	job := &testJob{executed: &executed, done: &done}
	done.Add(TestExpectedJobCount)
	assert.True(t, pool.Enqueue(job))
	assert.True(t, pool.Enqueue(job))
	done.Wait()

	pool.Stop()
	pool.Stop()
	checker.Check(0)

	assert.Equal(t, int32(TestExpectedJobCount), atomic.LoadInt32(&executed))
	assert.False(t, pool.Enqueue(job), "stopped pool rejects jobs")
}
