package async

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecutesAllTasks(t *testing.T) {
	tasks := []Task{
		{Name: "a", Execute: func() (any, error) { return 1, nil }},
		{Name: "b", Execute: func() (any, error) { return "two", nil }},
		{Name: "c", Execute: func() (any, error) { return nil, errors.New("boom") }},
	}

	results := NewPool(2).Execute(context.Background(), tasks)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results["a"].Data)
	assert.NoError(t, results["a"].Err)
	assert.Equal(t, "two", results["b"].Data)
	assert.EqualError(t, results["c"].Err, "boom")
}

func TestPoolReturnsPartialOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	tasks := []Task{
		{Name: "fast", Execute: func() (any, error) { return "done", nil }},
		{Name: "slow", Execute: func() (any, error) {
			<-release
			return "late", nil
		}},
	}

	resultCh := make(chan map[string]Result, 1)
	go func() { resultCh <- NewPool(2).Execute(ctx, tasks) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case results := <-resultCh:
		// The slow task never delivered; only the fast one may be present.
		_, ok := results["slow"]
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Execute did not return after cancellation")
	}

	close(release)
}

func TestPoolWorkersExitAfterCancel(t *testing.T) {
	before := runtime.NumGoroutine()

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		NewPool(1).Execute(ctx, []Task{
			{Name: "blocked", Execute: func() (any, error) {
				<-release
				return nil, nil
			}},
		})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	// Let the worker finish its task; with nobody receiving results anymore
	// it must bail out on the context instead of blocking on the send.
	close(release)

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+1
	}, time.Second, 10*time.Millisecond, "worker goroutine leaked on the result send")
}
