// Package async runs independent named tasks concurrently and collects their
// results. The dashboard handler uses it to assemble the pipeline run, the
// leaderboard query and the recent-events query in parallel.
package async

import (
	"context"
	"sync"
)

// Task is one unit of work identified by name.
type Task struct {
	Name    string
	Execute func() (any, error)
}

// Result carries a task's output keyed by its name.
type Result struct {
	Name string
	Data any
	Err  error
}

// Pool is a fixed-size worker pool. A Pool is single-use: Execute closes its
// channels when the batch completes.
type Pool struct {
	workerCount int
	tasks       chan Task
	results     chan Result
}

func NewPool(workerCount int) *Pool {
	return &Pool{
		workerCount: workerCount,
		tasks:       make(chan Task),
		results:     make(chan Result),
	}
}

func (p *Pool) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			data, err := task.Execute()
			// The collector may have stopped receiving after cancellation, so
			// the send has to honor the context too.
			select {
			case p.results <- Result{Name: task.Name, Data: data, Err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Execute runs the batch and returns results keyed by task name. On context
// cancellation it returns whatever completed so far.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	var wg sync.WaitGroup
	results := make(map[string]Result)

	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, &wg)
	}

	go func() {
		for _, task := range tasks {
			select {
			case p.tasks <- task:
			case <-ctx.Done():
				return
			}
		}
		close(p.tasks)
	}()

	for i := 0; i < len(tasks); i++ {
		select {
		case result := <-p.results:
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}

	wg.Wait()
	close(p.results)

	return results
}
