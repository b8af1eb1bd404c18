package engine

import (
	"context"
	"sync"

	"github.com/hardware-forge/fij-go/internal/core/domain"
)

// Worker runs a pool of Controllers concurrently over a stream of
// ExecutionRequests, the userspace equivalent of the kernel module's
// per-CPU worker threads processing queued fault jobs.
type Worker struct {
	newController func() *Controller
	concurrency   int
}

func NewWorker(newController func() *Controller, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{newController: newController, concurrency: concurrency}
}

// IterationOutcome pairs a request with its result or error.
type IterationOutcome struct {
	Request domain.ExecutionRequest
	Result  domain.ExecutionResult
	Err     error
}

// Run drains requests, fanning out across w.concurrency Controllers, and
// returns outcomes in arrival order on the returned channel (closed when
// every request has been processed or ctx is canceled).
func (w *Worker) Run(ctx context.Context, requests <-chan domain.ExecutionRequest) <-chan IterationOutcome {
	out := make(chan IterationOutcome)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			controller := w.newController()
			for {
				select {
				case <-ctx.Done():
					return
				case req, ok := <-requests:
					if !ok {
						return
					}
					result, err := controller.RunIteration(ctx, req)
					select {
					case out <- IterationOutcome{Request: req, Result: result, Err: err}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
