package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestWorkerProcessesAllRequests(t *testing.T) {
	worker := NewWorker(func() *Controller {
		return New(newFakeControl(), fakeRegs{}, nil)
	}, 3)

	requests := make(chan domain.ExecutionRequest)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	outcomes := worker.Run(ctx, requests)

	go func() {
		defer close(requests)
		for i := 1; i <= 5; i++ {
			requests <- domain.ExecutionRequest{
				IterationID: i,
				Policy:      domain.InjectionPolicy{NoInjection: true},
			}
		}
	}()

	count := 0
	for range outcomes {
		count++
	}
	assert.Equal(t, 5, count)
}

func TestNewWorkerClampsConcurrencyToOne(t *testing.T) {
	w := NewWorker(func() *Controller { return New(newFakeControl(), fakeRegs{}, nil) }, 0)
	assert.Equal(t, 1, w.concurrency)
}
