package engine

import (
	"context"
	"testing"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIterationNoInjectionReachesDone(t *testing.T) {
	control := newFakeControl()
	c := New(control, fakeRegs{}, nil)

	var events []string
	c.SetLogger(func(event, level string) { events = append(events, event) })

	result, err := c.RunIteration(context.Background(), domain.ExecutionRequest{
		IterationID: 1,
		Path:        "/bin/true",
		Policy:      domain.InjectionPolicy{NoInjection: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TargetTGID)
	assert.False(t, result.FaultInjected)
	assert.Equal(t, domain.StateDone, c.State())
	assert.NotEmpty(t, events)
}

func TestKillWithoutLaunchedTargetErrors(t *testing.T) {
	c := New(newFakeControl(), fakeRegs{}, nil)
	assert.Error(t, c.Kill())
}

func TestKillAfterLaunchUsesStoredTGID(t *testing.T) {
	control := newFakeControl()
	c := New(control, fakeRegs{}, nil)

	_, err := c.RunIteration(context.Background(), domain.ExecutionRequest{
		IterationID: 1,
		Path:        "/bin/true",
		Policy:      domain.InjectionPolicy{NoInjection: true},
	})
	require.NoError(t, err)
	assert.NoError(t, c.Kill())
}

func TestSetHangTimeoutIgnoresNonPositive(t *testing.T) {
	c := New(newFakeControl(), fakeRegs{}, nil)
	c.SetHangTimeout(0)
	c.SetHangTimeout(-5)
	assert.Equal(t, int64(hangTimeoutMS), c.hangTimeout.Load())
}

func TestSetHangTimeoutOverridesDefault(t *testing.T) {
	c := New(newFakeControl(), fakeRegs{}, nil)
	c.SetHangTimeout(250)
	assert.Equal(t, int64(250), c.hangTimeout.Load())
}

func TestRunIterationAllThreadsFlipsEveryThread(t *testing.T) {
	control := newFakeControl()
	control.threads = []int{1, 2, 3}
	c := New(control, fakeRegs{}, nil)
	c.SetHangTimeout(50)

	result, err := c.RunIteration(context.Background(), domain.ExecutionRequest{
		IterationID: 1,
		Path:        "/bin/true",
		Policy: domain.InjectionPolicy{
			AllThreads:    true,
			TargetReg:     "r0",
			RegBitPresent: true,
			RegBit:        0,
			MaxDelayMS:    1,
		},
	})
	require.NoError(t, err)
	assert.True(t, result.FaultInjected)
	assert.Len(t, result.RegisterFlips, 3)
	seen := map[int]bool{}
	for _, flip := range result.RegisterFlips {
		seen[flip.ThreadID] = true
		assert.Equal(t, "r0", flip.RegName)
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, seen)
}
