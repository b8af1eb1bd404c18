package campaign

import (
	"testing"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPriority(t *testing.T) {
	cases := []struct {
		name       string
		result     domain.ExecutionResult
		diffPixels int
		want       domain.Classification
	}{
		{"hang wins over crash", domain.ExecutionResult{ProcessHanged: true, Signal: 11}, 0, domain.ClassHang},
		{"signal is a crash", domain.ExecutionResult{Signal: 11}, 0, domain.ClassCrash},
		{"nonzero exit is a crash", domain.ExecutionResult{ExitStatus: 1}, 0, domain.ClassCrash},
		{"diff with clean exit is sdc", domain.ExecutionResult{}, 5, domain.ClassSDC},
		{"clean exit no diff is benign", domain.ExecutionResult{}, 0, domain.ClassBenign},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.result, tc.diffPixels))
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, domain.KindMemory, Kind(domain.ExecutionResult{MemoryFlip: true}))
	assert.Equal(t, domain.KindRegister, Kind(domain.ExecutionResult{MemoryFlip: false}))
}
