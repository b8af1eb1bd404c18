// Package campaign implements the Campaign Runner: a baseline phase that
// measures unperturbed timing, followed by an injection phase that retries
// until a fault actually lands, classifying each iteration and writing the
// result artifacts. Grounded on the original runner's fij_run.cpp
// (baseline+injection phases, slugging, retry loop, stats) reimplemented
// as a goroutine pool over internal/adapters/engine.
package campaign

import "github.com/hardware-forge/fij-go/internal/core/domain"

// Classify assigns one of CRASH/HANG/SDC/BENIGN to a completed iteration:
// hang takes priority over exit status, then an abnormal exit signal or
// non-zero status is a crash, then a detected output
// divergence is silent data corruption, and anything else is benign.
func Classify(result domain.ExecutionResult, diffPixels int) domain.Classification {
	switch {
	case result.ProcessHanged:
		return domain.ClassHang
	case result.Signal != 0 || result.ExitStatus != 0:
		return domain.ClassCrash
	case diffPixels > 0:
		return domain.ClassSDC
	default:
		return domain.ClassBenign
	}
}

// Kind reports whether result targeted a register or memory, for the
// classification table's two-column breakdown.
func Kind(result domain.ExecutionResult) domain.Kind {
	if result.MemoryFlip {
		return domain.KindMemory
	}
	return domain.KindRegister
}
