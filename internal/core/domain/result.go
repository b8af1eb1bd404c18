package domain

import "time"

// ExecutionResult is one iteration's output.
type ExecutionResult struct {
	IterationID int `json:"iteration_number"`

	// ExitStatus is the raw wait status word (see golang.org/x/sys/unix.WaitStatus).
	ExitStatus int  `json:"exit_code"`
	Signal     int  `json:"signal"`
	TargetTGID int  `json:"target_tgid"`

	FaultInjected bool `json:"fault_injected"`
	ProcessHanged bool `json:"process_hanged"`

	MemoryFlip bool   `json:"memory_flip"`
	Address    uint64 `json:"target_address"` // valid iff MemoryFlip
	RegName    string `json:"register_name"`  // valid iff !MemoryFlip

	Before uint64 `json:"target_before"`
	After  uint64 `json:"target_after"`

	// RegisterFlips holds one entry per thread actually flipped. Outside
	// AllThreads mode this is a single entry mirroring RegName/Before/After;
	// under AllThreads it has one entry per eligible user thread.
	RegisterFlips []RegisterFlip `json:"register_flips,omitempty"`

	InjectionTimeNS int64 `json:"injection_time_ns"`
}

// RegisterFlip is one thread's register mutation, recorded once per
// eligible user thread when a policy sets AllThreads.
type RegisterFlip struct {
	ThreadID int    `json:"thread_id"`
	RegName  string `json:"register_name"`
	Before   uint64 `json:"target_before"`
	After    uint64 `json:"target_after"`
}

// Record is the on-disk JSON envelope for one iteration, the
// abridged schema.
type Record struct {
	Iteration  int             `json:"iteration"`
	Timestamp  time.Time       `json:"timestamp"`
	DurationMS float64         `json:"duration_ms"`
	Result     ExecutionResult `json:"result"`
}
