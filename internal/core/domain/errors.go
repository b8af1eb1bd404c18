package domain

import "errors"

// Error taxonomy for the injection engine, for matching with errors.Is.
// The adapters in this repository return their own fmt.Errorf errors and do
// not wrap these sentinels.
var (
	// ErrNotFound indicates the target process/thread/VMA no longer exists,
	// typically because the target exited mid-injection.
	ErrNotFound = errors.New("fij: not found")

	// ErrInvalidArgument indicates an out-of-range bit index, an unknown
	// register id on this architecture, or a VA outside the executable VMA.
	ErrInvalidArgument = errors.New("fij: invalid argument")

	// ErrBusy indicates the session is not IDLE.
	ErrBusy = errors.New("fij: session busy")

	// ErrRetry indicates a RECEIVE was attempted before the session reached DONE.
	ErrRetry = errors.New("fij: result not ready, try again")

	// ErrOutOfMemory indicates the descendants list could not grow.
	ErrOutOfMemory = errors.New("fij: out of memory")

	// ErrInterrupted indicates a worker was signaled to stop mid-sleep.
	ErrInterrupted = errors.New("fij: interrupted")

	// ErrPermissionDenied indicates a remote memory read/write was refused.
	ErrPermissionDenied = errors.New("fij: permission denied")

	// ErrIOFailure indicates a short remote memory read/write or a failed
	// probe registration.
	ErrIOFailure = errors.New("fij: io failure")
)
