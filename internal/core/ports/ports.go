// Package ports declares the interfaces the core engine depends on, so that
// architecture access, process control, and storage stay swappable adapters
// rather than compiled-in assumptions.
package ports

import (
	"context"

	"github.com/hardware-forge/fij-go/internal/core/domain"
)

// ArchRegs resolves a register id to its offset and bit width in a saved
// register frame, and performs the actual read/write. One implementation
// exists per supported architecture (see internal/adapters/arch).
type ArchRegs interface {
	// Arch identifies which architecture this table describes.
	Arch() domain.Arch

	// Resolve returns the register's bit width (32 or 64), or ok=false if
	// the id is unknown on this architecture.
	Resolve(id domain.RegisterID) (width int, ok bool)

	// Names returns every register id this architecture exposes to random
	// selection (GPRs plus the program counter).
	Names() []domain.RegisterID

	// Read returns the current value of the register from the frame.
	Read(frame []byte, id domain.RegisterID) (uint64, error)

	// Write stores value into the frame at the register's location. Callers
	// XOR the single fault bit in beforehand; Write never does the flip
	// itself so it can also be used to restore an original value.
	Write(frame []byte, id domain.RegisterID, value uint64) error
}

// VMA describes one virtual memory area, per the memory-mutation
// primitive (§4.5). IO/PFNMap regions are excluded by the caller before a
// VMA ever reaches a policy decision.
type VMA struct {
	Start, End uint64
	IO, PFNMap bool
	FileBacked bool
	Path       string
	PgOff      uint64
}

// ProcessControl is the ptrace/proc surface the injection primitives need:
// group stop/continue, descendant enumeration, register and memory access.
type ProcessControl interface {
	Launch(ctx context.Context, path string, argv, env []string, logPath string) (tgid int, err error)

	GroupStop(tgid int) error
	GroupContinue(tgid int) error
	WaitStopped(tid int, timeoutMS int) error

	// Continue resumes a single ptrace-stopped thread (PTRACE_CONT), used
	// after launch's exec-stop and after a probe hit's trap-stop; it is
	// distinct from GroupContinue's SIGCONT, which only resumes a
	// job-control group-stop.
	Continue(tid int, sig int) error

	Descendants(root int) ([]int, error)
	Threads(tgid int) ([]int, error)

	ReadRegs(tid int) ([]byte, error)
	WriteRegs(tid int, frame []byte) error

	VMAs(tgid int) ([]VMA, error)
	ReadByte(tgid int, addr uint64) (byte, error)
	WriteByte(tgid int, addr uint64, value byte) error

	// Wait4 blocks until the thread-group leader changes state and returns
	// the raw wait status word (see golang.org/x/sys/unix.WaitStatus).
	Wait4(tgid int) (status int, err error)

	// Kill sends a fatal signal to the whole thread group.
	Kill(tgid int) error

	// CodeStart returns the virtual address the executable's first mapped
	// segment is loaded at, used to resolve a policy's TargetPC offset.
	CodeStart(tgid int) (uint64, error)
}

// Probe arms and disarms a one-shot breakpoint at a resolved (file, offset)
// location. onHit fires from the stopped thread's wait loop, not from a
// signal handler.
type Probe interface {
	Arm(ctx context.Context, tgid int, file string, offset uint64, onHit func()) error
	Disarm() error
}

// AuditStore records campaign-level bookkeeping — which campaigns ran, over
// what config, with what summary counts. Iteration results themselves stay
// a directory tree of JSON/CSV files, not a database; this store is a
// supplement, not a replacement.
type AuditStore interface {
	RecordCampaignStart(ctx context.Context, label, configDigest string) (campaignID uint, err error)
	RecordCampaignEnd(ctx context.Context, campaignID uint, summary domain.CampaignSummary) error
	Close() error
}

// EventSink receives live per-iteration events for the dashboard (see
// internal/adapters/control's websocket hub).
type EventSink interface {
	Publish(event string, payload any)
}

// Reporter renders a finished campaign summary to a durable artifact
// (CSV, PDF, ...).
type Reporter interface {
	Write(ctx context.Context, dir string, summary domain.CampaignSummary) error
}
