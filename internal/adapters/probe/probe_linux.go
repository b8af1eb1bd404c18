//go:build linux

// Package probe implements a one-shot, probe-gated injection
// trigger: arm a software breakpoint at a resolved (file, offset) location,
// wait for the target to hit it, restore the original instruction byte, and
// invoke the caller's callback from the stopped thread's wait loop.
package probe

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hardware-forge/fij-go/internal/core/ports"
	"golang.org/x/sys/unix"
)

// amd64Trap is the INT3 opcode used as the software breakpoint on x86-64.
// Other architectures use their own trap encodings; this adapter only
// targets amd64 today (see DESIGN.md).
const amd64Trap = 0xCC

// LinuxProbe arms a single breakpoint at a time; Arm after a prior Arm
// without an intervening Disarm returns an error.
type LinuxProbe struct {
	control ports.ProcessControl

	armed    atomic.Bool
	tgid     int
	addr     uint64
	original byte
}

func New(control ports.ProcessControl) *LinuxProbe {
	return &LinuxProbe{control: control}
}

// Arm resolves file+offset against the target's code mapping, patches in a
// trap instruction, and waits (via a background goroutine) for the thread
// group to report the trap before invoking onHit.
func (p *LinuxProbe) Arm(ctx context.Context, tgid int, file string, offset uint64, onHit func()) error {
	if !p.armed.CompareAndSwap(false, true) {
		return fmt.Errorf("probe: already armed")
	}

	codeStart, err := p.control.CodeStart(tgid)
	if err != nil {
		p.armed.Store(false)
		return fmt.Errorf("probe: resolve code start: %w", err)
	}
	addr := codeStart + offset

	original, err := p.control.ReadByte(tgid, addr)
	if err != nil {
		p.armed.Store(false)
		return fmt.Errorf("probe: read original byte: %w", err)
	}
	if err := p.control.WriteByte(tgid, addr, amd64Trap); err != nil {
		p.armed.Store(false)
		return fmt.Errorf("probe: patch trap: %w", err)
	}

	p.tgid = tgid
	p.addr = addr
	p.original = original

	go p.waitForHit(ctx, tgid, onHit)
	return nil
}

func (p *LinuxProbe) waitForHit(ctx context.Context, tgid int, onHit func()) {
	for {
		status, err := p.control.Wait4(tgid)
		if err != nil {
			return
		}
		if !unix.WaitStatus(status).Stopped() {
			return
		}
		if unix.WaitStatus(status).StopSignal() != unix.SIGTRAP {
			continue
		}
		if !p.armed.Load() {
			return
		}
		p.restore()
		onHit()
		return
	}
}

func (p *LinuxProbe) restore() {
	p.control.WriteByte(p.tgid, p.addr, p.original)
}

// Disarm removes a still-pending breakpoint without having hit it.
func (p *LinuxProbe) Disarm() error {
	if !p.armed.CompareAndSwap(true, false) {
		return nil
	}
	return p.control.WriteByte(p.tgid, p.addr, p.original)
}

var _ ports.Probe = (*LinuxProbe)(nil)
