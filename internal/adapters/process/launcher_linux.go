//go:build linux

// Package process implements the injection primitives' process-control
// surface (ports.ProcessControl) on Linux, using ptrace(2) and /proc the
// way the original kernel module used task_struct and struct pt_regs.
package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// LinuxControl implements ports.ProcessControl.
type LinuxControl struct{}

func New() *LinuxControl { return &LinuxControl{} }

// Launch starts path stopped at its first instruction after exec, via
// PTRACE_TRACEME in the child followed by a wait for the exec-stop in the
// parent.
// The returned tgid is the thread-group leader.
func (c *LinuxControl) Launch(ctx context.Context, path string, argv, env []string, logPath string) (int, error) {
	cmd := exec.CommandContext(ctx, path, argv...)
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true, Setpgid: true}

	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return 0, fmt.Errorf("launch: open log: %w", err)
		}
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("launch: start: %w", err)
	}

	tgid := cmd.Process.Pid
	var status unix.WaitStatus
	if _, err := unix.Wait4(tgid, &status, 0, nil); err != nil {
		return 0, fmt.Errorf("launch: wait for exec-stop: %w", err)
	}
	if !status.Stopped() {
		return 0, fmt.Errorf("launch: target exited before exec-stop (status %v)", status)
	}

	if err := unix.PtraceSetOptions(tgid, unix.PTRACE_O_TRACEEXIT|unix.PTRACE_O_TRACECLONE|unix.PTRACE_O_TRACEFORK); err != nil {
		return 0, fmt.Errorf("launch: set ptrace options: %w", err)
	}

	return tgid, nil
}
