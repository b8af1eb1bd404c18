//go:build linux

package process

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/hardware-forge/fij-go/internal/core/ports"
	"golang.org/x/sys/unix"
)

// GroupStop sends SIGSTOP to the whole thread group, the userspace
// equivalent of the kernel module's signal_group_stop, and waits for every
// thread to report stopped.
func (c *LinuxControl) GroupStop(tgid int) error {
	if err := unix.Kill(-tgid, unix.SIGSTOP); err != nil {
		return fmt.Errorf("group stop %d: %w", tgid, err)
	}
	threads, err := c.Threads(tgid)
	if err != nil {
		return err
	}
	for _, tid := range threads {
		if err := c.WaitStopped(tid, 2000); err != nil {
			return fmt.Errorf("group stop %d: thread %d: %w", tgid, tid, err)
		}
	}
	return nil
}

// GroupContinue resumes every thread of tgid with SIGCONT.
func (c *LinuxControl) GroupContinue(tgid int) error {
	if err := unix.Kill(-tgid, unix.SIGCONT); err != nil {
		return fmt.Errorf("group continue %d: %w", tgid, err)
	}
	return nil
}

// Continue resumes a single ptrace-stopped thread with PTRACE_CONT,
// delivering sig (0 for none).
func (c *LinuxControl) Continue(tid, sig int) error {
	if err := unix.PtraceCont(tid, sig); err != nil {
		return fmt.Errorf("ptrace cont %d: %w", tid, err)
	}
	return nil
}

// WaitStopped polls /proc/<tid>/stat for a 'T' (stopped) state up to
// timeoutMS, since a traced thread's state transition isn't always visible
// through wait4 from a non-parent goroutine.
func (c *LinuxControl) WaitStopped(tid, timeoutMS int) error {
	deadline := time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	for {
		state, err := threadState(tid)
		if err != nil {
			return err
		}
		if state == 'T' || state == 't' {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("wait stopped %d: timed out", tid)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func threadState(tid int) (byte, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", tid))
	if err != nil {
		return 0, err
	}
	// Fields after the "(comm)" close-paren, skipping the possibly
	// space-containing command name.
	idx := strings.LastIndexByte(string(data), ')')
	if idx < 0 || idx+2 >= len(data) {
		return 0, fmt.Errorf("malformed /proc/%d/stat", tid)
	}
	return data[idx+2], nil
}

// Threads lists every task id under tgid's thread group.
func (c *LinuxControl) Threads(tgid int) ([]int, error) {
	entries, err := os.ReadDir(fmt.Sprintf("/proc/%d/task", tgid))
	if err != nil {
		return nil, err
	}
	tids := make([]int, 0, len(entries))
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		tids = append(tids, tid)
	}
	return tids, nil
}

// Descendants walks /proc to find every process whose ancestry traces back
// to root, the userspace stand-in for the kernel module's
// for_each_process/descendant walk.
func (c *LinuxControl) Descendants(root int) ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	ppid := make(map[int]int)
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		p, err := parentOf(pid)
		if err != nil {
			continue
		}
		ppid[pid] = p
	}

	isDescendant := func(pid int) bool {
		seen := make(map[int]bool)
		for p := pid; p != 0 && !seen[p]; p = ppid[p] {
			if p == root {
				return true
			}
			seen[p] = true
		}
		return false
	}

	out := []int{root}
	for pid := range ppid {
		if pid != root && isDescendant(pid) {
			out = append(out, pid)
		}
	}
	return out, nil
}

func parentOf(pid int) (int, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, err
	}
	idx := strings.LastIndexByte(string(data), ')')
	if idx < 0 {
		return 0, fmt.Errorf("malformed /proc/%d/stat", pid)
	}
	fields := strings.Fields(string(data[idx+1:]))
	// fields[0] = state, fields[1] = ppid
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed /proc/%d/stat fields", pid)
	}
	return strconv.Atoi(fields[1])
}

// ReadRegs returns the thread's register frame as raw bytes, laid out the
// way the kernel's struct user_regs_struct is for the host architecture.
func (c *LinuxControl) ReadRegs(tid int) ([]byte, error) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(tid, &regs); err != nil {
		return nil, fmt.Errorf("ptrace getregs %d: %w", tid, err)
	}
	buf := (*[unsafe.Sizeof(regs)]byte)(unsafe.Pointer(&regs))[:]
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// WriteRegs installs a register frame previously returned by ReadRegs
// (possibly with one bit flipped) back into the thread.
func (c *LinuxControl) WriteRegs(tid int, frame []byte) error {
	var regs unix.PtraceRegs
	buf := (*[unsafe.Sizeof(regs)]byte)(unsafe.Pointer(&regs))[:]
	if len(frame) != len(buf) {
		return fmt.Errorf("ptrace setregs %d: frame size mismatch (%d != %d)", tid, len(frame), len(buf))
	}
	copy(buf, frame)
	if err := unix.PtraceSetRegs(tid, &regs); err != nil {
		return fmt.Errorf("ptrace setregs %d: %w", tid, err)
	}
	return nil
}

// VMAs parses /proc/<tgid>/maps into the VMA list the memory-mutation
// primitive walks to pick an eligible page. VM_IO/VM_PFNMAP-equivalent
// regions aren't distinguishable from /proc/maps alone and are left false;
// special ("[...]") mappings are reported as not file-backed.
func (c *LinuxControl) VMAs(tgid int) ([]ports.VMA, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", tgid))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []ports.VMA
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, err := strconv.ParseUint(bounds[0], 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(bounds[1], 16, 64)
		if err != nil {
			continue
		}
		pgoff, _ := strconv.ParseUint(fields[2], 16, 64)
		path := ""
		if len(fields) >= 6 {
			path = strings.Join(fields[5:], " ")
		}
		out = append(out, ports.VMA{
			Start:      start,
			End:        end,
			FileBacked: path != "" && !strings.HasPrefix(path, "["),
			Path:       path,
			PgOff:      pgoff,
		})
	}
	return out, scanner.Err()
}

// ReadByte/WriteByte use PEEKTEXT/POKETEXT, which operate on a whole
// machine word; we mask to the single byte of interest.
func (c *LinuxControl) ReadByte(tgid int, addr uint64) (byte, error) {
	var word [8]byte
	n, err := unix.PtracePeekData(tgid, uintptr(addr&^7), word[:])
	if err != nil {
		return 0, fmt.Errorf("ptrace peekdata %d@%#x: %w", tgid, addr, err)
	}
	if n != len(word) {
		return 0, fmt.Errorf("ptrace peekdata %d@%#x: short read", tgid, addr)
	}
	return word[addr&7], nil
}

func (c *LinuxControl) WriteByte(tgid int, addr uint64, value byte) error {
	aligned := addr &^ 7
	var word [8]byte
	if _, err := unix.PtracePeekData(tgid, uintptr(aligned), word[:]); err != nil {
		return fmt.Errorf("ptrace peekdata %d@%#x: %w", tgid, aligned, err)
	}
	word[addr&7] = value
	if _, err := unix.PtracePokeData(tgid, uintptr(aligned), word[:]); err != nil {
		return fmt.Errorf("ptrace pokedata %d@%#x: %w", tgid, aligned, err)
	}
	return nil
}

// Wait4 blocks for the thread-group leader's next state change.
func (c *LinuxControl) Wait4(tgid int) (int, error) {
	var status unix.WaitStatus
	if _, err := unix.Wait4(tgid, &status, 0, nil); err != nil {
		return 0, err
	}
	return int(status), nil
}

// Kill sends SIGKILL to the whole thread group.
func (c *LinuxControl) Kill(tgid int) error {
	return unix.Kill(-tgid, unix.SIGKILL)
}

// CodeStart returns the load address of the first file-backed, executable
// mapping whose path matches the target's own binary.
func (c *LinuxControl) CodeStart(tgid int) (uint64, error) {
	exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", tgid))
	if err != nil {
		return 0, err
	}
	vmas, err := c.VMAs(tgid)
	if err != nil {
		return 0, err
	}
	for _, v := range vmas {
		if v.FileBacked && filepath.Clean(v.Path) == filepath.Clean(exe) {
			return v.Start, nil
		}
	}
	return 0, fmt.Errorf("code start: no mapping of %s found for tgid %d", exe, tgid)
}

var _ ports.ProcessControl = (*LinuxControl)(nil)
