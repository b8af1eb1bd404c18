package arch

import (
	"encoding/binary"
	"fmt"

	"github.com/hardware-forge/fij-go/internal/core/domain"
)

// amd64Regs implements ports.ArchRegs over the byte layout of Linux's
// struct user_regs_struct for x86-64 (see sys/user.h), the layout ptrace
// GETREGS copies into a thread's saved register frame.
type amd64Regs struct{}

var amd64Offsets = map[domain.RegisterID]int{
	"r15": 0, "r14": 8, "r13": 16, "r12": 24, "rbp": 32, "rbx": 40,
	"r11": 48, "r10": 56, "r9": 64, "r8": 72, "rax": 80, "rcx": 88,
	"rdx": 96, "rsi": 104, "rdi": 112, "rip": 128, "rsp": 152,
}

func (amd64Regs) Arch() domain.Arch { return domain.ArchAMD64 }

func (amd64Regs) Resolve(id domain.RegisterID) (int, bool) {
	_, ok := amd64Offsets[id]
	return 64, ok
}

func (amd64Regs) Names() []domain.RegisterID {
	names := make([]domain.RegisterID, 0, len(amd64Offsets))
	for id := range amd64Offsets {
		names = append(names, id)
	}
	return names
}

func (amd64Regs) Read(frame []byte, id domain.RegisterID) (uint64, error) {
	off, ok := amd64Offsets[id]
	if !ok {
		return 0, fmt.Errorf("amd64: unknown register %q", id)
	}
	if off+8 > len(frame) {
		return 0, fmt.Errorf("amd64: frame too short for %q", id)
	}
	return binary.LittleEndian.Uint64(frame[off : off+8]), nil
}

func (amd64Regs) Write(frame []byte, id domain.RegisterID, value uint64) error {
	off, ok := amd64Offsets[id]
	if !ok {
		return fmt.Errorf("amd64: unknown register %q", id)
	}
	if off+8 > len(frame) {
		return fmt.Errorf("amd64: frame too short for %q", id)
	}
	binary.LittleEndian.PutUint64(frame[off:off+8], value)
	return nil
}
