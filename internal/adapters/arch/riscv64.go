package arch

import (
	"encoding/binary"
	"fmt"

	"github.com/hardware-forge/fij-go/internal/core/domain"
)

// riscv64Regs implements ports.ArchRegs over struct user_regs_struct from
// the riscv uapi ptrace.h: pc, ra, sp, gp, tp, t0-t2, s0-s1, a0-a7, s2-s11,
// t3-t6, each 8 bytes, 32 registers total.
type riscv64Regs struct{}

var riscv64Offsets = map[domain.RegisterID]int{
	"pc": 0, "ra": 8, "sp": 16, "gp": 24, "tp": 32,
	"t0": 40, "t1": 48, "t2": 56,
	"s0": 64, "s1": 72,
	"a0": 80, "a1": 88, "a2": 96, "a3": 104, "a4": 112, "a5": 120, "a6": 128, "a7": 136,
	"s2": 144, "s3": 152, "s4": 160, "s5": 168, "s6": 176, "s7": 184, "s8": 192, "s9": 200, "s10": 208, "s11": 216,
	"t3": 224, "t4": 232, "t5": 240, "t6": 248,
}

func (riscv64Regs) Arch() domain.Arch { return domain.ArchRISCV64 }

func (riscv64Regs) Resolve(id domain.RegisterID) (int, bool) {
	_, ok := riscv64Offsets[id]
	return 64, ok
}

func (riscv64Regs) Names() []domain.RegisterID {
	names := make([]domain.RegisterID, 0, len(riscv64Offsets))
	for id := range riscv64Offsets {
		names = append(names, id)
	}
	return names
}

func (riscv64Regs) Read(frame []byte, id domain.RegisterID) (uint64, error) {
	off, ok := riscv64Offsets[id]
	if !ok {
		return 0, fmt.Errorf("riscv64: unknown register %q", id)
	}
	if off+8 > len(frame) {
		return 0, fmt.Errorf("riscv64: frame too short for %q", id)
	}
	return binary.LittleEndian.Uint64(frame[off : off+8]), nil
}

func (riscv64Regs) Write(frame []byte, id domain.RegisterID, value uint64) error {
	off, ok := riscv64Offsets[id]
	if !ok {
		return fmt.Errorf("riscv64: unknown register %q", id)
	}
	if off+8 > len(frame) {
		return fmt.Errorf("riscv64: frame too short for %q", id)
	}
	binary.LittleEndian.PutUint64(frame[off:off+8], value)
	return nil
}
