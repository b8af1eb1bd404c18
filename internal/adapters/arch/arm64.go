package arch

import (
	"encoding/binary"
	"fmt"

	"github.com/hardware-forge/fij-go/internal/core/domain"
)

// arm64Regs implements ports.ArchRegs over struct user_pt_regs: 31 general
// registers x0-x30, then sp, pc, pstate, each 8 bytes.
type arm64Regs struct{}

func arm64GPROffsets() map[domain.RegisterID]int {
	offs := make(map[domain.RegisterID]int, 33)
	for i := 0; i <= 30; i++ {
		offs[domain.RegisterID(fmt.Sprintf("x%d", i))] = i * 8
	}
	offs["sp"] = 31 * 8
	offs["pc"] = 32 * 8
	return offs
}

var arm64Offsets = arm64GPROffsets()

func (arm64Regs) Arch() domain.Arch { return domain.ArchARM64 }

func (arm64Regs) Resolve(id domain.RegisterID) (int, bool) {
	_, ok := arm64Offsets[id]
	return 64, ok
}

func (arm64Regs) Names() []domain.RegisterID {
	names := make([]domain.RegisterID, 0, len(arm64Offsets))
	for id := range arm64Offsets {
		names = append(names, id)
	}
	return names
}

func (arm64Regs) Read(frame []byte, id domain.RegisterID) (uint64, error) {
	off, ok := arm64Offsets[id]
	if !ok {
		return 0, fmt.Errorf("arm64: unknown register %q", id)
	}
	if off+8 > len(frame) {
		return 0, fmt.Errorf("arm64: frame too short for %q", id)
	}
	return binary.LittleEndian.Uint64(frame[off : off+8]), nil
}

func (arm64Regs) Write(frame []byte, id domain.RegisterID, value uint64) error {
	off, ok := arm64Offsets[id]
	if !ok {
		return fmt.Errorf("arm64: unknown register %q", id)
	}
	if off+8 > len(frame) {
		return fmt.Errorf("arm64: frame too short for %q", id)
	}
	binary.LittleEndian.PutUint64(frame[off:off+8], value)
	return nil
}
