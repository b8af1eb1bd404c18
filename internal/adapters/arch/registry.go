package arch

import (
	"fmt"
	"runtime"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/hardware-forge/fij-go/internal/core/ports"
)

// For resolves the ArchRegs table for name, one of "amd64", "arm64",
// "riscv64", or "" for runtime.GOARCH.
func For(name string) (ports.ArchRegs, error) {
	if name == "" {
		name = runtime.GOARCH
	}
	switch domain.Arch(name) {
	case domain.ArchAMD64:
		return amd64Regs{}, nil
	case domain.ArchARM64:
		return arm64Regs{}, nil
	case domain.ArchRISCV64:
		return riscv64Regs{}, nil
	default:
		return nil, fmt.Errorf("arch: unsupported architecture %q", name)
	}
}
