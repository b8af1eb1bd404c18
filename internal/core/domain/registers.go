package domain

// RegisterID identifies an architectural register independent of the host
// architecture. The concrete offset/width mapping lives in the arch-specific
// ArchRegs implementations (internal/adapters/arch); this package only names
// the ids that appear in a policy or a result.
type RegisterID string

// RegNone means "no register selected" — the engine must pick one at random
// among the current architecture's GPRs and program counter.
const RegNone RegisterID = ""

// Arch identifies the target CPU architecture.
type Arch string

const (
	ArchAMD64   Arch = "amd64"
	ArchARM64   Arch = "arm64"
	ArchRISCV64 Arch = "riscv64"
)
