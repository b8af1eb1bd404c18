package arch

import (
	"testing"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForResolvesKnownArchitectures(t *testing.T) {
	cases := map[string]domain.Arch{
		"amd64":   domain.ArchAMD64,
		"arm64":   domain.ArchARM64,
		"riscv64": domain.ArchRISCV64,
	}
	for name, want := range cases {
		regs, err := For(name)
		require.NoError(t, err)
		assert.Equal(t, want, regs.Arch())
	}
}

func TestForRejectsUnknownArchitecture(t *testing.T) {
	_, err := For("mips")
	assert.Error(t, err)
}

func TestForEmptyNameFallsBackToHostArch(t *testing.T) {
	regs, err := For("")
	require.NoError(t, err)
	assert.NotEmpty(t, regs.Arch())
}

func registerRoundTrip(t *testing.T, regs domain.Arch, table interface {
	Resolve(domain.RegisterID) (int, bool)
	Names() []domain.RegisterID
	Read([]byte, domain.RegisterID) (uint64, error)
	Write([]byte, domain.RegisterID, uint64) error
}) {
	t.Helper()
	frame := make([]byte, 512)
	for _, name := range table.Names() {
		width, ok := table.Resolve(name)
		require.True(t, ok, "register %q should resolve on %s", name, regs)
		assert.Equal(t, 64, width)

		require.NoError(t, table.Write(frame, name, 0xdeadbeefcafef00d))
		got, err := table.Read(frame, name)
		require.NoError(t, err)
		assert.Equal(t, uint64(0xdeadbeefcafef00d), got)
	}
}

func TestAMD64RegisterRoundTrip(t *testing.T) {
	registerRoundTrip(t, domain.ArchAMD64, amd64Regs{})
}

func TestARM64RegisterRoundTrip(t *testing.T) {
	registerRoundTrip(t, domain.ArchARM64, arm64Regs{})
}

func TestRISCV64RegisterRoundTrip(t *testing.T) {
	registerRoundTrip(t, domain.ArchRISCV64, riscv64Regs{})
}

func TestUnknownRegisterIsRejected(t *testing.T) {
	var r amd64Regs
	_, ok := r.Resolve("not-a-register")
	assert.False(t, ok)

	_, err := r.Read(make([]byte, 256), "not-a-register")
	assert.Error(t, err)

	err = r.Write(make([]byte, 256), "not-a-register", 0)
	assert.Error(t, err)
}

func TestShortFrameIsRejected(t *testing.T) {
	var r amd64Regs
	_, err := r.Read(make([]byte, 4), "rax")
	assert.Error(t, err)
}
