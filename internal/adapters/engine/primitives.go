// Package engine implements the Engine Controller, Process Monitor, and
// Injection Worker: the state machine and primitives that pick a target
// thread or memory page, flip one bit, and report what happened. Grounded
// on the original kernel module's
// bitflip_ops.c (group stop/cont, register flip, memory bitflip,
// all-threads mode, single-random-target flip) reimplemented over ptrace
// and /proc instead of task_struct/pt_regs.
package engine

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/hardware-forge/fij-go/internal/core/ports"
)

func randIntn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// pickProcess chooses which descendant tgid to target, honoring
// policy.ProcessIndex when present and otherwise drawing uniformly.
func pickProcess(descendants []int, policy domain.InjectionPolicy) (int, error) {
	if len(descendants) == 0 {
		return 0, fmt.Errorf("primitives: no eligible processes")
	}
	if policy.ProcessIndexPresent {
		if policy.ProcessIndex < 0 || policy.ProcessIndex >= len(descendants) {
			return 0, fmt.Errorf("primitives: process index %d out of range [0,%d)", policy.ProcessIndex, len(descendants))
		}
		return descendants[policy.ProcessIndex], nil
	}
	return descendants[randIntn(len(descendants))], nil
}

// pickThreads chooses the eligible thread(s) of tgid: a single thread
// (random or policy.ThreadIndex) or, under policy.AllThreads, every thread.
func pickThreads(threads []int, policy domain.InjectionPolicy) ([]int, error) {
	if len(threads) == 0 {
		return nil, fmt.Errorf("primitives: no eligible threads")
	}
	if policy.AllThreads {
		return threads, nil
	}
	if policy.ThreadIndexPresent {
		if policy.ThreadIndex < 0 || policy.ThreadIndex >= len(threads) {
			return nil, fmt.Errorf("primitives: thread index %d out of range [0,%d)", policy.ThreadIndex, len(threads))
		}
		return []int{threads[policy.ThreadIndex]}, nil
	}
	return []int{threads[randIntn(len(threads))]}, nil
}

// pickRegister chooses which register to target: policy.TargetReg when set,
// otherwise uniformly among everything the architecture exposes.
func pickRegister(names []domain.RegisterID, policy domain.InjectionPolicy) domain.RegisterID {
	if policy.TargetReg != domain.RegNone {
		return policy.TargetReg
	}
	return names[randIntn(len(names))]
}

// pickBit chooses which bit of a width-bit register or byte to flip.
func pickBit(width int, policy domain.InjectionPolicy) int {
	if policy.RegBitPresent {
		return policy.RegBit % width
	}
	return randIntn(width)
}

// useMemory decides register-vs-memory per policy.WeightMem:
// P(register) = 1 / (1 + WeightMem). OnlyMem forces memory; otherwise an
// explicit TargetReg forces a register.
func useMemory(policy domain.InjectionPolicy) bool {
	if policy.OnlyMem {
		return true
	}
	if policy.TargetReg != domain.RegNone {
		return false
	}
	if policy.WeightMem <= 0 {
		return false
	}
	return randIntn(policy.WeightMem+1) != 0
}

// flipRegister XORs one random (or policy-chosen) bit into tid's chosen
// register and returns the before/after values for the result record.
func flipRegister(control ports.ProcessControl, regs ports.ArchRegs, tid int, policy domain.InjectionPolicy) (domain.RegisterID, uint64, uint64, error) {
	reg := pickRegister(regs.Names(), policy)
	width, ok := regs.Resolve(reg)
	if !ok {
		return reg, 0, 0, fmt.Errorf("primitives: register %q not valid on this architecture", reg)
	}
	bit := pickBit(width, policy)

	frame, err := control.ReadRegs(tid)
	if err != nil {
		return reg, 0, 0, err
	}
	before, err := regs.Read(frame, reg)
	if err != nil {
		return reg, 0, 0, err
	}
	after := before ^ (uint64(1) << uint(bit))
	if err := regs.Write(frame, reg, after); err != nil {
		return reg, before, after, err
	}
	if err := control.WriteRegs(tid, frame); err != nil {
		return reg, before, after, err
	}
	return reg, before, after, nil
}

// eligibleVMA picks a non-empty VMA uniformly at random to flip a byte in,
// excluding mappings the kernel module would have skipped as
// VM_IO/VM_PFNMAP. Anonymous and read-only mappings are eligible.
func eligibleVMA(vmas []ports.VMA) (ports.VMA, error) {
	var candidates []ports.VMA
	for _, v := range vmas {
		if v.IO || v.PFNMap {
			continue
		}
		if v.End <= v.Start {
			continue
		}
		candidates = append(candidates, v)
	}
	if len(candidates) == 0 {
		return ports.VMA{}, fmt.Errorf("primitives: no eligible memory region")
	}
	return candidates[randIntn(len(candidates))], nil
}

// flipMemory picks an address within an eligible VMA and flips one bit of
// one byte, returning the address, before/after byte values, and — when the
// mutated page is file-backed — a restore record the caller must revert at
// session teardown so the fault never reaches disk.
func flipMemory(control ports.ProcessControl, tgid int) (uint64, byte, byte, *domain.RestoreRecord, error) {
	vmas, err := control.VMAs(tgid)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	vma, err := eligibleVMA(vmas)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	span := vma.End - vma.Start
	addr := vma.Start + uint64(randIntn(int(span)))

	before, err := control.ReadByte(tgid, addr)
	if err != nil {
		return addr, 0, 0, nil, err
	}
	bit := randIntn(8)
	after := before ^ (1 << uint(bit))
	if err := control.WriteByte(tgid, addr, after); err != nil {
		return addr, before, after, nil, err
	}
	return addr, before, after, buildRestoreRecord(vma, addr, before), nil
}

// buildRestoreRecord captures what's needed to put addr's original byte back
// on disk once the session tears down, since WriteByte's force-write breaks
// the page's copy-on-write sharing immediately. Anonymous mappings have
// nothing backing them on disk, so they get no restore record.
func buildRestoreRecord(vma ports.VMA, addr uint64, original byte) *domain.RestoreRecord {
	if !vma.FileBacked {
		return nil
	}
	pageSize := int64(os.Getpagesize())
	fileOff := int64(vma.PgOff)*pageSize + int64(addr-vma.Start)
	return &domain.RestoreRecord{
		Active:     true,
		Path:       vma.Path,
		PageOffset: fileOff &^ (pageSize - 1),
		InPage:     int(fileOff & (pageSize - 1)),
		Original:   original,
	}
}

// restoreFileBacked reverts a file-backed memory mutation by writing the
// original byte back to its file offset. Idempotent: a nil or already-
// inactive record is a no-op, matching the controller's idempotent teardown.
func restoreFileBacked(rec *domain.RestoreRecord) error {
	if rec == nil || !rec.Active {
		return nil
	}
	f, err := os.OpenFile(rec.Path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("primitives: restore open %s: %w", rec.Path, err)
	}
	defer f.Close()
	if _, err := f.WriteAt([]byte{rec.Original}, rec.PageOffset+int64(rec.InPage)); err != nil {
		return fmt.Errorf("primitives: restore write %s: %w", rec.Path, err)
	}
	rec.Active = false
	return nil
}
