// Package target models the architectural register file of a decompilation
// target: register identity, sub/super-register overlap, pointer width, and
// the mapping from register-file access paths to registers.
package target

import (
	"golang.org/x/arch/x86/x86asm"
)

// Reg identifies one architectural register. Regs are interned per Model;
// two Regs are the same register iff the pointers are equal.
type Reg struct {
	name   string
	bits   int
	off    int64 // byte offset within the 64-bit family slot
	asm    x86asm.Reg
	family *Reg // widest overlapping register; the head points to itself
}

// Name returns the lowercase architectural name, e.g. "rax" or "eax".
func (r *Reg) Name() string { return r.name }

// Bits returns the register width in bits.
func (r *Reg) Bits() int { return r.bits }

// Asm returns the x86asm identity of the register.
func (r *Reg) Asm() x86asm.Reg { return r.asm }

func (r *Reg) String() string { return r.name }

// Model describes one target architecture's register file. The lifted IR
// addresses registers as fields of a register-file aggregate; field order
// matches the Model's slot order.
type Model struct {
	byName  map[string]*Reg
	fields  []*Reg // slot index -> family head
	sp      *Reg
	ptrBits int
}

// PointerWidth returns the pointer width in bits.
func (m *Model) PointerWidth() int { return m.ptrBits }

// RegisterNamed returns the register with the given lowercase name,
// or nil if the model has no such register.
func (m *Model) RegisterNamed(name string) *Reg { return m.byName[name] }

// LargestOverlapping returns the widest register overlapping r
// (e.g. rax for eax, ax, al and ah).
func (m *Model) LargestOverlapping(r *Reg) *Reg { return r.family }

// StackPointer returns the designated stack-pointer register.
func (m *Model) StackPointer() *Reg { return m.sp }

// NumFields returns the number of register-file slots.
func (m *Model) NumFields() int { return len(m.fields) }

// FieldIndex returns the register-file slot index of r's family, or -1.
func (m *Model) FieldIndex(r *Reg) int {
	for i, f := range m.fields {
		if f == r.family {
			return i
		}
	}
	return -1
}

// RegisterForAccess maps a register-file access path — slot index, byte
// offset within the slot, access width in bytes — to the architectural
// register it addresses. Accesses that match no named sub-register but stay
// inside the slot resolve to the family head.
func (m *Model) RegisterForAccess(field int, off int64, width int) (*Reg, bool) {
	if field < 0 || field >= len(m.fields) {
		return nil, false
	}
	head := m.fields[field]
	for _, r := range m.byName {
		if r.family == head && r.off == off && r.bits == width*8 {
			return r, true
		}
	}
	if off >= 0 && width > 0 && off+int64(width) <= 8 {
		return head, true
	}
	return nil, false
}

type regSpec struct {
	name string
	bits int
	off  int64
	asm  x86asm.Reg
}

// addFamily installs one 64-bit register slot and its sub-registers.
// The first spec is the family head.
func (m *Model) addFamily(specs ...regSpec) *Reg {
	var head *Reg
	for i, s := range specs {
		r := &Reg{name: s.name, bits: s.bits, off: s.off, asm: s.asm}
		if i == 0 {
			head = r
		}
		r.family = head
		m.byName[s.name] = r
	}
	m.fields = append(m.fields, head)
	return head
}

// AMD64 builds the x86-64 register model: sixteen general-purpose register
// families plus rip, rsp as the stack pointer, 64-bit pointers. Slot order
// is the register-file field order expected from the lifting stage.
func AMD64() *Model {
	m := &Model{byName: make(map[string]*Reg), ptrBits: 64}

	m.addFamily(
		regSpec{"rax", 64, 0, x86asm.RAX},
		regSpec{"eax", 32, 0, x86asm.EAX},
		regSpec{"ax", 16, 0, x86asm.AX},
		regSpec{"al", 8, 0, x86asm.AL},
		regSpec{"ah", 8, 1, x86asm.AH},
	)
	m.addFamily(
		regSpec{"rbx", 64, 0, x86asm.RBX},
		regSpec{"ebx", 32, 0, x86asm.EBX},
		regSpec{"bx", 16, 0, x86asm.BX},
		regSpec{"bl", 8, 0, x86asm.BL},
		regSpec{"bh", 8, 1, x86asm.BH},
	)
	m.addFamily(
		regSpec{"rcx", 64, 0, x86asm.RCX},
		regSpec{"ecx", 32, 0, x86asm.ECX},
		regSpec{"cx", 16, 0, x86asm.CX},
		regSpec{"cl", 8, 0, x86asm.CL},
		regSpec{"ch", 8, 1, x86asm.CH},
	)
	m.addFamily(
		regSpec{"rdx", 64, 0, x86asm.RDX},
		regSpec{"edx", 32, 0, x86asm.EDX},
		regSpec{"dx", 16, 0, x86asm.DX},
		regSpec{"dl", 8, 0, x86asm.DL},
		regSpec{"dh", 8, 1, x86asm.DH},
	)
	m.addFamily(
		regSpec{"rsi", 64, 0, x86asm.RSI},
		regSpec{"esi", 32, 0, x86asm.ESI},
		regSpec{"si", 16, 0, x86asm.SI},
		regSpec{"sil", 8, 0, x86asm.SIB},
	)
	m.addFamily(
		regSpec{"rdi", 64, 0, x86asm.RDI},
		regSpec{"edi", 32, 0, x86asm.EDI},
		regSpec{"di", 16, 0, x86asm.DI},
		regSpec{"dil", 8, 0, x86asm.DIB},
	)
	m.addFamily(
		regSpec{"rbp", 64, 0, x86asm.RBP},
		regSpec{"ebp", 32, 0, x86asm.EBP},
		regSpec{"bp", 16, 0, x86asm.BP},
		regSpec{"bpl", 8, 0, x86asm.BPB},
	)
	m.sp = m.addFamily(
		regSpec{"rsp", 64, 0, x86asm.RSP},
		regSpec{"esp", 32, 0, x86asm.ESP},
		regSpec{"sp", 16, 0, x86asm.SP},
		regSpec{"spl", 8, 0, x86asm.SPB},
	)

	ext := []struct {
		base       string
		r, l, w, b x86asm.Reg
	}{
		{"r8", x86asm.R8, x86asm.R8L, x86asm.R8W, x86asm.R8B},
		{"r9", x86asm.R9, x86asm.R9L, x86asm.R9W, x86asm.R9B},
		{"r10", x86asm.R10, x86asm.R10L, x86asm.R10W, x86asm.R10B},
		{"r11", x86asm.R11, x86asm.R11L, x86asm.R11W, x86asm.R11B},
		{"r12", x86asm.R12, x86asm.R12L, x86asm.R12W, x86asm.R12B},
		{"r13", x86asm.R13, x86asm.R13L, x86asm.R13W, x86asm.R13B},
		{"r14", x86asm.R14, x86asm.R14L, x86asm.R14W, x86asm.R14B},
		{"r15", x86asm.R15, x86asm.R15L, x86asm.R15W, x86asm.R15B},
	}
	for _, e := range ext {
		m.addFamily(
			regSpec{e.base, 64, 0, e.r},
			regSpec{e.base + "d", 32, 0, e.l},
			regSpec{e.base + "w", 16, 0, e.w},
			regSpec{e.base + "b", 8, 0, e.b},
		)
	}

	m.addFamily(regSpec{"rip", 64, 0, x86asm.RIP})

	return m
}
