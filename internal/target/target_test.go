package target

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"
)

func TestRegisterNamed(t *testing.T) {
	m := AMD64()
	for _, name := range []string{"rax", "eax", "ax", "al", "ah", "rdi", "dil", "r8", "r8d", "spl", "rip"} {
		if m.RegisterNamed(name) == nil {
			t.Errorf("RegisterNamed(%q) = nil", name)
		}
	}
	if m.RegisterNamed("xmm0") != nil {
		t.Error("RegisterNamed(xmm0) should be nil: no vector registers in the model")
	}
	if got := m.RegisterNamed("rdi").Asm(); got != x86asm.RDI {
		t.Errorf("rdi asm identity = %v, want RDI", got)
	}
}

func TestLargestOverlapping(t *testing.T) {
	m := AMD64()
	rax := m.RegisterNamed("rax")
	for _, name := range []string{"rax", "eax", "ax", "al", "ah"} {
		if got := m.LargestOverlapping(m.RegisterNamed(name)); got != rax {
			t.Errorf("LargestOverlapping(%s) = %v, want rax", name, got)
		}
	}
	if got := m.LargestOverlapping(m.RegisterNamed("r8d")); got != m.RegisterNamed("r8") {
		t.Errorf("LargestOverlapping(r8d) = %v, want r8", got)
	}
}

func TestRegisterForAccess(t *testing.T) {
	m := AMD64()
	raxField := m.FieldIndex(m.RegisterNamed("rax"))

	tests := []struct {
		off   int64
		width int
		want  string
	}{
		{0, 8, "rax"},
		{0, 4, "eax"},
		{0, 2, "ax"},
		{0, 1, "al"},
		{1, 1, "ah"},
	}
	for _, tt := range tests {
		r, ok := m.RegisterForAccess(raxField, tt.off, tt.width)
		if !ok {
			t.Fatalf("RegisterForAccess(%d, %d, %d) failed", raxField, tt.off, tt.width)
		}
		if r.Name() != tt.want {
			t.Errorf("RegisterForAccess(off=%d, width=%d) = %s, want %s", tt.off, tt.width, r.Name(), tt.want)
		}
	}

	if _, ok := m.RegisterForAccess(-1, 0, 8); ok {
		t.Error("negative field should not resolve")
	}
	if _, ok := m.RegisterForAccess(m.NumFields(), 0, 8); ok {
		t.Error("out-of-range field should not resolve")
	}
	if _, ok := m.RegisterForAccess(raxField, 4, 8); ok {
		t.Error("access past slot end should not resolve")
	}
}

func TestStackPointer(t *testing.T) {
	m := AMD64()
	if got := m.StackPointer(); got != m.RegisterNamed("rsp") {
		t.Errorf("StackPointer() = %v, want rsp", got)
	}
	if m.PointerWidth() != 64 {
		t.Errorf("PointerWidth() = %d, want 64", m.PointerWidth())
	}
}

func TestFieldIndex(t *testing.T) {
	m := AMD64()
	// Sub-registers index through their family head.
	rdi := m.FieldIndex(m.RegisterNamed("rdi"))
	if got := m.FieldIndex(m.RegisterNamed("edi")); got != rdi {
		t.Errorf("FieldIndex(edi) = %d, want %d", got, rdi)
	}
	if rdi < 0 || rdi >= m.NumFields() {
		t.Errorf("FieldIndex(rdi) = %d out of range", rdi)
	}
}
