package callconv

import (
	"errors"
	"testing"

	"sigrec/internal/ir"
	"sigrec/internal/target"
)

// fakeOrch is a minimal Orchestrator for single-function tests: entry state
// is version 0 and every return candidate counts as used unless overridden.
type fakeOrch struct {
	model *target.Model
	used  func(fn *ir.Func, candidates []*target.Reg) []*target.Reg
}

func (o *fakeOrch) Target() *target.Model         { return o.model }
func (o *fakeOrch) IsEntryState(m ir.MemVer) bool { return m == ir.MemEntry }

func (o *fakeOrch) UsedReturnRegisters(fn *ir.Func, candidates []*target.Reg) []*target.Reg {
	if o.used != nil {
		return o.used(fn, candidates)
	}
	return candidates
}

func field(m *target.Model, name string) int {
	return m.FieldIndex(m.RegisterNamed(name))
}

func wantLocs(t *testing.T, got []ValueLocation, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("locations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("location %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAnalyzeSingleRegisterParameter(t *testing.T) {
	m := target.AMD64()
	b := ir.NewFunc("f")
	rdi := b.FieldAddr(field(m, "rdi"), 0, 8)
	b.Load(rdi, ir.MemEntry)
	b.Ret()

	ci, err := SysV().AnalyzeFunction(&fakeOrch{model: m}, b.Build())
	if err != nil {
		t.Fatalf("AnalyzeFunction: %v", err)
	}
	wantLocs(t, ci.Parameters, "rdi")
	wantLocs(t, ci.Returns)
}

func TestAnalyzeParameterOrderIsConventionOrder(t *testing.T) {
	m := target.AMD64()
	b := ir.NewFunc("f")
	// rdx is read before rdi; rsi never. Emission still follows
	// rdi, rsi, rdx, ... order.
	rdx := b.FieldAddr(field(m, "rdx"), 0, 8)
	b.Load(rdx, ir.MemEntry)
	rdi := b.FieldAddr(field(m, "rdi"), 0, 8)
	b.Load(rdi, ir.MemEntry)
	b.Ret()

	ci, err := SysV().AnalyzeFunction(&fakeOrch{model: m}, b.Build())
	if err != nil {
		t.Fatalf("AnalyzeFunction: %v", err)
	}
	wantLocs(t, ci.Parameters, "rdi", "rdx")
}

func TestAnalyzeSubRegisterCoalesces(t *testing.T) {
	m := target.AMD64()
	b := ir.NewFunc("f")
	edi := b.FieldAddr(field(m, "rdi"), 0, 4)
	b.Load(edi, ir.MemEntry)
	rdi := b.FieldAddr(field(m, "rdi"), 0, 8)
	b.Load(rdi, ir.MemEntry)
	b.Ret()

	ci, err := SysV().AnalyzeFunction(&fakeOrch{model: m}, b.Build())
	if err != nil {
		t.Fatalf("AnalyzeFunction: %v", err)
	}
	wantLocs(t, ci.Parameters, "rdi")
}

func TestAnalyzeWrittenRegisterIsNotParameter(t *testing.T) {
	m := target.AMD64()
	b := ir.NewFunc("f")
	// rdi read at a post-write memory version: not a parameter.
	rdi := b.FieldAddr(field(m, "rdi"), 0, 8)
	b.Load(rdi, 3)
	b.Ret()

	ci, err := SysV().AnalyzeFunction(&fakeOrch{model: m}, b.Build())
	if err != nil {
		t.Fatalf("AnalyzeFunction: %v", err)
	}
	wantLocs(t, ci.Parameters)
}

func TestAnalyzeStackParameters(t *testing.T) {
	m := target.AMD64()
	b := ir.NewFunc("f")
	rsp := b.FieldAddr(field(m, "rsp"), 0, 8)
	sp := b.Load(rsp, ir.MemEntry)
	b.Add(sp, 8)  // return address slot, never a parameter
	b.Add(sp, 24) // discovered out of offset order
	b.Add(sp, 16)
	b.Add(sp, 16) // duplicate offset
	b.Ret()

	ci, err := SysV().AnalyzeFunction(&fakeOrch{model: m}, b.Build())
	if err != nil {
		t.Fatalf("AnalyzeFunction: %v", err)
	}
	wantLocs(t, ci.Parameters, "stack+16", "stack+24")
}

func TestAnalyzeReturnCandidatesFiltered(t *testing.T) {
	m := target.AMD64()
	b := ir.NewFunc("f")
	rdi := b.FieldAddr(field(m, "rdi"), 0, 8)
	v := b.Load(rdi, ir.MemEntry)
	rax := b.FieldAddr(field(m, "rax"), 0, 8)
	b.Store(rax, v)
	b.Ret()
	fn := b.Build()

	// No caller consumes rax: the write stays a candidate only.
	orch := &fakeOrch{model: m, used: func(_ *ir.Func, _ []*target.Reg) []*target.Reg {
		return nil
	}}
	ci, err := SysV().AnalyzeFunction(orch, fn)
	if err != nil {
		t.Fatalf("AnalyzeFunction: %v", err)
	}
	wantLocs(t, ci.Returns)

	// A consuming caller confirms it.
	var sawCandidates []*target.Reg
	orch = &fakeOrch{model: m, used: func(_ *ir.Func, c []*target.Reg) []*target.Reg {
		sawCandidates = c
		return c
	}}
	ci, err = SysV().AnalyzeFunction(orch, fn)
	if err != nil {
		t.Fatalf("AnalyzeFunction: %v", err)
	}
	wantLocs(t, ci.Returns, "rax")
	if len(sawCandidates) != 1 || sawCandidates[0].Name() != "rax" {
		t.Errorf("candidates = %v, want [rax]", sawCandidates)
	}
}

func TestAnalyzeEmptySignature(t *testing.T) {
	m := target.AMD64()
	b := ir.NewFunc("f")
	b.Ret()

	ci, err := SysV().AnalyzeFunction(&fakeOrch{model: m}, b.Build())
	if err != nil {
		t.Fatalf("AnalyzeFunction: %v", err)
	}
	if len(ci.Parameters) != 0 || len(ci.Returns) != 0 {
		t.Errorf("signature = %v / %v, want empty", ci.Parameters, ci.Returns)
	}
}

func TestAnalyzeRejectsBadShape(t *testing.T) {
	m := target.AMD64()
	fn := &ir.Func{Name: "f", NumArgs: 2, RegFileType: ir.RegFileAMD64}
	if _, err := SysV().AnalyzeFunction(&fakeOrch{model: m}, fn); !errors.Is(err, ErrBadFunctionShape) {
		t.Errorf("err = %v, want ErrBadFunctionShape", err)
	}

	fn = &ir.Func{Name: "f", NumArgs: 1, RegFileType: "arm_regs"}
	if _, err := SysV().AnalyzeFunction(&fakeOrch{model: m}, fn); !errors.Is(err, ErrBadFunctionShape) {
		t.Errorf("err = %v, want ErrBadFunctionShape", err)
	}
}
