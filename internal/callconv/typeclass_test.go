package callconv

import (
	"errors"
	"testing"

	"sigrec/internal/ir"
	"sigrec/internal/target"
)

func classify(t *testing.T, ft *ir.FuncType) (*CallInformation, error) {
	t.Helper()
	return SysV().AnalyzeFunctionType(&fakeOrch{model: target.AMD64()}, ft)
}

func TestTypeVoidVoid(t *testing.T) {
	ci, err := classify(t, &ir.FuncType{Ret: ir.VoidType{}})
	if err != nil {
		t.Fatalf("AnalyzeFunctionType: %v", err)
	}
	if len(ci.Parameters) != 0 || len(ci.Returns) != 0 {
		t.Errorf("void(void) = %v / %v, want empty", ci.Parameters, ci.Returns)
	}
}

func TestTypeIntAndPointerParams(t *testing.T) {
	ci, err := classify(t, &ir.FuncType{
		Ret:    ir.IntType{Bits: 64},
		Params: []ir.Type{ir.PtrType{}, ir.IntType{Bits: 32}},
	})
	if err != nil {
		t.Fatalf("AnalyzeFunctionType: %v", err)
	}
	wantLocs(t, ci.Parameters, "rdi", "rsi")
	wantLocs(t, ci.Returns, "rax")
}

func TestTypeWideIntegersSpanRegisters(t *testing.T) {
	// 128 bits consume two registers; 65 bits round up to two as well.
	ci, err := classify(t, &ir.FuncType{
		Ret:    ir.VoidType{},
		Params: []ir.Type{ir.IntType{Bits: 128}, ir.IntType{Bits: 65}},
	})
	if err != nil {
		t.Fatalf("AnalyzeFunctionType: %v", err)
	}
	wantLocs(t, ci.Parameters, "rdi", "rsi", "rdx", "rcx")
}

func TestTypeWideReturnSpansReturnRegisters(t *testing.T) {
	ci, err := classify(t, &ir.FuncType{Ret: ir.IntType{Bits: 128}})
	if err != nil {
		t.Fatalf("AnalyzeFunctionType: %v", err)
	}
	wantLocs(t, ci.Returns, "rax", "rdx")
}

func TestTypeRegisterExhaustion(t *testing.T) {
	params := make([]ir.Type, 9)
	for i := range params {
		params[i] = ir.IntType{Bits: 64}
	}
	_, err := classify(t, &ir.FuncType{Ret: ir.VoidType{}, Params: params})
	if !errors.Is(err, ErrUnrepresentable) {
		t.Errorf("nine integer params: err = %v, want ErrUnrepresentable", err)
	}

	// 192-bit return exceeds the two return registers.
	_, err = classify(t, &ir.FuncType{Ret: ir.IntType{Bits: 192}})
	if !errors.Is(err, ErrUnrepresentable) {
		t.Errorf("192-bit return: err = %v, want ErrUnrepresentable", err)
	}
}

func TestTypeUnclassifiable(t *testing.T) {
	for _, tt := range []ir.Type{
		ir.FloatType{Bits: 64},
		ir.StructType{Name: "pair"},
	} {
		_, err := classify(t, &ir.FuncType{Ret: ir.VoidType{}, Params: []ir.Type{tt}})
		if !errors.Is(err, ErrUnrepresentable) {
			t.Errorf("%T: err = %v, want ErrUnrepresentable", tt, err)
		}
	}
}
