package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// JSON fixture format for lifted modules. Instructions are encoded in
// sequence order; value operands refer to earlier instructions by index.

var ErrBadModule = errors.New("ir: malformed module")

type jsonModule struct {
	Functions []jsonFunc   `json:"functions"`
	Imports   []jsonImport `json:"imports,omitempty"`
}

type jsonFunc struct {
	Name    string     `json:"name"`
	NumArgs int        `json:"num_args"`
	RegFile string     `json:"regfile"`
	Insts   []jsonInst `json:"insts"`
}

type jsonInst struct {
	Op     string `json:"op"`
	Field  int    `json:"field,omitempty"`
	Off    int64  `json:"off,omitempty"`
	Width  int    `json:"width,omitempty"`
	Addr   *int   `json:"addr,omitempty"`
	Src    *int   `json:"src,omitempty"`
	X      *int   `json:"x,omitempty"`
	K      int64  `json:"k,omitempty"`
	Mem    int    `json:"mem,omitempty"`
	Callee string `json:"callee,omitempty"`
}

type jsonImport struct {
	Name string    `json:"name"`
	Type jsonFunc2 `json:"type"`
}

type jsonFunc2 struct {
	Ret    jsonType   `json:"ret"`
	Params []jsonType `json:"params,omitempty"`
}

type jsonType struct {
	Kind string `json:"kind"`
	Bits int    `json:"bits,omitempty"`
	Name string `json:"name,omitempty"`
}

// DecodeModule reads a JSON-encoded lifted module.
func DecodeModule(r io.Reader) (*Module, error) {
	var jm jsonModule
	if err := json.NewDecoder(r).Decode(&jm); err != nil {
		return nil, fmt.Errorf("ir: decode: %w", err)
	}

	funcs := make([]*Func, 0, len(jm.Functions))
	for _, jf := range jm.Functions {
		f, err := decodeFunc(jf)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, f)
	}

	imports := make([]*Import, 0, len(jm.Imports))
	for _, ji := range jm.Imports {
		ft, err := decodeFuncType(ji.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: import %s: %v", ErrBadModule, ji.Name, err)
		}
		imports = append(imports, &Import{Name: ji.Name, Type: ft})
	}

	return NewModule(funcs, imports), nil
}

func decodeFunc(jf jsonFunc) (*Func, error) {
	f := &Func{Name: jf.Name, NumArgs: jf.NumArgs, RegFileType: jf.RegFile}
	vals := make([]Value, len(jf.Insts))

	valueAt := func(ref *int, i int) (Value, error) {
		if ref == nil || *ref < 0 || *ref >= i || vals[*ref] == nil {
			return nil, fmt.Errorf("%w: %s: inst %d: bad value reference", ErrBadModule, jf.Name, i)
		}
		return vals[*ref], nil
	}
	addrAt := func(ref *int, i int) (*FieldAddr, error) {
		v, err := valueAt(ref, i)
		if err != nil {
			return nil, err
		}
		fa, ok := v.(*FieldAddr)
		if !ok {
			return nil, fmt.Errorf("%w: %s: inst %d: address is not a field address", ErrBadModule, jf.Name, i)
		}
		return fa, nil
	}

	for i, ji := range jf.Insts {
		switch ji.Op {
		case "fieldaddr":
			fa := &FieldAddr{Field: ji.Field, Off: ji.Off, Width: ji.Width}
			f.Insts = append(f.Insts, fa)
			vals[i] = fa
		case "load":
			addr, err := addrAt(ji.Addr, i)
			if err != nil {
				return nil, err
			}
			ld := &Load{Addr: addr, Mem: MemVer(ji.Mem)}
			f.Insts = append(f.Insts, ld)
			vals[i] = ld
		case "store":
			addr, err := addrAt(ji.Addr, i)
			if err != nil {
				return nil, err
			}
			src, err := valueAt(ji.Src, i)
			if err != nil {
				return nil, err
			}
			f.Insts = append(f.Insts, &Store{Addr: addr, Src: src})
		case "add":
			x, err := valueAt(ji.X, i)
			if err != nil {
				return nil, err
			}
			a := &Add{X: x, K: ji.K}
			f.Insts = append(f.Insts, a)
			vals[i] = a
		case "call":
			f.Insts = append(f.Insts, &Call{Callee: ji.Callee})
		case "ret":
			f.Insts = append(f.Insts, &Ret{})
		default:
			return nil, fmt.Errorf("%w: %s: inst %d: unknown op %q", ErrBadModule, jf.Name, i, ji.Op)
		}
	}
	return f, nil
}

func decodeType(jt jsonType) (Type, error) {
	switch jt.Kind {
	case "int":
		if jt.Bits <= 0 {
			return nil, fmt.Errorf("int type with %d bits", jt.Bits)
		}
		return IntType{Bits: jt.Bits}, nil
	case "ptr":
		return PtrType{}, nil
	case "void":
		return VoidType{}, nil
	case "float":
		return FloatType{Bits: jt.Bits}, nil
	case "struct":
		return StructType{Name: jt.Name}, nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", jt.Kind)
	}
}

func decodeFuncType(jf jsonFunc2) (*FuncType, error) {
	ret, err := decodeType(jf.Ret)
	if err != nil {
		return nil, err
	}
	ft := &FuncType{Ret: ret}
	for _, jp := range jf.Params {
		p, err := decodeType(jp)
		if err != nil {
			return nil, err
		}
		ft.Params = append(ft.Params, p)
	}
	return ft, nil
}

// EncodeModule writes m in the JSON fixture format.
func EncodeModule(w io.Writer, m *Module) error {
	var jm jsonModule
	for _, f := range m.Funcs {
		jf := jsonFunc{Name: f.Name, NumArgs: f.NumArgs, RegFile: f.RegFileType}
		idx := make(map[Value]int, len(f.Insts))
		for i, inst := range f.Insts {
			if v, ok := inst.(Value); ok {
				idx[v] = i
			}
		}
		ref := func(v Value) *int {
			i, ok := idx[v]
			if !ok {
				return nil
			}
			return &i
		}
		for _, inst := range f.Insts {
			var ji jsonInst
			switch t := inst.(type) {
			case *FieldAddr:
				ji = jsonInst{Op: "fieldaddr", Field: t.Field, Off: t.Off, Width: t.Width}
			case *Load:
				ji = jsonInst{Op: "load", Addr: ref(t.Addr), Mem: int(t.Mem)}
			case *Store:
				ji = jsonInst{Op: "store", Addr: ref(t.Addr), Src: ref(t.Src)}
			case *Add:
				ji = jsonInst{Op: "add", X: ref(t.X), K: t.K}
			case *Call:
				ji = jsonInst{Op: "call", Callee: t.Callee}
			case *Ret:
				ji = jsonInst{Op: "ret"}
			}
			jf.Insts = append(jf.Insts, ji)
		}
		jm.Functions = append(jm.Functions, jf)
	}
	for _, im := range m.Imports {
		jm.Imports = append(jm.Imports, jsonImport{Name: im.Name, Type: encodeFuncType(im.Type)})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&jm)
}

func encodeType(t Type) jsonType {
	switch t := t.(type) {
	case IntType:
		return jsonType{Kind: "int", Bits: t.Bits}
	case PtrType:
		return jsonType{Kind: "ptr"}
	case VoidType:
		return jsonType{Kind: "void"}
	case FloatType:
		return jsonType{Kind: "float", Bits: t.Bits}
	case StructType:
		return jsonType{Kind: "struct", Name: t.Name}
	}
	return jsonType{}
}

func encodeFuncType(ft *FuncType) jsonFunc2 {
	jf := jsonFunc2{Ret: encodeType(ft.Ret)}
	for _, p := range ft.Params {
		jf.Params = append(jf.Params, encodeType(p))
	}
	return jf
}
