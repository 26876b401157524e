// Package ir is the low-level register IR consumed by signature recovery.
// A lifted function takes a single argument, a pointer to the register-file
// aggregate; every architectural register access in its body is a field
// address off that argument followed by a load or store. Loads carry the
// memory version they observe; version MemEntry is the state the function
// was entered with.
package ir

// MemVer is a memory version token assigned by the lifting stage.
type MemVer int

// MemEntry is the function's entry memory state: a load tagged with it
// observes a value nothing in the function wrote first.
const MemEntry MemVer = 0

// RegFileAMD64 is the register-file aggregate name produced by the x86-64
// lifter. Functions whose RegFileType differs are malformed input.
const RegFileAMD64 = "x86_regs"

// Value is an instruction result referenced by later instructions.
type Value interface{ isValue() }

// Inst is one lifted instruction.
type Inst interface{ isInst() }

// FieldAddr computes the address of part of a register-file field:
// slot Field, byte offset Off within the slot, access width Width in bytes.
type FieldAddr struct {
	Field int
	Off   int64
	Width int
}

// Load reads through a register field address, observing memory version Mem.
type Load struct {
	Addr *FieldAddr
	Mem  MemVer
}

// Store writes Src through a register field address.
type Store struct {
	Addr *FieldAddr
	Src  Value
}

// Add produces X plus the constant K. The lifter emits it for address
// arithmetic, e.g. a stack slot at a fixed offset above the loaded rsp.
type Add struct {
	X Value
	K int64
}

// Call transfers to Callee, passing the shared register file.
type Call struct {
	Callee string
}

// Ret returns from the function.
type Ret struct{}

func (*FieldAddr) isInst() {}
func (*Load) isInst()      {}
func (*Store) isInst()     {}
func (*Add) isInst()       {}
func (*Call) isInst()      {}
func (*Ret) isInst()       {}

func (*FieldAddr) isValue() {}
func (*Load) isValue()      {}
func (*Add) isValue()       {}

// Func is one lifted function body.
type Func struct {
	Name        string
	NumArgs     int    // lifted functions take exactly one argument
	RegFileType string // aggregate type of that argument
	Insts       []Inst
}

// Builder assembles a Func instruction by instruction. It is the
// construction surface for lifters and for test fixtures.
type Builder struct {
	f *Func
}

// NewFunc starts a lifted function with the expected single
// register-file argument.
func NewFunc(name string) *Builder {
	return &Builder{f: &Func{Name: name, NumArgs: 1, RegFileType: RegFileAMD64}}
}

// FieldAddr appends a field-address computation and returns it.
func (b *Builder) FieldAddr(field int, off int64, width int) *FieldAddr {
	fa := &FieldAddr{Field: field, Off: off, Width: width}
	b.f.Insts = append(b.f.Insts, fa)
	return fa
}

// Load appends a load through addr observing memory version mem.
func (b *Builder) Load(addr *FieldAddr, mem MemVer) *Load {
	ld := &Load{Addr: addr, Mem: mem}
	b.f.Insts = append(b.f.Insts, ld)
	return ld
}

// Store appends a store of src through addr.
func (b *Builder) Store(addr *FieldAddr, src Value) *Store {
	st := &Store{Addr: addr, Src: src}
	b.f.Insts = append(b.f.Insts, st)
	return st
}

// Add appends x+k.
func (b *Builder) Add(x Value, k int64) *Add {
	a := &Add{X: x, K: k}
	b.f.Insts = append(b.f.Insts, a)
	return a
}

// Call appends a call to callee.
func (b *Builder) Call(callee string) *Call {
	c := &Call{Callee: callee}
	b.f.Insts = append(b.f.Insts, c)
	return c
}

// Ret appends a return.
func (b *Builder) Ret() {
	b.f.Insts = append(b.f.Insts, &Ret{})
}

// Build finalizes and returns the function.
func (b *Builder) Build() *Func { return b.f }
