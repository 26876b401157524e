package ir

// Type is a declared high-level type, used when a signature is known from a
// declaration (imported functions) rather than recovered from a body.
type Type interface{ isType() }

// IntType is an integer of the given bit width.
type IntType struct {
	Bits int
}

// PtrType is a pointer; it classifies as an unsigned integer of the
// target's pointer width.
type PtrType struct{}

// VoidType is the absence of a value.
type VoidType struct{}

// FloatType is a floating-point value. Not classifiable under the
// integer-register model.
type FloatType struct {
	Bits int
}

// StructType is an aggregate. Not classifiable under the integer-register
// model.
type StructType struct {
	Name string
}

func (IntType) isType()    {}
func (PtrType) isType()    {}
func (VoidType) isType()   {}
func (FloatType) isType()  {}
func (StructType) isType() {}

// FuncType is a declared function signature.
type FuncType struct {
	Ret    Type
	Params []Type
}
