// Package callconv recovers function signatures — which registers and stack
// slots carry parameters and return values — under a target calling
// convention. Conventions are pluggable: each one knows which
// target/executable pairs it applies to, how to analyze a lifted function
// body, and how to classify a declared function type.
package callconv

import (
	"errors"
	"fmt"

	"sigrec/internal/target"
)

var (
	ErrNoApplicableConvention = errors.New("callconv: no applicable convention")
	ErrAmbiguousConvention    = errors.New("callconv: more than one convention matches")
	ErrUnrepresentable        = errors.New("callconv: type not representable in integer registers")
	ErrBadFunctionShape       = errors.New("callconv: function is not a lifted register-file routine")
)

// LocKind discriminates ValueLocation variants.
type LocKind int

const (
	LocRegister LocKind = iota
	LocStack
)

// ValueLocation describes where one parameter or return value lives:
// an architectural register, or a stack slot at a byte offset relative to
// the stack pointer at function entry.
type ValueLocation struct {
	Kind   LocKind
	Reg    *target.Reg // LocRegister
	Offset int64       // LocStack
}

// RegisterLoc makes a register location.
func RegisterLoc(r *target.Reg) ValueLocation {
	return ValueLocation{Kind: LocRegister, Reg: r}
}

// StackLoc makes a stack-slot location at the given entry-relative offset.
func StackLoc(offset int64) ValueLocation {
	return ValueLocation{Kind: LocStack, Offset: offset}
}

func (v ValueLocation) String() string {
	if v.Kind == LocRegister {
		return v.Reg.Name()
	}
	return fmt.Sprintf("stack+%d", v.Offset)
}

// CallInformation is one recovered signature: the ordered parameter and
// return-value locations of a function. Parameter order follows the
// convention's register order, then stack offsets; it does not necessarily
// reflect source declaration order. A CallInformation is populated once by
// an analysis pass and immutable afterwards; empty sequences are a valid
// result.
type CallInformation struct {
	Parameters []ValueLocation
	Returns    []ValueLocation
}

// addParameter appends loc unless an identical location is already present.
func (ci *CallInformation) addParameter(loc ValueLocation) {
	for _, p := range ci.Parameters {
		if p == loc {
			return
		}
	}
	ci.Parameters = append(ci.Parameters, loc)
}

func (ci *CallInformation) addReturn(loc ValueLocation) {
	ci.Returns = append(ci.Returns, loc)
}
