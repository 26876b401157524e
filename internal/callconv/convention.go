package callconv

import (
	"fmt"

	"sigrec/internal/ir"
	"sigrec/internal/target"
)

// Orchestrator is the analysis context a convention runs under. It owns the
// shared target model and memory-versioning facts, and answers the
// interprocedural question a convention cannot answer locally: which of a
// function's written return-order registers are actually consumed by a
// caller.
type Orchestrator interface {
	Target() *target.Model

	// IsEntryState reports whether a load observing mem sees the
	// function's entry memory state.
	IsEntryState(mem ir.MemVer) bool

	// UsedReturnRegisters filters candidate return registers down to those
	// read by at least one caller, directly or through passthrough chains.
	// The result preserves the order of candidates.
	UsedReturnRegisters(fn *ir.Func, candidates []*target.Reg) []*target.Reg
}

// Convention is one calling-convention analyzer.
type Convention interface {
	// Name is a stable identifier for diagnostics, e.g. "x86_64/sysv".
	Name() string

	// Matches reports whether this convention applies to the given
	// architecture family and executable format. Pure predicate.
	Matches(targetName, execFormat string) bool

	// AnalyzeFunction recovers the signature of a lifted function body.
	// The function must be shaped as a single-argument register-file
	// routine; anything else is ErrBadFunctionShape (an upstream lifting
	// bug, not recoverable).
	AnalyzeFunction(orch Orchestrator, fn *ir.Func) (*CallInformation, error)

	// AnalyzeFunctionType classifies a declared signature without a body.
	// Types outside the integer-register model yield ErrUnrepresentable.
	AnalyzeFunctionType(orch Orchestrator, ft *ir.FuncType) (*CallInformation, error)
}

// Registry holds the registered conventions. Conventions are registered
// once at startup and the set is never mutated afterwards; selection
// happens once per (target, executable) pair.
type Registry struct {
	convs []Convention
}

// Register appends a convention.
func (r *Registry) Register(c Convention) {
	r.convs = append(r.convs, c)
}

// Select returns the single convention matching the pair. Zero matches is
// ErrNoApplicableConvention; more than one is ErrAmbiguousConvention, a
// configuration error.
func (r *Registry) Select(targetName, execFormat string) (Convention, error) {
	var found Convention
	for _, c := range r.convs {
		if !c.Matches(targetName, execFormat) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s and %s both match %s/%s",
				ErrAmbiguousConvention, found.Name(), c.Name(), targetName, execFormat)
		}
		found = c
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoApplicableConvention, targetName, execFormat)
	}
	return found, nil
}
