// Package analysis orchestrates signature recovery over a whole module: it
// owns the target model and memory-versioning facts, selects the applicable
// calling convention once, memoizes per-function results, and answers the
// interprocedural return-usage query on behalf of convention plugins.
package analysis

import (
	"errors"
	"fmt"

	"sigrec/internal/callconv"
	"sigrec/internal/ir"
	"sigrec/internal/target"
)

var ErrReentrantAnalysis = errors.New("analysis: function already being analyzed")

type funcState int

const (
	stateNotStarted funcState = iota
	stateInProgress
	stateComplete
)

type entry struct {
	state funcState
	info  *callconv.CallInformation
	err   error
}

// Registry dispatches per-function analyses to the selected convention and
// guarantees each function is analyzed at most once. It implements
// callconv.Orchestrator.
type Registry struct {
	model   *target.Model
	conv    callconv.Convention
	mod     *ir.Module
	funcs   map[string]*entry
	typed   map[string]*callconv.CallInformation
	unknown map[string]bool
	usage   *returnUsage
}

var _ callconv.Orchestrator = (*Registry)(nil)

// New selects the convention for the (target, format) pair and prepares an
// analysis over mod. Selection happens once; every function in the module
// is analyzed under the same convention.
func New(model *target.Model, convs *callconv.Registry, mod *ir.Module, targetName, execFormat string) (*Registry, error) {
	conv, err := convs.Select(targetName, execFormat)
	if err != nil {
		return nil, err
	}
	return &Registry{
		model:   model,
		conv:    conv,
		mod:     mod,
		funcs:   make(map[string]*entry),
		typed:   make(map[string]*callconv.CallInformation),
		unknown: make(map[string]bool),
		usage:   newReturnUsage(model, mod),
	}, nil
}

// Convention returns the selected convention.
func (r *Registry) Convention() callconv.Convention { return r.conv }

// Target returns the shared register model.
func (r *Registry) Target() *target.Model { return r.model }

// IsEntryState reports whether mem is the entry memory state.
func (r *Registry) IsEntryState(mem ir.MemVer) bool { return mem == ir.MemEntry }

// CallInfo returns fn's recovered signature, running the convention's
// analysis on first request and the cached result afterwards. Analysis
// errors are cached the same way. A request for a function whose analysis
// is still in progress indicates a plugin re-entered per-function analysis,
// which the interprocedural query never does.
func (r *Registry) CallInfo(fn *ir.Func) (*callconv.CallInformation, error) {
	e := r.funcs[fn.Name]
	if e == nil {
		e = &entry{}
		r.funcs[fn.Name] = e
	}
	switch e.state {
	case stateComplete:
		return e.info, e.err
	case stateInProgress:
		return nil, fmt.Errorf("%w: %s", ErrReentrantAnalysis, fn.Name)
	}
	e.state = stateInProgress
	e.info, e.err = r.conv.AnalyzeFunction(r, fn)
	e.state = stateComplete
	return e.info, e.err
}

// CallInfoForType classifies a declared signature for a body-less function.
// An unrepresentable type records the function as unknown-signature; the
// rest of the module proceeds.
func (r *Registry) CallInfoForType(name string, ft *ir.FuncType) (*callconv.CallInformation, error) {
	if ci, ok := r.typed[name]; ok {
		return ci, nil
	}
	if r.unknown[name] {
		return nil, fmt.Errorf("%s: %w", name, callconv.ErrUnrepresentable)
	}
	ci, err := r.conv.AnalyzeFunctionType(r, ft)
	if err != nil {
		if errors.Is(err, callconv.ErrUnrepresentable) {
			r.unknown[name] = true
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	r.typed[name] = ci
	return ci, nil
}

// Unknown reports whether name was recorded as having an unrepresentable
// declared signature. Downstream stages must treat such functions
// conservatively.
func (r *Registry) Unknown(name string) bool { return r.unknown[name] }

// UsedReturnRegisters filters candidates down to the registers confirmed by
// the interprocedural fixed point.
func (r *Registry) UsedReturnRegisters(fn *ir.Func, candidates []*target.Reg) []*target.Reg {
	return r.usage.used(fn, candidates)
}
