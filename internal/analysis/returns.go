package analysis

import (
	"sigrec/internal/ir"
	"sigrec/internal/target"
)

// A register written inside a function is only a candidate return value; it
// is confirmed when some caller reads it after a call site, directly or
// through a chain of callers that leave it in place until they return
// themselves. returnUsage computes that per register with a confirm-only
// worklist over the call graph — the used set grows monotonically, so
// recursive and mutually recursive cycles terminate.
type returnUsage struct {
	model  *target.Model
	mod    *ir.Module
	solved map[*target.Reg]map[string]bool
}

func newReturnUsage(model *target.Model, mod *ir.Module) *returnUsage {
	return &returnUsage{model: model, mod: mod, solved: make(map[*target.Reg]map[string]bool)}
}

// used filters candidates (family heads, in convention order) down to the
// confirmed ones, preserving order.
func (u *returnUsage) used(fn *ir.Func, candidates []*target.Reg) []*target.Reg {
	var out []*target.Reg
	for _, reg := range candidates {
		if u.solve(reg)[fn.Name] {
			out = append(out, reg)
		}
	}
	return out
}

type siteClass int

const (
	siteRead siteClass = iota
	siteKill
	sitePassthrough
)

// solve computes, for every function in the module, whether a value left in
// reg at return is consumed by some caller. Solved once per register and
// cached.
func (u *returnUsage) solve(reg *target.Reg) map[string]bool {
	if m, ok := u.solved[reg]; ok {
		return m
	}
	used := make(map[string]bool)
	u.solved[reg] = used

	// Classify every call site once. A read site confirms the callee
	// outright; a passthrough site makes the callee's status follow the
	// caller's.
	passthrough := make(map[string][]string) // caller -> callees at passthrough sites
	var work []string
	for _, caller := range u.mod.Funcs {
		for i, inst := range caller.Insts {
			call, ok := inst.(*ir.Call)
			if !ok {
				continue
			}
			switch u.classify(caller, i, reg) {
			case siteRead:
				if !used[call.Callee] {
					used[call.Callee] = true
					work = append(work, call.Callee)
				}
			case sitePassthrough:
				passthrough[caller.Name] = append(passthrough[caller.Name], call.Callee)
			}
		}
	}

	for len(work) > 0 {
		name := work[len(work)-1]
		work = work[:len(work)-1]
		for _, callee := range passthrough[name] {
			if !used[callee] {
				used[callee] = true
				work = append(work, callee)
			}
		}
	}
	return used
}

// classify inspects what caller does with reg after the call at idx. The
// first access decides: a load is a read, unless its value is only stored
// straight back into the same register (a passthrough reload); a store of
// anything else overwrites the value; another call clobbers it. No access
// at all leaves the callee's value in place at the caller's own return.
func (u *returnUsage) classify(caller *ir.Func, idx int, reg *target.Reg) siteClass {
	for _, inst := range caller.Insts[idx+1:] {
		switch t := inst.(type) {
		case *ir.Load:
			if u.regOf(t.Addr) == reg {
				if u.onlyStoredBack(caller, t, reg) {
					return sitePassthrough
				}
				return siteRead
			}
		case *ir.Store:
			if u.regOf(t.Addr) == reg {
				return siteKill
			}
		case *ir.Call:
			return siteKill
		}
	}
	return sitePassthrough
}

// onlyStoredBack reports whether every use of ld stores its value back into
// reg, and there is at least one such use.
func (u *returnUsage) onlyStoredBack(caller *ir.Func, ld *ir.Load, reg *target.Reg) bool {
	uses := 0
	for _, inst := range caller.Insts {
		switch t := inst.(type) {
		case *ir.Store:
			if t.Src == ir.Value(ld) {
				if u.regOf(t.Addr) != reg {
					return false
				}
				uses++
			}
		case *ir.Add:
			if t.X == ir.Value(ld) {
				return false
			}
		}
	}
	return uses > 0
}

// regOf maps a field address to the widest register it touches, or nil.
func (u *returnUsage) regOf(fa *ir.FieldAddr) *target.Reg {
	r, ok := u.model.RegisterForAccess(fa.Field, fa.Off, fa.Width)
	if !ok {
		return nil
	}
	return u.model.LargestOverlapping(r)
}
