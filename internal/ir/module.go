package ir

// Import is a declared, body-less function known only by its type.
type Import struct {
	Name string
	Type *FuncType
}

// Module is one whole-program unit of lifted functions plus declared
// imports.
type Module struct {
	Funcs   []*Func
	Imports []*Import

	byName map[string]*Func
}

// NewModule builds a module from lifted functions and imports.
func NewModule(funcs []*Func, imports []*Import) *Module {
	m := &Module{Funcs: funcs, Imports: imports, byName: make(map[string]*Func, len(funcs))}
	for _, f := range funcs {
		m.byName[f.Name] = f
	}
	return m
}

// Func returns the lifted function with the given name, or nil.
func (m *Module) Func(name string) *Func {
	return m.byName[name]
}

// CallSite is one call instruction: the calling function and the index of
// the Call in its instruction sequence. The instructions after Index are
// what the caller does with the callee's register state.
type CallSite struct {
	Caller *Func
	Index  int
}

// Callers enumerates every call site targeting name, in module order.
func (m *Module) Callers(name string) []CallSite {
	var sites []CallSite
	for _, f := range m.Funcs {
		for i, inst := range f.Insts {
			if c, ok := inst.(*Call); ok && c.Callee == name {
				sites = append(sites, CallSite{Caller: f, Index: i})
			}
		}
	}
	return sites
}
