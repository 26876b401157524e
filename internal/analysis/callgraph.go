package analysis

import (
	"github.com/zboralski/lattice"

	"sigrec/internal/ir"
)

// BuildCallGraph exports the module's caller/callee edges as a
// lattice.Graph. Each lifted function becomes a node; every call
// instruction becomes an edge, including calls into imports.
func BuildCallGraph(mod *ir.Module) *lattice.Graph {
	g := &lattice.Graph{}
	for _, f := range mod.Funcs {
		g.Nodes = append(g.Nodes, f.Name)
		for _, inst := range f.Insts {
			if c, ok := inst.(*ir.Call); ok && c.Callee != "" {
				g.Edges = append(g.Edges, lattice.Edge{
					Caller: f.Name,
					Callee: c.Callee,
				})
			}
		}
	}
	g.Dedup()
	return g
}
