package callconv

import (
	"fmt"
	"sort"
	"strings"

	"sigrec/internal/ir"
	"sigrec/internal/target"
)

// Table is the declarative part of an x86-64 integer-register convention:
// which target/format pairs it applies to, the ordered argument and return
// register lists, and how many bytes above the entry stack pointer are
// reserved for the return address.
type Table struct {
	Name         string   `toml:"name"`
	Targets      []string `toml:"targets"`
	Formats      []string `toml:"formats"`
	ParamRegs    []string `toml:"param_regs"`
	RetRegs      []string `toml:"ret_regs"`
	RetAddrBytes int64    `toml:"ret_addr_bytes"`
}

// amd64Conv analyzes lifted x86-64 functions under a Table. The dataflow
// algorithm is shared; only the tables differ between ABIs.
type amd64Conv struct {
	tab Table
}

// NewConvention builds a convention from a table.
func NewConvention(tab Table) (Convention, error) {
	if tab.Name == "" {
		return nil, fmt.Errorf("callconv: convention table without a name")
	}
	if len(tab.ParamRegs) == 0 && len(tab.RetRegs) == 0 {
		return nil, fmt.Errorf("callconv: %s: no registers declared", tab.Name)
	}
	return &amd64Conv{tab: tab}, nil
}

// SysV is the x86-64 System V convention: integer arguments in
// rdi rsi rdx rcx r8 r9, integer returns in rax then rdx, return address at
// [rsp..rsp+8] on entry. Matches ELF executables.
func SysV() Convention {
	return &amd64Conv{tab: Table{
		Name:         "x86_64/sysv",
		Targets:      []string{"x86-64", "x86_64", "amd64"},
		Formats:      []string{"elf"},
		ParamRegs:    []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"},
		RetRegs:      []string{"rax", "rdx"},
		RetAddrBytes: 8,
	}}
}

// Win64 is the Microsoft x64 convention: integer arguments in
// rcx rdx r8 r9, integer return in rax. Matches PE executables.
func Win64() Convention {
	return &amd64Conv{tab: Table{
		Name:         "x86_64/win64",
		Targets:      []string{"x86-64", "x86_64", "amd64"},
		Formats:      []string{"pe"},
		ParamRegs:    []string{"rcx", "rdx", "r8", "r9"},
		RetRegs:      []string{"rax"},
		RetAddrBytes: 8,
	}}
}

func (c *amd64Conv) Name() string { return c.tab.Name }

func (c *amd64Conv) Matches(targetName, execFormat string) bool {
	var targetOK bool
	for _, t := range c.tab.Targets {
		if strings.EqualFold(t, targetName) {
			targetOK = true
			break
		}
	}
	if !targetOK {
		return false
	}
	format := strings.ToLower(execFormat)
	for _, f := range c.tab.Formats {
		if strings.HasPrefix(format, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// regAccesses indexes one function body: field addresses grouped by the
// widest overlapping register, and per-address loads, stores and
// constant-offset uses.
type regAccesses struct {
	addrs  map[*target.Reg][]*ir.FieldAddr
	loads  map[*ir.FieldAddr][]*ir.Load
	stores map[*ir.FieldAddr][]*ir.Store
	adds   map[ir.Value][]*ir.Add
}

func indexAccesses(m *target.Model, fn *ir.Func) *regAccesses {
	ra := &regAccesses{
		addrs:  make(map[*target.Reg][]*ir.FieldAddr),
		loads:  make(map[*ir.FieldAddr][]*ir.Load),
		stores: make(map[*ir.FieldAddr][]*ir.Store),
		adds:   make(map[ir.Value][]*ir.Add),
	}
	for _, inst := range fn.Insts {
		switch t := inst.(type) {
		case *ir.FieldAddr:
			if r, ok := m.RegisterForAccess(t.Field, t.Off, t.Width); ok {
				head := m.LargestOverlapping(r)
				ra.addrs[head] = append(ra.addrs[head], t)
			}
		case *ir.Load:
			ra.loads[t.Addr] = append(ra.loads[t.Addr], t)
		case *ir.Store:
			ra.stores[t.Addr] = append(ra.stores[t.Addr], t)
		case *ir.Add:
			ra.adds[t.X] = append(ra.adds[t.X], t)
		}
	}
	return ra
}

func (c *amd64Conv) namedHead(m *target.Model, name string) (*target.Reg, error) {
	r := m.RegisterNamed(name)
	if r == nil {
		return nil, fmt.Errorf("callconv: %s: unknown register %q", c.tab.Name, name)
	}
	return m.LargestOverlapping(r), nil
}

// AnalyzeFunction recovers a signature from a lifted body in three passes:
// reads of argument-order registers that observe entry memory are
// parameters; loads at constant offsets above the return-address slot are
// stack parameters; stored return-order registers are candidates, confirmed
// interprocedurally by the orchestrator.
func (c *amd64Conv) AnalyzeFunction(orch Orchestrator, fn *ir.Func) (*CallInformation, error) {
	if fn.NumArgs != 1 || fn.RegFileType != ir.RegFileAMD64 {
		return nil, fmt.Errorf("%w: %s has %d args of %q", ErrBadFunctionShape,
			fn.Name, fn.NumArgs, fn.RegFileType)
	}
	m := orch.Target()
	ra := indexAccesses(m, fn)
	ci := &CallInformation{}

	// Register parameters: a register is a parameter if any read of it (or
	// of a sub-register) sees the entry memory state. Emission follows the
	// convention's register order, not read order.
	for _, name := range c.tab.ParamRegs {
		head, err := c.namedHead(m, name)
		if err != nil {
			return nil, err
		}
		for _, fa := range ra.addrs[head] {
			for _, ld := range ra.loads[fa] {
				if orch.IsEntryState(ld.Mem) {
					ci.addParameter(RegisterLoc(head))
				}
			}
		}
	}

	// Stack parameters: constant offsets above the initial stack pointer,
	// past the return-address slot. Non-constant offsets are locals.
	spHead := m.LargestOverlapping(m.StackPointer())
	seen := make(map[int64]bool)
	var offsets []int64
	for _, fa := range ra.addrs[spHead] {
		for _, ld := range ra.loads[fa] {
			for _, add := range ra.adds[ld] {
				if add.K > c.tab.RetAddrBytes && !seen[add.K] {
					seen[add.K] = true
					offsets = append(offsets, add.K)
				}
			}
		}
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	for _, off := range offsets {
		ci.addParameter(StackLoc(off))
	}

	// Return values: a written return-order register is only a candidate —
	// the write may be unrelated temporary reuse. Keep the ones some caller
	// actually consumes.
	var candidates []*target.Reg
	for _, name := range c.tab.RetRegs {
		head, err := c.namedHead(m, name)
		if err != nil {
			return nil, err
		}
		for _, fa := range ra.addrs[head] {
			if len(ra.stores[fa]) > 0 {
				candidates = append(candidates, head)
				break
			}
		}
	}
	for _, r := range orch.UsedReturnRegisters(fn, candidates) {
		ci.addReturn(RegisterLoc(r))
	}

	return ci, nil
}

// AnalyzeFunctionType classifies a declared signature: the return type
// against a fresh cursor over the return registers, then each parameter in
// declaration order against one shared cursor over the argument registers.
func (c *amd64Conv) AnalyzeFunctionType(orch Orchestrator, ft *ir.FuncType) (*CallInformation, error) {
	m := orch.Target()
	ci := &CallInformation{}

	cur := newRegCursor(c.tab.RetRegs)
	if err := classifyType(m, cur, ft.Ret, func(loc ValueLocation) {
		ci.Returns = append(ci.Returns, loc)
	}); err != nil {
		return nil, err
	}

	cur = newRegCursor(c.tab.ParamRegs)
	for i, p := range ft.Params {
		if err := classifyType(m, cur, p, func(loc ValueLocation) {
			ci.Parameters = append(ci.Parameters, loc)
		}); err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
	}
	return ci, nil
}
