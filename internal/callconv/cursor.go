package callconv

import (
	"fmt"

	"sigrec/internal/ir"
	"sigrec/internal/target"
)

// regCursor walks an ordered register list while assigning declared types
// to registers. An exhausted cursor means the convention ran out of
// registers for the signature.
type regCursor struct {
	regs []string
	i    int
}

func newRegCursor(regs []string) *regCursor {
	return &regCursor{regs: regs}
}

func (c *regCursor) next() (string, bool) {
	if c.i >= len(c.regs) {
		return "", false
	}
	name := c.regs[c.i]
	c.i++
	return name, true
}

// classifyType assigns one declared type to registers from cur, appending
// locations via add. Pointers classify as pointer-width unsigned integers;
// an integer of b bits consumes ceil(b/64) registers; void consumes none.
// Everything else, and cursor exhaustion, fails the whole signature.
func classifyType(m *target.Model, cur *regCursor, t ir.Type, add func(ValueLocation)) error {
	if _, ok := t.(ir.PtrType); ok {
		t = ir.IntType{Bits: m.PointerWidth()}
	}

	switch t := t.(type) {
	case ir.IntType:
		bits := t.Bits
		for bits > 0 {
			name, ok := cur.next()
			if !ok {
				return fmt.Errorf("%w: %d-bit integer needs more registers", ErrUnrepresentable, t.Bits)
			}
			r := m.RegisterNamed(name)
			if r == nil {
				return fmt.Errorf("callconv: unknown register %q in convention table", name)
			}
			add(RegisterLoc(r))
			if bits <= 64 {
				bits = 0
			} else {
				bits -= 64
			}
		}
		return nil
	case ir.VoidType:
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnrepresentable, t)
	}
}
