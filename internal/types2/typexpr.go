package types2

import (
	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// typExpr evaluates e as a type. It returns the invalid type, after
// reporting, if e does not denote one.
func (c *Checker) typExpr(e syntax.Expr) types.Type {
	var x operand
	c.exprInternal(&x, e)
	switch x.mode {
	case invalid:
		return types.Typ[types.Invalid]
	case typexpr:
		c.record(&x)
		if x.typ == nil {
			// the type of a declaration on a cycle
			return types.Typ[types.Invalid]
		}
		return x.typ
	}
	c.errorf(diag.TypeMismatch, e, "%s is not a type", &x)
	return types.Typ[types.Invalid]
}

// vectorType evaluates e as a bit vector or format type.
func (c *Checker) vectorType(e syntax.Expr, what string) types.Type {
	t := c.typExpr(e)
	if types.IsInvalid(t) || types.IsVector(t) {
		return t
	}
	c.errorf(diag.TypeMismatch, e, "%s type must be a bit vector or a format, not %s", what, t)
	return types.Typ[types.Invalid]
}

// valueType evaluates e as the type of a parameter or result, which may
// also be Bool.
func (c *Checker) valueType(e syntax.Expr, what string) types.Type {
	t := c.typExpr(e)
	if types.IsInvalid(t) || types.IsVector(t) || types.Identical(t, types.Typ[types.Bool]) {
		return t
	}
	c.errorf(diag.TypeMismatch, e, "%s type must be a bit vector, a format or Bool, not %s", what, t)
	return types.Typ[types.Invalid]
}

// bitsType evaluates Bits<N>, UInt<N> and SInt<N>.
func (c *Checker) bitsType(x *operand, e *syntax.BitsType) {
	w, ok := c.width(e.Width)
	if !ok {
		x.setInvalid()
		return
	}
	x.mode = typexpr
	x.typ = types.NewBits(w, e.Kind.Value == "SInt")
}
