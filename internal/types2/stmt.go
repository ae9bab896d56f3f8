package types2

import (
	"go/constant"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

func (c *Checker) stmtList(list []syntax.Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *Checker) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.EmptyStmt:

	case *syntax.BlockStmt:
		c.stmtList(s.Stmts)

	case *syntax.IfStmt:
		var x operand
		c.expr(&x, s.Cond)
		c.value(&x)
		c.condition(&x)
		if s.Then != nil {
			c.stmtList(s.Then.Stmts)
		}
		if s.Else != nil {
			c.stmt(s.Else)
		}

	case *syntax.LetStmt:
		var x operand
		c.expr(&x, s.Value)
		c.value(&x)
		v, _ := c.info.Defs[s.Name].(*types.Var)
		if v == nil {
			return
		}
		if x.mode == invalid {
			v.SetType(types.Typ[types.Invalid])
			return
		}
		if x.mode == constant_ && types.IsUntyped(x.typ) {
			if c.consts == nil {
				c.consts = make(map[*types.Var]constant.Value)
			}
			c.consts[v] = x.val
		}
		v.SetType(x.typ)

	case *syntax.AssignStmt:
		c.assign(s)

	case *syntax.ExprStmt:
		var x operand
		c.expr(&x, s.X)
		if x.mode != invalid {
			c.invalidOp(s, "%s is not used", syntax.ExprString(s.X))
		}
	}
}

func (c *Checker) assign(s *syntax.AssignStmt) {
	var lhs, rhs operand
	c.expr(&lhs, s.LHS)
	c.expr(&rhs, s.RHS)
	c.value(&rhs)
	if lhs.mode == invalid {
		return
	}
	if lhs.mode != variable {
		c.notAssignable(&lhs)
		return
	}
	c.assignment(&rhs, lhs.typ, "assignment")
}

func (c *Checker) notAssignable(x *operand) {
	what := syntax.ExprString(x.expr)
	switch obj := x.obj.(type) {
	case *types.Field:
		if _, sel := unparen(x.expr).(*syntax.SelectorExpr); !sel {
			c.errorf(diag.NotAssignable, x.expr, "cannot assign to format field %s", what)
			return
		}
	case *types.Var:
		if obj.IsParam() {
			c.errorf(diag.NotAssignable, x.expr, "cannot assign to parameter %s", what)
		} else {
			c.errorf(diag.NotAssignable, x.expr, "cannot assign to let-bound %s", what)
		}
		return
	case *types.Const:
		c.errorf(diag.NotAssignable, x.expr, "cannot assign to constant %s", what)
		return
	}
	switch unparen(x.expr).(type) {
	case *syntax.SliceExpr:
		c.errorf(diag.NotAssignable, x.expr, "cannot assign to slice %s", what)
	default:
		c.errorf(diag.NotAssignable, x.expr, "cannot assign to %s", x)
	}
}

func unparen(e syntax.Expr) syntax.Expr {
	for {
		p, ok := e.(*syntax.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

// assignment checks that x can be stored into a location of type t.
// Sized values must match the width exactly; untyped constants must be
// representable. An untyped x is converted to t.
func (c *Checker) assignment(x *operand, t types.Type, context string) {
	if x.mode == invalid {
		return
	}
	if types.IsInvalid(t) {
		x.setInvalid()
		return
	}

	switch {
	case types.IsBoolean(t):
		if !types.IsBoolean(x.typ) {
			c.errorf(diag.TypeMismatch, x.expr, "cannot use %s as %s in %s", x, t, context)
			x.setInvalid()
			return
		}
	case types.IsVector(t):
		switch {
		case x.isUntypedInt():
			if !types.Representable(x.val, types.Width(t)) {
				c.widthError(x.expr, "constant %s overflows %s in %s", x.val, t, context)
				x.setInvalid()
				return
			}
		case !types.IsVector(x.typ):
			c.errorf(diag.TypeMismatch, x.expr, "cannot use %s as %s in %s", x, t, context)
			x.setInvalid()
			return
		case x.width() != types.Width(t):
			c.widthError(x.expr, "cannot use %s as %s in %s: width %d, want %d", x, t, context, x.width(), types.Width(t))
			x.setInvalid()
			return
		}
	default:
		c.errorf(diag.TypeMismatch, x.expr, "cannot assign to a location of type %s", t)
		x.setInvalid()
		return
	}
	c.convertUntyped(x, t)
}
