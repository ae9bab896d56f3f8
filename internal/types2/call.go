package types2

import (
	"go/constant"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// call checks a function, relocation or builtin call and an access to a
// register file or memory element.
func (c *Checker) call(x *operand, e *syntax.CallExpr) {
	c.expr(x, e.Fun)
	switch x.mode {
	case invalid:
		c.useArgs(e.Args)
	case builtin:
		c.builtinCall(x, e)
	case storage:
		c.access(x, e)
	case function:
		c.funcCall(x, e)
	default:
		c.errorf(diag.TypeMismatch, e.Fun, "cannot call non-function %s", x)
		c.useArgs(e.Args)
		x.setInvalid()
	}
}

// useArgs checks arguments whose call is already known to be erroneous,
// so that errors inside them are still reported.
func (c *Checker) useArgs(args []syntax.Expr) {
	for _, a := range args {
		var y operand
		c.expr(&y, a)
	}
}

func (c *Checker) builtinCall(x *operand, e *syntax.CallExpr) {
	b := x.obj.(*types.Builtin)
	if len(e.Args) != 2 {
		c.errorf(diag.ArgumentCount, e, "%s expects 2 arguments, got %d", b.Name(), len(e.Args))
		c.useArgs(e.Args)
		x.setInvalid()
		return
	}

	var arg operand
	c.expr(&arg, e.Args[0])
	c.value(&arg)
	n, ok := c.width(e.Args[1])
	if arg.mode == invalid || !ok {
		x.setInvalid()
		return
	}
	if arg.isUntypedInt() {
		c.errorf(diag.TypeMismatch, e.Args[0], "%s of untyped constant %s; give it a width with as", b.Name(), arg.val)
		x.setInvalid()
		return
	}
	if !types.IsVector(arg.typ) {
		c.errorf(diag.TypeMismatch, e.Args[0], "%s requires a bit vector, not %s", b.Name(), &arg)
		x.setInvalid()
		return
	}

	w := arg.width()
	var t *types.Bits
	switch b.Kind() {
	case types.BuiltinSext, types.BuiltinZext:
		if n < w {
			c.errorf(diag.WidthOutOfRange, e, "cannot extend %s to %d bits", arg.typ, n)
			x.setInvalid()
			return
		}
		t = types.NewBits(n, b.Kind() == types.BuiltinSext)
	case types.BuiltinTrunc:
		if n > w {
			c.errorf(diag.WidthOutOfRange, e, "cannot truncate %s to %d bits", arg.typ, n)
			x.setInvalid()
			return
		}
		t = types.NewBits(n, types.IsSigned(arg.typ))
	}

	if arg.mode == constant_ {
		v := arg.val
		switch b.Kind() {
		case types.BuiltinSext:
			v = types.Wrap(v, w, true)
		case types.BuiltinZext:
			v = types.Wrap(v, w, false)
		}
		x.setConst(t, types.Wrap(v, n, t.Signed()))
		return
	}
	x.setValue(t)
}

// access checks R(i) and M(a).
func (c *Checker) access(x *operand, e *syntax.CallExpr) {
	s := x.typ.(*types.Storage)
	if len(e.Args) != 1 {
		c.errorf(diag.ArgumentCount, e, "%s takes exactly one index, got %d", x, len(e.Args))
		c.useArgs(e.Args)
		x.setInvalid()
		return
	}

	var i operand
	c.expr(&i, e.Args[0])
	c.value(&i)
	if i.mode == invalid {
		x.setInvalid()
		return
	}
	idx := s.Index()
	switch {
	case i.isUntypedInt():
		if constant.Sign(i.val) < 0 || !types.Representable(i.val, idx.Width()) {
			c.widthError(e.Args[0], "index %s does not fit in %s", i.val, idx)
			x.setInvalid()
			return
		}
		if r, ok := x.obj.(*types.Reg); ok && r.Size() > 0 {
			if n, exact := constant.Int64Val(i.val); !exact || n >= r.Size() {
				c.errorf(diag.WidthOutOfRange, e.Args[0], "index %s out of range for %s[%d]", i.val, r.Name(), r.Size())
				x.setInvalid()
				return
			}
		}
		c.convertUntyped(&i, idx)
	case !types.IsVector(i.typ):
		c.errorf(diag.TypeMismatch, e.Args[0], "index %s must be a bit vector", &i)
		x.setInvalid()
		return
	case i.width() != idx.Width():
		c.widthError(e.Args[0], "index %s has %d bits, %s is indexed by %s", &i, i.width(), x, idx)
		x.setInvalid()
		return
	}

	x.mode = variable
	x.typ = s.Elem()
	x.val = nil
}

func (c *Checker) funcCall(x *operand, e *syntax.CallExpr) {
	fn := x.obj.(*types.Func)
	sig := fn.Signature()
	if sig == nil {
		c.useArgs(e.Args)
		x.setInvalid()
		return
	}
	params := sig.Params()
	if len(e.Args) != len(params) {
		c.errorf(diag.ArgumentCount, e, "%s %s expects %d arguments, got %d",
			types.ObjectKind(fn), fn.Name(), len(params), len(e.Args))
		c.useArgs(e.Args)
		x.setInvalid()
		return
	}

	ok := true
	for i, a := range e.Args {
		var y operand
		c.expr(&y, a)
		c.value(&y)
		c.assignment(&y, params[i].Type(), "argument "+params[i].Name()+" of "+fn.Name())
		if y.mode == invalid {
			ok = false
		}
	}
	if !ok || types.IsInvalid(sig.Result()) {
		x.setInvalid()
		return
	}
	x.setValue(sig.Result())
}
