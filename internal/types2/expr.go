package types2

import (
	"fmt"
	"go/constant"
	"go/token"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// expr evaluates e into x and records the result.
func (c *Checker) expr(x *operand, e syntax.Expr) {
	c.exprInternal(x, e)
	c.record(x)
}

func (c *Checker) exprInternal(x *operand, e syntax.Expr) {
	*x = operand{mode: invalid, expr: e, typ: types.Typ[types.Invalid]}

	switch e := e.(type) {
	case *syntax.Name:
		c.ident(x, e)
	case *syntax.BasicLit:
		c.basicLit(x, e)
	case *syntax.Operation:
		if e.Y == nil {
			c.unary(x, e)
		} else {
			c.binary(x, e)
		}
	case *syntax.CallExpr:
		c.call(x, e)
	case *syntax.SliceExpr:
		c.slice(x, e)
	case *syntax.SelectorExpr:
		c.selector(x, e)
	case *syntax.ParenExpr:
		c.expr(x, e.X)
	case *syntax.CastExpr:
		c.cast(x, e)
	case *syntax.IfExpr:
		c.ifExpr(x, e)
	case *syntax.BitsType:
		c.bitsType(x, e)
	default:
		panic(fmt.Sprintf("types2: unexpected expression %T", e))
	}
	x.expr = e
}

func (c *Checker) ident(x *operand, name *syntax.Name) {
	obj := c.info.Uses[name]
	if obj == nil {
		// unresolved; already reported
		x.setInvalid()
		return
	}
	c.objDecl(obj)
	x.obj = obj
	typ := obj.Type()
	if typ == nil {
		x.setInvalid()
		return
	}

	switch obj := obj.(type) {
	case *types.Builtin:
		x.mode = builtin
		return
	case *types.Instr:
		c.errorf(diag.TypeMismatch, name, "instruction %s is not a value", name.Value)
		x.setInvalid()
		return
	case *types.Var:
		if v, ok := c.consts[obj]; ok {
			x.setConst(typ, v)
			return
		}
	}
	if types.IsInvalid(typ) {
		x.setInvalid()
		return
	}

	switch obj := obj.(type) {
	case *types.Const:
		x.setConst(typ, obj.Val())
	case *types.TypeName:
		x.mode = typexpr
		x.typ = typ
	case *types.Reg:
		x.typ = typ
		if obj.IsFile() {
			x.mode = storage
		} else {
			x.mode = variable
		}
	case *types.Mem:
		x.mode = storage
		x.typ = typ
	case *types.Func:
		x.mode = function
		x.typ = typ
	case *types.Field, *types.Var:
		x.setValue(typ)
	}
}

func (c *Checker) basicLit(x *operand, e *syntax.BasicLit) {
	if e.Kind == syntax.StringLit {
		c.errorf(diag.TypeMismatch, e, "string literal %q is not a value", e.Value)
		x.setInvalid()
		return
	}
	v := constant.MakeFromLiteral(e.Value, token.INT, 0)
	if v.Kind() == constant.Unknown {
		c.errorf(diag.InvalidOperation, e, "malformed integer literal %s", e.Value)
		x.setInvalid()
		return
	}
	x.setConst(types.Typ[types.UntypedInt], v)
}

// value reports an error if x does not denote a value.
func (c *Checker) value(x *operand) {
	switch x.mode {
	case invalid, constant_, variable, value:
		return
	case typexpr:
		c.errorf(diag.TypeMismatch, x.expr, "%s is a type, not a value", x)
	case storage:
		c.errorf(diag.TypeMismatch, x.expr, "%s must be indexed, as in %s(i)", x, x)
	case builtin, function:
		c.errorf(diag.TypeMismatch, x.expr, "%s must be called", x)
	}
	x.setInvalid()
}

// condition checks that x can select a branch: Bool or Bits<1>.
func (c *Checker) condition(x *operand) {
	if x.mode == invalid {
		return
	}
	if types.IsBoolean(x.typ) {
		c.convertUntyped(x, types.Typ[types.Bool])
		return
	}
	if types.IsVector(x.typ) && types.Width(x.typ) == 1 {
		return
	}
	c.errorf(diag.TypeMismatch, x.expr, "non-boolean condition %s", x)
	x.setInvalid()
}

// convertUntyped gives an untyped constant x the type t of its context.
// The caller has checked that x is representable.
func (c *Checker) convertUntyped(x *operand, t types.Type) {
	if x.mode != constant_ || !types.IsUntyped(x.typ) || types.IsUntyped(t) {
		return
	}
	switch {
	case types.IsVector(t) && types.IsUntypedInt(x.typ):
		x.val = types.Wrap(x.val, types.Width(t), types.IsSigned(t))
	case types.IsBoolean(t) && !types.IsUntypedInt(x.typ):
	default:
		return
	}
	x.typ = t
	c.recordConverted(x.expr, t, x.val)
}

// implicit converts the untyped integer constant x to the sized type t.
func (c *Checker) implicit(x *operand, t types.Type, at syntax.Node) bool {
	if !types.IsVector(t) {
		c.errorf(diag.TypeMismatch, at, "mismatched types: constant %s and %s", x.val, t)
		return false
	}
	if !types.Representable(x.val, types.Width(t)) {
		c.widthError(at, "constant %s does not fit in %s", x.val, t)
		return false
	}
	c.convertUntyped(x, t)
	return true
}

// numeric reports whether x can be an operand of an arithmetic,
// bitwise or ordered comparison operator.
func numeric(x *operand) bool {
	return types.IsVector(x.typ) || x.isUntypedInt()
}

// matchWidths makes the widths of x and y agree, converting an untyped
// constant operand to the type of the other side.
func (c *Checker) matchWidths(x, y *operand, e *syntax.Operation) bool {
	xu, yu := x.isUntypedInt(), y.isUntypedInt()
	switch {
	case xu && yu:
		return true
	case xu:
		return c.implicit(x, y.typ, e)
	case yu:
		return c.implicit(y, x.typ, e)
	}
	if types.Width(x.typ) != types.Width(y.typ) {
		c.widthError(e, "mismatched widths in %s: %s and %s", syntax.ExprString(e), x.typ, y.typ)
		return false
	}
	return true
}

// resultType is the type of an arithmetic or bitwise operation on two
// sized operands of equal width: unsigned unless both are signed.
func resultType(x, y types.Type) types.Type {
	bx, by := types.AsBits(x), types.AsBits(y)
	if types.Identical(bx, by) {
		return bx
	}
	return types.NewBits(bx.Width(), bx.Signed() && by.Signed())
}

// ----------------------------------------------------------------------------
// Operators

func (c *Checker) unary(x *operand, e *syntax.Operation) {
	c.expr(x, e.X)
	c.value(x)
	if x.mode == invalid {
		return
	}

	switch e.Op {
	case syntax.Not:
		if !types.IsBoolean(x.typ) {
			c.errorf(diag.TypeMismatch, e, "operator ! not defined on %s", x)
			x.setInvalid()
			return
		}
		if x.mode == constant_ {
			x.val = constant.UnaryOp(token.NOT, x.val, 0)
			return
		}
		x.setValue(types.Typ[types.Bool])

	case syntax.Sub, syntax.Tilde:
		if x.isUntypedInt() {
			if e.Op == syntax.Tilde {
				c.invalidOp(e, "cannot complement untyped constant %s; give it a width with as", x.val)
				x.setInvalid()
				return
			}
			x.val = constant.UnaryOp(token.SUB, x.val, 0)
			return
		}
		if !types.IsVector(x.typ) {
			c.errorf(diag.TypeMismatch, e, "operator %s not defined on %s", e.Op, x)
			x.setInvalid()
			return
		}
		t := types.AsBits(x.typ)
		if x.mode == constant_ {
			op := token.SUB
			if e.Op == syntax.Tilde {
				op = token.XOR
			}
			x.setConst(t, types.Wrap(constant.UnaryOp(op, x.val, 0), t.Width(), t.Signed()))
			return
		}
		x.setValue(t)

	default:
		panic(fmt.Sprintf("types2: unknown unary operator %s", e.Op))
	}
}

func (c *Checker) binary(x *operand, e *syntax.Operation) {
	var y operand
	c.expr(x, e.X)
	c.expr(&y, e.Y)
	c.value(x)
	c.value(&y)
	if x.mode == invalid || y.mode == invalid {
		x.setInvalid()
		return
	}

	switch op := e.Op; {
	case op == syntax.AndAnd || op == syntax.OrOr:
		c.logical(x, &y, e)
	case op == syntax.Shl || op == syntax.Shr:
		c.shift(x, &y, e)
	case op == syntax.Concat:
		c.concat(x, &y, e)
	case op.IsComparison():
		c.comparison(x, &y, e)
	default:
		c.arith(x, &y, e)
	}
}

func (c *Checker) logical(x, y *operand, e *syntax.Operation) {
	if !types.IsBoolean(x.typ) || !types.IsBoolean(y.typ) {
		c.errorf(diag.TypeMismatch, e, "operator %s requires Bool operands, got %s and %s", e.Op, x.typ, y.typ)
		x.setInvalid()
		return
	}
	if x.mode == constant_ && y.mode == constant_ {
		op := token.LAND
		if e.Op == syntax.OrOr {
			op = token.LOR
		}
		t := types.Type(types.Typ[types.UntypedBool])
		if !types.IsUntyped(x.typ) || !types.IsUntyped(y.typ) {
			t = types.Typ[types.Bool]
		}
		x.setConst(t, constant.BinaryOp(x.val, op, y.val))
		return
	}
	c.convertUntyped(x, types.Typ[types.Bool])
	c.convertUntyped(y, types.Typ[types.Bool])
	x.setValue(types.Typ[types.Bool])
}

var arithOps = map[syntax.Token]token.Token{
	syntax.Add: token.ADD,
	syntax.Sub: token.SUB,
	syntax.Mul: token.MUL,
	syntax.Div: token.QUO_ASSIGN, // integer division
	syntax.Rem: token.REM,
	syntax.And: token.AND,
	syntax.Or:  token.OR,
	syntax.Xor: token.XOR,
}

func (c *Checker) arith(x, y *operand, e *syntax.Operation) {
	op, ok := arithOps[e.Op]
	if !ok {
		panic(fmt.Sprintf("types2: unknown binary operator %s", e.Op))
	}
	if !numeric(x) || !numeric(y) {
		c.errorf(diag.TypeMismatch, e, "operator %s not defined on %s and %s", e.Op, x.typ, y.typ)
		x.setInvalid()
		return
	}
	if !c.matchWidths(x, y, e) {
		x.setInvalid()
		return
	}

	if x.isUntypedInt() {
		// both untyped
		if v := c.fold(x.val, op, y.val, e); v != nil {
			x.val = v
			return
		}
		x.setInvalid()
		return
	}

	t := resultType(x.typ, y.typ)
	if x.mode == constant_ && y.mode == constant_ {
		b := t.(*types.Bits)
		xv := types.Wrap(x.val, b.Width(), b.Signed())
		yv := types.Wrap(y.val, b.Width(), b.Signed())
		if v := c.fold(xv, op, yv, e); v != nil {
			x.setConst(t, types.Wrap(v, b.Width(), b.Signed()))
			return
		}
		x.setInvalid()
		return
	}
	x.setValue(t)
}

// fold evaluates a constant arithmetic or bitwise operation.
func (c *Checker) fold(x constant.Value, op token.Token, y constant.Value, e syntax.Node) constant.Value {
	if (op == token.QUO_ASSIGN || op == token.REM) && constant.Sign(y) == 0 {
		c.invalidOp(e, "division by zero")
		return nil
	}
	return constant.BinaryOp(x, op, y)
}

func (c *Checker) shift(x, y *operand, e *syntax.Operation) {
	if !numeric(y) {
		c.errorf(diag.TypeMismatch, e.Y, "shift count %s must be a bit vector or an integer constant", y)
		x.setInvalid()
		return
	}
	var count uint
	if y.mode == constant_ {
		if y.isUntypedInt() && constant.Sign(y.val) < 0 {
			c.invalidOp(e.Y, "negative shift count %s", y.val)
			x.setInvalid()
			return
		}
		n, exact := constant.Uint64Val(types.Wrap(y.val, max(types.MinWidth(y.val), y.width()), false))
		if !exact || n > maxWidth {
			c.invalidOp(e.Y, "shift count %s too large", y.val)
			x.setInvalid()
			return
		}
		count = uint(n)
	}

	if x.isUntypedInt() {
		if y.mode != constant_ {
			c.invalidOp(e, "shifted operand %s must be sized", x.val)
			x.setInvalid()
			return
		}
		x.val = constant.Shift(x.val, shiftOp(e.Op), count)
		return
	}
	if !types.IsVector(x.typ) {
		c.errorf(diag.TypeMismatch, e, "operator %s not defined on %s", e.Op, x.typ)
		x.setInvalid()
		return
	}

	t := types.AsBits(x.typ)
	if y.isUntypedInt() {
		// give the count a width for lowering
		ct := types.Type(t)
		if !types.Representable(y.val, t.Width()) {
			ct = types.NewBits(types.MinWidth(y.val), false)
		}
		c.convertUntyped(y, types.AsBits(ct))
	}
	if x.mode == constant_ && y.mode == constant_ {
		v := constant.Shift(types.Wrap(x.val, t.Width(), t.Signed()), shiftOp(e.Op), count)
		x.setConst(t, types.Wrap(v, t.Width(), t.Signed()))
		return
	}
	x.setValue(t)
}

func shiftOp(op syntax.Token) token.Token {
	if op == syntax.Shl {
		return token.SHL
	}
	return token.SHR
}

func (c *Checker) concat(x, y *operand, e *syntax.Operation) {
	for _, z := range []*operand{x, y} {
		if z.isUntypedInt() {
			c.errorf(diag.TypeMismatch, z.expr, "cannot concatenate untyped constant %s; give it a width with as", z.val)
			x.setInvalid()
			return
		}
		if !types.IsVector(z.typ) {
			c.errorf(diag.TypeMismatch, z.expr, "cannot concatenate %s", z)
			x.setInvalid()
			return
		}
	}
	wx, wy := x.width(), y.width()
	if wx+wy > maxWidth {
		c.errorf(diag.WidthOutOfRange, e, "concatenation is %d bits wide, more than %d", wx+wy, maxWidth)
		x.setInvalid()
		return
	}
	t := types.NewBits(wx+wy, false)
	if x.mode == constant_ && y.mode == constant_ {
		hi := constant.Shift(types.Wrap(x.val, wx, false), token.SHL, uint(wy))
		x.setConst(t, constant.BinaryOp(hi, token.OR, types.Wrap(y.val, wy, false)))
		return
	}
	x.setValue(t)
}

var compareOps = map[syntax.Token]token.Token{
	syntax.Eql: token.EQL,
	syntax.Neq: token.NEQ,
	syntax.Lss: token.LSS,
	syntax.Leq: token.LEQ,
	syntax.Gtr: token.GTR,
	syntax.Geq: token.GEQ,
}

func (c *Checker) comparison(x, y *operand, e *syntax.Operation) {
	op := compareOps[e.Op]
	untyped := types.IsUntyped(x.typ) && types.IsUntyped(y.typ)

	switch {
	case types.IsBoolean(x.typ) && types.IsBoolean(y.typ):
		if op != token.EQL && op != token.NEQ {
			c.invalidOp(e, "operator %s not defined on %s", e.Op, x.typ)
			x.setInvalid()
			return
		}
		if !untyped {
			c.convertUntyped(x, types.Typ[types.Bool])
			c.convertUntyped(y, types.Typ[types.Bool])
		}

	case numeric(x) && numeric(y):
		if !c.matchWidths(x, y, e) {
			x.setInvalid()
			return
		}
		if !untyped && types.IsSigned(x.typ) != types.IsSigned(y.typ) {
			c.errorf(diag.SignednessMismatch, e, "comparison of %s and %s mixes signedness; compared as unsigned", x.typ, y.typ)
		}

	default:
		c.errorf(diag.TypeMismatch, e, "mismatched types %s and %s in %s", x.typ, y.typ, syntax.ExprString(e))
		x.setInvalid()
		return
	}

	t := types.Type(types.Typ[types.Bool])
	if untyped {
		t = types.Typ[types.UntypedBool]
	}
	if x.mode == constant_ && y.mode == constant_ {
		xv, yv := x.val, y.val
		if !untyped && types.IsVector(x.typ) && types.IsSigned(x.typ) != types.IsSigned(y.typ) {
			xv = types.Wrap(xv, x.width(), false)
			yv = types.Wrap(yv, y.width(), false)
		}
		x.setConst(t, constant.MakeBool(constant.Compare(xv, op, yv)))
		return
	}
	x.setValue(t)
}

// ----------------------------------------------------------------------------
// Slices, fields, conversions

func (c *Checker) slice(x *operand, e *syntax.SliceExpr) {
	c.expr(x, e.X)
	c.value(x)
	if x.mode == invalid {
		c.constInt(e.Lo, "slice bound")
		if e.Hi != nil {
			c.constInt(e.Hi, "slice bound")
		}
		return
	}
	if !types.IsVector(x.typ) {
		if x.isUntypedInt() {
			c.errorf(diag.TypeMismatch, e, "cannot slice untyped constant %s; give it a width with as", x.val)
		} else {
			c.errorf(diag.TypeMismatch, e, "cannot slice %s", x)
		}
		x.setInvalid()
		return
	}

	w := int64(x.width())
	lo, ok := c.constInt(e.Lo, "slice bound")
	hi := lo + 1
	if e.Hi != nil {
		var okHi bool
		hi, okHi = c.constInt(e.Hi, "slice bound")
		ok = ok && okHi
	}
	if !ok {
		x.setInvalid()
		return
	}
	if lo < 0 || lo >= hi || hi > w {
		if e.Hi == nil {
			c.errorf(diag.WidthOutOfRange, e, "bit %d out of range for %s", lo, x.typ)
		} else {
			c.errorf(diag.WidthOutOfRange, e, "slice [%d:%d] out of range for %s", lo, hi, x.typ)
		}
		x.setInvalid()
		return
	}

	t := types.NewBits(int(hi-lo), false)
	if x.mode == constant_ {
		v := constant.Shift(types.Wrap(x.val, int(w), false), token.SHR, uint(lo))
		x.setConst(t, types.Wrap(v, t.Width(), false))
		return
	}
	x.setValue(t)
}

func (c *Checker) selector(x *operand, e *syntax.SelectorExpr) {
	c.expr(x, e.X)
	c.value(x)
	if x.mode == invalid {
		return
	}
	f, ok := x.typ.(*types.Format)
	if !ok {
		c.errorf(diag.TypeMismatch, e, "%s has no fields", x)
		x.setInvalid()
		return
	}
	fld := f.Lookup(e.Sel.Value)
	if fld == nil {
		c.errorf(diag.UnknownField, e.Sel, "%s is not a field of format %s", e.Sel.Value, f)
		x.setInvalid()
		return
	}
	c.uses[e.Sel] = fld
	if types.IsInvalid(fld.Type()) {
		x.setInvalid()
		return
	}
	if x.mode == variable {
		x.typ = fld.Type()
		x.val = nil
	} else {
		x.setValue(fld.Type())
	}
	x.obj = fld
}

func (c *Checker) cast(x *operand, e *syntax.CastExpr) {
	c.expr(x, e.X)
	c.value(x)
	t := c.typExpr(e.Type)
	if x.mode == invalid || types.IsInvalid(t) {
		x.setInvalid()
		return
	}
	toBool := types.Identical(t, types.Typ[types.Bool])
	if !toBool && !types.IsVector(t) {
		c.errorf(diag.TypeMismatch, e.Type, "cannot convert to %s", t)
		x.setInvalid()
		return
	}
	if !numeric(x) && !types.IsBoolean(x.typ) {
		c.errorf(diag.TypeMismatch, e, "cannot convert %s to %s", x, t)
		x.setInvalid()
		return
	}

	if x.mode != constant_ {
		x.setValue(t)
		return
	}
	v := x.val
	if v.Kind() == constant.Bool {
		v = constant.MakeInt64(0)
		if constant.BoolVal(x.val) {
			v = constant.MakeInt64(1)
		}
	}
	if toBool {
		x.setConst(t, constant.MakeBool(constant.Sign(v) != 0))
		return
	}
	x.setConst(t, types.Wrap(v, types.Width(t), types.IsSigned(t)))
}

func (c *Checker) ifExpr(x *operand, e *syntax.IfExpr) {
	var cond, y operand
	c.expr(&cond, e.Cond)
	c.value(&cond)
	c.condition(&cond)
	c.expr(x, e.X)
	c.value(x)
	c.expr(&y, e.Y)
	c.value(&y)
	if cond.mode == invalid || x.mode == invalid || y.mode == invalid {
		x.setInvalid()
		return
	}

	var t types.Type
	switch {
	case types.IsBoolean(x.typ) && types.IsBoolean(y.typ):
		t = types.Typ[types.UntypedBool]
		if !types.IsUntyped(x.typ) || !types.IsUntyped(y.typ) {
			t = types.Typ[types.Bool]
			c.convertUntyped(x, t)
			c.convertUntyped(&y, t)
		}
	case numeric(x) && numeric(&y):
		if x.isUntypedInt() && y.isUntypedInt() {
			if cond.mode != constant_ {
				c.errorf(diag.TypeMismatch, e, "cannot infer the width of %s; give a branch a width with as", syntax.ExprString(e))
				x.setInvalid()
				return
			}
			t = types.Typ[types.UntypedInt]
			break
		}
		if !c.matchWidthsAt(x, &y, e) {
			x.setInvalid()
			return
		}
		t = resultType(x.typ, y.typ)
	default:
		c.errorf(diag.TypeMismatch, e, "mismatched branch types %s and %s", x.typ, y.typ)
		x.setInvalid()
		return
	}

	if cond.mode == constant_ {
		pick := x
		if !condTrue(cond.val) {
			pick = &y
		}
		if pick.mode == constant_ {
			v := pick.val
			if types.IsVector(t) {
				v = types.Wrap(v, types.Width(t), types.IsSigned(t))
			}
			x.setConst(t, v)
			return
		}
	}
	x.setValue(t)
}

// matchWidthsAt is matchWidths for the branches of a conditional.
func (c *Checker) matchWidthsAt(x, y *operand, e *syntax.IfExpr) bool {
	switch {
	case x.isUntypedInt():
		return c.implicit(x, y.typ, e)
	case y.isUntypedInt():
		return c.implicit(y, x.typ, e)
	}
	if x.width() != y.width() {
		c.widthError(e, "mismatched branch widths: %s and %s", x.typ, y.typ)
		return false
	}
	return true
}

func condTrue(v constant.Value) bool {
	if v.Kind() == constant.Bool {
		return constant.BoolVal(v)
	}
	return constant.Sign(v) != 0
}
