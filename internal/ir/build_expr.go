package ir

import (
	"fmt"
	"go/constant"

	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
	"github.com/you-not-fish/adlc/internal/types2"
)

// expr lowers an expression to a value.
func (b *builder) expr(e syntax.Expr) *Value {
	tv, ok := b.info.Types[e]
	if ok && tv.IsConstant() {
		return b.constValue(e, tv)
	}

	switch e := e.(type) {
	case *syntax.Name:
		return b.name(e)
	case *syntax.ParenExpr:
		return b.expr(e.X)
	case *syntax.Operation:
		if e.Y == nil {
			return b.unary(e)
		}
		return b.binary(e)
	case *syntax.CallExpr:
		return b.call(e)
	case *syntax.SliceExpr:
		return b.slice(e)
	case *syntax.SelectorExpr:
		x := b.expr(e.X)
		fld, ok := b.info.Uses[e.Sel].(*types.Field)
		if !ok {
			panic(fmt.Sprintf("ir.builder.expr: %s is not a field", e.Sel.Value))
		}
		return b.extract(x, fld, e.Pos())
	case *syntax.CastExpr:
		return b.cast(b.expr(e.X), b.typeOf(e), e.Pos())
	case *syntax.IfExpr:
		return b.ifExpr(e)
	default:
		panic(fmt.Sprintf("ir.builder.expr: unhandled %T", e))
	}
}

func (b *builder) typeOf(e syntax.Expr) types.Type {
	tv, ok := b.info.Types[e]
	if !ok || types.IsInvalid(tv.Type) {
		panic(fmt.Sprintf("ir.builder.typeOf: no type for %s", syntax.ExprString(e)))
	}
	return tv.Type
}

// constValue materializes a checked constant. Constants the context
// left untyped get the narrowest vector type holding them.
func (b *builder) constValue(e syntax.Expr, tv types2.TypeAndValue) *Value {
	val := tv.Value
	if val.Kind() == constant.Bool {
		return b.constBool(constant.BoolVal(val), e.Pos())
	}

	t := tv.Type
	if types.IsUntypedInt(t) {
		t = types.NewBits(types.MinWidth(val), constant.Sign(val) < 0)
	}
	if !types.IsVector(t) {
		panic(fmt.Sprintf("ir.builder.constValue: constant %s of type %s", val, t))
	}
	return b.constInt(val, t, e.Pos())
}

func (b *builder) constInt(val constant.Value, t types.Type, pos syntax.Pos) *Value {
	v := b.fn.NewValuePos(b.b, OpConst, t, pos)
	v.Aux = types.Wrap(val, types.Width(t), types.IsSigned(t))
	return v
}

func (b *builder) constBool(x bool, pos syntax.Pos) *Value {
	v := b.fn.NewValuePos(b.b, OpConstBool, types.Typ[types.Bool], pos)
	if x {
		v.AuxInt = 1
	}
	return v
}

func (b *builder) name(e *syntax.Name) *Value {
	switch obj := b.info.Uses[e].(type) {
	case *types.Var, *types.Field:
		v := b.vars[obj]
		if v == nil {
			panic(fmt.Sprintf("ir.builder.name: %s has no value", e.Value))
		}
		return v
	case *types.Reg:
		if obj.IsFile() {
			panic(fmt.Sprintf("ir.builder.name: register file %s used as a value", e.Value))
		}
		v := b.fn.NewValuePos(b.b, OpReg, obj.Type(), e.Pos())
		v.Aux = obj
		return v
	default:
		panic(fmt.Sprintf("ir.builder.name: unhandled %T for %s", obj, e.Value))
	}
}

// cond lowers a branch condition. A Bits<1> condition tests its bit.
func (b *builder) cond(e syntax.Expr) *Value {
	v := b.expr(e)
	if types.IsVector(v.Type) {
		return b.fn.NewValuePos(b.b, OpToBool, types.Typ[types.Bool], e.Pos(), v)
	}
	return v
}

// ----------------------------------------------------------------------------
// Operators

func (b *builder) unary(e *syntax.Operation) *Value {
	x := b.expr(e.X)
	t := b.typeOf(e)
	switch e.Op {
	case syntax.Not:
		return b.fn.NewValuePos(b.b, OpNot, t, e.Pos(), x)
	case syntax.Sub:
		return b.fn.NewValuePos(b.b, OpNeg, t, e.Pos(), x)
	case syntax.Tilde:
		return b.fn.NewValuePos(b.b, OpCom, t, e.Pos(), x)
	}
	panic(fmt.Sprintf("ir.builder.unary: unhandled operator %s", e.Op))
}

var compareOps = map[syntax.Token][2]Op{
	syntax.Eql: {OpEq, OpEq},
	syntax.Neq: {OpNeq, OpNeq},
	syntax.Lss: {OpLt, OpLtS},
	syntax.Leq: {OpLeq, OpLeqS},
	syntax.Gtr: {OpGt, OpGtS},
	syntax.Geq: {OpGeq, OpGeqS},
}

var arithOps = map[syntax.Token][2]Op{
	syntax.Add: {OpAdd, OpAdd},
	syntax.Sub: {OpSub, OpSub},
	syntax.Mul: {OpMul, OpMul},
	syntax.Div: {OpDiv, OpDivS},
	syntax.Rem: {OpMod, OpModS},
	syntax.And: {OpAnd, OpAnd},
	syntax.Or:  {OpOr, OpOr},
	syntax.Xor: {OpXor, OpXor},
}

// signedOp picks the signed variant of a pair when signed is set.
func signedOp(ops [2]Op, signed bool) Op {
	if signed {
		return ops[1]
	}
	return ops[0]
}

func (b *builder) binary(e *syntax.Operation) *Value {
	x := b.expr(e.X)
	y := b.expr(e.Y)
	t := b.typeOf(e)

	switch op := e.Op; {
	case op == syntax.AndAnd:
		return b.fn.NewValuePos(b.b, OpAndBool, t, e.Pos(), x, y)
	case op == syntax.OrOr:
		return b.fn.NewValuePos(b.b, OpOrBool, t, e.Pos(), x, y)

	case op == syntax.Shl:
		return b.fn.NewValuePos(b.b, OpShl, t, e.Pos(), x, y)
	case op == syntax.Shr:
		shr := OpShr
		if types.IsSigned(t) {
			shr = OpSar
		}
		return b.fn.NewValuePos(b.b, shr, t, e.Pos(), x, y)

	case op == syntax.Concat:
		return b.fn.NewValuePos(b.b, OpConcat, t, e.Pos(), x, y)

	case op.IsComparison():
		// mixed signedness compares unsigned
		signed := x.Signed() && y.Signed()
		return b.fn.NewValuePos(b.b, signedOp(compareOps[op], signed), t, e.Pos(), x, y)
	}

	ops, ok := arithOps[e.Op]
	if !ok {
		panic(fmt.Sprintf("ir.builder.binary: unhandled operator %s", e.Op))
	}
	return b.fn.NewValuePos(b.b, signedOp(ops, types.IsSigned(t)), t, e.Pos(), x, y)
}

// ----------------------------------------------------------------------------
// Calls and accesses

func (b *builder) call(e *syntax.CallExpr) *Value {
	t := b.typeOf(e)
	switch obj := b.callee(e.Fun).(type) {
	case *types.Builtin:
		x := b.expr(e.Args[0])
		return b.builtin(obj.Kind(), x, t, e.Pos())

	case *types.Reg, *types.Mem:
		lv := b.lvalueAccess(obj, e)
		return b.load(lv)

	case *types.Func:
		params := obj.Signature().Params()
		args := make([]*Value, len(e.Args))
		for i, a := range e.Args {
			args[i] = b.convert(b.expr(a), params[i].Type(), a.Pos())
		}
		v := b.fn.NewValuePos(b.b, OpCall, t, e.Pos(), args...)
		v.Aux = obj
		return v

	default:
		panic(fmt.Sprintf("ir.builder.call: unhandled callee %T", obj))
	}
}

// lvalueAccess lowers the index of R(i) or M(a).
func (b *builder) lvalueAccess(obj types.Object, e *syntax.CallExpr) *lvalue {
	s, ok := obj.Type().(*types.Storage)
	if !ok || len(e.Args) != 1 {
		panic(fmt.Sprintf("ir.builder.lvalueAccess: malformed access %s", syntax.ExprString(e)))
	}
	lv := &lvalue{typ: s.Elem(), pos: e.Pos()}
	switch obj := obj.(type) {
	case *types.Reg:
		lv.reg = obj
	case *types.Mem:
		lv.mem = obj
	}
	lv.index = b.convert(b.expr(e.Args[0]), s.Index(), e.Args[0].Pos())
	return lv
}

func (b *builder) builtin(kind types.BuiltinKind, x *Value, t types.Type, pos syntax.Pos) *Value {
	if x.Width() == types.Width(t) {
		return b.convert(x, t, pos)
	}
	var op Op
	switch kind {
	case types.BuiltinSext:
		op = OpSext
	case types.BuiltinZext:
		op = OpZext
	case types.BuiltinTrunc:
		op = OpTrunc
	default:
		panic(fmt.Sprintf("ir.builder.builtin: unhandled builtin %d", kind))
	}
	return b.fn.NewValuePos(b.b, op, t, pos, x)
}

// ----------------------------------------------------------------------------
// Bits and conversions

func (b *builder) slice(e *syntax.SliceExpr) *Value {
	x := b.expr(e.X)
	lo, ok := constant.Int64Val(b.info.Types[e.Lo].Value)
	if !ok {
		panic(fmt.Sprintf("ir.builder.slice: non-constant bound in %s", syntax.ExprString(e)))
	}
	v := b.fn.NewValuePos(b.b, OpSlice, b.typeOf(e), e.Pos(), x)
	v.AuxInt = lo
	return v
}

func (b *builder) extract(x *Value, fld *types.Field, pos syntax.Pos) *Value {
	lo, _, ok := fld.Range()
	if !ok {
		panic(fmt.Sprintf("ir.builder.extract: field %s is not placed", fld.Name()))
	}
	v := b.fn.NewValuePos(b.b, OpExtract, fld.Type(), pos, x)
	v.Aux = fld
	v.AuxInt = int64(lo)
	return v
}

// cast converts x to t: same width keeps the bits, a narrower type
// truncates, a wider type extends by the signedness of x, and Bool maps
// to and from 0 and 1.
func (b *builder) cast(x *Value, t types.Type, pos syntax.Pos) *Value {
	xb, tb := types.IsBoolean(x.Type), types.IsBoolean(t)
	switch {
	case xb && tb:
		return x
	case xb:
		return b.fn.NewValuePos(b.b, OpFromBool, t, pos, x)
	case tb:
		return b.fn.NewValuePos(b.b, OpToBool, t, pos, x)
	}

	switch w, wt := x.Width(), types.Width(t); {
	case w == wt:
		return b.convert(x, t, pos)
	case w > wt:
		return b.fn.NewValuePos(b.b, OpTrunc, t, pos, x)
	case x.Signed():
		return b.fn.NewValuePos(b.b, OpSext, t, pos, x)
	default:
		return b.fn.NewValuePos(b.b, OpZext, t, pos, x)
	}
}

// convert gives x the type t of its context. The checker guarantees
// that the widths agree.
func (b *builder) convert(x *Value, t types.Type, pos syntax.Pos) *Value {
	if types.Identical(x.Type, t) || types.IsBoolean(x.Type) && types.IsBoolean(t) {
		return x
	}
	if x.Width() != types.Width(t) {
		panic(fmt.Sprintf("ir.builder.convert: %s of %d bits to %s", x.Type, x.Width(), t))
	}
	if x.Op == OpConst && x.Uses == 0 {
		x.Type = t
		x.Aux = types.Wrap(x.Const(), types.Width(t), types.IsSigned(t))
		return x
	}
	return b.fn.NewValuePos(b.b, OpConvert, t, pos, x)
}

// ifExpr lowers a conditional expression to a select. Both arms are
// evaluated; they have no side effects. A constant condition picks its
// arm.
func (b *builder) ifExpr(e *syntax.IfExpr) *Value {
	t := b.typeOf(e)
	if tv := b.info.Types[e.Cond]; tv.IsConstant() {
		arm := e.Y
		if condTrue(tv.Value) {
			arm = e.X
		}
		return b.convert(b.expr(arm), t, e.Pos())
	}
	c := b.cond(e.Cond)
	x := b.convert(b.expr(e.X), t, e.X.Pos())
	y := b.convert(b.expr(e.Y), t, e.Y.Pos())
	return b.fn.NewValuePos(b.b, OpSelect, t, e.Pos(), c, x, y)
}

func condTrue(v constant.Value) bool {
	if v.Kind() == constant.Bool {
		return constant.BoolVal(v)
	}
	return constant.Sign(v) != 0
}
