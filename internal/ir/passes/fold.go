package passes

import (
	"go/constant"
	"go/token"

	"github.com/you-not-fish/adlc/internal/ir"
	"github.com/you-not-fish/adlc/internal/types"
)

// Fold replaces values whose arguments are all constants by the
// constant they compute. Division and remainder are left to the target,
// which defines division by zero.
func Fold(f *ir.Func) {
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if len(v.Args) == 0 || !allConst(v.Args) {
				continue
			}
			fold(v)
		}
	}
}

func allConst(args []*ir.Value) bool {
	for _, a := range args {
		if a.Op != ir.OpConst && a.Op != ir.OpConstBool {
			return false
		}
	}
	return true
}

// bits returns the constant of x under the given interpretation.
func bits(x *ir.Value, signed bool) constant.Value {
	return types.Wrap(x.Const(), x.Width(), signed)
}

func boolOf(x *ir.Value) bool { return x.AuxInt != 0 }

var binOps = map[ir.Op]token.Token{
	ir.OpAdd: token.ADD,
	ir.OpSub: token.SUB,
	ir.OpMul: token.MUL,
	ir.OpAnd: token.AND,
	ir.OpOr:  token.OR,
	ir.OpXor: token.XOR,
}

var cmpOps = map[ir.Op]struct {
	tok    token.Token
	signed bool
}{
	ir.OpEq:   {token.EQL, false},
	ir.OpNeq:  {token.NEQ, false},
	ir.OpLt:   {token.LSS, false},
	ir.OpLeq:  {token.LEQ, false},
	ir.OpGt:   {token.GTR, false},
	ir.OpGeq:  {token.GEQ, false},
	ir.OpLtS:  {token.LSS, true},
	ir.OpLeqS: {token.LEQ, true},
	ir.OpGtS:  {token.GTR, true},
	ir.OpGeqS: {token.GEQ, true},
}

func fold(v *ir.Value) {
	w := v.Width()
	a := v.Args

	if op, ok := binOps[v.Op]; ok {
		toConst(v, constant.BinaryOp(bits(a[0], false), op, bits(a[1], false)))
		return
	}
	if c, ok := cmpOps[v.Op]; ok {
		if a[0].Op == ir.OpConstBool {
			eq := boolOf(a[0]) == boolOf(a[1])
			toBool(v, eq == (c.tok == token.EQL))
			return
		}
		toBool(v, constant.Compare(bits(a[0], c.signed), c.tok, bits(a[1], c.signed)))
		return
	}

	switch v.Op {
	case ir.OpNeg:
		toConst(v, constant.UnaryOp(token.SUB, bits(a[0], false), 0))
	case ir.OpCom:
		toConst(v, constant.UnaryOp(token.XOR, bits(a[0], false), uint(w)))

	case ir.OpShl, ir.OpShr, ir.OpSar:
		n, exact := constant.Uint64Val(bits(a[1], false))
		if !exact || n > uint64(w) {
			n = uint64(w)
		}
		switch v.Op {
		case ir.OpShl:
			toConst(v, constant.Shift(bits(a[0], false), token.SHL, uint(n)))
		case ir.OpShr:
			toConst(v, constant.Shift(bits(a[0], false), token.SHR, uint(n)))
		case ir.OpSar:
			toConst(v, constant.Shift(bits(a[0], true), token.SHR, uint(n)))
		}

	case ir.OpZext, ir.OpTrunc, ir.OpConvert:
		toConst(v, bits(a[0], false))
	case ir.OpSext:
		toConst(v, bits(a[0], true))

	case ir.OpSlice:
		toConst(v, constant.Shift(bits(a[0], false), token.SHR, uint(v.AuxInt)))
	case ir.OpExtract:
		toConst(v, constant.Shift(bits(a[0], false), token.SHR, uint(v.AuxInt)))
	case ir.OpConcat:
		hi := constant.Shift(bits(a[0], false), token.SHL, uint(a[1].Width()))
		toConst(v, constant.BinaryOp(hi, token.OR, bits(a[1], false)))

	case ir.OpNot:
		toBool(v, !boolOf(a[0]))
	case ir.OpAndBool:
		toBool(v, boolOf(a[0]) && boolOf(a[1]))
	case ir.OpOrBool:
		toBool(v, boolOf(a[0]) || boolOf(a[1]))
	case ir.OpToBool:
		toBool(v, constant.Sign(a[0].Const()) != 0)
	case ir.OpFromBool:
		n := int64(0)
		if boolOf(a[0]) {
			n = 1
		}
		toConst(v, constant.MakeInt64(n))
	}
}

// toConst turns v into a constant, wrapping c to v's type.
func toConst(v *ir.Value, c constant.Value) {
	v.SetArgs(nil)
	v.Op = ir.OpConst
	v.Aux = types.Wrap(c, v.Width(), v.Signed())
	v.AuxInt = 0
}

func toBool(v *ir.Value, x bool) {
	v.SetArgs(nil)
	v.Op = ir.OpConstBool
	v.Aux = nil
	v.AuxInt = 0
	if x {
		v.AuxInt = 1
	}
}
