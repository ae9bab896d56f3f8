package iss

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/adlc/internal/ir"
	"github.com/you-not-fish/adlc/internal/rtabi"
	"github.com/you-not-fish/adlc/internal/types"
)

// generator lowers IR bodies to C.
type generator struct {
	e      *emitter
	prefix string
	state  string // C type of the state pointer's target
}

// signature returns the C declarator of a lowered body.
func (g *generator) signature(fn *ir.Func) string {
	state := g.state + " *s"
	switch fn.Kind {
	case ir.FuncInstr:
		return fmt.Sprintf("static void exec_%s(%s, %s insn)", fn.Name, state, rtabi.CTypeInsn)
	}

	params := []string{state}
	for _, p := range fn.Sig.Params() {
		params = append(params, fmt.Sprintf("%s p_%s", cType(p.Type()), p.Name()))
	}
	ret := cType(fn.Sig.Result())
	if fn.Kind == ir.FuncRelocation {
		return fmt.Sprintf("%s %s(%s)", ret, rtabi.Sym(rtabi.FnReloc, g.prefix, fn.Name), strings.Join(params, ", "))
	}
	return fmt.Sprintf("static %s fn_%s(%s)", ret, fn.Name, strings.Join(params, ", "))
}

// lowerFunc emits the C definition of a single IR body.
func (g *generator) lowerFunc(fn *ir.Func) {
	g.e.emit("%s", g.signature(fn))
	g.e.emit("{")
	g.declare(fn)
	for _, b := range fn.Blocks {
		g.lowerBlock(b)
	}
	g.e.emit("}")
}

// declare emits the locals of fn: one per computed value, grouped by C
// type. Constants and parameters are inlined at their uses.
func (g *generator) declare(fn *ir.Func) {
	var vals, bools []string
	fn.Walk(func(v *ir.Value) {
		if v.Op.IsVoid() || inlined(v) {
			return
		}
		if types.IsBoolean(v.Type) {
			bools = append(bools, valueName(v))
		} else {
			vals = append(vals, valueName(v))
		}
	})
	if len(vals) > 0 {
		g.e.emitInst("%s %s;", rtabi.CTypeValue, strings.Join(vals, ", "))
	}
	if len(bools) > 0 {
		g.e.emitInst("%s %s;", rtabi.CTypeBool, strings.Join(bools, ", "))
	}
	g.e.emitInst("(void)s;")
	if fn.Kind == ir.FuncInstr {
		g.e.emitInst("(void)insn;")
	}
}

func inlined(v *ir.Value) bool {
	switch v.Op {
	case ir.OpConst, ir.OpConstBool, ir.OpArg:
		return true
	}
	return false
}

// lowerBlock emits a single basic block. Only blocks that are jumped to
// get a label.
func (g *generator) lowerBlock(b *ir.Block) {
	if len(b.Preds) > 0 {
		g.e.emitLabel(b)
	}
	for _, v := range b.Values {
		g.lowerValue(v)
	}
	g.lowerTerminator(b)
}

// lowerValue emits the C statement of a single IR value.
func (g *generator) lowerValue(v *ir.Value) {
	if inlined(v) {
		return
	}
	w := v.Width()
	m := lit(mask(w))
	arg := func(i int) string { return g.operand(v.Args[i]) }

	switch v.Op {
	case ir.OpField:
		lo, _, _ := v.Aux.(*types.Field).Range()
		g.set(v, "(insn >> %d) & %s", lo, m)

	// State
	case ir.OpReg:
		g.set(v, "s->%s", regName(v))
	case ir.OpRegFile:
		g.set(v, "s->%s[%s]", regName(v), arg(0))
	case ir.OpMem:
		g.set(v, "%s(s, %s) & %s", g.memHook(rtabi.FnMemRead, v), arg(0), m)
	case ir.OpSetReg:
		g.e.emitInst("s->%s = %s;", regName(v), arg(0))
	case ir.OpSetRegFile:
		g.e.emitInst("s->%s[%s] = %s;", regName(v), arg(0), arg(1))
	case ir.OpSetMem:
		g.e.emitInst("%s(s, %s, %s);", g.memHook(rtabi.FnMemWrite, v), arg(0), arg(1))

	case ir.OpCall:
		args := []string{"s"}
		for i := range v.Args {
			args = append(args, arg(i))
		}
		fn := v.Aux.(*types.Func)
		name := "fn_" + fn.Name()
		if fn.IsRelocation() {
			name = rtabi.Sym(rtabi.FnReloc, g.prefix, fn.Name())
		}
		g.set(v, "%s(%s)", name, strings.Join(args, ", "))

	// Arithmetic
	case ir.OpAdd:
		g.set(v, "(%s + %s) & %s", arg(0), arg(1), m)
	case ir.OpSub:
		g.set(v, "(%s - %s) & %s", arg(0), arg(1), m)
	case ir.OpMul:
		g.set(v, "(%s * %s) & %s", arg(0), arg(1), m)
	case ir.OpDiv:
		g.set(v, "divu(%s, %s, %d)", arg(0), arg(1), w)
	case ir.OpDivS:
		g.set(v, "divs(%s, %s, %d)", arg(0), arg(1), w)
	case ir.OpMod:
		g.set(v, "remu(%s, %s)", arg(0), arg(1))
	case ir.OpModS:
		g.set(v, "rems(%s, %s, %d)", arg(0), arg(1), w)
	case ir.OpNeg:
		g.set(v, "(0 - %s) & %s", arg(0), m)

	// Bitwise
	case ir.OpAnd:
		g.set(v, "%s & %s", arg(0), arg(1))
	case ir.OpOr:
		g.set(v, "%s | %s", arg(0), arg(1))
	case ir.OpXor:
		g.set(v, "%s ^ %s", arg(0), arg(1))
	case ir.OpCom:
		g.set(v, "~%s & %s", arg(0), m)

	// Shifts count in bits; a count of the width or more shifts every bit out.
	case ir.OpShl:
		g.set(v, "%s >= %d ? 0 : (%s << %s) & %s", arg(1), w, arg(0), arg(1), m)
	case ir.OpShr:
		g.set(v, "%s >= %d ? 0 : %s >> %s", arg(1), w, arg(0), arg(1))
	case ir.OpSar:
		g.set(v, "sar(%s, %s, %d) & %s", arg(0), arg(1), w, m)

	// Comparisons
	case ir.OpEq:
		g.set(v, "%s == %s", arg(0), arg(1))
	case ir.OpNeq:
		g.set(v, "%s != %s", arg(0), arg(1))
	case ir.OpLt:
		g.set(v, "%s < %s", arg(0), arg(1))
	case ir.OpLeq:
		g.set(v, "%s <= %s", arg(0), arg(1))
	case ir.OpGt:
		g.set(v, "%s > %s", arg(0), arg(1))
	case ir.OpGeq:
		g.set(v, "%s >= %s", arg(0), arg(1))
	case ir.OpLtS:
		g.emitSCmp("<", v)
	case ir.OpLeqS:
		g.emitSCmp("<=", v)
	case ir.OpGtS:
		g.emitSCmp(">", v)
	case ir.OpGeqS:
		g.emitSCmp(">=", v)

	// Boolean
	case ir.OpNot:
		g.set(v, "!%s", arg(0))
	case ir.OpAndBool:
		g.set(v, "%s && %s", arg(0), arg(1))
	case ir.OpOrBool:
		g.set(v, "%s || %s", arg(0), arg(1))
	case ir.OpToBool:
		g.set(v, "%s != 0", arg(0))
	case ir.OpFromBool:
		g.set(v, "(%s)%s", rtabi.CTypeValue, arg(0))

	// Bits
	case ir.OpConcat:
		g.set(v, "(%s << %d) | %s", arg(0), v.Args[1].Width(), arg(1))
	case ir.OpSlice, ir.OpExtract:
		g.set(v, "(%s >> %d) & %s", arg(0), v.AuxInt, m)
	case ir.OpInsert:
		fw := v.Args[1].Width()
		keep := mask(w) &^ (mask(fw) << v.AuxInt)
		g.set(v, "(%s & %s) | (%s << %d)", arg(0), lit(keep), arg(1), v.AuxInt)
	case ir.OpZext, ir.OpConvert:
		g.set(v, "%s", arg(0))
	case ir.OpTrunc:
		g.set(v, "%s & %s", arg(0), m)
	case ir.OpSext:
		g.set(v, "sext(%s, %d) & %s", arg(0), v.Args[0].Width(), m)

	case ir.OpSelect:
		g.set(v, "%s ? %s : %s", arg(0), arg(1), arg(2))

	default:
		panic(fmt.Sprintf("iss.lowerValue: unhandled op %s", v.Op))
	}
}

// set emits an assignment to the local of v.
func (g *generator) set(v *ir.Value, format string, args ...any) {
	g.e.emitInst("%s = %s;", valueName(v), fmt.Sprintf(format, args...))
}

// emitSCmp emits a signed comparison of two values of the same width.
func (g *generator) emitSCmp(op string, v *ir.Value) {
	w := v.Args[0].Width()
	g.set(v, "(%s)sext(%s, %d) %s (%s)sext(%s, %d)",
		rtabi.CTypeSigned, g.operand(v.Args[0]), w, op, rtabi.CTypeSigned, g.operand(v.Args[1]), w)
}

// lowerTerminator emits the control transfer at the end of b.
func (g *generator) lowerTerminator(b *ir.Block) {
	switch b.Kind {
	case ir.BlockPlain:
		g.e.emitInst("goto %s;", blockName(b.Succs[0]))
	case ir.BlockIf:
		g.e.emitInst("if (%s) goto %s; else goto %s;",
			g.operand(b.Controls[0]), blockName(b.Succs[0]), blockName(b.Succs[1]))
	case ir.BlockReturn:
		if len(b.Controls) > 0 {
			g.e.emitInst("return %s;", g.operand(b.Controls[0]))
		} else {
			g.e.emitInst("return;")
		}
	default:
		panic(fmt.Sprintf("iss.lowerTerminator: unhandled block kind %s", b.Kind))
	}
}

// operand returns the C expression of an IR value. Constants and
// parameters are inlined, others use their local.
func (g *generator) operand(v *ir.Value) string {
	switch v.Op {
	case ir.OpConst:
		return lit(constBits(v.Const(), v.Width()))
	case ir.OpConstBool:
		if v.AuxInt != 0 {
			return "true"
		}
		return "false"
	case ir.OpArg:
		return "p_" + v.Aux.(string)
	}
	return valueName(v)
}

func regName(v *ir.Value) string {
	return cIdent(v.Aux.(*types.Reg).Name())
}

func (g *generator) memHook(pattern string, v *ir.Value) string {
	return rtabi.Sym(pattern, g.prefix, v.Aux.(*types.Mem).Name())
}
