package ir

import (
	"fmt"
	"go/constant"
	"go/token"
	"strings"

	"github.com/you-not-fish/adlc/internal/types"
)

// Verify checks the structural integrity of f and the types of its
// values. It returns an error describing all violations found, or nil.
func Verify(f *Func) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if f.Entry == nil || len(f.Blocks) == 0 {
		add("func %s: no entry block", f.Name)
		return combineErrors(errs)
	}
	if f.Blocks[0] != f.Entry {
		add("func %s: Blocks[0] is not the entry block", f.Name)
	}
	if len(f.Entry.Preds) != 0 {
		add("func %s: entry block %s has %d predecessors, want 0",
			f.Name, f.Entry, len(f.Entry.Preds))
	}

	blockSet := make(map[*Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		blockSet[b] = true
	}
	valueSet := make(map[*Value]bool)
	uses := make(map[*Value]int32)

	for _, b := range f.Blocks {
		if b.Kind == BlockInvalid {
			add("func %s, %s: block has invalid kind", f.Name, b)
		}
		if b.Func != f {
			add("func %s, %s: block Func pointer mismatch", f.Name, b)
		}

		for _, v := range b.Values {
			valueSet[v] = true
			if v.Block != b {
				add("func %s, %s, %s: value Block pointer is %s, want %s",
					f.Name, b, v, v.Block, b)
			}
			for i, arg := range v.Args {
				if arg == nil {
					add("func %s, %s, %s: arg[%d] is nil", f.Name, b, v, i)
					continue
				}
				uses[arg]++
			}
			if n := v.Op.Info().NArgs; n >= 0 && len(v.Args) != n {
				add("func %s, %s, %s (%s): has %d args, want %d", f.Name, b, v, v.Op, len(v.Args), n)
				continue
			}
			if msg := checkValue(v); msg != "" {
				add("func %s, %s, %s (%s): %s", f.Name, b, v, v.Op, msg)
			}
		}

		switch b.Kind {
		case BlockPlain:
			if len(b.Succs) != 1 {
				add("func %s, %s: plain block has %d succs, want 1",
					f.Name, b, len(b.Succs))
			}
		case BlockIf:
			if len(b.Controls) != 1 || b.Controls[0] == nil {
				add("func %s, %s: if block needs one control", f.Name, b)
			} else if !types.IsBoolean(b.Controls[0].Type) {
				add("func %s, %s: if control %s has type %s, want Bool",
					f.Name, b, b.Controls[0], b.Controls[0].Type)
			}
			if len(b.Succs) != 2 {
				add("func %s, %s: if block has %d succs, want 2",
					f.Name, b, len(b.Succs))
			}
		case BlockReturn:
			if len(b.Succs) != 0 {
				add("func %s, %s: return block has %d succs, want 0",
					f.Name, b, len(b.Succs))
			}
			checkReturn(f, b, add)
		}

		for _, succ := range b.Succs {
			if !blockSet[succ] {
				add("func %s, %s: successor %s not in function", f.Name, b, succ)
				continue
			}
			if !containsBlock(succ.Preds, b) {
				add("func %s, %s: successor %s does not have %s as predecessor",
					f.Name, b, succ, b)
			}
		}
		for _, pred := range b.Preds {
			if !blockSet[pred] {
				add("func %s, %s: predecessor %s not in function", f.Name, b, pred)
				continue
			}
			if !containsBlock(pred.Succs, b) {
				add("func %s, %s: predecessor %s does not have %s as successor",
					f.Name, b, pred, b)
			}
		}
		for _, c := range b.Controls {
			if c != nil {
				uses[c]++
			}
		}
	}

	for _, b := range f.Blocks {
		for _, v := range b.Values {
			for i, arg := range v.Args {
				if arg != nil && !valueSet[arg] {
					add("func %s, %s, %s: arg[%d] (%s) not found in function",
						f.Name, b, v, i, arg)
				}
			}
			if v.Uses != uses[v] {
				add("func %s, %s, %s: use count is %d, want %d", f.Name, b, v, v.Uses, uses[v])
			}
		}
		for i, c := range b.Controls {
			if c != nil && !valueSet[c] {
				add("func %s, %s: control[%d] (%s) not found in function",
					f.Name, b, i, c)
			}
		}
	}

	return combineErrors(errs)
}

func checkReturn(f *Func, b *Block, add func(string, ...any)) {
	var ctl *Value
	if len(b.Controls) > 0 {
		ctl = b.Controls[0]
	}
	switch f.Kind {
	case FuncInstr:
		if ctl != nil {
			add("func %s, %s: instruction returns %s", f.Name, b, ctl)
		}
	default:
		res := f.Result()
		switch {
		case ctl == nil:
			add("func %s, %s: missing result", f.Name, b)
		case res != nil && !types.Identical(ctl.Type, res) && types.Width(ctl.Type) != types.Width(res):
			add("func %s, %s: result %s has type %s, want %s", f.Name, b, ctl, ctl.Type, res)
		}
	}
}

// checkValue checks the type rules of a single value and returns a
// description of the first violation.
func checkValue(v *Value) string {
	if v.Op.IsVoid() {
		if v.Type != nil {
			return fmt.Sprintf("void value has type %s", v.Type)
		}
	} else {
		if types.IsInvalid(v.Type) || types.IsUntyped(v.Type) {
			return fmt.Sprintf("value has non-concrete type %v", v.Type)
		}
	}

	w := v.Width()
	arg := func(i int) *Value { return v.Args[i] }
	isBool := func(x *Value) bool { return types.IsBoolean(x.Type) }
	isVec := func(x *Value) bool { return types.IsVector(x.Type) }

	switch v.Op {
	case OpInvalid:
		return "invalid op"

	case OpConst:
		c := v.Const()
		if c == nil || !isVec(v) {
			return "malformed constant"
		}
		if !constant.Compare(types.Wrap(c, w, v.Signed()), token.EQL, c) {
			return fmt.Sprintf("constant %s does not fit %s", c, v.Type)
		}

	case OpConstBool:
		if !isBool(v) || (v.AuxInt != 0 && v.AuxInt != 1) {
			return "malformed boolean constant"
		}

	case OpField:
		fld, ok := v.Aux.(*types.Field)
		if !ok || fld.Width() != w {
			return "field operand does not match its field"
		}

	case OpReg, OpRegFile, OpSetReg, OpSetRegFile:
		r, ok := v.Aux.(*types.Reg)
		if !ok {
			return "missing register"
		}
		elem := r.Type()
		if s, isFile := elem.(*types.Storage); isFile {
			elem = s.Elem()
			if v.Op == OpReg || v.Op == OpSetReg {
				return fmt.Sprintf("%s is a register file", r.Name())
			}
		} else if v.Op == OpRegFile || v.Op == OpSetRegFile {
			return fmt.Sprintf("%s is not a register file", r.Name())
		}
		switch v.Op {
		case OpReg, OpRegFile:
			if types.Width(elem) != w {
				return fmt.Sprintf("read of %s has %d bits, want %d", r.Name(), w, types.Width(elem))
			}
		case OpSetReg:
			if types.Width(arg(0).Type) != types.Width(elem) {
				return fmt.Sprintf("write of %d bits to %s of %d bits", types.Width(arg(0).Type), r.Name(), types.Width(elem))
			}
		case OpSetRegFile:
			if types.Width(arg(1).Type) != types.Width(elem) {
				return fmt.Sprintf("write of %d bits to %s of %d bits", types.Width(arg(1).Type), r.Name(), types.Width(elem))
			}
		}

	case OpMem, OpSetMem:
		m, ok := v.Aux.(*types.Mem)
		if !ok {
			return "missing memory"
		}
		s, _ := m.Type().(*types.Storage)
		if s == nil {
			return "memory has no storage type"
		}
		if v.Op == OpMem && types.Width(s.Elem()) != w {
			return fmt.Sprintf("read of %s has %d bits, want %d", m.Name(), w, types.Width(s.Elem()))
		}
		if v.Op == OpSetMem && types.Width(arg(1).Type) != types.Width(s.Elem()) {
			return fmt.Sprintf("write of %d bits to %s", types.Width(arg(1).Type), m.Name())
		}

	case OpCall:
		fn, ok := v.Aux.(*types.Func)
		if !ok || fn.Signature() == nil {
			return "missing callee"
		}
		if len(v.Args) != len(fn.Signature().Params()) {
			return fmt.Sprintf("call of %s has %d args, want %d", fn.Name(), len(v.Args), len(fn.Signature().Params()))
		}

	case OpAdd, OpSub, OpMul, OpDiv, OpDivS, OpMod, OpModS, OpAnd, OpOr, OpXor:
		if !isVec(v) || arg(0).Width() != w || arg(1).Width() != w {
			return fmt.Sprintf("operands of %d and %d bits for a result of %d", arg(0).Width(), arg(1).Width(), w)
		}

	case OpNeg, OpCom:
		if !isVec(v) || arg(0).Width() != w {
			return "operand width differs from result"
		}

	case OpShl, OpShr, OpSar:
		if !isVec(v) || arg(0).Width() != w || !isVec(arg(1)) {
			return "malformed shift"
		}

	case OpEq, OpNeq, OpLt, OpLeq, OpGt, OpGeq, OpLtS, OpLeqS, OpGtS, OpGeqS:
		if !isBool(v) {
			return "comparison result is not Bool"
		}
		if arg(0).Width() != arg(1).Width() {
			return fmt.Sprintf("compares %d bits with %d bits", arg(0).Width(), arg(1).Width())
		}

	case OpNot, OpAndBool, OpOrBool:
		if !isBool(v) {
			return "result is not Bool"
		}
		for _, a := range v.Args {
			if !isBool(a) {
				return fmt.Sprintf("operand %s is not Bool", a)
			}
		}

	case OpToBool:
		if !isBool(v) || !isVec(arg(0)) {
			return "malformed vector test"
		}

	case OpFromBool:
		if !isVec(v) || !isBool(arg(0)) {
			return "malformed boolean conversion"
		}

	case OpConcat:
		if w != arg(0).Width()+arg(1).Width() {
			return fmt.Sprintf("concatenation of %d and %d bits has %d", arg(0).Width(), arg(1).Width(), w)
		}

	case OpSlice:
		if v.AuxInt < 0 || int(v.AuxInt)+w > arg(0).Width() {
			return fmt.Sprintf("slice [%d, %d) outside %d bits", v.AuxInt, int(v.AuxInt)+w, arg(0).Width())
		}

	case OpExtract, OpInsert:
		fld, ok := v.Aux.(*types.Field)
		if !ok {
			return "missing field"
		}
		lo, hi, placed := fld.Range()
		if !placed || int64(lo) != v.AuxInt || hi > arg(0).Width() {
			return fmt.Sprintf("field %s is not placed at bit %d", fld.Name(), v.AuxInt)
		}
		if v.Op == OpExtract && w != hi-lo {
			return fmt.Sprintf("extract of %d bits from field %s of %d", w, fld.Name(), hi-lo)
		}
		if v.Op == OpInsert && (w != arg(0).Width() || arg(1).Width() != hi-lo) {
			return fmt.Sprintf("insert of %d bits into field %s of %d", arg(1).Width(), fld.Name(), hi-lo)
		}

	case OpZext, OpSext:
		if !isVec(arg(0)) || w < arg(0).Width() {
			return fmt.Sprintf("extension from %d to %d bits", arg(0).Width(), w)
		}

	case OpTrunc:
		if !isVec(arg(0)) || w > arg(0).Width() {
			return fmt.Sprintf("truncation from %d to %d bits", arg(0).Width(), w)
		}

	case OpConvert:
		if arg(0).Width() != w {
			return fmt.Sprintf("conversion from %d to %d bits", arg(0).Width(), w)
		}

	case OpSelect:
		if !isBool(arg(0)) {
			return "select condition is not Bool"
		}
		if arg(1).Width() != w || arg(2).Width() != w {
			return "select arms differ from result"
		}
	}
	return ""
}

func containsBlock(bs []*Block, b *Block) bool {
	for _, x := range bs {
		if x == b {
			return true
		}
	}
	return false
}

// VerifyDom checks that every value is defined before it is used along
// every path. It computes the dominator tree and calls Verify first.
func VerifyDom(f *Func) error {
	if err := Verify(f); err != nil {
		return err
	}
	ComputeDom(f)

	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	reachable := make(map[*Block]bool)
	for _, b := range ReversePostOrder(f) {
		reachable[b] = true
	}
	valIdx := make(map[*Value]int)
	for _, b := range f.Blocks {
		for i, v := range b.Values {
			valIdx[v] = i
		}
	}

	for _, b := range f.Blocks {
		if !reachable[b] {
			continue
		}
		for _, v := range b.Values {
			for i, arg := range v.Args {
				if arg.Block == b {
					if valIdx[arg] >= valIdx[v] {
						add("func %s, %s, %s: arg[%d] %s defined at index %d, used at index %d (same block)",
							f.Name, b, v, i, arg, valIdx[arg], valIdx[v])
					}
				} else if !Dominates(arg.Block, b) {
					add("func %s, %s, %s: arg[%d] %s defined in %s which does not dominate %s",
						f.Name, b, v, i, arg, arg.Block, b)
				}
			}
		}
		for i, c := range b.Controls {
			if c != nil && c.Block != b && !Dominates(c.Block, b) {
				add("func %s, %s: control[%d] %s defined in %s which does not dominate %s",
					f.Name, b, i, c, c.Block, b)
			}
		}
	}
	return combineErrors(errs)
}

func combineErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("IR verification failed:\n  %s", strings.Join(errs, "\n  "))
}
