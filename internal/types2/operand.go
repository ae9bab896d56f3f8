package types2

import (
	"fmt"
	"go/constant"

	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// operandMode describes what an expression denotes.
type operandMode int

const (
	invalid   operandMode = iota // erroneous; already reported
	typexpr                      // a type
	builtin                      // sext, zext or trunc
	storage                      // a register file or memory, used by calling it
	function                     // a function or relocation
	constant_                    // a compile-time constant
	variable                     // writable architectural state
	value                        // any other value
)

var operandModeString = [...]string{
	invalid:   "invalid operand",
	typexpr:   "type",
	builtin:   "builtin",
	storage:   "storage",
	function:  "function",
	constant_: "constant",
	variable:  "variable",
	value:     "value",
}

// operand is the result of checking an expression.
type operand struct {
	mode operandMode
	expr syntax.Expr
	typ  types.Type
	val  constant.Value // for constant_
	obj  types.Object   // for builtin, storage and function operands
}

func (x *operand) String() string {
	if x.expr == nil {
		return operandModeString[x.mode]
	}
	s := syntax.ExprString(x.expr)
	switch x.mode {
	case invalid, typexpr, builtin, storage, function:
		return s
	case constant_:
		if x.val != nil && s != x.val.ExactString() {
			s += fmt.Sprintf(" (constant %s)", x.val.ExactString())
		}
	}
	if x.typ != nil {
		s += " of type " + x.typ.String()
	}
	return s
}

func (x *operand) isValue() bool {
	return x.mode == constant_ || x.mode == variable || x.mode == value
}

func (x *operand) setConst(t types.Type, v constant.Value) {
	x.mode = constant_
	x.typ = t
	x.val = v
}

func (x *operand) setValue(t types.Type) {
	x.mode = value
	x.typ = t
	x.val = nil
}

func (x *operand) setInvalid() {
	x.mode = invalid
	x.typ = types.Typ[types.Invalid]
	x.val = nil
}

// width returns the bit width of a sized operand, or 0.
func (x *operand) width() int {
	return types.Width(x.typ)
}

// isUntypedInt reports whether x is an untyped integer constant.
func (x *operand) isUntypedInt() bool {
	return x.mode == constant_ && types.IsUntypedInt(x.typ)
}
