package ir

import (
	"fmt"
	"go/constant"

	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// ID is a unique identifier for Values and Blocks within a Func.
type ID int32

// Value is a single computation. Each Value has exactly one definition
// and may be used by other Values.
type Value struct {
	ID ID
	Op Op

	// Type is the result type. Nil for void operations.
	Type types.Type

	Args  []*Value
	Block *Block

	// AuxInt holds an auxiliary integer: a bit offset, a parameter index
	// or a boolean constant.
	AuxInt int64

	// Aux holds auxiliary data: a constant.Value, a field, a register, a
	// memory or a function.
	Aux any

	// Uses counts the references to this value.
	Uses int32

	Pos syntax.Pos
}

func (v *Value) String() string {
	return fmt.Sprintf("v%d", v.ID)
}

// LongString returns the value with its op, type, aux data and args.
func (v *Value) LongString() string {
	return formatValue(v)
}

// AddArg appends arg and counts the use.
func (v *Value) AddArg(arg *Value) {
	v.Args = append(v.Args, arg)
	arg.Uses++
}

// SetArgs replaces the argument list, adjusting use counts.
func (v *Value) SetArgs(args []*Value) {
	for _, old := range v.Args {
		old.Uses--
	}
	v.Args = args
	for _, arg := range args {
		arg.Uses++
	}
}

// ReplaceArg replaces the argument at index i, adjusting use counts.
func (v *Value) ReplaceArg(i int, w *Value) {
	v.Args[i].Uses--
	v.Args[i] = w
	w.Uses++
}

// IsPure reports whether the value's op has no side effects.
func (v *Value) IsPure() bool {
	return v.Op.IsPure()
}

// Width returns the width of the value's type, or 0 for Bool and void
// values.
func (v *Value) Width() int {
	if v.Type == nil {
		return 0
	}
	return types.Width(v.Type)
}

// Signed reports whether the value has a signed bit vector type.
func (v *Value) Signed() bool {
	return v.Type != nil && types.IsSigned(v.Type)
}

// Const returns the constant of an OpConst value.
func (v *Value) Const() constant.Value {
	c, _ := v.Aux.(constant.Value)
	return c
}
