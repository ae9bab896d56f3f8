package types

import (
	"go/constant"
	"go/token"
)

// Identical reports whether x and y are the same type.
func Identical(x, y Type) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	switch x := x.(type) {
	case *Basic:
		if y, ok := y.(*Basic); ok {
			return x.kind == y.kind
		}
	case *Bits:
		if y, ok := y.(*Bits); ok {
			return x.width == y.width && x.signed == y.signed
		}
	case *Format:
		// formats are nominal
		return false
	case *Storage:
		if y, ok := y.(*Storage); ok {
			return x.kind == y.kind && Identical(x.index, y.index) && Identical(x.elem, y.elem)
		}
	case *Signature:
		if y, ok := y.(*Signature); ok {
			if len(x.params) != len(y.params) || !Identical(x.result, y.result) {
				return false
			}
			for i := range x.params {
				if !Identical(x.params[i].typ, y.params[i].typ) {
					return false
				}
			}
			return true
		}
	}
	return false
}

// IsInvalid reports whether t is missing or the invalid type.
func IsInvalid(t Type) bool {
	return t == nil || t == Typ[Invalid]
}

func IsUntyped(t Type) bool {
	b, ok := t.(*Basic)
	return ok && (b.kind == UntypedInt || b.kind == UntypedBool)
}

func IsUntypedInt(t Type) bool {
	b, ok := t.(*Basic)
	return ok && b.kind == UntypedInt
}

// IsBoolean reports whether t is Bool or an untyped boolean.
func IsBoolean(t Type) bool {
	b, ok := t.(*Basic)
	return ok && (b.kind == Bool || b.kind == UntypedBool)
}

// IsVector reports whether values of t are sized bit vectors. Formats are
// vectors of their total width.
func IsVector(t Type) bool {
	switch t.(type) {
	case *Bits, *Format:
		return true
	}
	return false
}

// Width returns the number of bits of a vector type, 1 for Bool, and 0
// otherwise.
func Width(t Type) int {
	switch t := t.(type) {
	case *Bits:
		return t.width
	case *Format:
		return t.width
	case *Basic:
		if t.kind == Bool {
			return 1
		}
	}
	return 0
}

// IsSigned reports whether t is a signed bit vector.
func IsSigned(t Type) bool {
	b, ok := t.(*Bits)
	return ok && b.signed
}

// AsBits returns the bit vector view of a vector type.
func AsBits(t Type) *Bits {
	switch t := t.(type) {
	case *Bits:
		return t
	case *Format:
		if t.width > 0 {
			return NewBits(t.width, false)
		}
	}
	return nil
}

// Representable reports whether the integer constant v fits in width bits
// under either interpretation: -2^(width-1) <= v < 2^width.
func Representable(v constant.Value, width int) bool {
	if v.Kind() != constant.Int || width <= 0 {
		return false
	}
	hi := constant.Shift(constant.MakeInt64(1), token.SHL, uint(width))
	lo := constant.UnaryOp(token.SUB, constant.Shift(constant.MakeInt64(1), token.SHL, uint(width-1)), 0)
	return constant.Compare(v, token.GEQ, lo) && constant.Compare(v, token.LSS, hi)
}

// MinWidth returns the smallest width that represents v, at least 1.
// Negative values need a sign bit.
func MinWidth(v constant.Value) int {
	if constant.Sign(v) >= 0 {
		n := constant.BitLen(v)
		if n == 0 {
			return 1
		}
		return n
	}
	// -2^(n-1) <= v
	pos := constant.UnaryOp(token.SUB, v, 0)
	pos = constant.BinaryOp(pos, token.SUB, constant.MakeInt64(1))
	return constant.BitLen(pos) + 1
}

// Wrap reduces v modulo 2^width, interpreting the result as signed when
// signed is set.
func Wrap(v constant.Value, width int, signed bool) constant.Value {
	mod := constant.Shift(constant.MakeInt64(1), token.SHL, uint(width))
	r := constant.BinaryOp(v, token.REM, mod)
	if constant.Sign(r) < 0 {
		r = constant.BinaryOp(r, token.ADD, mod)
	}
	if signed {
		half := constant.Shift(constant.MakeInt64(1), token.SHL, uint(width-1))
		if constant.Compare(r, token.GEQ, half) {
			r = constant.BinaryOp(r, token.SUB, mod)
		}
	}
	return r
}
