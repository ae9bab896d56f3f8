package iss

import (
	"fmt"
	"go/constant"

	"github.com/you-not-fish/adlc/internal/rtabi"
	"github.com/you-not-fish/adlc/internal/types"
)

// cType maps an ADL type to the C type of values of that type.
func cType(t types.Type) string {
	if types.IsBoolean(t) {
		return rtabi.CTypeBool
	}
	return rtabi.CTypeValue
}

// mask returns the mask of the low w bits; w is at most 64.
func mask(w int) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<w - 1
}

// lit returns a C literal for x.
func lit(x uint64) string {
	return fmt.Sprintf("UINT64_C(%#x)", x)
}

// constBits returns the bit pattern of c as a w-bit vector.
func constBits(c constant.Value, w int) uint64 {
	x, _ := constant.Uint64Val(types.Wrap(c, w, false))
	return x
}

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true, "sizeof": true,
	"static": true, "struct": true, "switch": true, "typedef": true, "union": true,
	"unsigned": true, "void": true, "volatile": true, "while": true, "bool": true,
	"true": true, "false": true,
}

// cIdent returns name as a C identifier, escaping keywords.
func cIdent(name string) string {
	if cKeywords[name] {
		return name + "_"
	}
	return name
}
