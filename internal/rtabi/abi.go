// Package rtabi defines the C interface between a generated simulator
// and the host program that embeds it. The host calls the entry points
// and provides the memory hooks.
package rtabi

import (
	"fmt"
	"strings"
	"unicode"
)

// Symbol patterns. The first %s is the ISA prefix returned by Prefix.
const (
	StateType = "%s_state"
	InsnEnum  = "%s_insn"

	// Entry points
	FnReset    = "%s_reset"
	FnDecode   = "%s_decode"
	FnInsnName = "%s_insn_name"
	FnExec     = "%s_exec"
	FnStep     = "%s_step"
	FnReloc    = "%s_reloc_%s" // second %s is the relocation name

	// Host hooks; the second %s is the memory name.
	FnMemRead  = "%s_mem_read_%s"
	FnMemWrite = "%s_mem_write_%s"
)

// Results of the decode, exec and step entry points.
const (
	StepOK      = 0
	StepIllegal = -1
)

// C types
const (
	CTypeValue  = "uint64_t" // every bit vector value, zero-extended
	CTypeSigned = "int64_t"
	CTypeBool   = "bool"
	CTypeInsn   = "uint64_t" // instruction words
)

// StorageType returns the narrowest unsigned C type holding width bits.
// Widths above 64 are not representable.
func StorageType(width int) string {
	switch {
	case width <= 8:
		return "uint8_t"
	case width <= 16:
		return "uint16_t"
	case width <= 32:
		return "uint32_t"
	}
	return "uint64_t"
}

// Prefix returns the C identifier prefix for an ISA name: lower case,
// with every character that cannot appear in an identifier replaced by
// an underscore. An empty name gives "adl".
func Prefix(isa string) string {
	if isa == "" {
		return "adl"
	}
	var b strings.Builder
	for i, r := range isa {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || r == '_'):
			b.WriteRune(unicode.ToLower(r))
		case r < unicode.MaxASCII && unicode.IsDigit(r) && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Sym formats a symbol pattern for prefix.
func Sym(pattern, prefix string, args ...any) string {
	return fmt.Sprintf(pattern, append([]any{prefix}, args...)...)
}

// FuncSignature describes a C function of the interface.
type FuncSignature struct {
	Name       string
	ReturnType string
	Params     []string // C declarations, e.g. "uint64_t addr"
	Host       bool     // implemented by the host
}

// Prototype returns the C declaration of f, without the semicolon.
func (f FuncSignature) Prototype() string {
	params := "void"
	if len(f.Params) > 0 {
		params = strings.Join(f.Params, ", ")
	}
	return fmt.Sprintf("%s %s(%s)", f.ReturnType, f.Name, params)
}

// EntryPoints returns the functions every simulator exports.
func EntryPoints(prefix string) []FuncSignature {
	state := "struct " + Sym(StateType, prefix) + " *s"
	return []FuncSignature{
		{Name: Sym(FnReset, prefix), ReturnType: "void", Params: []string{state}},
		{Name: Sym(FnDecode, prefix), ReturnType: "int", Params: []string{CTypeInsn + " insn"}},
		{Name: Sym(FnInsnName, prefix), ReturnType: "const char *", Params: []string{"int insn"}},
		{Name: Sym(FnExec, prefix), ReturnType: "int", Params: []string{state, "int insn", CTypeInsn + " word"}},
		{Name: Sym(FnStep, prefix), ReturnType: "int", Params: []string{state, CTypeInsn + " word"}},
	}
}

// HostFunctions returns the hooks the host implements for the named
// memories.
func HostFunctions(prefix string, memories []string) []FuncSignature {
	state := "struct " + Sym(StateType, prefix) + " *s"
	var out []FuncSignature
	for _, m := range memories {
		out = append(out,
			FuncSignature{Name: Sym(FnMemRead, prefix, m), ReturnType: CTypeValue, Params: []string{state, CTypeValue + " addr"}, Host: true},
			FuncSignature{Name: Sym(FnMemWrite, prefix, m), ReturnType: "void", Params: []string{state, CTypeValue + " addr", CTypeValue + " value"}, Host: true},
		)
	}
	return out
}
