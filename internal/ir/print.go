package ir

import (
	"fmt"
	"go/constant"
	"io"
	"strings"

	"github.com/you-not-fish/adlc/internal/types"
)

// Fprint writes the textual form of f to w.
//
// Format:
//
//	instr ADDI : IType:
//	  b0: (entry)
//	    v0 = Field <Bits<5>> {rs1}
//	    v1 = RegFile <Bits<32>> {X} v0
//	    SetRegFile {X} v2 v3
//	    Return
func Fprint(w io.Writer, f *Func) {
	switch f.Kind {
	case FuncInstr:
		fmt.Fprintf(w, "instr %s", f.Name)
		if f.Instr != nil && f.Instr.Format() != nil {
			fmt.Fprintf(w, " : %s", f.Instr.Format())
		}
	default:
		fmt.Fprintf(w, "%s %s", f.Kind, f.Name)
		if f.Sig != nil {
			fmt.Fprintf(w, "(")
			for i, p := range f.Sig.Params() {
				if i > 0 {
					fmt.Fprintf(w, ", ")
				}
				fmt.Fprintf(w, "%s %s", p.Name(), p.Type())
			}
			fmt.Fprintf(w, ") %s", f.Sig.Result())
		}
	}
	fmt.Fprintf(w, ":\n")

	for _, b := range f.Blocks {
		fprintBlock(w, b, f)
	}
}

func fprintBlock(w io.Writer, b *Block, f *Func) {
	label := ""
	if b == f.Entry {
		label = " (entry)"
	}
	predsStr := ""
	if len(b.Preds) > 0 {
		preds := make([]string, len(b.Preds))
		for i, p := range b.Preds {
			preds[i] = p.String()
		}
		predsStr = " <- " + strings.Join(preds, " ")
	}
	fmt.Fprintf(w, "  %s:%s%s\n", b, label, predsStr)

	for _, v := range b.Values {
		fmt.Fprintf(w, "    %s\n", formatValue(v))
	}
	fmt.Fprintf(w, "    %s\n", formatTerminator(b))
}

func formatValue(v *Value) string {
	var sb strings.Builder

	if v.Op.IsVoid() {
		sb.WriteString(v.Op.String())
	} else {
		fmt.Fprintf(&sb, "v%d = %s", v.ID, v.Op)
	}
	if v.Type != nil {
		fmt.Fprintf(&sb, " <%s>", v.Type)
	}
	switch v.Op {
	case OpConstBool, OpArg, OpSlice, OpExtract, OpInsert:
		fmt.Fprintf(&sb, " [%d]", v.AuxInt)
	}
	if v.Aux != nil {
		fmt.Fprintf(&sb, " {%s}", formatAux(v.Aux))
	}
	for _, arg := range v.Args {
		fmt.Fprintf(&sb, " v%d", arg.ID)
	}
	return sb.String()
}

func formatTerminator(b *Block) string {
	switch b.Kind {
	case BlockPlain:
		if len(b.Succs) > 0 {
			return fmt.Sprintf("Plain -> %s", b.Succs[0])
		}
		return "Plain"
	case BlockIf:
		if len(b.Controls) > 0 && len(b.Succs) >= 2 {
			return fmt.Sprintf("If v%d -> %s %s", b.Controls[0].ID, b.Succs[0], b.Succs[1])
		}
		return "If (malformed)"
	case BlockReturn:
		if len(b.Controls) > 0 && b.Controls[0] != nil {
			return fmt.Sprintf("Return v%d", b.Controls[0].ID)
		}
		return "Return"
	default:
		return "???"
	}
}

func formatAux(aux any) string {
	switch a := aux.(type) {
	case types.Object:
		return a.Name()
	case constant.Value:
		return a.ExactString()
	case string:
		return a
	default:
		return fmt.Sprintf("%v", aux)
	}
}

// Sprint returns the textual form of f.
func Sprint(f *Func) string {
	var sb strings.Builder
	Fprint(&sb, f)
	return sb.String()
}
