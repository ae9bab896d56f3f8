package syntax

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Fprint writes an indented tree dump of node to w.
func Fprint(w io.Writer, node Node) error {
	p := &printer{w: w}
	p.print(node)
	return p.err
}

type printer struct {
	w      io.Writer
	indent int
	err    error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

func (p *printer) nested(label string, n Node) {
	if n == nil {
		return
	}
	p.printf("%s:", label)
	p.indent++
	p.print(n)
	p.indent--
}

func (p *printer) print(node Node) {
	switch n := node.(type) {
	case *File:
		name := ""
		if n.Name != nil {
			name = " " + n.Name.Value
		}
		p.printf("File%s %s", name, n.pos)
		p.indent++
		for _, d := range n.Decls {
			p.print(d)
		}
		p.indent--

	case *ConstDecl:
		if n.Type != nil {
			p.printf("ConstDecl %s : %s = %s %s", n.Name.Value, ExprString(n.Type), ExprString(n.Value), n.pos)
		} else {
			p.printf("ConstDecl %s = %s %s", n.Name.Value, ExprString(n.Value), n.pos)
		}

	case *UsingDecl:
		p.printf("UsingDecl %s = %s %s", n.Name.Value, ExprString(n.Type), n.pos)

	case *FormatDecl:
		p.printf("FormatDecl %s : %s %s", n.Name.Value, ExprString(n.Type), n.pos)
		p.indent++
		for _, f := range n.Fields {
			p.print(f)
		}
		p.indent--

	case *FormatField:
		var b strings.Builder
		if n.Mod != FieldPlain {
			b.WriteString(n.Mod.String() + " ")
		}
		b.WriteString(n.Name.Value + " : ")
		if n.Width != nil {
			b.WriteString(ExprString(n.Width))
		} else {
			b.WriteString(ExprString(n.Type))
		}
		if n.Lo != nil {
			fmt.Fprintf(&b, " @ [%s, %s)", ExprString(n.Lo), ExprString(n.Hi))
		}
		p.printf("Field %s %s", b.String(), n.pos)

	case *RegisterDecl:
		switch {
		case n.Index != nil && n.Size != nil:
			p.printf("RegisterFile %s[%s] : %s -> %s %s", n.Name.Value, ExprString(n.Size), ExprString(n.Index), ExprString(n.Elem), n.pos)
		case n.Index != nil:
			p.printf("RegisterFile %s : %s -> %s %s", n.Name.Value, ExprString(n.Index), ExprString(n.Elem), n.pos)
		default:
			p.printf("Register %s : %s %s", n.Name.Value, ExprString(n.Elem), n.pos)
		}

	case *MemoryDecl:
		p.printf("Memory %s : %s -> %s %s", n.Name.Value, ExprString(n.Addr), ExprString(n.Elem), n.pos)

	case *FuncDecl:
		kind := "Function"
		if n.Reloc {
			kind = "Relocation"
		}
		params := make([]string, len(n.Params))
		for i, prm := range n.Params {
			params[i] = prm.Name.Value + ": " + ExprString(prm.Type)
		}
		p.printf("%s %s(%s) -> %s %s", kind, n.Name.Value, strings.Join(params, ", "), ExprString(n.Result), n.pos)
		p.nested("Body", n.Body)

	case *InstrDecl:
		p.printf("Instruction %s : %s %s", n.Name.Value, n.Format.Value, n.pos)
		p.indent++
		p.print(n.Body)
		p.indent--

	case *EncodingDecl:
		p.printf("Encoding %s %s", n.Instr.Value, n.pos)
		p.indent++
		for _, f := range n.Fields {
			p.printf("%s = %s", f.Field.Value, ExprString(f.Value))
		}
		p.indent--

	case *AssemblyDecl:
		p.printf("Assembly %s %q %s", n.Instr.Value, n.Syntax.Value, n.pos)

	case *BlockStmt:
		p.printf("Block %s", n.pos)
		p.indent++
		for _, s := range n.Stmts {
			p.print(s)
		}
		p.indent--

	case *IfStmt:
		p.printf("If %s %s", ExprString(n.Cond), n.pos)
		p.nested("Then", n.Then)
		if n.Else != nil {
			p.nested("Else", n.Else)
		}

	case *LetStmt:
		p.printf("Let %s = %s %s", n.Name.Value, ExprString(n.Value), n.pos)

	case *AssignStmt:
		p.printf("Assign %s := %s %s", ExprString(n.LHS), ExprString(n.RHS), n.pos)

	case *ExprStmt:
		p.printf("ExprStmt %s %s", ExprString(n.X), n.pos)

	case *EmptyStmt:
		p.printf("Empty %s", n.pos)

	case Expr:
		p.printf("%s %s", ExprString(n), n.Pos())

	default:
		p.printf("%T", n)
	}
}

// ExprString returns the source form of x.
func ExprString(x Expr) string {
	var b strings.Builder
	writeExpr(&b, x)
	return b.String()
}

func writeExpr(b *strings.Builder, x Expr) {
	switch x := x.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Name:
		b.WriteString(x.Value)
	case *BasicLit:
		if x.Kind == StringLit {
			b.WriteString(strconv.Quote(x.Value))
		} else {
			b.WriteString(x.Value)
		}
	case *Operation:
		if x.Y == nil {
			b.WriteString(x.Op.String())
			writeExpr(b, x.X)
			return
		}
		writeExpr(b, x.X)
		b.WriteString(" " + x.Op.String() + " ")
		writeExpr(b, x.Y)
	case *CallExpr:
		writeExpr(b, x.Fun)
		b.WriteByte('(')
		for i, a := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a)
		}
		b.WriteByte(')')
	case *SliceExpr:
		writeExpr(b, x.X)
		b.WriteByte('[')
		writeExpr(b, x.Lo)
		if x.Hi != nil {
			b.WriteByte(':')
			writeExpr(b, x.Hi)
		}
		b.WriteByte(']')
	case *SelectorExpr:
		writeExpr(b, x.X)
		b.WriteByte('.')
		b.WriteString(x.Sel.Value)
	case *ParenExpr:
		b.WriteByte('(')
		writeExpr(b, x.X)
		b.WriteByte(')')
	case *CastExpr:
		writeExpr(b, x.X)
		b.WriteString(" as ")
		writeExpr(b, x.Type)
	case *IfExpr:
		b.WriteString("if ")
		writeExpr(b, x.Cond)
		b.WriteString(" then ")
		writeExpr(b, x.X)
		b.WriteString(" else ")
		writeExpr(b, x.Y)
	case *BitsType:
		b.WriteString(x.Kind.Value + "<")
		writeExpr(b, x.Width)
		b.WriteByte('>')
	default:
		fmt.Fprintf(b, "%T", x)
	}
}
