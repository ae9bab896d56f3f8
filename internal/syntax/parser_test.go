package syntax

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func parseFile(t *testing.T, src string) *File {
	t.Helper()
	f, errs := parseFileWithErrors(t, src)
	if len(errs) > 0 {
		t.Fatalf("unexpected syntax errors:\n%s", strings.Join(errs, "\n"))
	}
	return f
}

func parseFileWithErrors(t *testing.T, src string) (*File, []string) {
	t.Helper()
	var errs []string
	p := NewParser("test.adl", strings.NewReader(src), func(pos Pos, msg string) {
		errs = append(errs, pos.String()+": "+msg)
	})
	return p.Parse(), errs
}

const sampleISA = `isa RV32I

constant XLEN = 32
using Word = Bits<XLEN>

format IType : Bits<32> {
  imm    : SInt<12> @ [20, 32)
  rs1    : 5
  funct3 : 3
  rd     : 5
  opcode : 7
  alias shamt : 5 @ [20, 25)
}

register PC : Word
register file X[32] : Bits<5> -> Word
memory MEM : Bits<32> -> Bits<8>

function sx(v: SInt<12>) -> Word = sext(v, XLEN) as Word
relocation HI(symbol: Word) -> Bits<20> = (symbol + 0x800)[12:32]

instruction ADDI : IType {
  let r = X(rs1) + sx(imm)
  if rd != 0 {
    X(rd) := r
  } else {
    X(0) := 0
  }
  PC := PC + 4
}
encoding ADDI = { opcode = 0b0010011, funct3 = 0 }
assembly ADDI = "addi {rd}, {rs1}, {imm}"
`

func TestParseDeclarations(t *testing.T) {
	f := parseFile(t, sampleISA)
	if f.Name == nil || f.Name.Value != "RV32I" {
		t.Fatalf("isa name = %v, want RV32I", f.Name)
	}
	want := []string{
		"*syntax.ConstDecl", "*syntax.UsingDecl", "*syntax.FormatDecl",
		"*syntax.RegisterDecl", "*syntax.RegisterDecl", "*syntax.MemoryDecl",
		"*syntax.FuncDecl", "*syntax.FuncDecl", "*syntax.InstrDecl",
		"*syntax.EncodingDecl", "*syntax.AssemblyDecl",
	}
	if len(f.Decls) != len(want) {
		t.Fatalf("got %d decls, want %d", len(f.Decls), len(want))
	}
	for i, d := range f.Decls {
		if got := fmt.Sprintf("%T", d); got != want[i] {
			t.Errorf("decl %d is %s, want %s", i, got, want[i])
		}
	}
}

func TestParseFormatFields(t *testing.T) {
	f := parseFile(t, sampleISA)
	fd := f.Decls[2].(*FormatDecl)
	if len(fd.Fields) != 6 {
		t.Fatalf("got %d fields, want 6", len(fd.Fields))
	}
	imm := fd.Fields[0]
	if imm.Type == nil || ExprString(imm.Type) != "SInt<12>" {
		t.Errorf("imm type = %s, want SInt<12>", ExprString(imm.Type))
	}
	if imm.Lo == nil || ExprString(imm.Lo) != "20" || ExprString(imm.Hi) != "32" {
		t.Errorf("imm range = [%s, %s)", ExprString(imm.Lo), ExprString(imm.Hi))
	}
	if rs1 := fd.Fields[1]; rs1.Width == nil || ExprString(rs1.Width) != "5" || rs1.Lo != nil {
		t.Errorf("rs1 = %+v, want unpositioned width 5", rs1)
	}
	if shamt := fd.Fields[5]; shamt.Mod != FieldAlias || shamt.Name.Value != "shamt" {
		t.Errorf("shamt mod = %v name = %s, want alias shamt", shamt.Mod, shamt.Name.Value)
	}
}

func TestParseRegisters(t *testing.T) {
	f := parseFile(t, sampleISA)
	pc := f.Decls[3].(*RegisterDecl)
	if pc.File || pc.Index != nil || ExprString(pc.Elem) != "Word" {
		t.Errorf("PC = %+v, want plain register of Word", pc)
	}
	x := f.Decls[4].(*RegisterDecl)
	if !x.File || ExprString(x.Size) != "32" || ExprString(x.Index) != "Bits<5>" || ExprString(x.Elem) != "Word" {
		t.Errorf("X = file %v size %s index %s elem %s", x.File, ExprString(x.Size), ExprString(x.Index), ExprString(x.Elem))
	}
	// a register may be called "file"
	f = parseFile(t, "register file : Bits<8>\n")
	if r := f.Decls[0].(*RegisterDecl); r.File || r.Name.Value != "file" {
		t.Errorf("register named file parsed as %+v", r)
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "a + b * c"},
		{"(a + b) * c", "(a + b) * c"},
		{"a ++ b[0:4]", "a ++ b[0:4]"},
		{"x[3]", "x[3]"},
		{"-x as SInt<8>", "-x as SInt<8>"},
		{"~a & b", "~a & b"},
		{"if a == 1 then b else c", "if a == 1 then b else c"},
		{"STATUS.c", "STATUS.c"},
		{"sext(imm, 32)", "sext(imm, 32)"},
	}
	for _, tt := range tests {
		f := parseFile(t, "constant C = "+tt.src+"\n")
		got := ExprString(f.Decls[0].(*ConstDecl).Value)
		if got != tt.want {
			t.Errorf("parse %q = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestParsePrecedence(t *testing.T) {
	f := parseFile(t, "constant C = a || b && c == d + e * f\n")
	op := f.Decls[0].(*ConstDecl).Value.(*Operation)
	if op.Op != OrOr {
		t.Fatalf("root op = %v, want ||", op.Op)
	}
	and := op.Y.(*Operation)
	if and.Op != AndAnd {
		t.Fatalf("right op = %v, want &&", and.Op)
	}
	eq := and.Y.(*Operation)
	if eq.Op != Eql {
		t.Fatalf("op = %v, want ==", eq.Op)
	}
	if add := eq.Y.(*Operation); add.Op != Add || add.Y.(*Operation).Op != Mul {
		t.Errorf("arithmetic nesting wrong: %s", ExprString(eq.Y))
	}
}

func TestParseInstructionBody(t *testing.T) {
	f := parseFile(t, sampleISA)
	instr := f.Decls[8].(*InstrDecl)
	if instr.Format.Value != "IType" {
		t.Errorf("format = %s, want IType", instr.Format.Value)
	}
	stmts := instr.Body.Stmts
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}
	if _, ok := stmts[0].(*LetStmt); !ok {
		t.Errorf("stmt 0 is %T, want *LetStmt", stmts[0])
	}
	ifs, ok := stmts[1].(*IfStmt)
	if !ok {
		t.Fatalf("stmt 1 is %T, want *IfStmt", stmts[1])
	}
	if _, ok := ifs.Else.(*BlockStmt); !ok {
		t.Errorf("else is %T, want *BlockStmt", ifs.Else)
	}
	asg, ok := stmts[2].(*AssignStmt)
	if !ok {
		t.Fatalf("stmt 2 is %T, want *AssignStmt", stmts[2])
	}
	if ExprString(asg.LHS) != "PC" || ExprString(asg.RHS) != "PC + 4" {
		t.Errorf("assign = %s := %s", ExprString(asg.LHS), ExprString(asg.RHS))
	}
}

func TestParseEncodingAndAssembly(t *testing.T) {
	f := parseFile(t, sampleISA)
	enc := f.Decls[9].(*EncodingDecl)
	if enc.Instr.Value != "ADDI" || len(enc.Fields) != 2 {
		t.Fatalf("encoding = %s with %d fields", enc.Instr.Value, len(enc.Fields))
	}
	if enc.Fields[0].Field.Value != "opcode" || ExprString(enc.Fields[0].Value) != "0b0010011" {
		t.Errorf("field 0 = %s = %s", enc.Fields[0].Field.Value, ExprString(enc.Fields[0].Value))
	}
	asm := f.Decls[10].(*AssemblyDecl)
	if asm.Syntax.Value != "addi {rd}, {rs1}, {imm}" {
		t.Errorf("assembly = %q", asm.Syntax.Value)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing colon", "format F Bits<32> { a : 1 }\n", "expected :"},
		{"plain assign", "instruction I : F { PC = 1 }\n", "expected := in assignment"},
		{"bad decl", "widget W\n", "expected declaration"},
		{"missing arrow", "register file X[4] : Bits<2>\n", "expected -> in register file"},
		{"missing then", "constant C = if a b else c\n", "expected then"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := parseFileWithErrors(t, tt.src)
			for _, e := range errs {
				if strings.Contains(e, tt.want) {
					return
				}
			}
			t.Errorf("errors %v, want one containing %q", errs, tt.want)
		})
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	src := "constant A = \nconstant B = 2\nregister R : Bits<8>\n"
	f, errs := parseFileWithErrors(t, src)
	if len(errs) == 0 {
		t.Fatal("expected a syntax error")
	}
	var names []string
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ConstDecl:
			names = append(names, d.Name.Value)
		case *RegisterDecl:
			names = append(names, d.Name.Value)
		}
	}
	if got := strings.Join(names, ","); !strings.Contains(got, "R") {
		t.Errorf("declarations after the error were lost: %s", got)
	}
}

func TestWalkVisitsNames(t *testing.T) {
	f := parseFile(t, sampleISA)
	count := 0
	Inspect(f, func(n *Name) {
		if n.Value == "rd" {
			count++
		}
	})
	// field declaration, if condition, X(rd)
	if count != 3 {
		t.Errorf("found %d uses of rd, want 3", count)
	}
}

func TestFprintJSON(t *testing.T) {
	f := parseFile(t, sampleISA)
	var buf bytes.Buffer
	if err := FprintJSON(&buf, f); err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["isa"] != "RV32I" {
		t.Errorf("isa = %v", m["isa"])
	}
	if decls, _ := m["decls"].([]any); len(decls) != 11 {
		t.Errorf("got %d decls in JSON", len(decls))
	}
}

func TestFprintTree(t *testing.T) {
	f := parseFile(t, sampleISA)
	var buf bytes.Buffer
	if err := Fprint(&buf, f); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"File RV32I",
		"Field alias shamt : 5 @ [20, 25)",
		"RegisterFile X[32] : Bits<5> -> Word",
		"Assign X(rd) := r",
		"Relocation HI(symbol: Word) -> Bits<20>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tree dump missing %q:\n%s", want, out)
		}
	}
}
