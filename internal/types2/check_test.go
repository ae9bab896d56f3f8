package types2

import (
	"fmt"
	"strings"
	"testing"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// prelude declares the state used by instruction bodies under test.
const prelude = `isa T

constant XLEN = 32
using Word = Bits<XLEN>

format RType : Bits<32> {
  funct7 : 7
  rs2    : 5
  rs1    : 5
  funct3 : 3
  rd     : 5
  opcode : 7
}

format Status : Bits<8> {
  mode  : 2
  flags : 6
}

register PC : Word
register R8 : Bits<8>
register S8 : SInt<8>
register ST : Status
register file X[32] : Bits<5> -> Word
memory MEM : Bits<32> -> Bits<8>
`

// instr wraps body in an instruction over RType.
func instr(body string) string {
	return prelude + "\ninstruction I : RType {\n" + body + "\n}\n"
}

// parseAndCheck parses src and runs resolution and checking. It returns
// the Info and all diagnostics in order.
func parseAndCheck(t *testing.T, src string, workers int) (*syntax.File, *Info, []*diag.Diagnostic) {
	t.Helper()
	var parseErrs []string
	file, _ := syntax.Parse("test.adl", strings.NewReader(src), func(pos syntax.Pos, msg string) {
		parseErrs = append(parseErrs, pos.String()+": "+msg)
	})
	if len(parseErrs) > 0 {
		t.Fatalf("parse errors:\n%s", strings.Join(parseErrs, "\n"))
	}

	var bag diag.Bag
	conf := &Config{Error: bag.Add, Workers: workers}
	info := NewInfo()
	Resolve(file, conf, info)
	Check(file, conf, info)
	return file, info, bag.Diagnostics()
}

func diagStrings(ds []*diag.Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Error()
	}
	return out
}

// expectNoErrors checks that src produces no error diagnostics.
func expectNoErrors(t *testing.T, src string) *Info {
	t.Helper()
	_, info, ds := parseAndCheck(t, src, 0)
	var errs []string
	for _, d := range ds {
		if d.Severity == diag.Error {
			errs = append(errs, d.Error())
		}
	}
	if len(errs) > 0 {
		t.Errorf("unexpected errors:\n%s", strings.Join(errs, "\n"))
	}
	return info
}

// expectErrors checks that src produces exactly one diagnostic per
// expected substring, in order.
func expectErrors(t *testing.T, src string, expected ...string) {
	t.Helper()
	_, _, ds := parseAndCheck(t, src, 0)
	got := diagStrings(ds)
	if len(got) != len(expected) {
		t.Errorf("got %d diagnostics, want %d:\n%s", len(got), len(expected), strings.Join(got, "\n"))
		return
	}
	for i, want := range expected {
		if !strings.Contains(got[i], want) {
			t.Errorf("diagnostic %d = %q, want substring %q", i, got[i], want)
		}
	}
}

func TestCheckValidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"add", "X(rd) := X(rs1) + X(rs2)"},
		{"add constant", "X(rd) := X(rs1) + 1"},
		{"max unsigned", "R8 := 255"},
		{"negative into unsigned", "R8 := -1"},
		{"min signed", "S8 := -128"},
		{"slice", "R8 := X(rs1)[0:8]"},
		{"bit", "R8 := zext(X(rs1)[31], 8)"},
		{"trunc", "R8 := trunc(X(rs1), 8)"},
		{"zext", "X(rd) := zext(R8, 32)"},
		{"sext", "X(rd) := sext(S8, XLEN) as Word"},
		{"format register field", "ST.mode := 3"},
		{"format as bits", "R8 := ST"},
		{"compare", "if X(rs1) < X(rs2) { PC := PC + 4 }"},
		{"else if", "if rd == 0 { PC := 0 } else if rd == 1 { PC := 4 } else { PC := 8 }"},
		{"let", "let t = X(rs1) >> 2\nX(rd) := t"},
		{"let constant", "let k = 7\nR8 := k"},
		{"memory", "MEM(X(rs1)) := R8"},
		{"conditional", "X(rd) := if rd == 0 then 0 else X(rs1)"},
		{"shift constant", "PC := PC + (1 << 4)"},
		{"concat", "X(rd) := R8 ++ R8 ++ (X(rs1)[0:16])"},
		{"logical", "if rd != 0 && rs1 != 0 || !(rs2 == 0) { PC := PC }"},
		{"bool cast", "if (R8 as Bool) { R8 := 0 }"},
		{"shadow field", "let rd = 3\nR8 := rd"},
		{"bit condition", "if X(rs1)[0] { R8 := 1 }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectNoErrors(t, instr(tt.body))
		})
	}
}

func TestCheckWidthAlgebra(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"narrowing", "R8 := X(rs1)", "width 32, want 8 [WidthMismatch]"},
		{"overflow", "R8 := 256", "constant 256 overflows Bits<8>"},
		{"signed overflow", "S8 := -129", "[WidthMismatch]"},
		{"mixed widths", "X(rd) := X(rs1) + R8", "mismatched widths"},
		{"bitwise widths", "X(rd) := X(rs1) & R8", "[WidthMismatch]"},
		{"constant too wide", "R8 := R8 + 300", "constant 300 does not fit in Bits<8>"},
		{"concat width", "X(rd) := X(rs1) ++ X(rs2)", "[WidthMismatch]"},
		{"slice range", "R8 := X(rs1)[24:40]", "slice [24:40] out of range for Bits<32> [WidthOutOfRange]"},
		{"empty slice", "R8 := X(rs1)[8:8]", "[WidthOutOfRange]"},
		{"bit range", "R8 := zext(X(rs1)[32], 8)", "bit 32 out of range"},
		{"sext narrower", "X(rd) := sext(X(rs1), 16)", "cannot extend Bits<32> to 16 bits [WidthOutOfRange]"},
		{"trunc wider", "R8 := trunc(R8, 9)", "cannot truncate Bits<8> to 9 bits"},
		{"index width", "X(rd) := X(R8)", "is indexed by Bits<5> [WidthMismatch]"},
		{"index constant", "X(rd) := X(32)", "[WidthMismatch]"},
		{"slice of constant", "R8 := 5[0:2]", "cannot slice untyped constant"},
		{"concat constant", "X(rd) := S8 ++ 1", "cannot concatenate untyped constant 1"},
		{"dynamic slice", "R8 := X(rs1)[rs2:8]", "[NotConstant]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectErrors(t, instr(tt.body), tt.want)
		})
	}
}

func TestCheckStatementErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"format field", "rd := 0", "cannot assign to format field rd [NotAssignable]"},
		{"let", "let v = X(rs1)\nv := 2", "cannot assign to let-bound v"},
		{"let constant", "let v = 1\nv := 2", "cannot assign to let-bound v"},
		{"constant", "XLEN := 2", "cannot assign to constant XLEN"},
		{"slice", "X(rd)[0:8] := R8", "cannot assign to slice"},
		{"unknown field", "ST.nope := 1", "nope is not a field of format Status [UnknownField]"},
		{"arity", "X(rd) := X(rs1, rs2)", "takes exactly one index, got 2 [ArgumentCount]"},
		{"builtin arity", "R8 := zext(R8)", "zext expects 2 arguments, got 1"},
		{"unindexed", "PC := X", "must be indexed"},
		{"condition", "if X(rs1) { R8 := 0 }", "non-boolean condition"},
		{"unused", "X(rd)", "X(rd) is not used [InvalidOperation]"},
		{"division by zero", "R8 := 1 / 0", "division by zero"},
		{"negative shift", "X(rd) := X(rs1) << -1", "negative shift count"},
		{"type as value", "R8 := Word", "Word is a type, not a value"},
		{"instruction as value", "R8 := I", "instruction I is not a value"},
		{"string", `R8 := "x"`, "string literal"},
		{"bool into bits", "R8 := rd == 0", "[TypeMismatch]"},
		{"complement untyped", "R8 := ~1", "cannot complement untyped constant"},
		{"unsized shift", "X(rd) := 1 << rs1", "shifted operand 1 must be sized"},
		{"infer conditional", "X(rd) := X(if rd == 0 then 1 else 2)", "cannot infer the width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectErrors(t, instr(tt.body), tt.want)
		})
	}
}

func TestCheckSignednessWarning(t *testing.T) {
	_, _, ds := parseAndCheck(t, instr("if R8 < S8 { PC := 0 }"), 0)
	if len(ds) != 1 {
		t.Fatalf("got %d diagnostics, want 1:\n%s", len(ds), strings.Join(diagStrings(ds), "\n"))
	}
	if ds[0].Kind != diag.SignednessMismatch || ds[0].Severity != diag.Warning {
		t.Errorf("got %s, want a SignednessMismatch warning", ds[0])
	}
}

func TestCheckFunctions(t *testing.T) {
	expectNoErrors(t, instr("R8 := g(R8)")+`
function g(a: Bits<8>) -> Bits<8> = a + 1
function z() -> Bits<4> = 15
relocation lo(s: Word) -> Bits<12> = s[0:12]
`)

	expectErrors(t, prelude+`
function f(a: Bits<8>) -> Bits<16> = a
`, "function f returns Bits<8>, declared Bits<16> [ReturnTypeMismatch]")

	expectErrors(t, prelude+`
function h() -> Bits<4> = 16
`, "[ReturnTypeMismatch]")

	expectErrors(t, instr("R8 := g(R8, R8)")+`
function g(a: Bits<8>) -> Bits<8> = a
`, "function g expects 1 arguments, got 2 [ArgumentCount]")

	expectErrors(t, instr("R8 := g(X(rs1))")+`
function g(a: Bits<8>) -> Bits<8> = a
`, "in argument a of g: width 32, want 8 [WidthMismatch]")

	expectErrors(t, prelude+`
function p(a: Bits<8>, a: Bits<8>) -> Bits<8> = a
`, "a redeclared in this scope [DuplicateSymbol]")
}

func TestCheckConstantValues(t *testing.T) {
	info := expectNoErrors(t, prelude+`
constant A = (1 << 4) + 2
constant B : Bits<8> = -1
constant C : SInt<8> = 200
constant D = 7 / 2
constant E = A * 2 == 36
`)
	tests := []struct {
		name string
		want string
		typ  string
	}{
		{"A", "18", "untyped int"},
		{"B", "255", "Bits<8>"},
		{"C", "-56", "SInt<8>"},
		{"D", "3", "untyped int"},
		{"E", "true", "untyped bool"},
	}
	for _, tt := range tests {
		obj, ok := info.Lookup(tt.name).(*types.Const)
		if !ok {
			t.Errorf("%s: not a constant", tt.name)
			continue
		}
		if got := obj.Val().ExactString(); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, got, tt.want)
		}
		if got := obj.Type().String(); got != tt.typ {
			t.Errorf("%s has type %s, want %s", tt.name, got, tt.typ)
		}
	}
}

func TestCheckConstantErrors(t *testing.T) {
	expectErrors(t, prelude+"constant K = PC\n", "PC of type Bits<32> is not constant [NotConstant]")
	expectErrors(t, prelude+"constant K : Bits<4> = 16\n", "constant 16 overflows Bits<4>")
	expectErrors(t, prelude+"using W = Bits<0>\n", "width 0 out of range")
	expectErrors(t, prelude+"register file Y[64] : Bits<5> -> Word\n", "index type Bits<5> cannot address 64 registers [WidthOutOfRange]")
	expectErrors(t, prelude+"register B : Bool\n", "register element type must be a bit vector or a format")
}

func TestCheckUntypedConversionRecorded(t *testing.T) {
	file, info, ds := parseAndCheck(t, instr("R8 := 255\nX(rd) := X(rs1) + (2)"), 0)
	if len(ds) > 0 {
		t.Fatalf("unexpected diagnostics:\n%s", strings.Join(diagStrings(ds), "\n"))
	}
	var rhs []syntax.Expr
	syntax.Inspect(file, func(s *syntax.AssignStmt) {
		rhs = append(rhs, s.RHS)
	})
	if got := info.Types[rhs[0]].Type.String(); got != "Bits<8>" {
		t.Errorf("255 recorded as %s, want Bits<8>", got)
	}
	sum := rhs[1].(*syntax.Operation)
	paren := sum.Y.(*syntax.ParenExpr)
	for _, e := range []syntax.Expr{paren, paren.X} {
		tv := info.Types[e]
		if tv.Type.String() != "Bits<32>" {
			t.Errorf("%s recorded as %s, want Bits<32>", syntax.ExprString(e), tv.Type)
		}
		if !tv.IsConstant() || tv.Value.ExactString() != "2" {
			t.Errorf("%s recorded with value %v, want 2", syntax.ExprString(e), tv.Value)
		}
	}
}

func TestCheckEncodingAndAssembly(t *testing.T) {
	src := instr("PC := PC") + `
encoding I = { opcode = 0x33, nope = 1 }
assembly I = "add {rd}, {rs1}, {bogus}"
`
	expectErrors(t, src,
		"nope is not a field of format RType [UnknownField]",
		"assembly of I refers to unknown field bogus [UnknownField]")

	expectErrors(t, instr("PC := PC")+"encoding I = { rd = 1, rd = 2 }\n",
		"field rd encoded twice [DuplicateSymbol]")

	expectErrors(t, instr("PC := PC")+"encoding I = { rd = R8 }\n",
		"encoding of rd must be an integer constant")

	expectErrors(t, prelude+"encoding R8 = { rd = 1 }\n", "R8 is not an instruction [TypeMismatch]")

	expectErrors(t, instr("PC := PC")+"encoding I = { rd = 1 }\nencoding I = { rd = 2 }\n",
		"duplicate encoding of I [DuplicateSymbol]")
}

func TestCheckForwardReferences(t *testing.T) {
	expectNoErrors(t, `isa F
using W = Bits<N>
constant N = 16
format G : Bits<16> { a : W }
instruction J : G { Q := a }
register Q : W
`)
}

func TestCheckWorkersDeterministic(t *testing.T) {
	var body strings.Builder
	for i := 0; i < 24; i++ {
		fmt.Fprintf(&body, "instruction I%d : RType {\n  R8 := X(rs1)\n  R8 := R8 + %d\n}\n", i, i)
	}
	src := prelude + body.String()

	_, info1, ds1 := parseAndCheck(t, src, 1)
	want := diagStrings(ds1)
	if len(want) != 24 {
		t.Fatalf("got %d diagnostics, want 24", len(want))
	}
	for _, workers := range []int{2, 8, 32} {
		_, info, ds := parseAndCheck(t, src, workers)
		got := diagStrings(ds)
		if strings.Join(got, "\n") != strings.Join(want, "\n") {
			t.Errorf("workers=%d: diagnostics differ:\n%s\nwant:\n%s", workers, strings.Join(got, "\n"), strings.Join(want, "\n"))
		}
		if len(info.Types) != len(info1.Types) {
			t.Errorf("workers=%d: recorded %d types, want %d", workers, len(info.Types), len(info1.Types))
		}
	}
}

func TestCheckErrorsDoNotCascade(t *testing.T) {
	// Each root error is reported once; expressions built from an
	// erroneous operand stay silent.
	expectErrors(t, instr("X(rd) := nothing + 1\nR8 := (nothing ++ X(rs1))[0:8]"),
		"undefined: nothing [UnresolvedSymbol]",
		"undefined: nothing [UnresolvedSymbol]")

	expectErrors(t, instr("let t = X(rs1) + R8\nR8 := t\nX(rd) := t + t"),
		"mismatched widths")

	expectErrors(t, instr("R8 := zext(bogus(R8), 8)"),
		"undefined: bogus")
}

func TestCheckRecoveryIdempotent(t *testing.T) {
	src := instr("R8 := X(rs1)\nX(rd) := missing\nST.nope := 1") + `
constant A = B
constant B = A
function f(a: Bits<8>) -> Bits<16> = a
`
	_, _, first := parseAndCheck(t, src, 4)
	_, _, second := parseAndCheck(t, src, 4)
	a, b := diagStrings(first), diagStrings(second)
	if strings.Join(a, "\n") != strings.Join(b, "\n") {
		t.Fatalf("runs differ:\n%s\n---\n%s", strings.Join(a, "\n"), strings.Join(b, "\n"))
	}
	seen := make(map[string]bool)
	for _, s := range a {
		if seen[s] {
			t.Errorf("diagnostic reported twice: %s", s)
		}
		seen[s] = true
	}
	if len(a) != 5 {
		t.Errorf("got %d diagnostics, want 5:\n%s", len(a), strings.Join(a, "\n"))
	}
}

func TestCheckBeforeResolve(t *testing.T) {
	file, _ := syntax.Parse("x.adl", strings.NewReader("isa X\n"), nil)
	if err := Check(file, nil, NewInfo()); err == nil {
		t.Fatal("Check without Resolve succeeded")
	}
}
