package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/you-not-fish/adlc/internal/diag"
)

const sampleISA = `isa RV32I

constant XLEN = 32
using Word = Bits<XLEN>

format IType : Bits<32> {
  imm    : SInt<12> @ [20, 32)
  rs1    : 5
  funct3 : 3
  rd     : 5
  opcode : 7
}

register PC : Word
register file X[32] : Bits<5> -> Word
memory MEM : Bits<32> -> Bits<8>

function sx(v: SInt<12>) -> Word = sext(v, XLEN) as Word
relocation LO(symbol: Word) -> Bits<12> = symbol[0:12]

instruction ADDI : IType {
  let r = X(rs1) + sx(imm)
  if rd != 0 {
    X(rd) := r
  }
  PC := PC + 4
}

instruction LB : IType {
  X(rd) := sext(MEM(X(rs1) + sx(imm)), 32) as Word
  PC := PC + 4
}

encoding ADDI = { opcode = 0b0010011, funct3 = 0 }
encoding LB = { opcode = 0b0000011, funct3 = 0 }
assembly ADDI = "addi {rd}, {rs1}, {imm}"
`

func analyze(t *testing.T, src string) *Analysis {
	t.Helper()
	a, err := Analyze("test.adl", strings.NewReader(src), nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return a
}

// expectDiags checks that src produces exactly one diagnostic per
// expected substring, in order.
func expectDiags(t *testing.T, src string, expected ...string) *Analysis {
	t.Helper()
	a := analyze(t, src)
	if len(a.Diags) != len(expected) {
		var buf bytes.Buffer
		diag.Fprint(&buf, a.Diags)
		t.Fatalf("got %d diagnostics, want %d:\n%s", len(a.Diags), len(expected), buf.String())
	}
	for i, want := range expected {
		if got := a.Diags[i].Error(); !strings.Contains(got, want) {
			t.Errorf("diagnostic %d = %q, want substring %q", i, got, want)
		}
	}
	return a
}

func TestScenarioFormatValidates(t *testing.T) {
	a := expectDiags(t, `isa T
format F : Bits<32> {
  opcode : 7  @ [0, 7)
  rd     : 5  @ [7, 12)
  imm    : 20 @ [12, 32)
}
`)
	if a.Program == nil {
		t.Fatal("no program for a clean input")
	}
	f := a.Program.Format("F")
	if f == nil || f.Width != 32 || len(f.Fields) != 3 {
		t.Fatalf("format F = %s", spew.Sdump(f))
	}
}

func TestScenarioOverlappingFields(t *testing.T) {
	a := expectDiags(t, `isa T
format F : Bits<32> {
  opcode : 7  @ [0, 7)
  rd     : 5  @ [10, 15)
  imm    : 20 @ [12, 32)
}
`, "[OverlappingFields]")
	d := a.Diags[0]
	if !strings.Contains(d.Msg, "rd") || !strings.Contains(d.Msg, "imm") {
		t.Errorf("message %q does not cite rd and imm", d.Msg)
	}
	if a.Program != nil {
		t.Error("program built despite errors")
	}
}

func TestScenarioWidthMismatch(t *testing.T) {
	const prelude = `isa T
format F : Bits<32> {
  rd     : 5
  opcode : 27
}
register H : Bits<16>
register file X[32] : Bits<5> -> Bits<32>
`
	tests := []struct {
		name string
		body string
		want string // empty for no diagnostics
	}{
		{"literal", "X(rd) := 0x1234 as Bits<16>", "[WidthMismatch]"},
		{"register", "X(rd) := H", "[WidthMismatch]"},
		{"zext", "X(rd) := zext(H, 32)", ""},
		{"sext", "X(rd) := sext(H, 32)", ""},
		{"zext literal", "X(rd) := zext(0x1234 as Bits<16>, 32)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := prelude + "instruction I : F {\n  " + tt.body + "\n}\nencoding I = { opcode = 1 }\n"
			if tt.want == "" {
				expectDiags(t, src)
			} else {
				expectDiags(t, src, tt.want)
			}
		})
	}
}

func TestScenarioUnknownTarget(t *testing.T) {
	// The reader fails the test if the input is ever read.
	src := readerFunc(func([]byte) (int, error) {
		t.Fatal("input read despite a configuration error")
		return 0, nil
	})
	res, err := Compile(context.Background(), "test.adl", src, Config{
		Targets: []string{"simulator", "nosuch"},
		OutDir:  t.TempDir(),
	})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Compile error = %v, want *ConfigError", err)
	}
	if !strings.Contains(cfgErr.Msg, "unknown target nosuch") {
		t.Errorf("message = %q", cfgErr.Msg)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	if got := ExitCode(res, err); got != ExitConfig {
		t.Errorf("exit code = %d, want %d", got, ExitConfig)
	}
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func TestRegistry(t *testing.T) {
	want := []string{"simulator", "backend", "dump"}
	if got := TargetNames(); !slices.Equal(got, want) {
		t.Errorf("TargetNames() = %v, want %v", got, want)
	}
	for _, name := range want {
		if Lookup(name) == nil {
			t.Errorf("Lookup(%q) = nil", name)
		}
	}
	if Lookup("llvm") != nil {
		t.Error("Lookup of an unregistered name succeeded")
	}
}

func TestConfigNeedsOutDir(t *testing.T) {
	_, err := Compile(context.Background(), "test.adl", strings.NewReader(sampleISA), Config{Targets: []string{"dump"}})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Compile error = %v, want *ConfigError", err)
	}
}

func TestCompileAllTargets(t *testing.T) {
	out := t.TempDir()
	res, err := Compile(context.Background(), "rv32i.adl", strings.NewReader(sampleISA), Config{
		Targets: []string{"dump", "simulator", "backend"},
		OutDir:  out,
		Version: "v0.0.0-test",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Diags)
	}
	if got := ExitCode(res, nil); got != ExitOK {
		t.Errorf("exit code = %d, want 0", got)
	}

	var targets []string
	for _, o := range res.Outputs {
		targets = append(targets, o.Target)
	}
	// registry order, not request order
	if want := []string{"simulator", "backend", "dump"}; !slices.Equal(targets, want) {
		t.Errorf("outputs = %v, want %v", targets, want)
	}

	for _, path := range []string{
		"simulator/rv32i_state.h",
		"simulator/rv32i_decode.c",
		"simulator/rv32i_exec.c",
		"backend/RV32IRegisterInfo.td",
		"backend/RV32IInstrFormats.td",
		"backend/RV32IInstrInfo.td",
		"backend/RV32IFixupKinds.h",
		"dump/ir.txt",
		"dump/layout.txt",
		"dump/encodings.txt",
	} {
		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(path)))
		if err != nil {
			t.Errorf("missing output: %v", err)
			continue
		}
		if !bytes.Contains(data, []byte("Code generated by adlc v0.0.0-test")) {
			t.Errorf("%s has no generated-file header", path)
		}
	}
}

func TestCompileErrorsWriteNothing(t *testing.T) {
	out := t.TempDir()
	src := sampleISA + "\ninstruction BAD : IType {\n  PC := X\n}\n"
	res, err := Compile(context.Background(), "bad.adl", strings.NewReader(src), Config{
		Targets: []string{"dump"},
		OutDir:  out,
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !res.HasErrors() {
		t.Fatal("expected errors")
	}
	if got := ExitCode(res, nil); got != ExitErrors {
		t.Errorf("exit code = %d, want %d", got, ExitErrors)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("output written despite errors: %v", entries)
	}
}

func TestSyntaxErrorsStopAnalysis(t *testing.T) {
	a := analyze(t, "isa T\nformat F : Bits<32> {\n  a : \n}\nregister R : Nope\n")
	if len(a.Diags) == 0 {
		t.Fatal("no diagnostics")
	}
	for _, d := range a.Diags {
		if d.Kind != diag.SyntaxError {
			t.Errorf("got %s after a syntax error", d)
		}
	}
	if a.Info != nil || a.Program != nil {
		t.Error("analysis continued past syntax errors")
	}
}

// Analyzing the same erroneous input twice reports the same diagnostics.
func TestRecoveryIsIdempotent(t *testing.T) {
	src := `isa T
format F : Bits<32> {
  a : 16
  a : 8
}
register R : Bits<8>
register R : Bits<8>
instruction I : F {
  R := missing
  R := 300
}
encoding I = { nosuch = 1 }
`
	first := analyze(t, src)
	second := analyze(t, src)
	if len(first.Diags) < 4 {
		t.Fatalf("got %d diagnostics, want at least 4", len(first.Diags))
	}
	if len(first.Diags) != len(second.Diags) {
		t.Fatalf("runs differ: %d vs %d diagnostics", len(first.Diags), len(second.Diags))
	}
	for i := range first.Diags {
		if a, b := first.Diags[i].Error(), second.Diags[i].Error(); a != b {
			t.Errorf("diagnostic %d differs:\n%s\n%s", i, a, b)
		}
	}
}

func TestWarningsDoNotFail(t *testing.T) {
	src := sampleISA + "\ninstruction NOP : IType {\n  PC := PC + 4\n}\n"
	res, err := Compile(context.Background(), "w.adl", strings.NewReader(src), Config{
		Targets: []string{"dump"},
		OutDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.HasErrors() || len(res.Diags) != 1 || res.Diags[0].Kind != diag.MissingEncoding {
		t.Fatalf("diagnostics = %v, want one MissingEncoding warning", res.Diags)
	}
	if len(res.Outputs) != 1 {
		t.Errorf("got %d outputs, want 1", len(res.Outputs))
	}
	if got := ExitCode(res, nil); got != ExitOK {
		t.Errorf("exit code = %d, want 0", got)
	}
}

func TestUnsupportedFeature(t *testing.T) {
	src := `isa W
format F : Bits<32> {
  rd     : 5
  opcode : 27
}
register file V[4] : Bits<2> -> Bits<128>
instruction I : F {
  V(0) := V(1)
}
encoding I = { opcode = 1 }
`
	out := t.TempDir()
	res, err := Compile(context.Background(), "w.adl", strings.NewReader(src), Config{
		Targets: []string{"simulator", "dump"},
		OutDir:  out,
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !res.HasErrors() {
		t.Fatal("expected an UnsupportedConstruct error")
	}
	for _, d := range res.Diags {
		if d.Kind != diag.UnsupportedConstruct || !strings.Contains(d.Msg, "target simulator") {
			t.Errorf("unexpected diagnostic %s", d)
		}
	}
	// dump supports wide values, but nothing is written when any
	// requested target fails.
	if entries, _ := os.ReadDir(out); len(entries) != 0 {
		t.Errorf("output written despite errors: %v", entries)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		res  *Result
		err  error
		want int
	}{
		{"clean", &Result{}, nil, ExitOK},
		{"errors", &Result{Diags: []*diag.Diagnostic{{Severity: diag.Error}}}, nil, ExitErrors},
		{"warnings", &Result{Diags: []*diag.Diagnostic{{Severity: diag.Warning}}}, nil, ExitOK},
		{"config", nil, &ConfigError{Msg: "x"}, ExitConfig},
		{"internal", nil, &InternalError{Phase: "check", Value: "boom"}, ExitInternal},
		{"io", nil, errors.New("disk full"), ExitErrors},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.res, tt.err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}
