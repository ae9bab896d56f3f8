package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/you-not-fish/adlc/internal/driver"
)

const sampleSrc = `isa Tiny

format F : Bits<16> {
  op  : 4
  rd  : 4
  imm : 8
}

register file R[16] : Bits<4> -> Bits<8>
register PC : Bits<16>

instruction LI : F {
  R(rd) := imm
  PC := PC + 2
}

encoding LI = { op = 1 }
assembly LI = "li {rd}, {imm}"
`

func TestRunEmitASTFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"text", "Instruction LI : F"},
		{"json", `"InstrDecl"`},
		{"spew", "syntax.InstrDecl"},
	}
	filename := writeTempADLFile(t, sampleSrc)
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			setFlag(t, astFormat, tt.format)
			code, out, errOut := captureOutput(t, func() int {
				return runEmitAST(filename)
			})
			if code != 0 {
				t.Fatalf("runEmitAST exit=%d\nstderr:\n%s", code, errOut)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("AST output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestRunEmitASTUnknownFormat(t *testing.T) {
	setFlag(t, astFormat, "yaml")
	code, _, errOut := captureOutput(t, func() int {
		return runEmitAST(writeTempADLFile(t, sampleSrc))
	})
	if code != driver.ExitConfig {
		t.Fatalf("exit=%d, want %d", code, driver.ExitConfig)
	}
	if !strings.Contains(errOut, `unknown AST format "yaml"`) {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestRunEmitASTSyntaxError(t *testing.T) {
	setFlag(t, astFormat, "text")
	code, _, errOut := captureOutput(t, func() int {
		return runEmitAST(writeTempADLFile(t, "isa T\nformat F : {\n}\n"))
	})
	if code != driver.ExitErrors {
		t.Fatalf("exit=%d, want %d", code, driver.ExitErrors)
	}
	if errOut == "" {
		t.Fatal("no error output")
	}
}

func TestRunEmitIR(t *testing.T) {
	code, out, errOut := captureOutput(t, func() int {
		return runEmitIR(writeTempADLFile(t, sampleSrc))
	})
	if code != 0 {
		t.Fatalf("runEmitIR exit=%d\nstderr:\n%s", code, errOut)
	}
	for _, want := range []string{"instr LI", "SetRegFile", "SetReg"} {
		if !strings.Contains(out, want) {
			t.Errorf("IR output missing %q:\n%s", want, out)
		}
	}
}

func TestRunEmitIRErrors(t *testing.T) {
	src := strings.Replace(sampleSrc, "R(rd) := imm", "R(rd) := PC", 1)
	code, out, errOut := captureOutput(t, func() int {
		return runEmitIR(writeTempADLFile(t, src))
	})
	if code != driver.ExitErrors {
		t.Fatalf("exit=%d, want %d", code, driver.ExitErrors)
	}
	if out != "" {
		t.Errorf("IR printed despite errors:\n%s", out)
	}
	if !strings.Contains(errOut, "[WidthMismatch]") || !strings.Contains(errOut, "1 error(s)") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunCompile(t *testing.T) {
	dir := t.TempDir()
	setFlag(t, targets, "dump, backend")
	setFlag(t, output, dir)
	code, _, errOut := captureOutput(t, func() int {
		return runCompile(writeTempADLFile(t, sampleSrc))
	})
	if code != 0 {
		t.Fatalf("runCompile exit=%d\nstderr:\n%s", code, errOut)
	}
	for _, path := range []string{"dump/ir.txt", "backend/TinyInstrInfo.td"} {
		if _, err := os.Stat(filepath.Join(dir, path)); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "simulator")); !os.IsNotExist(err) {
		t.Errorf("unrequested target written: %v", err)
	}
}

func TestRunCompileUnknownTarget(t *testing.T) {
	setFlag(t, targets, "x86")
	setFlag(t, output, t.TempDir())
	code, _, errOut := captureOutput(t, func() int {
		return runCompile(writeTempADLFile(t, sampleSrc))
	})
	if code != driver.ExitConfig {
		t.Fatalf("exit=%d, want %d", code, driver.ExitConfig)
	}
	if !strings.Contains(errOut, "unknown target x86") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestRunCompileNoTarget(t *testing.T) {
	setFlag(t, targets, "")
	code, _, _ := captureOutput(t, func() int {
		return runCompile(writeTempADLFile(t, sampleSrc))
	})
	if code != driver.ExitConfig {
		t.Fatalf("exit=%d, want %d", code, driver.ExitConfig)
	}
}

func TestRunListTargets(t *testing.T) {
	code, out, _ := captureOutput(t, runListTargets)
	if code != 0 {
		t.Fatalf("exit=%d", code)
	}
	for _, want := range []string{"simulator", "backend", "dump", "registers, decoder, semantics", "unsupported:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// setFlag sets a flag variable for the duration of the test.
func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func writeTempADLFile(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	filename := filepath.Join(dir, "input.adl")
	if err := os.WriteFile(filename, []byte(src), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return filename
}

func captureOutput(t *testing.T, fn func() int) (code int, stdout string, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code = fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	outBytes, _ := io.ReadAll(rOut)
	errBytes, _ := io.ReadAll(rErr)
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
