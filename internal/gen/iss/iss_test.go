package iss_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/driver"
	"github.com/you-not-fish/adlc/internal/gen"
	"github.com/you-not-fish/adlc/internal/gen/iss"
)

const rv32i = `isa RV32I

constant XLEN = 32
using Word = Bits<XLEN>

format IType : Bits<32> {
  imm    : SInt<12> @ [20, 32)
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
register ST : Status
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
  ST.mode := 1
  PC := PC + 4
}

instruction HALT : IType {
  PC := PC
}

encoding ADDI = { opcode = 0b0010011, funct3 = 0 }
encoding LB = { opcode = 0b0000011, funct3 = 0 }
`

// generate runs the simulator target over src and returns the written
// files by name.
func generate(t *testing.T, src string) map[string]string {
	t.Helper()
	a, err := driver.Analyze("rv32i.adl", strings.NewReader(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Program == nil {
		t.Fatalf("analysis failed: %v", a.Diags)
	}
	out := t.TempDir()
	res, ds, err := gen.Run(context.Background(), a.Program, []gen.Target{iss.New()}, gen.Options{OutDir: out, Version: "test"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 0 {
		t.Fatalf("diagnostics: %v", ds)
	}
	files := make(map[string]string)
	for _, f := range res[0].Files {
		files[f.Path] = string(f.Data)
	}
	return files
}

func expectContains(t *testing.T, name, text string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(text, want) {
			t.Errorf("%s is missing %q:\n%s", name, want, text)
		}
	}
}

func TestStateHeader(t *testing.T) {
	h := generate(t, rv32i)["rv32i_state.h"]
	expectContains(t, "rv32i_state.h", h,
		"// Code generated by adlc test (target simulator) from RV32I. DO NOT EDIT.",
		"#ifndef RV32I_STATE_H",
		"#define RV32I_STEP_ILLEGAL (-1)",
		"#define RV32I_X_COUNT 32",
		"struct rv32i_state {\n\tuint32_t PC;\n\tuint8_t ST; /* Status */\n\tuint32_t X[32];\n};",
		"enum rv32i_insn {\n\tRV32I_INSN_ADDI,\n\tRV32I_INSN_LB,\n\tRV32I_INSN_HALT,\n\tRV32I_NUM_INSNS\n};",
		"int rv32i_step(struct rv32i_state *s, uint64_t word);",
		"const char * rv32i_insn_name(int insn);",
		"uint64_t rv32i_reloc_LO(struct rv32i_state *s, uint64_t p_symbol);",
		"uint64_t rv32i_mem_read_MEM(struct rv32i_state *s, uint64_t addr);",
		"void rv32i_mem_write_MEM(struct rv32i_state *s, uint64_t addr, uint64_t value);",
	)
}

func TestDecoder(t *testing.T) {
	c := generate(t, rv32i)["rv32i_decode.c"]
	expectContains(t, "rv32i_decode.c", c,
		`#include "rv32i_state.h"`,
		"\tif ((insn & UINT64_C(0x707f)) == UINT64_C(0x13))\n\t\treturn RV32I_INSN_ADDI;\n"+
			"\tif ((insn & UINT64_C(0x707f)) == UINT64_C(0x3))\n\t\treturn RV32I_INSN_LB;\n"+
			"\treturn RV32I_STEP_ILLEGAL;",
		"\tcase RV32I_INSN_HALT:\n\t\treturn \"HALT\";",
	)
	// HALT has no encoding and is never decoded.
	if strings.Contains(c, "return RV32I_INSN_HALT;") {
		t.Errorf("HALT is decoded:\n%s", c)
	}
}

func TestSemantics(t *testing.T) {
	c := generate(t, rv32i)["rv32i_exec.c"]
	expectContains(t, "rv32i_exec.c", c,
		"static uint64_t fn_sx(struct rv32i_state *s, uint64_t p_v);\n",
		"static uint64_t fn_sx(struct rv32i_state *s, uint64_t p_v)\n{",
		"uint64_t rv32i_reloc_LO(struct rv32i_state *s, uint64_t p_symbol)\n{",
		"static void exec_ADDI(struct rv32i_state *s, uint64_t insn)\n{",
		"rv32i_mem_read_MEM(s, ",
		"s->X[",
		"s->PC = ",
		"\tcase RV32I_INSN_LB:\n\t\texec_LB(s, word);\n\t\treturn RV32I_STEP_OK;",
		"return rv32i_exec(s, rv32i_decode(word), word);",
		"memset(s, 0, sizeof *s);",
	)
	// the field write of ST.mode is a read-modify-write
	if !strings.Contains(c, "s->ST = ") || !strings.Contains(c, "UINT64_C(0x3f)") {
		t.Errorf("no insert for ST.mode:\n%s", c)
	}
}

// The simulator runs the default passes on its own copy of each body;
// the program it was given is unchanged.
func TestSemanticsLeavesProgram(t *testing.T) {
	a, err := driver.Analyze("rv32i.adl", strings.NewReader(rv32i), nil)
	if err != nil || a.Program == nil {
		t.Fatalf("Analyze: %v %v", err, a)
	}
	before := a.Program.Instr("ADDI").Func.NumValues()
	if _, _, err := gen.Run(context.Background(), a.Program, []gen.Target{iss.New()}, gen.Options{OutDir: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	if after := a.Program.Instr("ADDI").Func.NumValues(); after != before {
		t.Errorf("ADDI has %d values after generation, %d before", after, before)
	}
}

func TestUnsupported(t *testing.T) {
	tests := []struct {
		name string
		decl string
		want string
	}{
		{"wide register", "register W : Bits<65>", "values wider than 64 bits"},
		{"large file", "register file L[4] : Bits<17> -> Bits<8>", "register files indexed by more than 16 bits"},
		{"wide address", "memory M2 : Bits<65> -> Bits<8>", "addresses wider than 64 bits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := driver.Analyze("rv32i.adl", strings.NewReader(rv32i+tt.decl+"\n"), nil)
			if err != nil || a.Program == nil {
				t.Fatalf("Analyze: %v %v", err, a.Diags)
			}
			out := t.TempDir()
			_, ds, err := gen.Run(context.Background(), a.Program, []gen.Target{iss.New()}, gen.Options{OutDir: out})
			if err != nil {
				t.Fatal(err)
			}
			if len(ds) != 1 || ds[0].Kind != diag.UnsupportedConstruct || !strings.Contains(ds[0].Msg, tt.want) {
				t.Fatalf("diagnostics = %v, want one about %s", ds, tt.want)
			}
			if entries, _ := os.ReadDir(out); len(entries) != 0 {
				t.Errorf("output written: %v", entries)
			}
		})
	}
}

func TestEmptyISA(t *testing.T) {
	files := generate(t, "format F : Bits<8> {\n  a : 8\n}\n")
	expectContains(t, "adl_state.h", files["adl_state.h"], "struct adl_state {\n\tchar unused_;\n};", "\tADL_NUM_INSNS\n")
	expectContains(t, "adl_exec.c", files["adl_exec.c"], "int adl_exec(struct adl_state *s, int insn, uint64_t word)")
}

// TestCompiles checks the generated C with the host compiler, if there
// is one.
func TestCompiles(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("cc not found, skipping")
	}
	dir := t.TempDir()
	for name, text := range generate(t, rv32i) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"rv32i_decode.c", "rv32i_exec.c"} {
		cmd := exec.Command(cc, "-std=c99", "-Wall", "-Werror", "-fsyntax-only", name)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Errorf("%s: %v\n%s", name, err, out)
		}
	}
}
