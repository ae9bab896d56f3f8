// Package iss implements the simulator target: a C instruction set
// simulator with a state struct, a mask/match decoder and one function
// per instruction. Memories are reached through hooks the host provides;
// see package rtabi.
package iss

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/you-not-fish/adlc/internal/gen"
	"github.com/you-not-fish/adlc/internal/ir"
	"github.com/you-not-fish/adlc/internal/ir/passes"
	"github.com/you-not-fish/adlc/internal/rtabi"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Target is the simulator target.
type Target struct{}

func New() *Target { return &Target{} }

func (*Target) Name() string { return "simulator" }

// Unsupported: every value is held in a uint64_t and every register
// file is a flat array.
func (*Target) Unsupported() gen.Features {
	return gen.Features(gen.FeatWideValue | gen.FeatWideFormat | gen.FeatLargeRegisterFile | gen.FeatWideAddress)
}

func (*Target) Templates() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// names holds the C names derived from the ISA name.
type names struct {
	Prefix string // rv32i
	Upper  string // RV32I
	State  string // struct rv32i_state
	Header string // rv32i_state.h
}

func namesOf(p *ir.Program) names {
	prefix := rtabi.Prefix(p.Name)
	return names{
		Prefix: prefix,
		Upper:  strings.ToUpper(prefix),
		State:  "struct " + rtabi.Sym(rtabi.StateType, prefix),
		Header: prefix + "_state.h",
	}
}

func (n names) insn(in *ir.Instr) string {
	return n.Upper + "_INSN_" + in.Name
}

type stateData struct {
	names
	Enum        string
	StepOK      int
	StepIllegal int
	Fields      []string
	Defines     []string
	Insns       []string
	Host        []string
	Entry       []string
	Relocs      []string
}

// EmitRegisterModel emits <isa>_state.h: the state struct, the
// instruction enumeration and the prototypes of the interface.
func (*Target) EmitRegisterModel(c *gen.Context) []gen.Unit {
	p := c.Program
	n := namesOf(p)
	d := stateData{
		names:       n,
		Enum:        rtabi.Sym(rtabi.InsnEnum, n.Prefix),
		StepOK:      rtabi.StepOK,
		StepIllegal: rtabi.StepIllegal,
	}

	for _, r := range p.Registers {
		typ := rtabi.StorageType(r.Width)
		comment := ""
		if r.Format != nil {
			comment = " /* " + r.Format.Name + " */"
		}
		if !r.File {
			d.Fields = append(d.Fields, fmt.Sprintf("%s %s;%s", typ, cIdent(r.Name), comment))
			continue
		}
		d.Fields = append(d.Fields, fmt.Sprintf("%s %s[%d];%s", typ, cIdent(r.Name), 1<<r.IndexWidth, comment))
		d.Defines = append(d.Defines, fmt.Sprintf("#define %s_%s_COUNT %d", n.Upper, r.Name, r.Count()))
	}
	if len(d.Fields) == 0 {
		d.Fields = []string{"char unused_;"}
	}
	for _, in := range p.Instrs {
		d.Insns = append(d.Insns, n.insn(in))
	}

	var mems []string
	for _, m := range p.Memories {
		mems = append(mems, m.Name)
	}
	for _, f := range rtabi.HostFunctions(n.Prefix, mems) {
		d.Host = append(d.Host, f.Prototype()+";")
	}
	for _, f := range rtabi.EntryPoints(n.Prefix) {
		d.Entry = append(d.Entry, f.Prototype()+";")
	}
	g := &generator{prefix: n.Prefix, state: n.State}
	for _, fn := range p.Relocs {
		d.Relocs = append(d.Relocs, g.signature(fn)+";")
	}
	return []gen.Unit{{Path: n.Header, Template: "state.h.tmpl", Data: d}}
}

type decodeCase struct {
	Insn  string
	Mask  string
	Match string
}

type decodeData struct {
	names
	Decode   string
	InsnName string
	Cases    []decodeCase
	Insns    []string // enum constants, in enum order
	Spelling []string // instruction names, in enum order
}

// EmitDecoder emits <isa>_decode.c. Encodings are tried most specific
// first; instructions without an encoding are never decoded.
func (*Target) EmitDecoder(c *gen.Context) []gen.Unit {
	p := c.Program
	n := namesOf(p)
	d := decodeData{
		names:    n,
		Decode:   rtabi.Sym(rtabi.FnDecode, n.Prefix),
		InsnName: rtabi.Sym(rtabi.FnInsnName, n.Prefix),
	}
	for _, in := range p.Decode {
		d.Cases = append(d.Cases, decodeCase{
			Insn:  n.insn(in),
			Mask:  lit(in.Encoding.Mask.Uint64()),
			Match: lit(in.Encoding.Match.Uint64()),
		})
	}
	for _, in := range p.Instrs {
		d.Insns = append(d.Insns, n.insn(in))
		d.Spelling = append(d.Spelling, in.Name)
	}
	return []gen.Unit{{Path: n.Prefix + "_decode.c", Template: "decode.c.tmpl", Data: d}}
}

type execCase struct {
	Insn string
	Fn   string
}

type execData struct {
	names
	Reset      string
	Exec       string
	Step       string
	Decode     string
	Prototypes []string
	Bodies     []string
	Cases      []execCase
}

// EmitSemantics emits <isa>_exec.c. Each body runs through the default
// pass pipeline on a private copy before it is lowered.
func (*Target) EmitSemantics(c *gen.Context) []gen.Unit {
	p := c.Program
	n := namesOf(p)
	d := execData{
		names:  n,
		Reset:  rtabi.Sym(rtabi.FnReset, n.Prefix),
		Exec:   rtabi.Sym(rtabi.FnExec, n.Prefix),
		Step:   rtabi.Sym(rtabi.FnStep, n.Prefix),
		Decode: rtabi.Sym(rtabi.FnDecode, n.Prefix),
	}

	var sb strings.Builder
	g := &generator{e: &emitter{w: &sb}, prefix: n.Prefix, state: n.State}
	for _, fn := range p.Funcs {
		d.Prototypes = append(d.Prototypes, g.signature(fn)+";")
	}
	for _, body := range p.Bodies() {
		fn := ir.Clone(body)
		if err := passes.Run(fn, passes.Default, passes.Config{Verify: true}); err != nil {
			panic(fmt.Sprintf("iss: %s: %v", fn.Name, err))
		}
		sb.Reset()
		g.lowerFunc(fn)
		d.Bodies = append(d.Bodies, sb.String())
	}
	for _, in := range p.Instrs {
		d.Cases = append(d.Cases, execCase{Insn: n.insn(in), Fn: "exec_" + in.Name})
	}
	return []gen.Unit{{Path: n.Prefix + "_exec.c", Template: "exec.c.tmpl", Data: d}}
}
