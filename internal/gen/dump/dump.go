// Package dump implements the dump target: the program's layouts,
// encodings and lowered bodies as text, for inspection and golden tests.
package dump

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/you-not-fish/adlc/internal/gen"
	"github.com/you-not-fish/adlc/internal/ir"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Target is the dump target.
type Target struct{}

func New() *Target { return &Target{} }

func (*Target) Name() string              { return "dump" }
func (*Target) Unsupported() gen.Features { return 0 }

func (*Target) Templates() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

type layoutData struct {
	Formats   []formatData
	Registers []string
	Memories  []string
}

type formatData struct {
	Name   string
	Width  int
	Fields []string
}

// EmitRegisterModel emits layout.txt: every format with its placed
// fields, then registers and memories.
func (*Target) EmitRegisterModel(c *gen.Context) []gen.Unit {
	p := c.Program
	var d layoutData
	for _, f := range p.Formats {
		fd := formatData{Name: f.Name, Width: f.Width}
		for _, fld := range f.Fields {
			fd.Fields = append(fd.Fields, describeField(fld))
		}
		d.Formats = append(d.Formats, fd)
	}
	for _, r := range p.Registers {
		d.Registers = append(d.Registers, describeRegister(r))
	}
	for _, m := range p.Memories {
		d.Memories = append(d.Memories, fmt.Sprintf("%s: %d-bit address -> %d bits", m.Name, m.AddrWidth, m.Width))
	}
	return []gen.Unit{{Path: "layout.txt", Template: "layout.tmpl", Data: d}}
}

func describeField(f *ir.Field) string {
	s := fmt.Sprintf("%-8s [%d, %d)", f.Name, f.Lo, f.Hi)
	switch {
	case f.Alias:
		s += " alias"
	case f.Ignore:
		s += " ignore"
	}
	if f.Signed {
		s += " signed"
	}
	return s
}

func describeRegister(r *ir.Register) string {
	elem := fmt.Sprintf("%d bits", r.Width)
	if r.Signed {
		elem += " signed"
	}
	if r.Format != nil {
		elem = r.Format.Name
	}
	if !r.File {
		return fmt.Sprintf("%s: %s", r.Name, elem)
	}
	return fmt.Sprintf("%s[%d]: %d-bit index -> %s", r.Name, r.Count(), r.IndexWidth, elem)
}

type irData struct {
	Bodies []string
}

// EmitSemantics emits ir.txt: every lowered body, functions first.
func (*Target) EmitSemantics(c *gen.Context) []gen.Unit {
	var d irData
	for _, fn := range c.Program.Bodies() {
		d.Bodies = append(d.Bodies, ir.Sprint(fn))
	}
	return []gen.Unit{{Path: "ir.txt", Template: "ir.tmpl", Data: d}}
}

type encodingData struct {
	Name     string
	Pattern  string
	Mask     string
	Match    string
	Operands []string
	Assembly string
}

// EmitEncodingTable emits encodings.txt in decode order.
func (*Target) EmitEncodingTable(c *gen.Context) []gen.Unit {
	var d []encodingData
	for _, in := range c.Program.Decode {
		e := in.Encoding
		ed := encodingData{
			Name:     in.Name,
			Pattern:  e.Pattern(),
			Mask:     fmt.Sprintf("%#x", e.Mask),
			Match:    fmt.Sprintf("%#x", e.Match),
			Assembly: in.Assembly,
		}
		for _, op := range in.Operands {
			ed.Operands = append(ed.Operands, op.Name)
		}
		d = append(d, ed)
	}
	return []gen.Unit{{Path: "encodings.txt", Template: "encodings.tmpl", Data: d}}
}
