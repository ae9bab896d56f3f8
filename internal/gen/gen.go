// Package gen runs code generation targets over a lowered program.
//
// A target implements any subset of the capability interfaces below. Each
// capability returns render units: an output path, a template name and a
// data context of plain values. The framework checks the program against
// the features a target cannot handle, renders every unit, and writes the
// files of each target atomically under <out>/<target>/.
package gen

import (
	"io/fs"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/ir"
	"github.com/you-not-fish/adlc/internal/syntax"
)

// Target is a code generator.
type Target interface {
	// Name is the target's registry name and output directory.
	Name() string

	// Unsupported lists the IR features the target cannot generate.
	Unsupported() Features

	// Templates holds the templates named by the target's units.
	Templates() fs.FS
}

// RegisterModelEmitter emits the architectural state: registers,
// register files and memories.
type RegisterModelEmitter interface {
	EmitRegisterModel(c *Context) []Unit
}

// DecoderEmitter emits an instruction decoder.
type DecoderEmitter interface {
	EmitDecoder(c *Context) []Unit
}

// SemanticsEmitter emits the behavior of instructions, functions and
// relocations.
type SemanticsEmitter interface {
	EmitSemantics(c *Context) []Unit
}

// EncodingTableEmitter emits instruction encodings.
type EncodingTableEmitter interface {
	EmitEncodingTable(c *Context) []Unit
}

// Unit is one output file before rendering.
type Unit struct {
	Path     string // slash-separated, relative to the target directory
	Template string
	Data     any
}

// Context is what an emitter sees of a generation run.
type Context struct {
	Program *ir.Program
	Target  string
	Version string

	bag    *diag.Bag
	errors int
}

// Errorf reports an error of kind k at pos for the current target.
func (c *Context) Errorf(k diag.Kind, pos syntax.Pos, format string, args ...any) {
	d := diag.NewAt(k, syntax.Span{Start: pos, End: pos}, format, args...)
	if d.Severity == diag.Error {
		c.errors++
	}
	c.bag.Add(d)
}

// capabilities returns the emitters t implements in their fixed order.
func capabilities(t Target) []func(*Context) []Unit {
	var out []func(*Context) []Unit
	if e, ok := t.(RegisterModelEmitter); ok {
		out = append(out, e.EmitRegisterModel)
	}
	if e, ok := t.(DecoderEmitter); ok {
		out = append(out, e.EmitDecoder)
	}
	if e, ok := t.(SemanticsEmitter); ok {
		out = append(out, e.EmitSemantics)
	}
	if e, ok := t.(EncodingTableEmitter); ok {
		out = append(out, e.EmitEncodingTable)
	}
	return out
}

// Capabilities returns the names of the capability interfaces t
// implements.
func Capabilities(t Target) []string {
	var out []string
	if _, ok := t.(RegisterModelEmitter); ok {
		out = append(out, "registers")
	}
	if _, ok := t.(DecoderEmitter); ok {
		out = append(out, "decoder")
	}
	if _, ok := t.(SemanticsEmitter); ok {
		out = append(out, "semantics")
	}
	if _, ok := t.(EncodingTableEmitter); ok {
		out = append(out, "encodings")
	}
	return out
}
