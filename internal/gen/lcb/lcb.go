// Package lcb implements the backend target: TableGen descriptions of
// the registers, instruction formats and instructions of an ISA, and the
// fixup kinds of its relocations, for an LLVM-style compiler backend.
package lcb

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/gen"
	"github.com/you-not-fish/adlc/internal/ir"
	"github.com/you-not-fish/adlc/internal/types"
)

//go:embed templates/*.tmpl
var templates embed.FS

// MaxRegisters is the largest register file the target describes.
const MaxRegisters = 1024

// Target is the backend target.
type Target struct{}

func New() *Target { return &Target{} }

func (*Target) Name() string { return "backend" }

func (*Target) Unsupported() gen.Features {
	return gen.Features(gen.FeatWideFormat | gen.FeatLargeRegisterFile)
}

func (*Target) Templates() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Namespace returns the TableGen namespace of an ISA name.
func Namespace(isa string) string {
	if isa == "" {
		return "ADL"
	}
	var b strings.Builder
	for i, r := range isa {
		switch {
		case r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
			b.WriteRune(r)
		case '0' <= r && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

var keywords = map[string]bool{
	"assert": true, "bit": true, "bits": true, "class": true, "code": true,
	"dag": true, "def": true, "defm": true, "defset": true, "defvar": true,
	"dump": true, "else": true, "false": true, "field": true, "foreach": true,
	"if": true, "in": true, "include": true, "int": true, "let": true,
	"list": true, "multiclass": true, "string": true, "then": true, "true": true,
}

// ident returns name as a TableGen identifier.
func ident(name string) string {
	if keywords[name] {
		return name + "_"
	}
	return name
}

// valueType returns the machine value type of a width.
func valueType(w int) string {
	switch w {
	case 1, 8, 16, 32, 64, 128:
		return fmt.Sprintf("i%d", w)
	}
	return "untyped"
}

// alignment returns the spill alignment in bits of a width: the next
// power of two, at least 8.
func alignment(w int) int {
	a := 8
	for a < w {
		a <<= 1
	}
	return a
}

type regFile struct {
	Name  string
	Class string
	Count int64 // 0 for a plain register
	Last  int64
	Width int
	Type  string
	Align int
	Asm   string // assembly name; for files, the prefix of the index
}

type registerData struct {
	NS        string
	Registers []regFile
}

// EmitRegisterModel emits <NS>RegisterInfo.td with one register class
// per register or register file.
func (*Target) EmitRegisterModel(c *gen.Context) []gen.Unit {
	p := c.Program
	ns := Namespace(p.Name)
	d := registerData{NS: ns}
	for _, r := range p.Registers {
		rf := regFile{
			Name:  ident(r.Name),
			Class: r.Name + "RC",
			Width: r.Width,
			Type:  valueType(r.Width),
			Align: alignment(r.Width),
			Asm:   strings.ToLower(r.Name),
		}
		if r.File {
			rf.Count = r.Count()
			if rf.Count > MaxRegisters {
				c.Errorf(diag.UnsupportedConstruct, r.Obj.Pos(),
					"target %s does not support register files of more than %d registers: %s has %d",
					c.Target, MaxRegisters, r.Name, rf.Count)
				continue
			}
			rf.Last = rf.Count - 1
		}
		d.Registers = append(d.Registers, rf)
	}
	return []gen.Unit{{Path: ns + "RegisterInfo.td", Template: "RegisterInfo.td.tmpl", Data: d}}
}

type formatData struct {
	Name   string
	Size   int // bytes
	Width  int
	Fields []fieldData
}

type fieldData struct {
	Name  string
	Width int
	Bits  string // Inst{hi-lo}
}

type operandType struct {
	Name string
	Type string
}

type instrData struct {
	Name     string
	Format   string
	Outs     []string
	Ins      []string
	Asm      string
	Fixed    []string // let statements
	IsPseudo bool
}

type instrFormatsData struct {
	NS       string
	Operands []operandType
	Formats  []formatData
}

type instrInfoData struct {
	NS     string
	Instrs []instrData
}

// EmitEncodingTable emits <NS>InstrFormats.td, one class per format,
// and <NS>InstrInfo.td, one record per instruction. Instructions
// without an encoding are pseudo instructions.
func (*Target) EmitEncodingTable(c *gen.Context) []gen.Unit {
	p := c.Program
	ns := Namespace(p.Name)

	fd := instrFormatsData{NS: ns}
	for _, f := range p.Formats {
		x := formatData{Name: ident(f.Name), Size: (f.Width + 7) / 8, Width: f.Width}
		for _, fld := range f.Fields {
			if fld.Alias || fld.Ignore {
				continue
			}
			x.Fields = append(x.Fields, fieldData{Name: ident(fld.Name), Width: fld.Width(), Bits: bitRange(fld)})
		}
		fd.Formats = append(fd.Formats, x)
	}

	seen := make(map[string]bool)
	id := instrInfoData{NS: ns}
	for _, in := range p.Instrs {
		x := instrData{
			Name:     ident(in.Name),
			Format:   ident(in.Format.Name),
			Asm:      asmString(in.Assembly),
			IsPseudo: in.Encoding == nil,
		}
		classes := operandClasses(p, in)
		for _, op := range in.Operands {
			if cls, ok := classes[op.Name]; ok {
				if cls.def {
					x.Outs = append(x.Outs, cls.name+":$"+op.Name)
				} else {
					x.Ins = append(x.Ins, cls.name+":$"+op.Name)
				}
				continue
			}
			t := immName(ns, op)
			if !seen[t] {
				seen[t] = true
				fd.Operands = append(fd.Operands, operandType{Name: t, Type: immType(op.Width())})
			}
			x.Ins = append(x.Ins, t+":$"+op.Name)
		}
		if in.Encoding != nil {
			for _, fv := range in.Encoding.Fields {
				x.Fixed = append(x.Fixed, fmt.Sprintf("let %s = 0b%s;", ident(fv.Field.Name()), binary(fv.Value.Text(2), fv.Field.Width())))
			}
		}
		id.Instrs = append(id.Instrs, x)
	}

	return []gen.Unit{
		{Path: ns + "InstrFormats.td", Template: "InstrFormats.td.tmpl", Data: fd},
		{Path: ns + "InstrInfo.td", Template: "InstrInfo.td.tmpl", Data: id},
	}
}

func bitRange(f *ir.Field) string {
	if f.Width() == 1 {
		return fmt.Sprintf("Inst{%d}", f.Lo)
	}
	return fmt.Sprintf("Inst{%d-%d}", f.Hi-1, f.Lo)
}

func binary(s string, w int) string {
	if len(s) < w {
		s = strings.Repeat("0", w-len(s)) + s
	}
	return s
}

func immName(ns string, f *ir.Field) string {
	sign := "u"
	if f.Signed {
		sign = "s"
	}
	return fmt.Sprintf("%s_%simm%d", ns, sign, f.Width())
}

func immType(w int) string {
	if w <= 32 {
		return "i32"
	}
	return "i64"
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// asmString converts an assembly syntax with {field} placeholders to a
// TableGen assembly string.
func asmString(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
	return placeholder.ReplaceAllString(s, "$$$1")
}

type operandClass struct {
	name string
	def  bool
}

// operandClasses finds the operands of in that index a register file and
// returns their register classes. An operand the body writes through is
// a definition.
func operandClasses(p *ir.Program, in *ir.Instr) map[string]operandClass {
	out := make(map[string]operandClass)
	field := func(v *ir.Value) *types.Field {
		if v.Op == ir.OpZext || v.Op == ir.OpTrunc {
			v = v.Args[0]
		}
		if v.Op != ir.OpField {
			return nil
		}
		return v.Aux.(*types.Field)
	}
	in.Func.Walk(func(v *ir.Value) {
		if v.Op != ir.OpRegFile && v.Op != ir.OpSetRegFile {
			return
		}
		f := field(v.Args[0])
		if f == nil {
			return
		}
		r := p.Register(v.Aux.(*types.Reg).Name())
		if r == nil || r.Count() > MaxRegisters {
			return
		}
		cls := out[f.Name()]
		cls.name = r.Name + "RC"
		cls.def = cls.def || v.Op == ir.OpSetRegFile
		out[f.Name()] = cls
	})
	return out
}

type fixup struct {
	Name  string
	Width int
}

type fixupData struct {
	NS     string
	Guard  string
	Fixups []fixup
}

// EmitSemantics emits <NS>FixupKinds.h with one fixup kind per
// relocation, sized by the relocation's result.
func (*Target) EmitSemantics(c *gen.Context) []gen.Unit {
	p := c.Program
	ns := Namespace(p.Name)
	d := fixupData{NS: ns, Guard: strings.ToUpper(ns) + "_FIXUPKINDS_H"}
	for _, fn := range p.Relocs {
		d.Fixups = append(d.Fixups, fixup{
			Name:  "fixup_" + strings.ToLower(ns) + "_" + fn.Name,
			Width: types.Width(fn.Sig.Result()),
		})
	}
	return []gen.Unit{{Path: ns + "FixupKinds.h", Template: "FixupKinds.h.tmpl", Data: d}}
}
