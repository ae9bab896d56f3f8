package ir

import (
	"fmt"
	"go/constant"

	"github.com/you-not-fish/adlc/internal/layout"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
	"github.com/you-not-fish/adlc/internal/types2"
)

// Program is the lowered form of a checked and laid-out architecture
// description. Slices are in declaration order; every entity can also be
// found by name.
type Program struct {
	Name string // from the isa clause; empty if absent

	Constants []*Constant
	Formats   []*Format
	Registers []*Register
	Memories  []*Memory
	Funcs     []*Func // functions
	Relocs    []*Func // relocations
	Instrs    []*Instr

	// Decode lists the encoded instructions most specific first.
	Decode []*Instr

	constants map[string]*Constant
	formats   map[string]*Format
	registers map[string]*Register
	memories  map[string]*Memory
	funcs     map[string]*Func
	instrs    map[string]*Instr
}

// Constant is a named constant.
type Constant struct {
	Name  string
	Obj   *types.Const
	Type  types.Type // untyped for constants declared without a type
	Value constant.Value
}

// Format is a laid-out instruction format.
type Format struct {
	Name   string
	Obj    *types.Format
	Width  int
	Fields []*Field // in declaration order

	index map[string]*Field
}

// Field returns the field called name, or nil.
func (f *Format) Field(name string) *Field { return f.index[name] }

// Field is a placed format field covering bits [Lo, Hi).
type Field struct {
	Name   string
	Obj    *types.Field
	Lo, Hi int
	Signed bool
	Alias  bool
	Ignore bool
}

func (f *Field) Width() int { return f.Hi - f.Lo }

// Register is a register or a register file.
type Register struct {
	Name   string
	Obj    *types.Reg
	Width  int
	Signed bool
	Format *Format // set when the element type is a format

	File       bool
	IndexWidth int
	Size       int64 // declared size; 0 if unsized
}

// Count returns the number of registers of a file: the declared size,
// or every index the index type can hold. It returns 1 for a plain
// register and 0 when the index type is too wide to enumerate.
func (r *Register) Count() int64 {
	switch {
	case !r.File:
		return 1
	case r.Size > 0:
		return r.Size
	case r.IndexWidth < 63:
		return int64(1) << r.IndexWidth
	}
	return 0
}

// Memory is a byte- or word-addressed memory.
type Memory struct {
	Name      string
	Obj       *types.Mem
	AddrWidth int
	Width     int // element width
}

// Instr is an instruction with its lowered semantics.
type Instr struct {
	Name     string
	Obj      *types.Instr
	Format   *Format
	Func     *Func
	Encoding *layout.Encoding // nil if the instruction has no encoding

	// Operands are the fields the encoding leaves free, excluding
	// aliases and ignored bits, in format order.
	Operands []*Field

	// Assembly is the assembly syntax with {field} placeholders; empty
	// if the instruction has none.
	Assembly string
}

// Build lowers every instruction, function and relocation of file and
// collects the program tables. The file must have been resolved,
// checked and validated without errors. Build panics on internal
// invariant violations, including IR that fails VerifyDom.
func Build(file *syntax.File, info *types2.Info, lay *layout.Info) *Program {
	p := &Program{
		constants: make(map[string]*Constant),
		formats:   make(map[string]*Format),
		registers: make(map[string]*Register),
		memories:  make(map[string]*Memory),
		funcs:     make(map[string]*Func),
		instrs:    make(map[string]*Instr),
	}
	if file.Name != nil {
		p.Name = file.Name.Value
	}

	// formats first, so that the table is in declaration order
	for _, d := range file.Decls {
		if d, ok := d.(*syntax.FormatDecl); ok {
			obj := defOf[*types.TypeName](info, d.Name)
			p.format(obj.Type().(*types.Format))
		}
	}

	for _, d := range file.Decls {
		switch d := d.(type) {
		case *syntax.ConstDecl:
			obj := defOf[*types.Const](info, d.Name)
			c := &Constant{Name: obj.Name(), Obj: obj, Type: obj.Type(), Value: obj.Val()}
			p.Constants = append(p.Constants, c)
			p.constants[c.Name] = c

		case *syntax.RegisterDecl:
			p.register(defOf[*types.Reg](info, d.Name))

		case *syntax.MemoryDecl:
			obj := defOf[*types.Mem](info, d.Name)
			s := obj.Type().(*types.Storage)
			m := &Memory{Name: obj.Name(), Obj: obj, AddrWidth: s.Index().Width(), Width: types.Width(s.Elem())}
			p.Memories = append(p.Memories, m)
			p.memories[m.Name] = m

		case *syntax.FuncDecl:
			fn := BuildFunc(d, info)
			mustVerify(fn)
			if fn.Kind == FuncRelocation {
				p.Relocs = append(p.Relocs, fn)
			} else {
				p.Funcs = append(p.Funcs, fn)
			}
			p.funcs[fn.Name] = fn

		case *syntax.InstrDecl:
			obj := defOf[*types.Instr](info, d.Name)
			fn := BuildInstr(d, info)
			mustVerify(fn)
			in := &Instr{
				Name:     obj.Name(),
				Obj:      obj,
				Format:   p.format(obj.Format()),
				Func:     fn,
				Encoding: lay.Encodings[obj],
			}
			if asm := info.Assemblies[obj]; asm != nil && asm.Syntax != nil {
				in.Assembly = asm.Syntax.Value
			}
			in.Operands = operands(in)
			p.Instrs = append(p.Instrs, in)
			p.instrs[in.Name] = in
		}
	}

	for _, enc := range lay.DecodeOrder() {
		if in := p.instrs[enc.Instr.Name()]; in != nil && in.Obj == enc.Instr {
			p.Decode = append(p.Decode, in)
		}
	}
	return p
}

func defOf[T types.Object](info *types2.Info, name *syntax.Name) T {
	obj, ok := info.Defs[name].(T)
	if !ok {
		panic(fmt.Sprintf("ir.Build: %s has no object of type %T", name.Value, obj))
	}
	return obj
}

func mustVerify(fn *Func) {
	if err := VerifyDom(fn); err != nil {
		panic(fmt.Sprintf("ir.Build: %v\n%s", err, Sprint(fn)))
	}
}

// format returns the table entry of f, adding it on first use.
func (p *Program) format(f *types.Format) *Format {
	name := f.String()
	if ff := p.formats[name]; ff != nil {
		return ff
	}
	ff := &Format{Name: name, Obj: f, Width: f.Width(), index: make(map[string]*Field)}
	for _, fld := range f.Fields() {
		lo, hi, ok := fld.Range()
		if !ok {
			panic(fmt.Sprintf("ir.Build: field %s of %s is not placed", fld.Name(), name))
		}
		x := &Field{
			Name:   fld.Name(),
			Obj:    fld,
			Lo:     lo,
			Hi:     hi,
			Signed: types.IsSigned(fld.Type()),
			Alias:  fld.Alias(),
			Ignore: fld.Ignore(),
		}
		ff.Fields = append(ff.Fields, x)
		if _, dup := ff.index[x.Name]; !dup {
			ff.index[x.Name] = x
		}
	}
	p.Formats = append(p.Formats, ff)
	p.formats[name] = ff
	return ff
}

func (p *Program) register(obj *types.Reg) {
	r := &Register{Name: obj.Name(), Obj: obj}
	elem := obj.Type()
	if s, ok := elem.(*types.Storage); ok {
		r.File = true
		r.IndexWidth = s.Index().Width()
		r.Size = obj.Size()
		elem = s.Elem()
	}
	r.Width = types.Width(elem)
	r.Signed = types.IsSigned(elem)
	if f, ok := elem.(*types.Format); ok {
		r.Format = p.format(f)
	}
	p.Registers = append(p.Registers, r)
	p.registers[r.Name] = r
}

func operands(in *Instr) []*Field {
	fixed := make(map[*types.Field]bool)
	if in.Encoding != nil {
		for _, fv := range in.Encoding.Fields {
			fixed[fv.Field] = true
		}
	}
	var ops []*Field
	for _, f := range in.Format.Fields {
		if f.Alias || f.Ignore || fixed[f.Obj] {
			continue
		}
		ops = append(ops, f)
	}
	return ops
}

func (p *Program) Constant(name string) *Constant { return p.constants[name] }
func (p *Program) Format(name string) *Format     { return p.formats[name] }
func (p *Program) Register(name string) *Register { return p.registers[name] }
func (p *Program) Memory(name string) *Memory     { return p.memories[name] }
func (p *Program) Instr(name string) *Instr       { return p.instrs[name] }

// Func returns the function or relocation called name, or nil.
func (p *Program) Func(name string) *Func { return p.funcs[name] }

// Bodies returns every lowered body: functions, then relocations, then
// instructions.
func (p *Program) Bodies() []*Func {
	out := make([]*Func, 0, len(p.Funcs)+len(p.Relocs)+len(p.Instrs))
	out = append(out, p.Funcs...)
	out = append(out, p.Relocs...)
	for _, in := range p.Instrs {
		out = append(out, in.Func)
	}
	return out
}
