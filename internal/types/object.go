package types

import (
	"go/constant"

	"github.com/you-not-fish/adlc/internal/syntax"
)

// Object is a named entity: constant, type, format field, instruction,
// register, memory, function, variable or builtin.
type Object interface {
	Name() string
	Type() Type
	Pos() syntax.Pos
	Parent() ScopeID // scope the object is declared in

	setParent(ScopeID)
	aObject()
}

type object struct {
	name   string
	typ    Type
	pos    syntax.Pos
	parent ScopeID
}

func (o *object) Name() string         { return o.name }
func (o *object) Type() Type           { return o.typ }
func (o *object) Pos() syntax.Pos      { return o.pos }
func (o *object) Parent() ScopeID      { return o.parent }
func (o *object) setParent(id ScopeID) { o.parent = id }
func (*object) aObject()               {}

// SetType records the object's type once the checker has computed it.
func (o *object) SetType(t Type) { o.typ = t }

func newObject(pos syntax.Pos, name string, t Type) object {
	return object{name: name, typ: t, pos: pos, parent: NoScope}
}

// Const is a named constant.
type Const struct {
	object
	val constant.Value
}

func NewConst(pos syntax.Pos, name string) *Const {
	return &Const{object: newObject(pos, name, nil)}
}

func (c *Const) Val() constant.Value     { return c.val }
func (c *Const) SetVal(v constant.Value) { c.val = v }

// TypeName is a type alias, a format, or a predeclared type.
type TypeName struct {
	object
}

func NewTypeName(pos syntax.Pos, name string, t Type) *TypeName {
	return &TypeName{object: newObject(pos, name, t)}
}

// Field is a field of a format.
type Field struct {
	object
	mod    syntax.FieldMod
	format *Format
	index  int
	lo, hi int // bit range [lo, hi); lo < 0 until laid out
}

func NewField(pos syntax.Pos, name string, mod syntax.FieldMod) *Field {
	return &Field{object: newObject(pos, name, nil), mod: mod, lo: -1, hi: -1}
}

func (f *Field) Mod() syntax.FieldMod { return f.mod }
func (f *Field) Alias() bool          { return f.mod == syntax.FieldAlias }
func (f *Field) Ignore() bool         { return f.mod == syntax.FieldIgnore }
func (f *Field) Format() *Format      { return f.format }
func (f *Field) Index() int           { return f.index }

// Width returns the field's width in bits, or 0 if its type is invalid.
func (f *Field) Width() int { return Width(f.typ) }

// Range returns the laid out bit range [lo, hi), and false if the field
// has not been placed.
func (f *Field) Range() (lo, hi int, ok bool) {
	return f.lo, f.hi, f.lo >= 0
}

// SetRange places the field at bits [lo, hi).
func (f *Field) SetRange(lo, hi int) {
	f.lo, f.hi = lo, hi
}

// Instr is an instruction. Its type is its format.
type Instr struct {
	object
}

func NewInstr(pos syntax.Pos, name string) *Instr {
	return &Instr{object: newObject(pos, name, nil)}
}

// Format returns the instruction's format, or nil if it is unresolved.
func (i *Instr) Format() *Format {
	f, _ := i.typ.(*Format)
	return f
}

// Reg is a register or a register file. A register's type is its element
// type; a register file's type is a *Storage.
type Reg struct {
	object
	size int64 // number of registers in a file; 0 if unsized
}

func NewReg(pos syntax.Pos, name string) *Reg {
	return &Reg{object: newObject(pos, name, nil)}
}

func (r *Reg) Size() int64     { return r.size }
func (r *Reg) SetSize(n int64) { r.size = n }

// IsFile reports whether r is a register file.
func (r *Reg) IsFile() bool {
	_, ok := r.typ.(*Storage)
	return ok
}

// Mem is a memory. Its type is a *Storage.
type Mem struct {
	object
}

func NewMem(pos syntax.Pos, name string) *Mem {
	return &Mem{object: newObject(pos, name, nil)}
}

// Func is a function or relocation. Its type is a *Signature.
type Func struct {
	object
	reloc bool
}

func NewFunc(pos syntax.Pos, name string, reloc bool) *Func {
	return &Func{object: newObject(pos, name, nil), reloc: reloc}
}

func (f *Func) IsRelocation() bool { return f.reloc }

// Signature returns f's signature, or nil before it is checked.
func (f *Func) Signature() *Signature {
	s, _ := f.typ.(*Signature)
	return s
}

// Var is a parameter or a let-bound local.
type Var struct {
	object
	param bool
}

func NewParam(pos syntax.Pos, name string, t Type) *Var {
	return &Var{object: newObject(pos, name, t), param: true}
}

func NewLocal(pos syntax.Pos, name string) *Var {
	return &Var{object: newObject(pos, name, nil)}
}

func (v *Var) IsParam() bool { return v.param }

// BuiltinKind identifies a builtin conversion.
type BuiltinKind int

const (
	BuiltinSext BuiltinKind = iota
	BuiltinZext
	BuiltinTrunc
)

// Builtin is a predeclared conversion function.
type Builtin struct {
	object
	kind BuiltinKind
}

func (b *Builtin) Kind() BuiltinKind { return b.kind }

// ObjectKind returns a short description of obj's kind, for messages.
func ObjectKind(obj Object) string {
	switch obj := obj.(type) {
	case *Const:
		return "constant"
	case *TypeName:
		if _, ok := obj.typ.(*Format); ok {
			return "format"
		}
		return "type"
	case *Field:
		return "field"
	case *Instr:
		return "instruction"
	case *Reg:
		if obj.IsFile() {
			return "register file"
		}
		return "register"
	case *Mem:
		return "memory"
	case *Func:
		if obj.reloc {
			return "relocation"
		}
		return "function"
	case *Var:
		if obj.param {
			return "parameter"
		}
		return "local"
	case *Builtin:
		return "builtin"
	}
	return "object"
}
