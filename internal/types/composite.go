package types

import (
	"fmt"
	"strings"
)

// Bits is a fixed-width bit vector. Signed vectors print as SInt<N>,
// unsigned ones as Bits<N>; UInt<N> is a spelling of Bits<N>.
type Bits struct {
	typ
	width  int
	signed bool
}

// NewBits returns the bit vector type of the given width and signedness.
// The width must be positive.
func NewBits(width int, signed bool) *Bits {
	if width <= 0 {
		panic(fmt.Sprintf("types.NewBits: non-positive width %d", width))
	}
	return &Bits{width: width, signed: signed}
}

func (b *Bits) Width() int   { return b.width }
func (b *Bits) Signed() bool { return b.signed }

func (b *Bits) String() string {
	if b.signed {
		return fmt.Sprintf("SInt<%d>", b.width)
	}
	return fmt.Sprintf("Bits<%d>", b.width)
}

// Format is an instruction format or another named bit-level aggregate.
// Its fields are laid out within a vector of Width bits.
type Format struct {
	typ
	obj    *TypeName
	width  int
	fields []*Field
	index  map[string]*Field
}

// NewFormat returns a format of the given total width. Fields are added
// with AddField.
func NewFormat(obj *TypeName, width int) *Format {
	return &Format{obj: obj, width: width, index: make(map[string]*Field)}
}

func (f *Format) Obj() *TypeName     { return f.obj }
func (f *Format) Width() int         { return f.width }
func (f *Format) NumFields() int     { return len(f.fields) }
func (f *Format) Field(i int) *Field { return f.fields[i] }
func (f *Format) Fields() []*Field   { return f.fields }

// Lookup returns the field called name, or nil.
func (f *Format) Lookup(name string) *Field { return f.index[name] }

// AddField appends fld. The first field of a given name wins.
func (f *Format) AddField(fld *Field) {
	fld.index = len(f.fields)
	fld.format = f
	f.fields = append(f.fields, fld)
	if _, dup := f.index[fld.name]; !dup {
		f.index[fld.name] = fld
	}
}

func (f *Format) String() string {
	if f.obj != nil {
		return f.obj.name
	}
	names := make([]string, len(f.fields))
	for i, fld := range f.fields {
		names[i] = fld.name
	}
	return fmt.Sprintf("format{%s}", strings.Join(names, ", "))
}

// StorageKind distinguishes indexed storage.
type StorageKind int

const (
	RegisterFile StorageKind = iota
	Memory
)

// Storage is the type of a register file or memory: a map from Index to
// Elem that is accessed by calling it, as in X(rd) or MEM(addr).
type Storage struct {
	typ
	kind  StorageKind
	index *Bits
	elem  Type
}

func NewStorage(kind StorageKind, index *Bits, elem Type) *Storage {
	return &Storage{kind: kind, index: index, elem: elem}
}

func (s *Storage) Kind() StorageKind { return s.kind }
func (s *Storage) Index() *Bits      { return s.index }
func (s *Storage) Elem() Type        { return s.elem }

func (s *Storage) String() string {
	kind := "RegisterFile"
	if s.kind == Memory {
		kind = "Memory"
	}
	return fmt.Sprintf("%s<%s -> %s>", kind, s.index, s.elem)
}

// Signature is the type of a function or relocation.
type Signature struct {
	typ
	params []*Var
	result Type
}

func NewSignature(params []*Var, result Type) *Signature {
	return &Signature{params: params, result: result}
}

func (s *Signature) Params() []*Var { return s.params }
func (s *Signature) Result() Type   { return s.result }

func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, p := range s.params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.name, p.typ)
	}
	fmt.Fprintf(&b, ") -> %s", s.result)
	return b.String()
}
