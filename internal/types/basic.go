package types

// BasicKind describes the kind of a basic type.
type BasicKind int

const (
	Invalid BasicKind = iota // type of erroneous expressions

	Bool
	String

	UntypedInt
	UntypedBool
)

// Basic is a predeclared non-vector type.
type Basic struct {
	typ
	kind BasicKind
	name string
}

func (b *Basic) Kind() BasicKind { return b.kind }
func (b *Basic) Name() string    { return b.name }
func (b *Basic) String() string  { return b.name }

// Typ holds the basic types indexed by kind.
var Typ = []*Basic{
	Invalid:     {kind: Invalid, name: "invalid type"},
	Bool:        {kind: Bool, name: "Bool"},
	String:      {kind: String, name: "String"},
	UntypedInt:  {kind: UntypedInt, name: "untyped int"},
	UntypedBool: {kind: UntypedBool, name: "untyped bool"},
}
