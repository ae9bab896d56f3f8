package types

import (
	"go/constant"

	"github.com/you-not-fish/adlc/internal/syntax"
)

// universe is scope 0 of every tree. Its map is never written after init.
var universe scope

var (
	universeBool  *TypeName
	universeTrue  *Const
	universeFalse *Const

	universeSext  *Builtin
	universeZext  *Builtin
	universeTrunc *Builtin
)

func init() {
	universe = scope{parent: NoScope, elems: make(map[string]Object), comment: "universe"}
	def := func(obj Object) {
		obj.setParent(UniverseScope)
		universe.elems[obj.Name()] = obj
	}

	universeBool = NewTypeName(syntax.Pos{}, "Bool", Typ[Bool])
	def(universeBool)

	universeTrue = &Const{object: newObject(syntax.Pos{}, "true", Typ[UntypedBool]), val: constant.MakeBool(true)}
	universeFalse = &Const{object: newObject(syntax.Pos{}, "false", Typ[UntypedBool]), val: constant.MakeBool(false)}
	def(universeTrue)
	def(universeFalse)

	builtin := func(name string, kind BuiltinKind) *Builtin {
		b := &Builtin{object: newObject(syntax.Pos{}, name, Typ[Invalid]), kind: kind}
		def(b)
		return b
	}
	universeSext = builtin("sext", BuiltinSext)
	universeZext = builtin("zext", BuiltinZext)
	universeTrunc = builtin("trunc", BuiltinTrunc)
}

func UniverseBool() *TypeName { return universeBool }
func UniverseTrue() *Const    { return universeTrue }
func UniverseFalse() *Const   { return universeFalse }

// IsUniverse reports whether obj is predeclared.
func IsUniverse(obj Object) bool {
	return obj != nil && obj.Parent() == UniverseScope && universe.elems[obj.Name()] == obj
}
