// Package types2 resolves names and checks types and widths of an
// architecture description.
package types2

import (
	"go/constant"

	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// Config specifies the configuration for resolution and checking.
type Config struct {
	// Error is called for each diagnostic. It may be called concurrently
	// while instruction bodies are checked. If nil, diagnostics are dropped.
	Error ErrorHandler

	// Workers bounds the number of bodies checked concurrently.
	// If <= 0, runtime.GOMAXPROCS(0) is used.
	Workers int
}

// Info holds the results of resolution and checking.
type Info struct {
	// Tree holds every scope. The global scope of the file is Global.
	Tree   *types.ScopeTree
	Global types.ScopeID

	// Types maps expressions to their type and value information.
	// Untyped constants used in a sized context are recorded with the
	// type they were converted to.
	Types map[syntax.Expr]TypeAndValue

	// Defs maps declaring identifiers to their objects.
	Defs map[*syntax.Name]types.Object

	// Uses maps referencing identifiers to the objects they denote.
	// The selector of a field access is recorded here too.
	Uses map[*syntax.Name]types.Object

	// Unresolved holds the referencing identifiers that denote nothing,
	// including references that would close a definition cycle.
	Unresolved map[*syntax.Name]bool

	// Scopes maps FormatDecl, FuncDecl, InstrDecl, BlockStmt and LetStmt
	// nodes to the scope they open.
	Scopes map[syntax.Node]types.ScopeID

	// Decls maps top-level objects to their declarations.
	Decls map[types.Object]syntax.Decl

	// Encodings and Assemblies map instructions to their encoding and
	// assembly declarations.
	Encodings  map[*types.Instr]*syntax.EncodingDecl
	Assemblies map[*types.Instr]*syntax.AssemblyDecl
}

// NewInfo returns an Info with all maps allocated.
func NewInfo() *Info {
	return &Info{
		Tree:       types.NewScopeTree(),
		Global:     types.NoScope,
		Types:      make(map[syntax.Expr]TypeAndValue),
		Defs:       make(map[*syntax.Name]types.Object),
		Uses:       make(map[*syntax.Name]types.Object),
		Unresolved: make(map[*syntax.Name]bool),
		Scopes:     make(map[syntax.Node]types.ScopeID),
		Decls:      make(map[types.Object]syntax.Decl),
		Encodings:  make(map[*types.Instr]*syntax.EncodingDecl),
		Assemblies: make(map[*types.Instr]*syntax.AssemblyDecl),
	}
}

// ObjectOf returns the object denoted by name, or nil.
func (info *Info) ObjectOf(name *syntax.Name) types.Object {
	if obj := info.Defs[name]; obj != nil {
		return obj
	}
	return info.Uses[name]
}

// TypeOf returns the recorded type of e, or nil.
func (info *Info) TypeOf(e syntax.Expr) types.Type {
	if tv, ok := info.Types[e]; ok {
		return tv.Type
	}
	if name, ok := e.(*syntax.Name); ok {
		if obj := info.ObjectOf(name); obj != nil {
			return obj.Type()
		}
	}
	return nil
}

// Lookup returns the global object called name, or nil.
func (info *Info) Lookup(name string) types.Object {
	if info.Global == types.NoScope {
		return nil
	}
	return info.Tree.Lookup(info.Global, name)
}

// TypeAndValue holds the type and value information for an expression.
type TypeAndValue struct {
	Type  types.Type
	Value constant.Value // nil if not constant
	mode  operandMode
}

// IsType reports whether the expression denotes a type.
func (tv TypeAndValue) IsType() bool { return tv.mode == typexpr }

// IsConstant reports whether the expression is a constant.
func (tv TypeAndValue) IsConstant() bool { return tv.mode == constant_ }

// IsAssignable reports whether the expression denotes architectural state
// that can be written: a register, a register field, or an element of a
// register file or memory.
func (tv TypeAndValue) IsAssignable() bool { return tv.mode == variable }

// IsValue reports whether the expression has a value.
func (tv TypeAndValue) IsValue() bool {
	return tv.mode == constant_ || tv.mode == variable || tv.mode == value
}

// IsStorage reports whether the expression names a register file or a
// memory.
func (tv TypeAndValue) IsStorage() bool { return tv.mode == storage }

// IsBuiltin reports whether the expression names a builtin conversion.
func (tv TypeAndValue) IsBuiltin() bool { return tv.mode == builtin }

// Resolve builds the scope tree for file and binds every referencing
// identifier to its declaration. Diagnostics go to conf.Error; the first
// error is returned.
func Resolve(file *syntax.File, conf *Config, info *Info) error {
	if conf == nil {
		conf = &Config{}
	}
	r := newResolver(conf, info)
	r.resolveFile(file)
	return r.errs.first()
}

// Check computes the type of every expression and declaration of file.
// It requires an Info filled by Resolve. Diagnostics go to conf.Error;
// the first error by position is returned.
func Check(file *syntax.File, conf *Config, info *Info) error {
	if conf == nil {
		conf = &Config{}
	}
	c := NewChecker(conf, info)
	return c.Files(file)
}
