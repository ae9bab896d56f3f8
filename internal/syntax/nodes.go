package syntax

// ----------------------------------------------------------------------------
// Interfaces
//
// Nodes are expressions, statements or declarations. Type expressions
// (Bits<N>, names) are expressions.

type Node interface {
	Pos() Pos // position of the first character of the node
	End() Pos // position after the node, or Pos() when unknown
	aNode()
}

type Expr interface {
	Node
	aExpr()
}

type Stmt interface {
	Node
	aStmt()
}

type Decl interface {
	Node
	aDecl()
}

type node struct {
	pos Pos
	end Pos
}

func (n *node) Pos() Pos { return n.pos }
func (n *node) End() Pos {
	if n.end.IsValid() {
		return n.end
	}
	return n.pos
}
func (n *node) aNode() {}

type expr struct{ node }

func (*expr) aExpr() {}

type stmt struct{ node }

func (*stmt) aStmt() {}

type decl struct{ node }

func (*decl) aDecl() {}

// ----------------------------------------------------------------------------
// File and declarations

// File is a complete architecture description.
type File struct {
	node
	Name  *Name // from "isa Name"; nil if absent
	Decls []Decl
}

// ConstDecl: constant Name [: Type] = Value
type ConstDecl struct {
	decl
	Name  *Name
	Type  Expr // nil for an untyped constant
	Value Expr
}

// UsingDecl: using Name = Type
type UsingDecl struct {
	decl
	Name *Name
	Type Expr
}

// FormatDecl: format Name : Type { Fields }
type FormatDecl struct {
	decl
	Name   *Name
	Type   Expr
	Fields []*FormatField
	Rbrace Pos
}

// FieldMod marks alias and don't-care format fields.
type FieldMod uint8

const (
	FieldPlain  FieldMod = iota
	FieldAlias           // may overlap, not counted in the format width
	FieldIgnore          // don't-care bits
)

func (m FieldMod) String() string {
	switch m {
	case FieldAlias:
		return "alias"
	case FieldIgnore:
		return "ignore"
	}
	return ""
}

// FormatField: [alias|ignore] Name : (Width | Type) [@ [Lo, Hi)]
type FormatField struct {
	node
	Mod   FieldMod
	Name  *Name
	Width Expr // literal width; nil when Type is set
	Type  Expr
	Lo    Expr // nil when unpositioned
	Hi    Expr
}

// RegisterDecl declares a register or, with File set, a register file:
//
//	register Name : Type
//	register file Name [Size] : Index -> Elem
type RegisterDecl struct {
	decl
	Name  *Name
	File  bool
	Size  Expr // nil if unsized
	Index Expr // nil for a plain register
	Elem  Expr
}

// MemoryDecl: memory Name : Addr -> Elem
type MemoryDecl struct {
	decl
	Name *Name
	Addr Expr
	Elem Expr
}

// Param is a function or relocation parameter.
type Param struct {
	node
	Name *Name
	Type Expr
}

// FuncDecl: (function|relocation) Name(Params) -> Result = Body
type FuncDecl struct {
	decl
	Reloc  bool
	Name   *Name
	Params []*Param
	Result Expr
	Body   Expr
}

// InstrDecl: instruction Name : Format { Body }
type InstrDecl struct {
	decl
	Name   *Name
	Format *Name
	Body   *BlockStmt
}

// EncodingDecl: encoding Instr = { Field = Value, ... }
type EncodingDecl struct {
	decl
	Instr  *Name
	Fields []*EncodingField
}

type EncodingField struct {
	node
	Field *Name
	Value Expr
}

// AssemblyDecl: assembly Instr = "syntax"
type AssemblyDecl struct {
	decl
	Instr  *Name
	Syntax *BasicLit
}

// ----------------------------------------------------------------------------
// Expressions

type Name struct {
	expr
	Value string
}

type BasicLit struct {
	expr
	Value string
	Kind  LitKind
}

// Operation is a unary (Y == nil) or binary operation.
type Operation struct {
	expr
	Op Token
	X  Expr
	Y  Expr
}

// CallExpr is a function call, a builtin call, or a register file or
// memory access: X(rd), MEM(addr).
type CallExpr struct {
	expr
	Fun  Expr
	Args []Expr
}

// SliceExpr is X[Lo:Hi] (half-open) or, with Hi nil, the single bit X[Lo].
type SliceExpr struct {
	expr
	X  Expr
	Lo Expr
	Hi Expr
}

type SelectorExpr struct {
	expr
	X   Expr
	Sel *Name
}

type ParenExpr struct {
	expr
	X Expr
}

// CastExpr is X as Type.
type CastExpr struct {
	expr
	X    Expr
	Type Expr
}

// IfExpr is if Cond then X else Y.
type IfExpr struct {
	expr
	Cond Expr
	X    Expr
	Y    Expr
}

// BitsType is a sized bit vector type: Bits<N>, UInt<N> or SInt<N>.
type BitsType struct {
	expr
	Kind  *Name
	Width Expr
}

// ----------------------------------------------------------------------------
// Statements

type EmptyStmt struct {
	stmt
}

// AssignStmt is LHS := RHS.
type AssignStmt struct {
	stmt
	LHS Expr
	RHS Expr
}

// LetStmt binds Name for the remaining statements of the enclosing block.
type LetStmt struct {
	stmt
	Name  *Name
	Value Expr
}

type BlockStmt struct {
	stmt
	Stmts  []Stmt
	Rbrace Pos
}

type IfStmt struct {
	stmt
	Cond Expr
	Then *BlockStmt
	Else Stmt // nil, *IfStmt or *BlockStmt
}

// ExprStmt is only produced for error reporting: expressions have no
// effect in instruction bodies.
type ExprStmt struct {
	stmt
	X Expr
}
