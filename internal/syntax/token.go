// Package syntax implements scanning, parsing and printing of architecture
// descriptions.
package syntax

import "fmt"

// Token is the type of a lexical token.
type Token uint

const (
	_EOF   Token = iota
	_Error

	_Name
	_Literal

	_Assign // =
	_Define // :=

	_OrOr   // ||
	_AndAnd // &&

	_Eql // ==
	_Neq // !=
	_Lss // <
	_Leq // <=
	_Gtr // >
	_Geq // >=

	_Add    // +
	_Sub    // -
	_Or     // |
	_Xor    // ^
	_Concat // ++

	_Mul // *
	_Div // /
	_Rem // %
	_And // &
	_Shl // <<
	_Shr // >>

	_Not   // !
	_Tilde // ~

	_Lparen // (
	_Rparen // )
	_Lbrack // [
	_Rbrack // ]
	_Lbrace // {
	_Rbrace // }
	_Comma  // ,
	_Semi   // ;
	_Colon  // :
	_Dot    // .
	_Arrow  // ->
	_At     // @

	// keywords
	_As
	_Assembly
	_Constant
	_Else
	_Encoding
	_Format
	_Function
	_If
	_Instruction
	_Isa
	_Let
	_Memory
	_Register
	_Relocation
	_Then
	_Using

	tokenCount
)

var tokenNames = [...]string{
	_EOF:   "EOF",
	_Error: "ERROR",

	_Name:    "NAME",
	_Literal: "LITERAL",

	_Assign: "=",
	_Define: ":=",

	_OrOr:   "||",
	_AndAnd: "&&",

	_Eql: "==",
	_Neq: "!=",
	_Lss: "<",
	_Leq: "<=",
	_Gtr: ">",
	_Geq: ">=",

	_Add:    "+",
	_Sub:    "-",
	_Or:     "|",
	_Xor:    "^",
	_Concat: "++",

	_Mul: "*",
	_Div: "/",
	_Rem: "%",
	_And: "&",
	_Shl: "<<",
	_Shr: ">>",

	_Not:   "!",
	_Tilde: "~",

	_Lparen: "(",
	_Rparen: ")",
	_Lbrack: "[",
	_Rbrack: "]",
	_Lbrace: "{",
	_Rbrace: "}",
	_Comma:  ",",
	_Semi:   ";",
	_Colon:  ":",
	_Dot:    ".",
	_Arrow:  "->",
	_At:     "@",

	_As:          "as",
	_Assembly:    "assembly",
	_Constant:    "constant",
	_Else:        "else",
	_Encoding:    "encoding",
	_Format:      "format",
	_Function:    "function",
	_If:          "if",
	_Instruction: "instruction",
	_Isa:         "isa",
	_Let:         "let",
	_Memory:      "memory",
	_Register:    "register",
	_Relocation:  "relocation",
	_Then:        "then",
	_Using:       "using",
}

func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// Precedence returns the binding strength of a binary operator, or 0.
//
//	1: ||
//	2: &&
//	3: == != < <= > >=
//	4: + - | ^ ++
//	5: * / % & << >>
func (t Token) Precedence() int {
	switch t {
	case _OrOr:
		return 1
	case _AndAnd:
		return 2
	case _Eql, _Neq, _Lss, _Leq, _Gtr, _Geq:
		return 3
	case _Add, _Sub, _Or, _Xor, _Concat:
		return 4
	case _Mul, _Div, _Rem, _And, _Shl, _Shr:
		return 5
	}
	return 0
}

func (t Token) IsKeyword() bool  { return t >= _As && t <= _Using }
func (t Token) IsOperator() bool { return t >= _Assign && t <= _Tilde }

// IsComparison reports whether t is one of == != < <= > >=.
func (t Token) IsComparison() bool { return t >= _Eql && t <= _Geq }

// Operator tokens used outside the parser.
const (
	OrOr   Token = _OrOr
	AndAnd Token = _AndAnd
	Eql    Token = _Eql
	Neq    Token = _Neq
	Lss    Token = _Lss
	Leq    Token = _Leq
	Gtr    Token = _Gtr
	Geq    Token = _Geq
	Add    Token = _Add
	Sub    Token = _Sub
	Or     Token = _Or
	Xor    Token = _Xor
	Concat Token = _Concat
	Mul    Token = _Mul
	Div    Token = _Div
	Rem    Token = _Rem
	And    Token = _And
	Shl    Token = _Shl
	Shr    Token = _Shr
	Not    Token = _Not
	Tilde  Token = _Tilde
)

// LitKind is the kind of a literal token.
type LitKind uint8

const (
	IntLit    LitKind = iota // 42, 0x2a, 0o52, 0b101010
	StringLit                // "addi {rd}"
)

func (k LitKind) String() string {
	switch k {
	case IntLit:
		return "int"
	case StringLit:
		return "string"
	}
	return fmt.Sprintf("LitKind(%d)", k)
}

// Bits, UInt, SInt and Bool are ordinary names bound in the universe;
// "file", "alias" and "ignore" are contextual and also scan as names.
var keywords = map[string]Token{
	"as":          _As,
	"assembly":    _Assembly,
	"constant":    _Constant,
	"else":        _Else,
	"encoding":    _Encoding,
	"format":      _Format,
	"function":    _Function,
	"if":          _If,
	"instruction": _Instruction,
	"isa":         _Isa,
	"let":         _Let,
	"memory":      _Memory,
	"register":    _Register,
	"relocation":  _Relocation,
	"then":        _Then,
	"using":       _Using,
}

// LookupKeyword returns the keyword token for ident, or _Name.
func LookupKeyword(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return _Name
}
