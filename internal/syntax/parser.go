package syntax

import (
	"io"
	"os"
)

const maxErrors = 10

// SyntaxError is a parse or scan error.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Parser builds a File from an architecture description.
type Parser struct {
	scanner *Scanner

	tok  Token
	lit  string
	pos  Pos
	prev Pos // end of the last consumed token

	errh   func(pos Pos, msg string)
	errcnt int
	first  error
	abort  bool
}

// NewParser returns a parser reading src. errh receives every error and
// may be nil.
func NewParser(filename string, src io.Reader, errh func(pos Pos, msg string)) *Parser {
	p := &Parser{errh: errh}
	p.scanner = NewScanner(filename, src, func(line, col uint32, msg string) {
		p.errorAt(NewPos(filename, line, col), msg)
	})
	p.next()
	return p
}

// Parse is a convenience wrapper that parses src and returns the file and
// the first error.
func Parse(filename string, src io.Reader, errh func(pos Pos, msg string)) (*File, error) {
	p := NewParser(filename, src, errh)
	f := p.Parse()
	return f, p.FirstError()
}

// ParseFile parses the named file.
func ParseFile(filename string, errh func(pos Pos, msg string)) (*File, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return Parse(filename, fd, errh)
}

func (p *Parser) next() {
	p.prev = p.scanner.End()
	p.scanner.Next()
	p.tok = p.scanner.Token()
	p.lit = p.scanner.Literal()
	p.pos = p.scanner.Pos()
}

func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

func (p *Parser) want(tok Token) {
	if !p.got(tok) {
		p.syntaxError("expected " + tok.String())
		p.advance()
	}
}

// ----------------------------------------------------------------------------
// Errors

func (p *Parser) syntaxError(msg string) {
	found := p.tok.String()
	switch p.tok {
	case _Name, _Literal:
		found = p.lit
	case _Semi:
		found = p.lit
	}
	p.errorAt(p.pos, msg+", found "+found)
}

func (p *Parser) errorAt(pos Pos, msg string) {
	if p.abort {
		return
	}
	if p.errcnt == 0 {
		p.first = &SyntaxError{Pos: pos, Msg: msg}
	}
	p.errcnt++
	if p.errh != nil {
		p.errh(pos, msg)
	}
	if p.errcnt >= maxErrors {
		p.abort = true
		if p.errh != nil {
			p.errh(pos, "too many errors")
		}
		p.tok = _EOF
	}
}

// declStart holds the tokens that begin a top-level declaration.
var declStart = map[Token]bool{
	_Constant:    true,
	_Using:       true,
	_Format:      true,
	_Register:    true,
	_Memory:      true,
	_Function:    true,
	_Relocation:  true,
	_Instruction: true,
	_Encoding:    true,
	_Assembly:    true,
}

// advance skips to the next statement or declaration boundary.
func (p *Parser) advance() {
	for p.tok != _EOF && !declStart[p.tok] {
		switch p.tok {
		case _Semi, _Rbrace, _Rparen, _Rbrack:
			p.next()
			return
		case _If, _Let:
			return
		}
		p.next()
	}
}

func (p *Parser) Errors() int       { return p.errcnt }
func (p *Parser) FirstError() error { return p.first }

// ----------------------------------------------------------------------------
// Declarations

func (p *Parser) Parse() *File {
	f := &File{}
	f.pos = p.pos

	for p.tok == _Semi {
		p.next()
	}
	if p.got(_Isa) {
		f.Name = p.name()
		p.declEnd()
	}

	for !p.abort && p.tok != _EOF {
		if p.got(_Semi) {
			continue
		}
		if d := p.decl(); d != nil {
			f.Decls = append(f.Decls, d)
		}
	}
	f.end = p.pos
	return f
}

func (p *Parser) decl() Decl {
	switch p.tok {
	case _Constant:
		return p.constDecl()
	case _Using:
		return p.usingDecl()
	case _Format:
		return p.formatDecl()
	case _Register:
		return p.registerDecl()
	case _Memory:
		return p.memoryDecl()
	case _Function, _Relocation:
		return p.funcDecl()
	case _Instruction:
		return p.instrDecl()
	case _Encoding:
		return p.encodingDecl()
	case _Assembly:
		return p.assemblyDecl()
	}
	p.syntaxError("expected declaration")
	p.next()
	p.advance()
	return nil
}

// declEnd consumes the terminator of a declaration.
func (p *Parser) declEnd() {
	if p.tok == _EOF || p.got(_Semi) {
		return
	}
	p.syntaxError("expected newline or ;")
	p.advance()
}

func (p *Parser) name() *Name {
	n := &Name{Value: "_"}
	n.pos = p.pos
	if p.tok != _Name {
		p.syntaxError("expected name")
		return n
	}
	n.Value = p.lit
	p.next()
	n.end = p.prev
	return n
}

func (p *Parser) constDecl() *ConstDecl {
	d := &ConstDecl{}
	d.pos = p.pos
	p.want(_Constant)
	d.Name = p.name()
	if p.got(_Colon) {
		d.Type = p.type_()
	}
	p.want(_Assign)
	d.Value = p.expr()
	d.end = p.prev
	p.declEnd()
	return d
}

func (p *Parser) usingDecl() *UsingDecl {
	d := &UsingDecl{}
	d.pos = p.pos
	p.want(_Using)
	d.Name = p.name()
	p.want(_Assign)
	d.Type = p.type_()
	d.end = p.prev
	p.declEnd()
	return d
}

func (p *Parser) formatDecl() *FormatDecl {
	d := &FormatDecl{}
	d.pos = p.pos
	p.want(_Format)
	d.Name = p.name()
	p.want(_Colon)
	d.Type = p.type_()
	p.want(_Lbrace)
	for !p.abort && p.tok != _Rbrace && p.tok != _EOF {
		if p.got(_Semi) || p.got(_Comma) {
			continue
		}
		d.Fields = append(d.Fields, p.formatField())
	}
	d.Rbrace = p.pos
	p.want(_Rbrace)
	d.end = p.prev
	p.declEnd()
	return d
}

// formatField parses [alias|ignore] name : (width | type) [@ [lo, hi)].
func (p *Parser) formatField() *FormatField {
	f := &FormatField{}
	f.pos = p.pos
	f.Name = p.name()
	if p.tok == _Name {
		switch f.Name.Value {
		case "alias":
			f.Mod = FieldAlias
			f.Name = p.name()
		case "ignore":
			f.Mod = FieldIgnore
			f.Name = p.name()
		}
	}
	p.want(_Colon)
	switch p.tok {
	case _Literal, _Lparen:
		f.Width = p.operand()
	default:
		f.Type = p.type_()
	}
	if p.got(_At) {
		p.want(_Lbrack)
		f.Lo = p.expr()
		p.want(_Comma)
		f.Hi = p.expr()
		p.want(_Rparen)
	}
	f.end = p.prev
	switch p.tok {
	case _Semi, _Comma, _Rbrace:
	default:
		p.syntaxError("expected newline, comma or }")
		p.advance()
	}
	return f
}

// registerDecl parses
//
//	register Name : Type
//	register [file] Name [Size] : Index -> Elem
func (p *Parser) registerDecl() *RegisterDecl {
	d := &RegisterDecl{}
	d.pos = p.pos
	p.want(_Register)
	d.Name = p.name()
	if d.Name.Value == "file" && p.tok == _Name {
		d.File = true
		d.Name = p.name()
	}
	if p.got(_Lbrack) {
		d.File = true
		d.Size = p.expr()
		p.want(_Rbrack)
	}
	p.want(_Colon)
	t := p.type_()
	if p.got(_Arrow) {
		d.File = true
		d.Index = t
		d.Elem = p.type_()
	} else {
		d.Elem = t
		if d.File {
			p.syntaxError("expected -> in register file declaration")
		}
	}
	d.end = p.prev
	p.declEnd()
	return d
}

func (p *Parser) memoryDecl() *MemoryDecl {
	d := &MemoryDecl{}
	d.pos = p.pos
	p.want(_Memory)
	d.Name = p.name()
	p.want(_Colon)
	d.Addr = p.type_()
	p.want(_Arrow)
	d.Elem = p.type_()
	d.end = p.prev
	p.declEnd()
	return d
}

func (p *Parser) funcDecl() *FuncDecl {
	d := &FuncDecl{Reloc: p.tok == _Relocation}
	d.pos = p.pos
	p.next()
	d.Name = p.name()
	p.want(_Lparen)
	for p.tok != _Rparen && p.tok != _EOF {
		prm := &Param{}
		prm.pos = p.pos
		prm.Name = p.name()
		p.want(_Colon)
		prm.Type = p.type_()
		prm.end = p.prev
		d.Params = append(d.Params, prm)
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rparen)
	p.want(_Arrow)
	d.Result = p.type_()
	p.want(_Assign)
	d.Body = p.expr()
	d.end = p.prev
	p.declEnd()
	return d
}

func (p *Parser) instrDecl() *InstrDecl {
	d := &InstrDecl{}
	d.pos = p.pos
	p.want(_Instruction)
	d.Name = p.name()
	p.want(_Colon)
	d.Format = p.name()
	d.Body = p.blockStmt()
	d.end = p.prev
	p.declEnd()
	return d
}

func (p *Parser) encodingDecl() *EncodingDecl {
	d := &EncodingDecl{}
	d.pos = p.pos
	p.want(_Encoding)
	d.Instr = p.name()
	p.want(_Assign)
	p.want(_Lbrace)
	for !p.abort && p.tok != _Rbrace && p.tok != _EOF {
		if p.got(_Semi) || p.got(_Comma) {
			continue
		}
		ef := &EncodingField{}
		ef.pos = p.pos
		ef.Field = p.name()
		p.want(_Assign)
		ef.Value = p.expr()
		ef.end = p.prev
		d.Fields = append(d.Fields, ef)
	}
	p.want(_Rbrace)
	d.end = p.prev
	p.declEnd()
	return d
}

func (p *Parser) assemblyDecl() *AssemblyDecl {
	d := &AssemblyDecl{}
	d.pos = p.pos
	p.want(_Assembly)
	d.Instr = p.name()
	p.want(_Assign)
	lit := &BasicLit{Kind: StringLit}
	lit.pos = p.pos
	if p.tok == _Literal && p.scanner.LitKind() == StringLit {
		lit.Value = p.lit
		p.next()
	} else {
		p.syntaxError("expected assembly string")
	}
	lit.end = p.prev
	d.Syntax = lit
	d.end = p.prev
	p.declEnd()
	return d
}

// ----------------------------------------------------------------------------
// Types

// sizedKinds are the type names that take a width argument.
var sizedKinds = map[string]bool{"Bits": true, "UInt": true, "SInt": true}

// type_ parses a type: a name, or Kind<Width> for sized bit vectors.
func (p *Parser) type_() Expr {
	if p.tok != _Name {
		p.syntaxError("expected type")
		n := &Name{Value: "_"}
		n.pos = p.pos
		return n
	}
	n := p.name()
	if p.tok != _Lss || !sizedKinds[n.Value] {
		return n
	}
	t := &BitsType{Kind: n}
	t.pos = n.pos
	p.next()
	t.Width = p.operand()
	p.want(_Gtr)
	t.end = p.prev
	return t
}

// ----------------------------------------------------------------------------
// Statements

func (p *Parser) stmt() Stmt {
	switch p.tok {
	case _Lbrace:
		return p.blockStmt()
	case _If:
		return p.ifStmt()
	case _Let:
		return p.letStmt()
	case _Semi:
		s := &EmptyStmt{}
		s.pos = p.pos
		p.next()
		return s
	}
	return p.simpleStmt()
}

func (p *Parser) simpleStmt() Stmt {
	pos := p.pos
	x := p.expr()
	switch p.tok {
	case _Define:
		s := &AssignStmt{LHS: x}
		s.pos = pos
		p.next()
		s.RHS = p.expr()
		s.end = p.prev
		p.stmtEnd()
		return s
	case _Assign:
		p.syntaxError("expected := in assignment")
		p.advance()
	}
	s := &ExprStmt{X: x}
	s.pos = pos
	s.end = p.prev
	p.stmtEnd()
	return s
}

// stmtEnd consumes a statement terminator; a closing brace also ends a
// statement.
func (p *Parser) stmtEnd() {
	if p.tok == _Rbrace || p.got(_Semi) {
		return
	}
	p.syntaxError("expected newline or ;")
	p.advance()
}

func (p *Parser) letStmt() Stmt {
	s := &LetStmt{}
	s.pos = p.pos
	p.want(_Let)
	s.Name = p.name()
	p.want(_Assign)
	s.Value = p.expr()
	s.end = p.prev
	p.stmtEnd()
	return s
}

func (p *Parser) blockStmt() *BlockStmt {
	b := &BlockStmt{}
	b.pos = p.pos
	p.want(_Lbrace)
	for !p.abort && p.tok != _Rbrace && p.tok != _EOF {
		if declStart[p.tok] {
			p.syntaxError("expected }")
			return b
		}
		b.Stmts = append(b.Stmts, p.stmt())
	}
	b.Rbrace = p.pos
	p.want(_Rbrace)
	b.end = p.prev
	return b
}

func (p *Parser) ifStmt() *IfStmt {
	s := &IfStmt{}
	s.pos = p.pos
	p.want(_If)
	s.Cond = p.expr()
	p.got(_Then)
	s.Then = p.blockStmt()
	if p.got(_Else) {
		if p.tok == _If {
			s.Else = p.ifStmt()
		} else {
			s.Else = p.blockStmt()
		}
	}
	s.end = p.prev
	if p.tok != _Else {
		p.got(_Semi)
	}
	return s
}

// ----------------------------------------------------------------------------
// Expressions

func (p *Parser) expr() Expr {
	return p.binaryExpr(0)
}

func (p *Parser) binaryExpr(prec int) Expr {
	x := p.unaryExpr()
	for {
		oprec := p.tok.Precedence()
		if oprec <= prec {
			return x
		}
		op := &Operation{Op: p.tok, X: x}
		op.pos = x.Pos()
		p.next()
		op.Y = p.binaryExpr(oprec)
		op.end = p.prev
		x = op
	}
}

func (p *Parser) unaryExpr() Expr {
	switch p.tok {
	case _Not, _Sub, _Tilde:
		op := &Operation{Op: p.tok}
		op.pos = p.pos
		p.next()
		op.X = p.unaryExpr()
		op.end = p.prev
		return op
	}
	return p.primaryExpr()
}

func (p *Parser) primaryExpr() Expr {
	x := p.operand()
	for {
		switch p.tok {
		case _Lparen:
			call := &CallExpr{Fun: x}
			call.pos = x.Pos()
			p.next()
			for p.tok != _Rparen && p.tok != _EOF {
				call.Args = append(call.Args, p.expr())
				if !p.got(_Comma) {
					break
				}
			}
			p.want(_Rparen)
			call.end = p.prev
			x = call

		case _Lbrack:
			sl := &SliceExpr{X: x}
			sl.pos = x.Pos()
			p.next()
			sl.Lo = p.expr()
			if p.got(_Colon) {
				sl.Hi = p.expr()
			}
			p.want(_Rbrack)
			sl.end = p.prev
			x = sl

		case _Dot:
			sel := &SelectorExpr{X: x}
			sel.pos = x.Pos()
			p.next()
			sel.Sel = p.name()
			sel.end = p.prev
			x = sel

		case _As:
			c := &CastExpr{X: x}
			c.pos = x.Pos()
			p.next()
			c.Type = p.type_()
			c.end = p.prev
			x = c

		default:
			return x
		}
	}
}

func (p *Parser) operand() Expr {
	switch p.tok {
	case _Name:
		return p.name()

	case _Literal:
		lit := &BasicLit{Value: p.lit, Kind: p.scanner.LitKind()}
		lit.pos = p.pos
		p.next()
		lit.end = p.prev
		return lit

	case _Lparen:
		paren := &ParenExpr{}
		paren.pos = p.pos
		p.next()
		paren.X = p.expr()
		p.want(_Rparen)
		paren.end = p.prev
		return paren

	case _If:
		x := &IfExpr{}
		x.pos = p.pos
		p.next()
		x.Cond = p.expr()
		p.want(_Then)
		x.X = p.expr()
		p.want(_Else)
		x.Y = p.expr()
		x.end = p.prev
		return x
	}
	p.syntaxError("expected operand")
	n := &Name{Value: "_"}
	n.pos = p.pos
	return n
}
