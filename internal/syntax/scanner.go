package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Scanner splits a description into tokens. A newline after a token that
// can end a declaration or statement is reported as _Semi.
type Scanner struct {
	source

	tok    Token
	lit    string
	kind   LitKind
	tokPos Pos
	tokEnd Pos

	nlsemi bool

	litBuf strings.Builder
}

// NewScanner returns a scanner reading src. errh receives lexical errors
// and may be nil.
func NewScanner(filename string, src io.Reader, errh func(line, col uint32, msg string)) *Scanner {
	return &Scanner{source: *newSource(filename, src, errh)}
}

// Next advances to the next token.
func (s *Scanner) Next() {
	nlsemi := s.nlsemi
	s.nlsemi = false

redo:
	for isWhitespace(s.ch) {
		s.nextch()
	}

	if nlsemi && (s.ch == '\n' || s.ch < 0) {
		s.tokPos = s.pos()
		s.tok = _Semi
		s.lit = "newline"
		if s.ch == '\n' {
			s.nextch()
		} else {
			s.lit = "EOF"
		}
		s.tokEnd = s.tokPos
		return
	}
	if s.ch == '\n' {
		s.nextch()
		goto redo
	}

	s.tokPos = s.pos()
	switch {
	case s.ch < 0:
		s.tok = _EOF
		s.lit = ""
	case isLetter(s.ch):
		s.ident()
	case isDigit(s.ch):
		s.number()
	case s.ch == '"':
		s.stdString()
	default:
		if s.operator() {
			goto redo
		}
	}

	s.tokEnd = s.pos()
	switch s.tok {
	case _Name, _Literal, _Rparen, _Rbrack, _Rbrace, _Gtr:
		s.nlsemi = true
	}
}

func (s *Scanner) Token() Token     { return s.tok }
func (s *Scanner) Literal() string  { return s.lit }
func (s *Scanner) LitKind() LitKind { return s.kind }
func (s *Scanner) Pos() Pos         { return s.tokPos }

// End returns the position just after the current token.
func (s *Scanner) End() Pos { return s.tokEnd }

func (s *Scanner) ident() {
	s.litBuf.Reset()
	for isLetter(s.ch) || isDigit(s.ch) {
		s.litBuf.WriteRune(s.ch)
		s.nextch()
	}
	s.lit = s.litBuf.String()
	s.tok = LookupKeyword(s.lit)
}

// number scans an integer literal. Digits may be separated by '_'; the
// literal is kept verbatim so go/constant can interpret it.
func (s *Scanner) number() {
	s.litBuf.Reset()
	s.tok = _Literal
	s.kind = IntLit

	base := 10
	if s.ch == '0' {
		s.litBuf.WriteRune(s.ch)
		s.nextch()
		switch lower(s.ch) {
		case 'x':
			base = 16
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
		if base != 10 {
			s.litBuf.WriteRune(s.ch)
			s.nextch()
		}
	}

	ndigits := 0
	for {
		switch {
		case s.ch == '_':
		case isHexDigit(s.ch):
			if digitVal(s.ch) >= base {
				if base == 10 && !isDigit(s.ch) {
					goto done
				}
				s.error(fmt.Sprintf("invalid digit %q in base-%d literal", s.ch, base))
			}
			ndigits++
		default:
			goto done
		}
		s.litBuf.WriteRune(s.ch)
		s.nextch()
	}
done:
	if base != 10 && ndigits == 0 {
		s.error(fmt.Sprintf("base-%d literal has no digits", base))
	}
	s.lit = s.litBuf.String()
}

func digitVal(r rune) int {
	switch {
	case isDigit(r):
		return int(r - '0')
	case 'a' <= lower(r) && lower(r) <= 'f':
		return int(lower(r) - 'a' + 10)
	}
	return 16
}

// stdString scans a double-quoted string; the literal is the decoded text.
func (s *Scanner) stdString() {
	s.nextch()
	var b strings.Builder
	s.tok = _Literal
	s.kind = StringLit
	for {
		switch s.ch {
		case '"':
			s.nextch()
			s.lit = b.String()
			return
		case '\\':
			s.nextch()
			switch s.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"':
				b.WriteRune(s.ch)
			default:
				s.error(fmt.Sprintf("unknown escape sequence \\%c", s.ch))
			}
			s.nextch()
		case '\n', -1:
			s.error("string not terminated")
			s.lit = b.String()
			return
		default:
			b.WriteRune(s.ch)
			s.nextch()
		}
	}
}

// operator scans an operator or delimiter. It reports true if it skipped a
// comment instead.
func (s *Scanner) operator() bool {
	ch := s.ch
	s.nextch()

	two := func(next rune, yes, no Token) {
		if s.ch == next {
			s.nextch()
			s.tok = yes
		} else {
			s.tok = no
		}
	}

	switch ch {
	case '+':
		two('+', _Concat, _Add)
	case '-':
		two('>', _Arrow, _Sub)
	case '*':
		s.tok = _Mul
	case '/':
		switch s.ch {
		case '/':
			for s.ch != '\n' && s.ch >= 0 {
				s.nextch()
			}
			return true
		case '*':
			s.blockComment()
			return true
		}
		s.tok = _Div
	case '%':
		s.tok = _Rem
	case '&':
		two('&', _AndAnd, _And)
	case '|':
		two('|', _OrOr, _Or)
	case '^':
		s.tok = _Xor
	case '~':
		s.tok = _Tilde
	case '<':
		switch s.ch {
		case '=':
			s.nextch()
			s.tok = _Leq
		case '<':
			s.nextch()
			s.tok = _Shl
		default:
			s.tok = _Lss
		}
	case '>':
		switch s.ch {
		case '=':
			s.nextch()
			s.tok = _Geq
		case '>':
			s.nextch()
			s.tok = _Shr
		default:
			s.tok = _Gtr
		}
	case '=':
		two('=', _Eql, _Assign)
	case '!':
		two('=', _Neq, _Not)
	case ':':
		two('=', _Define, _Colon)
	case '(':
		s.tok = _Lparen
	case ')':
		s.tok = _Rparen
	case '[':
		s.tok = _Lbrack
	case ']':
		s.tok = _Rbrack
	case '{':
		s.tok = _Lbrace
	case '}':
		s.tok = _Rbrace
	case ',':
		s.tok = _Comma
	case ';':
		s.tok = _Semi
	case '.':
		s.tok = _Dot
	case '@':
		s.tok = _At
	default:
		if s.errh != nil {
			s.errh(s.tokPos.line, s.tokPos.col, fmt.Sprintf("unexpected character %q", ch))
		}
		return true
	}
	s.lit = s.tok.String()
	return false
}

// blockComment skips a /* */ comment; s.ch is the '*' after the '/'.
func (s *Scanner) blockComment() {
	s.nextch()
	for s.ch >= 0 {
		if s.ch == '*' && s.peek() == '/' {
			s.nextch()
			s.nextch()
			return
		}
		s.nextch()
	}
	s.error("comment not terminated")
}
