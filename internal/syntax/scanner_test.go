package syntax

import (
	"strings"
	"testing"
)

func scanAll(t *testing.T, src string) ([]Token, []string, []string) {
	t.Helper()
	var errs []string
	s := NewScanner("test.adl", strings.NewReader(src), func(line, col uint32, msg string) {
		errs = append(errs, msg)
	})
	var toks []Token
	var lits []string
	for {
		s.Next()
		if s.Token() == _EOF {
			break
		}
		toks = append(toks, s.Token())
		lits = append(lits, s.Literal())
	}
	return toks, lits, errs
}

func TestScanTokens(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		tokens []Token
		lits   []string
	}{
		{"ident", "rd", []Token{_Name, _Semi}, []string{"rd", "EOF"}},
		{"bits_is_a_name", "Bits", []Token{_Name, _Semi}, []string{"Bits", "EOF"}},
		{"int_dec", "42", []Token{_Literal, _Semi}, []string{"42", "EOF"}},
		{"int_hex", "0x1F", []Token{_Literal, _Semi}, []string{"0x1F", "EOF"}},
		{"int_bin_sep", "0b0010_011", []Token{_Literal, _Semi}, []string{"0b0010_011", "EOF"}},
		{"int_oct", "0o17", []Token{_Literal, _Semi}, []string{"0o17", "EOF"}},
		{"string", `"addi {rd}"`, []Token{_Literal, _Semi}, []string{"addi {rd}", "EOF"}},
		{"concat", "a ++ b", []Token{_Name, _Concat, _Name, _Semi}, []string{"a", "++", "b", "EOF"}},
		{"arrow", "Bits<5> -> Word", []Token{_Name, _Lss, _Literal, _Gtr, _Arrow, _Name, _Semi}, nil},
		{"define", "X(rd) := 1", []Token{_Name, _Lparen, _Name, _Rparen, _Define, _Literal, _Semi}, nil},
		{"position", "@ [0, 7)", []Token{_At, _Lbrack, _Literal, _Comma, _Literal, _Rparen, _Semi}, nil},
		{"keywords", "format instruction encoding", []Token{_Format, _Instruction, _Encoding}, nil},
		{"tilde_not", "~a !b", []Token{_Tilde, _Name, _Not, _Name, _Semi}, nil},
		{"shifts", "a << 2 >> 1", []Token{_Name, _Shl, _Literal, _Shr, _Literal, _Semi}, nil},
		{"line_comment", "a // note\nb", []Token{_Name, _Semi, _Name, _Semi}, nil},
		{"block_comment", "a /* x\ny */ b", []Token{_Name, _Name, _Semi}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, lits, errs := scanAll(t, tt.src)
			if len(errs) > 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(toks) != len(tt.tokens) {
				t.Fatalf("got tokens %v, want %v", toks, tt.tokens)
			}
			for i := range toks {
				if toks[i] != tt.tokens[i] {
					t.Errorf("token %d = %v, want %v", i, toks[i], tt.tokens[i])
				}
			}
			for i := range tt.lits {
				if lits[i] != tt.lits[i] {
					t.Errorf("literal %d = %q, want %q", i, lits[i], tt.lits[i])
				}
			}
		})
	}
}

func TestScanSemicolonInsertion(t *testing.T) {
	// A closing '>' ends a type, so a newline after it terminates the
	// declaration.
	toks, _, _ := scanAll(t, "register PC : Bits<32>\nmemory")
	want := []Token{_Register, _Name, _Colon, _Name, _Lss, _Literal, _Gtr, _Semi, _Memory}
	if len(toks) != len(want) {
		t.Fatalf("got %v, want %v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, toks[i], want[i])
		}
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"0b102", "invalid digit"},
		{"0x", "no digits"},
		{`"abc`, "not terminated"},
		{"a $ b", "unexpected character"},
		{"/* open", "comment not terminated"},
	}
	for _, tt := range tests {
		_, _, errs := scanAll(t, tt.src)
		found := false
		for _, e := range errs {
			if strings.Contains(e, tt.want) {
				found = true
			}
		}
		if !found {
			t.Errorf("scan %q: errors %v, want one containing %q", tt.src, errs, tt.want)
		}
	}
}

func TestScanPositions(t *testing.T) {
	s := NewScanner("f.adl", strings.NewReader("format\n  F"), nil)
	s.Next()
	if got := s.Pos().String(); got != "f.adl:1:1" {
		t.Errorf("pos = %s, want f.adl:1:1", got)
	}
	if got := s.End().String(); got != "f.adl:1:7" {
		t.Errorf("end = %s, want f.adl:1:7", got)
	}
	s.Next()
	if got := s.Pos().String(); got != "f.adl:2:3" {
		t.Errorf("pos = %s, want f.adl:2:3", got)
	}
}

func TestPosCompare(t *testing.T) {
	a := NewPos("a.adl", 3, 4)
	tests := []struct {
		b    Pos
		want int
	}{
		{NewPos("a.adl", 3, 4), 0},
		{NewPos("a.adl", 3, 5), -1},
		{NewPos("a.adl", 2, 9), +1},
		{NewPos("b.adl", 1, 1), -1},
	}
	for _, tt := range tests {
		if got := a.Compare(tt.b); got != tt.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", a, tt.b, got, tt.want)
		}
	}
	if (Pos{}).IsValid() {
		t.Error("zero Pos is valid")
	}
}
