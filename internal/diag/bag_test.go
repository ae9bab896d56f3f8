package diag

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/you-not-fish/adlc/internal/syntax"
)

func at(line, col uint32) syntax.Span {
	p := syntax.NewPos("t.adl", line, col)
	return syntax.Span{Start: p, End: p}
}

func TestBagCountsBySeverity(t *testing.T) {
	var b Bag
	b.Add(NewAt(WidthMismatch, at(1, 1), "x"))
	b.Add(NewAt(SignednessMismatch, at(2, 1), "y"))
	b.Add(NewAt(AmbiguousEncoding, at(3, 1), "z"))
	if b.ErrorCount() != 1 || b.WarningCount() != 2 {
		t.Errorf("errors=%d warnings=%d, want 1 and 2", b.ErrorCount(), b.WarningCount())
	}
	if !b.HasErrors() {
		t.Error("HasErrors = false")
	}
	if b.Count(WidthMismatch) != 1 {
		t.Errorf("Count(WidthMismatch) = %d", b.Count(WidthMismatch))
	}
}

func TestBagConcurrentAddIsDeterministic(t *testing.T) {
	render := func() string {
		var b Bag
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				b.Add(NewAt(UnknownField, at(uint32(i%7)+1, uint32(i%3)+1), "field %d", i))
			}(i)
		}
		wg.Wait()
		var buf bytes.Buffer
		if err := Fprint(&buf, b.Diagnostics()); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}
	first := render()
	for i := 0; i < 5; i++ {
		if got := render(); got != first {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}
}

func TestDiagnosticsSortedBySource(t *testing.T) {
	var b Bag
	b.Add(NewAt(UnresolvedSymbol, at(9, 2), "undefined: b"))
	b.Add(NewAt(UnresolvedSymbol, at(2, 5), "undefined: a"))
	b.Add(NewAt(DuplicateSymbol, at(2, 5), "a redeclared"))
	ds := b.Diagnostics()
	got := make([]string, len(ds))
	for i, d := range ds {
		got[i] = d.Msg
	}
	want := "a redeclared,undefined: a,undefined: b"
	if strings.Join(got, ",") != want {
		t.Errorf("order = %v, want %s", got, want)
	}
}

func TestFprint(t *testing.T) {
	d := NewAt(OverlappingFields, at(4, 3), "fields %s and %s overlap", "a", "b")
	d.Related = append(d.Related, Related{Span: at(5, 3), Msg: "b declared here"})
	var buf bytes.Buffer
	if err := Fprint(&buf, []*Diagnostic{d}); err != nil {
		t.Fatal(err)
	}
	want := "t.adl:4:3: error: fields a and b overlap [OverlappingFields]\n" +
		"\tt.adl:5:3: note: b declared here\n" +
		"1 error(s)\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestKindStrings(t *testing.T) {
	for k := Kind(0); k < kindCount; k++ {
		if s := k.String(); s == "" || strings.HasPrefix(s, "Kind(") {
			t.Errorf("kind %d has no name", int(k))
		}
	}
	if got := Kind(99).String(); got != fmt.Sprintf("Kind(%d)", 99) {
		t.Errorf("Kind(99).String() = %q", got)
	}
}
