package syntax

import "fmt"

// Pos is a position in a source file.
// The zero value is an invalid position.
type Pos struct {
	filename string
	line     uint32 // 1-based
	col      uint32 // 1-based, byte offset in line
}

// NewPos returns the position at line:col of filename.
func NewPos(filename string, line, col uint32) Pos {
	return Pos{filename: filename, line: line, col: col}
}

// String formats p as "file:line:col", or "line:col" without a file name.
func (p Pos) String() string {
	if p.filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.filename, p.line, p.col)
	}
	return fmt.Sprintf("%d:%d", p.line, p.col)
}

// IsValid reports whether p refers to an actual source location.
func (p Pos) IsValid() bool { return p.line > 0 }

func (p Pos) Line() uint32     { return p.line }
func (p Pos) Col() uint32      { return p.col }
func (p Pos) Filename() string { return p.filename }

// Compare orders positions by file, line and column. It returns -1, 0 or +1.
func (p Pos) Compare(q Pos) int {
	switch {
	case p.filename < q.filename:
		return -1
	case p.filename > q.filename:
		return +1
	case p.line < q.line:
		return -1
	case p.line > q.line:
		return +1
	case p.col < q.col:
		return -1
	case p.col > q.col:
		return +1
	}
	return 0
}

// Span is the source range [Start, End) covered by a construct.
// End may equal Start when only the start is known.
type Span struct {
	Start Pos
	End   Pos
}

// SpanOf returns the span of n.
func SpanOf(n Node) Span {
	return Span{Start: n.Pos(), End: n.End()}
}

func (s Span) String() string { return s.Start.String() }
