// Package diag defines compiler diagnostics and the bag that collects them.
package diag

import (
	"fmt"

	"github.com/you-not-fish/adlc/internal/syntax"
)

// Severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return "unknown"
}

// Kind classifies a diagnostic.
type Kind int

const (
	SyntaxError Kind = iota

	// resolution
	DuplicateSymbol
	UnresolvedSymbol
	CyclicDefinition

	// typing
	WidthMismatch
	WidthOutOfRange
	ReturnTypeMismatch
	UnknownField
	TypeMismatch
	ArgumentCount
	NotAssignable
	NotConstant
	InvalidOperation
	SignednessMismatch

	// encoding
	OverlappingFields
	UnsatisfiableLayout
	AmbiguousEncoding
	MissingEncoding

	// generation
	UnsupportedConstruct

	kindCount
)

var kindNames = [...]string{
	SyntaxError:          "SyntaxError",
	DuplicateSymbol:      "DuplicateSymbol",
	UnresolvedSymbol:     "UnresolvedSymbol",
	CyclicDefinition:     "CyclicDefinition",
	WidthMismatch:        "WidthMismatch",
	WidthOutOfRange:      "WidthOutOfRange",
	ReturnTypeMismatch:   "ReturnTypeMismatch",
	UnknownField:         "UnknownField",
	TypeMismatch:         "TypeMismatch",
	ArgumentCount:        "ArgumentCount",
	NotAssignable:        "NotAssignable",
	NotConstant:          "NotConstant",
	InvalidOperation:     "InvalidOperation",
	SignednessMismatch:   "SignednessMismatch",
	OverlappingFields:    "OverlappingFields",
	UnsatisfiableLayout:  "UnsatisfiableLayout",
	AmbiguousEncoding:    "AmbiguousEncoding",
	MissingEncoding:      "MissingEncoding",
	UnsupportedConstruct: "UnsupportedConstruct",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Severity returns the default severity of diagnostics of kind k.
func (k Kind) Severity() Severity {
	switch k {
	case SignednessMismatch, AmbiguousEncoding, MissingEncoding:
		return Warning
	}
	return Error
}

// Related is a secondary location attached to a diagnostic.
type Related struct {
	Span syntax.Span
	Msg  string
}

// A Diagnostic is one message about the input. Related holds the other
// locations involved, e.g. the second field of an overlap or the earlier
// declaration of a duplicate.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Msg      string
	Span     syntax.Span
	Related  []Related
}

// New returns a diagnostic of kind k at n with the kind's default severity.
func New(k Kind, n syntax.Node, format string, args ...any) *Diagnostic {
	return NewAt(k, syntax.SpanOf(n), format, args...)
}

// NewAt is like New but takes an explicit span.
func NewAt(k Kind, span syntax.Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: k.Severity(),
		Kind:     k,
		Msg:      fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// WithRelated attaches a secondary location and returns d.
func (d *Diagnostic) WithRelated(n syntax.Node, format string, args ...any) *Diagnostic {
	d.Related = append(d.Related, Related{Span: syntax.SpanOf(n), Msg: fmt.Sprintf(format, args...)})
	return d
}

// WithRelatedAt is like WithRelated but takes an explicit span.
func (d *Diagnostic) WithRelatedAt(span syntax.Span, format string, args ...any) *Diagnostic {
	d.Related = append(d.Related, Related{Span: span, Msg: fmt.Sprintf(format, args...)})
	return d
}

func (d *Diagnostic) Pos() syntax.Pos { return d.Span.Start }

// Error formats d as "file:line:col: severity: message [Kind]".
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Span.Start, d.Severity, d.Msg, d.Kind)
}
