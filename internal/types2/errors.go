package types2

import (
	"sync"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
)

// ErrorHandler receives each diagnostic.
type ErrorHandler func(d *diag.Diagnostic)

// reporter forwards diagnostics to the configured handler and remembers
// the earliest error. It is shared by concurrent body checkers.
type reporter struct {
	h ErrorHandler

	mu     sync.Mutex
	errors int
	min    *diag.Diagnostic
}

func newReporter(h ErrorHandler) *reporter {
	return &reporter{h: h}
}

func (r *reporter) report(d *diag.Diagnostic) {
	if d.Severity == diag.Error {
		r.mu.Lock()
		r.errors++
		if r.min == nil || diag.Compare(d, r.min) < 0 {
			r.min = d
		}
		r.mu.Unlock()
	}
	if r.h != nil {
		r.h(d)
	}
}

func (r *reporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// first returns the earliest error reported so far, or nil.
func (r *reporter) first() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.min == nil {
		return nil
	}
	return r.min
}

func (r *resolver) errorf(k diag.Kind, at syntax.Node, format string, args ...any) {
	r.errs.report(diag.New(k, at, format, args...))
}

func (c *Checker) errorf(k diag.Kind, at syntax.Node, format string, args ...any) {
	c.errs.report(diag.New(k, at, format, args...))
}

// widthError reports a width mismatch between x and a target.
func (c *Checker) widthError(at syntax.Node, format string, args ...any) {
	c.errorf(diag.WidthMismatch, at, format, args...)
}

func (c *Checker) invalidOp(at syntax.Node, format string, args ...any) {
	c.errorf(diag.InvalidOperation, at, "invalid operation: "+format, args...)
}
