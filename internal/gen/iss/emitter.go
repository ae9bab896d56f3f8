package iss

import (
	"fmt"
	"io"

	"github.com/you-not-fish/adlc/internal/ir"
)

// emitter wraps an io.Writer with helpers for emitting C text.
type emitter struct {
	w   io.Writer
	err error // first write error
}

// emit writes a formatted line to the output (no indentation).
func (e *emitter) emit(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format+"\n", args...)
}

// emitLabel writes a basic block label.
func (e *emitter) emitLabel(b *ir.Block) {
	e.emit("%s:", blockName(b))
}

// emitInst writes an indented statement line.
func (e *emitter) emitInst(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, "\t"+format+"\n", args...)
}

// valueName returns the C local holding an IR value: vN.
func valueName(v *ir.Value) string {
	return fmt.Sprintf("v%d", v.ID)
}

// blockName returns the C label of an IR block.
func blockName(b *ir.Block) string {
	return fmt.Sprintf("b%d", b.ID)
}
