// Package layout places the fields of every format at bit positions and
// validates the encodings of instructions against those positions.
package layout

import (
	"go/constant"
	"math/big"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
	"github.com/you-not-fish/adlc/internal/types2"
)

// Config configures validation.
type Config struct {
	// Error is called for each diagnostic. If nil, diagnostics are dropped.
	Error types2.ErrorHandler
}

// Info holds the results of validation.
type Info struct {
	// Placed holds the formats all of whose fields were given a bit range.
	Placed map[*types.Format]bool

	// Encodings maps each instruction with a valid encoding to it.
	Encodings map[*types.Instr]*Encoding

	// List holds the same encodings in declaration order.
	List []*Encoding
}

// Validate lays out the formats of file and builds the encoding of each
// instruction. It requires an Info filled by types2.Check and writes the
// bit range of each field back onto the field object. Diagnostics go to
// conf.Error; the first error by position is returned.
func Validate(file *syntax.File, conf *Config, info *types2.Info) (*Info, error) {
	if conf == nil {
		conf = &Config{}
	}
	v := &validator{
		conf: conf,
		info: info,
		out: &Info{
			Placed:    make(map[*types.Format]bool),
			Encodings: make(map[*types.Instr]*Encoding),
		},
	}
	for _, d := range file.Decls {
		if d, ok := d.(*syntax.FormatDecl); ok {
			v.format(d)
		}
	}
	for _, d := range file.Decls {
		if d, ok := d.(*syntax.EncodingDecl); ok {
			v.encoding(d)
		}
	}
	v.ambiguous()
	for _, d := range file.Decls {
		if d, ok := d.(*syntax.InstrDecl); ok {
			v.missing(d)
		}
	}
	if v.first == nil {
		return v.out, nil
	}
	return v.out, v.first
}

type validator struct {
	conf  *Config
	info  *types2.Info
	out   *Info
	first *diag.Diagnostic
}

func (v *validator) report(d *diag.Diagnostic) {
	if d.Severity == diag.Error && (v.first == nil || diag.Compare(d, v.first) < 0) {
		v.first = d
	}
	if v.conf.Error != nil {
		v.conf.Error(d)
	}
}

// field is a format field under layout.
type field struct {
	decl   *syntax.FormatField
	obj    *types.Field
	width  int
	lo, hi int
	placed bool
}

func (f *field) name() string { return f.obj.Name() }

// format lays out one format: explicit ranges are checked, overlaps
// between non-alias fields are reported once per pair, and the remaining
// fields are packed into the free bits from the most significant end.
func (v *validator) format(d *syntax.FormatDecl) {
	tn, _ := v.info.Defs[d.Name].(*types.TypeName)
	if tn == nil {
		return
	}
	f, _ := tn.Type().(*types.Format)
	if f == nil || f.Width() == 0 {
		return
	}
	w := f.Width()

	var fields []*field
	ok := true
	for _, fd := range d.Fields {
		obj, _ := v.info.Defs[fd.Name].(*types.Field)
		if obj == nil || f.Lookup(obj.Name()) != obj {
			continue // redeclared
		}
		if obj.Width() == 0 {
			ok = false
			continue
		}
		fld := &field{decl: fd, obj: obj, width: obj.Width()}
		if fd.Lo != nil && !v.explicit(f, fld) {
			ok = false
		}
		fields = append(fields, fld)
	}
	if !ok {
		return
	}

	sum := 0
	for _, fld := range fields {
		if !fld.obj.Alias() {
			sum += fld.width
		}
	}
	if sum != w {
		v.report(diag.New(diag.WidthMismatch, d.Name, "fields of format %s cover %d bits, format is %d bits", f, sum, w))
		return
	}

	if v.overlaps(fields) {
		return
	}
	if !v.pack(f, d, fields) {
		return
	}
	for _, fld := range fields {
		fld.obj.SetRange(fld.lo, fld.hi)
	}
	v.out.Placed[f] = true
}

// explicit reads and checks the explicit range of fld.
func (v *validator) explicit(f *types.Format, fld *field) bool {
	fd := fld.decl
	lo, ok1 := v.position(fd.Lo)
	hi, ok2 := v.position(fd.Hi)
	if !ok1 || !ok2 {
		return false
	}
	switch {
	case lo >= hi:
		v.report(diag.New(diag.WidthOutOfRange, fd, "empty range [%d, %d) for field %s", lo, hi, fld.name()))
		return false
	case lo < 0 || hi > int64(f.Width()):
		v.report(diag.New(diag.WidthOutOfRange, fd, "range [%d, %d) of field %s is outside format %s of %d bits", lo, hi, fld.name(), f, f.Width()))
		return false
	case hi-lo != int64(fld.width):
		v.report(diag.New(diag.WidthMismatch, fd, "field %s has %d bits, range [%d, %d) has %d", fld.name(), fld.width, lo, hi, hi-lo))
		return false
	}
	fld.lo, fld.hi = int(lo), int(hi)
	fld.placed = true
	return true
}

// position returns the constant value of a range bound recorded by the
// checker.
func (v *validator) position(e syntax.Expr) (int64, bool) {
	tv, ok := v.info.Types[e]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.Int {
		return 0, false
	}
	return constant.Int64Val(tv.Value)
}

// overlaps reports every pair of placed non-alias fields that share a
// bit, at the later field. It reports whether any pair did.
func (v *validator) overlaps(fields []*field) bool {
	found := false
	for j, b := range fields {
		if !b.placed || b.obj.Alias() {
			continue
		}
		for _, a := range fields[:j] {
			if !a.placed || a.obj.Alias() {
				continue
			}
			lo, hi := max(a.lo, b.lo), min(a.hi, b.hi)
			if lo >= hi {
				continue
			}
			found = true
			v.report(diag.New(diag.OverlappingFields, b.decl.Name, "field %s overlaps field %s at bits [%d, %d)", b.name(), a.name(), lo, hi).
				WithRelated(a.decl.Name, "field %s declared here", a.name()))
		}
	}
	return found
}

// pack places the unpositioned fields in declaration order, each directly
// below the previous one, skipping bits taken by explicitly placed fields.
// Aliases must be placed explicitly.
func (v *validator) pack(f *types.Format, d *syntax.FormatDecl, fields []*field) bool {
	used := new(big.Int)
	for _, fld := range fields {
		if fld.placed && !fld.obj.Alias() {
			setBits(used, fld.lo, fld.hi)
		}
	}

	top := f.Width()
	for _, fld := range fields {
		if fld.placed {
			continue
		}
		if fld.obj.Alias() {
			v.report(diag.New(diag.UnsatisfiableLayout, fld.decl, "alias %s of format %s needs an explicit range", fld.name(), f))
			return false
		}
		for top > 0 && used.Bit(top-1) == 1 {
			top--
		}
		lo := top - fld.width
		if lo < 0 || anyBits(used, lo, top) {
			v.report(diag.New(diag.UnsatisfiableLayout, fld.decl, "cannot place field %s of %d bits in format %s: no free run below bit %d", fld.name(), fld.width, f, top).
				WithRelated(d.Name, "format %s declared here", f))
			return false
		}
		fld.lo, fld.hi = lo, top
		fld.placed = true
		setBits(used, lo, top)
		top = lo
	}
	return true
}

func setBits(x *big.Int, lo, hi int) {
	for i := lo; i < hi; i++ {
		x.SetBit(x, i, 1)
	}
}

func anyBits(x *big.Int, lo, hi int) bool {
	for i := lo; i < hi; i++ {
		if x.Bit(i) == 1 {
			return true
		}
	}
	return false
}
