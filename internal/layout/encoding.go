package layout

import (
	"go/constant"
	"math/big"
	"slices"
	"strings"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// Encoding holds the fixed bits of an instruction word. A word w encodes
// the instruction when w&Mask == Match.
type Encoding struct {
	Instr  *types.Instr
	Decl   *syntax.EncodingDecl
	Width  int
	Mask   *big.Int
	Match  *big.Int
	Fields []FieldValue // in declaration order
}

// FieldValue is the value an encoding gives a field, reduced to the
// field's width.
type FieldValue struct {
	Field *types.Field
	Value *big.Int
}

// Matches reports whether word encodes e's instruction.
func (e *Encoding) Matches(word *big.Int) bool {
	var x big.Int
	return x.And(word, e.Mask).Cmp(e.Match) == 0
}

// FixedBits returns the number of bits fixed by the encoding.
func (e *Encoding) FixedBits() int {
	n := 0
	for i := 0; i < e.Width; i++ {
		n += int(e.Mask.Bit(i))
	}
	return n
}

// Pattern renders the encoding most significant bit first, with '-' for
// bits the encoding leaves free.
func (e *Encoding) Pattern() string {
	var b strings.Builder
	for i := e.Width - 1; i >= 0; i-- {
		switch {
		case e.Mask.Bit(i) == 0:
			b.WriteByte('-')
		case e.Match.Bit(i) == 1:
			b.WriteByte('1')
		default:
			b.WriteByte('0')
		}
	}
	return b.String()
}

// encoding builds the mask and match of one encoding declaration. Names
// that do not denote fields and fields encoded twice were reported by
// the resolver and are skipped here.
func (v *validator) encoding(d *syntax.EncodingDecl) {
	instr, _ := v.info.Uses[d.Instr].(*types.Instr)
	if instr == nil || v.info.Encodings[instr] != d {
		return
	}
	f := instr.Format()
	if f == nil || !v.out.Placed[f] {
		return
	}

	enc := &Encoding{
		Instr: instr,
		Decl:  d,
		Width: f.Width(),
		Mask:  new(big.Int),
		Match: new(big.Int),
	}
	ok := true
	seen := make(map[*types.Field]bool)
	for _, ef := range d.Fields {
		fld, _ := v.info.Uses[ef.Field].(*types.Field)
		if fld == nil || seen[fld] {
			continue
		}
		seen[fld] = true
		tv, found := v.info.Types[ef.Value]
		if !found || tv.Value == nil || tv.Value.Kind() != constant.Int {
			ok = false
			continue
		}
		w := fld.Width()
		if !types.Representable(tv.Value, w) {
			v.report(diag.New(diag.WidthOutOfRange, ef.Value, "value %s does not fit in field %s of %d bits", tv.Value, fld.Name(), w))
			ok = false
			continue
		}
		val := bigInt(types.Wrap(tv.Value, w, false))
		lo, _, _ := fld.Range()

		var fieldMask, bits big.Int
		fieldMask.Lsh(fieldMask.Sub(fieldMask.Lsh(big.NewInt(1), uint(w)), big.NewInt(1)), uint(lo))
		bits.Lsh(val, uint(lo))
		var both big.Int
		both.And(enc.Mask, &fieldMask)
		if both.Sign() != 0 {
			var prev, next big.Int
			prev.And(enc.Match, &both)
			next.And(&bits, &both)
			if prev.Cmp(&next) != 0 {
				v.report(diag.New(diag.OverlappingFields, ef.Field, "encoding of %s gives conflicting values to overlapping field %s", instr.Name(), fld.Name()))
				ok = false
				continue
			}
		}
		enc.Mask.Or(enc.Mask, &fieldMask)
		enc.Match.Or(enc.Match, &bits)
		enc.Fields = append(enc.Fields, FieldValue{Field: fld, Value: val})
	}
	if !ok {
		return
	}
	v.out.Encodings[instr] = enc
	v.out.List = append(v.out.List, enc)
}

// ambiguous warns about instructions whose encodings cannot be told apart.
func (v *validator) ambiguous() {
	type key struct {
		width       int
		mask, match string
	}
	first := make(map[key]*Encoding)
	for _, enc := range v.out.List {
		k := key{enc.Width, enc.Mask.Text(16), enc.Match.Text(16)}
		prev := first[k]
		if prev == nil {
			first[k] = enc
			continue
		}
		v.report(diag.New(diag.AmbiguousEncoding, enc.Decl.Instr, "encoding of %s is identical to the encoding of %s", enc.Instr.Name(), prev.Instr.Name()).
			WithRelated(prev.Decl.Instr, "encoding of %s", prev.Instr.Name()))
	}
}

// missing warns about instructions that have no encoding declaration.
func (v *validator) missing(d *syntax.InstrDecl) {
	instr, _ := v.info.Defs[d.Name].(*types.Instr)
	if instr == nil || instr.Format() == nil {
		return
	}
	if v.info.Encodings[instr] == nil {
		v.report(diag.New(diag.MissingEncoding, d.Name, "instruction %s has no encoding", instr.Name()))
	}
}

func bigInt(v constant.Value) *big.Int {
	switch x := constant.Val(v).(type) {
	case int64:
		return big.NewInt(x)
	case *big.Int:
		return new(big.Int).Set(x)
	}
	panic("layout.bigInt: not an integer constant")
}

// DecodeOrder returns the encodings most specific first: by the number
// of fixed bits, then in declaration order.
func (info *Info) DecodeOrder() []*Encoding {
	order := slices.Clone(info.List)
	slices.SortStableFunc(order, func(a, b *Encoding) int { return b.FixedBits() - a.FixedBits() })
	return order
}
