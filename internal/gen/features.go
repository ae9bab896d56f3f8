package gen

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/ir"
	"github.com/you-not-fish/adlc/internal/syntax"
)

// Feature is an IR construct a target may not be able to generate.
type Feature uint32

const (
	FeatWideValue         Feature = 1 << iota // a value, register or memory element wider than 64 bits
	FeatWideFormat                            // an instruction format wider than 64 bits
	FeatLargeRegisterFile                     // a register file indexed by more than 16 bits
	FeatWideAddress                           // a memory address wider than 64 bits
	FeatDivision                              // division or remainder

	featEnd
)

var featureNames = map[Feature]string{
	FeatWideValue:         "values wider than 64 bits",
	FeatWideFormat:        "formats wider than 64 bits",
	FeatLargeRegisterFile: "register files indexed by more than 16 bits",
	FeatWideAddress:       "addresses wider than 64 bits",
	FeatDivision:          "division",
}

func (f Feature) String() string {
	if s, ok := featureNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Feature(%#x)", uint32(f))
}

// Features is a set of features.
type Features Feature

func (s Features) Has(f Feature) bool { return Feature(s)&f != 0 }

func (s Features) String() string {
	var names []string
	for f := Feature(1); f < featEnd; f <<= 1 {
		if s.Has(f) {
			names = append(names, f.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// Use is one occurrence of a feature in a program.
type Use struct {
	Feature Feature
	Pos     syntax.Pos
	What    string
}

// Scan lists the features p uses, in declaration order. Each body
// reports a feature at most once.
func Scan(p *ir.Program) []Use {
	var uses []Use
	add := func(f Feature, pos syntax.Pos, format string, args ...any) {
		uses = append(uses, Use{Feature: f, Pos: pos, What: fmt.Sprintf(format, args...)})
	}

	for _, f := range p.Formats {
		if f.Width > 64 {
			add(FeatWideFormat, f.Obj.Obj().Pos(), "format %s has %d bits", f.Name, f.Width)
		}
	}
	for _, r := range p.Registers {
		if r.Width > 64 {
			add(FeatWideValue, r.Obj.Pos(), "register %s has %d bits", r.Name, r.Width)
		}
		if r.File && r.IndexWidth > 16 {
			add(FeatLargeRegisterFile, r.Obj.Pos(), "register file %s is indexed by %d bits", r.Name, r.IndexWidth)
		}
	}
	for _, m := range p.Memories {
		if m.Width > 64 {
			add(FeatWideValue, m.Obj.Pos(), "memory %s has elements of %d bits", m.Name, m.Width)
		}
		if m.AddrWidth > 64 {
			add(FeatWideAddress, m.Obj.Pos(), "memory %s has addresses of %d bits", m.Name, m.AddrWidth)
		}
	}

	for _, fn := range p.Bodies() {
		var seen Features
		fn.Walk(func(v *ir.Value) {
			var f Feature
			switch {
			case v.Width() > 64:
				f = FeatWideValue
			case v.Op == ir.OpDiv || v.Op == ir.OpDivS || v.Op == ir.OpMod || v.Op == ir.OpModS:
				f = FeatDivision
			default:
				return
			}
			if seen.Has(f) {
				return
			}
			seen |= Features(f)
			if f == FeatWideValue {
				add(f, v.Pos, "%s computes a value of %d bits", fn.Name, v.Width())
			} else {
				add(f, v.Pos, "%s divides", fn.Name)
			}
		})
	}
	return uses
}

// checkFeatures reports every use of a feature t does not support and
// returns whether there was any.
func checkFeatures(t Target, uses []Use, bag *diag.Bag) bool {
	bad := false
	for _, u := range uses {
		if !t.Unsupported().Has(u.Feature) {
			continue
		}
		bad = true
		bag.Add(diag.NewAt(diag.UnsupportedConstruct, syntax.Span{Start: u.Pos, End: u.Pos},
			"target %s does not support %s: %s", t.Name(), u.Feature, u.What))
	}
	return bad
}
