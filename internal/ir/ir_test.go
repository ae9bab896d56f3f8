package ir

import (
	"go/constant"
	"strings"
	"testing"

	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// nopos is the zero position for convenience in tests.
var nopos syntax.Pos

var byte8 = types.NewBits(8, false)

// makeAddFunc builds: function add(x: Bits<8>, y: Bits<8>) -> Bits<8> = x + y
func makeAddFunc() *Func {
	f := NewFunc("add", FuncFunction)
	f.Sig = types.NewSignature([]*types.Var{
		types.NewParam(nopos, "x", byte8),
		types.NewParam(nopos, "y", byte8),
	}, byte8)
	entry := f.Entry

	// v0 = Arg <Bits<8>> [0] {x}
	v0 := f.NewValue(entry, OpArg, byte8)
	v0.Aux = "x"

	// v1 = Arg <Bits<8>> [1] {y}
	v1 := f.NewValue(entry, OpArg, byte8)
	v1.AuxInt = 1
	v1.Aux = "y"

	// v2 = Add <Bits<8>> v0 v1
	v2 := f.NewValue(entry, OpAdd, byte8, v0, v1)

	entry.Kind = BlockReturn
	entry.SetControl(v2)
	return f
}

func TestManualConstruct(t *testing.T) {
	f := makeAddFunc()

	if f.NumBlocks() != 1 {
		t.Errorf("NumBlocks = %d, want 1", f.NumBlocks())
	}
	if f.NumValues() != 3 {
		t.Errorf("NumValues = %d, want 3", f.NumValues())
	}
	add := f.Entry.Values[2]
	if add.Uses != 1 || f.Entry.Values[0].Uses != 1 {
		t.Errorf("uses: add=%d x=%d, want 1 and 1", add.Uses, f.Entry.Values[0].Uses)
	}
	if err := VerifyDom(f); err != nil {
		t.Fatalf("VerifyDom: %v", err)
	}
}

func TestPrint(t *testing.T) {
	got := Sprint(makeAddFunc())
	for _, want := range []string{
		"func add(x Bits<8>, y Bits<8>) Bits<8>:",
		"  b0: (entry)",
		"    v0 = Arg <Bits<8>> [0] {x}",
		"    v2 = Add <Bits<8>> v0 v1",
		"    Return v2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintBranches(t *testing.T) {
	f := NewFunc("f", FuncInstr)
	b0 := f.Entry
	b1 := f.NewBlock(BlockPlain)
	b2 := f.NewBlock(BlockReturn)

	c := f.NewValue(b0, OpConstBool, types.Typ[types.Bool])
	c.AuxInt = 1
	k := f.NewValue(b1, OpConst, byte8)
	k.Aux = constant.MakeInt64(42)

	b0.Kind = BlockIf
	b0.SetControl(c)
	b0.AddSucc(b1)
	b0.AddSucc(b2)
	b1.AddSucc(b2)

	got := Sprint(f)
	for _, want := range []string{
		"instr f:",
		"v0 = ConstBool <Bool> [1]",
		"If v0 -> b1 b2",
		"v1 = Const <Bits<8>> {42}",
		"Plain -> b2",
		"b2: <- b0 b1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestVerifyErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Func)
		want   string
	}{
		{
			"use count",
			func(f *Func) { f.Entry.Values[0].Uses = 5 },
			"use count is 5, want 1",
		},
		{
			"operand width",
			func(f *Func) { f.Entry.Values[1].Type = types.NewBits(16, false) },
			"operands of 8 and 16 bits for a result of 8",
		},
		{
			"missing result",
			func(f *Func) { f.Entry.Controls = nil; f.Entry.Values[2].Uses = 0 },
			"missing result",
		},
		{
			"arg count",
			func(f *Func) { f.Entry.Values[2].Args = f.Entry.Values[2].Args[:1]; f.Entry.Values[1].Uses = 0 },
			"has 1 args, want 2",
		},
		{
			"plain without successor",
			func(f *Func) { f.Entry.Kind = BlockPlain },
			"plain block has 0 succs, want 1",
		},
		{
			"constant overflow",
			func(f *Func) {
				k := f.NewValue(f.Entry, OpConst, byte8)
				k.Aux = constant.MakeInt64(300)
			},
			"constant 300 does not fit Bits<8>",
		},
		{
			"void with type",
			func(f *Func) {
				r := types.NewReg(nopos, "R")
				r.SetType(byte8)
				v := f.NewValue(f.Entry, OpSetReg, byte8, f.Entry.Values[2])
				v.Aux = r
			},
			"void value has type Bits<8>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := makeAddFunc()
			tt.mutate(f)
			err := Verify(f)
			if err == nil {
				t.Fatalf("Verify succeeded, want error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestVerifyDomOrder(t *testing.T) {
	f := makeAddFunc()
	// move the add before its operands
	vals := f.Entry.Values
	vals[0], vals[2] = vals[2], vals[0]

	err := VerifyDom(f)
	if err == nil || !strings.Contains(err.Error(), "(same block)") {
		t.Errorf("VerifyDom = %v, want a same-block ordering error", err)
	}
}

func TestVerifyDomBranch(t *testing.T) {
	f := NewFunc("f", FuncInstr)
	b0 := f.Entry
	b1 := f.NewBlock(BlockPlain)
	b2 := f.NewBlock(BlockPlain)
	b3 := f.NewBlock(BlockReturn)

	c := f.NewValue(b0, OpConstBool, types.Typ[types.Bool])
	b0.Kind = BlockIf
	b0.SetControl(c)
	b0.AddSucc(b1)
	b0.AddSucc(b2)
	b1.AddSucc(b3)
	b2.AddSucc(b3)

	// defined in one arm, used after the join
	k := f.NewValue(b1, OpConst, byte8)
	k.Aux = constant.MakeInt64(1)
	f.NewValue(b3, OpNeg, byte8, k)

	err := VerifyDom(f)
	if err == nil || !strings.Contains(err.Error(), "which does not dominate b3") {
		t.Errorf("VerifyDom = %v, want a dominance error", err)
	}
}

func TestDomDiamond(t *testing.T) {
	f := NewFunc("f", FuncInstr)
	b0 := f.Entry
	b1 := f.NewBlock(BlockPlain)
	b2 := f.NewBlock(BlockPlain)
	b3 := f.NewBlock(BlockReturn)

	b0.AddSucc(b1)
	b0.AddSucc(b2)
	b1.AddSucc(b3)
	b2.AddSucc(b3)

	ComputeDom(f)

	if b0.Idom != nil {
		t.Errorf("b0.Idom = %v, want nil", b0.Idom)
	}
	for _, b := range []*Block{b1, b2, b3} {
		if b.Idom != b0 {
			t.Errorf("%s.Idom = %v, want b0", b, b.Idom)
		}
	}
	if len(b0.Dominees) != 3 {
		t.Errorf("b0 has %d dominees, want 3", len(b0.Dominees))
	}
	if !Dominates(b0, b3) || Dominates(b1, b3) {
		t.Error("b0 must dominate b3 and b1 must not")
	}

	// recomputing does not accumulate dominees
	ComputeDom(f)
	if len(b0.Dominees) != 3 {
		t.Errorf("after recompute b0 has %d dominees, want 3", len(b0.Dominees))
	}

	rpo := ReversePostOrder(f)
	if len(rpo) != 4 || rpo[0] != b0 || rpo[3] != b3 {
		t.Errorf("reverse post-order = %v, want b0 first and b3 last", rpo)
	}
}

func TestClone(t *testing.T) {
	f := makeAddFunc()
	g := Clone(f)

	if Sprint(f) != Sprint(g) {
		t.Fatalf("clone prints differently:\n%s\nvs\n%s", Sprint(f), Sprint(g))
	}
	if err := VerifyDom(g); err != nil {
		t.Fatalf("VerifyDom(clone): %v", err)
	}
	if g.Entry.Values[2].Args[0] != g.Entry.Values[0] {
		t.Error("clone args point into the original")
	}

	// editing the clone leaves the original alone
	g.Entry.Values[2].Op = OpSub
	if f.Entry.Values[2].Op != OpAdd {
		t.Error("editing the clone changed the original")
	}
	v := g.NewValue(g.Entry, OpConst, byte8)
	v.Aux = constant.MakeInt64(0)
	if v.ID != 3 || f.NumValues() != 3 {
		t.Errorf("new clone value has ID %d; original has %d values", v.ID, f.NumValues())
	}
}

func TestOpInfo(t *testing.T) {
	for op := OpInvalid + 1; op < opCount; op++ {
		if op.String() == "" {
			t.Errorf("op %d has no name", op)
		}
		if op.IsVoid() && op.IsPure() {
			t.Errorf("%s is both void and pure", op)
		}
	}
	if !OpSetMem.IsVoid() || OpMem.IsVoid() {
		t.Error("only writes are void")
	}
	if !OpLtS.IsCompare() || OpAdd.IsCompare() {
		t.Error("IsCompare mismatch")
	}
}
