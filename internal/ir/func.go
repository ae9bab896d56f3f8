package ir

import (
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// FuncKind says what a Func was lowered from.
type FuncKind int

const (
	FuncInstr      FuncKind = iota // instruction semantics; operands are OpField values
	FuncFunction                   // helper function; returns Controls[0] of its return block
	FuncRelocation                 // relocation; like a function
)

func (k FuncKind) String() string {
	switch k {
	case FuncInstr:
		return "instr"
	case FuncFunction:
		return "func"
	case FuncRelocation:
		return "reloc"
	}
	return "unknown"
}

// Func is the control flow graph of one instruction body, function or
// relocation.
type Func struct {
	Name string
	Kind FuncKind

	// Instr is set for FuncInstr; Sig for functions and relocations.
	Instr *types.Instr
	Sig   *types.Signature

	// Blocks is the list of basic blocks. Blocks[0] is always the entry block.
	Blocks []*Block
	Entry  *Block

	nextValueID ID
	nextBlockID ID
}

// NewFunc creates a function with an entry block.
func NewFunc(name string, kind FuncKind) *Func {
	f := &Func{Name: name, Kind: kind}
	f.Entry = f.NewBlock(BlockPlain)
	return f
}

// NewBlock creates a new basic block with the given kind and appends it to the function.
func (f *Func) NewBlock(kind BlockKind) *Block {
	b := &Block{
		ID:   f.nextBlockID,
		Kind: kind,
		Func: f,
	}
	f.nextBlockID++
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewValue creates a new Value in the given block.
func (f *Func) NewValue(b *Block, op Op, typ types.Type, args ...*Value) *Value {
	v := &Value{
		ID:    f.nextValueID,
		Op:    op,
		Type:  typ,
		Block: b,
	}
	f.nextValueID++
	for _, arg := range args {
		v.AddArg(arg)
	}
	b.Values = append(b.Values, v)
	return v
}

// NewValuePos creates a new Value with source position in the given block.
func (f *Func) NewValuePos(b *Block, op Op, typ types.Type, pos syntax.Pos, args ...*Value) *Value {
	v := f.NewValue(b, op, typ, args...)
	v.Pos = pos
	return v
}

// Result returns the result type of a function or relocation, and nil
// for an instruction.
func (f *Func) Result() types.Type {
	if f.Sig == nil {
		return nil
	}
	return f.Sig.Result()
}

func (f *Func) NumBlocks() int { return len(f.Blocks) }

// NumValues returns the total number of values across all blocks.
func (f *Func) NumValues() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Values)
	}
	return n
}

// Walk calls fn for every value in block order.
func (f *Func) Walk(fn func(v *Value)) {
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			fn(v)
		}
	}
}
