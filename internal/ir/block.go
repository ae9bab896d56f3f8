package ir

import "fmt"

// BlockKind describes how a basic block terminates.
type BlockKind int

const (
	BlockInvalid BlockKind = iota
	BlockPlain             // unconditional jump to Succs[0]
	BlockIf                // if Controls[0] then Succs[0] else Succs[1]
	BlockReturn            // end of the body; Controls[0] is the result of a function
)

var blockKindNames = [...]string{
	BlockInvalid: "invalid",
	BlockPlain:   "plain",
	BlockIf:      "if",
	BlockReturn:  "ret",
}

func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "unknown"
}

// Block is a basic block: a sequence of values in execution order
// followed by a terminator given by Kind.
type Block struct {
	ID   ID
	Kind BlockKind

	// Controls holds the terminator's operands: the branch condition of
	// a BlockIf, or the result of a function's BlockReturn.
	Controls []*Value

	// Succs lists the successors. For BlockIf, Succs[0] is taken when
	// the condition holds.
	Succs []*Block
	Preds []*Block

	Values []*Value
	Func   *Func

	// Dominator tree, filled by ComputeDom.
	Idom     *Block
	Dominees []*Block
}

func (b *Block) String() string {
	return fmt.Sprintf("b%d", b.ID)
}

// AddSucc adds a successor block, updating both Succs and the successor's Preds.
func (b *Block) AddSucc(succ *Block) {
	b.Succs = append(b.Succs, succ)
	succ.Preds = append(succ.Preds, b)
}

// SetControl sets the branch condition or result value.
func (b *Block) SetControl(v *Value) {
	for _, old := range b.Controls {
		if old != nil {
			old.Uses--
		}
	}
	b.Controls = []*Value{v}
	if v != nil {
		v.Uses++
	}
}

func (b *Block) NumSuccs() int  { return len(b.Succs) }
func (b *Block) NumPreds() int  { return len(b.Preds) }
func (b *Block) NumValues() int { return len(b.Values) }
