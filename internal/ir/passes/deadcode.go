package passes

import "github.com/you-not-fish/adlc/internal/ir"

// DeadCode removes pure values whose results are never used. Removing a
// value may leave its arguments unused, so it repeats until nothing
// changes. Writes to state are never removed.
func DeadCode(f *ir.Func) {
	for changed := true; changed; {
		changed = false
		for _, b := range f.Blocks {
			live := b.Values[:0]
			for _, v := range b.Values {
				if v.IsPure() && v.Uses == 0 {
					v.SetArgs(nil)
					v.Block = nil
					changed = true
					continue
				}
				live = append(live, v)
			}
			clear(b.Values[len(live):])
			b.Values = live
		}
	}
}
