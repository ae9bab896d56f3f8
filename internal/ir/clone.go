package ir

// Clone returns a deep copy of f. Values and blocks keep their IDs;
// types, aux data and positions are shared. Passes run on a clone leave
// the original untouched.
func Clone(f *Func) *Func {
	g := &Func{
		Name:        f.Name,
		Kind:        f.Kind,
		Instr:       f.Instr,
		Sig:         f.Sig,
		nextValueID: f.nextValueID,
		nextBlockID: f.nextBlockID,
	}

	blocks := make(map[*Block]*Block, len(f.Blocks))
	values := make(map[*Value]*Value, f.NumValues())
	for _, b := range f.Blocks {
		nb := &Block{ID: b.ID, Kind: b.Kind, Func: g}
		blocks[b] = nb
		g.Blocks = append(g.Blocks, nb)
		for _, v := range b.Values {
			nv := &Value{
				ID:     v.ID,
				Op:     v.Op,
				Type:   v.Type,
				Block:  nb,
				AuxInt: v.AuxInt,
				Aux:    v.Aux,
				Uses:   v.Uses,
				Pos:    v.Pos,
			}
			values[v] = nv
			nb.Values = append(nb.Values, nv)
		}
	}
	g.Entry = blocks[f.Entry]

	for _, b := range f.Blocks {
		nb := blocks[b]
		for i, v := range b.Values {
			nv := nb.Values[i]
			if len(v.Args) > 0 {
				nv.Args = make([]*Value, len(v.Args))
				for j, a := range v.Args {
					nv.Args[j] = values[a]
				}
			}
		}
		for _, c := range b.Controls {
			nb.Controls = append(nb.Controls, values[c])
		}
		for _, s := range b.Succs {
			nb.Succs = append(nb.Succs, blocks[s])
		}
		for _, p := range b.Preds {
			nb.Preds = append(nb.Preds, blocks[p])
		}
	}
	return g
}
