package diag

import (
	"slices"
	"sync"
)

// Bag collects diagnostics. It is safe for concurrent use and only ever
// grows.
type Bag struct {
	mu     sync.Mutex
	diags  []*Diagnostic
	errors int
	warns  int
}

func (b *Bag) Add(d *Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diags = append(b.diags, d)
	switch d.Severity {
	case Error:
		b.errors++
	case Warning:
		b.warns++
	}
}

// AddAll appends ds in order.
func (b *Bag) AddAll(ds []*Diagnostic) {
	for _, d := range ds {
		b.Add(d)
	}
}

func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errors > 0
}

func (b *Bag) ErrorCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errors
}

func (b *Bag) WarningCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.warns
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.diags)
}

// Diagnostics returns a copy of the collected diagnostics in source order.
// Diagnostics at the same position keep the order in which they were added
// only when they were added by a single goroutine, so ties are broken by
// kind and message.
func (b *Bag) Diagnostics() []*Diagnostic {
	b.mu.Lock()
	out := slices.Clone(b.diags)
	b.mu.Unlock()
	slices.SortStableFunc(out, Compare)
	return out
}

// Compare orders diagnostics by position, then kind, then message.
func Compare(a, b *Diagnostic) int {
	if c := a.Span.Start.Compare(b.Span.Start); c != 0 {
		return c
	}
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	switch {
	case a.Msg < b.Msg:
		return -1
	case a.Msg > b.Msg:
		return +1
	}
	return 0
}

// Count returns the number of diagnostics of kind k.
func (b *Bag) Count(k Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, d := range b.diags {
		if d.Kind == k {
			n++
		}
	}
	return n
}
