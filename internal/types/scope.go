package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/you-not-fish/adlc/internal/syntax"
)

// ScopeID addresses a scope in a ScopeTree.
type ScopeID int32

const (
	NoScope       ScopeID = -1
	UniverseScope ScopeID = 0
)

type scope struct {
	parent   ScopeID
	children []ScopeID
	elems    map[string]Object
	pos, end syntax.Pos
	comment  string
}

// ScopeTree is an arena of scopes. Scopes refer to their parent by index,
// and scope 0 is the shared universe.
type ScopeTree struct {
	scopes []scope
}

// NewScopeTree returns a tree holding only the universe scope.
func NewScopeTree() *ScopeTree {
	return &ScopeTree{scopes: []scope{universe}}
}

// New creates a child of parent and returns its id.
func (t *ScopeTree) New(parent ScopeID, pos, end syntax.Pos, comment string) ScopeID {
	id := ScopeID(len(t.scopes))
	t.scopes = append(t.scopes, scope{
		parent:  parent,
		elems:   make(map[string]Object),
		pos:     pos,
		end:     end,
		comment: comment,
	})
	if parent != NoScope {
		p := &t.scopes[parent]
		p.children = append(p.children, id)
	}
	return id
}

func (t *ScopeTree) Len() int                      { return len(t.scopes) }
func (t *ScopeTree) Parent(id ScopeID) ScopeID     { return t.scopes[id].parent }
func (t *ScopeTree) Children(id ScopeID) []ScopeID { return t.scopes[id].children }
func (t *ScopeTree) Comment(id ScopeID) string     { return t.scopes[id].comment }
func (t *ScopeTree) NumObjects(id ScopeID) int     { return len(t.scopes[id].elems) }

// Lookup returns the object called name declared directly in id.
func (t *ScopeTree) Lookup(id ScopeID, name string) Object {
	return t.scopes[id].elems[name]
}

// LookupParent searches id and then its ancestors for name. It returns the
// object and the scope it was found in, or (nil, NoScope).
func (t *ScopeTree) LookupParent(id ScopeID, name string) (Object, ScopeID) {
	for s := id; s != NoScope; s = t.scopes[s].parent {
		if obj := t.scopes[s].elems[name]; obj != nil {
			return obj, s
		}
	}
	return nil, NoScope
}

// Insert declares obj in id. If the name is already declared there, the
// existing object is returned and obj is not inserted.
func (t *ScopeTree) Insert(id ScopeID, obj Object) Object {
	if id == UniverseScope {
		panic("types.ScopeTree.Insert: universe is read-only")
	}
	s := &t.scopes[id]
	if prev := s.elems[obj.Name()]; prev != nil {
		return prev
	}
	s.elems[obj.Name()] = obj
	obj.setParent(id)
	return nil
}

// Names returns the names declared in id, sorted.
func (t *ScopeTree) Names(id ScopeID) []string {
	names := make([]string, 0, len(t.scopes[id].elems))
	for name := range t.scopes[id].elems {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// String dumps the tree below the universe.
func (t *ScopeTree) String() string {
	var b strings.Builder
	for _, c := range t.scopes[UniverseScope].children {
		t.write(&b, c, 0)
	}
	for id := ScopeID(1); int(id) < len(t.scopes); id++ {
		if t.scopes[id].parent == NoScope {
			t.write(&b, id, 0)
		}
	}
	return b.String()
}

func (t *ScopeTree) write(b *strings.Builder, id ScopeID, indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(b, "%sscope %d %s {\n", prefix, id, t.scopes[id].comment)
	for _, name := range t.Names(id) {
		obj := t.scopes[id].elems[name]
		fmt.Fprintf(b, "%s  %s %s: %v\n", prefix, ObjectKind(obj), name, obj.Type())
	}
	for _, c := range t.scopes[id].children {
		t.write(b, c, indent+1)
	}
	fmt.Fprintf(b, "%s}\n", prefix)
}
