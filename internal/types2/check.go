package types2

import (
	"errors"
	"fmt"
	"go/constant"
	"maps"
	"runtime"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

type declState uint8

const (
	unchecked declState = iota
	checking
	done
)

// Checker holds the state of a type checking run. Declarations are
// checked sequentially; function and instruction bodies are then checked
// by forked checkers in parallel.
type Checker struct {
	conf *Config
	info *Info
	tree *types.ScopeTree
	errs *reporter

	// state is only written while declarations are checked.
	state map[types.Object]declState

	// results of the current checker; a fork records into private maps
	// that are merged once all bodies are done
	types map[syntax.Expr]TypeAndValue
	uses  map[*syntax.Name]types.Object

	// let-bound untyped constants of the body being checked
	consts map[*types.Var]constant.Value
}

// NewChecker returns a checker for an Info filled by Resolve.
func NewChecker(conf *Config, info *Info) *Checker {
	return &Checker{
		conf:  conf,
		info:  info,
		tree:  info.Tree,
		errs:  newReporter(conf.Error),
		state: make(map[types.Object]declState),
		types: info.Types,
		uses:  info.Uses,
	}
}

// fork returns a checker for one body.
func (c *Checker) fork() *Checker {
	return &Checker{
		conf:   c.conf,
		info:   c.info,
		tree:   c.tree,
		errs:   c.errs,
		state:  c.state,
		types:  make(map[syntax.Expr]TypeAndValue),
		uses:   make(map[*syntax.Name]types.Object),
		consts: make(map[*types.Var]constant.Value),
	}
}

// Files checks file, which must have been resolved into c's Info.
func (c *Checker) Files(file *syntax.File) error {
	if c.info.Global == types.NoScope || c.tree == nil {
		return errors.New("types2: Check called before Resolve")
	}

	for _, d := range file.Decls {
		c.topDecl(d)
	}
	c.bodies(file)

	return c.errs.first()
}

// ErrorCount returns the number of errors reported so far.
func (c *Checker) ErrorCount() int { return c.errs.count() }

func (c *Checker) workers() int {
	if c.conf.Workers > 0 {
		return c.conf.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// bodies checks every function and instruction body with a bounded pool
// of forked checkers.
func (c *Checker) bodies(file *syntax.File) {
	var forks []*Checker
	g := new(errgroup.Group)
	g.SetLimit(c.workers())

	for _, d := range file.Decls {
		var name *syntax.Name
		switch d := d.(type) {
		case *syntax.FuncDecl:
			name = d.Name
		case *syntax.InstrDecl:
			name = d.Name
		default:
			continue
		}
		w := c.fork()
		forks = append(forks, w)
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("checking %s: %v\n%s", name.Value, p, debug.Stack())
				}
			}()
			w.body(d)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// invariant violation in a worker; re-raise on the caller's goroutine
		panic(err)
	}

	// merged in declaration order so the maps are the same on every run
	for _, w := range forks {
		maps.Copy(c.types, w.types)
		maps.Copy(c.uses, w.uses)
	}
}

func (c *Checker) body(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.FuncDecl:
		c.funcBody(d)
	case *syntax.InstrDecl:
		if d.Body != nil {
			c.stmtList(d.Body.Stmts)
		}
	}
}

// record stores the type and value of e.
func (c *Checker) record(x *operand) {
	if x.expr == nil {
		return
	}
	tv := TypeAndValue{Type: x.typ, mode: x.mode}
	if x.mode == constant_ {
		tv.Value = x.val
	}
	if x.mode == invalid {
		tv.Type = types.Typ[types.Invalid]
	}
	c.types[x.expr] = tv
}

// recordConverted updates the recorded type of an untyped constant
// expression that was given type t by its context. Parenthesized
// operands are updated too.
func (c *Checker) recordConverted(e syntax.Expr, t types.Type, val constant.Value) {
	for {
		tv, ok := c.types[e]
		if !ok {
			return
		}
		tv.Type = t
		tv.Value = val
		c.types[e] = tv
		p, ok := e.(*syntax.ParenExpr)
		if !ok {
			return
		}
		e = p.X
	}
}
