package ir

import (
	"fmt"

	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
	"github.com/you-not-fish/adlc/internal/types2"
)

// builder holds the state for lowering one body from the checked AST.
type builder struct {
	info *types2.Info // read-only

	fn *Func
	b  *Block // current block

	// vars maps parameters, let-bound names and operand fields to their
	// values.
	vars map[types.Object]*Value
}

func newBuilder(info *types2.Info, fn *Func) *builder {
	return &builder{
		info: info,
		fn:   fn,
		b:    fn.Entry,
		vars: make(map[types.Object]*Value),
	}
}

// BuildInstr lowers the semantics of an instruction. Every operand
// field of the format is read once in the entry block.
func BuildInstr(d *syntax.InstrDecl, info *types2.Info) *Func {
	instr, ok := info.Defs[d.Name].(*types.Instr)
	if !ok || instr.Format() == nil {
		panic(fmt.Sprintf("ir.BuildInstr: no format for instruction %s", d.Name.Value))
	}
	fn := NewFunc(d.Name.Value, FuncInstr)
	fn.Instr = instr

	b := newBuilder(info, fn)
	for _, fld := range instr.Format().Fields() {
		if fld.Ignore() {
			continue
		}
		v := fn.NewValuePos(fn.Entry, OpField, fld.Type(), fld.Pos())
		v.Aux = fld
		b.vars[fld] = v
	}

	if d.Body != nil {
		b.stmts(d.Body.Stmts)
	}
	b.b.Kind = BlockReturn
	return fn
}

// BuildFunc lowers a function or relocation. Its body is a single
// expression, so the result is one block.
func BuildFunc(d *syntax.FuncDecl, info *types2.Info) *Func {
	obj, ok := info.Defs[d.Name].(*types.Func)
	if !ok || obj.Signature() == nil {
		panic(fmt.Sprintf("ir.BuildFunc: no signature for %s", d.Name.Value))
	}
	kind := FuncFunction
	if obj.IsRelocation() {
		kind = FuncRelocation
	}
	fn := NewFunc(d.Name.Value, kind)
	fn.Sig = obj.Signature()

	b := newBuilder(info, fn)
	for i, p := range fn.Sig.Params() {
		v := fn.NewValuePos(fn.Entry, OpArg, p.Type(), p.Pos())
		v.AuxInt = int64(i)
		v.Aux = p.Name()
		b.vars[p] = v
	}

	res := b.convert(b.expr(d.Body), fn.Sig.Result(), d.Body.Pos())
	b.b.Kind = BlockReturn
	b.b.SetControl(res)
	return fn
}

func (b *builder) stmts(list []syntax.Stmt) {
	for _, s := range list {
		b.stmt(s)
	}
}

func (b *builder) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.EmptyStmt:
		// no-op

	case *syntax.BlockStmt:
		b.stmts(s.Stmts)

	case *syntax.LetStmt:
		obj := b.info.Defs[s.Name]
		if obj == nil {
			panic(fmt.Sprintf("ir.builder.stmt: no object for let %s", s.Name.Value))
		}
		if tv := b.info.Types[s.Value]; tv.IsConstant() && types.IsUntyped(tv.Type) {
			// uses of the name were checked as constants
			return
		}
		b.vars[obj] = b.expr(s.Value)

	case *syntax.AssignStmt:
		b.assignStmt(s)

	case *syntax.IfStmt:
		b.ifStmt(s)

	default:
		panic(fmt.Sprintf("ir.builder.stmt: unhandled %T", s))
	}
}

// assignStmt evaluates the location first, then the value, then writes.
func (b *builder) assignStmt(s *syntax.AssignStmt) {
	lv := b.lvalue(s.LHS)
	val := b.convert(b.expr(s.RHS), lv.typ, s.RHS.Pos())
	b.store(lv, val, s.Pos())
}

// ifStmt lowers if cond { then } [else { ... }]. Both branches always
// reach the join block because bodies have no early exit.
func (b *builder) ifStmt(s *syntax.IfStmt) {
	cond := b.cond(s.Cond)

	bThen := b.fn.NewBlock(BlockPlain)
	var bElse *Block
	if s.Else != nil {
		bElse = b.fn.NewBlock(BlockPlain)
	}
	bDone := b.fn.NewBlock(BlockPlain)
	if bElse == nil {
		bElse = bDone
	}

	b.b.Kind = BlockIf
	b.b.SetControl(cond)
	b.b.AddSucc(bThen)
	b.b.AddSucc(bElse)

	b.b = bThen
	if s.Then != nil {
		b.stmts(s.Then.Stmts)
	}
	b.b.AddSucc(bDone)

	if s.Else != nil {
		b.b = bElse
		b.stmt(s.Else)
		b.b.AddSucc(bDone)
	}

	b.b = bDone
}

// ----------------------------------------------------------------------------
// Locations

// lvalue is a writable location: a register, an element of a register
// file or memory, or a field of another location.
type lvalue struct {
	reg   *types.Reg
	mem   *types.Mem
	index *Value // register file index or memory address

	base  *lvalue
	field *types.Field

	typ types.Type
	pos syntax.Pos
}

func (b *builder) lvalue(e syntax.Expr) *lvalue {
	switch e := unparen(e).(type) {
	case *syntax.Name:
		reg, ok := b.info.Uses[e].(*types.Reg)
		if !ok || reg.IsFile() {
			panic(fmt.Sprintf("ir.builder.lvalue: %s is not a register", e.Value))
		}
		return &lvalue{reg: reg, typ: reg.Type(), pos: e.Pos()}

	case *syntax.CallExpr:
		return b.lvalueAccess(b.callee(e.Fun), e)

	case *syntax.SelectorExpr:
		base := b.lvalue(e.X)
		fld, ok := b.info.Uses[e.Sel].(*types.Field)
		if !ok {
			panic(fmt.Sprintf("ir.builder.lvalue: %s is not a field", e.Sel.Value))
		}
		return &lvalue{base: base, field: fld, typ: fld.Type(), pos: e.Pos()}
	}
	panic(fmt.Sprintf("ir.builder.lvalue: unhandled %T", e))
}

// load reads the current value of a location.
func (b *builder) load(lv *lvalue) *Value {
	switch {
	case lv.base != nil:
		return b.extract(b.load(lv.base), lv.field, lv.pos)
	case lv.mem != nil:
		v := b.fn.NewValuePos(b.b, OpMem, lv.typ, lv.pos, lv.index)
		v.Aux = lv.mem
		return v
	case lv.index != nil:
		v := b.fn.NewValuePos(b.b, OpRegFile, lv.typ, lv.pos, lv.index)
		v.Aux = lv.reg
		return v
	default:
		v := b.fn.NewValuePos(b.b, OpReg, lv.typ, lv.pos)
		v.Aux = lv.reg
		return v
	}
}

// store writes val to a location. A field write reads the enclosing
// location, inserts the field and writes the whole value back.
func (b *builder) store(lv *lvalue, val *Value, pos syntax.Pos) {
	switch {
	case lv.base != nil:
		old := b.load(lv.base)
		lo, _, _ := lv.field.Range()
		ins := b.fn.NewValuePos(b.b, OpInsert, lv.base.typ, pos, old, val)
		ins.Aux = lv.field
		ins.AuxInt = int64(lo)
		b.store(lv.base, ins, pos)
	case lv.mem != nil:
		v := b.fn.NewValuePos(b.b, OpSetMem, nil, pos, lv.index, val)
		v.Aux = lv.mem
	case lv.index != nil:
		v := b.fn.NewValuePos(b.b, OpSetRegFile, nil, pos, lv.index, val)
		v.Aux = lv.reg
	default:
		v := b.fn.NewValuePos(b.b, OpSetReg, nil, pos, val)
		v.Aux = lv.reg
	}
}

// callee returns the object a call or access refers to.
func (b *builder) callee(fun syntax.Expr) types.Object {
	name, ok := unparen(fun).(*syntax.Name)
	if !ok {
		panic(fmt.Sprintf("ir.builder.callee: unhandled %T", fun))
	}
	return b.info.Uses[name]
}

func unparen(e syntax.Expr) syntax.Expr {
	for {
		p, ok := e.(*syntax.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}
