package types2

import (
	"strings"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// resolver builds the scope tree and binds names.
type resolver struct {
	conf *Config
	info *Info
	tree *types.ScopeTree
	errs *reporter

	global types.ScopeID
	scope  types.ScopeID

	// decl is the top-level constant, type, format or function whose
	// declaration is being resolved. References from it to other
	// top-level objects are dependency edges.
	decl  types.Object
	order []types.Object
	deps  map[types.Object][]dependency

	formats map[*types.TypeName]types.ScopeID
	instrs  map[*types.Instr]types.ScopeID // instruction -> its format scope
}

type dependency struct {
	obj  types.Object
	name *syntax.Name // the referencing identifier
}

func newResolver(conf *Config, info *Info) *resolver {
	if info.Tree == nil {
		info.Tree = types.NewScopeTree()
	}
	return &resolver{
		conf:    conf,
		info:    info,
		tree:    info.Tree,
		errs:    newReporter(conf.Error),
		global:  types.NoScope,
		deps:    make(map[types.Object][]dependency),
		formats: make(map[*types.TypeName]types.ScopeID),
		instrs:  make(map[*types.Instr]types.ScopeID),
	}
}

func (r *resolver) resolveFile(file *syntax.File) {
	comment := "global"
	if file.Name != nil {
		comment = "isa " + file.Name.Value
	}
	r.global = r.tree.New(types.UniverseScope, file.Pos(), file.End(), comment)
	r.info.Global = r.global
	r.info.Scopes[file] = r.global
	r.scope = r.global

	r.collectObjects(file)

	// Encodings and assemblies refer to instructions and the fields of
	// their formats, so they are resolved after everything else.
	var late []syntax.Decl
	for _, d := range file.Decls {
		switch d.(type) {
		case *syntax.EncodingDecl, *syntax.AssemblyDecl:
			late = append(late, d)
		default:
			r.resolveDecl(d)
		}
	}
	for _, d := range late {
		r.resolveDecl(d)
	}

	r.findCycles()
}

// collectObjects declares every top-level object and every format field.
func (r *resolver) collectObjects(file *syntax.File) {
	for _, d := range file.Decls {
		switch d := d.(type) {
		case *syntax.ConstDecl:
			r.declareGlobal(d, d.Name, types.NewConst(d.Name.Pos(), d.Name.Value))

		case *syntax.UsingDecl:
			r.declareGlobal(d, d.Name, types.NewTypeName(d.Name.Pos(), d.Name.Value, nil))

		case *syntax.FormatDecl:
			obj := types.NewTypeName(d.Name.Pos(), d.Name.Value, nil)
			r.declareGlobal(d, d.Name, obj)
			s := r.tree.New(r.global, d.Pos(), d.Rbrace, "format "+d.Name.Value)
			r.info.Scopes[d] = s
			r.formats[obj] = s
			for _, f := range d.Fields {
				r.declare(s, f.Name, types.NewField(f.Name.Pos(), f.Name.Value, f.Mod))
			}

		case *syntax.RegisterDecl:
			r.declareGlobal(d, d.Name, types.NewReg(d.Name.Pos(), d.Name.Value))

		case *syntax.MemoryDecl:
			r.declareGlobal(d, d.Name, types.NewMem(d.Name.Pos(), d.Name.Value))

		case *syntax.FuncDecl:
			r.declareGlobal(d, d.Name, types.NewFunc(d.Name.Pos(), d.Name.Value, d.Reloc))

		case *syntax.InstrDecl:
			r.declareGlobal(d, d.Name, types.NewInstr(d.Name.Pos(), d.Name.Value))
		}
	}
}

func (r *resolver) declareGlobal(d syntax.Decl, name *syntax.Name, obj types.Object) {
	r.info.Decls[obj] = d
	r.order = append(r.order, obj)
	r.declare(r.global, name, obj)
}

// declare inserts obj into scope s. The first declaration of a name wins;
// later ones are reported and left out of the scope.
func (r *resolver) declare(s types.ScopeID, name *syntax.Name, obj types.Object) bool {
	r.info.Defs[name] = obj
	if prev := r.tree.Insert(s, obj); prev != nil {
		d := diag.New(diag.DuplicateSymbol, name, "%s redeclared in this scope", name.Value)
		d.WithRelatedAt(syntax.Span{Start: prev.Pos(), End: prev.Pos()}, "other declaration of %s", name.Value)
		r.errs.report(d)
		return false
	}
	return true
}

func (r *resolver) openScope(n syntax.Node, end syntax.Pos, comment string) types.ScopeID {
	s := r.tree.New(r.scope, n.Pos(), end, comment)
	r.info.Scopes[n] = s
	r.scope = s
	return s
}

func (r *resolver) resolveDecl(d syntax.Decl) {
	defer func() {
		r.decl = nil
		r.scope = r.global
	}()

	switch d := d.(type) {
	case *syntax.ConstDecl:
		r.decl = r.info.Defs[d.Name]
		r.expr(d.Type)
		r.expr(d.Value)

	case *syntax.UsingDecl:
		r.decl = r.info.Defs[d.Name]
		r.expr(d.Type)

	case *syntax.FormatDecl:
		r.decl = r.info.Defs[d.Name]
		r.expr(d.Type)
		for _, f := range d.Fields {
			r.expr(f.Width)
			r.expr(f.Type)
			r.expr(f.Lo)
			r.expr(f.Hi)
		}

	case *syntax.RegisterDecl:
		r.expr(d.Size)
		r.expr(d.Index)
		r.expr(d.Elem)

	case *syntax.MemoryDecl:
		r.expr(d.Addr)
		r.expr(d.Elem)

	case *syntax.FuncDecl:
		r.decl = r.info.Defs[d.Name]
		for _, p := range d.Params {
			r.expr(p.Type)
		}
		r.expr(d.Result)
		kind := "function "
		if d.Reloc {
			kind = "relocation "
		}
		s := r.openScope(d, d.End(), kind+d.Name.Value)
		for _, p := range d.Params {
			r.declare(s, p.Name, types.NewParam(p.Name.Pos(), p.Name.Value, nil))
		}
		r.expr(d.Body)

	case *syntax.InstrDecl:
		r.instrDecl(d)

	case *syntax.EncodingDecl:
		r.encodingDecl(d)

	case *syntax.AssemblyDecl:
		r.assemblyDecl(d)
	}
}

func (r *resolver) instrDecl(d *syntax.InstrDecl) {
	instr, _ := r.info.Defs[d.Name].(*types.Instr)
	if tn := r.formatName(d.Format); tn != nil {
		r.scope = r.formats[tn]
		if instr != nil {
			r.instrs[instr] = r.scope
		}
	}
	end := d.End()
	if d.Body != nil {
		end = d.Body.Rbrace
	}
	r.openScope(d, end, "instruction "+d.Name.Value)
	if d.Body != nil {
		r.block(d.Body)
	}
}

// formatName resolves the format of an instruction.
func (r *resolver) formatName(name *syntax.Name) *types.TypeName {
	obj := r.use(name)
	if obj == nil {
		return nil
	}
	if tn, ok := obj.(*types.TypeName); ok {
		if _, isFormat := r.formats[tn]; isFormat {
			return tn
		}
	}
	r.errorf(diag.TypeMismatch, name, "%s is not a format", name.Value)
	return nil
}

// instrName resolves the instruction an encoding or assembly refers to.
func (r *resolver) instrName(name *syntax.Name) *types.Instr {
	obj := r.use(name)
	if obj == nil {
		return nil
	}
	instr, ok := obj.(*types.Instr)
	if !ok {
		r.errorf(diag.TypeMismatch, name, "%s is not an instruction", name.Value)
		return nil
	}
	return instr
}

// fieldScope returns the format scope of instr, or NoScope.
func (r *resolver) fieldScope(instr *types.Instr) types.ScopeID {
	if instr == nil {
		return types.NoScope
	}
	if s, ok := r.instrs[instr]; ok {
		return s
	}
	return types.NoScope
}

func (r *resolver) encodingDecl(d *syntax.EncodingDecl) {
	instr := r.instrName(d.Instr)
	if instr != nil {
		if prev := r.info.Encodings[instr]; prev != nil {
			r.errs.report(diag.New(diag.DuplicateSymbol, d.Instr, "duplicate encoding of %s", d.Instr.Value).
				WithRelated(prev.Instr, "previous encoding"))
		} else {
			r.info.Encodings[instr] = d
		}
	}

	fs := r.fieldScope(instr)
	seen := make(map[string]*syntax.EncodingField)
	for _, f := range d.Fields {
		if prev := seen[f.Field.Value]; prev != nil {
			r.errs.report(diag.New(diag.DuplicateSymbol, f.Field, "field %s encoded twice", f.Field.Value).
				WithRelated(prev.Field, "previous value of %s", f.Field.Value))
		} else {
			seen[f.Field.Value] = f
		}
		if fs != types.NoScope {
			if fld := r.tree.Lookup(fs, f.Field.Value); fld != nil {
				r.info.Uses[f.Field] = fld
			} else {
				r.errorf(diag.UnknownField, f.Field, "%s is not a field of %s", f.Field.Value, r.tree.Comment(fs))
				r.info.Unresolved[f.Field] = true
			}
		}
		r.expr(f.Value)
	}
}

func (r *resolver) assemblyDecl(d *syntax.AssemblyDecl) {
	instr := r.instrName(d.Instr)
	if instr != nil {
		if prev := r.info.Assemblies[instr]; prev != nil {
			r.errs.report(diag.New(diag.DuplicateSymbol, d.Instr, "duplicate assembly of %s", d.Instr.Value).
				WithRelated(prev.Instr, "previous assembly"))
		} else {
			r.info.Assemblies[instr] = d
		}
	}
	fs := r.fieldScope(instr)
	if fs == types.NoScope || d.Syntax == nil {
		return
	}
	for _, name := range AssemblyFields(d.Syntax.Value) {
		if r.tree.Lookup(fs, name) == nil {
			r.errorf(diag.UnknownField, d.Syntax, "assembly of %s refers to unknown field %s", d.Instr.Value, name)
		}
	}
}

// AssemblyFields returns the names of the {field} placeholders in an
// assembly syntax string, in order.
func AssemblyFields(s string) []string {
	var names []string
	for {
		i := strings.IndexByte(s, '{')
		if i < 0 {
			return names
		}
		j := strings.IndexByte(s[i:], '}')
		if j < 0 {
			return names
		}
		if name := strings.TrimSpace(s[i+1 : i+j]); name != "" {
			names = append(names, name)
		}
		s = s[i+j+1:]
	}
}

// ----------------------------------------------------------------------------
// Bodies

func (r *resolver) block(b *syntax.BlockStmt) {
	outer := r.scope
	r.openScope(b, b.Rbrace, "block")
	for _, s := range b.Stmts {
		r.stmt(s, b.Rbrace)
	}
	r.scope = outer
}

// stmt resolves s. A let opens a scope that extends to end, the closing
// brace of the enclosing block.
func (r *resolver) stmt(s syntax.Stmt, end syntax.Pos) {
	switch s := s.(type) {
	case *syntax.BlockStmt:
		r.block(s)
	case *syntax.IfStmt:
		r.expr(s.Cond)
		if s.Then != nil {
			r.block(s.Then)
		}
		if s.Else != nil {
			r.stmt(s.Else, end)
		}
	case *syntax.LetStmt:
		r.expr(s.Value)
		sc := r.openScope(s, end, "let "+s.Name.Value)
		r.declare(sc, s.Name, types.NewLocal(s.Name.Pos(), s.Name.Value))
	case *syntax.AssignStmt:
		r.expr(s.LHS)
		r.expr(s.RHS)
	case *syntax.ExprStmt:
		r.expr(s.X)
	}
}

func (r *resolver) expr(e syntax.Expr) {
	switch e := e.(type) {
	case nil:
	case *syntax.Name:
		r.use(e)
	case *syntax.Operation:
		r.expr(e.X)
		r.expr(e.Y)
	case *syntax.CallExpr:
		r.expr(e.Fun)
		for _, a := range e.Args {
			r.expr(a)
		}
	case *syntax.SliceExpr:
		r.expr(e.X)
		r.expr(e.Lo)
		r.expr(e.Hi)
	case *syntax.SelectorExpr:
		// the selector is bound by the checker once X's format is known
		r.expr(e.X)
	case *syntax.ParenExpr:
		r.expr(e.X)
	case *syntax.CastExpr:
		r.expr(e.X)
		r.expr(e.Type)
	case *syntax.IfExpr:
		r.expr(e.Cond)
		r.expr(e.X)
		r.expr(e.Y)
	case *syntax.BitsType:
		r.expr(e.Width)
	}
}

// use binds a referencing identifier.
func (r *resolver) use(name *syntax.Name) types.Object {
	obj, s := r.tree.LookupParent(r.scope, name.Value)
	if obj == nil {
		r.errorf(diag.UnresolvedSymbol, name, "undefined: %s", name.Value)
		r.info.Unresolved[name] = true
		return nil
	}
	r.info.Uses[name] = obj
	if r.decl != nil && s == r.global {
		switch obj.(type) {
		case *types.Const, *types.TypeName, *types.Func:
			r.deps[r.decl] = append(r.deps[r.decl], dependency{obj: obj, name: name})
		}
	}
	return obj
}

// ----------------------------------------------------------------------------
// Cycles

// findCycles reports each definition cycle among constants, types,
// formats and functions once, at the reference that closes it, and
// unbinds that reference.
func (r *resolver) findCycles() {
	const (
		white = iota
		grey
		black
	)
	color := make(map[types.Object]int)
	seen := make(map[string]bool)
	var stack []types.Object

	var visit func(obj types.Object)
	visit = func(obj types.Object) {
		color[obj] = grey
		stack = append(stack, obj)
		for _, d := range r.deps[obj] {
			switch color[d.obj] {
			case white:
				visit(d.obj)
			case grey:
				r.cycle(stack, d, seen)
			}
		}
		stack = stack[:len(stack)-1]
		color[obj] = black
	}

	for _, obj := range r.order {
		if color[obj] == white {
			visit(obj)
		}
	}
}

func (r *resolver) cycle(stack []types.Object, d dependency, seen map[string]bool) {
	start := len(stack) - 1
	for start > 0 && stack[start] != d.obj {
		start--
	}
	members := stack[start:]

	names := make([]string, 0, len(members)+1)
	for _, obj := range members {
		names = append(names, obj.Name())
	}
	names = append(names, d.obj.Name())
	path := strings.Join(names, " -> ")

	delete(r.info.Uses, d.name)
	r.info.Unresolved[d.name] = true
	if seen[path] {
		return
	}
	seen[path] = true

	e := diag.New(diag.CyclicDefinition, d.name, "invalid recursive definition: %s", path)
	for _, obj := range members {
		e.WithRelatedAt(syntax.Span{Start: obj.Pos(), End: obj.Pos()}, "%s %s declared here", types.ObjectKind(obj), obj.Name())
	}
	r.errs.report(e)
}
