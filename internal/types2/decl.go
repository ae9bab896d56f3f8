package types2

import (
	"go/constant"

	"github.com/you-not-fish/adlc/internal/diag"
	"github.com/you-not-fish/adlc/internal/syntax"
	"github.com/you-not-fish/adlc/internal/types"
)

// topDecl checks a top-level declaration, except for bodies.
func (c *Checker) topDecl(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.ConstDecl:
		c.objDecl(c.info.Defs[d.Name])
	case *syntax.UsingDecl:
		c.objDecl(c.info.Defs[d.Name])
	case *syntax.FormatDecl:
		c.objDecl(c.info.Defs[d.Name])
	case *syntax.RegisterDecl:
		c.objDecl(c.info.Defs[d.Name])
	case *syntax.MemoryDecl:
		c.objDecl(c.info.Defs[d.Name])
	case *syntax.FuncDecl:
		c.objDecl(c.info.Defs[d.Name])
	case *syntax.InstrDecl:
		c.objDecl(c.info.Defs[d.Name])
	case *syntax.EncodingDecl:
		c.encodingDecl(d)
	}
}

// objDecl computes the type of a top-level object on first use. Fields,
// locals and predeclared objects have no declaration of their own.
func (c *Checker) objDecl(obj types.Object) {
	if obj == nil {
		return
	}
	d := c.info.Decls[obj]
	if d == nil {
		return
	}
	switch c.state[obj] {
	case done:
		return
	case checking:
		// a cycle; reported by the resolver, the object stays untyped
		return
	}
	c.state[obj] = checking
	defer func() { c.state[obj] = done }()

	switch d := d.(type) {
	case *syntax.ConstDecl:
		c.constDecl(obj.(*types.Const), d)
	case *syntax.UsingDecl:
		obj.(*types.TypeName).SetType(c.typExpr(d.Type))
	case *syntax.FormatDecl:
		c.formatDecl(obj.(*types.TypeName), d)
	case *syntax.RegisterDecl:
		c.registerDecl(obj.(*types.Reg), d)
	case *syntax.MemoryDecl:
		c.memoryDecl(obj.(*types.Mem), d)
	case *syntax.FuncDecl:
		c.funcDecl(obj.(*types.Func), d)
	case *syntax.InstrDecl:
		c.instrDecl(obj.(*types.Instr), d)
	}
}

func (c *Checker) constDecl(obj *types.Const, d *syntax.ConstDecl) {
	obj.SetType(types.Typ[types.Invalid])

	var t types.Type
	if d.Type != nil {
		t = c.typExpr(d.Type)
	}

	var x operand
	c.expr(&x, d.Value)
	if x.mode == invalid {
		return
	}
	if x.mode != constant_ {
		c.errorf(diag.NotConstant, d.Value, "%s is not constant", &x)
		return
	}
	if t == nil {
		obj.SetType(x.typ)
		obj.SetVal(x.val)
		return
	}
	if types.IsInvalid(t) {
		return
	}
	c.assignment(&x, t, "constant declaration")
	if x.mode == invalid {
		return
	}
	obj.SetType(t)
	obj.SetVal(x.val)
}

// formatDecl computes the format type and the types of its fields.
// Placement of the fields is left to the layout package.
func (c *Checker) formatDecl(obj *types.TypeName, d *syntax.FormatDecl) {
	width := 0
	if t := c.typExpr(d.Type); !types.IsInvalid(t) {
		if b, ok := t.(*types.Bits); ok {
			width = b.Width()
		} else {
			c.errorf(diag.TypeMismatch, d.Type, "format %s must be a bit vector, not %s", d.Name.Value, t)
		}
	}
	f := types.NewFormat(obj, width)
	obj.SetType(f)

	for _, fd := range d.Fields {
		fld, _ := c.info.Defs[fd.Name].(*types.Field)
		if fld == nil {
			continue
		}
		fld.SetType(c.fieldType(fd))
		if fd.Lo != nil {
			c.constInt(fd.Lo, "field position")
			c.constInt(fd.Hi, "field position")
		}
		if c.tree.Lookup(c.info.Scopes[d], fld.Name()) == fld {
			f.AddField(fld)
		}
	}
}

func (c *Checker) fieldType(fd *syntax.FormatField) types.Type {
	if fd.Width != nil {
		w, ok := c.width(fd.Width)
		if !ok {
			return types.Typ[types.Invalid]
		}
		return types.NewBits(w, false)
	}
	t := c.typExpr(fd.Type)
	if types.IsInvalid(t) {
		return t
	}
	if !types.IsVector(t) {
		c.errorf(diag.TypeMismatch, fd.Type, "field %s must be a bit vector or a format, not %s", fd.Name.Value, t)
		return types.Typ[types.Invalid]
	}
	return t
}

func (c *Checker) registerDecl(obj *types.Reg, d *syntax.RegisterDecl) {
	obj.SetType(types.Typ[types.Invalid])
	elem := c.vectorType(d.Elem, "register element")
	if d.Index == nil {
		obj.SetType(elem)
		return
	}

	var index *types.Bits
	if t := c.typExpr(d.Index); !types.IsInvalid(t) {
		if b, ok := t.(*types.Bits); ok {
			index = b
		} else {
			c.errorf(diag.TypeMismatch, d.Index, "register file index must be a bit vector, not %s", t)
		}
	}
	if d.Size != nil {
		if n, ok := c.constInt(d.Size, "register file size"); ok {
			switch {
			case n <= 0:
				c.errorf(diag.WidthOutOfRange, d.Size, "register file size %d must be positive", n)
			case index != nil && index.Width() < 63 && n > int64(1)<<index.Width():
				c.errorf(diag.WidthOutOfRange, d.Index, "index type %s cannot address %d registers", index, n)
			default:
				obj.SetSize(n)
			}
		}
	}
	if index == nil || types.IsInvalid(elem) {
		return
	}
	obj.SetType(types.NewStorage(types.RegisterFile, index, elem))
}

func (c *Checker) memoryDecl(obj *types.Mem, d *syntax.MemoryDecl) {
	obj.SetType(types.Typ[types.Invalid])
	var addr *types.Bits
	if t := c.typExpr(d.Addr); !types.IsInvalid(t) {
		if b, ok := t.(*types.Bits); ok {
			addr = b
		} else {
			c.errorf(diag.TypeMismatch, d.Addr, "memory address must be a bit vector, not %s", t)
		}
	}
	elem := c.vectorType(d.Elem, "memory element")
	if addr == nil || types.IsInvalid(elem) {
		return
	}
	obj.SetType(types.NewStorage(types.Memory, addr, elem))
}

func (c *Checker) funcDecl(obj *types.Func, d *syntax.FuncDecl) {
	scope := c.info.Scopes[d]
	params := make([]*types.Var, 0, len(d.Params))
	for _, p := range d.Params {
		t := c.valueType(p.Type, "parameter")
		v, _ := c.info.Defs[p.Name].(*types.Var)
		if v == nil {
			continue
		}
		v.SetType(t)
		// a duplicate parameter is not in scope and not part of the signature
		if c.tree.Lookup(scope, v.Name()) == v {
			params = append(params, v)
		}
	}
	result := c.valueType(d.Result, "result")
	obj.SetType(types.NewSignature(params, result))
}

func (c *Checker) instrDecl(obj *types.Instr, d *syntax.InstrDecl) {
	tn, _ := c.info.Uses[d.Format].(*types.TypeName)
	if tn == nil {
		obj.SetType(types.Typ[types.Invalid])
		return
	}
	c.objDecl(tn)
	if f, ok := tn.Type().(*types.Format); ok {
		obj.SetType(f)
		return
	}
	obj.SetType(types.Typ[types.Invalid])
}

// encodingDecl checks that encoding values are constants. Whether they
// fit their fields is checked once formats are laid out.
func (c *Checker) encodingDecl(d *syntax.EncodingDecl) {
	for _, f := range d.Fields {
		var x operand
		c.expr(&x, f.Value)
		if x.mode == invalid {
			continue
		}
		if x.mode != constant_ || x.val.Kind() != constant.Int {
			c.errorf(diag.NotConstant, f.Value, "encoding of %s must be an integer constant, not %s", f.Field.Value, &x)
		}
	}
}

// ----------------------------------------------------------------------------
// Bodies

func (c *Checker) funcBody(d *syntax.FuncDecl) {
	obj, _ := c.info.Defs[d.Name].(*types.Func)
	if obj == nil || obj.Signature() == nil {
		return
	}
	result := obj.Signature().Result()

	var x operand
	c.expr(&x, d.Body)
	c.value(&x)
	if x.mode == invalid || types.IsInvalid(result) {
		return
	}
	if !c.compatible(&x, result) {
		c.errorf(diag.ReturnTypeMismatch, d.Body, "%s %s returns %s, declared %s",
			types.ObjectKind(obj), obj.Name(), x.typ, result)
	}
}

// compatible reports whether x can be returned or passed as t, and
// converts an untyped constant x to t.
func (c *Checker) compatible(x *operand, t types.Type) bool {
	switch {
	case types.IsBoolean(t):
		if !types.IsBoolean(x.typ) {
			return false
		}
	case types.IsVector(t):
		if x.isUntypedInt() {
			if !types.Representable(x.val, types.Width(t)) {
				return false
			}
		} else if !types.IsVector(x.typ) || types.Width(x.typ) != types.Width(t) {
			return false
		}
	default:
		return types.Identical(x.typ, t)
	}
	c.convertUntyped(x, t)
	return true
}

// ----------------------------------------------------------------------------
// Constant helpers

// constInt evaluates e as an integer constant that fits in an int64.
func (c *Checker) constInt(e syntax.Expr, what string) (int64, bool) {
	var x operand
	c.expr(&x, e)
	if x.mode == invalid {
		return 0, false
	}
	if x.mode != constant_ || x.val.Kind() != constant.Int {
		c.errorf(diag.NotConstant, e, "%s must be an integer constant, not %s", what, &x)
		return 0, false
	}
	n, exact := constant.Int64Val(x.val)
	if !exact {
		c.errorf(diag.WidthOutOfRange, e, "%s %s is too large", what, x.val)
		return 0, false
	}
	return n, true
}

// maxWidth bounds the width of any bit vector.
const maxWidth = 1 << 16

// width evaluates a bit vector width.
func (c *Checker) width(e syntax.Expr) (int, bool) {
	n, ok := c.constInt(e, "width")
	if !ok {
		return 0, false
	}
	if n <= 0 || n > maxWidth {
		c.errorf(diag.WidthOutOfRange, e, "width %d out of range [1, %d]", n, maxWidth)
		return 0, false
	}
	return int(n), true
}
