package syntax

// Visitor is called for each node during Walk. Returning false skips the
// node's children.
type Visitor func(node Node) bool

// Walk traverses the tree rooted at node in depth-first order.
func Walk(node Node, v Visitor) {
	if isNil(node) || !v(node) {
		return
	}

	switch n := node.(type) {
	case *File:
		if n.Name != nil {
			Walk(n.Name, v)
		}
		for _, d := range n.Decls {
			Walk(d, v)
		}

	case *ConstDecl:
		Walk(n.Name, v)
		walkOpt(n.Type, v)
		Walk(n.Value, v)

	case *UsingDecl:
		Walk(n.Name, v)
		Walk(n.Type, v)

	case *FormatDecl:
		Walk(n.Name, v)
		Walk(n.Type, v)
		for _, f := range n.Fields {
			Walk(f, v)
		}

	case *FormatField:
		Walk(n.Name, v)
		walkOpt(n.Width, v)
		walkOpt(n.Type, v)
		walkOpt(n.Lo, v)
		walkOpt(n.Hi, v)

	case *RegisterDecl:
		Walk(n.Name, v)
		walkOpt(n.Size, v)
		walkOpt(n.Index, v)
		Walk(n.Elem, v)

	case *MemoryDecl:
		Walk(n.Name, v)
		Walk(n.Addr, v)
		Walk(n.Elem, v)

	case *FuncDecl:
		Walk(n.Name, v)
		for _, p := range n.Params {
			Walk(p, v)
		}
		Walk(n.Result, v)
		Walk(n.Body, v)

	case *Param:
		Walk(n.Name, v)
		Walk(n.Type, v)

	case *InstrDecl:
		Walk(n.Name, v)
		Walk(n.Format, v)
		Walk(n.Body, v)

	case *EncodingDecl:
		Walk(n.Instr, v)
		for _, f := range n.Fields {
			Walk(f, v)
		}

	case *EncodingField:
		Walk(n.Field, v)
		Walk(n.Value, v)

	case *AssemblyDecl:
		Walk(n.Instr, v)
		Walk(n.Syntax, v)

	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, v)
		}

	case *IfStmt:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		if n.Else != nil {
			Walk(n.Else, v)
		}

	case *LetStmt:
		Walk(n.Name, v)
		Walk(n.Value, v)

	case *AssignStmt:
		Walk(n.LHS, v)
		Walk(n.RHS, v)

	case *ExprStmt:
		Walk(n.X, v)

	case *Operation:
		Walk(n.X, v)
		walkOpt(n.Y, v)

	case *CallExpr:
		Walk(n.Fun, v)
		for _, a := range n.Args {
			Walk(a, v)
		}

	case *SliceExpr:
		Walk(n.X, v)
		Walk(n.Lo, v)
		walkOpt(n.Hi, v)

	case *SelectorExpr:
		Walk(n.X, v)
		Walk(n.Sel, v)

	case *ParenExpr:
		Walk(n.X, v)

	case *CastExpr:
		Walk(n.X, v)
		Walk(n.Type, v)

	case *IfExpr:
		Walk(n.Cond, v)
		Walk(n.X, v)
		Walk(n.Y, v)

	case *BitsType:
		Walk(n.Kind, v)
		Walk(n.Width, v)

	case *Name, *BasicLit, *EmptyStmt:
	}
}

func walkOpt(n Expr, v Visitor) {
	if n != nil {
		Walk(n, v)
	}
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Name:
		return n == nil
	case *BlockStmt:
		return n == nil
	case *BasicLit:
		return n == nil
	}
	return false
}

// Inspect calls f for every node under root whose dynamic type is T.
func Inspect[T Node](root Node, f func(T)) {
	Walk(root, func(n Node) bool {
		if t, ok := n.(T); ok {
			f(t)
		}
		return true
	})
}
