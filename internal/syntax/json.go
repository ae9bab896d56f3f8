package syntax

import (
	"encoding/json"
	"io"
)

// FprintJSON writes node as indented JSON. Objects carry a "node" kind and
// a "pos"; map keys are emitted sorted, so output is stable.
func FprintJSON(w io.Writer, node Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(node))
}

type object = map[string]any

func obj(kind string, n Node) object {
	return object{"node": kind, "pos": n.Pos().String()}
}

func list[T Node](nodes []T) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = toJSON(n)
	}
	return out
}

func optJSON(n Expr) any {
	if n == nil {
		return nil
	}
	return toJSON(n)
}

func toJSON(node Node) any {
	switch n := node.(type) {
	case *File:
		m := obj("File", n)
		if n.Name != nil {
			m["isa"] = n.Name.Value
		}
		m["decls"] = list(n.Decls)
		return m

	case *ConstDecl:
		m := obj("ConstDecl", n)
		m["name"] = n.Name.Value
		m["type"] = optJSON(n.Type)
		m["value"] = toJSON(n.Value)
		return m

	case *UsingDecl:
		m := obj("UsingDecl", n)
		m["name"] = n.Name.Value
		m["type"] = toJSON(n.Type)
		return m

	case *FormatDecl:
		m := obj("FormatDecl", n)
		m["name"] = n.Name.Value
		m["type"] = toJSON(n.Type)
		m["fields"] = list(n.Fields)
		return m

	case *FormatField:
		m := obj("FormatField", n)
		m["name"] = n.Name.Value
		if n.Mod != FieldPlain {
			m["mod"] = n.Mod.String()
		}
		m["width"] = optJSON(n.Width)
		m["type"] = optJSON(n.Type)
		if n.Lo != nil {
			m["range"] = []any{toJSON(n.Lo), toJSON(n.Hi)}
		}
		return m

	case *RegisterDecl:
		m := obj("RegisterDecl", n)
		m["name"] = n.Name.Value
		m["file"] = n.File
		m["size"] = optJSON(n.Size)
		m["index"] = optJSON(n.Index)
		m["elem"] = toJSON(n.Elem)
		return m

	case *MemoryDecl:
		m := obj("MemoryDecl", n)
		m["name"] = n.Name.Value
		m["addr"] = toJSON(n.Addr)
		m["elem"] = toJSON(n.Elem)
		return m

	case *FuncDecl:
		m := obj("FuncDecl", n)
		m["name"] = n.Name.Value
		m["relocation"] = n.Reloc
		m["params"] = list(n.Params)
		m["result"] = toJSON(n.Result)
		m["body"] = toJSON(n.Body)
		return m

	case *Param:
		m := obj("Param", n)
		m["name"] = n.Name.Value
		m["type"] = toJSON(n.Type)
		return m

	case *InstrDecl:
		m := obj("InstrDecl", n)
		m["name"] = n.Name.Value
		m["format"] = n.Format.Value
		m["body"] = toJSON(n.Body)
		return m

	case *EncodingDecl:
		m := obj("EncodingDecl", n)
		m["instruction"] = n.Instr.Value
		m["fields"] = list(n.Fields)
		return m

	case *EncodingField:
		m := obj("EncodingField", n)
		m["field"] = n.Field.Value
		m["value"] = toJSON(n.Value)
		return m

	case *AssemblyDecl:
		m := obj("AssemblyDecl", n)
		m["instruction"] = n.Instr.Value
		m["syntax"] = n.Syntax.Value
		return m

	case *BlockStmt:
		m := obj("BlockStmt", n)
		m["stmts"] = list(n.Stmts)
		return m

	case *IfStmt:
		m := obj("IfStmt", n)
		m["cond"] = toJSON(n.Cond)
		m["then"] = toJSON(n.Then)
		if n.Else != nil {
			m["else"] = toJSON(n.Else)
		}
		return m

	case *LetStmt:
		m := obj("LetStmt", n)
		m["name"] = n.Name.Value
		m["value"] = toJSON(n.Value)
		return m

	case *AssignStmt:
		m := obj("AssignStmt", n)
		m["lhs"] = toJSON(n.LHS)
		m["rhs"] = toJSON(n.RHS)
		return m

	case *ExprStmt:
		m := obj("ExprStmt", n)
		m["x"] = toJSON(n.X)
		return m

	case *EmptyStmt:
		return obj("EmptyStmt", n)

	case *Name:
		m := obj("Name", n)
		m["value"] = n.Value
		return m

	case *BasicLit:
		m := obj("BasicLit", n)
		m["kind"] = n.Kind.String()
		m["value"] = n.Value
		return m

	case *Operation:
		m := obj("Operation", n)
		m["op"] = n.Op.String()
		m["x"] = toJSON(n.X)
		m["y"] = optJSON(n.Y)
		return m

	case *CallExpr:
		m := obj("CallExpr", n)
		m["fun"] = toJSON(n.Fun)
		m["args"] = list(n.Args)
		return m

	case *SliceExpr:
		m := obj("SliceExpr", n)
		m["x"] = toJSON(n.X)
		m["lo"] = toJSON(n.Lo)
		m["hi"] = optJSON(n.Hi)
		return m

	case *SelectorExpr:
		m := obj("SelectorExpr", n)
		m["x"] = toJSON(n.X)
		m["sel"] = n.Sel.Value
		return m

	case *ParenExpr:
		m := obj("ParenExpr", n)
		m["x"] = toJSON(n.X)
		return m

	case *CastExpr:
		m := obj("CastExpr", n)
		m["x"] = toJSON(n.X)
		m["type"] = toJSON(n.Type)
		return m

	case *IfExpr:
		m := obj("IfExpr", n)
		m["cond"] = toJSON(n.Cond)
		m["then"] = toJSON(n.X)
		m["else"] = toJSON(n.Y)
		return m

	case *BitsType:
		m := obj("BitsType", n)
		m["kind"] = n.Kind.Value
		m["width"] = toJSON(n.Width)
		return m
	}
	return nil
}
