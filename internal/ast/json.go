package ast

import "encoding/json"

// object is the generic JSON shape of a node: a "kind" tag plus fields.
type object = map[string]any

// ToJSON converts a node into plain maps and slices suitable for
// encoding/json. Every node object carries a "kind" tag and, for nodes with
// a location, a "span" pair of byte offsets.
func ToJSON(node Node) any {
	if node == nil {
		return nil
	}
	obj := nodeJSON(node)
	if obj != nil {
		span := node.Span()
		obj["span"] = []int{span.Start, span.End}
	}
	return obj
}

// MarshalJSON encodes the program in the ToJSON shape.
func (p *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToJSON(p))
}

func listJSON[T Node](nodes []T) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = ToJSON(n)
	}
	return out
}

func identNames(ids []*Ident) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Name
	}
	return out
}

func optional(n Node) any {
	if n == nil {
		return nil
	}
	return ToJSON(n)
}

func paramsJSON(params []*Param) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = object{"name": p.Name.Name, "type": ToJSON(p.Type)}
	}
	return out
}

func nodeJSON(node Node) object {
	switch n := node.(type) {
	case *Program:
		return object{"kind": "Program", "items": listJSON(n.Items)}

	case *FnDecl:
		obj := object{
			"kind":   "Function",
			"name":   n.Name.Name,
			"params": paramsJSON(n.Params),
			"ret":    nil,
			"body":   ToJSON(n.Body),
		}
		if n.ReturnType != nil {
			obj["ret"] = ToJSON(n.ReturnType)
		}
		return obj
	case *EnumDecl:
		variants := make([]any, len(n.Variants))
		for i, v := range n.Variants {
			variants[i] = object{"name": v.Name.Name, "fields": listJSON(v.Fields)}
		}
		return object{"kind": "Enum", "name": n.Name.Name, "generics": identNames(n.Generics), "variants": variants}
	case *TraitDecl:
		methods := make([]any, len(n.Methods))
		for i, m := range n.Methods {
			method := object{"name": m.Name.Name, "params": paramsJSON(m.Params), "ret": nil, "body": nil}
			if m.ReturnType != nil {
				method["ret"] = ToJSON(m.ReturnType)
			}
			if m.Body != nil {
				method["body"] = ToJSON(m.Body)
			}
			methods[i] = method
		}
		return object{"kind": "Trait", "name": n.Name.Name, "methods": methods}

	// Statements
	case *LetStmt:
		obj := object{"kind": "Let", "name": n.Name.Name, "type": nil, "expr": ToJSON(n.Value)}
		if n.Type != nil {
			obj["type"] = ToJSON(n.Type)
		}
		return obj
	case *ReturnStmt:
		return object{"kind": "Return", "expr": optional(n.Value)}
	case *WhileStmt:
		return object{"kind": "While", "condition": ToJSON(n.Condition), "body": ToJSON(n.Body)}
	case *ForStmt:
		return object{"kind": "For", "name": n.Name.Name, "iter": ToJSON(n.Iterable), "body": ToJSON(n.Body)}
	case *BreakStmt:
		return object{"kind": "Break"}
	case *ContinueStmt:
		return object{"kind": "Continue"}
	case *ExprStmt:
		return object{"kind": "Expr", "expr": ToJSON(n.Expr)}
	case *LambdaStmt:
		return object{"kind": "LambdaStmt", "params": identNames(n.Params), "body": ToJSON(n.Body)}

	// Expressions
	case *Ident:
		return object{"kind": "Ident", "name": n.Name}
	case *IntLit:
		return object{"kind": "Int", "value": n.Value}
	case *FloatLit:
		return object{"kind": "Float", "value": n.Value}
	case *StringLit:
		return object{"kind": "Str", "value": n.Value}
	case *BoolLit:
		return object{"kind": "Bool", "value": n.Value}
	case *NullLit:
		return object{"kind": "Null"}
	case *LambdaExpr:
		return object{"kind": "Lambda", "params": identNames(n.Params), "body": ToJSON(n.Body)}
	case *AssignExpr:
		return object{"kind": "Assign", "name": n.Name.Name, "expr": ToJSON(n.Value)}
	case *AssignIndexExpr:
		return object{"kind": "AssignIndex", "expr": ToJSON(n.Target), "index": ToJSON(n.Index), "value": ToJSON(n.Value)}
	case *ArrayLit:
		return object{"kind": "ArrayLiteral", "elems": listJSON(n.Elems)}
	case *CallExpr:
		return object{"kind": "Call", "callee": ToJSON(n.Callee), "args": listJSON(n.Args)}
	case *FieldExpr:
		field := object{"name": n.Field.Name}
		if n.Field.IsIndex {
			field = object{"index": n.Field.Index}
		}
		return object{"kind": "Field", "expr": ToJSON(n.Target), "field": field}
	case *IndexExpr:
		return object{"kind": "Index", "expr": ToJSON(n.Target), "index": ToJSON(n.Index)}
	case *AwaitExpr:
		return object{"kind": "Await", "expr": ToJSON(n.Value)}
	case *BlockExpr:
		return object{"kind": "Block", "stmts": listJSON(n.Stmts)}
	case *IfExpr:
		return object{"kind": "If", "condition": ToJSON(n.Condition), "then": ToJSON(n.Then), "else": optional(n.Else)}
	case *MatchExpr:
		arms := make([]any, len(n.Arms))
		for i, arm := range n.Arms {
			arms[i] = object{"pattern": ToJSON(arm.Pattern), "guard": optional(arm.Guard), "expr": ToJSON(arm.Body)}
		}
		return object{"kind": "Match", "expr": ToJSON(n.Subject), "arms": arms}
	case *UnaryExpr:
		return object{"kind": "Unary", "op": n.Op.Name(), "expr": ToJSON(n.Operand)}
	case *BinaryExpr:
		return object{"kind": "Binary", "op": n.Op.Name(), "left": ToJSON(n.Left), "right": ToJSON(n.Right)}

	// Types
	case *NamedType:
		return object{"kind": "Ident", "name": n.Name}
	case *GenericType:
		return object{"kind": "Generic", "name": n.Name, "args": listJSON(n.Args)}
	case *TupleType:
		return object{"kind": "Tuple", "items": listJSON(n.Elems)}
	case *SafeType:
		return object{"kind": "Safe", "base": ToJSON(n.Base), "constraints": append([]string{}, n.Constraints...)}
	case *ArrayType:
		return object{"kind": "Array", "elem": ToJSON(n.Elem), "len": n.Len}
	case *SliceType:
		return object{"kind": "Slice", "elem": ToJSON(n.Elem)}
	case *FuncType:
		return object{"kind": "Func", "params": listJSON(n.Params), "ret": ToJSON(n.Return)}

	// Patterns
	case *WildcardPattern:
		return object{"kind": "Wildcard"}
	case *IntPattern:
		return object{"kind": "Int", "value": n.Value}
	case *StringPattern:
		return object{"kind": "Str", "value": n.Value}
	case *BoolPattern:
		return object{"kind": "Bool", "value": n.Value}
	case *IdentPattern:
		return object{"kind": "Ident", "name": n.Name}
	case *TuplePattern:
		return object{"kind": "Tuple", "items": listJSON(n.Elems)}
	case *ConstructorPattern:
		return object{"kind": "Constructor", "name": n.Name, "args": listJSON(n.Args)}
	}
	return nil
}
