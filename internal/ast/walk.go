package ast

// Walk traverses the AST starting from node, calling fn for each node.
// If fn returns false, Walk stops traversing that branch.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, item := range n.Items {
			Walk(item, fn)
		}

	case *FnDecl:
		Walk(n.Name, fn)
		for _, param := range n.Params {
			Walk(param, fn)
		}
		if n.ReturnType != nil {
			Walk(n.ReturnType, fn)
		}
		if n.Body != nil {
			Walk(n.Body, fn)
		}

	case *Param:
		Walk(n.Name, fn)
		if n.Type != nil {
			Walk(n.Type, fn)
		}

	case *EnumDecl:
		Walk(n.Name, fn)
		for _, g := range n.Generics {
			Walk(g, fn)
		}
		for _, variant := range n.Variants {
			Walk(variant, fn)
		}

	case *EnumVariant:
		Walk(n.Name, fn)
		for _, f := range n.Fields {
			Walk(f, fn)
		}

	case *TraitDecl:
		Walk(n.Name, fn)
		for _, method := range n.Methods {
			Walk(method, fn)
		}

	case *TraitMethod:
		Walk(n.Name, fn)
		for _, param := range n.Params {
			Walk(param, fn)
		}
		if n.ReturnType != nil {
			Walk(n.ReturnType, fn)
		}
		if n.Body != nil {
			Walk(n.Body, fn)
		}

	// Statements
	case *LetStmt:
		Walk(n.Name, fn)
		if n.Type != nil {
			Walk(n.Type, fn)
		}
		Walk(n.Value, fn)

	case *ReturnStmt:
		if n.Value != nil {
			Walk(n.Value, fn)
		}

	case *WhileStmt:
		Walk(n.Condition, fn)
		Walk(n.Body, fn)

	case *ForStmt:
		Walk(n.Name, fn)
		Walk(n.Iterable, fn)
		Walk(n.Body, fn)

	case *ExprStmt:
		Walk(n.Expr, fn)

	case *LambdaStmt:
		for _, p := range n.Params {
			Walk(p, fn)
		}
		Walk(n.Body, fn)

	// Expressions
	case *LambdaExpr:
		for _, p := range n.Params {
			Walk(p, fn)
		}
		Walk(n.Body, fn)

	case *AssignExpr:
		Walk(n.Name, fn)
		Walk(n.Value, fn)

	case *AssignIndexExpr:
		Walk(n.Target, fn)
		Walk(n.Index, fn)
		Walk(n.Value, fn)

	case *ArrayLit:
		for _, e := range n.Elems {
			Walk(e, fn)
		}

	case *CallExpr:
		Walk(n.Callee, fn)
		for _, arg := range n.Args {
			Walk(arg, fn)
		}

	case *FieldExpr:
		Walk(n.Target, fn)

	case *IndexExpr:
		Walk(n.Target, fn)
		Walk(n.Index, fn)

	case *AwaitExpr:
		Walk(n.Value, fn)

	case *BlockExpr:
		for _, stmt := range n.Stmts {
			Walk(stmt, fn)
		}

	case *IfExpr:
		Walk(n.Condition, fn)
		Walk(n.Then, fn)
		if n.Else != nil {
			Walk(n.Else, fn)
		}

	case *MatchExpr:
		Walk(n.Subject, fn)
		for _, arm := range n.Arms {
			Walk(arm, fn)
		}

	case *MatchArm:
		Walk(n.Pattern, fn)
		if n.Guard != nil {
			Walk(n.Guard, fn)
		}
		Walk(n.Body, fn)

	case *UnaryExpr:
		Walk(n.Operand, fn)

	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	// Types
	case *GenericType:
		for _, a := range n.Args {
			Walk(a, fn)
		}

	case *TupleType:
		for _, e := range n.Elems {
			Walk(e, fn)
		}

	case *SafeType:
		Walk(n.Base, fn)

	case *ArrayType:
		Walk(n.Elem, fn)

	case *SliceType:
		Walk(n.Elem, fn)

	case *FuncType:
		for _, p := range n.Params {
			Walk(p, fn)
		}
		Walk(n.Return, fn)

	// Patterns
	case *TuplePattern:
		for _, e := range n.Elems {
			Walk(e, fn)
		}

	case *ConstructorPattern:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}

// Children returns the direct syntactic children of node, in source order.
func Children(node Node) []Node {
	var out []Node
	Walk(node, func(n Node) bool {
		if n == node {
			return true
		}
		out = append(out, n)
		return false
	})
	return out
}
