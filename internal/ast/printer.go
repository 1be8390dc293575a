package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders node as a compact S-expression. The output is stable and
// is what `tupa parse` prints; tests use it to compare tree shapes.
func Format(node Node) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

// TypeString renders a type annotation in surface syntax.
func TypeString(t TypeExpr) string {
	switch t := t.(type) {
	case nil:
		return "()"
	case *NamedType:
		return t.Name
	case *GenericType:
		return t.Name + "<" + joinTypes(t.Args) + ">"
	case *TupleType:
		return "(" + joinTypes(t.Elems) + ")"
	case *SafeType:
		parts := []string{TypeString(t.Base)}
		for _, c := range t.Constraints {
			parts = append(parts, "!"+c)
		}
		return "Safe<" + strings.Join(parts, ", ") + ">"
	case *ArrayType:
		return fmt.Sprintf("[%s; %d]", TypeString(t.Elem), t.Len)
	case *SliceType:
		return "[" + TypeString(t.Elem) + "]"
	case *FuncType:
		return "fn(" + joinTypes(t.Params) + ") -> " + TypeString(t.Return)
	default:
		return fmt.Sprintf("<%T>", t)
	}
}

func joinTypes(ts []TypeExpr) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = TypeString(t)
	}
	return strings.Join(parts, ", ")
}

func writeParams(b *strings.Builder, params []*Param) {
	b.WriteString("(")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name.Name + ": " + TypeString(p.Type))
	}
	b.WriteString(")")
}

func writeIdents(b *strings.Builder, ids []*Ident) {
	b.WriteString("(")
	for i, id := range ids {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(id.Name)
	}
	b.WriteString(")")
}

func writeList[T Node](b *strings.Builder, nodes []T) {
	for _, n := range nodes {
		b.WriteString(" ")
		writeNode(b, n)
	}
}

func writeNode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Program:
		for i, item := range n.Items {
			if i > 0 {
				b.WriteString("\n")
			}
			writeNode(b, item)
		}

	case *FnDecl:
		b.WriteString("(fn " + n.Name.Name + " ")
		writeParams(b, n.Params)
		if n.ReturnType != nil {
			b.WriteString(" -> " + TypeString(n.ReturnType))
		}
		b.WriteString(" ")
		writeNode(b, n.Body)
		b.WriteString(")")

	case *EnumDecl:
		b.WriteString("(enum " + n.Name.Name)
		if len(n.Generics) > 0 {
			names := make([]string, len(n.Generics))
			for i, g := range n.Generics {
				names[i] = g.Name
			}
			b.WriteString("<" + strings.Join(names, ", ") + ">")
		}
		for _, v := range n.Variants {
			b.WriteString(" " + v.Name.Name)
			if len(v.Fields) > 0 {
				b.WriteString("(" + joinTypes(v.Fields) + ")")
			}
		}
		b.WriteString(")")

	case *TraitDecl:
		b.WriteString("(trait " + n.Name.Name)
		for _, m := range n.Methods {
			b.WriteString(" (fn " + m.Name.Name + " ")
			writeParams(b, m.Params)
			if m.ReturnType != nil {
				b.WriteString(" -> " + TypeString(m.ReturnType))
			}
			if m.Body != nil {
				b.WriteString(" ")
				writeNode(b, m.Body)
			}
			b.WriteString(")")
		}
		b.WriteString(")")

	// Statements
	case *LetStmt:
		b.WriteString("(let " + n.Name.Name)
		if n.Type != nil {
			b.WriteString(": " + TypeString(n.Type))
		}
		b.WriteString(" ")
		writeNode(b, n.Value)
		b.WriteString(")")
	case *ReturnStmt:
		b.WriteString("(return")
		if n.Value != nil {
			b.WriteString(" ")
			writeNode(b, n.Value)
		}
		b.WriteString(")")
	case *WhileStmt:
		b.WriteString("(while ")
		writeNode(b, n.Condition)
		b.WriteString(" ")
		writeNode(b, n.Body)
		b.WriteString(")")
	case *ForStmt:
		b.WriteString("(for " + n.Name.Name + " ")
		writeNode(b, n.Iterable)
		b.WriteString(" ")
		writeNode(b, n.Body)
		b.WriteString(")")
	case *BreakStmt:
		b.WriteString("break")
	case *ContinueStmt:
		b.WriteString("continue")
	case *ExprStmt:
		writeNode(b, n.Expr)
	case *LambdaStmt:
		b.WriteString("(lambda ")
		writeIdents(b, n.Params)
		b.WriteString(" ")
		writeNode(b, n.Body)
		b.WriteString(")")

	// Expressions
	case *Ident:
		b.WriteString(n.Name)
	case *IntLit:
		b.WriteString(strconv.FormatInt(n.Value, 10))
	case *FloatLit:
		s := strconv.FormatFloat(n.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		b.WriteString(s)
	case *StringLit:
		b.WriteString(strconv.Quote(n.Value))
	case *BoolLit:
		b.WriteString(strconv.FormatBool(n.Value))
	case *NullLit:
		b.WriteString("null")
	case *LambdaExpr:
		b.WriteString("(lambda ")
		writeIdents(b, n.Params)
		b.WriteString(" ")
		writeNode(b, n.Body)
		b.WriteString(")")
	case *AssignExpr:
		b.WriteString("(= " + n.Name.Name + " ")
		writeNode(b, n.Value)
		b.WriteString(")")
	case *AssignIndexExpr:
		b.WriteString("([]= ")
		writeNode(b, n.Target)
		b.WriteString(" ")
		writeNode(b, n.Index)
		b.WriteString(" ")
		writeNode(b, n.Value)
		b.WriteString(")")
	case *ArrayLit:
		b.WriteString("[")
		for i, e := range n.Elems {
			if i > 0 {
				b.WriteString(" ")
			}
			writeNode(b, e)
		}
		b.WriteString("]")
	case *CallExpr:
		b.WriteString("(call ")
		writeNode(b, n.Callee)
		writeList(b, n.Args)
		b.WriteString(")")
	case *FieldExpr:
		b.WriteString("(. ")
		writeNode(b, n.Target)
		if n.Field.IsIndex {
			b.WriteString(" " + strconv.FormatInt(n.Field.Index, 10) + ")")
		} else {
			b.WriteString(" " + n.Field.Name + ")")
		}
	case *IndexExpr:
		b.WriteString("(index ")
		writeNode(b, n.Target)
		b.WriteString(" ")
		writeNode(b, n.Index)
		b.WriteString(")")
	case *AwaitExpr:
		b.WriteString("(await ")
		writeNode(b, n.Value)
		b.WriteString(")")
	case *BlockExpr:
		b.WriteString("{")
		for i, s := range n.Stmts {
			if i > 0 {
				b.WriteString("; ")
			}
			writeNode(b, s)
		}
		b.WriteString("}")
	case *IfExpr:
		b.WriteString("(if ")
		writeNode(b, n.Condition)
		b.WriteString(" ")
		writeNode(b, n.Then)
		if n.Else != nil {
			b.WriteString(" ")
			writeNode(b, n.Else)
		}
		b.WriteString(")")
	case *MatchExpr:
		b.WriteString("(match ")
		writeNode(b, n.Subject)
		for _, arm := range n.Arms {
			b.WriteString(" (")
			writeNode(b, arm.Pattern)
			if arm.Guard != nil {
				b.WriteString(" if ")
				writeNode(b, arm.Guard)
			}
			b.WriteString(" => ")
			writeNode(b, arm.Body)
			b.WriteString(")")
		}
		b.WriteString(")")
	case *UnaryExpr:
		b.WriteString("(" + n.Op.String() + " ")
		writeNode(b, n.Operand)
		b.WriteString(")")
	case *BinaryExpr:
		b.WriteString("(" + n.Op.String() + " ")
		writeNode(b, n.Left)
		b.WriteString(" ")
		writeNode(b, n.Right)
		b.WriteString(")")

	// Patterns
	case *WildcardPattern:
		b.WriteString("_")
	case *IntPattern:
		b.WriteString(strconv.FormatInt(n.Value, 10))
	case *StringPattern:
		b.WriteString(strconv.Quote(n.Value))
	case *BoolPattern:
		b.WriteString(strconv.FormatBool(n.Value))
	case *IdentPattern:
		b.WriteString(n.Name)
	case *TuplePattern:
		b.WriteString("(tuple")
		writeList(b, n.Elems)
		b.WriteString(")")
	case *ConstructorPattern:
		b.WriteString("(" + n.Name)
		writeList(b, n.Args)
		b.WriteString(")")

	case TypeExpr:
		b.WriteString(TypeString(n))

	default:
		fmt.Fprintf(b, "<%T>", n)
	}
}
