package ast

import "github.com/tupa-lang/tupa/internal/lexer"

// Pattern represents a match pattern node.
type Pattern interface {
	Node
	patternNode()
}

// WildcardPattern represents the `_` wildcard.
type WildcardPattern struct {
	spanned
}

// NewWildcardPattern constructs a wildcard pattern.
func NewWildcardPattern(span lexer.Span) *WildcardPattern {
	return &WildcardPattern{spanned: spanned{span}}
}

func (*WildcardPattern) patternNode() {}

// IntPattern matches an integer literal.
type IntPattern struct {
	Value int64
	spanned
}

// NewIntPattern constructs an integer pattern.
func NewIntPattern(value int64, span lexer.Span) *IntPattern {
	return &IntPattern{Value: value, spanned: spanned{span}}
}

func (*IntPattern) patternNode() {}

// StringPattern matches a string literal.
type StringPattern struct {
	Value string
	spanned
}

// NewStringPattern constructs a string pattern.
func NewStringPattern(value string, span lexer.Span) *StringPattern {
	return &StringPattern{Value: value, spanned: spanned{span}}
}

func (*StringPattern) patternNode() {}

// BoolPattern matches `true` or `false`.
type BoolPattern struct {
	Value bool
	spanned
}

// NewBoolPattern constructs a bool pattern.
func NewBoolPattern(value bool, span lexer.Span) *BoolPattern {
	return &BoolPattern{Value: value, spanned: spanned{span}}
}

func (*BoolPattern) patternNode() {}

// IdentPattern binds the scrutinee to a name.
type IdentPattern struct {
	Name string
	spanned
}

// NewIdentPattern constructs a binding pattern.
func NewIdentPattern(name string, span lexer.Span) *IdentPattern {
	return &IdentPattern{Name: name, spanned: spanned{span}}
}

func (*IdentPattern) patternNode() {}

// TuplePattern destructures `(p1, p2, ...)`.
type TuplePattern struct {
	Elems []Pattern
	spanned
}

// NewTuplePattern constructs a tuple pattern.
func NewTuplePattern(elems []Pattern, span lexer.Span) *TuplePattern {
	return &TuplePattern{Elems: elems, spanned: spanned{span}}
}

func (*TuplePattern) patternNode() {}

// ConstructorPattern matches an enum variant, `Some(x)`.
type ConstructorPattern struct {
	Name string
	Args []Pattern
	spanned
}

// NewConstructorPattern constructs a constructor pattern.
func NewConstructorPattern(name string, args []Pattern, span lexer.Span) *ConstructorPattern {
	return &ConstructorPattern{Name: name, Args: args, spanned: spanned{span}}
}

func (*ConstructorPattern) patternNode() {}

// Bindings returns the names a pattern introduces, in source order.
func Bindings(p Pattern) []string {
	var names []string
	var visit func(Pattern)
	visit = func(p Pattern) {
		switch p := p.(type) {
		case *IdentPattern:
			names = append(names, p.Name)
		case *TuplePattern:
			for _, e := range p.Elems {
				visit(e)
			}
		case *ConstructorPattern:
			for _, a := range p.Args {
				visit(a)
			}
		}
	}
	visit(p)
	return names
}
