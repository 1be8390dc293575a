package ast

import "github.com/tupa-lang/tupa/internal/lexer"

// Node represents any AST node with an associated source span.
type Node interface {
	Span() lexer.Span
}

// Expr represents an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Item represents a top-level declaration.
type Item interface {
	Node
	itemNode()
}

// TypeExpr represents a type annotation expression.
type TypeExpr interface {
	Node
	typeNode()
}

// spanned carries the span shared by every node.
type spanned struct {
	span lexer.Span
}

// Span returns the node span.
func (s *spanned) Span() lexer.Span { return s.span }

// SetSpan updates the node span.
func (s *spanned) SetSpan(span lexer.Span) { s.span = span }

// Program is the root of a parsed source file. Items keep declaration order.
type Program struct {
	Items []Item
	spanned
}

// NewProgram constructs a program node.
func NewProgram(items []Item, span lexer.Span) *Program {
	return &Program{Items: items, spanned: spanned{span}}
}

// Functions returns the function declarations in declaration order.
func (p *Program) Functions() []*FnDecl {
	var fns []*FnDecl
	for _, item := range p.Items {
		if fn, ok := item.(*FnDecl); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Function looks up a function declaration by name.
func (p *Program) Function(name string) *FnDecl {
	for _, fn := range p.Functions() {
		if fn.Name.Name == name {
			return fn
		}
	}
	return nil
}

// FnDecl represents a function declaration.
type FnDecl struct {
	Name       *Ident
	Params     []*Param
	ReturnType TypeExpr // nil when omitted
	Body       *BlockExpr
	spanned
}

// NewFnDecl constructs a function declaration node.
func NewFnDecl(name *Ident, params []*Param, returnType TypeExpr, body *BlockExpr, span lexer.Span) *FnDecl {
	return &FnDecl{
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		spanned:    spanned{span},
	}
}

func (*FnDecl) itemNode() {}

// Param represents a function parameter.
type Param struct {
	Name *Ident
	Type TypeExpr
	spanned
}

// NewParam constructs a parameter node.
func NewParam(name *Ident, typ TypeExpr, span lexer.Span) *Param {
	return &Param{Name: name, Type: typ, spanned: spanned{span}}
}

// EnumDecl represents `enum Name<G...> { Variant(T...), ... }`.
type EnumDecl struct {
	Name     *Ident
	Generics []*Ident
	Variants []*EnumVariant
	spanned
}

// NewEnumDecl constructs an enum declaration node.
func NewEnumDecl(name *Ident, generics []*Ident, variants []*EnumVariant, span lexer.Span) *EnumDecl {
	return &EnumDecl{Name: name, Generics: generics, Variants: variants, spanned: spanned{span}}
}

func (*EnumDecl) itemNode() {}

// EnumVariant is a single enum variant with optional positional payload types.
type EnumVariant struct {
	Name   *Ident
	Fields []TypeExpr
	spanned
}

// NewEnumVariant constructs an enum variant node.
func NewEnumVariant(name *Ident, fields []TypeExpr, span lexer.Span) *EnumVariant {
	return &EnumVariant{Name: name, Fields: fields, spanned: spanned{span}}
}

// TraitDecl represents `trait Name { fn m(...) -> T; ... }`.
type TraitDecl struct {
	Name    *Ident
	Methods []*TraitMethod
	spanned
}

// NewTraitDecl constructs a trait declaration node.
func NewTraitDecl(name *Ident, methods []*TraitMethod, span lexer.Span) *TraitDecl {
	return &TraitDecl{Name: name, Methods: methods, spanned: spanned{span}}
}

func (*TraitDecl) itemNode() {}

// TraitMethod is a method signature inside a trait, with an optional default body.
type TraitMethod struct {
	Name       *Ident
	Params     []*Param
	ReturnType TypeExpr
	Body       *BlockExpr
	spanned
}

// NewTraitMethod constructs a trait method node.
func NewTraitMethod(name *Ident, params []*Param, returnType TypeExpr, body *BlockExpr, span lexer.Span) *TraitMethod {
	return &TraitMethod{Name: name, Params: params, ReturnType: returnType, Body: body, spanned: spanned{span}}
}

// LetStmt represents a let binding statement.
type LetStmt struct {
	Name  *Ident
	Type  TypeExpr // nil when inferred
	Value Expr
	spanned
}

// NewLetStmt constructs a let statement node.
func NewLetStmt(name *Ident, typ TypeExpr, value Expr, span lexer.Span) *LetStmt {
	return &LetStmt{Name: name, Type: typ, Value: value, spanned: spanned{span}}
}

func (*LetStmt) stmtNode() {}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	Value Expr // nil for a bare `return;`
	spanned
}

// NewReturnStmt constructs a return statement node.
func NewReturnStmt(value Expr, span lexer.Span) *ReturnStmt {
	return &ReturnStmt{Value: value, spanned: spanned{span}}
}

func (*ReturnStmt) stmtNode() {}

// WhileStmt represents a while loop.
type WhileStmt struct {
	Condition Expr
	Body      *BlockExpr
	spanned
}

// NewWhileStmt constructs a while statement node.
func NewWhileStmt(cond Expr, body *BlockExpr, span lexer.Span) *WhileStmt {
	return &WhileStmt{Condition: cond, Body: body, spanned: spanned{span}}
}

func (*WhileStmt) stmtNode() {}

// ForStmt represents `for name in iter { ... }`.
type ForStmt struct {
	Name     *Ident
	Iterable Expr
	Body     *BlockExpr
	spanned
}

// NewForStmt constructs a for statement node.
func NewForStmt(name *Ident, iterable Expr, body *BlockExpr, span lexer.Span) *ForStmt {
	return &ForStmt{Name: name, Iterable: iterable, Body: body, spanned: spanned{span}}
}

func (*ForStmt) stmtNode() {}

// BreakStmt represents `break;`.
type BreakStmt struct {
	spanned
}

// NewBreakStmt constructs a break statement node.
func NewBreakStmt(span lexer.Span) *BreakStmt {
	return &BreakStmt{spanned: spanned{span}}
}

func (*BreakStmt) stmtNode() {}

// ContinueStmt represents `continue;`.
type ContinueStmt struct {
	spanned
}

// NewContinueStmt constructs a continue statement node.
func NewContinueStmt(span lexer.Span) *ContinueStmt {
	return &ContinueStmt{spanned: spanned{span}}
}

func (*ContinueStmt) stmtNode() {}

// ExprStmt represents an expression statement.
type ExprStmt struct {
	Expr Expr
	spanned
}

// NewExprStmt constructs an expression statement node.
func NewExprStmt(expr Expr, span lexer.Span) *ExprStmt {
	return &ExprStmt{Expr: expr, spanned: spanned{span}}
}

func (*ExprStmt) stmtNode() {}

// LambdaStmt is a lambda written in statement position.
type LambdaStmt struct {
	Params []*Ident
	Body   Expr
	spanned
}

// NewLambdaStmt constructs a lambda statement node.
func NewLambdaStmt(params []*Ident, body Expr, span lexer.Span) *LambdaStmt {
	return &LambdaStmt{Params: params, Body: body, spanned: spanned{span}}
}

func (*LambdaStmt) stmtNode() {}
