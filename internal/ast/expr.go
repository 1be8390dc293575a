package ast

import "github.com/tupa-lang/tupa/internal/lexer"

// Ident represents an identifier.
type Ident struct {
	Name string
	spanned
}

// NewIdent constructs an identifier node.
func NewIdent(name string, span lexer.Span) *Ident {
	return &Ident{Name: name, spanned: spanned{span}}
}

func (*Ident) exprNode() {}

// IntLit represents an integer literal.
type IntLit struct {
	Value int64
	spanned
}

// NewIntLit constructs an integer literal node.
func NewIntLit(value int64, span lexer.Span) *IntLit {
	return &IntLit{Value: value, spanned: spanned{span}}
}

func (*IntLit) exprNode() {}

// FloatLit represents a floating point literal.
type FloatLit struct {
	Value float64
	spanned
}

// NewFloatLit constructs a float literal node.
func NewFloatLit(value float64, span lexer.Span) *FloatLit {
	return &FloatLit{Value: value, spanned: spanned{span}}
}

func (*FloatLit) exprNode() {}

// StringLit represents a decoded string literal.
type StringLit struct {
	Value string
	spanned
}

// NewStringLit constructs a string literal node.
func NewStringLit(value string, span lexer.Span) *StringLit {
	return &StringLit{Value: value, spanned: spanned{span}}
}

func (*StringLit) exprNode() {}

// BoolLit represents `true` or `false`.
type BoolLit struct {
	Value bool
	spanned
}

// NewBoolLit constructs a bool literal node.
func NewBoolLit(value bool, span lexer.Span) *BoolLit {
	return &BoolLit{Value: value, spanned: spanned{span}}
}

func (*BoolLit) exprNode() {}

// NullLit represents `null`.
type NullLit struct {
	spanned
}

// NewNullLit constructs a null literal node.
func NewNullLit(span lexer.Span) *NullLit {
	return &NullLit{spanned: spanned{span}}
}

func (*NullLit) exprNode() {}

// LambdaExpr represents `|a, b| body`.
type LambdaExpr struct {
	Params []*Ident
	Body   Expr
	spanned
}

// NewLambdaExpr constructs a lambda node.
func NewLambdaExpr(params []*Ident, body Expr, span lexer.Span) *LambdaExpr {
	return &LambdaExpr{Params: params, Body: body, spanned: spanned{span}}
}

func (*LambdaExpr) exprNode() {}

// AssignExpr represents `name = value`. Compound assignments are desugared
// into this form by the parser.
type AssignExpr struct {
	Name  *Ident
	Value Expr
	spanned
}

// NewAssignExpr constructs an assignment node.
func NewAssignExpr(name *Ident, value Expr, span lexer.Span) *AssignExpr {
	return &AssignExpr{Name: name, Value: value, spanned: spanned{span}}
}

func (*AssignExpr) exprNode() {}

// AssignIndexExpr represents `target[index] = value`.
type AssignIndexExpr struct {
	Target Expr
	Index  Expr
	Value  Expr
	spanned
}

// NewAssignIndexExpr constructs an index assignment node.
func NewAssignIndexExpr(target, index, value Expr, span lexer.Span) *AssignIndexExpr {
	return &AssignIndexExpr{Target: target, Index: index, Value: value, spanned: spanned{span}}
}

func (*AssignIndexExpr) exprNode() {}

// ArrayLit represents `[a, b, c]`.
type ArrayLit struct {
	Elems []Expr
	spanned
}

// NewArrayLit constructs an array literal node.
func NewArrayLit(elems []Expr, span lexer.Span) *ArrayLit {
	return &ArrayLit{Elems: elems, spanned: spanned{span}}
}

func (*ArrayLit) exprNode() {}

// CallExpr represents `callee(args...)`.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	spanned
}

// NewCallExpr constructs a call node.
func NewCallExpr(callee Expr, args []Expr, span lexer.Span) *CallExpr {
	return &CallExpr{Callee: callee, Args: args, spanned: spanned{span}}
}

func (*CallExpr) exprNode() {}

// FieldAccess is the right-hand side of a `.` access: either a named field
// or a tuple position.
type FieldAccess struct {
	Name    string
	Index   int64
	IsIndex bool
}

// NamedField returns a FieldAccess for `.name`.
func NamedField(name string) FieldAccess { return FieldAccess{Name: name} }

// TupleIndex returns a FieldAccess for `.0`.
func TupleIndex(i int64) FieldAccess { return FieldAccess{Index: i, IsIndex: true} }

// FieldExpr represents `target.field` or `target.0`.
type FieldExpr struct {
	Target Expr
	Field  FieldAccess
	spanned
}

// NewFieldExpr constructs a field access node.
func NewFieldExpr(target Expr, field FieldAccess, span lexer.Span) *FieldExpr {
	return &FieldExpr{Target: target, Field: field, spanned: spanned{span}}
}

func (*FieldExpr) exprNode() {}

// IndexExpr represents `target[index]`.
type IndexExpr struct {
	Target Expr
	Index  Expr
	spanned
}

// NewIndexExpr constructs an index node.
func NewIndexExpr(target, index Expr, span lexer.Span) *IndexExpr {
	return &IndexExpr{Target: target, Index: index, spanned: spanned{span}}
}

func (*IndexExpr) exprNode() {}

// AwaitExpr represents `await value`.
type AwaitExpr struct {
	Value Expr
	spanned
}

// NewAwaitExpr constructs an await node.
func NewAwaitExpr(value Expr, span lexer.Span) *AwaitExpr {
	return &AwaitExpr{Value: value, spanned: spanned{span}}
}

func (*AwaitExpr) exprNode() {}

// BlockExpr represents a brace-delimited statement list. Its value is the
// value of its last top-level return statement, or unit.
type BlockExpr struct {
	Stmts []Stmt
	spanned
}

// NewBlockExpr constructs a block node.
func NewBlockExpr(stmts []Stmt, span lexer.Span) *BlockExpr {
	return &BlockExpr{Stmts: stmts, spanned: spanned{span}}
}

func (*BlockExpr) exprNode() {}

// LastReturn returns the last return statement directly inside the block.
func (b *BlockExpr) LastReturn() *ReturnStmt {
	for i := len(b.Stmts) - 1; i >= 0; i-- {
		if ret, ok := b.Stmts[i].(*ReturnStmt); ok {
			return ret
		}
	}
	return nil
}

// IfExpr represents `if cond { ... } else ...`. Else is nil, a *BlockExpr,
// or an *IfExpr for an `else if` chain.
type IfExpr struct {
	Condition Expr
	Then      *BlockExpr
	Else      Expr
	spanned
}

// NewIfExpr constructs an if node.
func NewIfExpr(cond Expr, then *BlockExpr, els Expr, span lexer.Span) *IfExpr {
	return &IfExpr{Condition: cond, Then: then, Else: els, spanned: spanned{span}}
}

func (*IfExpr) exprNode() {}

// MatchArm is `pattern [if guard] => body`.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil without a guard
	Body    Expr
	spanned
}

// NewMatchArm constructs a match arm.
func NewMatchArm(pattern Pattern, guard, body Expr, span lexer.Span) *MatchArm {
	return &MatchArm{Pattern: pattern, Guard: guard, Body: body, spanned: spanned{span}}
}

// MatchExpr represents `match subject { arms... }`.
type MatchExpr struct {
	Subject Expr
	Arms    []*MatchArm
	spanned
}

// NewMatchExpr constructs a match node.
func NewMatchExpr(subject Expr, arms []*MatchArm, span lexer.Span) *MatchExpr {
	return &MatchExpr{Subject: subject, Arms: arms, spanned: spanned{span}}
}

func (*MatchExpr) exprNode() {}

// UnaryExpr represents a prefix operator application.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
	spanned
}

// NewUnaryExpr constructs a unary node.
func NewUnaryExpr(op UnaryOp, operand Expr, span lexer.Span) *UnaryExpr {
	return &UnaryExpr{Op: op, Operand: operand, spanned: spanned{span}}
}

func (*UnaryExpr) exprNode() {}

// BinaryExpr represents an infix operator application.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
	spanned
}

// NewBinaryExpr constructs a binary node.
func NewBinaryExpr(op BinaryOp, left, right Expr, span lexer.Span) *BinaryExpr {
	return &BinaryExpr{Op: op, Left: left, Right: right, spanned: spanned{span}}
}

func (*BinaryExpr) exprNode() {}
