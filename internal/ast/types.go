package ast

import "github.com/tupa-lang/tupa/internal/lexer"

// NamedType is a nominal or primitive type such as `i64` or `Row`.
type NamedType struct {
	Name string
	spanned
}

// NewNamedType constructs a named type node.
func NewNamedType(name string, span lexer.Span) *NamedType {
	return &NamedType{Name: name, spanned: spanned{span}}
}

func (*NamedType) typeNode() {}

// GenericType is `Name<Args...>`.
type GenericType struct {
	Name string
	Args []TypeExpr
	spanned
}

// NewGenericType constructs a generic type node.
func NewGenericType(name string, args []TypeExpr, span lexer.Span) *GenericType {
	return &GenericType{Name: name, Args: args, spanned: spanned{span}}
}

func (*GenericType) typeNode() {}

// TupleType is `(A, B)`; the empty tuple `()` is unit.
type TupleType struct {
	Elems []TypeExpr
	spanned
}

// NewTupleType constructs a tuple type node.
func NewTupleType(elems []TypeExpr, span lexer.Span) *TupleType {
	return &TupleType{Elems: elems, spanned: spanned{span}}
}

func (*TupleType) typeNode() {}

// SafeType is the refinement type `Safe<Base, !c1, !c2>`. Constraints hold
// the names without the leading `!`.
type SafeType struct {
	Base        TypeExpr
	Constraints []string
	spanned
}

// NewSafeType constructs a refinement type node.
func NewSafeType(base TypeExpr, constraints []string, span lexer.Span) *SafeType {
	return &SafeType{Base: base, Constraints: constraints, spanned: spanned{span}}
}

func (*SafeType) typeNode() {}

// ArrayType is the fixed-size array `[T; N]`.
type ArrayType struct {
	Elem TypeExpr
	Len  int64
	spanned
}

// NewArrayType constructs an array type node.
func NewArrayType(elem TypeExpr, n int64, span lexer.Span) *ArrayType {
	return &ArrayType{Elem: elem, Len: n, spanned: spanned{span}}
}

func (*ArrayType) typeNode() {}

// SliceType is the dynamically sized `[T]`.
type SliceType struct {
	Elem TypeExpr
	spanned
}

// NewSliceType constructs a slice type node.
func NewSliceType(elem TypeExpr, span lexer.Span) *SliceType {
	return &SliceType{Elem: elem, spanned: spanned{span}}
}

func (*SliceType) typeNode() {}

// FuncType is `fn(A, B) -> R`.
type FuncType struct {
	Params []TypeExpr
	Return TypeExpr
	spanned
}

// NewFuncType constructs a function type node.
func NewFuncType(params []TypeExpr, ret TypeExpr, span lexer.Span) *FuncType {
	return &FuncType{Params: params, Return: ret, spanned: spanned{span}}
}

func (*FuncType) typeNode() {}
