package types

import "fmt"

// Ty is a semantic type assigned by the checker. It is distinct from the
// surface ast.TypeExpr written in source.
type Ty interface {
	String() string
	// IsType is a marker method to ensure type safety.
	IsType()
}

// PrimitiveKind represents the kind of a primitive type.
type PrimitiveKind string

const (
	I64     PrimitiveKind = "i64"
	F64     PrimitiveKind = "f64"
	Bool    PrimitiveKind = "bool"
	String  PrimitiveKind = "String"
	Null    PrimitiveKind = "null"
	Unit    PrimitiveKind = "()"
	Unknown PrimitiveKind = "unknown"
)

// Primitive represents a primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

func (p *Primitive) String() string { return string(p.Kind) }
func (p *Primitive) IsType()        {}

// Common primitive instances
var (
	TypeI64     = &Primitive{Kind: I64}
	TypeF64     = &Primitive{Kind: F64}
	TypeBool    = &Primitive{Kind: Bool}
	TypeString  = &Primitive{Kind: String}
	TypeNull    = &Primitive{Kind: Null}
	TypeUnit    = &Primitive{Kind: Unit}
	TypeUnknown = &Primitive{Kind: Unknown}
)

// Array is a fixed-size array `[T; N]`.
type Array struct {
	Elem Ty
	Len  int64
}

func (a *Array) String() string { return fmt.Sprintf("[%s; %d]", a.Elem, a.Len) }
func (a *Array) IsType()        {}

// Slice is a dynamically sized sequence `[T]`.
type Slice struct {
	Elem Ty
}

func (s *Slice) String() string { return "[" + s.Elem.String() + "]" }
func (s *Slice) IsType()        {}

func isKind(t Ty, kind PrimitiveKind) bool {
	p, ok := t.(*Primitive)
	return ok && p.Kind == kind
}

// IsUnknown reports whether t is the unknown type.
func IsUnknown(t Ty) bool { return isKind(t, Unknown) }

// IsNumeric reports whether t is i64 or f64.
func IsNumeric(t Ty) bool { return isKind(t, I64) || isKind(t, F64) }

// Equal reports structural equality.
func Equal(a, b Ty) bool {
	switch a := a.(type) {
	case *Primitive:
		b, ok := b.(*Primitive)
		return ok && a.Kind == b.Kind
	case *Array:
		b, ok := b.(*Array)
		return ok && a.Len == b.Len && Equal(a.Elem, b.Elem)
	case *Slice:
		b, ok := b.(*Slice)
		return ok && Equal(a.Elem, b.Elem)
	}
	return false
}

// elemOf returns the element type of an array or slice.
func elemOf(t Ty) (Ty, bool) {
	switch t := t.(type) {
	case *Array:
		return t.Elem, true
	case *Slice:
		return t.Elem, true
	}
	return nil, false
}
