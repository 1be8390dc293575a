package types

import (
	"fmt"

	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/lexer"
)

// ErrorKind classifies a TypeError.
type ErrorKind int

const (
	ErrUnknownType ErrorKind = iota
	ErrUnknownVar
	ErrMismatch
	ErrInvalidBinary
	ErrInvalidUnary
	ErrReturnMismatch
	ErrMissingReturn
)

var errorKindNames = map[ErrorKind]string{
	ErrUnknownType:    "UnknownType",
	ErrUnknownVar:     "UnknownVar",
	ErrMismatch:       "Mismatch",
	ErrInvalidBinary:  "InvalidBinary",
	ErrInvalidUnary:   "InvalidUnary",
	ErrReturnMismatch: "ReturnMismatch",
	ErrMissingReturn:  "MissingReturn",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// TypeError is the first type error found in a program. Which fields are set
// depends on Kind.
type TypeError struct {
	Kind ErrorKind
	// Name is the unresolved type or variable, or the function for
	// ErrMissingReturn.
	Name string
	// Expected and Found are set for ErrMismatch, ErrReturnMismatch and
	// ErrMissingReturn (Expected only). Found alone is set for ErrInvalidUnary.
	Expected Ty
	Found    Ty
	// Op, Left and Right describe ErrInvalidBinary. Op is also set for
	// ErrInvalidUnary.
	Op    string
	Left  Ty
	Right Ty
	Span  lexer.Span
}

func (e *TypeError) Error() string {
	switch e.Kind {
	case ErrUnknownType:
		return fmt.Sprintf("unknown type `%s`", e.Name)
	case ErrUnknownVar:
		return fmt.Sprintf("unknown variable `%s`", e.Name)
	case ErrMismatch:
		return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
	case ErrInvalidBinary:
		return fmt.Sprintf("invalid operands for `%s`: %s and %s", e.Op, e.Left, e.Right)
	case ErrInvalidUnary:
		return fmt.Sprintf("invalid operand for unary `%s`: %s", e.Op, e.Found)
	case ErrReturnMismatch:
		return fmt.Sprintf("return type mismatch: expected %s, found %s", e.Expected, e.Found)
	case ErrMissingReturn:
		return fmt.Sprintf("function `%s` must return %s but has no return statement", e.Name, e.Expected)
	}
	return e.Kind.String()
}

var errorCodes = map[ErrorKind]diag.Code{
	ErrUnknownType:    diag.CodeTypeUnknownType,
	ErrUnknownVar:     diag.CodeTypeUnknownVar,
	ErrMismatch:       diag.CodeTypeMismatch,
	ErrInvalidBinary:  diag.CodeTypeInvalidBinary,
	ErrInvalidUnary:   diag.CodeTypeInvalidUnary,
	ErrReturnMismatch: diag.CodeTypeReturnMismatch,
	ErrMissingReturn:  diag.CodeTypeMissingReturn,
}

// ToDiagnostic converts the type error into a shared diagnostic structure.
func (e *TypeError) ToDiagnostic() diag.Diagnostic {
	d := diag.Diagnostic{
		Stage:    diag.StageTypeCheck,
		Severity: diag.SeverityError,
		Code:     errorCodes[e.Kind],
		Message:  e.Error(),
		Span:     diag.Span{Start: e.Span.Start, End: e.Span.End},
	}
	switch e.Kind {
	case ErrInvalidBinary:
		if IsNumeric(e.Left) && IsNumeric(e.Right) {
			d = d.WithHelp("i64 and f64 are never converted implicitly")
		}
	case ErrMissingReturn:
		d = d.WithNote("a trailing expression does not count as the function's return value")
	}
	return d
}
