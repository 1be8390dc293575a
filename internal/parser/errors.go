package parser

import (
	"fmt"

	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/lexer"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	// ErrLexer wraps a failure from the lexer.
	ErrLexer ErrorKind = iota
	// ErrUnexpected reports a token the grammar did not allow.
	ErrUnexpected
	// ErrMissingSemicolon reports an expression statement without its ';'.
	ErrMissingSemicolon
	// ErrEOF reports input ending in the middle of a construct.
	ErrEOF
)

func (k ErrorKind) String() string {
	switch k {
	case ErrLexer:
		return "lexer"
	case ErrUnexpected:
		return "unexpected"
	case ErrMissingSemicolon:
		return "missing-semicolon"
	case ErrEOF:
		return "eof"
	}
	return "unknown"
}

// ParseError is the first error encountered while parsing. Parsing never
// recovers, so a program either parses completely or yields exactly one
// ParseError.
type ParseError struct {
	Kind ErrorKind

	// Token is the offending token for ErrUnexpected and, when one exists,
	// the token found instead of ';' for ErrMissingSemicolon.
	Token lexer.Token
	// Span locates ErrUnexpected and ErrMissingSemicolon.
	Span lexer.Span
	// Offset is the synthesized end-of-input position for ErrEOF.
	Offset int
	// Expected describes what the parser was looking for, when known.
	Expected string
	// Lex is the lexer failure for ErrLexer.
	Lex *lexer.LexError
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrLexer:
		return "lex error: " + e.Lex.Error()
	case ErrMissingSemicolon:
		return fmt.Sprintf("expected ';' after expression at %d..%d", e.Span.Start, e.Span.End)
	case ErrEOF:
		if e.Expected != "" {
			return fmt.Sprintf("unexpected end of input at offset %d, expected %s", e.Offset, e.Expected)
		}
		return fmt.Sprintf("unexpected end of input at offset %d", e.Offset)
	default:
		msg := fmt.Sprintf("unexpected token `%s` at %d..%d", e.Token.Describe(), e.Span.Start, e.Span.End)
		if e.Expected != "" {
			msg += ", expected " + e.Expected
		}
		return msg
	}
}

// Unwrap exposes the lexer error for errors.As.
func (e *ParseError) Unwrap() error {
	if e.Lex != nil {
		return e.Lex
	}
	return nil
}

// ToDiagnostic converts the parse error into a shared diagnostic structure.
func (e *ParseError) ToDiagnostic() diag.Diagnostic {
	switch e.Kind {
	case ErrLexer:
		return e.Lex.ToDiagnostic()
	case ErrMissingSemicolon:
		return diag.Diagnostic{
			Stage:    diag.StageParser,
			Severity: diag.SeverityError,
			Code:     diag.CodeParseMissingSemicolon,
			Message:  "expected ';' after expression",
			Span:     diag.Span{Start: e.Span.Start, End: e.Span.End},
			Help:     "statements must end with a semicolon `;` unless they are the last one in a block",
		}
	case ErrEOF:
		d := diag.Diagnostic{
			Stage:    diag.StageParser,
			Severity: diag.SeverityError,
			Code:     diag.CodeParseUnexpectedEOF,
			Message:  "unexpected end of input",
			Span:     diag.Span{Start: e.Offset, End: e.Offset},
		}
		if e.Expected != "" {
			d.Message += ", expected " + e.Expected
			d = d.WithNote("this is often a missing closing brace `}`")
		}
		return d
	default:
		d := diag.Diagnostic{
			Stage:    diag.StageParser,
			Severity: diag.SeverityError,
			Code:     diag.CodeParseUnexpectedToken,
			Message:  fmt.Sprintf("unexpected token `%s`", e.Token.Describe()),
			Span:     diag.Span{Start: e.Span.Start, End: e.Span.End},
		}
		if e.Expected != "" {
			d.Message += ", expected " + e.Expected
		}
		return d
	}
}

func (p *Parser) eofError(expected string) error {
	return &ParseError{Kind: ErrEOF, Offset: len(p.src), Expected: expected}
}

func unexpected(tok lexer.Token, expected string) error {
	return &ParseError{Kind: ErrUnexpected, Token: tok, Span: tok.Span, Expected: expected}
}
