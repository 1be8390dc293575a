package diag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer     Stage = "lexer"
	StageParser    Stage = "parser"
	StageTypeCheck Stage = "typecheck"
	StageCodegen   Stage = "codegen"
	StagePlan      Stage = "plan"
)

// Severity captures how impactful the diagnostic is. Every diagnostic the
// toolchain emits today is an error.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityNote  Severity = "note"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Lexer errors
	CodeLexerUnexpectedChar Code = "LEXER_UNEXPECTED_CHAR"

	// Parser errors
	CodeParseUnexpectedToken  Code = "PARSE_UNEXPECTED_TOKEN"
	CodeParseMissingSemicolon Code = "PARSE_MISSING_SEMICOLON"
	CodeParseUnexpectedEOF    Code = "PARSE_UNEXPECTED_EOF"
	CodeParseInvalidLiteral   Code = "PARSE_INVALID_LITERAL"

	// Type checker errors
	CodeTypeUnknownType    Code = "TYPE_UNKNOWN_TYPE"
	CodeTypeUnknownVar     Code = "TYPE_UNKNOWN_VAR"
	CodeTypeMismatch       Code = "TYPE_MISMATCH"
	CodeTypeInvalidBinary  Code = "TYPE_INVALID_BINARY"
	CodeTypeInvalidUnary   Code = "TYPE_INVALID_UNARY"
	CodeTypeReturnMismatch Code = "TYPE_RETURN_MISMATCH"
	CodeTypeMissingReturn  Code = "TYPE_MISSING_RETURN"

	// Codegen errors
	CodeGenUnsupported Code = "CODEGEN_UNSUPPORTED"

	// Plan errors
	CodePlanInvalid Code = "PLAN_INVALID"
)

// Span represents a location in source code. Start/End are byte offsets;
// Line and Column are filled in by Locate.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid returns true if the span has valid location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Locate resolves the 1-based line and column of s.Start within src.
// Columns count runes, not bytes.
func (s Span) Locate(src string) Span {
	start := s.Start
	if start > len(src) {
		start = len(src)
	}
	if start < 0 {
		start = 0
	}
	before := src[:start]
	s.Line = strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	s.Column = utf8.RuneCountInString(before[lineStart:]) + 1
	return s
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span
	Notes    []string // Additional notes to display
	Help     string
}

// WithNote adds a note to the diagnostic.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp adds help text to the diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// Diagnoser is implemented by every stage error that can describe itself as
// a diagnostic.
type Diagnoser interface {
	error
	ToDiagnostic() Diagnostic
}
