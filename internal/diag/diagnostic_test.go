package diag_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tupa-lang/tupa/internal/diag"
)

func TestSpanLocate(t *testing.T) {
	src := "fn main() {\n  let x = @;\n}"

	span := diag.Span{Start: 22, End: 23}.Locate(src)

	assert.Equal(t, 2, span.Line)
	assert.Equal(t, 11, span.Column)
	assert.True(t, span.IsValid())
	assert.Equal(t, "2:11", span.String())
}

func TestSpanLocateClampsOutOfRange(t *testing.T) {
	span := diag.Span{Start: 100, End: 100}.Locate("ab\nc")
	assert.Equal(t, 2, span.Line)
	assert.Equal(t, 2, span.Column)
}

func TestFormatterPrintsSnippet(t *testing.T) {
	src := "fn main() {\n  let x = @;\n}"
	var buf bytes.Buffer

	d := diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Code:     diag.CodeLexerUnexpectedChar,
		Message:  "unexpected character '@'",
		Span:     diag.Span{Filename: "main.tp", Start: 22, End: 23},
	}.WithHelp("remove the character")

	diag.NewFormatter(&buf).Format(d, src)

	out := buf.String()
	assert.Contains(t, out, "error[LEXER_UNEXPECTED_CHAR]: unexpected character '@'")
	assert.Contains(t, out, "  --> main.tp:2:11")
	assert.Contains(t, out, " 2 |   let x = @;")
	assert.Contains(t, out, "   |           ^\n")
	assert.Contains(t, out, "help: remove the character")
}

func TestFormatterWithoutSource(t *testing.T) {
	var buf bytes.Buffer
	diag.NewFormatter(&buf).Format(diag.Diagnostic{Message: "boom"}.WithNote("context"), "")
	assert.Equal(t, "error: boom\n  = note: context\n", buf.String())
}
