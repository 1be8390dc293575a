package diag

import (
	"fmt"
	"io"
	"strings"
)

// Formatter formats diagnostics in a Rust-style format with source code snippets.
type Formatter struct {
	w io.Writer
}

// NewFormatter creates a new diagnostic formatter writing to w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// Format prints d. When src is non-empty the offending line is shown with
// the span underlined.
func (f *Formatter) Format(d Diagnostic, src string) {
	if src != "" {
		d.Span = d.Span.Locate(src)
	}

	f.printHeader(d)

	if d.Span.IsValid() {
		fmt.Fprintf(f.w, "  --> %s\n", d.Span.String())
		if src != "" {
			f.printSnippet(d.Span, src)
		}
	}

	f.printHelp(d)
}

// printHeader prints the error header (error[CODE]: message).
func (f *Formatter) printHeader(d Diagnostic) {
	severity := string(d.Severity)
	if severity == "" {
		severity = string(SeverityError)
	}

	if d.Code != "" {
		fmt.Fprintf(f.w, "%s[%s]: %s\n", severity, d.Code, d.Message)
	} else {
		fmt.Fprintf(f.w, "%s: %s\n", severity, d.Message)
	}
}

// printSnippet prints the line holding span with a caret underline. Spans
// running past the end of the line are clipped to it.
func (f *Formatter) printSnippet(span Span, src string) {
	lines := strings.Split(src, "\n")
	if span.Line > len(lines) {
		return
	}
	lineContent := lines[span.Line-1]
	lineNumStr := fmt.Sprintf("%d", span.Line)
	pad := strings.Repeat(" ", len(lineNumStr))

	fmt.Fprintf(f.w, " %s |\n", pad)
	fmt.Fprintf(f.w, " %s | %s\n", lineNumStr, lineContent)

	width := span.End - span.Start
	if width < 1 {
		width = 1
	}
	col := span.Column - 1
	if rest := len([]rune(lineContent)) - col; width > rest && rest > 0 {
		width = rest
	}
	fmt.Fprintf(f.w, " %s | %s%s\n", pad, strings.Repeat(" ", col), strings.Repeat("^", width))
}

// printHelp prints notes and help text.
func (f *Formatter) printHelp(d Diagnostic) {
	for _, note := range d.Notes {
		fmt.Fprintf(f.w, "  = note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.w, "help: %s\n", d.Help)
	}
}
