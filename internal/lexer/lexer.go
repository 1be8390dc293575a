package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tupa-lang/tupa/internal/diag"
)

// LexError reports the first character the lexer could not turn into a token.
type LexError struct {
	Char   rune
	Offset int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unexpected character %q at offset %d", e.Char, e.Offset)
}

// ToDiagnostic converts a lexer error into a shared diagnostic structure.
func (e *LexError) ToDiagnostic() diag.Diagnostic {
	width := utf8.RuneLen(e.Char)
	if width < 1 {
		width = 1
	}
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Code:     diag.CodeLexerUnexpectedChar,
		Message:  fmt.Sprintf("unexpected character %q", e.Char),
		Span:     diag.Span{Start: e.Offset, End: e.Offset + width},
	}
}

// Lexer walks the source text. The remaining input is kept as a suffix of
// src; every offset is derived from how much input is left.
type Lexer struct {
	src  string
	rest string
}

// New creates a new lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{src: input, rest: input}
}

// Lex tokenizes the whole input. It stops at the first unrecognised
// character.
func Lex(input string) ([]Token, error) {
	l := New(input)
	var toks []Token
	for {
		tok, ok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) offset() int {
	return len(l.src) - len(l.rest)
}

func (l *Lexer) fail(r rune) error {
	return &LexError{Char: r, Offset: l.offset()}
}

// Next returns the next token. ok is false once the input is exhausted.
func (l *Lexer) Next() (tok Token, ok bool, err error) {
	l.skipTrivia()
	if l.rest == "" {
		return Token{}, false, nil
	}

	start := l.offset()
	ch := l.rest[0]

	switch {
	case ch == '"':
		value, n, err := l.readString()
		if err != nil {
			return Token{}, false, err
		}
		l.rest = l.rest[n:]
		return Token{Type: STRING, Literal: value, Span: Span{Start: start, End: l.offset()}}, true, nil

	case isDigit(ch):
		text, typ := l.readNumber()
		return Token{Type: typ, Literal: text, Span: Span{Start: start, End: l.offset()}}, true, nil

	case isLetter(ch):
		text := l.readIdentifier()
		return Token{Type: LookupIdent(text), Literal: text, Span: Span{Start: start, End: l.offset()}}, true, nil
	}

	for _, p := range punctuation {
		if strings.HasPrefix(l.rest, string(p)) {
			l.rest = l.rest[len(p):]
			return Token{Type: p, Literal: string(p), Span: Span{Start: start, End: l.offset()}}, true, nil
		}
	}

	r, _ := utf8.DecodeRuneInString(l.rest)
	return Token{}, false, l.fail(r)
}

// skipTrivia drops whitespace, line comments and block comments. An
// unterminated block comment swallows the rest of the input.
func (l *Lexer) skipTrivia() {
	for l.rest != "" {
		switch {
		case l.rest[0] == ' ' || l.rest[0] == '\t' || l.rest[0] == '\n' || l.rest[0] == '\r':
			l.rest = l.rest[1:]
		case strings.HasPrefix(l.rest, "//"):
			if i := strings.IndexByte(l.rest, '\n'); i >= 0 {
				l.rest = l.rest[i+1:]
			} else {
				l.rest = ""
			}
		case strings.HasPrefix(l.rest, "/*"):
			if i := strings.Index(l.rest[2:], "*/"); i >= 0 {
				l.rest = l.rest[2+i+2:]
			} else {
				l.rest = ""
			}
		default:
			return
		}
	}
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	i := 1
	for i < len(l.rest) && (isLetter(l.rest[i]) || isDigit(l.rest[i])) {
		i++
	}
	text := l.rest[:i]
	l.rest = l.rest[i:]
	return text
}

// readNumber reads an integer, or a float when a '.' is followed by at least
// one digit. "1..5" therefore lexes as INT RANGE INT.
func (l *Lexer) readNumber() (string, TokenType) {
	i := 0
	for i < len(l.rest) && isDigit(l.rest[i]) {
		i++
	}
	typ := INT
	if i+1 < len(l.rest) && l.rest[i] == '.' && isDigit(l.rest[i+1]) {
		i++
		for i < len(l.rest) && isDigit(l.rest[i]) {
			i++
		}
		typ = FLOAT
	}
	text := l.rest[:i]
	l.rest = l.rest[i:]
	return text, typ
}

// readString decodes the string literal at the head of the input and
// returns its value and byte length including both quotes. Unterminated
// literals and unknown escapes are reported at the opening quote.
func (l *Lexer) readString() (string, int, error) {
	var b strings.Builder
	i := 1
	for i < len(l.rest) {
		c := l.rest[i]
		switch c {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(l.rest) {
				return "", 0, l.fail('"')
			}
			switch l.rest[i+1] {
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				return "", 0, l.fail('"')
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, l.fail('"')
}

func isLetter(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
