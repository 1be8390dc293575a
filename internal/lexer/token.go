package lexer

import "sort"

// TokenType represents the type of a token
type TokenType string

// Span represents the source location of a token or AST node as a half-open
// range of byte offsets.
type Span struct {
	Start int // offset of the first byte
	End   int // exclusive end offset
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string // identifier name, decoded string value, or number text
	Span    Span
}

// Token type constants
const (
	// Identifiers and literals
	IDENT  TokenType = "IDENT"  // add, foobar, x, y, ...
	INT    TokenType = "INT"    // 1343456
	FLOAT  TokenType = "FLOAT"  // 3.14
	STRING TokenType = "STRING" // "hello"

	// Operators
	ASSIGN          TokenType = "="
	FATARROW        TokenType = "=>"
	PLUS            TokenType = "+"
	MINUS           TokenType = "-"
	BANG            TokenType = "!"
	ASTERISK        TokenType = "*"
	POW             TokenType = "**"
	SLASH           TokenType = "/"
	AND             TokenType = "&&"
	OR              TokenType = "||"
	PIPE            TokenType = "|"
	RANGE           TokenType = ".."
	PLUS_ASSIGN     TokenType = "+="
	MINUS_ASSIGN    TokenType = "-="
	ASTERISK_ASSIGN TokenType = "*="
	SLASH_ASSIGN    TokenType = "/="

	LT     TokenType = "<"
	GT     TokenType = ">"
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LE     TokenType = "<="
	GE     TokenType = ">="

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	COLON     TokenType = ":"
	DOT       TokenType = "."

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"

	ARROW TokenType = "->"

	// Keywords
	LET      TokenType = "LET"
	FN       TokenType = "FN"
	ENUM     TokenType = "ENUM"
	TRAIT    TokenType = "TRAIT"
	IF       TokenType = "IF"
	ELSE     TokenType = "ELSE"
	MATCH    TokenType = "MATCH"
	WHILE    TokenType = "WHILE"
	FOR      TokenType = "FOR"
	IN       TokenType = "IN"
	BREAK    TokenType = "BREAK"
	CONTINUE TokenType = "CONTINUE"
	RETURN   TokenType = "RETURN"
	AWAIT    TokenType = "AWAIT"
	TRUE     TokenType = "TRUE"
	FALSE    TokenType = "FALSE"
	NULL     TokenType = "NULL"
)

var keywords = map[string]TokenType{
	"let":      LET,
	"fn":       FN,
	"enum":     ENUM,
	"trait":    TRAIT,
	"if":       IF,
	"else":     ELSE,
	"match":    MATCH,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"await":    AWAIT,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
}

// LookupIdent checks if the identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// punctuation lists every operator and delimiter, longest first, so a
// linear scan implements longest-match.
var punctuation = []TokenType{
	POW, AND, OR, RANGE, EQ, NOT_EQ, LE, GE,
	PLUS_ASSIGN, MINUS_ASSIGN, ASTERISK_ASSIGN, SLASH_ASSIGN,
	ARROW, FATARROW,

	ASSIGN, PLUS, MINUS, BANG, ASTERISK, SLASH, PIPE, LT, GT,
	COMMA, SEMICOLON, COLON, DOT,
	LPAREN, RPAREN, LBRACE, RBRACE, LBRACKET, RBRACKET,
}

// Describe returns the token as it would appear in a diagnostic.
func (t Token) Describe() string {
	switch t.Type {
	case IDENT, INT, FLOAT:
		return t.Literal
	case STRING:
		return `"` + t.Literal + `"`
	}
	if t.Literal != "" {
		return t.Literal
	}
	return string(t.Type)
}

// Keywords returns every reserved word, sorted.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for kw := range keywords {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}
