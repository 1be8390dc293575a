package parser

import (
	"errors"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/lexer"
)

// Parser implements a recursive descent parser for Tupã with a
// precedence-climbing expression core.
// Invariants:
//   - Lookahead: tokens[pos] is the token under examination. The only place
//     that looks further ahead than one token is isIndexAssign, which scans a
//     balanced bracket pair.
//   - Errors: parsing is fail-fast. Every parse method returns the first
//     error it hits and callers propagate it unchanged.
//   - Spans: node spans are composed via mergeSpan so a parent span always
//     covers its children.
type Parser struct {
	src    string
	tokens []lexer.Token
	pos    int
}

// New lexes src and returns a parser positioned at the first token.
func New(src string) (*Parser, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		var lexErr *lexer.LexError
		if errors.As(err, &lexErr) {
			return nil, &ParseError{Kind: ErrLexer, Lex: lexErr, Offset: lexErr.Offset}
		}
		return nil, err
	}
	return &Parser{src: src, tokens: toks}, nil
}

// ParseProgram lexes and parses a full compilation unit.
func ParseProgram(src string) (*ast.Program, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	return p.ParseProgram()
}

// ParseExpr lexes and parses a single expression that must span the whole
// input.
func ParseExpr(src string) (ast.Expr, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, unexpected(tok, "end of input")
	}
	return expr, nil
}

// ParseProgram parses items until the token stream is exhausted.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	var items []ast.Item
	for !p.atEnd() {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return ast.NewProgram(items, lexer.Span{Start: 0, End: len(p.src)}), nil
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() (lexer.Token, bool) {
	return p.peekAt(0)
}

// peekAt returns the token n positions ahead of the current one.
func (p *Parser) peekAt(n int) (lexer.Token, bool) {
	if p.pos+n >= len(p.tokens) {
		return lexer.Token{}, false
	}
	return p.tokens[p.pos+n], true
}

// check reports whether the current token has type tt.
func (p *Parser) check(tt lexer.TokenType) bool {
	tok, ok := p.peek()
	return ok && tok.Type == tt
}

// checkAt reports whether the token n ahead has type tt.
func (p *Parser) checkAt(n int, tt lexer.TokenType) bool {
	tok, ok := p.peekAt(n)
	return ok && tok.Type == tt
}

// next consumes and returns the current token. Callers must have checked
// that one exists.
func (p *Parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

// accept consumes the current token when it has type tt.
func (p *Parser) accept(tt lexer.TokenType) (lexer.Token, bool) {
	if p.check(tt) {
		return p.next(), true
	}
	return lexer.Token{}, false
}

// expect consumes a token of type tt or fails with an Unexpected or EOF
// error describing what was wanted.
func (p *Parser) expect(tt lexer.TokenType, what string) (lexer.Token, error) {
	tok, ok := p.peek()
	if !ok {
		return lexer.Token{}, p.eofError(what)
	}
	if tok.Type != tt {
		return lexer.Token{}, unexpected(tok, what)
	}
	p.pos++
	return tok, nil
}

// current returns the current token or an EOF error naming what the caller
// wanted there.
func (p *Parser) current(what string) (lexer.Token, error) {
	tok, ok := p.peek()
	if !ok {
		return lexer.Token{}, p.eofError(what)
	}
	return tok, nil
}

// mergeSpan returns a span running from start.Start to the furthest end.
// Callers pass the earliest span first.
func mergeSpan(start, end lexer.Span) lexer.Span {
	span := start
	if end.End > span.End {
		span.End = end.End
	}
	return span
}

// spanSetter is satisfied by nodes that expose SetSpan. parseGroupedExpr uses
// it to widen spans without wrapping the underlying node in a synthetic AST
// type.
type spanSetter interface {
	SetSpan(lexer.Span)
}
