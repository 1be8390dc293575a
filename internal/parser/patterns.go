package parser

import (
	"strconv"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/lexer"
)

// parsePattern parses a match pattern: `_`, a literal, a binding, a tuple
// `(p, ...)` or a constructor `Name(p, ...)`.
func (p *Parser) parsePattern() (ast.Pattern, error) {
	tok, err := p.current("pattern")
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case lexer.IDENT:
		p.next()
		if tok.Literal == "_" {
			return ast.NewWildcardPattern(tok.Span), nil
		}
		if !p.check(lexer.LPAREN) {
			return ast.NewIdentPattern(tok.Literal, tok.Span), nil
		}
		p.next()
		args, end, err := p.parsePatternList()
		if err != nil {
			return nil, err
		}
		return ast.NewConstructorPattern(tok.Literal, args, mergeSpan(tok.Span, end)), nil
	case lexer.INT:
		p.next()
		return p.intPattern(tok, tok.Literal, tok.Span)
	case lexer.MINUS:
		p.next()
		num, err := p.expect(lexer.INT, "integer literal")
		if err != nil {
			return nil, err
		}
		return p.intPattern(num, "-"+num.Literal, mergeSpan(tok.Span, num.Span))
	case lexer.STRING:
		p.next()
		return ast.NewStringPattern(tok.Literal, tok.Span), nil
	case lexer.TRUE, lexer.FALSE:
		p.next()
		return ast.NewBoolPattern(tok.Type == lexer.TRUE, tok.Span), nil
	case lexer.LPAREN:
		p.next()
		elems, end, err := p.parsePatternList()
		if err != nil {
			return nil, err
		}
		return ast.NewTuplePattern(elems, mergeSpan(tok.Span, end)), nil
	}
	return nil, unexpected(tok, "pattern")
}

func (p *Parser) intPattern(tok lexer.Token, literal string, span lexer.Span) (ast.Pattern, error) {
	value, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return nil, unexpected(tok, "integer literal within i64 range")
	}
	return ast.NewIntPattern(value, span), nil
}

// parsePatternList parses patterns after an opening `(` through the closing
// `)` and returns the closing paren's span.
func (p *Parser) parsePatternList() ([]ast.Pattern, lexer.Span, error) {
	var pats []ast.Pattern
	for !p.check(lexer.RPAREN) {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, lexer.Span{}, err
		}
		pats = append(pats, pat)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	rparen, err := p.expect(lexer.RPAREN, "`)`")
	if err != nil {
		return nil, lexer.Span{}, err
	}
	return pats, rparen.Span, nil
}
