package parser

import (
	"strconv"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/lexer"
)

// parseType parses a type annotation:
//
//	Name | Name<T, ...> | Safe<T, !c, ...> | (T, ...) | [T; N] | [T] | fn(T, ...) -> T
func (p *Parser) parseType() (ast.TypeExpr, error) {
	tok, err := p.current("type")
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case lexer.IDENT:
		p.next()
		if !p.check(lexer.LT) {
			return ast.NewNamedType(tok.Literal, tok.Span), nil
		}
		p.next()
		if tok.Literal == "Safe" {
			return p.parseSafeType(tok)
		}
		args, err := p.parseTypeList(lexer.GT)
		if err != nil {
			return nil, err
		}
		gt, err := p.expect(lexer.GT, "`>`")
		if err != nil {
			return nil, err
		}
		return ast.NewGenericType(tok.Literal, args, mergeSpan(tok.Span, gt.Span)), nil

	case lexer.LPAREN:
		p.next()
		elems, err := p.parseTypeList(lexer.RPAREN)
		if err != nil {
			return nil, err
		}
		rparen, err := p.expect(lexer.RPAREN, "`)`")
		if err != nil {
			return nil, err
		}
		return ast.NewTupleType(elems, mergeSpan(tok.Span, rparen.Span)), nil

	case lexer.LBRACKET:
		p.next()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept(lexer.SEMICOLON); ok {
			lenTok, err := p.expect(lexer.INT, "array length")
			if err != nil {
				return nil, err
			}
			n, err := strconv.ParseInt(lenTok.Literal, 10, 64)
			if err != nil {
				return nil, unexpected(lenTok, "array length within i64 range")
			}
			rbracket, err := p.expect(lexer.RBRACKET, "`]`")
			if err != nil {
				return nil, err
			}
			return ast.NewArrayType(elem, n, mergeSpan(tok.Span, rbracket.Span)), nil
		}
		rbracket, err := p.expect(lexer.RBRACKET, "`]` or `;`")
		if err != nil {
			return nil, err
		}
		return ast.NewSliceType(elem, mergeSpan(tok.Span, rbracket.Span)), nil

	case lexer.FN:
		p.next()
		if _, err := p.expect(lexer.LPAREN, "`(`"); err != nil {
			return nil, err
		}
		params, err := p.parseTypeList(lexer.RPAREN)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "`)`"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ARROW, "`->`"); err != nil {
			return nil, err
		}
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return ast.NewFuncType(params, ret, mergeSpan(tok.Span, ret.Span())), nil
	}
	return nil, unexpected(tok, "type")
}

// parseSafeType parses the remainder of `Safe<Base, !c1, !c2>` after the
// opening `<`. At least one constraint is required.
func (p *Parser) parseSafeType(safeTok lexer.Token) (ast.TypeExpr, error) {
	base, err := p.parseType()
	if err != nil {
		return nil, err
	}
	var constraints []string
	for {
		if _, err := p.expect(lexer.COMMA, "`,` followed by a `!constraint`"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.BANG, "`!`"); err != nil {
			return nil, err
		}
		name, err := p.expect(lexer.IDENT, "constraint name")
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, name.Literal)
		if p.check(lexer.GT) {
			break
		}
	}
	gt := p.next()
	return ast.NewSafeType(base, constraints, mergeSpan(safeTok.Span, gt.Span)), nil
}

// parseTypeList parses comma separated types up to the closing token, which
// is left for the caller.
func (p *Parser) parseTypeList(closing lexer.TokenType) ([]ast.TypeExpr, error) {
	var types []ast.TypeExpr
	for !p.check(closing) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	return types, nil
}
