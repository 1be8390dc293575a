package parser

import (
	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/lexer"
)

func (p *Parser) parseItem() (ast.Item, error) {
	tok, err := p.current("item")
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case lexer.FN:
		return p.parseFunction()
	case lexer.ENUM:
		return p.parseEnum()
	case lexer.TRAIT:
		return p.parseTrait()
	default:
		return nil, unexpected(tok, "`fn`, `enum` or `trait`")
	}
}

// parseFunction parses `fn name(params) [-> Type] { body }`.
func (p *Parser) parseFunction() (*ast.FnDecl, error) {
	fnTok := p.next()
	name, err := p.parseIdent("function name")
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	var ret ast.TypeExpr
	if _, ok := p.accept(lexer.ARROW); ok {
		if ret, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFnDecl(name, params, ret, body, mergeSpan(fnTok.Span, body.Span())), nil
}

// parseParams parses a parenthesised `name: Type` list. A trailing comma is
// allowed.
func (p *Parser) parseParams() ([]*ast.Param, error) {
	if _, err := p.expect(lexer.LPAREN, "`(`"); err != nil {
		return nil, err
	}
	var params []*ast.Param
	for !p.check(lexer.RPAREN) {
		name, err := p.parseIdent("parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON, "`:`"); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.NewParam(name, typ, mergeSpan(name.Span(), typ.Span())))
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN, "`)`"); err != nil {
		return nil, err
	}
	return params, nil
}

// parseEnum parses `enum Name<T, U> { A, B(Type, Type) }`.
func (p *Parser) parseEnum() (*ast.EnumDecl, error) {
	enumTok := p.next()
	name, err := p.parseIdent("enum name")
	if err != nil {
		return nil, err
	}
	var generics []*ast.Ident
	if _, ok := p.accept(lexer.LT); ok {
		for !p.check(lexer.GT) {
			g, err := p.parseIdent("generic parameter")
			if err != nil {
				return nil, err
			}
			generics = append(generics, g)
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		if _, err := p.expect(lexer.GT, "`>`"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.LBRACE, "`{`"); err != nil {
		return nil, err
	}
	var variants []*ast.EnumVariant
	for !p.check(lexer.RBRACE) {
		vname, err := p.parseIdent("variant name")
		if err != nil {
			return nil, err
		}
		span := vname.Span()
		var fields []ast.TypeExpr
		if _, ok := p.accept(lexer.LPAREN); ok {
			fields, err = p.parseTypeList(lexer.RPAREN)
			if err != nil {
				return nil, err
			}
			rparen, err := p.expect(lexer.RPAREN, "`)`")
			if err != nil {
				return nil, err
			}
			span = mergeSpan(span, rparen.Span)
		}
		variants = append(variants, ast.NewEnumVariant(vname, fields, span))
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	rbrace, err := p.expect(lexer.RBRACE, "`}`")
	if err != nil {
		return nil, err
	}
	return ast.NewEnumDecl(name, generics, variants, mergeSpan(enumTok.Span, rbrace.Span)), nil
}

// parseTrait parses `trait Name { fn m(params) [-> T] (; | { body }) ... }`.
func (p *Parser) parseTrait() (*ast.TraitDecl, error) {
	traitTok := p.next()
	name, err := p.parseIdent("trait name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE, "`{`"); err != nil {
		return nil, err
	}
	var methods []*ast.TraitMethod
	for !p.check(lexer.RBRACE) {
		fnTok, err := p.expect(lexer.FN, "`fn` or `}`")
		if err != nil {
			return nil, err
		}
		mname, err := p.parseIdent("method name")
		if err != nil {
			return nil, err
		}
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}
		var ret ast.TypeExpr
		if _, ok := p.accept(lexer.ARROW); ok {
			if ret, err = p.parseType(); err != nil {
				return nil, err
			}
		}
		var body *ast.BlockExpr
		var end lexer.Span
		if semi, ok := p.accept(lexer.SEMICOLON); ok {
			end = semi.Span
		} else {
			if body, err = p.parseBlock(); err != nil {
				return nil, err
			}
			end = body.Span()
		}
		methods = append(methods, ast.NewTraitMethod(mname, params, ret, body, mergeSpan(fnTok.Span, end)))
	}
	rbrace, err := p.expect(lexer.RBRACE, "`}`")
	if err != nil {
		return nil, err
	}
	return ast.NewTraitDecl(name, methods, mergeSpan(traitTok.Span, rbrace.Span)), nil
}

// parseBlock parses `{ stmt* }`.
func (p *Parser) parseBlock() (*ast.BlockExpr, error) {
	lbrace, err := p.expect(lexer.LBRACE, "`{`")
	if err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, p.eofError("`}`")
		}
		if tok.Type == lexer.RBRACE {
			p.next()
			return ast.NewBlockExpr(stmts, mergeSpan(lbrace.Span, tok.Span)), nil
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	tok, err := p.current("statement")
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case lexer.LET:
		return p.parseLet()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.BREAK, lexer.CONTINUE:
		return p.parseJump()
	case lexer.PIPE, lexer.OR:
		return p.parseLambdaStmt()
	case lexer.IF, lexer.MATCH, lexer.LBRACE:
		return p.parseBlockLikeStmt()
	}

	if tok.Type == lexer.IDENT && p.checkAt(1, lexer.LBRACKET) && p.isIndexAssign() {
		expr, err := p.parseIndexAssign()
		if err != nil {
			return nil, err
		}
		return p.finishExprStmt(expr)
	}

	expr, err := p.parseExprOrAssign()
	if err != nil {
		return nil, err
	}
	return p.finishExprStmt(expr)
}

// parseLet parses `let name [: Type] = expr;`.
func (p *Parser) parseLet() (ast.Stmt, error) {
	letTok := p.next()
	name, err := p.parseIdent("binding name")
	if err != nil {
		return nil, err
	}
	var typ ast.TypeExpr
	if _, ok := p.accept(lexer.COLON); ok {
		if typ, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.ASSIGN, "`=`"); err != nil {
		return nil, err
	}
	value, err := p.parseExprOrAssign()
	if err != nil {
		return nil, err
	}
	semi, err := p.expect(lexer.SEMICOLON, "`;`")
	if err != nil {
		return nil, err
	}
	return ast.NewLetStmt(name, typ, value, mergeSpan(letTok.Span, semi.Span)), nil
}

// parseReturn parses `return [expr];`. The semicolon may be omitted before
// a closing brace.
func (p *Parser) parseReturn() (ast.Stmt, error) {
	retTok := p.next()
	span := retTok.Span
	var value ast.Expr
	if !p.check(lexer.SEMICOLON) && !p.check(lexer.RBRACE) {
		var err error
		if value, err = p.parseExprOrAssign(); err != nil {
			return nil, err
		}
		span = mergeSpan(span, value.Span())
	}
	end, err := p.statementEnd()
	if err != nil {
		return nil, err
	}
	return ast.NewReturnStmt(value, mergeSpan(span, end)), nil
}

func (p *Parser) parseJump() (ast.Stmt, error) {
	tok := p.next()
	end, err := p.statementEnd()
	if err != nil {
		return nil, err
	}
	span := mergeSpan(tok.Span, end)
	if tok.Type == lexer.BREAK {
		return ast.NewBreakStmt(span), nil
	}
	return ast.NewContinueStmt(span), nil
}

// statementEnd consumes the `;` ending a return or jump, or accepts a
// closing brace without consuming it.
func (p *Parser) statementEnd() (lexer.Span, error) {
	if semi, ok := p.accept(lexer.SEMICOLON); ok {
		return semi.Span, nil
	}
	if p.check(lexer.RBRACE) {
		return lexer.Span{}, nil
	}
	_, err := p.expect(lexer.SEMICOLON, "`;`")
	return lexer.Span{}, err
}

// parseWhile parses `while cond { body }`.
func (p *Parser) parseWhile() (ast.Stmt, error) {
	whileTok := p.next()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewWhileStmt(cond, body, mergeSpan(whileTok.Span, body.Span())), nil
}

// parseFor parses `for name in iterable { body }`.
func (p *Parser) parseFor() (ast.Stmt, error) {
	forTok := p.next()
	name, err := p.parseIdent("loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IN, "`in`"); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewForStmt(name, iterable, body, mergeSpan(forTok.Span, body.Span())), nil
}

// parseLambdaStmt parses a lambda in statement position. A trailing `;` is
// optional.
func (p *Parser) parseLambdaStmt() (ast.Stmt, error) {
	expr, err := p.parseLambda()
	if err != nil {
		return nil, err
	}
	span := expr.Span()
	if semi, ok := p.accept(lexer.SEMICOLON); ok {
		span = mergeSpan(span, semi.Span)
	} else if !p.check(lexer.RBRACE) {
		return nil, p.missingSemicolon(expr)
	}
	return ast.NewLambdaStmt(expr.Params, expr.Body, span), nil
}

// parseBlockLikeStmt parses `if`, `match` and bare blocks used as
// statements. These end at their closing brace; a following `;` is
// consumed when present.
func (p *Parser) parseBlockLikeStmt() (ast.Stmt, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	span := expr.Span()
	if semi, ok := p.accept(lexer.SEMICOLON); ok {
		span = mergeSpan(span, semi.Span)
	}
	return ast.NewExprStmt(expr, span), nil
}

// finishExprStmt applies the semicolon rule to an expression statement: a
// `;` is required unless the next token closes the enclosing block.
func (p *Parser) finishExprStmt(expr ast.Expr) (ast.Stmt, error) {
	if semi, ok := p.accept(lexer.SEMICOLON); ok {
		return ast.NewExprStmt(expr, mergeSpan(expr.Span(), semi.Span)), nil
	}
	if p.check(lexer.RBRACE) {
		return ast.NewExprStmt(expr, expr.Span()), nil
	}
	return nil, p.missingSemicolon(expr)
}

func (p *Parser) missingSemicolon(expr ast.Expr) error {
	tok, ok := p.peek()
	if !ok {
		return p.eofError("`;`")
	}
	return &ParseError{Kind: ErrMissingSemicolon, Token: tok, Span: expr.Span(), Expected: "`;`"}
}

// isIndexAssign reports whether the statement starting at the current
// identifier is `name[...] = value`. It scans forward to the bracket that
// balances the one after the identifier and checks for `=` right after it.
func (p *Parser) isIndexAssign() bool {
	depth := 0
	for i := p.pos + 1; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case lexer.LBRACKET:
			depth++
		case lexer.RBRACKET:
			depth--
			if depth == 0 {
				return i+1 < len(p.tokens) && p.tokens[i+1].Type == lexer.ASSIGN
			}
		}
	}
	return false
}

// parseIndexAssign parses `name[index] = value`.
func (p *Parser) parseIndexAssign() (ast.Expr, error) {
	tok := p.next()
	target := ast.NewIdent(tok.Literal, tok.Span)
	p.next() // [
	index, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACKET, "`]`"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN, "`=`"); err != nil {
		return nil, err
	}
	value, err := p.parseExprOrAssign()
	if err != nil {
		return nil, err
	}
	return ast.NewAssignIndexExpr(target, index, value, mergeSpan(tok.Span, value.Span())), nil
}

func (p *Parser) parseIdent(what string) (*ast.Ident, error) {
	tok, err := p.expect(lexer.IDENT, what)
	if err != nil {
		return nil, err
	}
	return ast.NewIdent(tok.Literal, tok.Span), nil
}
