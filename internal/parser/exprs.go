package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/lexer"
)

// Binding powers, lowest first. Pow is the only right-associative level.
const (
	precRange = iota
	precOr
	precAnd
	precEquality
	precCompare
	precSum
	precProduct
	precPow
)

type binaryInfo struct {
	op   ast.BinaryOp
	prec int
}

var binaryOps = map[lexer.TokenType]binaryInfo{
	lexer.RANGE:    {ast.OpRange, precRange},
	lexer.OR:       {ast.OpOr, precOr},
	lexer.AND:      {ast.OpAnd, precAnd},
	lexer.EQ:       {ast.OpEqual, precEquality},
	lexer.NOT_EQ:   {ast.OpNotEqual, precEquality},
	lexer.LT:       {ast.OpLess, precCompare},
	lexer.LE:       {ast.OpLessEqual, precCompare},
	lexer.GT:       {ast.OpGreater, precCompare},
	lexer.GE:       {ast.OpGreaterEqual, precCompare},
	lexer.PLUS:     {ast.OpAdd, precSum},
	lexer.MINUS:    {ast.OpSub, precSum},
	lexer.ASTERISK: {ast.OpMul, precProduct},
	lexer.SLASH:    {ast.OpDiv, precProduct},
	lexer.POW:      {ast.OpPow, precPow},
}

// compoundOps maps `op=` tokens to the operator they desugar to.
var compoundOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.PLUS_ASSIGN:     ast.OpAdd,
	lexer.MINUS_ASSIGN:    ast.OpSub,
	lexer.ASTERISK_ASSIGN: ast.OpMul,
	lexer.SLASH_ASSIGN:    ast.OpDiv,
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(precRange)
}

// parseExprOrAssign parses an expression, recognising `name = value` and
// `name op= value` first. Compound assignment desugars to
// `name = name op value`.
func (p *Parser) parseExprOrAssign() (ast.Expr, error) {
	tok, ok := p.peek()
	if ok && tok.Type == lexer.IDENT {
		if next, ok := p.peekAt(1); ok {
			if next.Type == lexer.ASSIGN {
				return p.parseAssign(tok, nil)
			}
			if op, isCompound := compoundOps[next.Type]; isCompound {
				return p.parseAssign(tok, &op)
			}
		}
	}
	return p.parseExpr()
}

func (p *Parser) parseAssign(nameTok lexer.Token, op *ast.BinaryOp) (ast.Expr, error) {
	p.next() // name
	p.next() // = or op=
	value, err := p.parseExprOrAssign()
	if err != nil {
		return nil, err
	}
	span := mergeSpan(nameTok.Span, value.Span())
	name := ast.NewIdent(nameTok.Literal, nameTok.Span)
	if op != nil {
		current := ast.NewIdent(nameTok.Literal, nameTok.Span)
		value = ast.NewBinaryExpr(*op, current, value, span)
	}
	return ast.NewAssignExpr(name, value, span), nil
}

// parseBinary implements precedence climbing: it folds operators whose
// binding power is at least minPrec into left.
func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok {
			return left, nil
		}
		info, isBinary := binaryOps[tok.Type]
		if !isBinary || info.prec < minPrec {
			return left, nil
		}
		p.next()
		next := info.prec + 1
		if info.op == ast.OpPow {
			next = info.prec
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(info.op, left, right, mergeSpan(left.Span(), right.Span()))
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	tok, err := p.current("expression")
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case lexer.MINUS, lexer.BANG:
		if lit, ok := p.minInt(tok); ok {
			return p.parsePostfix(lit)
		}
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := ast.OpNeg
		if tok.Type == lexer.BANG {
			op = ast.OpNot
		}
		return ast.NewUnaryExpr(op, operand, mergeSpan(tok.Span, operand.Span())), nil
	case lexer.AWAIT:
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewAwaitExpr(operand, mergeSpan(tok.Span, operand.Span())), nil
	}
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(primary)
}

// minInt folds `-9223372036854775808` into one literal, since its magnitude
// only fits in i64 once negated. Every other negation stays a unary
// expression.
func (p *Parser) minInt(minus lexer.Token) (ast.Expr, bool) {
	if minus.Type != lexer.MINUS {
		return nil, false
	}
	num, ok := p.peekAt(1)
	if !ok || num.Type != lexer.INT {
		return nil, false
	}
	if _, err := strconv.ParseInt(num.Literal, 10, 64); err == nil {
		return nil, false
	}
	value, err := strconv.ParseInt("-"+num.Literal, 10, 64)
	if err != nil {
		return nil, false
	}
	p.next()
	p.next()
	return ast.NewIntLit(value, mergeSpan(minus.Span, num.Span)), true
}

// parsePostfix applies call, field and index suffixes left to right.
func (p *Parser) parsePostfix(expr ast.Expr) (ast.Expr, error) {
	for {
		tok, ok := p.peek()
		if !ok {
			return expr, nil
		}
		switch tok.Type {
		case lexer.LPAREN:
			p.next()
			args, err := p.parseExprList(lexer.RPAREN)
			if err != nil {
				return nil, err
			}
			rparen, err := p.expect(lexer.RPAREN, "`)`")
			if err != nil {
				return nil, err
			}
			expr = ast.NewCallExpr(expr, args, mergeSpan(expr.Span(), rparen.Span))
		case lexer.LBRACKET:
			p.next()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			rbracket, err := p.expect(lexer.RBRACKET, "`]`")
			if err != nil {
				return nil, err
			}
			expr = ast.NewIndexExpr(expr, index, mergeSpan(expr.Span(), rbracket.Span))
		case lexer.DOT:
			p.next()
			var err error
			if expr, err = p.parseField(expr); err != nil {
				return nil, err
			}
		default:
			return expr, nil
		}
	}
}

// parseField parses the member after `.`: a name, a tuple index, or a float
// token such as `0.1` which the lexer produces for chained tuple indices.
func (p *Parser) parseField(target ast.Expr) (ast.Expr, error) {
	tok, err := p.current("field name or tuple index")
	if err != nil {
		return nil, err
	}
	p.next()
	switch tok.Type {
	case lexer.IDENT:
		return ast.NewFieldExpr(target, ast.NamedField(tok.Literal), mergeSpan(target.Span(), tok.Span)), nil
	case lexer.INT:
		idx, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, unexpected(tok, "tuple index")
		}
		return ast.NewFieldExpr(target, ast.TupleIndex(idx), mergeSpan(target.Span(), tok.Span)), nil
	case lexer.FLOAT:
		first, second, ok := strings.Cut(tok.Literal, ".")
		i, err1 := strconv.ParseInt(first, 10, 64)
		j, err2 := strconv.ParseInt(second, 10, 64)
		if !ok || err1 != nil || err2 != nil {
			return nil, unexpected(tok, "tuple index")
		}
		firstSpan := lexer.Span{Start: target.Span().Start, End: tok.Span.Start + len(first)}
		inner := ast.NewFieldExpr(target, ast.TupleIndex(i), firstSpan)
		return ast.NewFieldExpr(inner, ast.TupleIndex(j), mergeSpan(target.Span(), tok.Span)), nil
	default:
		return nil, unexpected(tok, "field name or tuple index")
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok, err := p.current("expression")
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case lexer.INT:
		p.next()
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, unexpected(tok, "integer literal within i64 range")
		}
		return ast.NewIntLit(value, tok.Span), nil
	case lexer.FLOAT:
		p.next()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return nil, unexpected(tok, "float literal within f64 range")
			}
			return nil, unexpected(tok, "float literal")
		}
		return ast.NewFloatLit(value, tok.Span), nil
	case lexer.STRING:
		p.next()
		return ast.NewStringLit(tok.Literal, tok.Span), nil
	case lexer.TRUE, lexer.FALSE:
		p.next()
		return ast.NewBoolLit(tok.Type == lexer.TRUE, tok.Span), nil
	case lexer.NULL:
		p.next()
		return ast.NewNullLit(tok.Span), nil
	case lexer.IDENT:
		p.next()
		return ast.NewIdent(tok.Literal, tok.Span), nil
	case lexer.LPAREN:
		return p.parseGroupedExpr()
	case lexer.LBRACKET:
		return p.parseArrayLit()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IF:
		return p.parseIf()
	case lexer.MATCH:
		return p.parseMatch()
	case lexer.PIPE, lexer.OR:
		return p.parseLambda()
	default:
		return nil, unexpected(tok, "expression")
	}
}

// parseGroupedExpr parses `( expr )` and widens the inner node's span to
// cover the parentheses.
func (p *Parser) parseGroupedExpr() (ast.Expr, error) {
	lparen := p.next()
	inner, err := p.parseExprOrAssign()
	if err != nil {
		return nil, err
	}
	rparen, err := p.expect(lexer.RPAREN, "`)`")
	if err != nil {
		return nil, err
	}
	if setter, ok := inner.(spanSetter); ok {
		setter.SetSpan(mergeSpan(lparen.Span, rparen.Span))
	}
	return inner, nil
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	lbracket := p.next()
	elems, err := p.parseExprList(lexer.RBRACKET)
	if err != nil {
		return nil, err
	}
	rbracket, err := p.expect(lexer.RBRACKET, "`]`")
	if err != nil {
		return nil, err
	}
	return ast.NewArrayLit(elems, mergeSpan(lbracket.Span, rbracket.Span)), nil
}

// parseExprList parses comma separated expressions up to, but not
// including, the closing token. A trailing comma is allowed.
func (p *Parser) parseExprList(closing lexer.TokenType) ([]ast.Expr, error) {
	var exprs []ast.Expr
	for !p.check(closing) {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	return exprs, nil
}

// parseIf parses `if cond { } [else (if ... | { })]`.
func (p *Parser) parseIf() (ast.Expr, error) {
	ifTok := p.next()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	span := mergeSpan(ifTok.Span, then.Span())
	var els ast.Expr
	if _, ok := p.accept(lexer.ELSE); ok {
		if p.check(lexer.IF) {
			els, err = p.parseIf()
		} else {
			els, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
		span = mergeSpan(span, els.Span())
	}
	return ast.NewIfExpr(cond, then, els, span), nil
}

// parseMatch parses `match subject { pattern [if guard] => expr, ... }`.
// The comma after an arm is optional.
func (p *Parser) parseMatch() (ast.Expr, error) {
	matchTok := p.next()
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE, "`{`"); err != nil {
		return nil, err
	}
	var arms []*ast.MatchArm
	for {
		tok, ok := p.peek()
		if !ok {
			return nil, p.eofError("`}`")
		}
		if tok.Type == lexer.RBRACE {
			p.next()
			return ast.NewMatchExpr(subject, arms, mergeSpan(matchTok.Span, tok.Span)), nil
		}
		pattern, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		var guard ast.Expr
		if _, ok := p.accept(lexer.IF); ok {
			if guard, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(lexer.FATARROW, "`=>`"); err != nil {
			return nil, err
		}
		body, err := p.parseExprOrAssign()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.NewMatchArm(pattern, guard, body, mergeSpan(pattern.Span(), body.Span())))
		p.accept(lexer.COMMA)
	}
}

// parseLambda parses `|a, b| body` and the zero-parameter form `|| body`.
func (p *Parser) parseLambda() (*ast.LambdaExpr, error) {
	open := p.next()
	var params []*ast.Ident
	if open.Type == lexer.PIPE {
		for !p.check(lexer.PIPE) {
			param, err := p.parseIdent("lambda parameter")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		if _, err := p.expect(lexer.PIPE, "`|`"); err != nil {
			return nil, err
		}
	}
	body, err := p.parseExprOrAssign()
	if err != nil {
		return nil, err
	}
	return ast.NewLambdaExpr(params, body, mergeSpan(open.Span, body.Span())), nil
}
