package types

import "github.com/tupa-lang/tupa/internal/ast"

// checkBlock checks stmts in env and returns the block's value: the type of
// its last top-level return statement, else unit. Callers pass a child
// environment when the block opens a scope.
func (c *Checker) checkBlock(block *ast.BlockExpr, env *TypeEnv) (Ty, error) {
	value := Ty(TypeUnit)
	for _, stmt := range block.Stmts {
		ty, err := c.checkStmt(stmt, env)
		if err != nil {
			return nil, err
		}
		if _, isReturn := stmt.(*ast.ReturnStmt); isReturn {
			value = ty
		}
	}
	return value, nil
}

// checkStmt checks one statement. For return statements it yields the
// returned value's type; other statements yield unit.
func (c *Checker) checkStmt(stmt ast.Stmt, env *TypeEnv) (Ty, error) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		value, err := c.checkExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		bound := value
		if s.Type != nil {
			declared, err := c.resolveType(s.Type)
			if err != nil {
				return nil, err
			}
			if !Equal(declared, value) {
				return nil, mismatch(declared, value, s.Value)
			}
			bound = declared
		}
		env.Declare(s.Name.Name, bound)
		return TypeUnit, nil

	case *ast.ReturnStmt:
		found := Ty(TypeUnit)
		if s.Value != nil {
			ty, err := c.checkExpr(s.Value, env)
			if err != nil {
				return nil, err
			}
			found = ty
		}
		c.sawReturn = true
		if !Equal(c.ret, found) {
			return nil, &TypeError{Kind: ErrReturnMismatch, Expected: c.ret, Found: found, Span: s.Span()}
		}
		return found, nil

	case *ast.WhileStmt:
		if err := c.checkCondition(s.Condition, env); err != nil {
			return nil, err
		}
		if _, err := c.checkBlock(s.Body, env.Child()); err != nil {
			return nil, err
		}
		return TypeUnit, nil

	case *ast.ForStmt:
		iter, err := c.checkExpr(s.Iterable, env)
		if err != nil {
			return nil, err
		}
		elem, ok := elemOf(iter)
		if !ok {
			return nil, mismatch(&Slice{Elem: TypeUnknown}, iter, s.Iterable)
		}
		body := env.Child()
		body.Declare(s.Name.Name, elem)
		if _, err := c.checkBlock(s.Body, body); err != nil {
			return nil, err
		}
		return TypeUnit, nil

	case *ast.BreakStmt, *ast.ContinueStmt:
		return TypeUnit, nil

	case *ast.ExprStmt:
		if _, err := c.checkExpr(s.Expr, env); err != nil {
			return nil, err
		}
		return TypeUnit, nil

	case *ast.LambdaStmt:
		if err := c.checkLambdaBody(s.Params, s.Body, env); err != nil {
			return nil, err
		}
		return TypeUnit, nil
	}
	return TypeUnit, nil
}

// checkCondition requires cond to be bool.
func (c *Checker) checkCondition(cond ast.Expr, env *TypeEnv) error {
	ty, err := c.checkExpr(cond, env)
	if err != nil {
		return err
	}
	if !Equal(TypeBool, ty) {
		return mismatch(TypeBool, ty, cond)
	}
	return nil
}

func (c *Checker) checkLambdaBody(params []*ast.Ident, body ast.Expr, env *TypeEnv) error {
	inner := env.Child()
	for _, p := range params {
		inner.Declare(p.Name, TypeUnknown)
	}
	_, err := c.checkExpr(body, inner)
	return err
}
