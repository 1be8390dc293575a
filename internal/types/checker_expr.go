package types

import "github.com/tupa-lang/tupa/internal/ast"

func (c *Checker) checkExpr(expr ast.Expr, env *TypeEnv) (Ty, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return TypeI64, nil
	case *ast.FloatLit:
		return TypeF64, nil
	case *ast.StringLit:
		return TypeString, nil
	case *ast.BoolLit:
		return TypeBool, nil
	case *ast.NullLit:
		return TypeNull, nil

	case *ast.Ident:
		ty, ok := env.Lookup(e.Name)
		if !ok {
			return nil, &TypeError{Kind: ErrUnknownVar, Name: e.Name, Span: e.Span()}
		}
		return ty, nil

	case *ast.AssignExpr:
		current, ok := env.Lookup(e.Name.Name)
		if !ok {
			return nil, &TypeError{Kind: ErrUnknownVar, Name: e.Name.Name, Span: e.Name.Span()}
		}
		value, err := c.checkExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if !Equal(current, value) {
			return nil, mismatch(current, value, e.Value)
		}
		return TypeUnit, nil

	case *ast.AssignIndexExpr:
		elem, err := c.checkIndex(e.Target, e.Index, env)
		if err != nil {
			return nil, err
		}
		value, err := c.checkExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if !Equal(elem, value) {
			return nil, mismatch(elem, value, e.Value)
		}
		return TypeUnit, nil

	case *ast.IndexExpr:
		return c.checkIndex(e.Target, e.Index, env)

	case *ast.ArrayLit:
		return c.checkArrayLit(e, env)

	case *ast.BlockExpr:
		return c.checkBlock(e, env.Child())

	case *ast.IfExpr:
		return c.checkIf(e, env)

	case *ast.UnaryExpr:
		return c.checkUnary(e, env)

	case *ast.BinaryExpr:
		return c.checkBinary(e, env)

	case *ast.LambdaExpr:
		if err := c.checkLambdaBody(e.Params, e.Body, env); err != nil {
			return nil, err
		}
		return TypeUnknown, nil

	case *ast.CallExpr:
		if _, isName := e.Callee.(*ast.Ident); !isName {
			if _, err := c.checkExpr(e.Callee, env); err != nil {
				return nil, err
			}
		}
		for _, arg := range e.Args {
			if _, err := c.checkExpr(arg, env); err != nil {
				return nil, err
			}
		}
		return TypeUnknown, nil

	case *ast.FieldExpr:
		if _, err := c.checkExpr(e.Target, env); err != nil {
			return nil, err
		}
		return TypeUnknown, nil

	case *ast.AwaitExpr:
		if _, err := c.checkExpr(e.Value, env); err != nil {
			return nil, err
		}
		return TypeUnknown, nil

	case *ast.MatchExpr:
		if _, err := c.checkExpr(e.Subject, env); err != nil {
			return nil, err
		}
		for _, arm := range e.Arms {
			inner := env.Child()
			for _, name := range ast.Bindings(arm.Pattern) {
				inner.Declare(name, TypeUnknown)
			}
			if arm.Guard != nil {
				if err := c.checkCondition(arm.Guard, inner); err != nil {
					return nil, err
				}
			}
			if _, err := c.checkExpr(arm.Body, inner); err != nil {
				return nil, err
			}
		}
		return TypeUnknown, nil
	}
	return TypeUnknown, nil
}

// checkIndex checks target[index] and returns the element type.
func (c *Checker) checkIndex(target, index ast.Expr, env *TypeEnv) (Ty, error) {
	base, err := c.checkExpr(target, env)
	if err != nil {
		return nil, err
	}
	idx, err := c.checkExpr(index, env)
	if err != nil {
		return nil, err
	}
	if !Equal(TypeI64, idx) {
		return nil, mismatch(TypeI64, idx, index)
	}
	if elem, ok := elemOf(base); ok {
		return elem, nil
	}
	if IsUnknown(base) {
		return TypeUnknown, nil
	}
	return nil, mismatch(&Slice{Elem: TypeUnknown}, base, target)
}

// checkArrayLit requires every element to have the type of the first. An
// empty literal has unknown elements.
func (c *Checker) checkArrayLit(lit *ast.ArrayLit, env *TypeEnv) (Ty, error) {
	var elem Ty = TypeUnknown
	for i, e := range lit.Elems {
		ty, err := c.checkExpr(e, env)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			elem = ty
			continue
		}
		if !Equal(elem, ty) {
			return nil, mismatch(elem, ty, e)
		}
	}
	return &Array{Elem: elem, Len: int64(len(lit.Elems))}, nil
}

// checkIf checks both branches in independent child scopes. A missing else
// is unit, so a then-branch producing a value needs an else.
func (c *Checker) checkIf(e *ast.IfExpr, env *TypeEnv) (Ty, error) {
	if err := c.checkCondition(e.Condition, env); err != nil {
		return nil, err
	}
	then, err := c.checkBlock(e.Then, env.Child())
	if err != nil {
		return nil, err
	}

	els := Ty(TypeUnit)
	switch branch := e.Else.(type) {
	case *ast.BlockExpr:
		if els, err = c.checkBlock(branch, env.Child()); err != nil {
			return nil, err
		}
	case *ast.IfExpr:
		if els, err = c.checkIf(branch, env); err != nil {
			return nil, err
		}
	}

	if !Equal(then, els) {
		span := ast.Node(e.Then)
		if e.Else != nil {
			span = e.Else
		}
		return nil, mismatch(then, els, span)
	}
	return then, nil
}

func (c *Checker) checkUnary(e *ast.UnaryExpr, env *TypeEnv) (Ty, error) {
	operand, err := c.checkExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpNeg:
		if IsNumeric(operand) {
			return operand, nil
		}
	case ast.OpNot:
		if Equal(TypeBool, operand) {
			return TypeBool, nil
		}
	}
	return nil, &TypeError{Kind: ErrInvalidUnary, Op: e.Op.String(), Found: operand, Span: e.Span()}
}

func (c *Checker) checkBinary(e *ast.BinaryExpr, env *TypeEnv) (Ty, error) {
	left, err := c.checkExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := c.checkExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	if ty, ok := binaryResult(e.Op, left, right); ok {
		return ty, nil
	}
	return nil, &TypeError{Kind: ErrInvalidBinary, Op: e.Op.Name(), Left: left, Right: right, Span: e.Span()}
}

// binaryResult applies the operator typing rules. Operands match exactly:
// i64 and f64 never mix, and unknown only equals unknown.
func binaryResult(op ast.BinaryOp, left, right Ty) (Ty, bool) {
	switch {
	case op.IsArithmetic():
		if IsNumeric(left) && Equal(left, right) {
			return left, true
		}
	case op == ast.OpRange:
		if Equal(TypeI64, left) && Equal(TypeI64, right) {
			return TypeUnknown, true
		}
	case op.IsComparison():
		if Equal(left, right) {
			return TypeBool, true
		}
	case op.IsLogical():
		if Equal(TypeBool, left) && Equal(TypeBool, right) {
			return TypeBool, true
		}
	}
	return nil, false
}
