package types

import (
	"github.com/tupa-lang/tupa/internal/ast"
)

// Checker performs structural type checking over a program. Each function is
// checked on its own: calls into other functions yield unknown, so
// declaration order never affects the outcome.
type Checker struct {
	// nominal holds enum and trait names; annotations naming them resolve
	// to unknown.
	nominal map[string]bool

	// Per-function state.
	ret       Ty
	sawReturn bool
}

// NewChecker creates a checker for the declarations of prog.
func NewChecker(prog *ast.Program) *Checker {
	c := &Checker{nominal: make(map[string]bool)}
	for _, item := range prog.Items {
		switch d := item.(type) {
		case *ast.EnumDecl:
			c.nominal[d.Name.Name] = true
		case *ast.TraitDecl:
			c.nominal[d.Name.Name] = true
		}
	}
	return c
}

// CheckProgram checks every function of prog in declaration order and
// returns the first *TypeError, or nil.
func CheckProgram(prog *ast.Program) error {
	c := NewChecker(prog)
	for _, fn := range prog.Functions() {
		if err := c.CheckFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

// CheckFunction checks one function body against its signature.
func (c *Checker) CheckFunction(fn *ast.FnDecl) error {
	env := NewTypeEnv()
	for _, param := range fn.Params {
		ty, err := c.resolveType(param.Type)
		if err != nil {
			return err
		}
		env.Declare(param.Name.Name, ty)
	}

	c.ret = TypeUnit
	if fn.ReturnType != nil {
		ty, err := c.resolveType(fn.ReturnType)
		if err != nil {
			return err
		}
		c.ret = ty
	}
	c.sawReturn = false

	if _, err := c.checkBlock(fn.Body, env); err != nil {
		return err
	}

	if !Equal(c.ret, TypeUnit) && !c.sawReturn {
		return &TypeError{Kind: ErrMissingReturn, Name: fn.Name.Name, Expected: c.ret, Span: fn.Name.Span()}
	}
	return nil
}

// TypeOf checks a standalone expression in env and returns its type. A nil
// env means an empty scope.
func (c *Checker) TypeOf(expr ast.Expr, env *TypeEnv) (Ty, error) {
	if env == nil {
		env = NewTypeEnv()
	}
	c.ret = TypeUnknown
	return c.checkExpr(expr, env)
}

// resolveType maps a surface annotation into the closed Ty set.
func (c *Checker) resolveType(t ast.TypeExpr) (Ty, error) {
	switch t := t.(type) {
	case *ast.NamedType:
		switch t.Name {
		case "i64":
			return TypeI64, nil
		case "f64":
			return TypeF64, nil
		case "bool":
			return TypeBool, nil
		case "String", "str":
			return TypeString, nil
		case "null":
			return TypeNull, nil
		}
		if c.nominal[t.Name] {
			return TypeUnknown, nil
		}
		return nil, &TypeError{Kind: ErrUnknownType, Name: t.Name, Span: t.Span()}
	case *ast.TupleType:
		if len(t.Elems) == 0 {
			return TypeUnit, nil
		}
		for _, elem := range t.Elems {
			if _, err := c.resolveType(elem); err != nil {
				return nil, err
			}
		}
		return TypeUnknown, nil
	case *ast.SafeType:
		return c.resolveType(t.Base)
	case *ast.ArrayType:
		elem, err := c.resolveType(t.Elem)
		if err != nil {
			return nil, err
		}
		return &Array{Elem: elem, Len: t.Len}, nil
	case *ast.SliceType:
		elem, err := c.resolveType(t.Elem)
		if err != nil {
			return nil, err
		}
		return &Slice{Elem: elem}, nil
	case *ast.GenericType, *ast.FuncType:
		return TypeUnknown, nil
	}
	return nil, &TypeError{Kind: ErrUnknownType, Name: ast.TypeString(t), Span: t.Span()}
}

func mismatch(expected, found Ty, node ast.Node) error {
	return &TypeError{Kind: ErrMismatch, Expected: expected, Found: found, Span: node.Span()}
}
