package llvm

import (
	"github.com/tupa-lang/tupa/internal/ast"
)

const (
	typeI64    = "i64"
	typeDouble = "double"
	typeBool   = "i1"
	typeVoid   = "void"
)

// mapType maps a surface annotation to an LLVM type. A nil or `()`
// annotation is void; Safe<T, ...> lowers as T since constraints are
// enforced by the pipeline runtime, not in IR.
func mapType(t ast.TypeExpr) (string, error) {
	switch t := t.(type) {
	case nil:
		return typeVoid, nil
	case *ast.NamedType:
		switch t.Name {
		case "i64":
			return typeI64, nil
		case "f64":
			return typeDouble, nil
		case "bool":
			return typeBool, nil
		}
	case *ast.TupleType:
		if len(t.Elems) == 0 {
			return typeVoid, nil
		}
	case *ast.SafeType:
		return mapType(t.Base)
	}
	return "", unsupported("type `"+ast.TypeString(t)+"`", t)
}

// signatureOf maps a function's parameter and return types.
func signatureOf(fn *ast.FnDecl) (*signature, error) {
	sig := &signature{}
	for _, p := range fn.Params {
		typ, err := mapType(p.Type)
		if err != nil {
			return nil, err
		}
		if typ == typeVoid {
			return nil, unsupported("unit parameter", p)
		}
		sig.params = append(sig.params, typ)
	}
	ret, err := mapType(fn.ReturnType)
	if err != nil {
		return nil, err
	}
	sig.ret = ret
	return sig, nil
}

// zeroValue is the constant used for a type's default.
func zeroValue(typ string) string {
	switch typ {
	case typeDouble:
		return "0.0"
	case typeBool:
		return "false"
	}
	return "0"
}
