package llvm

import (
	"fmt"
	"math"
	"strings"

	"github.com/tupa-lang/tupa/internal/ast"
)

// value is an SSA operand: a register or constant together with its type.
type value struct {
	reg string
	typ string
}

var voidValue = value{typ: typeVoid}

// genValue generates expr and requires it to produce a value.
func (g *LLVMGenerator) genValue(expr ast.Expr) (value, error) {
	v, err := g.genExpr(expr)
	if err != nil {
		return value{}, err
	}
	if v.typ == typeVoid {
		return value{}, unsupported("use of a unit value", expr)
	}
	return v, nil
}

// genExpr generates LLVM IR for an expression and returns the operand holding
// the result.
func (g *LLVMGenerator) genExpr(expr ast.Expr) (value, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return value{reg: fmt.Sprintf("%d", e.Value), typ: typeI64}, nil
	case *ast.FloatLit:
		// Hex form is exact for every double.
		return value{reg: fmt.Sprintf("0x%016X", math.Float64bits(e.Value)), typ: typeDouble}, nil
	case *ast.BoolLit:
		if e.Value {
			return value{reg: "true", typ: typeBool}, nil
		}
		return value{reg: "false", typ: typeBool}, nil
	case *ast.Ident:
		slot, ok := g.fn.locals[e.Name]
		if !ok {
			return value{}, unsupported("reference to undeclared `"+e.Name+"`", e)
		}
		reg := g.nextReg()
		g.emitInst(fmt.Sprintf("%s = load %s, %s* %s", reg, slot.typ, slot.typ, slot.ptr))
		return value{reg: reg, typ: slot.typ}, nil
	case *ast.AssignExpr:
		return g.genAssignExpr(e)
	case *ast.UnaryExpr:
		return g.genUnaryExpr(e)
	case *ast.BinaryExpr:
		if e.Op.IsLogical() {
			return g.genLogicalExpr(e)
		}
		return g.genBinaryExpr(e)
	case *ast.CallExpr:
		return g.genCallExpr(e)
	case *ast.IfExpr:
		return value{}, unsupported("`if` used as a value", e)
	}
	return value{}, unsupported(fmt.Sprintf("expression %s", kindName(expr)), expr)
}

func kindName(expr ast.Expr) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", expr), "*ast.")
}

func (g *LLVMGenerator) genAssignExpr(e *ast.AssignExpr) (value, error) {
	slot, ok := g.fn.locals[e.Name.Name]
	if !ok {
		return value{}, unsupported("assignment to undeclared `"+e.Name.Name+"`", e.Name)
	}
	v, err := g.genValue(e.Value)
	if err != nil {
		return value{}, err
	}
	if v.typ != slot.typ {
		return value{}, unsupported(fmt.Sprintf("assignment of %s to %s variable", v.typ, slot.typ), e)
	}
	g.emitInst(fmt.Sprintf("store %s %s, %s* %s", v.typ, v.reg, slot.typ, slot.ptr))
	return voidValue, nil
}

func (g *LLVMGenerator) genUnaryExpr(e *ast.UnaryExpr) (value, error) {
	operand, err := g.genValue(e.Operand)
	if err != nil {
		return value{}, err
	}
	reg := g.nextReg()
	switch {
	case e.Op == ast.OpNeg && operand.typ == typeI64:
		g.emitInst(fmt.Sprintf("%s = sub i64 0, %s", reg, operand.reg))
	case e.Op == ast.OpNeg && operand.typ == typeDouble:
		g.emitInst(fmt.Sprintf("%s = fneg double %s", reg, operand.reg))
	case e.Op == ast.OpNot && operand.typ == typeBool:
		g.emitInst(fmt.Sprintf("%s = xor i1 %s, true", reg, operand.reg))
	default:
		return value{}, unsupported(fmt.Sprintf("unary `%s` on %s", e.Op, operand.typ), e)
	}
	return value{reg: reg, typ: operand.typ}, nil
}

var intOps = map[ast.BinaryOp]string{
	ast.OpAdd:          "add",
	ast.OpSub:          "sub",
	ast.OpMul:          "mul",
	ast.OpDiv:          "sdiv",
	ast.OpEqual:        "icmp eq",
	ast.OpNotEqual:     "icmp ne",
	ast.OpLess:         "icmp slt",
	ast.OpLessEqual:    "icmp sle",
	ast.OpGreater:      "icmp sgt",
	ast.OpGreaterEqual: "icmp sge",
}

var floatOps = map[ast.BinaryOp]string{
	ast.OpAdd:          "fadd",
	ast.OpSub:          "fsub",
	ast.OpMul:          "fmul",
	ast.OpDiv:          "fdiv",
	ast.OpEqual:        "fcmp oeq",
	ast.OpNotEqual:     "fcmp one",
	ast.OpLess:         "fcmp olt",
	ast.OpLessEqual:    "fcmp ole",
	ast.OpGreater:      "fcmp ogt",
	ast.OpGreaterEqual: "fcmp oge",
}

var boolOps = map[ast.BinaryOp]string{
	ast.OpEqual:    "icmp eq",
	ast.OpNotEqual: "icmp ne",
}

func (g *LLVMGenerator) genBinaryExpr(e *ast.BinaryExpr) (value, error) {
	left, err := g.genValue(e.Left)
	if err != nil {
		return value{}, err
	}
	right, err := g.genValue(e.Right)
	if err != nil {
		return value{}, err
	}
	if left.typ != right.typ {
		return value{}, unsupported(fmt.Sprintf("`%s` on %s and %s", e.Op, left.typ, right.typ), e)
	}

	reg := g.nextReg()
	if e.Op == ast.OpPow {
		switch left.typ {
		case typeDouble:
			g.emitInst(fmt.Sprintf("%s = call double @llvm.pow.f64(double %s, double %s)", reg, left.reg, right.reg))
		case typeI64:
			g.emitInst(fmt.Sprintf("%s = call i64 @tupa_pow_i64(i64 %s, i64 %s)", reg, left.reg, right.reg))
		default:
			return value{}, unsupported("`**` on "+left.typ, e)
		}
		return value{reg: reg, typ: left.typ}, nil
	}

	var table map[ast.BinaryOp]string
	switch left.typ {
	case typeI64:
		table = intOps
	case typeDouble:
		table = floatOps
	case typeBool:
		table = boolOps
	}
	inst, ok := table[e.Op]
	if !ok {
		return value{}, unsupported(fmt.Sprintf("`%s` on %s", e.Op, left.typ), e)
	}
	g.emitInst(fmt.Sprintf("%s = %s %s %s, %s", reg, inst, left.typ, left.reg, right.reg))
	if e.Op.IsComparison() {
		return value{reg: reg, typ: typeBool}, nil
	}
	return value{reg: reg, typ: left.typ}, nil
}

// genLogicalExpr lowers && and || with short-circuit evaluation and a phi.
func (g *LLVMGenerator) genLogicalExpr(e *ast.BinaryExpr) (value, error) {
	left, err := g.genCondition(e.Left)
	if err != nil {
		return value{}, err
	}
	leftLabel := g.fn.label
	rhsLabel := g.nextLabel()
	endLabel := g.nextLabel()

	shortValue := "false"
	if e.Op == ast.OpAnd {
		g.emitTerminator(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", left, rhsLabel, endLabel))
	} else {
		shortValue = "true"
		g.emitTerminator(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", left, endLabel, rhsLabel))
	}

	g.emitLabel(rhsLabel)
	right, err := g.genCondition(e.Right)
	if err != nil {
		return value{}, err
	}
	rightLabel := g.fn.label
	g.emitTerminator("br label %" + endLabel)

	g.emitLabel(endLabel)
	reg := g.nextReg()
	g.emitInst(fmt.Sprintf("%s = phi i1 [ %s, %%%s ], [ %s, %%%s ]", reg, shortValue, leftLabel, right, rightLabel))
	return value{reg: reg, typ: typeBool}, nil
}

// genCallExpr lowers a direct call to a function declared in the program.
func (g *LLVMGenerator) genCallExpr(e *ast.CallExpr) (value, error) {
	callee, ok := e.Callee.(*ast.Ident)
	if !ok {
		return value{}, unsupported("indirect call", e)
	}
	sig, ok := g.signatures[callee.Name]
	if !ok {
		return value{}, unsupported("call to undeclared function `"+callee.Name+"`", e)
	}
	if len(sig.params) != len(e.Args) {
		return value{}, unsupported(fmt.Sprintf("call to `%s` with %d arguments, want %d", callee.Name, len(e.Args), len(sig.params)), e)
	}

	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		v, err := g.genValue(arg)
		if err != nil {
			return value{}, err
		}
		if v.typ != sig.params[i] {
			return value{}, unsupported(fmt.Sprintf("argument of type %s for %s parameter", v.typ, sig.params[i]), arg)
		}
		args[i] = v.typ + " " + v.reg
	}

	call := fmt.Sprintf("call %s @%s(%s)", sig.ret, callee.Name, strings.Join(args, ", "))
	if sig.ret == typeVoid {
		g.emitInst(call)
		return voidValue, nil
	}
	reg := g.nextReg()
	g.emitInst(reg + " = " + call)
	return value{reg: reg, typ: sig.ret}, nil
}
