package llvm

import (
	"fmt"

	"github.com/tupa-lang/tupa/internal/ast"
)

// genBlock generates the statements of a block in the current scope.
func (g *LLVMGenerator) genBlock(block *ast.BlockExpr) error {
	for _, stmt := range block.Stmts {
		g.ensureOpenBlock()
		if err := g.genStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *LLVMGenerator) genStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		return g.genLetStmt(s)
	case *ast.ReturnStmt:
		return g.genReturnStmt(s)
	case *ast.WhileStmt:
		return g.genWhileStmt(s)
	case *ast.BreakStmt:
		if len(g.fn.loopStack) == 0 {
			return unsupported("`break` outside a loop", s)
		}
		loop := g.fn.loopStack[len(g.fn.loopStack)-1]
		g.emitTerminator("br label %" + loop.breakLabel)
		return nil
	case *ast.ContinueStmt:
		if len(g.fn.loopStack) == 0 {
			return unsupported("`continue` outside a loop", s)
		}
		loop := g.fn.loopStack[len(g.fn.loopStack)-1]
		g.emitTerminator("br label %" + loop.continueLabel)
		return nil
	case *ast.ExprStmt:
		switch e := s.Expr.(type) {
		case *ast.IfExpr:
			return g.genIfStmt(e)
		case *ast.BlockExpr:
			return g.withScope(func() error { return g.genBlock(e) })
		}
		_, err := g.genExpr(s.Expr)
		return err
	case *ast.ForStmt:
		return unsupported("`for` loop", s)
	case *ast.LambdaStmt:
		return unsupported("lambda", s)
	}
	return unsupported(fmt.Sprintf("statement %T", stmt), stmt)
}

func (g *LLVMGenerator) genLetStmt(s *ast.LetStmt) error {
	v, err := g.genValue(s.Value)
	if err != nil {
		return err
	}
	typ := v.typ
	if s.Type != nil {
		declared, err := mapType(s.Type)
		if err != nil {
			return err
		}
		if declared != v.typ {
			return unsupported(fmt.Sprintf("initializer of type %s for %s binding", v.typ, declared), s)
		}
		typ = declared
	}
	slot := g.declareLocal(s.Name.Name, typ)
	g.emitInst(fmt.Sprintf("store %s %s, %s* %s", typ, v.reg, typ, slot.ptr))
	return nil
}

func (g *LLVMGenerator) genReturnStmt(s *ast.ReturnStmt) error {
	if s.Value == nil {
		if g.fn.retType != typeVoid {
			return unsupported("empty return in a function returning "+g.fn.retType, s)
		}
		g.emitTerminator("ret void")
		return nil
	}
	v, err := g.genValue(s.Value)
	if err != nil {
		return err
	}
	if v.typ != g.fn.retType {
		return unsupported(fmt.Sprintf("return of %s from a function returning %s", v.typ, g.fn.retType), s)
	}
	g.emitTerminator(fmt.Sprintf("ret %s %s", v.typ, v.reg))
	return nil
}

// genWhileStmt lowers `while` into cond/body/end blocks.
func (g *LLVMGenerator) genWhileStmt(s *ast.WhileStmt) error {
	condLabel := g.nextLabel()
	bodyLabel := g.nextLabel()
	endLabel := g.nextLabel()

	g.emitTerminator("br label %" + condLabel)
	g.emitLabel(condLabel)
	cond, err := g.genCondition(s.Condition)
	if err != nil {
		return err
	}
	g.emitTerminator(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", cond, bodyLabel, endLabel))

	g.emitLabel(bodyLabel)
	g.fn.loopStack = append(g.fn.loopStack, &loopContext{breakLabel: endLabel, continueLabel: condLabel})
	err = g.withScope(func() error { return g.genBlock(s.Body) })
	g.fn.loopStack = g.fn.loopStack[:len(g.fn.loopStack)-1]
	if err != nil {
		return err
	}
	if !g.fn.terminated {
		g.emitTerminator("br label %" + condLabel)
	}
	g.emitLabel(endLabel)
	return nil
}

// genIfStmt lowers an `if` used as a statement. `else if` chains recurse
// into the else block.
func (g *LLVMGenerator) genIfStmt(e *ast.IfExpr) error {
	cond, err := g.genCondition(e.Condition)
	if err != nil {
		return err
	}
	thenLabel := g.nextLabel()
	endLabel := g.nextLabel()
	elseLabel := endLabel
	if e.Else != nil {
		elseLabel = g.nextLabel()
	}
	g.emitTerminator(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", cond, thenLabel, elseLabel))

	g.emitLabel(thenLabel)
	if err := g.withScope(func() error { return g.genBlock(e.Then) }); err != nil {
		return err
	}
	if !g.fn.terminated {
		g.emitTerminator("br label %" + endLabel)
	}

	if e.Else != nil {
		g.emitLabel(elseLabel)
		var err error
		switch branch := e.Else.(type) {
		case *ast.BlockExpr:
			err = g.withScope(func() error { return g.genBlock(branch) })
		case *ast.IfExpr:
			err = g.genIfStmt(branch)
		}
		if err != nil {
			return err
		}
		if !g.fn.terminated {
			g.emitTerminator("br label %" + endLabel)
		}
	}

	g.emitLabel(endLabel)
	return nil
}

// genCondition generates an i1 condition value.
func (g *LLVMGenerator) genCondition(expr ast.Expr) (string, error) {
	v, err := g.genValue(expr)
	if err != nil {
		return "", err
	}
	if v.typ != typeBool {
		return "", unsupported("non-bool condition of type "+v.typ, expr)
	}
	return v.reg, nil
}
