package llvm

import (
	"fmt"
	"maps"
	"strings"

	"github.com/tupa-lang/tupa/internal/ast"
)

// genFunction generates a function definition. Parameters are spilled to
// stack slots so assignment works uniformly for params and lets.
func (g *LLVMGenerator) genFunction(decl *ast.FnDecl) error {
	sig := g.signatures[decl.Name.Name]
	g.fn = &functionContext{
		name:      decl.Name.Name,
		retType:   sig.ret,
		locals:    make(map[string]local),
		slotCount: make(map[string]int),
		label:     "entry",
	}
	defer func() { g.fn = nil }()

	params := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		typ := sig.params[i]
		incoming := "%arg." + p.Name.Name
		params[i] = typ + " " + incoming
		slot := g.declareLocal(p.Name.Name, typ)
		g.emitInst(fmt.Sprintf("store %s %s, %s* %s", typ, incoming, typ, slot.ptr))
	}

	if err := g.genBlock(decl.Body); err != nil {
		return err
	}

	if !g.fn.terminated {
		if sig.ret == typeVoid {
			g.emitTerminator("ret void")
		} else {
			g.emitTerminator(fmt.Sprintf("ret %s %s", sig.ret, zeroValue(sig.ret)))
		}
	}

	g.emit(fmt.Sprintf("define %s @%s(%s) {", sig.ret, decl.Name.Name, strings.Join(params, ", ")))
	g.emit("entry:")
	for _, alloca := range g.fn.allocas {
		g.emit("  " + alloca)
	}
	g.builder.WriteString(g.fn.body.String())
	g.emit("}")
	g.emit("")
	return nil
}

// declareLocal allocates a stack slot for name, shadowing any earlier slot.
func (g *LLVMGenerator) declareLocal(name, typ string) local {
	n := g.fn.slotCount[name]
	g.fn.slotCount[name] = n + 1
	ptr := "%" + name + ".addr"
	if n > 0 {
		ptr = fmt.Sprintf("%%%s.addr%d", name, n)
	}
	g.fn.allocas = append(g.fn.allocas, fmt.Sprintf("%s = alloca %s", ptr, typ))
	slot := local{ptr: ptr, typ: typ}
	g.fn.locals[name] = slot
	return slot
}

// withScope runs fn with a copy of the locals so bindings made inside do
// not outlive the block.
func (g *LLVMGenerator) withScope(fn func() error) error {
	saved := g.fn.locals
	g.fn.locals = maps.Clone(saved)
	defer func() { g.fn.locals = saved }()
	return fn()
}
