package llvm

import (
	"fmt"
	"strings"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/lexer"
)

// UnsupportedError reports a construct outside the lowered subset.
type UnsupportedError struct {
	Feature string
	Span    lexer.Span
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("codegen: unsupported %s at %d..%d", e.Feature, e.Span.Start, e.Span.End)
}

// ToDiagnostic converts the error into a shared diagnostic structure.
func (e *UnsupportedError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageCodegen,
		Severity: diag.SeverityError,
		Code:     diag.CodeGenUnsupported,
		Message:  "unsupported " + e.Feature,
		Span:     diag.Span{Start: e.Span.Start, End: e.Span.End},
		Help:     "the LLVM backend lowers i64, f64 and bool code; use `codegen -plan-only` for pipelines",
	}
}

func unsupported(feature string, node ast.Node) error {
	return &UnsupportedError{Feature: feature, Span: node.Span()}
}

// LLVMGenerator lowers a Tupã program to textual LLVM IR.
type LLVMGenerator struct {
	// Output buffer for LLVM IR
	builder strings.Builder

	// Signatures of every function in the program, collected up front so
	// calls can precede the callee's definition.
	signatures map[string]*signature

	// Current function context
	fn *functionContext

	// Register counter for generating unique register names
	regCounter int

	// Label counter for generating unique label names
	labelCounter int
}

type signature struct {
	params []string
	ret    string
}

// loopContext tracks the labels for the current loop.
type loopContext struct {
	breakLabel    string
	continueLabel string
}

// local is a stack slot holding a parameter or let binding.
type local struct {
	ptr string
	typ string
}

// functionContext tracks the function being generated. Allocas are hoisted
// into the entry block when the function is assembled.
type functionContext struct {
	name    string
	retType string

	locals    map[string]local
	slotCount map[string]int
	allocas   []string
	body      strings.Builder

	label      string
	terminated bool
	loopStack  []*loopContext
}

// NewGenerator creates a new LLVM IR generator.
func NewGenerator() *LLVMGenerator {
	return &LLVMGenerator{signatures: make(map[string]*signature)}
}

// Generate lowers prog with a fresh generator.
func Generate(prog *ast.Program) (string, error) {
	return NewGenerator().Generate(prog)
}

// Generate generates LLVM IR for a program. Functions are emitted in
// declaration order; enums and traits have no runtime representation.
func (g *LLVMGenerator) Generate(prog *ast.Program) (string, error) {
	// Reset state
	g.builder.Reset()
	g.regCounter = 0
	g.labelCounter = 0
	g.signatures = make(map[string]*signature)

	for _, fn := range prog.Functions() {
		sig, err := signatureOf(fn)
		if err != nil {
			return "", err
		}
		g.signatures[fn.Name.Name] = sig
	}

	g.emitModuleHeader()
	g.emitRuntimeDeclarations()

	for _, item := range prog.Items {
		switch d := item.(type) {
		case *ast.FnDecl:
			if err := g.genFunction(d); err != nil {
				return "", err
			}
		case *ast.EnumDecl:
			g.emit(fmt.Sprintf("; enum %s has no runtime representation", d.Name.Name))
			g.emit("")
		case *ast.TraitDecl:
			g.emit(fmt.Sprintf("; trait %s has no runtime representation", d.Name.Name))
			g.emit("")
		}
	}

	return g.builder.String(), nil
}

// emitModuleHeader emits the LLVM module header.
func (g *LLVMGenerator) emitModuleHeader() {
	g.emit("; ModuleID = 'tupa'")
	g.emit("source_filename = \"tupa\"")
	g.emit("")
}

// emitRuntimeDeclarations emits declarations for the exponentiation helpers.
func (g *LLVMGenerator) emitRuntimeDeclarations() {
	g.emit("declare double @llvm.pow.f64(double, double)")
	g.emit("declare i64 @tupa_pow_i64(i64, i64)")
	g.emit("")
}

// emit writes a line to the module buffer.
func (g *LLVMGenerator) emit(line string) {
	g.builder.WriteString(line)
	g.builder.WriteString("\n")
}

// emitInst writes an instruction into the current function body.
func (g *LLVMGenerator) emitInst(inst string) {
	g.fn.body.WriteString("  ")
	g.fn.body.WriteString(inst)
	g.fn.body.WriteString("\n")
}

// emitTerminator writes a block terminator and marks the block closed.
func (g *LLVMGenerator) emitTerminator(inst string) {
	g.emitInst(inst)
	g.fn.terminated = true
}

// emitLabel opens a new basic block.
func (g *LLVMGenerator) emitLabel(label string) {
	g.fn.body.WriteString(label)
	g.fn.body.WriteString(":\n")
	g.fn.label = label
	g.fn.terminated = false
}

// ensureOpenBlock starts a fresh block when code follows a terminator, as
// after `return` in the middle of a block.
func (g *LLVMGenerator) ensureOpenBlock() {
	if g.fn.terminated {
		g.emitLabel(g.nextLabel())
	}
}

// nextReg generates the next unique register name.
func (g *LLVMGenerator) nextReg() string {
	reg := fmt.Sprintf("%%reg%d", g.regCounter)
	g.regCounter++
	return reg
}

// nextLabel generates the next unique label name.
func (g *LLVMGenerator) nextLabel() string {
	label := fmt.Sprintf("label%d", g.labelCounter)
	g.labelCounter++
	return label
}
