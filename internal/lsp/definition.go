package lsp

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/lexer"
	"github.com/tupa-lang/tupa/internal/runtime"
)

// Location represents a location in a document.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

type symbolKind int

const (
	symbolFunction symbolKind = iota
	symbolEnum
	symbolTrait
	symbolParam
	symbolLocal
	symbolStdStep
	symbolStdMetric
)

// symbol is what an identifier resolves to. Decl is nil for std functions.
type symbol struct {
	Name   string
	Kind   symbolKind
	Decl   *ast.Ident
	Detail string
}

func (s *Server) handleDefinition(req *request) any {
	var params TextDocumentPositionParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return replyError(req, codeInvalidParams, "invalid params: %v", err)
	}

	doc, ok := s.document(params.TextDocument.URI)
	if !ok || doc.Program == nil {
		return reply(req, nil)
	}

	sym, _ := resolveAt(doc, positionOffset(doc.Content, params.Position))
	if sym == nil || sym.Decl == nil {
		return reply(req, nil)
	}
	span := sym.Decl.Span()
	return reply(req, Location{URI: doc.URI, Range: spanRange(doc.Content, span.Start, span.End)})
}

// resolveAt finds the identifier under offset and the symbol it refers to.
func resolveAt(doc *Document, offset int) (*symbol, *ast.Ident) {
	ident := identAt(doc.Program, offset)
	if ident == nil {
		return nil, nil
	}
	return resolve(doc.Program, ident), ident
}

func identAt(prog *ast.Program, offset int) *ast.Ident {
	var found *ast.Ident
	ast.Walk(prog, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		// A cursor just past the last character still counts.
		if id, ok := n.(*ast.Ident); ok && id.Span().Start <= offset && offset <= id.Span().End {
			found = id
		}
		return true
	})
	return found
}

// resolve looks ident up in the enclosing function first, then among the
// top-level items, then in the std registry.
func resolve(prog *ast.Program, ident *ast.Ident) *symbol {
	if fn := enclosingFn(prog, ident.Span()); fn != nil {
		if sym := resolveLocal(fn, ident); sym != nil {
			return sym
		}
	}

	for _, item := range prog.Items {
		switch d := item.(type) {
		case *ast.FnDecl:
			if d.Name.Name == ident.Name {
				return &symbol{Name: d.Name.Name, Kind: symbolFunction, Decl: d.Name, Detail: signature(d)}
			}
		case *ast.EnumDecl:
			if d.Name.Name == ident.Name {
				return &symbol{Name: d.Name.Name, Kind: symbolEnum, Decl: d.Name, Detail: "enum " + d.Name.Name}
			}
		case *ast.TraitDecl:
			if d.Name.Name == ident.Name {
				return &symbol{Name: d.Name.Name, Kind: symbolTrait, Decl: d.Name, Detail: "trait " + d.Name.Name}
			}
		}
	}

	if _, ok := slices.BinarySearch(runtime.StdSteps(), ident.Name); ok {
		return &symbol{Name: ident.Name, Kind: symbolStdStep, Detail: "std step " + ident.Name}
	}
	if _, ok := slices.BinarySearch(runtime.StdMetrics(), ident.Name); ok {
		return &symbol{Name: ident.Name, Kind: symbolStdMetric, Detail: "std metric " + ident.Name}
	}
	return nil
}

func enclosingFn(prog *ast.Program, span lexer.Span) *ast.FnDecl {
	for _, fn := range prog.Functions() {
		if fn.Span().Contains(span) {
			return fn
		}
	}
	return nil
}

// resolveLocal finds the closest binding of ident declared before it in fn.
// Block scoping is ignored.
func resolveLocal(fn *ast.FnDecl, ident *ast.Ident) *symbol {
	var best *symbol
	for _, p := range fn.Params {
		if p.Name.Name == ident.Name {
			best = &symbol{Name: p.Name.Name, Kind: symbolParam, Decl: p.Name, Detail: p.Name.Name + ": " + ast.TypeString(p.Type)}
		}
	}
	if fn.Body == nil {
		return best
	}
	ast.Walk(fn.Body, func(n ast.Node) bool {
		let, ok := n.(*ast.LetStmt)
		if !ok || let.Name.Name != ident.Name || let.Name.Span().Start > ident.Span().Start {
			return true
		}
		detail := "let " + let.Name.Name
		if let.Type != nil {
			detail += ": " + ast.TypeString(let.Type)
		}
		best = &symbol{Name: let.Name.Name, Kind: symbolLocal, Decl: let.Name, Detail: detail}
		return true
	})
	return best
}

func signature(fn *ast.FnDecl) string {
	var b strings.Builder
	b.WriteString("fn " + fn.Name.Name + "(")
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name.Name + ": " + ast.TypeString(p.Type))
	}
	b.WriteString(")")
	if fn.ReturnType != nil {
		b.WriteString(" -> " + ast.TypeString(fn.ReturnType))
	}
	return b.String()
}
