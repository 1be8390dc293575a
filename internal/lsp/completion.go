package lsp

import (
	"encoding/json"
	"strings"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/lexer"
	"github.com/tupa-lang/tupa/internal/runtime"
)

// CompletionList represents a list of completion items.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

type CompletionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

const (
	completionKindFunction  = 3
	completionKindVariable  = 6
	completionKindInterface = 8
	completionKindEnum      = 13
	completionKindKeyword   = 14
)

var primitiveTypes = []string{"i64", "f64", "bool", "String"}

func (s *Server) handleCompletion(req *request) any {
	var params TextDocumentPositionParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return replyError(req, codeInvalidParams, "invalid params: %v", err)
	}

	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return reply(req, CompletionList{Items: []CompletionItem{}})
	}

	offset := positionOffset(doc.Content, params.Position)
	prefix := wordBefore(doc.Content, offset)
	return reply(req, CompletionList{Items: completions(doc.Program, prefix)})
}

// completions lists keywords, primitive types, the program's declarations and
// the std functions whose names start with prefix.
func completions(prog *ast.Program, prefix string) []CompletionItem {
	items := []CompletionItem{}
	add := func(label string, kind int, detail string) {
		if strings.HasPrefix(label, prefix) {
			items = append(items, CompletionItem{Label: label, Kind: kind, Detail: detail})
		}
	}

	for _, kw := range lexer.Keywords() {
		add(kw, completionKindKeyword, "")
	}
	for _, t := range primitiveTypes {
		add(t, completionKindKeyword, "type")
	}

	if prog != nil {
		for _, item := range prog.Items {
			switch d := item.(type) {
			case *ast.FnDecl:
				add(d.Name.Name, completionKindFunction, signature(d))
			case *ast.EnumDecl:
				add(d.Name.Name, completionKindEnum, "enum")
			case *ast.TraitDecl:
				add(d.Name.Name, completionKindInterface, "trait")
			}
		}
	}

	for _, name := range runtime.StdSteps() {
		add(name, completionKindFunction, "std step")
	}
	for _, name := range runtime.StdMetrics() {
		add(name, completionKindVariable, "std metric")
	}
	return items
}

// wordBefore returns the identifier characters immediately before offset.
func wordBefore(content string, offset int) string {
	if offset > len(content) {
		offset = len(content)
	}
	start := offset
	for start > 0 {
		c := content[start-1]
		if c != '_' && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') && !('0' <= c && c <= '9') {
			break
		}
		start--
	}
	return content[start:offset]
}
