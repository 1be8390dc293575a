package lsp

import (
	"encoding/json"
	"fmt"
)

// Hover represents hover information.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func (s *Server) handleHover(req *request) any {
	var params TextDocumentPositionParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return replyError(req, codeInvalidParams, "invalid params: %v", err)
	}

	doc, ok := s.document(params.TextDocument.URI)
	if !ok || doc.Program == nil {
		return reply(req, nil)
	}

	sym, ident := resolveAt(doc, positionOffset(doc.Content, params.Position))
	if sym == nil {
		return reply(req, nil)
	}

	value := fmt.Sprintf("```tupa\n%s\n```", sym.Detail)
	switch sym.Kind {
	case symbolStdStep:
		value += "\nBuilt-in pipeline step."
	case symbolStdMetric:
		value += "\nBuilt-in metric, bind it with `let name = " + sym.Name + "();`."
	}

	span := ident.Span()
	rng := spanRange(doc.Content, span.Start, span.End)
	return reply(req, Hover{
		Contents: MarkupContent{Kind: "markdown", Value: value},
		Range:    &rng,
	})
}
