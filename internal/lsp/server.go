// Package lsp implements a Language Server Protocol server for Tupã source
// files. It speaks JSON-RPC 2.0 with Content-Length framing over any
// reader/writer pair, usually stdin and stdout.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tupa-lang/tupa/internal/ast"
	"github.com/tupa-lang/tupa/internal/diag"
	"github.com/tupa-lang/tupa/internal/driver"
)

const (
	serverName    = "tupa-lsp"
	serverVersion = "0.1.0"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Server represents the LSP server.
type Server struct {
	drv *driver.Driver
	log *zap.Logger

	in io.Reader

	outMu sync.Mutex
	out   io.Writer

	mu        sync.RWMutex
	documents map[string]*Document
	shutdown  bool
}

// Document represents an open document. Program is kept whenever the source
// parses, even if it fails to type check.
type Document struct {
	URI         string
	Content     string
	Version     int
	Program     *ast.Program
	Diagnostics []diag.Diagnostic
}

// NewServer creates a server reading requests from in and writing responses
// and notifications to out.
func NewServer(drv *driver.Driver, in io.Reader, out io.Writer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		drv:       drv,
		log:       log,
		in:        in,
		out:       out,
		documents: make(map[string]*Document),
	}
}

// Run serves requests until the client sends exit, the input ends or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	msgs := make(chan incoming)
	done := make(chan struct{})
	defer close(done)
	go s.readLoop(msgs, done)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var msg incoming
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg = <-msgs:
		}
		if errors.Is(msg.err, io.EOF) {
			return nil
		}
		if msg.err != nil {
			return msg.err
		}

		var req request
		if err := json.Unmarshal(msg.body, &req); err != nil {
			s.log.Warn("failed to parse message", zap.Error(err))
			s.send(errorResponse{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: rpcError{Code: codeParseError, Message: err.Error()}})
			continue
		}
		if req.Method == "exit" {
			return nil
		}

		if resp := s.handle(&req); resp != nil {
			s.send(resp)
		}
	}
}

type incoming struct {
	body []byte
	err  error
}

// readLoop hands framed messages to msgs until a read fails or done is
// closed. A read already blocked on the input finishes only when the input
// does.
func (s *Server) readLoop(msgs chan<- incoming, done <-chan struct{}) {
	r := bufio.NewReader(s.in)
	for {
		body, err := readMessage(r)
		select {
		case msgs <- incoming{body: body, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// readMessage reads one framed message body.
func readMessage(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && line == "" && length < 0 {
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "failed to read header")
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if length < 0 {
				// Stray blank line between messages.
				continue
			}
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errors.Errorf("malformed header %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, errors.Errorf("invalid Content-Length %q", value)
			}
			length = n
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(err, "failed to read message body")
	}
	return body, nil
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *request) isNotification() bool { return len(r.ID) == 0 }

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   rpcError        `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

func reply(req *request, result any) any {
	return response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func replyError(req *request, code int, format string, args ...any) any {
	return errorResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error:   rpcError{Code: code, Message: fmt.Sprintf(format, args...)},
	}
}

// handle dispatches one message and returns the response to send, if any.
func (s *Server) handle(req *request) any {
	s.log.Debug("request", zap.String("method", req.Method))

	s.mu.RLock()
	closing := s.shutdown
	s.mu.RUnlock()
	if closing {
		if req.isNotification() {
			return nil
		}
		return replyError(req, codeInvalidRequest, "server is shutting down")
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized":
		return nil
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		return reply(req, nil)
	case "textDocument/didOpen":
		s.handleDidOpen(req)
		return nil
	case "textDocument/didChange":
		s.handleDidChange(req)
		return nil
	case "textDocument/didClose":
		s.handleDidClose(req)
		return nil
	case "textDocument/hover":
		return s.handleHover(req)
	case "textDocument/definition":
		return s.handleDefinition(req)
	case "textDocument/completion":
		return s.handleCompletion(req)
	}

	if req.isNotification() {
		return nil
	}
	return replyError(req, codeMethodNotFound, "method not found: %s", req.Method)
}

// send writes msg as one framed message.
func (s *Server) send(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("failed to encode message", zap.Error(err))
		return
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		s.log.Error("failed to write header", zap.Error(err))
		return
	}
	if _, err := s.out.Write(data); err != nil {
		s.log.Error("failed to write body", zap.Error(err))
	}
}

// InitializeResult represents the initialize response.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   ServerInfo         `json:"serverInfo"`
}

type ServerCapabilities struct {
	TextDocumentSync   int            `json:"textDocumentSync"`
	CompletionProvider map[string]any `json:"completionProvider,omitempty"`
	HoverProvider      bool           `json:"hoverProvider"`
	DefinitionProvider bool           `json:"definitionProvider"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handleInitialize(req *request) any {
	return reply(req, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:   1, // full
			CompletionProvider: map[string]any{"resolveProvider": false},
			HoverProvider:      true,
			DefinitionProvider: true,
		},
		ServerInfo: ServerInfo{Name: serverName, Version: serverVersion},
	})
}

type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

// TextDocumentPositionParams represents a position in a text document.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

func (s *Server) handleDidOpen(req *request) {
	var params struct {
		TextDocument TextDocumentItem `json:"textDocument"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.log.Warn("failed to parse didOpen params", zap.Error(err))
		return
	}

	doc := &Document{
		URI:     params.TextDocument.URI,
		Content: params.TextDocument.Text,
		Version: params.TextDocument.Version,
	}
	s.analyze(doc)

	s.mu.Lock()
	s.documents[doc.URI] = doc
	s.mu.Unlock()

	s.publishDiagnostics(doc)
}

func (s *Server) handleDidChange(req *request) {
	var params struct {
		TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
		ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.log.Warn("failed to parse didChange params", zap.Error(err))
		return
	}
	if len(params.ContentChanges) == 0 {
		return
	}

	// Full sync: the last change carries the whole document.
	doc := &Document{
		URI:     params.TextDocument.URI,
		Content: params.ContentChanges[len(params.ContentChanges)-1].Text,
		Version: params.TextDocument.Version,
	}
	s.analyze(doc)

	s.mu.Lock()
	if _, ok := s.documents[doc.URI]; !ok {
		s.mu.Unlock()
		return
	}
	s.documents[doc.URI] = doc
	s.mu.Unlock()

	s.publishDiagnostics(doc)
}

func (s *Server) handleDidClose(req *request) {
	var params struct {
		TextDocument TextDocumentIdentifier `json:"textDocument"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.log.Warn("failed to parse didClose params", zap.Error(err))
		return
	}

	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	// Clear the client's diagnostics for the closed file.
	s.publishDiagnostics(&Document{URI: params.TextDocument.URI})
}

func (s *Server) document(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uri]
	return doc, ok
}

// analyze runs the driver's analysis over doc.Content.
func (s *Server) analyze(doc *Document) {
	prog, _, err := s.drv.Analyze(doc.Content)
	doc.Program = prog
	if err == nil {
		return
	}

	d, ok := driver.Diagnose(err)
	if !ok {
		s.log.Error("analysis failed", zap.String("uri", doc.URI), zap.Error(err))
		return
	}
	doc.Diagnostics = append(doc.Diagnostics, d)
}

// Diagnostic represents an LSP diagnostic.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"`
	Code     string `json:"code,omitempty"`
	Source   string `json:"source"`
	Message  string `json:"message"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Position is a zero-based line and character offset. Characters count
// runes.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     int          `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

func (s *Server) publishDiagnostics(doc *Document) {
	out := make([]Diagnostic, 0, len(doc.Diagnostics))
	for _, d := range doc.Diagnostics {
		out = append(out, Diagnostic{
			Range:    spanRange(doc.Content, d.Span.Start, d.Span.End),
			Severity: diagnosticSeverity(d.Severity),
			Code:     string(d.Code),
			Source:   "tupa",
			Message:  d.Message,
		})
	}
	s.send(notification{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params:  PublishDiagnosticsParams{URI: doc.URI, Version: doc.Version, Diagnostics: out},
	})
}

func diagnosticSeverity(sev diag.Severity) int {
	if sev == diag.SeverityNote {
		return 3 // information
	}
	return 1
}

// spanRange converts byte offsets into an LSP range.
func spanRange(content string, start, end int) Range {
	if end < start {
		end = start
	}
	return Range{Start: offsetPosition(content, start), End: offsetPosition(content, end)}
}

func offsetPosition(content string, offset int) Position {
	loc := diag.Span{Start: offset}.Locate(content)
	return Position{Line: loc.Line - 1, Character: loc.Column - 1}
}

// positionOffset converts an LSP position into a byte offset, clamped to the
// end of its line.
func positionOffset(content string, pos Position) int {
	line, col := 0, 0
	for i, r := range content {
		if line == pos.Line && (col == pos.Character || r == '\n') {
			return i
		}
		if r == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return len(content)
}
