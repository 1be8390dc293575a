package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tupa-lang/tupa/internal/config"
	"github.com/tupa-lang/tupa/internal/driver"
)

const (
	goodURI = "file:///work/good.tupa"
	badURI  = "file:///work/bad.tupa"
)

const goodSrc = `fn sq(x: i64) -> i64 { return x * x; }

fn main() {
    let y: i64 = sq(2);
    normalize();
}
`

type message struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// session collects framed client messages and runs them through a server.
type session struct {
	in     bytes.Buffer
	nextID int
}

func (s *session) request(method string, params any) int {
	s.nextID++
	s.write(map[string]any{"jsonrpc": "2.0", "id": s.nextID, "method": method, "params": params})
	return s.nextID
}

func (s *session) notify(method string, params any) {
	s.write(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
}

func (s *session) write(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(&s.in, "Content-Length: %d\r\n\r\n%s", len(data), data)
}

func (s *session) run(t *testing.T) (responses map[int]message, notifications []message) {
	t.Helper()
	var out bytes.Buffer
	srv := NewServer(driver.New(config.Default(), nil), &s.in, &out, zaptest.NewLogger(t))
	require.NoError(t, srv.Run(context.Background()))

	responses = make(map[int]message)
	r := bufio.NewReader(&out)
	for {
		body, err := readMessage(r)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		var msg message
		require.NoError(t, json.Unmarshal(body, &msg))
		if msg.Method != "" {
			notifications = append(notifications, msg)
			continue
		}
		var id int
		require.NoError(t, json.Unmarshal(msg.ID, &id))
		responses[id] = msg
	}
	return responses, notifications
}

func position(uri string, line, char int) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": line, "character": char},
	}
}

func openDoc(uri, text string) map[string]any {
	return map[string]any{"textDocument": map[string]any{"uri": uri, "languageId": "tupa", "version": 1, "text": text}}
}

func TestInitializeAndShutdown(t *testing.T) {
	var s session
	initID := s.request("initialize", map[string]any{"processId": 1})
	s.notify("initialized", map[string]any{})
	unknownID := s.request("workspace/symbol", map[string]any{})
	shutdownID := s.request("shutdown", nil)
	lateID := s.request("textDocument/hover", position(goodURI, 0, 0))
	s.notify("exit", nil)
	s.request("shutdown", nil) // after exit, never read

	responses, _ := s.run(t)
	require.Len(t, responses, 4)

	var init InitializeResult
	require.NoError(t, json.Unmarshal(responses[initID].Result, &init))
	assert.Equal(t, "tupa-lsp", init.ServerInfo.Name)
	assert.True(t, init.Capabilities.HoverProvider)
	assert.True(t, init.Capabilities.DefinitionProvider)
	assert.NotNil(t, init.Capabilities.CompletionProvider)

	require.NotNil(t, responses[unknownID].Error)
	assert.Equal(t, codeMethodNotFound, responses[unknownID].Error.Code)

	assert.Nil(t, responses[shutdownID].Error)
	assert.Equal(t, "null", string(responses[shutdownID].Result))

	require.NotNil(t, responses[lateID].Error)
	assert.Equal(t, codeInvalidRequest, responses[lateID].Error.Code)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	in, w := io.Pipe()
	defer w.Close()
	srv := NewServer(driver.New(config.Default(), nil), in, io.Discard, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run still waiting for input after cancellation")
	}
}

func TestPublishDiagnostics(t *testing.T) {
	var s session
	s.notify("textDocument/didOpen", openDoc(goodURI, goodSrc))
	s.notify("textDocument/didOpen", openDoc(badURI, "fn f() {\n    let a: i64 = true;\n}\n"))
	s.notify("textDocument/didChange", map[string]any{
		"textDocument":   map[string]any{"uri": badURI, "version": 2},
		"contentChanges": []map[string]any{{"text": "fn f() {\n    let a: i64 = 1\n"}},
	})
	s.notify("textDocument/didClose", map[string]any{"textDocument": map[string]any{"uri": badURI}})

	_, notes := s.run(t)
	require.Len(t, notes, 4)

	var published []PublishDiagnosticsParams
	for _, n := range notes {
		assert.Equal(t, "textDocument/publishDiagnostics", n.Method)
		var p PublishDiagnosticsParams
		require.NoError(t, json.Unmarshal(n.Params, &p))
		published = append(published, p)
	}

	assert.Equal(t, goodURI, published[0].URI)
	assert.Empty(t, published[0].Diagnostics)

	require.Len(t, published[1].Diagnostics, 1)
	d := published[1].Diagnostics[0]
	assert.Equal(t, "TYPE_MISMATCH", d.Code)
	assert.Equal(t, 1, d.Severity)
	assert.Equal(t, "tupa", d.Source)
	assert.Equal(t, 1, d.Range.Start.Line)

	require.Len(t, published[2].Diagnostics, 1)
	assert.Equal(t, 2, published[2].Version)
	assert.True(t, strings.HasPrefix(published[2].Diagnostics[0].Code, "PARSE_"))

	assert.Equal(t, badURI, published[3].URI)
	assert.Empty(t, published[3].Diagnostics)
}

func TestHover(t *testing.T) {
	var s session
	s.notify("textDocument/didOpen", openDoc(goodURI, goodSrc))
	fnID := s.request("textDocument/hover", position(goodURI, 3, 18))
	paramID := s.request("textDocument/hover", position(goodURI, 0, 30))
	stdID := s.request("textDocument/hover", position(goodURI, 4, 6))
	blankID := s.request("textDocument/hover", position(goodURI, 1, 0))
	missingID := s.request("textDocument/hover", position("file:///nowhere.tupa", 0, 0))

	responses, _ := s.run(t)

	hoverText := func(id int) string {
		var h Hover
		require.NoError(t, json.Unmarshal(responses[id].Result, &h))
		return h.Contents.Value
	}

	assert.Contains(t, hoverText(fnID), "fn sq(x: i64) -> i64")
	assert.Contains(t, hoverText(paramID), "x: i64")
	assert.Contains(t, hoverText(stdID), "std step normalize")

	var h Hover
	require.NoError(t, json.Unmarshal(responses[fnID].Result, &h))
	require.NotNil(t, h.Range)
	assert.Equal(t, Position{Line: 3, Character: 17}, h.Range.Start)
	assert.Equal(t, Position{Line: 3, Character: 19}, h.Range.End)

	assert.Equal(t, "null", string(responses[blankID].Result))
	assert.Equal(t, "null", string(responses[missingID].Result))
}

func TestDefinition(t *testing.T) {
	var s session
	s.notify("textDocument/didOpen", openDoc(goodURI, goodSrc))
	fnID := s.request("textDocument/definition", position(goodURI, 3, 17))
	paramID := s.request("textDocument/definition", position(goodURI, 0, 34))
	localID := s.request("textDocument/definition", position(goodURI, 3, 8))
	stdID := s.request("textDocument/definition", position(goodURI, 4, 4))

	responses, _ := s.run(t)

	location := func(id int) Location {
		var loc Location
		require.NoError(t, json.Unmarshal(responses[id].Result, &loc))
		return loc
	}

	loc := location(fnID)
	assert.Equal(t, goodURI, loc.URI)
	assert.Equal(t, Range{Start: Position{0, 3}, End: Position{0, 5}}, loc.Range)

	assert.Equal(t, Position{0, 6}, location(paramID).Range.Start)
	assert.Equal(t, Position{3, 8}, location(localID).Range.Start)
	assert.Equal(t, "null", string(responses[stdID].Result))
}

func TestCompletion(t *testing.T) {
	var s session
	s.notify("textDocument/didOpen", openDoc(goodURI, goodSrc))
	stepID := s.request("textDocument/completion", position(goodURI, 4, 6))
	fnID := s.request("textDocument/completion", position(goodURI, 3, 18))

	responses, _ := s.run(t)

	labels := func(id int) []string {
		var list CompletionList
		require.NoError(t, json.Unmarshal(responses[id].Result, &list))
		var out []string
		for _, item := range list.Items {
			out = append(out, item.Label)
		}
		return out
	}

	assert.Equal(t, []string{"normalize"}, labels(stepID))
	assert.ElementsMatch(t, []string{"sq", "sort", "standardize", "stddev", "shuffle", "sum"}, labels(fnID))
}

func TestCompletionsWithoutProgram(t *testing.T) {
	items := completions(nil, "wh")
	require.Len(t, items, 1)
	assert.Equal(t, "while", items[0].Label)
	assert.Equal(t, completionKindKeyword, items[0].Kind)
}

func TestReadMessage(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Type: application/json\r\ncontent-length: 2\r\n\r\n{}"))
	body, err := readMessage(r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	_, err = readMessage(r)
	assert.Equal(t, io.EOF, err)

	_, err = readMessage(bufio.NewReader(strings.NewReader("Content-Length: x\r\n\r\n")))
	assert.Error(t, err)

	_, err = readMessage(bufio.NewReader(strings.NewReader("Content-Length: 10\r\n\r\n{}")))
	assert.Error(t, err)
}

func TestPositionOffset(t *testing.T) {
	content := "ab\nçd\n"
	assert.Equal(t, 0, positionOffset(content, Position{0, 0}))
	assert.Equal(t, 2, positionOffset(content, Position{0, 9}))
	assert.Equal(t, 5, positionOffset(content, Position{1, 1}))
	assert.Equal(t, len(content), positionOffset(content, Position{5, 0}))

	assert.Equal(t, Position{Line: 1, Character: 1}, offsetPosition(content, 5))
}
