package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/mgomes/rbcheck/rbcheck"
)

func newTestServer(docs map[string]string) *lspServer {
	if docs == nil {
		docs = make(map[string]string)
	}
	return &lspServer{
		checker: rbcheck.MustNewChecker(rbcheck.Config{}),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		docs:    docs,
	}
}

func TestRunCLIStartsLSPAndExitsOnEOF(t *testing.T) {
	origStdin := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close write pipe: %v", err)
	}
	os.Stdin = r
	defer func() {
		os.Stdin = origStdin
		_ = r.Close()
	}()

	if err := runCLI([]string{"rbcheck", "lsp"}); err != nil {
		t.Fatalf("runCLI lsp failed: %v", err)
	}
}

func TestDiagnosticsForSourceWithoutErrors(t *testing.T) {
	checker := rbcheck.MustNewChecker(rbcheck.Config{})
	diags := diagnosticsForSource(checker, "file:///a.rb", "def run\n  1\nend\n")
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %d", len(diags))
	}
}

func TestDiagnosticsForSourceCarriesSeverityAndCode(t *testing.T) {
	checker := rbcheck.MustNewChecker(rbcheck.Config{})
	diags := diagnosticsForSource(checker, "file:///a.rb", "x = \"a\" + 1\ny = \"3px\".to_i\n")
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(diags))
	}
	first := diags[0]
	if first["severity"] != lspSeverityError || first["code"] != "INVALID_OPERAND_TYPE" {
		t.Fatalf("unexpected first diagnostic %#v", first)
	}
	start := first["range"].(map[string]any)["start"].(map[string]any)
	if start["line"] != 0 || start["character"] != 4 {
		t.Fatalf("unexpected start %#v", start)
	}
	if diags[1]["severity"] != lspSeverityWarning {
		t.Fatalf("expected warning severity, got %#v", diags[1]["severity"])
	}
}

func TestToLSPPositionCountsUTF16Units(t *testing.T) {
	lines := []string{"😀x = 1"}
	got := toLSPPosition(lines, rbcheck.Position{Line: 1, Column: 2})
	if got.Line != 0 || got.Character != 2 {
		t.Fatalf("expected 0:2, got %d:%d", got.Line, got.Character)
	}
}

func TestCompletionItemsWithoutPrefixAreSorted(t *testing.T) {
	items := completionItems("total = 1\n", "")
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item["label"].(string))
	}
	if !slices.IsSorted(labels) {
		t.Fatalf("expected sorted completion labels, got %v", labels)
	}

	keyword := findCompletionItem(t, items, "if")
	if keyword["detail"] != "keyword" || keyword["kind"] != lspKindKeyword {
		t.Fatalf("unexpected keyword item %#v", keyword)
	}
	name := findCompletionItem(t, items, "total")
	if name["detail"] != "name" || name["kind"] != lspKindVariable {
		t.Fatalf("unexpected name item %#v", name)
	}
}

func TestCompletionItemsRankFuzzyMatches(t *testing.T) {
	items := completionItems("total_general = 1\ntot", "tot")
	if len(items) == 0 {
		t.Fatalf("expected completion items")
	}
	if items[0]["label"] != "total_general" {
		t.Fatalf("expected total_general first, got %#v", items[0])
	}
	for _, item := range items {
		if item["label"] == "tot" {
			t.Fatalf("prefix itself must not be offered")
		}
	}
}

func TestHandleMessageDidOpenAndClose(t *testing.T) {
	server := newTestServer(nil)
	uri := "file:///tmp/test.rb"
	messages := server.handleMessage(lspInboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/didOpen",
		Params:  mustMarshal(t, map[string]any{"textDocument": map[string]any{"uri": uri, "text": "def run(\n  1\n"}}),
	})
	if len(messages) != 1 || messages[0].Method != "textDocument/publishDiagnostics" {
		t.Fatalf("expected one publishDiagnostics notification, got %#v", messages)
	}
	diags := messages[0].Params.(map[string]any)["diagnostics"].([]map[string]any)
	if len(diags) == 0 {
		t.Fatalf("expected diagnostics for invalid source")
	}
	if _, ok := server.docs[uri]; !ok {
		t.Fatalf("expected document to be tracked")
	}

	messages = server.handleMessage(lspInboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/didClose",
		Params:  mustMarshal(t, map[string]any{"textDocument": map[string]any{"uri": uri}}),
	})
	if len(messages) != 1 {
		t.Fatalf("expected diagnostics to be cleared, got %#v", messages)
	}
	cleared := messages[0].Params.(map[string]any)["diagnostics"].([]map[string]any)
	if len(cleared) != 0 {
		t.Fatalf("expected empty diagnostics, got %v", cleared)
	}
	if _, ok := server.docs[uri]; ok {
		t.Fatalf("expected document to be forgotten")
	}
}

func TestHandleMessageDidChangeUsesLatestText(t *testing.T) {
	server := newTestServer(nil)
	messages := server.handleMessage(lspInboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/didChange",
		Params: mustMarshal(t, map[string]any{
			"textDocument":   map[string]any{"uri": "file:///a.rb"},
			"contentChanges": []map[string]any{{"text": "break\n"}, {"text": "x = 1\n"}},
		}),
	})
	if len(messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(messages))
	}
	diags := messages[0].Params.(map[string]any)["diagnostics"].([]map[string]any)
	if len(diags) != 0 || server.docs["file:///a.rb"] != "x = 1\n" {
		t.Fatalf("expected latest text to be checked, got %v", diags)
	}
}

func TestHandleMessageHover(t *testing.T) {
	uri := "file:///tmp/test.rb"
	server := newTestServer(map[string]string{
		uri: "x = \"a\" + 1\ndef saludo\nend\n",
	})
	tests := []struct {
		line, character int
		want            string
	}{
		{line: 0, character: 6, want: "INVALID_OPERAND_TYPE"},
		{line: 1, character: 1, want: "keyword"},
		{line: 1, character: 6, want: "identifier"},
	}
	for _, tt := range tests {
		messages := server.handleMessage(lspInboundMessage{
			JSONRPC: "2.0",
			ID:      rawID("1"),
			Method:  "textDocument/hover",
			Params: mustMarshal(t, map[string]any{
				"textDocument": map[string]any{"uri": uri},
				"position":     map[string]any{"line": tt.line, "character": tt.character},
			}),
		})
		if len(messages) != 1 {
			t.Fatalf("expected one response, got %d", len(messages))
		}
		result, ok := messages[0].Result.(map[string]any)
		if !ok {
			t.Fatalf("unexpected hover result: %#v", messages[0].Result)
		}
		value := result["contents"].(map[string]any)["value"].(string)
		if !strings.Contains(value, tt.want) {
			t.Fatalf("expected %q in hover at %d:%d, got %q", tt.want, tt.line, tt.character, value)
		}
	}
}

func TestHandleMessageUnknownMethod(t *testing.T) {
	server := newTestServer(nil)
	messages := server.handleMessage(lspInboundMessage{JSONRPC: "2.0", ID: rawID("7"), Method: "workspace/symbol"})
	if len(messages) != 1 || messages[0].Error == nil || messages[0].Error.Code != -32601 {
		t.Fatalf("expected method not found, got %#v", messages)
	}
	if got := server.handleMessage(lspInboundMessage{JSONRPC: "2.0", Method: "$/cancelRequest"}); got != nil {
		t.Fatalf("expected notifications to be ignored, got %#v", got)
	}
}

func TestServeRoundTrip(t *testing.T) {
	var in bytes.Buffer
	for _, msg := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///a.rb","text":"break\n"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	} {
		fmt.Fprintf(&in, "Content-Length: %d\r\n\r\n%s", len(msg), msg)
	}

	var out bytes.Buffer
	checker := rbcheck.MustNewChecker(rbcheck.Config{})
	if err := runLSP(&in, &out, checker, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("serve: %v", err)
	}
	output := out.String()
	if got := strings.Count(output, "Content-Length:"); got != 3 {
		t.Fatalf("expected 3 messages, got %d:\n%s", got, output)
	}
	for _, want := range []string{`"capabilities"`, `"ILLEGAL_CONTROL_KEYWORD"`, `"id":2`} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %s in output:\n%s", want, output)
		}
	}
}

func TestWordAtPosition(t *testing.T) {
	source := "def run\n  total_general(\"1\")\nend\n"
	if word := wordAtPosition(source, 1, 4); word != "total_general" {
		t.Fatalf("expected total_general, got %q", word)
	}
}

func TestWordAtPositionUsesUTF16CharacterOffsets(t *testing.T) {
	source := "😀😀x y\n"
	if word := wordAtPosition(source, 0, 4); word != "x" {
		t.Fatalf("expected x, got %q", word)
	}
}

func TestPrefixAtPosition(t *testing.T) {
	if got := prefixAtPosition("puts @tot\n", 0, 9); got != "@tot" {
		t.Fatalf("expected @tot, got %q", got)
	}
	if got := prefixAtPosition("x", 4, 0); got != "" {
		t.Fatalf("expected empty prefix, got %q", got)
	}
}

func mustMarshal(t *testing.T, value any) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return payload
}

func rawID(value string) *json.RawMessage {
	raw := json.RawMessage(value)
	return &raw
}

func findCompletionItem(t *testing.T, items []map[string]any, label string) map[string]any {
	t.Helper()
	for _, item := range items {
		itemLabel, ok := item["label"].(string)
		if ok && itemLabel == label {
			return item
		}
	}
	t.Fatalf("missing completion item %q", label)
	return nil
}
