package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mgomes/rbcheck/rbcheck"
)

// LSP severities and completion item kinds.
const (
	lspSeverityError   = 1
	lspSeverityWarning = 2

	lspKindVariable = 6
	lspKindKeyword  = 14
)

type lspInboundMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type lspResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type lspOutboundMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *json.RawMessage  `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  any               `json:"params,omitempty"`
	Result  any               `json:"result,omitempty"`
	Error   *lspResponseError `json:"error,omitempty"`
}

type lspTextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type lspDidOpenParams struct {
	TextDocument struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	} `json:"textDocument"`
}

type lspDidChangeParams struct {
	TextDocument   lspTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type lspDidCloseParams struct {
	TextDocument lspTextDocumentIdentifier `json:"textDocument"`
}

type lspPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type lspTextDocumentPositionParams struct {
	TextDocument lspTextDocumentIdentifier `json:"textDocument"`
	Position     lspPosition               `json:"position"`
}

type lspServer struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	checker *rbcheck.Checker
	logger  *slog.Logger
	docs    map[string]string
}

func lspCommand(args []string) error {
	fs := flag.NewFlagSet("lsp", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	verbose := fs.Bool("v", false, "log requests at debug level")
	configPath := fs.String("config", "", "configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	checker, err := loadChecker(*configPath, ".")
	if err != nil {
		return err
	}
	return runLSP(os.Stdin, os.Stdout, checker, logger)
}

func runLSP(in io.Reader, out io.Writer, checker *rbcheck.Checker, logger *slog.Logger) error {
	server := &lspServer{
		reader:  bufio.NewReader(in),
		writer:  bufio.NewWriter(out),
		checker: checker,
		logger:  logger,
		docs:    make(map[string]string),
	}
	return server.serve()
}

func (s *lspServer) serve() error {
	for {
		payload, err := s.readPayload()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Error("read message", "error", err)
			return err
		}

		var incoming lspInboundMessage
		if err := json.Unmarshal(payload, &incoming); err != nil {
			s.logger.Warn("discarding malformed message", "error", err)
			continue
		}
		s.logger.Debug("message", "method", incoming.Method)

		messages := s.handleMessage(incoming)
		for _, msg := range messages {
			if err := s.writePayload(msg); err != nil {
				s.logger.Error("write message", "method", incoming.Method, "error", err)
				return err
			}
		}

		if incoming.Method == "exit" {
			return nil
		}
	}
}

func (s *lspServer) handleMessage(incoming lspInboundMessage) []lspOutboundMessage {
	switch incoming.Method {
	case "initialize":
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"capabilities": map[string]any{
						"textDocumentSync": 1,
						"hoverProvider":    true,
						"completionProvider": map[string]any{
							"resolveProvider": false,
						},
					},
					"serverInfo": map[string]any{"name": "rbcheck"},
				},
			},
		}
	case "initialized", "exit":
		return nil
	case "shutdown":
		if incoming.ID == nil {
			return nil
		}
		return []lspOutboundMessage{{JSONRPC: "2.0", ID: incoming.ID, Result: nil}}
	case "textDocument/didOpen":
		var params lspDidOpenParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			s.logger.Warn("invalid didOpen params", "error", err)
			return nil
		}
		s.docs[params.TextDocument.URI] = params.TextDocument.Text
		return []lspOutboundMessage{
			s.publishDiagnostics(params.TextDocument.URI, params.TextDocument.Text),
		}
	case "textDocument/didChange":
		var params lspDidChangeParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			s.logger.Warn("invalid didChange params", "error", err)
			return nil
		}
		if len(params.ContentChanges) == 0 {
			return nil
		}
		latest := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.docs[params.TextDocument.URI] = latest
		return []lspOutboundMessage{
			s.publishDiagnostics(params.TextDocument.URI, latest),
		}
	case "textDocument/didClose":
		var params lspDidCloseParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			s.logger.Warn("invalid didClose params", "error", err)
			return nil
		}
		delete(s.docs, params.TextDocument.URI)
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				Method:  "textDocument/publishDiagnostics",
				Params: map[string]any{
					"uri":         params.TextDocument.URI,
					"diagnostics": []map[string]any{},
				},
			},
		}
	case "textDocument/completion":
		if incoming.ID == nil {
			return nil
		}
		var params lspTextDocumentPositionParams
		_ = json.Unmarshal(incoming.Params, &params)
		source := s.docs[params.TextDocument.URI]
		prefix := prefixAtPosition(source, params.Position.Line, params.Position.Character)
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"isIncomplete": false,
					"items":        completionItems(source, prefix),
				},
			},
		}
	case "textDocument/hover":
		if incoming.ID == nil {
			return nil
		}
		var params lspTextDocumentPositionParams
		if err := json.Unmarshal(incoming.Params, &params); err != nil {
			return []lspOutboundMessage{
				{
					JSONRPC: "2.0",
					ID:      incoming.ID,
					Error:   &lspResponseError{Code: -32602, Message: "invalid hover params"},
				},
			}
		}
		source := s.docs[params.TextDocument.URI]
		value := s.hoverText(source, params.Position)
		if value == "" {
			return []lspOutboundMessage{
				{JSONRPC: "2.0", ID: incoming.ID, Result: nil},
			}
		}
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Result: map[string]any{
					"contents": map[string]any{
						"kind":  "markdown",
						"value": value,
					},
				},
			},
		}
	default:
		if incoming.ID == nil {
			return nil
		}
		s.logger.Debug("unsupported method", "method", incoming.Method)
		return []lspOutboundMessage{
			{
				JSONRPC: "2.0",
				ID:      incoming.ID,
				Error: &lspResponseError{
					Code:    -32601,
					Message: "method not found",
				},
			},
		}
	}
}

func (s *lspServer) publishDiagnostics(uri, source string) lspOutboundMessage {
	return lspOutboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: map[string]any{
			"uri":         uri,
			"diagnostics": diagnosticsForSource(s.checker, uri, source),
		},
	}
}

func diagnosticsForSource(checker *rbcheck.Checker, uri, source string) []map[string]any {
	report := checker.Check(uri, source)
	lines := strings.Split(source, "\n")
	out := make([]map[string]any, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		start := toLSPPosition(lines, d.Span.Start)
		end := toLSPPosition(lines, d.Span.End)
		if !after(end, start) {
			end = lspPosition{Line: start.Line, Character: start.Character + 1}
		}
		severity := lspSeverityError
		if !d.IsError() {
			severity = lspSeverityWarning
		}
		out = append(out, map[string]any{
			"range": map[string]any{
				"start": map[string]any{"line": start.Line, "character": start.Character},
				"end":   map[string]any{"line": end.Line, "character": end.Character},
			},
			"severity": severity,
			"code":     string(d.Code),
			"source":   "rbcheck",
			"message":  d.Message,
		})
	}
	return out
}

// toLSPPosition converts a 1-based rune position into the 0-based UTF-16
// position LSP clients expect.
func toLSPPosition(lines []string, pos rbcheck.Position) lspPosition {
	line := max(0, pos.Line-1)
	if line >= len(lines) {
		return lspPosition{Line: line, Character: max(0, pos.Column-1)}
	}
	runes := []rune(lines[line])
	column := min(max(0, pos.Column-1), len(runes))
	return lspPosition{Line: line, Character: len(utf16.Encode(runes[:column]))}
}

// runeIndex converts a UTF-16 character offset into an index into runes.
func runeIndex(runes []rune, character int) int {
	units := 0
	for i, r := range runes {
		if units >= character {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(runes)
}

func (s *lspServer) hoverText(source string, pos lspPosition) string {
	lines := strings.Split(source, "\n")
	for _, d := range s.checker.Check("", source).Diagnostics {
		start := toLSPPosition(lines, d.Span.Start)
		end := toLSPPosition(lines, d.Span.End)
		if !containsPosition(start, end, pos) {
			continue
		}
		text := fmt.Sprintf("**%s** (%s)\n\n%s", d.Code, d.Severity, d.Message)
		if exp, err := rbcheck.Explain(string(d.Code)); err == nil {
			text += "\n\n" + exp.Summary
		}
		return text
	}

	word := wordAtPosition(source, pos.Line, pos.Character)
	if word == "" {
		return ""
	}
	return fmt.Sprintf("`%s`\n\n%s", word, classifyWord(word))
}

func containsPosition(start, end, pos lspPosition) bool {
	if !after(end, start) {
		end = lspPosition{Line: start.Line, Character: start.Character + 1}
	}
	return !after(start, pos) && after(end, pos)
}

// after reports whether a comes after b.
func after(a, b lspPosition) bool {
	if a.Line != b.Line {
		return a.Line > b.Line
	}
	return a.Character > b.Character
}

// completionItems offers keywords and the names used in source, ranked by
// how well they fuzzily match prefix.
func completionItems(source, prefix string) []map[string]any {
	keywordSet := make(map[string]struct{})
	for _, keyword := range rbcheck.Keywords() {
		keywordSet[keyword] = struct{}{}
	}
	labels := make([]string, 0, len(keywordSet))
	for keyword := range keywordSet {
		labels = append(labels, keyword)
	}
	for _, name := range sourceNames(source) {
		if _, ok := keywordSet[name]; !ok && name != prefix {
			labels = append(labels, name)
		}
	}

	if prefix == "" {
		sort.Strings(labels)
	} else {
		ranks := fuzzy.RankFindFold(prefix, labels)
		sort.Sort(ranks)
		labels = labels[:0]
		for _, rank := range ranks {
			labels = append(labels, rank.Target)
		}
	}

	items := make([]map[string]any, 0, len(labels))
	for i, label := range labels {
		kind := lspKindVariable
		detail := "name"
		if _, ok := keywordSet[label]; ok {
			kind = lspKindKeyword
			detail = "keyword"
		}
		items = append(items, map[string]any{
			"label":    label,
			"kind":     kind,
			"detail":   detail,
			"sortText": fmt.Sprintf("%04d", i),
		})
	}
	return items
}

// sourceNames returns the distinct identifiers, constants and variables of
// source in sorted order.
func sourceNames(source string) []string {
	tokens, _ := rbcheck.Tokenize(source)
	seen := make(map[string]struct{})
	var names []string
	var visit func([]rbcheck.Token)
	visit = func(tokens []rbcheck.Token) {
		for _, tok := range tokens {
			for _, part := range tok.Parts {
				visit(part.Tokens)
			}
			if !tok.IsName() {
				continue
			}
			if _, ok := seen[tok.Literal]; ok {
				continue
			}
			seen[tok.Literal] = struct{}{}
			names = append(names, tok.Literal)
		}
	}
	visit(tokens)
	sort.Strings(names)
	return names
}

func classifyWord(word string) string {
	for _, keyword := range rbcheck.Keywords() {
		if keyword == word {
			return "keyword"
		}
	}
	switch {
	case strings.HasPrefix(word, "@@"):
		return "class variable"
	case strings.HasPrefix(word, "@"):
		return "instance variable"
	case strings.HasPrefix(word, "$"):
		return "global variable"
	case unicode.IsUpper([]rune(word)[0]):
		return "constant"
	}
	return "identifier"
}

// prefixAtPosition returns the part of the word that ends at the cursor.
func prefixAtPosition(source string, line, character int) string {
	lines := strings.Split(source, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	runes := []rune(lines[line])
	end := runeIndex(runes, max(0, character))
	start := end
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	return string(runes[start:end])
}

func wordAtPosition(source string, line, character int) string {
	lines := strings.Split(source, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}

	runes := []rune(lines[line])
	if len(runes) == 0 {
		return ""
	}
	cursor := runeIndex(runes, max(0, character))
	if cursor == len(runes) {
		cursor--
	}
	if !isWordRune(runes[cursor]) {
		if cursor > 0 && isWordRune(runes[cursor-1]) {
			cursor--
		} else {
			return ""
		}
	}

	start := cursor
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	end := cursor
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return string(runes[start:end])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '?' || r == '!' || r == '@' || r == '$'
}

func (s *lspServer) readPayload() ([]byte, error) {
	contentLength := -1
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if strings.EqualFold(name, "Content-Length") {
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
			contentLength = n
		}
	}

	if contentLength < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *lspServer) writePayload(msg lspOutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}
