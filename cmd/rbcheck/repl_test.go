package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func pressEnter(t *testing.T, m replModel, input string) (replModel, tea.Cmd) {
	t.Helper()
	m.textInput.SetValue(input)
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}
	return rm, cmd
}

func TestUpdateQuitCommandReturnsQuit(t *testing.T) {
	rm, cmd := pressEnter(t, newREPLModel(), ":quit")

	if !rm.quitting {
		t.Fatalf("quitting flag not set")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after quit command")
	}
	if cmd == nil {
		t.Fatalf("expected tea.Quit command")
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(tea.QuitMsg); !ok {
			t.Fatalf("expected QuitMsg, got %T", msg)
		}
	}
}

func TestUpdateNonQuitCommandDoesNotReturnCmd(t *testing.T) {
	rm, cmd := pressEnter(t, newREPLModel(), ":help")

	if cmd != nil {
		t.Fatalf("expected no command for non-quit input")
	}
	if rm.quitting {
		t.Fatalf("quitting should remain false")
	}
	if !rm.showHelp {
		t.Fatalf("help toggle should be enabled")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after command")
	}
}

func TestEvaluateReportsDiagnosticsOfNewLine(t *testing.T) {
	m := newREPLModel()

	output, status := m.evaluate(`x = "a" + 1`)
	if status != entryError {
		t.Fatalf("expected error status, got %v (%s)", status, output)
	}
	if !strings.HasPrefix(output, "1:5 error [INVALID_OPERAND_TYPE]") {
		t.Fatalf("unexpected output %q", output)
	}

	output, status = m.evaluate("y = 2")
	if status != entryOK || output != "ok" {
		t.Fatalf("expected earlier diagnostics to stay quiet, got %v %q", status, output)
	}

	output, status = m.evaluate(`z = "7kg".to_i`)
	if status != entryWarning || !strings.Contains(output, "UNSAFE_CAST") {
		t.Fatalf("expected warning, got %v %q", status, output)
	}
}

func TestEvaluateWaitsForOpenBlocks(t *testing.T) {
	m := newREPLModel()
	m, _ = pressEnter(t, m, "def saludo")
	if !m.pending || m.textInput.Prompt != replPendingPrompt {
		t.Fatalf("expected pending block, got pending=%v prompt=%q", m.pending, m.textInput.Prompt)
	}
	m, _ = pressEnter(t, m, "  puts 1")
	if !m.pending {
		t.Fatalf("block should still be open")
	}
	m, _ = pressEnter(t, m, "end")
	if m.pending || m.textInput.Prompt != replPrompt {
		t.Fatalf("expected block to be closed")
	}
	last := m.history[len(m.history)-1]
	if last.status != entryOK || last.output != "ok" {
		t.Fatalf("unexpected last entry %+v", last)
	}
	if len(m.buffer) != 3 || len(m.cmdHistory) != 3 {
		t.Fatalf("expected 3 buffered lines, got %v", m.buffer)
	}
}

func TestResetCommandEmptiesBuffer(t *testing.T) {
	m := newREPLModel()
	m, _ = pressEnter(t, m, "while true")
	m, _ = pressEnter(t, m, ":reset")
	if len(m.buffer) != 0 || m.pending {
		t.Fatalf("expected empty buffer, got %v pending=%v", m.buffer, m.pending)
	}
	m, _ = pressEnter(t, m, "break")
	last := m.history[len(m.history)-1]
	if last.status != entryError || !strings.Contains(last.output, "ILLEGAL_CONTROL_KEYWORD") {
		t.Fatalf("expected break outside loop after reset, got %+v", last)
	}
}

func TestTokensCommand(t *testing.T) {
	m := newREPLModel()
	m, _ = pressEnter(t, m, ":tokens x = 1")
	last := m.history[len(m.history)-1]
	if last.output != "IDENT = INTEGER EOF" {
		t.Fatalf("unexpected tokens output %q", last.output)
	}

	m, _ = pressEnter(t, m, "puts :sym")
	m, _ = pressEnter(t, m, ":t")
	last = m.history[len(m.history)-1]
	if last.output != "IDENT SYMBOL EOF" {
		t.Fatalf("expected tokens of the last line, got %q", last.output)
	}
}

func TestUnknownCommand(t *testing.T) {
	m, _ := pressEnter(t, newREPLModel(), ":frobnicate")
	last := m.history[len(m.history)-1]
	if last.status != entryError || !strings.Contains(last.output, "Unknown command") {
		t.Fatalf("unexpected entry %+v", last)
	}
}

func TestAutocompleteUsesBufferedNames(t *testing.T) {
	m := newREPLModel()
	m, _ = pressEnter(t, m, "total_general = 1")
	m.textInput.SetValue("puts total_g")

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	rm := model.(replModel)
	if got := rm.textInput.Value(); got != "puts total_general" {
		t.Fatalf("expected completion, got %q", got)
	}
}

func TestAutocompleteListsSeveralMatches(t *testing.T) {
	m := newREPLModel()
	m.textInput.SetValue("un")

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	rm := model.(replModel)
	last := rm.history[len(rm.history)-1]
	if last.output != "Completions: undef, unless, until" {
		t.Fatalf("unexpected completions %q", last.output)
	}
}
