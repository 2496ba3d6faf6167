package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mgomes/rbcheck/rbcheck"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

const (
	replPrompt        = "rb> "
	replPendingPrompt = "..> "
)

type entryStatus int

const (
	entryOK entryStatus = iota
	entryPending
	entryWarning
	entryError
)

type historyEntry struct {
	input  string
	output string
	status entryStatus
}

type replModel struct {
	textInput   textinput.Model
	checker     *rbcheck.Checker
	buffer      []string
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	pending     bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	Tab   key.Binding
	CtrlH key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous line"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next line"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "check"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlH: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

func newREPLModel() replModel {
	ti := textinput.New()
	ti.Placeholder = "type a line of code..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = replPrompt

	return replModel{
		textInput:  ti,
		checker:    rbcheck.MustNewChecker(rbcheck.Config{}),
		buffer:     make([]string, 0),
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.CtrlH):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := m.textInput.Value()
			trimmed := strings.TrimSpace(input)
			if trimmed == "" && !m.pending {
				return m, nil
			}

			if strings.HasPrefix(trimmed, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(trimmed)
				m.textInput.SetValue("")
				m.historyIdx = -1
				return m, cmd
			}

			output, status := m.evaluate(input)
			m.history = append(m.history, historyEntry{
				input:  input,
				output: output,
				status: status,
			})
			if trimmed != "" {
				m.cmdHistory = append(m.cmdHistory, input)
			}
			m.textInput.SetValue("")
			m.historyIdx = -1
			if m.pending {
				m.textInput.Prompt = replPendingPrompt
			} else {
				m.textInput.Prompt = replPrompt
			}
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":reset", ":r":
		m.buffer = make([]string, 0)
		m.pending = false
		m.textInput.Prompt = replPrompt
		m.history = append(m.history, historyEntry{
			input:  input,
			output: "Buffer reset",
		})
	case ":tokens", ":t":
		source := strings.TrimSpace(strings.TrimPrefix(input, cmd))
		if source == "" && len(m.buffer) > 0 {
			source = m.buffer[len(m.buffer)-1]
		}
		m.history = append(m.history, historyEntry{
			input:  input,
			output: describeTokens(source),
		})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			status: entryError,
		})
	}
	return m, nil
}

// evaluate appends input to the buffer and checks the whole buffer again.
// Only diagnostics starting on the new line are reported; a block left open
// at the end of the buffer marks the REPL as waiting for more input.
func (m *replModel) evaluate(input string) (string, entryStatus) {
	first := len(m.buffer) + 1
	m.buffer = append(m.buffer, input)
	source := strings.Join(m.buffer, "\n") + "\n"

	report := m.checker.Check("repl", source)
	m.pending = false
	status := entryOK
	var lines []string
	for _, d := range report.Diagnostics {
		if d.Code == rbcheck.CodeMissingTerminator && d.Pos().Line > len(m.buffer) {
			m.pending = true
			continue
		}
		if d.Pos().Line < first {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d:%d %s [%s] %s", d.Pos().Line, d.Pos().Column, d.Severity, d.Code, d.Message))
		if d.IsError() {
			status = entryError
		} else if status == entryOK {
			status = entryWarning
		}
	}

	switch {
	case len(lines) > 0:
		return strings.Join(lines, "\n"), status
	case m.pending:
		return "waiting for end", entryPending
	default:
		return "ok", entryOK
	}
}

func describeTokens(source string) string {
	if source == "" {
		return "no input"
	}
	tokens, diags := rbcheck.Tokenize(source)
	types := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, string(tok.Type))
	}
	out := strings.Join(types, " ")
	for _, d := range diags {
		out += "\n" + d.Format("input")
	}
	return out
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	if input == "" {
		return m
	}

	words := strings.Fields(input)
	if len(words) == 0 || strings.HasSuffix(input, " ") {
		return m
	}
	lastWord := words[len(words)-1]

	completions := m.completions(lastWord)
	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}

	return m
}

// completions returns keywords and buffered names starting with word, or
// the fuzzy matches of word when nothing starts with it.
func (m replModel) completions(word string) []string {
	candidates := rbcheck.Keywords()
	candidates = append(candidates, sourceNames(strings.Join(m.buffer, "\n"))...)

	seen := make(map[string]struct{})
	var matches []string
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok || candidate == word {
			continue
		}
		seen[candidate] = struct{}{}
		if strings.HasPrefix(candidate, word) {
			matches = append(matches, candidate)
		}
	}
	if len(matches) > 0 {
		sort.Strings(matches)
		return matches
	}

	ranks := fuzzy.RankFindFold(word, candidates)
	sort.Sort(ranks)
	for _, rank := range ranks {
		if rank.Target != word {
			matches = append(matches, rank.Target)
		}
	}
	return matches
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := headerStyle.Render("rbcheck REPL")
	buffered := mutedStyle.Render(fmt.Sprintf("%d line(s) buffered", len(m.buffer)))
	b.WriteString(header + " " + buffered + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(0, min(m.width-2, 60)))) + "\n\n")

	reservedLines := 8
	if m.showHelp {
		reservedLines += 10
	}
	availableHeight := m.height - reservedLines

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = max(0, len(m.history)-availableHeight)
	}

	for i := historyStart; i < len(m.history); i++ {
		entry := m.history[i]
		if entry.input != "" {
			b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
		}
		switch entry.status {
		case entryError:
			b.WriteString("  " + errorStyle.Render("✗ "+entry.output) + "\n")
		case entryWarning:
			b.WriteString("  " + warningStyle.Render("! "+entry.output) + "\n")
		case entryPending:
			b.WriteString("  " + mutedStyle.Render("… "+entry.output) + "\n")
		default:
			b.WriteString("  " + resultStyle.Render("→ "+entry.output) + "\n")
		}
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate line history"},
		{"Tab", "Autocomplete"},
		{"Enter", "Add the line and check the buffer"},
		{":help", "Toggle this help"},
		{":tokens", "Show tokens of the last line or of the argument"},
		{":clear", "Clear history"},
		{":reset", "Empty the buffer"},
		{":quit", "Exit REPL"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-8s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL() error {
	p := tea.NewProgram(newREPLModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
