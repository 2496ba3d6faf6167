package rbcheck

import (
	"strings"
	"unicode"
)

// heredocAhead reports whether the `<<` at the cursor opens a heredoc. Besides
// operand positions, `<<~ID` and `<<-ID` directly after a spaced identifier
// are taken as a command argument (`puts <<~EOS`).
func (l *lexer) heredocAhead(spaced bool) bool {
	if !l.valueExpected() && (l.prev != tokenIdent || !spaced) {
		return false
	}
	next := l.peekRuneN(1)
	if next == '~' || next == '-' {
		next = l.peekRuneN(2)
		return isIdentifierStart(next) || isHeredocQuote(next)
	}
	return unicode.IsUpper(next) || isHeredocQuote(next)
}

func isHeredocQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '`'
}

// readHeredoc reads the opener at the cursor and captures the body from the
// following lines. The body is skipped once the lexer reaches the end of the
// opener's line.
func (l *lexer) readHeredoc(start Position) Token {
	l.readRune()
	l.readRune()
	squiggly, indented := false, false
	switch l.ch {
	case '~':
		squiggly, indented = true, true
		l.readRune()
	case '-':
		indented = true
		l.readRune()
	}

	interp := true
	var label string
	if isHeredocQuote(l.ch) {
		quote := l.ch
		interp = quote != '\''
		l.readRune()
		labelStart := l.pos.Offset
		for !l.atEOF() && l.ch != quote && l.ch != '\n' {
			l.readRune()
		}
		label = l.input[labelStart:l.pos.Offset]
		if l.ch == quote {
			l.readRune()
		}
	} else {
		labelStart := l.pos.Offset
		for isIdentifierRune(l.ch) {
			l.readRune()
		}
		label = l.input[labelStart:l.pos.Offset]
	}
	opener := Span{Start: start, End: l.pos}
	tok := Token{Type: tokenHeredoc, Span: opener}

	var bodyStart Position
	if l.heredocNewline >= 0 {
		bodyStart = l.heredocResume
	} else {
		nl := l.lineEnd()
		if nl >= l.limit {
			l.diags.errorf(PhaseLexical, CodeUnterminatedString, opener, "unterminated heredoc: terminator %q not found", label)
			return tok
		}
		l.heredocNewline = nl
		bodyStart = Position{Line: l.pos.Line + 1, Column: 1, Offset: nl + 1}
	}

	bodyEnd, resume, found := l.findHeredocEnd(bodyStart, label, indented)
	l.heredocResume = resume

	if interp {
		sub := &lexer{input: l.input, limit: bodyEnd, pos: bodyStart, heredocNewline: -1, diags: l.diags}
		sub.decode()
		var stop bodyStop
		tok.Literal, tok.Parts, stop = sub.scanBody(0, noDelimiter, true, escapeFull)
		if stop == bodyOpenInterpolation {
			open := tok.Parts[len(tok.Parts)-1].Span.Start
			end := Position{Line: open.Line, Column: open.Column + 2, Offset: open.Offset + 2}
			l.diags.errorf(PhaseLexical, CodeUnterminatedString, Span{Start: open, End: end}, "unterminated interpolation in heredoc %q", label)
		}
	} else {
		tok.Literal = l.input[bodyStart.Offset:bodyEnd]
	}
	if squiggly {
		if indent := commonIndent(l.input[bodyStart.Offset:bodyEnd]); indent > 0 {
			tok.Literal, _ = stripIndent(tok.Literal, indent, true)
			atLineStart := true
			for i, part := range tok.Parts {
				if part.Interp {
					atLineStart = false
					continue
				}
				tok.Parts[i].Text, atLineStart = stripIndent(part.Text, indent, atLineStart)
			}
		}
	}

	if !found {
		l.diags.errorf(PhaseLexical, CodeUnterminatedString, opener, "unterminated heredoc: terminator %q not found", label)
	}
	return tok
}

// findHeredocEnd scans body lines for the terminator. It returns the offset
// where the body ends and the position just past the terminator line.
func (l *lexer) findHeredocEnd(bodyStart Position, label string, indented bool) (int, Position, bool) {
	off := bodyStart.Offset
	line := bodyStart.Line
	for off < l.limit {
		end := l.limit
		if idx := strings.IndexByte(l.input[off:l.limit], '\n'); idx >= 0 {
			end = off + idx
		}
		text := strings.TrimSuffix(l.input[off:end], "\r")
		if indented {
			text = strings.TrimLeft(text, " \t")
		}
		if text == label {
			if end < l.limit {
				return off, Position{Line: line + 1, Column: 1, Offset: end + 1}, true
			}
			return off, Position{Line: line, Column: 1, Offset: end}, true
		}
		if end >= l.limit {
			break
		}
		off = end + 1
		line++
	}
	return l.limit, Position{Line: line, Column: 1, Offset: l.limit}, false
}

// commonIndent returns the smallest indentation among the non-blank lines.
func commonIndent(body string) int {
	indent := -1
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		n := len(line) - len(trimmed)
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent < 0 {
		return 0
	}
	return indent
}

func stripIndent(text string, n int, atLineStart bool) (string, bool) {
	var sb strings.Builder
	removed := 0
	for _, r := range text {
		switch {
		case r == '\n':
			atLineStart, removed = true, 0
		case atLineStart && removed < n && (r == ' ' || r == '\t'):
			removed++
			continue
		default:
			atLineStart = false
		}
		sb.WriteRune(r)
	}
	return sb.String(), atLineStart
}
