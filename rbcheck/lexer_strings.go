package rbcheck

import (
	"strings"
)

type escapeMode int

const (
	// escapeNone keeps backslashes except before another backslash or the
	// delimiter, as in single-quoted strings.
	escapeNone escapeMode = iota
	escapeFull
	// escapeRaw keeps every escape verbatim (regular expressions).
	escapeRaw
)

// noDelimiter marks bodies that end at the lexer limit rather than at a
// closing character.
const noDelimiter rune = -1

// bodyStop tells how scanBody left a literal body.
type bodyStop int

const (
	bodyClosed bodyStop = iota
	bodyAtLimit
	// bodyOpenInterpolation means a `#{` was still open at the limit. The
	// segment keeps no tokens and the nested diagnostics are dropped.
	bodyOpenInterpolation
)

// readQuoted reads a literal opened by quote at the cursor. An unterminated
// literal is cut at the end of its opening line so the following lines still
// tokenize normally.
func (l *lexer) readQuoted(start Position, quote rune, tt TokenType, mode escapeMode) Token {
	saved := *l
	mark := l.diags.len()

	l.readRune()
	text, parts, stop := l.scanBody(0, quote, mode == escapeFull, mode)
	if stop != bodyClosed {
		*l = saved
		l.diags.truncate(mark)
		text, parts = l.scanLineCut(0, quote, mode == escapeFull, mode)
		l.diags.truncate(mark)
		l.diags.errorf(PhaseLexical, CodeUnterminatedString, Span{Start: start, End: l.pos}, "unterminated %s meets end of line", literalName(tt))
	}
	return Token{Type: tt, Literal: text, Parts: parts, Span: Span{Start: start, End: l.pos}}
}

// scanLineCut rescans a body with the lexer limited to the current line. The
// cursor is left on the line's newline.
func (l *lexer) scanLineCut(open, close rune, interp bool, mode escapeMode) (string, []StringSegment) {
	outer := l.limit
	l.limit = l.lineEnd()
	l.readRune()
	text, parts, _ := l.scanBody(open, close, interp, mode)
	l.limit = outer
	l.decode()
	return text, parts
}

func literalName(tt TokenType) string {
	switch tt {
	case tokenXString:
		return "command string"
	case tokenRegex:
		return "regexp"
	case tokenSymbol:
		return "quoted symbol"
	}
	return "string literal"
}

// scanBody reads a literal body up to close, which is consumed. When open is
// non-zero the delimiters nest. The returned parts are only set when the
// body contained at least one interpolation.
func (l *lexer) scanBody(open, close rune, interp bool, mode escapeMode) (string, []StringSegment, bodyStop) {
	var text, seg strings.Builder
	var parts []StringSegment
	segStart := l.pos
	interpolated := false
	depth := 0

	flush := func(end Position) {
		if seg.Len() > 0 {
			parts = append(parts, StringSegment{Text: seg.String(), Span: Span{Start: segStart, End: end}})
			seg.Reset()
		}
	}
	finish := func(stop bodyStop) (string, []StringSegment, bodyStop) {
		if !interpolated {
			parts = nil
		}
		return text.String(), parts, stop
	}
	write := func(s string) {
		if seg.Len() == 0 {
			segStart = l.pos
		}
		text.WriteString(s)
		seg.WriteString(s)
	}

	for {
		if l.atEOF() {
			flush(l.pos)
			return finish(bodyAtLimit)
		}
		switch {
		case l.ch == '\\':
			if seg.Len() == 0 {
				segStart = l.pos
			}
			l.readRune()
			if l.atEOF() {
				continue
			}
			s := unescape(l.ch, open, close, mode)
			text.WriteString(s)
			seg.WriteString(s)
			l.readRune()
		case open != 0 && l.ch == open:
			depth++
			write(string(l.ch))
			l.readRune()
		case l.ch == close:
			if depth == 0 {
				flush(l.pos)
				l.readRune()
				return finish(bodyClosed)
			}
			depth--
			write(string(l.ch))
			l.readRune()
		case interp && l.ch == '#' && l.peekRune() == '{':
			flush(l.pos)
			start := l.pos
			mark := l.diags.len()
			l.readRune()
			l.readRune()
			tokens, closed := l.lexInterpolation()
			if !closed {
				l.diags.truncate(mark)
				tokens = nil
			}
			interpolated = true
			parts = append(parts, StringSegment{Interp: true, Tokens: tokens, Span: Span{Start: start, End: l.pos}})
			text.WriteString(l.input[start.Offset:l.pos.Offset])
			if !closed {
				return finish(bodyOpenInterpolation)
			}
		default:
			write(string(l.ch))
			l.readRune()
		}
	}
}

func unescape(ch, open, close rune, mode escapeMode) string {
	switch mode {
	case escapeRaw:
		return "\\" + string(ch)
	case escapeNone:
		if ch == '\\' || ch == close || (open != 0 && ch == open) {
			return string(ch)
		}
		return "\\" + string(ch)
	}
	switch ch {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 's':
		return " "
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case 'e':
		return "\x1b"
	case 'a':
		return "\a"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '\n':
		return ""
	}
	return string(ch)
}

// lexInterpolation tokenizes the body of `#{...}` up to its closing brace.
// The returned flag is false when the input ended first.
func (l *lexer) lexInterpolation() ([]Token, bool) {
	prev, ternary := l.prev, l.ternaryDepth
	l.prev, l.ternaryDepth = tokenLBrace, 0
	defer func() {
		l.prev, l.ternaryDepth = prev, ternary
	}()

	var tokens []Token
	depth := 0
	for {
		tok := l.NextToken()
		switch tok.Type {
		case tokenEOF:
			return tokens, false
		case tokenLBrace:
			depth++
		case tokenRBrace:
			if depth == 0 {
				return tokens, true
			}
			depth--
		}
		tokens = append(tokens, tok)
	}
}

func (l *lexer) readRegex(start Position) Token {
	saved := *l
	mark := l.diags.len()

	l.readRune()
	text, parts, stop := l.scanBody(0, '/', true, escapeRaw)
	if stop != bodyClosed {
		*l = saved
		l.diags.truncate(mark)
		text, parts = l.scanLineCut(0, '/', true, escapeRaw)
		l.diags.truncate(mark)
		l.diags.errorf(PhaseLexical, CodeUnterminatedString, Span{Start: start, End: l.pos}, "unterminated regexp meets end of line")
		return Token{Type: tokenRegex, Literal: text, Parts: parts, Span: Span{Start: start, End: l.pos}}
	}
	l.readRegexFlags()
	return Token{Type: tokenRegex, Literal: text, Parts: parts, Span: Span{Start: start, End: l.pos}}
}

func (l *lexer) readRegexFlags() {
	for strings.ContainsRune("imxounse", l.ch) && l.ch != 0 {
		l.readRune()
	}
}

const percentKinds = "qQwWiIrsx"

// percentLiteralAhead reports whether the `%` at the cursor opens a percent
// literal rather than the modulo operator.
func (l *lexer) percentLiteralAhead(spaced bool) bool {
	next := l.peekRune()
	if !l.valueExpected() {
		// `puts %w[a b]` is a command argument; `a % b` stays modulo.
		if l.prev != tokenIdent || !spaced || next == ' ' || next == '=' {
			return false
		}
	}
	if strings.ContainsRune(percentKinds, next) && next != 0 {
		return isPercentDelimiter(l.peekRuneN(1))
	}
	return isPercentDelimiter(next) && next != '='
}

func isPercentDelimiter(r rune) bool {
	if r == 0 || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return !isIdentifierRune(r) && r < 0x80
}

func closingDelimiter(open rune) (rune, bool) {
	switch open {
	case '(':
		return ')', true
	case '[':
		return ']', true
	case '{':
		return '}', true
	case '<':
		return '>', true
	}
	return open, false
}

func (l *lexer) readPercent(start Position) Token {
	l.readRune()
	kind := 'Q'
	if isIdentifierStart(l.ch) {
		kind = l.ch
		l.readRune()
	}
	delim := l.ch
	close, nests := closingDelimiter(delim)
	open := rune(0)
	if nests {
		open = delim
	}
	l.readRune()

	tt := tokenString
	interp := false
	mode := escapeNone
	switch kind {
	case 'Q', 'W', 'I', 'x':
		interp, mode = true, escapeFull
	case 'r':
		interp, mode = true, escapeRaw
	}
	switch kind {
	case 'w', 'W':
		tt = tokenWords
	case 'i', 'I':
		tt = tokenSymbols
	case 'r':
		tt = tokenRegex
	case 's':
		tt = tokenSymbol
	case 'x':
		tt = tokenXString
	}

	mark := l.diags.len()
	text, parts, stop := l.scanBody(open, close, interp, mode)
	if stop != bodyClosed {
		l.diags.truncate(mark)
		l.diags.errorf(PhaseLexical, CodeUnbalancedDelimiter, Span{Start: start, End: l.pos},
			"unterminated %%%c literal: missing closing '%c'", kind, close)
	} else if tt == tokenRegex {
		l.readRegexFlags()
	}
	return Token{Type: tt, Literal: text, Parts: parts, Span: Span{Start: start, End: l.pos}}
}

var operatorSymbols = []string{
	"[]=", "===", "<=>", "[]", "**", "==", "=~", "!=", "!~", "<=", ">=", "<<", ">>", "+@", "-@",
	"+", "-", "*", "/", "%", "<", ">", "!", "~", "&", "|", "^",
}

// readSymbol reads a symbol literal starting at `:`. It reports false when
// the colon is an operator instead.
func (l *lexer) readSymbol(start Position, spaced bool) (Token, bool) {
	next := l.peekRune()
	if next == ':' {
		return Token{}, false
	}
	symbolContext := l.ternaryDepth == 0 || l.valueExpected()

	switch {
	case next == '"' || next == '\'':
		if !symbolContext {
			return Token{}, false
		}
		l.readRune()
		mode := escapeNone
		if next == '"' {
			mode = escapeFull
		}
		tok := l.readQuoted(start, next, tokenSymbol, mode)
		return tok, true
	case isIdentifierStart(next):
		if !symbolContext {
			return Token{}, false
		}
		l.readRune()
		nameStart := l.pos.Offset
		for isIdentifierRune(l.ch) {
			l.readRune()
		}
		switch {
		case l.ch == '?' || l.ch == '!':
			l.readRune()
		case l.ch == '=' && !strings.ContainsRune("=~>", l.peekRune()):
			l.readRune()
		}
		return Token{Type: tokenSymbol, Literal: l.input[nameStart:l.pos.Offset], Span: Span{Start: start, End: l.pos}}, true
	case next == '@' || next == '$':
		if !symbolContext {
			return Token{}, false
		}
		n := 1
		if next == '@' && l.peekRuneN(1) == '@' {
			n = 2
		}
		if !isIdentifierStart(l.peekRuneN(n)) {
			return Token{}, false
		}
		l.readRune()
		nameStart := l.pos.Offset
		for i := 0; i < n; i++ {
			l.readRune()
		}
		for isIdentifierRune(l.ch) {
			l.readRune()
		}
		return Token{Type: tokenSymbol, Literal: l.input[nameStart:l.pos.Offset], Span: Span{Start: start, End: l.pos}}, true
	}

	if !l.valueExpected() && (!spaced || l.ternaryDepth > 0) {
		return Token{}, false
	}
	rest := l.input[l.pos.Offset+1 : l.limit]
	for _, op := range operatorSymbols {
		if strings.HasPrefix(rest, op) {
			l.readRune()
			for range op {
				l.readRune()
			}
			return Token{Type: tokenSymbol, Literal: op, Span: Span{Start: start, End: l.pos}}, true
		}
	}
	return Token{}, false
}

// readCharLiteral reads `?a` or `?\n` character literals.
func (l *lexer) readCharLiteral(start Position) (Token, bool) {
	next := l.peekRune()
	switch {
	case next == 0 || next == ' ' || next == '\t' || next == '\n' || next == '\r':
		return Token{}, false
	case next == '\\':
		escaped := l.peekRuneN(1)
		if escaped == 0 {
			return Token{}, false
		}
		l.readRune()
		l.readRune()
		l.readRune()
		return Token{Type: tokenString, Literal: unescape(escaped, 0, '\'', escapeFull), Span: Span{Start: start, End: l.pos}}, true
	case isIdentifierRune(next) && isIdentifierRune(l.peekRuneN(1)):
		return Token{}, false
	}
	l.readRune()
	ch := l.ch
	l.readRune()
	return Token{Type: tokenString, Literal: string(ch), Span: Span{Start: start, End: l.pos}}, true
}
