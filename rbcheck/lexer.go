package rbcheck

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexer struct {
	input string
	limit int

	ch    rune
	width int
	pos   Position

	prev         TokenType
	lastEnd      int
	ternaryDepth int

	// heredocNewline is the offset of the newline that ends a line holding
	// heredoc openers; reaching it moves the lexer to heredocResume.
	heredocNewline int
	heredocResume  Position

	diags *diagnosticSink
}

// Tokenize splits source into tokens. The returned slice always ends with an
// EOF token positioned at len(source).
func Tokenize(source string) ([]Token, []Diagnostic) {
	sink := newDiagnosticSink(nil)
	l := newLexer(source, sink)
	tokens := make([]Token, 0, len(source)/4+1)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == tokenEOF {
			break
		}
	}
	return tokens, sink.list()
}

func newLexer(input string, sink *diagnosticSink) *lexer {
	l := &lexer{
		input:          input,
		limit:          len(input),
		pos:            Position{Line: 1, Column: 1},
		heredocNewline: -1,
		diags:          sink,
	}
	l.decode()
	return l
}

func (l *lexer) decode() {
	if l.pos.Offset >= l.limit {
		l.ch = 0
		l.width = 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos.Offset:l.limit])
	l.ch = r
	l.width = w
}

func (l *lexer) readRune() {
	if l.width == 0 {
		return
	}
	l.pos.Offset += l.width
	if l.ch == '\n' {
		l.pos.Line++
		l.pos.Column = 1
	} else {
		l.pos.Column++
	}
	l.decode()
}

func (l *lexer) atEOF() bool {
	return l.width == 0
}

func (l *lexer) peekRune() rune {
	return l.peekRuneN(0)
}

func (l *lexer) peekRuneN(n int) rune {
	idx := l.pos.Offset + l.width
	for i := 0; ; i++ {
		if idx >= l.limit {
			return 0
		}
		r, w := utf8.DecodeRuneInString(l.input[idx:l.limit])
		if i == n {
			return r
		}
		idx += w
	}
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.input[l.pos.Offset:l.limit], s)
}

// seek moves forward to offset, keeping line and column bookkeeping intact.
func (l *lexer) seek(offset int) {
	for l.pos.Offset < offset && !l.atEOF() {
		l.readRune()
	}
}

func (l *lexer) lineEnd() int {
	if idx := strings.IndexByte(l.input[l.pos.Offset:l.limit], '\n'); idx >= 0 {
		return l.pos.Offset + idx
	}
	return l.limit
}

// consumeNewline reads a newline and skips any heredoc bodies that start
// on the following line.
func (l *lexer) consumeNewline() {
	jump := l.heredocNewline >= 0 && l.pos.Offset == l.heredocNewline
	l.readRune()
	if jump {
		l.heredocNewline = -1
		l.seek(l.heredocResume.Offset)
	}
}

// NextToken returns the next significant token. Characters that match no
// rule are reported and skipped without producing a token.
func (l *lexer) NextToken() Token {
	for {
		l.skipBlanks()
		if l.ch == '\n' && !l.atEOF() {
			start := l.pos
			l.consumeNewline()
			if l.suppressNewline() {
				continue
			}
			end := Position{Line: start.Line, Column: start.Column + 1, Offset: start.Offset + 1}
			return l.emit(Token{Type: tokenNewline, Literal: "\n", Span: Span{Start: start, End: end}, SpaceBefore: start.Offset > l.lastEnd})
		}

		start := l.pos
		spaced := start.Offset > l.lastEnd
		if l.atEOF() {
			return l.emit(Token{Type: tokenEOF, Span: Span{Start: start, End: start}, SpaceBefore: spaced})
		}
		tok, ok := l.scanToken(start, spaced)
		if !ok {
			continue
		}
		tok.SpaceBefore = spaced
		return l.emit(tok)
	}
}

func (l *lexer) emit(tok Token) Token {
	switch tok.Type {
	case tokenQuestion:
		l.ternaryDepth++
	case tokenColon:
		if l.ternaryDepth > 0 {
			l.ternaryDepth--
		}
	case tokenNewline:
		l.ternaryDepth = 0
	}
	l.prev = tok.Type
	l.lastEnd = tok.Span.End.Offset
	return tok
}

func (l *lexer) suppressNewline() bool {
	switch l.prev {
	case "", tokenNewline, tokenSemicolon:
		return true
	}
	return l.chainFollows()
}

// chainFollows reports whether the next code line starts with `.meth` or
// `&.meth`, continuing the expression on the previous line.
func (l *lexer) chainFollows() bool {
	src := l.input[:l.limit]
	i := l.pos.Offset
scan:
	for i < len(src) {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		default:
			break scan
		}
	}
	rest := src[i:]
	if strings.HasPrefix(rest, "&.") {
		return true
	}
	return strings.HasPrefix(rest, ".") && !strings.HasPrefix(rest, "..")
}

func (l *lexer) skipBlanks() {
	for !l.atEOF() {
		switch {
		case l.ch == ' ', l.ch == '\t', l.ch == '\r', l.ch == '\f', l.ch == '\v':
			l.readRune()
		case l.ch == '\uFEFF' && l.pos.Offset == 0:
			l.readRune()
		case l.ch == '\\' && l.peekRune() == '\n':
			l.readRune()
			l.consumeNewline()
		case l.ch == '\\' && l.peekRune() == '\r' && l.peekRuneN(1) == '\n':
			l.readRune()
			l.readRune()
			l.consumeNewline()
		case l.ch == '#':
			l.skipComment()
		case l.pos.Column == 1 && l.atDirective("=begin"):
			l.skipBlockComment()
		case l.pos.Column == 1 && l.atDirective("__END__"):
			l.seek(l.limit)
		default:
			return
		}
	}
}

func (l *lexer) skipComment() {
	for !l.atEOF() && l.ch != '\n' {
		l.readRune()
	}
}

// atDirective reports whether the current line starts with word followed by
// a blank or the end of the line.
func (l *lexer) atDirective(word string) bool {
	if !l.hasPrefix(word) {
		return false
	}
	next := l.pos.Offset + len(word)
	if next >= l.limit {
		return true
	}
	switch l.input[next] {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

func (l *lexer) skipBlockComment() {
	start := l.pos
	for {
		l.skipComment()
		if l.atEOF() {
			end := Position{Line: start.Line, Column: start.Column + len("=begin"), Offset: start.Offset + len("=begin")}
			l.diags.errorf(PhaseLexical, CodeUnterminatedString, Span{Start: start, End: end}, "unterminated =begin comment")
			return
		}
		l.consumeNewline()
		if l.atDirective("=end") {
			l.skipComment()
			return
		}
	}
}

// valueExpected reports whether the previous token leaves the lexer at the
// start of an operand, where `/`, `%`, `?` and `<<` begin literals.
func (l *lexer) valueExpected() bool {
	return l.prev == "" || !endsValue(l.prev)
}

// regexAhead reports whether the `/` at the cursor opens a regexp. After a
// spaced identifier it is a command argument (`puts /ab/`) when no space
// follows and the line holds another slash; `a / b` and `a /2` stay division.
func (l *lexer) regexAhead(spaced bool) bool {
	if l.valueExpected() {
		return true
	}
	if l.prev != tokenIdent || !spaced {
		return false
	}
	switch l.peekRune() {
	case 0, ' ', '\t', '\n', '\r', '=':
		return false
	}
	return strings.ContainsRune(l.input[l.pos.Offset+1:l.lineEnd()], '/')
}

func endsValue(tt TokenType) bool {
	switch tt {
	case tokenIdent, tokenConst, tokenIvar, tokenClassVar, tokenGlobalVar,
		tokenInt, tokenFloat, tokenRational, tokenImaginary,
		tokenString, tokenXString, tokenHeredoc, tokenSymbol, tokenRegex, tokenWords, tokenSymbols,
		tokenRParen, tokenRBracket, tokenRBrace,
		tokenSelf, tokenTrue, tokenFalse, tokenNil, tokenEnd,
		tokenEncoding, tokenLineKw, tokenFileKw:
		return true
	}
	return false
}

func (l *lexer) scanToken(start Position, spaced bool) (Token, bool) {
	switch {
	case l.ch == '"':
		return l.readQuoted(start, '"', tokenString, escapeFull), true
	case l.ch == '\'':
		return l.readQuoted(start, '\'', tokenString, escapeNone), true
	case l.ch == '`':
		return l.readQuoted(start, '`', tokenXString, escapeFull), true
	case l.ch == '@':
		return l.readInstanceVar(start)
	case l.ch == '$':
		return l.readGlobalVar(start)
	case l.ch == ':':
		if tok, ok := l.readSymbol(start, spaced); ok {
			return tok, true
		}
	case l.ch == '/' && l.regexAhead(spaced):
		return l.readRegex(start), true
	case l.ch == '%' && l.percentLiteralAhead(spaced):
		return l.readPercent(start), true
	case l.ch == '?' && l.valueExpected():
		if tok, ok := l.readCharLiteral(start); ok {
			return tok, true
		}
	case l.ch == '<' && l.peekRune() == '<' && l.heredocAhead(spaced):
		return l.readHeredoc(start), true
	case isIdentifierStart(l.ch):
		return l.readIdentifier(start), true
	case isDigit(l.ch):
		return l.readNumber(start), true
	}

	if tt, n := l.matchOperator(); n > 0 {
		for i := 0; i < n; i++ {
			l.readRune()
		}
		return Token{Type: tt, Literal: string(tt), Span: Span{Start: start, End: l.pos}}, true
	}

	bad := l.ch
	l.readRune()
	l.diags.errorf(PhaseLexical, CodeUnexpectedToken, Span{Start: start, End: l.pos}, "unexpected character %q", bad)
	return Token{}, false
}

var operatorsByLength = [3]map[string]TokenType{
	{
		"+": tokenPlus, "-": tokenMinus, "*": tokenAsterisk, "/": tokenSlash, "%": tokenPercent,
		"!": tokenBang, "~": tokenTilde, "<": tokenLT, ">": tokenGT, "=": tokenAssign,
		"&": tokenAmp, "|": tokenPipe, "^": tokenCaret, "?": tokenQuestion, ":": tokenColon,
		",": tokenComma, ";": tokenSemicolon, ".": tokenDot,
		"(": tokenLParen, ")": tokenRParen, "[": tokenLBracket, "]": tokenRBracket,
		"{": tokenLBrace, "}": tokenRBrace,
	},
	{
		"**": tokenPow, "==": tokenEQ, "!=": tokenNotEQ, ">=": tokenGTE, "<=": tokenLTE,
		"&&": tokenAnd, "||": tokenOr, "<<": tokenShiftLeft, ">>": tokenShiftRight,
		"=~": tokenMatch, "!~": tokenNotMatch, "..": tokenRange, "::": tokenScope,
		"=>": tokenArrow, "->": tokenLambda, "&.": tokenSafeNav,
		"+=": tokenPlusEq, "-=": tokenMinusEq, "*=": tokenStarEq, "/=": tokenSlashEq,
		"%=": tokenPercentEq, "|=": tokenPipeEq, "&=": tokenAmpEq, "^=": tokenCaretEq,
	},
	{
		"**=": tokenPowEq, "<=>": tokenCmp, "===": tokenEQQ, "...": tokenRangeExcl,
		"<<=": tokenShiftLeftEq, ">>=": tokenShiftRightEq, "&&=": tokenAndEq, "||=": tokenOrEq,
	},
}

// matchOperator finds the longest operator at the cursor.
func (l *lexer) matchOperator() (TokenType, int) {
	rest := l.input[l.pos.Offset:l.limit]
	for n := len(operatorsByLength); n > 0; n-- {
		if len(rest) < n {
			continue
		}
		if tt, ok := operatorsByLength[n-1][rest[:n]]; ok {
			return tt, n
		}
	}
	return "", 0
}

func (l *lexer) readIdentifier(start Position) Token {
	for isIdentifierRune(l.ch) {
		l.readRune()
	}
	if (l.ch == '?' || l.ch == '!') && (l.peekRune() != '=' || l.peekRuneN(1) == '=') {
		l.readRune()
	}
	word := l.input[start.Offset:l.pos.Offset]

	if l.ch == ':' && l.peekRune() != ':' && l.ternaryDepth == 0 && l.prev != tokenDot && l.prev != tokenSafeNav {
		l.readRune()
		return Token{Type: tokenLabel, Literal: word, Span: Span{Start: start, End: l.pos}}
	}

	tt := lookupIdent(word)
	if isKeyword(tt) {
		switch {
		case l.prev == tokenDot, l.prev == tokenSafeNav:
			tt = identKind(word)
		case l.prev == tokenDef && tt != tokenSelf:
			tt = identKind(word)
		}
	}
	return Token{Type: tt, Literal: word, Span: Span{Start: start, End: l.pos}}
}

func identKind(word string) TokenType {
	if isConstantName(word) {
		return tokenConst
	}
	return tokenIdent
}

func (l *lexer) readInstanceVar(start Position) (Token, bool) {
	tt := tokenIvar
	n := 1
	if l.peekRune() == '@' {
		tt = tokenClassVar
		n = 2
	}
	if !isIdentifierStart(l.peekRuneN(n - 1)) {
		l.readRune()
		l.diags.errorf(PhaseLexical, CodeUnexpectedToken, Span{Start: start, End: l.pos}, "'@' must be followed by a variable name")
		return Token{}, false
	}
	for i := 0; i < n; i++ {
		l.readRune()
	}
	for isIdentifierRune(l.ch) {
		l.readRune()
	}
	return Token{Type: tt, Literal: l.input[start.Offset:l.pos.Offset], Span: Span{Start: start, End: l.pos}}, true
}

const specialGlobals = "!@~;,/\\*$?:\"<>.=&'+`0123456789_"

func (l *lexer) readGlobalVar(start Position) (Token, bool) {
	next := l.peekRune()
	switch {
	case isIdentifierStart(next):
		l.readRune()
		for isIdentifierRune(l.ch) {
			l.readRune()
		}
	case next == '-' && isIdentifierRune(l.peekRuneN(1)):
		l.readRune()
		l.readRune()
		l.readRune()
	case next != 0 && strings.ContainsRune(specialGlobals, next):
		l.readRune()
		l.readRune()
		for next >= '1' && next <= '9' && isDigit(l.ch) {
			l.readRune()
		}
	default:
		l.readRune()
		l.diags.errorf(PhaseLexical, CodeUnexpectedToken, Span{Start: start, End: l.pos}, "'$' must be followed by a variable name")
		return Token{}, false
	}
	return Token{Type: tokenGlobalVar, Literal: l.input[start.Offset:l.pos.Offset], Span: Span{Start: start, End: l.pos}}, true
}

func (l *lexer) readNumber(start Position) Token {
	tt := tokenInt
	if l.ch == '0' && isRadixPrefix(l.peekRune()) {
		l.readRune()
		base := radixOf(l.ch)
		l.readRune()
		l.readDigits(base)
	} else {
		l.readDigits(10)
		if l.ch == '.' && isDigit(l.peekRune()) {
			tt = tokenFloat
			l.readRune()
			l.readDigits(10)
		}
		if l.ch == 'e' || l.ch == 'E' {
			next := l.peekRune()
			if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekRuneN(1))) {
				tt = tokenFloat
				l.readRune()
				if l.ch == '+' || l.ch == '-' {
					l.readRune()
				}
				l.readDigits(10)
			}
		}
	}

	if l.ch == 'r' {
		next := l.peekRune()
		if !isIdentifierRune(next) || (next == 'i' && !isIdentifierRune(l.peekRuneN(1))) {
			tt = tokenRational
			l.readRune()
		}
	}
	if l.ch == 'i' && !isIdentifierRune(l.peekRune()) {
		tt = tokenImaginary
		l.readRune()
	}
	return Token{Type: tt, Literal: l.input[start.Offset:l.pos.Offset], Span: Span{Start: start, End: l.pos}}
}

// readDigits consumes digits valid in base, allowing single `_` separators
// between digits.
func (l *lexer) readDigits(base int) {
	for {
		switch {
		case digitValue(l.ch) < base:
			l.readRune()
		case l.ch == '_' && digitValue(l.peekRune()) < base:
			l.readRune()
		default:
			return
		}
	}
}

func isRadixPrefix(r rune) bool {
	switch r {
	case 'b', 'B', 'o', 'O', 'x', 'X', 'd', 'D':
		return true
	}
	return false
}

func radixOf(r rune) int {
	switch unicode.ToLower(r) {
	case 'b':
		return 2
	case 'o':
		return 8
	case 'x':
		return 16
	}
	return 10
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return 99
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isConstantName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
