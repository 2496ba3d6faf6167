package rbcheck

import (
	"fmt"
	"strings"
)

// syntaxError reports a syntax diagnostic unless the current statement is
// already recovering from an earlier one.
func (p *parser) syntaxError(code Code, span Span, format string, args ...any) {
	if p.recovering {
		return
	}
	p.recovering = true
	p.errorLine = span.Start.Line
	p.diags.errorf(PhaseSyntax, code, span, format, args...)
}

func (p *parser) errorExpected(tok Token, expected string) {
	p.syntaxError(CodeUnexpectedToken, tok.Span, "expected %s, got %s", expected, describeToken(tok))
}

func (p *parser) errorUnexpected(tok Token) {
	if isCloser(tok.Type) {
		p.syntaxError(CodeUnbalancedDelimiter, tok.Span, "unmatched %s", describeToken(tok))
		return
	}
	p.syntaxError(CodeUnexpectedToken, tok.Span, "unexpected %s", describeToken(tok))
}

func (p *parser) reportMissingEnd(o *opener, span Span) {
	o.closed = true
	p.diags.errorf(PhaseSyntax, CodeMissingTerminator, span,
		"missing 'end' for '%s' opened at line %d", o.keyword.Literal, o.keyword.Pos().Line)
}

func isCloser(tt TokenType) bool {
	return tt == tokenRParen || tt == tokenRBracket || tt == tokenRBrace
}

// statementEnds reports whether tok may follow a complete statement.
func statementEnds(tt TokenType) bool {
	switch tt {
	case tokenNewline, tokenSemicolon, tokenEOF,
		tokenEnd, tokenElse, tokenElsif, tokenWhen, tokenIn, tokenRescue, tokenEnsure,
		tokenRBrace, tokenRParen:
		return true
	}
	return false
}

// expectStatementEnd checks what follows a statement. Trailing tokens are
// reported once and skipped up to the next statement boundary.
func (p *parser) expectStatementEnd() {
	if statementEnds(p.peekToken.Type) {
		return
	}
	p.errorUnexpected(p.peekToken)
	p.syncStatement()
}

// syncStatement skips tokens until the peek token is a newline, `;`, `end`
// or the end of input.
func (p *parser) syncStatement() {
	for {
		switch p.peekToken.Type {
		case tokenNewline, tokenSemicolon, tokenEOF, tokenEnd:
			return
		}
		p.nextToken()
	}
}

// closeDelimiter consumes the closer of open. The closer may follow on a
// later line; anything else leaves the delimiter unbalanced and the cursor on
// the last token of the enclosed content.
func (p *parser) closeDelimiter(open Token, close TokenType) bool {
	if p.peekToken.Type == close {
		p.nextToken()
		return true
	}
	if p.peekToken.Type == tokenNewline && p.peekPastNewlines().Type == close {
		p.skipNewlines()
		p.nextToken()
		return true
	}

	next := p.peekToken
	switch {
	case next.Type == tokenNewline || next.Type == tokenEOF || next.Type == tokenSemicolon:
		p.syntaxError(CodeUnbalancedDelimiter, open.Span,
			"unclosed %s opened at line %d", describeToken(open), open.Pos().Line)
	case isCloser(next.Type):
		p.syntaxError(CodeUnbalancedDelimiter, next.Span,
			"expected %q to close %s at line %d, got %s", string(close), describeToken(open), open.Pos().Line, describeToken(next))
	default:
		p.syntaxError(CodeUnexpectedToken, next.Span,
			"expected %q to close %s at line %d, got %s", string(close), describeToken(open), open.Pos().Line, describeToken(next))
	}
	return false
}

func describeToken(tok Token) string {
	switch tok.Type {
	case tokenEOF:
		return "end of input"
	case tokenNewline:
		return "end of line"
	case tokenIdent:
		return fmt.Sprintf("identifier '%s'", tok.Literal)
	case tokenConst:
		return fmt.Sprintf("constant '%s'", tok.Literal)
	case tokenLabel:
		return fmt.Sprintf("label '%s:'", tok.Literal)
	case tokenIvar:
		return fmt.Sprintf("instance variable '%s'", tok.Literal)
	case tokenClassVar:
		return fmt.Sprintf("class variable '%s'", tok.Literal)
	case tokenGlobalVar:
		return fmt.Sprintf("global variable '%s'", tok.Literal)
	case tokenInt:
		return "integer"
	case tokenFloat:
		return "float"
	case tokenRational:
		return "rational"
	case tokenImaginary:
		return "imaginary number"
	case tokenString, tokenXString:
		return "string literal"
	case tokenHeredoc:
		return "heredoc"
	case tokenSymbol:
		return "symbol"
	case tokenRegex:
		return "regexp"
	case tokenWords, tokenSymbols:
		return "word list"
	}
	if isKeyword(tok.Type) {
		return fmt.Sprintf("'%s'", tok.Literal)
	}
	if strings.TrimSpace(tok.Literal) != "" {
		return fmt.Sprintf("'%s'", tok.Literal)
	}
	return fmt.Sprintf("'%s'", string(tok.Type))
}
