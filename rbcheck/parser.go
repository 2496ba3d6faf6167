package rbcheck

import (
	"slices"
)

type (
	prefixParseFn func() Expression
	infixParseFn  func(Expression) Expression
)

type parser struct {
	tokens []Token
	idx    int

	curToken  Token
	peekToken Token

	diags *diagnosticSink

	prefixFns map[TokenType]prefixParseFn
	infixFns  map[TokenType]infixParseFn

	locals *localScope

	// noDo is positive while a `do` keyword belongs to an enclosing
	// construct: loop headers and command arguments.
	noDo int
	// recovering suppresses follow-up errors inside a statement that has
	// already been reported.
	recovering bool
	errorLine  int
}

// Parse builds a program from tokens, recovering from malformed statements.
// The token slice should end with an EOF token; one is added when missing.
func Parse(tokens []Token) (*Program, []Diagnostic) {
	sink := newDiagnosticSink(nil)
	p := newParser(tokens, sink)
	return p.ParseProgram(), sink.list()
}

func newParser(tokens []Token, sink *diagnosticSink) *parser {
	p := &parser{tokens: withEOF(tokens), diags: sink}
	p.locals = &localScope{names: map[string]struct{}{}, hard: true}

	p.prefixFns = make(map[TokenType]prefixParseFn)
	p.infixFns = make(map[TokenType]infixParseFn)

	p.registerPrefix(tokenIdent, p.parseIdentifier)
	p.registerPrefix(tokenConst, p.parseConstant)
	p.registerPrefix(tokenIvar, p.parseIvar)
	p.registerPrefix(tokenClassVar, p.parseClassVar)
	p.registerPrefix(tokenGlobalVar, p.parseGlobalVar)
	p.registerPrefix(tokenInt, p.parseIntegerLiteral)
	p.registerPrefix(tokenFloat, p.parseFloatLiteral)
	p.registerPrefix(tokenRational, p.parseRationalLiteral)
	p.registerPrefix(tokenImaginary, p.parseImaginaryLiteral)
	p.registerPrefix(tokenString, p.parseStringLiteral)
	p.registerPrefix(tokenXString, p.parseStringLiteral)
	p.registerPrefix(tokenHeredoc, p.parseStringLiteral)
	p.registerPrefix(tokenSymbol, p.parseSymbolLiteral)
	p.registerPrefix(tokenRegex, p.parseRegexLiteral)
	p.registerPrefix(tokenWords, p.parseWordsLiteral)
	p.registerPrefix(tokenSymbols, p.parseWordsLiteral)
	p.registerPrefix(tokenTrue, p.parseBooleanLiteral)
	p.registerPrefix(tokenFalse, p.parseBooleanLiteral)
	p.registerPrefix(tokenNil, p.parseNilLiteral)
	p.registerPrefix(tokenSelf, p.parseSelf)
	p.registerPrefix(tokenFileKw, p.parsePseudoVar)
	p.registerPrefix(tokenLineKw, p.parsePseudoVar)
	p.registerPrefix(tokenEncoding, p.parsePseudoVar)
	p.registerPrefix(tokenLParen, p.parseGroupedExpression)
	p.registerPrefix(tokenLBracket, p.parseArrayLiteral)
	p.registerPrefix(tokenLBrace, p.parseHashLiteral)
	p.registerPrefix(tokenScope, p.parseTopConstant)
	p.registerPrefix(tokenLambda, p.parseLambdaLiteral)
	p.registerPrefix(tokenBang, p.parsePrefixExpression)
	p.registerPrefix(tokenTilde, p.parsePrefixExpression)
	p.registerPrefix(tokenMinus, p.parseUnaryMinus)
	p.registerPrefix(tokenPlus, p.parsePrefixExpression)
	p.registerPrefix(tokenKwNot, p.parseNotExpression)
	p.registerPrefix(tokenDefined, p.parseDefinedExpression)
	p.registerPrefix(tokenRange, p.parseBeginlessRange)
	p.registerPrefix(tokenRangeExcl, p.parseBeginlessRange)

	p.registerPrefix(tokenIf, p.parseIfExpression)
	p.registerPrefix(tokenUnless, p.parseIfExpression)
	p.registerPrefix(tokenWhile, p.parseWhileExpression)
	p.registerPrefix(tokenUntil, p.parseWhileExpression)
	p.registerPrefix(tokenFor, p.parseForExpression)
	p.registerPrefix(tokenCase, p.parseCaseExpression)
	p.registerPrefix(tokenBegin, p.parseBeginExpression)
	p.registerPrefix(tokenDef, p.parseDefExpression)
	p.registerPrefix(tokenClass, p.parseClassExpression)
	p.registerPrefix(tokenModule, p.parseModuleExpression)
	p.registerPrefix(tokenBreak, p.parseControlExpression)
	p.registerPrefix(tokenNext, p.parseControlExpression)
	p.registerPrefix(tokenRedo, p.parseControlExpression)
	p.registerPrefix(tokenRetry, p.parseControlExpression)
	p.registerPrefix(tokenReturn, p.parseControlExpression)
	p.registerPrefix(tokenYield, p.parseYieldExpression)
	p.registerPrefix(tokenSuper, p.parseSuperExpression)

	for _, tt := range []TokenType{
		tokenPlus, tokenMinus, tokenAsterisk, tokenSlash, tokenPercent, tokenPow,
		tokenEQ, tokenEQQ, tokenNotEQ, tokenCmp, tokenMatch, tokenNotMatch,
		tokenLT, tokenLTE, tokenGT, tokenGTE,
		tokenAnd, tokenOr, tokenKwAnd, tokenKwOr,
		tokenAmp, tokenPipe, tokenCaret, tokenShiftLeft, tokenShiftRight,
	} {
		p.infixFns[tt] = p.parseInfixExpression
	}
	for tt := range assignOperators {
		p.infixFns[tt] = p.parseAssignExpression
	}
	p.infixFns[tokenRange] = p.parseRangeExpression
	p.infixFns[tokenRangeExcl] = p.parseRangeExpression
	p.infixFns[tokenQuestion] = p.parseTernaryExpression
	p.infixFns[tokenLParen] = p.parseCallExpression
	p.infixFns[tokenDot] = p.parseMemberExpression
	p.infixFns[tokenSafeNav] = p.parseMemberExpression
	p.infixFns[tokenScope] = p.parseScopeExpression
	p.infixFns[tokenLBracket] = p.parseIndexExpression
	p.infixFns[tokenLBrace] = p.parseBraceBlock

	p.setIndex(0)
	return p
}

func withEOF(tokens []Token) []Token {
	if n := len(tokens); n > 0 && tokens[n-1].Type == tokenEOF {
		return tokens
	}
	var end Position
	if n := len(tokens); n > 0 {
		end = tokens[n-1].Span.End
	} else {
		end = Position{Line: 1, Column: 1}
	}
	out := make([]Token, len(tokens), len(tokens)+1)
	copy(out, tokens)
	return append(out, Token{Type: tokenEOF, Span: Span{Start: end, End: end}})
}

func (p *parser) registerPrefix(tt TokenType, fn prefixParseFn) {
	p.prefixFns[tt] = fn
}

func (p *parser) setIndex(i int) {
	last := len(p.tokens) - 1
	if i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	p.idx = i
	p.curToken = p.tokens[i]
	if i+1 <= last {
		p.peekToken = p.tokens[i+1]
	} else {
		p.peekToken = p.tokens[last]
	}
}

func (p *parser) nextToken() {
	p.setIndex(p.idx + 1)
}

// skipNewlines advances until the peek token is not a newline.
func (p *parser) skipNewlines() {
	for p.peekToken.Type == tokenNewline {
		p.nextToken()
	}
}

// skipNewlinesBefore skips newlines when the first token after them is tt,
// so a list element may be followed by its separator on the next line.
func (p *parser) skipNewlinesBefore(tt TokenType) {
	if p.peekToken.Type == tokenNewline && p.peekPastNewlines().Type == tt {
		p.skipNewlines()
	}
}

// peekPastNewlines returns the first token after cur that is not a newline.
func (p *parser) peekPastNewlines() Token {
	for i := p.idx + 1; i < len(p.tokens); i++ {
		if p.tokens[i].Type != tokenNewline {
			return p.tokens[i]
		}
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) skipTerminators() {
	for p.curToken.Type == tokenNewline || p.curToken.Type == tokenSemicolon {
		p.nextToken()
	}
}

// startsLine reports whether tokens[i] is the first token on its line.
func (p *parser) startsLine(i int) bool {
	if i <= 0 {
		return true
	}
	return p.tokens[i-1].Span.End.Line < p.tokens[i].Span.Start.Line
}

// lineIndent returns the column of the first token on the line of tokens[i].
func (p *parser) lineIndent(i int) int {
	for i > 0 && !p.startsLine(i) {
		i--
	}
	return p.tokens[i].Pos().Column
}

func (p *parser) ParseProgram() *Program {
	program := &Program{}
	program.Statements = p.parseStatements(nil)
	return program
}

// parseStatements parses statements starting at cur until a stop token, the
// end of input, or an unexpected dedent that closes owner.
func (p *parser) parseStatements(owner *opener, stop ...TokenType) []Statement {
	savedNoDo, savedRecovering := p.noDo, p.recovering
	p.noDo = 0
	defer func() { p.noDo, p.recovering = savedNoDo, savedRecovering }()

	stmts := []Statement{}
	for {
		p.skipTerminators()
		if p.curToken.Type == tokenEOF || slices.Contains(stop, p.curToken.Type) {
			return stmts
		}
		if owner != nil && p.dedentCloses(owner) {
			return stmts
		}
		// Stray closers left on a line that already failed are part of the
		// same error.
		if p.recovering && isCloser(p.curToken.Type) && p.curToken.Pos().Line == p.errorLine {
			p.nextToken()
			continue
		}
		p.recovering = false
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.expectStatementEnd()
		p.nextToken()
	}
}

// spanFrom returns the span from start to the end of the current token.
func (p *parser) spanFrom(start Position) Span {
	end := p.curToken.Span.End
	if end.Offset < start.Offset {
		end = start
	}
	return Span{Start: start, End: end}
}

type localScope struct {
	names  map[string]struct{}
	parent *localScope
	hard   bool
}

// pushLocals opens a variable scope. Hard scopes (def, class, module) hide
// the locals of their parents; block scopes see them.
func (p *parser) pushLocals(hard bool) {
	p.locals = &localScope{names: map[string]struct{}{}, parent: p.locals, hard: hard}
}

func (p *parser) popLocals() {
	if p.locals.parent != nil {
		p.locals = p.locals.parent
	}
}

func (p *parser) declareLocal(name string) {
	p.locals.names[name] = struct{}{}
}

func (p *parser) isLocal(name string) bool {
	for scope := p.locals; scope != nil; scope = scope.parent {
		if _, ok := scope.names[name]; ok {
			return true
		}
		if scope.hard {
			return false
		}
	}
	return false
}

// declareTarget records the locals introduced by an assignment target.
func (p *parser) declareTarget(target Expression) {
	switch t := target.(type) {
	case *Identifier:
		t.Local = true
		p.declareLocal(t.Name)
	case *SplatExpr:
		p.declareTarget(t.Value)
	case *ArrayLiteral:
		for _, el := range t.Elements {
			p.declareTarget(el)
		}
	}
}
