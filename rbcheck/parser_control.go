package rbcheck

import "fmt"

// opener tracks a construct that must be closed by `end`. Its indentation is
// used to notice a missing `end`: once the body is indented, a statement that
// starts at or left of the opener's column closes the construct early.
type opener struct {
	keyword      Token
	indent       int
	bodySeen     bool
	bodyIndented bool
	closed       bool
}

func (p *parser) openBlock() *opener {
	return &opener{keyword: p.curToken, indent: p.lineIndent(p.idx)}
}

// dedentCloses reports whether the statement at cur lies outside o's body.
// When it does, the missing `end` is reported and the cursor is moved back
// onto the last token of the body.
func (p *parser) dedentCloses(o *opener) bool {
	if o.closed {
		return true
	}
	if !p.startsLine(p.idx) {
		return false
	}
	col := p.curToken.Pos().Column
	if !o.bodySeen {
		o.bodySeen = true
		o.bodyIndented = col > o.indent
		return false
	}
	if !o.bodyIndented || col > o.indent {
		return false
	}
	p.reportMissingEnd(o, p.curToken.Span)
	p.rewindBeforeLine()
	return true
}

func (p *parser) rewindBeforeLine() {
	i := p.idx - 1
	for i > 0 && (p.tokens[i].Type == tokenNewline || p.tokens[i].Type == tokenSemicolon) {
		i--
	}
	p.setIndex(i)
}

// closeBlock expects cur to be the `end` of o.
func (p *parser) closeBlock(o *opener) {
	if o.closed || p.curToken.Type == tokenEnd {
		return
	}
	p.reportMissingEnd(o, p.curToken.Span)
}

// parseCondition parses the condition following the keyword at cur.
func (p *parser) parseCondition() Expression {
	kw := p.curToken
	switch p.peekToken.Type {
	case tokenNewline, tokenSemicolon, tokenEOF, tokenThen, tokenDo:
		p.errorExpected(p.peekToken, fmt.Sprintf("condition after '%s'", kw.Literal))
		return nil
	}
	p.noDo++
	p.nextToken()
	cond := p.parseExpression(lowestPrec)
	p.noDo--
	return cond
}

// finishHeader consumes the optional separator (`then` or `do`) ending a
// construct header. Other tokens on the header line are reported.
func (p *parser) finishHeader(sep TokenType) {
	switch p.peekToken.Type {
	case sep:
		p.nextToken()
	case tokenNewline, tokenSemicolon, tokenEOF:
	default:
		p.errorExpected(p.peekToken, fmt.Sprintf("'%s' or end of line", keywordSpelling(sep)))
		p.syncStatement()
	}
}

func keywordSpelling(tt TokenType) string {
	for word, kw := range keywords {
		if kw == tt {
			return word
		}
	}
	return string(tt)
}

func (p *parser) parseIfExpression() Expression {
	o := p.openBlock()
	start := p.curToken
	stmt := &IfStmt{Negated: start.Type == tokenUnless}

	stmt.Condition = p.parseCondition()
	p.finishHeader(tokenThen)
	p.nextToken()
	stmt.Consequent = p.parseStatements(o, tokenElsif, tokenElse, tokenEnd)

	for !o.closed && p.curToken.Type == tokenElsif {
		clause := &IfStmt{}
		clauseStart := p.curToken.Pos()
		clause.Condition = p.parseCondition()
		p.finishHeader(tokenThen)
		clause.spanned = at(p.spanFrom(clauseStart))
		p.nextToken()
		clause.Consequent = p.parseStatements(o, tokenElsif, tokenElse, tokenEnd)
		stmt.ElseIf = append(stmt.ElseIf, clause)
	}
	if !o.closed && p.curToken.Type == tokenElse {
		p.nextToken()
		stmt.Alternate = p.parseStatements(o, tokenEnd)
	}

	p.closeBlock(o)
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

func (p *parser) parseWhileExpression() Expression {
	o := p.openBlock()
	start := p.curToken
	stmt := &WhileStmt{Until: start.Type == tokenUntil}

	stmt.Condition = p.parseCondition()
	p.finishHeader(tokenDo)
	p.nextToken()
	stmt.Body = p.parseStatements(o, tokenEnd)

	p.closeBlock(o)
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

func (p *parser) parseForExpression() Expression {
	o := p.openBlock()
	start := p.curToken
	stmt := &ForStmt{}

	for {
		if p.peekToken.Type != tokenIdent {
			p.errorExpected(p.peekToken, "loop variable after 'for'")
			break
		}
		p.nextToken()
		target := &Identifier{Name: p.curToken.Literal, spanned: at(p.curToken.Span)}
		p.declareTarget(target)
		stmt.Targets = append(stmt.Targets, target)
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
	}

	if p.peekToken.Type == tokenIn {
		p.nextToken()
		stmt.Iterable = p.parseCondition()
	} else {
		p.errorExpected(p.peekToken, "'in' after loop variables")
	}
	p.finishHeader(tokenDo)
	p.nextToken()
	stmt.Body = p.parseStatements(o, tokenEnd)

	p.closeBlock(o)
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

func (p *parser) parseCaseExpression() Expression {
	o := p.openBlock()
	start := p.curToken
	stmt := &CaseStmt{}

	switch p.peekToken.Type {
	case tokenNewline, tokenSemicolon, tokenEOF:
	default:
		p.nextToken()
		stmt.Subject = p.parseExpression(lowestPrec)
	}
	p.nextToken()
	p.skipTerminators()

	clauseStops := []TokenType{tokenWhen, tokenIn, tokenElse, tokenEnd}
	if p.curToken.Type != tokenWhen && p.curToken.Type != tokenIn &&
		p.curToken.Type != tokenEnd && p.curToken.Type != tokenEOF {
		p.errorExpected(p.curToken, "'when'")
		p.parseStatements(o, clauseStops...)
	}

	for !o.closed && (p.curToken.Type == tokenWhen || p.curToken.Type == tokenIn) {
		clause := &WhenClause{Pattern: p.curToken.Type == tokenIn}
		clauseStart := p.curToken.Pos()
		if statementEnds(p.peekToken.Type) || p.peekToken.Type == tokenThen {
			p.errorExpected(p.peekToken, "value after '"+p.curToken.Literal+"'")
		} else {
			for {
				p.nextToken()
				value := p.parseOperand(lowestPrec)
				if value == nil {
					break
				}
				clause.Values = append(clause.Values, value)
				if p.peekToken.Type != tokenComma {
					break
				}
				p.nextToken()
				p.skipNewlines()
			}
		}
		p.finishHeader(tokenThen)
		clause.spanned = at(p.spanFrom(clauseStart))
		p.nextToken()
		clause.Body = p.parseStatements(o, clauseStops...)
		stmt.Clauses = append(stmt.Clauses, clause)
	}
	if !o.closed && p.curToken.Type == tokenElse {
		p.nextToken()
		stmt.Else = p.parseStatements(o, tokenEnd)
	}

	p.closeBlock(o)
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

func (p *parser) parseBeginExpression() Expression {
	o := p.openBlock()
	start := p.curToken
	stmt := &BeginStmt{}

	p.nextToken()
	stmt.Body = p.parseStatements(o, tokenRescue, tokenElse, tokenEnsure, tokenEnd)
	stmt.Handlers = p.parseHandlers(o)

	p.closeBlock(o)
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

// parseHandlers parses the rescue, else and ensure clauses that may follow
// the body of begin, def, class, module and do blocks.
func (p *parser) parseHandlers(o *opener) Handlers {
	var h Handlers
	for !o.closed && p.curToken.Type == tokenRescue {
		clause := &RescueClause{}
		clauseStart := p.curToken.Pos()
		switch p.peekToken.Type {
		case tokenNewline, tokenSemicolon, tokenEOF, tokenThen, tokenArrow:
		default:
			for {
				p.nextToken()
				class := p.parseOperand(precArg)
				if class == nil {
					break
				}
				clause.Classes = append(clause.Classes, class)
				if p.peekToken.Type != tokenComma {
					break
				}
				p.nextToken()
				p.skipNewlines()
			}
		}
		if p.peekToken.Type == tokenArrow {
			p.nextToken()
			p.nextToken()
			target := p.parseExpression(precAssign)
			if target != nil && isAssignable(target) {
				p.declareTarget(target)
				clause.Var = target
			} else if target != nil {
				p.syntaxError(CodeUnexpectedToken, target.Span(), "cannot assign exception to this expression")
			}
		}
		p.finishHeader(tokenThen)
		clause.spanned = at(p.spanFrom(clauseStart))
		p.nextToken()
		clause.Body = p.parseStatements(o, tokenRescue, tokenElse, tokenEnsure, tokenEnd)
		h.Rescues = append(h.Rescues, clause)
	}
	if !o.closed && p.curToken.Type == tokenElse {
		p.nextToken()
		h.Else = p.parseStatements(o, tokenEnsure, tokenEnd)
	}
	if !o.closed && p.curToken.Type == tokenEnsure {
		p.nextToken()
		h.Ensure = p.parseStatements(o, tokenEnd)
	}
	return h
}

func (p *parser) parseControlExpression() Expression {
	start := p.curToken
	stmt := &ControlStmt{Keyword: start.Type}
	switch start.Type {
	case tokenBreak, tokenNext, tokenReturn:
		if p.valueFollows() {
			var values []Expression
			for {
				p.nextToken()
				value := p.parseOperand(precArg)
				if value == nil {
					break
				}
				values = append(values, value)
				if p.peekToken.Type != tokenComma {
					break
				}
				p.nextToken()
				p.skipNewlines()
			}
			switch len(values) {
			case 0:
			case 1:
				stmt.Value = values[0]
			default:
				stmt.Value = &ArrayLiteral{Elements: values, spanned: at(Span{Start: values[0].Pos(), End: p.curToken.Span.End})}
			}
		}
	}
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

// valueFollows reports whether the peek token begins an argument of a
// keyword like return or yield on the same line.
func (p *parser) valueFollows() bool {
	switch p.peekToken.Type {
	case tokenIf, tokenUnless, tokenWhile, tokenUntil, tokenRescue, tokenLBrace:
		return false
	case tokenAsterisk, tokenPow, tokenLabel:
		return true
	}
	return p.prefixFns[p.peekToken.Type] != nil
}
