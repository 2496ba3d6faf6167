package rbcheck

func (p *parser) parseStatement() Statement {
	var stmt Statement
	switch p.curToken.Type {
	case tokenAlias:
		stmt = p.parseAliasStatement()
	case tokenUndef:
		stmt = p.parseUndefStatement()
	case tokenKwBEGIN, tokenKwEND:
		stmt = p.parseHookStatement()
	case tokenRParen, tokenRBracket, tokenRBrace:
		p.errorUnexpected(p.curToken)
		p.syncStatement()
		return nil
	case tokenAsterisk:
		stmt = p.parseSplatAssignment()
	default:
		stmt = p.parseExpressionStatement()
	}
	if stmt == nil {
		p.syncStatement()
		return nil
	}
	return p.parseModifiers(stmt)
}

func (p *parser) parseExpressionStatement() Statement {
	start := p.curToken
	expr := p.parseExpression(lowestPrec)
	if expr == nil {
		return nil
	}

	if p.peekToken.Type == tokenDo && p.noDo == 0 {
		expr = p.attachDoBlock(expr)
	}

	if p.peekToken.Type == tokenComma {
		if assign, ok := expr.(*AssignStmt); ok && len(assign.Targets) == 1 && !assign.Compound() {
			p.parseMoreValues(assign)
			return assign
		}
		if isAssignable(expr) {
			return p.parseMultipleAssignment(start, expr)
		}
	}

	if stmt, ok := expr.(Statement); ok {
		return stmt
	}
	return &ExprStmt{Expr: expr, spanned: at(expr.Span())}
}

// parseMoreValues handles `a = 1, 2`, which assigns an array.
func (p *parser) parseMoreValues(assign *AssignStmt) {
	for p.peekToken.Type == tokenComma {
		p.nextToken()
		p.skipNewlines()
		p.nextToken()
		value := p.parseOperand(precDefined)
		if value == nil {
			return
		}
		assign.Values = append(assign.Values, value)
	}
	assign.extendTo(p.curToken.Span.End)
}

func (p *parser) parseSplatAssignment() Statement {
	start := p.curToken
	target := p.parseTarget()
	if target == nil {
		return nil
	}
	return p.parseMultipleAssignment(start, target)
}

// parseMultipleAssignment parses `a, *b = values` once the first target has
// been read.
func (p *parser) parseMultipleAssignment(start Token, first Expression) Statement {
	targets := []Expression{first}
	for p.peekToken.Type == tokenComma {
		p.nextToken()
		if p.peekToken.Type == tokenAssign {
			break
		}
		p.nextToken()
		target := p.parseTarget()
		if target == nil {
			return nil
		}
		targets = append(targets, target)
	}
	if p.peekToken.Type != tokenAssign {
		p.errorExpected(p.peekToken, "'=' after assignment targets")
		return nil
	}
	p.nextToken()
	for _, target := range targets {
		p.declareTarget(target)
	}
	p.skipNewlines()
	p.nextToken()

	var values []Expression
	for {
		value := p.parseOperand(precDefined)
		if value == nil {
			return nil
		}
		values = append(values, value)
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
		p.skipNewlines()
		p.nextToken()
	}
	return &AssignStmt{Targets: targets, Operator: tokenAssign, Values: values, spanned: at(p.spanFrom(start.Pos()))}
}

// parseTarget reads one target of a multiple assignment.
func (p *parser) parseTarget() Expression {
	if p.curToken.Type == tokenAsterisk {
		start := p.curToken
		if p.peekToken.Type == tokenComma || p.peekToken.Type == tokenAssign {
			return &SplatExpr{spanned: at(start.Span)}
		}
		p.nextToken()
		inner := p.parseExpression(precAssign)
		if inner == nil {
			return nil
		}
		if !isAssignable(inner) {
			p.syntaxError(CodeUnexpectedToken, inner.Span(), "cannot assign to this expression")
			return nil
		}
		return &SplatExpr{Value: inner, spanned: at(p.spanFrom(start.Pos()))}
	}
	target := p.parseExpression(precAssign)
	if target == nil {
		return nil
	}
	if !isAssignable(target) {
		p.syntaxError(CodeUnexpectedToken, target.Span(), "cannot assign to this expression")
		return nil
	}
	return target
}

// parseModifiers wraps stmt in trailing `if`, `unless`, `while`, `until` and
// `rescue` modifiers.
func (p *parser) parseModifiers(stmt Statement) Statement {
	for {
		switch p.peekToken.Type {
		case tokenIf, tokenUnless:
			p.nextToken()
			negated := p.curToken.Type == tokenUnless
			cond := p.parseModifierCondition()
			stmt = &IfStmt{
				Condition:  cond,
				Consequent: []Statement{stmt},
				Negated:    negated,
				Modifier:   true,
				spanned:    at(p.spanFrom(stmt.Pos())),
			}
		case tokenWhile, tokenUntil:
			p.nextToken()
			until := p.curToken.Type == tokenUntil
			cond := p.parseModifierCondition()
			stmt = &WhileStmt{
				Condition: cond,
				Body:      []Statement{stmt},
				Until:     until,
				Modifier:  true,
				spanned:   at(p.spanFrom(stmt.Pos())),
			}
		case tokenRescue:
			p.nextToken()
			var fallback Expression
			if statementEnds(p.peekToken.Type) {
				p.errorExpected(p.peekToken, "expression after 'rescue'")
			} else {
				p.nextToken()
				fallback = p.parseExpression(precArg)
			}
			stmt = &RescueModStmt{Body: stmt, Fallback: fallback, spanned: at(p.spanFrom(stmt.Pos()))}
		default:
			return stmt
		}
	}
}

func (p *parser) parseModifierCondition() Expression {
	kw := p.curToken
	if statementEnds(p.peekToken.Type) {
		p.errorExpected(p.peekToken, "condition after '"+kw.Literal+"'")
		return nil
	}
	p.nextToken()
	return p.parseExpression(lowestPrec)
}

func (p *parser) parseAliasStatement() Statement {
	start := p.curToken
	p.nextToken()
	newName, ok := methodNameOf(p.curToken)
	if !ok {
		p.errorExpected(p.curToken, "method name after 'alias'")
		return nil
	}
	p.nextToken()
	oldName, ok := methodNameOf(p.curToken)
	if !ok {
		p.errorExpected(p.curToken, "method name to alias")
		return nil
	}
	return &AliasStmt{New: newName, Old: oldName, spanned: at(p.spanFrom(start.Pos()))}
}

func (p *parser) parseUndefStatement() Statement {
	start := p.curToken
	stmt := &UndefStmt{}
	for {
		p.nextToken()
		name, ok := methodNameOf(p.curToken)
		if !ok {
			p.errorExpected(p.curToken, "method name after 'undef'")
			return nil
		}
		stmt.Names = append(stmt.Names, name)
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
	}
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

// parseHookStatement parses `BEGIN { ... }` and `END { ... }`.
func (p *parser) parseHookStatement() Statement {
	start := p.curToken
	if p.peekToken.Type != tokenLBrace {
		p.errorExpected(p.peekToken, "'{' after '"+start.Literal+"'")
		return nil
	}
	p.nextToken()
	open := p.curToken
	p.nextToken()
	body := p.parseStatements(nil, tokenRBrace)
	p.expectBraceClose(open)
	return &HookStmt{Keyword: start.Type, Body: body, spanned: at(p.spanFrom(start.Pos()))}
}

// expectBraceClose checks that a brace body ended at its `}` rather than at
// the end of input.
func (p *parser) expectBraceClose(open Token) {
	if p.curToken.Type == tokenRBrace {
		return
	}
	p.diags.errorf(PhaseSyntax, CodeUnbalancedDelimiter, open.Span,
		"unclosed %s opened at line %d", describeToken(open), open.Pos().Line)
}

func methodNameOf(tok Token) (string, bool) {
	switch tok.Type {
	case tokenIdent, tokenConst, tokenSymbol, tokenGlobalVar:
		return tok.Literal, true
	case tokenPlus, tokenMinus, tokenAsterisk, tokenPow, tokenSlash, tokenPercent,
		tokenEQ, tokenEQQ, tokenNotEQ, tokenCmp, tokenMatch, tokenNotMatch,
		tokenLT, tokenLTE, tokenGT, tokenGTE, tokenShiftLeft, tokenShiftRight,
		tokenAmp, tokenPipe, tokenCaret, tokenBang, tokenTilde:
		return string(tok.Type), true
	}
	if isKeyword(tok.Type) {
		return tok.Literal, true
	}
	return "", false
}
