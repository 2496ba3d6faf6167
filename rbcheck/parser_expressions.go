package rbcheck

func (p *parser) parsePrefixExpression() Expression {
	op := p.curToken
	p.nextToken()
	right := p.parseExpression(precPrefix)
	return &UnaryExpr{Operator: op.Type, Right: right, spanned: at(p.spanFrom(op.Pos()))}
}

func (p *parser) parseUnaryMinus() Expression {
	op := p.curToken
	p.nextToken()
	right := p.parseExpression(precUnaryMinus)
	return &UnaryExpr{Operator: op.Type, Right: right, spanned: at(p.spanFrom(op.Pos()))}
}

func (p *parser) parseNotExpression() Expression {
	op := p.curToken
	p.nextToken()
	right := p.parseExpression(precNot)
	return &UnaryExpr{Operator: op.Type, Right: right, spanned: at(p.spanFrom(op.Pos()))}
}

func (p *parser) parseDefinedExpression() Expression {
	start := p.curToken
	var inner Expression
	if p.peekToken.Type == tokenLParen && !p.peekToken.SpaceBefore {
		p.nextToken()
		open := p.curToken
		p.skipNewlines()
		p.nextToken()
		inner = p.parseExpression(lowestPrec)
		if inner != nil {
			p.closeDelimiter(open, tokenRParen)
		}
	} else {
		p.nextToken()
		inner = p.parseExpression(precDefined)
	}
	return &DefinedExpr{Expr: inner, spanned: at(p.spanFrom(start.Pos()))}
}

func (p *parser) parseInfixExpression(left Expression) Expression {
	op := p.curToken
	precedence := p.curPrecedence()
	if op.Type == tokenPow {
		precedence--
	}
	p.skipNewlines()
	p.nextToken()
	right := p.parseExpression(precedence)
	return &BinaryExpr{Left: left, Operator: op.Type, Right: right, spanned: at(p.spanFrom(left.Pos()))}
}

// parseAssignExpression parses plain and compound assignment. Assignment is
// right associative and the target is declared before the value is read, so
// `x = x` sees a local.
func (p *parser) parseAssignExpression(left Expression) Expression {
	op := p.curToken
	if !isAssignable(left) {
		p.syntaxError(CodeUnexpectedToken, op.Span, "unexpected %s: cannot assign to this expression", describeToken(op))
		return nil
	}
	p.declareTarget(left)
	p.skipNewlines()
	p.nextToken()
	value := p.parseOperand(precAssign - 1)
	if value != nil && p.peekToken.Type == tokenDo && p.noDo == 0 {
		value = p.attachDoBlock(value)
	}
	return &AssignStmt{
		Targets:  []Expression{left},
		Operator: op.Type,
		Values:   []Expression{value},
		spanned:  at(p.spanFrom(left.Pos())),
	}
}

func (p *parser) parseTernaryExpression(cond Expression) Expression {
	expr := &TernaryExpr{Condition: cond}
	p.skipNewlines()
	p.nextToken()
	expr.Then = p.parseExpression(precTernary)
	if expr.Then == nil {
		expr.spanned = at(p.spanFrom(cond.Pos()))
		return expr
	}
	if p.peekToken.Type == tokenNewline && p.peekPastNewlines().Type == tokenColon {
		p.skipNewlines()
	}
	if p.peekToken.Type != tokenColon {
		p.errorExpected(p.peekToken, "':' in conditional expression")
		expr.spanned = at(p.spanFrom(cond.Pos()))
		return expr
	}
	p.nextToken()
	p.skipNewlines()
	p.nextToken()
	expr.Else = p.parseExpression(precTernary - 1)
	expr.spanned = at(p.spanFrom(cond.Pos()))
	return expr
}

func (p *parser) parseRangeExpression(left Expression) Expression {
	op := p.curToken
	expr := &RangeExpr{Start: left, Exclusive: op.Type == tokenRangeExcl}
	if !p.rangeEnds() {
		p.nextToken()
		expr.End = p.parseExpression(precRange)
	}
	expr.spanned = at(p.spanFrom(left.Pos()))
	return expr
}

func (p *parser) parseBeginlessRange() Expression {
	op := p.curToken
	expr := &RangeExpr{Exclusive: op.Type == tokenRangeExcl}
	p.nextToken()
	expr.End = p.parseExpression(precRange)
	expr.spanned = at(p.spanFrom(op.Pos()))
	return expr
}

// rangeEnds reports whether a range operator at cur has no upper bound.
func (p *parser) rangeEnds() bool {
	switch p.peekToken.Type {
	case tokenRParen, tokenRBracket, tokenRBrace, tokenComma, tokenThen, tokenDo:
		return true
	}
	return statementEnds(p.peekToken.Type)
}

// parseOperand parses an expression that may also be a splat, a double splat
// or a block pass. These are only valid as arguments, collection elements and
// assignment values.
func (p *parser) parseOperand(precedence int) Expression {
	start := p.curToken
	switch start.Type {
	case tokenAsterisk, tokenPow:
		double := start.Type == tokenPow
		if p.operandOmitted() {
			return &SplatExpr{Double: double, spanned: at(start.Span)}
		}
		p.nextToken()
		value := p.parseExpression(precPrefix)
		if value == nil {
			return nil
		}
		return &SplatExpr{Value: value, Double: double, spanned: at(p.spanFrom(start.Pos()))}
	case tokenAmp:
		if p.operandOmitted() {
			return &BlockPass{spanned: at(start.Span)}
		}
		p.nextToken()
		value := p.parseExpression(precPrefix)
		if value == nil {
			return nil
		}
		return &BlockPass{Value: value, spanned: at(p.spanFrom(start.Pos()))}
	}
	return p.parseExpression(precedence)
}

// operandOmitted reports whether an anonymous `*`, `**` or `&` at cur is
// used without a name, as in `f(*)`.
func (p *parser) operandOmitted() bool {
	switch p.peekToken.Type {
	case tokenComma, tokenRParen, tokenRBracket, tokenPipe:
		return true
	}
	return false
}
