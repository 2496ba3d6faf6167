package rbcheck

func (p *parser) parseIdentifier() Expression {
	tok := p.curToken
	if p.isLocal(tok.Literal) {
		return &Identifier{Name: tok.Literal, Local: true, spanned: at(tok.Span)}
	}
	if p.commandArgStart() {
		call := &CallExpr{Method: tok.Literal}
		call.Args = p.parseCommandArgs()
		call.spanned = at(p.spanFrom(tok.Pos()))
		return call
	}
	return &Identifier{Name: tok.Literal, spanned: at(tok.Span)}
}

func (p *parser) parseConstant() Expression {
	return &ConstantRef{Name: p.curToken.Literal, spanned: at(p.curToken.Span)}
}

// parseTopConstant parses `::Name`.
func (p *parser) parseTopConstant() Expression {
	start := p.curToken
	if p.peekToken.Type != tokenConst {
		p.errorExpected(p.peekToken, "constant after '::'")
		return nil
	}
	p.nextToken()
	return &ConstantRef{Name: p.curToken.Literal, TopLevel: true, spanned: at(p.spanFrom(start.Pos()))}
}

func (p *parser) parseIvar() Expression {
	return &IvarExpr{Name: p.curToken.Literal, spanned: at(p.curToken.Span)}
}

func (p *parser) parseClassVar() Expression {
	return &ClassVarExpr{Name: p.curToken.Literal, spanned: at(p.curToken.Span)}
}

func (p *parser) parseGlobalVar() Expression {
	return &GlobalVarExpr{Name: p.curToken.Literal, spanned: at(p.curToken.Span)}
}

func (p *parser) tokenAt(i int) Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// commandArgStart reports whether the peek token begins the first argument of
// a call written without parentheses, as in `puts value`. The argument must be
// separated from the method name by whitespace; a sign or splat must also be
// attached to its operand, so `a - b` stays a subtraction.
func (p *parser) commandArgStart() bool {
	tok := p.peekToken
	if !tok.SpaceBefore {
		return false
	}
	switch tok.Type {
	case tokenInt, tokenFloat, tokenRational, tokenImaginary,
		tokenString, tokenXString, tokenHeredoc, tokenSymbol, tokenRegex, tokenWords, tokenSymbols,
		tokenIdent, tokenConst, tokenIvar, tokenClassVar, tokenGlobalVar, tokenLabel,
		tokenNil, tokenTrue, tokenFalse, tokenSelf, tokenFileKw, tokenLineKw, tokenEncoding,
		tokenKwNot, tokenDefined, tokenLambda, tokenSuper, tokenYield, tokenCase, tokenDef,
		tokenLParen, tokenLBracket, tokenScope, tokenBang, tokenTilde:
		return true
	case tokenMinus, tokenPlus, tokenAsterisk, tokenPow, tokenAmp, tokenRange, tokenRangeExcl:
		next := p.tokenAt(p.idx + 2)
		return !next.SpaceBefore && next.Type != tokenNewline && next.Type != tokenEOF
	}
	return false
}

// parseCommandArgs parses the arguments of a call without parentheses. A
// `do` that follows belongs to the outermost command of the statement.
func (p *parser) parseCommandArgs() []Expression {
	p.noDo++
	defer func() { p.noDo-- }()

	var args []Expression
	var hash *HashLiteral
	for {
		p.nextToken()
		if !p.parseArgument(&args, &hash) {
			break
		}
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
		p.skipNewlines()
	}
	return finishArgs(args, hash)
}

// parseParenArgs parses a comma separated list between open (at cur) and
// close. The list may span lines and end with a trailing comma.
func (p *parser) parseParenArgs(open Token, close TokenType) []Expression {
	savedNoDo := p.noDo
	p.noDo = 0
	defer func() { p.noDo = savedNoDo }()

	var args []Expression
	var hash *HashLiteral
	p.skipNewlines()
	if p.peekToken.Type == close {
		p.nextToken()
		return nil
	}
	for p.peekToken.Type != tokenEOF {
		p.nextToken()
		if !p.parseArgument(&args, &hash) {
			break
		}
		p.skipNewlinesBefore(tokenComma)
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
		p.skipNewlines()
		p.skipExtraCommas()
		if p.peekToken.Type == close {
			break
		}
	}
	p.closeDelimiter(open, close)
	return finishArgs(args, hash)
}

// parseArgument parses one argument at cur. Keyword arguments and `=>`
// pairs are collected into a trailing hash.
func (p *parser) parseArgument(args *[]Expression, hash **HashLiteral) bool {
	start := p.curToken
	switch start.Type {
	case tokenLabel:
		key := &SymbolLiteral{Name: start.Literal, spanned: at(start.Span)}
		var value Expression
		switch p.peekToken.Type {
		case tokenComma, tokenRParen, tokenNewline, tokenEOF:
			value = &Identifier{Name: start.Literal, Local: p.isLocal(start.Literal), spanned: at(start.Span)}
		default:
			p.skipNewlines()
			p.nextToken()
			value = p.parseExpression(precArg)
			if value == nil {
				return false
			}
		}
		addPair(hash, key, value, p.spanFrom(start.Pos()))
		return true
	case tokenPow:
		value := p.parseOperand(precArg)
		if value == nil {
			return false
		}
		addPair(hash, nil, value, value.Span())
		return true
	}

	expr := p.parseOperand(precArg)
	if expr == nil {
		return false
	}
	if p.peekToken.Type == tokenArrow {
		p.nextToken()
		p.skipNewlines()
		p.nextToken()
		value := p.parseExpression(precArg)
		if value == nil {
			return false
		}
		addPair(hash, expr, value, p.spanFrom(start.Pos()))
		return true
	}
	if p.peekToken.Type == tokenDo && p.noDo == 0 {
		expr = p.attachDoBlock(expr)
	}
	*args = append(*args, expr)
	return true
}

func addPair(hash **HashLiteral, key, value Expression, span Span) {
	if *hash == nil {
		*hash = &HashLiteral{spanned: at(span)}
	}
	(*hash).Pairs = append((*hash).Pairs, HashPair{Key: key, Value: value})
	(*hash).extendTo(span.End)
}

func finishArgs(args []Expression, hash *HashLiteral) []Expression {
	if hash != nil {
		args = append(args, hash)
	}
	return args
}

// skipExtraCommas reports commas that do not separate two elements.
func (p *parser) skipExtraCommas() {
	for p.peekToken.Type == tokenComma {
		p.nextToken()
		p.syntaxError(CodeUnexpectedToken, p.curToken.Span, "unexpected ',': missing element before separator")
		p.skipNewlines()
	}
}

func toCall(expr Expression) *CallExpr {
	switch e := expr.(type) {
	case *CallExpr:
		return e
	case *Identifier:
		return &CallExpr{Method: e.Name, spanned: e.spanned}
	case *ConstantRef:
		return &CallExpr{Receiver: e.Scope, Method: e.Name, spanned: e.spanned}
	}
	return nil
}

func (p *parser) parseCallExpression(callee Expression) Expression {
	open := p.curToken
	call := toCall(callee)
	call.HasParens = true
	call.Args = p.parseParenArgs(open, tokenRParen)
	call.spanned = at(p.spanFrom(callee.Pos()))
	return call
}

func (p *parser) parseMemberExpression(receiver Expression) Expression {
	dot := p.curToken
	p.skipNewlines()
	p.nextToken()
	call := &CallExpr{Receiver: receiver, SafeNav: dot.Type == tokenSafeNav}

	if p.curToken.Type == tokenLParen {
		call.Method = "call"
		call.HasParens = true
		call.Args = p.parseParenArgs(p.curToken, tokenRParen)
		call.spanned = at(p.spanFrom(receiver.Pos()))
		return call
	}

	name, ok := methodNameOf(p.curToken)
	if !ok || p.curToken.Type == tokenSymbol || p.curToken.Type == tokenGlobalVar {
		p.errorExpected(p.curToken, "method name after '"+dot.Literal+"'")
		return nil
	}
	call.Method = name
	p.parseCallSuffix(call)
	call.spanned = at(p.spanFrom(receiver.Pos()))
	return call
}

// parseCallSuffix reads the arguments following a method name at cur.
func (p *parser) parseCallSuffix(call *CallExpr) {
	switch {
	case p.peekToken.Type == tokenLParen && !p.peekToken.SpaceBefore:
		p.nextToken()
		call.HasParens = true
		call.Args = p.parseParenArgs(p.curToken, tokenRParen)
	case p.commandArgStart():
		call.Args = p.parseCommandArgs()
	}
}

func (p *parser) parseScopeExpression(left Expression) Expression {
	p.nextToken()
	tok := p.curToken
	if tok.Type == tokenConst {
		if p.peekToken.Type == tokenLParen && !p.peekToken.SpaceBefore {
			call := &CallExpr{Receiver: left, Method: tok.Literal}
			p.parseCallSuffix(call)
			call.spanned = at(p.spanFrom(left.Pos()))
			return call
		}
		return &ConstantRef{Scope: left, Name: tok.Literal, spanned: at(p.spanFrom(left.Pos()))}
	}
	name, ok := methodNameOf(tok)
	if !ok || tok.Type == tokenSymbol || tok.Type == tokenGlobalVar {
		p.errorExpected(tok, "constant or method name after '::'")
		return nil
	}
	call := &CallExpr{Receiver: left, Method: name}
	p.parseCallSuffix(call)
	call.spanned = at(p.spanFrom(left.Pos()))
	return call
}

func (p *parser) parseIndexExpression(object Expression) Expression {
	open := p.curToken
	args := p.parseParenArgs(open, tokenRBracket)
	return &IndexExpr{Object: object, Args: args, spanned: at(p.spanFrom(object.Pos()))}
}

func (p *parser) parseBraceBlock(left Expression) Expression {
	block := &BlockLiteral{Brace: true}
	p.parseBlockBody(block)
	if s, ok := left.(*SuperExpr); ok {
		s.Block = block
		s.extendTo(block.Span().End)
		return s
	}
	call := toCall(left)
	call.Block = block
	call.spanned = at(Span{Start: left.Pos(), End: block.Span().End})
	return call
}

// attachDoBlock parses the `do` block in the peek position and gives it to
// the call it belongs to: the outermost call of expr.
func (p *parser) attachDoBlock(expr Expression) Expression {
	switch e := expr.(type) {
	case *AssignStmt:
		if n := len(e.Values); n > 0 && e.Values[n-1] != nil {
			e.Values[n-1] = p.attachDoBlock(e.Values[n-1])
			e.extendTo(p.curToken.Span.End)
		}
		return e
	case *ControlStmt:
		if e.Value != nil {
			e.Value = p.attachDoBlock(e.Value)
			e.extendTo(p.curToken.Span.End)
		}
		return e
	case *SuperExpr:
		if e.Block == nil {
			p.nextToken()
			e.Block = &BlockLiteral{}
			p.parseBlockBody(e.Block)
			e.extendTo(p.curToken.Span.End)
			return e
		}
	}
	call := blockCall(expr)
	if call == nil {
		p.errorUnexpected(p.peekToken)
		return expr
	}
	p.nextToken()
	call.Block = &BlockLiteral{}
	p.parseBlockBody(call.Block)
	call.spanned = at(Span{Start: expr.Pos(), End: p.curToken.Span.End})
	return call
}

// blockCall returns the call a block after expr attaches to, or nil.
func blockCall(expr Expression) *CallExpr {
	switch e := expr.(type) {
	case *Identifier:
		if e.Local {
			return nil
		}
	case *CallExpr:
		if e.Block != nil {
			return nil
		}
	case *ConstantRef:
	default:
		return nil
	}
	return toCall(expr)
}

func (p *parser) parseYieldExpression() Expression {
	start := p.curToken
	expr := &YieldExpr{}
	switch {
	case p.peekToken.Type == tokenLParen && !p.peekToken.SpaceBefore:
		p.nextToken()
		expr.Args = p.parseParenArgs(p.curToken, tokenRParen)
	case p.valueFollows():
		expr.Args = p.parseCommandArgs()
	}
	expr.spanned = at(p.spanFrom(start.Pos()))
	return expr
}

func (p *parser) parseSuperExpression() Expression {
	start := p.curToken
	expr := &SuperExpr{Implicit: true}
	switch {
	case p.peekToken.Type == tokenLParen && !p.peekToken.SpaceBefore:
		p.nextToken()
		expr.Implicit = false
		expr.Args = p.parseParenArgs(p.curToken, tokenRParen)
	case p.peekToken.SpaceBefore && p.valueFollows():
		expr.Implicit = false
		expr.Args = p.parseCommandArgs()
	}
	expr.spanned = at(p.spanFrom(start.Pos()))
	return expr
}
