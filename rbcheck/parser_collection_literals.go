package rbcheck

// parseGroupedExpression parses `( ... )`. Several statements separated by
// `;` or newlines become a BeginStmt without handlers.
func (p *parser) parseGroupedExpression() Expression {
	open := p.curToken
	savedNoDo := p.noDo
	p.noDo = 0
	defer func() { p.noDo = savedNoDo }()

	p.skipNewlines()
	switch p.peekToken.Type {
	case tokenRParen:
		p.nextToken()
		return &NilLiteral{spanned: at(p.spanFrom(open.Pos()))}
	case tokenEOF:
		p.closeDelimiter(open, tokenRParen)
		return nil
	}

	var stmts []Statement
	for {
		p.nextToken()
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
		if p.peekToken.Type != tokenSemicolon && !(p.peekToken.Type == tokenNewline && p.groupContinues()) {
			break
		}
		p.nextToken()
		p.skipNewlines()
		for p.peekToken.Type == tokenSemicolon {
			p.nextToken()
			p.skipNewlines()
		}
		if p.peekToken.Type == tokenRParen {
			break
		}
	}
	p.closeDelimiter(open, tokenRParen)

	if len(stmts) == 1 {
		switch s := stmts[0].(type) {
		case *ExprStmt:
			return s.Expr
		case Expression:
			return s
		}
	}
	return &BeginStmt{Body: stmts, spanned: at(p.spanFrom(open.Pos()))}
}

// groupContinues reports whether the statement after the newlines at peek is
// still inside the parentheses. It is when a `)` closes the group on a
// later line before any unbalanced closer.
func (p *parser) groupContinues() bool {
	depth := 0
	for i := p.idx + 1; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case tokenLParen, tokenLBracket, tokenLBrace:
			depth++
		case tokenRBracket, tokenRBrace:
			if depth == 0 {
				return false
			}
			depth--
		case tokenRParen:
			if depth == 0 {
				return true
			}
			depth--
		case tokenEnd, tokenEOF:
			if depth == 0 {
				return false
			}
		case tokenDef, tokenClass, tokenModule:
			return false
		}
	}
	return false
}

func (p *parser) parseArrayLiteral() Expression {
	open := p.curToken
	array := &ArrayLiteral{}
	savedNoDo := p.noDo
	p.noDo = 0
	defer func() { p.noDo = savedNoDo }()

	p.skipNewlines()
	if p.peekToken.Type == tokenRBracket {
		p.nextToken()
		array.spanned = at(p.spanFrom(open.Pos()))
		return array
	}

	var hash *HashLiteral
	for p.peekToken.Type != tokenEOF {
		p.nextToken()
		var elements []Expression
		if !p.parseArgument(&elements, &hash) {
			break
		}
		array.Elements = append(array.Elements, elements...)
		p.skipNewlinesBefore(tokenComma)
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
		p.skipNewlines()
		p.skipExtraCommas()
		if p.peekToken.Type == tokenRBracket {
			break
		}
	}
	if hash != nil {
		array.Elements = append(array.Elements, hash)
	}
	p.closeDelimiter(open, tokenRBracket)
	array.spanned = at(p.spanFrom(open.Pos()))
	return array
}

func (p *parser) parseHashLiteral() Expression {
	open := p.curToken
	hash := &HashLiteral{}
	savedNoDo := p.noDo
	p.noDo = 0
	defer func() { p.noDo = savedNoDo }()

	p.skipNewlines()
	if p.peekToken.Type == tokenRBrace {
		p.nextToken()
		hash.spanned = at(p.spanFrom(open.Pos()))
		return hash
	}

	for p.peekToken.Type != tokenEOF {
		p.nextToken()
		if !p.parseHashPair(hash) {
			break
		}
		p.skipNewlinesBefore(tokenComma)
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
		p.skipNewlines()
		p.skipExtraCommas()
		if p.peekToken.Type == tokenRBrace {
			break
		}
	}
	p.closeDelimiter(open, tokenRBrace)
	hash.spanned = at(p.spanFrom(open.Pos()))
	return hash
}

func (p *parser) parseHashPair(hash *HashLiteral) bool {
	start := p.curToken
	switch start.Type {
	case tokenLabel:
		key := &SymbolLiteral{Name: start.Literal, spanned: at(start.Span)}
		var value Expression
		switch p.peekToken.Type {
		case tokenComma, tokenRBrace, tokenNewline:
			value = &Identifier{Name: start.Literal, Local: p.isLocal(start.Literal), spanned: at(start.Span)}
		default:
			p.skipNewlines()
			p.nextToken()
			value = p.parseExpression(lowestPrec)
			if value == nil {
				return false
			}
		}
		hash.Pairs = append(hash.Pairs, HashPair{Key: key, Value: value})
		return true
	case tokenPow:
		value := p.parseOperand(lowestPrec)
		if value == nil {
			return false
		}
		hash.Pairs = append(hash.Pairs, HashPair{Value: value})
		return true
	}

	key := p.parseExpression(lowestPrec)
	if key == nil {
		return false
	}
	if p.peekToken.Type != tokenArrow {
		p.errorExpected(p.peekToken, "'=>' after hash key")
		return false
	}
	p.nextToken()
	p.skipNewlines()
	p.nextToken()
	value := p.parseExpression(lowestPrec)
	if value == nil {
		return false
	}
	hash.Pairs = append(hash.Pairs, HashPair{Key: key, Value: value})
	return true
}
