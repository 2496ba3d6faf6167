package rbcheck

func (p *parser) parseDefExpression() Expression {
	o := p.openBlock()
	start := p.curToken
	def := &DefStmt{}

	p.nextToken()
	if p.peekToken.Type == tokenDot && !p.peekToken.SpaceBefore {
		switch p.curToken.Type {
		case tokenSelf:
			def.Receiver = &SelfExpr{spanned: at(p.curToken.Span)}
		case tokenConst:
			def.Receiver = &ConstantRef{Name: p.curToken.Literal, spanned: at(p.curToken.Span)}
		case tokenIdent:
			def.Receiver = &Identifier{Name: p.curToken.Literal, spanned: at(p.curToken.Span)}
		}
		if def.Receiver != nil {
			p.nextToken()
			p.nextToken()
		}
	}
	def.Name = p.parseMethodName()

	p.pushLocals(true)
	defer p.popLocals()

	switch p.peekToken.Type {
	case tokenLParen:
		p.nextToken()
		def.Params = p.parseParamList(p.curToken, tokenRParen)
	case tokenNewline, tokenSemicolon, tokenEOF, tokenAssign:
	default:
		def.Params = p.parseParamList(start, tokenNewline)
	}

	if p.peekToken.Type == tokenAssign {
		// Endless definition: `def name(args) = expr`.
		p.nextToken()
		p.skipNewlines()
		p.nextToken()
		if body := p.parseStatement(); body != nil {
			def.Body = []Statement{body}
		}
		def.spanned = at(p.spanFrom(start.Pos()))
		return def
	}

	p.nextToken()
	def.Body = p.parseStatements(o, tokenRescue, tokenElse, tokenEnsure, tokenEnd)
	def.Handlers = p.parseHandlers(o)
	p.closeBlock(o)
	def.spanned = at(p.spanFrom(start.Pos()))
	return def
}

// parseMethodName reads the name of a method definition at cur, including
// operator names and setters like `name=`. An invalid name is reported and
// the cursor stays put so the body is still parsed.
func (p *parser) parseMethodName() string {
	tok := p.curToken
	switch tok.Type {
	case tokenLBracket:
		if p.peekToken.Type == tokenRBracket {
			p.nextToken()
			if p.peekToken.Type == tokenAssign && !p.peekToken.SpaceBefore {
				p.nextToken()
				return "[]="
			}
			return "[]"
		}
	case tokenIdent, tokenConst:
		next := p.tokenAt(p.idx + 2)
		if p.peekToken.Type == tokenAssign && !p.peekToken.SpaceBefore && next.Type == tokenLParen {
			p.nextToken()
			return tok.Literal + "="
		}
		return tok.Literal
	case tokenSymbol, tokenGlobalVar:
	default:
		if name, ok := methodNameOf(tok); ok {
			return name
		}
	}
	p.errorExpected(tok, "method name after 'def'")
	p.syncStatement()
	return ""
}

func (p *parser) parseClassExpression() Expression {
	o := p.openBlock()
	start := p.curToken

	if p.peekToken.Type == tokenShiftLeft {
		stmt := &SingletonClassStmt{}
		p.nextToken()
		p.nextToken()
		stmt.Target = p.parseExpression(lowestPrec)
		p.pushLocals(true)
		defer p.popLocals()
		p.nextToken()
		stmt.Body = p.parseStatements(o, tokenEnd)
		p.closeBlock(o)
		stmt.spanned = at(p.spanFrom(start.Pos()))
		return stmt
	}

	stmt := &ClassStmt{}
	stmt.Path = p.parseDeclarationPath("class")
	if stmt.Path != nil && p.peekToken.Type == tokenLT {
		p.nextToken()
		p.nextToken()
		stmt.Superclass = p.parseExpression(lowestPrec)
	}
	p.endDeclarationHeader()

	p.pushLocals(true)
	defer p.popLocals()
	p.nextToken()
	stmt.Body = p.parseStatements(o, tokenRescue, tokenElse, tokenEnsure, tokenEnd)
	stmt.Handlers = p.parseHandlers(o)
	p.closeBlock(o)
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

func (p *parser) parseModuleExpression() Expression {
	o := p.openBlock()
	start := p.curToken

	stmt := &ModuleStmt{}
	stmt.Path = p.parseDeclarationPath("module")
	p.endDeclarationHeader()

	p.pushLocals(true)
	defer p.popLocals()
	p.nextToken()
	stmt.Body = p.parseStatements(o, tokenRescue, tokenElse, tokenEnsure, tokenEnd)
	stmt.Handlers = p.parseHandlers(o)
	p.closeBlock(o)
	stmt.spanned = at(p.spanFrom(start.Pos()))
	return stmt
}

// parseDeclarationPath reads the constant path after `class` or `module`,
// such as `Outer::Inner` or `::Top`.
func (p *parser) parseDeclarationPath(keyword string) *ConstantRef {
	var path *ConstantRef
	if p.peekToken.Type == tokenScope {
		p.nextToken()
		if p.peekToken.Type != tokenConst {
			p.errorExpected(p.peekToken, keyword+" name")
			return nil
		}
		p.nextToken()
		path = &ConstantRef{Name: p.curToken.Literal, TopLevel: true, spanned: at(p.curToken.Span)}
	} else {
		if p.peekToken.Type != tokenConst {
			p.errorExpected(p.peekToken, keyword+" name")
			return nil
		}
		p.nextToken()
		path = &ConstantRef{Name: p.curToken.Literal, spanned: at(p.curToken.Span)}
	}
	for p.peekToken.Type == tokenScope && p.tokenAt(p.idx+2).Type == tokenConst {
		p.nextToken()
		p.nextToken()
		path = &ConstantRef{Scope: path, Name: p.curToken.Literal, spanned: at(Span{Start: path.Pos(), End: p.curToken.Span.End})}
	}
	return path
}

func (p *parser) endDeclarationHeader() {
	switch p.peekToken.Type {
	case tokenNewline, tokenSemicolon, tokenEOF:
		return
	}
	p.errorUnexpected(p.peekToken)
	p.syncStatement()
}
