package rbcheck

import "strings"

// parseBlockBody parses a block starting at the `{` or `do` at cur,
// including its `|params|`.
func (p *parser) parseBlockBody(block *BlockLiteral) {
	open := p.curToken
	indent := p.lineIndent(p.idx)
	block.Brace = open.Type == tokenLBrace

	p.pushLocals(false)
	defer p.popLocals()

	switch p.peekToken.Type {
	case tokenOr:
		p.nextToken()
	case tokenPipe:
		p.nextToken()
		block.Params = p.parseParamList(p.curToken, tokenPipe)
	}
	p.nextToken()

	if block.Brace {
		block.Body = p.parseStatements(nil, tokenRBrace)
		p.expectBraceClose(open)
	} else {
		o := &opener{keyword: open, indent: indent}
		block.Body = p.parseStatements(o, tokenRescue, tokenElse, tokenEnsure, tokenEnd)
		block.Handlers = p.parseHandlers(o)
		p.closeBlock(o)
	}
	block.spanned = at(p.spanFrom(open.Pos()))
}

func (p *parser) parseLambdaLiteral() Expression {
	start := p.curToken
	block := &BlockLiteral{Lambda: true}

	p.pushLocals(false)
	defer p.popLocals()

	switch p.peekToken.Type {
	case tokenLParen:
		p.nextToken()
		block.Params = p.parseParamList(p.curToken, tokenRParen)
	case tokenIdent, tokenAsterisk, tokenAmp, tokenLabel:
		block.Params = p.parseParamList(start, tokenLBrace)
	}

	switch p.peekToken.Type {
	case tokenLBrace, tokenDo:
		p.nextToken()
		p.parseBlockBody(block)
	default:
		p.errorExpected(p.peekToken, "lambda body")
	}
	block.spanned = at(p.spanFrom(start.Pos()))
	return block
}

// parseParamList parses parameters up to close. For tokenPipe and
// tokenRParen the closer is consumed; tokenNewline and tokenLBrace lists end
// where the parameters do and leave the cursor on the last one.
func (p *parser) parseParamList(open Token, close TokenType) []*Param {
	var params []*Param
	grouped := close == tokenRParen
	if grouped {
		p.skipNewlines()
	}
	if p.peekToken.Type == close && (grouped || close == tokenPipe) {
		p.nextToken()
		return params
	}

	for p.peekToken.Type != tokenEOF {
		p.nextToken()
		param := p.parseParam()
		if param == nil {
			break
		}
		params = append(params, param)
		if grouped {
			p.skipNewlinesBefore(tokenComma)
		}
		if p.peekToken.Type == tokenComma || (close == tokenPipe && p.peekToken.Type == tokenSemicolon) {
			p.nextToken()
			if grouped {
				p.skipNewlines()
			}
			continue
		}
		break
	}

	switch close {
	case tokenRParen:
		p.closeDelimiter(open, tokenRParen)
	case tokenPipe:
		if p.peekToken.Type == tokenPipe {
			p.nextToken()
		} else {
			p.errorExpected(p.peekToken, "'|' to close block parameters")
		}
	}
	return params
}

func (p *parser) parseParam() *Param {
	start := p.curToken
	param := &Param{}
	switch start.Type {
	case tokenIdent:
		param.Name = start.Literal
		if p.peekToken.Type == tokenAssign {
			p.nextToken()
			p.nextToken()
			param.Kind = ParamOptional
			param.Default = p.parseExpression(precBitOr)
		}
	case tokenLabel:
		param.Name = start.Literal
		param.Kind = ParamKeyword
		switch p.peekToken.Type {
		case tokenComma, tokenRParen, tokenPipe, tokenNewline, tokenSemicolon, tokenEOF:
		default:
			p.nextToken()
			param.Default = p.parseExpression(precBitOr)
		}
	case tokenAsterisk, tokenPow, tokenAmp:
		switch start.Type {
		case tokenAsterisk:
			param.Kind = ParamRest
		case tokenPow:
			param.Kind = ParamKeywordRest
		default:
			param.Kind = ParamBlock
		}
		if p.peekToken.Type == tokenIdent && !p.peekToken.SpaceBefore {
			p.nextToken()
			param.Name = p.curToken.Literal
		} else if p.peekToken.Type == tokenNil && start.Type == tokenPow {
			p.nextToken()
		}
	case tokenRangeExcl:
		param.Kind = ParamForward
	case tokenLParen:
		// Destructured parameter: `|(key, value), index|`.
		nested := p.parseParamList(start, tokenRParen)
		names := make([]string, 0, len(nested))
		for _, n := range nested {
			names = append(names, n.Name)
		}
		param.Name = "(" + strings.Join(names, ", ") + ")"
		param.spanned = at(p.spanFrom(start.Pos()))
		return param
	default:
		p.errorExpected(start, "parameter name")
		return nil
	}
	if param.Name != "" {
		p.declareLocal(param.Name)
	}
	param.spanned = at(p.spanFrom(start.Pos()))
	return param
}
