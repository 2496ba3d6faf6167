package rbcheck

import "strings"

func (p *parser) parseIntegerLiteral() Expression {
	return &IntegerLiteral{Raw: p.curToken.Literal, spanned: at(p.curToken.Span)}
}

func (p *parser) parseFloatLiteral() Expression {
	return &FloatLiteral{Raw: p.curToken.Literal, spanned: at(p.curToken.Span)}
}

func (p *parser) parseRationalLiteral() Expression {
	return &RationalLiteral{Raw: p.curToken.Literal, spanned: at(p.curToken.Span)}
}

func (p *parser) parseImaginaryLiteral() Expression {
	return &ImaginaryLiteral{Raw: p.curToken.Literal, spanned: at(p.curToken.Span)}
}

func (p *parser) parseBooleanLiteral() Expression {
	return &BoolLiteral{Value: p.curToken.Type == tokenTrue, spanned: at(p.curToken.Span)}
}

func (p *parser) parseNilLiteral() Expression {
	return &NilLiteral{spanned: at(p.curToken.Span)}
}

func (p *parser) parseSelf() Expression {
	return &SelfExpr{spanned: at(p.curToken.Span)}
}

func (p *parser) parsePseudoVar() Expression {
	return &PseudoVar{Keyword: p.curToken.Type, spanned: at(p.curToken.Span)}
}

// parseStringLiteral also joins adjacent literals: `"a" "b"` is one string.
func (p *parser) parseStringLiteral() Expression {
	start := p.curToken
	expr := p.stringFromToken(start)
	for start.Type == tokenString && p.peekToken.Type == tokenString {
		p.nextToken()
		expr = joinStrings(expr, p.stringFromToken(p.curToken), p.spanFrom(start.Pos()))
	}
	return expr
}

func (p *parser) stringFromToken(tok Token) Expression {
	if len(tok.Parts) == 0 {
		return &StringLiteral{Value: tok.Literal, Command: tok.Type == tokenXString, spanned: at(tok.Span)}
	}
	kind := tok.Type
	if kind == tokenHeredoc {
		kind = tokenString
	}
	return p.interpolated(tok, kind)
}

func joinStrings(left, right Expression, span Span) Expression {
	l, lok := left.(*StringLiteral)
	r, rok := right.(*StringLiteral)
	if lok && rok {
		return &StringLiteral{Value: l.Value + r.Value, spanned: at(span)}
	}
	joined := &InterpolatedString{Kind: tokenString, spanned: at(span)}
	for _, side := range []Expression{left, right} {
		if s, ok := side.(*InterpolatedString); ok {
			joined.Parts = append(joined.Parts, s.Parts...)
			continue
		}
		joined.Parts = append(joined.Parts, side)
	}
	return joined
}

// interpolated builds a literal from the segments of tok. Each `#{...}` body
// is parsed as a nested statement list.
func (p *parser) interpolated(tok Token, kind TokenType) *InterpolatedString {
	expr := &InterpolatedString{Kind: kind, spanned: at(tok.Span)}
	for _, seg := range tok.Parts {
		if !seg.Interp {
			expr.Parts = append(expr.Parts, &StringLiteral{Value: seg.Text, spanned: at(seg.Span)})
			continue
		}
		expr.Parts = append(expr.Parts, &Interpolation{Body: p.parseSegment(seg), spanned: at(seg.Span)})
	}
	return expr
}

func (p *parser) parseSegment(seg StringSegment) []Statement {
	savedTokens, savedIdx := p.tokens, p.idx

	tokens := make([]Token, 0, len(seg.Tokens)+1)
	tokens = append(tokens, seg.Tokens...)
	tokens = append(tokens, Token{Type: tokenEOF, Span: Span{Start: seg.Span.End, End: seg.Span.End}})
	p.tokens = tokens
	p.setIndex(0)

	body := p.parseStatements(nil)

	p.tokens = savedTokens
	p.setIndex(savedIdx)
	return body
}

func (p *parser) parseSymbolLiteral() Expression {
	tok := p.curToken
	if len(tok.Parts) > 0 {
		return p.interpolated(tok, tokenSymbol)
	}
	return &SymbolLiteral{Name: tok.Literal, spanned: at(tok.Span)}
}

func (p *parser) parseRegexLiteral() Expression {
	tok := p.curToken
	if len(tok.Parts) > 0 {
		return p.interpolated(tok, tokenRegex)
	}
	return &RegexLiteral{Pattern: tok.Literal, spanned: at(tok.Span)}
}

func (p *parser) parseWordsLiteral() Expression {
	tok := p.curToken
	return &WordsLiteral{
		Words:   strings.Fields(tok.Literal),
		Symbols: tok.Type == tokenSymbols,
		spanned: at(tok.Span),
	}
}
