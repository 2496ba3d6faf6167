package rbcheck

const (
	lowestPrec = iota
	precLogical
	precNot
	precDefined
	precAssign
	precTernary
	precRange
	precOr
	precAnd
	precEquality
	precComparison
	precBitOr
	precBitAnd
	precShift
	precSum
	precProduct
	precUnaryMinus
	precPow
	precPrefix
	precCall
)

// precArg is the precedence command arguments are parsed at: they stop
// before `and`/`or`.
const precArg = precLogical

var precedences = map[TokenType]int{
	tokenKwAnd:        precLogical,
	tokenKwOr:         precLogical,
	tokenQuestion:     precTernary,
	tokenRange:        precRange,
	tokenRangeExcl:    precRange,
	tokenOr:           precOr,
	tokenAnd:          precAnd,
	tokenEQ:           precEquality,
	tokenEQQ:          precEquality,
	tokenNotEQ:        precEquality,
	tokenCmp:          precEquality,
	tokenMatch:        precEquality,
	tokenNotMatch:     precEquality,
	tokenLT:           precComparison,
	tokenLTE:          precComparison,
	tokenGT:           precComparison,
	tokenGTE:          precComparison,
	tokenPipe:         precBitOr,
	tokenCaret:        precBitOr,
	tokenAmp:          precBitAnd,
	tokenShiftLeft:    precShift,
	tokenShiftRight:   precShift,
	tokenPlus:         precSum,
	tokenMinus:        precSum,
	tokenAsterisk:     precProduct,
	tokenSlash:        precProduct,
	tokenPercent:      precProduct,
	tokenPow:          precPow,
	tokenLParen:       precCall,
	tokenDot:          precCall,
	tokenSafeNav:      precCall,
	tokenScope:        precCall,
	tokenLBracket:     precCall,
	tokenLBrace:       precCall,
	tokenAssign:       precAssign,
	tokenPlusEq:       precAssign,
	tokenMinusEq:      precAssign,
	tokenStarEq:       precAssign,
	tokenSlashEq:      precAssign,
	tokenPercentEq:    precAssign,
	tokenPowEq:        precAssign,
	tokenOrEq:         precAssign,
	tokenAndEq:        precAssign,
	tokenPipeEq:       precAssign,
	tokenAmpEq:        precAssign,
	tokenCaretEq:      precAssign,
	tokenShiftLeftEq:  precAssign,
	tokenShiftRightEq: precAssign,
}

var assignOperators = map[TokenType]struct{}{
	tokenAssign: {}, tokenPlusEq: {}, tokenMinusEq: {}, tokenStarEq: {}, tokenSlashEq: {},
	tokenPercentEq: {}, tokenPowEq: {}, tokenOrEq: {}, tokenAndEq: {}, tokenPipeEq: {},
	tokenAmpEq: {}, tokenCaretEq: {}, tokenShiftLeftEq: {}, tokenShiftRightEq: {},
}

// binaryOperatorOf maps a compound assignment to the operator it applies.
func binaryOperatorOf(op TokenType) TokenType {
	switch op {
	case tokenPlusEq:
		return tokenPlus
	case tokenMinusEq:
		return tokenMinus
	case tokenStarEq:
		return tokenAsterisk
	case tokenSlashEq:
		return tokenSlash
	case tokenPercentEq:
		return tokenPercent
	case tokenPowEq:
		return tokenPow
	case tokenOrEq:
		return tokenOr
	case tokenAndEq:
		return tokenAnd
	case tokenPipeEq:
		return tokenPipe
	case tokenAmpEq:
		return tokenAmp
	case tokenCaretEq:
		return tokenCaret
	case tokenShiftLeftEq:
		return tokenShiftLeft
	case tokenShiftRightEq:
		return tokenShiftRight
	}
	return op
}

func isAssignable(expr Expression) bool {
	switch e := expr.(type) {
	case *Identifier, *ConstantRef, *IvarExpr, *ClassVarExpr, *GlobalVarExpr, *IndexExpr:
		return true
	case *CallExpr:
		return e.Receiver != nil && len(e.Args) == 0 && !e.HasParens && e.Block == nil
	}
	return false
}

func (p *parser) parseExpression(precedence int) Expression {
	prefix := p.prefixFns[p.curToken.Type]
	if prefix == nil {
		p.errorUnexpected(p.curToken)
		return nil
	}

	left := prefix()

	for left != nil && p.peekToken.Type != tokenEOF && precedence < p.peekPrecedence(left) {
		infix := p.infixFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

// peekPrecedence returns the binding power of the peek token after left.
// Call-like suffixes only bind to expressions that can take them.
func (p *parser) peekPrecedence(left Expression) int {
	tok := p.peekToken
	switch tok.Type {
	case tokenLParen:
		if tok.SpaceBefore || !isCallTarget(left) {
			return lowestPrec
		}
	case tokenLBrace:
		if !isBlockTarget(left) {
			return lowestPrec
		}
	}
	if prec, ok := precedences[tok.Type]; ok {
		return prec
	}
	return lowestPrec
}

func (p *parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowestPrec
}

func isCallTarget(expr Expression) bool {
	switch e := expr.(type) {
	case *Identifier, *ConstantRef:
		return true
	case *CallExpr:
		return !e.HasParens && len(e.Args) == 0 && e.Block == nil
	}
	return false
}

func isBlockTarget(expr Expression) bool {
	switch e := expr.(type) {
	case *Identifier:
		return !e.Local
	case *CallExpr:
		return e.Block == nil
	case *SuperExpr:
		return e.Block == nil
	}
	return false
}
