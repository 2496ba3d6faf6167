package rbcheck

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenEOF     TokenType = "EOF"
	tokenNewline TokenType = "NEWLINE"

	tokenIdent     TokenType = "IDENT"
	tokenConst     TokenType = "CONST"
	tokenLabel     TokenType = "LABEL"
	tokenIvar      TokenType = "IVAR"
	tokenClassVar  TokenType = "CVAR"
	tokenGlobalVar TokenType = "GVAR"

	tokenInt       TokenType = "INTEGER"
	tokenFloat     TokenType = "FLOAT"
	tokenRational  TokenType = "RATIONAL"
	tokenImaginary TokenType = "IMAGINARY"
	tokenString    TokenType = "STRING"
	tokenXString   TokenType = "XSTRING"
	tokenHeredoc   TokenType = "HEREDOC"
	tokenSymbol    TokenType = "SYMBOL"
	tokenRegex     TokenType = "REGEX"
	tokenWords     TokenType = "WORDS"
	tokenSymbols   TokenType = "SYMBOLS"

	tokenAssign       TokenType = "="
	tokenPlusEq       TokenType = "+="
	tokenMinusEq      TokenType = "-="
	tokenStarEq       TokenType = "*="
	tokenSlashEq      TokenType = "/="
	tokenPercentEq    TokenType = "%="
	tokenPowEq        TokenType = "**="
	tokenOrEq         TokenType = "||="
	tokenAndEq        TokenType = "&&="
	tokenPipeEq       TokenType = "|="
	tokenAmpEq        TokenType = "&="
	tokenCaretEq      TokenType = "^="
	tokenShiftLeftEq  TokenType = "<<="
	tokenShiftRightEq TokenType = ">>="

	tokenPlus       TokenType = "+"
	tokenMinus      TokenType = "-"
	tokenAsterisk   TokenType = "*"
	tokenPow        TokenType = "**"
	tokenSlash      TokenType = "/"
	tokenPercent    TokenType = "%"
	tokenBang       TokenType = "!"
	tokenTilde      TokenType = "~"
	tokenLT         TokenType = "<"
	tokenGT         TokenType = ">"
	tokenLTE        TokenType = "<="
	tokenGTE        TokenType = ">="
	tokenEQ         TokenType = "=="
	tokenEQQ        TokenType = "==="
	tokenNotEQ      TokenType = "!="
	tokenCmp        TokenType = "<=>"
	tokenMatch      TokenType = "=~"
	tokenNotMatch   TokenType = "!~"
	tokenAnd        TokenType = "&&"
	tokenOr         TokenType = "||"
	tokenAmp        TokenType = "&"
	tokenPipe       TokenType = "|"
	tokenCaret      TokenType = "^"
	tokenShiftLeft  TokenType = "<<"
	tokenShiftRight TokenType = ">>"
	tokenRange      TokenType = ".."
	tokenRangeExcl  TokenType = "..."
	tokenQuestion   TokenType = "?"
	tokenArrow      TokenType = "=>"
	tokenLambda     TokenType = "->"

	tokenComma     TokenType = ","
	tokenSemicolon TokenType = ";"
	tokenColon     TokenType = ":"
	tokenScope     TokenType = "::"
	tokenDot       TokenType = "."
	tokenSafeNav   TokenType = "&."
	tokenLParen    TokenType = "("
	tokenRParen    TokenType = ")"
	tokenLBrace    TokenType = "{"
	tokenRBrace    TokenType = "}"
	tokenLBracket  TokenType = "["
	tokenRBracket  TokenType = "]"

	tokenKwBEGIN    TokenType = "BEGIN"
	tokenKwEND      TokenType = "END"
	tokenEncoding   TokenType = "__ENCODING__"
	tokenLineKw     TokenType = "__LINE__"
	tokenFileKw     TokenType = "__FILE__"
	tokenAlias      TokenType = "ALIAS"
	tokenKwAnd      TokenType = "AND"
	tokenBegin      TokenType = "BEGIN_BLOCK"
	tokenBreak      TokenType = "BREAK"
	tokenCase       TokenType = "CASE"
	tokenClass      TokenType = "CLASS"
	tokenDef        TokenType = "DEF"
	tokenDefined    TokenType = "DEFINED?"
	tokenDo         TokenType = "DO"
	tokenElse       TokenType = "ELSE"
	tokenElsif      TokenType = "ELSIF"
	tokenEnd        TokenType = "END_BLOCK"
	tokenEnsure     TokenType = "ENSURE"
	tokenFalse      TokenType = "FALSE"
	tokenFor        TokenType = "FOR"
	tokenIf         TokenType = "IF"
	tokenIn         TokenType = "IN"
	tokenModule     TokenType = "MODULE"
	tokenNext       TokenType = "NEXT"
	tokenNil        TokenType = "NIL"
	tokenKwNot      TokenType = "NOT"
	tokenKwOr       TokenType = "OR"
	tokenRedo       TokenType = "REDO"
	tokenRescue     TokenType = "RESCUE"
	tokenRetry      TokenType = "RETRY"
	tokenReturn     TokenType = "RETURN"
	tokenSelf       TokenType = "SELF"
	tokenSuper      TokenType = "SUPER"
	tokenThen       TokenType = "THEN"
	tokenTrue       TokenType = "TRUE"
	tokenUndef      TokenType = "UNDEF"
	tokenUnless     TokenType = "UNLESS"
	tokenUntil      TokenType = "UNTIL"
	tokenWhen       TokenType = "WHEN"
	tokenWhile      TokenType = "WHILE"
	tokenYield      TokenType = "YIELD"
)

var keywords = map[string]TokenType{
	"BEGIN":        tokenKwBEGIN,
	"END":          tokenKwEND,
	"__ENCODING__": tokenEncoding,
	"__LINE__":     tokenLineKw,
	"__FILE__":     tokenFileKw,
	"alias":        tokenAlias,
	"and":          tokenKwAnd,
	"begin":        tokenBegin,
	"break":        tokenBreak,
	"case":         tokenCase,
	"class":        tokenClass,
	"def":          tokenDef,
	"defined?":     tokenDefined,
	"do":           tokenDo,
	"else":         tokenElse,
	"elsif":        tokenElsif,
	"end":          tokenEnd,
	"ensure":       tokenEnsure,
	"false":        tokenFalse,
	"for":          tokenFor,
	"if":           tokenIf,
	"in":           tokenIn,
	"module":       tokenModule,
	"next":         tokenNext,
	"nil":          tokenNil,
	"not":          tokenKwNot,
	"or":           tokenKwOr,
	"redo":         tokenRedo,
	"rescue":       tokenRescue,
	"retry":        tokenRetry,
	"return":       tokenReturn,
	"self":         tokenSelf,
	"super":        tokenSuper,
	"then":         tokenThen,
	"true":         tokenTrue,
	"undef":        tokenUndef,
	"unless":       tokenUnless,
	"until":        tokenUntil,
	"when":         tokenWhen,
	"while":        tokenWhile,
	"yield":        tokenYield,
}

// Keywords returns the reserved words of the language in no particular order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for word := range keywords {
		out = append(out, word)
	}
	return out
}

func lookupIdent(ident string) TokenType {
	if tt, ok := keywords[ident]; ok {
		return tt
	}
	if isConstantName(ident) {
		return tokenConst
	}
	return tokenIdent
}

func isKeyword(tt TokenType) bool {
	switch tt {
	case tokenKwBEGIN, tokenKwEND, tokenEncoding, tokenLineKw, tokenFileKw,
		tokenAlias, tokenKwAnd, tokenBegin, tokenBreak, tokenCase, tokenClass,
		tokenDef, tokenDefined, tokenDo, tokenElse, tokenElsif, tokenEnd,
		tokenEnsure, tokenFalse, tokenFor, tokenIf, tokenIn, tokenModule,
		tokenNext, tokenNil, tokenKwNot, tokenKwOr, tokenRedo, tokenRescue,
		tokenRetry, tokenReturn, tokenSelf, tokenSuper, tokenThen, tokenTrue,
		tokenUndef, tokenUnless, tokenUntil, tokenWhen, tokenWhile, tokenYield:
		return true
	}
	return false
}

// Token captures lexical information for the parser.
type Token struct {
	Type    TokenType
	Literal string
	Span    Span
	// SpaceBefore reports whether whitespace separated the token from the
	// previous one. Command-call detection depends on it.
	SpaceBefore bool
	// Parts holds the segments of an interpolated literal.
	Parts []StringSegment
}

// Pos returns the start of the token.
func (t Token) Pos() Position { return t.Span.Start }

// End returns the position just past the token.
func (t Token) End() Position { return t.Span.End }

// IsName reports whether the token names a local, method, constant or
// variable.
func (t Token) IsName() bool {
	switch t.Type {
	case tokenIdent, tokenConst, tokenIvar, tokenClassVar, tokenGlobalVar:
		return true
	}
	return false
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool { return isKeyword(t.Type) }

// StringSegment is either literal text or the tokens of an `#{...}` body.
type StringSegment struct {
	Text   string
	Tokens []Token
	Interp bool
	Span   Span
}

// Position identifies a location in the source file. Line and Column are
// 1-based (columns count runes); Offset is a byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Before reports whether p sorts before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Span is a half-open source range.
type Span struct {
	Start Position
	End   Position
}

func spanOf(start, end Token) Span {
	return Span{Start: start.Span.Start, End: end.Span.End}
}
