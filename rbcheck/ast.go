package rbcheck

type Node interface {
	Pos() Position
	Span() Span
}

type Statement interface {
	Node
	stmtNode()
}

type Expression interface {
	Node
	exprNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) Pos() Position {
	if len(p.Statements) == 0 {
		return Position{Line: 1, Column: 1}
	}
	return p.Statements[0].Pos()
}

func (p *Program) Span() Span {
	if len(p.Statements) == 0 {
		pos := p.Pos()
		return Span{Start: pos, End: pos}
	}
	return Span{Start: p.Statements[0].Pos(), End: p.Statements[len(p.Statements)-1].Span().End}
}

// spanned carries the source range of a node.
type spanned struct {
	span Span
}

func (s spanned) Pos() Position { return s.span.Start }
func (s spanned) Span() Span    { return s.span }

type Identifier struct {
	Name string
	// Local is set when the name was assigned earlier in the same scope, so
	// the reference cannot be a method call.
	Local bool
	spanned
}

func (e *Identifier) exprNode() {}

type ConstantRef struct {
	Scope    Expression
	Name     string
	TopLevel bool
	spanned
}

func (e *ConstantRef) exprNode() {}

// Path renders the constant with its lexical scope, e.g. `A::B`.
func (e *ConstantRef) Path() string {
	switch scope := e.Scope.(type) {
	case *ConstantRef:
		return scope.Path() + "::" + e.Name
	case nil:
		if e.TopLevel {
			return "::" + e.Name
		}
	}
	return e.Name
}

type IvarExpr struct {
	Name string
	spanned
}

func (e *IvarExpr) exprNode() {}

type ClassVarExpr struct {
	Name string
	spanned
}

func (e *ClassVarExpr) exprNode() {}

type GlobalVarExpr struct {
	Name string
	spanned
}

func (e *GlobalVarExpr) exprNode() {}

type IntegerLiteral struct {
	Raw string
	spanned
}

func (e *IntegerLiteral) exprNode() {}

type FloatLiteral struct {
	Raw string
	spanned
}

func (e *FloatLiteral) exprNode() {}

type RationalLiteral struct {
	Raw string
	spanned
}

func (e *RationalLiteral) exprNode() {}

type ImaginaryLiteral struct {
	Raw string
	spanned
}

func (e *ImaginaryLiteral) exprNode() {}

type StringLiteral struct {
	Value   string
	Command bool
	spanned
}

func (e *StringLiteral) exprNode() {}

// InterpolatedString is a literal with `#{...}` segments. Kind tells which
// literal it came from (string, command string, symbol or regexp).
type InterpolatedString struct {
	Kind  TokenType
	Parts []Expression
	spanned
}

func (e *InterpolatedString) exprNode() {}

type Interpolation struct {
	Body []Statement
	spanned
}

func (e *Interpolation) exprNode() {}

type SymbolLiteral struct {
	Name string
	spanned
}

func (e *SymbolLiteral) exprNode() {}

type RegexLiteral struct {
	Pattern string
	spanned
}

func (e *RegexLiteral) exprNode() {}

type WordsLiteral struct {
	Words   []string
	Symbols bool
	spanned
}

func (e *WordsLiteral) exprNode() {}

type ArrayLiteral struct {
	Elements []Expression
	spanned
}

func (e *ArrayLiteral) exprNode() {}

type HashLiteral struct {
	Pairs []HashPair
	spanned
}

func (e *HashLiteral) exprNode() {}

// HashPair is `key => value`, `key: value` or, with a nil Key, `**value`.
type HashPair struct {
	Key   Expression
	Value Expression
}

type RangeExpr struct {
	Start     Expression
	End       Expression
	Exclusive bool
	spanned
}

func (e *RangeExpr) exprNode() {}

type BoolLiteral struct {
	Value bool
	spanned
}

func (e *BoolLiteral) exprNode() {}

type NilLiteral struct {
	spanned
}

func (e *NilLiteral) exprNode() {}

type SelfExpr struct {
	spanned
}

func (e *SelfExpr) exprNode() {}

// PseudoVar is `__FILE__`, `__LINE__` or `__ENCODING__`.
type PseudoVar struct {
	Keyword TokenType
	spanned
}

func (e *PseudoVar) exprNode() {}

type UnaryExpr struct {
	Operator TokenType
	Right    Expression
	spanned
}

func (e *UnaryExpr) exprNode() {}

type BinaryExpr struct {
	Left     Expression
	Operator TokenType
	Right    Expression
	spanned
}

func (e *BinaryExpr) exprNode() {}

type TernaryExpr struct {
	Condition Expression
	Then      Expression
	Else      Expression
	spanned
}

func (e *TernaryExpr) exprNode() {}

type DefinedExpr struct {
	Expr Expression
	spanned
}

func (e *DefinedExpr) exprNode() {}

type SplatExpr struct {
	Value  Expression
	Double bool
	spanned
}

func (e *SplatExpr) exprNode() {}

type BlockPass struct {
	Value Expression
	spanned
}

func (e *BlockPass) exprNode() {}

// CallExpr is a method call. A nil Receiver means an implicit self call.
type CallExpr struct {
	Receiver  Expression
	Method    string
	Args      []Expression
	Block     *BlockLiteral
	HasParens bool
	SafeNav   bool
	spanned
}

func (e *CallExpr) exprNode() {}

type IndexExpr struct {
	Object Expression
	Args   []Expression
	spanned
}

func (e *IndexExpr) exprNode() {}

// BlockLiteral is a `do ... end` or `{ ... }` block, or a `->` lambda.
type BlockLiteral struct {
	Params []*Param
	Body   []Statement
	Handlers
	Brace  bool
	Lambda bool
	spanned
}

func (e *BlockLiteral) exprNode() {}

type YieldExpr struct {
	Args []Expression
	spanned
}

func (e *YieldExpr) exprNode() {}

// SuperExpr is a call to the parent method. Implicit is set for bare
// `super`, which forwards the current arguments.
type SuperExpr struct {
	Args     []Expression
	Implicit bool
	Block    *BlockLiteral
	spanned
}

func (e *SuperExpr) exprNode() {}
