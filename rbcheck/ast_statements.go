package rbcheck

func at(span Span) spanned {
	return spanned{span: span}
}

func (s *spanned) extendTo(end Position) {
	s.span.End = end
}

type ExprStmt struct {
	Expr Expression
	spanned
}

func (s *ExprStmt) stmtNode() {}

// AssignStmt covers plain, compound (`+=`, `||=`, ...) and multiple
// assignment. Operator is tokenAssign for plain assignment.
type AssignStmt struct {
	Targets  []Expression
	Operator TokenType
	Values   []Expression
	spanned
}

func (s *AssignStmt) stmtNode() {}
func (s *AssignStmt) exprNode() {}

// Compound reports whether the assignment reads the target first.
func (s *AssignStmt) Compound() bool {
	return s.Operator != tokenAssign
}

// IfStmt also represents `unless` (Negated) and the modifier forms.
type IfStmt struct {
	Condition  Expression
	Consequent []Statement
	ElseIf     []*IfStmt
	Alternate  []Statement
	Negated    bool
	Modifier   bool
	spanned
}

func (s *IfStmt) stmtNode() {}
func (s *IfStmt) exprNode() {}

// WhileStmt also represents `until` loops and the modifier forms.
type WhileStmt struct {
	Condition Expression
	Body      []Statement
	Until     bool
	Modifier  bool
	spanned
}

func (s *WhileStmt) stmtNode() {}
func (s *WhileStmt) exprNode() {}

type ForStmt struct {
	Targets  []Expression
	Iterable Expression
	Body     []Statement
	spanned
}

func (s *ForStmt) stmtNode() {}
func (s *ForStmt) exprNode() {}

type CaseStmt struct {
	Subject Expression
	Clauses []*WhenClause
	Else    []Statement
	spanned
}

func (s *CaseStmt) stmtNode() {}
func (s *CaseStmt) exprNode() {}

// WhenClause is a `when` branch, or an `in` branch when Pattern is set.
type WhenClause struct {
	Values  []Expression
	Body    []Statement
	Pattern bool
	spanned
}

// Handlers holds the rescue, else and ensure clauses of a body.
type Handlers struct {
	Rescues []*RescueClause
	Else    []Statement
	Ensure  []Statement
}

type RescueClause struct {
	Classes []Expression
	Var     Expression
	Body    []Statement
	spanned
}

type BeginStmt struct {
	Body []Statement
	Handlers
	spanned
}

func (s *BeginStmt) stmtNode() {}
func (s *BeginStmt) exprNode() {}

// RescueModStmt is `stmt rescue fallback`.
type RescueModStmt struct {
	Body     Statement
	Fallback Expression
	spanned
}

func (s *RescueModStmt) stmtNode() {}

type ParamKind int

const (
	ParamRequired ParamKind = iota
	ParamOptional
	ParamRest
	ParamKeyword
	ParamKeywordRest
	ParamBlock
	ParamForward
)

type Param struct {
	Name    string
	Kind    ParamKind
	Default Expression
	spanned
}

type DefStmt struct {
	Receiver Expression
	Name     string
	Params   []*Param
	Body     []Statement
	Handlers
	spanned
}

func (s *DefStmt) stmtNode() {}
func (s *DefStmt) exprNode() {}

type ClassStmt struct {
	Path       *ConstantRef
	Superclass Expression
	Body       []Statement
	Handlers
	spanned
}

func (s *ClassStmt) stmtNode() {}
func (s *ClassStmt) exprNode() {}

// SingletonClassStmt is `class << target`.
type SingletonClassStmt struct {
	Target Expression
	Body   []Statement
	spanned
}

func (s *SingletonClassStmt) stmtNode() {}
func (s *SingletonClassStmt) exprNode() {}

type ModuleStmt struct {
	Path *ConstantRef
	Body []Statement
	Handlers
	spanned
}

func (s *ModuleStmt) stmtNode() {}
func (s *ModuleStmt) exprNode() {}

type AliasStmt struct {
	New string
	Old string
	spanned
}

func (s *AliasStmt) stmtNode() {}

type UndefStmt struct {
	Names []string
	spanned
}

func (s *UndefStmt) stmtNode() {}

// HookStmt is a `BEGIN { ... }` or `END { ... }` block.
type HookStmt struct {
	Keyword TokenType
	Body    []Statement
	spanned
}

func (s *HookStmt) stmtNode() {}

// ControlStmt is break, next, redo, retry or return.
type ControlStmt struct {
	Keyword TokenType
	Value   Expression
	spanned
}

func (s *ControlStmt) stmtNode() {}
func (s *ControlStmt) exprNode() {}

// KeywordName returns the source spelling of the control keyword.
func (s *ControlStmt) KeywordName() string {
	switch s.Keyword {
	case tokenBreak:
		return "break"
	case tokenNext:
		return "next"
	case tokenRedo:
		return "redo"
	case tokenRetry:
		return "retry"
	case tokenReturn:
		return "return"
	}
	return string(s.Keyword)
}
