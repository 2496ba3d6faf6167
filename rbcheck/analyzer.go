package rbcheck

import "fmt"

type analyzer struct {
	diags    *diagnosticSink
	scope    *scope
	contexts []controlContext
	// inDefined is positive inside `defined?`, whose operand is never run.
	inDefined int
}

// Analyze walks program once and appends semantic diagnostics to upstream.
// The upstream diagnostics are returned unchanged ahead of the new ones.
func Analyze(program *Program, upstream []Diagnostic) []Diagnostic {
	sink := newDiagnosticSink(upstream)
	a := &analyzer{
		diags:    sink,
		scope:    newScope(scopeTop, nil),
		contexts: []controlContext{ctxTop},
	}
	if program != nil {
		a.statements(program.Statements)
	}
	return sink.list()
}

// within runs fn in a new scope and control context.
func (a *analyzer) within(kind scopeKind, ctx controlContext, fn func()) {
	outer := a.scope
	a.scope = newScope(kind, outer)
	a.pushContext(ctx)
	defer func() {
		a.popContext()
		a.scope = outer
	}()
	fn()
}

func (a *analyzer) inContext(ctx controlContext, fn func()) {
	a.pushContext(ctx)
	defer a.popContext()
	fn()
}

func (a *analyzer) statements(stmts []Statement) inferred {
	result := kindOnly(kindNil)
	for _, stmt := range stmts {
		result = a.statement(stmt)
	}
	return result
}

func (a *analyzer) statement(stmt Statement) inferred {
	switch s := stmt.(type) {
	case nil:
		return unknown
	case *ExprStmt:
		return a.expr(s.Expr)
	case *AssignStmt:
		return a.assign(s)
	case *IfStmt:
		return a.ifStmt(s)
	case *WhileStmt:
		return a.whileStmt(s)
	case *ForStmt:
		return a.forStmt(s)
	case *CaseStmt:
		return a.caseStmt(s)
	case *BeginStmt:
		return a.beginStmt(s)
	case *RescueModStmt:
		return a.rescueMod(s)
	case *DefStmt:
		a.def(s)
		return kindOnly(kindSymbol)
	case *ClassStmt:
		a.class(s)
	case *SingletonClassStmt:
		a.expr(s.Target)
		a.within(scopeClass, ctxClass, func() {
			a.statements(s.Body)
		})
	case *ModuleStmt:
		a.module(s)
	case *HookStmt:
		a.statements(s.Body)
	case *ControlStmt:
		a.control(s)
	case *AliasStmt, *UndefStmt:
		return kindOnly(kindNil)
	}
	return unknown
}

// expr analyzes an expression and returns what is known about its value.
func (a *analyzer) expr(expr Expression) inferred {
	switch e := expr.(type) {
	case nil:
		return unknown
	case *IntegerLiteral:
		return kindOnly(kindInteger)
	case *FloatLiteral:
		return kindOnly(kindFloat)
	case *RationalLiteral:
		return kindOnly(kindRational)
	case *ImaginaryLiteral:
		return kindOnly(kindComplex)
	case *StringLiteral:
		if e.Command {
			return kindOnly(kindString)
		}
		return stringLiteral(e.Value)
	case *InterpolatedString:
		for _, part := range e.Parts {
			a.expr(part)
		}
		switch e.Kind {
		case tokenSymbol:
			return kindOnly(kindSymbol)
		case tokenRegex:
			return kindOnly(kindRegexp)
		}
		return kindOnly(kindString)
	case *Interpolation:
		a.statements(e.Body)
		return kindOnly(kindString)
	case *SymbolLiteral:
		return kindOnly(kindSymbol)
	case *RegexLiteral:
		return kindOnly(kindRegexp)
	case *WordsLiteral:
		return kindOnly(kindArray)
	case *ArrayLiteral:
		for _, el := range e.Elements {
			a.expr(el)
		}
		return kindOnly(kindArray)
	case *HashLiteral:
		for _, pair := range e.Pairs {
			a.expr(pair.Key)
			a.expr(pair.Value)
		}
		return kindOnly(kindHash)
	case *RangeExpr:
		a.expr(e.Start)
		a.expr(e.End)
		return kindOnly(kindRange)
	case *BoolLiteral:
		return kindOnly(kindBool)
	case *NilLiteral:
		return kindOnly(kindNil)
	case *SelfExpr:
		return unknown
	case *PseudoVar:
		switch e.Keyword {
		case tokenLineKw:
			return kindOnly(kindInteger)
		case tokenFileKw:
			return kindOnly(kindString)
		}
		return unknown
	case *Identifier:
		if sym, ok := a.scope.lookupLocal(e.Name); ok {
			return sym.state
		}
		return unknown
	case *ConstantRef:
		return a.constantRef(e)
	case *IvarExpr:
		return a.variable(a.scope.owner(), e.Name)
	case *ClassVarExpr:
		return a.variable(a.scope.owner(), e.Name)
	case *GlobalVarExpr:
		return a.variable(a.scope.root(), e.Name)
	case *UnaryExpr:
		return a.unary(e)
	case *BinaryExpr:
		return a.binary(e)
	case *TernaryExpr:
		a.expr(e.Condition)
		start := a.snapshot()
		var thenValue, elseValue inferred
		thenPath := a.branch(start, func() { thenValue = a.expr(e.Then) })
		elsePath := a.branch(start, func() { elseValue = a.expr(e.Else) })
		a.merge(thenPath, elsePath)
		return join(thenValue, elseValue)
	case *DefinedExpr:
		a.inDefined++
		a.expr(e.Expr)
		a.inDefined--
		return unknown
	case *SplatExpr:
		a.expr(e.Value)
		return unknown
	case *BlockPass:
		a.expr(e.Value)
		return unknown
	case *CallExpr:
		return a.call(e)
	case *IndexExpr:
		a.expr(e.Object)
		for _, arg := range e.Args {
			a.expr(arg)
		}
		return unknown
	case *BlockLiteral:
		a.block(e)
		if e.Lambda {
			return kindOnly(kindProc)
		}
		return unknown
	case *YieldExpr:
		a.checkControl(tokenYield, e.Span())
		for _, arg := range e.Args {
			a.expr(arg)
		}
		return unknown
	case *SuperExpr:
		a.checkControl(tokenSuper, e.Span())
		for _, arg := range e.Args {
			a.expr(arg)
		}
		if e.Block != nil {
			a.block(e.Block)
		}
		return unknown
	case Statement:
		return a.statement(e)
	}
	return unknown
}

func (a *analyzer) variable(owner *scope, name string) inferred {
	if sym, ok := owner.symbols[name]; ok {
		return sym.state
	}
	return unknown
}

func (a *analyzer) constantRef(e *ConstantRef) inferred {
	if e.Scope != nil {
		a.expr(e.Scope)
		if sym, ok := a.scope.lookupConstant(e.Path()); ok {
			return sym.state
		}
		return unknown
	}
	if sym, ok := a.scope.lookupConstant(e.Name); ok {
		return sym.state
	}
	return unknown
}

func (a *analyzer) unary(e *UnaryExpr) inferred {
	operand := a.expr(e.Right)
	switch e.Operator {
	case tokenBang, tokenKwNot:
		return kindOnly(kindBool)
	case tokenMinus, tokenPlus:
		if operand.kind.numeric() {
			return kindOnly(operand.kind)
		}
	case tokenTilde:
		if operand.kind == kindInteger {
			return kindOnly(kindInteger)
		}
	}
	return unknown
}

func (a *analyzer) binary(e *BinaryExpr) inferred {
	left := a.expr(e.Left)
	if e.Right == nil {
		return unknown
	}
	switch e.Operator {
	case tokenAnd, tokenOr, tokenKwAnd, tokenKwOr:
		// The right side may not run.
		start := a.snapshot()
		var right inferred
		ran := a.branch(start, func() { right = a.expr(e.Right) })
		a.merge(start, ran)
		return a.checkOperands(e.Operator, left, right, e.Span())
	}
	right := a.expr(e.Right)
	return a.checkOperands(e.Operator, left, right, e.Span())
}

func (a *analyzer) call(e *CallExpr) inferred {
	receiver := a.expr(e.Receiver)
	for _, arg := range e.Args {
		a.expr(arg)
	}
	if e.Block != nil {
		a.block(e.Block)
	}

	if e.Receiver == nil {
		switch e.Method {
		case "block_given?":
			return kindOnly(kindBool)
		case "lambda", "proc":
			return kindOnly(kindProc)
		}
		return unknown
	}
	if len(e.Args) > 0 {
		return unknown
	}
	a.checkCast(e.Method, receiver, e.Span())
	if kind, ok := conversionKinds[e.Method]; ok {
		return kindOnly(kind)
	}
	return unknown
}

// block analyzes a block or lambda body. It may run any number of times, so
// its effects on outer variables are merged with the state before it.
func (a *analyzer) block(b *BlockLiteral) {
	before := a.snapshot()
	a.forgetAssigned(b.Body)
	a.within(scopeBlock, ctxBlock, func() {
		a.params(b.Params)
		a.guarded(b.Body, b.Handlers)
	})
	a.merge(before, a.snapshot())
}

func (a *analyzer) params(params []*Param) {
	for _, param := range params {
		if param == nil {
			continue
		}
		a.expr(param.Default)
		if param.Name == "" {
			continue
		}
		state := unknown
		switch param.Kind {
		case ParamRest:
			state = kindOnly(kindArray)
		case ParamKeywordRest:
			state = kindOnly(kindHash)
		case ParamBlock:
			state = kindOnly(kindProc)
		}
		a.scope.define(&symbol{name: param.Name, kind: symbolLocal, state: state, declared: param.Pos()})
	}
}

func (a *analyzer) def(s *DefStmt) {
	a.expr(s.Receiver)
	if s.Name != "" {
		a.scope.define(&symbol{name: s.Name, kind: symbolMethod, declared: s.Pos()})
	}
	a.within(scopeMethod, ctxMethod, func() {
		a.params(s.Params)
		a.guarded(s.Body, s.Handlers)
	})
}

func (a *analyzer) class(s *ClassStmt) {
	a.expr(s.Superclass)
	a.declareModule(s.Path)
	a.within(scopeClass, ctxClass, func() {
		a.guarded(s.Body, s.Handlers)
	})
}

func (a *analyzer) module(s *ModuleStmt) {
	a.declareModule(s.Path)
	a.within(scopeClass, ctxClass, func() {
		a.guarded(s.Body, s.Handlers)
	})
}

// declareModule binds a class or module name. Reopening an existing class
// or module is not a redefinition.
func (a *analyzer) declareModule(path *ConstantRef) {
	if path == nil {
		return
	}
	if path.Scope != nil {
		a.expr(path.Scope)
	}
	name := path.Path()
	if sym, ok := a.scope.lookupConstant(name); ok {
		sym.kind = symbolModule
		return
	}
	a.scope.define(&symbol{name: name, kind: symbolModule, declared: path.Pos()})
}

func (a *analyzer) control(s *ControlStmt) {
	a.checkControl(s.Keyword, s.Span())
	a.expr(s.Value)
}

func (a *analyzer) assign(s *AssignStmt) inferred {
	var values []inferred
	for _, value := range s.Values {
		values = append(values, a.expr(value))
	}

	if s.Compound() {
		if len(s.Targets) != 1 || len(values) != 1 {
			return unknown
		}
		target := s.Targets[0]
		current := a.readTarget(target)
		var result inferred
		switch s.Operator {
		case tokenOrEq, tokenAndEq:
			if ref, ok := target.(*ConstantRef); ok && s.Operator == tokenOrEq {
				if _, defined := a.scope.lookupConstant(ref.Path()); defined {
					return current
				}
			}
			result = join(current, values[0])
		default:
			result = a.checkOperands(binaryOperatorOf(s.Operator), current, values[0], s.Span())
		}
		a.writeTarget(target, result)
		return result
	}

	if len(s.Targets) == 1 {
		value := unknown
		switch {
		case len(values) == 1:
			value = values[0]
		case len(values) > 1:
			value = kindOnly(kindArray)
		}
		if _, splat := s.Values[0].(*SplatExpr); splat && len(values) == 1 {
			value = kindOnly(kindArray)
		}
		a.writeTarget(s.Targets[0], value)
		return value
	}

	// Multiple assignment: values pair up with targets by position unless a
	// splat makes the layout depend on runtime lengths.
	positional := len(values) == len(s.Targets)
	for _, v := range s.Values {
		if _, splat := v.(*SplatExpr); splat {
			positional = false
		}
	}
	for i, target := range s.Targets {
		if splat, ok := target.(*SplatExpr); ok {
			a.writeTarget(splat.Value, kindOnly(kindArray))
			positional = false
			continue
		}
		value := unknown
		if positional {
			value = values[i]
		}
		a.writeTarget(target, value)
	}
	return kindOnly(kindArray)
}

// readTarget returns the current value of an assignment target.
func (a *analyzer) readTarget(target Expression) inferred {
	switch t := target.(type) {
	case *Identifier:
		if sym, ok := a.scope.lookupLocal(t.Name); ok {
			return sym.state
		}
		return kindOnly(kindNil)
	case *IndexExpr, *CallExpr:
		a.expr(t)
		return unknown
	}
	return a.expr(target)
}

func (a *analyzer) writeTarget(target Expression, value inferred) {
	switch t := target.(type) {
	case nil:
	case *Identifier:
		if sym, ok := a.scope.lookupLocal(t.Name); ok {
			sym.state = value
			return
		}
		a.scope.define(&symbol{name: t.Name, kind: symbolLocal, state: value, declared: t.Pos()})
	case *ConstantRef:
		a.writeConstant(t, value)
	case *IvarExpr:
		a.writeVariable(a.scope.owner(), t.Name, symbolIvar, value, t.Pos())
	case *ClassVarExpr:
		a.writeVariable(a.scope.owner(), t.Name, symbolClassVar, value, t.Pos())
	case *GlobalVarExpr:
		a.writeVariable(a.scope.root(), t.Name, symbolGlobal, value, t.Pos())
	case *SplatExpr:
		a.writeTarget(t.Value, kindOnly(kindArray))
	case *IndexExpr:
		a.expr(t.Object)
		for _, arg := range t.Args {
			a.expr(arg)
		}
	case *CallExpr:
		a.expr(t.Receiver)
	}
}

func (a *analyzer) writeVariable(owner *scope, name string, kind symbolKind, value inferred, pos Position) {
	if sym, ok := owner.symbols[name]; ok {
		sym.state = value
		return
	}
	owner.define(&symbol{name: name, kind: kind, state: value, declared: pos})
}

// writeConstant binds a constant, warning when the name is already bound in
// this or an enclosing scope.
func (a *analyzer) writeConstant(ref *ConstantRef, value inferred) {
	if ref.Scope != nil {
		a.expr(ref.Scope)
	}
	name := ref.Path()
	if sym, ok := a.scope.lookupConstant(name); ok {
		a.diags.warnf(PhaseSemantic, CodeConstantRedefinition, ref.Span(),
			"constant %s is already defined (%s at line %d)", name, describeDeclaration(sym), sym.declared.Line)
		sym.state = value
		sym.declared = ref.Pos()
		return
	}
	a.scope.define(&symbol{name: name, kind: symbolConstant, state: value, declared: ref.Pos()})
}

func describeDeclaration(sym *symbol) string {
	if sym.kind == symbolModule {
		return "class or module definition"
	}
	return fmt.Sprintf("previous %s", sym.kind)
}
