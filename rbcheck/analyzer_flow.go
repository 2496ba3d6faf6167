package rbcheck

// snapshot records the state of every symbol visible from the current scope.
type snapshot map[*symbol]inferred

func (a *analyzer) snapshot() snapshot {
	snap := snapshot{}
	a.scope.visible(func(sym *symbol) {
		snap[sym] = sym.state
	})
	return snap
}

// restore resets visible symbols to snap. Symbols declared after snap was
// taken become unknown.
func (a *analyzer) restore(snap snapshot) {
	a.scope.visible(func(sym *symbol) {
		sym.state = snap[sym]
	})
}

// merge joins the states reached at the end of each path. A symbol missing
// from any path becomes unknown.
func (a *analyzer) merge(paths ...snapshot) {
	if len(paths) == 0 {
		return
	}
	a.scope.visible(func(sym *symbol) {
		state, ok := paths[0][sym]
		for _, path := range paths[1:] {
			if !ok {
				break
			}
			var other inferred
			other, ok = path[sym]
			state = join(state, other)
		}
		if !ok {
			state = unknown
		}
		sym.state = state
	})
}

// branch analyzes fn starting from start and returns the state it ends in.
func (a *analyzer) branch(start snapshot, fn func()) snapshot {
	a.restore(start)
	fn()
	return a.snapshot()
}

// forgetAssigned makes every visible variable assigned somewhere in stmts
// unknown. Loop and block bodies may run after their own assignments, so
// the state on entry cannot be trusted.
func (a *analyzer) forgetAssigned(stmts []Statement) {
	names := map[string]struct{}{}
	collectAssigned(stmts, names)
	for name := range names {
		if sym, ok := a.scope.lookupLocal(name); ok {
			sym.state = unknown
			continue
		}
		if sym, ok := a.scope.owner().symbols[name]; ok {
			sym.state = unknown
		}
	}
}

func collectAssigned(stmts []Statement, names map[string]struct{}) {
	for _, stmt := range stmts {
		collectAssignedStmt(stmt, names)
	}
}

func collectAssignedStmt(stmt Statement, names map[string]struct{}) {
	switch s := stmt.(type) {
	case *AssignStmt:
		for _, target := range s.Targets {
			collectTarget(target, names)
		}
		for _, value := range s.Values {
			collectAssignedExpr(value, names)
		}
	case *ExprStmt:
		collectAssignedExpr(s.Expr, names)
	case *IfStmt:
		collectAssigned(s.Consequent, names)
		for _, clause := range s.ElseIf {
			collectAssigned(clause.Consequent, names)
		}
		collectAssigned(s.Alternate, names)
	case *WhileStmt:
		collectAssigned(s.Body, names)
	case *ForStmt:
		for _, target := range s.Targets {
			collectTarget(target, names)
		}
		collectAssigned(s.Body, names)
	case *CaseStmt:
		for _, clause := range s.Clauses {
			collectAssigned(clause.Body, names)
		}
		collectAssigned(s.Else, names)
	case *BeginStmt:
		collectAssigned(s.Body, names)
		collectHandlers(s.Handlers, names)
	case *RescueModStmt:
		collectAssignedStmt(s.Body, names)
	}
}

func collectHandlers(h Handlers, names map[string]struct{}) {
	for _, clause := range h.Rescues {
		collectAssigned(clause.Body, names)
	}
	collectAssigned(h.Else, names)
	collectAssigned(h.Ensure, names)
}

func collectAssignedExpr(expr Expression, names map[string]struct{}) {
	switch e := expr.(type) {
	case *CallExpr:
		if e.Block != nil {
			collectAssigned(e.Block.Body, names)
		}
	case Statement:
		collectAssignedStmt(e, names)
	}
}

func collectTarget(target Expression, names map[string]struct{}) {
	switch t := target.(type) {
	case *Identifier:
		names[t.Name] = struct{}{}
	case *IvarExpr:
		names[t.Name] = struct{}{}
	case *SplatExpr:
		collectTarget(t.Value, names)
	}
}
