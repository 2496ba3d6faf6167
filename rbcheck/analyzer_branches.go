package rbcheck

// joinResults combines the values of all branches.
func joinResults(results []inferred) inferred {
	if len(results) == 0 {
		return unknown
	}
	result := results[0]
	for _, r := range results[1:] {
		result = join(result, r)
	}
	return result
}

func (a *analyzer) ifStmt(s *IfStmt) inferred {
	a.expr(s.Condition)
	start := a.snapshot()

	var (
		paths   []snapshot
		results []inferred
	)
	paths = append(paths, a.branch(start, func() {
		results = append(results, a.statements(s.Consequent))
	}))
	for _, clause := range s.ElseIf {
		paths = append(paths, a.branch(start, func() {
			a.expr(clause.Condition)
			results = append(results, a.statements(clause.Consequent))
		}))
	}
	if s.Alternate != nil {
		paths = append(paths, a.branch(start, func() {
			results = append(results, a.statements(s.Alternate))
		}))
	} else {
		paths = append(paths, start)
		results = append(results, kindOnly(kindNil))
	}

	a.merge(paths...)
	return joinResults(results)
}

func (a *analyzer) whileStmt(s *WhileStmt) inferred {
	before := a.snapshot()
	a.forgetAssigned(s.Body)
	a.expr(s.Condition)
	a.inContext(ctxLoop, func() {
		a.statements(s.Body)
	})
	a.merge(before, a.snapshot())
	return kindOnly(kindNil)
}

func (a *analyzer) forStmt(s *ForStmt) inferred {
	iterable := a.expr(s.Iterable)
	before := a.snapshot()
	a.forgetAssigned(s.Body)
	for _, target := range s.Targets {
		a.writeTarget(target, unknown)
	}
	a.inContext(ctxLoop, func() {
		a.statements(s.Body)
	})
	a.merge(before, a.snapshot())
	return iterable
}

func (a *analyzer) caseStmt(s *CaseStmt) inferred {
	a.expr(s.Subject)
	start := a.snapshot()

	var (
		paths   []snapshot
		results []inferred
	)
	for _, clause := range s.Clauses {
		paths = append(paths, a.branch(start, func() {
			for _, value := range clause.Values {
				a.expr(value)
			}
			results = append(results, a.statements(clause.Body))
		}))
	}
	if s.Else != nil {
		paths = append(paths, a.branch(start, func() {
			results = append(results, a.statements(s.Else))
		}))
	} else {
		paths = append(paths, start)
		results = append(results, kindOnly(kindNil))
	}

	a.merge(paths...)
	return joinResults(results)
}

func (a *analyzer) beginStmt(s *BeginStmt) inferred {
	return a.guarded(s.Body, s.Handlers)
}

// guarded analyzes a body protected by rescue, else and ensure clauses. A
// rescue clause may start after any statement of the body, so it sees the
// merge of the states before and after the body.
func (a *analyzer) guarded(body []Statement, h Handlers) inferred {
	before := a.snapshot()
	result := a.statements(body)
	if h.Else != nil {
		result = a.statements(h.Else)
	}

	if len(h.Rescues) > 0 {
		success := a.snapshot()
		a.merge(before, success)
		entry := a.snapshot()

		paths := []snapshot{success}
		results := []inferred{result}
		for _, clause := range h.Rescues {
			paths = append(paths, a.branch(entry, func() {
				results = append(results, a.rescueClause(clause))
			}))
		}
		a.merge(paths...)
		result = joinResults(results)
	}

	if h.Ensure != nil {
		a.statements(h.Ensure)
	}
	return result
}

func (a *analyzer) rescueClause(clause *RescueClause) inferred {
	for _, class := range clause.Classes {
		a.expr(class)
	}
	if clause.Var != nil {
		a.writeTarget(clause.Var, unknown)
	}
	var result inferred
	a.inContext(ctxRescue, func() {
		result = a.statements(clause.Body)
	})
	return result
}

func (a *analyzer) rescueMod(s *RescueModStmt) inferred {
	before := a.snapshot()
	result := a.statement(s.Body)
	success := a.snapshot()
	a.merge(before, success)
	entry := a.snapshot()

	var fallback inferred
	rescued := a.branch(entry, func() {
		a.inContext(ctxRescue, func() {
			fallback = a.expr(s.Fallback)
		})
	})
	a.merge(success, rescued)
	return joinResults([]inferred{result, fallback})
}
