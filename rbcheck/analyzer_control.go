package rbcheck

// controlContext is an entry of the stack of constructs that decide where
// control keywords are legal.
type controlContext uint8

const (
	ctxTop controlContext = iota
	ctxMethod
	ctxClass
	ctxLoop
	ctxBlock
	ctxRescue
)

func (c controlContext) String() string {
	switch c {
	case ctxTop:
		return "top level"
	case ctxMethod:
		return "method"
	case ctxClass:
		return "class body"
	case ctxLoop:
		return "loop"
	case ctxBlock:
		return "block"
	case ctxRescue:
		return "rescue clause"
	default:
		return "unknown"
	}
}

func (a *analyzer) pushContext(c controlContext) {
	a.contexts = append(a.contexts, c)
}

func (a *analyzer) popContext() {
	if len(a.contexts) > 1 {
		a.contexts = a.contexts[:len(a.contexts)-1]
	}
}

// innermost walks the context stack outwards and returns the first context
// for which stop is true.
func (a *analyzer) innermost(stop func(controlContext) bool) controlContext {
	for i := len(a.contexts) - 1; i >= 0; i-- {
		if stop(a.contexts[i]) {
			return a.contexts[i]
		}
	}
	return ctxTop
}

// checkControl validates a control keyword against the enclosing contexts.
func (a *analyzer) checkControl(keyword TokenType, span Span) {
	if a.inDefined > 0 {
		return
	}
	switch keyword {
	case tokenBreak, tokenNext, tokenRedo:
		found := a.innermost(func(c controlContext) bool {
			return c != ctxRescue
		})
		if found != ctxLoop && found != ctxBlock {
			a.illegalControl(keyword, span, "outside of a loop or block")
		}
	case tokenRetry:
		found := a.innermost(func(c controlContext) bool {
			return c != ctxLoop
		})
		if found != ctxRescue {
			a.illegalControl(keyword, span, "outside of a rescue clause")
		}
	case tokenYield, tokenSuper:
		found := a.innermost(func(c controlContext) bool {
			return c == ctxMethod || c == ctxBlock || c == ctxClass || c == ctxTop
		})
		if found != ctxMethod && found != ctxBlock {
			a.illegalControl(keyword, span, "outside of a method")
		}
	case tokenReturn:
		found := a.innermost(func(c controlContext) bool {
			return c == ctxMethod || c == ctxBlock || c == ctxClass || c == ctxTop
		})
		if found == ctxClass {
			a.illegalControl(keyword, span, "directly inside a class body")
		}
	}
}

func (a *analyzer) illegalControl(keyword TokenType, span Span, where string) {
	a.diags.errorf(PhaseSemantic, CodeIllegalControlKeyword, span,
		"'%s' used %s", keywordSpelling(keyword), where)
}
