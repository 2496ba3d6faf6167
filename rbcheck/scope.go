package rbcheck

// symbolKind says how a name was declared.
type symbolKind uint8

const (
	symbolLocal symbolKind = iota
	symbolConstant
	symbolMethod
	symbolModule
	symbolIvar
	symbolClassVar
	symbolGlobal
)

func (k symbolKind) String() string {
	switch k {
	case symbolLocal:
		return "local variable"
	case symbolConstant:
		return "constant"
	case symbolMethod:
		return "method"
	case symbolModule:
		return "class or module"
	case symbolIvar:
		return "instance variable"
	case symbolClassVar:
		return "class variable"
	case symbolGlobal:
		return "global variable"
	default:
		return "symbol"
	}
}

type symbol struct {
	name     string
	kind     symbolKind
	state    inferred
	declared Position
}

// scopeKind enumerates scope categories. Method, class and top scopes are
// hard: locals of enclosing scopes are not visible through them.
type scopeKind uint8

const (
	scopeTop scopeKind = iota
	scopeMethod
	scopeClass
	scopeBlock
)

type scope struct {
	kind    scopeKind
	parent  *scope
	symbols map[string]*symbol
}

func newScope(kind scopeKind, parent *scope) *scope {
	return &scope{kind: kind, parent: parent, symbols: make(map[string]*symbol)}
}

func (s *scope) hard() bool {
	return s.kind != scopeBlock
}

func (s *scope) define(sym *symbol) *symbol {
	s.symbols[sym.name] = sym
	return sym
}

// lookupLocal finds a local variable visible from s.
func (s *scope) lookupLocal(name string) (*symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok && sym.kind == symbolLocal {
			return sym, true
		}
		if cur.hard() {
			break
		}
	}
	return nil, false
}

// lookupConstant finds a constant, class or module in s or any lexically
// enclosing scope.
func (s *scope) lookupConstant(name string) (*symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok && (sym.kind == symbolConstant || sym.kind == symbolModule) {
			return sym, true
		}
	}
	return nil, false
}

// owner returns the nearest hard scope, which holds instance and class
// variables.
func (s *scope) owner() *scope {
	cur := s
	for !cur.hard() && cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (s *scope) root() *scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// visible calls fn for every symbol whose state can be read from s.
func (s *scope) visible(fn func(*symbol)) {
	for cur := s; cur != nil; cur = cur.parent {
		for _, sym := range cur.symbols {
			fn(sym)
		}
	}
}
