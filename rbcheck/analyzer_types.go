package rbcheck

// valueKind is the inferred class of a value. kindUnknown disables every
// check that would depend on it.
type valueKind uint8

const (
	kindUnknown valueKind = iota
	kindNil
	kindBool
	kindInteger
	kindFloat
	kindRational
	kindComplex
	kindString
	kindSymbol
	kindArray
	kindHash
	kindRange
	kindRegexp
	kindProc
)

func (k valueKind) String() string {
	switch k {
	case kindNil:
		return "NilClass"
	case kindBool:
		return "Boolean"
	case kindInteger:
		return "Integer"
	case kindFloat:
		return "Float"
	case kindRational:
		return "Rational"
	case kindComplex:
		return "Complex"
	case kindString:
		return "String"
	case kindSymbol:
		return "Symbol"
	case kindArray:
		return "Array"
	case kindHash:
		return "Hash"
	case kindRange:
		return "Range"
	case kindRegexp:
		return "Regexp"
	case kindProc:
		return "Proc"
	default:
		return "unknown"
	}
}

func (k valueKind) numeric() bool {
	return k == kindInteger || k == kindFloat || k == kindRational || k == kindComplex
}

// inferred is what the analyzer knows about a value. literal is set when the
// value came straight from a plain string literal, whose text is kept for
// cast checks.
type inferred struct {
	kind    valueKind
	text    string
	literal bool
}

var unknown = inferred{}

func kindOnly(k valueKind) inferred {
	return inferred{kind: k}
}

func stringLiteral(text string) inferred {
	return inferred{kind: kindString, text: text, literal: true}
}

// join combines the states of two paths: identical states survive, states of
// the same kind keep only the kind.
func join(a, b inferred) inferred {
	switch {
	case a == b:
		return a
	case a.kind == b.kind:
		return kindOnly(a.kind)
	}
	return unknown
}

// widerNumeric returns the kind of an arithmetic result between two numeric
// kinds.
func widerNumeric(a, b valueKind) valueKind {
	rank := func(k valueKind) int {
		switch k {
		case kindInteger:
			return 0
		case kindRational:
			return 1
		case kindFloat:
			return 2
		case kindComplex:
			return 3
		}
		return -1
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// conversionKinds maps conversion methods to the kind they return.
var conversionKinds = map[string]valueKind{
	"to_i":   kindInteger,
	"to_f":   kindFloat,
	"to_s":   kindString,
	"to_r":   kindRational,
	"to_c":   kindComplex,
	"to_sym": kindSymbol,
}

// checkOperands reports String/numeric mixes for the arithmetic operators
// and returns the kind of the result.
func (a *analyzer) checkOperands(op TokenType, left, right inferred, span Span) inferred {
	l, r := left.kind, right.kind
	switch op {
	case tokenEQ, tokenEQQ, tokenNotEQ, tokenLT, tokenLTE, tokenGT, tokenGTE, tokenNotMatch:
		return kindOnly(kindBool)
	}
	if l == kindUnknown || r == kindUnknown {
		return unknown
	}

	switch op {
	case tokenPlus, tokenMinus, tokenAsterisk, tokenSlash:
		invalid := false
		switch {
		case l == kindString && r.numeric():
			invalid = op != tokenAsterisk
		case l.numeric() && r == kindString:
			invalid = true
		}
		if invalid {
			a.diags.errorf(PhaseSemantic, CodeInvalidOperandType, span,
				"invalid operand types for '%s': %s and %s", op, l, r)
			return unknown
		}
		switch {
		case l.numeric() && r.numeric():
			return kindOnly(widerNumeric(l, r))
		case l == kindString && (r == kindString || r == kindInteger):
			return kindOnly(kindString)
		case l == kindArray && r == kindArray:
			return kindOnly(kindArray)
		}
		return unknown
	case tokenPercent, tokenPow:
		if l.numeric() && r.numeric() {
			return kindOnly(widerNumeric(l, r))
		}
		if op == tokenPercent && l == kindString {
			return kindOnly(kindString)
		}
		return unknown
	case tokenCmp:
		return kindOnly(kindInteger)
	case tokenShiftLeft:
		if l == kindString || l == kindArray {
			return kindOnly(l)
		}
		if l == kindInteger && r == kindInteger {
			return kindOnly(kindInteger)
		}
	case tokenShiftRight, tokenAmp, tokenPipe, tokenCaret:
		if l == kindInteger && r == kindInteger {
			return kindOnly(kindInteger)
		}
	case tokenAnd, tokenOr, tokenKwAnd, tokenKwOr:
		if l == r {
			return kindOnly(l)
		}
	}
	return unknown
}
