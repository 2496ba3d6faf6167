package rbcheck

import "regexp"

var (
	cleanInteger = regexp.MustCompile(`^\s*[+-]?\d+(_\d+)*\s*$`)
	cleanFloat   = regexp.MustCompile(`^\s*[+-]?\d+(_\d+)*(\.\d+(_\d+)*)?([eE][+-]?\d+)?\s*$`)
)

// checkCast warns when to_i or to_f is applied to a string literal that is
// not a clean number. The conversion would silently drop the rest of the
// text, or return zero.
func (a *analyzer) checkCast(method string, receiver inferred, span Span) {
	if !receiver.literal {
		return
	}
	var (
		pattern *regexp.Regexp
		want    string
	)
	switch method {
	case "to_i":
		pattern, want = cleanInteger, "integer"
	case "to_f":
		pattern, want = cleanFloat, "float"
	default:
		return
	}
	if pattern.MatchString(receiver.text) {
		return
	}
	a.diags.warnf(PhaseSemantic, CodeUnsafeCast, span,
		"unsafe cast: %q.%s is not a clean %s literal", receiver.text, method, want)
}
