package rbcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Explanation documents one diagnostic code.
type Explanation struct {
	Code     Code
	Phases   []Phase
	Severity Severity
	Summary  string
	Example  string
}

var explanations = map[Code]Explanation{
	CodeUnterminatedString: {
		Phases:   []Phase{PhaseLexical},
		Severity: SeverityError,
		Summary:  "A string, heredoc or =begin comment is opened but never closed. Quoted strings are cut at the end of their line so the rest of the file still lexes.",
		Example:  "name = \"Ruby\nputs name",
	},
	CodeUnbalancedDelimiter: {
		Phases:   []Phase{PhaseLexical, PhaseSyntax},
		Severity: SeverityError,
		Summary:  "A parenthesis, bracket or brace has no partner, or a percent literal is missing its closing delimiter.",
		Example:  "puts(suma(1, 2)\nvalues = [1, 2",
	},
	CodeMissingTerminator: {
		Phases:   []Phase{PhaseSyntax},
		Severity: SeverityError,
		Summary:  "A block opened by if, unless, while, until, for, case, begin, def, class, module or do lacks its `end`. The block is closed at the end of input or at the first statement indented no deeper than its opening line.",
		Example:  "def saludar\n  puts \"hola\"\n\nsaludar",
	},
	CodeUnexpectedToken: {
		Phases:   []Phase{PhaseLexical, PhaseSyntax},
		Severity: SeverityError,
		Summary:  "A token cannot appear where it was found. The parser reports it once, skips to the next statement and continues.",
		Example:  "total = 10 + * 5\nwhile do\nend",
	},
	CodeInvalidOperandType: {
		Phases:   []Phase{PhaseSemantic},
		Severity: SeverityError,
		Summary:  "An arithmetic operator (+ - * /) mixes a String with a numeric value. String * Integer is repetition and is allowed.",
		Example:  "edad = 20\nmensaje = \"edad: \" + edad",
	},
	CodeUnsafeCast: {
		Phases:   []Phase{PhaseSemantic},
		Severity: SeverityWarning,
		Summary:  "to_i or to_f is applied to a string literal that is not a clean number, so the conversion silently drops text or returns zero.",
		Example:  "\"12abc\".to_i",
	},
	CodeIllegalControlKeyword: {
		Phases:   []Phase{PhaseSemantic},
		Severity: SeverityError,
		Summary:  "break, next and redo need an enclosing loop or block; retry needs a rescue clause; yield and super need a method; return cannot appear directly in a class or module body.",
		Example:  "def buscar\n  break\nend",
	},
	CodeConstantRedefinition: {
		Phases:   []Phase{PhaseSemantic},
		Severity: SeverityWarning,
		Summary:  "A constant that is already defined in this or an enclosing scope is assigned again. The new value replaces the old binding.",
		Example:  "LIMITE = 10\nLIMITE = 20",
	},
}

// Explain returns the documentation of a diagnostic code. The lookup is case
// insensitive and accepts dashes for underscores. Unknown codes produce an
// error naming the closest known code.
func Explain(raw string) (Explanation, error) {
	code := normalizeCode(raw)
	if exp, ok := explanations[code]; ok {
		exp.Code = code
		return exp, nil
	}
	if suggestion, ok := SuggestCode(raw); ok {
		return Explanation{}, fmt.Errorf("unknown diagnostic code %q (did you mean %s?)", raw, suggestion)
	}
	return Explanation{}, fmt.Errorf("unknown diagnostic code %q", raw)
}

// SuggestCode returns the known code closest to raw. Codes containing raw as
// a fuzzy subsequence win; otherwise the code with the smallest edit distance
// is chosen when it is reasonably close.
func SuggestCode(raw string) (Code, bool) {
	query := string(normalizeCode(raw))
	if query == "" {
		return "", false
	}
	candidates := make([]string, 0, len(explanations))
	for _, code := range Codes() {
		candidates = append(candidates, string(code))
	}

	ranks := fuzzy.RankFindFold(query, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return Code(ranks[0].Target), true
	}

	best, bestDistance := "", -1
	for _, candidate := range candidates {
		distance := fuzzy.LevenshteinDistance(query, candidate)
		if bestDistance < 0 || distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	if bestDistance > len(best)/2 {
		return "", false
	}
	return Code(best), true
}

// Describe renders an explanation for terminal output.
func (e Explanation) Describe() string {
	var b strings.Builder
	phases := make([]string, len(e.Phases))
	for i, phase := range e.Phases {
		phases[i] = string(phase)
	}
	fmt.Fprintf(&b, "%s (%s, %s)\n\n", e.Code, strings.Join(phases, "/"), e.Severity)
	b.WriteString(e.Summary)
	b.WriteString("\n")
	if e.Example != "" {
		b.WriteString("\nExample:\n")
		for _, line := range strings.Split(e.Example, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
