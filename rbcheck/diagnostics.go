package rbcheck

import (
	"fmt"
	"sort"
)

// Severity distinguishes invalid constructs from legal but risky ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code enumerates the kinds of defects the pipeline reports.
type Code string

const (
	CodeUnterminatedString    Code = "UNTERMINATED_STRING"
	CodeUnbalancedDelimiter   Code = "UNBALANCED_DELIMITER"
	CodeMissingTerminator     Code = "MISSING_TERMINATOR"
	CodeUnexpectedToken       Code = "UNEXPECTED_TOKEN"
	CodeInvalidOperandType    Code = "INVALID_OPERAND_TYPE"
	CodeUnsafeCast            Code = "UNSAFE_CAST"
	CodeIllegalControlKeyword Code = "ILLEGAL_CONTROL_KEYWORD"
	CodeConstantRedefinition  Code = "CONSTANT_REDEFINITION"
)

// Codes lists every diagnostic code in taxonomy order.
func Codes() []Code {
	return []Code{
		CodeUnterminatedString,
		CodeUnbalancedDelimiter,
		CodeMissingTerminator,
		CodeUnexpectedToken,
		CodeInvalidOperandType,
		CodeUnsafeCast,
		CodeIllegalControlKeyword,
		CodeConstantRedefinition,
	}
}

// Known reports whether c is one of the codes the pipeline emits.
func (c Code) Known() bool {
	for _, code := range Codes() {
		if code == c {
			return true
		}
	}
	return false
}

// Phase names the pipeline stage that produced a diagnostic.
type Phase string

const (
	PhaseLexical  Phase = "lexical"
	PhaseSyntax   Phase = "syntax"
	PhaseSemantic Phase = "semantic"
)

// Diagnostic describes a single defect found in a source file.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Phase    Phase
	Message  string
	Span     Span
}

// Pos returns the start of the diagnostic's span.
func (d Diagnostic) Pos() Position { return d.Span.Start }

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool { return d.Severity == SeverityError }

// Format renders the diagnostic as `<file>:<line>:<column>: <severity> [<code>] <message>`.
func (d Diagnostic) Format(file string) string {
	line := d.Span.Start.Line
	column := d.Span.Start.Column
	if line <= 0 {
		line = 1
	}
	if column <= 0 {
		column = 1
	}
	return fmt.Sprintf("%s:%d:%d: %s [%s] %s", file, line, column, d.Severity, d.Code, d.Message)
}

func (d Diagnostic) String() string {
	return d.Format("<input>")
}

// diagnosticSink is the append-only collection shared by the pipeline stages.
type diagnosticSink struct {
	items []Diagnostic
}

func newDiagnosticSink(upstream []Diagnostic) *diagnosticSink {
	return &diagnosticSink{items: append([]Diagnostic(nil), upstream...)}
}

func (s *diagnosticSink) add(d Diagnostic) {
	s.items = append(s.items, d)
}

func (s *diagnosticSink) errorf(phase Phase, code Code, span Span, format string, args ...any) {
	s.add(Diagnostic{Severity: SeverityError, Code: code, Phase: phase, Message: fmt.Sprintf(format, args...), Span: span})
}

func (s *diagnosticSink) warnf(phase Phase, code Code, span Span, format string, args ...any) {
	s.add(Diagnostic{Severity: SeverityWarning, Code: code, Phase: phase, Message: fmt.Sprintf(format, args...), Span: span})
}

func (s *diagnosticSink) len() int {
	return len(s.items)
}

// truncate drops everything emitted after mark. Only the lexer uses it, to
// discard diagnostics from a speculative scan it is about to redo.
func (s *diagnosticSink) truncate(mark int) {
	s.items = s.items[:mark]
}

func (s *diagnosticSink) list() []Diagnostic {
	return append([]Diagnostic(nil), s.items...)
}

// SortDiagnostics orders diagnostics by source position, keeping emission
// order for diagnostics that start at the same place.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Span.Start.Before(diags[j].Span.Start)
	})
}

// CountErrors returns how many diagnostics have error severity.
func CountErrors(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.IsError() {
			n++
		}
	}
	return n
}
