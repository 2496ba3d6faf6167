package rbcheck

import (
	"reflect"
	"testing"
)

func spanAt(line, column int) Span {
	return Span{Start: Position{Line: line, Column: column}, End: Position{Line: line, Column: column + 1}}
}

func TestDiagnosticFormat(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeUnsafeCast,
		Phase:    PhaseSemantic,
		Message:  "unsafe cast",
		Span:     spanAt(3, 9),
	}
	if got, want := d.Format("main.rb"), "main.rb:3:9: warning [UNSAFE_CAST] unsafe cast"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	var zero Diagnostic
	zero.Severity = SeverityError
	zero.Code = CodeUnexpectedToken
	if got, want := zero.Format("x.rb"), "x.rb:1:1: error [UNEXPECTED_TOKEN] "; got != want {
		t.Fatalf("expected positions clamped to 1, got %q", got)
	}
}

func TestSortDiagnosticsIsStable(t *testing.T) {
	diags := []Diagnostic{
		{Message: "c", Span: spanAt(4, 1)},
		{Message: "a", Span: spanAt(2, 5)},
		{Message: "b1", Span: spanAt(2, 7)},
		{Message: "b2", Span: spanAt(2, 7)},
		{Message: "first", Span: spanAt(1, 10)},
	}
	SortDiagnostics(diags)
	var got []string
	for _, d := range diags {
		got = append(got, d.Message)
	}
	want := []string{"first", "a", "b1", "b2", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCountErrors(t *testing.T) {
	diags := []Diagnostic{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityError},
	}
	if got := CountErrors(diags); got != 2 {
		t.Fatalf("expected 2 errors, got %d", got)
	}
	if got := CountErrors(nil); got != 0 {
		t.Fatalf("expected 0 errors, got %d", got)
	}
}

func TestCodesAreKnown(t *testing.T) {
	for _, code := range Codes() {
		if !code.Known() {
			t.Fatalf("expected %s to be known", code)
		}
	}
	if Code("NOT_A_CODE").Known() {
		t.Fatalf("expected unknown code")
	}
}
