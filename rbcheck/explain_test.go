package rbcheck

import (
	"strings"
	"testing"
)

func TestExplainEveryCode(t *testing.T) {
	for _, code := range Codes() {
		exp, err := Explain(string(code))
		if err != nil {
			t.Fatalf("explain %s: %v", code, err)
		}
		if exp.Code != code || exp.Summary == "" || len(exp.Phases) == 0 {
			t.Fatalf("incomplete explanation for %s: %+v", code, exp)
		}
	}
}

func TestExplainNormalizesInput(t *testing.T) {
	exp, err := Explain(" unsafe-cast ")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if exp.Code != CodeUnsafeCast || exp.Severity != SeverityWarning {
		t.Fatalf("unexpected explanation %+v", exp)
	}
	text := exp.Describe()
	if !strings.HasPrefix(text, "UNSAFE_CAST (semantic, warning)\n\n") {
		t.Fatalf("unexpected description header %q", text)
	}
	if !strings.Contains(text, "Example:\n    \"12abc\".to_i\n") {
		t.Fatalf("expected indented example in %q", text)
	}
}

func TestExplainUnknownCode(t *testing.T) {
	_, err := Explain("unsafe")
	if err == nil || !strings.Contains(err.Error(), "did you mean UNSAFE_CAST?") {
		t.Fatalf("expected suggestion, got %v", err)
	}
	_, err = Explain("zzz")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("expected plain unknown code error, got %v", err)
	}
}

func TestSuggestCode(t *testing.T) {
	tests := []struct {
		input string
		want  Code
		ok    bool
	}{
		{input: "unsafe", want: CodeUnsafeCast, ok: true},
		{input: "unsaef_cast", want: CodeUnsafeCast, ok: true},
		{input: "redefinition", want: CodeConstantRedefinition, ok: true},
		{input: "", ok: false},
		{input: "qqqq", ok: false},
	}
	for _, tt := range tests {
		got, ok := SuggestCode(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("SuggestCode(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
