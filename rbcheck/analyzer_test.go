package rbcheck

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// codeLines renders diagnostics as CODE@line for compact comparisons.
func codeLines(diags []Diagnostic) []string {
	out := []string{}
	for _, d := range diags {
		out = append(out, fmt.Sprintf("%s@%d", d.Code, d.Pos().Line))
	}
	return out
}

func semanticOnly(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Phase == PhaseSemantic {
			out = append(out, d)
		}
	}
	return out
}

func TestAnalyzeSemanticDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "string plus integer literal",
			source: `mensaje = "edad: " + 20`,
			want:   []string{"INVALID_OPERAND_TYPE@1"},
		},
		{
			name:   "integer minus string",
			source: "total = 10\nresto = total - \"3\"\n",
			want:   []string{"INVALID_OPERAND_TYPE@2"},
		},
		{
			name:   "string repetition is allowed",
			source: "linea = \"-\" * 20\ntexto = \"a\" + \"b\"\n",
			want:   []string{},
		},
		{
			name:   "division of string by number",
			source: "x = \"10\" / 2\n",
			want:   []string{"INVALID_OPERAND_TYPE@1"},
		},
		{
			name:   "compound assignment",
			source: "x = 0\nx += \"a\"\n",
			want:   []string{"INVALID_OPERAND_TYPE@2"},
		},
		{
			name:   "conversion result kinds",
			source: "n = \"10\".to_i\nm = n + \"a\"\ns = n.to_s + \"b\"\n",
			want:   []string{"INVALID_OPERAND_TYPE@2"},
		},
		{
			name:   "interpolated strings are strings",
			source: "edad = 3\nx = \"a#{edad}\" + 1\n",
			want:   []string{"INVALID_OPERAND_TYPE@2"},
		},
		{
			name:   "unknown operands are not checked",
			source: "x = entrada + 1\ny = gets + \"a\"\n",
			want:   []string{},
		},
		{
			name:   "branches that disagree make the variable unknown",
			source: "x = 1\nif cond\n  x = \"s\"\nend\ny = x + 1\n",
			want:   []string{},
		},
		{
			name:   "branches that agree on the kind keep it",
			source: "if cond\n  x = \"t\"\nelse\n  x = \"u\"\nend\ny = x + 1\n",
			want:   []string{"INVALID_OPERAND_TYPE@6"},
		},
		{
			name:   "loop bodies see widened variables",
			source: "x = 0\nwhile x < 3\n  x += 1\nend\ny = x + \"a\"\n",
			want:   []string{},
		},
		{
			name:   "method bodies do not see outer locals",
			source: "x = \"a\"\ndef f\n  x + 1\nend\n",
			want:   []string{},
		},
		{
			name:   "blocks see outer locals",
			source: "x = \"a\"\n[1].each { y = x + 1 }\n",
			want:   []string{"INVALID_OPERAND_TYPE@2"},
		},
		{
			name:   "unsafe casts",
			source: "a = \"12abc\".to_i\nb = \" 42 \".to_i\nc = \"1_000\".to_i\nd = \"3.14\".to_f\ne = \"3.14px\".to_f\nv = \"Juan\"\nw = v.to_i\n",
			want:   []string{"UNSAFE_CAST@1", "UNSAFE_CAST@5", "UNSAFE_CAST@7"},
		},
		{
			name:   "cast of unknown value",
			source: "def f(x)\n  x.to_i\nend\n",
			want:   []string{},
		},
		{
			name:   "break and next outside loops",
			source: "break\ndef f\n  next\nend\n",
			want:   []string{"ILLEGAL_CONTROL_KEYWORD@1", "ILLEGAL_CONTROL_KEYWORD@3"},
		},
		{
			name:   "break inside loops and blocks",
			source: "while true\n  break\nend\nloop do\n  next\nend\n[1].each { |i| redo }\nfor i in 1..3\n  next if i == 2\nend\n",
			want:   []string{},
		},
		{
			name:   "break in a method inside a loop",
			source: "while true\n  def f\n    break\n  end\nend\n",
			want:   []string{"ILLEGAL_CONTROL_KEYWORD@3"},
		},
		{
			name:   "break in a rescue clause inside a loop",
			source: "while true\n  begin\n    trabajo\n  rescue\n    break\n  end\nend\n",
			want:   []string{},
		},
		{
			name:   "retry placement",
			source: "begin\n  x\nrescue\n  retry\nend\nretry\nbegin\n  x\nrescue\n  [1].each { retry }\nend\n",
			want:   []string{"ILLEGAL_CONTROL_KEYWORD@6", "ILLEGAL_CONTROL_KEYWORD@10"},
		},
		{
			name:   "yield and super placement",
			source: "yield\ndef f\n  yield\n  super\nend\nclass A\n  super\nend\n",
			want:   []string{"ILLEGAL_CONTROL_KEYWORD@1", "ILLEGAL_CONTROL_KEYWORD@7"},
		},
		{
			name:   "return in class body",
			source: "class A\n  return\nend\ndef g\n  return 1\nend\n",
			want:   []string{"ILLEGAL_CONTROL_KEYWORD@2"},
		},
		{
			name:   "control keywords inside defined? are not checked",
			source: "x = defined?(yield)\n",
			want:   []string{},
		},
		{
			name:   "constant redefinition",
			source: "LIMITE = 1\nLIMITE = 2\nLIMITE = 3\n",
			want:   []string{"CONSTANT_REDEFINITION@2", "CONSTANT_REDEFINITION@3"},
		},
		{
			name:   "constant in enclosing scope",
			source: "A = 1\nmodule M\n  A = 2\nend\n",
			want:   []string{"CONSTANT_REDEFINITION@3"},
		},
		{
			name:   "class reopening is not a redefinition",
			source: "class Foo\nend\nclass Foo\nend\n",
			want:   []string{},
		},
		{
			name:   "constant over a class",
			source: "class Foo\nend\nFoo = 1\n",
			want:   []string{"CONSTANT_REDEFINITION@3"},
		},
		{
			name:   "conditional constant assignment",
			source: "A = 1\nA ||= 2\n",
			want:   []string{},
		},
		{
			name:   "redefined constant keeps the new value",
			source: "A = \"x\"\nA = 1\nB = A + 2\n",
			want:   []string{"CONSTANT_REDEFINITION@2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := AnalyzeSource("test.rb", tt.source)
			for _, d := range diags {
				if d.Phase != PhaseSemantic {
					t.Fatalf("unexpected %s diagnostic: %v", d.Phase, d)
				}
			}
			if got := codeLines(diags); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("diagnostics mismatch\n got: %v\nwant: %v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeSeverities(t *testing.T) {
	diags := AnalyzeSource("test.rb", "A = 1\nA = 2\nx = \"a\" + 1\ny = \"b\".to_i\nbreak\n")
	want := map[Code]Severity{
		CodeConstantRedefinition:  SeverityWarning,
		CodeInvalidOperandType:    SeverityError,
		CodeUnsafeCast:            SeverityWarning,
		CodeIllegalControlKeyword: SeverityError,
	}
	if len(diags) != len(want) {
		t.Fatalf("expected %d diagnostics, got %v", len(want), diags)
	}
	for _, d := range diags {
		if d.Severity != want[d.Code] {
			t.Fatalf("expected %s to be %s, got %s", d.Code, want[d.Code], d.Severity)
		}
	}
}

func TestAnalyzeMessages(t *testing.T) {
	diags := AnalyzeSource("test.rb", "LIMITE = 1\nLIMITE = 2\nx = \"a\" - 1\nbreak\n")
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %v", diags)
	}
	wants := []string{
		"constant LIMITE is already defined (previous constant at line 1)",
		"invalid operand types for '-': String and Integer",
		"'break' used outside of a loop or block",
	}
	for i, want := range wants {
		if diags[i].Message != want {
			t.Fatalf("diagnostic %d: expected %q, got %q", i, want, diags[i].Message)
		}
	}
}

func TestAnalyzePreservesUpstreamDiagnostics(t *testing.T) {
	upstream := []Diagnostic{{Severity: SeverityError, Code: CodeUnexpectedToken, Phase: PhaseSyntax, Message: "x"}}
	tokens, _ := Tokenize("break\n")
	program, _ := Parse(tokens)
	diags := Analyze(program, upstream)
	if len(diags) != 2 || diags[0] != upstream[0] {
		t.Fatalf("expected upstream diagnostic first, got %v", diags)
	}
	if diags[1].Code != CodeIllegalControlKeyword {
		t.Fatalf("expected illegal control keyword, got %v", diags[1])
	}
}

func TestAnalyzeNilProgram(t *testing.T) {
	if diags := Analyze(nil, nil); len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestAnalyzeSkipsErroneousExpressions(t *testing.T) {
	diags := AnalyzeSource("test.rb", "x = \"a\" + * 2\ny = x + 1\n")
	for _, d := range semanticOnly(diags) {
		t.Fatalf("expected no semantic cascade, got %v", d)
	}
	if len(diags) == 0 || !strings.Contains(diags[0].Message, "'*'") {
		t.Fatalf("expected syntax error at '*', got %v", diags)
	}
}
