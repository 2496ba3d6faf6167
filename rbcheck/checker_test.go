package rbcheck

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const checkerSource = "A = 1\nA = 2\nx = \"a\" + 1\ny = \"b\".to_i\n"

func TestAnalyzeSourceIsDeterministic(t *testing.T) {
	source := "def f\n  puts(\"x\"\nend\nbreak\nx = \"a\" + 1\n"
	first := AnalyzeSource("a.rb", source)
	second := AnalyzeSource("a.rb", source)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results\nfirst:  %v\nsecond: %v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if first[i].Pos().Before(first[i-1].Pos()) {
			t.Fatalf("diagnostics out of order: %v", first)
		}
	}
}

func TestCheckerDefaults(t *testing.T) {
	checker := MustNewChecker(Config{})
	report := checker.Check("a.rb", checkerSource)
	if got, want := codeLines(report.Diagnostics), []string{
		"CONSTANT_REDEFINITION@2", "INVALID_OPERAND_TYPE@3", "UNSAFE_CAST@4",
	}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if report.Semantic != 1 || report.Warnings != 2 || report.Errors() != 1 || !report.HasErrors() {
		t.Fatalf("unexpected counters: %+v", report)
	}
	if got, want := report.Summary(), "0 lexical, 0 syntax, 1 semantic errors, 2 warnings"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := checker.Config().Extensions; !reflect.DeepEqual(got, []string{".rb"}) {
		t.Fatalf("expected default extension, got %v", got)
	}
}

func TestCheckerDisabledAndSeverity(t *testing.T) {
	checker := MustNewChecker(Config{
		Disabled: []Code{CodeUnsafeCast},
		Severity: map[Code]Severity{
			CodeConstantRedefinition: SeverityError,
			CodeInvalidOperandType:   SeverityWarning,
		},
	})
	report := checker.Check("a.rb", checkerSource)
	if len(report.Diagnostics) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", report.Diagnostics)
	}
	if report.Diagnostics[0].Severity != SeverityError || report.Diagnostics[1].Severity != SeverityWarning {
		t.Fatalf("severity overrides not applied: %v", report.Diagnostics)
	}
	if report.Semantic != 1 || report.Warnings != 1 {
		t.Fatalf("unexpected counters: %+v", report)
	}
}

func TestCheckerMaxPerFile(t *testing.T) {
	checker := MustNewChecker(Config{MaxPerFile: 1})
	report := checker.Check("a.rb", checkerSource)
	if len(report.Diagnostics) != 1 || report.Truncated != 2 {
		t.Fatalf("expected 1 kept and 2 truncated, got %d and %d", len(report.Diagnostics), report.Truncated)
	}
	if !report.HasErrors() {
		t.Fatalf("expected truncated errors to still count")
	}
}

func TestCheckerCleanSource(t *testing.T) {
	report := MustNewChecker(Config{}).Check("a.rb", "x = 1\nputs x + 2\n")
	if len(report.Diagnostics) != 0 || report.HasErrors() {
		t.Fatalf("expected clean report, got %+v", report)
	}
}

func TestNewCheckerValidation(t *testing.T) {
	_, err := NewChecker(Config{
		Disabled:   []Code{"NOPE"},
		Severity:   map[Code]Severity{CodeUnsafeCast: "fatal"},
		MaxPerFile: -1,
		Extensions: []string{" "},
	})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(cfgErr.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %v", cfgErr.Issues)
	}
	if !strings.HasPrefix(err.Error(), "config validation failed:\n- ") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestMustNewCheckerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustNewChecker(Config{MaxPerFile: -1})
}

func TestCheckerAccepts(t *testing.T) {
	checker := MustNewChecker(Config{Extensions: []string{"rb", ".Rake"}})
	cases := map[string]bool{
		"lib/a.rb":    true,
		"A.RB":        true,
		"tasks.rake":  true,
		"notes.txt":   false,
		"rb":          false,
		"dir/file.go": false,
	}
	for path, want := range cases {
		if got := checker.Accepts(path); got != want {
			t.Fatalf("Accepts(%q) = %v, want %v", path, got, want)
		}
	}
}
