package rbcheck

import (
	"fmt"
	"slices"
	"strings"
)

// AnalyzeSource runs the lexer, parser and semantic analyzer over source and
// returns every diagnostic in source order. file only identifies the input
// for callers rendering the result; it does not affect analysis.
func AnalyzeSource(file, source string) []Diagnostic {
	tokens, lexDiags := Tokenize(source)
	program, parseDiags := Parse(tokens)
	diags := Analyze(program, append(lexDiags, parseDiags...))
	SortDiagnostics(diags)
	return diags
}

// Config controls which diagnostics a Checker reports and how.
type Config struct {
	// Disabled codes are dropped from reports.
	Disabled []Code
	// Severity overrides the default severity of a code.
	Severity map[Code]Severity
	// MaxPerFile caps the diagnostics kept per file. Zero keeps all.
	MaxPerFile int
	// Extensions selects the files a directory walk picks up.
	Extensions []string
}

// Checker applies a Config to the diagnostics of AnalyzeSource.
type Checker struct {
	config   Config
	disabled map[Code]bool
}

// NewChecker validates cfg, fills in defaults and returns a Checker.
func NewChecker(cfg Config) (*Checker, error) {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".rb"}
	}

	var errs ConfigError
	if cfg.MaxPerFile < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_per_file must not be negative (got %d)", cfg.MaxPerFile))
	}
	disabled := make(map[Code]bool, len(cfg.Disabled))
	for _, code := range cfg.Disabled {
		if !code.Known() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("disable: unknown code %q", code))
			continue
		}
		disabled[code] = true
	}
	for code, severity := range cfg.Severity {
		if !code.Known() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("severity: unknown code %q", code))
		}
		if severity != SeverityError && severity != SeverityWarning {
			errs.Issues = append(errs.Issues, fmt.Sprintf("severity.%s: must be %q or %q (got %q)", code, SeverityError, SeverityWarning, severity))
		}
	}
	extensions := make([]string, 0, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			errs.Issues = append(errs.Issues, "extensions must not contain empty entries")
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions = append(extensions, strings.ToLower(ext))
	}
	cfg.Extensions = extensions
	if len(errs.Issues) > 0 {
		return nil, &errs
	}

	return &Checker{config: cfg, disabled: disabled}, nil
}

// MustNewChecker is NewChecker for configurations known to be valid.
func MustNewChecker(cfg Config) *Checker {
	checker, err := NewChecker(cfg)
	if err != nil {
		panic(err)
	}
	return checker
}

// Config returns the effective configuration, defaults included.
func (c *Checker) Config() Config {
	cfg := c.config
	cfg.Disabled = slices.Clone(cfg.Disabled)
	cfg.Extensions = slices.Clone(cfg.Extensions)
	return cfg
}

// Accepts reports whether path has one of the configured extensions.
func (c *Checker) Accepts(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range c.config.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Check analyzes source and applies the checker's configuration.
func (c *Checker) Check(file, source string) Report {
	report := Report{File: file}
	for _, d := range AnalyzeSource(file, source) {
		if c.disabled[d.Code] {
			continue
		}
		if severity, ok := c.config.Severity[d.Code]; ok {
			d.Severity = severity
		}
		report.count(d)
		if c.config.MaxPerFile > 0 && len(report.Diagnostics) >= c.config.MaxPerFile {
			report.Truncated++
			continue
		}
		report.Diagnostics = append(report.Diagnostics, d)
	}
	return report
}

// Report is the result of checking one file. The counters cover every
// enabled diagnostic, including those dropped by MaxPerFile: errors per
// phase plus warnings of any phase.
type Report struct {
	File        string
	Diagnostics []Diagnostic
	Lexical     int
	Syntax      int
	Semantic    int
	Warnings    int
	// Truncated counts diagnostics dropped by MaxPerFile.
	Truncated int
}

func (r *Report) count(d Diagnostic) {
	if !d.IsError() {
		r.Warnings++
		return
	}
	switch d.Phase {
	case PhaseLexical:
		r.Lexical++
	case PhaseSyntax:
		r.Syntax++
	case PhaseSemantic:
		r.Semantic++
	}
}

// Errors returns the number of error-severity diagnostics in the report.
func (r Report) Errors() int {
	return r.Lexical + r.Syntax + r.Semantic
}

// HasErrors reports whether any error-severity diagnostic remains.
func (r Report) HasErrors() bool {
	return r.Errors() > 0
}

// Summary renders the counters on one line.
func (r Report) Summary() string {
	return fmt.Sprintf("%d lexical, %d syntax, %d semantic errors, %d warnings",
		r.Lexical, r.Syntax, r.Semantic, r.Warnings)
}
