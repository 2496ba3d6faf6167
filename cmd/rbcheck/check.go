package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/mgomes/rbcheck/rbcheck"
)

var (
	reportErrorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	reportWarningStyle = lipgloss.NewStyle().Foreground(highlightColor)
	reportPathStyle    = lipgloss.NewStyle().Bold(true)
	reportSummaryStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

type checkOptions struct {
	format string
	frames bool
	color  bool
}

// fileResult pairs a report with the source it was computed from, so code
// frames can be rendered without rereading the file.
type fileResult struct {
	report rbcheck.Report
	source string
}

func checkCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	format := fs.String("format", "text", "output format: text or json")
	configPath := fs.String("config", "", "configuration file")
	jobs := fs.Int("j", runtime.NumCPU(), "files checked in parallel")
	changed := fs.Bool("changed", false, "only check files modified in the git worktree")
	frames := fs.Bool("frames", false, "show the source line under each diagnostic")
	color := fs.Bool("color", false, "colorize text output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("rbcheck check: unknown format %q", *format)
	}

	targets := fs.Args()
	if len(targets) == 0 {
		if !*changed {
			return errors.New("rbcheck check: path required")
		}
		targets = []string{"."}
	}

	checker, err := loadChecker(*configPath, targets[0])
	if err != nil {
		return err
	}

	var files []string
	if *changed {
		files, err = changedFiles(targets, checker)
	} else {
		files, err = collectSourceFiles(targets, checker)
	}
	if err != nil {
		return err
	}

	results, err := checkFiles(context.Background(), checker, files, *jobs)
	if err != nil {
		return err
	}

	opts := checkOptions{format: *format, frames: *frames, color: *color}
	total, err := writeResults(os.Stdout, results, opts)
	if err != nil {
		return err
	}
	if total.HasErrors() {
		return fmt.Errorf("rbcheck check: %d error(s) found", total.Errors())
	}
	return nil
}

// loadChecker builds a checker from an explicit config file, or from the
// nearest .rbcheck.yml above target when none is given.
func loadChecker(configPath, target string) (*rbcheck.Checker, error) {
	if configPath == "" {
		dir := target
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			dir = filepath.Dir(target)
		}
		found, err := rbcheck.FindConfig(dir)
		if err != nil {
			return nil, err
		}
		configPath = found
	}
	if configPath == "" {
		return rbcheck.MustNewChecker(rbcheck.Config{}), nil
	}
	cfg, err := rbcheck.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return rbcheck.NewChecker(cfg)
}

// checkFiles analyzes files with at most jobs pipelines running at once.
// Results keep the order of files.
func checkFiles(ctx context.Context, checker *rbcheck.Checker, files []string, jobs int) ([]fileResult, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]fileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			source := string(data)
			results[i] = fileResult{report: checker.Check(path, source), source: source}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeResults renders results in the requested format and returns the
// aggregated counters.
func writeResults(w io.Writer, results []fileResult, opts checkOptions) (rbcheck.Report, error) {
	var total rbcheck.Report
	for _, result := range results {
		total.Lexical += result.report.Lexical
		total.Syntax += result.report.Syntax
		total.Semantic += result.report.Semantic
		total.Warnings += result.report.Warnings
		total.Truncated += result.report.Truncated
	}

	if opts.format == "json" {
		return total, writeJSON(w, results, total)
	}
	writeText(w, results, total, opts)
	return total, nil
}

func writeText(w io.Writer, results []fileResult, total rbcheck.Report, opts checkOptions) {
	render := func(style lipgloss.Style, text string) string {
		if !opts.color {
			return text
		}
		return style.Render(text)
	}

	for _, result := range results {
		name := displayPath(result.report.File)
		for _, d := range result.report.Diagnostics {
			line := d.Format(name)
			if d.IsError() {
				fmt.Fprintln(w, render(reportErrorStyle, line))
			} else {
				fmt.Fprintln(w, render(reportWarningStyle, line))
			}
			if opts.frames {
				if frame := rbcheck.CodeFrame(result.source, d); frame != "" {
					fmt.Fprintln(w, frame)
				}
			}
		}
		if result.report.Truncated > 0 {
			fmt.Fprintln(w, render(reportPathStyle, fmt.Sprintf("%s: %d more diagnostic(s) not shown", name, result.report.Truncated)))
		}
	}

	fmt.Fprintln(w, render(reportSummaryStyle, fmt.Sprintf("%d file(s) checked: %s", len(results), total.Summary())))
}

type jsonPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonDiagnostic struct {
	File     string       `json:"file"`
	Start    jsonPosition `json:"start"`
	End      jsonPosition `json:"end"`
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Phase    string       `json:"phase"`
	Message  string       `json:"message"`
}

type jsonSummary struct {
	Files     int `json:"files"`
	Lexical   int `json:"lexical"`
	Syntax    int `json:"syntax"`
	Semantic  int `json:"semantic"`
	Warnings  int `json:"warnings"`
	Truncated int `json:"truncated"`
}

type jsonOutput struct {
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
	Summary     jsonSummary      `json:"summary"`
}

func writeJSON(w io.Writer, results []fileResult, total rbcheck.Report) error {
	out := jsonOutput{
		Diagnostics: make([]jsonDiagnostic, 0),
		Summary: jsonSummary{
			Files:     len(results),
			Lexical:   total.Lexical,
			Syntax:    total.Syntax,
			Semantic:  total.Semantic,
			Warnings:  total.Warnings,
			Truncated: total.Truncated,
		},
	}
	for _, result := range results {
		name := displayPath(result.report.File)
		for _, d := range result.report.Diagnostics {
			out.Diagnostics = append(out.Diagnostics, jsonDiagnostic{
				File:     name,
				Start:    jsonPosition{Line: d.Span.Start.Line, Column: d.Span.Start.Column},
				End:      jsonPosition{Line: d.Span.End.Line, Column: d.Span.End.Column},
				Severity: string(d.Severity),
				Code:     string(d.Code),
				Phase:    string(d.Phase),
				Message:  d.Message,
			})
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
