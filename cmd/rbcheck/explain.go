package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mgomes/rbcheck/rbcheck"
)

func explainCommand(args []string) error {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		for _, code := range rbcheck.Codes() {
			exp, err := rbcheck.Explain(string(code))
			if err != nil {
				return err
			}
			fmt.Printf("%-24s %-8s %s\n", code, exp.Severity, exp.Phases[0])
		}
		return nil
	}

	for i, raw := range remaining {
		exp, err := rbcheck.Explain(raw)
		if err != nil {
			return fmt.Errorf("rbcheck explain: %w", err)
		}
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Print(exp.Describe())
	}
	return nil
}
