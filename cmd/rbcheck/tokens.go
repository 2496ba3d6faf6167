package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mgomes/rbcheck/rbcheck"
)

func tokensCommand(args []string) error {
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("rbcheck tokens: file path required")
	}

	input, err := os.ReadFile(remaining[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", remaining[0], err)
	}
	tokens, diags := rbcheck.Tokenize(string(input))
	writeTokens(os.Stdout, tokens)
	for _, d := range diags {
		fmt.Fprintln(os.Stdout, d.Format(remaining[0]))
	}
	if n := rbcheck.CountErrors(diags); n > 0 {
		return fmt.Errorf("rbcheck tokens: %d lexical error(s)", n)
	}
	return nil
}

// writeTokens prints one token per line as `line:column TYPE literal`.
// Interpolated literals list their segments indented underneath.
func writeTokens(w io.Writer, tokens []rbcheck.Token) {
	for _, tok := range tokens {
		pos := tok.Pos()
		fmt.Fprintf(w, "%d:%d\t%-10s %q\n", pos.Line, pos.Column, tok.Type, tok.Literal)
		for _, part := range tok.Parts {
			if !part.Interp {
				fmt.Fprintf(w, "\t  text %q\n", part.Text)
				continue
			}
			types := make([]string, 0, len(part.Tokens))
			for _, inner := range part.Tokens {
				types = append(types, string(inner.Type))
			}
			fmt.Fprintf(w, "\t  #{ %s }\n", strings.Join(types, " "))
		}
	}
}
