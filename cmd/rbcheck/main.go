package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "check":
		return checkCommand(args[2:])
	case "tokens":
		return tokensCommand(args[2:])
	case "explain":
		return explainCommand(args[2:])
	case "lsp":
		return lspCommand(args[2:])
	case "repl":
		return runREPL()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [args...]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  check [flags] <path>...")
	fmt.Fprintln(os.Stderr, "    report diagnostics for files and directories")
	fmt.Fprintln(os.Stderr, "  tokens <file>")
	fmt.Fprintln(os.Stderr, "    print the token stream of a file")
	fmt.Fprintln(os.Stderr, "  explain [code]")
	fmt.Fprintln(os.Stderr, "    describe a diagnostic code, or list them all")
	fmt.Fprintln(os.Stderr, "  lsp [-v] [-config file]")
	fmt.Fprintln(os.Stderr, "    serve diagnostics over stdio")
	fmt.Fprintln(os.Stderr, "  repl")
	fmt.Fprintln(os.Stderr, "    check code interactively")
	fmt.Fprintln(os.Stderr, "Check flags:")
	fmt.Fprintln(os.Stderr, "  -format text|json")
	fmt.Fprintln(os.Stderr, "    output format (default \"text\")")
	fmt.Fprintln(os.Stderr, "  -config <file>")
	fmt.Fprintln(os.Stderr, "    configuration file (default: nearest .rbcheck.yml)")
	fmt.Fprintln(os.Stderr, "  -j <n>")
	fmt.Fprintln(os.Stderr, "    files checked in parallel (default: number of CPUs)")
	fmt.Fprintln(os.Stderr, "  -changed")
	fmt.Fprintln(os.Stderr, "    only check files modified in the git worktree")
	fmt.Fprintln(os.Stderr, "  -frames")
	fmt.Fprintln(os.Stderr, "    show the offending source line under each diagnostic")
	fmt.Fprintln(os.Stderr, "  -color")
	fmt.Fprintln(os.Stderr, "    colorize text output")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
