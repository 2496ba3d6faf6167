package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCLIHelp(t *testing.T) {
	if err := runCLI([]string{"rbcheck", "help"}); err != nil {
		t.Fatalf("runCLI help failed: %v", err)
	}
}

func TestRunCLIInvalidCommand(t *testing.T) {
	err := runCLI([]string{"rbcheck", "unknown"})
	if err == nil {
		t.Fatalf("expected invalid command error")
	}
	if !strings.Contains(err.Error(), "invalid command") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCLIWithoutCommand(t *testing.T) {
	err := runCLI([]string{"rbcheck"})
	if err == nil {
		t.Fatalf("expected invalid command error")
	}
	if !strings.Contains(err.Error(), "invalid command") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTokensCommandPrintsStream(t *testing.T) {
	path := writeScript(t, "x = \"hola #{nombre}\"\n")

	out, err := captureStdout(t, func() error {
		return runCLI([]string{"rbcheck", "tokens", path})
	})
	if err != nil {
		t.Fatalf("tokens command failed: %v", err)
	}
	for _, want := range []string{"1:1\tIDENT", "1:3\t=", "STRING", "text \"hola \"", "#{ IDENT }", "EOF"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTokensCommandReportsLexicalErrors(t *testing.T) {
	path := writeScript(t, "x = \"abierta\n")

	out, err := captureStdout(t, func() error {
		return tokensCommand([]string{path})
	})
	if err == nil || !strings.Contains(err.Error(), "1 lexical error(s)") {
		t.Fatalf("expected lexical error, got %v", err)
	}
	if !strings.Contains(out, "[UNTERMINATED_STRING]") {
		t.Fatalf("expected diagnostic in output:\n%s", out)
	}
}

func TestTokensCommandRequiresPath(t *testing.T) {
	err := tokensCommand(nil)
	if err == nil || !strings.Contains(err.Error(), "file path required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExplainCommand(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return explainCommand([]string{"unsafe-cast"})
	})
	if err != nil {
		t.Fatalf("explain failed: %v", err)
	}
	if !strings.HasPrefix(out, "UNSAFE_CAST (semantic, warning)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestExplainCommandListsCodes(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return explainCommand(nil)
	})
	if err != nil {
		t.Fatalf("explain failed: %v", err)
	}
	if got := strings.Count(out, "\n"); got != 8 {
		t.Fatalf("expected 8 codes, got %d lines:\n%s", got, out)
	}
}

func TestExplainCommandSuggestsCode(t *testing.T) {
	err := explainCommand([]string{"unsafe"})
	if err == nil || !strings.Contains(err.Error(), "did you mean UNSAFE_CAST?") {
		t.Fatalf("expected suggestion, got %v", err)
	}
}

func writeScript(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.rb")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := fn()
	_ = w.Close()
	os.Stdout = orig

	out := <-done
	_ = r.Close()
	return out, runErr
}
