package rbcheck

import "testing"

func TestCodeFrameMarksSpan(t *testing.T) {
	source := "x = 1\ny = \"a\" + 1\n"
	d := Diagnostic{Span: Span{
		Start: Position{Line: 2, Column: 5},
		End:   Position{Line: 2, Column: 12},
	}}
	want := "  --> line 2, column 5\n 2 | y = \"a\" + 1\n   |     ^^^^^^^"
	if got := CodeFrame(source, d); got != want {
		t.Fatalf("unexpected frame\n got: %q\nwant: %q", got, want)
	}
}

func TestCodeFrameTrimsSpanPastLineEnd(t *testing.T) {
	source := "x = 1\ny = \"a\" + 1\n"
	d := Diagnostic{Span: Span{
		Start: Position{Line: 2, Column: 5},
		End:   Position{Line: 2, Column: 14},
	}}
	want := "  --> line 2, column 5\n 2 | y = \"a\" + 1\n   |     ^^^^^^^"
	if got := CodeFrame(source, d); got != want {
		t.Fatalf("unexpected frame\n got: %q\nwant: %q", got, want)
	}
}

func TestCodeFrameMultilineSpanStopsAtLineEnd(t *testing.T) {
	source := "texto = \"abc\ndef\"\n"
	d := Diagnostic{Span: Span{
		Start: Position{Line: 1, Column: 9},
		End:   Position{Line: 2, Column: 5},
	}}
	want := "  --> line 1, column 9\n 1 | texto = \"abc\n   |         ^^^^"
	if got := CodeFrame(source, d); got != want {
		t.Fatalf("unexpected frame\n got: %q\nwant: %q", got, want)
	}
}

func TestCodeFrameOutOfRange(t *testing.T) {
	cases := []Span{
		{},
		{Start: Position{Line: 9, Column: 1}},
	}
	for _, span := range cases {
		if got := CodeFrame("x = 1\n", Diagnostic{Span: span}); got != "" {
			t.Fatalf("expected empty frame for %+v, got %q", span, got)
		}
	}
	if got := CodeFrame("", Diagnostic{Span: spanAt(1, 1)}); got != "" {
		t.Fatalf("expected empty frame for empty source, got %q", got)
	}
}

func TestCodeFrameClampsColumn(t *testing.T) {
	got := CodeFrame("ab\n", Diagnostic{Span: spanAt(1, 40)})
	want := "  --> line 1, column 3\n 1 | ab\n   |   ^"
	if got != want {
		t.Fatalf("unexpected frame\n got: %q\nwant: %q", got, want)
	}
}
