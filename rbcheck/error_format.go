package rbcheck

import (
	"fmt"
	"strconv"
	"strings"
)

// CodeFrame renders the source line of a diagnostic with a marker under its
// span. Spans running past the end of the line are marked to the line end.
func CodeFrame(source string, d Diagnostic) string {
	return formatCodeFrame(source, d.Span)
}

func formatCodeFrame(source string, span Span) string {
	pos := span.Start
	if source == "" || pos.Line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return ""
	}

	lineText := strings.TrimSuffix(lines[pos.Line-1], "\r")
	lineText = strings.ReplaceAll(lineText, "\t", " ")
	lineRunes := []rune(lineText)

	column := pos.Column
	if column <= 0 {
		column = 1
	}
	if column > len(lineRunes)+1 {
		column = len(lineRunes) + 1
	}

	width := 1
	if span.End.Line == pos.Line && span.End.Column > column {
		width = span.End.Column - column
	} else if span.End.Line > pos.Line {
		width = len(lineRunes) - column + 1
	}
	if column+width-1 > len(lineRunes) {
		width = len(lineRunes) - column + 1
	}
	if width < 1 {
		width = 1
	}

	lineLabel := strconv.Itoa(pos.Line)
	gutterPad := strings.Repeat(" ", len(lineLabel))
	caretPad := strings.Repeat(" ", column-1)

	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s%s",
		pos.Line,
		column,
		lineLabel,
		lineText,
		gutterPad,
		caretPad,
		strings.Repeat("^", width),
	)
}
