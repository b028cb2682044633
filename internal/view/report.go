package view

import (
	"fmt"
	"strings"

	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
)

// ErrorContext shows the line at pos with a caret under its column. Tabs in
// the line are kept so the caret stays aligned. It returns "" when pos lies
// outside text.
func ErrorContext(text string, pos models.Position, theme Theme) string {
	lines := strings.Split(text, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return ""
	}
	line := strings.TrimRight(lines[pos.Line-1], "\r")

	var pad strings.Builder
	col := 1
	for _, r := range line {
		if col >= pos.Column {
			break
		}
		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteRune(' ')
		}
		col++
	}

	gutter := fmt.Sprintf("%d | ", pos.Line)
	blank := strings.Repeat(" ", len(gutter)-2) + "| "
	return theme.Muted.Render(gutter) + line + "\n" +
		theme.Muted.Render(blank) + pad.String() + theme.Caret.Render("^")
}

// SyntaxError renders a parse failure, followed by the offending line of text
// when the error is located.
func SyntaxError(text string, err *parser.SyntaxError, theme Theme) string {
	msg := theme.Failure.Render("✗ " + err.Error())
	if !err.Located() {
		return msg
	}
	if ctx := ErrorContext(text, err.Position(), theme); ctx != "" {
		return msg + "\n" + ctx
	}
	return msg
}

// Issues renders a repair issue log, one label per line.
func Issues(labels []string, theme Theme) string {
	if len(labels) == 0 {
		return theme.Muted.Render("no issues found")
	}
	var sb strings.Builder
	for i, label := range labels {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(theme.Success.Render("✓") + " " + label)
	}
	return sb.String()
}

// Differences renders a comparison report.
func Differences(diffs []models.Difference, theme Theme) string {
	if len(diffs) == 0 {
		return theme.Success.Render("✓ documents are identical")
	}
	var sb strings.Builder
	sb.WriteString(theme.Failure.Render(fmt.Sprintf("%d difference(s) found", len(diffs))))
	for _, d := range diffs {
		sb.WriteString("\n  ")
		sb.WriteString(theme.Key.Render(d.Path))
		sb.WriteString(": ")
		sb.WriteString(d.Message)
	}
	return sb.String()
}
