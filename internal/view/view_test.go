package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonmend/internal/analyzer"
	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
)

func mustParse(t *testing.T, text string) models.Value {
	t.Helper()
	v, err := parser.ParseString(text)
	require.NoError(t, err)
	return v
}

func TestClassify(t *testing.T) {
	text := "{\n  \"name\": \"Ada\",\n  \"age\": -36.5e1,\n  \"ok\": true,\n  \"none\": null\n}"
	spans := Classify(text)

	var rebuilt strings.Builder
	classes := map[TokenClass][]string{}
	for _, s := range spans {
		rebuilt.WriteString(s.Text)
		if s.Class != ClassPlain {
			classes[s.Class] = append(classes[s.Class], s.Text)
		}
	}
	assert.Equal(t, text, rebuilt.String())
	assert.Equal(t, []string{`"name":`, `"age":`, `"ok":`, `"none":`}, classes[ClassKey])
	assert.Equal(t, []string{`"Ada"`}, classes[ClassString])
	assert.Equal(t, []string{"-36.5e1"}, classes[ClassNumber])
	assert.Equal(t, []string{"true"}, classes[ClassBoolean])
	assert.Equal(t, []string{"null"}, classes[ClassNull])
}

func TestClassify_EscapedQuotes(t *testing.T) {
	spans := Classify(`["say \"hi\"", 1]`)
	require.GreaterOrEqual(t, len(spans), 3)
	assert.Equal(t, Span{Class: ClassString, Text: `"say \"hi\""`}, spans[1])
}

func TestHighlight_PlainThemeIsIdentity(t *testing.T) {
	text := `{"a": [1, "two", false, null]}`
	assert.Equal(t, text, Highlight(text, PlainTheme()))
}

func TestTree(t *testing.T) {
	v := mustParse(t, `{"user": {"name": "Ada", "tags": ["x", "y"]}, "active": true, "empty": []}`)
	out := Tree(v, PlainTheme())

	assert.True(t, strings.HasPrefix(out, "{3}  root"))
	for _, want := range []string{
		`"user": {2}  root.user`,
		`"name": "Ada"  root.user.name`,
		`"tags": [2]  root.user.tags`,
		`0: "x"  root.user.tags[0]`,
		`1: "y"  root.user.tags[1]`,
		`"active": true  root.active`,
		`"empty": [0]  root.empty`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestTree_Scalar(t *testing.T) {
	assert.Equal(t, "42  root", Tree(models.Number("42"), PlainTheme()))
}

func TestColumns(t *testing.T) {
	v := mustParse(t, `[{"id": 1, "name": "a"}, {"id": 2, "email": "b@x"}, {"name": "c"}]`)
	assert.Equal(t, []string{"id", "name", "email"}, Columns(v))
}

func TestPreview_Table(t *testing.T) {
	v := mustParse(t, `[{"id": 1, "name": "Ada"}, {"id": 2, "tags": ["x"]}]`)
	require.True(t, IsRecordList(v))

	out := Preview(v, PlainTheme())
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, lines[1], "id")
	assert.Contains(t, lines[1], "name")
	assert.Contains(t, lines[1], "tags")
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, `["x"]`)
}

func TestPreview_FallsBackToTree(t *testing.T) {
	for _, text := range []string{`[1, 2]`, `[]`, `{"a": 1}`, `"s"`} {
		v := mustParse(t, text)
		assert.False(t, IsRecordList(v), text)
		assert.Equal(t, Tree(v, PlainTheme()), Preview(v, PlainTheme()), text)
	}
}

func TestErrorContext(t *testing.T) {
	text := "{\n  \"a\": ,\n}"
	out := ErrorContext(text, models.Position{Line: 2, Column: 8}, PlainTheme())
	assert.Equal(t, "2 |   \"a\": ,\n  |        ^", out)

	out = ErrorContext("\t\tx", models.Position{Line: 1, Column: 3}, PlainTheme())
	assert.Equal(t, "1 | \t\tx\n  | \t\t^", out)

	assert.Empty(t, ErrorContext(text, models.Position{Line: 9, Column: 1}, PlainTheme()))
}

func TestSyntaxError(t *testing.T) {
	text := "{\n  \"a\": ,\n}"
	_, err := parser.ParseString(text)
	var syntaxErr *parser.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)

	out := SyntaxError(text, syntaxErr, PlainTheme())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "✗ "))
	assert.Contains(t, lines[0], "line 2")
	assert.Equal(t, "2 |   \"a\": ,", lines[1])

	// A location recovered from the message alone still gets context.
	fromMessage := SyntaxError(text, &parser.SyntaxError{Message: "boom", Offset: -1, Line: 2, Column: 8}, PlainTheme())
	lines = strings.Split(fromMessage, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "✗ boom (line 2, column 8)", lines[0])
	assert.Equal(t, "2 |   \"a\": ,", lines[1])
	assert.Equal(t, "  |        ^", lines[2])

	bare := SyntaxError("", &parser.SyntaxError{Message: "boom", Offset: -1}, PlainTheme())
	assert.Equal(t, "✗ boom", bare)
}

func TestIssuesAndDifferences(t *testing.T) {
	assert.Equal(t, "no issues found", Issues(nil, PlainTheme()))
	assert.Equal(t, "✓ comments removed\n✓ trailing commas removed",
		Issues([]string{"comments removed", "trailing commas removed"}, PlainTheme()))

	assert.Equal(t, "✓ documents are identical", Differences(nil, PlainTheme()))
	out := Differences([]models.Difference{
		{Path: "b", Kind: models.DiffMissingInSecond, Message: "Missing in second JSON"},
	}, PlainTheme())
	assert.Equal(t, "1 difference(s) found\n  b: Missing in second JSON", out)
}

func TestStats(t *testing.T) {
	text := `{"id": "3f2b8c1e-9d4a-4e6b-8f1a-2c3d4e5f6a7b", "tags": ["a", "b"], "ok": true}`
	out := Stats(analyzer.NewAnalyzer().Analyze(text, mustParse(t, text)), PlainTheme())

	for _, want := range []string{"lines", "characters", "size", "max depth", "objects", "strings", "uuid strings"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "nulls")

	textOnly := Stats(analyzer.TextStats("{oops"), PlainTheme())
	assert.Contains(t, textOnly, "characters")
	assert.NotContains(t, textOnly, "max depth")
}
