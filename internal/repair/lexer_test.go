package repair

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex_RenderRoundTrip(t *testing.T) {
	inputs := []string{
		`{"a": "b // c", 'd': 'e'}`,
		"{\n  // comment \"with\" quotes\n  x: 1 /* block { */\n}",
		`{"unterminated`,
		`it's a bare apostrophe`,
		`{"url": http://example.com}`,
		"[\"\\\"escaped\\\"\"]",
	}
	for _, input := range inputs {
		d := lex(input)
		got := d.render(renderOptions{keepComments: true})
		assert.Equal(t, input, got)
	}
}

func TestLex_MasksStringsAndComments(t *testing.T) {
	d := lex(`{"a{": 'b]' /* } */ // ]` + "\n}")
	require.Len(t, d.literals, 2)
	require.Len(t, d.comments, 2)
	assert.Equal(t, 1, strings.Count(d.text, "{"))
	assert.Equal(t, 1, strings.Count(d.text, "}"))
	assert.NotContains(t, d.text, "]")
	assert.True(t, d.literals[1].single)
}

func TestLex_UnterminatedStringEndsAtNewline(t *testing.T) {
	d := lex("{\"a\": \"hello\n}")
	require.Len(t, d.literals, 2)
	assert.False(t, d.literals[1].terminated)
	assert.True(t, d.hasUnterminated())
	assert.Equal(t, "{\"a\": \"hello\"\n}", d.render(renderOptions{closeUnterminated: true}))
}

func TestLex_URLIsNotAComment(t *testing.T) {
	d := lex(`{"u": http://x}`)
	assert.Empty(t, d.comments)
}

func TestSingleToDouble(t *testing.T) {
	assert.Equal(t, `"plain"`, singleToDouble(`'plain'`))
	assert.Equal(t, `"it's"`, singleToDouble(`'it\'s'`))
	assert.Equal(t, `"say \"hi\""`, singleToDouble(`'say "hi"'`))
	assert.Equal(t, `"tab\t"`, singleToDouble(`'tab\t'`))
}

func TestCloseString(t *testing.T) {
	assert.Equal(t, `"abc"`, closeString(`"abc`))
	assert.Equal(t, `"abc"`, closeString(`"abc\`))
	assert.Equal(t, `"abc\\"`, closeString(`"abc\\`))
}

func TestIndexEncoding(t *testing.T) {
	for _, i := range []int{0, 1, 15, 16, 255, 4096} {
		got, ok := decodeIndex(encodeIndex(i))
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
}

func TestBalanceBrackets_ClosesInStackOrder(t *testing.T) {
	d := &document{text: `{"a": [1, {"b": [2`}
	b := d.balanceBrackets()
	assert.Equal(t, `{"a": [1, {"b": [2]}]}`, d.text)
	assert.Equal(t, 2, b.missingBraces)
	assert.Equal(t, 2, b.missingBrackets)
}

func TestBalanceBrackets_RemovesRightmostExtras(t *testing.T) {
	d := &document{text: `[1]], 2]`}
	b := d.balanceBrackets()
	assert.Equal(t, `[1], 2`, d.text)
	assert.Equal(t, 2, b.extraBrackets)
}
