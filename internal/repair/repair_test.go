package repair

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
)

// noFallback runs only the built-in passes.
func noFallback(opts ...func(*Options)) *Repairer {
	o := Options{Indent: models.DefaultIndent}
	for _, fn := range opts {
		fn(&o)
	}
	return NewRepairer(o)
}

func labels(res Result) []string {
	return Labels(res.Issues)
}

func TestRepair_ValidInputIsUntouched(t *testing.T) {
	inputs := []string{
		`{"a": 1, "b": [true, null, "x"]}`,
		`[]`,
		`"just a string"`,
		`42`,
	}
	for _, input := range inputs {
		res := noFallback().Repair(input)
		require.True(t, res.Success, input)
		assert.Empty(t, res.Issues, input)

		want, err := parser.ParseString(input)
		require.NoError(t, err)
		assert.True(t, want.Equal(res.Value), input)
	}
}

func TestRepair_TrailingCommas(t *testing.T) {
	for _, input := range []string{`[1,2,,]`, `[1, 2, ,]`, `{"a": 1,}`, "{\n  \"a\": [1,\n],\n}"} {
		res := noFallback().Repair(input)
		require.True(t, res.Success, input)
		assert.NotRegexp(t, `,\s*[}\]]`, res.Formatted, input)
		assert.Contains(t, labels(res), "trailing commas removed", input)
	}

	res := noFallback().Repair(`[1,2,,]`)
	assert.Equal(t, "[\n  1,\n  2\n]", res.Formatted)
}

func TestRepair_MissingClosingBrace(t *testing.T) {
	res := noFallback().Repair(`{"a":1`)
	require.True(t, res.Success)
	assert.Equal(t, "{\n  \"a\": 1\n}", res.Formatted)
	assert.Equal(t, []string{"1 missing closing brace added"}, labels(res))
}

func TestRepair_ExtraClosingBrace(t *testing.T) {
	res := noFallback().Repair(`{"a":1}}`)
	require.True(t, res.Success)
	assert.Equal(t, "{\n  \"a\": 1\n}", res.Formatted)
	assert.Equal(t, []string{"1 extra closing brace removed"}, labels(res))
}

func TestRepair_NestedTruncation(t *testing.T) {
	res := noFallback().Repair(`{"users": [{"name": "a"}, {"name": "b"`)
	require.True(t, res.Success)

	users, ok := res.Value.Get("users")
	require.True(t, ok)
	assert.Equal(t, 2, users.Len())
	assert.Contains(t, labels(res), "2 missing closing braces added")
	assert.Contains(t, labels(res), "1 missing closing bracket added")
}

func TestRepair_TruncatedAfterColonAndComma(t *testing.T) {
	res := noFallback().Repair(`{"a": 1, "b":`)
	require.True(t, res.Success)
	b, ok := res.Value.Get("b")
	require.True(t, ok)
	assert.Equal(t, models.KindNull, b.Kind)

	res = noFallback().Repair(`[1, 2,`)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.Value.Len())
}

func TestRepair_SingleQuotes(t *testing.T) {
	res := noFallback().Repair(`{'a': 'b'}`)
	require.True(t, res.Success)
	assert.Equal(t, "{\n  \"a\": \"b\"\n}", res.Formatted)
	assert.Equal(t, []string{"single quotes converted to double quotes"}, labels(res))
}

func TestRepair_SingleQuotedEscapes(t *testing.T) {
	res := noFallback().Repair(`{'msg': 'it\'s "quoted"'}`)
	require.True(t, res.Success)
	msg, _ := res.Value.Get("msg")
	assert.Equal(t, `it's "quoted"`, msg.Str)
}

func TestRepair_StringContentsSurvive(t *testing.T) {
	input := `{
  // a comment with "quotes" and {braces}
  url: "http://example.com/{id}",
  "note": "it's: fine, // not a comment",
  "pattern": "/* keep */",
  'path': 'a,b]',
}`
	res := noFallback().Repair(input)
	require.True(t, res.Success, res.Error)

	get := func(key string) string {
		v, ok := res.Value.Get(key)
		require.True(t, ok, key)
		return v.Str
	}
	assert.Equal(t, "http://example.com/{id}", get("url"))
	assert.Equal(t, "it's: fine, // not a comment", get("note"))
	assert.Equal(t, "/* keep */", get("pattern"))
	assert.Equal(t, "a,b]", get("path"))
	assert.Equal(t, []string{"url", "note", "pattern", "path"}, res.Value.Keys())
}

func TestRepair_Comments(t *testing.T) {
	input := "{\n  // line\n  \"a\": 1, /* block */ \"b\": 2\n}"
	res := noFallback().Repair(input)
	require.True(t, res.Success)
	assert.Equal(t, []string{"a", "b"}, res.Value.Keys())
	assert.Equal(t, []string{"comments removed"}, labels(res))
}

func TestRepair_UnquotedKeys(t *testing.T) {
	res := noFallback().Repair("{name: \"x\", $id: 3,\n  _private: true}")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"name", "$id", "_private"}, res.Value.Keys())
	assert.Contains(t, labels(res), "unquoted keys quoted")
}

func TestRepair_Literals(t *testing.T) {
	res := noFallback().Repair(`{"a": undefined, "b": NaN, "c": -Infinity, "d": Infinity, "e": "NaN"}`)
	require.True(t, res.Success, res.Error)
	for _, key := range []string{"a", "b", "c", "d"} {
		v, _ := res.Value.Get(key)
		assert.Equal(t, models.KindNull, v.Kind, key)
	}
	e, _ := res.Value.Get("e")
	assert.Equal(t, "NaN", e.Str)
	assert.Equal(t, []string{"undefined, NaN and Infinity replaced with null"}, labels(res))

	res = noFallback().Repair(`{'a': True, 'b': False, 'c': None}`)
	require.True(t, res.Success, res.Error)
	a, _ := res.Value.Get("a")
	b, _ := res.Value.Get("b")
	c, _ := res.Value.Get("c")
	assert.True(t, a.Bool)
	assert.Equal(t, models.Bool(false), b)
	assert.Equal(t, models.KindNull, c.Kind)
	assert.Contains(t, labels(res), "Python literals converted")
}

func TestRepair_EmptyValues(t *testing.T) {
	res := noFallback().Repair(`{"a": , "b": 2, "c": }`)
	require.True(t, res.Success, res.Error)
	a, _ := res.Value.Get("a")
	c, _ := res.Value.Get("c")
	assert.Equal(t, models.KindNull, a.Kind)
	assert.Equal(t, models.KindNull, c.Kind)
}

func TestRepair_MissingCommas(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		keys  []string
		items int
	}{
		{"NumberThenKey", "{\"a\": 1\n\"b\": 2}", []string{"a", "b"}, 0},
		{"StringThenKey", `{"a": "x" "b": "y"}`, []string{"a", "b"}, 0},
		{"CloserThenKey", `{"a": {"x": 1} "b": [1] "c": 3}`, []string{"a", "b", "c"}, 0},
		{"AdjacentObjects", `[{"a": 1}{"a": 2}]`, nil, 2},
		{"AdjacentArrays", `[[1] [2]]`, nil, 2},
		{"BareScalars", `[1 2 3]`, nil, 3},
		{"LiteralThenKey", "{\"a\": true\n\"b\": null}", []string{"a", "b"}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := noFallback().Repair(tc.input)
			require.True(t, res.Success, res.Error)
			if tc.keys != nil {
				assert.Equal(t, tc.keys, res.Value.Keys())
			} else {
				assert.Equal(t, tc.items, res.Value.Len())
			}
			assert.Contains(t, labels(res), "missing commas added")
		})
	}
}

func TestRepair_UnterminatedString(t *testing.T) {
	res := noFallback().Repair(`{"a": "hello`)
	require.True(t, res.Success, res.Error)
	a, _ := res.Value.Get("a")
	assert.Equal(t, "hello", a.Str)
	assert.Equal(t, []string{"unterminated strings closed", "1 missing closing brace added"}, labels(res))
}

func TestRepair_ByteOrderMark(t *testing.T) {
	res := noFallback().Repair("\uFEFF{\"a\": 1}")
	require.True(t, res.Success)
	assert.Equal(t, []string{"byte order mark removed"}, labels(res))
}

func TestRepair_WrapsBareSequences(t *testing.T) {
	res := noFallback().Repair(`1, 2, 3`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, models.KindArray, res.Value.Kind)
	assert.Equal(t, 3, res.Value.Len())
	assert.Contains(t, labels(res), "top-level values wrapped in an array")

	res = noFallback().Repair(`"a": 1, "b": 2`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"a", "b"}, res.Value.Keys())
	assert.Contains(t, labels(res), "top-level members wrapped in an object")
}

func TestRepair_ConcatenatedRootValues(t *testing.T) {
	for _, r := range []*Repairer{noFallback(), NewRepairer(Options{Fallback: LibraryFallback{}})} {
		res := r.Repair(`{"a":1}{"b":2}`)
		require.True(t, res.Success, res.Error)
		require.Equal(t, models.KindArray, res.Value.Kind)
		assert.Equal(t, 2, res.Value.Len())
		assert.Equal(t, []string{"b"}, res.Value.Items[1].Keys())
		assert.Contains(t, labels(res), "top-level values wrapped in an array")
	}

	res := noFallback().Repair("[1, 2]\n[3]")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.Value.Len())
}

func TestRepair_ExtraCommas(t *testing.T) {
	res := Repair(`{"a": 1,, "b": 2}`, models.NoIndent)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, `{"a":1,"b":2}`, res.Formatted)
	assert.Equal(t, []string{"extra commas removed"}, labels(res))

	res = noFallback().Repair(`[, 1,,, 2]`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, res.Value.Len())
	assert.Equal(t, []Issue{{Kind: IssueExtraCommas, Count: 3}}, res.Issues)

	res = noFallback().Repair(`{"s": "a,,b", "t": "[,",}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"trailing commas removed"}, labels(res))
	s, _ := res.Value.Get("s")
	assert.Equal(t, "a,,b", s.Str)
}

func TestRepair_HexEscapes(t *testing.T) {
	res := noFallback().Repair(`{"a": "caf\xe9"}`)
	require.True(t, res.Success, res.Error)
	a, _ := res.Value.Get("a")
	assert.Equal(t, "café", a.Str)
	assert.Contains(t, labels(res), "structure normalized")
}

func TestRepair_TerminalFailure(t *testing.T) {
	res := noFallback().Repair(`{"a": @@@}`)
	assert.False(t, res.Success)
	assert.Empty(t, res.PartialText)
	assert.Contains(t, res.Error, "automatic repair failed")
	require.NotNil(t, res.SyntaxError)
	assert.True(t, res.SyntaxError.Located())

	res = noFallback().Repair(`{"a": @@@,}`)
	assert.False(t, res.Success)
	assert.Equal(t, `{"a": @@@}`, res.PartialText)
	assert.Contains(t, res.Error, "partially repaired")
	assert.Equal(t, []string{"trailing commas removed"}, labels(res))
}

type stubFallback struct {
	out   string
	err   error
	calls int
}

func (s *stubFallback) Name() string { return "stub" }

func (s *stubFallback) Repair(string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestRepair_Fallback(t *testing.T) {
	stub := &stubFallback{out: `{"a": "rescued"}`}
	res := noFallback(func(o *Options) { o.Fallback = stub }).Repair(`{"a": @@@}`)
	require.True(t, res.Success)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, []string{"repaired by the fallback repairer"}, labels(res))

	failing := &stubFallback{err: stderrors.New("nope")}
	res = noFallback(func(o *Options) { o.Fallback = failing }).Repair(`{"a": @@@}`)
	assert.False(t, res.Success)
	assert.Equal(t, 2, failing.calls)

	skipped := &stubFallback{out: `{}`}
	res = noFallback(func(o *Options) {
		o.Fallback = skipped
		o.Disabled = []Pass{PassFallback}
	}).Repair(`{"a": @@@}`)
	assert.False(t, res.Success)
	assert.Zero(t, skipped.calls)
}

func TestRepair_FallbackMustKeepValues(t *testing.T) {
	dropping := &stubFallback{out: `[]`}
	res := noFallback(func(o *Options) { o.Fallback = dropping }).Repair(`[Infinity, -Infinity, +1]`)
	assert.False(t, res.Success)
	assert.Equal(t, 2, dropping.calls)
	assert.Equal(t, `[null, null, +1]`, res.PartialText)

	truncating := &stubFallback{out: `{"a": 1}`}
	res = noFallback(func(o *Options) { o.Fallback = truncating }).Repair(`{"a": 1, "b": @@@}`)
	assert.False(t, res.Success)

	res = Repair(`[Infinity, -Infinity, +1]`, models.DefaultIndent)
	if res.Success {
		assert.GreaterOrEqual(t, countLeaves(res.Value), 3, res.Formatted)
	} else {
		assert.Equal(t, `[null, null, +1]`, res.PartialText)
	}
}

func TestRepair_NothingToRepair(t *testing.T) {
	for _, input := range []string{"", "   \n\t", "\uFEFF", "]", "}}", "/* only a comment */"} {
		res := Repair(input, models.DefaultIndent)
		assert.False(t, res.Success, "%q repaired to %q", input, res.Formatted)
		assert.Empty(t, res.PartialText, input)
		assert.Contains(t, res.Error, "nothing to repair", input)
	}
}

func TestCountValues(t *testing.T) {
	testCases := []struct {
		text string
		want int
	}{
		{`{"a": 1, "b": [true, "x"]}`, 3},
		{`[null, null, +1]`, 3},
		{"{a: hello world, // note\n b: 'ok'}", 2},
		{`]`, 0},
		{`{"a": "1,2,3"}`, 1},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, countValues(tc.text), tc.text)
	}
}

func TestRepair_DisabledPasses(t *testing.T) {
	r := noFallback(func(o *Options) {
		o.Disabled = []Pass{PassTrailingCommas, PassStructural}
	})
	res := r.Repair(`[1, 2,]`)
	assert.False(t, res.Success)

	r = noFallback(func(o *Options) { o.Disabled = []Pass{PassBrackets, PassStructural} })
	res = r.Repair(`{"a": 1`)
	assert.False(t, res.Success)
}

func TestRepair_IndentApplied(t *testing.T) {
	r := NewRepairer(Options{Indent: models.NoIndent})
	res := r.Repair(`{a: [1, 2,],}`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, `{"a":[1,2]}`, res.Formatted)

	r = NewRepairer(Options{Indent: models.TabIndent})
	res = r.Repair(`{a: 1`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "{\n\t\"a\": 1\n}", res.Formatted)
}

func TestRepair_Idempotent(t *testing.T) {
	inputs := []string{
		`{'a': 'b',}`,
		`{"a": [1, 2`,
		"{\n  // c\n  k: undefined\n}",
		`[{"a":1}{"b":2}]`,
	}
	for _, input := range inputs {
		first := noFallback().Repair(input)
		require.True(t, first.Success, input)

		second := noFallback().Repair(first.Formatted)
		require.True(t, second.Success, input)
		assert.Empty(t, second.Issues, input)
		assert.Equal(t, first.Formatted, second.Formatted, input)
	}
}

func TestRepair_ConcurrentUse(t *testing.T) {
	r := noFallback()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := r.Repair(`{a: 1, b: [1, 2,`)
			assert.True(t, res.Success)
		}()
	}
	wg.Wait()
}

func TestRepair_DefaultUsesLibraryFallback(t *testing.T) {
	res := Repair(`{"a": 1,}`, models.DefaultIndent)
	require.True(t, res.Success)
	assert.Equal(t, "{\n  \"a\": 1\n}", res.Formatted)
}

func TestParsePass(t *testing.T) {
	for _, name := range []string{"trailing-commas", "TrailingCommas", "trailing_commas", " trailingCommas "} {
		p, err := ParsePass(name)
		require.NoError(t, err, name)
		assert.Equal(t, PassTrailingCommas, p)
	}

	_, err := ParsePass("teleport")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown repair pass")
}

func TestIssue_Labels(t *testing.T) {
	assert.Equal(t, "1 missing closing brace added", Issue{Kind: IssueMissingClosingBraces, Count: 1}.String())
	assert.Equal(t, "3 missing closing brackets added", Issue{Kind: IssueMissingClosingBracks, Count: 3}.String())
	assert.Equal(t, "2 extra closing braces removed", Issue{Kind: IssueExtraClosingBraces, Count: 2}.String())
	assert.Equal(t, "JSON fixed", Issue{Kind: IssueGeneric, Count: 1}.String())
}
