package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
)

func parse(t *testing.T, text string) models.Value {
	t.Helper()
	v, err := parser.ParseString(text)
	require.NoError(t, err)
	return v
}

func TestDiff_Identity(t *testing.T) {
	docs := []string{
		`null`,
		`"x"`,
		`[1, [2, {"a": []}]]`,
		`{"a": {"b": [true, false, null]}, "c": 1.5}`,
	}
	for _, doc := range docs {
		v := parse(t, doc)
		assert.Empty(t, Diff(v, v), doc)
		assert.True(t, Equal(v, v), doc)
	}
}

func TestDiff_MissingKeys(t *testing.T) {
	got := Diff(parse(t, `{"a":1,"b":2}`), parse(t, `{"a":1,"c":3}`))

	assert.Equal(t, []models.Difference{
		{Path: "b", Kind: models.DiffMissingInSecond, Message: "Missing in second JSON"},
		{Path: "c", Kind: models.DiffMissingInFirst, Message: "Missing in first JSON"},
	}, got)
}

func TestDiff_TypeMismatchStopsDescent(t *testing.T) {
	got := Diff(parse(t, `{"a":{"x":1}}`), parse(t, `{"a":[1]}`))

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Path)
	assert.Equal(t, models.DiffTypeMismatch, got[0].Kind)
	assert.Equal(t, "Type mismatch: object vs array", got[0].Message)
}

func TestDiff_ArrayLength(t *testing.T) {
	got := Diff(parse(t, `[1,2,3]`), parse(t, `[1,5]`))

	assert.Equal(t, []models.Difference{
		{Path: "root", Kind: models.DiffLengthMismatch, Message: "Array length: 3 vs 2"},
		{Path: "[1]", Kind: models.DiffValueMismatch, Message: `Value: "2" vs "5"`},
	}, got)
}

func TestDiff_PreOrderTraversal(t *testing.T) {
	a := parse(t, `{"users":[{"name":"a","age":1}],"z":true,"only_a":0}`)
	b := parse(t, `{"only_b":null,"users":[{"name":"b","age":1,"x":1}],"z":"true"}`)

	paths := []string{}
	for _, d := range Diff(a, b) {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"users[0].name", "users[0].x", "z", "only_a", "only_b"}, paths)
}

func TestDiff_NumbersCompareByValue(t *testing.T) {
	assert.Empty(t, Diff(parse(t, `[1.0, 1e2]`), parse(t, `[1, 100]`)))
	assert.Len(t, Diff(parse(t, `[1]`), parse(t, `[2]`)), 1)
}

func TestDiff_NullIsItsOwnType(t *testing.T) {
	got := Diff(parse(t, `{"a":null}`), parse(t, `{"a":{}}`))

	require.Len(t, got, 1)
	assert.Equal(t, "Type mismatch: null vs object", got[0].Message)
}

func TestDiff_RootScalars(t *testing.T) {
	got := Diff(parse(t, `"a"`), parse(t, `"b"`))
	require.Len(t, got, 1)
	assert.Equal(t, "root", got[0].Path)
	assert.Equal(t, `Value: "a" vs "b"`, got[0].Message)
}
