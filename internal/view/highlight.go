package view

import (
	"regexp"
	"strings"
)

// TokenClass is the syntactic role of a highlighted span.
type TokenClass int

const (
	ClassPlain TokenClass = iota
	ClassKey
	ClassString
	ClassNumber
	ClassBoolean
	ClassNull
)

// Span is a run of text with a single class.
type Span struct {
	Class TokenClass
	Text  string
}

var tokenRegex = regexp.MustCompile(`"(?:\\u[a-zA-Z0-9]{4}|\\[^u]|[^\\"])*"(?:\s*:)?|\b(?:true|false|null)\b|-?\d+(?:\.\d*)?(?:[eE][+\-]?\d+)?`)

// Classify splits formatted JSON into classified spans. Concatenating the
// spans yields the input unchanged.
func Classify(text string) []Span {
	var spans []Span
	last := 0
	for _, m := range tokenRegex.FindAllStringIndex(text, -1) {
		if m[0] > last {
			spans = append(spans, Span{Class: ClassPlain, Text: text[last:m[0]]})
		}
		match := text[m[0]:m[1]]
		spans = append(spans, Span{Class: classOf(match), Text: match})
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Class: ClassPlain, Text: text[last:]})
	}
	return spans
}

func classOf(match string) TokenClass {
	switch {
	case strings.HasPrefix(match, `"`):
		if strings.HasSuffix(match, ":") {
			return ClassKey
		}
		return ClassString
	case match == "true" || match == "false":
		return ClassBoolean
	case match == "null":
		return ClassNull
	default:
		return ClassNumber
	}
}

// Highlight renders formatted JSON with each token styled by its class.
func Highlight(text string, theme Theme) string {
	var sb strings.Builder
	for _, span := range Classify(text) {
		switch span.Class {
		case ClassKey:
			// Style the key but not the colon and spacing after it.
			key := strings.TrimRight(span.Text, ": \t\r\n")
			sb.WriteString(theme.Key.Render(key))
			sb.WriteString(span.Text[len(key):])
		case ClassString:
			sb.WriteString(theme.String.Render(span.Text))
		case ClassNumber:
			sb.WriteString(theme.Number.Render(span.Text))
		case ClassBoolean:
			sb.WriteString(theme.Boolean.Render(span.Text))
		case ClassNull:
			sb.WriteString(theme.Null.Render(span.Text))
		default:
			sb.WriteString(span.Text)
		}
	}
	return sb.String()
}
