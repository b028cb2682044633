package formatter

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
)

// Formatter serializes parsed values back to JSON text
type Formatter struct {
	Indent models.IndentSpec
}

// NewFormatter creates a new Formatter using the given indentation
func NewFormatter(indent models.IndentSpec) *Formatter {
	return &Formatter{Indent: indent}
}

// Format renders value with the formatter's indentation. Object keys keep
// their order and number literals are written exactly as parsed.
func (f *Formatter) Format(value models.Value) string {
	unit, multiline := f.Indent.Unit()
	var sb strings.Builder
	w := &writer{sb: &sb, unit: unit, multiline: multiline}
	w.value(value, 0)
	return sb.String()
}

// FormatText parses text strictly and re-renders it
func (f *Formatter) FormatText(text string) (string, error) {
	value, err := parser.ParseString(text)
	if err != nil {
		return "", err
	}
	return f.Format(value), nil
}

// Format renders value with the given indentation
func Format(value models.Value, indent models.IndentSpec) string {
	return NewFormatter(indent).Format(value)
}

// Minify renders value without any insignificant whitespace
func Minify(value models.Value) string {
	return NewFormatter(models.NoIndent).Format(value)
}

type writer struct {
	sb        *strings.Builder
	unit      string
	multiline bool
}

func (w *writer) newline(depth int) {
	if !w.multiline {
		return
	}
	w.sb.WriteByte('\n')
	for i := 0; i < depth; i++ {
		w.sb.WriteString(w.unit)
	}
}

func (w *writer) value(v models.Value, depth int) {
	switch v.Kind {
	case models.KindNull:
		w.sb.WriteString("null")
	case models.KindBool:
		if v.Bool {
			w.sb.WriteString("true")
		} else {
			w.sb.WriteString("false")
		}
	case models.KindNumber:
		w.sb.WriteString(v.Number.String())
	case models.KindString:
		w.sb.WriteString(Quote(v.Str))
	case models.KindArray:
		if len(v.Items) == 0 {
			w.sb.WriteString("[]")
			return
		}
		w.sb.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.newline(depth + 1)
			w.value(item, depth+1)
		}
		w.newline(depth)
		w.sb.WriteByte(']')
	case models.KindObject:
		if len(v.Members) == 0 {
			w.sb.WriteString("{}")
			return
		}
		w.sb.WriteByte('{')
		for i, m := range v.Members {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.newline(depth + 1)
			w.sb.WriteString(Quote(m.Key))
			w.sb.WriteByte(':')
			if w.multiline {
				w.sb.WriteByte(' ')
			}
			w.value(m.Value, depth+1)
		}
		w.newline(depth)
		w.sb.WriteByte('}')
	}
}

// Quote returns s as a JSON string literal. HTML characters are left as is.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Encoding a Go string cannot fail.
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
