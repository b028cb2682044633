package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags which variant of a JSON value a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lowercase JSON type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value Value
}

// Value is a parsed JSON document. Only the field matching Kind is meaningful.
// Object members keep the order in which they appeared in the source text.
type Value struct {
	Kind    Kind
	Bool    bool
	Number  json.Number
	Str     string
	Items   []Value
	Members []Member
}

// Null returns the JSON null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Number wraps a number literal.
func Number(n string) Value { return Value{Kind: KindNumber, Number: json.Number(n)} }

// String wraps a string.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Array wraps a list of values.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: KindArray, Items: items}
}

// Object wraps a list of members.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{Kind: KindObject, Members: members}
}

// Get returns the value stored under key and whether it exists.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the object's keys in source order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.Members))
	for _, m := range v.Members {
		keys = append(keys, m.Key)
	}
	return keys
}

// Len returns the number of items or members of a container, and zero otherwise.
func (v Value) Len() int {
	switch v.Kind {
	case KindArray:
		return len(v.Items)
	case KindObject:
		return len(v.Members)
	default:
		return 0
	}
}

// Scalar renders a non-container value the way it would appear in a message.
func (v Value) Scalar() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return v.Number.String()
	case KindString:
		return v.Str
	case KindArray:
		return fmt.Sprintf("[%d items]", len(v.Items))
	case KindObject:
		return fmt.Sprintf("{%d keys}", len(v.Members))
	default:
		return ""
	}
}

// Equal reports whether two values are equal. Numbers compare by numeric value
// when both literals parse as floats, and object member order is ignored.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		if v.Number == o.Number {
			return true
		}
		a, errA := v.Number.Float64()
		b, errB := o.Number.Float64()
		return errA == nil && errB == nil && a == b
	case KindString:
		return v.Str == o.Str
	case KindArray:
		if len(v.Items) != len(o.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Members) != len(o.Members) {
			return false
		}
		for _, m := range v.Members {
			other, ok := o.Get(m.Key)
			if !ok || !m.Value.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// Position is a 1-based line/column location inside a text.
type Position struct {
	Line   int
	Column int
}

// String renders the position as "line L, column C".
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Difference is one path-tagged discrepancy between two compared values.
type Difference struct {
	Path    string
	Kind    DifferenceKind
	Message string
}

// DifferenceKind categorizes a Difference.
type DifferenceKind string

const (
	DiffTypeMismatch    DifferenceKind = "type_mismatch"
	DiffLengthMismatch  DifferenceKind = "length_mismatch"
	DiffMissingInFirst  DifferenceKind = "missing_in_first"
	DiffMissingInSecond DifferenceKind = "missing_in_second"
	DiffValueMismatch   DifferenceKind = "value_mismatch"
)

// IndentStyle selects how formatted output is indented.
type IndentStyle int

const (
	IndentNone IndentStyle = iota
	IndentSpaces
	IndentTab
)

// IndentSpec is the closed set of supported indentations: none, 0/1/2/4/8 spaces, or a tab.
type IndentSpec struct {
	Style  IndentStyle
	Spaces int
}

// NoIndent is the compact, whitespace-free layout.
var NoIndent = IndentSpec{Style: IndentNone}

// TabIndent indents with one tab per level.
var TabIndent = IndentSpec{Style: IndentTab}

// DefaultIndent is two spaces.
var DefaultIndent = IndentSpec{Style: IndentSpaces, Spaces: 2}

// Spaces returns an IndentSpec of n spaces. n must be one of 0, 1, 2, 4 or 8.
func Spaces(n int) (IndentSpec, error) {
	switch n {
	case 0, 1, 2, 4, 8:
		return IndentSpec{Style: IndentSpaces, Spaces: n}, nil
	}
	return IndentSpec{}, fmt.Errorf("unsupported indent size %d (want 0, 1, 2, 4 or 8)", n)
}

// ParseIndent reads the textual form used by flags and config files:
// "none", "tab", or a space count.
func ParseIndent(s string) (IndentSpec, error) {
	switch s {
	case "none", "":
		return NoIndent, nil
	case "tab", "\t":
		return TabIndent, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return IndentSpec{}, fmt.Errorf("invalid indent %q (want none, tab, 0, 1, 2, 4 or 8)", s)
	}
	return Spaces(n)
}

// String returns the textual form accepted by ParseIndent.
func (i IndentSpec) String() string {
	switch i.Style {
	case IndentTab:
		return "tab"
	case IndentSpaces:
		return strconv.Itoa(i.Spaces)
	default:
		return "none"
	}
}

// Unit returns the string repeated once per nesting level, and whether the
// layout breaks lines at all.
func (i IndentSpec) Unit() (string, bool) {
	switch i.Style {
	case IndentTab:
		return "\t", true
	case IndentSpaces:
		return strings.Repeat(" ", i.Spaces), true
	default:
		return "", false
	}
}
