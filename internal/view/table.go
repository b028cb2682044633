package view

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mcncl/jsonmend/internal/formatter"
	"github.com/mcncl/jsonmend/internal/models"
)

// IsRecordList reports whether value is a non-empty array whose first item is
// an object, the shape Preview renders as a table.
func IsRecordList(value models.Value) bool {
	return value.Kind == models.KindArray && len(value.Items) > 0 && value.Items[0].Kind == models.KindObject
}

// Columns returns the union of keys across the objects of an array, in
// first-seen order.
func Columns(value models.Value) []string {
	seen := map[string]bool{}
	var cols []string
	for _, item := range value.Items {
		for _, key := range item.Keys() {
			if !seen[key] {
				seen[key] = true
				cols = append(cols, key)
			}
		}
	}
	return cols
}

// Preview renders an array of objects as a table and anything else as a tree.
func Preview(value models.Value, theme Theme) string {
	if !IsRecordList(value) {
		return Tree(value, theme)
	}
	return Table(value, theme)
}

// Table renders an array of objects with one row per item. Items that are not
// objects, and keys an item lacks, leave their cells empty.
func Table(value models.Value, theme Theme) string {
	cols := Columns(value)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.Border).
		Headers(cols...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Header
			}
			return theme.Cell
		})

	for _, item := range value.Items {
		row := make([]string, len(cols))
		for i, col := range cols {
			if v, ok := item.Get(col); ok {
				row[i] = cell(v)
			}
		}
		t.Row(row...)
	}
	return t.String()
}

func cell(v models.Value) string {
	switch v.Kind {
	case models.KindArray, models.KindObject:
		return formatter.Minify(v)
	default:
		return v.Scalar()
	}
}
