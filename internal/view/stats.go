package view

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mcncl/jsonmend/internal/analyzer"
	"github.com/mcncl/jsonmend/internal/models"
)

var kindOrder = []models.Kind{
	models.KindObject, models.KindArray, models.KindString,
	models.KindNumber, models.KindBool, models.KindNull,
}

// Stats renders document statistics as a two-column table. Kind and format
// rows appear only for values that were counted.
func Stats(stats analyzer.Stats, theme Theme) string {
	rows := [][]string{
		{"lines", strconv.Itoa(stats.Lines)},
		{"characters", strconv.Itoa(stats.Characters)},
		{"size", stats.Size},
	}
	if values := stats.Values(); values > 0 {
		rows = append(rows,
			[]string{"values", strconv.Itoa(values)},
			[]string{"members", strconv.Itoa(stats.Members)},
			[]string{"max depth", strconv.Itoa(stats.MaxDepth)},
		)
	}
	for _, kind := range kindOrder {
		if n := stats.Kinds[kind]; n > 0 {
			rows = append(rows, []string{kind.String() + "s", strconv.Itoa(n)})
		}
	}

	formats := make([]string, 0, len(stats.Formats))
	for f := range stats.Formats {
		formats = append(formats, string(f))
	}
	sort.Strings(formats)
	for _, f := range formats {
		rows = append(rows, []string{fmt.Sprintf("%s strings", f), strconv.Itoa(stats.Formats[analyzer.StringFormat(f)])})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.Border).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return theme.Header
			}
			return theme.Cell
		}).
		String()
}
