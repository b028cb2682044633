package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/mcncl/jsonmend/internal/formatter"
	"github.com/mcncl/jsonmend/internal/models"
)

// RootPath is the path label of the document root.
const RootPath = "root"

// Tree renders value as an indented tree. Every node shows its path.
func Tree(value models.Value, theme Theme) string {
	t := tree.Root(nodeLabel("", value, RootPath, theme)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(theme.Border)
	addChildren(t, value, RootPath, theme)
	return t.String()
}

func addChildren(t *tree.Tree, value models.Value, path string, theme Theme) {
	switch value.Kind {
	case models.KindArray:
		for i, item := range value.Items {
			childPath := fmt.Sprintf("%s[%d]", path, i)
			t.Child(child(strconv.Itoa(i), item, childPath, theme))
		}
	case models.KindObject:
		for _, m := range value.Members {
			childPath := path + "." + m.Key
			t.Child(child(formatter.Quote(m.Key), m.Value, childPath, theme))
		}
	}
}

func child(label string, value models.Value, path string, theme Theme) any {
	if value.Len() == 0 {
		return nodeLabel(label, value, path, theme)
	}
	sub := tree.Root(nodeLabel(label, value, path, theme))
	addChildren(sub, value, path, theme)
	return sub
}

// nodeLabel renders `label: value  path` for scalars and `label {n}  path`
// for containers.
func nodeLabel(label string, value models.Value, path string, theme Theme) string {
	var body string
	switch value.Kind {
	case models.KindObject:
		body = theme.Muted.Render(fmt.Sprintf("{%d}", value.Len()))
	case models.KindArray:
		body = theme.Muted.Render(fmt.Sprintf("[%d]", value.Len()))
	default:
		body = scalar(value, theme)
	}
	if label != "" {
		body = theme.Key.Render(label) + ": " + body
	}
	return body + "  " + theme.Path.Render(path)
}

func scalar(value models.Value, theme Theme) string {
	switch value.Kind {
	case models.KindString:
		return theme.String.Render(formatter.Quote(value.Str))
	case models.KindNumber:
		return theme.Number.Render(value.Scalar())
	case models.KindBool:
		return theme.Boolean.Render(value.Scalar())
	default:
		return theme.Null.Render("null")
	}
}
