// Package diff compares two parsed JSON documents and lists their differences.
package diff

import (
	"fmt"
	"strconv"

	"github.com/mcncl/jsonmend/internal/models"
)

// RootPath labels differences found at the document root.
const RootPath = "root"

// Diff compares a and b depth-first, pre-order. Object keys are visited in
// a's order followed by keys only present in b, in b's order. An empty result
// means the documents are identical.
func Diff(a, b models.Value) []models.Difference {
	var out []models.Difference
	compare(a, b, "", &out)
	return out
}

// Equal reports whether Diff finds no differences.
func Equal(a, b models.Value) bool {
	return len(Diff(a, b)) == 0
}

func compare(a, b models.Value, path string, out *[]models.Difference) {
	if a.Kind != b.Kind {
		*out = append(*out, models.Difference{
			Path:    label(path),
			Kind:    models.DiffTypeMismatch,
			Message: fmt.Sprintf("Type mismatch: %s vs %s", a.Kind, b.Kind),
		})
		return
	}

	switch a.Kind {
	case models.KindArray:
		if len(a.Items) != len(b.Items) {
			*out = append(*out, models.Difference{
				Path:    label(path),
				Kind:    models.DiffLengthMismatch,
				Message: fmt.Sprintf("Array length: %d vs %d", len(a.Items), len(b.Items)),
			})
		}
		n := min(len(a.Items), len(b.Items))
		for i := 0; i < n; i++ {
			compare(a.Items[i], b.Items[i], path+"["+strconv.Itoa(i)+"]", out)
		}
	case models.KindObject:
		for _, key := range unionKeys(a, b) {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			left, inA := a.Get(key)
			right, inB := b.Get(key)
			switch {
			case !inA:
				*out = append(*out, models.Difference{
					Path:    childPath,
					Kind:    models.DiffMissingInFirst,
					Message: "Missing in first JSON",
				})
			case !inB:
				*out = append(*out, models.Difference{
					Path:    childPath,
					Kind:    models.DiffMissingInSecond,
					Message: "Missing in second JSON",
				})
			default:
				compare(left, right, childPath, out)
			}
		}
	default:
		if !a.Equal(b) {
			*out = append(*out, models.Difference{
				Path:    label(path),
				Kind:    models.DiffValueMismatch,
				Message: fmt.Sprintf("Value: %q vs %q", a.Scalar(), b.Scalar()),
			})
		}
	}
}

// unionKeys lists a's keys, then the keys that only b has, each once.
func unionKeys(a, b models.Value) []string {
	seen := make(map[string]struct{}, len(a.Members)+len(b.Members))
	keys := make([]string, 0, len(a.Members)+len(b.Members))
	for _, v := range []models.Value{a, b} {
		for _, m := range v.Members {
			if _, ok := seen[m.Key]; ok {
				continue
			}
			seen[m.Key] = struct{}{}
			keys = append(keys, m.Key)
		}
	}
	return keys
}

func label(path string) string {
	if path == "" {
		return RootPath
	}
	return path
}
