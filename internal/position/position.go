// Package position maps parser failure locations back to 1-based line and
// column numbers inside the original text.
//
// Parsers report locations in two styles: a raw character offset, or a
// "line N, column M" phrase inside the message. Resolve handles the first,
// FromMessage recognizes both.
package position

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/mcncl/jsonmend/internal/models"
)

var (
	lineRegex     = regexp.MustCompile(`(?i)\bline\s*:?\s*(\d+)`)
	columnRegex   = regexp.MustCompile(`(?i)\b(?:column|col)\s*:?\s*(\d+)`)
	positionRegex = regexp.MustCompile(`(?i)\b(?:position|offset|char(?:acter)?)\s*:?\s*(\d+)`)
	pairRegex     = regexp.MustCompile(`\((\d+):(\d+)\)`)
)

// Resolve converts a character offset into a line/column pair. Line is one
// plus the number of newlines before offset; column counts characters since
// the start of that line, starting at 1. Offsets outside the text are clamped.
func Resolve(text string, offset int) models.Position {
	if offset < 0 {
		offset = 0
	}

	line, column := 1, 1
	i := 0
	for _, r := range text {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			column = 1
		} else {
			column++
		}
		i++
	}
	return models.Position{Line: line, Column: column}
}

// ResolveByte is Resolve for a byte offset, as reported by encoding/json.
func ResolveByte(text string, byteOffset int) models.Position {
	return Resolve(text, RuneOffset(text, byteOffset))
}

// RuneOffset converts a byte offset in text into a character offset.
func RuneOffset(text string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(text) {
		byteOffset = len(text)
	}
	return utf8.RuneCountInString(text[:byteOffset])
}

// FromMessage extracts a location from a free-text error message. An explicit
// line (and optional column) wins over a raw position; a raw position alone is
// resolved against text. It returns false when the message names no location.
func FromMessage(text, message string) (models.Position, bool) {
	if m := pairRegex.FindStringSubmatch(message); m != nil {
		return models.Position{Line: atoi(m[1]), Column: atoi(m[2])}, true
	}

	lineMatch := lineRegex.FindStringSubmatch(message)
	columnMatch := columnRegex.FindStringSubmatch(message)
	positionMatch := positionRegex.FindStringSubmatch(message)

	if lineMatch == nil && columnMatch == nil && positionMatch == nil {
		return models.Position{}, false
	}

	if lineMatch == nil && positionMatch != nil {
		return Resolve(text, atoi(positionMatch[1])), true
	}

	pos := models.Position{Line: 1, Column: 1}
	if lineMatch != nil {
		pos.Line = atoi(lineMatch[1])
	}
	if columnMatch != nil {
		pos.Column = atoi(columnMatch[1])
	}
	return pos, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
