package repair

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder runes from the Unicode private use area. String literals are
// replaced by `"` + litOpen + index + litClose + `"`, comments by
// cmtOpen + index + cmtClose, where index is hex digits shifted to digitBase.
const (
	litOpen   = '\uE000'
	litClose  = '\uE001'
	cmtOpen   = '\uE002'
	cmtClose  = '\uE003'
	digitBase = '\uE010'
)

const (
	tokenPattern   = `"\x{E000}[\x{E010}-\x{E01F}]+\x{E001}"`
	commentPattern = `\x{E002}[\x{E010}-\x{E01F}]+\x{E003}`
)

var (
	tokenRegex   = regexp.MustCompile(tokenPattern)
	commentRegex = regexp.MustCompile(commentPattern)
	hexEscape    = regexp.MustCompile(`\\x([0-9A-Fa-f]{2})`)
)

// literal is one string literal lifted out of the source text.
type literal struct {
	raw        string // source text including quotes
	single     bool   // delimited by single quotes
	terminated bool   // closing quote found before end of line
}

// document is source text with string literals and comments masked out, so
// every rewrite only ever sees code.
type document struct {
	text     string
	literals []literal
	comments []string
}

// renderOptions controls how masked spans are restored.
type renderOptions struct {
	convertSingle     bool
	closeUnterminated bool
	keepComments      bool
	fixEscapes        bool
}

// lex splits src into code, string literals and comments. A double-quoted
// string ends at its closing quote or at the end of the line. A single quote
// opens a string only when a matching quote follows on the same line. A
// double slash right after a colon is a URL scheme, not a comment.
func lex(src string) *document {
	d := &document{}
	var code strings.Builder
	runes := []rune(src)
	n := len(runes)

	for i := 0; i < n; {
		r := runes[i]
		switch {
		case r == '"':
			end, terminated := scanString(runes, i, '"')
			code.WriteString(d.addLiteral(literal{raw: string(runes[i:end]), terminated: terminated}))
			i = end
		case r == '\'':
			end, terminated := scanString(runes, i, '\'')
			if !terminated {
				code.WriteRune(r)
				i++
				continue
			}
			code.WriteString(d.addLiteral(literal{raw: string(runes[i:end]), single: true, terminated: true}))
			i = end
		case r == '/' && i+1 < n && runes[i+1] == '/' && (i == 0 || runes[i-1] != ':'):
			end := i + 2
			for end < n && runes[end] != '\n' {
				end++
			}
			code.WriteString(d.addComment(string(runes[i:end])))
			i = end
		case r == '/' && i+1 < n && runes[i+1] == '*':
			end := i + 2
			for end < n && !(runes[end] == '*' && end+1 < n && runes[end+1] == '/') {
				end++
			}
			if end < n {
				end += 2
			}
			code.WriteString(d.addComment(string(runes[i:end])))
			i = end
		default:
			code.WriteRune(r)
			i++
		}
	}

	d.text = code.String()
	return d
}

// scanString returns the index just past the string starting at runes[start]
// and whether its closing quote was found.
func scanString(runes []rune, start int, quote rune) (int, bool) {
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if i+1 < len(runes) && runes[i+1] != '\n' {
				i++
			}
		case '\n':
			return i, false
		case quote:
			return i + 1, true
		}
	}
	return len(runes), false
}

func (d *document) addLiteral(l literal) string {
	d.literals = append(d.literals, l)
	return `"` + string(litOpen) + encodeIndex(len(d.literals)-1) + string(litClose) + `"`
}

func (d *document) addComment(c string) string {
	d.comments = append(d.comments, c)
	return string(cmtOpen) + encodeIndex(len(d.comments)-1) + string(cmtClose)
}

func (d *document) clone() *document {
	return &document{
		text:     d.text,
		literals: append([]literal(nil), d.literals...),
		comments: append([]string(nil), d.comments...),
	}
}

// hasUnterminated reports whether any string literal lacks its closing quote.
func (d *document) hasUnterminated() bool {
	for _, l := range d.literals {
		if !l.terminated {
			return true
		}
	}
	return false
}

// hasSingleQuoted reports whether any string literal in code uses single quotes.
func (d *document) hasSingleQuoted() bool {
	for _, m := range tokenRegex.FindAllString(d.text, -1) {
		if i, ok := decodeIndex(m[1 : len(m)-1]); ok && i < len(d.literals) && d.literals[i].single {
			return true
		}
	}
	return false
}

// render restores masked spans into plain text.
func (d *document) render(opts renderOptions) string {
	out := tokenRegex.ReplaceAllStringFunc(d.text, func(tok string) string {
		i, ok := decodeIndex(tok[1 : len(tok)-1])
		if !ok || i >= len(d.literals) {
			return tok
		}
		return d.literals[i].render(opts)
	})
	return commentRegex.ReplaceAllStringFunc(out, func(tok string) string {
		if !opts.keepComments {
			return ""
		}
		i, ok := decodeIndex(tok)
		if !ok || i >= len(d.comments) {
			return tok
		}
		return d.comments[i]
	})
}

func (l literal) render(opts renderOptions) string {
	raw := l.raw
	if l.single {
		if !opts.convertSingle {
			return raw
		}
		raw = singleToDouble(raw)
	} else if !l.terminated && opts.closeUnterminated {
		raw = closeString(raw)
	}
	if opts.fixEscapes {
		raw = hexEscape.ReplaceAllString(raw, `\u00$1`)
	}
	return raw
}

// singleToDouble rewrites a single-quoted literal as a JSON string: escaped
// single quotes lose their backslash and bare double quotes gain one.
func singleToDouble(raw string) string {
	body := []rune(raw[1 : len(raw)-1])
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			if i+1 < len(body) && body[i+1] == '\'' {
				sb.WriteRune('\'')
				i++
				continue
			}
			sb.WriteRune('\\')
			if i+1 < len(body) {
				sb.WriteRune(body[i+1])
				i++
			}
		case '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteRune(body[i])
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// closeString appends the missing closing quote, dropping a dangling escape.
func closeString(raw string) string {
	trailing := len(raw) - len(strings.TrimRight(raw, `\`))
	if trailing%2 == 1 {
		raw = raw[:len(raw)-1]
	}
	return raw + `"`
}

func encodeIndex(i int) string {
	hex := strconv.FormatInt(int64(i), 16)
	var sb strings.Builder
	for _, c := range hex {
		v := c - '0'
		if c >= 'a' {
			v = c - 'a' + 10
		}
		sb.WriteRune(digitBase + v)
	}
	return sb.String()
}

// decodeIndex reads the index out of a placeholder body, sentinels included.
func decodeIndex(tok string) (int, bool) {
	i := 0
	digits := 0
	for _, r := range tok {
		if r >= digitBase && r < digitBase+16 {
			i = i*16 + int(r-digitBase)
			digits++
		}
	}
	return i, digits > 0
}
