package repair

import (
	"regexp"
	"strings"
)

// compile builds a pattern in which TOK matches any masked string literal.
func compile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(pattern, "TOK", tokenPattern))
}

var (
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	repeatedComma = regexp.MustCompile(`,(\s*,)+`)
	leadingComma  = regexp.MustCompile(`([{\[])(\s*),`)

	keyAfterDelim = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)(\s*:)`)
	keyAtLine     = regexp.MustCompile(`(?m)^([ \t]*)([A-Za-z_$][A-Za-z0-9_$]*)([ \t]*:)`)

	negInfinity = regexp.MustCompile(`-\s*Infinity\b`)
	infinity    = regexp.MustCompile(`\bInfinity\b`)
	undefined   = regexp.MustCompile(`(?i)\bundefined\b`)
	notANumber  = regexp.MustCompile(`(?i)\bNaN\b`)
	pyNone      = regexp.MustCompile(`\bNone\b`)
	pyTrue      = regexp.MustCompile(`\bTrue\b`)
	pyFalse     = regexp.MustCompile(`\bFalse\b`)

	emptyValue    = regexp.MustCompile(`:(\s*)([,}\]])`)
	danglingColon = regexp.MustCompile(`:(\s*)$`)

	// A value that ends with a string or closer, directly followed by the
	// start of another value.
	commaAfterClose = compile(`(TOK|[}\]])(\s*)(TOK|[{\[]|-?\d|\b(?:true|false|null)\b)`)

	// A scalar, whitespace, then the start of another value.
	commaAfterScalar = compile(`(\d|\b(?:true|false|null)\b)(\s+)(TOK|[{\[]|-?\d|\b(?:true|false|null)\b)`)

	whitespaceRun = regexp.MustCompile(`\s+`)

	// A string literal, or a run of bare words that may contain spaces.
	valueAtom = compile(`TOK|[^\s{}\[\],:"]+(?:[ \t]+[^\s{}\[\],:"]+)*`)
)

// replaceAllSubmatchFunc is ReplaceAllStringFunc with access to the groups.
func replaceAllSubmatchFunc(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m[0]])
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = s[m[2*i]:m[2*i+1]]
			}
		}
		sb.WriteString(fn(groups))
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// fixedPoint applies fn until the text stops changing and returns the number
// of rounds that changed it.
func fixedPoint(s string, fn func(string) string) (string, int) {
	rounds := 0
	for i := 0; i <= len(s); i++ {
		next := fn(s)
		if next == s {
			break
		}
		s = next
		rounds++
	}
	return s, rounds
}

// stripComments removes every masked comment.
func (d *document) stripComments() int {
	n := len(commentRegex.FindAllStringIndex(d.text, -1))
	if n > 0 {
		d.text = commentRegex.ReplaceAllString(d.text, "")
	}
	return n
}

// removeTrailingCommas drops commas that directly precede a closer, repeating
// until none remain.
func (d *document) removeTrailingCommas() int {
	removed := 0
	d.text, _ = fixedPoint(d.text, func(s string) string {
		removed += len(trailingComma.FindAllStringIndex(s, -1))
		return trailingComma.ReplaceAllString(s, "$1")
	})
	return removed
}

// removeExtraCommas collapses runs of commas into one and drops commas that
// directly follow an opener.
func (d *document) removeExtraCommas() int {
	removed := 0
	d.text, _ = fixedPoint(d.text, func(s string) string {
		for _, m := range repeatedComma.FindAllString(s, -1) {
			removed += strings.Count(m, ",") - 1
		}
		s = repeatedComma.ReplaceAllString(s, ",")
		removed += len(leadingComma.FindAllStringIndex(s, -1))
		return leadingComma.ReplaceAllString(s, "$1$2")
	})
	return removed
}

// quoteKeys wraps bare identifiers used as object keys in double quotes. The
// new keys become masked literals so later passes treat them as strings.
func (d *document) quoteKeys() int {
	quoted := 0
	quote := func(g []string) string {
		quoted++
		return g[1] + d.addLiteral(literal{raw: `"` + g[2] + `"`, terminated: true}) + g[3]
	}
	d.text = replaceAllSubmatchFunc(keyAfterDelim, d.text, quote)
	d.text = replaceAllSubmatchFunc(keyAtLine, d.text, quote)
	return quoted
}

// replaceJSLiterals turns undefined, NaN and the infinities into null.
func (d *document) replaceJSLiterals() int {
	n := 0
	for _, re := range []*regexp.Regexp{negInfinity, infinity, undefined, notANumber} {
		n += len(re.FindAllStringIndex(d.text, -1))
		d.text = re.ReplaceAllString(d.text, "null")
	}
	return n
}

// replacePythonLiterals lowercases None, True and False into their JSON forms.
func (d *document) replacePythonLiterals() int {
	n := 0
	for _, r := range []struct {
		re   *regexp.Regexp
		with string
	}{{pyNone, "null"}, {pyTrue, "true"}, {pyFalse, "false"}} {
		n += len(r.re.FindAllStringIndex(d.text, -1))
		d.text = r.re.ReplaceAllString(d.text, r.with)
	}
	return n
}

// fillEmptyValues puts null after a colon that has no value.
func (d *document) fillEmptyValues() int {
	n := len(emptyValue.FindAllStringIndex(d.text, -1))
	d.text = emptyValue.ReplaceAllString(d.text, ":${1}null$2")
	if danglingColon.MatchString(d.text) {
		d.text = danglingColon.ReplaceAllString(d.text, ": null")
		n++
	}
	return n
}

// insertMissingCommas separates adjacent values that have nothing between them
// but whitespace.
func (d *document) insertMissingCommas() int {
	inserted := 0
	d.text, _ = fixedPoint(d.text, func(s string) string {
		for _, re := range []*regexp.Regexp{commaAfterClose, commaAfterScalar} {
			inserted += len(re.FindAllStringIndex(s, -1))
			s = re.ReplaceAllString(s, "$1,$2$3")
		}
		return s
	})
	return inserted
}

// balance holds the bracket corrections made by balanceBrackets.
type balance struct {
	extraBraces, extraBrackets     int
	missingBraces, missingBrackets int
}

func (b balance) changed() bool {
	return b.extraBraces+b.extraBrackets+b.missingBraces+b.missingBrackets > 0
}

// balanceBrackets removes surplus closers starting from the right, then
// appends missing closers in the order the open containers require.
func (d *document) balanceBrackets() balance {
	var b balance
	count := func(r rune) int { return strings.Count(d.text, string(r)) }

	if extra := count('}') - count('{'); extra > 0 {
		d.text = removeRightmost(d.text, '}', extra)
		b.extraBraces = extra
	}
	if extra := count(']') - count('['); extra > 0 {
		d.text = removeRightmost(d.text, ']', extra)
		b.extraBrackets = extra
	}

	needBraces := count('{') - count('}')
	needBrackets := count('[') - count(']')
	if needBraces <= 0 && needBrackets <= 0 {
		return b
	}

	var closers strings.Builder
	stack := openStack(d.text)
	for i := len(stack) - 1; i >= 0; i-- {
		switch {
		case stack[i] == '{' && needBraces > 0:
			closers.WriteByte('}')
			needBraces--
			b.missingBraces++
		case stack[i] == '[' && needBrackets > 0:
			closers.WriteByte(']')
			needBrackets--
			b.missingBrackets++
		}
	}
	for ; needBraces > 0; needBraces-- {
		closers.WriteByte('}')
		b.missingBraces++
	}
	for ; needBrackets > 0; needBrackets-- {
		closers.WriteByte(']')
		b.missingBrackets++
	}

	d.text = strings.TrimRightFunc(d.text, isSpace) + closers.String()
	return b
}

// openStack returns the containers still open at the end of s, outermost first.
func openStack(s string) []rune {
	var stack []rune
	for _, r := range s {
		switch r {
		case '{', '[':
			stack = append(stack, r)
		case '}', ']':
			want := '{'
			if r == ']' {
				want = '['
			}
			if len(stack) > 0 && stack[len(stack)-1] == want {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack
}

func removeRightmost(s string, r rune, n int) string {
	for ; n > 0; n-- {
		i := strings.LastIndexByte(s, byte(r))
		if i < 0 {
			break
		}
		s = s[:i] + s[i+1:]
	}
	return s
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// wrap encloses a bare top-level sequence. Text with a colon outside any
// container becomes an object, otherwise text with a comma becomes an array.
// Text that opens with a container is only ever wrapped in an array, so
// several root values separated by commas are all kept.
// It returns "object", "array" or "" when nothing was done.
func (d *document) wrap() string {
	trimmed := strings.TrimSpace(d.text)
	if trimmed == "" {
		return ""
	}
	colon, comma := topLevelSeparators(trimmed)
	container := strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
	switch {
	case container && comma:
		d.text = "[" + trimmed + "]"
		return "array"
	case container:
		return ""
	case colon:
		d.text = "{" + trimmed + "}"
		return "object"
	case comma:
		d.text = "[" + trimmed + "]"
		return "array"
	}
	return ""
}

func topLevelSeparators(s string) (colon, comma bool) {
	depth := 0
	for _, r := range s {
		switch r {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case ':':
			colon = colon || depth == 0
		case ',':
			comma = comma || depth == 0
		}
	}
	return colon, comma
}

// collapseWhitespace squeezes every run of whitespace in code to one space.
func (d *document) collapseWhitespace() bool {
	next := strings.TrimSpace(whitespaceRun.ReplaceAllString(d.text, " "))
	changed := next != d.text
	d.text = next
	return changed
}
