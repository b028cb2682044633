package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/mcncl/jsonmend/internal/models"
)

// StringFormat is a well-known shape a string value can take.
type StringFormat string

const (
	FormatUUID      StringFormat = "uuid"
	FormatDateTime  StringFormat = "date-time"
	FormatDate      StringFormat = "date"
	FormatUnixTime  StringFormat = "unix-time"
	FormatEmail     StringFormat = "email"
	FormatURL       StringFormat = "url"
	FormatNumericID StringFormat = "numeric"
)

// Regex patterns for special string formats
var (
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// Time format patterns (ordered by specificity - most specific first)
	rfc3339Regex       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)
	iso8601Regex       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?([+-]\d{2}:\d{2}|Z|[+-]\d{4})?$`)
	dateTimeRegex      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`)
	dateOnlyRegex      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	unixTimestampRegex = regexp.MustCompile(`^1[0-9]{9}$`)  // seconds since 1970
	unixMilliRegex     = regexp.MustCompile(`^1[0-9]{12}$`) // milliseconds

	emailRegex   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	urlRegex     = regexp.MustCompile(`^https?://\S+$`)
	numericRegex = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// Stats summarizes a document: its text metrics and the shape of its value.
type Stats struct {
	Lines      int
	Characters int
	Bytes      int
	Size       string

	Kinds    map[models.Kind]int
	Members  int
	MaxDepth int
	Formats  map[StringFormat]int
}

// Analyzer collects Stats.
type Analyzer struct {
	detectFormats bool
}

// NewAnalyzer creates a new Analyzer that also classifies string formats.
func NewAnalyzer() *Analyzer {
	return &Analyzer{detectFormats: true}
}

// NewTextAnalyzer creates an Analyzer that skips string format detection.
func NewTextAnalyzer() *Analyzer {
	return &Analyzer{}
}

// TextStats measures text alone. Lines counts newline-separated segments,
// so an empty text has one line.
func TextStats(text string) Stats {
	return Stats{
		Lines:      strings.Count(text, "\n") + 1,
		Characters: utf8.RuneCountInString(text),
		Bytes:      len(text),
		Size:       humanize.Bytes(uint64(len(text))),
		Kinds:      map[models.Kind]int{},
		Formats:    map[StringFormat]int{},
	}
}

// Analyze measures text and walks value, the parsed form of text.
func (a *Analyzer) Analyze(text string, value models.Value) Stats {
	stats := TextStats(text)
	stats.MaxDepth = a.walk(value, 0, &stats)
	return stats
}

// walk counts value and its descendants and returns the deepest container
// nesting below depth. Scalars sit at the depth of their container.
func (a *Analyzer) walk(value models.Value, depth int, stats *Stats) int {
	stats.Kinds[value.Kind]++
	deepest := depth
	switch value.Kind {
	case models.KindArray:
		deepest = depth + 1
		for _, item := range value.Items {
			deepest = max(deepest, a.walk(item, depth+1, stats))
		}
	case models.KindObject:
		deepest = depth + 1
		stats.Members += len(value.Members)
		for _, m := range value.Members {
			deepest = max(deepest, a.walk(m.Value, depth+1, stats))
		}
	case models.KindString:
		if a.detectFormats {
			if format, ok := DetectFormat(value.Str); ok {
				stats.Formats[format]++
			}
		}
	}
	return deepest
}

// DetectFormat reports the well-known format of s, if any.
func DetectFormat(s string) (StringFormat, bool) {
	switch {
	case uuidRegex.MatchString(s):
		return FormatUUID, true
	case rfc3339Regex.MatchString(s), iso8601Regex.MatchString(s), dateTimeRegex.MatchString(s):
		return FormatDateTime, true
	case dateOnlyRegex.MatchString(s):
		return FormatDate, true
	case unixTimestampRegex.MatchString(s), unixMilliRegex.MatchString(s):
		return FormatUnixTime, true
	case numericRegex.MatchString(s):
		return FormatNumericID, true
	case emailRegex.MatchString(s):
		return FormatEmail, true
	case urlRegex.MatchString(s):
		return FormatURL, true
	}
	return "", false
}

// Values returns the total number of values counted.
func (s Stats) Values() int {
	total := 0
	for _, n := range s.Kinds {
		total += n
	}
	return total
}
