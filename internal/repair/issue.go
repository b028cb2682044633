package repair

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/mcncl/jsonmend/internal/errors"
)

// Pass names one step of the repair pipeline. Passes can be switched off by
// name through configuration.
type Pass string

const (
	PassByteOrderMark       Pass = "byte_order_mark"
	PassComments            Pass = "comments"
	PassTrailingCommas      Pass = "trailing_commas"
	PassSingleQuotes        Pass = "single_quotes"
	PassUnquotedKeys        Pass = "unquoted_keys"
	PassLiterals            Pass = "literals"
	PassEmptyValues         Pass = "empty_values"
	PassMissingCommas       Pass = "missing_commas"
	PassUnterminatedStrings Pass = "unterminated_strings"
	PassBrackets            Pass = "brackets"
	PassStructural          Pass = "structural"
	PassFallback            Pass = "fallback"
)

var allPasses = []Pass{
	PassByteOrderMark,
	PassComments,
	PassTrailingCommas,
	PassSingleQuotes,
	PassUnquotedKeys,
	PassLiterals,
	PassEmptyValues,
	PassMissingCommas,
	PassUnterminatedStrings,
	PassBrackets,
	PassStructural,
	PassFallback,
}

// Passes returns every pass name in pipeline order.
func Passes() []Pass {
	return append([]Pass(nil), allPasses...)
}

// ParsePass accepts a pass name in any common casing, such as
// "trailing-commas", "TrailingCommas" or "trailing_commas".
func ParsePass(name string) (Pass, error) {
	p := Pass(strcase.ToSnake(strings.TrimSpace(name)))
	for _, known := range allPasses {
		if p == known {
			return p, nil
		}
	}
	names := make([]string, len(allPasses))
	for i, known := range allPasses {
		names[i] = string(known)
	}
	sort.Strings(names)
	return "", errors.NewConfigError(
		fmt.Sprintf("unknown repair pass %q (known: %s)", name, strings.Join(names, ", ")),
		nil,
	)
}

// IssueKind is a category of fix recorded in the issue log.
type IssueKind string

const (
	IssueByteOrderMark        IssueKind = "byte_order_mark"
	IssueComments             IssueKind = "comments"
	IssueTrailingCommas       IssueKind = "trailing_commas"
	IssueExtraCommas          IssueKind = "extra_commas"
	IssueSingleQuotes         IssueKind = "single_quotes"
	IssueUnquotedKeys         IssueKind = "unquoted_keys"
	IssueJSLiterals           IssueKind = "javascript_literals"
	IssuePythonLiterals       IssueKind = "python_literals"
	IssueEmptyValues          IssueKind = "empty_values"
	IssueMissingCommas        IssueKind = "missing_commas"
	IssueUnterminatedStrings  IssueKind = "unterminated_strings"
	IssueExtraClosingBraces   IssueKind = "extra_closing_braces"
	IssueExtraClosingBrackets IssueKind = "extra_closing_brackets"
	IssueMissingClosingBraces IssueKind = "missing_closing_braces"
	IssueMissingClosingBracks IssueKind = "missing_closing_brackets"
	IssueWrappedInArray       IssueKind = "wrapped_in_array"
	IssueWrappedInObject      IssueKind = "wrapped_in_object"
	IssueRestructured         IssueKind = "restructured"
	IssueFallback             IssueKind = "fallback"
	IssueGeneric              IssueKind = "generic"
)

// Issue is one entry of the issue log. Count is the number of occurrences
// the pass fixed; only bracket corrections show it in the label.
type Issue struct {
	Kind  IssueKind
	Count int
}

// String returns the human-readable label of the issue.
func (i Issue) String() string {
	switch i.Kind {
	case IssueByteOrderMark:
		return "byte order mark removed"
	case IssueComments:
		return "comments removed"
	case IssueTrailingCommas:
		return "trailing commas removed"
	case IssueExtraCommas:
		return "extra commas removed"
	case IssueSingleQuotes:
		return "single quotes converted to double quotes"
	case IssueUnquotedKeys:
		return "unquoted keys quoted"
	case IssueJSLiterals:
		return "undefined, NaN and Infinity replaced with null"
	case IssuePythonLiterals:
		return "Python literals converted"
	case IssueEmptyValues:
		return "empty values replaced with null"
	case IssueMissingCommas:
		return "missing commas added"
	case IssueUnterminatedStrings:
		return "unterminated strings closed"
	case IssueExtraClosingBraces:
		return counted(i.Count, "extra closing brace", "removed")
	case IssueExtraClosingBrackets:
		return counted(i.Count, "extra closing bracket", "removed")
	case IssueMissingClosingBraces:
		return counted(i.Count, "missing closing brace", "added")
	case IssueMissingClosingBracks:
		return counted(i.Count, "missing closing bracket", "added")
	case IssueWrappedInArray:
		return "top-level values wrapped in an array"
	case IssueWrappedInObject:
		return "top-level members wrapped in an object"
	case IssueRestructured:
		return "structure normalized"
	case IssueFallback:
		return "repaired by the fallback repairer"
	default:
		return "JSON fixed"
	}
}

func counted(n int, noun, verb string) string {
	if n != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s %s", n, noun, verb)
}

// issueLog keeps at most one entry per kind, in the order kinds first appear.
type issueLog struct {
	issues []Issue
}

func (l *issueLog) add(kind IssueKind, count int) {
	if count <= 0 {
		return
	}
	for i := range l.issues {
		if l.issues[i].Kind == kind {
			l.issues[i].Count += count
			return
		}
	}
	l.issues = append(l.issues, Issue{Kind: kind, Count: count})
}

func (l *issueLog) list() []Issue {
	return append([]Issue(nil), l.issues...)
}

// Labels returns the label of every issue in order.
func Labels(issues []Issue) []string {
	labels := make([]string, len(issues))
	for i, issue := range issues {
		labels[i] = issue.String()
	}
	return labels
}
