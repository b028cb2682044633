// Package repair turns almost-JSON into strict JSON. Input runs through a fixed
// sequence of rewrite passes. String literals and comments are masked out
// first, so no pass can alter text inside a string.
package repair

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mcncl/jsonmend/internal/formatter"
	"github.com/mcncl/jsonmend/internal/logging"
	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
)

const byteOrderMark = "\uFEFF"

// Result is the outcome of one repair run. On success Value and Formatted
// hold the repaired document. On failure PartialText is the best text the
// passes produced, or empty when they changed nothing.
type Result struct {
	Success     bool
	Value       models.Value
	Formatted   string
	Issues      []Issue
	PartialText string
	Error       string
	SyntaxError *parser.SyntaxError
}

// Options configures a Repairer.
type Options struct {
	Indent   models.IndentSpec
	Disabled []Pass
	// Fallback is tried when the built-in passes fail. Nil disables it.
	Fallback Fallback
	Logger   *log.Logger
}

// Repairer runs the repair pipeline. It holds no per-run state and is safe
// for concurrent use.
type Repairer struct {
	indent   models.IndentSpec
	disabled map[Pass]bool
	fallback Fallback
	logger   *log.Logger
}

// NewRepairer creates a Repairer from opts.
func NewRepairer(opts Options) *Repairer {
	disabled := make(map[Pass]bool, len(opts.Disabled))
	for _, p := range opts.Disabled {
		disabled[p] = true
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Repairer{
		indent:   opts.Indent,
		disabled: disabled,
		fallback: opts.Fallback,
		logger:   logger,
	}
}

// Repair runs the default pipeline, including the library fallback.
func Repair(text string, indent models.IndentSpec) Result {
	return NewRepairer(Options{Indent: indent, Fallback: LibraryFallback{}}).Repair(text)
}

func (r *Repairer) enabled(p Pass) bool {
	return !r.disabled[p]
}

func (r *Repairer) render(d *document) string {
	return d.render(renderOptions{
		convertSingle:     r.enabled(PassSingleQuotes),
		closeUnterminated: r.enabled(PassUnterminatedStrings),
		keepComments:      !r.enabled(PassComments),
	})
}

// Repair attempts to turn text into strict JSON. It never panics and never
// returns an error; failure is reported through the Result.
func (r *Repairer) Repair(text string) Result {
	if value, err := parser.ParseString(text); err == nil {
		return r.success(value, nil)
	}

	var issues issueLog
	work := text
	if r.enabled(PassByteOrderMark) && strings.HasPrefix(work, byteOrderMark) {
		work = strings.TrimPrefix(work, byteOrderMark)
		issues.add(IssueByteOrderMark, 1)
	}
	if strings.TrimSpace(work) == "" {
		r.logger.Debug("nothing to repair")
		return Result{Issues: issues.list(), Error: "nothing to repair: input is empty"}
	}

	d := lex(work)
	if d.hasUnterminated() && r.enabled(PassUnterminatedStrings) {
		issues.add(IssueUnterminatedStrings, 1)
	}
	r.runPasses(d, &issues)

	fixed := r.render(d)
	value, err := parser.ParseString(fixed)
	if err == nil {
		r.logger.Debug("repaired by rewrite passes", "issues", len(issues.issues))
		return r.success(value, r.finish(&issues, text, fixed))
	}
	r.logger.Debug("rewrite passes left invalid JSON", "error", err)

	if r.enabled(PassStructural) {
		if res, ok := r.restructure(d, &issues, text); ok {
			return res
		}
	}

	if r.fallback != nil && r.enabled(PassFallback) {
		if res, ok := r.tryFallback(&issues, text, fixed, work); ok {
			return res
		}
	}

	return r.failure(&issues, text, fixed, err)
}

// runPasses applies the rewrite passes to d in pipeline order.
func (r *Repairer) runPasses(d *document, issues *issueLog) {
	step := func(p Pass, kind IssueKind, fn func() int) {
		if !r.enabled(p) {
			return
		}
		n := fn()
		r.logger.Debug("pass", "name", p, "changes", n)
		issues.add(kind, n)
	}

	step(PassComments, IssueComments, d.stripComments)
	step(PassTrailingCommas, IssueTrailingCommas, d.removeTrailingCommas)
	step(PassTrailingCommas, IssueExtraCommas, d.removeExtraCommas)
	if r.enabled(PassSingleQuotes) && d.hasSingleQuoted() {
		issues.add(IssueSingleQuotes, 1)
	}
	step(PassUnquotedKeys, IssueUnquotedKeys, d.quoteKeys)
	step(PassLiterals, IssueJSLiterals, d.replaceJSLiterals)
	step(PassLiterals, IssuePythonLiterals, d.replacePythonLiterals)
	step(PassEmptyValues, IssueEmptyValues, d.fillEmptyValues)
	step(PassMissingCommas, IssueMissingCommas, d.insertMissingCommas)

	if r.enabled(PassBrackets) {
		b := d.balanceBrackets()
		r.logger.Debug("pass", "name", PassBrackets, "balance", fmt.Sprintf("%+v", b))
		issues.add(IssueExtraClosingBraces, b.extraBraces)
		issues.add(IssueExtraClosingBrackets, b.extraBrackets)
		issues.add(IssueMissingClosingBraces, b.missingBraces)
		issues.add(IssueMissingClosingBracks, b.missingBrackets)
		if b.changed() {
			// Closing a truncated document can expose a comma or colon
			// left hanging before the new closer.
			step(PassTrailingCommas, IssueTrailingCommas, d.removeTrailingCommas)
			step(PassEmptyValues, IssueEmptyValues, d.fillEmptyValues)
		}
	}
}

// restructure is the escalation step: wrap bare top-level sequences, collapse
// whitespace and normalize \x escapes, then parse again.
func (r *Repairer) restructure(d *document, issues *issueLog, original string) (Result, bool) {
	c := d.clone()
	wrapped := c.wrap()
	if wrapped != "" && r.enabled(PassTrailingCommas) {
		c.removeTrailingCommas()
	}
	c.collapseWhitespace()

	text := c.render(renderOptions{
		convertSingle:     r.enabled(PassSingleQuotes),
		closeUnterminated: r.enabled(PassUnterminatedStrings),
		keepComments:      !r.enabled(PassComments),
		fixEscapes:        true,
	})
	value, err := parser.ParseString(text)
	if err != nil {
		r.logger.Debug("restructuring failed", "error", err)
		return Result{}, false
	}

	switch wrapped {
	case "array":
		issues.add(IssueWrappedInArray, 1)
	case "object":
		issues.add(IssueWrappedInObject, 1)
	}
	issues.add(IssueRestructured, 1)
	r.logger.Debug("repaired by restructuring", "wrapped", wrapped)
	return r.success(value, r.finish(issues, original, text)), true
}

// tryFallback hands the partially fixed text, then the untouched input, to
// the fallback repairer. Output that drops values the candidate held is
// rejected.
func (r *Repairer) tryFallback(issues *issueLog, original, fixed, work string) (Result, bool) {
	for _, candidate := range []string{fixed, work} {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		out, err := r.fallback.Repair(candidate)
		if err != nil {
			r.logger.Debug("fallback failed", "repairer", r.fallback.Name(), "error", err)
			continue
		}
		value, err := parser.ParseString(out)
		if err != nil {
			r.logger.Debug("fallback output is not valid JSON", "repairer", r.fallback.Name(), "error", err)
			continue
		}
		if want, got := countValues(candidate), countLeaves(value); want == 0 || got < want {
			r.logger.Debug("fallback output lost values", "repairer", r.fallback.Name(), "want", want, "got", got)
			continue
		}
		issues.add(IssueFallback, 1)
		return r.success(value, r.finish(issues, original, out)), true
	}
	return Result{}, false
}

// countValues counts the scalar values written in text: string literals and
// runs of bare words or numbers, leaving out anything used as an object key.
// Words separated only by spaces count once.
func countValues(text string) int {
	d := lex(text)
	code := commentRegex.ReplaceAllString(d.text, "")
	n := 0
	for _, m := range valueAtom.FindAllStringIndex(code, -1) {
		if !strings.HasPrefix(strings.TrimLeft(code[m[1]:], " \t\r\n"), ":") {
			n++
		}
	}
	return n
}

// countLeaves counts the scalars in v.
func countLeaves(v models.Value) int {
	switch v.Kind {
	case models.KindArray:
		n := 0
		for _, item := range v.Items {
			n += countLeaves(item)
		}
		return n
	case models.KindObject:
		n := 0
		for _, m := range v.Members {
			n += countLeaves(m.Value)
		}
		return n
	}
	return 1
}

// finish returns the issue log, adding a generic entry when the text changed
// without any pass claiming it.
func (r *Repairer) finish(issues *issueLog, original, repaired string) []Issue {
	if len(issues.issues) == 0 && original != repaired {
		issues.add(IssueGeneric, 1)
	}
	return issues.list()
}

func (r *Repairer) success(value models.Value, issues []Issue) Result {
	return Result{
		Success:   true,
		Value:     value,
		Formatted: formatter.Format(value, r.indent),
		Issues:    issues,
	}
}

func (r *Repairer) failure(issues *issueLog, original, fixed string, err error) Result {
	res := Result{Issues: issues.list()}
	syntaxErr, _ := err.(*parser.SyntaxError)
	res.SyntaxError = syntaxErr

	switch {
	case strings.TrimSpace(fixed) == "":
		res.Error = "nothing to repair: input holds no JSON value"
	case fixed != original:
		res.PartialText = fixed
		res.Error = fmt.Sprintf("partially repaired, manual correction required: %v", err)
	default:
		res.Error = fmt.Sprintf("automatic repair failed: %v", err)
	}
	r.logger.Debug("repair failed", "partial", res.PartialText != "", "error", err)
	return res
}
