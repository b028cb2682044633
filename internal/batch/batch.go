// Package batch applies one operation to many JSON files concurrently.
package batch

import (
	"context"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcncl/jsonmend/internal/errors"
	"github.com/mcncl/jsonmend/internal/formatter"
	"github.com/mcncl/jsonmend/internal/logging"
	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
	"github.com/mcncl/jsonmend/internal/repair"
)

// Mode is the operation applied to every file.
type Mode string

const (
	ModeFormat   Mode = "format"
	ModeMinify   Mode = "minify"
	ModeValidate Mode = "validate"
	ModeRepair   Mode = "repair"
)

// Options configures a Processor.
type Options struct {
	Mode        Mode
	Indent      models.IndentSpec
	Repair      repair.Options
	Write       bool // rewrite files in place
	Concurrency int
	Logger      *log.Logger
}

// FileResult is the outcome for one file. Err is nil when the operation
// succeeded.
type FileResult struct {
	Path    string
	Output  string
	Issues  []repair.Issue
	Written bool
	Err     error
}

// Processor runs a Mode over a list of files.
type Processor struct {
	opts     Options
	repairer *repair.Repairer
	logger   *log.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(opts Options) *Processor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ropts := opts.Repair
	ropts.Indent = opts.Indent
	if ropts.Logger == nil {
		ropts.Logger = logger
	}
	return &Processor{
		opts:     opts,
		repairer: repair.NewRepairer(ropts),
		logger:   logger,
	}
}

// Expand resolves patterns into file paths. Patterns with glob syntax,
// including **, are matched against the file system; other patterns are
// kept as literal paths. Duplicates are dropped and order is preserved.
func Expand(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			add(pattern)
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.NewInputError(fmt.Sprintf("invalid glob pattern '%s'", pattern), errors.ErrInvalidFilePath)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.NewInputError(fmt.Sprintf("failed to expand '%s'", pattern), err)
		}
		if len(matches) == 0 {
			return nil, errors.NewInputError(fmt.Sprintf("no files match '%s'", pattern), errors.ErrFileNotFound)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return paths, nil
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// Run processes every path and returns one result per path, in input order.
// A failing file does not stop the others. The returned error is non-nil only
// when ctx is cancelled.
func (p *Processor) Run(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processFile(path)
			if results[i].Err != nil {
				p.logger.Warn("file failed", "path", path, "mode", p.opts.Mode, "error", results[i].Err)
			} else {
				p.logger.Debug("file processed", "path", path, "mode", p.opts.Mode, "written", results[i].Written)
			}
			// Per-file errors are recorded, not returned, so one bad file
			// does not cancel the rest.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Processor) processFile(path string) FileResult {
	res := FileResult{Path: path}
	text, err := parser.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}

	switch p.opts.Mode {
	case ModeValidate:
		if _, err := parser.ParseString(text); err != nil {
			res.Err = errors.NewParsingError(fmt.Sprintf("'%s': %v", path, err), err)
		}
		return res
	case ModeFormat, ModeMinify:
		value, err := parser.ParseString(text)
		if err != nil {
			res.Err = errors.NewParsingError(fmt.Sprintf("'%s': %v", path, err), err)
			return res
		}
		if p.opts.Mode == ModeMinify {
			res.Output = formatter.Minify(value)
		} else {
			res.Output = formatter.Format(value, p.opts.Indent)
		}
	case ModeRepair:
		r := p.repairer.Repair(text)
		if !r.Success {
			res.Err = errors.NewRepairError(fmt.Sprintf("'%s': %s", path, r.Error), errors.ErrRepairExhausted)
			return res
		}
		res.Output = r.Formatted
		res.Issues = r.Issues
	default:
		res.Err = errors.NewInputError(fmt.Sprintf("unknown batch mode %q", p.opts.Mode), nil)
		return res
	}

	if p.opts.Write {
		written, err := writeIfChanged(path, text, res.Output+"\n")
		if err != nil {
			res.Err = err
			return res
		}
		res.Written = written
	}
	return res
}

// writeIfChanged replaces the file's content, keeping its permissions, unless
// it already equals content.
func writeIfChanged(path, current, content string) (bool, error) {
	if current == content {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, errors.NewOutputError(fmt.Sprintf("failed to stat '%s'", path), err)
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return false, errors.NewOutputError(fmt.Sprintf("failed to write '%s'", path), err)
	}
	return true, nil
}

// Summary counts successful and failed results.
func Summary(results []FileResult) (ok, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}
