// Package session runs an interactive editing session over a single JSON
// buffer. Commands are read one per line; every command that changes the
// buffer records a snapshot so it can be undone.
package session

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mcncl/jsonmend/internal/analyzer"
	"github.com/mcncl/jsonmend/internal/errors"
	"github.com/mcncl/jsonmend/internal/formatter"
	"github.com/mcncl/jsonmend/internal/history"
	"github.com/mcncl/jsonmend/internal/logging"
	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
	"github.com/mcncl/jsonmend/internal/repair"
	"github.com/mcncl/jsonmend/internal/view"
)

// EndOfPaste ends a paste when it appears alone on a line.
const EndOfPaste = "."

// errQuit stops Run without reporting an error.
var errQuit = stderrors.New("quit")

// Options configures a Session.
type Options struct {
	Indent      models.IndentSpec
	Repair      repair.Options
	HistorySize int
	Theme       view.Theme
	Prompt      string // written before each command; empty disables it
	Logger      *log.Logger
}

type command struct {
	usage string
	help  string
	run   func(s *Session, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"format":   {"format [indent]", "pretty-print the buffer", (*Session).format},
		"minify":   {"minify", "remove all whitespace", (*Session).minify},
		"validate": {"validate", "check the buffer is strict JSON", (*Session).validate},
		"repair":   {"repair", "fix common JSON mistakes", (*Session).repair},
		"undo":     {"undo", "restore the previous buffer", (*Session).undo},
		"redo":     {"redo", "reapply an undone change", (*Session).redo},
		"show":     {"show", "print the buffer", (*Session).show},
		"tree":     {"tree", "print the buffer as a tree", (*Session).tree},
		"preview":  {"preview", "print arrays of objects as a table", (*Session).preview},
		"stats":    {"stats", "print document statistics", (*Session).stats},
		"load":     {"load <path>", "replace the buffer with a file", (*Session).load},
		"paste":    {"paste", "replace the buffer with the following lines, up to a lone " + EndOfPaste, nil},
		"help":     {"help", "list commands", (*Session).help},
		"quit":     {"quit", "leave the session", func(*Session, []string) error { return errQuit }},
	}
	commands["exit"] = commands["quit"]
}

// Session holds the buffer, its undo history and the output writer.
type Session struct {
	out      io.Writer
	history  *history.History
	indent   models.IndentSpec
	repairer *repair.Repairer
	theme    view.Theme
	prompt   string
	logger   *log.Logger
}

// New creates a Session with an empty buffer that writes to out.
func New(out io.Writer, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ropts := opts.Repair
	ropts.Indent = opts.Indent
	return &Session{
		out:      out,
		history:  history.New(opts.HistorySize),
		indent:   opts.Indent,
		repairer: repair.NewRepairer(ropts),
		theme:    opts.Theme,
		prompt:   opts.Prompt,
		logger:   logger,
	}
}

// Load replaces the buffer with text.
func (s *Session) Load(text string) {
	s.set(text)
}

// Buffer returns the current buffer.
func (s *Session) Buffer() string {
	text, _ := s.history.Current()
	return text
}

func (s *Session) set(text string) {
	if s.history.Push(text) {
		s.logger.Debug("buffer updated", "snapshots", s.history.Len())
	}
}

// Run reads commands from in until quit, end of input or cancellation. When
// the buffer is empty, the first lines read are taken as a paste. Command
// failures are printed and do not stop the session.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	pasting := s.history.Len() == 0
	var paste strings.Builder
	if !pasting {
		s.writePrompt()
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()

		if pasting {
			if strings.TrimSpace(line) != EndOfPaste {
				paste.WriteString(line)
				paste.WriteByte('\n')
				continue
			}
			pasting = false
			s.finishPaste(&paste)
			s.writePrompt()
			continue
		}

		if fields := strings.Fields(line); len(fields) > 0 && fields[0] == "paste" {
			pasting = true
			paste.Reset()
			continue
		}

		err := s.Execute(line)
		if err == errQuit {
			return nil
		}
		if err != nil {
			s.println(s.theme.Failure.Render(errors.UserFriendlyError(err)))
		}
		s.writePrompt()
	}
	if err := scanner.Err(); err != nil {
		return errors.NewInputError("failed to read commands", err)
	}
	if pasting {
		s.finishPaste(&paste)
	}
	return nil
}

func (s *Session) finishPaste(paste *strings.Builder) {
	text := strings.TrimSuffix(paste.String(), "\n")
	if strings.TrimSpace(text) == "" {
		s.println(s.theme.Muted.Render("nothing pasted"))
		return
	}
	s.set(text)
	stats := analyzer.TextStats(text)
	s.println(s.theme.Muted.Render(fmt.Sprintf("loaded %d line(s), %s", stats.Lines, stats.Size)))
}

// Execute runs a single command line. Blank lines are ignored.
func (s *Session) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	cmd, ok := commands[name]
	if !ok || cmd.run == nil {
		return errors.NewInputError(fmt.Sprintf("unknown command %q, type help for a list", fields[0]), nil)
	}
	s.logger.Debug("command", "name", name, "args", fields[1:])
	return cmd.run(s, fields[1:])
}

func (s *Session) writePrompt() {
	if s.prompt != "" {
		_, _ = fmt.Fprint(s.out, s.prompt)
	}
}

func (s *Session) println(text string) {
	_, _ = fmt.Fprintln(s.out, text)
}

// parsed parses the buffer, printing the located error on failure.
func (s *Session) parsed() (models.Value, bool) {
	text := s.Buffer()
	value, err := parser.ParseString(text)
	if err != nil {
		var syntaxErr *parser.SyntaxError
		if stderrors.As(err, &syntaxErr) {
			s.println(view.SyntaxError(text, syntaxErr, s.theme))
		} else {
			s.println(s.theme.Failure.Render(err.Error()))
		}
		return models.Value{}, false
	}
	return value, true
}

func (s *Session) format(args []string) error {
	if len(args) > 1 {
		return errors.NewInputError("usage: "+commands["format"].usage, nil)
	}
	if len(args) == 1 {
		indent, err := models.ParseIndent(args[0])
		if err != nil {
			return errors.NewFormatError(err.Error(), err)
		}
		s.indent = indent
	}
	value, ok := s.parsed()
	if !ok {
		return nil
	}
	s.set(formatter.Format(value, s.indent))
	s.println(view.Highlight(s.Buffer(), s.theme))
	return nil
}

func (s *Session) minify([]string) error {
	value, ok := s.parsed()
	if !ok {
		return nil
	}
	s.set(formatter.Minify(value))
	s.println(view.Highlight(s.Buffer(), s.theme))
	return nil
}

func (s *Session) validate([]string) error {
	if _, ok := s.parsed(); ok {
		s.println(s.theme.Success.Render("✓ valid JSON"))
	}
	return nil
}

func (s *Session) repair([]string) error {
	// res.Formatted uses the startup indent, which format may have changed.
	res := s.repairer.Repair(s.Buffer())
	if !res.Success {
		s.println(s.theme.Failure.Render("✗ " + res.Error))
		if res.PartialText != "" {
			s.set(res.PartialText)
			s.println(s.theme.Muted.Render("partially repaired text loaded, undo to restore the original"))
		}
		return nil
	}
	s.set(formatter.Format(res.Value, s.indent))
	s.println(view.Issues(repair.Labels(res.Issues), s.theme))
	return nil
}

func (s *Session) undo([]string) error {
	if _, ok := s.history.Undo(); !ok {
		s.println(s.theme.Muted.Render("nothing to undo"))
		return nil
	}
	s.println(view.Highlight(s.Buffer(), s.theme))
	return nil
}

func (s *Session) redo([]string) error {
	if _, ok := s.history.Redo(); !ok {
		s.println(s.theme.Muted.Render("nothing to redo"))
		return nil
	}
	s.println(view.Highlight(s.Buffer(), s.theme))
	return nil
}

func (s *Session) show([]string) error {
	if s.history.Len() == 0 {
		s.println(s.theme.Muted.Render("buffer is empty"))
		return nil
	}
	s.println(view.Highlight(s.Buffer(), s.theme))
	return nil
}

func (s *Session) tree([]string) error {
	if value, ok := s.parsed(); ok {
		s.println(view.Tree(value, s.theme))
	}
	return nil
}

func (s *Session) preview([]string) error {
	if value, ok := s.parsed(); ok {
		s.println(view.Preview(value, s.theme))
	}
	return nil
}

func (s *Session) stats([]string) error {
	text := s.Buffer()
	stats := analyzer.TextStats(text)
	if value, err := parser.ParseString(text); err == nil {
		stats = analyzer.NewAnalyzer().Analyze(text, value)
	}
	s.println(view.Stats(stats, s.theme))
	return nil
}

func (s *Session) load(args []string) error {
	if len(args) != 1 {
		return errors.NewInputError("usage: "+commands["load"].usage, nil)
	}
	text, err := parser.ReadFile(args[0])
	if err != nil {
		return err
	}
	s.set(text)
	s.println(s.theme.Muted.Render(fmt.Sprintf("loaded %s (%s)", args[0], analyzer.TextStats(text).Size)))
	return nil
}

func (s *Session) help([]string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		if name != "exit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		s.println(fmt.Sprintf("  %-16s %s", c.usage, s.theme.Muted.Render(c.help)))
	}
	return nil
}
