package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/muesli/termenv"

	"github.com/mcncl/jsonmend/internal/analyzer"
	"github.com/mcncl/jsonmend/internal/batch"
	"github.com/mcncl/jsonmend/internal/config"
	"github.com/mcncl/jsonmend/internal/diff"
	"github.com/mcncl/jsonmend/internal/errors"
	"github.com/mcncl/jsonmend/internal/formatter"
	"github.com/mcncl/jsonmend/internal/logging"
	"github.com/mcncl/jsonmend/internal/models"
	"github.com/mcncl/jsonmend/internal/parser"
	"github.com/mcncl/jsonmend/internal/repair"
	"github.com/mcncl/jsonmend/internal/session"
	"github.com/mcncl/jsonmend/internal/view"
)

// Version information
const (
	Version = "0.1.0"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// stdinPath names standard input wherever a file path is accepted.
const stdinPath = "-"

// Globals are the flags shared by every command.
type Globals struct {
	Config  string           `help:"Path to a config file. Defaults to the nearest .jsonmend.{yml,yaml,toml}." short:"c" type:"path" env:"JSONMEND_CONFIG"`
	Indent  string           `help:"Indentation: none, 0, 1, 2, 4, 8 or tab." short:"n" env:"JSONMEND_INDENT"`
	Jobs    int              `help:"Files processed at once in batch mode." short:"j" env:"JSONMEND_JOBS"`
	NoColor bool             `help:"Disable colored output." env:"JSONMEND_NO_COLOR"`
	Verbose bool             `help:"Enable debug logging." short:"v"`
	Quiet   bool             `help:"Only log errors." short:"q"`
	Version kong.VersionFlag `help:"Show version information."`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Format      FormatCmd      `cmd:"" help:"Pretty-print JSON."`
	Minify      MinifyCmd      `cmd:"" help:"Remove all insignificant whitespace."`
	Validate    ValidateCmd    `cmd:"" help:"Check that input is strict JSON and locate the first error."`
	Repair      RepairCmd      `cmd:"" help:"Fix trailing commas, comments, quotes, literals and brackets."`
	Diff        DiffCmd        `cmd:"" help:"Compare two JSON documents."`
	Stats       StatsCmd       `cmd:"" help:"Show document statistics."`
	Tree        TreeCmd        `cmd:"" help:"Print a document as a tree."`
	Preview     PreviewCmd     `cmd:"" help:"Print an array of objects as a table."`
	Interactive InteractiveCmd `cmd:"" aliases:"i" help:"Edit a document with line commands. Default when no arguments are given."`
}

// App is the runtime state handed to every command.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	theme  view.Theme
}

type exitRequest int

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes the selected command and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	// kong exits after --help and --version; turn that into a return value.
	defer func() {
		if r := recover(); r != nil {
			req, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code = int(req)
		}
	}()

	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(stderr, "warning: failed to load .env: %v\n", err)
	}

	if len(args) == 0 {
		args = []string{"interactive"}
	}

	var cli CLI
	k, err := kong.New(&cli,
		kong.Name("jsonmend"),
		kong.Description("Format, validate, compare and repair JSON."),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(exitRequest(code)) }),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	kctx, err := k.Parse(args)
	if err != nil {
		k.Errorf("%s", err)
		return exitUsage
	}

	logging.Setup(cli.Verbose, cli.Quiet, strings.EqualFold(os.Getenv("JSONMEND_LOG_FORMAT"), "json"))
	logging.SetOutput(stderr)

	app, err := newApp(ctx, &cli.Globals, stdin, stdout, stderr)
	if err == nil {
		err = kctx.Run(app)
	}
	if err != nil {
		// Use our custom error handling to provide user-friendly error messages
		_, _ = fmt.Fprintf(stderr, "%s\n", app.failure(errors.UserFriendlyError(err)))
		return exitFailure
	}
	return exitOK
}

func newApp(ctx context.Context, g *Globals, stdin io.Reader, stdout, stderr io.Writer) (*App, error) {
	app := &App{ctx: ctx, stdin: stdin, stdout: stdout, stderr: stderr, theme: view.PlainTheme()}

	path := g.Config
	if path == "" {
		path = config.FindConfigFile()
	}
	cfg, err := config.LoadConfigWithCLI(path, config.CLIOverrides{
		Indent:      g.Indent,
		NoColor:     g.NoColor || os.Getenv("NO_COLOR") != "",
		Concurrency: g.Jobs,
	})
	if err != nil {
		return app, err
	}
	if path != "" {
		logging.New("config").Debug("loaded config", "path", path)
	}
	app.cfg = cfg
	app.theme = selectTheme(cfg, stdout)
	return app, nil
}

// selectTheme colors output only when it is enabled and stdout can show it.
func selectTheme(cfg *config.Config, stdout io.Writer) view.Theme {
	if !cfg.Output.Color {
		lipgloss.SetColorProfile(termenv.Ascii)
		return view.PlainTheme()
	}
	if lipgloss.NewRenderer(stdout).ColorProfile() == termenv.Ascii {
		return view.PlainTheme()
	}
	return view.DefaultTheme()
}

func (a *App) failure(msg string) string {
	return a.theme.Failure.Render(msg)
}

func (a *App) indent() models.IndentSpec {
	indent, _ := a.cfg.IndentSpec() // validated when the config loaded
	return indent
}

func (a *App) repairOptions() (repair.Options, error) {
	opts, err := a.cfg.RepairOptions()
	if err != nil {
		return repair.Options{}, err
	}
	opts.Logger = logging.New("repair")
	return opts, nil
}

// readInput returns the text of a file, or of stdin when path is empty or "-".
func (a *App) readInput(path string) (string, error) {
	if path != "" && path != stdinPath {
		return parser.ReadFile(path)
	}

	if isTerminal(a.stdin) {
		return "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	if len(data) == 0 {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(data), nil
}

// isTerminal reports whether r is an interactive terminal rather than a pipe
// or file.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// parse parses text, printing the located syntax error to stderr on failure.
func (a *App) parse(text, name string) (models.Value, error) {
	value, err := parser.ParseString(text)
	if err == nil {
		return value, nil
	}
	var syntaxErr *parser.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		_, _ = fmt.Fprintln(a.stderr, view.SyntaxError(text, syntaxErr, a.theme))
	}
	if stderrors.Is(err, errors.ErrMultipleJSON) {
		msg := fmt.Sprintf("'%s' holds more than one JSON value, repair wraps them in an array", displayName(name))
		return models.Value{}, errors.NewParsingError(msg, err)
	}
	return models.Value{}, errors.NewParsingError(fmt.Sprintf("'%s' is not valid JSON", displayName(name)), err)
}

func displayName(path string) string {
	if path == "" || path == stdinPath {
		return "stdin"
	}
	return path
}

// writeResult writes JSON text to a file, or highlighted to stdout.
func (a *App) writeResult(text, output string) error {
	if output != "" {
		if err := os.WriteFile(output, []byte(text+"\n"), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", output), err)
		}
		_, _ = fmt.Fprintf(a.stderr, "Written to %s\n", output)
		return nil
	}
	if _, err := fmt.Fprintln(a.stdout, view.Highlight(text, a.theme)); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// Inputs is the positional file list shared by commands that support batch
// mode.
type Inputs struct {
	Files  []string `arg:"" optional:"" help:"Files or glob patterns (** matches directories). Reads stdin when omitted."`
	Output string   `help:"Write the result to a file instead of stdout." short:"o" type:"path"`
	Write  bool     `help:"Rewrite the input files in place." short:"w"`
}

// isBatch reports whether the inputs name more than one file or need files
// rewritten.
func (in Inputs) isBatch() bool {
	if in.Write || len(in.Files) > 1 {
		return true
	}
	return len(in.Files) == 1 && strings.ContainsAny(in.Files[0], "*?[{")
}

func (in Inputs) single() string {
	if len(in.Files) == 0 {
		return ""
	}
	return in.Files[0]
}

func (in Inputs) runBatch(app *App, mode batch.Mode) error {
	if in.Output != "" {
		return errors.NewInputError("--output cannot be used with several files or --write", nil)
	}
	for _, f := range in.Files {
		if f == stdinPath {
			return errors.NewInputError("stdin cannot be combined with other files", errors.ErrInvalidFilePath)
		}
	}
	paths, err := batch.Expand(in.Files)
	if err != nil {
		return err
	}

	opts := batch.Options{
		Mode:        mode,
		Indent:      app.indent(),
		Write:       in.Write,
		Concurrency: app.cfg.Batch.Concurrency,
		Logger:      logging.New("batch"),
	}
	if mode == batch.ModeRepair {
		if opts.Repair, err = app.repairOptions(); err != nil {
			return err
		}
	}

	results, err := batch.NewProcessor(opts).Run(app.ctx, paths)
	if err != nil {
		return errors.NewInputError("batch interrupted", err)
	}
	for _, r := range results {
		app.printBatchResult(mode, in.Write, r)
	}

	ok, failed := batch.Summary(results)
	_, _ = fmt.Fprintln(app.stderr, app.theme.Muted.Render(fmt.Sprintf("%d ok, %d failed", ok, failed)))
	if failed > 0 {
		return errors.NewInputError(fmt.Sprintf("%d of %d file(s) failed", failed, len(results)), nil)
	}
	return nil
}

func (a *App) printBatchResult(mode batch.Mode, write bool, r batch.FileResult) {
	switch {
	case r.Err != nil:
		_, _ = fmt.Fprintf(a.stderr, "%s %s\n", a.theme.Failure.Render("✗"), errors.UserFriendlyError(r.Err))
	case mode == batch.ModeValidate:
		_, _ = fmt.Fprintf(a.stdout, "%s %s\n", a.theme.Success.Render("✓"), r.Path)
	case write:
		status := "unchanged"
		if r.Written {
			status = "written"
		}
		_, _ = fmt.Fprintf(a.stdout, "%s %s %s\n", a.theme.Success.Render("✓"), r.Path, a.theme.Muted.Render(status))
	default:
		_, _ = fmt.Fprintf(a.stdout, "%s\n%s\n", a.theme.Header.Render("==> "+r.Path+" <=="), view.Highlight(r.Output, a.theme))
	}
	if len(r.Issues) > 0 && a.cfg.Output.Issues {
		_, _ = fmt.Fprintf(a.stderr, "%s: %s\n", r.Path, strings.Join(repair.Labels(r.Issues), ", "))
	}
}

// FormatCmd pretty-prints JSON.
type FormatCmd struct {
	Inputs
}

func (c *FormatCmd) Run(app *App) error {
	if c.isBatch() {
		return c.runBatch(app, batch.ModeFormat)
	}
	text, err := app.readInput(c.single())
	if err != nil {
		return err
	}
	value, err := app.parse(text, c.single())
	if err != nil {
		return err
	}
	return app.writeResult(formatter.Format(value, app.indent()), c.Output)
}

// MinifyCmd removes whitespace.
type MinifyCmd struct {
	Inputs
}

func (c *MinifyCmd) Run(app *App) error {
	if c.isBatch() {
		return c.runBatch(app, batch.ModeMinify)
	}
	text, err := app.readInput(c.single())
	if err != nil {
		return err
	}
	value, err := app.parse(text, c.single())
	if err != nil {
		return err
	}
	return app.writeResult(formatter.Minify(value), c.Output)
}

// ValidateCmd checks input without changing it.
type ValidateCmd struct {
	Files []string `arg:"" optional:"" help:"Files or glob patterns. Reads stdin when omitted."`
}

func (c *ValidateCmd) Run(app *App) error {
	in := Inputs{Files: c.Files}
	if in.isBatch() {
		return in.runBatch(app, batch.ModeValidate)
	}
	text, err := app.readInput(in.single())
	if err != nil {
		return err
	}
	if _, err := app.parse(text, in.single()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(app.stdout, app.theme.Success.Render("✓ valid JSON"))
	return err
}

// RepairCmd runs the repair pipeline.
type RepairCmd struct {
	Inputs
	NoFallback bool     `help:"Do not try the fallback repairer when the built-in passes fail."`
	Disable    []string `help:"Repair passes to skip, e.g. --disable=comments,brackets." sep:","`
}

func (c *RepairCmd) Run(app *App) error {
	app.cfg = config.MergeConfigs(app.cfg, config.CLIOverrides{NoFallback: c.NoFallback})
	app.cfg.Repair.DisabledPasses = append(append([]string{}, app.cfg.Repair.DisabledPasses...), c.Disable...)
	if _, err := app.cfg.DisabledPasses(); err != nil {
		return err
	}

	if c.isBatch() {
		return c.runBatch(app, batch.ModeRepair)
	}
	text, err := app.readInput(c.single())
	if err != nil {
		return err
	}
	opts, err := app.repairOptions()
	if err != nil {
		return err
	}

	res := repair.NewRepairer(opts).Repair(text)
	if app.cfg.Output.Issues {
		_, _ = fmt.Fprintln(app.stderr, view.Issues(repair.Labels(res.Issues), app.theme))
	}
	if !res.Success {
		shown := res.PartialText
		if shown == "" {
			shown = text
		}
		if res.SyntaxError != nil && res.SyntaxError.Located() {
			_, _ = fmt.Fprintln(app.stderr, view.ErrorContext(shown, res.SyntaxError.Position(), app.theme))
		}
		if res.PartialText != "" {
			_, _ = fmt.Fprintf(app.stderr, "%s\n%s\n", app.theme.Muted.Render("partially repaired text:"), res.PartialText)
		}
		return errors.NewRepairError(res.Error, errors.ErrRepairExhausted)
	}
	return app.writeResult(res.Formatted, c.Output)
}

// DiffCmd compares two documents.
type DiffCmd struct {
	Left   string `arg:"" help:"First document, or - for stdin."`
	Right  string `arg:"" help:"Second document, or - for stdin."`
	Repair bool   `help:"Repair both documents before comparing." short:"r"`
}

func (c *DiffCmd) Run(app *App) error {
	if c.Left == stdinPath && c.Right == stdinPath {
		return errors.NewDiffError("only one document can come from stdin", errors.ErrInvalidFilePath)
	}
	left, err := c.load(app, c.Left)
	if err != nil {
		return err
	}
	right, err := c.load(app, c.Right)
	if err != nil {
		return err
	}

	diffs := diff.Diff(left, right)
	if _, err := fmt.Fprintln(app.stdout, view.Differences(diffs, app.theme)); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	if len(diffs) > 0 {
		return errors.NewDiffError(fmt.Sprintf("%d difference(s) found", len(diffs)), errors.ErrDifferent)
	}
	return nil
}

func (c *DiffCmd) load(app *App, path string) (models.Value, error) {
	text, err := app.readInput(path)
	if err != nil {
		return models.Value{}, err
	}
	if !c.Repair {
		return app.parse(text, path)
	}
	opts, err := app.repairOptions()
	if err != nil {
		return models.Value{}, err
	}
	res := repair.NewRepairer(opts).Repair(text)
	if !res.Success {
		return models.Value{}, errors.NewRepairError(fmt.Sprintf("'%s': %s", displayName(path), res.Error), errors.ErrRepairExhausted)
	}
	return res.Value, nil
}

// StatsCmd prints statistics. Invalid JSON still gets text metrics.
type StatsCmd struct {
	File string `arg:"" optional:"" help:"Input file. Reads stdin when omitted."`
}

func (c *StatsCmd) Run(app *App) error {
	text, err := app.readInput(c.File)
	if err != nil {
		return err
	}
	stats := analyzer.TextStats(text)
	if value, err := parser.ParseString(text); err == nil {
		stats = analyzer.NewAnalyzer().Analyze(text, value)
	} else {
		logging.New("stats").Warn("input is not valid JSON, showing text metrics only", "error", err)
	}
	_, err = fmt.Fprintln(app.stdout, view.Stats(stats, app.theme))
	return err
}

// TreeCmd prints the document tree.
type TreeCmd struct {
	File string `arg:"" optional:"" help:"Input file. Reads stdin when omitted."`
}

func (c *TreeCmd) Run(app *App) error {
	text, err := app.readInput(c.File)
	if err != nil {
		return err
	}
	value, err := app.parse(text, c.File)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(app.stdout, view.Tree(value, app.theme))
	return err
}

// PreviewCmd prints arrays of objects as a table and other values as a tree.
type PreviewCmd struct {
	File string `arg:"" optional:"" help:"Input file. Reads stdin when omitted."`
}

func (c *PreviewCmd) Run(app *App) error {
	text, err := app.readInput(c.File)
	if err != nil {
		return err
	}
	value, err := app.parse(text, c.File)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(app.stdout, view.Preview(value, app.theme))
	return err
}

// InteractiveCmd runs a line-oriented editing session.
type InteractiveCmd struct {
	File    string `arg:"" optional:"" help:"File to load into the buffer."`
	History int    `help:"Number of undo snapshots to keep."`
}

func (c *InteractiveCmd) Run(app *App) error {
	cfg := config.MergeConfigs(app.cfg, config.CLIOverrides{HistorySize: c.History})
	ropts, err := app.repairOptions()
	if err != nil {
		return err
	}

	opts := session.Options{
		Indent:      app.indent(),
		Repair:      ropts,
		HistorySize: cfg.History.Size,
		Theme:       app.theme,
		Logger:      logging.New("session"),
	}
	if isTerminal(app.stdin) {
		opts.Prompt = "jsonmend> "
	}
	s := session.New(app.stdout, opts)

	_, _ = fmt.Fprintln(app.stderr, "jsonmend interactive mode, type help for commands")
	if c.File != "" {
		text, err := parser.ReadFile(c.File)
		if err != nil {
			return err
		}
		s.Load(text)
	} else {
		_, _ = fmt.Fprintf(app.stderr, "Paste your JSON below, then a line with a single %s:\n", session.EndOfPaste)
	}
	return s.Run(app.ctx, app.stdin)
}
