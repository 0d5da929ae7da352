package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/funvibe/opcheck/internal/analyzer"
	"github.com/funvibe/opcheck/internal/ast"
	"github.com/funvibe/opcheck/internal/config"
	"github.com/funvibe/opcheck/internal/exprcheck"
	"github.com/funvibe/opcheck/internal/pipeline"
)

// Exit statuses
const (
	ExitOK          = 0
	ExitDiagnostics = 1
	ExitUsage       = 2
	ExitBug         = 3
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Options are the parsed command line.
type Options struct {
	LangItems string
	Format    string
	NoColor   bool
	Debug     bool
	Trace     bool
	Paths     []string
}

// Run is the opcheck command. It never returns.
func Run() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(ExitBug)
		}
	}()

	if os.Getenv("OPCHECK_TEST_MODE") == "1" {
		config.IsTestMode = true
	}
	os.Exit(Main(os.Args[1:], os.Stdout, os.Stderr))
}

func newRootCommand(stdout, stderr io.Writer, status *int) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:           "opcheck [flags] <scenario" + config.ScenarioFileExt + "|dir>...",
		Short:         "Resolve and type-check the operator expressions of scenario files",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("no scenario files given")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Format {
			case FormatText, FormatJSON, FormatYAML:
			default:
				return fmt.Errorf("unknown format %q", opts.Format)
			}
			opts.Paths = args
			*status = check(opts, stdout, stderr)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("opcheck {{.Version}}\n")

	flags := cmd.Flags()
	flags.StringVar(&opts.LangItems, "langitems", "", "lang-item table to use instead of the built-in one")
	flags.StringVarP(&opts.Format, "format", "f", FormatText, "output format: text, json or yaml")
	flags.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	flags.BoolVar(&opts.Debug, "debug", false, "dump recorded method calls and adjustments")
	flags.BoolVar(&opts.Trace, "trace", false, "trace operator checking to stderr")
	return cmd
}

// Main runs opcheck with args and returns the exit status.
func Main(args []string, stdout, stderr io.Writer) int {
	status := ExitOK
	cmd := newRootCommand(stdout, stderr, &status)
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "opcheck: %s\n", err)
		fmt.Fprintf(stderr, "Run 'opcheck --help' for usage.\n")
		return ExitUsage
	}
	return status
}

// check runs every scenario file named by opts and writes the report.
func check(opts *Options, stdout, stderr io.Writer) int {
	var items *config.LangItems
	var err error
	if opts.LangItems != "" {
		if items, err = config.LoadLangItems(opts.LangItems); err != nil {
			fmt.Fprintf(stderr, "opcheck: %s\n", err)
			return ExitUsage
		}
	}
	files, err := collectFiles(opts.Paths)
	if err != nil {
		fmt.Fprintf(stderr, "opcheck: %s\n", err)
		return ExitUsage
	}

	report := NewReport()
	status := ExitOK
	for _, path := range files {
		ctx := pipeline.NewPipelineContext(path)
		ctx.LangItems = items
		if opts.Trace {
			ctx.Trace = stderr
		}
		ctx = pipeline.Default().Run(ctx)

		if opts.Debug {
			dumpContext(stderr, ctx)
		}
		report.Add(ctx)
		status = max(status, fileStatus(ctx))
	}

	switch opts.Format {
	case FormatJSON:
		err = report.WriteJSON(stdout)
	case FormatYAML:
		err = report.WriteYAML(stdout)
	default:
		report.WriteText(stdout, stderr, !opts.NoColor && isTerminal(stdout))
	}
	if err != nil {
		fmt.Fprintf(stderr, "opcheck: %s\n", err)
		return ExitUsage
	}
	return status
}

func fileStatus(ctx *pipeline.PipelineContext) int {
	switch {
	case ctx.HasBug():
		return ExitBug
	case ctx.Err != nil:
		return ExitUsage
	case len(ctx.Errors) > 0:
		return ExitDiagnostics
	}
	return ExitOK
}

// collectFiles expands directories to the scenario files they contain.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && isScenarioFile(e.Name()) {
				found = append(found, filepath.Join(path, e.Name()))
			}
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no scenario files in %s", path)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func isScenarioFile(name string) bool {
	for _, ext := range config.ScenarioFileExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Types print themselves through String; the dump shows their fields.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// dumpContext writes what the checker recorded for every expression of the
// file's units.
func dumpContext(w io.Writer, ctx *pipeline.PipelineContext) {
	if ctx.Checker == nil {
		return
	}
	for _, u := range ctx.Units {
		fmt.Fprintf(w, "--- %s: %s\n", u.Name, u.Expr)
		exprcheck.Walk(u.Expr, func(e ast.Expression) {
			if callee, ok := ctx.Checker.MethodCallOf(e); ok {
				fmt.Fprintf(w, "%s:\n", e)
				dumper.Fdump(w, callee)
			}
			if adj := ctx.Checker.AdjustmentsOf(e); len(adj) > 0 {
				fmt.Fprintf(w, "%s adjustments:\n", e)
				dumper.Fdump(w, adj)
			}
			if o, ok := ctx.Checker.Operators().Outcome(e); ok && o.Kind == analyzer.OutcomeFailed {
				dumper.Fdump(w, o.Failure)
			}
		})
	}
}
