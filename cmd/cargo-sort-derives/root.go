package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sortderives/internal/config"
	sderrors "sortderives/internal/errors"
	"sortderives/internal/order"
	"sortderives/internal/report"
	"sortderives/internal/runner"
	"sortderives/internal/slogutil"
	"sortderives/internal/version"
)

// Exit codes
const (
	exitOK    = 0
	exitDiff  = 1
	exitError = 2
)

// cargoSubcommand is passed as the first argument when invoked as
// "cargo sort-derives".
const cargoSubcommand = "sort-derives"

// logLevelEnv sets the log level when neither -v nor --quiet is given.
const logLevelEnv = config.EnvPrefix + "_LOG_LEVEL"

// app holds the state of one invocation.
type app struct {
	dir      string
	stdout   io.Writer
	stderr   io.Writer
	exitCode int
}

func newApp(dir string, stdout, stderr io.Writer) *app {
	return &app{dir: dir, stdout: stdout, stderr: stderr}
}

// sortOptions are the root command flags.
type sortOptions struct {
	path      string
	order     string
	preserve  bool
	check     bool
	color     string
	exclude   []string
	format    string
	jobs      int
	verbosity int
	quiet     bool
	logFile   string
}

// execute runs the command line and returns the process exit code.
func (a *app) execute(args []string) int {
	cmd := a.newRootCmd()
	cmd.SetArgs(stripCargoSubcommand(args))
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	if err := cmd.Execute(); err != nil {
		a.printError(err)
		return exitError
	}
	return a.exitCode
}

func stripCargoSubcommand(args []string) []string {
	if len(args) > 0 && args[0] == cargoSubcommand {
		return args[1:]
	}
	return args
}

func (a *app) newRootCmd() *cobra.Command {
	opts := &sortOptions{}

	cmd := &cobra.Command{
		Use:   "cargo-sort-derives",
		Short: "Sort the derive lists of Rust source files",
		Long: `Sort the entries of #[derive(...)] and #[cfg_attr(..., derive(...))] lists
in every .rs file below the current directory.

Entries are sorted by their last path segment. A custom order puts the listed
derives first; "..." marks where every unlisted derive goes.

Lines can be skipped with comments:
  // sort-derives-disable-next-line
  // sort-derives-disable-start
  // sort-derives-disable-end

Examples:
  # Sort every file in place
  cargo sort-derives

  # Report unsorted lists without writing (exit status 1 if any)
  cargo sort-derives --check

  # Custom order, unlisted derives keep their written order
  cargo sort-derives --order "Debug, Clone, ..., Serialize" --preserve

  # A single file
  cargo sort-derives -p src/lib.rs`,
		Version:       version.Info(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSort(cmd, opts)
		},
	}
	cmd.SetVersionTemplate("cargo-sort-derives {{.Version}}\n")

	flags := cmd.Flags()
	flags.StringVarP(&opts.path, "path", "p", "", "Sort only this file instead of walking the current directory")
	flags.StringVar(&opts.order, "order", "", `Custom derive order, comma separated (e.g. "Debug, Clone, ..., Hash")`)
	flags.BoolVar(&opts.preserve, "preserve", false, "Keep unlisted derives in their written order")
	flags.BoolVar(&opts.check, "check", false, "Report unsorted lists without writing files")
	flags.StringVar(&opts.color, "color", "auto", "Colour diff output: auto, always, never")
	flags.StringArrayVar(&opts.exclude, "exclude", nil, "Skip paths matching this gitignore-style glob (repeatable)")
	flags.StringVar(&opts.format, "format", "human", "Output format: human, unified, json, yaml")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Number of files processed at once (default: number of CPUs)")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.BoolVar(&opts.quiet, "quiet", false, "Suppress all log output")
	flags.StringVar(&opts.logFile, "log-file", "", "Append debug logs to this file")

	cmd.AddCommand(a.newConfigCmd())
	cmd.AddCommand(a.newVersionCmd())

	return cmd
}

func (a *app) runSort(cmd *cobra.Command, opts *sortOptions) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	color, err := report.ParseColorMode(opts.color)
	if err != nil {
		return err
	}

	logger, closer, err := slogutil.NewRunLogger(a.stderr, logLevel(opts), opts.logFile)
	if err != nil {
		return sderrors.New(sderrors.IOFailure, "cannot open log file "+opts.logFile, err)
	}
	defer closer.Close()

	cfg, err := config.LoadConfig(a.dir)
	if err != nil {
		return err
	}

	runOpts := a.runnerOptions(cfg, opts, cmd.Flags().Changed("order"))
	logger.Debug("Resolved settings",
		"dir", a.dir,
		"config", config.Path(a.dir),
		"order", runOpts.Order,
		"preserve", runOpts.Preserve,
		"exclude", runOpts.Exclude)

	summary, err := runner.New(logger).Run(cmd.Context(), runOpts)
	if err != nil {
		return err
	}

	if err := report.New(a.stdout, format, color).WithBase(a.dir).Write(summary); err != nil {
		return err
	}

	switch {
	case summary.HasErrors():
		a.exitCode = exitError
	case summary.HasDiff():
		a.exitCode = exitDiff
	}
	return nil
}

// logLevel picks the stderr log level. -v and --quiet win over
// SORT_DERIVES_LOG_LEVEL, which wins over the warn default.
func logLevel(opts *sortOptions) slog.Level {
	if opts.verbosity == 0 && !opts.quiet {
		if s := os.Getenv(logLevelEnv); s != "" {
			return slogutil.LevelFromString(s)
		}
	}
	return slogutil.LevelFromVerbosity(opts.verbosity, opts.quiet)
}

// runnerOptions merges flags over the loaded config. The --order flag wins
// over the config order, preserve is on when either sets it and --exclude
// globs are added to the configured ones.
func (a *app) runnerOptions(cfg *config.Config, opts *sortOptions, orderSet bool) runner.Options {
	runOpts := runner.Options{
		Root:     a.dir,
		Order:    cfg.Order,
		Preserve: opts.preserve || cfg.Preserve,
		Check:    opts.check,
		Jobs:     opts.jobs,
	}
	if orderSet {
		runOpts.Order = order.ParseList(opts.order)
	}

	runOpts.Exclude = append(runOpts.Exclude, cfg.Exclude...)
	runOpts.Exclude = append(runOpts.Exclude, opts.exclude...)

	if opts.path != "" {
		runOpts.Path = opts.path
		if !filepath.IsAbs(runOpts.Path) {
			runOpts.Path = filepath.Join(a.dir, runOpts.Path)
		}
	}
	return runOpts
}

// printError writes err and any suggested fixes to stderr.
func (a *app) printError(err error) {
	fmt.Fprintf(a.stderr, "Error: %v\n", err)

	var se *sderrors.SortError
	if !errors.As(err, &se) {
		return
	}
	for _, fix := range se.SuggestedFixes {
		if fix.Command != "" {
			fmt.Fprintf(a.stderr, "  hint: %s: %s\n", fix.Description, fix.Command)
		} else {
			fmt.Fprintf(a.stderr, "  hint: %s\n", fix.Description)
		}
	}
}
