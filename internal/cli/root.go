// Package cli is the bookmark-checker command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bookmark-checker/internal/app"
	"github.com/MrSnakeDoc/bookmark-checker/internal/config"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/version"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// UsageError marks a bad flag or flag combination.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

type flags struct {
	scan         bool
	clean        bool
	listProfiles bool
	version      bool
	versionAlias bool
	maxBookmarks int
	profile      string
	concurrency  int
	timeout      time.Duration
	report       string
}

// Runner holds the process streams and the hooks tests replace.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	// AppOptions are passed to every App the commands build.
	AppOptions []app.Option
	// LoadConfig defaults to config.Load.
	LoadConfig func() (*config.Config, error)
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	r := &Runner{Stdout: os.Stdout, Stderr: os.Stderr}
	return r.Run(ctx, args)
}

// Run parses args, executes the selected operation and maps its error
// to an exit code.
func (r *Runner) Run(ctx context.Context, args []string) int {
	cmd := r.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(r.Stdout)
	cmd.SetErr(r.Stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		_, _ = red.Fprintf(r.Stderr, "error: %s\n", usage.Msg)
		_, _ = fmt.Fprintln(r.Stderr, "Run 'bookmark-checker --help' for usage.")
		return ExitUsage
	}
	_, _ = red.Fprintf(r.Stderr, "error: %v\n", err)
	return ExitError
}

func (r *Runner) rootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "bookmark-checker",
		Short: "Find and remove dead Chrome bookmarks",
		Long: `bookmark-checker probes every bookmark of a Chrome profile and records the
ones that fail in a report file. A later --clean run removes exactly the
bookmarks listed in that report, after backing up the bookmarks file.`,
		Example: `  bookmark-checker --scan
  bookmark-checker --scan --max-bookmarks 100 --profile "Profile 1"
  bookmark-checker --clean
  bookmark-checker --list-profiles
  bookmark-checker serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.runRoot(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.SortFlags = false
	fs.BoolVarP(&f.scan, "scan", "s", false, "check every bookmark and write the failure report")
	fs.IntVarP(&f.maxBookmarks, "max-bookmarks", "m", config.NoLimit, "check at most `n` bookmarks (requires --scan)")
	fs.BoolVarP(&f.listProfiles, "list-profiles", "l", false, "list the Chrome profiles that have bookmarks")
	fs.StringVarP(&f.profile, "profile", "p", "", "profile `name` to use (default \"Default\")")
	fs.BoolVarP(&f.clean, "clean", "c", false, "remove the bookmarks listed in the report")
	fs.BoolVarP(&f.version, "version", "V", false, "print version information")
	fs.BoolVarP(&f.versionAlias, "v", "v", false, "print version information")
	_ = fs.MarkHidden("v")
	fs.IntVar(&f.concurrency, "concurrency", 0, "number of parallel requests")
	fs.DurationVar(&f.timeout, "timeout", 0, "timeout per request")
	fs.StringVar(&f.report, "report", "", "report file `path`")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Msg: err.Error()}
	})
	cmd.AddCommand(r.serveCommand())

	// cobra reports NoArgs violations as plain errors
	cmd.Args = func(c *cobra.Command, args []string) error {
		if err := cobra.NoArgs(c, args); err != nil {
			return &UsageError{Msg: err.Error()}
		}
		return nil
	}
	return cmd
}

// validate rejects flag combinations that do not select exactly one
// operation.
func validate(cmd *cobra.Command, f *flags) error {
	changed := cmd.Flags().Changed
	wantsVersion := f.version || f.versionAlias

	if wantsVersion {
		if cmd.Flags().NFlag() > 1 {
			return usagef("--version cannot be combined with other flags")
		}
		return nil
	}

	switch {
	case f.scan && f.clean:
		return usagef("--scan and --clean cannot be used together")
	case f.scan && f.listProfiles:
		return usagef("--scan and --list-profiles cannot be used together")
	case f.clean && f.listProfiles:
		return usagef("--clean and --list-profiles cannot be used together")
	case changed("max-bookmarks") && !f.scan:
		return usagef("--max-bookmarks requires --scan")
	case changed("max-bookmarks") && f.maxBookmarks < 0:
		return usagef("--max-bookmarks must not be negative, got %d", f.maxBookmarks)
	case changed("profile") && !f.scan && !f.clean:
		return usagef("--profile requires --scan or --clean")
	case changed("concurrency") && !f.scan:
		return usagef("--concurrency requires --scan")
	case changed("timeout") && !f.scan:
		return usagef("--timeout requires --scan")
	case changed("report") && !f.scan && !f.clean:
		return usagef("--report requires --scan or --clean")
	}
	return nil
}

func (r *Runner) runRoot(cmd *cobra.Command, f *flags) error {
	if err := validate(cmd, f); err != nil {
		return err
	}

	switch {
	case f.version || f.versionAlias:
		_, _ = fmt.Fprintln(r.Stdout, version.String())
		return nil
	case f.scan, f.clean, f.listProfiles:
	default:
		return cmd.Help()
	}

	cfg, err := r.loadConfig(cmd, f)
	if err != nil {
		return err
	}
	a := app.New(cfg, oneShotLogger(cfg), r.AppOptions...)

	switch {
	case f.scan:
		return r.scan(cmd.Context(), a, cfg)
	case f.clean:
		return r.clean(cmd.Context(), a)
	default:
		return r.listProfiles(a)
	}
}

// loadConfig reads the environment and applies the flags the user set.
func (r *Runner) loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	load := r.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return cfg, nil
	}

	changed := cmd.Flags().Changed
	if changed("max-bookmarks") {
		cfg.MaxBookmarks = f.maxBookmarks
	}
	if changed("profile") {
		cfg.Profile = f.profile
	}
	if changed("concurrency") {
		cfg.MaxConcurrency = f.concurrency
	}
	if changed("timeout") {
		cfg.RequestTimeout = f.timeout
	}
	if changed("report") {
		cfg.ReportFile = f.report
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// oneShotLogger logs at warn unless BMC_LOG_LEVEL is set. Scan and clean
// already print their own summary.
func oneShotLogger(cfg *config.Config) logger.Logger {
	level := cfg.LogLevel
	if os.Getenv("BMC_LOG_LEVEL") == "" {
		level = "warn"
	}
	return logger.New(level, cfg.PrettyLog)
}
