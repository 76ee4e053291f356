package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/MrSnakeDoc/bookmark-checker/internal/app"
	"github.com/MrSnakeDoc/bookmark-checker/internal/config"
	"github.com/MrSnakeDoc/bookmark-checker/internal/domain"
	"github.com/MrSnakeDoc/bookmark-checker/internal/progress"
)

var (
	red       = color.New(color.FgRed)
	green     = color.New(color.FgGreen)
	greenBold = color.New(color.FgGreen).Add(color.Bold)
	yellow    = color.New(color.FgYellow)
	cyanBold  = color.New(color.FgCyan).Add(color.Bold)
)

func (r *Runner) scan(ctx context.Context, a *app.App, cfg *config.Config) error {
	workers := cfg.MaxConcurrency
	console := progress.NewConsole(r.Stderr, "Checking", workers)

	s, err := a.Scan(ctx, app.ScanOptions{
		Progress: console,
		OnStart: func(planned, total int, file string) {
			_, _ = cyanBold.Fprintf(r.Stdout, "Checking %d of %d bookmarks from %s\n", planned, total, file)
		},
	})
	console.Finish()
	if err != nil {
		return err
	}

	if s.Report == nil {
		_, _ = yellow.Fprintln(r.Stdout, "No bookmarks to check, no report written.")
		return nil
	}

	counts := s.Report.Counts()
	_, _ = fmt.Fprintf(r.Stdout, "Checked %d bookmarks:\n", s.Checked)
	for _, kind := range domain.FailureKinds {
		paint := green
		if counts[kind] > 0 {
			paint = red
		}
		_, _ = paint.Fprintf(r.Stdout, "  %-18s %d\n", kind.String(), counts[kind])
	}
	if s.Report.Total() == 0 {
		_, _ = greenBold.Fprintf(r.Stdout, "All bookmarks are reachable. Report written to %s\n", s.ReportPath)
		return nil
	}
	_, _ = fmt.Fprintf(r.Stdout, "Report written to %s\n", s.ReportPath)
	_, _ = fmt.Fprintln(r.Stdout, "Review it, then run with --clean to remove the listed bookmarks.")
	return nil
}

func (r *Runner) clean(ctx context.Context, a *app.App) error {
	s, err := a.Clean(ctx)
	if err != nil {
		return err
	}

	if s.Removed == 0 {
		_, _ = yellow.Fprintf(r.Stdout, "Nothing to remove from %s (%d listed in %s, none found).\n",
			s.Profile.File, s.Listed, s.ReportPath)
		return nil
	}
	_, _ = greenBold.Fprintf(r.Stdout, "Removed %d bookmarks from %s\n", s.Removed, s.Profile.File)
	if s.Skipped > 0 {
		_, _ = yellow.Fprintf(r.Stdout, "%d report entries were no longer in the bookmarks file.\n", s.Skipped)
	}
	_, _ = fmt.Fprintf(r.Stdout, "Backup saved to %s\n", s.Backup)
	return nil
}

func (r *Runner) listProfiles(a *app.App) error {
	profiles, err := a.ListProfiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		_, _ = yellow.Fprintln(r.Stdout, "No Chrome profiles with bookmarks found.")
		return nil
	}
	for _, p := range profiles {
		_, _ = fmt.Fprintf(r.Stdout, "%s\t%s\n", cyanBold.Sprint(p.Name), p.File)
	}
	return nil
}
