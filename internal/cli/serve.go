package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bookmark-checker/internal/app"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
)

func (r *Runner) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Scan on a schedule and expose the latest report over HTTP",
		Long: `serve runs a scan at startup and then every BMC_SCAN_INTERVAL. The latest
report, scan status and Prometheus metrics are served on BMC_LISTEN_PORT.
POST /scan starts a scan immediately.`,
		Args: func(c *cobra.Command, args []string) error {
			if err := cobra.NoArgs(c, args); err != nil {
				return &UsageError{Msg: err.Error()}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := r.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			log := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = log.Sync() }()

			return app.New(cfg, log, r.AppOptions...).Serve(cmd.Context())
		},
	}
}
