package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Travis-Britz/netlify-ddns/internal/logging"
)

func newOnceCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single update pass and exit",
		Long: `Resolve the current IP once and update every configured domain.

The exit status is non-zero if the IP lookup or any domain update failed,
which makes the command suitable for cron or systemd timers.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, flush, err := logging.New(cfg.EnableLogging, opts.verbose, opts.logJSON)
			if err != nil {
				return fmt.Errorf("error creating logger: %w", err)
			}
			defer flush()

			client, err := opts.newClient(cfg, logger)
			if err != nil {
				return err
			}
			if err := client.RunDDNS(cmd.Context()); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			return nil
		},
	}
}
