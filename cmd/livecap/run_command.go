package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"livecap/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var diagnostic bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the capture orchestrator in the foreground",
		Long: `Run clears lock markers left by a previous run, then polls the source
registry and starts one capture per source that has no active marker.
It runs until interrupted or until the registry can no longer be read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:   logLevel,
				Diagnostic: diagnostic,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&diagnostic, "diagnostic", false, "Also write a debug-level JSON log under <log_dir>/debug")
	return cmd
}
