package main

import (
	"github.com/spf13/cobra"

	"outreach/internal/executor"
	"outreach/internal/logging"
)

// newExecCommand is the child-process entrypoint launched by the
// orchestrator. It reads one request on stdin and writes one result line on
// stdout; logs go to stderr so stdout stays machine-readable.
func newExecCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "exec",
		Short:  "Run one stage action (internal)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewStderr(cfg.Logging.Level)
			defer logger.Sync() //nolint:errcheck

			code := executor.Main(cmd.Context(), executor.DepsFromConfig(cfg, logger), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code != executor.ExitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}
}
