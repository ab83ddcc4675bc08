package cli

import (
	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/pkg/logger"
	"github.com/spf13/cobra"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Database string
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Rebuild and print the adaptive snapshot of a store",
		Long: `Open a SQLite observation store, rebuild the adaptive snapshot from its
full history and print it as JSON.

Examples:
  auge snapshot --db ./auge.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshot(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSnapshot(cmd *cobra.Command, opts *SnapshotOptions) error {
	if err := requireFile(opts.Database); err != nil {
		return err
	}
	ctx := cmd.Context()

	eng := app.New(app.WithLogger(logger.Nop()), app.WithSQLitePath(opts.Database))
	if err := eng.Start(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer eng.Stop()

	snap, err := eng.Refresh(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to rebuild snapshot", err)
	}
	return output(cmd.OutOrStdout(), &RootOptions{Format: "json"}, snap, "")
}
