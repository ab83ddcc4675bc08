package cli

import (
	"fmt"

	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/pkg/logger"
	"github.com/spf13/cobra"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Into string
	From string
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Union one SQLite store into another",
		Long: `Copy every record of --from that --into does not hold yet. Records are
matched by identity, so merging the same source twice changes nothing.

Examples:
  auge merge --into ./phone.db --from ./watch.db
  auge merge --into ./phone.db --from ./watch.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMerge(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Into, "into", "", "destination SQLite database (required)")
	cmd.Flags().StringVar(&opts.From, "from", "", "source SQLite database (required)")
	_ = cmd.MarkFlagRequired("into")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func runMerge(cmd *cobra.Command, opts *MergeOptions) error {
	if opts.Into == opts.From {
		return NewExitError(ExitCommandError, "--into and --from name the same database")
	}
	if err := requireFile(opts.From); err != nil {
		return err
	}
	ctx := cmd.Context()

	src, err := repository.OpenSQLite(opts.From)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open source database", err)
	}
	defer src.Close()

	eng := app.New(app.WithLogger(logger.Nop()), app.WithSQLitePath(opts.Into))
	if err := eng.Start(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to open destination database", err)
	}
	defer eng.Stop()

	report, err := eng.Merge(ctx, src)
	if err != nil {
		return WrapExitError(ExitFailure, "merge failed", err)
	}
	text := fmt.Sprintf("merged %d records, skipped %d", report.Merged.Total(), report.Skipped.Total())
	return output(cmd.OutOrStdout(), opts.RootOptions, report, text)
}
