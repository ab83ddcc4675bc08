package cli

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/auge/internal/simulate"
	"github.com/okian/auge/pkg/logger"
	"github.com/spf13/cobra"
)

// Default simulation constants.
const (
	defaultSimulateURL  = "http://localhost:9080"
	defaultSimulateDays = 28
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	simulate.Config
	LogFormat string
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Post a synthetic athlete history to a running service",
		Long: `Generate a reproducible training history (workouts, fatigue points,
recovery observations, predictions and outcomes), post it through the HTTP
API and check that the snapshot counts every stored record and that replayed
predictions were rejected.

Examples:
  auge simulate --days 56 --seed 7
  auge simulate --url http://localhost:8080 --workers 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithFormat(opts.LogFormat); err != nil {
				return WrapExitError(ExitCommandError, "failed to initialize logging", err)
			}
			stats, err := simulate.Run(cmd.Context(), opts.Config, simulate.WithLogger(logger.Get().Named("simulate")))
			if errors.Is(err, simulate.ErrInvalidConfig) {
				return WrapExitError(ExitCommandError, "invalid simulation", err)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "simulation failed", err)
			}
			text := fmt.Sprintf("accepted %d of %d requests, %d observations, confidence %s",
				stats.Accepted, stats.Submitted, stats.FinalRecords, stats.ConfidenceLabel)
			return output(cmd.OutOrStdout(), rootOpts, stats, text)
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "url", defaultSimulateURL, "base URL of the service")
	cmd.Flags().IntVar(&opts.Days, "days", defaultSimulateDays, "days of history to generate")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "generator seed")
	cmd.Flags().IntVar(&opts.Workers, "workers", runtime.NumCPU()*defaultWorkers, "number of concurrent workers")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every rejected request")
	cmd.Flags().StringVar(&opts.LogFormat, "log-format", "text", "log format (json|text)")

	return cmd
}
