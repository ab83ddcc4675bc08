package cli

import (
	"strconv"

	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/internal/config"
	"github.com/okian/auge/pkg/logger"
	"github.com/spf13/cobra"
)

type confidenceResult struct {
	Observations uint32 `json:"observations"`
	Label        string `json:"label"`
}

// NewConfidenceCommand creates the confidence command.
func NewConfidenceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "confidence N",
		Short: "Print the confidence label for N observations",
		Long: `Print the confidence label for an observation count using the configured
thresholds (AUGE_CONFIDENCE_MEDIUM_AT, AUGE_CONFIDENCE_HIGH_AT).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return WrapExitError(ExitCommandError, "observation count must be a non-negative integer", err)
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			eng := app.New(app.WithLogger(logger.Nop()), app.WithSettings(cfg.Engine()))
			res := confidenceResult{Observations: uint32(n), Label: eng.GetConfidenceLabel(uint32(n))}
			return output(cmd.OutOrStdout(), rootOpts, res, res.Label)
		},
	}
}
