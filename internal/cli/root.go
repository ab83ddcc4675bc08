// Package cli implements the auge command line: the HTTP service and the
// offline tools that work directly on a SQLite observation store.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"} //nolint:gochecknoglobals // flag values

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "auge",
		Short:         "Adaptive recovery and fatigue engine",
		Long:          "Serves the adaptive recovery engine over HTTP and inspects or merges its observation stores.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewConfidenceCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))

	return cmd
}

// Execute runs the root command with os.Args and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// output writes v as indented JSON, or text when the format is text and
// text is not empty.
func output(w io.Writer, opts *RootOptions, v any, text string) error {
	if opts.Format == "text" && text != "" {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// requireFile fails with ExitCommandError when path does not exist.
func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	return nil
}
