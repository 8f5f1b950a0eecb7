// Package cli implements qactl, the operator command line for the quick-apply backend.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quickapply-backend/internal/bootstrap"
	"quickapply-backend/internal/shared/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	// LoadConfig is replaced in tests.
	LoadConfig func() config.Config
}

// NewRootCommand creates the qactl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.Load})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "qactl",
		Short:         "Operate the quick-apply backend",
		Long:          "qactl runs smoke checks, orphan sweeps, job seeding and migrations against a quick-apply deployment.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewSmokeCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSeedJobsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSummarizeCommand(opts))
	return cmd
}

func (o *RootOptions) buildCore(ctx context.Context) (*bootstrap.App, error) {
	app, err := bootstrap.BuildCore(ctx, o.LoadConfig())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}
