package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quickapply-backend/internal/jobs"
	"quickapply-backend/internal/shared/telemetry"
)

// NewSeedJobsCommand creates the seed-jobs command.
func NewSeedJobsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-jobs <file.yaml>",
		Short: "Upsert jobs from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := jobs.LoadSeedFile(args[0])
			if err != nil {
				return err
			}

			app, err := rootOpts.buildCore(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			if app.DB == nil {
				telemetry.Warn("cli.seed_in_memory", map[string]any{"file": args[0]})
			}

			n, err := jobs.Seed(cmd.Context(), app.JobsRepo, list)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d job(s)\n", n)
			return nil
		},
	}
}
