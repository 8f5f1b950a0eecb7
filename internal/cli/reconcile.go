package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dryRun bool
		grace  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Delete resume files that no application references",
		Long: `Lists stored resumes and deletes those that no application record references
and that are older than the grace period. Such files are left behind when a
submission stored its resume but failed to record the application.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.buildCore(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			sweeper := app.Sweeper(dryRun)
			if cmd.Flags().Changed("grace") {
				sweeper.Grace = grace
			}
			rep, err := sweeper.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if rootOpts.Verbose || dryRun {
				for _, key := range rep.Orphans {
					fmt.Fprintf(out, "orphan %s\n", key)
				}
			}
			fmt.Fprintf(out, "scanned=%d referenced=%d too_young=%d orphans=%d deleted=%d failed=%d\n",
				rep.Scanned, rep.Referenced, rep.TooYoung, len(rep.Orphans), rep.Deleted, rep.Failed)
			if rep.Failed > 0 {
				return fmt.Errorf("%d orphan(s) could not be deleted", rep.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report orphans without deleting them")
	cmd.Flags().DurationVar(&grace, "grace", 0, "minimum age of a deletable resume (default ORPHAN_GRACE)")
	return cmd
}
