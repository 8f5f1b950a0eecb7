package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <application-id>...",
		Short: "Generate missing summary PDFs for applications",
		Long: `Renders and attaches the summary PDF for each application that does not
have one yet. Summary generation after a submission is best effort; this
re-drives it for applications whose queued job failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.buildCore(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			failed := 0
			for _, id := range args {
				if err := app.Summaries.ProcessSummary(cmd.Context(), id); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d summaries failed", failed, len(args))
			}
			return nil
		},
	}
}
