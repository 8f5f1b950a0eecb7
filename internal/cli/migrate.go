package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quickapply-backend/internal/shared/storage/db"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.LoadConfig()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			sqlDB, err := db.Connect(cmd.Context(), cfg.DatabaseURL, db.WithPool(db.DefaultCLIOptions(), cfg.DB))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if !statusOnly {
				if err := db.RunMigrations(cmd.Context(), sqlDB); err != nil {
					return err
				}
			}
			version, err := db.MigrationVersion(cmd.Context(), sqlDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migration version %d\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "print the current version without migrating")
	return cmd
}
