package cli

import (
	"errors"
	"fmt"
	"path"

	pg "pet-adoption-marketplace/internal/adapters/storage/postgres"
	"pet-adoption-marketplace/internal/adapters/storage/postgres/migrations"
	"pet-adoption-marketplace/internal/platform/config"

	"github.com/spf13/cobra"
)

var errNoDSN = errors.New("DB_DSN is required to run migrations")

func migrateCmd() *cobra.Command {
	var list bool

	c := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL migrations to DB_DSN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				names, err := migrations.Names()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), path.Base(n))
				}
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DBDSN == "" {
				return errNoDSN
			}

			db, err := pg.Open(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()

			if err := migrations.Apply(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}

	c.Flags().BoolVar(&list, "list", false, "Only print the migration files in order")
	return c
}
