package commands

import (
	"fmt"

	"github.com/jcpaschoal/confmgmt/business/sdk/migrate"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	e, err := getEnv()
	if err != nil {
		return err
	}

	if err := migrate.Migrate(cmd.Context(), e.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Println("migrations complete")
	return nil
}
