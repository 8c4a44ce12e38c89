package commands

import (
	"fmt"

	"github.com/ardanlabs/chainlogger/business/data/schema"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and write the genesis block",
	Args:  cobra.NoArgs,
	RunE:  migrateRun,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrateRun(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()

	if err := schema.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err := newLedger(db).Initialize(ctx); err != nil {
		return fmt.Errorf("initialize ledger: %w", err)
	}

	pterm.Success.Println("migrations complete")
	return nil
}
