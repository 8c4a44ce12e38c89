package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report every block whose previous hash no longer matches its predecessor",
	Args:  cobra.NoArgs,
	RunE:  verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()

	broken, err := newLedger(db).Verify(ctx)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if len(broken) == 0 {
		pterm.Success.Println("every block links to its predecessor")
		return nil
	}

	pterm.Warning.Printfln("%d broken links", len(broken))
	for _, index := range broken {
		pterm.Warning.Printfln("block %d does not link to block %d", index, index-1)
	}

	return nil
}
