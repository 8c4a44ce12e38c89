package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print the ledger and stored balance of every wallet",
	Args:  cobra.NoArgs,
	RunE:  balancesRun,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
}

func balancesRun(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()

	bals, err := newLedger(db).QueryBalances(ctx)
	if err != nil {
		return fmt.Errorf("query balances: %w", err)
	}

	data := pterm.TableData{
		{"User", "Address", "Ledger Balance", "Stored Balance"},
	}
	for _, bal := range bals {
		data = append(data, []string{
			bal.Wallet.Username,
			bal.Wallet.Address,
			bal.LedgerBalance.String(),
			bal.StoredBalance.String(),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
