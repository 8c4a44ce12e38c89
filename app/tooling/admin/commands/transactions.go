package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var account string

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Print the transaction log, newest first",
	Args:  cobra.NoArgs,
	RunE:  transactionsRun,
}

func init() {
	rootCmd.AddCommand(transactionsCmd)
	transactionsCmd.Flags().StringVarP(&account, "account", "a", "", "Only show transactions touching this address.")
}

func transactionsRun(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()

	txs, err := newLedger(db).QueryTransactions(ctx)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}

	data := pterm.TableData{
		{"ID", "From", "To", "Amount", "Block", "Time"},
	}
	for _, tx := range txs {
		if account != "" && tx.FromAddress != account && tx.ToAddress != account {
			continue
		}

		block := "-"
		if tx.BlockIndex != nil {
			block = strconv.FormatUint(*tx.BlockIndex, 10)
		}

		data = append(data, []string{
			tx.ID.String(),
			tx.FromAddress,
			tx.ToAddress,
			tx.Amount.String(),
			block,
			tx.DateCreated.Format(time.RFC3339),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
