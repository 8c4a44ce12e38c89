package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var price string

var transferBlockCmd = &cobra.Command{
	Use:   "transfer-block <index> <username>",
	Short: "Hand a block to a new owner and record the change",
	Args:  cobra.ExactArgs(2),
	RunE:  transferBlockRun,
}

func init() {
	rootCmd.AddCommand(transferBlockCmd)
	transferBlockCmd.Flags().StringVar(&price, "price", "0", "Price recorded with the change of owner.")
}

func transferBlockRun(cmd *cobra.Command, args []string) error {
	index, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parse index: %w", err)
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return fmt.Errorf("parse price: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()

	usr, err := newUser(db).QueryByUsername(ctx, args[1])
	if err != nil {
		return fmt.Errorf("query user: %w", err)
	}

	o, err := newLedger(db).TransferBlockOwnership(ctx, index, usr.ID, p)
	if err != nil {
		return fmt.Errorf("transfer block: %w", err)
	}

	pterm.Success.Printfln("block %d moved from %s to %s for %s", o.BlockIndex, o.PreviousOwner, o.NewOwner, o.Price)
	return nil
}
