package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type wallet struct {
	Address       string          `json:"address"`
	LedgerBalance decimal.Decimal `json:"balance"`
	StoredBalance decimal.Decimal `json:"puk_balance"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	var w wallet
	if err := call(http.MethodGet, "/v1/wallet", nil, &w); err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Account:", w.Address)
	fmt.Println("Ledger Balance:", w.LedgerBalance)
	fmt.Println("Stored Balance:", w.StoredBalance)
}
