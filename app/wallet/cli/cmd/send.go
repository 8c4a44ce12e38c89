package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	to    string
	value string
)

type transfer struct {
	ToAddress string          `json:"to_address"`
	Amount    decimal.Decimal `json:"amount"`
}

type tx struct {
	ID          string          `json:"id"`
	FromAddress string          `json:"from_address"`
	ToAddress   string          `json:"to_address"`
	Amount      decimal.Decimal `json:"amount"`
}

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send ledger coins to another wallet",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address to send to.")
	sendCmd.Flags().StringVarP(&value, "value", "v", "0", "Value to send.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) {
	if !common.IsHexAddress(to) {
		log.Fatalf("%q is not a wallet address", to)
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		log.Fatal(err)
	}

	nt := transfer{
		ToAddress: common.HexToAddress(to).Hex(),
		Amount:    amount,
	}

	var t tx
	if err := call(http.MethodPost, "/v1/transfer", nt, &t); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Sent %s from %s to %s, tx %s\n", t.Amount, t.FromAddress, t.ToAddress, t.ID)
}
