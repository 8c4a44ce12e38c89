package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var showQR bool

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address of your wallet",
	Run:   addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
	addressCmd.Flags().BoolVarP(&showQR, "qr", "q", false, "Also print the address as a QR code.")
}

func addressRun(cmd *cobra.Command, args []string) {
	var w wallet
	if err := call(http.MethodGet, "/v1/wallet", nil, &w); err != nil {
		log.Fatal(err)
	}

	fmt.Println(w.Address)

	if !showQR {
		return
	}

	qr, err := qrcode.New(w.Address, qrcode.Medium)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Print(qr.ToSmallString(false))
}
