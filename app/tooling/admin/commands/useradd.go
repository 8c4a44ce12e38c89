package commands

import (
	"fmt"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var admin bool

var userAddCmd = &cobra.Command{
	Use:   "useradd <username> <password>",
	Short: "Add a user and the wallet that belongs to it",
	Args:  cobra.ExactArgs(2),
	RunE:  userAddRun,
}

func init() {
	rootCmd.AddCommand(userAddCmd)
	userAddCmd.Flags().BoolVar(&admin, "admin", false, "Give the user admin rights.")
}

func userAddRun(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()

	nu := user.NewUser{
		Username: args[0],
		Password: args[1],
	}

	usr, err := newUser(db).Create(ctx, nu, admin, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	pterm.Success.Printfln("user %s created, id %s, wallet %s, admin %t", usr.Username, usr.ID, usr.WalletAddress, usr.IsAdmin)
	return nil
}
