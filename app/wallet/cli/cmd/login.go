package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Start a session and keep its token.",
	Args:  cobra.ExactArgs(2),
	Run:   loginRun,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func loginRun(cmd *cobra.Command, args []string) {
	data, err := json.Marshal(map[string]string{
		"username": args[0],
		"password": args[1],
	})
	if err != nil {
		log.Fatal(err)
	}

	resp, err := client.Post(url+"/v1/login", "application/json", bytes.NewReader(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		json.NewDecoder(resp.Body).Decode(&ae)
		log.Fatalf("login failed: %s", ae.Error)
	}

	for _, c := range resp.Cookies() {
		if c.Name != cookieName {
			continue
		}

		if err := os.WriteFile(sessionPath, []byte(c.Value), 0600); err != nil {
			log.Fatal(err)
		}

		fmt.Println("Logged in as", args[0])
		return
	}

	log.Fatal("login failed: no session cookie returned")
}
