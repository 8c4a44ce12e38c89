// Package cmd contains wallet app
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	url         string
	sessionPath string
	cookieName  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:5111", "Url of the chainlogger service.")
	rootCmd.PersistentFlags().StringVarP(&sessionPath, "session", "s", defaultSessionPath(), "File holding the session token.")
	rootCmd.PersistentFlags().StringVar(&cookieName, "cookie", "chainlogger_session", "Name of the session cookie.")
}

var rootCmd = &cobra.Command{
	Use:          "wallet",
	Short:        "You simple wallet",
	SilenceUsage: true,
}

// Execute runs the command named on the command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// =============================================================================

var client = http.Client{
	Timeout: 10 * time.Second,
}

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chainlogger_session"
	}

	return filepath.Join(home, ".chainlogger_session")
}

func loadToken() (string, error) {
	data, err := os.ReadFile(sessionPath)
	if err != nil {
		return "", fmt.Errorf("not logged in, run the login command: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// call sends the request with the session cookie and decodes the JSON
// response into resp.
func call(method string, path string, body any, resp any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if token, err := loadToken(); err == nil {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var ae apiError
		if err := json.NewDecoder(res.Body).Decode(&ae); err != nil {
			return fmt.Errorf("status %d", res.StatusCode)
		}
		if len(ae.Fields) > 0 {
			return fmt.Errorf("%s: %v", ae.Error, ae.Fields)
		}
		return fmt.Errorf("%s", ae.Error)
	}

	if resp == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(resp)
}
