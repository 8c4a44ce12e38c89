// This program is a command line wallet for the chainlogger service.
package main

import "github.com/ardanlabs/chainlogger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
