// This program performs administrative tasks for the chainlogger service.
package main

import (
	"fmt"
	"os"

	"github.com/ardanlabs/chainlogger/app/tooling/admin/commands"
	"github.com/ardanlabs/chainlogger/foundation/logger"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger. Command output goes to stdout so
	// the logs are kept on stderr.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := commands.Execute(build, log); err != nil {
		log.Errorw("admin", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}
