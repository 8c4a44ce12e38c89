// Package commands contains the admin tool commands.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/core/ledger/stores/ledgerdb"
	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/business/core/user/stores/userdb"
	"github.com/ardanlabs/chainlogger/business/sys/database"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// timeout bounds every command's work against the database.
const timeout = 30 * time.Second

var (
	log   *zap.SugaredLogger
	dbCfg database.Config
)

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Administrative tasks for the chainlogger service",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbCfg.User, "db-user", "postgres", "Database user.")
	pf.StringVar(&dbCfg.Password, "db-password", "postgres", "Database password.")
	pf.StringVar(&dbCfg.Host, "db-host", "localhost", "Database host.")
	pf.StringVar(&dbCfg.Name, "db-name", "chainlogger", "Database name.")
	pf.StringVar(&dbCfg.Schema, "db-schema", "public", "Database schema.")
	pf.BoolVar(&dbCfg.DisableTLS, "db-disable-tls", true, "Disable TLS to the database.")
}

// Execute runs the command named on the command line.
func Execute(build string, l *zap.SugaredLogger) error {
	log = l
	rootCmd.Version = build

	return rootCmd.Execute()
}

// =============================================================================

func openDB() (*sqlx.DB, error) {
	cfg := dbCfg
	cfg.MaxIdleConns = 1
	cfg.MaxOpenConns = 2

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return db, nil
}

func newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func newLedger(db *sqlx.DB) *ledger.Core {
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	return ledger.NewCore(log, ledgerdb.NewStore(log, db), ledger.Config{
		EvHandler: ev,
	})
}

func newUser(db *sqlx.DB) *user.Core {
	return user.NewCore(log, userdb.NewStore(log, db))
}
