package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers"
	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/ardanlabs/chainlogger/business/core/board/stores/boarddb"
	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/core/ledger/stores/ledgerdb"
	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/core/session/stores/sessiondb"
	"github.com/ardanlabs/chainlogger/business/core/trade"
	"github.com/ardanlabs/chainlogger/business/core/trade/stores/tradedb"
	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/business/core/user/stores/userdb"
	"github.com/ardanlabs/chainlogger/business/data/schema"
	"github.com/ardanlabs/chainlogger/business/sys/database"
	"github.com/ardanlabs/chainlogger/foundation/binance"
	"github.com/ardanlabs/chainlogger/foundation/events"
	"github.com/ardanlabs/chainlogger/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("CHAINLOGGER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:5111"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			CorsOrigin      string        `conf:"default:*"`
		}
		DB struct {
			User         string `conf:"default:postgres"`
			Password     string `conf:"default:postgres,mask"`
			Host         string `conf:"default:localhost"`
			Name         string `conf:"default:chainlogger"`
			Schema       string `conf:"default:public"`
			MaxIdleConns int    `conf:"default:2"`
			MaxOpenConns int    `conf:"default:10"`
			DisableTLS   bool   `conf:"default:true"`
		}
		Auth struct {
			SessionTTL    time.Duration `conf:"default:24h"`
			PurgeInterval time.Duration `conf:"default:10m"`
			CookieName    string        `conf:"default:chainlogger_session"`
			SecureCookie  bool          `conf:"default:false"`
		}
		Admin struct {
			Username string `conf:"default:admin"`
			Password string `conf:"mask"`
		}
		Ledger struct {
			Reward        int64 `conf:"default:10"`
			AppendRetries int   `conf:"default:3"`
		}
		Quote struct {
			BaseURL  string        `conf:"default:https://api.binance.com"`
			Symbol   string        `conf:"default:BTCUSDT"`
			Timeout  time.Duration `conf:"default:5s"`
			PukRatio string        `conf:"default:1"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "CHAINLOGGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	pukRatio, err := decimal.NewFromString(cfg.Quote.PukRatio)
	if err != nil {
		return fmt.Errorf("parsing puk ratio: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`   ____ _           _       _                                 `)
	fmt.Println(`  / ___| |__   __ _(_)_ __ | |    ___   __ _  __ _  ___ _ __ `)
	fmt.Println(` | |   | '_ \ / _' | | '_ \| |   / _ \ / _' |/ _' |/ _ \ '__|`)
	fmt.Println(` | |___| | | | (_| | | | | | |__| (_) | (_| | (_| |  __/ |   `)
	fmt.Println(`  \____|_| |_|\__,_|_|_| |_|_____\___/ \__, |\__, |\___|_|   `)
	fmt.Println(`                                       |___/ |___/           `)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Database Support

	log.Infow("startup", "status", "initializing database support", "host", cfg.DB.Host)

	db, err := database.Open(database.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		Schema:       cfg.DB.Schema,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Infow("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
		db.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := schema.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrating db: %w", err)
	}

	// =========================================================================
	// Ledger Support

	// The ledger accepts a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(eventKind(s), s)
	}

	ldgCore := ledger.NewCore(log, ledgerdb.NewStore(log, db), ledger.Config{
		Reward:        decimal.NewFromInt(cfg.Ledger.Reward),
		AppendRetries: cfg.Ledger.AppendRetries,
		EvHandler:     ev,
	})

	if err := ldgCore.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing ledger: %w", err)
	}

	usrCore := user.NewCore(log, userdb.NewStore(log, db))
	sesCore := session.NewCore(log, sessiondb.NewStore(log, db), cfg.Auth.SessionTTL)
	brdCore := board.NewCore(log, boarddb.NewStore(log, db))

	bnc := binance.New(binance.Config{
		BaseURL: cfg.Quote.BaseURL,
		Symbol:  cfg.Quote.Symbol,
		Timeout: cfg.Quote.Timeout,
	})

	trdCore := trade.NewCore(log, tradedb.NewStore(log, db), bnc, trade.Config{
		PukRatio: pukRatio,
	})

	// =========================================================================
	// Admin Bootstrap

	switch cfg.Admin.Password {
	case "":
		n, err := usrCore.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("counting admins: %w", err)
		}
		if n == 0 {
			log.Infow("startup", "status", "no admin account, register one through /v1/register_admin")
		}

	default:
		nu := user.NewUser{
			Username: cfg.Admin.Username,
			Password: cfg.Admin.Password,
		}

		usr, created, err := usrCore.BootstrapAdmin(ctx, nu, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("bootstrapping admin: %w", err)
		}
		if created {
			log.Infow("startup", "status", "admin account created", "username", usr.Username, "wallet", usr.WalletAddress)
		}
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, db)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Session Purging

	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	defer purgeCancel()

	go func() {
		ticker := time.NewTicker(cfg.Auth.PurgeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n, err := sesCore.Purge(purgeCtx, time.Now().UTC())
				if err != nil {
					log.Errorw("session purge", "ERROR", err)
					continue
				}
				if n > 0 {
					log.Infow("session purge", "status", "expired sessions removed", "count", n)
				}

			case <-purgeCtx.Done():
				return
			}
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	// Construct the mux for the API calls.
	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown:     shutdown,
		Log:          log,
		CorsOrigin:   cfg.Web.CorsOrigin,
		CookieName:   cfg.Auth.CookieName,
		SecureCookie: cfg.Auth.SecureCookie,
		Ledger:       ldgCore,
		User:         usrCore,
		Session:      sesCore,
		Board:        brdCore,
		Trade:        trdCore,
		Binance:      bnc,
		Evts:         evts,
	})

	// Construct a server to service the requests against the mux.
	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// eventKind pulls the operation name out of a ledger event such as
// "ledger: AppendBlock: blk[3]: hash[...]".
func eventKind(s string) string {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return "ledger"
	}

	return strings.TrimSpace(parts[1])
}
