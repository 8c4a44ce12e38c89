// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers/v1"
	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/core/trade"
	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/business/web/mid"
	"github.com/ardanlabs/chainlogger/foundation/binance"
	"github.com/ardanlabs/chainlogger/foundation/events"
	"github.com/ardanlabs/chainlogger/foundation/web"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown     chan os.Signal
	Log          *zap.SugaredLogger
	CorsOrigin   string
	CookieName   string
	SecureCookie bool
	Ledger       *ledger.Core
	User         *user.Core
	Session      *session.Core
	Board        *board.Core
	Trade        *trade.Core
	Binance      *binance.Client
	Evts         *events.Events
}

// APIMux constructs a http.Handler with all application routes defined.
func APIMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors(cfg.CorsOrigin),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests. The Cors middleware answers
	// them before this handler runs.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h)

	// Load the v1 routes.
	v1.Routes(app, v1.Config{
		Log:          cfg.Log,
		CookieName:   cfg.CookieName,
		SecureCookie: cfg.SecureCookie,
		Ledger:       cfg.Ledger,
		User:         cfg.User,
		Session:      cfg.Session,
		Board:        cfg.Board,
		Trade:        cfg.Trade,
		Binance:      cfg.Binance,
		Evts:         cfg.Evts,
	})

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(build string, log *zap.SugaredLogger, db *sqlx.DB) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
		DB:    db,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}
