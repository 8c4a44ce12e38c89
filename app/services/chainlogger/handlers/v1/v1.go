// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers/v1/admingrp"
	"github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers/v1/boardgrp"
	"github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers/v1/ledgergrp"
	"github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers/v1/tradegrp"
	"github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers/v1/usergrp"
	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/core/trade"
	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/business/web/mid"
	"github.com/ardanlabs/chainlogger/foundation/binance"
	"github.com/ardanlabs/chainlogger/foundation/events"
	"github.com/ardanlabs/chainlogger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log          *zap.SugaredLogger
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

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	authen := mid.Authenticate(cfg.Session, cfg.CookieName)
	ident := mid.Identify(cfg.Session, cfg.CookieName)
	admin := mid.Authorize()

	// =========================================================================
	// Users and sessions

	ugh := usergrp.Handlers{
		Log:          cfg.Log,
		User:         cfg.User,
		Session:      cfg.Session,
		CookieName:   cfg.CookieName,
		SecureCookie: cfg.SecureCookie,
	}
	app.Handle(http.MethodPost, version, "/register", ugh.Register)
	app.Handle(http.MethodPost, version, "/login", ugh.Login)
	app.Handle(http.MethodPost, version, "/register_admin", ugh.RegisterAdmin, ident)
	app.Handle(http.MethodGet, version, "/logout", ugh.Logout, authen)

	// =========================================================================
	// Ledger

	lgh := ledgergrp.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		User:   cfg.User,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
	}
	app.Handle(http.MethodGet, version, "/blockchain", lgh.QueryBlocks, authen)
	app.Handle(http.MethodGet, version, "/block/:index", lgh.QueryBlock, authen)
	app.Handle(http.MethodGet, version, "/edit_block/:index", lgh.QueryMessage, authen)
	app.Handle(http.MethodPost, version, "/edit_block/:index", lgh.UpdateMessage, authen)
	app.Handle(http.MethodGet, version, "/wallet", lgh.Wallet, authen)
	app.Handle(http.MethodGet, version, "/wallet/qrcode", lgh.WalletQRCode, authen)
	app.Handle(http.MethodPost, version, "/timecapsule", lgh.TimeCapsule, authen)
	app.Handle(http.MethodGet, version, "/transactions", lgh.Transactions, authen)
	app.Handle(http.MethodGet, version, "/transfer", lgh.Balance, authen)
	app.Handle(http.MethodPost, version, "/transfer", lgh.Transfer, authen)
	app.Handle(http.MethodGet, version, "/events", lgh.Events, authen)

	// =========================================================================
	// Trading

	tgh := tradegrp.Handlers{
		Log:          cfg.Log,
		Trading:      cfg.Trade,
		Session:      cfg.Session,
		Binance:      cfg.Binance,
		CookieName:   cfg.CookieName,
		SecureCookie: cfg.SecureCookie,
	}
	app.Handle(http.MethodGet, version, "/trade", tgh.Quote, authen)
	app.Handle(http.MethodPost, version, "/trade", tgh.Trade, authen)
	app.Handle(http.MethodGet, version, "/trade_puk", tgh.Quote, authen)
	app.Handle(http.MethodPost, version, "/trade_puk", tgh.TradePuk, authen)
	app.Handle(http.MethodGet, version, "/api/klines/:timeframe", tgh.Klines)

	// =========================================================================
	// Message board

	bgh := boardgrp.Handlers{
		Log:   cfg.Log,
		Board: cfg.Board,
	}
	app.Handle(http.MethodGet, version, "/board", bgh.QueryPosts, authen)
	app.Handle(http.MethodPost, version, "/board/new", bgh.CreatePost, authen)
	app.Handle(http.MethodGet, version, "/board/:id", bgh.QueryPost, authen)
	app.Handle(http.MethodPost, version, "/board/:id", bgh.AddComment, authen)
	app.Handle(http.MethodPost, version, "/board/delete_post/:id", bgh.DeletePost, authen, admin)
	app.Handle(http.MethodPost, version, "/board/delete_comment/:id", bgh.DeleteComment, authen, admin)

	// =========================================================================
	// Administration

	agh := admingrp.Handlers{
		Log:    cfg.Log,
		Board:  cfg.Board,
		User:   cfg.User,
		Ledger: cfg.Ledger,
	}
	app.Handle(http.MethodGet, version, "/admin_dashboard", agh.Dashboard, authen, admin)
}
