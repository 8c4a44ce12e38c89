// Package tradegrp maintains the group of handlers for trading against the
// BTC/USDT price feed.
package tradegrp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/core/trade"
	"github.com/ardanlabs/chainlogger/business/web/auth"
	"github.com/ardanlabs/chainlogger/business/web/errs"
	"github.com/ardanlabs/chainlogger/foundation/binance"
	"github.com/ardanlabs/chainlogger/foundation/web"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// klinesLimit is the number of candles the klines proxy asks for.
const klinesLimit = 100

// Handlers manages the set of trade endpoints.
type Handlers struct {
	Log          *zap.SugaredLogger
	Trading      *trade.Core
	Session      *session.Core
	Binance      *binance.Client
	CookieName   string
	SecureCookie bool
}

// Quote returns the caller's stored balance with the current prices.
func (h Handlers) Quote(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	acct, err := h.Trading.QueryAccount(ctx, claims.UserID)
	if err != nil {
		return statuses.Trust(err)
	}

	quote, err := h.Trading.Quote(ctx)
	if err != nil {
		return statuses.Trust(err)
	}

	resp := accountQuote{
		StoredBalance: acct.StoredBalance,
		PukPrice:      quote.PukPrice,
		BTCPrice:      quote.BTCPrice,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Trade buys or sells a percentage of the caller's stored balance.
func (h Handlers) Trade(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.trade(ctx, w, r, h.Trading.Trade)
}

// TradePuk buys or sells PUK with a percentage of the caller's stored
// balance.
func (h Handlers) TradePuk(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.trade(ctx, w, r, h.Trading.TradePuk)
}

// Klines proxies the candlestick data for the requested timeframe.
func (h Handlers) Klines(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data, err := h.Binance.Klines(ctx, web.Param(r, "timeframe"), klinesLimit)
	if err != nil {
		return statuses.Trust(err)
	}

	return web.RespondRaw(ctx, w, data, "application/json", http.StatusOK)
}

// =============================================================================

type tradeFunc func(ctx context.Context, userID uuid.UUID, ot trade.Order) (trade.Result, error)

func (h Handlers) trade(ctx context.Context, w http.ResponseWriter, r *http.Request, fn tradeFunc) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	var ot trade.Order
	if err := web.Decode(r, &ot); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	res, err := fn(ctx, claims.UserID, ot)
	if err != nil {
		return statuses.Trust(err)
	}

	h.Log.Infow("trade", "traceid", v.TraceID, "userid", claims.UserID, "action", res.Action, "amount", res.Amount, "value", res.Value, "balance", res.StoredBalance)

	// A liquidated account is logged out.
	if res.Liquidated {
		if err := h.Session.Delete(ctx, claims.Token); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		auth.ClearCookie(w, h.CookieName, h.SecureCookie)

		h.Log.Infow("trade", "traceid", v.TraceID, "userid", claims.UserID, "status", "liquidated")
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

// statuses maps the trade errors a caller can act on to a status.
var statuses = errs.Statuses{
	{Err: trade.ErrNotFound, Code: http.StatusNotFound},
	{Err: trade.ErrInvalidAction, Code: http.StatusBadRequest},
	{Err: trade.ErrInvalidPercentage, Code: http.StatusBadRequest},
	{Err: trade.ErrExceedsMaximum, Code: http.StatusBadRequest},
	{Err: trade.ErrInvalidPrice, Code: http.StatusBadGateway},
	{Err: binance.ErrUpstream, Code: http.StatusBadGateway},
}
