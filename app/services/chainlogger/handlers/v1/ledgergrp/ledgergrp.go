// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/business/web/auth"
	"github.com/ardanlabs/chainlogger/business/web/errs"
	"github.com/ardanlabs/chainlogger/foundation/events"
	"github.com/ardanlabs/chainlogger/foundation/web"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Core
	User   *user.Core
	WS     websocket.Upgrader
	Evts   *events.Events
}

// QueryBlocks returns a page of block summaries.
func (h Handlers) QueryBlocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	page := web.QueryInt(r, "page", 1)
	orderBy := ledger.ParseOrder(r.URL.Query().Get("sort_by"), r.URL.Query().Get("sort_order"))

	blocks, p, err := h.Ledger.QueryBlockPage(ctx, page, orderBy)
	if err != nil {
		return fmt.Errorf("query blocks: %w", err)
	}

	resp := blockPage{
		Blocks:    blocks,
		Page:      p,
		SortBy:    orderBy.Field,
		SortOrder: orderBy.Direction,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// QueryBlock returns the block with its transactions and ownership history.
func (h Handlers) QueryBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	index, err := blockIndex(r)
	if err != nil {
		return err
	}

	detail, err := h.Ledger.QueryBlockDetail(ctx, index)
	if err != nil {
		return statuses.Trust(err)
	}

	resp := blockDetail{
		BlockDetail: detail,
		IsOwner:     detail.Block.OwnerID == claims.UserID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// QueryMessage returns the current message of a block the caller owns.
func (h Handlers) QueryMessage(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	index, err := blockIndex(r)
	if err != nil {
		return err
	}

	blk, err := h.Ledger.QueryBlockByIndex(ctx, index)
	if err != nil {
		return statuses.Trust(err)
	}

	if blk.OwnerID != claims.UserID {
		return errs.NewTrusted(ledger.ErrNotOwner, http.StatusForbidden)
	}

	resp := blockMessage{
		Index:   blk.Index,
		Message: blk.Message,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UpdateMessage replaces the message of a block the caller owns.
func (h Handlers) UpdateMessage(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	index, err := blockIndex(r)
	if err != nil {
		return err
	}

	var um updateMessage
	if err := web.Decode(r, &um); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blk, err := h.Ledger.UpdateMessage(ctx, index, um.Message, claims.UserID)
	if err != nil {
		return statuses.Trust(err)
	}

	h.Log.Infow("edit block", "traceid", v.TraceID, "index", blk.Index, "hash", blk.Hash)

	return web.Respond(ctx, w, blk, http.StatusOK)
}

// Wallet returns the caller's wallet with both balances and the
// transaction log.
func (h Handlers) Wallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	wallet, err := h.Ledger.QueryWalletByUserID(ctx, claims.UserID)
	if err != nil {
		return statuses.Trust(err)
	}

	bal, err := h.Ledger.CalculateBalance(ctx, wallet.Address)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}

	txs, err := h.Ledger.QueryTransactions(ctx)
	if err != nil {
		return fmt.Errorf("transactions: %w", err)
	}

	resp := walletInfo{
		Address:       wallet.Address,
		PrivateKey:    wallet.PrivateKey,
		LedgerBalance: bal,
		StoredBalance: wallet.StoredBalance,
		Transactions:  txs,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// WalletQRCode renders the caller's wallet address as a PNG QR code.
func (h Handlers) WalletQRCode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	wallet, err := h.Ledger.QueryWalletByUserID(ctx, claims.UserID)
	if err != nil {
		return statuses.Trust(err)
	}

	png, err := qrcode.Encode(wallet.Address, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("qrcode: %w", err)
	}

	return web.RespondRaw(ctx, w, png, "image/png", http.StatusOK)
}

// TimeCapsule appends a block carrying the caller's message. The caller
// owns the block and receives the reward.
func (h Handlers) TimeCapsule(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	var tc timeCapsule
	if err := web.Decode(r, &tc); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	nb := ledger.NewBlock{
		Message: tc.Message,
		OwnerID: claims.UserID,
	}

	blk, err := h.Ledger.AppendBlock(ctx, nb)
	if err != nil {
		return statuses.Trust(err)
	}

	h.Log.Infow("time capsule", "traceid", v.TraceID, "index", blk.Index, "hash", blk.Hash, "owner", blk.OwnerName)

	return web.Respond(ctx, w, blk, http.StatusCreated)
}

// Transactions returns the transaction log with the user and coin totals.
func (h Handlers) Transactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs, err := h.Ledger.QueryTransactions(ctx)
	if err != nil {
		return fmt.Errorf("transactions: %w", err)
	}

	stats, err := h.Ledger.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	users, err := h.User.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	resp := txLog{
		Transactions: txs,
		TotalUsers:   users,
		TotalCoins:   stats.TotalIssued,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the caller's ledger balance.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	wallet, err := h.Ledger.QueryWalletByUserID(ctx, claims.UserID)
	if err != nil {
		return statuses.Trust(err)
	}

	bal, err := h.Ledger.CalculateBalance(ctx, wallet.Address)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}

	resp := balance{
		Address: wallet.Address,
		Balance: bal,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Transfer moves ledger currency from the caller's wallet to another.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	var nt newTransfer
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	wallet, err := h.Ledger.QueryWalletByUserID(ctx, claims.UserID)
	if err != nil {
		return statuses.Trust(err)
	}

	tx, err := h.Ledger.Transfer(ctx, wallet.Address, nt.ToAddress, nt.Amount)
	if err != nil {
		return statuses.Trust(err)
	}

	h.Log.Infow("transfer", "traceid", v.TraceID, "from", tx.FromAddress, "to", tx.ToAddress, "amount", tx.Amount)

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// Events handles a web socket to provide ledger events to a client. The
// kinds query parameter, a comma separated list, limits what is sent.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The connection is hijacked so the logger sees a switch of protocols.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	var kinds []string
	if q := r.URL.Query().Get("kinds"); q != "" {
		kinds = strings.Split(q, ",")
	}

	ch := h.Evts.Acquire(v.TraceID, kinds...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

func blockIndex(r *http.Request) (uint64, error) {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	return index, nil
}

// statuses maps the ledger errors a caller can act on to a status.
var statuses = errs.Statuses{
	{Err: ledger.ErrNotFound, Code: http.StatusNotFound},
	{Err: ledger.ErrWalletNotFound, Code: http.StatusNotFound},
	{Err: ledger.ErrNotOwner, Code: http.StatusForbidden},
	{Err: ledger.ErrEmptyMessage, Code: http.StatusBadRequest},
	{Err: ledger.ErrInsufficientBalance, Code: http.StatusBadRequest},
	{Err: ledger.ErrInvalidAmount, Code: http.StatusBadRequest},
	{Err: ledger.ErrRecipientNotFound, Code: http.StatusBadRequest},
}
