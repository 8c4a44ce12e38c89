// Package admingrp maintains the group of handlers for administrators.
package admingrp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of admin endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Board  *board.Core
	User   *user.Core
	Ledger *ledger.Core
}

// Dashboard returns every post and comment with the user and transaction
// counts.
func (h Handlers) Dashboard(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	posts, err := h.Board.QueryAllPosts(ctx)
	if err != nil {
		return fmt.Errorf("query posts: %w", err)
	}

	cmts, err := h.Board.QueryAllComments(ctx)
	if err != nil {
		return fmt.Errorf("query comments: %w", err)
	}

	users, err := h.User.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	stats, err := h.Ledger.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	resp := dashboard{
		Posts:             posts,
		Comments:          cmts,
		TotalUsers:        users,
		TotalTransactions: stats.TotalTxs,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

type dashboard struct {
	Posts             []board.Post    `json:"posts"`
	Comments          []board.Comment `json:"comments"`
	TotalUsers        int             `json:"total_users"`
	TotalTransactions int             `json:"total_transactions"`
}
