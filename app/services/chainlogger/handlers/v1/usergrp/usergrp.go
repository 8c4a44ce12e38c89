// Package usergrp maintains the group of handlers for user accounts and
// sessions.
package usergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/business/web/auth"
	"github.com/ardanlabs/chainlogger/business/web/errs"
	"github.com/ardanlabs/chainlogger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of user endpoints.
type Handlers struct {
	Log          *zap.SugaredLogger
	User         *user.Core
	Session      *session.Core
	CookieName   string
	SecureCookie bool
}

// Register creates a new user along with the wallet that belongs to it.
func (h Handlers) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return h.create(ctx, w, r, false)
}

// RegisterAdmin creates a new admin. Anyone may create the first admin,
// after that only admins can.
func (h Handlers) RegisterAdmin(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.User.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("countadmins: %w", err)
	}

	if n > 0 {
		claims, err := auth.GetClaims(ctx)
		if err != nil {
			return err
		}
		if !claims.IsAdmin {
			return auth.ErrForbidden
		}
	}

	return h.create(ctx, w, r, true)
}

// Login verifies the credentials and starts a session held in a cookie.
func (h Handlers) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var cred credentials
	if err := web.Decode(r, &cred); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	usr, err := h.User.Authenticate(ctx, cred.Username, cred.Password)
	if err != nil {
		if errors.Is(err, user.ErrAuthenticationFailure) {
			return errs.NewTrusted(errors.New("invalid credentials"), http.StatusUnauthorized)
		}
		return fmt.Errorf("authenticate: %w", err)
	}

	sess, err := h.Session.Create(ctx, usr.ID, usr.IsAdmin, v.Now)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	auth.SetCookie(w, h.CookieName, sess.Token, sess.DateExpires, h.SecureCookie)

	h.Log.Infow("login", "traceid", v.TraceID, "userid", usr.ID, "admin", usr.IsAdmin)

	resp := loginResponse{
		UserID:      usr.ID.String(),
		Username:    usr.Username,
		IsAdmin:     usr.IsAdmin,
		DateExpires: sess.DateExpires,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Logout ends the session of the calling user.
func (h Handlers) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	if err := h.Session.Delete(ctx, claims.Token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	auth.ClearCookie(w, h.CookieName, h.SecureCookie)

	resp := status{
		Status: "logged out",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

func (h Handlers) create(ctx context.Context, w http.ResponseWriter, r *http.Request, isAdmin bool) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nu user.NewUser
	if err := web.Decode(r, &nu); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	usr, err := h.User.Create(ctx, nu, isAdmin, v.Now)
	if err != nil {
		return statuses.Trust(fmt.Errorf("create: %w", err))
	}

	h.Log.Infow("register", "traceid", v.TraceID, "userid", usr.ID, "admin", isAdmin, "wallet", usr.WalletAddress)

	return web.Respond(ctx, w, usr, http.StatusCreated)
}

var statuses = errs.Statuses{
	{Err: user.ErrUniqueUsername, Code: http.StatusConflict},
	{Err: user.ErrPasswordTooLong, Code: http.StatusBadRequest},
}
