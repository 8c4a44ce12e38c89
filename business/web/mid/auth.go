package mid

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/web/auth"
	"github.com/ardanlabs/chainlogger/foundation/web"
)

// Authenticate validates the session cookie and stores the claims of the
// logged in user in the context.
func Authenticate(sess *session.Core, cookieName string) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			claims, err := lookup(ctx, sess, cookieName, r)
			if err != nil {
				return err
			}

			// Add claims to the context so they can be retrieved later.
			ctx = auth.SetClaims(ctx, claims)

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

// Identify is like Authenticate but lets anonymous requests through
// without claims.
func Identify(sess *session.Core, cookieName string) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			claims, err := lookup(ctx, sess, cookieName, r)
			switch {
			case err == nil:
				ctx = auth.SetClaims(ctx, claims)
			case !errors.Is(err, auth.ErrUnauthenticated):
				return err
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

// Authorize validates that an authenticated user is an admin.
func Authorize() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// If the context is missing this value return failure.
			claims, err := auth.GetClaims(ctx)
			if err != nil {
				return err
			}

			if !claims.IsAdmin {
				return auth.ErrForbidden
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

// =============================================================================

func lookup(ctx context.Context, sess *session.Core, cookieName string, r *http.Request) (auth.Claims, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return auth.Claims{}, auth.ErrUnauthenticated
	}

	now := time.Now().UTC()
	if v, err := web.GetValues(ctx); err == nil {
		now = v.Now
	}

	s, err := sess.QueryByToken(ctx, cookie.Value, now)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
			return auth.Claims{}, auth.ErrUnauthenticated
		}
		return auth.Claims{}, err
	}

	claims := auth.Claims{
		UserID:  s.UserID,
		IsAdmin: s.IsAdmin,
		Token:   s.Token,
	}

	return claims, nil
}
