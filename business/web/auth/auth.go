// Package auth provides the request scoped identity established by the
// session cookie.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Set of errors for authentication and authorization failures.
var (
	ErrUnauthenticated = errors.New("please log in first")
	ErrForbidden       = errors.New("attempted action is not allowed")
)

// Claims represents the identity of the user behind a request.
type Claims struct {
	UserID  uuid.UUID
	IsAdmin bool
	Token   string
}

// ctxKey represents the type of value for the context key.
type ctxKey int

// key is used to store/retrieve a Claims value from a context.Context.
const key ctxKey = 1

// SetClaims stores the claims in the context.
func SetClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, key, claims)
}

// GetClaims returns the claims from the context.
func GetClaims(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(key).(Claims)
	if !ok {
		return Claims{}, ErrUnauthenticated
	}
	return v, nil
}

// =============================================================================

// SetCookie writes the session cookie carrying the token.
func SetCookie(w http.ResponseWriter, name string, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie tells the client to drop the session cookie.
func ClearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
