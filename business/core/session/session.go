// Package session manages the server side sessions that back the session
// cookie handed out at login.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Set of error variables for session operations.
var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Session represents a logged in user.
type Session struct {
	Token       string
	UserID      uuid.UUID
	IsAdmin     bool
	DateCreated time.Time
	DateExpires time.Time
}

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	Create(ctx context.Context, sess Session) error
	QueryByToken(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Core manages the set of APIs for session access.
type Core struct {
	log    *zap.SugaredLogger
	storer Storer
	ttl    time.Duration
}

// NewCore constructs a core for session api access.
func NewCore(log *zap.SugaredLogger, storer Storer, ttl time.Duration) *Core {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Core{
		log:    log,
		storer: storer,
		ttl:    ttl,
	}
}

// Create starts a new session for the user.
func (c *Core) Create(ctx context.Context, userID uuid.UUID, isAdmin bool, now time.Time) (Session, error) {
	sess := Session{
		Token:       uuid.NewString(),
		UserID:      userID,
		IsAdmin:     isAdmin,
		DateCreated: now,
		DateExpires: now.Add(c.ttl),
	}

	if err := c.storer.Create(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("create: %w", err)
	}

	return sess, nil
}

// QueryByToken returns the live session identified by the token.
func (c *Core) QueryByToken(ctx context.Context, token string, now time.Time) (Session, error) {
	if _, err := uuid.Parse(token); err != nil {
		return Session{}, ErrNotFound
	}

	sess, err := c.storer.QueryByToken(ctx, token)
	if err != nil {
		return Session{}, fmt.Errorf("query: %w", err)
	}

	if !now.Before(sess.DateExpires) {
		return Session{}, ErrExpired
	}

	return sess, nil
}

// Delete ends the session identified by the token.
func (c *Core) Delete(ctx context.Context, token string) error {
	if err := c.storer.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Purge removes every session that expired before now.
func (c *Core) Purge(ctx context.Context, now time.Time) (int64, error) {
	n, err := c.storer.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("deleteexpired: %w", err)
	}

	return n, nil
}
