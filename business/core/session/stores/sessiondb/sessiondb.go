// Package sessiondb contains session related CRUD functionality.
package sessiondb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/sys/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type dbSession struct {
	Token       string    `db:"token"`
	UserID      uuid.UUID `db:"user_id"`
	IsAdmin     bool      `db:"is_admin"`
	DateCreated time.Time `db:"date_created"`
	DateExpires time.Time `db:"date_expires"`
}

// Store manages the set of APIs for session access.
type Store struct {
	log *zap.SugaredLogger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *zap.SugaredLogger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// Create inserts a new session.
func (s *Store) Create(ctx context.Context, sess session.Session) error {
	dbSess := dbSession{
		Token:       sess.Token,
		UserID:      sess.UserID,
		DateCreated: sess.DateCreated.UTC(),
		DateExpires: sess.DateExpires.UTC(),
	}

	const q = `
	INSERT INTO sessions
		(token, user_id, date_created, date_expires)
	VALUES
		(:token, :user_id, :date_created, :date_expires)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, dbSess); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// QueryByToken returns the session and the admin flag of its user.
func (s *Store) QueryByToken(ctx context.Context, token string) (session.Session, error) {
	data := struct {
		Token string `db:"token"`
	}{
		Token: token,
	}

	const q = `
	SELECT
		s.token, s.user_id, s.date_created, s.date_expires,
		u.is_admin
	FROM
		sessions s
	JOIN
		users u ON u.user_id = s.user_id
	WHERE
		s.token = :token`

	var dbSess dbSession
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbSess); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("selecting session: %w", err)
	}

	sess := session.Session{
		Token:       dbSess.Token,
		UserID:      dbSess.UserID,
		IsAdmin:     dbSess.IsAdmin,
		DateCreated: dbSess.DateCreated.In(time.UTC),
		DateExpires: dbSess.DateExpires.In(time.UTC),
	}

	return sess, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, token string) error {
	data := struct {
		Token string `db:"token"`
	}{
		Token: token,
	}

	const q = `
	DELETE FROM
		sessions
	WHERE
		token = :token`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	return nil
}

// DeleteExpired removes every session that expired before now.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	data := struct {
		Now time.Time `db:"now"`
	}{
		Now: now.UTC(),
	}

	const q = `
	DELETE FROM
		sessions
	WHERE
		date_expires <= :now`

	n, err := database.NamedExecAffected(ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	return n, nil
}
