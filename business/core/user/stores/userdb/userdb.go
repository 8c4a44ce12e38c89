// Package userdb contains user related CRUD functionality.
package userdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/business/sys/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Store manages the set of APIs for user access.
type Store struct {
	log    *zap.SugaredLogger
	db     sqlx.ExtContext
	inTran bool
}

// NewStore constructs the api for data access.
func NewStore(log *zap.SugaredLogger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// WithinTran runs passed function and do commit/rollback at the end.
func (s *Store) WithinTran(ctx context.Context, fn func(s user.Storer) error) error {
	if s.inTran {
		return fn(s)
	}

	f := func(tx *sqlx.Tx) error {
		s := &Store{
			log:    s.log,
			db:     tx,
			inTran: true,
		}
		return fn(s)
	}

	return database.WithinTran(ctx, s.log, s.db.(*sqlx.DB), f)
}

// Create inserts a new user into the database.
func (s *Store) Create(ctx context.Context, usr user.User) error {
	const q = `
	INSERT INTO users
		(user_id, username, password_hash, puk_balance, is_admin, date_created)
	VALUES
		(:user_id, :username, :password_hash, :puk_balance, :is_admin, :date_created)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, toDBUser(usr)); err != nil {
		if errors.Is(err, database.ErrDBDuplicatedEntry) {
			return user.ErrUniqueUsername
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// CreateWallet inserts the wallet of a user into the database.
func (s *Store) CreateWallet(ctx context.Context, w user.Wallet) error {
	const q = `
	INSERT INTO wallets
		(wallet_address, private_key, balance, user_id)
	VALUES
		(:wallet_address, :private_key, 0, :user_id)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, toDBWallet(w)); err != nil {
		return fmt.Errorf("inserting wallet: %w", err)
	}

	return nil
}

// QueryByID gets the specified user from the database.
func (s *Store) QueryByID(ctx context.Context, userID uuid.UUID) (user.User, error) {
	data := struct {
		UserID uuid.UUID `db:"user_id"`
	}{
		UserID: userID,
	}

	const q = `
	SELECT
		u.user_id, u.username, u.password_hash, u.puk_balance, u.is_admin, u.date_created,
		w.wallet_address
	FROM
		users u
	LEFT JOIN
		wallets w ON w.user_id = u.user_id
	WHERE
		u.user_id = :user_id`

	var dbUsr dbUser
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbUsr); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("selecting userID[%s]: %w", userID, err)
	}

	return toCoreUser(dbUsr), nil
}

// QueryByUsername gets the specified user from the database by username.
func (s *Store) QueryByUsername(ctx context.Context, username string) (user.User, error) {
	data := struct {
		Username string `db:"username"`
	}{
		Username: username,
	}

	const q = `
	SELECT
		u.user_id, u.username, u.password_hash, u.puk_balance, u.is_admin, u.date_created,
		w.wallet_address
	FROM
		users u
	LEFT JOIN
		wallets w ON w.user_id = u.user_id
	WHERE
		u.username = :username`

	var dbUsr dbUser
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbUsr); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("selecting username[%q]: %w", username, err)
	}

	return toCoreUser(dbUsr), nil
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	const q = `
	SELECT
		COUNT(*) AS count
	FROM
		users`

	return s.count(ctx, q)
}

// CountAdmins returns the number of admin users.
func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	const q = `
	SELECT
		COUNT(*) AS count
	FROM
		users
	WHERE
		is_admin = TRUE`

	return s.count(ctx, q)
}

func (s *Store) count(ctx context.Context, q string) (int, error) {
	var count struct {
		Count int `db:"count"`
	}
	if err := database.QueryStruct(ctx, s.log, s.db, q, &count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}

	return count.Count, nil
}
