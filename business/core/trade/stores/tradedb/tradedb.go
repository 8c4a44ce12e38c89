// Package tradedb contains the storage access trading needs.
package tradedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/core/trade"
	"github.com/ardanlabs/chainlogger/business/sys/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type dbAccount struct {
	UserID     uuid.UUID       `db:"user_id"`
	Address    string          `db:"wallet_address"`
	PukBalance decimal.Decimal `db:"puk_balance"`
}

type dbTx struct {
	ID          uuid.UUID       `db:"tx_id"`
	DateCreated time.Time       `db:"date_created"`
	FromAddress string          `db:"from_address"`
	ToAddress   string          `db:"to_address"`
	Amount      decimal.Decimal `db:"amount"`
	BlockIndex  sql.NullInt64   `db:"block_index"`
}

// Store manages the set of APIs for trade access.
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
func (s *Store) WithinTran(ctx context.Context, fn func(s trade.Storer) error) error {
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

// QueryAccount returns the stored balance and wallet of the user. When lock
// is set the user row stays locked until the surrounding transaction ends.
func (s *Store) QueryAccount(ctx context.Context, userID uuid.UUID, lock bool) (trade.Account, error) {
	data := struct {
		UserID uuid.UUID `db:"user_id"`
	}{
		UserID: userID,
	}

	q := `
	SELECT
		u.user_id, u.puk_balance, w.wallet_address
	FROM
		users u
	JOIN
		wallets w ON w.user_id = u.user_id
	WHERE
		u.user_id = :user_id`

	if lock {
		q += `
	FOR UPDATE OF u`
	}

	var dba dbAccount
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dba); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return trade.Account{}, trade.ErrNotFound
		}
		return trade.Account{}, fmt.Errorf("selecting account userID[%s]: %w", userID, err)
	}

	acct := trade.Account{
		UserID:        dba.UserID,
		Address:       dba.Address,
		StoredBalance: dba.PukBalance,
	}

	return acct, nil
}

// AddStoredBalance adds the amount, which may be negative, to the stored
// balance of the user.
func (s *Store) AddStoredBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	data := struct {
		UserID uuid.UUID       `db:"user_id"`
		Amount decimal.Decimal `db:"amount"`
	}{
		UserID: userID,
		Amount: amount,
	}

	const q = `
	UPDATE
		users
	SET
		puk_balance = puk_balance + :amount
	WHERE
		user_id = :user_id`

	n, err := database.NamedExecAffected(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("updating balance userID[%s]: %w", userID, err)
	}

	if n == 0 {
		return trade.ErrNotFound
	}

	return nil
}

// InsertTx records the ledger side of a trade.
func (s *Store) InsertTx(ctx context.Context, tx ledger.Tx) error {
	dbtx := dbTx{
		ID:          tx.ID,
		DateCreated: tx.DateCreated.UTC(),
		FromAddress: tx.FromAddress,
		ToAddress:   tx.ToAddress,
		Amount:      tx.Amount,
	}

	const q = `
	INSERT INTO transactions
		(tx_id, date_created, from_address, to_address, amount, block_index)
	VALUES
		(:tx_id, :date_created, :from_address, :to_address, :amount, :block_index)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, dbtx); err != nil {
		return fmt.Errorf("inserting tx: %w", err)
	}

	return nil
}
