// Package ledgerdb contains ledger related CRUD functionality.
package ledgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/data/order"
	"github.com/ardanlabs/chainlogger/business/sys/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var orderByFields = map[string]string{
	ledger.OrderByIndex: "b.block_index",
	ledger.OrderByOwner: "owner_name",
}

// Store manages the set of APIs for ledger access.
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
func (s *Store) WithinTran(ctx context.Context, fn func(s ledger.Storer) error) error {
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

// InsertBlock inserts a block and the transactions submitted with it.
func (s *Store) InsertBlock(ctx context.Context, blk ledger.Block) error {
	const q = `
	INSERT INTO blocks
		(block_index, message, hash, previous_hash, date_created, owner_id)
	VALUES
		(:block_index, :message, :hash, :previous_hash, :date_created, :owner_id)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, toDBBlock(blk)); err != nil {
		if errors.Is(err, database.ErrDBDuplicatedEntry) {
			return ledger.ErrDuplicateIndex
		}
		return fmt.Errorf("inserting block: %w", err)
	}

	for _, tx := range blk.Transactions {
		if err := s.InsertTx(ctx, tx); err != nil {
			return err
		}
	}

	return nil
}

// UpdateBlockMessage replaces the message, hash and timestamp of a block.
func (s *Store) UpdateBlockMessage(ctx context.Context, blk ledger.Block) error {
	const q = `
	UPDATE
		blocks
	SET
		message = :message,
		hash = :hash,
		date_created = :date_created
	WHERE
		block_index = :block_index`

	n, err := database.NamedExecAffected(ctx, s.log, s.db, q, toDBBlock(blk))
	if err != nil {
		return fmt.Errorf("updating block[%d]: %w", blk.Index, err)
	}

	if n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

// UpdateBlockOwner sets the owner of a block.
func (s *Store) UpdateBlockOwner(ctx context.Context, index uint64, ownerID uuid.UUID) error {
	data := struct {
		Index   int64         `db:"block_index"`
		OwnerID uuid.NullUUID `db:"owner_id"`
	}{
		Index:   int64(index),
		OwnerID: nullUUID(ownerID),
	}

	const q = `
	UPDATE
		blocks
	SET
		owner_id = :owner_id
	WHERE
		block_index = :block_index`

	n, err := database.NamedExecAffected(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("updating owner block[%d]: %w", index, err)
	}

	if n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

// QueryLatestBlock returns the block with the highest index.
func (s *Store) QueryLatestBlock(ctx context.Context) (ledger.Block, error) {
	const q = `
	SELECT
		b.block_index, b.message, b.hash, b.previous_hash, b.date_created, b.owner_id,
		u.username AS owner_name
	FROM
		blocks b
	LEFT JOIN
		users u ON u.user_id = b.owner_id
	ORDER BY
		b.block_index DESC
	LIMIT 1`

	var dbBlk dbBlock
	if err := database.QueryStruct(ctx, s.log, s.db, q, &dbBlk); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return ledger.Block{}, ledger.ErrNotFound
		}
		return ledger.Block{}, fmt.Errorf("selecting latest block: %w", err)
	}

	return toCoreBlock(dbBlk), nil
}

// QueryBlocks returns every block ordered by index with its transactions.
func (s *Store) QueryBlocks(ctx context.Context) ([]ledger.Block, error) {
	const q = `
	SELECT
		b.block_index, b.message, b.hash, b.previous_hash, b.date_created, b.owner_id,
		u.username AS owner_name
	FROM
		blocks b
	LEFT JOIN
		users u ON u.user_id = b.owner_id
	ORDER BY
		b.block_index`

	var dbBlks []dbBlock
	if err := database.QuerySlice(ctx, s.log, s.db, q, &dbBlks); err != nil {
		return nil, fmt.Errorf("selecting blocks: %w", err)
	}

	const qtx = `
	SELECT
		tx_id, date_created, from_address, to_address, amount, block_index
	FROM
		transactions
	WHERE
		block_index IS NOT NULL
	ORDER BY
		date_created`

	var dbtxs []dbTx
	if err := database.QuerySlice(ctx, s.log, s.db, qtx, &dbtxs); err != nil {
		return nil, fmt.Errorf("selecting block transactions: %w", err)
	}

	byBlock := make(map[uint64][]ledger.Tx)
	for _, tx := range toCoreTxSlice(dbtxs) {
		byBlock[*tx.BlockIndex] = append(byBlock[*tx.BlockIndex], tx)
	}

	blocks := make([]ledger.Block, len(dbBlks))
	for i, dbBlk := range dbBlks {
		blocks[i] = toCoreBlock(dbBlk)
		blocks[i].Transactions = byBlock[blocks[i].Index]
	}

	return blocks, nil
}

// QueryBlockByIndex returns the specified block with its transactions.
func (s *Store) QueryBlockByIndex(ctx context.Context, index uint64) (ledger.Block, error) {
	data := struct {
		Index int64 `db:"block_index"`
	}{
		Index: int64(index),
	}

	const q = `
	SELECT
		b.block_index, b.message, b.hash, b.previous_hash, b.date_created, b.owner_id,
		u.username AS owner_name
	FROM
		blocks b
	LEFT JOIN
		users u ON u.user_id = b.owner_id
	WHERE
		b.block_index = :block_index`

	var dbBlk dbBlock
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbBlk); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return ledger.Block{}, ledger.ErrNotFound
		}
		return ledger.Block{}, fmt.Errorf("selecting block[%d]: %w", index, err)
	}

	const qtx = `
	SELECT
		tx_id, date_created, from_address, to_address, amount, block_index
	FROM
		transactions
	WHERE
		block_index = :block_index
	ORDER BY
		date_created`

	var dbtxs []dbTx
	if err := database.NamedQuerySlice(ctx, s.log, s.db, qtx, data, &dbtxs); err != nil {
		return ledger.Block{}, fmt.Errorf("selecting block[%d] transactions: %w", index, err)
	}

	blk := toCoreBlock(dbBlk)
	blk.Transactions = toCoreTxSlice(dbtxs)

	return blk, nil
}

// QueryBlockSummaries returns one page of block summaries.
func (s *Store) QueryBlockSummaries(ctx context.Context, orderBy order.By, offset int, limit int) ([]ledger.BlockSummary, error) {
	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return nil, fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	data := struct {
		Offset int `db:"offset"`
		Limit  int `db:"limit"`
	}{
		Offset: offset,
		Limit:  limit,
	}

	const q = `
	SELECT
		b.block_index, b.message, b.hash,
		COALESCE(u.username, 'None') AS owner_name
	FROM
		blocks b
	LEFT JOIN
		users u ON u.user_id = b.owner_id
	ORDER BY
		%s %s, b.block_index
	OFFSET :offset ROWS FETCH NEXT :limit ROWS ONLY`

	query := fmt.Sprintf(q, by, orderBy.Direction)

	var dbSums []dbSummary
	if err := database.NamedQuerySlice(ctx, s.log, s.db, query, data, &dbSums); err != nil {
		return nil, fmt.Errorf("selecting summaries: %w", err)
	}

	return toCoreSummaries(dbSums), nil
}

// CountBlocks returns the number of blocks.
func (s *Store) CountBlocks(ctx context.Context) (int, error) {
	const q = `
	SELECT
		COUNT(*) AS count
	FROM
		blocks`

	var count struct {
		Count int `db:"count"`
	}
	if err := database.QueryStruct(ctx, s.log, s.db, q, &count); err != nil {
		return 0, fmt.Errorf("counting blocks: %w", err)
	}

	return count.Count, nil
}

// InsertTx inserts a transaction into the log.
func (s *Store) InsertTx(ctx context.Context, tx ledger.Tx) error {
	const q = `
	INSERT INTO transactions
		(tx_id, date_created, from_address, to_address, amount, block_index)
	VALUES
		(:tx_id, :date_created, :from_address, :to_address, :amount, :block_index)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, toDBTx(tx)); err != nil {
		return fmt.Errorf("inserting tx: %w", err)
	}

	return nil
}

// QueryTxs returns every transaction, newest first.
func (s *Store) QueryTxs(ctx context.Context) ([]ledger.Tx, error) {
	const q = `
	SELECT
		tx_id, date_created, from_address, to_address, amount, block_index
	FROM
		transactions
	ORDER BY
		date_created DESC`

	var dbtxs []dbTx
	if err := database.QuerySlice(ctx, s.log, s.db, q, &dbtxs); err != nil {
		return nil, fmt.Errorf("selecting txs: %w", err)
	}

	return toCoreTxSlice(dbtxs), nil
}

// QueryTotals returns the sum received by and the sum sent from an address.
func (s *Store) QueryTotals(ctx context.Context, address string) (decimal.Decimal, decimal.Decimal, error) {
	data := struct {
		Address string `db:"address"`
	}{
		Address: address,
	}

	const q = `
	SELECT
		COALESCE(SUM(amount) FILTER (WHERE to_address = :address), 0) AS incoming,
		COALESCE(SUM(amount) FILTER (WHERE from_address = :address), 0) AS outgoing
	FROM
		transactions
	WHERE
		to_address = :address OR from_address = :address`

	var totals struct {
		Incoming decimal.Decimal `db:"incoming"`
		Outgoing decimal.Decimal `db:"outgoing"`
	}
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &totals); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("selecting totals: %w", err)
	}

	return totals.Incoming, totals.Outgoing, nil
}

// SumIssued returns the sum of every amount sent from the address.
func (s *Store) SumIssued(ctx context.Context, fromAddress string) (decimal.Decimal, error) {
	data := struct {
		Address string `db:"address"`
	}{
		Address: fromAddress,
	}

	const q = `
	SELECT
		COALESCE(SUM(amount), 0) AS issued
	FROM
		transactions
	WHERE
		from_address = :address`

	var sum struct {
		Issued decimal.Decimal `db:"issued"`
	}
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &sum); err != nil {
		return decimal.Zero, fmt.Errorf("selecting issued: %w", err)
	}

	return sum.Issued, nil
}

// QueryWalletByAddress returns the wallet at the address. When lock is set
// the wallet row stays locked until the surrounding transaction ends.
func (s *Store) QueryWalletByAddress(ctx context.Context, address string, lock bool) (ledger.Wallet, error) {
	data := struct {
		Address string `db:"wallet_address"`
	}{
		Address: address,
	}

	q := `
	SELECT
		w.wallet_address, w.private_key, w.user_id, u.username, u.puk_balance
	FROM
		wallets w
	JOIN
		users u ON u.user_id = w.user_id
	WHERE
		w.wallet_address = :wallet_address`

	if lock {
		q += `
	FOR UPDATE OF w`
	}

	var dbw dbWallet
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbw); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return ledger.Wallet{}, ledger.ErrWalletNotFound
		}
		return ledger.Wallet{}, fmt.Errorf("selecting wallet[%s]: %w", address, err)
	}

	return toCoreWallet(dbw), nil
}

// QueryWalletByUserID returns the wallet held by the user.
func (s *Store) QueryWalletByUserID(ctx context.Context, userID uuid.UUID) (ledger.Wallet, error) {
	data := struct {
		UserID uuid.UUID `db:"user_id"`
	}{
		UserID: userID,
	}

	const q = `
	SELECT
		w.wallet_address, w.private_key, w.user_id, u.username, u.puk_balance
	FROM
		wallets w
	JOIN
		users u ON u.user_id = w.user_id
	WHERE
		w.user_id = :user_id`

	var dbw dbWallet
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbw); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return ledger.Wallet{}, ledger.ErrWalletNotFound
		}
		return ledger.Wallet{}, fmt.Errorf("selecting wallet userID[%s]: %w", userID, err)
	}

	return toCoreWallet(dbw), nil
}

// QueryWallets returns every wallet ordered by username.
func (s *Store) QueryWallets(ctx context.Context) ([]ledger.Wallet, error) {
	const q = `
	SELECT
		w.wallet_address, w.private_key, w.user_id, u.username, u.puk_balance
	FROM
		wallets w
	JOIN
		users u ON u.user_id = w.user_id
	ORDER BY
		u.username`

	var dbws []dbWallet
	if err := database.QuerySlice(ctx, s.log, s.db, q, &dbws); err != nil {
		return nil, fmt.Errorf("selecting wallets: %w", err)
	}

	wallets := make([]ledger.Wallet, len(dbws))
	for i, dbw := range dbws {
		wallets[i] = toCoreWallet(dbw)
	}

	return wallets, nil
}

// AddStoredBalance credits the stored balance of the user holding the
// address.
func (s *Store) AddStoredBalance(ctx context.Context, address string, amount decimal.Decimal) error {
	data := struct {
		Address string          `db:"wallet_address"`
		Amount  decimal.Decimal `db:"amount"`
	}{
		Address: address,
		Amount:  amount,
	}

	const q = `
	UPDATE
		users
	SET
		puk_balance = puk_balance + :amount
	WHERE
		user_id = (SELECT user_id FROM wallets WHERE wallet_address = :wallet_address)`

	n, err := database.NamedExecAffected(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("crediting wallet[%s]: %w", address, err)
	}

	if n == 0 {
		return ledger.ErrWalletNotFound
	}

	return nil
}

// InsertOwnership records a change of block owner.
func (s *Store) InsertOwnership(ctx context.Context, o ledger.Ownership) error {
	const q = `
	INSERT INTO block_ownership_history
		(history_id, block_index, previous_owner_id, new_owner_id, date_created, price)
	VALUES
		(:history_id, :block_index, :previous_owner_id, :new_owner_id, :date_created, :price)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, toDBOwnership(o)); err != nil {
		return fmt.Errorf("inserting ownership: %w", err)
	}

	return nil
}

// QueryOwnership returns the ownership history of a block, newest first.
func (s *Store) QueryOwnership(ctx context.Context, index uint64) ([]ledger.Ownership, error) {
	data := struct {
		Index int64 `db:"block_index"`
	}{
		Index: int64(index),
	}

	const q = `
	SELECT
		h.history_id, h.block_index, h.previous_owner_id, h.new_owner_id, h.date_created, h.price,
		pu.username AS previous_owner,
		nu.username AS new_owner
	FROM
		block_ownership_history h
	LEFT JOIN
		users pu ON pu.user_id = h.previous_owner_id
	LEFT JOIN
		users nu ON nu.user_id = h.new_owner_id
	WHERE
		h.block_index = :block_index
	ORDER BY
		h.date_created DESC`

	var dbos []dbOwnership
	if err := database.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbos); err != nil {
		return nil, fmt.Errorf("selecting ownership block[%d]: %w", index, err)
	}

	history := make([]ledger.Ownership, len(dbos))
	for i, dbo := range dbos {
		history[i] = toCoreOwnership(dbo)
	}

	return history, nil
}
