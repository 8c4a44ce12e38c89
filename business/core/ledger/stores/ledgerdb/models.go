package ledgerdb

import (
	"database/sql"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type dbBlock struct {
	Index        int64          `db:"block_index"`
	Message      string         `db:"message"`
	Hash         string         `db:"hash"`
	PreviousHash string         `db:"previous_hash"`
	DateCreated  time.Time      `db:"date_created"`
	OwnerID      uuid.NullUUID  `db:"owner_id"`
	OwnerName    sql.NullString `db:"owner_name"`
}

func toDBBlock(blk ledger.Block) dbBlock {
	return dbBlock{
		Index:        int64(blk.Index),
		Message:      blk.Message,
		Hash:         blk.Hash,
		PreviousHash: blk.PreviousHash,
		DateCreated:  blk.DateCreated.UTC(),
		OwnerID:      nullUUID(blk.OwnerID),
	}
}

func toCoreBlock(dbBlk dbBlock) ledger.Block {
	return ledger.Block{
		Index:        uint64(dbBlk.Index),
		Message:      dbBlk.Message,
		Hash:         dbBlk.Hash,
		PreviousHash: dbBlk.PreviousHash,
		OwnerID:      dbBlk.OwnerID.UUID,
		OwnerName:    dbBlk.OwnerName.String,
		DateCreated:  dbBlk.DateCreated.In(time.UTC),
	}
}

// =============================================================================

type dbSummary struct {
	Index     int64  `db:"block_index"`
	Message   string `db:"message"`
	Hash      string `db:"hash"`
	OwnerName string `db:"owner_name"`
}

func toCoreSummaries(dbSums []dbSummary) []ledger.BlockSummary {
	sums := make([]ledger.BlockSummary, len(dbSums))
	for i, dbSum := range dbSums {
		sums[i] = ledger.BlockSummary{
			Index:   uint64(dbSum.Index),
			Message: dbSum.Message,
			Hash:    dbSum.Hash,
			Owner:   dbSum.OwnerName,
		}
	}
	return sums
}

// =============================================================================

type dbTx struct {
	ID          uuid.UUID       `db:"tx_id"`
	DateCreated time.Time       `db:"date_created"`
	FromAddress string          `db:"from_address"`
	ToAddress   string          `db:"to_address"`
	Amount      decimal.Decimal `db:"amount"`
	BlockIndex  sql.NullInt64   `db:"block_index"`
}

func toDBTx(tx ledger.Tx) dbTx {
	dbtx := dbTx{
		ID:          tx.ID,
		DateCreated: tx.DateCreated.UTC(),
		FromAddress: tx.FromAddress,
		ToAddress:   tx.ToAddress,
		Amount:      tx.Amount,
	}

	if tx.BlockIndex != nil {
		dbtx.BlockIndex = sql.NullInt64{Int64: int64(*tx.BlockIndex), Valid: true}
	}

	return dbtx
}

func toCoreTx(dbtx dbTx) ledger.Tx {
	tx := ledger.Tx{
		ID:          dbtx.ID,
		FromAddress: dbtx.FromAddress,
		ToAddress:   dbtx.ToAddress,
		Amount:      dbtx.Amount,
		DateCreated: dbtx.DateCreated.In(time.UTC),
	}

	if dbtx.BlockIndex.Valid {
		idx := uint64(dbtx.BlockIndex.Int64)
		tx.BlockIndex = &idx
	}

	return tx
}

func toCoreTxSlice(dbtxs []dbTx) []ledger.Tx {
	txs := make([]ledger.Tx, len(dbtxs))
	for i, dbtx := range dbtxs {
		txs[i] = toCoreTx(dbtx)
	}
	return txs
}

// =============================================================================

type dbWallet struct {
	Address    string          `db:"wallet_address"`
	PrivateKey string          `db:"private_key"`
	UserID     uuid.UUID       `db:"user_id"`
	Username   string          `db:"username"`
	PukBalance decimal.Decimal `db:"puk_balance"`
}

func toCoreWallet(dbw dbWallet) ledger.Wallet {
	return ledger.Wallet{
		Address:       dbw.Address,
		PrivateKey:    dbw.PrivateKey,
		UserID:        dbw.UserID,
		Username:      dbw.Username,
		StoredBalance: dbw.PukBalance,
	}
}

// =============================================================================

type dbOwnership struct {
	ID              uuid.UUID           `db:"history_id"`
	BlockIndex      int64               `db:"block_index"`
	PreviousOwnerID uuid.NullUUID       `db:"previous_owner_id"`
	PreviousOwner   sql.NullString      `db:"previous_owner"`
	NewOwnerID      uuid.NullUUID       `db:"new_owner_id"`
	NewOwner        sql.NullString      `db:"new_owner"`
	Price           decimal.NullDecimal `db:"price"`
	DateCreated     time.Time           `db:"date_created"`
}

func toDBOwnership(o ledger.Ownership) dbOwnership {
	return dbOwnership{
		ID:              o.ID,
		BlockIndex:      int64(o.BlockIndex),
		PreviousOwnerID: nullUUID(o.PreviousOwnerID),
		NewOwnerID:      nullUUID(o.NewOwnerID),
		Price:           decimal.NewNullDecimal(o.Price),
		DateCreated:     o.DateCreated.UTC(),
	}
}

func toCoreOwnership(dbo dbOwnership) ledger.Ownership {
	return ledger.Ownership{
		ID:              dbo.ID,
		BlockIndex:      uint64(dbo.BlockIndex),
		PreviousOwnerID: dbo.PreviousOwnerID.UUID,
		PreviousOwner:   dbo.PreviousOwner.String,
		NewOwnerID:      dbo.NewOwnerID.UUID,
		NewOwner:        dbo.NewOwner.String,
		Price:           dbo.Price.Decimal,
		DateCreated:     dbo.DateCreated.In(time.UTC),
	}
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
