package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SystemAddress is the from address of every coin the ledger issues.
const SystemAddress = "system"

// GenesisMessage is the message recorded in the genesis block.
const GenesisMessage = "Genesis Block - Initializing Blockchain"

// Block represents one hash linked entry in the ledger. An OwnerID of
// uuid.Nil means the block has no owner.
type Block struct {
	Index        uint64    `json:"index"`
	Message      string    `json:"message"`
	Hash         string    `json:"hash"`
	PreviousHash string    `json:"previous_hash"`
	OwnerID      uuid.UUID `json:"owner_id"`
	OwnerName    string    `json:"owner"`
	DateCreated  time.Time `json:"timestamp"`
	Transactions []Tx      `json:"transactions"`
}

// NewBlock is what we require from callers to append a block. When OwnerID
// is set the owner's wallet receives the block reward.
type NewBlock struct {
	Message      string
	OwnerID      uuid.UUID
	Transactions []NewTx
}

// Tx represents a movement of ledger currency between two addresses.
type Tx struct {
	ID          uuid.UUID       `json:"id"`
	FromAddress string          `json:"from_address"`
	ToAddress   string          `json:"to_address"`
	Amount      decimal.Decimal `json:"amount"`
	BlockIndex  *uint64         `json:"block_index,omitempty"`
	DateCreated time.Time       `json:"timestamp"`
}

// NewTx is a transaction submitted with a block.
type NewTx struct {
	FromAddress string
	ToAddress   string
	Amount      decimal.Decimal
}

// Wallet represents the single wallet a user holds.
type Wallet struct {
	Address       string          `json:"address"`
	PrivateKey    string          `json:"private_key"`
	UserID        uuid.UUID       `json:"user_id"`
	Username      string          `json:"username"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
}

// WalletBalance pairs a wallet with both of its balances. The ledger balance
// is derived from the transaction log while the stored balance is the
// figure kept on the user row. The two are never reconciled.
type WalletBalance struct {
	Wallet        Wallet          `json:"wallet"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
}

// Ownership records a block changing hands.
type Ownership struct {
	ID              uuid.UUID       `json:"id"`
	BlockIndex      uint64          `json:"block_index"`
	PreviousOwnerID uuid.UUID       `json:"previous_owner_id"`
	PreviousOwner   string          `json:"previous_owner"`
	NewOwnerID      uuid.UUID       `json:"new_owner_id"`
	NewOwner        string          `json:"new_owner"`
	Price           decimal.Decimal `json:"price"`
	DateCreated     time.Time       `json:"timestamp"`
}

// BlockSummary is the row shown in block listings.
type BlockSummary struct {
	Index   uint64 `json:"index"`
	Message string `json:"message"`
	Hash    string `json:"hash"`
	Owner   string `json:"owner"`
}

// BlockDetail is a block with its ownership history.
type BlockDetail struct {
	Block     Block       `json:"block"`
	Ownership []Ownership `json:"ownership_history"`
}

// Stats summarizes the transaction log.
type Stats struct {
	TotalTxs    int             `json:"total_transactions"`
	TotalIssued decimal.Decimal `json:"total_issued"`
}
