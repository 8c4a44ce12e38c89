package trade

import (
	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the part of a user that trading works with.
type Account struct {
	UserID        uuid.UUID       `json:"user_id"`
	Address       string          `json:"address"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
}

// Quote carries the prices a trade is made at.
type Quote struct {
	BTCPrice decimal.Decimal `json:"btc_price"`
	PukPrice decimal.Decimal `json:"puk_price"`
}

// Order is what a user submits to trade.
type Order struct {
	Action     string          `json:"action" validate:"required,oneof=buy sell"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Result describes a completed trade. Amount is what the ledger transaction
// recorded and Value is how much the stored balance moved.
type Result struct {
	Action        string          `json:"action"`
	Amount        decimal.Decimal `json:"amount"`
	Value         decimal.Decimal `json:"value"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	Liquidated    bool            `json:"liquidated"`
	Quote         Quote           `json:"quote"`
	Tx            ledger.Tx       `json:"transaction"`
}
