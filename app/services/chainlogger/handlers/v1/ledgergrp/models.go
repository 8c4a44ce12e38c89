package ledgergrp

import (
	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/data/paging"
	"github.com/shopspring/decimal"
)

type blockPage struct {
	Blocks    []ledger.BlockSummary `json:"blocks"`
	Page      paging.Page           `json:"paging"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type blockDetail struct {
	ledger.BlockDetail
	IsOwner bool `json:"is_owner"`
}

type blockMessage struct {
	Index   uint64 `json:"index"`
	Message string `json:"message"`
}

type updateMessage struct {
	Message string `json:"new_message" validate:"required"`
}

type timeCapsule struct {
	Message string `json:"message" validate:"required"`
}

type walletInfo struct {
	Address       string          `json:"address"`
	PrivateKey    string          `json:"private_key"`
	LedgerBalance decimal.Decimal `json:"balance"`
	StoredBalance decimal.Decimal `json:"puk_balance"`
	Transactions  []ledger.Tx     `json:"transactions"`
}

type txLog struct {
	Transactions []ledger.Tx     `json:"transactions"`
	TotalUsers   int             `json:"total_users"`
	TotalCoins   decimal.Decimal `json:"total_coins"`
}

type balance struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
}

type newTransfer struct {
	ToAddress string          `json:"to_address" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}
