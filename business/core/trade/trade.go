// Package trade implements buying and selling against the stored balance of
// a user at a price derived from the live BTC quote.
package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Set of actions a trade can take.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Set of error variables for trade operations.
var (
	ErrNotFound          = errors.New("account not found")
	ErrInvalidAction     = errors.New("action must be buy or sell")
	ErrInvalidPercentage = errors.New("percentage must be greater than 0 and at most 100")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrExceedsMaximum    = errors.New("sell amount exceeds maximum allowed value")
)

// maxProceeds caps the value a single sale can credit.
var maxProceeds = decimal.New(1, 18)

var hundred = decimal.NewFromInt(100)

// Quoter provides the current BTC price.
type Quoter interface {
	Price(ctx context.Context) (decimal.Decimal, error)
}

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	WithinTran(ctx context.Context, fn func(s Storer) error) error
	QueryAccount(ctx context.Context, userID uuid.UUID, lock bool) (Account, error)
	AddStoredBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	InsertTx(ctx context.Context, tx ledger.Tx) error
}

// Config represents the configuration required to construct the core.
type Config struct {
	PukRatio decimal.Decimal
}

// Core manages the set of APIs for trading.
type Core struct {
	log      *zap.SugaredLogger
	storer   Storer
	quoter   Quoter
	pukRatio decimal.Decimal
}

// NewCore constructs a core for trading api access.
func NewCore(log *zap.SugaredLogger, storer Storer, quoter Quoter, cfg Config) *Core {
	ratio := cfg.PukRatio
	if !ratio.IsPositive() {
		ratio = decimal.NewFromInt(1)
	}

	return &Core{
		log:      log,
		storer:   storer,
		quoter:   quoter,
		pukRatio: ratio,
	}
}

// Quote returns the current BTC price and the PUK price derived from it.
func (c *Core) Quote(ctx context.Context) (Quote, error) {
	btc, err := c.quoter.Price(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("price: %w", err)
	}

	if !btc.IsPositive() {
		return Quote{}, ErrInvalidPrice
	}

	q := Quote{
		BTCPrice: btc,
		PukPrice: btc.Mul(c.pukRatio),
	}

	return q, nil
}

// QueryAccount returns the stored balance and wallet of the user.
func (c *Core) QueryAccount(ctx context.Context, userID uuid.UUID) (Account, error) {
	acct, err := c.storer.QueryAccount(ctx, userID, false)
	if err != nil {
		return Account{}, fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	return acct, nil
}

// Trade moves a percentage of the stored balance. Buying debits the stored
// balance and sends the same amount to the system, selling credits it and
// receives the amount from the system. The account is liquidated once the
// stored balance is no longer positive.
func (c *Core) Trade(ctx context.Context, userID uuid.UUID, ot Order) (Result, error) {
	action, pct, err := parseOrder(ot)
	if err != nil {
		return Result{}, err
	}

	quote, err := c.Quote(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result

	f := func(s Storer) error {
		acct, err := s.QueryAccount(ctx, userID, true)
		if err != nil {
			return fmt.Errorf("query: userID[%s]: %w", userID, err)
		}

		amount := acct.StoredBalance.Mul(pct)

		tx := ledger.Tx{
			ID:          uuid.New(),
			Amount:      amount,
			DateCreated: time.Now().UTC(),
		}

		delta := amount
		switch action {
		case ActionBuy:
			delta = amount.Neg()
			tx.FromAddress = acct.Address
			tx.ToAddress = ledger.SystemAddress
		case ActionSell:
			tx.FromAddress = ledger.SystemAddress
			tx.ToAddress = acct.Address
		}

		if err := c.apply(ctx, s, userID, delta, tx); err != nil {
			return err
		}

		balance := acct.StoredBalance.Add(delta)

		res = Result{
			Action:        action,
			Amount:        amount,
			Value:         amount,
			StoredBalance: balance,
			Liquidated:    !balance.IsPositive(),
			Quote:         quote,
			Tx:            tx,
		}

		return nil
	}

	if err := c.storer.WithinTran(ctx, f); err != nil {
		return Result{}, err
	}

	return res, nil
}

// TradePuk converts between the stored balance and PUK at the current PUK
// price. Buying spends a percentage of the stored balance on PUK, selling
// sells a percentage of the PUK the stored balance is worth. The account is
// liquidated when the stored balance goes negative.
func (c *Core) TradePuk(ctx context.Context, userID uuid.UUID, ot Order) (Result, error) {
	action, pct, err := parseOrder(ot)
	if err != nil {
		return Result{}, err
	}

	quote, err := c.Quote(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result

	f := func(s Storer) error {
		acct, err := s.QueryAccount(ctx, userID, true)
		if err != nil {
			return fmt.Errorf("query: userID[%s]: %w", userID, err)
		}

		tx := ledger.Tx{
			ID:          uuid.New(),
			DateCreated: time.Now().UTC(),
		}

		var delta decimal.Decimal
		var value decimal.Decimal

		switch action {
		case ActionBuy:
			cost := acct.StoredBalance.Mul(pct)
			tx.Amount = cost.Div(quote.PukPrice)
			tx.FromAddress = acct.Address
			tx.ToAddress = ledger.SystemAddress
			delta = cost.Neg()
			value = cost

		case ActionSell:
			holding := acct.StoredBalance.Div(quote.PukPrice)
			sold := holding.Mul(pct)
			proceeds := sold.Mul(quote.PukPrice)
			if proceeds.GreaterThan(maxProceeds) {
				return ErrExceedsMaximum
			}
			tx.Amount = sold
			tx.FromAddress = ledger.SystemAddress
			tx.ToAddress = acct.Address
			delta = proceeds
			value = proceeds
		}

		if err := c.apply(ctx, s, userID, delta, tx); err != nil {
			return err
		}

		balance := acct.StoredBalance.Add(delta)

		res = Result{
			Action:        action,
			Amount:        tx.Amount,
			Value:         value,
			StoredBalance: balance,
			Liquidated:    balance.IsNegative(),
			Quote:         quote,
			Tx:            tx,
		}

		return nil
	}

	if err := c.storer.WithinTran(ctx, f); err != nil {
		return Result{}, err
	}

	return res, nil
}

// =============================================================================

func (c *Core) apply(ctx context.Context, s Storer, userID uuid.UUID, delta decimal.Decimal, tx ledger.Tx) error {
	if err := s.AddStoredBalance(ctx, userID, delta); err != nil {
		return fmt.Errorf("update balance: userID[%s]: %w", userID, err)
	}

	if err := s.InsertTx(ctx, tx); err != nil {
		return fmt.Errorf("insert tx: %w", err)
	}

	return nil
}

func parseOrder(ot Order) (string, decimal.Decimal, error) {
	action := strings.ToLower(strings.TrimSpace(ot.Action))
	if action != ActionBuy && action != ActionSell {
		return "", decimal.Zero, ErrInvalidAction
	}

	if !ot.Percentage.IsPositive() || ot.Percentage.GreaterThan(hundred) {
		return "", decimal.Zero, ErrInvalidPercentage
	}

	return action, ot.Percentage.Div(hundred), nil
}
