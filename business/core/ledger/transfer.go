package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer moves ledger currency between two wallets. The sender's wallet
// row stays locked from the balance read to the insert so concurrent
// transfers from the same wallet cannot overdraw it.
func (c *Core) Transfer(ctx context.Context, from string, to string, amount decimal.Decimal) (Tx, error) {
	var tx Tx

	f := func(s Storer) error {
		if _, err := s.QueryWalletByAddress(ctx, from, true); err != nil {
			return fmt.Errorf("lock sender: address[%s]: %w", from, err)
		}

		balance, err := calculateBalance(ctx, s, from)
		if err != nil {
			return err
		}

		if balance.LessThan(amount) {
			return ErrInsufficientBalance
		}

		if !amount.IsPositive() {
			return ErrInvalidAmount
		}

		if _, err := s.QueryWalletByAddress(ctx, to, false); err != nil {
			if errors.Is(err, ErrWalletNotFound) {
				return ErrRecipientNotFound
			}
			return fmt.Errorf("recipient: address[%s]: %w", to, err)
		}

		tx = Tx{
			ID:          uuid.New(),
			FromAddress: from,
			ToAddress:   to,
			Amount:      amount,
			DateCreated: time.Now().UTC(),
		}

		if err := s.InsertTx(ctx, tx); err != nil {
			return fmt.Errorf("insert tx: %w", err)
		}

		return nil
	}

	if err := c.storer.WithinTran(ctx, f); err != nil {
		return Tx{}, err
	}

	c.evHandler("ledger: Transfer: from[%s]: to[%s]: amount[%s]", from, to, amount)

	return tx, nil
}
