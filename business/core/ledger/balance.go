package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateBalance derives the ledger balance of an address from the
// transaction log: everything received minus everything sent.
func (c *Core) CalculateBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return calculateBalance(ctx, c.storer, address)
}

// GiveReward issues the block reward to the address and credits the stored
// balance of the user holding it.
func (c *Core) GiveReward(ctx context.Context, address string) (Tx, error) {
	var tx Tx

	f := func(s Storer) error {
		var err error
		tx, err = c.giveReward(ctx, s, address)
		return err
	}

	if err := c.storer.WithinTran(ctx, f); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// QueryWalletByUserID returns the wallet held by the user.
func (c *Core) QueryWalletByUserID(ctx context.Context, userID uuid.UUID) (Wallet, error) {
	wallet, err := c.storer.QueryWalletByUserID(ctx, userID)
	if err != nil {
		return Wallet{}, fmt.Errorf("query wallet: userID[%s]: %w", userID, err)
	}

	return wallet, nil
}

// QueryBalances returns every wallet with its ledger and stored balance.
func (c *Core) QueryBalances(ctx context.Context) ([]WalletBalance, error) {
	wallets, err := c.storer.QueryWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("query wallets: %w", err)
	}

	balances := make([]WalletBalance, len(wallets))
	for i, w := range wallets {
		bal, err := calculateBalance(ctx, c.storer, w.Address)
		if err != nil {
			return nil, err
		}

		balances[i] = WalletBalance{
			Wallet:        w,
			LedgerBalance: bal,
			StoredBalance: w.StoredBalance,
		}
	}

	return balances, nil
}

// =============================================================================

func (c *Core) giveReward(ctx context.Context, s Storer, address string) (Tx, error) {
	tx := Tx{
		ID:          uuid.New(),
		FromAddress: SystemAddress,
		ToAddress:   address,
		Amount:      c.reward,
		DateCreated: time.Now().UTC(),
	}

	if err := s.InsertTx(ctx, tx); err != nil {
		return Tx{}, fmt.Errorf("insert reward: %w", err)
	}

	if err := s.AddStoredBalance(ctx, address, c.reward); err != nil {
		return Tx{}, fmt.Errorf("credit reward: address[%s]: %w", address, err)
	}

	c.evHandler("ledger: GiveReward: address[%s]: amount[%s]", address, c.reward)

	return tx, nil
}

func calculateBalance(ctx context.Context, s Storer, address string) (decimal.Decimal, error) {
	incoming, outgoing, err := s.QueryTotals(ctx, address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query totals: address[%s]: %w", address, err)
	}

	return incoming.Sub(outgoing), nil
}
