package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferBlockOwnership hands a block to a new owner and records the
// change with the agreed price.
func (c *Core) TransferBlockOwnership(ctx context.Context, index uint64, newOwnerID uuid.UUID, price decimal.Decimal) (Ownership, error) {
	if price.IsNegative() {
		return Ownership{}, ErrInvalidAmount
	}

	var o Ownership

	f := func(s Storer) error {
		blk, err := s.QueryBlockByIndex(ctx, index)
		if err != nil {
			return fmt.Errorf("query block[%d]: %w", index, err)
		}

		if blk.OwnerID == newOwnerID {
			return ErrSameOwner
		}

		wallet, err := s.QueryWalletByUserID(ctx, newOwnerID)
		if err != nil {
			return fmt.Errorf("new owner: userID[%s]: %w", newOwnerID, err)
		}

		if err := s.UpdateBlockOwner(ctx, index, newOwnerID); err != nil {
			return fmt.Errorf("update owner: block[%d]: %w", index, err)
		}

		o = Ownership{
			ID:              uuid.New(),
			BlockIndex:      index,
			PreviousOwnerID: blk.OwnerID,
			PreviousOwner:   blk.OwnerName,
			NewOwnerID:      newOwnerID,
			NewOwner:        wallet.Username,
			Price:           price,
			DateCreated:     time.Now().UTC(),
		}

		if err := s.InsertOwnership(ctx, o); err != nil {
			return fmt.Errorf("insert ownership: block[%d]: %w", index, err)
		}

		return nil
	}

	if err := c.storer.WithinTran(ctx, f); err != nil {
		return Ownership{}, err
	}

	c.mu.Lock()
	for i := range c.chain {
		if c.chain[i].Index == index {
			c.chain[i].OwnerID = o.NewOwnerID
			c.chain[i].OwnerName = o.NewOwner
			break
		}
	}
	c.mu.Unlock()

	c.evHandler("ledger: TransferBlockOwnership: blk[%d]: owner[%s]: price[%s]", index, o.NewOwner, price)

	return o, nil
}
