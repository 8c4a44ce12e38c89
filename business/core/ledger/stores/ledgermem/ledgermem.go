// Package ledgermem contains ledger related CRUD functionality kept in
// memory. It backs tests and local tooling that run without a database.
package ledgermem

import (
	"context"
	"sort"
	"sync"

	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/data/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type state struct {
	tranMu    sync.Mutex
	mu        sync.RWMutex
	blocks    map[uint64]ledger.Block
	txs       []ledger.Tx
	wallets   map[string]ledger.Wallet
	ownership []ledger.Ownership
}

// Store manages the set of APIs for ledger access in memory. This
// implements the ledger.Storer interface.
type Store struct {
	st     *state
	inTran bool
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		st: &state{
			blocks:  make(map[uint64]ledger.Block),
			wallets: make(map[string]ledger.Wallet),
		},
	}
}

// AddWallet registers a wallet so it can receive and send currency.
func (s *Store) AddWallet(w ledger.Wallet) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	s.st.wallets[w.Address] = w
}

// StoredBalance returns the stored balance of the user holding the address.
func (s *Store) StoredBalance(address string) decimal.Decimal {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	return s.st.wallets[address].StoredBalance
}

// WithinTran runs the function against the store. Every change the function
// made is undone when it returns an error.
func (s *Store) WithinTran(ctx context.Context, fn func(s ledger.Storer) error) error {
	if s.inTran {
		return fn(s)
	}

	s.st.tranMu.Lock()
	defer s.st.tranMu.Unlock()

	saved := s.st.clone()

	if err := fn(&Store{st: s.st, inTran: true}); err != nil {
		s.st.restore(saved)
		return err
	}

	return nil
}

// InsertBlock adds the block and its transactions.
func (s *Store) InsertBlock(ctx context.Context, blk ledger.Block) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if _, exists := s.st.blocks[blk.Index]; exists {
		return ledger.ErrDuplicateIndex
	}

	txs := blk.Transactions
	blk.Transactions = nil
	blk.OwnerName = ""
	s.st.blocks[blk.Index] = blk
	s.st.txs = append(s.st.txs, txs...)

	return nil
}

// UpdateBlockMessage replaces the message, hash and timestamp of a block.
func (s *Store) UpdateBlockMessage(ctx context.Context, blk ledger.Block) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	cur, exists := s.st.blocks[blk.Index]
	if !exists {
		return ledger.ErrNotFound
	}

	cur.Message = blk.Message
	cur.Hash = blk.Hash
	cur.DateCreated = blk.DateCreated
	s.st.blocks[blk.Index] = cur

	return nil
}

// UpdateBlockOwner sets the owner of a block.
func (s *Store) UpdateBlockOwner(ctx context.Context, index uint64, ownerID uuid.UUID) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	cur, exists := s.st.blocks[index]
	if !exists {
		return ledger.ErrNotFound
	}

	cur.OwnerID = ownerID
	s.st.blocks[index] = cur

	return nil
}

// QueryLatestBlock returns the block with the highest index.
func (s *Store) QueryLatestBlock(ctx context.Context) (ledger.Block, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	if len(s.st.blocks) == 0 {
		return ledger.Block{}, ledger.ErrNotFound
	}

	var latest ledger.Block
	for _, blk := range s.st.blocks {
		if blk.Index >= latest.Index {
			latest = blk
		}
	}

	return s.st.fill(latest), nil
}

// QueryBlocks returns every block ordered by index.
func (s *Store) QueryBlocks(ctx context.Context) ([]ledger.Block, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	blocks := make([]ledger.Block, 0, len(s.st.blocks))
	for _, blk := range s.st.blocks {
		blocks = append(blocks, s.st.fill(blk))
	}

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Index < blocks[j].Index
	})

	return blocks, nil
}

// QueryBlockByIndex returns the specified block.
func (s *Store) QueryBlockByIndex(ctx context.Context, index uint64) (ledger.Block, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	blk, exists := s.st.blocks[index]
	if !exists {
		return ledger.Block{}, ledger.ErrNotFound
	}

	return s.st.fill(blk), nil
}

// QueryBlockSummaries returns one page of block summaries.
func (s *Store) QueryBlockSummaries(ctx context.Context, orderBy order.By, offset int, limit int) ([]ledger.BlockSummary, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	sums := make([]ledger.BlockSummary, 0, len(s.st.blocks))
	for _, blk := range s.st.blocks {
		blk = s.st.fill(blk)
		sums = append(sums, ledger.BlockSummary{
			Index:   blk.Index,
			Message: blk.Message,
			Hash:    blk.Hash,
			Owner:   ownerName(blk.OwnerName),
		})
	}

	desc := orderBy.Direction == order.DESC
	sort.Slice(sums, func(i, j int) bool {
		a, b := sums[i], sums[j]
		if desc {
			a, b = b, a
		}
		if orderBy.Field == ledger.OrderByOwner && a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		return a.Index < b.Index
	})

	if offset >= len(sums) {
		return nil, nil
	}

	end := offset + limit
	if end > len(sums) {
		end = len(sums)
	}

	return sums[offset:end], nil
}

// CountBlocks returns the number of blocks.
func (s *Store) CountBlocks(ctx context.Context) (int, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	return len(s.st.blocks), nil
}

// InsertTx adds a transaction to the log.
func (s *Store) InsertTx(ctx context.Context, tx ledger.Tx) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	s.st.txs = append(s.st.txs, tx)

	return nil
}

// QueryTxs returns every transaction, newest first.
func (s *Store) QueryTxs(ctx context.Context) ([]ledger.Tx, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	txs := make([]ledger.Tx, len(s.st.txs))
	for i, tx := range s.st.txs {
		txs[len(txs)-1-i] = tx
	}

	return txs, nil
}

// QueryTotals returns the sum received by and the sum sent from an address.
func (s *Store) QueryTotals(ctx context.Context, address string) (decimal.Decimal, decimal.Decimal, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	incoming := decimal.Zero
	outgoing := decimal.Zero
	for _, tx := range s.st.txs {
		if tx.ToAddress == address {
			incoming = incoming.Add(tx.Amount)
		}
		if tx.FromAddress == address {
			outgoing = outgoing.Add(tx.Amount)
		}
	}

	return incoming, outgoing, nil
}

// SumIssued returns the sum of every amount sent from the address.
func (s *Store) SumIssued(ctx context.Context, fromAddress string) (decimal.Decimal, error) {
	_, outgoing, err := s.QueryTotals(ctx, fromAddress)
	return outgoing, err
}

// QueryWalletByAddress returns the wallet at the address. Locking has no
// meaning here since transactions are already serialized.
func (s *Store) QueryWalletByAddress(ctx context.Context, address string, lock bool) (ledger.Wallet, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	w, exists := s.st.wallets[address]
	if !exists {
		return ledger.Wallet{}, ledger.ErrWalletNotFound
	}

	return w, nil
}

// QueryWalletByUserID returns the wallet held by the user.
func (s *Store) QueryWalletByUserID(ctx context.Context, userID uuid.UUID) (ledger.Wallet, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	for _, w := range s.st.wallets {
		if w.UserID == userID {
			return w, nil
		}
	}

	return ledger.Wallet{}, ledger.ErrWalletNotFound
}

// QueryWallets returns every wallet ordered by username.
func (s *Store) QueryWallets(ctx context.Context) ([]ledger.Wallet, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	wallets := make([]ledger.Wallet, 0, len(s.st.wallets))
	for _, w := range s.st.wallets {
		wallets = append(wallets, w)
	}

	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].Username < wallets[j].Username
	})

	return wallets, nil
}

// AddStoredBalance credits the stored balance of the user holding the
// address.
func (s *Store) AddStoredBalance(ctx context.Context, address string, amount decimal.Decimal) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	w, exists := s.st.wallets[address]
	if !exists {
		return ledger.ErrWalletNotFound
	}

	w.StoredBalance = w.StoredBalance.Add(amount)
	s.st.wallets[address] = w

	return nil
}

// InsertOwnership records a change of block owner.
func (s *Store) InsertOwnership(ctx context.Context, o ledger.Ownership) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	s.st.ownership = append(s.st.ownership, o)

	return nil
}

// QueryOwnership returns the ownership history of a block, newest first.
func (s *Store) QueryOwnership(ctx context.Context, index uint64) ([]ledger.Ownership, error) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()

	var history []ledger.Ownership
	for i := len(s.st.ownership) - 1; i >= 0; i-- {
		if s.st.ownership[i].BlockIndex == index {
			history = append(history, s.st.ownership[i])
		}
	}

	return history, nil
}

// =============================================================================

// fill attaches the owner name and the block's transactions. The caller
// must hold the lock.
func (st *state) fill(blk ledger.Block) ledger.Block {
	blk.OwnerName = ""
	if blk.OwnerID != uuid.Nil {
		for _, w := range st.wallets {
			if w.UserID == blk.OwnerID {
				blk.OwnerName = w.Username
				break
			}
		}
	}

	blk.Transactions = nil
	for _, tx := range st.txs {
		if tx.BlockIndex != nil && *tx.BlockIndex == blk.Index {
			blk.Transactions = append(blk.Transactions, tx)
		}
	}

	return blk
}

func (st *state) clone() *state {
	st.mu.RLock()
	defer st.mu.RUnlock()

	cp := state{
		blocks:    make(map[uint64]ledger.Block, len(st.blocks)),
		txs:       make([]ledger.Tx, len(st.txs)),
		wallets:   make(map[string]ledger.Wallet, len(st.wallets)),
		ownership: make([]ledger.Ownership, len(st.ownership)),
	}

	for k, v := range st.blocks {
		cp.blocks[k] = v
	}
	for k, v := range st.wallets {
		cp.wallets[k] = v
	}
	copy(cp.txs, st.txs)
	copy(cp.ownership, st.ownership)

	return &cp
}

func (st *state) restore(saved *state) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.blocks = saved.blocks
	st.txs = saved.txs
	st.wallets = saved.wallets
	st.ownership = saved.ownership
}

func ownerName(name string) string {
	if name == "" {
		return "None"
	}
	return name
}
