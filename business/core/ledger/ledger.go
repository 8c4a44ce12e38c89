// Package ledger is the core API for the hash linked message ledger and
// implements all the business rules for blocks, rewards and transfers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ardanlabs/chainlogger/business/data/order"
	"github.com/ardanlabs/chainlogger/business/data/paging"
	"github.com/ardanlabs/chainlogger/foundation/chainhash"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Set of error variables for ledger operations.
var (
	ErrNotFound            = errors.New("block not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrNotOwner            = errors.New("attempted action is not allowed")
	ErrEmptyMessage        = errors.New("message cannot be empty")
	ErrDuplicateIndex      = errors.New("block index already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrRecipientNotFound   = errors.New("recipient does not exist")
	ErrSameOwner           = errors.New("block already belongs to this user")
)

// Set of fields blocks can be listed by.
const (
	OrderByIndex = "index"
	OrderByOwner = "owner"
)

// DefaultOrderBy is the ordering used when none is supplied.
var DefaultOrderBy = order.NewBy(OrderByIndex, order.ASC)

var orderFields = map[string]bool{
	OrderByIndex: true,
	OrderByOwner: true,
}

// ParseOrder converts the sort parameters of a block listing into an
// ordering, falling back to index ascending.
func ParseOrder(sortBy string, sortOrder string) order.By {
	return order.Parse(sortBy, sortOrder, orderFields, DefaultOrderBy)
}

// =============================================================================

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	WithinTran(ctx context.Context, fn func(s Storer) error) error

	InsertBlock(ctx context.Context, blk Block) error
	UpdateBlockMessage(ctx context.Context, blk Block) error
	UpdateBlockOwner(ctx context.Context, index uint64, ownerID uuid.UUID) error
	QueryLatestBlock(ctx context.Context) (Block, error)
	QueryBlocks(ctx context.Context) ([]Block, error)
	QueryBlockByIndex(ctx context.Context, index uint64) (Block, error)
	QueryBlockSummaries(ctx context.Context, orderBy order.By, offset int, limit int) ([]BlockSummary, error)
	CountBlocks(ctx context.Context) (int, error)

	InsertTx(ctx context.Context, tx Tx) error
	QueryTxs(ctx context.Context) ([]Tx, error)
	QueryTotals(ctx context.Context, address string) (incoming decimal.Decimal, outgoing decimal.Decimal, err error)
	SumIssued(ctx context.Context, fromAddress string) (decimal.Decimal, error)

	QueryWalletByAddress(ctx context.Context, address string, lock bool) (Wallet, error)
	QueryWalletByUserID(ctx context.Context, userID uuid.UUID) (Wallet, error)
	QueryWallets(ctx context.Context) ([]Wallet, error)
	AddStoredBalance(ctx context.Context, address string, amount decimal.Decimal) error

	InsertOwnership(ctx context.Context, o Ownership) error
	QueryOwnership(ctx context.Context, index uint64) ([]Ownership, error)
}

// EventHandler defines a function that is called when events occur in the
// processing of the ledger.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct the core.
type Config struct {
	Reward        decimal.Decimal
	AppendRetries int
	EvHandler     EventHandler
}

// Core manages the set of APIs for ledger access.
type Core struct {
	log       *zap.SugaredLogger
	storer    Storer
	reward    decimal.Decimal
	retries   int
	evHandler EventHandler

	mu    sync.RWMutex
	chain []Block
}

// NewCore constructs a core for ledger api access.
func NewCore(log *zap.SugaredLogger, storer Storer, cfg Config) *Core {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	reward := cfg.Reward
	if reward.IsZero() {
		reward = decimal.NewFromInt(10)
	}

	return &Core{
		log:       log,
		storer:    storer,
		reward:    reward,
		retries:   cfg.AppendRetries,
		evHandler: ev,
	}
}

// Reward returns the amount issued for every appended block.
func (c *Core) Reward() decimal.Decimal {
	return c.reward
}

// Initialize persists the genesis block when the ledger is empty and loads
// the chain snapshot.
func (c *Core) Initialize(ctx context.Context) error {
	c.evHandler("ledger: Initialize: started")
	defer c.evHandler("ledger: Initialize: completed")

	f := func(s Storer) error {
		_, err := s.QueryLatestBlock(ctx)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("latest block: %w", err)
		}

		genesis := Block{
			Index:        0,
			Message:      GenesisMessage,
			Hash:         chainhash.GenesisHash,
			PreviousHash: chainhash.ZeroHash,
			DateCreated:  time.Now().UTC(),
		}

		if err := s.InsertBlock(ctx, genesis); err != nil {
			return fmt.Errorf("insert genesis: %w", err)
		}

		c.evHandler("ledger: Initialize: genesis block written")

		return nil
	}

	// Another instance may write genesis first.
	if err := c.storer.WithinTran(ctx, f); err != nil && !errors.Is(err, ErrDuplicateIndex) {
		return err
	}

	if _, err := c.LoadAll(ctx); err != nil {
		return err
	}

	return nil
}

// LoadAll reads every block with its transactions from storage and replaces
// the in-memory snapshot.
func (c *Core) LoadAll(ctx context.Context) ([]Block, error) {
	blocks, err := c.storer.QueryBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}

	c.mu.Lock()
	c.chain = blocks
	c.mu.Unlock()

	return copyBlocks(blocks), nil
}

// Snapshot returns a copy of the cached chain.
func (c *Core) Snapshot() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return copyBlocks(c.chain)
}

// AppendBlock writes a new block at the tail of the chain. The block, its
// transactions and the owner's reward are written in one unit of work. When
// another writer claims the same index the unit of work is retried.
func (c *Core) AppendBlock(ctx context.Context, nb NewBlock) (Block, error) {
	if strings.TrimSpace(nb.Message) == "" {
		return Block{}, ErrEmptyMessage
	}

	for attempt := 1; ; attempt++ {
		blk, err := c.appendBlock(ctx, nb)
		if err == nil {
			c.insert(blk)

			c.evHandler("ledger: AppendBlock: blk[%d]: hash[%s]", blk.Index, blk.Hash)
			return blk, nil
		}

		if !errors.Is(err, ErrDuplicateIndex) || attempt > c.retries {
			return Block{}, err
		}

		c.evHandler("ledger: AppendBlock: attempt[%d]: index taken, retrying", attempt)

		if _, err := c.LoadAll(ctx); err != nil {
			return Block{}, err
		}
	}
}

func (c *Core) appendBlock(ctx context.Context, nb NewBlock) (Block, error) {
	var blk Block

	f := func(s Storer) error {
		index := uint64(0)
		prevHash := chainhash.ZeroHash

		latest, err := s.QueryLatestBlock(ctx)
		switch {
		case err == nil:
			index = latest.Index + 1
			prevHash = latest.Hash
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("latest block: %w", err)
		}

		now := time.Now().UTC()

		blk = Block{
			Index:        index,
			Message:      nb.Message,
			Hash:         chainhash.Compute(prevHash, index, nb.Message),
			PreviousHash: prevHash,
			OwnerID:      nb.OwnerID,
			DateCreated:  now,
		}

		for _, ntx := range nb.Transactions {
			idx := index
			blk.Transactions = append(blk.Transactions, Tx{
				ID:          uuid.New(),
				FromAddress: ntx.FromAddress,
				ToAddress:   ntx.ToAddress,
				Amount:      ntx.Amount,
				BlockIndex:  &idx,
				DateCreated: now,
			})
		}

		if err := s.InsertBlock(ctx, blk); err != nil {
			return fmt.Errorf("insert block[%d]: %w", index, err)
		}

		if nb.OwnerID == uuid.Nil {
			return nil
		}

		wallet, err := s.QueryWalletByUserID(ctx, nb.OwnerID)
		if err != nil {
			return fmt.Errorf("owner wallet: %w", err)
		}

		if _, err := c.giveReward(ctx, s, wallet.Address); err != nil {
			return err
		}

		blk.OwnerName = wallet.Username

		return nil
	}

	if err := c.storer.WithinTran(ctx, f); err != nil {
		return Block{}, err
	}

	return blk, nil
}

// UpdateMessage replaces the message of a block owned by the actor and
// recomputes its hash from the stored previous hash. Descendant blocks are
// not touched so their previous hash no longer matches.
func (c *Core) UpdateMessage(ctx context.Context, index uint64, message string, actorID uuid.UUID) (Block, error) {
	if strings.TrimSpace(message) == "" {
		return Block{}, ErrEmptyMessage
	}

	var blk Block

	f := func(s Storer) error {
		var err error
		blk, err = s.QueryBlockByIndex(ctx, index)
		if err != nil {
			return fmt.Errorf("query block[%d]: %w", index, err)
		}

		if blk.OwnerID == uuid.Nil || blk.OwnerID != actorID {
			return ErrNotOwner
		}

		blk.Message = message
		blk.Hash = chainhash.Compute(blk.PreviousHash, blk.Index, message)
		blk.DateCreated = time.Now().UTC()

		if err := s.UpdateBlockMessage(ctx, blk); err != nil {
			return fmt.Errorf("update block[%d]: %w", index, err)
		}

		return nil
	}

	if err := c.storer.WithinTran(ctx, f); err != nil {
		return Block{}, err
	}

	c.replace(blk)

	c.evHandler("ledger: UpdateMessage: blk[%d]: hash[%s]", blk.Index, blk.Hash)

	return blk, nil
}

// QueryBlockPage returns one page of block summaries. The requested page is
// clamped to the pages available.
func (c *Core) QueryBlockPage(ctx context.Context, page int, orderBy order.By) ([]BlockSummary, paging.Page, error) {
	total, err := c.storer.CountBlocks(ctx)
	if err != nil {
		return nil, paging.Page{}, fmt.Errorf("count blocks: %w", err)
	}

	p := paging.New(page, paging.DefaultPerPage, total)

	blocks, err := c.storer.QueryBlockSummaries(ctx, orderBy, p.Offset(), p.PerPage)
	if err != nil {
		return nil, paging.Page{}, fmt.Errorf("query summaries: %w", err)
	}

	return blocks, p, nil
}

// QueryBlockDetail returns the block with its transactions and ownership
// history.
func (c *Core) QueryBlockDetail(ctx context.Context, index uint64) (BlockDetail, error) {
	blk, err := c.storer.QueryBlockByIndex(ctx, index)
	if err != nil {
		return BlockDetail{}, fmt.Errorf("query block[%d]: %w", index, err)
	}

	history, err := c.storer.QueryOwnership(ctx, index)
	if err != nil {
		return BlockDetail{}, fmt.Errorf("query ownership[%d]: %w", index, err)
	}

	return BlockDetail{Block: blk, Ownership: history}, nil
}

// QueryBlockByIndex returns the specified block.
func (c *Core) QueryBlockByIndex(ctx context.Context, index uint64) (Block, error) {
	blk, err := c.storer.QueryBlockByIndex(ctx, index)
	if err != nil {
		return Block{}, fmt.Errorf("query block[%d]: %w", index, err)
	}

	return blk, nil
}

// QueryTransactions returns every transaction in the log, newest first.
func (c *Core) QueryTransactions(ctx context.Context) ([]Tx, error) {
	txs, err := c.storer.QueryTxs(ctx)
	if err != nil {
		return nil, fmt.Errorf("query txs: %w", err)
	}

	return txs, nil
}

// Stats returns the transaction count and the coins issued by the system.
func (c *Core) Stats(ctx context.Context) (Stats, error) {
	txs, err := c.storer.QueryTxs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("query txs: %w", err)
	}

	issued, err := c.storer.SumIssued(ctx, SystemAddress)
	if err != nil {
		return Stats{}, fmt.Errorf("sum issued: %w", err)
	}

	return Stats{TotalTxs: len(txs), TotalIssued: issued}, nil
}

// Verify reloads the chain and returns the index of every block whose
// previous hash does not match its predecessor's hash.
func (c *Core) Verify(ctx context.Context) ([]uint64, error) {
	blocks, err := c.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	links := make([]chainhash.Link, len(blocks))
	for i, blk := range blocks {
		links[i] = chainhash.Link{
			Index:        blk.Index,
			PreviousHash: blk.PreviousHash,
			Hash:         blk.Hash,
		}
	}

	return chainhash.Broken(links), nil
}

// =============================================================================

// insert adds a committed block to the cached chain at its index position.
// Appends from different goroutines can finish out of commit order.
func (c *Core) insert(blk Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.chain)
	if n == 0 || c.chain[n-1].Index < blk.Index {
		c.chain = append(c.chain, blk)
		return
	}

	i := sort.Search(n, func(i int) bool { return c.chain[i].Index >= blk.Index })
	if c.chain[i].Index == blk.Index {
		c.chain[i] = blk
		return
	}

	c.chain = append(c.chain, Block{})
	copy(c.chain[i+1:], c.chain[i:])
	c.chain[i] = blk
}

// replace swaps the cached copy of a block for the one provided.
func (c *Core) replace(blk Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.chain {
		if c.chain[i].Index == blk.Index {
			c.chain[i] = blk
			return
		}
	}
}

func copyBlocks(blocks []Block) []Block {
	cp := make([]Block, len(blocks))
	copy(cp, blocks)
	return cp
}
