package trade_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ardanlabs/chainlogger/business/core/ledger"
	"github.com/ardanlabs/chainlogger/business/core/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTrade(t *testing.T) {
	type table struct {
		name       string
		stored     string
		order      trade.Order
		balance    string
		from       string
		amount     string
		liquidated bool
	}

	tt := []table{
		{name: "buy-half", stored: "100", order: trade.Order{Action: "buy", Percentage: dec("50")}, balance: "50", from: "wallet", amount: "50"},
		{name: "sell-tenth", stored: "100", order: trade.Order{Action: "sell", Percentage: dec("10")}, balance: "110", from: ledger.SystemAddress, amount: "10"},
		{name: "buy-all", stored: "100", order: trade.Order{Action: "BUY", Percentage: dec("100")}, balance: "0", from: "wallet", amount: "100", liquidated: true},
	}

	t.Log("Given the need to trade the stored balance.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen a user holding %s places %s %s%%.", testID, tst.stored, tst.order.Action, tst.order.Percentage)
				{
					core, store, userID := newCore(tst.stored, quoter{price: dec("50000")})

					res, err := core.Trade(context.Background(), userID, tst.order)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to trade: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to trade.", success, testID)

					if !res.StoredBalance.Equal(dec(tst.balance)) || !store.balance().Equal(dec(tst.balance)) {
						t.Fatalf("\t%s\tTest %d:\tShould leave %s, got %s.", failed, testID, tst.balance, store.balance())
					}
					t.Logf("\t%s\tTest %d:\tShould leave %s.", success, testID, tst.balance)

					if len(store.txs) != 1 || store.txs[0].FromAddress != tst.from || !store.txs[0].Amount.Equal(dec(tst.amount)) {
						t.Fatalf("\t%s\tTest %d:\tShould record %s from %s, got %+v.", failed, testID, tst.amount, tst.from, store.txs)
					}
					t.Logf("\t%s\tTest %d:\tShould record %s from %s.", success, testID, tst.amount, tst.from)

					if res.Liquidated != tst.liquidated {
						t.Fatalf("\t%s\tTest %d:\tShould have liquidated=%v.", failed, testID, tst.liquidated)
					}
					t.Logf("\t%s\tTest %d:\tShould have liquidated=%v.", success, testID, tst.liquidated)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestTradePuk(t *testing.T) {
	type table struct {
		name    string
		stored  string
		order   trade.Order
		balance string
		amount  string
		err     error
	}

	tt := []table{
		{name: "buy", stored: "100", order: trade.Order{Action: "buy", Percentage: dec("50")}, balance: "50", amount: "1"},
		{name: "sell", stored: "100", order: trade.Order{Action: "sell", Percentage: dec("50")}, balance: "150", amount: "1"},
		{name: "sell-over-max", stored: "2000000000000000000", order: trade.Order{Action: "sell", Percentage: dec("100")}, balance: "2000000000000000000", err: trade.ErrExceedsMaximum},
		{name: "bad-action", stored: "100", order: trade.Order{Action: "hold", Percentage: dec("50")}, balance: "100", err: trade.ErrInvalidAction},
		{name: "zero-pct", stored: "100", order: trade.Order{Action: "buy", Percentage: decimal.Zero}, balance: "100", err: trade.ErrInvalidPercentage},
		{name: "over-pct", stored: "100", order: trade.Order{Action: "buy", Percentage: dec("100.5")}, balance: "100", err: trade.ErrInvalidPercentage},
	}

	t.Log("Given the need to trade PUK at the derived price.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen a user holding %s places %s %s%%.", testID, tst.stored, tst.order.Action, tst.order.Percentage)
				{
					// BTC at 50000 with a ratio of 0.001 prices PUK at 50.
					core, store, userID := newCore(tst.stored, quoter{price: dec("50000")})

					res, err := core.TradePuk(context.Background(), userID, tst.order)
					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould get %v, got %v.", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get %v.", success, testID, tst.err)

					if !store.balance().Equal(dec(tst.balance)) {
						t.Fatalf("\t%s\tTest %d:\tShould leave %s, got %s.", failed, testID, tst.balance, store.balance())
					}
					t.Logf("\t%s\tTest %d:\tShould leave %s.", success, testID, tst.balance)

					if tst.err != nil {
						if len(store.txs) != 0 {
							t.Fatalf("\t%s\tTest %d:\tShould not record a transaction.", failed, testID)
						}
						return
					}

					if !res.Quote.PukPrice.Equal(dec("50")) || !res.Amount.Equal(dec(tst.amount)) {
						t.Fatalf("\t%s\tTest %d:\tShould trade %s PUK at 50, got %s at %s.", failed, testID, tst.amount, res.Amount, res.Quote.PukPrice)
					}
					t.Logf("\t%s\tTest %d:\tShould trade %s PUK at 50.", success, testID, tst.amount)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestQuote(t *testing.T) {
	t.Log("Given the need to price trades from the BTC feed.")
	{
		t.Logf("\tTest 0:\tWhen the feed fails.")
		{
			feedErr := errors.New("feed down")
			core, store, userID := newCore("100", quoter{err: feedErr})

			_, err := core.Trade(context.Background(), userID, trade.Order{Action: "buy", Percentage: dec("10")})
			if !errors.Is(err, feedErr) {
				t.Fatalf("\t%s\tTest 0:\tShould return the feed error, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould return the feed error.", success)

			if !store.balance().Equal(dec("100")) {
				t.Fatalf("\t%s\tTest 0:\tShould leave the balance alone.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave the balance alone.", success)
		}

		t.Logf("\tTest 1:\tWhen the feed returns zero.")
		{
			core, _, _ := newCore("100", quoter{price: decimal.Zero})

			if _, err := core.Quote(context.Background()); !errors.Is(err, trade.ErrInvalidPrice) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the price, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the price.", success)
		}
	}
}

// =============================================================================

type quoter struct {
	price decimal.Decimal
	err   error
}

func (q quoter) Price(ctx context.Context) (decimal.Decimal, error) {
	return q.price, q.err
}

type memStore struct {
	mu   sync.Mutex
	acct trade.Account
	txs  []ledger.Tx
}

func newCore(stored string, q quoter) (*trade.Core, *memStore, uuid.UUID) {
	userID := uuid.New()
	store := memStore{
		acct: trade.Account{
			UserID:        userID,
			Address:       "wallet",
			StoredBalance: dec(stored),
		},
	}

	core := trade.NewCore(zap.NewNop().Sugar(), &store, q, trade.Config{PukRatio: dec("0.001")})

	return core, &store, userID
}

func (m *memStore) balance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.acct.StoredBalance
}

func (m *memStore) WithinTran(ctx context.Context, fn func(s trade.Storer) error) error {
	m.mu.Lock()
	acct, txs := m.acct, len(m.txs)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.acct, m.txs = acct, m.txs[:txs]
		m.mu.Unlock()
		return err
	}

	return nil
}

func (m *memStore) QueryAccount(ctx context.Context, userID uuid.UUID, lock bool) (trade.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if userID != m.acct.UserID {
		return trade.Account{}, trade.ErrNotFound
	}
	return m.acct, nil
}

func (m *memStore) AddStoredBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.acct.StoredBalance = m.acct.StoredBalance.Add(amount)
	return nil
}

func (m *memStore) InsertTx(ctx context.Context, tx ledger.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txs = append(m.txs, tx)
	return nil
}
