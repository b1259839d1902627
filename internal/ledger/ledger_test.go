package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/cryptosim/internal/domain"
	"github.com/vadiminshakov/cryptosim/internal/storage/accounts"
	"github.com/vadiminshakov/cryptosim/internal/storage/trades"
)

func newTestLedger(t *testing.T) (*Ledger, *accounts.MemoryStore, *trades.MemoryStore, *domain.Account) {
	t.Helper()
	accountStore := accounts.NewMemoryStore()
	tradeStore := trades.NewMemoryStore()

	account := domain.NewAccount("u1", "Test", "test@example.com", "",
		decimal.NewFromInt(10000), domain.DefaultSymbols, time.Now())
	require.NoError(t, accountStore.Create(context.Background(), account))

	return New(accountStore, tradeStore, nil, nil), accountStore, tradeStore, account
}

func buyOrder(symbol string, amount, price float64) domain.Order {
	return domain.Order{
		Symbol: symbol,
		Side:   domain.SideBuy,
		Amount: decimal.NewFromFloat(amount),
		Price:  decimal.NewFromFloat(price),
	}
}

func sellOrder(symbol string, amount, price float64) domain.Order {
	o := buyOrder(symbol, amount, price)
	o.Side = domain.SideSell
	return o
}

// Mirrors the expected account lifecycle: reject on overdraw, buy, reject on
// overselling, sell everything back.
func TestApplyTradeScenario(t *testing.T) {
	ctx := context.Background()
	l, accountStore, tradeStore, _ := newTestLedger(t)

	_, err := l.ApplyTrade(ctx, "u1", buyOrder("BTC", 1, 50000))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	account, err := accountStore.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(10000)), "rejected trade must not touch balance")
	require.Empty(t, account.PortfolioHistory)

	portfolio, err := l.ApplyTrade(ctx, "u1", buyOrder("BTC", 0.1, 50000))
	require.NoError(t, err)
	require.True(t, portfolio.Balance.Equal(decimal.NewFromInt(5000)))
	require.True(t, portfolio.Holdings["BTC"].Equal(decimal.NewFromFloat(0.1)))
	require.Len(t, portfolio.History, 1)

	_, err = l.ApplyTrade(ctx, "u1", sellOrder("BTC", 0.2, 60000))
	require.ErrorIs(t, err, domain.ErrInsufficientHoldings)

	portfolio, err = l.ApplyTrade(ctx, "u1", sellOrder("BTC", 0.1, 60000))
	require.NoError(t, err)
	require.True(t, portfolio.Balance.Equal(decimal.NewFromInt(11000)))
	require.True(t, portfolio.Holdings["BTC"].IsZero())

	records, err := tradeStore.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2, "only accepted trades are recorded")
}

func TestApplyTradeRejectionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	l, accountStore, tradeStore, _ := newTestLedger(t)

	_, err := l.ApplyTrade(ctx, "u1", buyOrder("ETH", 1, 3000))
	require.NoError(t, err)
	before, err := accountStore.FindByID(ctx, "u1")
	require.NoError(t, err)

	_, err = l.ApplyTrade(ctx, "u1", sellOrder("ETH", 2, 3000))
	require.ErrorIs(t, err, domain.ErrInsufficientHoldings)

	after, err := accountStore.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, after.Balance.Equal(before.Balance))
	require.Equal(t, before.Version, after.Version)
	for sym := range before.Holdings {
		require.True(t, after.Holdings[sym].Equal(before.Holdings[sym]), "holding %s changed", sym)
	}
	require.Len(t, after.PortfolioHistory, len(before.PortfolioHistory))

	records, err := tradeStore.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestApplyTradeSharedTimestamp(t *testing.T) {
	ctx := context.Background()
	l, accountStore, tradeStore, _ := newTestLedger(t)

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	_, err := l.ApplyTrade(ctx, "u1", buyOrder("SOL", 10, 150))
	require.NoError(t, err)

	records, err := tradeStore.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	account, err := accountStore.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, account.PortfolioHistory, 1)
	require.Equal(t, records[0].CreatedAt, account.PortfolioHistory[0].Timestamp,
		"trade record and snapshot must share one timestamp")
}

func TestApplyTradeHistoryEviction(t *testing.T) {
	ctx := context.Background()
	l, accountStore, _, _ := newTestLedger(t)

	clock := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for i := 0; i < domain.PortfolioHistoryLimit+1; i++ {
		_, err := l.ApplyTrade(ctx, "u1", buyOrder("BTC", 1, 0.5))
		require.NoError(t, err)
	}

	account, err := accountStore.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, account.PortfolioHistory, domain.PortfolioHistoryLimit)

	// first trade's snapshot (balance 9999.5) was evicted, the second's leads
	require.True(t, account.PortfolioHistory[0].TotalValue.Equal(decimal.NewFromFloat(9999)),
		"oldest snapshot should be the 2nd trade's, got %s", account.PortfolioHistory[0].TotalValue)
}

// Two trades that would individually succeed but jointly overdraw the balance
// must produce exactly one acceptance.
func TestApplyTradeConcurrentOverdraw(t *testing.T) {
	ctx := context.Background()
	l, accountStore, tradeStore, _ := newTestLedger(t)

	// each order costs 7500 against a 10000 balance
	order := buyOrder("BTC", 0.15, 50000)

	start := make(chan struct{})
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := l.ApplyTrade(ctx, "u1", order)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var accepted, rejected int
	for err := range results {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, domain.ErrInsufficientBalance)
			rejected++
		}
	}
	require.Equal(t, 1, accepted, "exactly one trade must be accepted")
	require.Equal(t, 1, rejected, "exactly one trade must be rejected")

	account, err := accountStore.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, account.Balance.Equal(decimal.NewFromInt(2500)))
	require.True(t, account.Holdings["BTC"].Equal(decimal.NewFromFloat(0.15)))

	records, err := tradeStore.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
