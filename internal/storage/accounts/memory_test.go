package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/cryptosim/internal/domain"
	"github.com/vadiminshakov/cryptosim/internal/storage"
)

func newStoredAccount(t *testing.T, store *MemoryStore) *domain.Account {
	t.Helper()
	account := domain.NewAccount("u1", "Test", "test@example.com", "hash",
		decimal.NewFromInt(10000), domain.DefaultSymbols, time.Now())
	require.NoError(t, store.Create(context.Background(), account))
	return account
}

func TestMemoryStoreCreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	newStoredAccount(t, store)

	byID, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "test@example.com", byID.Email)

	byEmail, err := store.FindByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", byEmail.ID)

	_, err = store.FindByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	dup := domain.NewAccount("u2", "Other", "test@example.com", "hash",
		decimal.NewFromInt(10000), domain.DefaultSymbols, time.Now())
	require.ErrorIs(t, store.Create(ctx, dup), storage.ErrEmailTaken)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	newStoredAccount(t, store)

	loaded, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	loaded.Holdings["BTC"] = decimal.NewFromInt(999)
	loaded.Balance = decimal.Zero

	fresh, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.True(t, fresh.Holdings["BTC"].IsZero(), "mutating a loaded account must not leak into the store")
	require.True(t, fresh.Balance.Equal(decimal.NewFromInt(10000)))
}

func TestMemoryStoreApplyPortfolioCAS(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	newStoredAccount(t, store)

	update := domain.Portfolio{
		Balance:  decimal.NewFromInt(5000),
		Holdings: map[string]decimal.Decimal{"BTC": decimal.NewFromFloat(0.1)},
		History: []domain.PortfolioSnapshot{
			domain.NewPortfolioSnapshot(time.Now(), decimal.NewFromInt(5000), nil),
		},
	}

	require.NoError(t, store.ApplyPortfolio(ctx, "u1", update, 0))

	// stale version loses
	err := store.ApplyPortfolio(ctx, "u1", update, 0)
	require.ErrorIs(t, err, storage.ErrVersionConflict)

	// fresh version wins again
	require.NoError(t, store.ApplyPortfolio(ctx, "u1", update, 1))

	loaded, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 2, loaded.Version)
	require.True(t, loaded.Balance.Equal(decimal.NewFromInt(5000)))
	require.Len(t, loaded.PortfolioHistory, 1)

	err = store.ApplyPortfolio(ctx, "missing", update, 0)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
