package journal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/cryptosim/internal/domain"
)

func testTrade(symbol string, value int64) domain.Trade {
	return domain.Trade{
		ID:        uuid.New().String(),
		UserID:    "u1",
		Symbol:    symbol,
		Side:      domain.SideBuy,
		Amount:    decimal.NewFromInt(1),
		Price:     decimal.NewFromInt(value),
		Value:     decimal.NewFromInt(value),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestWALStoreAppendAndReadBack(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	first := testTrade("BTC", 50000)
	second := testTrade("ETH", 3000)
	require.NoError(t, store.Append(first))
	require.NoError(t, store.Append(second))

	records, err := store.EntriesAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, first.ID, records[0].Entry.ID)
	require.Equal(t, "BTC", records[0].Entry.Symbol)
	require.Equal(t, "buy", records[0].Entry.Side)
	require.Equal(t, "50000", records[0].Entry.Value)

	// resume from the first record's index
	tail, err := store.EntriesAfter(records[0].Index)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, second.ID, tail[0].Entry.ID)
}

func TestWALStoreRejectsEmptyTradeID(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	trade := testTrade("BTC", 100)
	trade.ID = ""
	require.Error(t, store.Append(trade))
}
