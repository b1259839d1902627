package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/cryptosim/internal/domain"
)

func testAccount(t *testing.T, balance string, holdings map[string]string) *domain.Account {
	t.Helper()
	bal, err := decimal.NewFromString(balance)
	require.NoError(t, err)
	account := domain.NewAccount("u1", "Test", "test@example.com", "", bal, domain.DefaultSymbols, time.Now())
	for sym, q := range holdings {
		quantity, err := decimal.NewFromString(q)
		require.NoError(t, err)
		account.Holdings[sym] = quantity
	}
	return account
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		balance  string
		holdings map[string]string
		order    domain.Order
		wantErr  error
		// post-trade expectations for accepted orders
		wantBalance string
		wantHolding string
	}{
		{
			name:    "buy within balance",
			balance: "10000",
			order: domain.Order{
				Symbol: "BTC", Side: domain.SideBuy,
				Amount: decimal.NewFromFloat(0.1), Price: decimal.NewFromInt(50000),
			},
			wantBalance: "5000",
			wantHolding: "0.1",
		},
		{
			name:    "buy exceeding balance rejected",
			balance: "10000",
			order: domain.Order{
				Symbol: "BTC", Side: domain.SideBuy,
				Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(50000),
			},
			wantErr: domain.ErrInsufficientBalance,
		},
		{
			name:    "buy spending exact balance allowed",
			balance: "5000",
			order: domain.Order{
				Symbol: "ETH", Side: domain.SideBuy,
				Amount: decimal.NewFromInt(2), Price: decimal.NewFromInt(2500),
			},
			wantBalance: "0",
			wantHolding: "2",
		},
		{
			name:     "sell within holdings",
			balance:  "5000",
			holdings: map[string]string{"BTC": "0.1"},
			order: domain.Order{
				Symbol: "BTC", Side: domain.SideSell,
				Amount: decimal.NewFromFloat(0.1), Price: decimal.NewFromInt(60000),
			},
			wantBalance: "11000",
			wantHolding: "0",
		},
		{
			name:     "sell exceeding holdings rejected",
			balance:  "5000",
			holdings: map[string]string{"BTC": "0.1"},
			order: domain.Order{
				Symbol: "BTC", Side: domain.SideSell,
				Amount: decimal.NewFromFloat(0.2), Price: decimal.NewFromInt(60000),
			},
			wantErr: domain.ErrInsufficientHoldings,
		},
		{
			name:    "unknown symbol rejected before balance check",
			balance: "0",
			order: domain.Order{
				Symbol: "DOGE", Side: domain.SideBuy,
				Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(1),
			},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "invalid side rejected",
			balance: "10000",
			order: domain.Order{
				Symbol: "BTC", Side: "hold",
				Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(1),
			},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "zero amount rejected",
			balance: "10000",
			order: domain.Order{
				Symbol: "BTC", Side: domain.SideBuy,
				Amount: decimal.Zero, Price: decimal.NewFromInt(50000),
			},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "negative price rejected",
			balance: "10000",
			order: domain.Order{
				Symbol: "BTC", Side: domain.SideBuy,
				Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(-5),
			},
			wantErr: domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := testAccount(t, tt.balance, tt.holdings)
			balanceBefore := account.Balance
			holdingsBefore := account.CopyHoldings()

			result, err := Validate(account, tt.order)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.True(t, result.Balance.Equal(decimal.RequireFromString(tt.wantBalance)),
					"balance: want %s got %s", tt.wantBalance, result.Balance)
				require.True(t, result.Holding.Equal(decimal.RequireFromString(tt.wantHolding)),
					"holding: want %s got %s", tt.wantHolding, result.Holding)
				require.True(t, result.Value.Equal(tt.order.Value()))
			}

			// validation never mutates the account
			require.True(t, account.Balance.Equal(balanceBefore))
			for sym, q := range holdingsBefore {
				require.True(t, account.Holding(sym).Equal(q), "holding %s changed", sym)
			}
		})
	}
}

func TestAppendSnapshotCapsHistory(t *testing.T) {
	var history []domain.PortfolioSnapshot
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < domain.PortfolioHistoryLimit+1; i++ {
		snap := domain.NewPortfolioSnapshot(base.Add(time.Duration(i)*time.Second),
			decimal.NewFromInt(int64(i)), nil)
		history = appendSnapshot(history, snap)
	}

	require.Len(t, history, domain.PortfolioHistoryLimit)
	// the very first snapshot was evicted
	require.True(t, history[0].TotalValue.Equal(decimal.NewFromInt(1)))
	require.True(t, history[len(history)-1].TotalValue.Equal(decimal.NewFromInt(int64(domain.PortfolioHistoryLimit))))
}
