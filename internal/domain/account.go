// Package domain defines core data structures shared by the simulator services.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSymbols is the tradable symbol universe assigned to new accounts.
var DefaultSymbols = []string{"BTC", "ETH", "USDT", "BNB", "SOL"}

// DefaultStartingBalance virtual cash granted at signup.
var DefaultStartingBalance = decimal.NewFromInt(10000)

// Account single user record: identity, credentials and portfolio state.
// Balance and every holding stay non-negative; only the ledger mutates them.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	Balance      decimal.Decimal
	Holdings     map[string]decimal.Decimal
	// PortfolioHistory most recent snapshots, oldest first, capped by the ledger.
	PortfolioHistory []PortfolioSnapshot
	// Version optimistic concurrency token, bumped on every portfolio update.
	Version int64
}

// NewAccount creates an account with the starting balance and every symbol
// of the universe initialized to zero.
func NewAccount(id, name, email, passwordHash string, startingBalance decimal.Decimal, symbols []string, createdAt time.Time) *Account {
	holdings := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		holdings[s] = decimal.Zero
	}
	return &Account{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
		Balance:      startingBalance,
		Holdings:     holdings,
	}
}

// Holding returns the quantity held for symbol, zero when absent.
func (a *Account) Holding(symbol string) decimal.Decimal {
	if q, ok := a.Holdings[symbol]; ok {
		return q
	}
	return decimal.Zero
}

// HasSymbol reports whether symbol belongs to the account's universe.
func (a *Account) HasSymbol(symbol string) bool {
	_, ok := a.Holdings[symbol]
	return ok
}

// CopyHoldings returns a defensive copy of the holdings map.
func (a *Account) CopyHoldings() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.Holdings))
	for s, q := range a.Holdings {
		out[s] = q
	}
	return out
}
