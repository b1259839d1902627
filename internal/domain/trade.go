package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side trade direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the two recognized values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Order trade request as submitted by the client. The price is taken as-is
// from the request, it is not re-checked against a market feed.
type Order struct {
	Symbol string
	Side   Side
	Amount decimal.Decimal
	Price  decimal.Decimal
}

// Value returns the notional value of the order (amount * price).
func (o Order) Value() decimal.Decimal {
	return o.Amount.Mul(o.Price)
}

// String returns a human-readable string representation.
func (o Order) String() string {
	return fmt.Sprintf("%s %s amount: %s price: %s", o.Side, o.Symbol, o.Amount.String(), o.Price.String())
}

// Trade immutable record of an executed order. Appended once, never mutated.
type Trade struct {
	ID        string
	UserID    string
	Symbol    string
	Side      Side
	Amount    decimal.Decimal
	Price     decimal.Decimal
	Value     decimal.Decimal
	CreatedAt time.Time
}
