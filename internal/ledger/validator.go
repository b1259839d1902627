package ledger

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/cryptosim/internal/domain"
)

// TradeResult is the state computed by Validate for an accepted order.
type TradeResult struct {
	// Balance cash balance after the trade.
	Balance decimal.Decimal
	// Holding quantity of the order's symbol after the trade.
	Holding decimal.Decimal
	// Value notional value of the trade (amount * price).
	Value decimal.Decimal
}

// Validate checks the order against the account's current state and computes
// the post-trade balance and holding. Pure: neither argument is mutated.
// Malformed orders fail with domain.ErrInvalidRequest before any state check.
func Validate(account *domain.Account, order domain.Order) (TradeResult, error) {
	if !order.Side.Valid() {
		return TradeResult{}, errors.Wrapf(domain.ErrInvalidRequest, "invalid side %q", order.Side)
	}
	if order.Symbol == "" || !account.HasSymbol(order.Symbol) {
		return TradeResult{}, errors.Wrapf(domain.ErrInvalidRequest, "unknown symbol %q", order.Symbol)
	}
	if order.Amount.LessThanOrEqual(decimal.Zero) {
		return TradeResult{}, errors.Wrapf(domain.ErrInvalidRequest, "amount must be positive, got %s", order.Amount.String())
	}
	if order.Price.LessThanOrEqual(decimal.Zero) {
		return TradeResult{}, errors.Wrapf(domain.ErrInvalidRequest, "price must be positive, got %s", order.Price.String())
	}

	value := order.Value()

	switch order.Side {
	case domain.SideBuy:
		if account.Balance.LessThan(value) {
			return TradeResult{}, errors.Wrapf(domain.ErrInsufficientBalance,
				"have %s need %s", account.Balance.String(), value.String())
		}
		return TradeResult{
			Balance: account.Balance.Sub(value),
			Holding: account.Holding(order.Symbol).Add(order.Amount),
			Value:   value,
		}, nil
	default: // domain.SideSell
		held := account.Holding(order.Symbol)
		// selling the exact held amount is allowed and leaves exactly zero
		if held.LessThan(order.Amount) {
			return TradeResult{}, errors.Wrapf(domain.ErrInsufficientHoldings,
				"have %s %s need %s", held.String(), order.Symbol, order.Amount.String())
		}
		return TradeResult{
			Balance: account.Balance.Add(value),
			Holding: held.Sub(order.Amount),
			Value:   value,
		}, nil
	}
}
