// Package ledger owns all mutation of account balances, holdings and
// portfolio history. A trade is validated against freshly loaded state and
// persisted through a version-checked update, so two concurrent trades on the
// same account can never both apply against the same prior state.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/cryptosim/internal/domain"
	"github.com/vadiminshakov/cryptosim/internal/storage"
)

// applyMaxAttempts bounds rereads after version conflicts. Conflicts only
// happen when another trade on the same account lands between read and write.
const applyMaxAttempts = 3

// AccountStore is the account persistence the ledger needs.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	ApplyPortfolio(ctx context.Context, id string, p domain.Portfolio, expectedVersion int64) error
}

// TradeStore is the append-only trade record persistence.
type TradeStore interface {
	Append(ctx context.Context, trade domain.Trade) error
}

// AuditJournal is the optional local trade journal.
type AuditJournal interface {
	Append(trade domain.Trade) error
}

// Ledger applies trades to accounts.
type Ledger struct {
	accounts AccountStore
	trades   TradeStore
	journal  AuditJournal
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Ledger. journal may be nil; a nil logger is replaced with a nop.
func New(accounts AccountStore, trades TradeStore, journal AuditJournal, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		accounts: accounts,
		trades:   trades,
		journal:  journal,
		logger:   logger,
		now:      time.Now,
	}
}

// ApplyTrade validates the order against the user's current account state and,
// if accepted, atomically persists the new balance, holdings and snapshot
// history, then appends the immutable trade record with the same timestamp.
// On rejection the account is left untouched and the reject reason is
// returned; domain.Err* sentinels can be tested with errors.Is.
func (l *Ledger) ApplyTrade(ctx context.Context, userID string, order domain.Order) (domain.Portfolio, error) {
	for attempt := 1; ; attempt++ {
		account, err := l.accounts.FindByID(ctx, userID)
		if err != nil {
			return domain.Portfolio{}, errors.Wrap(err, "load account")
		}

		result, err := Validate(account, order)
		if err != nil {
			return domain.Portfolio{}, err
		}

		now := l.now().UTC()
		holdings := account.CopyHoldings()
		holdings[order.Symbol] = result.Holding

		portfolio := domain.Portfolio{
			Balance:  result.Balance,
			Holdings: holdings,
			History: appendSnapshot(account.PortfolioHistory,
				domain.NewPortfolioSnapshot(now, result.Balance, holdings)),
		}

		if err := l.accounts.ApplyPortfolio(ctx, userID, portfolio, account.Version); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) && attempt < applyMaxAttempts {
				l.logger.Debug("portfolio update conflict, rereading account",
					zap.String("user_id", userID), zap.Int("attempt", attempt))
				continue
			}
			return domain.Portfolio{}, errors.Wrap(err, "persist portfolio")
		}

		trade := domain.Trade{
			ID:        uuid.New().String(),
			UserID:    userID,
			Symbol:    order.Symbol,
			Side:      order.Side,
			Amount:    order.Amount,
			Price:     order.Price,
			Value:     result.Value,
			CreatedAt: now,
		}
		if err := l.trades.Append(ctx, trade); err != nil {
			return domain.Portfolio{}, errors.Wrap(err, "append trade record")
		}

		if l.journal != nil {
			if err := l.journal.Append(trade); err != nil {
				l.logger.Warn("trade journal append failed", zap.String("trade_id", trade.ID), zap.Error(err))
			}
		}

		l.logger.Info("trade executed",
			zap.String("user_id", userID),
			zap.String("trade_id", trade.ID),
			zap.String("symbol", order.Symbol),
			zap.String("side", string(order.Side)),
			zap.String("amount", order.Amount.String()),
			zap.String("price", order.Price.String()),
			zap.String("balance", result.Balance.String()))

		return portfolio, nil
	}
}
