package ledger

import "github.com/vadiminshakov/cryptosim/internal/domain"

// appendSnapshot appends snap and keeps only the most recent
// domain.PortfolioHistoryLimit entries, evicting the oldest first. The input
// slice is never mutated; history entries are immutable once appended.
func appendSnapshot(history []domain.PortfolioSnapshot, snap domain.PortfolioSnapshot) []domain.PortfolioSnapshot {
	out := make([]domain.PortfolioSnapshot, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, snap)
	if len(out) > domain.PortfolioHistoryLimit {
		out = out[len(out)-domain.PortfolioHistoryLimit:]
	}
	return out
}
