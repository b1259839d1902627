package trades

import (
	"context"
	"sort"
	"sync"

	"github.com/vadiminshakov/cryptosim/internal/domain"
)

// MemoryStore keeps trade records in process memory. Backs tests and the
// memory storage mode; same ordering contract as the Mongo store.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]domain.Trade
}

// NewMemoryStore creates an empty in-memory trade store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]domain.Trade)}
}

// Append inserts one trade record.
func (s *MemoryStore) Append(_ context.Context, trade domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[trade.UserID] = append(s.byUser[trade.UserID], trade)
	return nil
}

// ListByUser returns the user's trades newest first. A non-positive limit
// returns the full history.
func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int64) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.byUser[userID]
	out := make([]domain.Trade, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
