package accounts

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/cryptosim/internal/domain"
	"github.com/vadiminshakov/cryptosim/internal/storage"
)

// MemoryStore keeps accounts in process memory with the same version-checked
// update contract as the Mongo store. Backs tests and the memory storage mode.
type MemoryStore struct {
	mu       sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
}

// NewMemoryStore creates an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
	}
}

// Create inserts a new account, failing with storage.ErrEmailTaken on a
// duplicate email.
func (s *MemoryStore) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[account.Email]; ok {
		return storage.ErrEmailTaken
	}
	s.byID[account.ID] = cloneAccount(account)
	s.byEmail[account.Email] = account.ID
	return nil
}

// FindByID loads the account by its identifier.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneAccount(account), nil
}

// FindByEmail loads the account registered under email.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneAccount(s.byID[id]), nil
}

// ApplyPortfolio replaces balance, holdings and history when the stored
// version still equals expectedVersion, otherwise storage.ErrVersionConflict.
func (s *MemoryStore) ApplyPortfolio(_ context.Context, id string, p domain.Portfolio, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	if account.Version != expectedVersion {
		return storage.ErrVersionConflict
	}
	account.Balance = p.Balance
	account.Holdings = copyHoldings(p.Holdings)
	account.PortfolioHistory = copyHistory(p.History)
	account.Version++
	return nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	clone := *a
	clone.Holdings = copyHoldings(a.Holdings)
	clone.PortfolioHistory = copyHistory(a.PortfolioHistory)
	return &clone
}

func copyHoldings(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for sym, q := range in {
		out[sym] = q
	}
	return out
}

func copyHistory(in []domain.PortfolioSnapshot) []domain.PortfolioSnapshot {
	out := make([]domain.PortfolioSnapshot, len(in))
	for i, snap := range in {
		holdings := make(map[string]decimal.Decimal, len(snap.Holdings))
		for sym, q := range snap.Holdings {
			holdings[sym] = q
		}
		snap.Holdings = holdings
		out[i] = snap
	}
	return out
}
