// Package journal keeps a local append-only WAL of executed trades. It is a
// best-effort audit trail next to the authoritative trade store: the ledger
// logs journal failures and never fails a trade on them.
package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/cryptosim/internal/domain"
)

const (
	defaultJournalDir   = "./wal/trades"
	journalSegmentLimit = 1000
	journalMaxSegments  = 100
	journalKeyPrefix    = "trade_"
)

// WALStore persists executed trades in a WAL for audit/recovery purposes.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed trade journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "trades_",
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append writes the executed trade to the journal.
func (s *WALStore) Append(trade domain.Trade) error {
	if s == nil || s.wal == nil {
		return errors.New("trade journal is not initialized")
	}
	if trade.ID == "" {
		return fmt.Errorf("trade id is required")
	}

	payload, err := json.Marshal(encodeEntry(trade))
	if err != nil {
		return errors.Wrap(err, "marshal trade journal entry")
	}

	key := fmt.Sprintf("%s%s", journalKeyPrefix, trade.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// Record bundles a journal entry with its WAL index.
type Record struct {
	Index uint64
	Entry Entry
}

// Entry serialized form of an executed trade.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Amount    string    `json:"amount"`
	Price     string    `json:"price"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

func encodeEntry(t domain.Trade) Entry {
	return Entry{
		ID:        t.ID,
		UserID:    t.UserID,
		Symbol:    t.Symbol,
		Side:      string(t.Side),
		Amount:    t.Amount.String(),
		Price:     t.Price.String(),
		Value:     t.Value.String(),
		CreatedAt: t.CreatedAt,
	}
}

// EntriesAfter returns all journal entries written after the provided WAL index.
func (s *WALStore) EntriesAfter(index uint64) ([]Record, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]Record, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, journalKeyPrefix) {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, errors.Wrap(err, "decode trade journal entry")
		}
		records = append(records, Record{Index: idx, Entry: entry})
	}

	return records, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("trade journal is not initialized")
	}
	return s.wal.Close()
}
