// Package memory provides an in-memory ruling store for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
)

// RulingStore keeps rulings in a map keyed by case number.
type RulingStore struct {
	mu      sync.RWMutex
	rulings map[string]crawler.Ruling
	order   []string
}

var _ crawler.RecordStore = (*RulingStore)(nil)

// NewRulingStore constructs a RulingStore.
func NewRulingStore() *RulingStore {
	return &RulingStore{
		rulings: make(map[string]crawler.Ruling),
	}
}

// InsertIfAbsent stores the ruling unless its case number is already known.
func (s *RulingStore) InsertIfAbsent(_ context.Context, ruling crawler.Ruling) (crawler.StoreResult, error) {
	if ruling.CaseNumber == "" {
		return crawler.StoreFailed, crawler.ErrCaseNumberMissing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rulings[ruling.CaseNumber]; exists {
		return crawler.StoreDuplicate, nil
	}
	s.rulings[ruling.CaseNumber] = ruling
	s.order = append(s.order, ruling.CaseNumber)
	return crawler.StoreInserted, nil
}

// Get returns the stored ruling for a case number.
func (s *RulingStore) Get(caseNumber string) (crawler.Ruling, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rulings[caseNumber]
	return r, ok
}

// CaseNumbers lists stored case numbers in insertion order.
func (s *RulingStore) CaseNumbers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len reports how many rulings are stored.
func (s *RulingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rulings)
}

// Close is a no-op.
func (s *RulingStore) Close(context.Context) error {
	return nil
}
