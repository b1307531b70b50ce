package storage

import (
	"context"
	"sync"

	"gastos/internal/core"
)

// MemoryStore keeps the encoded document in memory. Useful for tests and
// throwaway runs; nothing survives a restart.
type MemoryStore struct {
	mu    sync.Mutex
	doc   []byte
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeLedger(s.doc)
}

func (s *MemoryStore) Save(_ context.Context, l *core.Ledger) error {
	b, err := encodeLedger(l)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = b
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error { return nil }
