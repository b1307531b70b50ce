// Package memory is an in-process LedgerMirror for local runs and tests.
package memory

import (
	"context"
	"sync"

	ports "gastos/internal/sheets"
)

type Mirror struct {
	mu       sync.Mutex
	rows     [][]any
	replaces int
}

var _ ports.LedgerMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// Replace stores a copy of rows.
func (m *Mirror) Replace(_ context.Context, rows [][]any) error {
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = cp
	m.replaces++
	return nil
}

// Rows returns the last rows written.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows
}

// Replaces counts calls to Replace.
func (m *Mirror) Replaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaces
}
