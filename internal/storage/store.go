// Package storage persists the ledger as one document. Every backend only
// supports whole-document load and whole-document replace.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"gastos/internal/core"
)

// Store loads and saves the full ledger atomically.
type Store interface {
	Load(ctx context.Context) (*core.Ledger, error)
	Save(ctx context.Context, l *core.Ledger) error
	Close() error
}

func encodeLedger(l *core.Ledger) ([]byte, error) {
	if l == nil {
		l = core.NewLedger()
	}
	if l.Records == nil {
		l = &core.Ledger{Records: []core.Record{}}
	}
	b, err := json.MarshalIndent(l, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return b, nil
}

// decodeLedger returns the document as stored. Repairing legacy records is
// the writer's job so the repaired ids are persisted.
func decodeLedger(b []byte) (*core.Ledger, error) {
	l := core.NewLedger()
	if len(b) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(b, l); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	return l, nil
}
