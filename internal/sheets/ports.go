package sheets

import (
	"context"
)

// LedgerMirror keeps an external copy of the ledger export. Replace
// overwrites the whole copy with rows, header first.
type LedgerMirror interface {
	Replace(ctx context.Context, rows [][]any) error
}
