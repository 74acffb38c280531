package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// Ledger is an in-memory LedgerWriter for tests and local runs.
type Ledger struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New() *Ledger {
	return &Ledger{}
}

// Append stores the transaction and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, t)
	return fmt.Sprintf("mem:%d", len(l.items)), nil
}

// Rows returns a copy of the appended transactions.
func (l *Ledger) Rows() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.items...)
}
