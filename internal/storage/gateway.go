// Package storage implements the persistence gateway: four independent
// string-keyed slots holding the serialized collections. Backends only
// move opaque blobs; parsing stays with the caller.
package storage

import "context"

// Slot keys. These mirror the storage keys of the original data files, so
// existing exports stay importable.
const (
	KeyTransactions = "finance-transactions"
	KeyBudgets      = "finance-budgets"
	KeySavingsGoal  = "finance-savings-goal"
	KeyRecurring    = "finance-recurring"
)

// Keys lists every slot, in load order.
var Keys = []string{KeyTransactions, KeyBudgets, KeySavingsGoal, KeyRecurring}

// Gateway loads and saves serialized collection blobs. Load returns
// (nil, nil) for an absent key; absence is never an error.
type Gateway interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Close() error
}
