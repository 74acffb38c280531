package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerWriter appends a transaction to an external ledger and
	// returns an opaque reference to the written row.
	LedgerWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)
