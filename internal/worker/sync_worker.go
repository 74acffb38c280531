package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
)

// SyncWorker mirrors recorded transactions into an external ledger.
type SyncWorker struct {
	finance   *services.FinanceService
	ledger    sheets.LedgerWriter
	batchSize int

	// seen tracks ledger refs already written this run so redelivered
	// messages do not produce duplicate rows.
	seen map[string]string
}

func NewSyncWorker(finance *services.FinanceService, ledger sheets.LedgerWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		finance:   finance,
		ledger:    ledger,
		batchSize: batchSize,
		seen:      make(map[string]string),
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"published_at", msg.Timestamp)

	if ref, ok := w.seen[msg.ID]; ok {
		slog.InfoContext(ctx, "Transaction already synced, skipping",
			"id", msg.ID,
			"sheets_ref", ref)
		return nil
	}

	tx, err := w.finance.Transaction(msg.ID)
	if err != nil {
		// A transaction deleted between publish and delivery is not an
		// error worth redelivering.
		if errors.Is(err, services.ErrTransactionNotFound) {
			slog.WarnContext(ctx, "Transaction no longer exists, dropping sync message", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	ref, err := w.ledger.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}
	w.seen[msg.ID] = ref

	slog.InfoContext(ctx, "Successfully synced transaction",
		"id", msg.ID,
		"sheets_ref", ref,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)

	return nil
}

// StartupSyncCheck mirrors the current transaction history into the ledger
// at worker startup. This recovers from missed AMQP messages or downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	transactions := w.finance.Transactions(core.Filter{})
	if len(transactions) == 0 {
		slog.InfoContext(ctx, "No transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found transactions on startup, mirroring to ledger",
		"count", len(transactions))

	successCount := 0
	errorCount := 0

	for i, tx := range transactions {
		if _, ok := w.seen[tx.ID]; ok {
			continue
		}
		if w.batchSize > 0 && i >= w.batchSize {
			slog.InfoContext(ctx, "Startup batch limit reached, deferring remainder",
				"limit", w.batchSize,
				"remaining", len(transactions)-i)
			break
		}

		ref, err := w.ledger.Append(ctx, tx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", tx.ID, "error", err)
			errorCount++
			continue
		}
		w.seen[tx.ID] = ref
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(transactions),
		"synced", successCount,
		"errors", errorCount)

	return nil
}
