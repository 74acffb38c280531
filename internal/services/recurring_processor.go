package services

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// ProcessDue walks the recurring templates and materializes one
// transaction per due template, dated today. It returns the spawned
// transactions and the full updated template slice with advanced
// lastProcessed dates; callers replace their collection wholesale.
//
// At most one transaction is spawned per template per call, even after a
// multi-period gap: invoking the processor once per refresh yields a
// single catch-up transaction rather than a backfill. Calling it again on
// the same day is a no-op for anything already advanced to today.
func ProcessDue(templates []core.RecurringTemplate, now time.Time) ([]core.Transaction, []core.RecurringTemplate) {
	today := core.DateOf(now)
	var spawned []core.Transaction
	updated := make([]core.RecurringTemplate, len(templates))

	for i, tpl := range templates {
		updated[i] = tpl

		checker, err := GetDuenessChecker(tpl.Frequency)
		if err != nil {
			// Corrupt or legacy template; leave it untouched.
			slog.Warn("Skipping recurring template", "id", tpl.ID, "error", err)
			continue
		}
		if !checker.IsDue(tpl.LastProcessed, today) {
			continue
		}

		spawned = append(spawned, core.Transaction{
			ID:          core.NewID(now),
			Type:        tpl.Type,
			Category:    tpl.Category,
			Amount:      tpl.Amount,
			Date:        today,
			Description: tpl.Description,
			IsRecurring: true,
			Frequency:   tpl.Frequency,
		})
		updated[i].LastProcessed = today
	}

	return spawned, updated
}

// RecurringProcessor runs recurrence materialization against a
// FinanceService on behalf of the standalone worker.
type RecurringProcessor struct {
	finance *FinanceService
}

// NewRecurringProcessor creates a processor bound to a finance service.
func NewRecurringProcessor(finance *FinanceService) *RecurringProcessor {
	return &RecurringProcessor{finance: finance}
}

// ProcessDueTransactions materializes everything currently due and
// persists the result. Returns the number of transactions created.
//
// State is reloaded from the gateway first: the worker shares its
// database with the API server, and saving from a stale in-memory copy
// would drop transactions the server recorded since the last cycle.
func (p *RecurringProcessor) ProcessDueTransactions(ctx context.Context, now time.Time) (int, error) {
	if err := p.finance.Reload(ctx); err != nil {
		return 0, err
	}

	created, err := p.finance.ProcessRecurring(ctx, now)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"created", len(created),
		"processing_date", now.Format("2006-01-02"))

	return len(created), nil
}
