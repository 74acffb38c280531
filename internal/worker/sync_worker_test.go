package worker

import (
	"context"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

func newFinance(t *testing.T) *services.FinanceService {
	t.Helper()
	s, err := services.NewFinanceService(context.Background(), storage.NewMemoryGateway(), nil)
	if err != nil {
		t.Fatalf("new finance service: %v", err)
	}
	return s
}

func TestHandleSyncMessage(t *testing.T) {
	ctx := context.Background()
	finance := newFinance(t)
	ledger := memory.New()
	w := NewSyncWorker(finance, ledger, 10)

	saved, _, err := finance.AddTransaction(ctx, core.Transaction{
		Type:        core.Expense,
		Category:    "food",
		Amount:      core.Money{Cents: 2500},
		Date:        core.NewDate(2024, 3, 1),
		Description: "groceries",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	msg := amqp.NewTransactionSyncMessage(saved.ID)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := ledger.Rows()
	if len(rows) != 1 || rows[0].ID != saved.ID {
		t.Fatalf("ledger rows = %+v", rows)
	}

	// Redelivery of the same message must not duplicate the row.
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(ledger.Rows()) != 1 {
		t.Fatalf("redelivered message duplicated the ledger row")
	}
}

func TestHandleSyncMessageMissingTransaction(t *testing.T) {
	ctx := context.Background()
	w := NewSyncWorker(newFinance(t), memory.New(), 10)

	// A message for a deleted transaction is dropped without error.
	if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage("gone")); err != nil {
		t.Fatalf("expected message to be dropped, got %v", err)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	ctx := context.Background()
	finance := newFinance(t)
	ledger := memory.New()
	w := NewSyncWorker(finance, ledger, 10)

	for i := 0; i < 3; i++ {
		_, _, err := finance.AddTransaction(ctx, core.Transaction{
			Type:        core.Income,
			Category:    "salary",
			Amount:      core.Money{Cents: int64(i+1) * 1000},
			Date:        core.NewDate(2024, 3, i+1),
			Description: "pay",
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup sync: %v", err)
	}
	if got := len(ledger.Rows()); got != 3 {
		t.Fatalf("ledger rows = %d, want 3", got)
	}

	// Second pass syncs nothing new.
	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("second startup sync: %v", err)
	}
	if got := len(ledger.Rows()); got != 3 {
		t.Fatalf("second pass duplicated rows, got %d", got)
	}
}

func TestStartupSyncCheckBatchLimit(t *testing.T) {
	ctx := context.Background()
	finance := newFinance(t)
	ledger := memory.New()
	w := NewSyncWorker(finance, ledger, 2)

	for i := 0; i < 5; i++ {
		_, _, err := finance.AddTransaction(ctx, core.Transaction{
			Type:        core.Expense,
			Category:    "food",
			Amount:      core.Money{Cents: 100},
			Date:        core.NewDate(2024, 3, i+1),
			Description: "snack",
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup sync: %v", err)
	}
	if got := len(ledger.Rows()); got != 2 {
		t.Fatalf("batch limit ignored, synced %d rows", got)
	}
}
