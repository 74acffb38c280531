package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newTestService(t *testing.T) *FinanceService {
	t.Helper()
	s, err := NewFinanceService(context.Background(), storage.NewMemoryGateway(), nil)
	if err != nil {
		t.Fatalf("new finance service: %v", err)
	}
	s.nowFn = func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestAddTransactionPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	gw := storage.NewMemoryGateway()

	s, err := NewFinanceService(ctx, gw, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	saved, alerts, err := s.AddTransaction(ctx, core.Transaction{
		Type:        core.Expense,
		Category:    "food",
		Amount:      core.Money{Cents: 2500},
		Date:        core.NewDate(2024, 3, 1),
		Description: "groceries",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("id should be assigned")
	}
	if len(alerts) != 0 {
		t.Fatalf("no budgets set, expected no alerts: %+v", alerts)
	}

	// A fresh service over the same gateway sees the persisted state.
	s2, err := NewFinanceService(ctx, gw, nil)
	if err != nil {
		t.Fatalf("reload service: %v", err)
	}
	got := s2.Transactions(core.Filter{})
	if len(got) != 1 || got[0].ID != saved.ID {
		t.Fatalf("transaction did not survive reload: %+v", got)
	}
}

func TestAddTransactionInvalid(t *testing.T) {
	s := newTestService(t)
	_, _, err := s.AddTransaction(context.Background(), core.Transaction{
		Type:        "transfer",
		Category:    "food",
		Amount:      core.Money{Cents: 100},
		Date:        core.NewDate(2024, 3, 1),
		Description: "x",
	})
	if !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if len(s.Transactions(core.Filter{})) != 0 {
		t.Fatal("invalid transaction must not be stored")
	}
}

func TestAddTransactionReturnsAlerts(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	if err := s.SetBudget(ctx, "food", core.Money{Cents: 100000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	_, alerts, err := s.AddTransaction(ctx, core.Transaction{
		Type:        core.Expense,
		Category:    "food",
		Amount:      core.Money{Cents: 85000},
		Date:        core.NewDate(2024, 3, 1),
		Description: "big shop",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Severity != SeverityWarning {
		t.Fatalf("expected a warning alert, got %+v", alerts)
	}
}

func TestDeleteTransactionCascadesToTemplate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	saved, _, err := s.AddTransaction(ctx, core.Transaction{
		Type:        core.Expense,
		Category:    "rent",
		Amount:      core.Money{Cents: 50000},
		Date:        core.NewDate(2024, 3, 1),
		Description: "monthly rent",
		IsRecurring: true,
		Frequency:   core.Monthly,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// The template exists and would materialize next month.
	spawned, err := s.ProcessRecurring(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(spawned) != 1 {
		t.Fatalf("expected 1 materialization, got %d", len(spawned))
	}

	if err := s.DeleteTransaction(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Template gone: a later month materializes nothing.
	spawned, err = s.ProcessRecurring(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("process after delete: %v", err)
	}
	if len(spawned) != 0 {
		t.Fatalf("cascade delete failed, got %d materializations", len(spawned))
	}

	if err := s.DeleteTransaction(ctx, "missing"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestProcessRecurringIdempotentPerDay(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, _, err := s.AddTransaction(ctx, core.Transaction{
		Type:        core.Expense,
		Category:    "coffee",
		Amount:      core.Money{Cents: 300},
		Date:        core.NewDate(2024, 3, 14),
		Description: "espresso",
		IsRecurring: true,
		Frequency:   core.Daily,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	today := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	first, err := s.ProcessRecurring(ctx, today)
	if err != nil || len(first) != 1 {
		t.Fatalf("first run: expected 1 transaction, got %d (err=%v)", len(first), err)
	}
	second, err := s.ProcessRecurring(ctx, today)
	if err != nil || len(second) != 0 {
		t.Fatalf("second run same day: expected 0 transactions, got %d (err=%v)", len(second), err)
	}
}

func TestRevisionBumpsOnMutation(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	before := s.Revision()
	if err := s.SetGoal(ctx, core.SavingsGoal{Amount: core.Money{Cents: 100000}, Date: core.NewDate(2025, 1, 1)}); err != nil {
		t.Fatalf("set goal: %v", err)
	}
	if s.Revision() == before {
		t.Fatal("revision should change after a mutation")
	}

	progress := s.Savings()
	if !progress.HasGoal || progress.Name != core.DefaultGoalName {
		t.Fatalf("goal not applied: %+v", progress)
	}
}

func TestImportReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, _, err := s.AddTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "salary", Amount: core.Money{Cents: 100},
		Date: core.NewDate(2024, 3, 1), Description: "pay",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	bundle := []byte(`{
		"transactions": [
			{"id": "i1", "type": "expense", "category": "food", "amount": 12.50,
			 "date": "2024-02-10", "description": "imported", "isRecurring": false}
		],
		"budgets": {"food": 200.00}
	}`)
	if err := s.Import(ctx, bundle); err != nil {
		t.Fatalf("import: %v", err)
	}

	got := s.Transactions(core.Filter{})
	if len(got) != 1 || got[0].ID != "i1" || got[0].Amount.Cents != 1250 {
		t.Fatalf("import must replace, not merge: %+v", got)
	}
	table := s.BudgetTable()
	if len(table) != 1 || table[0].Cap.Cents != 20000 {
		t.Fatalf("budgets not imported: %+v", table)
	}
	if s.Savings().HasGoal {
		t.Fatal("missing goal field must clear the goal")
	}
}

func TestImportMalformedLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, _, err := s.AddTransaction(ctx, core.Transaction{
		Type: core.Income, Category: "salary", Amount: core.Money{Cents: 100},
		Date: core.NewDate(2024, 3, 1), Description: "pay",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := s.Import(ctx, []byte(`{"transactions": [`)); err == nil {
		t.Fatal("malformed bundle should fail")
	}
	if len(s.Transactions(core.Filter{})) != 1 {
		t.Fatal("failed import must leave state untouched")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, _, err := s.AddTransaction(ctx, core.Transaction{
		Type: core.Expense, Category: "rent", Amount: core.Money{Cents: 50000},
		Date: core.NewDate(2024, 3, 1), Description: "monthly rent",
		IsRecurring: true, Frequency: core.Monthly,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.SetBudget(ctx, "rent", core.Money{Cents: 60000}); err != nil {
		t.Fatalf("budget: %v", err)
	}

	data, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	other := newTestService(t)
	if err := other.Import(ctx, data); err != nil {
		t.Fatalf("import: %v", err)
	}

	if len(other.Transactions(core.Filter{})) != 1 {
		t.Fatal("transactions lost in round trip")
	}
	// The recurring template travelled too.
	spawned, err := other.ProcessRecurring(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || len(spawned) != 1 {
		t.Fatalf("template lost in round trip: %d (err=%v)", len(spawned), err)
	}
}

func TestTransactionsSortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	dates := []core.Date{
		core.NewDate(2024, 3, 5),
		core.NewDate(2024, 3, 1),
		core.NewDate(2024, 3, 10),
	}
	for i, d := range dates {
		_, _, err := s.AddTransaction(ctx, core.Transaction{
			Type: core.Expense, Category: "food", Amount: core.Money{Cents: int64(i+1) * 100},
			Date: d, Description: "buy",
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got := s.Transactions(core.Filter{})
	if len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}
	if !got[0].Date.SameDay(core.NewDate(2024, 3, 10)) || !got[2].Date.SameDay(core.NewDate(2024, 3, 1)) {
		t.Fatalf("not sorted newest first: %v, %v, %v", got[0].Date, got[1].Date, got[2].Date)
	}
}

func TestRefreshMaterializesDueTemplates(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, _, err := s.AddTransaction(ctx, core.Transaction{
		Type: core.Expense, Category: "rent", Amount: core.Money{Cents: 50000},
		Date: core.NewDate(2024, 2, 1), Description: "monthly rent",
		IsRecurring: true, Frequency: core.Monthly,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// nowFn is 2024-03-15, a month after the template's last processing.
	s.Refresh(ctx)

	got := s.Transactions(core.Filter{})
	if len(got) != 2 {
		t.Fatalf("due template should materialize on refresh, got %d transaction(s)", len(got))
	}
	if !got[0].Date.SameDay(core.NewDate(2024, 3, 15)) {
		t.Errorf("materialized transaction should be dated today, got %v", got[0].Date)
	}

	// Same-day refresh is a no-op and leaves the revision alone.
	rev := s.Revision()
	s.Refresh(ctx)
	if n := len(s.Transactions(core.Filter{})); n != 2 {
		t.Fatalf("second refresh materialized again: %d transaction(s)", n)
	}
	if s.Revision() != rev {
		t.Error("no-op refresh must not bump the revision")
	}
}
