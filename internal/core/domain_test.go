package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		ID:          "1",
		Type:        Expense,
		Category:    "food",
		Amount:      Money{Cents: 2500},
		Date:        NewDate(2024, 3, 15),
		Description: "groceries",
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{
			name:   "valid expense",
			mutate: func(*Transaction) {},
		},
		{
			name:   "valid recurring",
			mutate: func(tr *Transaction) { tr.IsRecurring = true; tr.Frequency = Monthly },
		},
		{
			name:   "zero amount allowed",
			mutate: func(tr *Transaction) { tr.Amount = Money{} },
		},
		{
			name:    "bad type",
			mutate:  func(tr *Transaction) { tr.Type = "transfer" },
			wantErr: ErrInvalidType,
		},
		{
			name:    "negative amount",
			mutate:  func(tr *Transaction) { tr.Amount = Money{Cents: -1} },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "empty category",
			mutate:  func(tr *Transaction) { tr.Category = "  " },
			wantErr: ErrEmptyCategory,
		},
		{
			name:    "empty description",
			mutate:  func(tr *Transaction) { tr.Description = "" },
			wantErr: ErrEmptyDescription,
		},
		{
			name:    "recurring without frequency",
			mutate:  func(tr *Transaction) { tr.IsRecurring = true },
			wantErr: ErrInvalidFrequency,
		},
		{
			name:    "frequency without recurring flag",
			mutate:  func(tr *Transaction) { tr.Frequency = Weekly },
			wantErr: ErrInvalidFrequency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTransaction()
			tt.mutate(&tr)
			err := tr.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBudgetsSet(t *testing.T) {
	b := Budgets{}
	if err := b.Set("food", Money{Cents: 100000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if b["food"].Cents != 100000 {
		t.Fatalf("expected 100000 cents, got %d", b["food"].Cents)
	}

	// Overwrite keeps no history
	if err := b.Set("food", Money{Cents: 50000}); err != nil {
		t.Fatalf("overwrite budget: %v", err)
	}
	if b["food"].Cents != 50000 {
		t.Fatalf("expected overwritten cap, got %d", b["food"].Cents)
	}

	if err := b.Set("food", Money{}); !errors.Is(err, ErrInvalidCap) {
		t.Fatalf("zero cap should be rejected, got %v", err)
	}
	if err := b.Set("food", Money{Cents: -1}); !errors.Is(err, ErrInvalidCap) {
		t.Fatalf("negative cap should be rejected, got %v", err)
	}
	if err := b.Set(" ", Money{Cents: 100}); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("blank category should be rejected, got %v", err)
	}
}

func TestSavingsGoalNormalized(t *testing.T) {
	g := SavingsGoal{Amount: Money{Cents: 500000}, Date: NewDate(2025, 12, 31)}
	if got := g.Normalized().Name; got != DefaultGoalName {
		t.Fatalf("expected default name, got %q", got)
	}
	g.Name = "Vacation"
	if got := g.Normalized().Name; got != "Vacation" {
		t.Fatalf("expected custom name kept, got %q", got)
	}
}

func TestTemplateStartsAtTransactionDate(t *testing.T) {
	tr := validTransaction()
	tr.IsRecurring = true
	tr.Frequency = Daily
	tpl := tr.Template()
	if !tpl.LastProcessed.SameDay(tr.Date) {
		t.Fatalf("lastProcessed should start at transaction date")
	}
}

func TestDateHelpers(t *testing.T) {
	a := NewDate(2024, 1, 31)
	b := NewDate(2024, 2, 1)
	if a.SameMonth(b) {
		t.Fatal("Jan and Feb should not be the same month")
	}
	if b.DaysSince(a) != 1 {
		t.Fatalf("expected 1 day, got %d", b.DaysSince(a))
	}
	if NewDate(2024, 1, 8).DaysSince(NewDate(2024, 1, 1)) != 7 {
		t.Fatal("expected 7 full days")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 2, 1)
	data, _ := d.MarshalJSON()
	if string(data) != `"2024-02-01"` {
		t.Fatalf("unexpected marshal: %s", data)
	}
	var back Date
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.SameDay(d) {
		t.Fatal("round trip changed the date")
	}
	var zero Date
	if err := zero.UnmarshalJSON([]byte(`""`)); err != nil || !zero.IsZero() {
		t.Fatalf("empty string should decode to zero date (err=%v)", err)
	}
}

func TestNewIDUnique(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	a := NewID(now)
	b := NewID(now)
	if a == b {
		t.Fatalf("ids should differ even at the same instant: %s", a)
	}
	if !strings.Contains(a, "-") {
		t.Fatalf("unexpected id shape: %s", a)
	}
}
