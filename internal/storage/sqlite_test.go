package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteGatewayRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fintrack.db")
	g, err := NewSQLiteGateway(dbPath)
	if err != nil {
		t.Fatalf("open gateway: %v", err)
	}
	defer g.Close()

	ctx := context.Background()

	// Absent key is not an error
	blob, err := g.Load(ctx, KeyTransactions)
	if err != nil {
		t.Fatalf("load absent key: %v", err)
	}
	if blob != nil {
		t.Fatalf("expected nil blob for absent key, got %q", blob)
	}

	payload := []byte(`[{"id":"1"}]`)
	if err := g.Save(ctx, KeyTransactions, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	blob, err = g.Load(ctx, KeyTransactions)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(blob) != string(payload) {
		t.Fatalf("expected %q, got %q", payload, blob)
	}

	// Upsert overwrites
	if err := g.Save(ctx, KeyTransactions, []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	blob, _ = g.Load(ctx, KeyTransactions)
	if string(blob) != `[]` {
		t.Fatalf("expected overwritten blob, got %q", blob)
	}

	// Slots are independent
	if err := g.Save(ctx, KeyBudgets, []byte(`{"food":100}`)); err != nil {
		t.Fatalf("save budgets: %v", err)
	}
	blob, _ = g.Load(ctx, KeyTransactions)
	if string(blob) != `[]` {
		t.Fatalf("budget save must not touch transactions, got %q", blob)
	}
}

func TestMemoryGatewayRoundTrip(t *testing.T) {
	g := NewMemoryGateway()
	ctx := context.Background()

	blob, err := g.Load(ctx, KeySavingsGoal)
	if err != nil || blob != nil {
		t.Fatalf("absent key: expected nil, nil; got %q, %v", blob, err)
	}

	if err := g.Save(ctx, KeySavingsGoal, []byte(`{"amount":5000.00}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	blob, _ = g.Load(ctx, KeySavingsGoal)
	if string(blob) != `{"amount":5000.00}` {
		t.Fatalf("unexpected blob: %q", blob)
	}
}
