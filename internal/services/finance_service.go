package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// FinanceService owns the four collections for the process lifetime and
// orchestrates every read-modify-write cycle: mutate, persist, publish.
// One mutex guards the whole cycle so recurrence processing, reporting
// and persistence never interleave partially.
type FinanceService struct {
	mu     sync.Mutex
	store  storage.Gateway
	events *amqp.Client // nil disables event publishing
	nowFn  func() time.Time

	transactions []core.Transaction
	budgets      core.Budgets
	goal         *core.SavingsGoal
	templates    []core.RecurringTemplate

	revision uint64
}

// NewFinanceService loads all collections from the gateway. Absent slots
// become empty collections; corrupt blobs fall back to defaults with a
// logged error rather than failing startup.
func NewFinanceService(ctx context.Context, store storage.Gateway, events *amqp.Client) (*FinanceService, error) {
	s := &FinanceService{
		store:   store,
		events:  events,
		nowFn:   time.Now,
		budgets: core.Budgets{},
	}

	if err := s.loadSlot(ctx, storage.KeyTransactions, &s.transactions); err != nil {
		return nil, err
	}
	if err := s.loadSlot(ctx, storage.KeyBudgets, &s.budgets); err != nil {
		return nil, err
	}
	if err := s.loadSlot(ctx, storage.KeySavingsGoal, &s.goal); err != nil {
		return nil, err
	}
	if err := s.loadSlot(ctx, storage.KeyRecurring, &s.templates); err != nil {
		return nil, err
	}
	if s.budgets == nil {
		s.budgets = core.Budgets{}
	}

	slog.InfoContext(ctx, "Finance state loaded",
		"transactions", len(s.transactions),
		"budgets", len(s.budgets),
		"has_goal", s.goal != nil,
		"recurring", len(s.templates))

	return s, nil
}

// loadSlot reads and parses one collection. Storage errors abort startup;
// parse errors degrade to the zero value per the recovery policy.
func (s *FinanceService) loadSlot(ctx context.Context, key string, dst any) error {
	blob, err := s.store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if blob == nil {
		return nil
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		slog.ErrorContext(ctx, "Corrupt slot, falling back to empty collection",
			"key", key,
			"error", err)
	}
	return nil
}

// saveSlot persists one collection. Write failures are logged and
// swallowed: the in-memory state stays authoritative for the session.
func (s *FinanceService) saveSlot(ctx context.Context, key string, src any) {
	blob, err := json.Marshal(src)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode slot", "key", key, "error", err)
		return
	}
	if err := s.store.Save(ctx, key, blob); err != nil {
		slog.WarnContext(ctx, "Failed to persist slot, in-memory state remains authoritative",
			"key", key,
			"error", err)
	}
}

// Reload re-reads all four collections from the gateway, discarding the
// in-memory copies. The standalone worker calls it before each cycle so
// it never overwrites state another process persisted since startup.
func (s *FinanceService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = nil
	s.budgets = core.Budgets{}
	s.goal = nil
	s.templates = nil

	if err := s.loadSlot(ctx, storage.KeyTransactions, &s.transactions); err != nil {
		return err
	}
	if err := s.loadSlot(ctx, storage.KeyBudgets, &s.budgets); err != nil {
		return err
	}
	if err := s.loadSlot(ctx, storage.KeySavingsGoal, &s.goal); err != nil {
		return err
	}
	if err := s.loadSlot(ctx, storage.KeyRecurring, &s.templates); err != nil {
		return err
	}
	if s.budgets == nil {
		s.budgets = core.Budgets{}
	}
	s.revision++
	return nil
}

// Revision increments on every mutation; report caches key on it.
func (s *FinanceService) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// AddTransaction validates and stores a transaction. A recurring
// transaction also registers its template. Returns the stored record and
// any budget alerts its category now triggers.
func (s *FinanceService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, []AlertEvent, error) {
	now := s.nowFn()
	if t.ID == "" {
		t.ID = core.NewID(now)
	}
	if t.Date.IsZero() {
		t.Date = core.DateOf(now)
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, t)
	s.saveSlot(ctx, storage.KeyTransactions, s.transactions)

	if t.IsRecurring {
		s.templates = append(s.templates, t.Template())
		s.saveSlot(ctx, storage.KeyRecurring, s.templates)
	}
	s.revision++

	alerts := EvaluateBudgets(s.budgets, s.transactions)
	s.publishSync(ctx, t.ID)
	s.publishAlerts(ctx, alerts)

	slog.InfoContext(ctx, "Transaction added",
		"id", t.ID,
		"type", t.Type,
		"category", t.Category,
		"amount_cents", t.Amount.Cents,
		"recurring", t.IsRecurring)

	return t, alerts, nil
}

// DeleteTransaction removes a transaction by id and cascades to the
// recurring template that originated from it.
func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]core.Transaction, 0, len(s.transactions))
	found := false
	for _, t := range s.transactions {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return ErrTransactionNotFound
	}
	s.transactions = kept

	keptTemplates := make([]core.RecurringTemplate, 0, len(s.templates))
	for _, tpl := range s.templates {
		if tpl.ID != id {
			keptTemplates = append(keptTemplates, tpl)
		}
	}
	s.templates = keptTemplates

	s.saveSlot(ctx, storage.KeyTransactions, s.transactions)
	s.saveSlot(ctx, storage.KeyRecurring, s.templates)
	s.revision++

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// SetBudget stores a monthly cap for a category, overwriting any prior
// cap.
func (s *FinanceService) SetBudget(ctx context.Context, category string, cap core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.budgets.Set(category, cap); err != nil {
		return err
	}
	s.saveSlot(ctx, storage.KeyBudgets, s.budgets)
	s.revision++

	slog.InfoContext(ctx, "Budget set", "category", category, "cap_cents", cap.Cents)
	return nil
}

// SetGoal replaces the active savings goal.
func (s *FinanceService) SetGoal(ctx context.Context, g core.SavingsGoal) error {
	g = g.Normalized()
	if err := g.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.goal = &g
	s.saveSlot(ctx, storage.KeySavingsGoal, s.goal)
	s.revision++

	slog.InfoContext(ctx, "Savings goal set", "name", g.Name, "target_cents", g.Amount.Cents)
	return nil
}

// ProcessRecurring materializes all due recurring templates, dated now,
// as one atomic cycle. Idempotent per calendar period: a second call on
// the same day creates nothing new.
func (s *FinanceService) ProcessRecurring(ctx context.Context, now time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spawned, updated := ProcessDue(s.templates, now)
	if len(spawned) == 0 {
		return nil, nil
	}

	s.transactions = append(s.transactions, spawned...)
	s.templates = updated
	s.saveSlot(ctx, storage.KeyTransactions, s.transactions)
	s.saveSlot(ctx, storage.KeyRecurring, s.templates)
	s.revision++

	for _, t := range spawned {
		s.publishSync(ctx, t.ID)
		slog.InfoContext(ctx, "Materialized recurring transaction",
			"id", t.ID,
			"category", t.Category,
			"amount_cents", t.Amount.Cents,
			"frequency", t.Frequency)
	}

	return spawned, nil
}

// Refresh materializes due recurring templates as of now. The HTTP
// layer calls it before every read so templates come due even when no
// standalone worker runs; a second call on the same day is a no-op.
func (s *FinanceService) Refresh(ctx context.Context) {
	if _, err := s.ProcessRecurring(ctx, s.nowFn()); err != nil {
		slog.WarnContext(ctx, "Recurrence refresh failed", "error", err)
	}
}

// Transaction returns one transaction by id.
func (s *FinanceService) Transaction(id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, ErrTransactionNotFound
}

// Transactions returns the filtered list, newest first.
func (s *FinanceService) Transactions(f core.Filter) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := core.FilterTransactions(s.transactions, f)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// BudgetTable returns the per-category consumption rows.
func (s *FinanceService) BudgetTable() []core.BudgetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BudgetStatuses(s.budgets, s.transactions)
}

// Alerts classifies every budget against current spend.
func (s *FinanceService) Alerts() []AlertEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EvaluateBudgets(s.budgets, s.transactions)
}

// Balance returns the all-time summary.
func (s *FinanceService) Balance() core.BalanceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BalanceReport(s.transactions)
}

// Monthly returns the current calendar month's summary.
func (s *FinanceService) Monthly() core.MonthlySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MonthlyReport(s.transactions, s.nowFn())
}

// Categories returns the expense breakdown for charting.
func (s *FinanceService) Categories() []core.CategoryAmount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CategoryBreakdown(s.transactions)
}

// Trend returns the six-month trend series.
func (s *FinanceService) Trend() []core.TrendPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TrendSeries(s.transactions, s.nowFn())
}

// Compare returns the month-over-month comparison.
func (s *FinanceService) Compare() core.MonthComparison {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Comparison(s.transactions, s.nowFn())
}

// Savings returns progress toward the active goal.
func (s *FinanceService) Savings() core.SavingsProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Progress(s.transactions, s.goal)
}

// Insights returns the derived dashboard statistics.
func (s *FinanceService) Insights() core.Insights {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeInsights(s.transactions, s.nowFn())
}

// Export renders the four collections as a bundle document.
func (s *FinanceService) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return core.Bundle{
		Transactions: s.transactions,
		Budgets:      s.budgets,
		SavingsGoal:  s.goal,
		Recurring:    s.templates,
	}.Encode()
}

// Import replaces all four collections wholesale from a bundle document.
// Malformed input returns an error and leaves current state untouched.
func (s *FinanceService) Import(ctx context.Context, data []byte) error {
	b, err := core.ParseBundle(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = b.Transactions
	s.budgets = b.Budgets
	s.goal = b.SavingsGoal
	s.templates = b.Recurring

	s.saveSlot(ctx, storage.KeyTransactions, s.transactions)
	s.saveSlot(ctx, storage.KeyBudgets, s.budgets)
	s.saveSlot(ctx, storage.KeySavingsGoal, s.goal)
	s.saveSlot(ctx, storage.KeyRecurring, s.templates)
	s.revision++

	slog.InfoContext(ctx, "Bundle imported",
		"transactions", len(s.transactions),
		"budgets", len(s.budgets),
		"has_goal", s.goal != nil,
		"recurring", len(s.templates))
	return nil
}

func (s *FinanceService) publishSync(ctx context.Context, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionSync(ctx, id); err != nil {
		// Sync is best-effort; the transaction is already saved locally.
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *FinanceService) publishAlerts(ctx context.Context, alerts []AlertEvent) {
	if s.events == nil {
		return
	}
	for _, a := range alerts {
		msg := &amqp.BudgetAlertMessage{
			Category:       a.Category,
			Severity:       string(a.Severity),
			Percent:        a.Percent,
			OveragePercent: a.OveragePercent,
		}
		if err := s.events.PublishBudgetAlert(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert",
				"category", a.Category,
				"error", err)
		}
	}
}

// Close releases the storage and event connections.
func (s *FinanceService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close finance service: %v", errs)
	}
	return nil
}
