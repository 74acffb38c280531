package core

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// DefaultGoalName is used when a savings goal is saved without a label.
const DefaultGoalName = "Savings Goal"

type (
	TransactionType string

	Frequency string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Amount      Money           `json:"amount"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		IsRecurring bool            `json:"isRecurring"`
		Frequency   Frequency       `json:"recurringFrequency,omitempty"`
	}

	// Budgets maps a category name to its monthly cap. Re-setting a
	// category overwrites the prior cap; no history is kept.
	Budgets map[string]Money

	SavingsGoal struct {
		Amount Money  `json:"amount"`
		Date   Date   `json:"date"`
		Name   string `json:"name"`
	}

	// RecurringTemplate is the transaction a user marked as recurring,
	// plus the date it last spawned a materialized transaction.
	RecurringTemplate struct {
		Transaction
		LastProcessed Date `json:"lastProcessed"`
	}
)

var (
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid recurring frequency")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCap       = errors.New("budget cap must be positive")
	ErrInvalidGoal      = errors.New("goal amount must be positive")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	default:
		return false
	}
}

// NewDate creates a day-resolution date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// SameDay reports whether two dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	return d.Year() == other.Year() && d.YearDay() == other.YearDay()
}

// SameMonth reports whether two dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// DaysSince returns the number of full days elapsed since other,
// comparing day-truncated dates.
func (d Date) DaysSince(other Date) int {
	from := DateOf(other.Time)
	to := DateOf(d.Time)
	return int(to.Sub(from.Time).Hours() / 24)
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// NewID returns a unique transaction token: millisecond timestamp plus a
// random hex suffix, so ids sort roughly by creation time.
func NewID(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%d-%s", now.UnixMilli(), hex.EncodeToString(buf))
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	// Frequency is present iff the transaction recurs.
	if t.IsRecurring && !t.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if !t.IsRecurring && t.Frequency != "" {
		return ErrInvalidFrequency
	}
	return nil
}

// Template builds the recurring template for a transaction marked as
// recurring. LastProcessed starts at the originating transaction's date.
func (t Transaction) Template() RecurringTemplate {
	return RecurringTemplate{Transaction: t, LastProcessed: t.Date}
}

// Set stores a cap for a category after validating it. Zero and negative
// caps are rejected so percentage math can never divide by zero.
func (b Budgets) Set(category string, cap Money) error {
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	if cap.Cents <= 0 {
		return ErrInvalidCap
	}
	b[category] = cap
	return nil
}

func (g SavingsGoal) Validate() error {
	if g.Amount.Cents <= 0 {
		return ErrInvalidGoal
	}
	return g.Date.Validate()
}

// Normalized returns the goal with the default label applied when blank.
func (g SavingsGoal) Normalized() SavingsGoal {
	if strings.TrimSpace(g.Name) == "" {
		g.Name = DefaultGoalName
	}
	return g
}
