package core

import (
	"strings"
	"time"
)

// FilterAll is the wildcard value for type and category filters.
const FilterAll = "all"

// Filter selects transactions for list display. Search matches the
// description case-insensitively as a substring; Type and Category match
// exactly unless set to "all" or left empty. Active criteria combine with
// AND.
type Filter struct {
	Search   string
	Type     string
	Category string
}

// SumByType sums the amounts of all transactions of the given type.
// Total over empty input: returns zero cents.
func SumByType(transactions []Transaction, typ TransactionType) Money {
	var sum Money
	for _, t := range transactions {
		if t.Type == typ {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// SumByCategory sums expense amounts grouped by category. Income
// transactions are ignored. Returns an empty map when there are no
// expenses.
func SumByCategory(transactions []Transaction) map[string]Money {
	sums := make(map[string]Money)
	for _, t := range transactions {
		if t.Type != Expense {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	return sums
}

// FilterByMonth returns the transactions whose date falls in the given
// calendar month, by (month, year) components rather than elapsed days.
func FilterByMonth(transactions []Transaction, year int, month time.Month) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if t.Date.Year() == year && t.Date.Month() == month {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether a transaction passes all active criteria.
func (f Filter) Matches(t Transaction) bool {
	if f.Search != "" &&
		!strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Search)) {
		return false
	}
	if f.Type != "" && f.Type != FilterAll && string(t.Type) != f.Type {
		return false
	}
	if f.Category != "" && f.Category != FilterAll && t.Category != f.Category {
		return false
	}
	return true
}

// FilterTransactions applies a filter to a transaction list.
func FilterTransactions(transactions []Transaction, f Filter) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
