package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// BalanceSummary holds the all-time totals.
type BalanceSummary struct {
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Balance  Money `json:"balance"`
}

// MonthlySummary is the current calendar month's totals and savings rate.
type MonthlySummary struct {
	Year        int        `json:"year"`
	Month       time.Month `json:"month"`
	MonthName   string     `json:"monthName"`
	Income      Money      `json:"income"`
	Expenses    Money      `json:"expenses"`
	Savings     Money      `json:"savings"`
	SavingsRate float64    `json:"savingsRate"` // percent, 0 when income is 0
}

// TrendPoint is one month of the trend series.
type TrendPoint struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Label    string     `json:"label"` // short month name for chart axes
	Income   Money      `json:"income"`
	Expenses Money      `json:"expenses"`
}

// MonthTotals holds one month's income and expense sums for comparison.
type MonthTotals struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Income   Money      `json:"income"`
	Expenses Money      `json:"expenses"`
}

// MonthComparison compares the current calendar month with the previous
// one. Percent changes are 0 when the baseline month sum is 0.
type MonthComparison struct {
	Current       MonthTotals `json:"current"`
	Previous      MonthTotals `json:"previous"`
	IncomeChange  float64     `json:"incomeChange"`
	ExpenseChange float64     `json:"expenseChange"`
}

// SavingsProgress reports progress toward the active savings goal.
// HasGoal false is the "no goal" display state, not an error.
type SavingsProgress struct {
	HasGoal bool    `json:"hasGoal"`
	Name    string  `json:"name,omitempty"`
	Target  Money   `json:"target"`
	Current Money   `json:"current"`
	Percent float64 `json:"percent"`     // unclamped, for the textual figure
	Fill    float64 `json:"fillPercent"` // clamped to [0,100] for the bar
}

// Insights holds the derived statistics shown on the dashboard.
type Insights struct {
	TransactionCount int    `json:"transactionCount"`
	AvgTransaction   Money  `json:"avgTransaction"`
	AvgDailySpending Money  `json:"avgDailySpending"`
	DaysTracked      int    `json:"daysTracked"`
	TopCategory      string `json:"topCategory"` // "none" when no expenses exist
}

// BudgetStatus is one row of the budget consumption table.
type BudgetStatus struct {
	Category string  `json:"category"`
	Cap      Money   `json:"cap"`
	Spent    Money   `json:"spent"`
	Percent  float64 `json:"percent"`
}
