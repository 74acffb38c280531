package services

import (
	"math"
	"sort"
	"time"

	"fintrack/internal/core"
)

// TrendMonths is the fixed length of the trend series.
const TrendMonths = 6

// NoTopCategory is reported when no expense transactions exist.
const NoTopCategory = "none"

// percentChange returns (current-previous)/previous*100, defined as 0
// when the baseline is 0. A deliberate floor, never NaN or Inf.
func percentChange(current, previous core.Money) float64 {
	if previous.Cents <= 0 {
		return 0
	}
	return (current.Float64() - previous.Float64()) / previous.Float64() * 100
}

// BalanceReport computes the all-time income, expenses and balance.
func BalanceReport(transactions []core.Transaction) core.BalanceSummary {
	income := core.SumByType(transactions, core.Income)
	expenses := core.SumByType(transactions, core.Expense)
	return core.BalanceSummary{
		Income:   income,
		Expenses: expenses,
		Balance:  income.Sub(expenses),
	}
}

// MonthlyReport computes the current calendar month's totals. The savings
// rate is 0 when the month has no income.
func MonthlyReport(transactions []core.Transaction, now time.Time) core.MonthlySummary {
	year, month := now.Year(), now.Month()
	monthly := core.FilterByMonth(transactions, year, month)

	income := core.SumByType(monthly, core.Income)
	expenses := core.SumByType(monthly, core.Expense)
	savings := income.Sub(expenses)

	var rate float64
	if income.Cents > 0 {
		rate = savings.Float64() / income.Float64() * 100
	}

	return core.MonthlySummary{
		Year:        year,
		Month:       month,
		MonthName:   month.String(),
		Income:      income,
		Expenses:    expenses,
		Savings:     savings,
		SavingsRate: rate,
	}
}

// CategoryBreakdown aggregates expense totals per category, sorted by
// amount descending (name ascending on ties). An empty slice is the
// "no data" state for the chart, not an error.
func CategoryBreakdown(transactions []core.Transaction) []core.CategoryAmount {
	sums := core.SumByCategory(transactions)
	out := make([]core.CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TrendSeries computes income and expense sums for the six calendar
// months ending at the current one, oldest first. Always exactly six
// entries; months without data are zero-filled.
func TrendSeries(transactions []core.Transaction, now time.Time) []core.TrendPoint {
	points := make([]core.TrendPoint, 0, TrendMonths)
	for i := TrendMonths - 1; i >= 0; i-- {
		// Normalizes across year boundaries (month 0 becomes December).
		first := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		monthly := core.FilterByMonth(transactions, first.Year(), first.Month())
		points = append(points, core.TrendPoint{
			Year:     first.Year(),
			Month:    first.Month(),
			Label:    first.Month().String()[:3],
			Income:   core.SumByType(monthly, core.Income),
			Expenses: core.SumByType(monthly, core.Expense),
		})
	}
	return points
}

// Comparison computes current-vs-previous calendar month totals and their
// percent changes.
func Comparison(transactions []core.Transaction, now time.Time) core.MonthComparison {
	current := monthTotals(transactions, now.Year(), now.Month())
	prev := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	previous := monthTotals(transactions, prev.Year(), prev.Month())

	return core.MonthComparison{
		Current:       current,
		Previous:      previous,
		IncomeChange:  percentChange(current.Income, previous.Income),
		ExpenseChange: percentChange(current.Expenses, previous.Expenses),
	}
}

func monthTotals(transactions []core.Transaction, year int, month time.Month) core.MonthTotals {
	monthly := core.FilterByMonth(transactions, year, month)
	return core.MonthTotals{
		Year:     year,
		Month:    month,
		Income:   core.SumByType(monthly, core.Income),
		Expenses: core.SumByType(monthly, core.Expense),
	}
}

// Progress reports savings progress toward the goal. Current savings are
// all-time income minus expenses, not scoped to the goal period. The fill
// percent is clamped to [0,100]; the raw percent is kept for the label.
func Progress(transactions []core.Transaction, goal *core.SavingsGoal) core.SavingsProgress {
	if goal == nil {
		return core.SavingsProgress{}
	}

	current := core.SumByType(transactions, core.Income).
		Sub(core.SumByType(transactions, core.Expense))

	var percent float64
	if goal.Amount.Cents > 0 {
		percent = current.Float64() / goal.Amount.Float64() * 100
	}

	return core.SavingsProgress{
		HasGoal: true,
		Name:    goal.Normalized().Name,
		Target:  goal.Amount,
		Current: current,
		Percent: percent,
		Fill:    math.Min(math.Max(percent, 0), 100),
	}
}

// ComputeInsights derives the dashboard statistics: mean transaction
// amount, average daily spending over the tracked span, and the top
// expense category. The span starts at the chronologically earliest
// transaction, found by scanning all dates rather than trusting list
// order.
func ComputeInsights(transactions []core.Transaction, now time.Time) core.Insights {
	insights := core.Insights{
		TransactionCount: len(transactions),
		TopCategory:      NoTopCategory,
	}
	if len(transactions) == 0 {
		return insights
	}

	var total int64
	earliest := transactions[0].Date
	for _, t := range transactions {
		total += t.Amount.Cents
		if t.Date.Before(earliest.Time) {
			earliest = t.Date
		}
	}
	insights.AvgTransaction = core.Money{Cents: roundDiv(total, int64(len(transactions)))}

	days := int(math.Ceil(now.Sub(earliest.Time).Hours() / 24))
	if days < 0 {
		days = 0
	}
	insights.DaysTracked = days

	if days > 0 {
		expenses := core.SumByType(transactions, core.Expense)
		insights.AvgDailySpending = core.Money{Cents: roundDiv(expenses.Cents, int64(days))}
	}

	sums := core.SumByCategory(transactions)
	var topCents int64 = -1
	for name, amount := range sums {
		if amount.Cents > topCents ||
			(amount.Cents == topCents && name < insights.TopCategory) {
			insights.TopCategory = name
			topCents = amount.Cents
		}
	}
	return insights
}

// BudgetStatuses builds the per-category consumption table, sorted by
// category name.
func BudgetStatuses(budgets core.Budgets, transactions []core.Transaction) []core.BudgetStatus {
	spent := core.SumByCategory(transactions)
	out := make([]core.BudgetStatus, 0, len(budgets))
	for category, cap := range budgets {
		status := core.BudgetStatus{
			Category: category,
			Cap:      cap,
			Spent:    spent[category],
		}
		if cap.Cents > 0 {
			status.Percent = status.Spent.Float64() / cap.Float64() * 100
		} else if status.Spent.Cents > 0 {
			// Legacy zero-cap data: fully consumed, never Inf.
			status.Percent = 100
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// roundDiv divides cents with half-up rounding.
func roundDiv(cents, by int64) int64 {
	if by == 0 {
		return 0
	}
	return (cents + by/2) / by
}
