// Package services implements the finance engines on top of the core
// domain model: recurrence processing, reporting, budget alerts, and the
// orchestrating FinanceService.
//
// This file implements the Strategy Pattern for recurring transaction
// dueness checking. Each frequency has its own strategy encapsulating the
// rule for when a template should materialize again.
package services

import (
	"fmt"

	"fintrack/internal/core"
)

// DuenessChecker is the strategy interface for deciding whether a
// recurring template is due for materialization.
type DuenessChecker interface {
	// IsDue reports whether a template last processed on lastProcessed
	// should spawn a transaction on today. Both are calendar dates.
	IsDue(lastProcessed, today core.Date) bool
}

// DailyChecker implements DuenessChecker for daily templates.
type DailyChecker struct{}

// IsDue returns true when today is a different calendar day.
func (DailyChecker) IsDue(lastProcessed, today core.Date) bool {
	return !today.SameDay(lastProcessed)
}

// WeeklyChecker implements DuenessChecker for weekly templates.
type WeeklyChecker struct{}

// IsDue returns true when at least 7 full days have elapsed.
func (WeeklyChecker) IsDue(lastProcessed, today core.Date) bool {
	return today.DaysSince(lastProcessed)/7 >= 1
}

// MonthlyChecker implements DuenessChecker for monthly templates.
type MonthlyChecker struct{}

// IsDue returns true when today is in a different calendar month or year.
func (MonthlyChecker) IsDue(lastProcessed, today core.Date) bool {
	return !today.SameMonth(lastProcessed)
}

// duenessStrategies maps frequencies to their checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency, or an error if
// the frequency is not supported.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown recurring frequency: %s", frequency)
	}
	return checker, nil
}
