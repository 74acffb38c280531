package services

import (
	"sort"

	"fintrack/internal/core"
)

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityExceeded AlertSeverity = "exceeded"
)

// warningThreshold is the consumption percent at which a budget starts
// warning; at 100 it flips to exceeded.
const warningThreshold = 80

type (
	AlertSeverity string

	// AlertEvent classifies one budget's consumption. Percent is set for
	// warnings; OveragePercent for exceeded budgets.
	AlertEvent struct {
		Severity       AlertSeverity `json:"severity"`
		Category       string        `json:"category"`
		Percent        float64       `json:"percent,omitempty"`
		OveragePercent float64       `json:"overagePercent,omitempty"`
	}
)

// EvaluateBudgets classifies every budgeted category against current
// expense totals. Categories under the warning threshold emit nothing.
// Results are ordered by category name.
//
// Caps are validated to be positive at set time; a non-positive cap can
// only arrive through imported legacy data and is treated as immediately
// exceeded (overage 0) rather than dividing by zero.
func EvaluateBudgets(budgets core.Budgets, transactions []core.Transaction) []AlertEvent {
	spent := core.SumByCategory(transactions)

	var events []AlertEvent
	for category, cap := range budgets {
		s := spent[category]

		if cap.Cents <= 0 {
			if s.Cents > 0 {
				events = append(events, AlertEvent{
					Severity: SeverityExceeded,
					Category: category,
				})
			}
			continue
		}

		percent := s.Float64() / cap.Float64() * 100
		switch {
		case percent >= 100:
			events = append(events, AlertEvent{
				Severity:       SeverityExceeded,
				Category:       category,
				OveragePercent: percent - 100,
			})
		case percent >= warningThreshold:
			events = append(events, AlertEvent{
				Severity: SeverityWarning,
				Category: category,
				Percent:  percent,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Category < events[j].Category })
	return events
}
