package core

import (
	"encoding/json"
	"fmt"
)

// Bundle is the export/import document: the four top-level collections
// verbatim. The recurringTransactions key name is part of the exchange
// format and must not change.
type Bundle struct {
	Transactions []Transaction       `json:"transactions"`
	Budgets      Budgets             `json:"budgets"`
	SavingsGoal  *SavingsGoal        `json:"savingsGoal"`
	Recurring    []RecurringTemplate `json:"recurringTransactions"`
}

// ParseBundle decodes an exported document. Missing fields default to
// their empty collection / nil goal. Malformed input returns an error and
// no partial result, so callers can leave current state untouched.
func ParseBundle(data []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("parse bundle: %w", err)
	}
	return b.withDefaults(), nil
}

// Encode renders the bundle as an indented JSON document.
func (b Bundle) Encode() ([]byte, error) {
	out, err := json.MarshalIndent(b.withDefaults(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return out, nil
}

func (b Bundle) withDefaults() Bundle {
	if b.Transactions == nil {
		b.Transactions = []Transaction{}
	}
	if b.Budgets == nil {
		b.Budgets = Budgets{}
	}
	if b.Recurring == nil {
		b.Recurring = []RecurringTemplate{}
	}
	return b
}
