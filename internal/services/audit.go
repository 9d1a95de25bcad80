package services

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Audit cross-checks the per-plan and per-envelope trails against the
// balances they describe. The trails are independent append-only records, so
// a mismatch is reported, never repaired.
type Audit struct {
	*env
}

// Drift is one record whose stored amount disagrees with its trail.
type Drift struct {
	Entity   string          `json:"entity"`
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Stored   decimal.Decimal `json:"stored"`
	Expected decimal.Decimal `json:"expected"`
}

// CheckSavings replays each plan's savings transactions. Deposits add,
// withdrawals subtract and a completion resets the plan to zero.
func (a *Audit) CheckSavings(ctx context.Context, userID int64) ([]Drift, error) {
	plans, err := a.store.Queries().ListPlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []Drift
	for _, p := range plans {
		txs, err := a.store.Queries().ListSavingsTransactions(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		expected := replaySavings(txs)
		if !expected.Equal(p.CurrentAmount) {
			out = append(out, Drift{Entity: "savings plan", ID: p.ID, Name: p.Name, Stored: p.CurrentAmount, Expected: expected})
		}
	}
	return out, nil
}

// replaySavings expects txs newest first, as the store returns them.
func replaySavings(txs []core.SavingsTransaction) decimal.Decimal {
	total := decimal.Zero
	for i := len(txs) - 1; i >= 0; i-- {
		switch txs[i].Type {
		case core.SavingsTxDeposit:
			total = total.Add(txs[i].Amount)
		case core.SavingsTxWithdrawal:
			total = total.Sub(txs[i].Amount)
		case core.SavingsTxPlanCompleted:
			total = decimal.Zero
		}
	}
	return total
}

// CheckEnvelopes compares each envelope's running total with the sum of its
// deposits.
func (a *Audit) CheckEnvelopes(ctx context.Context, userID int64) ([]Drift, error) {
	envelopes, err := a.store.Queries().ListEnvelopes(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []Drift
	for _, e := range envelopes {
		txs, err := a.store.Queries().ListEnvelopeTransactions(ctx, e.ID, 0)
		if err != nil {
			return nil, err
		}
		expected := decimal.Zero
		for _, t := range txs {
			expected = expected.Add(t.Amount)
		}
		if !expected.Equal(e.CurrentAmount) {
			out = append(out, Drift{Entity: "envelope", ID: e.ID, Name: e.Name, Stored: e.CurrentAmount, Expected: expected})
		}
	}
	return out, nil
}
