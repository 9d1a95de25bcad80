package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestAudit_CleanHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")
	card := f.card(t, uid, "Main", "500")
	plan, err := f.Savings.CreatePlan(ctx, uid, "Trip", dec("400"), nil)
	require.NoError(t, err)
	env, err := f.Envelopes.Create(ctx, uid, "Food", nil, dec("100"))
	require.NoError(t, err)

	require.NoError(t, f.Transfers.ContributeToSavingsPlan(ctx, uid, plan, dec("200"), card))
	require.NoError(t, f.Transfers.WithdrawFromSavingsPlan(ctx, uid, plan, dec("50"), card))
	require.NoError(t, f.Transfers.DepositToEnvelope(ctx, uid, env, dec("40"), "", card))

	drift, err := f.Audit.CheckSavings(ctx, uid)
	require.NoError(t, err)
	require.Empty(t, drift)
	drift, err = f.Audit.CheckEnvelopes(ctx, uid)
	require.NoError(t, err)
	require.Empty(t, drift)
}

func TestAudit_ReportsDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")
	card := f.card(t, uid, "Main", "500")
	env, err := f.Envelopes.Create(ctx, uid, "Food", nil, dec("100"))
	require.NoError(t, err)
	require.NoError(t, f.Transfers.DepositToEnvelope(ctx, uid, env, dec("40"), "", card))
	require.NoError(t, f.repo.Queries().SetEnvelopeAmount(ctx, env, dec("55")))

	drift, err := f.Audit.CheckEnvelopes(ctx, uid)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	require.Equal(t, env, drift[0].ID)
	requireDecimal(t, "55", drift[0].Stored)
	requireDecimal(t, "40", drift[0].Expected)
}

func TestReplaySavings(t *testing.T) {
	// newest first
	txs := []core.SavingsTransaction{
		{Type: core.SavingsTxDeposit, Amount: dec("5")},
		{Type: core.SavingsTxPlanCompleted, Amount: dec("30")},
		{Type: core.SavingsTxWithdrawal, Amount: dec("10")},
		{Type: core.SavingsTxDeposit, Amount: dec("40")},
		{Type: core.SavingsTxPlanCreated},
	}
	requireDecimal(t, "5", replaySavings(txs))
	requireDecimal(t, "30", replaySavings(txs[2:]))
}
