package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestSavingsPlans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")
	card := f.card(t, uid, "Main", "500")
	deadline := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)

	id, err := f.Savings.CreatePlan(ctx, uid, " Car ", dec("1000"), &deadline)
	require.NoError(t, err)
	p, err := f.Savings.GetPlan(ctx, uid, id)
	require.NoError(t, err)
	require.Equal(t, "Car", p.Name)
	require.Equal(t, core.PlanActive, p.Status)
	require.Equal(t, 10, p.DaysLeft)
	require.True(t, p.Progress.IsZero())

	require.NoError(t, f.Transfers.ContributeToSavingsPlan(ctx, uid, id, dec("400"), card))

	err = f.Savings.UpdatePlan(ctx, uid, id, "Car", dec("300"), nil)
	require.Equal(t, core.KindValidation, core.KindOf(err))
	require.NoError(t, f.Savings.UpdatePlan(ctx, uid, id, "New car", dec("800"), nil))

	p, err = f.Savings.GetPlan(ctx, uid, id)
	require.NoError(t, err)
	require.Equal(t, "New car", p.Name)
	require.Nil(t, p.Deadline)
	requireDecimal(t, "50", p.Progress)
	requireDecimal(t, "400", p.Remaining)

	txs, err := f.Savings.PlanTransactions(ctx, uid, id)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.Equal(t, core.SavingsTxPlanUpdated, txs[0].Type)
	require.Equal(t, core.SavingsTxDeposit, txs[1].Type)
	require.Equal(t, core.SavingsTxPlanCreated, txs[2].Type)
	require.True(t, txs[2].Amount.IsZero())

	overview, err := f.Savings.Overview(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, 1, overview.ActivePlans)
	requireDecimal(t, "400", overview.TotalSavings)
	requireDecimal(t, "50", overview.Progress)
}

func TestSavingsPlans_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")

	_, err := f.Savings.CreatePlan(ctx, alice, "", dec("10"), nil)
	require.ErrorIs(t, err, core.ErrEmptyName)
	_, err = f.Savings.CreatePlan(ctx, alice, "Zero", dec("0"), nil)
	require.Equal(t, core.KindValidation, core.KindOf(err))

	id, err := f.Savings.CreatePlan(ctx, alice, "Mine", dec("10"), nil)
	require.NoError(t, err)
	_, err = f.Savings.GetPlan(ctx, bob, id)
	require.ErrorIs(t, err, core.ErrNotFound)
	require.ErrorIs(t, f.Savings.UpdatePlan(ctx, bob, id, "Stolen", dec("10"), nil), core.ErrNotFound)

	txs, err := f.Savings.PlanTransactions(ctx, bob, id)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestSavingsOverview_IgnoresCompletedPlans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")
	card := f.card(t, uid, "Main", "100")
	done, err := f.Savings.CreatePlan(ctx, uid, "Done", dec("50"), nil)
	require.NoError(t, err)
	_, err = f.Savings.CreatePlan(ctx, uid, "Open", dec("200"), nil)
	require.NoError(t, err)
	require.NoError(t, f.Transfers.ContributeToSavingsPlan(ctx, uid, done, dec("50"), card))
	require.NoError(t, f.Transfers.CompleteSavingsPlan(ctx, uid, done, card))

	o, err := f.Savings.Overview(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, 1, o.ActivePlans)
	requireDecimal(t, "200", o.TotalTarget)
	require.True(t, o.Progress.IsZero())
}
