package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestEnvelopes_CreateAndDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")

	n, err := f.Envelopes.EnsureDefaults(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, len(DefaultEnvelopeNames), n)
	n, err = f.Envelopes.EnsureDefaults(ctx, uid)
	require.NoError(t, err)
	require.Zero(t, n)

	id, err := f.Envelopes.Create(ctx, uid, "Travel", nil, dec("200"))
	require.NoError(t, err)
	e, err := f.Envelopes.Get(ctx, uid, id)
	require.NoError(t, err)
	require.Equal(t, core.PaletteColor(len(DefaultEnvelopeNames)), e.Color)
	requireDecimal(t, "200", e.BudgetLimit)

	list, err := f.Envelopes.List(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, len(DefaultEnvelopeNames)+1)
	require.Equal(t, "Food", list[0].Name)

	_, err = f.Envelopes.Create(ctx, uid, " ", nil, decimal.Zero)
	require.ErrorIs(t, err, core.ErrEmptyName)
	_, err = f.Envelopes.Create(ctx, uid, "Neg", nil, dec("-1"))
	require.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestEnvelopes_UpdateDeleteStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")
	other := f.user(t, "b@example.com")
	card := f.card(t, uid, "Main", "100")
	id, err := f.Envelopes.Create(ctx, uid, "Food", nil, dec("50"))
	require.NoError(t, err)

	stats, err := f.Envelopes.Stats(ctx, uid, id)
	require.NoError(t, err)
	require.Zero(t, stats.DepositCount)
	require.Nil(t, stats.LastDepositAt)

	require.NoError(t, f.Transfers.DepositToEnvelope(ctx, uid, id, dec("30"), "", card))
	require.NoError(t, f.Transfers.DepositToEnvelope(ctx, uid, id, dec("12.5"), "", card))
	stats, err = f.Envelopes.Stats(ctx, uid, id)
	require.NoError(t, err)
	require.Equal(t, 2, stats.DepositCount)
	requireDecimal(t, "42.5", stats.TotalDeposited)
	require.NotNil(t, stats.LastDepositAt)
	require.Equal(t, "2025-06-15 12:00:00", *stats.LastDepositAt)

	blue := core.Color{0, 0, 1, 1}
	require.NoError(t, f.Envelopes.Update(ctx, uid, id, "Groceries", blue, dec("80")))
	e, err := f.Envelopes.Get(ctx, uid, id)
	require.NoError(t, err)
	require.Equal(t, "Groceries", e.Name)
	require.Equal(t, blue, e.Color)
	requireDecimal(t, "42.5", e.CurrentAmount)

	require.ErrorIs(t, f.Envelopes.Update(ctx, other, id, "Mine", blue, dec("1")), core.ErrNotFound)
	require.ErrorIs(t, f.Envelopes.Delete(ctx, other, id), core.ErrNotFound)
	_, err = f.Envelopes.Stats(ctx, other, id)
	require.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, f.Envelopes.Delete(ctx, uid, id))
	_, err = f.Envelopes.Get(ctx, uid, id)
	require.ErrorIs(t, err, core.ErrNotFound)
	requireDecimal(t, "57.5", f.balance(t, card))
}
