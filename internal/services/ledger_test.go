package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestLedgerAppend_SkipsSessionMarkers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")

	for _, k := range []core.Kind{core.KindLogin, core.KindLogout, core.KindInitial} {
		id, err := f.Ledger.Append(ctx, NewEntry{UserID: uid, Kind: k, Amount: dec("10")})
		require.NoError(t, err)
		require.Zero(t, id)
	}
	require.Empty(t, f.entries(t, uid))
	require.Empty(t, f.pub.published())
}

func TestLedgerAppend_UnknownKind(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "a@example.com")

	_, err := f.Ledger.Append(context.Background(), NewEntry{UserID: uid, Kind: "bonus", Amount: dec("1")})
	require.Equal(t, core.KindValidation, core.KindOf(err))
	require.Empty(t, f.entries(t, uid))
}

func TestLedgerAppend_SignRule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")

	outID, err := f.Ledger.Append(ctx, NewEntry{UserID: uid, Kind: core.KindTransferOut, Amount: dec("12.5")})
	require.NoError(t, err)
	expID, err := f.Ledger.Append(ctx, NewEntry{UserID: uid, Kind: core.KindExpense, Amount: dec("-7")})
	require.NoError(t, err)

	out, err := f.Ledger.Get(ctx, outID)
	require.NoError(t, err)
	requireDecimal(t, "-12.5", out.Amount)
	exp, err := f.Ledger.Get(ctx, expID)
	require.NoError(t, err)
	requireDecimal(t, "7", exp.Amount)
	require.True(t, exp.CreatedAt.Equal(f.clock.Now()))

	require.Equal(t, []int64{outID, expID}, f.pub.published())
}

func TestLedgerListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")
	card := f.card(t, uid, "Daily", "0")
	start := f.clock.Now()

	f.clock.Advance(time.Hour)
	_, err := f.Ledger.Append(ctx, NewEntry{UserID: uid, Kind: core.KindIncome, Amount: dec("100"), CardID: &card})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.Ledger.Append(ctx, NewEntry{UserID: uid, Kind: core.KindExpense, Amount: dec("20")})
	require.NoError(t, err)

	recent, err := f.Ledger.ListRecent(ctx, uid, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, core.KindExpense, recent[0].Kind)
	require.Equal(t, core.KindIncome, recent[1].Kind)
	require.Equal(t, "Daily", recent[1].CardName)

	ranged, err := f.Ledger.ListInRange(ctx, uid, start.Add(time.Minute), f.clock.Now())
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	require.Equal(t, core.KindIncome, ranged[0].Kind)

	_, err = f.Ledger.ListInRange(ctx, uid, f.clock.Now(), start)
	require.Equal(t, core.KindValidation, core.KindOf(err))

	forCard, err := f.Ledger.ListForCard(ctx, card, 0)
	require.NoError(t, err)
	require.Len(t, forCard, 2)
}
