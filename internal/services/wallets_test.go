package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestWallets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")

	w, err := f.Wallets.Get(ctx, uid)
	require.NoError(t, err)
	require.True(t, w.Balance.IsZero())

	balance, err := f.Wallets.Deposit(ctx, uid, dec("50"), "cash")
	require.NoError(t, err)
	requireDecimal(t, "50", balance)

	_, err = f.Wallets.Withdraw(ctx, uid, dec("60"), "too much")
	require.ErrorIs(t, err, core.ErrInsufficientFunds)

	balance, err = f.Wallets.Withdraw(ctx, uid, dec("20"), "coffee")
	require.NoError(t, err)
	requireDecimal(t, "30", balance)

	_, err = f.Wallets.Deposit(ctx, uid, dec("0"), "nothing")
	require.Equal(t, core.KindValidation, core.KindOf(err))

	entries := f.entries(t, uid)
	require.Len(t, entries, 2)
	require.Equal(t, core.KindWithdrawal, entries[0].Kind)
	require.Nil(t, entries[0].CardID)

	_, err = f.Wallets.Get(ctx, 999)
	require.ErrorIs(t, err, core.ErrNotFound)
}
