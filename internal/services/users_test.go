package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	uid, err := f.Users.Register(ctx, " Olena ", "Olena@Example.com", "secret1")
	require.NoError(t, err)

	u, err := f.Users.Get(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, "Olena", u.Username)
	require.Equal(t, "olena@example.com", u.Email)
	require.NotEqual(t, "secret1", u.PasswordHash)

	cards, err := f.Accounts.ListCards(ctx, uid)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, DefaultCardName, cards[0].Name)
	require.True(t, cards[0].Balance.IsZero())

	w, err := f.Wallets.Get(ctx, uid)
	require.NoError(t, err)
	require.True(t, w.Balance.IsZero())

	entries := f.entries(t, uid)
	require.Len(t, entries, 1)
	require.Equal(t, core.KindCardCreation, entries[0].Kind)
	require.Len(t, f.pub.published(), 1)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.Users.Register(ctx, "a", "a@example.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"empty username", " ", "b@example.com", "secret1", core.ErrEmptyName},
		{"bad email", "b", "not-an-email", "secret1", core.ErrInvalidEmail},
		{"short password", "b", "b@example.com", "12345", core.ErrShortPassword},
		{"duplicate email", "b", "A@example.com", "secret1", storage.ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Users.Register(ctx, tt.username, tt.email, tt.password)
			require.ErrorIs(t, err, tt.want)
			require.Equal(t, core.KindValidation, core.KindOf(err))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid, err := f.Users.Register(ctx, "a", "a@example.com", "secret1")
	require.NoError(t, err)

	u, err := f.Users.Authenticate(ctx, " A@EXAMPLE.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, uid, u.ID)

	_, err = f.Users.Authenticate(ctx, "a@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.Users.Authenticate(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
