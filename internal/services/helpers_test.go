package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []int64
}

func (p *recordingPublisher) PublishLedgerEntry(_ context.Context, _, entryID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entryID)
	return nil
}

func (p *recordingPublisher) published() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.entries...)
}

type fixture struct {
	*Services
	repo  *storage.SQLiteRepository
	clock *fakeClock
	pub   *recordingPublisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	clock := &fakeClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	pub := &recordingPublisher{}
	opts = append([]Option{WithClock(clock.Now), WithPublisher(pub), WithPasswordCost(bcrypt.MinCost)}, opts...)
	return &fixture{Services: New(repo, opts...), repo: repo, clock: clock, pub: pub}
}

func (f *fixture) user(t *testing.T, email string) int64 {
	t.Helper()
	id, err := f.repo.Queries().CreateUser(context.Background(), "user", email, "x", f.clock.Now())
	require.NoError(t, err)
	return id
}

func (f *fixture) card(t *testing.T, userID int64, name, balance string) int64 {
	t.Helper()
	id, err := f.Accounts.CreateCard(context.Background(), NewCard{UserID: userID, Name: name, InitialBalance: dec(balance)})
	require.NoError(t, err)
	return id
}

func (f *fixture) balance(t *testing.T, cardID int64) decimal.Decimal {
	t.Helper()
	c, err := f.Accounts.GetCard(context.Background(), cardID)
	require.NoError(t, err)
	return c.Balance
}

func (f *fixture) entries(t *testing.T, userID int64) []core.LedgerEntry {
	t.Helper()
	e, err := f.Ledger.ListRecent(context.Background(), userID, 0)
	require.NoError(t, err)
	return e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
