package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type flakyExporter struct {
	*memory.Store
	mu    sync.Mutex
	fails int
}

func (f *flakyExporter) AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	f.mu.Lock()
	if f.fails > 0 {
		f.fails--
		f.mu.Unlock()
		return "", errors.New("sheets unavailable")
	}
	f.mu.Unlock()
	return f.Store.AppendEntry(ctx, e)
}

type scriptedConsumer struct {
	msgs []*amqp.LedgerEntryMessage
	errs []error
}

func (c *scriptedConsumer) Consume(ctx context.Context, handler amqp.Handler) error {
	for _, m := range c.msgs {
		c.errs = append(c.errs, handler(ctx, m))
	}
	<-ctx.Done()
	return ctx.Err()
}

func setup(t *testing.T) (*storage.SQLiteRepository, int64) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	uid, err := repo.Queries().CreateUser(context.Background(), "u", "u@example.com", "x", testNow)
	require.NoError(t, err)
	return repo, uid
}

func insertEntry(t *testing.T, repo *storage.SQLiteRepository, uid int64, amount string) int64 {
	t.Helper()
	id, err := repo.Queries().InsertEntry(context.Background(), core.LedgerEntry{
		UserID: uid, Kind: core.KindDeposit, Amount: decimal.RequireFromString(amount), Description: "d", CreatedAt: testNow,
	})
	require.NoError(t, err)
	return id
}

func newWorker(repo *storage.SQLiteRepository, exp *flakyExporter, consumer Consumer) *ExportWorker {
	w := NewExportWorker(repo, exp, consumer, Config{Interval: time.Hour, BatchSize: 10, MaxAttempts: 2}, log.Default(log.ComponentWorker))
	w.now = func() time.Time { return testNow }
	return w
}

func TestExport_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo, uid := setup(t)
	id := insertEntry(t, repo, uid, "10")
	exp := &flakyExporter{Store: memory.New()}
	w := newWorker(repo, exp, nil)

	require.NoError(t, w.Export(ctx, id))
	require.NoError(t, w.Export(ctx, id))
	require.Len(t, exp.Rows(), 1)

	status, attempts, err := repo.Queries().ExportStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, storage.ExportDone, status)
	require.Equal(t, 1, attempts)
}

func TestExport_MissingEntryIsDropped(t *testing.T) {
	repo, _ := setup(t)
	exp := &flakyExporter{Store: memory.New()}
	require.NoError(t, newWorker(repo, exp, nil).Export(context.Background(), 404))
	require.Empty(t, exp.Rows())
}

func TestExport_FailuresAreBounded(t *testing.T) {
	ctx := context.Background()
	repo, uid := setup(t)
	id := insertEntry(t, repo, uid, "10")
	exp := &flakyExporter{Store: memory.New(), fails: 5}
	w := newWorker(repo, exp, nil)

	require.Error(t, w.Export(ctx, id))
	require.Error(t, w.Export(ctx, id))
	status, attempts, err := repo.Queries().ExportStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, storage.ExportFailed, status)
	require.Equal(t, 2, attempts)

	// MaxAttempts reached: skipped, no error, nothing written.
	require.NoError(t, w.Export(ctx, id))
	require.Empty(t, exp.Rows())

	exported, failed, err := w.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, exported+failed)
}

func TestSweep_RetriesFailedEntries(t *testing.T) {
	ctx := context.Background()
	repo, uid := setup(t)
	first := insertEntry(t, repo, uid, "10")
	second := insertEntry(t, repo, uid, "20")
	exp := &flakyExporter{Store: memory.New(), fails: 1}
	w := newWorker(repo, exp, nil)

	exported, failed, err := w.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, exported)
	require.Equal(t, 1, failed)

	exported, failed, err = w.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, exported)
	require.Zero(t, failed)

	for _, id := range []int64{first, second} {
		status, _, err := repo.Queries().ExportStatus(ctx, id)
		require.NoError(t, err)
		require.Equal(t, storage.ExportDone, status)
	}
	require.Len(t, exp.Rows(), 2)
}

func TestRun_ConsumesMessagesAndStops(t *testing.T) {
	repo, uid := setup(t)
	id := insertEntry(t, repo, uid, "10")
	exp := &flakyExporter{Store: memory.New()}
	consumer := &scriptedConsumer{msgs: []*amqp.LedgerEntryMessage{amqp.NewLedgerEntryMessage(uid, id)}}
	w := newWorker(repo, exp, consumer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return len(exp.Rows()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	require.Equal(t, []error{nil}, consumer.errs)
}
