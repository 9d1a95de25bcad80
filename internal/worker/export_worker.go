package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// Config tunes the export worker.
type Config struct {
	// Interval between sweeps for entries whose message was lost (default: 1m).
	Interval time.Duration
	// BatchSize caps the entries exported per sweep (default: 50).
	BatchSize int
	// MaxAttempts after which a failing entry is left alone (default: 5).
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{Interval: time.Minute, BatchSize: 50, MaxAttempts: 5}
}

// Store is the persistence the worker reads entries from and records export
// status in. *storage.SQLiteRepository satisfies it.
type Store interface {
	Queries() *storage.Queries
}

// Consumer delivers ledger entry messages. *amqp.Client satisfies it.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// ExportWorker copies committed ledger entries to a spreadsheet. Entries
// arrive through AMQP; a periodic sweep picks up whatever the messages
// missed. Exporting is idempotent per entry.
type ExportWorker struct {
	store    Store
	exporter sheets.LedgerExporter
	consumer Consumer
	config   Config
	log      *log.Logger
	now      func() time.Time
}

// NewExportWorker builds a worker. consumer may be nil, in which case only
// the sweep runs.
func NewExportWorker(store Store, exporter sheets.LedgerExporter, consumer Consumer, config Config, logger *log.Logger) *ExportWorker {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		consumer: consumer,
		config:   config,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run consumes messages and sweeps until ctx is done.
func (w *ExportWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.Consume(ctx, w.HandleMessage)
		})
	}
	g.Go(func() error {
		w.sweepLoop(ctx)
		return nil
	})
	w.log.InfoContext(ctx, "Export worker started",
		"interval", w.config.Interval, "batch_size", w.config.BatchSize, "amqp", w.consumer != nil)

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *ExportWorker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Catch up on whatever was missed while the worker was down.
	w.sweepAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepAndLog(ctx)
		}
	}
}

func (w *ExportWorker) sweepAndLog(ctx context.Context) {
	exported, failed, err := w.Sweep(ctx)
	if err != nil {
		w.log.ErrorContext(ctx, "Export sweep failed", log.FieldError, err)
		return
	}
	if exported+failed > 0 {
		w.log.InfoContext(ctx, "Export sweep completed", "exported", exported, "failed", failed)
	}
}

// HandleMessage exports the entry named by msg. A returned error requeues
// the message.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerEntryMessage) error {
	w.log.DebugContext(ctx, "Processing ledger entry message",
		log.FieldEntryID, msg.EntryID, "message_id", msg.MessageID)
	return w.Export(ctx, msg.EntryID)
}

// Export writes one entry unless it was already exported. Entries that no
// longer exist, or that have failed MaxAttempts times, are skipped without
// error.
func (w *ExportWorker) Export(ctx context.Context, entryID int64) error {
	q := w.store.Queries()
	status, attempts, err := q.ExportStatus(ctx, entryID)
	if err != nil {
		return err
	}
	switch {
	case status == storage.ExportDone:
		return nil
	case status == storage.ExportFailed && attempts >= w.config.MaxAttempts:
		w.log.WarnContext(ctx, "Giving up on ledger entry export",
			log.FieldEntryID, entryID, "attempts", attempts)
		return nil
	}

	entry, err := q.GetEntry(ctx, entryID)
	if errors.Is(err, core.ErrNotFound) {
		w.log.WarnContext(ctx, "Ledger entry to export does not exist", log.FieldEntryID, entryID)
		return nil
	}
	if err != nil {
		return err
	}

	ref, err := w.exporter.AppendEntry(ctx, entry)
	if err != nil {
		if markErr := q.MarkExportFailed(ctx, entryID, w.now()); markErr != nil {
			w.log.ErrorContext(ctx, "Failed to record export failure", log.FieldEntryID, entryID, log.FieldError, markErr)
		}
		return fmt.Errorf("export entry %d: %w", entryID, err)
	}
	if err := q.MarkExported(ctx, entryID, ref, w.now()); err != nil {
		// The row is written; a later sweep would write it again.
		w.log.ErrorContext(ctx, "Failed to record export", log.FieldEntryID, entryID, log.FieldError, err)
		return err
	}

	w.log.InfoContext(ctx, "Exported ledger entry",
		log.FieldEntryID, entryID, log.FieldUserID, entry.UserID, log.FieldKind, entry.Kind, log.FieldSheetRef, ref)
	return nil
}

// Sweep exports up to BatchSize entries that have no successful export yet.
func (w *ExportWorker) Sweep(ctx context.Context) (exported, failed int, err error) {
	entries, err := w.store.Queries().ListUnexported(ctx, w.config.BatchSize, w.config.MaxAttempts)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return exported, failed, ctx.Err()
		}
		if err := w.Export(ctx, e.ID); err != nil {
			w.log.WarnContext(ctx, "Sweep export failed", log.FieldEntryID, e.ID, log.FieldError, err)
			failed++
			continue
		}
		exported++
	}
	return exported, failed, nil
}
