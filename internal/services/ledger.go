package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Ledger is the append-only record of financial events.
type Ledger struct {
	*env
	log *log.Logger
}

// NewEntry is the input to Append.
type NewEntry struct {
	UserID      int64
	Kind        core.Kind
	Amount      decimal.Decimal
	Description string
	CardID      *int64
	CreatedAt   time.Time // zero means now
}

// Append records one entry and returns its id. Session markers (login,
// logout, initial) are dropped and yield id 0 with no error.
func (l *Ledger) Append(ctx context.Context, in NewEntry) (int64, error) {
	if !in.Kind.IsFinancial() {
		l.log.DebugContext(ctx, "Skipping non-financial ledger entry", log.FieldKind, in.Kind)
		return 0, nil
	}
	if !in.Kind.Valid() {
		return 0, core.Invalid("type", "unknown transaction type "+string(in.Kind))
	}

	w := written{}
	var id int64
	err := l.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		var err error
		id, err = l.append(ctx, q, in)
		w.add(in.UserID, id)
		return err
	})
	if err != nil {
		l.log.Failure(ctx, "Failed to append ledger entry", err, log.FieldUserID, in.UserID, log.FieldKind, in.Kind)
		return 0, err
	}
	l.committed(ctx, w)
	return id, nil
}

// append writes in through q. transfer_out is stored negative and every
// other kind as a non-negative magnitude.
func (l *Ledger) append(ctx context.Context, q *storage.Queries, in NewEntry) (int64, error) {
	if !in.Kind.IsFinancial() {
		return 0, nil
	}
	amount := in.Amount.Abs()
	if in.Kind == core.KindTransferOut {
		amount = amount.Neg()
	}
	created := in.CreatedAt
	if created.IsZero() {
		created = l.clock()
	}
	id, err := q.InsertEntry(ctx, core.LedgerEntry{
		UserID:      in.UserID,
		Kind:        in.Kind,
		Amount:      amount,
		Description: in.Description,
		CardID:      in.CardID,
		CreatedAt:   created,
	})
	if err != nil {
		return 0, err
	}
	l.log.DebugContext(ctx, "Ledger entry appended",
		log.NewFields().WithUser(in.UserID).WithEntry(id, string(in.Kind), amount.String()).ToSlice()...)
	return id, nil
}

// ListRecent returns the newest entries first, with card names filled in.
func (l *Ledger) ListRecent(ctx context.Context, userID int64, limit int) ([]core.LedgerEntry, error) {
	return l.store.Queries().ListRecentEntries(ctx, userID, limit)
}

// ListInRange returns entries with start <= created_at <= end, oldest first.
func (l *Ledger) ListInRange(ctx context.Context, userID int64, start, end time.Time) ([]core.LedgerEntry, error) {
	if end.Before(start) {
		return nil, core.Invalid("range", "end is before start")
	}
	return l.store.Queries().ListEntriesInRange(ctx, userID, start, end)
}

func (l *Ledger) ListByKind(ctx context.Context, userID int64, kind core.Kind, limit int) ([]core.LedgerEntry, error) {
	return l.store.Queries().ListEntriesByKind(ctx, userID, kind, limit)
}

func (l *Ledger) ListForCard(ctx context.Context, cardID int64, limit int) ([]core.LedgerEntry, error) {
	return l.store.Queries().ListEntriesForCard(ctx, cardID, limit)
}

func (l *Ledger) Get(ctx context.Context, entryID int64) (core.LedgerEntry, error) {
	return l.store.Queries().GetEntry(ctx, entryID)
}
