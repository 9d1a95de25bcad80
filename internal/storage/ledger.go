package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const entrySelect = `
	SELECT t.id, t.user_id, t.type, t.amount, t.description, t.card_id,
	       COALESCE(c.name, ''), t.created_at
	FROM transactions t
	LEFT JOIN user_cards c ON c.id = t.card_id`

// InsertEntry writes one ledger row. CreatedAt must already be set.
func (q *Queries) InsertEntry(ctx context.Context, e core.LedgerEntry) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, type, amount, description, card_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, string(e.Kind), e.Amount.String(), e.Description, idArg(e.CardID), FormatTimestamp(e.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, entrySelect+` WHERE t.id = ?`, id)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get ledger entry: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if len(entries) == 0 {
		return core.LedgerEntry{}, core.NotFound("ledger entry", id)
	}
	return entries[0], nil
}

// ListRecentEntries returns the newest entries first. A limit of zero or less
// returns everything.
func (q *Queries) ListRecentEntries(ctx context.Context, userID int64, limit int) ([]core.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, entrySelect+`
		WHERE t.user_id = ?
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ?`, userID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	return collectEntries(rows)
}

// ListEntriesInRange returns entries with start <= created_at <= end, oldest
// first.
func (q *Queries) ListEntriesInRange(ctx context.Context, userID int64, start, end time.Time) ([]core.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, entrySelect+`
		WHERE t.user_id = ? AND t.created_at >= ? AND t.created_at <= ?
		ORDER BY t.created_at, t.id`, userID, FormatTimestamp(start), FormatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("list entries in range: %w", err)
	}
	return collectEntries(rows)
}

func (q *Queries) ListEntriesByKind(ctx context.Context, userID int64, kind core.Kind, limit int) ([]core.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, entrySelect+`
		WHERE t.user_id = ? AND t.type = ?
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ?`, userID, string(kind), limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list entries by kind: %w", err)
	}
	return collectEntries(rows)
}

func (q *Queries) ListEntriesForCard(ctx context.Context, cardID int64, limit int) ([]core.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, entrySelect+`
		WHERE t.card_id = ?
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ?`, cardID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list entries for card: %w", err)
	}
	return collectEntries(rows)
}

func (q *Queries) CountEntries(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func collectEntries(rows *sql.Rows) ([]core.LedgerEntry, error) {
	defer rows.Close()
	var out []core.LedgerEntry
	for rows.Next() {
		var (
			e       core.LedgerEntry
			kind    string
			cardID  sql.NullInt64
			created string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &e.Amount, &e.Description, &cardID, &e.CardName, &created); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Kind = core.ParseKind(kind)
		e.CardID = nullableID(cardID)
		e.CreatedAt = ParseTimestamp(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return out, nil
}

func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
