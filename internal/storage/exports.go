package storage

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Export status values stored in ledger_exports.
const (
	ExportDone   = "exported"
	ExportFailed = "error"
)

func (q *Queries) MarkExported(ctx context.Context, entryID int64, sheetRef string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO ledger_exports (entry_id, status, sheet_ref, attempts, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (entry_id) DO UPDATE SET
			status = excluded.status,
			sheet_ref = excluded.sheet_ref,
			attempts = ledger_exports.attempts + 1,
			updated_at = excluded.updated_at`,
		entryID, ExportDone, sheetRef, FormatTimestamp(now))
	if err != nil {
		return fmt.Errorf("mark entry exported: %w", err)
	}
	return nil
}

func (q *Queries) MarkExportFailed(ctx context.Context, entryID int64, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO ledger_exports (entry_id, status, attempts, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (entry_id) DO UPDATE SET
			status = excluded.status,
			attempts = ledger_exports.attempts + 1,
			updated_at = excluded.updated_at`,
		entryID, ExportFailed, FormatTimestamp(now))
	if err != nil {
		return fmt.Errorf("mark entry export failed: %w", err)
	}
	return nil
}

// ExportStatus returns the stored status for entryID, or "" when the entry has
// never been attempted.
func (q *Queries) ExportStatus(ctx context.Context, entryID int64) (status string, attempts int, err error) {
	err = q.db.QueryRowContext(ctx,
		`SELECT status, attempts FROM ledger_exports WHERE entry_id = ?`, entryID).Scan(&status, &attempts)
	if isNoRows(err) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("get export status: %w", err)
	}
	return status, attempts, nil
}

// ListUnexported returns entries that were never exported or whose previous
// attempts failed fewer than maxAttempts times, oldest first.
func (q *Queries) ListUnexported(ctx context.Context, limit, maxAttempts int) ([]core.LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, entrySelect+`
		LEFT JOIN ledger_exports x ON x.entry_id = t.id
		WHERE x.entry_id IS NULL OR (x.status = ? AND x.attempts < ?)
		ORDER BY t.id
		LIMIT ?`, ExportFailed, maxAttempts, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list unexported entries: %w", err)
	}
	return collectEntries(rows)
}
