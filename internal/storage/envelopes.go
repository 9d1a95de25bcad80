package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const envelopeColumns = `id, user_id, name, color, budget_limit, current_amount, created_at`

func scanEnvelope(row rowScanner) (core.Envelope, error) {
	var (
		e       core.Envelope
		created string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Color, &e.BudgetLimit, &e.CurrentAmount, &created); err != nil {
		return core.Envelope{}, err
	}
	e.CreatedAt = ParseTimestamp(created)
	return e, nil
}

func (q *Queries) CreateEnvelope(ctx context.Context, e core.Envelope, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO envelopes (user_id, name, color, budget_limit, current_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Name, e.Color, e.BudgetLimit.String(), e.CurrentAmount.String(), FormatTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("insert envelope: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetEnvelope(ctx context.Context, id int64) (core.Envelope, error) {
	e, err := scanEnvelope(q.db.QueryRowContext(ctx,
		`SELECT `+envelopeColumns+` FROM envelopes WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return core.Envelope{}, core.NotFound("envelope", id)
		}
		return core.Envelope{}, fmt.Errorf("get envelope: %w", err)
	}
	return e, nil
}

func (q *Queries) ListEnvelopes(ctx context.Context, userID int64) ([]core.Envelope, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+envelopeColumns+` FROM envelopes WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list envelopes: %w", err)
	}
	defer rows.Close()

	var out []core.Envelope
	for rows.Next() {
		e, err := scanEnvelope(rows)
		if err != nil {
			return nil, fmt.Errorf("scan envelope: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) CountEnvelopes(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM envelopes WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count envelopes: %w", err)
	}
	return n, nil
}

func (q *Queries) SetEnvelopeAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE envelopes SET current_amount = ? WHERE id = ?`, amount.String(), id)
	if err != nil {
		return fmt.Errorf("update envelope amount: %w", err)
	}
	return rowsAffected(res, "envelope", id)
}

func (q *Queries) UpdateEnvelope(ctx context.Context, id int64, name string, color core.Color, limit decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE envelopes SET name = ?, color = ?, budget_limit = ? WHERE id = ?`,
		name, color, limit.String(), id)
	if err != nil {
		return fmt.Errorf("update envelope: %w", err)
	}
	return rowsAffected(res, "envelope", id)
}

// DeleteEnvelope removes the envelope together with its deposit history.
func (q *Queries) DeleteEnvelope(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM envelope_transactions WHERE envelope_id = ?`, id); err != nil {
		return fmt.Errorf("delete envelope transactions: %w", err)
	}
	res, err := q.db.ExecContext(ctx, `DELETE FROM envelopes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete envelope: %w", err)
	}
	return rowsAffected(res, "envelope", id)
}

func (q *Queries) InsertEnvelopeTransaction(ctx context.Context, t core.EnvelopeTransaction) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO envelope_transactions (user_id, envelope_id, card_id, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.EnvelopeID, idArg(t.CardID), t.Amount.String(), t.Description, FormatTimestamp(t.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert envelope transaction: %w", err)
	}
	return res.LastInsertId()
}

// ListEnvelopeTransactions returns the newest deposits first. A limit of zero
// or less returns all rows.
func (q *Queries) ListEnvelopeTransactions(ctx context.Context, envelopeID int64, limit int) ([]core.EnvelopeTransaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, envelope_id, card_id, amount, description, created_at
		FROM envelope_transactions
		WHERE envelope_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, envelopeID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list envelope transactions: %w", err)
	}
	defer rows.Close()

	var out []core.EnvelopeTransaction
	for rows.Next() {
		var (
			t       core.EnvelopeTransaction
			cardID  sql.NullInt64
			created string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.EnvelopeID, &cardID, &t.Amount, &t.Description, &created); err != nil {
			return nil, fmt.Errorf("scan envelope transaction: %w", err)
		}
		t.CardID = nullableID(cardID)
		t.CreatedAt = ParseTimestamp(created)
		out = append(out, t)
	}
	return out, rows.Err()
}
