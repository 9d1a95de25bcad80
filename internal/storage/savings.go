package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const planColumns = `id, user_id, name, target_amount, current_amount, deadline, status, created_at`

func scanPlan(row rowScanner) (core.SavingsPlan, error) {
	var (
		p        core.SavingsPlan
		deadline sql.NullString
		status   string
		created  string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.TargetAmount, &p.CurrentAmount, &deadline, &status, &created); err != nil {
		return core.SavingsPlan{}, err
	}
	if deadline.Valid && deadline.String != "" {
		if t := ParseTimestamp(deadline.String); !t.IsZero() {
			p.Deadline = &t
		}
	}
	p.Status = core.PlanStatus(status)
	p.CreatedAt = ParseTimestamp(created)
	return p, nil
}

func deadlineArg(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(core.DeadlineLayout)
}

func (q *Queries) CreatePlan(ctx context.Context, p core.SavingsPlan, now time.Time) (int64, error) {
	ts := FormatTimestamp(now)
	status := p.Status
	if status == "" {
		status = core.PlanActive
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO savings_plans (user_id, name, target_amount, current_amount, deadline, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.TargetAmount.String(), p.CurrentAmount.String(), deadlineArg(p.Deadline), string(status), ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert savings plan: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetPlan(ctx context.Context, id int64) (core.SavingsPlan, error) {
	p, err := scanPlan(q.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM savings_plans WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return core.SavingsPlan{}, core.NotFound("savings plan", id)
		}
		return core.SavingsPlan{}, fmt.Errorf("get savings plan: %w", err)
	}
	return p, nil
}

// ListPlans returns the user's plans, newest first.
func (q *Queries) ListPlans(ctx context.Context, userID int64) ([]core.SavingsPlan, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM savings_plans WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings plans: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q *Queries) SetPlanProgress(ctx context.Context, id int64, current decimal.Decimal, status core.PlanStatus, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE savings_plans SET current_amount = ?, status = ?, updated_at = ? WHERE id = ?`,
		current.String(), string(status), FormatTimestamp(now), id)
	if err != nil {
		return fmt.Errorf("update savings plan progress: %w", err)
	}
	return rowsAffected(res, "savings plan", id)
}

func (q *Queries) UpdatePlanDetails(ctx context.Context, id int64, name string, target decimal.Decimal, deadline *time.Time, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE savings_plans SET name = ?, target_amount = ?, deadline = ?, updated_at = ? WHERE id = ?`,
		name, target.String(), deadlineArg(deadline), FormatTimestamp(now), id)
	if err != nil {
		return fmt.Errorf("update savings plan: %w", err)
	}
	return rowsAffected(res, "savings plan", id)
}

func (q *Queries) DeletePlan(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM savings_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete savings plan: %w", err)
	}
	return rowsAffected(res, "savings plan", id)
}

func (q *Queries) InsertSavingsTransaction(ctx context.Context, t core.SavingsTransaction) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO savings_transactions (user_id, plan_id, amount, type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.PlanID, t.Amount.String(), string(t.Type), t.Description, FormatTimestamp(t.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert savings transaction: %w", err)
	}
	return res.LastInsertId()
}

// ListSavingsTransactions returns a plan's audit trail, newest first.
func (q *Queries) ListSavingsTransactions(ctx context.Context, planID int64) ([]core.SavingsTransaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, plan_id, amount, type, description, created_at
		FROM savings_transactions
		WHERE plan_id = ?
		ORDER BY created_at DESC, id DESC`, planID)
	if err != nil {
		return nil, fmt.Errorf("list savings transactions: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsTransaction
	for rows.Next() {
		var (
			t       core.SavingsTransaction
			typ     string
			created string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.PlanID, &t.Amount, &typ, &t.Description, &created); err != nil {
			return nil, fmt.Errorf("scan savings transaction: %w", err)
		}
		t.Type = core.SavingsTxType(typ)
		t.CreatedAt = ParseTimestamp(created)
		out = append(out, t)
	}
	return out, rows.Err()
}
