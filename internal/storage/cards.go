package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const cardColumns = `id, user_id, name, number, bank, balance, color`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (core.Card, error) {
	var c core.Card
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Number, &c.Bank, &c.Balance, &c.Color)
	return c, err
}

func (q *Queries) CreateCard(ctx context.Context, c core.Card, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO user_cards (user_id, name, number, bank, balance, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Name, c.Number, c.Bank, c.Balance.String(), c.Color, FormatTimestamp(now))
	if err != nil {
		return 0, fmt.Errorf("insert card: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetCard(ctx context.Context, id int64) (core.Card, error) {
	c, err := scanCard(q.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM user_cards WHERE id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return core.Card{}, core.NotFound("card", id)
		}
		return core.Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// ListCards returns the user's cards in creation order.
func (q *Queries) ListCards(ctx context.Context, userID int64) ([]core.Card, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM user_cards WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (q *Queries) SetCardBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE user_cards SET balance = ? WHERE id = ?`, balance.String(), id)
	if err != nil {
		return fmt.Errorf("update card balance: %w", err)
	}
	return rowsAffected(res, "card", id)
}

// UpdateCardMetadata writes only the non-nil fields of u. Balance is never
// touched here.
func (q *Queries) UpdateCardMetadata(ctx context.Context, id int64, u core.CardUpdate) error {
	var (
		sets []string
		args []any
	)
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Number != nil {
		sets = append(sets, "number = ?")
		args = append(args, *u.Number)
	}
	if u.Bank != nil {
		sets = append(sets, "bank = ?")
		args = append(args, *u.Bank)
	}
	if u.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *u.Color)
	}
	if len(sets) == 0 {
		_, err := q.GetCard(ctx, id)
		return err
	}
	args = append(args, id)
	res, err := q.db.ExecContext(ctx,
		`UPDATE user_cards SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return rowsAffected(res, "card", id)
}

func (q *Queries) DeleteCard(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM user_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return rowsAffected(res, "card", id)
}

// TotalBalance sums card balances in Go so TEXT and legacy REAL rows add up
// exactly.
func (q *Queries) TotalBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	cards, err := q.ListCards(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range cards {
		total = total.Add(c.Balance)
	}
	return total, nil
}
