package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// CreateWallet inserts a zero balance wallet, or does nothing if the user
// already has one.
func (q *Queries) CreateWallet(ctx context.Context, userID int64, now time.Time) error {
	ts := FormatTimestamp(now)
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance, created_at, updated_at)
		VALUES (?, '0', ?, ?)
		ON CONFLICT (user_id) DO NOTHING`, userID, ts, ts)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

func (q *Queries) GetWallet(ctx context.Context, userID int64) (core.Wallet, error) {
	var w core.Wallet
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, balance FROM wallets WHERE user_id = ?`, userID).
		Scan(&w.ID, &w.UserID, &w.Balance)
	if err != nil {
		if isNoRows(err) {
			return core.Wallet{}, core.NotFound("wallet", userID)
		}
		return core.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (q *Queries) SetWalletBalance(ctx context.Context, userID int64, balance decimal.Decimal, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE wallets SET balance = ?, updated_at = ? WHERE user_id = ?`,
		balance.String(), FormatTimestamp(now), userID)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	return rowsAffected(res, "wallet", userID)
}
