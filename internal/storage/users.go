package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
)

// ErrEmailTaken is returned when a user with the same email exists.
var ErrEmailTaken = core.Invalid("email", "email already registered")

func (q *Queries) CreateUser(ctx context.Context, username, email, passwordHash string, now time.Time) (int64, error) {
	ts := FormatTimestamp(now)
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, ts, ts)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return q.scanUser(q.db.QueryRowContext(ctx, `
		SELECT id, username, email, password, created_at FROM users WHERE email = ?`, email), 0)
}

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	return q.scanUser(q.db.QueryRowContext(ctx, `
		SELECT id, username, email, password, created_at FROM users WHERE id = ?`, id), id)
}

func (q *Queries) scanUser(row *sql.Row, id int64) (core.User, error) {
	var (
		u       core.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created); err != nil {
		if isNoRows(err) {
			return core.User{}, core.NotFound("user", id)
		}
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = ParseTimestamp(created)
	return u, nil
}
