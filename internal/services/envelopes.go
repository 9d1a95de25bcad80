package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// DefaultEnvelopeNames are created for users that have no envelopes yet.
var DefaultEnvelopeNames = []string{"Food", "Transport", "Entertainment", "Clothes", "Health", "Gifts"}

// Envelopes owns budget buckets. Their running total only grows through
// Transfers.DepositToEnvelope.
type Envelopes struct {
	*env
	log *log.Logger
}

// Create adds an envelope. A nil color takes the next palette colour.
func (s *Envelopes) Create(ctx context.Context, userID int64, name string, color *core.Color, budgetLimit decimal.Decimal) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}
	if budgetLimit.IsNegative() {
		return 0, core.Invalid("budget_limit", "must not be negative")
	}

	var id int64
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		c, err := s.pickColor(ctx, q, userID, color)
		if err != nil {
			return err
		}
		id, err = q.CreateEnvelope(ctx, core.Envelope{
			UserID: userID, Name: name, Color: c, BudgetLimit: core.RoundMoney(budgetLimit),
		}, s.clock())
		return err
	})
	if err != nil {
		s.log.Failure(ctx, "Failed to create envelope", err, log.FieldUserID, userID)
		return 0, err
	}
	s.invalidate(userID)
	s.log.InfoContext(ctx, "Envelope created", log.FieldUserID, userID, log.FieldEnvelopeID, id)
	return id, nil
}

func (s *Envelopes) pickColor(ctx context.Context, q *storage.Queries, userID int64, color *core.Color) (core.Color, error) {
	if color != nil {
		return *color, nil
	}
	n, err := q.CountEnvelopes(ctx, userID)
	if err != nil {
		return core.Color{}, err
	}
	return core.PaletteColor(n), nil
}

// EnsureDefaults creates the default envelopes when the user has none and
// reports how many were created.
func (s *Envelopes) EnsureDefaults(ctx context.Context, userID int64) (int, error) {
	created := 0
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		n, err := q.CountEnvelopes(ctx, userID)
		if err != nil || n > 0 {
			return err
		}
		now := s.clock()
		for i, name := range DefaultEnvelopeNames {
			if _, err := q.CreateEnvelope(ctx, core.Envelope{
				UserID: userID, Name: name, Color: core.PaletteColor(i),
			}, now); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		s.log.Failure(ctx, "Failed to create default envelopes", err, log.FieldUserID, userID)
		return 0, err
	}
	if created > 0 {
		s.invalidate(userID)
		s.log.InfoContext(ctx, "Default envelopes created", log.FieldUserID, userID, "count", created)
	}
	return created, nil
}

// Get returns the envelope if it belongs to userID.
func (s *Envelopes) Get(ctx context.Context, userID, envelopeID int64) (core.Envelope, error) {
	e, err := s.store.Queries().GetEnvelope(ctx, envelopeID)
	if err != nil {
		return core.Envelope{}, err
	}
	if err := ownedBy(e.UserID, userID, "envelope", envelopeID); err != nil {
		return core.Envelope{}, err
	}
	return e, nil
}

func (s *Envelopes) List(ctx context.Context, userID int64) ([]core.Envelope, error) {
	return s.store.Queries().ListEnvelopes(ctx, userID)
}

// Update replaces name, colour and limit. The running total is unchanged.
func (s *Envelopes) Update(ctx context.Context, userID, envelopeID int64, name string, color core.Color, budgetLimit decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}
	if budgetLimit.IsNegative() {
		return core.Invalid("budget_limit", "must not be negative")
	}
	if _, err := s.Get(ctx, userID, envelopeID); err != nil {
		return err
	}
	if err := s.store.Queries().UpdateEnvelope(ctx, envelopeID, name, color, core.RoundMoney(budgetLimit)); err != nil {
		s.log.Failure(ctx, "Failed to update envelope", err, log.FieldEnvelopeID, envelopeID)
		return err
	}
	s.invalidate(userID)
	s.log.InfoContext(ctx, "Envelope updated", log.FieldUserID, userID, log.FieldEnvelopeID, envelopeID)
	return nil
}

// Delete removes the envelope and its deposit history. Money already moved
// into it is not refunded.
func (s *Envelopes) Delete(ctx context.Context, userID, envelopeID int64) error {
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		e, err := q.GetEnvelope(ctx, envelopeID)
		if err != nil {
			return err
		}
		if err := ownedBy(e.UserID, userID, "envelope", envelopeID); err != nil {
			return err
		}
		return q.DeleteEnvelope(ctx, envelopeID)
	})
	if err != nil {
		s.log.Failure(ctx, "Failed to delete envelope", err, log.FieldEnvelopeID, envelopeID)
		return err
	}
	s.invalidate(userID)
	s.log.InfoContext(ctx, "Envelope deleted", log.FieldUserID, userID, log.FieldEnvelopeID, envelopeID)
	return nil
}

// Transactions lists the deposits into an envelope, newest first.
func (s *Envelopes) Transactions(ctx context.Context, userID, envelopeID int64, limit int) ([]core.EnvelopeTransaction, error) {
	if _, err := s.Get(ctx, userID, envelopeID); err != nil {
		return nil, err
	}
	return s.store.Queries().ListEnvelopeTransactions(ctx, envelopeID, limit)
}

func (s *Envelopes) Stats(ctx context.Context, userID, envelopeID int64) (core.EnvelopeStats, error) {
	txs, err := s.Transactions(ctx, userID, envelopeID, 0)
	if err != nil {
		return core.EnvelopeStats{}, err
	}
	stats := core.EnvelopeStats{DepositCount: len(txs), TotalDeposited: decimal.Zero}
	for _, t := range txs {
		stats.TotalDeposited = stats.TotalDeposited.Add(t.Amount)
	}
	if len(txs) > 0 {
		last := txs[0].CreatedAt.Format(storage.TimestampLayout)
		stats.LastDepositAt = &last
	}
	return stats, nil
}
