package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Accounts owns cards and their balances.
type Accounts struct {
	*env
	ledger *Ledger
	log    *log.Logger
}

type NewCard struct {
	UserID         int64
	Name           string
	Number         string
	Bank           string
	InitialBalance decimal.Decimal
	Color          *core.Color // nil picks DefaultColor
}

// CreateCard inserts a card and an informational card_creation entry with
// amount zero.
func (a *Accounts) CreateCard(ctx context.Context, in NewCard) (int64, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, core.ErrEmptyName
	}
	if in.InitialBalance.IsNegative() {
		return 0, core.Invalid("initial_balance", "must not be negative")
	}
	color := core.DefaultColor
	if in.Color != nil {
		color = *in.Color
	}

	w := written{}
	var cardID int64
	err := a.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		if _, err := q.GetUser(ctx, in.UserID); err != nil {
			return err
		}
		var err error
		cardID, err = q.CreateCard(ctx, core.Card{
			UserID:  in.UserID,
			Name:    name,
			Number:  strings.TrimSpace(in.Number),
			Bank:    strings.TrimSpace(in.Bank),
			Balance: core.RoundMoney(in.InitialBalance),
			Color:   color,
		}, a.clock())
		if err != nil {
			return err
		}
		entryID, err := a.ledger.append(ctx, q, NewEntry{
			UserID:      in.UserID,
			Kind:        core.KindCardCreation,
			Description: "Card created: " + name,
			CardID:      &cardID,
		})
		w.add(in.UserID, entryID)
		return err
	})
	if err != nil {
		a.log.Failure(ctx, "Failed to create card", err, log.FieldUserID, in.UserID)
		return 0, err
	}
	a.committed(ctx, w)
	a.log.InfoContext(ctx, "Card created", log.FieldUserID, in.UserID, log.FieldCardID, cardID)
	return cardID, nil
}

func (a *Accounts) GetCard(ctx context.Context, cardID int64) (core.Card, error) {
	return a.store.Queries().GetCard(ctx, cardID)
}

// OwnedCard returns the card only if it belongs to userID.
func (a *Accounts) OwnedCard(ctx context.Context, userID, cardID int64) (core.Card, error) {
	c, err := a.GetCard(ctx, cardID)
	if err != nil {
		return core.Card{}, err
	}
	if err := ownedBy(c.UserID, userID, "card", cardID); err != nil {
		return core.Card{}, err
	}
	return c, nil
}

// ListCards returns the user's cards in creation order.
func (a *Accounts) ListCards(ctx context.Context, userID int64) ([]core.Card, error) {
	return a.store.Queries().ListCards(ctx, userID)
}

// TotalBalance is zero for a user without cards.
func (a *Accounts) TotalBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return a.store.Queries().TotalBalance(ctx, userID)
}

// AdjustBalance adds delta to the card balance and records a deposit or a
// withdrawal. It does not reject a resulting negative balance; callers that
// need a sufficiency check do it before.
func (a *Accounts) AdjustBalance(ctx context.Context, cardID int64, delta decimal.Decimal, description string) error {
	delta = core.RoundMoney(delta)
	if delta.IsZero() {
		return core.Invalid("amount", "must not be zero")
	}
	kind := core.KindDeposit
	if delta.IsNegative() {
		kind = core.KindWithdrawal
	}

	w := written{}
	var balance decimal.Decimal
	err := a.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		card, err := q.GetCard(ctx, cardID)
		if err != nil {
			return err
		}
		balance = card.Balance.Add(delta)
		if err := q.SetCardBalance(ctx, cardID, balance); err != nil {
			return err
		}
		entryID, err := a.ledger.append(ctx, q, NewEntry{
			UserID:      card.UserID,
			Kind:        kind,
			Amount:      delta,
			Description: description,
			CardID:      &cardID,
		})
		w.add(card.UserID, entryID)
		return err
	})
	if err != nil {
		a.log.Failure(ctx, "Failed to adjust card balance", err, log.FieldCardID, cardID, log.FieldAmount, delta.String())
		return err
	}
	a.committed(ctx, w)
	a.log.InfoContext(ctx, "Card balance adjusted",
		log.FieldCardID, cardID, log.FieldKind, kind, log.FieldAmount, delta.String(), log.FieldBalance, balance.String())
	return nil
}

// UpdateCardMetadata changes any subset of name, number, bank and color. It
// never touches the balance and writes no ledger entry.
func (a *Accounts) UpdateCardMetadata(ctx context.Context, cardID int64, u core.CardUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return core.ErrEmptyName
		}
		u.Name = &name
	}
	q := a.store.Queries()
	card, err := q.GetCard(ctx, cardID)
	if err == nil {
		err = q.UpdateCardMetadata(ctx, cardID, u)
	}
	if err != nil {
		a.log.Failure(ctx, "Failed to update card", err, log.FieldCardID, cardID)
		return err
	}
	// Dashboards carry card names and colours.
	a.invalidate(card.UserID)
	a.log.InfoContext(ctx, "Card updated", log.FieldCardID, cardID)
	return nil
}

// DeleteCard removes a card and records card_deletion. A card holding money
// can only be deleted when moveTo names another card of the same user; the
// balance is transferred there first. Cards with a negative balance cannot
// be deleted.
func (a *Accounts) DeleteCard(ctx context.Context, cardID int64, moveTo *int64) error {
	w := written{}
	err := a.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		card, err := q.GetCard(ctx, cardID)
		if err != nil {
			return err
		}
		switch {
		case card.Balance.IsNegative():
			return core.Invalid("balance", "card with a negative balance cannot be deleted")
		case card.Balance.IsPositive() && moveTo == nil:
			return core.Invalid("move_to", "card still holds "+core.FormatMoney(card.Balance)+", choose a card to move it to")
		case card.Balance.IsPositive():
			if *moveTo == cardID {
				return core.Invalid("move_to", "cannot move the balance to the card being deleted")
			}
			target, err := loadCard(ctx, q, *moveTo, card.UserID, "recipient not found")
			if err != nil {
				return err
			}
			ids, err := moveFunds(ctx, q, a.ledger, card, target, card.Balance, "Balance moved from deleted card "+card.Name)
			if err != nil {
				return err
			}
			w.add(card.UserID, ids[0])
			w.add(target.UserID, ids[1])
		}

		if err := q.DeleteCard(ctx, cardID); err != nil {
			return err
		}
		entryID, err := a.ledger.append(ctx, q, NewEntry{
			UserID:      card.UserID,
			Kind:        core.KindCardDeletion,
			Description: "Card deleted: " + card.Name,
			CardID:      &cardID,
		})
		w.add(card.UserID, entryID)
		return err
	})
	if err != nil {
		a.log.Failure(ctx, "Failed to delete card", err, log.FieldCardID, cardID)
		return err
	}
	a.committed(ctx, w)
	a.log.InfoContext(ctx, "Card deleted", log.FieldCardID, cardID)
	return nil
}
