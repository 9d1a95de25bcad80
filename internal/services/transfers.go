package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Transfers moves money between cards, envelopes and savings plans. Each
// operation validates everything first, then applies all balance changes and
// ledger writes in one transaction.
type Transfers struct {
	*env
	ledger *Ledger
	log    *log.Logger
}

// TransferBetweenCards debits from and credits to by amount, recording a
// transfer_out/transfer_in pair whose amounts sum to zero. A missing sender
// is reported first, then a missing recipient, then the amount, then funds.
func (t *Transfers) TransferBetweenCards(ctx context.Context, fromCardID, toCardID int64, amount decimal.Decimal) error {
	w := written{}
	err := t.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		from, err := loadCard(ctx, q, fromCardID, 0, "sender not found")
		if err != nil {
			return err
		}
		to, err := loadCard(ctx, q, toCardID, 0, "recipient not found")
		if err != nil {
			return err
		}
		if err := core.ValidateAmount(amount); err != nil {
			return err
		}
		if from.ID == to.ID {
			return core.Invalid("to_card_id", "cannot transfer to the same card")
		}
		ids, err := moveFunds(ctx, q, t.ledger, from, to, core.RoundMoney(amount), "")
		if err != nil {
			return err
		}
		w.add(from.UserID, ids[0])
		w.add(to.UserID, ids[1])
		return nil
	})
	if err != nil {
		t.log.Failure(ctx, "Transfer rejected", err,
			log.FieldFromCardID, fromCardID, log.FieldToCardID, toCardID, log.FieldAmount, amount.String())
		return err
	}
	t.committed(ctx, w)
	t.log.InfoContext(ctx, "Transfer completed",
		log.FieldFromCardID, fromCardID, log.FieldToCardID, toCardID, log.FieldAmount, amount.String())
	return nil
}

// moveFunds applies a checked card to card move inside q and returns the ids
// of the transfer_out and transfer_in entries.
func moveFunds(ctx context.Context, q *storage.Queries, ledger *Ledger, from, to core.Card, amount decimal.Decimal, note string) ([2]int64, error) {
	var ids [2]int64
	if from.Balance.LessThan(amount) {
		return ids, &core.InsufficientFundsError{Available: from.Balance}
	}
	if err := q.SetCardBalance(ctx, from.ID, from.Balance.Sub(amount)); err != nil {
		return ids, err
	}
	if err := q.SetCardBalance(ctx, to.ID, to.Balance.Add(amount)); err != nil {
		return ids, err
	}

	outDesc, inDesc := "Transfer to "+to.Name, "Transfer from "+from.Name
	if note != "" {
		outDesc, inDesc = note, note
	}
	var err error
	if ids[0], err = ledger.append(ctx, q, NewEntry{
		UserID: from.UserID, Kind: core.KindTransferOut, Amount: amount, Description: outDesc, CardID: &from.ID,
	}); err != nil {
		return ids, err
	}
	if ids[1], err = ledger.append(ctx, q, NewEntry{
		UserID: to.UserID, Kind: core.KindTransferIn, Amount: amount, Description: inDesc, CardID: &to.ID,
	}); err != nil {
		return ids, err
	}
	return ids, nil
}

// loadCard fetches a card, reporting a missing one (or one not owned by
// ownerID when ownerID is non-zero) with the given message.
func loadCard(ctx context.Context, q *storage.Queries, cardID, ownerID int64, missing string) (core.Card, error) {
	c, err := q.GetCard(ctx, cardID)
	if errors.Is(err, core.ErrNotFound) || (err == nil && ownerID != 0 && c.UserID != ownerID) {
		return core.Card{}, &core.NotFoundError{Entity: "card", ID: cardID, Message: missing}
	}
	return c, err
}

func loadPlan(ctx context.Context, q *storage.Queries, planID, userID int64) (core.SavingsPlan, error) {
	p, err := q.GetPlan(ctx, planID)
	if err != nil {
		return core.SavingsPlan{}, err
	}
	if err := ownedBy(p.UserID, userID, "savings plan", planID); err != nil {
		return core.SavingsPlan{}, err
	}
	return p, nil
}

// DepositToEnvelope moves amount from a card into an envelope. The card must
// hold enough money.
func (t *Transfers) DepositToEnvelope(ctx context.Context, userID, envelopeID int64, amount decimal.Decimal, description string, cardID int64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	amount = core.RoundMoney(amount)

	w := written{}
	err := t.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		envelope, err := q.GetEnvelope(ctx, envelopeID)
		if err != nil {
			return err
		}
		if err := ownedBy(envelope.UserID, userID, "envelope", envelopeID); err != nil {
			return err
		}
		card, err := loadCard(ctx, q, cardID, userID, "card not found")
		if err != nil {
			return err
		}
		if card.Balance.LessThan(amount) {
			return &core.InsufficientFundsError{Available: card.Balance}
		}
		if err := q.SetCardBalance(ctx, cardID, card.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := q.SetEnvelopeAmount(ctx, envelopeID, envelope.CurrentAmount.Add(amount)); err != nil {
			return err
		}

		desc := strings.TrimSpace(description)
		if desc == "" {
			desc = "Deposit to envelope " + envelope.Name
		}
		now := t.clock()
		if _, err := q.InsertEnvelopeTransaction(ctx, core.EnvelopeTransaction{
			UserID: userID, EnvelopeID: envelopeID, CardID: &cardID, Amount: amount, Description: desc, CreatedAt: now,
		}); err != nil {
			return err
		}
		entryID, err := t.ledger.append(ctx, q, NewEntry{
			UserID: userID, Kind: core.KindEnvelopeDeposit, Amount: amount, Description: desc, CardID: &cardID, CreatedAt: now,
		})
		w.add(userID, entryID)
		return err
	})
	if err != nil {
		t.log.Failure(ctx, "Envelope deposit rejected", err,
			log.FieldUserID, userID, log.FieldEnvelopeID, envelopeID, log.FieldCardID, cardID, log.FieldAmount, amount.String())
		return err
	}
	t.committed(ctx, w)
	t.log.InfoContext(ctx, "Envelope deposit completed",
		log.FieldUserID, userID, log.FieldEnvelopeID, envelopeID, log.FieldAmount, amount.String())
	return nil
}

// ContributeToSavingsPlan moves amount from a card into an active plan. The
// plan may never exceed its target.
func (t *Transfers) ContributeToSavingsPlan(ctx context.Context, userID, planID int64, amount decimal.Decimal, cardID int64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	amount = core.RoundMoney(amount)

	w := written{}
	err := t.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		plan, err := loadPlan(ctx, q, planID, userID)
		if err != nil {
			return err
		}
		if plan.Status != core.PlanActive {
			return core.Invalid("plan", "plan is already completed")
		}
		if plan.CurrentAmount.Add(amount).GreaterThan(plan.TargetAmount) {
			return &core.TargetExceededError{MaxAllowed: plan.Remaining()}
		}
		card, err := loadCard(ctx, q, cardID, userID, "card not found")
		if err != nil {
			return err
		}
		if card.Balance.LessThan(amount) {
			return &core.InsufficientFundsError{Available: card.Balance}
		}

		now := t.clock()
		if err := q.SetCardBalance(ctx, cardID, card.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := q.SetPlanProgress(ctx, planID, plan.CurrentAmount.Add(amount), core.PlanActive, now); err != nil {
			return err
		}
		entryID, err := t.ledger.append(ctx, q, NewEntry{
			UserID: userID, Kind: core.KindSavingsDeposit, Amount: amount,
			Description: "Transfer to savings plan " + plan.Name, CardID: &cardID, CreatedAt: now,
		})
		if err != nil {
			return err
		}
		w.add(userID, entryID)
		_, err = q.InsertSavingsTransaction(ctx, core.SavingsTransaction{
			UserID: userID, PlanID: planID, Amount: amount, Type: core.SavingsTxDeposit,
			Description: "Deposit to savings plan", CreatedAt: now,
		})
		return err
	})
	if err != nil {
		t.log.Failure(ctx, "Savings contribution rejected", err,
			log.FieldUserID, userID, log.FieldPlanID, planID, log.FieldCardID, cardID, log.FieldAmount, amount.String())
		return err
	}
	t.committed(ctx, w)
	t.log.InfoContext(ctx, "Savings contribution completed",
		log.FieldUserID, userID, log.FieldPlanID, planID, log.FieldAmount, amount.String())
	return nil
}

// WithdrawFromSavingsPlan returns amount from a plan to a card.
func (t *Transfers) WithdrawFromSavingsPlan(ctx context.Context, userID, planID int64, amount decimal.Decimal, cardID int64) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	amount = core.RoundMoney(amount)

	w := written{}
	err := t.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		plan, err := loadPlan(ctx, q, planID, userID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(plan.CurrentAmount) {
			return &core.InsufficientFundsError{Available: plan.CurrentAmount}
		}
		card, err := loadCard(ctx, q, cardID, userID, "card not found")
		if err != nil {
			return err
		}

		now := t.clock()
		if err := q.SetCardBalance(ctx, cardID, card.Balance.Add(amount)); err != nil {
			return err
		}
		if err := q.SetPlanProgress(ctx, planID, plan.CurrentAmount.Sub(amount), plan.Status, now); err != nil {
			return err
		}
		entryID, err := t.ledger.append(ctx, q, NewEntry{
			UserID: userID, Kind: core.KindSavingsReturn, Amount: amount,
			Description: "Withdrawal from savings plan " + plan.Name, CardID: &cardID, CreatedAt: now,
		})
		if err != nil {
			return err
		}
		w.add(userID, entryID)
		_, err = q.InsertSavingsTransaction(ctx, core.SavingsTransaction{
			UserID: userID, PlanID: planID, Amount: amount, Type: core.SavingsTxWithdrawal,
			Description: "Withdrawal from savings plan", CreatedAt: now,
		})
		return err
	})
	if err != nil {
		t.log.Failure(ctx, "Savings withdrawal rejected", err,
			log.FieldUserID, userID, log.FieldPlanID, planID, log.FieldCardID, cardID, log.FieldAmount, amount.String())
		return err
	}
	t.committed(ctx, w)
	t.log.InfoContext(ctx, "Savings withdrawal completed",
		log.FieldUserID, userID, log.FieldPlanID, planID, log.FieldAmount, amount.String())
	return nil
}

// CompleteSavingsPlan pays the whole plan balance out to a card and marks the
// plan completed.
func (t *Transfers) CompleteSavingsPlan(ctx context.Context, userID, planID, cardID int64) error {
	w := written{}
	var payout decimal.Decimal
	err := t.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		plan, err := loadPlan(ctx, q, planID, userID)
		if err != nil {
			return err
		}
		if !plan.CurrentAmount.IsPositive() {
			return core.Invalid("plan", "plan has no funds to pay out")
		}
		card, err := loadCard(ctx, q, cardID, userID, "card not found")
		if err != nil {
			return err
		}

		payout = plan.CurrentAmount
		now := t.clock()
		if err := q.SetCardBalance(ctx, cardID, card.Balance.Add(payout)); err != nil {
			return err
		}
		if err := q.SetPlanProgress(ctx, planID, decimal.Zero, core.PlanCompleted, now); err != nil {
			return err
		}
		entryID, err := t.ledger.append(ctx, q, NewEntry{
			UserID: userID, Kind: core.KindSavingsCompleted, Amount: payout,
			Description: "Savings plan completed: " + plan.Name, CardID: &cardID, CreatedAt: now,
		})
		if err != nil {
			return err
		}
		w.add(userID, entryID)
		_, err = q.InsertSavingsTransaction(ctx, core.SavingsTransaction{
			UserID: userID, PlanID: planID, Amount: payout, Type: core.SavingsTxPlanCompleted,
			Description: "Savings plan completed", CreatedAt: now,
		})
		return err
	})
	if err != nil {
		t.log.Failure(ctx, "Savings completion rejected", err, log.FieldUserID, userID, log.FieldPlanID, planID)
		return err
	}
	t.committed(ctx, w)
	t.log.InfoContext(ctx, "Savings plan completed",
		log.FieldUserID, userID, log.FieldPlanID, planID, log.FieldAmount, payout.String())
	return nil
}

// DeleteSavingsPlan removes a plan. A plan still holding money needs a refund
// card, which receives the balance as savings_return before the plan goes.
func (t *Transfers) DeleteSavingsPlan(ctx context.Context, planID int64, refundCardID *int64) error {
	w := written{}
	err := t.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		plan, err := q.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		refunded := decimal.Zero
		if plan.CurrentAmount.IsPositive() {
			if refundCardID == nil {
				return core.Invalid("refund_card_id",
					fmt.Sprintf("plan still holds %s, choose a card for the refund", core.FormatMoney(plan.CurrentAmount)))
			}
			card, err := loadCard(ctx, q, *refundCardID, plan.UserID, "refund card not found")
			if err != nil {
				return err
			}
			refunded = plan.CurrentAmount
			if err := q.SetCardBalance(ctx, card.ID, card.Balance.Add(refunded)); err != nil {
				return err
			}
			entryID, err := t.ledger.append(ctx, q, NewEntry{
				UserID: plan.UserID, Kind: core.KindSavingsReturn, Amount: refunded,
				Description: "Refund from deleted savings plan " + plan.Name, CardID: &card.ID,
			})
			if err != nil {
				return err
			}
			w.add(plan.UserID, entryID)
		}

		if err := q.DeletePlan(ctx, planID); err != nil {
			return err
		}
		w.touch(plan.UserID)
		_, err = q.InsertSavingsTransaction(ctx, core.SavingsTransaction{
			UserID: plan.UserID, PlanID: planID, Amount: refunded, Type: core.SavingsTxPlanDeleted,
			Description: "Savings plan deleted", CreatedAt: t.clock(),
		})
		return err
	})
	if err != nil {
		t.log.Failure(ctx, "Savings plan deletion rejected", err, log.FieldPlanID, planID)
		return err
	}
	t.committed(ctx, w)
	t.log.InfoContext(ctx, "Savings plan deleted", log.FieldPlanID, planID)
	return nil
}
