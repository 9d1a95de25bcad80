package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Savings owns savings plans. Money moves in and out through Transfers.
type Savings struct {
	*env
	log *log.Logger
}

// PlanView is a plan with the figures derived from it.
type PlanView struct {
	core.SavingsPlan
	Progress  decimal.Decimal
	Remaining decimal.Decimal
	DaysLeft  int
}

func (s *Savings) view(p core.SavingsPlan) PlanView {
	return PlanView{SavingsPlan: p, Progress: p.Progress(), Remaining: p.Remaining(), DaysLeft: p.DaysLeft(s.clock())}
}

func validatePlan(name string, target decimal.Decimal) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", core.ErrEmptyName
	}
	if err := core.ValidateAmount(target); err != nil {
		return "", core.Invalid("target_amount", "must be positive")
	}
	return name, nil
}

// CreatePlan adds an active plan with nothing saved yet.
func (s *Savings) CreatePlan(ctx context.Context, userID int64, name string, target decimal.Decimal, deadline *time.Time) (int64, error) {
	name, err := validatePlan(name, target)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		now := s.clock()
		var err error
		id, err = q.CreatePlan(ctx, core.SavingsPlan{
			UserID: userID, Name: name, TargetAmount: core.RoundMoney(target), Deadline: deadline, Status: core.PlanActive,
		}, now)
		if err != nil {
			return err
		}
		_, err = q.InsertSavingsTransaction(ctx, core.SavingsTransaction{
			UserID: userID, PlanID: id, Type: core.SavingsTxPlanCreated,
			Description: "Savings plan created: " + name, CreatedAt: now,
		})
		return err
	})
	if err != nil {
		s.log.Failure(ctx, "Failed to create savings plan", err, log.FieldUserID, userID)
		return 0, err
	}
	s.invalidate(userID)
	s.log.InfoContext(ctx, "Savings plan created", log.FieldUserID, userID, log.FieldPlanID, id)
	return id, nil
}

// UpdatePlan changes name, target and deadline. The target cannot drop
// below what is already saved.
func (s *Savings) UpdatePlan(ctx context.Context, userID, planID int64, name string, target decimal.Decimal, deadline *time.Time) error {
	name, err := validatePlan(name, target)
	if err != nil {
		return err
	}
	target = core.RoundMoney(target)

	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		plan, err := loadPlan(ctx, q, planID, userID)
		if err != nil {
			return err
		}
		if target.LessThan(plan.CurrentAmount) {
			return core.Invalid("target_amount", "must not be below the saved amount "+core.FormatMoney(plan.CurrentAmount))
		}
		now := s.clock()
		if err := q.UpdatePlanDetails(ctx, planID, name, target, deadline, now); err != nil {
			return err
		}
		_, err = q.InsertSavingsTransaction(ctx, core.SavingsTransaction{
			UserID: userID, PlanID: planID, Type: core.SavingsTxPlanUpdated,
			Description: "Savings plan updated", CreatedAt: now,
		})
		return err
	})
	if err != nil {
		s.log.Failure(ctx, "Failed to update savings plan", err, log.FieldPlanID, planID)
		return err
	}
	s.invalidate(userID)
	s.log.InfoContext(ctx, "Savings plan updated", log.FieldUserID, userID, log.FieldPlanID, planID)
	return nil
}

func (s *Savings) GetPlan(ctx context.Context, userID, planID int64) (PlanView, error) {
	p, err := s.store.Queries().GetPlan(ctx, planID)
	if err != nil {
		return PlanView{}, err
	}
	if err := ownedBy(p.UserID, userID, "savings plan", planID); err != nil {
		return PlanView{}, err
	}
	return s.view(p), nil
}

// ListPlans returns plans newest first.
func (s *Savings) ListPlans(ctx context.Context, userID int64) ([]PlanView, error) {
	plans, err := s.store.Queries().ListPlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, s.view(p))
	}
	return out, nil
}

// PlanTransactions returns the plan's audit trail, newest first. It is still
// readable after the plan is deleted.
func (s *Savings) PlanTransactions(ctx context.Context, userID, planID int64) ([]core.SavingsTransaction, error) {
	txs, err := s.store.Queries().ListSavingsTransactions(ctx, planID)
	if err != nil {
		return nil, err
	}
	out := txs[:0]
	for _, t := range txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Overview sums the user's active plans.
func (s *Savings) Overview(ctx context.Context, userID int64) (core.SavingsOverview, error) {
	return savingsOverview(ctx, s.store, userID)
}

func savingsOverview(ctx context.Context, store Store, userID int64) (core.SavingsOverview, error) {
	plans, err := store.Queries().ListPlans(ctx, userID)
	if err != nil {
		return core.SavingsOverview{}, err
	}
	o := core.SavingsOverview{TotalSavings: decimal.Zero, TotalTarget: decimal.Zero}
	for _, p := range plans {
		if p.Status != core.PlanActive {
			continue
		}
		o.ActivePlans++
		o.TotalSavings = o.TotalSavings.Add(p.CurrentAmount)
		o.TotalTarget = o.TotalTarget.Add(p.TargetAmount)
	}
	o.Progress = core.Percent(o.TotalSavings, o.TotalTarget, 1)
	return o, nil
}
