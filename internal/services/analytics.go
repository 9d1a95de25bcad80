package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Analytics computes read-only reports from the stores and the ledger.
type Analytics struct {
	*env
	log *log.Logger
}

// DashboardMonths is how many 30-day buckets the dashboard compares.
const DashboardMonths = 6

// MaxComparisonMonths bounds MonthlyComparison.
const MaxComparisonMonths = 60

// Dashboard bundles every report for one user and period.
type Dashboard struct {
	Summary    core.Summary           `json:"summary"`
	Categories []core.CategoryAmount  `json:"categories"`
	Cards      []core.CardFlow        `json:"cards"`
	Budgets    []core.BudgetProgress  `json:"budgets"`
	Monthly    []core.MonthComparison `json:"monthly"`
	Insights   []core.Insight         `json:"insights"`
	Savings    core.SavingsOverview   `json:"savings"`
}

func dashboardPrefix(userID int64) string {
	return fmt.Sprintf("dashboard:%d:", userID)
}

func (a *Analytics) entriesFor(ctx context.Context, userID int64, period core.Period, now time.Time) ([]core.LedgerEntry, error) {
	return a.store.Queries().ListEntriesInRange(ctx, userID, period.Since(now), now)
}

// Summary totals income and expenses over the period.
func (a *Analytics) Summary(ctx context.Context, userID int64, period core.Period) (core.Summary, error) {
	now := a.clock()
	entries, err := a.entriesFor(ctx, userID, period, now)
	if err != nil {
		return core.Summary{}, err
	}
	balance, err := a.store.Queries().TotalBalance(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	return summarize(entries, period, balance), nil
}

func summarize(entries []core.LedgerEntry, period core.Period, totalBalance decimal.Decimal) core.Summary {
	income, expenses := decimal.Zero, decimal.Zero
	count := 0
	for _, e := range entries {
		switch core.Classify(e.Kind) {
		case core.FlowIncome:
			income = income.Add(e.Amount.Abs())
			count++
		case core.FlowExpense:
			expenses = expenses.Add(e.Amount.Abs())
			count++
		}
	}
	income, expenses = core.RoundMoney(income), core.RoundMoney(expenses)
	net := income.Sub(expenses)
	days := period.Days()
	return core.Summary{
		Period:              period,
		TotalIncome:         income,
		TotalExpenses:       expenses,
		NetBalance:          net,
		AverageDailyExpense: core.RoundMoney(expenses.Div(decimal.NewFromInt(int64(days)))),
		TransactionCount:    count,
		TotalBalance:        core.RoundMoney(totalBalance),
		SavingsRate:         core.Percent(net, income, 1),
		PeriodDays:          days,
	}
}

// CategoryBreakdown groups the period's expenses by keyword category.
func (a *Analytics) CategoryBreakdown(ctx context.Context, userID int64, period core.Period) ([]core.CategoryAmount, error) {
	entries, err := a.entriesFor(ctx, userID, period, a.clock())
	if err != nil {
		return nil, err
	}
	return breakdown(entries), nil
}

// CardAnalytics splits the period's flows per card. Entries of deleted cards
// are ignored.
func (a *Analytics) CardAnalytics(ctx context.Context, userID int64, period core.Period) ([]core.CardFlow, error) {
	cards, err := a.store.Queries().ListCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := a.entriesFor(ctx, userID, period, a.clock())
	if err != nil {
		return nil, err
	}

	flows := make([]core.CardFlow, len(cards))
	index := make(map[int64]int, len(cards))
	for i, c := range cards {
		flows[i] = core.CardFlow{CardID: c.ID, CardName: c.Name, Income: decimal.Zero, Expenses: decimal.Zero, Balance: c.Balance}
		index[c.ID] = i
	}
	for _, e := range entries {
		if e.CardID == nil {
			continue
		}
		i, ok := index[*e.CardID]
		if !ok {
			continue
		}
		switch core.Classify(e.Kind) {
		case core.FlowIncome:
			flows[i].Income = flows[i].Income.Add(e.Amount.Abs())
		case core.FlowExpense:
			flows[i].Expenses = flows[i].Expenses.Add(e.Amount.Abs())
		}
	}
	for i := range flows {
		flows[i].Income = core.RoundMoney(flows[i].Income)
		flows[i].Expenses = core.RoundMoney(flows[i].Expenses)
	}
	return flows, nil
}

// BudgetProgress reports every envelope against its limit.
func (a *Analytics) BudgetProgress(ctx context.Context, userID int64) ([]core.BudgetProgress, error) {
	envelopes, err := a.store.Queries().ListEnvelopes(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]core.BudgetProgress, 0, len(envelopes))
	for _, e := range envelopes {
		out = append(out, budgetProgress(e))
	}
	return out, nil
}

func budgetProgress(e core.Envelope) core.BudgetProgress {
	pct := decimal.Zero
	if e.BudgetLimit.IsPositive() {
		pct = core.Percent(e.CurrentAmount, e.BudgetLimit, 1)
	}
	return core.BudgetProgress{
		EnvelopeID:   e.ID,
		EnvelopeName: e.Name,
		Spent:        core.RoundMoney(e.CurrentAmount),
		Limit:        core.RoundMoney(e.BudgetLimit),
		Percentage:   pct,
		Remaining:    core.RoundMoney(e.BudgetLimit.Sub(e.CurrentAmount)),
		IsOverBudget: pct.GreaterThan(decimal.NewFromInt(100)),
	}
}

// MonthlyComparison walks back months buckets of 30 days from now and
// returns them oldest first. Buckets approximate months; they do not follow
// calendar boundaries.
func (a *Analytics) MonthlyComparison(ctx context.Context, userID int64, months int) ([]core.MonthComparison, error) {
	if months < 1 || months > MaxComparisonMonths {
		return nil, core.Invalid("months", fmt.Sprintf("must be between 1 and %d", MaxComparisonMonths))
	}
	now := a.clock()
	start := now.Add(-time.Duration(months) * core.MonthStride)
	entries, err := a.store.Queries().ListEntriesInRange(ctx, userID, start, now)
	if err != nil {
		return nil, err
	}
	return compareMonths(entries, now, months), nil
}

func compareMonths(entries []core.LedgerEntry, now time.Time, months int) []core.MonthComparison {
	out := make([]core.MonthComparison, months)
	for i := 0; i < months; i++ {
		// out is filled from the newest bucket at the end backwards.
		end := now.Add(-time.Duration(i) * core.MonthStride)
		start := end.Add(-core.MonthStride)
		income, expenses := decimal.Zero, decimal.Zero
		for _, e := range entries {
			if !e.CreatedAt.After(start) || e.CreatedAt.After(end) {
				continue
			}
			switch core.Classify(e.Kind) {
			case core.FlowIncome:
				income = income.Add(e.Amount.Abs())
			case core.FlowExpense:
				expenses = expenses.Add(e.Amount.Abs())
			}
		}
		income, expenses = core.RoundMoney(income), core.RoundMoney(expenses)
		out[months-1-i] = core.MonthComparison{
			MonthLabel: start.Format("Jan 2006"),
			Income:     income,
			Expenses:   expenses,
			Savings:    income.Sub(expenses),
		}
	}
	return out
}

// Dashboard computes every report concurrently. Results are cached per user
// and period until the next change for that user.
func (a *Analytics) Dashboard(ctx context.Context, userID int64, period core.Period) (Dashboard, error) {
	key := dashboardPrefix(userID) + string(period)
	if a.dashboards != nil {
		if d, ok := a.dashboards.Get(key); ok {
			return d, nil
		}
	}

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Summary, err = a.Summary(gctx, userID, period)
		return err
	})
	g.Go(func() (err error) {
		d.Categories, err = a.CategoryBreakdown(gctx, userID, period)
		return err
	})
	g.Go(func() (err error) {
		d.Cards, err = a.CardAnalytics(gctx, userID, period)
		return err
	})
	g.Go(func() (err error) {
		d.Budgets, err = a.BudgetProgress(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Monthly, err = a.MonthlyComparison(gctx, userID, DashboardMonths)
		return err
	})
	g.Go(func() (err error) {
		d.Insights, err = a.Insights(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Savings, err = savingsOverview(gctx, a.store, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Failure(ctx, "Failed to build dashboard", err, log.FieldUserID, userID, log.FieldPeriod, period)
		return Dashboard{}, err
	}

	if a.dashboards != nil {
		a.dashboards.Set(key, d)
	}
	return d, nil
}
