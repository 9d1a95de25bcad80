package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Insight thresholds, in percent.
var (
	budgetCriticalPct = decimal.NewFromInt(90)
	budgetWarningPct  = decimal.NewFromInt(75)
	expenseGrowthPct  = decimal.NewFromInt(20)
	goodSavingsPct    = decimal.NewFromInt(20)
	lowSavingsPct     = decimal.NewFromInt(10)
	projectionDays    = decimal.NewFromInt(30)
)

var insightTemplates = map[core.InsightRule]string{
	core.InsightBudgetCritical:  "Envelope %q has used %s%% of its budget",
	core.InsightBudgetWarning:   "Envelope %q is at %s%% of its budget",
	core.InsightExpenseGrowth:   "Expenses grew by %s%% compared to the previous month",
	core.InsightMonthProjection: "At the current pace you will spend about %s this month",
	core.InsightSavingsRateGood: "Great job, you are saving %s%% of your income",
	core.InsightSavingsRateLow:  "You are saving %s%% of your income, try to keep it above 10%%",
}

func newInsight(rule core.InsightRule, params map[string]string, args ...any) core.Insight {
	return core.Insight{Rule: rule, Params: params, Message: fmt.Sprintf(insightTemplates[rule], args...)}
}

// Insights evaluates the rule set over the last month.
func (a *Analytics) Insights(ctx context.Context, userID int64) ([]core.Insight, error) {
	envelopes, err := a.store.Queries().ListEnvelopes(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := a.clock()
	monthly, err := a.MonthlyComparison(ctx, userID, 2)
	if err != nil {
		return nil, err
	}
	entries, err := a.entriesFor(ctx, userID, core.PeriodMonth, now)
	if err != nil {
		return nil, err
	}
	month := summarize(entries, core.PeriodMonth, decimal.Zero)
	return evaluateInsights(envelopes, monthly, month), nil
}

// evaluateInsights applies the budget, growth, projection and savings rate
// rules. monthly holds the previous and the current 30-day bucket.
func evaluateInsights(envelopes []core.Envelope, monthly []core.MonthComparison, month core.Summary) []core.Insight {
	var out []core.Insight

	for _, e := range envelopes {
		if !e.BudgetLimit.IsPositive() {
			continue
		}
		p := budgetProgress(e)
		params := map[string]string{"envelope": e.Name, "percentage": p.Percentage.String()}
		switch {
		case p.Percentage.GreaterThan(budgetCriticalPct):
			out = append(out, newInsight(core.InsightBudgetCritical, params, e.Name, p.Percentage.String()))
		case p.Percentage.GreaterThan(budgetWarningPct):
			out = append(out, newInsight(core.InsightBudgetWarning, params, e.Name, p.Percentage.String()))
		}
	}

	if len(monthly) == 2 {
		prev, cur := monthly[0].Expenses, monthly[1].Expenses
		if prev.IsPositive() {
			growth := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1)
			if growth.GreaterThan(expenseGrowthPct) {
				out = append(out, newInsight(core.InsightExpenseGrowth,
					map[string]string{"growth": growth.String()}, growth.String()))
			}
		}
	}

	if month.AverageDailyExpense.IsPositive() {
		projection := core.RoundMoney(month.AverageDailyExpense.Mul(projectionDays))
		out = append(out, newInsight(core.InsightMonthProjection, map[string]string{
			"projection":    core.FormatMoney(projection),
			"daily_average": core.FormatMoney(month.AverageDailyExpense),
		}, core.FormatMoney(projection)))
	}

	if month.TotalIncome.IsPositive() {
		rate := month.SavingsRate.String()
		switch {
		case month.SavingsRate.GreaterThan(goodSavingsPct):
			out = append(out, newInsight(core.InsightSavingsRateGood, map[string]string{"savings_rate": rate}, rate))
		case month.SavingsRate.LessThan(lowSavingsPct):
			out = append(out, newInsight(core.InsightSavingsRateLow, map[string]string{"savings_rate": rate}, rate))
		}
	}
	return out
}
