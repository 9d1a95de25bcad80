package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

func entry(kind core.Kind, amount, desc string, at time.Time) core.LedgerEntry {
	return core.LedgerEntry{Kind: kind, Amount: dec(amount), Description: desc, CreatedAt: at}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	entries := []core.LedgerEntry{
		entry(core.KindIncome, "1000", "salary", now),
		entry(core.KindExpense, "150", "groceries", now),
		entry(core.KindTransferOut, "-50", "to savings card", now),
		entry(core.KindTransferIn, "50", "from main card", now),
		entry(core.KindCardCreation, "0", "card", now),
		entry(core.KindPlanCreated, "0", "plan", now),
	}

	s := summarize(entries, core.PeriodMonth, dec("1234.567"))
	requireDecimal(t, "1050", s.TotalIncome)
	requireDecimal(t, "200", s.TotalExpenses)
	requireDecimal(t, "850", s.NetBalance)
	requireDecimal(t, "6.67", s.AverageDailyExpense)
	requireDecimal(t, "1234.57", s.TotalBalance)
	requireDecimal(t, "81", s.SavingsRate)
	require.Equal(t, 4, s.TransactionCount)
	require.Equal(t, 30, s.PeriodDays)
}

func TestSummarize_Empty(t *testing.T) {
	s := summarize(nil, core.PeriodWeek, decimal.Zero)
	require.True(t, s.TotalIncome.IsZero())
	require.True(t, s.SavingsRate.IsZero())
	require.Zero(t, s.TransactionCount)
	require.Equal(t, 7, s.PeriodDays)
}

func TestBreakdown(t *testing.T) {
	now := time.Now()
	entries := []core.LedgerEntry{
		entry(core.KindExpense, "60", "Supermarket run", now),
		entry(core.KindExpense, "15", "Taxi home", now),
		entry(core.KindWithdrawal, "25", "misc", now),
		entry(core.KindIncome, "500", "salary", now),
	}
	got := breakdown(entries)
	require.Len(t, got, 3)
	require.Equal(t, CategoryFood, got[0].Name)
	requireDecimal(t, "60", got[0].Percentage)
	require.Equal(t, CategoryOther, got[1].Name)
	require.Equal(t, otherColor, got[1].Color)
	require.Equal(t, CategoryTransport, got[2].Name)
	requireDecimal(t, "15", got[2].Percentage)
}

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"Pizza night":      CategoryFood,
		"UBER to airport":  CategoryTransport,
		"Netflix":          CategoryEntertainment,
		"Rent for June":    CategoryBills,
		"New shoes":        CategoryShopping,
		"Оплата таксі":     CategoryTransport,
		"something random": CategoryOther,
		"":                 CategoryOther,
	}
	for desc, want := range tests {
		require.Equal(t, want, Categorize(desc), desc)
	}
}

func TestCompareMonths(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	entries := []core.LedgerEntry{
		entry(core.KindIncome, "100", "", now.Add(-time.Hour)),
		entry(core.KindExpense, "40", "", now),
		entry(core.KindExpense, "30", "", now.Add(-core.MonthStride)),
		entry(core.KindExpense, "10", "", now.Add(-core.MonthStride-time.Hour)),
		entry(core.KindCardCreation, "0", "", now.Add(-time.Hour)),
	}

	got := compareMonths(entries, now, 3)
	require.Len(t, got, 3)

	require.Equal(t, now.Add(-core.MonthStride).Format("Jan 2006"), got[2].MonthLabel)
	requireDecimal(t, "100", got[2].Income)
	requireDecimal(t, "40", got[2].Expenses)
	requireDecimal(t, "60", got[2].Savings)

	requireDecimal(t, "40", got[1].Expenses)
	requireDecimal(t, "-40", got[1].Savings)
	require.True(t, got[0].Expenses.IsZero())
}

func TestMonthlyComparison_Bounds(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "a@example.com")
	for _, months := range []int{0, -1, MaxComparisonMonths + 1} {
		_, err := f.Analytics.MonthlyComparison(context.Background(), uid, months)
		require.Equal(t, core.KindValidation, core.KindOf(err))
	}
}

func TestEvaluateInsights(t *testing.T) {
	envelopes := []core.Envelope{
		{Name: "Food", BudgetLimit: dec("100"), CurrentAmount: dec("95")},
		{Name: "Fun", BudgetLimit: dec("100"), CurrentAmount: dec("80")},
		{Name: "Misc", BudgetLimit: dec("100"), CurrentAmount: dec("10")},
		{Name: "Unlimited", CurrentAmount: dec("500")},
	}
	monthly := []core.MonthComparison{
		{Expenses: dec("100")},
		{Expenses: dec("150")},
	}
	month := core.Summary{
		TotalIncome:         dec("1000"),
		AverageDailyExpense: dec("5"),
		SavingsRate:         dec("25"),
	}

	got := evaluateInsights(envelopes, monthly, month)
	rules := make([]core.InsightRule, 0, len(got))
	for _, i := range got {
		rules = append(rules, i.Rule)
	}
	require.Equal(t, []core.InsightRule{
		core.InsightBudgetCritical,
		core.InsightBudgetWarning,
		core.InsightExpenseGrowth,
		core.InsightMonthProjection,
		core.InsightSavingsRateGood,
	}, rules)
	require.Equal(t, "Food", got[0].Params["envelope"])
	require.Equal(t, "50", got[2].Params["growth"])
	require.Equal(t, "150.00", got[3].Params["projection"])
	require.Contains(t, got[3].Message, "150.00")
}

func TestEvaluateInsights_QuietMonth(t *testing.T) {
	month := core.Summary{TotalIncome: dec("100"), SavingsRate: dec("5")}
	got := evaluateInsights(nil, []core.MonthComparison{{}, {Expenses: dec("10")}}, month)
	require.Len(t, got, 1)
	require.Equal(t, core.InsightSavingsRateLow, got[0].Rule)

	require.Empty(t, evaluateInsights(nil, nil, core.Summary{}))
}

func TestAnalytics_ReadsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid := f.user(t, "a@example.com")
	card := f.card(t, uid, "Main", "0")
	require.NoError(t, f.Accounts.AdjustBalance(ctx, card, dec("300"), "salary"))
	require.NoError(t, f.Accounts.AdjustBalance(ctx, card, dec("-45"), "restaurant dinner"))
	before := f.entries(t, uid)

	first, err := f.Analytics.Dashboard(ctx, uid, core.PeriodMonth)
	require.NoError(t, err)
	second, err := f.Analytics.Dashboard(ctx, uid, core.PeriodMonth)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, before, f.entries(t, uid))
	requireDecimal(t, "255", f.balance(t, card))

	requireDecimal(t, "300", first.Summary.TotalIncome)
	requireDecimal(t, "45", first.Summary.TotalExpenses)
	require.Equal(t, 2, first.Summary.TransactionCount)
	require.Len(t, first.Monthly, DashboardMonths)
	require.Len(t, first.Cards, 1)
	requireDecimal(t, "300", first.Cards[0].Income)
	requireDecimal(t, "45", first.Cards[0].Expenses)
	require.Equal(t, CategoryFood, first.Categories[0].Name)
}

func TestAnalytics_DashboardCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	dashboards := cache.NewLRUCache[Dashboard](16, time.Hour)
	f := newFixture(t, WithDashboardCache(dashboards))
	uid := f.user(t, "a@example.com")
	card := f.card(t, uid, "Main", "0")

	d, err := f.Analytics.Dashboard(ctx, uid, core.PeriodMonth)
	require.NoError(t, err)
	require.True(t, d.Summary.TotalIncome.IsZero())
	require.Equal(t, 1, dashboards.Size())

	require.NoError(t, f.Accounts.AdjustBalance(ctx, card, dec("80"), "gift"))
	require.Zero(t, dashboards.Size())

	d, err = f.Analytics.Dashboard(ctx, uid, core.PeriodMonth)
	require.NoError(t, err)
	requireDecimal(t, "80", d.Summary.TotalIncome)
}

func TestAnalytics_DashboardCacheInvalidatedByCardRename(t *testing.T) {
	ctx := context.Background()
	dashboards := cache.NewLRUCache[Dashboard](16, time.Hour)
	f := newFixture(t, WithDashboardCache(dashboards))
	uid := f.user(t, "a@example.com")
	card := f.card(t, uid, "Main", "0")
	require.NoError(t, f.Accounts.AdjustBalance(ctx, card, dec("50"), "salary"))

	d, err := f.Analytics.Dashboard(ctx, uid, core.PeriodMonth)
	require.NoError(t, err)
	require.Len(t, d.Cards, 1)
	require.Equal(t, "Main", d.Cards[0].CardName)

	renamed := "Renamed"
	require.NoError(t, f.Accounts.UpdateCardMetadata(ctx, card, core.CardUpdate{Name: &renamed}))
	require.Zero(t, dashboards.Size())

	d, err = f.Analytics.Dashboard(ctx, uid, core.PeriodMonth)
	require.NoError(t, err)
	require.Equal(t, "Renamed", d.Cards[0].CardName)
}
