package core

import "github.com/shopspring/decimal"

// Summary aggregates income and expenses over a period.
type Summary struct {
	Period              Period          `json:"period"`
	TotalIncome         decimal.Decimal `json:"total_income"`
	TotalExpenses       decimal.Decimal `json:"total_expenses"`
	NetBalance          decimal.Decimal `json:"net_balance"`
	AverageDailyExpense decimal.Decimal `json:"average_daily_expense"`
	TransactionCount    int             `json:"transaction_count"`
	TotalBalance        decimal.Decimal `json:"total_balance"`
	SavingsRate         decimal.Decimal `json:"savings_rate"`
	PeriodDays          int             `json:"period_days"`
}

// CategoryAmount represents expenses aggregated by heuristic category.
type CategoryAmount struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
	Color      Color           `json:"color"`
}

// CardFlow is the per-card income/expense split for a period.
type CardFlow struct {
	CardID   int64           `json:"card_id"`
	CardName string          `json:"card_name"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// BudgetProgress reports how far an envelope is into its limit.
type BudgetProgress struct {
	EnvelopeID   int64           `json:"envelope_id"`
	EnvelopeName string          `json:"envelope_name"`
	Spent        decimal.Decimal `json:"spent"`
	Limit        decimal.Decimal `json:"limit"`
	Percentage   decimal.Decimal `json:"percentage"`
	Remaining    decimal.Decimal `json:"remaining"`
	IsOverBudget bool            `json:"is_overbudget"`
}

// MonthComparison is one 30-day bucket of the month-over-month view.
type MonthComparison struct {
	MonthLabel string          `json:"month_label"`
	Income     decimal.Decimal `json:"income"`
	Expenses   decimal.Decimal `json:"expenses"`
	Savings    decimal.Decimal `json:"savings"`
}

// InsightRule identifies the rule that produced an insight.
type InsightRule string

const (
	InsightBudgetCritical  InsightRule = "budget_critical"
	InsightBudgetWarning   InsightRule = "budget_warning"
	InsightExpenseGrowth   InsightRule = "expense_growth"
	InsightMonthProjection InsightRule = "month_projection"
	InsightSavingsRateGood InsightRule = "savings_rate_good"
	InsightSavingsRateLow  InsightRule = "savings_rate_low"
)

// Insight is a templated message plus the parameters it was rendered from.
type Insight struct {
	Rule    InsightRule       `json:"rule"`
	Params  map[string]string `json:"params"`
	Message string            `json:"message"`
}

// SavingsOverview sums the active savings plans of a user.
type SavingsOverview struct {
	TotalSavings decimal.Decimal `json:"total_savings"`
	TotalTarget  decimal.Decimal `json:"total_target"`
	Progress     decimal.Decimal `json:"progress"`
	ActivePlans  int             `json:"active_plans"`
}

// EnvelopeStats summarises the deposit history of one envelope.
type EnvelopeStats struct {
	DepositCount   int             `json:"deposit_count"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	LastDepositAt  *string         `json:"last_deposit_at,omitempty"`
}
