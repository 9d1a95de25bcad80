package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
)

// DeadlineLayout is the storage and wire format of savings plan deadlines.
const DeadlineLayout = "2006-01-02"

type (
	PlanStatus string

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Card is a balance-bearing account owned by one user.
	Card struct {
		ID      int64
		UserID  int64
		Name    string
		Number  string
		Bank    string
		Balance decimal.Decimal
		Color   Color
	}

	// CardUpdate carries the metadata fields to change. Nil fields are left alone.
	CardUpdate struct {
		Name   *string
		Number *string
		Bank   *string
		Color  *Color
	}

	// Wallet is the legacy single-balance account kept for old databases.
	Wallet struct {
		ID      int64
		UserID  int64
		Balance decimal.Decimal
	}

	// Envelope is a budget bucket. A zero BudgetLimit means no limit is tracked.
	Envelope struct {
		ID            int64
		UserID        int64
		Name          string
		Color         Color
		BudgetLimit   decimal.Decimal
		CurrentAmount decimal.Decimal
		CreatedAt     time.Time
	}

	EnvelopeTransaction struct {
		ID          int64
		UserID      int64
		EnvelopeID  int64
		CardID      *int64
		Amount      decimal.Decimal
		Description string
		CreatedAt   time.Time
	}

	SavingsPlan struct {
		ID            int64
		UserID        int64
		Name          string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      *time.Time
		Status        PlanStatus
		CreatedAt     time.Time
	}

	SavingsTransaction struct {
		ID          int64
		UserID      int64
		PlanID      int64
		Amount      decimal.Decimal
		Type        SavingsTxType
		Description string
		CreatedAt   time.Time
	}

	// LedgerEntry is one immutable financial event.
	LedgerEntry struct {
		ID          int64
		UserID      int64
		Kind        Kind
		Amount      decimal.Decimal
		Description string
		CardID      *int64
		CardName    string // filled by listing queries that join user_cards
		CreatedAt   time.Time
	}
)

// SavingsTxType tags rows of the per-plan audit trail.
type SavingsTxType string

const (
	SavingsTxDeposit       SavingsTxType = "deposit"
	SavingsTxWithdrawal    SavingsTxType = "withdrawal"
	SavingsTxPlanCreated   SavingsTxType = "plan_created"
	SavingsTxPlanUpdated   SavingsTxType = "plan_updated"
	SavingsTxPlanCompleted SavingsTxType = "plan_completed"
	SavingsTxPlanDeleted   SavingsTxType = "plan_deleted"
)

var (
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrShortPassword   = errors.New("password must be at least 6 characters")
	ErrInvalidDeadline = errors.New("invalid deadline, use YYYY-MM-DD")
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether the address has a plausible shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return ErrShortPassword
	}
	return nil
}

// ParseDeadline accepts an empty string (no deadline) or a YYYY-MM-DD date.
func ParseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DeadlineLayout, s)
	if err != nil {
		return nil, ErrInvalidDeadline
	}
	return &t, nil
}

// Progress returns current/target as a percentage, or zero for a zero target.
func (p SavingsPlan) Progress() decimal.Decimal {
	if !p.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	return p.CurrentAmount.Div(p.TargetAmount).Mul(hundred).Round(1)
}

// Remaining is how much can still be contributed before the target is reached.
func (p SavingsPlan) Remaining() decimal.Decimal {
	r := p.TargetAmount.Sub(p.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// DaysLeft counts whole days until the deadline, never negative. Plans without
// a deadline report zero.
func (p SavingsPlan) DaysLeft(now time.Time) int {
	if p.Deadline == nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d := p.Deadline.UTC()
	deadline := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	days := int(deadline.Sub(today).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func (s PlanStatus) Valid() bool {
	return s == PlanActive || s == PlanCompleted
}
