package http

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Amounts travel as decimal strings ("12.50") in both directions. Requests
// may also send plain JSON numbers.

type userDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUser(u core.User) userDTO {
	return userDTO{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type cardDTO struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Number  string          `json:"number,omitempty"`
	Bank    string          `json:"bank,omitempty"`
	Balance decimal.Decimal `json:"balance"`
	Color   core.Color      `json:"color"`
}

func toCard(c core.Card) cardDTO {
	return cardDTO{ID: c.ID, Name: c.Name, Number: c.Number, Bank: c.Bank, Balance: c.Balance, Color: c.Color}
}

type walletDTO struct {
	Balance decimal.Decimal `json:"balance"`
}

type envelopeDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Color         core.Color      `json:"color"`
	BudgetLimit   decimal.Decimal `json:"budget_limit"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	CreatedAt     string          `json:"created_at"`
}

func toEnvelope(e core.Envelope) envelopeDTO {
	return envelopeDTO{
		ID:            e.ID,
		Name:          e.Name,
		Color:         e.Color,
		BudgetLimit:   e.BudgetLimit,
		CurrentAmount: e.CurrentAmount,
		CreatedAt:     e.CreatedAt.UTC().Format(storage.TimestampLayout),
	}
}

type envelopeTxDTO struct {
	ID          int64           `json:"id"`
	CardID      *int64          `json:"card_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}

type planDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *string         `json:"deadline,omitempty"`
	Status        core.PlanStatus `json:"status"`
	Progress      decimal.Decimal `json:"progress"`
	Remaining     decimal.Decimal `json:"remaining"`
	DaysLeft      int             `json:"days_left"`
	CreatedAt     string          `json:"created_at"`
}

func toPlan(v services.PlanView) planDTO {
	dto := planDTO{
		ID:            v.ID,
		Name:          v.Name,
		TargetAmount:  v.TargetAmount,
		CurrentAmount: v.CurrentAmount,
		Status:        v.Status,
		Progress:      v.Progress,
		Remaining:     v.Remaining,
		DaysLeft:      v.DaysLeft,
		CreatedAt:     v.CreatedAt.UTC().Format(storage.TimestampLayout),
	}
	if v.Deadline != nil {
		d := v.Deadline.Format(core.DeadlineLayout)
		dto.Deadline = &d
	}
	return dto
}

type savingsTxDTO struct {
	ID          int64              `json:"id"`
	Amount      decimal.Decimal    `json:"amount"`
	Type        core.SavingsTxType `json:"type"`
	Description string             `json:"description"`
	CreatedAt   string             `json:"created_at"`
}

type entryDTO struct {
	ID          int64           `json:"id"`
	Type        core.Kind       `json:"type"`
	Flow        string          `json:"flow"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CardID      *int64          `json:"card_id,omitempty"`
	CardName    string          `json:"card_name,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

func toEntry(e core.LedgerEntry) entryDTO {
	return entryDTO{
		ID:          e.ID,
		Type:        e.Kind,
		Flow:        core.Classify(e.Kind).String(),
		Amount:      e.Amount,
		Description: e.Description,
		CardID:      e.CardID,
		CardName:    e.CardName,
		CreatedAt:   e.CreatedAt.UTC().Format(storage.TimestampLayout),
	}
}

// mapSlice converts a slice, always returning a non-nil result so empty
// lists encode as [].
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// Request bodies.

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createCardRequest struct {
	Name           string          `json:"name"`
	Number         string          `json:"number"`
	Bank           string          `json:"bank"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Color          *core.Color     `json:"color"`
}

type updateCardRequest struct {
	Name   *string     `json:"name"`
	Number *string     `json:"number"`
	Bank   *string     `json:"bank"`
	Color  *core.Color `json:"color"`
}

type adjustBalanceRequest struct {
	Delta       decimal.Decimal `json:"delta"`
	Description string          `json:"description"`
}

type amountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type transferRequest struct {
	FromCardID int64           `json:"from_card_id"`
	ToCardID   int64           `json:"to_card_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type envelopeRequest struct {
	Name        string          `json:"name"`
	Color       *core.Color     `json:"color"`
	BudgetLimit decimal.Decimal `json:"budget_limit"`
}

type envelopeDepositRequest struct {
	CardID      int64           `json:"card_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type planRequest struct {
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Deadline     string          `json:"deadline"`
}

type planMoveRequest struct {
	CardID int64           `json:"card_id"`
	Amount decimal.Decimal `json:"amount"`
}

type cardRefRequest struct {
	CardID int64 `json:"card_id"`
}

type entryRequest struct {
	Type        core.Kind       `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CardID      *int64          `json:"card_id"`
}
