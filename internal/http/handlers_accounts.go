package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.svc.Users.Register(r.Context(), sanitizeInput(req.Username), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.svc.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondCreated(w, "Registration successful", toUser(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.svc.Users.Authenticate(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toUser(user))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Users.Get(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toUser(user))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.svc.Accounts.ListCards(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := s.svc.Accounts.TotalBalance(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, map[string]any{
		"cards":         mapSlice(cards, toCard),
		"total_balance": total,
	})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.svc.Accounts.CreateCard(r.Context(), services.NewCard{
		UserID:         userID(r),
		Name:           sanitizeInput(req.Name),
		Number:         sanitizeInput(req.Number),
		Bank:           sanitizeInput(req.Bank),
		InitialBalance: req.InitialBalance,
		Color:          req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	card, err := s.svc.Accounts.GetCard(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondCreated(w, "Card created", toCard(card))
}

// ownedCard loads the card named by the {cardID} path parameter.
func (s *Server) ownedCard(r *http.Request) (core.Card, error) {
	id, err := pathID(r, "cardID")
	if err != nil {
		return core.Card{}, err
	}
	return s.svc.Accounts.OwnedCard(r.Context(), userID(r), id)
}

// ownedCardAs checks ownership of id and rewords a miss with message.
func (s *Server) ownedCardAs(r *http.Request, id int64, message string) error {
	_, err := s.svc.Accounts.OwnedCard(r.Context(), userID(r), id)
	if errors.Is(err, core.ErrNotFound) {
		return &core.NotFoundError{Entity: "card", ID: id, Message: message}
	}
	return err
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.ownedCard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toCard(card))
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.ownedCard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateCardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err = s.svc.Accounts.UpdateCardMetadata(r.Context(), card.ID, core.CardUpdate{
		Name:   sanitizePtr(req.Name),
		Number: sanitizePtr(req.Number),
		Bank:   sanitizePtr(req.Bank),
		Color:  req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.svc.Accounts.GetCard(r.Context(), card.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toCard(updated))
}

func (s *Server) handleAdjustCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.ownedCard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req adjustBalanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Accounts.AdjustBalance(r.Context(), card.ID, req.Delta, sanitizeInput(req.Description)); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.svc.Accounts.GetCard(r.Context(), card.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toCard(updated))
}

// handleDeleteCard accepts an optional ?move_to= card that receives the
// remaining balance.
func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.ownedCard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var moveTo *int64
	if raw := r.URL.Query().Get("move_to"); raw != "" {
		id, err := parseID("move_to", raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.ownedCardAs(r, id, "target card not found"); err != nil {
			writeError(w, r, err)
			return
		}
		moveTo = &id
	}
	if err := s.svc.Accounts.DeleteCard(r.Context(), card.ID, moveTo); err != nil {
		writeError(w, r, err)
		return
	}
	respondDone(w, "Card deleted")
}

func (s *Server) handleCardEntries(w http.ResponseWriter, r *http.Request) {
	card, err := s.ownedCard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.svc.Ledger.ListForCard(r.Context(), card.ID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, mapSlice(entries, toEntry))
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.svc.Wallets.Get(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, walletDTO{Balance: wallet.Balance})
}

func (s *Server) handleWalletDeposit(w http.ResponseWriter, r *http.Request) {
	s.walletChange(w, r, s.svc.Wallets.Deposit)
}

func (s *Server) handleWalletWithdraw(w http.ResponseWriter, r *http.Request) {
	s.walletChange(w, r, s.svc.Wallets.Withdraw)
}

func (s *Server) walletChange(w http.ResponseWriter, r *http.Request, op walletOp) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := op(r.Context(), userID(r), req.Amount, sanitizeInput(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, walletDTO{Balance: balance})
}

type walletOp func(ctx context.Context, userID int64, amount decimal.Decimal, description string) (decimal.Decimal, error)
