package http

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Server) handleListEnvelopes(w http.ResponseWriter, r *http.Request) {
	envelopes, err := s.svc.Envelopes.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, mapSlice(envelopes, toEnvelope))
}

func (s *Server) handleCreateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req envelopeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.svc.Envelopes.Create(r.Context(), userID(r), sanitizeInput(req.Name), req.Color, req.BudgetLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	envelope, err := s.svc.Envelopes.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondCreated(w, "Envelope created", toEnvelope(envelope))
}

func (s *Server) handleDefaultEnvelopes(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Envelopes.EnsureDefaults(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, map[string]int{"created": n})
}

func (s *Server) ownedEnvelope(r *http.Request) (core.Envelope, error) {
	id, err := pathID(r, "envelopeID")
	if err != nil {
		return core.Envelope{}, err
	}
	return s.svc.Envelopes.Get(r.Context(), userID(r), id)
}

func (s *Server) handleGetEnvelope(w http.ResponseWriter, r *http.Request) {
	envelope, err := s.ownedEnvelope(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toEnvelope(envelope))
}

// handleUpdateEnvelope keeps the stored colour when none is sent.
func (s *Server) handleUpdateEnvelope(w http.ResponseWriter, r *http.Request) {
	envelope, err := s.ownedEnvelope(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req envelopeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	color := envelope.Color
	if req.Color != nil {
		color = *req.Color
	}
	if err := s.svc.Envelopes.Update(r.Context(), userID(r), envelope.ID, sanitizeInput(req.Name), color, req.BudgetLimit); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.svc.Envelopes.Get(r.Context(), userID(r), envelope.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toEnvelope(updated))
}

func (s *Server) handleDeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "envelopeID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Envelopes.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondDone(w, "Envelope deleted")
}

func (s *Server) handleEnvelopeDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "envelopeID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req envelopeDepositRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err = s.svc.Transfers.DepositToEnvelope(r.Context(), userID(r), id, req.Amount, sanitizeInput(req.Description), req.CardID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	envelope, err := s.svc.Envelopes.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toEnvelope(envelope))
}

func (s *Server) handleEnvelopeTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "envelopeID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Envelopes.Transactions(r.Context(), userID(r), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, mapSlice(txs, func(t core.EnvelopeTransaction) envelopeTxDTO {
		return envelopeTxDTO{
			ID:          t.ID,
			CardID:      t.CardID,
			Amount:      t.Amount,
			Description: t.Description,
			CreatedAt:   t.CreatedAt.UTC().Format(storage.TimestampLayout),
		}
	}))
}

func (s *Server) handleEnvelopeStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "envelopeID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := s.svc.Envelopes.Stats(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, stats)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.svc.Savings.ListPlans(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, mapSlice(plans, toPlan))
}

func (s *Server) handleSavingsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.svc.Savings.Overview(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, overview)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	deadline, err := core.ParseDeadline(req.Deadline)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.svc.Savings.CreatePlan(r.Context(), userID(r), sanitizeInput(req.Name), req.TargetAmount, deadline)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondPlan(w, r, id, http.StatusCreated, "Savings plan created")
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "planID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondPlan(w, r, id, http.StatusOK, "")
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "planID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req planRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	deadline, err := core.ParseDeadline(req.Deadline)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Savings.UpdatePlan(r.Context(), userID(r), id, sanitizeInput(req.Name), req.TargetAmount, deadline); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondPlan(w, r, id, http.StatusOK, "Savings plan updated")
}

// handleDeletePlan refunds to ?refund_card= when the plan still holds money.
func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "planID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.svc.Savings.GetPlan(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	var refund *int64
	if raw := r.URL.Query().Get("refund_card"); raw != "" {
		cardID, err := parseID("refund_card", raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.ownedCardAs(r, cardID, "refund card not found"); err != nil {
			writeError(w, r, err)
			return
		}
		refund = &cardID
	}
	if err := s.svc.Transfers.DeleteSavingsPlan(r.Context(), id, refund); err != nil {
		writeError(w, r, err)
		return
	}
	respondDone(w, "Savings plan deleted")
}

func (s *Server) handlePlanTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "planID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Savings.PlanTransactions(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, mapSlice(txs, func(t core.SavingsTransaction) savingsTxDTO {
		return savingsTxDTO{
			ID:          t.ID,
			Amount:      t.Amount,
			Type:        t.Type,
			Description: t.Description,
			CreatedAt:   t.CreatedAt.UTC().Format(storage.TimestampLayout),
		}
	}))
}

func (s *Server) handlePlanContribute(w http.ResponseWriter, r *http.Request) {
	s.planMove(w, r, "Contribution recorded", s.svc.Transfers.ContributeToSavingsPlan)
}

func (s *Server) handlePlanWithdraw(w http.ResponseWriter, r *http.Request) {
	s.planMove(w, r, "Withdrawal recorded", s.svc.Transfers.WithdrawFromSavingsPlan)
}

func (s *Server) planMove(w http.ResponseWriter, r *http.Request, message string, op planOp) {
	id, err := pathID(r, "planID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req planMoveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := op(r.Context(), userID(r), id, req.Amount, req.CardID); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondPlan(w, r, id, http.StatusOK, message)
}

func (s *Server) handlePlanComplete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "planID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req cardRefRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transfers.CompleteSavingsPlan(r.Context(), userID(r), id, req.CardID); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondPlan(w, r, id, http.StatusOK, "Savings plan completed")
}

func (s *Server) respondPlan(w http.ResponseWriter, r *http.Request, planID int64, status int, message string) {
	plan, err := s.svc.Savings.GetPlan(r.Context(), userID(r), planID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: toPlan(plan)})
}

type planOp func(ctx context.Context, userID, planID int64, amount decimal.Decimal, cardID int64) error
