package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// rangeLayouts are accepted for ?start= and ?end=, most specific first.
var rangeLayouts = []string{time.RFC3339, storage.TimestampLayout, core.DeadlineLayout}

func parseRangeTime(field, raw string, endOfDay bool) (time.Time, error) {
	for _, layout := range rangeLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if layout == core.DeadlineLayout && endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t.UTC(), nil
	}
	return time.Time{}, core.Invalid(field, "use YYYY-MM-DD, YYYY-MM-DD HH:MM:SS or RFC 3339")
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ownedCardAs(r, req.FromCardID, "sender not found"); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ownedCardAs(r, req.ToCardID, "recipient not found"); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transfers.TransferBetweenCards(r.Context(), req.FromCardID, req.ToCardID, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	respondDone(w, "Transfer completed")
}

// handleListEntries serves the recent list, a date range (?start=&end=) or
// one kind (?type=).
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		entries []core.LedgerEntry
		err     error
	)
	switch {
	case q.Get("start") != "" || q.Get("end") != "":
		entries, err = s.entriesInRange(r, strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end")))
	case q.Get("type") != "":
		kind := core.ParseKind(strings.TrimSpace(q.Get("type")))
		if kind == core.KindUnknown {
			writeError(w, r, core.Invalid("type", "unknown transaction type"))
			return
		}
		var limit int
		if limit, err = queryLimit(r); err == nil {
			entries, err = s.svc.Ledger.ListByKind(r.Context(), userID(r), kind, limit)
		}
	default:
		var limit int
		if limit, err = queryLimit(r); err == nil {
			entries, err = s.svc.Ledger.ListRecent(r.Context(), userID(r), limit)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, mapSlice(entries, toEntry))
}

func (s *Server) entriesInRange(r *http.Request, rawStart, rawEnd string) ([]core.LedgerEntry, error) {
	if rawStart == "" || rawEnd == "" {
		return nil, core.Invalid("range", "start and end are both required")
	}
	start, err := parseRangeTime("start", rawStart, false)
	if err != nil {
		return nil, err
	}
	end, err := parseRangeTime("end", rawEnd, true)
	if err != nil {
		return nil, err
	}
	return s.svc.Ledger.ListInRange(r.Context(), userID(r), start, end)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "entryID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.svc.Ledger.Get(r.Context(), id)
	if err == nil && entry.UserID != userID(r) {
		err = core.NotFound("ledger entry", id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, toEntry(entry))
}

// handleAppendEntry records a manual entry. A card, when given, must belong
// to the user; its balance is not changed. Session markers are acknowledged
// and dropped.
func (s *Server) handleAppendEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CardID != nil {
		if err := s.ownedCardAs(r, *req.CardID, "card not found"); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Type.IsFinancial() {
		if err := core.ValidateAmount(req.Amount); err != nil {
			writeError(w, r, err)
			return
		}
	}
	id, err := s.svc.Ledger.Append(r.Context(), services.NewEntry{
		UserID:      userID(r),
		Kind:        req.Type,
		Amount:      req.Amount,
		Description: sanitizeInput(req.Description),
		CardID:      req.CardID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if id == 0 {
		respondDone(w, "Entry ignored")
		return
	}
	entry, err := s.svc.Ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondCreated(w, "Entry recorded", toEntry(entry))
}
