package http

import (
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// periodReport adapts the analytics reads that take a period.
func periodReport[T any](s *Server, read func(*services.Analytics, *http.Request, core.Period) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period, err := queryPeriod(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data, err := read(s.svc.Analytics, r, period)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond(w, data)
	}
}

func (s *Server) routesAnalytics() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/summary": periodReport(s, func(a *services.Analytics, r *http.Request, p core.Period) (core.Summary, error) {
			return a.Summary(r.Context(), userID(r), p)
		}),
		"/categories": periodReport(s, func(a *services.Analytics, r *http.Request, p core.Period) ([]core.CategoryAmount, error) {
			return nonNil(a.CategoryBreakdown(r.Context(), userID(r), p))
		}),
		"/cards": periodReport(s, func(a *services.Analytics, r *http.Request, p core.Period) ([]core.CardFlow, error) {
			return nonNil(a.CardAnalytics(r.Context(), userID(r), p))
		}),
		"/dashboard": periodReport(s, func(a *services.Analytics, r *http.Request, p core.Period) (services.Dashboard, error) {
			return a.Dashboard(r.Context(), userID(r), p)
		}),
		"/budgets":  s.handleBudgets,
		"/monthly":  s.handleMonthly,
		"/insights": s.handleInsights,
	}
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := nonNil(s.svc.Analytics.BudgetProgress(r.Context(), userID(r)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, budgets)
}

// handleMonthly reads ?months=, defaulting to the dashboard width.
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	months := services.DashboardMonths
	if raw := strings.TrimSpace(r.URL.Query().Get("months")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, core.Invalid("months", "must be an integer"))
			return
		}
		months = n
	}
	monthly, err := s.svc.Analytics.MonthlyComparison(r.Context(), userID(r), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, monthly)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := nonNil(s.svc.Analytics.Insights(r.Context(), userID(r)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, insights)
}

// handleAudit reports stored amounts that disagree with their trails.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	savings, err := s.svc.Audit.CheckSavings(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	envelopes, err := s.svc.Audit.CheckEnvelopes(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	drift := append(savings, envelopes...)
	if drift == nil {
		drift = []services.Drift{}
	}
	respond(w, map[string]any{
		"consistent": len(drift) == 0,
		"drift":      drift,
	})
}

func nonNil[T any](items []T, err error) ([]T, error) {
	if items == nil && err == nil {
		items = []T{}
	}
	return items, err
}
