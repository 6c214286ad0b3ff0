package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tally/internal/core"
)

// reportPeriod reads the optional month and year query parameters.
// They come as a pair; one without the other is an error.
func reportPeriod(r *http.Request) (*core.Period, error) {
	month, hasMonth, err := queryInt(r, "month")
	if err != nil {
		return nil, err
	}
	year, hasYear, err := queryInt(r, "year")
	if err != nil {
		return nil, err
	}
	if hasMonth != hasYear {
		return nil, fmt.Errorf("month and year must be provided together")
	}
	if !hasMonth {
		return nil, nil
	}
	p := core.Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func periodKey(p *core.Period) string {
	if p == nil {
		return "all"
	}
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

// serveCachedReport answers from the report cache or computes, caches
// and serves the aggregate.
func (s *Server) serveCachedReport(w http.ResponseWriter, r *http.Request, key string, compute func() (any, error)) {
	if body, ok := s.reportCache.Get(key); ok {
		slog.DebugContext(r.Context(), "report cache hit", "key", key)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	v, err := compute()
	if err != nil {
		writeStoreError(w, r, err, "report")
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode report", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.reportCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleFinancialSummary(w http.ResponseWriter, r *http.Request) {
	p, err := reportPeriod(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID := s.userID(r)

	key := fmt.Sprintf("user:%d:summary:%s", userID, periodKey(p))
	s.serveCachedReport(w, r, key, func() (any, error) {
		return s.engine.FinancialSummary(r.Context(), userID, p)
	})
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	p, err := reportPeriod(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID := s.userID(r)

	key := fmt.Sprintf("user:%d:by-category:%s", userID, periodKey(p))
	s.serveCachedReport(w, r, key, func() (any, error) {
		rows, err := s.engine.ExpensesByCategory(r.Context(), userID, p)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []core.CategoryExpense{}
		}
		return rows, nil
	})
}

// handleMonthlyOverview defaults to the current month when no period
// is given.
func (s *Server) handleMonthlyOverview(w http.ResponseWriter, r *http.Request) {
	p, err := reportPeriod(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if p == nil {
		now := time.Now().UTC()
		p = &core.Period{Month: int(now.Month()), Year: now.Year()}
	}
	userID := s.userID(r)

	key := fmt.Sprintf("user:%d:overview:%s", userID, periodKey(p))
	s.serveCachedReport(w, r, key, func() (any, error) {
		return s.engine.MonthlyOverview(r.Context(), userID, *p)
	})
}
