package http

import (
	"net/http"

	"tally/internal/core"
)

type budgetRequest struct {
	Month      *int        `json:"month"`
	Year       *int        `json:"year"`
	Amount     *core.Money `json:"amount"`
	CategoryID *int64      `json:"categoryId"`
}

func (req budgetRequest) apply(b *core.Budget) {
	if req.Month != nil {
		b.Month = *req.Month
	}
	if req.Year != nil {
		b.Year = *req.Year
	}
	if req.Amount != nil {
		b.Amount = *req.Amount
	}
	if req.CategoryID != nil {
		b.CategoryID = *req.CategoryID
	}
}

// handleListBudgets lists the user's budgets, optionally narrowed with
// month and year query parameters.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, _, err := queryInt(r, "month")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	year, _, err := queryInt(r, "year")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	budgets, err := s.store.Budgets(r.Context(), s.userID(r), month, year)
	if err != nil {
		writeStoreError(w, r, err, "budgets")
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, r, http.StatusOK, budgets)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid budget id")
		return
	}
	budget, err := s.store.Budget(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	writeJSON(w, r, http.StatusOK, budget)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	b := core.Budget{UserID: s.userID(r)}
	req.apply(&b)
	if err := b.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.CreateBudget(r.Context(), b)
	if err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	s.invalidateReports(created.UserID)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid budget id")
		return
	}

	existing, err := s.store.Budget(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.apply(&existing)
	if err := existing.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.store.UpdateBudget(r.Context(), existing)
	if err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	s.invalidateReports(updated.UserID)
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid budget id")
		return
	}
	if err := s.store.DeleteBudget(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "budget")
		return
	}
	s.invalidateReports(s.userID(r))
	w.WriteHeader(http.StatusNoContent)
}
