package http

import (
	"errors"
	"net/http"
	"time"

	"tally/internal/core"
	"tally/internal/ledger"
)

// transactionRequest uses pointers so updates can send only the fields
// that change.
type transactionRequest struct {
	Date        *string     `json:"date"`
	Type        *string     `json:"type"`
	Amount      *core.Money `json:"amount"`
	Description *string     `json:"description"`
	CategoryID  *int64      `json:"categoryId"`
	AccountID   *int64      `json:"accountId"`
	ToAccountID *int64      `json:"toAccountId"`
	InvoiceName *string     `json:"invoiceName"`
}

// apply overlays the set fields onto t.
func (req transactionRequest) apply(t *core.Transaction) error {
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return errors.New("invalid date, expected YYYY-MM-DD or RFC 3339")
		}
		t.Date = d.UTC()
	}
	if req.Type != nil {
		t.Type = core.TransactionType(*req.Type)
	}
	if req.Amount != nil {
		t.Amount = *req.Amount
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.CategoryID != nil {
		t.CategoryID = *req.CategoryID
	}
	if req.AccountID != nil {
		t.AccountID = *req.AccountID
	}
	if req.ToAccountID != nil {
		t.ToAccountID = *req.ToAccountID
	}
	if req.InvoiceName != nil {
		t.InvoiceName = *req.InvoiceName
	}
	return nil
}

// transactionFilter builds the listing filter from query parameters:
// startDate, endDate, categoryId, accountId, type.
func transactionFilter(r *http.Request) (ledger.TransactionFilter, error) {
	var f ledger.TransactionFilter

	if v := r.URL.Query().Get("startDate"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, errors.New("invalid startDate")
		}
		f.StartDate = d
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return f, errors.New("invalid endDate")
		}
		f.EndDate = d
	}

	var err error
	if f.CategoryID, err = queryInt64(r, "categoryId"); err != nil {
		return f, err
	}
	if f.AccountID, err = queryInt64(r, "accountId"); err != nil {
		return f, err
	}

	if v := r.URL.Query().Get("type"); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			return f, errors.New("invalid type, expected expense, income or transfer")
		}
		f.Type = t
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.engine.Transactions(r.Context(), s.userID(r), filter)
	if err != nil {
		writeStoreError(w, r, err, "transactions")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, r, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}
	t, err := s.store.Transaction(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "transaction")
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t := core.Transaction{UserID: s.userID(r)}
	if err := req.apply(&t); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		if isValidationError(err) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeStoreError(w, r, err, "transaction")
		return
	}

	s.invalidateReports(created.UserID)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}

	existing, err := s.store.Transaction(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "transaction")
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.apply(&existing); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.transactions.Update(r.Context(), existing)
	if err != nil {
		if isValidationError(err) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeStoreError(w, r, err, "transaction")
		return
	}

	s.invalidateReports(updated.UserID)
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "transaction")
		return
	}
	s.invalidateReports(s.userID(r))
	w.WriteHeader(http.StatusNoContent)
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrMissingAccount),
		errors.Is(err, core.ErrMissingDestination),
		errors.Is(err, core.ErrSameAccount),
		errors.Is(err, core.ErrTransferCategory),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrLongDescription),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidYear):
		return true
	default:
		return false
	}
}
