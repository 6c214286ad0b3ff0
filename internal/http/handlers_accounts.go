package http

import (
	"net/http"

	"tally/internal/core"
)

type accountRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.Accounts(r.Context(), s.userID(r))
	if err != nil {
		writeStoreError(w, r, err, "accounts")
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	writeJSON(w, r, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}
	account, err := s.store.Account(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "account")
		return
	}
	writeJSON(w, r, http.StatusOK, account)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	account := core.Account{Name: req.Name, UserID: s.userID(r)}
	if err := account.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.CreateAccount(r.Context(), account)
	if err != nil {
		writeStoreError(w, r, err, "account")
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}

	existing, err := s.store.Account(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "account")
		return
	}

	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if err := existing.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.store.UpdateAccount(r.Context(), existing)
	if err != nil {
		writeStoreError(w, r, err, "account")
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

// handleDeleteAccount removes the account; transactions that reference
// it are left untouched.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := s.store.DeleteAccount(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "account")
		return
	}
	s.invalidateReports(s.userID(r))
	w.WriteHeader(http.StatusNoContent)
}
