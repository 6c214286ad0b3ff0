package http

import (
	"net/http"

	"tally/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context(), s.userID(r))
	if err != nil {
		writeStoreError(w, r, err, "categories")
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, r, http.StatusOK, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid category id")
		return
	}
	category, err := s.store.Category(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "category")
		return
	}
	writeJSON(w, r, http.StatusOK, category)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	category := core.Category{Name: req.Name, UserID: s.userID(r)}
	if err := category.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.store.CreateCategory(r.Context(), category)
	if err != nil {
		writeStoreError(w, r, err, "category")
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid category id")
		return
	}

	existing, err := s.store.Category(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "category")
		return
	}

	var req categoryRequest
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

	updated, err := s.store.UpdateCategory(r.Context(), existing)
	if err != nil {
		writeStoreError(w, r, err, "category")
		return
	}
	// The breakdown shows current category names.
	s.invalidateReports(s.userID(r))
	writeJSON(w, r, http.StatusOK, updated)
}

// handleDeleteCategory removes the category. Expenses that pointed at
// it stay in the ledger and drop out of the per-category breakdown.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "category")
		return
	}
	s.invalidateReports(s.userID(r))
	w.WriteHeader(http.StatusNoContent)
}
