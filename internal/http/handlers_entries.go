package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cashrecon/internal/core"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	cacheKey := "entries:" + month

	if entries, ok := s.entriesCache.Get(cacheKey); ok {
		observeCache("entries", true)
		respondJSON(w, http.StatusOK, entries)
		return
	}
	observeCache("entries", false)

	entries, err := s.recon.Entries(r.Context(), month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if entries == nil {
		entries = []core.DailyEntry{}
	}
	s.entriesCache.Set(cacheKey, entries)
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSaveEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	entry, err := s.recon.SaveEntry(r.Context(), req.toEntry(), req.IsEditing)
	observeOperation("save_entry", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	status := http.StatusCreated
	if req.IsEditing {
		status = http.StatusOK
	}
	respondJSON(w, status, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.recon.DeleteEntry(r.Context(), id)
	observeOperation("delete_entry", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApproveEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req approvalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	entry, err := s.recon.ApproveEntry(r.Context(), id, strings.TrimSpace(req.Note))
	observeOperation("approve_entry", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleRemoveApproval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.recon.RemoveApproval(r.Context(), id)
	observeOperation("remove_approval", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	respondJSON(w, http.StatusOK, entry)
}
