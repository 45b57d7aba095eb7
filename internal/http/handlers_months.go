package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashrecon/internal/core"
)

func (s *Server) handleAvailableMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.archive.AvailableMonths(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, months)
}

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")

	cacheKey := "view:" + month
	if view, ok := s.monthCache.Get(cacheKey); ok {
		observeCache("month_view", true)
		respondJSON(w, http.StatusOK, view)
		return
	}
	observeCache("month_view", false)

	view, err := s.archive.MonthView(r.Context(), month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	s.monthCache.Set(cacheKey, view)
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleStartingBalances(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")

	starting, err := s.archive.MonthStartingBalances(r.Context(), month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, starting)
}

func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")

	archive, err := s.archive.CloseMonth(r.Context(), month)
	observeOperation("close_month", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	respondJSON(w, http.StatusOK, archive)
}

func (s *Server) handleListArchives(w http.ResponseWriter, r *http.Request) {
	archives, err := s.archive.Archives(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if archives == nil {
		archives = []core.MonthlyArchive{}
	}
	respondJSON(w, http.StatusOK, archives)
}

func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")

	archive, err := s.archive.Archive(r.Context(), month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, archive)
}
