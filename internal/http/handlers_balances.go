package http

import (
	"net/http"
	"strings"

	"cashrecon/internal/core"
)

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.recon.Balances(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, balances)
}

func (s *Server) handleRebuildBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.recon.RebuildBalances(r.Context())
	observeOperation("rebuild_balances", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	respondJSON(w, http.StatusOK, balances)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filter := core.TimelineFilter{
		Month: strings.TrimSpace(r.URL.Query().Get("month")),
		Type:  core.TransactionType(strings.TrimSpace(r.URL.Query().Get("type"))),
	}
	if filter.Month != "" {
		if err := core.ValidateMonth(filter.Month); err != nil {
			respondError(r.Context(), w, err)
			return
		}
	}

	cacheKey := "timeline:" + filter.Month + ":" + string(filter.Type)
	if txs, ok := s.timelineCache.Get(cacheKey); ok {
		observeCache("timeline", true)
		respondJSON(w, http.StatusOK, txs)
		return
	}
	observeCache("timeline", false)

	txs, err := s.recon.Timeline(r.Context(), filter)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if txs == nil {
		txs = []core.BackSafeTransaction{}
	}
	s.timelineCache.Set(cacheKey, txs)
	respondJSON(w, http.StatusOK, txs)
}
