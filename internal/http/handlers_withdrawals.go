package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cashrecon/internal/core"
)

func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))

	withdrawals, err := s.recon.Withdrawals(r.Context(), month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if withdrawals == nil {
		withdrawals = []core.BackSafeWithdrawal{}
	}
	respondJSON(w, http.StatusOK, withdrawals)
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	amount, err := req.Amount.StrictMoney()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	withdrawal, err := s.recon.CreateWithdrawal(r.Context(), amount, strings.TrimSpace(req.Reason))
	observeOperation("create_withdrawal", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	respondJSON(w, http.StatusCreated, withdrawal)
}

func (s *Server) handleUpdateWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req withdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	amount, err := req.Amount.StrictMoney()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	withdrawal, err := s.recon.UpdateWithdrawal(r.Context(), id, amount, strings.TrimSpace(req.Reason))
	observeOperation("update_withdrawal", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	respondJSON(w, http.StatusOK, withdrawal)
}

func (s *Server) handleDeleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.recon.DeleteWithdrawal(r.Context(), id)
	observeOperation("delete_withdrawal", err)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidateReads()
	w.WriteHeader(http.StatusNoContent)
}
