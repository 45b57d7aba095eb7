package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"cashrecon/internal/core"
	applog "cashrecon/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps domain sentinels to HTTP statuses: invalid input is 422,
// state conflicts are 409, missing records are 404. Anything else is a 500
// with the detail kept out of the response body.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrMissingDate),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidAmount):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrEmptyMonth),
		errors.Is(err, core.ErrEntryBalanced):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		applog.FromContext(ctx).ErrorContext(ctx, "Request failed", applog.FieldError, err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// clientIP trusts chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
