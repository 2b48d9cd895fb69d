package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"users/internal/domain"
	"users/internal/observability/middleware"
)

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var unauthorized *domain.UnauthorizedError
	switch {
	case errors.As(err, &unauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: unauthorized.Reason})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "Unauthorized"})
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, errorBody{Message: "Email already exists"})
	case errors.Is(err, domain.ErrDuplicatePhone):
		writeJSON(w, http.StatusConflict, errorBody{Message: "Phone number already exists"})
	case errors.Is(err, domain.ErrCodeMismatch):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid activation code"})
	case errors.Is(err, domain.ErrInvalidToken):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid or expired activation token"})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	default:
		slog.Error("request failed", append(middleware.LogAttrs(r.Context()), "path", r.URL.Path, "error", err)...)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal server error"})
	}
}
