package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"docquery/internal/contextutil"
	"docquery/internal/errs"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// writeServiceError maps service errors to HTTP status codes using the error
// taxonomy: validation failures are client errors, misconfiguration is a
// server error, and upstream dependency failures are a bad gateway.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case errs.IsValidation(err):
		logger.WarnContext(ctx, "request validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
	case errs.IsConfig(err):
		logger.ErrorContext(ctx, "configuration error", "error", err)
		writeError(w, http.StatusInternalServerError, "Service misconfigured")
	case errs.IsUpstream(err):
		logger.ErrorContext(ctx, "upstream service error", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		logger.ErrorContext(ctx, "internal error", "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}

// writeJSON writes a JSON success response.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
