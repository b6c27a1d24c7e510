// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/credential"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/docstore"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/handler/dto"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/middleware"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/namespace"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/service"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidJSON        = "INVALID_JSON"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidUserID      = "INVALID_USER_ID"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeStorage            = "STORAGE_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// Handler serves the generic responses.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.NewError(code, message))
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid request body")
}

// handleServiceError maps service errors to HTTP responses. notFound is the
// message used for a missing record.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFound string) {
	var validation *service.ValidationError
	var storage *docstore.StorageError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, CodeValidation, validation.Message)
	case errors.Is(err, namespace.ErrInvalidUserID):
		writeError(w, http.StatusBadRequest, CodeInvalidUserID, "Invalid user id")
	case errors.Is(err, credential.ErrUsernameTaken):
		writeError(w, http.StatusConflict, CodeUsernameTaken, "username already exists")
	case errors.Is(err, credential.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, notFound)
	case errors.As(err, &storage):
		logger.Error("storage_error",
			slog.String("op", storage.Op),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, CodeStorage, "Storage error")
	default:
		logger.Error("internal_error",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, CodeInternal, "An internal error occurred")
	}
}
