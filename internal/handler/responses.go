package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/logger"
	"github.com/osse101/SmartList_Go/internal/session"
)

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse lists the offending fields of a rejected body
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	// Encode before writing headers so an encoding failure can still become a 500
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		http.Error(w, ErrMsgGenericServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs err and answers with its user-facing mapping
func respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := mapServiceErrorToUserMessage(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(LogMsgServiceError, "operation", op, "error", err)
	} else {
		log.Warn(LogMsgServiceError, "operation", op, "error", err)
	}
	respondError(w, status, msg)
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError    = "Something went wrong"
	ErrMsgUnknownError          = "Unknown error"
	ErrMsgNotLoggedInError      = "Sign in to use this feature"
	ErrMsgDailyLimitError       = "You've reached today's action limit"
	ErrMsgPurchasingUnavailable = "Purchasing is not available here"
	ErrMsgUnknownProductError   = "Unknown product"
	ErrMsgCheckoutDisabledError = "Web checkout is not available"
	ErrMsgInvalidIdentityError  = "Invalid identity"
	ErrMsgUnavailableError      = "Server is temporarily unavailable. Please try again later."
)

// mapServiceErrorToUserMessage maps domain errors to HTTP statuses and messages
// that users can act upon. Unknown errors never leak their text.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return http.StatusUnauthorized, ErrMsgNotLoggedInError
	case errors.Is(err, domain.ErrDailyLimitReached):
		return http.StatusTooManyRequests, ErrMsgDailyLimitError
	case errors.Is(err, domain.ErrPurchasingUnavailable), errors.Is(err, domain.ErrAuthorityNotConfigured):
		return http.StatusConflict, ErrMsgPurchasingUnavailable
	case errors.Is(err, domain.ErrUnknownProduct):
		return http.StatusBadRequest, ErrMsgUnknownProductError
	case errors.Is(err, domain.ErrCheckoutNotConfigured):
		return http.StatusServiceUnavailable, ErrMsgCheckoutDisabledError
	case errors.Is(err, domain.ErrInvalidIdentity):
		return http.StatusBadRequest, ErrMsgInvalidIdentityError
	case errors.Is(err, domain.ErrEngineClosed), errors.Is(err, session.ErrRegistryClosed):
		return http.StatusServiceUnavailable, ErrMsgUnavailableError
	case errors.Is(err, domain.ErrPurchaseFailed):
		return http.StatusBadGateway, ErrMsgPurchaseFailed
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
