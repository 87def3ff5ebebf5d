package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
)

// retryAfterSeconds is advertised on retryable conflicts.
const retryAfterSeconds = "1"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeDomainError maps err to a status and a stable code. Internal details
// are not exposed.
func writeDomainError(w http.ResponseWriter, err error) {
	status := mapDomainError(err)
	code := domain.ErrorCode(err)

	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		message = "internal server error"
	case http.StatusGatewayTimeout:
		code = "timeout"
		message = "transfer timed out, retry with the same idempotency key"
	}

	retryable := domain.IsRetryable(err)
	if retryable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}

	writeJSON(w, status, dto.ErrorResponse{
		Error:     code,
		Message:   message,
		Retryable: retryable,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSelfTransfer),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidOwnerID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIdempotencyConflict),
		errors.Is(err, domain.ErrIdempotencyInFlight),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery reads a non-negative integer query parameter, falling back
// to defaultValue when it is missing or malformed.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultValue
	}
	return i
}
