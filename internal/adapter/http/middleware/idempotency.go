package middleware

import (
	"context"
	"net/http"
	"unicode"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"

	// MaxIdempotencyKeyLength bounds the stored token.
	MaxIdempotencyKeyLength = 255

	idempotencyKeyContextKey ContextKey = "idempotency_key"
)

// IdempotencyKey validates the Idempotency-Key header of mutating requests and
// stores it in the request context. Deduplication itself happens in the
// transfer use case.
func IdempotencyKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !validIdempotencyKey(key) {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "malformed "+IdempotencyKeyHeader+" header")
			return
		}

		w.Header().Set(IdempotencyKeyHeader, key)
		ctx := context.WithValue(r.Context(), idempotencyKeyContextKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdempotencyKeyFromContext returns the validated key, or "" when none was sent.
func IdempotencyKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyContextKey).(string)
	return key
}

func validIdempotencyKey(key string) bool {
	if len(key) > MaxIdempotencyKeyLength {
		return false
	}
	for _, r := range key {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
