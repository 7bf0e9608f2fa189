package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
)

// Error codes written by middleware before a handler runs.
const (
	CodeRateLimited       = "RATE_LIMITED"
	CodeRequestInProgress = "REQUEST_IN_PROGRESS"
	CodeIdempotencyFailed = "IDEMPOTENCY_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.Envelope{
		Success: false,
		Error:   &dto.ErrorBody{Code: code, Message: message},
	})
}
