package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// maxBodyBytes bounds request bodies; large batches stay well below it.
const maxBodyBytes = 10 << 20

// Error codes returned in the error envelope.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeEmptyBatch         = "EMPTY_BATCH"
	CodeMissingEntity      = "MISSING_ENTITY"
	CodeInvalidEntryGroup  = "INVALID_ENTRY_GROUP"
	CodeReferenceChanged   = "REFERENCE_CHANGED"
	CodeBatchRolledBack    = "BATCH_ROLLED_BACK"
	CodeClientNotFound     = "CLIENT_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidTransition  = "INVALID_STATUS_TRANSITION"
	CodeConflict           = "CONFLICT"
	CodeRunInProgress      = "ACCRUAL_RUN_IN_PROGRESS"
	CodeInconsistentLedger = "INCONSISTENT_LEDGER"
	CodeInternal           = "INTERNAL_ERROR"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeData writes a success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dto.Envelope{Success: true, Data: data})
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, dto.Envelope{
		Success: false,
		Error:   &dto.ErrorBody{Code: code, Message: message, Details: details},
	})
}

// writeDomainError maps err and writes the matching error envelope. Internal
// errors are not echoed to the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := mapDomainError(err)

	var details any
	var batchErr *domain.BatchPostError
	if errors.As(err, &batchErr) {
		details = map[string]any{"failures": dto.GroupFailuresFromDomain(batchErr)}
	}
	var validationErr *dto.ValidationError
	if errors.As(err, &validationErr) {
		details = map[string]any{"fields": validationErr.Fields}
	}

	message := err.Error()
	if status == http.StatusInternalServerError && batchErr == nil {
		message = "internal server error"
	}
	writeError(w, status, code, message, details)
}

// mapDomainError maps domain errors to HTTP status codes and error codes.
func mapDomainError(err error) (int, string) {
	var validationErr *dto.ValidationError
	var batchErr *domain.BatchPostError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, domain.ErrEmptyBatch):
		return http.StatusBadRequest, CodeEmptyBatch
	case errors.Is(err, domain.ErrMissingEntity):
		return http.StatusBadRequest, CodeMissingEntity
	case errors.Is(err, domain.ErrMissingReversalDate),
		errors.Is(err, domain.ErrInvalidReportType),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidPeriodType),
		errors.Is(err, domain.ErrInvalidGroupName),
		errors.Is(err, domain.ErrInvalidCurrency):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.As(err, &batchErr):
		return mapBatchError(err)
	case errors.Is(err, domain.ErrClientNotFound):
		return http.StatusNotFound, CodeClientNotFound
	case errors.Is(err, domain.ErrJournalEntryNotFound),
		errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrScheduleNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrEntryImmutable):
		return http.StatusConflict, CodeInvalidTransition
	case errors.Is(err, domain.ErrUnbalancedEntry):
		return http.StatusUnprocessableEntity, CodeInvalidEntryGroup
	case errors.Is(err, domain.ErrDuplicateMember),
		errors.Is(err, domain.ErrAlreadyReversed):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, domain.ErrAccrualRunInProgress):
		return http.StatusConflict, CodeRunInProgress
	case errors.Is(err, usecase.ErrInconsistentLedger):
		return http.StatusConflict, CodeInconsistentLedger
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// mapBatchError classifies an aborted batch: a reference race is a conflict,
// a malformed group is the caller's fault, anything else is a storage failure.
func mapBatchError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrAccountInactive):
		return http.StatusConflict, CodeReferenceChanged
	case errors.Is(err, domain.ErrUnbalancedEntry),
		errors.Is(err, domain.ErrMissingEntryDate),
		errors.Is(err, domain.ErrEmptyEntryGroup),
		errors.Is(err, domain.ErrInvalidReversalDate):
		return http.StatusBadRequest, CodeInvalidEntryGroup
	default:
		return http.StatusInternalServerError, CodeBatchRolledBack
	}
}

// decodeJSON decodes and validates a request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &dto.ValidationError{Fields: []dto.FieldError{{Field: "body", Rule: "required"}}}
		}
		return &dto.ValidationError{Fields: []dto.FieldError{{Field: "body", Rule: err.Error()}}}
	}
	return dto.Validate(v)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseIDParam parses a positive int64 URL parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &dto.ValidationError{Fields: []dto.FieldError{{Field: name, Rule: fmt.Sprintf("positive integer, got %q", raw)}}}
	}
	return id, nil
}

func requestID(r *http.Request) string {
	return chimiddleware.GetReqID(r.Context())
}

// NotFound answers unmatched routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "route not found", nil)
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed", nil)
}
