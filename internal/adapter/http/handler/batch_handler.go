package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// BatchValidator defines the validation behavior needed by BatchHandler.
type BatchValidator interface {
	Validate(ctx context.Context, input usecase.ValidateBatchInput) (*domain.BatchValidationResult, error)
}

// BatchPoster defines the posting behavior needed by BatchHandler.
type BatchPoster interface {
	Post(ctx context.Context, input usecase.PostBatchInput) (*usecase.PostBatchResult, error)
}

// BatchHandler handles batch validation and posting.
type BatchHandler struct {
	validator BatchValidator
	poster    BatchPoster
	logger    zerolog.Logger
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(validator BatchValidator, poster BatchPoster, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{validator: validator, poster: poster, logger: logger}
}

// Validate annotates a proposed batch. Content problems are returned with
// 200; only an unknown client or a reference read failure is an error.
func (h *BatchHandler) Validate(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(r, "clientId")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req dto.ValidateBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.validator.Validate(r.Context(), req.ToUseCaseInput(clientID))
	if err != nil {
		h.logFailure(r, err, clientID, "batch validation failed")
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.ValidationResultFromDomain(result))
}

// Process posts approved groups in one transaction.
func (h *BatchHandler) Process(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(r, "clientId")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req dto.ProcessBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.poster.Post(r.Context(), req.ToUseCaseInput(clientID, requestID(r)))
	if err != nil {
		h.logFailure(r, err, clientID, "batch posting failed")
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.ProcessBatchFromResult(result))
}

func (h *BatchHandler) logFailure(r *http.Request, err error, clientID int64, msg string) {
	if status, _ := mapDomainError(err); status < http.StatusInternalServerError {
		return
	}
	h.logger.Error().Err(err).
		Int64("client_id", clientID).
		Str("request_id", requestID(r)).
		Msg(msg)
}
