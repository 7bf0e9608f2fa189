package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
)

// AccrualProcessor runs the due accrual reversals.
type AccrualProcessor interface {
	ProcessDueAccrualReversals(ctx context.Context) (*domain.ReversalRunResult, error)
}

// AccrualHandler exposes a manual trigger for the reversal run.
type AccrualHandler struct {
	processor AccrualProcessor
	logger    zerolog.Logger
}

// NewAccrualHandler creates a new AccrualHandler.
func NewAccrualHandler(processor AccrualProcessor, logger zerolog.Logger) *AccrualHandler {
	return &AccrualHandler{processor: processor, logger: logger}
}

// Process runs one reversal pass. Per-row failures are counted, not errors.
func (h *AccrualHandler) Process(w http.ResponseWriter, r *http.Request) {
	result, err := h.processor.ProcessDueAccrualReversals(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(r)).Msg("manual accrual run failed")
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, dto.ReversalRunFromDomain(result))
}
