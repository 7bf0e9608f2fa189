package handler

import (
	"context"
	"net/http"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
)

// ReferenceReader exposes the client's chart of accounts and dimensions.
type ReferenceReader interface {
	Exists(ctx context.Context, clientID int64) (bool, error)
	GetAccounts(ctx context.Context, clientID int64) ([]*domain.Account, error)
	GetDimensions(ctx context.Context, clientID int64) ([]*domain.Dimension, error)
}

// ReferenceHandler serves read-only reference data.
type ReferenceHandler struct {
	ref ReferenceReader
}

// NewReferenceHandler creates a new ReferenceHandler.
func NewReferenceHandler(ref ReferenceReader) *ReferenceHandler {
	return &ReferenceHandler{ref: ref}
}

// Accounts lists the client's accounts ordered by code.
func (h *ReferenceHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.client(w, r)
	if !ok {
		return
	}
	accounts, err := h.ref.GetAccounts(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// Dimensions lists the client's dimensions with their values.
func (h *ReferenceHandler) Dimensions(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.client(w, r)
	if !ok {
		return
	}
	dims, err := h.ref.GetDimensions(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, dto.DimensionsFromDomain(dims))
}

func (h *ReferenceHandler) client(w http.ResponseWriter, r *http.Request) (int64, bool) {
	clientID, err := parseIDParam(r, "clientId")
	if err != nil {
		writeDomainError(w, err)
		return 0, false
	}
	exists, err := h.ref.Exists(r.Context(), clientID)
	if err != nil {
		writeDomainError(w, err)
		return 0, false
	}
	if !exists {
		writeDomainError(w, domain.ErrClientNotFound)
		return 0, false
	}
	return clientID, true
}
