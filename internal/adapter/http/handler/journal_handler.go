package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
)

// JournalService defines the behavior needed by JournalHandler.
type JournalService interface {
	GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)
	SubmitForApproval(ctx context.Context, id string) (*domain.JournalEntry, error)
	Approve(ctx context.Context, id string) (*domain.JournalEntry, error)
}

// JournalHandler handles journal entry reads and status transitions.
type JournalHandler struct {
	journalUC JournalService
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalUC JournalService) *JournalHandler {
	return &JournalHandler{journalUC: journalUC}
}

// Get retrieves an entry with its lines.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalUC.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// List lists a client's entries, newest first.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, err := parseIDParam(r, "clientId")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filter := domain.JournalFilter{
		ClientID: clientID,
		Status:   domain.JournalStatus(r.URL.Query().Get("status")),
		Limit:    parseIntQuery(r, "limit", 50),
		Offset:   parseIntQuery(r, "offset", 0),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "unknown status "+string(filter.Status), nil)
		return
	}
	if entity := parseIntQuery(r, "entityId", 0); entity > 0 {
		id := int64(entity)
		filter.EntityID = &id
	}

	entries, err := h.journalUC.ListEntries(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, dto.JournalEntriesFromDomain(entries))
}

// Submit moves a draft entry to pending approval.
func (h *JournalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalUC.SubmitForApproval(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// Approve posts an entry pending approval.
func (h *JournalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalUC.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}
