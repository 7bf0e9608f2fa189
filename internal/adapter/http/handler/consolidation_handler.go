package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/iho/bookkeeper/internal/adapter/http/dto"
	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// ConsolidationService defines the behavior needed by ConsolidationHandler.
type ConsolidationService interface {
	Generate(ctx context.Context, input usecase.GenerateReportInput) (*domain.Report, error)
	CreateGroup(ctx context.Context, input usecase.CreateGroupInput) (*domain.ConsolidationGroup, error)
	GetGroup(ctx context.Context, groupID string) (*domain.ConsolidationGroup, error)
	AddEntity(ctx context.Context, groupID string, entityID int64) error
	RemoveEntity(ctx context.Context, groupID string, entityID int64) error
}

// ConsolidationHandler serves consolidation groups and reports.
type ConsolidationHandler struct {
	consolidationUC ConsolidationService
	reports         singleflight.Group
}

// NewConsolidationHandler creates a new ConsolidationHandler.
func NewConsolidationHandler(consolidationUC ConsolidationService) *ConsolidationHandler {
	return &ConsolidationHandler{consolidationUC: consolidationUC}
}

// CreateGroup creates a group with its initial members.
func (h *ConsolidationHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	group, err := h.consolidationUC.CreateGroup(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, dto.GroupFromDomain(group))
}

// GetGroup returns a group with its current members.
func (h *ConsolidationHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.consolidationUC.GetGroup(r.Context(), chi.URLParam(r, "groupId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, dto.GroupFromDomain(group))
}

// AddEntity links an entity to a group.
func (h *ConsolidationHandler) AddEntity(w http.ResponseWriter, r *http.Request) {
	var req dto.AddEntityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	groupID := chi.URLParam(r, "groupId")
	if err := h.consolidationUC.AddEntity(r.Context(), groupID, req.EntityID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"groupId": groupID, "entityId": req.EntityID})
}

// RemoveEntity unlinks an entity from a group.
func (h *ConsolidationHandler) RemoveEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := parseIDParam(r, "entityId")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.consolidationUC.RemoveEntity(r.Context(), chi.URLParam(r, "groupId"), entityID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetReport generates a report from query parameters.
func (h *ConsolidationHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.GenerateReportRequest{
		GroupID:    q.Get("groupId"),
		ReportType: q.Get("reportType"),
	}

	var badDates []dto.FieldError
	for name, target := range map[string]**dto.Date{"startDate": &req.StartDate, "endDate": &req.EndDate} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		d, err := dto.ParseDate(raw)
		if err != nil {
			badDates = append(badDates, dto.FieldError{Field: name, Rule: "date"})
			continue
		}
		*target = &d
	}
	if len(badDates) > 0 {
		writeDomainError(w, &dto.ValidationError{Fields: badDates})
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeDomainError(w, err)
		return
	}

	h.generate(w, r, req)
}

// PostReport generates a report from a JSON body.
func (h *ConsolidationHandler) PostReport(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	h.generate(w, r, req)
}

// generate coalesces identical concurrent report requests. Reports are
// read-only and deterministic, so sharing one result is safe.
func (h *ConsolidationHandler) generate(w http.ResponseWriter, r *http.Request, req dto.GenerateReportRequest) {
	input := req.ToUseCaseInput()
	key := strings.Join([]string{
		input.GroupID,
		string(input.ReportType),
		input.StartDate.Format(domain.DateLayout),
		input.EndDate.Format(domain.DateLayout),
	}, "|")

	ctx := r.Context()
	ch := h.reports.DoChan(key, func() (any, error) {
		// Detached so one caller cancelling does not fail the others.
		return h.consolidationUC.Generate(context.WithoutCancel(ctx), input)
	})

	select {
	case <-ctx.Done():
		writeDomainError(w, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			writeDomainError(w, res.Err)
			return
		}
		writeData(w, http.StatusOK, dto.ReportFromDomain(res.Val.(*domain.Report)))
	}
}
