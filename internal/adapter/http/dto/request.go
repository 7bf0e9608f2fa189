package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// EntryGroupHeader carries the per-entry fields of a proposed entry.
type EntryGroupHeader struct {
	Date        *Date  `json:"date,omitempty"`
	Description string `json:"description" validate:"max=500"`
	Reference   string `json:"reference,omitempty" validate:"max=100"`
}

// ProposedLineRequest is one signed line: positive amounts debit the account,
// negative amounts credit it.
type ProposedLineRequest struct {
	AccountCode string            `json:"accountCode" validate:"required,max=64"`
	Amount      *decimal.Decimal  `json:"amount" validate:"required,amount_scale"`
	Description string            `json:"description,omitempty" validate:"max=500"`
	Date        *Date             `json:"date,omitempty"`
	EntityID    *int64            `json:"entityId,omitempty" validate:"omitempty,gt=0"`
	Dimensions  map[string]string `json:"dimensions,omitempty" validate:"dive,keys,required,endkeys,required"`
}

// EntryGroupRequest is one proposed journal entry.
type EntryGroupRequest struct {
	GroupKey string                `json:"groupKey" validate:"required,max=100"`
	Header   EntryGroupHeader      `json:"header"`
	Lines    []ProposedLineRequest `json:"lines" validate:"min=1,dive"`
}

// ToDomain converts the group; RowIndex is the line's position in the group.
func (g EntryGroupRequest) ToDomain() domain.EntryGroup {
	lines := make([]domain.ProposedLine, len(g.Lines))
	for i, l := range g.Lines {
		var amount decimal.Decimal
		if l.Amount != nil {
			amount = *l.Amount
		}
		lines[i] = domain.ProposedLine{
			RowIndex:    i,
			AccountCode: l.AccountCode,
			Amount:      amount,
			Description: l.Description,
			Date:        l.Date.Ptr(),
			EntityID:    l.EntityID,
			Dimensions:  l.Dimensions,
		}
	}
	return domain.EntryGroup{
		GroupKey:    g.GroupKey,
		Date:        g.Header.Date.Ptr(),
		Description: g.Header.Description,
		Reference:   g.Header.Reference,
		Lines:       lines,
	}
}

func groupsToDomain(groups []EntryGroupRequest) []domain.EntryGroup {
	out := make([]domain.EntryGroup, len(groups))
	for i, g := range groups {
		out[i] = g.ToDomain()
	}
	return out
}

// ValidateBatchRequest is the body of the batch-validate endpoint.
type ValidateBatchRequest struct {
	EntryGroups []EntryGroupRequest `json:"entryGroups" validate:"dive"`
}

// ToUseCaseInput converts to use case input.
func (r *ValidateBatchRequest) ToUseCaseInput(clientID int64) usecase.ValidateBatchInput {
	return usecase.ValidateBatchInput{
		ClientID: clientID,
		Groups:   groupsToDomain(r.EntryGroups),
	}
}

// BatchSettingsRequest controls how a batch is persisted.
type BatchSettingsRequest struct {
	IsAccrual    bool   `json:"isAccrual"`
	Description  string `json:"description" validate:"max=500"`
	PostDirectly bool   `json:"postDirectly,omitempty"`
	ReversalDate *Date  `json:"reversalDate,omitempty"`
}

// ProcessBatchRequest is the body of the batch-process endpoint.
type ProcessBatchRequest struct {
	ApprovedEntries []EntryGroupRequest  `json:"approvedEntries" validate:"dive"`
	EntityID        *int64               `json:"entityId"`
	BatchSettings   BatchSettingsRequest `json:"batchSettings"`
}

// ToUseCaseInput converts to use case input.
func (r *ProcessBatchRequest) ToUseCaseInput(clientID int64, requestID string) usecase.PostBatchInput {
	return usecase.PostBatchInput{
		ClientID: clientID,
		EntityID: r.EntityID,
		Groups:   groupsToDomain(r.ApprovedEntries),
		Settings: domain.BatchSettings{
			IsAccrual:    r.BatchSettings.IsAccrual,
			Description:  r.BatchSettings.Description,
			PostDirectly: r.BatchSettings.PostDirectly,
			ReversalDate: r.BatchSettings.ReversalDate.Ptr(),
		},
		RequestID: requestID,
	}
}

// GenerateReportRequest selects a consolidated report.
type GenerateReportRequest struct {
	GroupID    string `json:"groupId" validate:"required"`
	ReportType string `json:"reportType" validate:"required,oneof=balance_sheet income_statement trial_balance"`
	StartDate  *Date  `json:"startDate" validate:"required"`
	EndDate    *Date  `json:"endDate" validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *GenerateReportRequest) ToUseCaseInput() usecase.GenerateReportInput {
	return usecase.GenerateReportInput{
		GroupID:    r.GroupID,
		ReportType: domain.ReportType(r.ReportType),
		StartDate:  r.StartDate.Time,
		EndDate:    r.EndDate.Time,
	}
}

// CreateGroupRequest creates a consolidation group.
type CreateGroupRequest struct {
	ClientID   int64   `json:"clientId" validate:"required,gt=0"`
	Name       string  `json:"name" validate:"required,max=200"`
	Currency   string  `json:"currency" validate:"required,len=3,uppercase"`
	StartDate  *Date   `json:"startDate" validate:"required"`
	EndDate    *Date   `json:"endDate" validate:"required"`
	PeriodType string  `json:"periodType" validate:"required,oneof=monthly quarterly yearly"`
	EntityIDs  []int64 `json:"entityIds" validate:"dive,gt=0"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateGroupRequest) ToUseCaseInput() usecase.CreateGroupInput {
	return usecase.CreateGroupInput{
		ClientID:   r.ClientID,
		Name:       r.Name,
		Currency:   r.Currency,
		StartDate:  r.StartDate.Time,
		EndDate:    r.EndDate.Time,
		PeriodType: domain.PeriodType(r.PeriodType),
		EntityIDs:  r.EntityIDs,
	}
}

// AddEntityRequest adds an entity to a group.
type AddEntityRequest struct {
	EntityID int64 `json:"entityId" validate:"required,gt=0"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int
	Offset int
}
