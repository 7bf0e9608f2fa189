package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// Envelope wraps every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// money renders presentation amounts with two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}

// IssueResponse is a content validation problem.
type IssueResponse struct {
	Type          string  `json:"type"`
	Message       string  `json:"message"`
	RowIndex      *int    `json:"rowIndex,omitempty"`
	AccountCode   string  `json:"accountCode,omitempty"`
	DimensionCode string  `json:"dimensionCode,omitempty"`
	Debits        *string `json:"debits,omitempty"`
	Credits       *string `json:"credits,omitempty"`
}

func issuesFromDomain(issues []domain.ValidationIssue) []IssueResponse {
	out := make([]IssueResponse, len(issues))
	for i, is := range issues {
		out[i] = IssueResponse{
			Type:          string(is.Kind),
			Message:       is.Message,
			RowIndex:      is.RowIndex,
			AccountCode:   is.AccountCode,
			DimensionCode: is.DimensionCode,
			Debits:        moneyPtr(is.Debits),
			Credits:       moneyPtr(is.Credits),
		}
	}
	return out
}

// LineValidationResponse annotates one proposed line.
type LineValidationResponse struct {
	RowIndex int             `json:"rowIndex"`
	Errors   []IssueResponse `json:"errors"`
}

// GroupValidationResponse annotates one proposed entry.
type GroupValidationResponse struct {
	GroupKey string                   `json:"groupKey"`
	IsValid  bool                     `json:"isValid"`
	Debits   string                   `json:"debits"`
	Credits  string                   `json:"credits"`
	Lines    []LineValidationResponse `json:"lines"`
	Errors   []IssueResponse          `json:"errors"`
}

// SuggestionResponse proposes a new dimension value.
type SuggestionResponse struct {
	DimensionCode string   `json:"dimensionCode"`
	ValueCode     string   `json:"valueCode"`
	GroupKeys     []string `json:"groupKeys"`
	FirstRowIndex int      `json:"firstRowIndex"`
}

// BatchSummaryResponse counts validation outcomes.
type BatchSummaryResponse struct {
	TotalEntries       int `json:"totalEntries"`
	ValidEntries       int `json:"validEntries"`
	EntriesWithErrors  int `json:"entriesWithErrors"`
	NewDimensionValues int `json:"newDimensionValues"`
}

// ValidationResultResponse is the batch-validate response body.
type ValidationResultResponse struct {
	EntryGroups                  []GroupValidationResponse `json:"entryGroups"`
	NewDimensionValueSuggestions []SuggestionResponse      `json:"newDimensionValueSuggestions"`
	BatchSummary                 BatchSummaryResponse      `json:"batchSummary"`
}

// ValidationResultFromDomain converts a validation result.
func ValidationResultFromDomain(r *domain.BatchValidationResult) *ValidationResultResponse {
	groups := make([]GroupValidationResponse, len(r.Groups))
	for i, g := range r.Groups {
		lines := make([]LineValidationResponse, len(g.Lines))
		for j, l := range g.Lines {
			lines[j] = LineValidationResponse{RowIndex: l.RowIndex, Errors: issuesFromDomain(l.Errors)}
		}
		groups[i] = GroupValidationResponse{
			GroupKey: g.GroupKey,
			IsValid:  g.IsValid,
			Debits:   money(g.Debits),
			Credits:  money(g.Credits),
			Lines:    lines,
			Errors:   issuesFromDomain(g.Errors),
		}
	}

	suggestions := make([]SuggestionResponse, len(r.Suggestions))
	for i, s := range r.Suggestions {
		suggestions[i] = SuggestionResponse{
			DimensionCode: s.DimensionCode,
			ValueCode:     s.ValueCode,
			GroupKeys:     s.GroupKeys,
			FirstRowIndex: s.FirstRowIndex,
		}
	}

	return &ValidationResultResponse{
		EntryGroups:                  groups,
		NewDimensionValueSuggestions: suggestions,
		BatchSummary: BatchSummaryResponse{
			TotalEntries:       r.Summary.TotalEntries,
			ValidEntries:       r.Summary.ValidEntries,
			EntriesWithErrors:  r.Summary.EntriesWithErrors,
			NewDimensionValues: r.Summary.NewDimensionValues,
		},
	}
}

// ProcessBatchResponse is the batch-process response body.
type ProcessBatchResponse struct {
	BatchID            string   `json:"batchId"`
	CreatedCount       int      `json:"createdCount"`
	CreatedEntryIDs    []string `json:"createdEntryIds"`
	Status             string   `json:"status"`
	ScheduledReversals int      `json:"scheduledReversals"`
}

// ProcessBatchFromResult converts a posting result.
func ProcessBatchFromResult(r *usecase.PostBatchResult) *ProcessBatchResponse {
	return &ProcessBatchResponse{
		BatchID:            r.BatchID,
		CreatedCount:       r.CreatedCount,
		CreatedEntryIDs:    r.CreatedEntryIDs,
		Status:             string(r.Status),
		ScheduledReversals: r.ScheduledReversals,
	}
}

// GroupFailureResponse explains why a group aborted its batch.
type GroupFailureResponse struct {
	GroupKey string `json:"groupKey"`
	Index    int    `json:"index"`
	Reason   string `json:"reason"`
}

// GroupFailuresFromDomain converts batch failures.
func GroupFailuresFromDomain(e *domain.BatchPostError) []GroupFailureResponse {
	out := make([]GroupFailureResponse, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = GroupFailureResponse{GroupKey: f.GroupKey, Index: f.Index, Reason: f.Reason}
	}
	return out
}

// JournalLineResponse represents a journal line in API responses.
type JournalLineResponse struct {
	ID          string                `json:"id"`
	LineNo      int                   `json:"lineNo"`
	AccountID   int64                 `json:"accountId"`
	AccountCode string                `json:"accountCode"`
	Side        string                `json:"side"`
	Amount      decimal.Decimal       `json:"amount"`
	Description string                `json:"description,omitempty"`
	EntityID    *int64                `json:"entityId,omitempty"`
	Dimensions  []domain.DimensionTag `json:"dimensions,omitempty"`
}

// JournalEntryResponse represents a journal entry in API responses.
type JournalEntryResponse struct {
	ID           string                `json:"id"`
	ClientID     int64                 `json:"clientId"`
	EntityID     *int64                `json:"entityId,omitempty"`
	BatchID      string                `json:"batchId,omitempty"`
	Date         Date                  `json:"date"`
	Description  string                `json:"description"`
	Reference    string                `json:"reference,omitempty"`
	Status       string                `json:"status"`
	IsAccrual    bool                  `json:"isAccrual"`
	ReversalOfID *string               `json:"reversalOfId,omitempty"`
	Debits       string                `json:"debits"`
	Credits      string                `json:"credits"`
	Lines        []JournalLineResponse `json:"lines"`
	CreatedAt    time.Time             `json:"createdAt"`
	PostedAt     *time.Time            `json:"postedAt,omitempty"`
}

// JournalEntryFromDomain converts a domain entry to a response.
func JournalEntryFromDomain(e *domain.JournalEntry) *JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Side:        string(l.Side),
			Amount:      l.Amount,
			Description: l.Description,
			EntityID:    l.EntityID,
			Dimensions:  l.Dimensions,
		}
	}
	debits, credits := e.Totals()
	return &JournalEntryResponse{
		ID:           e.ID,
		ClientID:     e.ClientID,
		EntityID:     e.EntityID,
		BatchID:      e.BatchID,
		Date:         NewDate(e.Date),
		Description:  e.Description,
		Reference:    e.Reference,
		Status:       string(e.Status),
		IsAccrual:    e.IsAccrual,
		ReversalOfID: e.ReversalOfID,
		Debits:       money(debits),
		Credits:      money(credits),
		Lines:        lines,
		CreatedAt:    e.CreatedAt,
		PostedAt:     e.PostedAt,
	}
}

// JournalEntriesFromDomain converts domain entries to responses.
func JournalEntriesFromDomain(entries []*domain.JournalEntry) []*JournalEntryResponse {
	result := make([]*JournalEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = JournalEntryFromDomain(e)
	}
	return result
}

// AccountResponse represents a chart of accounts entry.
type AccountResponse struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type"`
	ParentCode  *string `json:"parentCode,omitempty"`
	Active      bool    `json:"active"`
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []AccountResponse {
	result := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountResponse{
			ID:          a.ID,
			Code:        a.Code,
			Name:        a.Name,
			Description: a.Description,
			Type:        string(a.Type),
			ParentCode:  a.ParentCode,
			Active:      a.Active,
		}
	}
	return result
}

// DimensionValueResponse is one allowed value of a dimension.
type DimensionValueResponse struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

// DimensionResponse is a dimension with its values.
type DimensionResponse struct {
	ID     int64                    `json:"id"`
	Code   string                   `json:"code"`
	Name   string                   `json:"name"`
	Values []DimensionValueResponse `json:"values"`
}

// DimensionsFromDomain converts domain dimensions to responses.
func DimensionsFromDomain(dims []*domain.Dimension) []DimensionResponse {
	result := make([]DimensionResponse, len(dims))
	for i, d := range dims {
		values := make([]DimensionValueResponse, len(d.Values))
		for j, v := range d.Values {
			values[j] = DimensionValueResponse{ID: v.ID, Code: v.Code, Name: v.Name, SortOrder: v.SortOrder}
		}
		result[i] = DimensionResponse{ID: d.ID, Code: d.Code, Name: d.Name, Values: values}
	}
	return result
}

// GroupResponse represents a consolidation group.
type GroupResponse struct {
	ID         string    `json:"id"`
	ClientID   int64     `json:"clientId"`
	Name       string    `json:"name"`
	Currency   string    `json:"currency"`
	StartDate  Date      `json:"startDate"`
	EndDate    Date      `json:"endDate"`
	PeriodType string    `json:"periodType"`
	EntityIDs  []int64   `json:"entityIds"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GroupFromDomain converts a consolidation group.
func GroupFromDomain(g *domain.ConsolidationGroup) *GroupResponse {
	ids := g.EntityIDs
	if ids == nil {
		ids = []int64{}
	}
	return &GroupResponse{
		ID:         g.ID,
		ClientID:   g.ClientID,
		Name:       g.Name,
		Currency:   g.Currency,
		StartDate:  NewDate(g.StartDate),
		EndDate:    NewDate(g.EndDate),
		PeriodType: string(g.PeriodType),
		EntityIDs:  ids,
		CreatedAt:  g.CreatedAt,
	}
}

// AccountBalanceResponse is one account row of a report section.
type AccountBalanceResponse struct {
	AccountID int64  `json:"accountId"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Debits    string `json:"debits"`
	Credits   string `json:"credits"`
	Balance   string `json:"balance"`
}

// ReportSectionResponse is one bucket of a report.
type ReportSectionResponse struct {
	Key      string                   `json:"key"`
	Label    string                   `json:"label"`
	Accounts []AccountBalanceResponse `json:"accounts"`
	Total    string                   `json:"total"`
}

// ReportResponse is a consolidated financial statement.
type ReportResponse struct {
	GroupID     string                  `json:"groupId"`
	GroupName   string                  `json:"groupName"`
	Currency    string                  `json:"currency"`
	ReportType  string                  `json:"reportType"`
	StartDate   Date                    `json:"startDate"`
	EndDate     Date                    `json:"endDate"`
	EntityIDs   []int64                 `json:"entityIds"`
	Sections    []ReportSectionResponse `json:"sections"`
	Totals      map[string]string       `json:"totals"`
	Balanced    bool                    `json:"balanced"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// ReportFromDomain converts a report.
func ReportFromDomain(r *domain.Report) *ReportResponse {
	sections := make([]ReportSectionResponse, len(r.Sections))
	for i, s := range r.Sections {
		accounts := make([]AccountBalanceResponse, len(s.Accounts))
		for j, a := range s.Accounts {
			accounts[j] = AccountBalanceResponse{
				AccountID: a.AccountID,
				Code:      a.Code,
				Name:      a.Name,
				Type:      string(a.Type),
				Debits:    money(a.Debits),
				Credits:   money(a.Credits),
				Balance:   money(a.Balance()),
			}
		}
		sections[i] = ReportSectionResponse{Key: s.Key, Label: s.Label, Accounts: accounts, Total: money(s.Total)}
	}

	totals := make(map[string]string, len(r.Totals))
	for _, t := range r.Totals {
		totals[t.Key] = money(t.Amount)
	}

	ids := r.EntityIDs
	if ids == nil {
		ids = []int64{}
	}

	return &ReportResponse{
		GroupID:     r.GroupID,
		GroupName:   r.GroupName,
		Currency:    r.Currency,
		ReportType:  string(r.Type),
		StartDate:   NewDate(r.StartDate),
		EndDate:     NewDate(r.EndDate),
		EntityIDs:   ids,
		Sections:    sections,
		Totals:      totals,
		Balanced:    r.Balanced,
		GeneratedAt: r.GeneratedAt,
	}
}

// ReversalRunResponse summarises an accrual reversal run.
type ReversalRunResponse struct {
	SuccessCount     int      `json:"successCount"`
	FailCount        int      `json:"failCount"`
	ReversalEntryIDs []string `json:"reversalEntryIds"`
}

// ReversalRunFromDomain converts a run result.
func ReversalRunFromDomain(r *domain.ReversalRunResult) *ReversalRunResponse {
	ids := r.ReversalIDs
	if ids == nil {
		ids = []string{}
	}
	return &ReversalRunResponse{SuccessCount: r.SuccessCount, FailCount: r.FailCount, ReversalEntryIDs: ids}
}

// ConsistencyResponse is the ledger integrity check outcome.
type ConsistencyResponse struct {
	Consistent         bool     `json:"consistent"`
	TotalDebits        string   `json:"totalDebits"`
	TotalCredits       string   `json:"totalCredits"`
	UnbalancedEntryIDs []string `json:"unbalancedEntryIds"`
}

// ConsistencyFromReport converts a consistency report.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	ids := r.UnbalancedEntryIDs
	if ids == nil {
		ids = []string{}
	}
	return &ConsistencyResponse{
		Consistent:         r.Consistent,
		TotalDebits:        money(r.TotalDebits),
		TotalCredits:       money(r.TotalCredits),
		UnbalancedEntryIDs: ids,
	}
}
