package usecase

import (
	"context"
	"fmt"

	"github.com/iho/bookkeeper/internal/domain"
)

// BatchValidationUseCase annotates proposed entry groups against a client's
// reference data.
type BatchValidationUseCase struct {
	clients ClientRepository
	refData ReferenceDataReader
	metrics MetricsRecorder
}

// NewBatchValidationUseCase creates a new BatchValidationUseCase.
func NewBatchValidationUseCase(clients ClientRepository, refData ReferenceDataReader) *BatchValidationUseCase {
	return &BatchValidationUseCase{
		clients: clients,
		refData: refData,
		metrics: noopMetrics{},
	}
}

// WithMetrics sets the metrics recorder.
func (uc *BatchValidationUseCase) WithMetrics(m MetricsRecorder) *BatchValidationUseCase {
	if m != nil {
		uc.metrics = m
	}
	return uc
}

// ValidateBatchInput represents input for validating a batch.
type ValidateBatchInput struct {
	ClientID int64
	Groups   []domain.EntryGroup
}

// Validate fetches the client's accounts and dimensions once and checks every
// line against them. Content problems are returned in the result; an error is
// returned only when the client cannot be resolved or reference data cannot
// be read.
func (uc *BatchValidationUseCase) Validate(ctx context.Context, input ValidateBatchInput) (*domain.BatchValidationResult, error) {
	exists, err := uc.clients.Exists(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client %d: %w", input.ClientID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %d", domain.ErrClientNotFound, input.ClientID)
	}

	accounts, err := uc.refData.GetAccounts(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	dimensions, err := uc.refData.GetDimensions(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load dimensions: %w", err)
	}

	result := ValidateGroups(input.Groups, domain.NewChartOfAccounts(accounts), domain.NewDimensionCatalog(dimensions))

	issues := make(map[domain.ErrorKind]int)
	for i := range result.Groups {
		for _, issue := range result.Groups[i].Issues() {
			issues[issue.Kind]++
		}
	}
	uc.metrics.BatchValidated(result.Summary.TotalEntries, result.Summary.EntriesWithErrors, issues)

	return result, nil
}

// ValidateGroups is the pure validation pass over a reference data snapshot.
func ValidateGroups(groups []domain.EntryGroup, chart domain.ChartOfAccounts, catalog *domain.DimensionCatalog) *domain.BatchValidationResult {
	result := &domain.BatchValidationResult{
		Groups:      make([]domain.GroupValidation, 0, len(groups)),
		Suggestions: []domain.DimensionValueSuggestion{},
	}
	suggestionIndex := make(map[[2]string]int)

	for _, g := range groups {
		gv := domain.GroupValidation{
			GroupKey: g.GroupKey,
			Lines:    make([]domain.LineValidation, 0, len(g.Lines)),
			Errors:   []domain.ValidationIssue{},
		}

		for _, l := range g.Lines {
			lv := domain.LineValidation{RowIndex: l.RowIndex, Errors: []domain.ValidationIssue{}}
			row := l.RowIndex

			if acc, ok := chart.Lookup(l.AccountCode); !ok || !acc.CanPost() {
				msg := fmt.Sprintf("account %q does not exist", l.AccountCode)
				if ok {
					msg = fmt.Sprintf("account %q is inactive", l.AccountCode)
				}
				lv.Errors = append(lv.Errors, domain.ValidationIssue{
					Kind:        domain.ErrorKindAccountNotFound,
					Message:     msg,
					RowIndex:    &row,
					AccountCode: l.AccountCode,
				})
			}

			for _, tag := range l.Tags() {
				if !catalog.HasDimension(tag.DimensionCode) {
					lv.Errors = append(lv.Errors, domain.ValidationIssue{
						Kind:          domain.ErrorKindDimensionNotFound,
						Message:       fmt.Sprintf("dimension %q does not exist", tag.DimensionCode),
						RowIndex:      &row,
						DimensionCode: tag.DimensionCode,
					})
					continue
				}
				if tag.ValueCode == "" || catalog.HasValue(tag.DimensionCode, tag.ValueCode) {
					continue
				}

				key := [2]string{tag.DimensionCode, tag.ValueCode}
				idx, seen := suggestionIndex[key]
				if !seen {
					idx = len(result.Suggestions)
					suggestionIndex[key] = idx
					result.Suggestions = append(result.Suggestions, domain.DimensionValueSuggestion{
						DimensionCode: tag.DimensionCode,
						ValueCode:     tag.ValueCode,
						FirstRowIndex: row,
					})
				}
				s := &result.Suggestions[idx]
				if n := len(s.GroupKeys); n == 0 || s.GroupKeys[n-1] != g.GroupKey {
					s.GroupKeys = append(s.GroupKeys, g.GroupKey)
				}
			}

			gv.Lines = append(gv.Lines, lv)
		}

		gv.Debits, gv.Credits = g.Totals()
		if len(g.Lines) == 0 {
			gv.Errors = append(gv.Errors, domain.ValidationIssue{
				Kind:    domain.ErrorKindEmptyEntry,
				Message: domain.ErrEmptyEntryGroup.Error(),
			})
		} else if !domain.WithinTolerance(gv.Debits.Sub(gv.Credits)) {
			debits, credits := gv.Debits, gv.Credits
			gv.Errors = append(gv.Errors, domain.ValidationIssue{
				Kind: domain.ErrorKindUnbalancedEntry,
				Message: fmt.Sprintf("debits %s do not equal credits %s",
					debits.StringFixed(2), credits.StringFixed(2)),
				Debits:  &debits,
				Credits: &credits,
			})
		}

		gv.IsValid = gv.ErrorCount() == 0
		if gv.IsValid {
			result.Summary.ValidEntries++
		} else {
			result.Summary.EntriesWithErrors++
		}
		result.Groups = append(result.Groups, gv)
	}

	result.Summary.TotalEntries = len(groups)
	result.Summary.NewDimensionValues = len(result.Suggestions)

	return result
}
