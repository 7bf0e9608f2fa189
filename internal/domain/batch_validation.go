package domain

import "github.com/shopspring/decimal"

// ErrorKind is the taxonomy of content-validation problems.
type ErrorKind string

const (
	ErrorKindAccountNotFound   ErrorKind = "ACCOUNT_NOT_FOUND"
	ErrorKindDimensionNotFound ErrorKind = "DIMENSION_NOT_FOUND"
	ErrorKindUnbalancedEntry   ErrorKind = "UNBALANCED_ENTRY"
	ErrorKindEmptyEntry        ErrorKind = "EMPTY_ENTRY"
)

// ValidationIssue is a content problem found in a proposed batch. Issues are
// data returned to the caller, not Go errors.
type ValidationIssue struct {
	Kind          ErrorKind
	Message       string
	RowIndex      *int
	AccountCode   string
	DimensionCode string
	Debits        *decimal.Decimal
	Credits       *decimal.Decimal
}

// LineValidation annotates one proposed line.
type LineValidation struct {
	RowIndex int
	Errors   []ValidationIssue
}

// GroupValidation annotates one entry group.
type GroupValidation struct {
	GroupKey string
	IsValid  bool
	Lines    []LineValidation
	Errors   []ValidationIssue
	Debits   decimal.Decimal
	Credits  decimal.Decimal
}

// ErrorCount returns the number of line and group level issues.
func (g *GroupValidation) ErrorCount() int {
	n := len(g.Errors)
	for _, l := range g.Lines {
		n += len(l.Errors)
	}
	return n
}

// Issues returns line issues in row order followed by group issues.
func (g *GroupValidation) Issues() []ValidationIssue {
	out := make([]ValidationIssue, 0, g.ErrorCount())
	for _, l := range g.Lines {
		out = append(out, l.Errors...)
	}
	return append(out, g.Errors...)
}

// DimensionValueSuggestion proposes creating a value that is not yet known for
// an existing dimension.
type DimensionValueSuggestion struct {
	DimensionCode string
	ValueCode     string
	GroupKeys     []string
	FirstRowIndex int
}

// BatchSummary counts the outcome of a validation run.
type BatchSummary struct {
	TotalEntries       int
	ValidEntries       int
	EntriesWithErrors  int
	NewDimensionValues int
}

// BatchValidationResult is the computed annotation of a proposed batch. It is
// never persisted.
type BatchValidationResult struct {
	Groups      []GroupValidation
	Suggestions []DimensionValueSuggestion
	Summary     BatchSummary
}

// ValidGroupKeys returns the keys of groups that passed validation, in order.
func (r *BatchValidationResult) ValidGroupKeys() []string {
	keys := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		if g.IsValid {
			keys = append(keys, g.GroupKey)
		}
	}
	return keys
}
