package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryGroup is one proposed journal entry inside a submitted batch.
type EntryGroup struct {
	GroupKey    string
	Date        *time.Time
	Description string
	Reference   string
	Lines       []ProposedLine
}

// ProposedLine is a line as submitted by the caller. Amount is signed:
// positive amounts are debits, negative amounts are credits.
type ProposedLine struct {
	RowIndex    int
	AccountCode string
	Amount      decimal.Decimal
	Description string
	Date        *time.Time
	EntityID    *int64
	Dimensions  map[string]string
}

// Side returns the side encoded by the sign of the amount.
func (l ProposedLine) Side() Side {
	if l.Amount.IsNegative() {
		return SideCredit
	}
	return SideDebit
}

// Tags returns the line's dimension tags ordered by dimension code.
func (l ProposedLine) Tags() []DimensionTag {
	if len(l.Dimensions) == 0 {
		return nil
	}
	codes := sortedKeys(l.Dimensions)
	tags := make([]DimensionTag, 0, len(codes))
	for _, code := range codes {
		tags = append(tags, DimensionTag{DimensionCode: code, ValueCode: l.Dimensions[code]})
	}
	return tags
}

// Normalize converts the signed amount into a side and non-negative amount.
func (l ProposedLine) Normalize(lineNo int) JournalLine {
	return JournalLine{
		LineNo:      lineNo,
		AccountCode: l.AccountCode,
		Side:        l.Side(),
		Amount:      l.Amount.Abs(),
		Description: l.Description,
		EntityID:    l.EntityID,
		Dimensions:  l.Tags(),
	}
}

// Totals returns debit and credit totals of the group's lines.
func (g EntryGroup) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range g.Lines {
		if l.Amount.IsNegative() {
			credits = credits.Add(l.Amount.Abs())
		} else {
			debits = debits.Add(l.Amount)
		}
	}
	return debits, credits
}

// SignedTotal is the sum of the signed line amounts; zero means balanced.
func (g EntryGroup) SignedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range g.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// IsBalanced reports whether the group's signed total is within BalanceTolerance of zero.
func (g EntryGroup) IsBalanced() bool {
	return WithinTolerance(g.SignedTotal())
}

// EntryDate returns the group date, falling back to the first dated line.
func (g EntryGroup) EntryDate() (time.Time, bool) {
	if g.Date != nil {
		return *g.Date, true
	}
	for _, l := range g.Lines {
		if l.Date != nil {
			return *l.Date, true
		}
	}
	return time.Time{}, false
}

// AccountCodes returns the distinct account codes used by the groups, sorted.
func AccountCodes(groups []EntryGroup) []string {
	seen := make(map[string]string)
	for _, g := range groups {
		for _, l := range g.Lines {
			seen[l.AccountCode] = l.AccountCode
		}
	}
	return sortedKeys(seen)
}

// BatchSettings controls how the posting engine persists a batch.
type BatchSettings struct {
	IsAccrual    bool
	Description  string
	PostDirectly bool
	ReversalDate *time.Time
}

// InitialStatus is the status new entries receive.
func (s BatchSettings) InitialStatus() JournalStatus {
	if s.PostDirectly {
		return JournalStatusPosted
	}
	return JournalStatusDraft
}

// GroupFailure explains why one group aborted a batch.
type GroupFailure struct {
	GroupKey string
	Index    int
	Reason   string
	Err      error
}

// BatchPostError reports an aborted batch. Nothing from the batch was saved.
type BatchPostError struct {
	Failures []GroupFailure
}

func (e *BatchPostError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("group %q: %s", f.GroupKey, f.Reason))
	}
	return "batch rolled back: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying group errors to errors.Is and errors.As.
func (e *BatchPostError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}
