package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceTolerance is the largest debit/credit difference accepted as balanced.
var BalanceTolerance = decimal.New(1, -2)

// Side is the role a journal line plays in an entry.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Opposite returns the inverse side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// IsValid reports whether s is debit or credit.
func (s Side) IsValid() bool {
	return s == SideDebit || s == SideCredit
}

// JournalStatus is the lifecycle state of a journal entry.
type JournalStatus string

const (
	JournalStatusDraft           JournalStatus = "draft"
	JournalStatusPendingApproval JournalStatus = "pending_approval"
	JournalStatusPosted          JournalStatus = "posted"
)

// IsValid reports whether s is a known status.
func (s JournalStatus) IsValid() bool {
	switch s {
	case JournalStatusDraft, JournalStatusPendingApproval, JournalStatusPosted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Transitions only move forward: draft -> pending_approval -> posted.
func (s JournalStatus) CanTransitionTo(next JournalStatus) bool {
	switch s {
	case JournalStatusDraft:
		return next == JournalStatusPendingApproval
	case JournalStatusPendingApproval:
		return next == JournalStatusPosted
	default:
		return false
	}
}

// JournalEntry is a dated, balanced set of journal lines for a client.
type JournalEntry struct {
	ID           string
	ClientID     int64
	EntityID     *int64
	BatchID      string
	Date         time.Time
	Description  string
	Reference    string
	Status       JournalStatus
	IsAccrual    bool
	ReversalOfID *string
	Lines        []JournalLine
	CreatedAt    time.Time
	PostedAt     *time.Time
}

// JournalLine is one debit or credit posting against an account.
type JournalLine struct {
	ID          string
	EntryID     string
	LineNo      int
	AccountID   int64
	AccountCode string
	Side        Side
	Amount      decimal.Decimal
	Description string
	EntityID    *int64
	Dimensions  []DimensionTag
}

// Totals returns the sum of debit amounts and the sum of credit amounts.
func (e *JournalEntry) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		switch l.Side {
		case SideDebit:
			debits = debits.Add(l.Amount)
		case SideCredit:
			credits = credits.Add(l.Amount)
		}
	}
	return debits, credits
}

// IsBalanced reports whether debits equal credits within BalanceTolerance.
func (e *JournalEntry) IsBalanced() bool {
	debits, credits := e.Totals()
	return WithinTolerance(debits.Sub(credits))
}

// Validate checks line shape and balance.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) == 0 {
		return ErrEmptyEntryGroup
	}
	for _, l := range e.Lines {
		if !l.Side.IsValid() {
			return fmt.Errorf("line %d: invalid side %q", l.LineNo, l.Side)
		}
		if l.Amount.IsNegative() {
			return fmt.Errorf("line %d: %w", l.LineNo, ErrInvalidAmount)
		}
	}
	if !e.IsBalanced() {
		debits, credits := e.Totals()
		return fmt.Errorf("%w: debits %s, credits %s", ErrUnbalancedEntry, debits.StringFixed(2), credits.StringFixed(2))
	}
	return nil
}

// TransitionTo moves the entry to next, stamping PostedAt when it becomes posted.
func (e *JournalEntry) TransitionTo(next JournalStatus, at time.Time) error {
	if !e.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, e.Status, next)
	}
	if next == JournalStatusPosted {
		if err := e.Validate(); err != nil {
			return err
		}
		posted := at
		e.PostedAt = &posted
	}
	e.Status = next
	return nil
}

// Reversal builds the posted mirror of e dated at date: every line keeps its
// account, amount, entity and dimension tags with the side inverted.
// newID supplies identifiers for the entry and each line.
func (e *JournalEntry) Reversal(newID func() string, date, now time.Time) *JournalEntry {
	originalID := e.ID
	postedAt := now

	rev := &JournalEntry{
		ID:           newID(),
		ClientID:     e.ClientID,
		EntityID:     e.EntityID,
		BatchID:      e.BatchID,
		Date:         date,
		Description:  "Reversal of " + e.Description,
		Reference:    e.Reference,
		Status:       JournalStatusPosted,
		ReversalOfID: &originalID,
		Lines:        make([]JournalLine, len(e.Lines)),
		CreatedAt:    now,
		PostedAt:     &postedAt,
	}

	for i, l := range e.Lines {
		rev.Lines[i] = JournalLine{
			ID:          newID(),
			EntryID:     rev.ID,
			LineNo:      l.LineNo,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Side:        l.Side.Opposite(),
			Amount:      l.Amount,
			Description: l.Description,
			EntityID:    l.EntityID,
			Dimensions:  append([]DimensionTag(nil), l.Dimensions...),
		}
	}

	return rev
}

// WithinTolerance reports whether |diff| <= BalanceTolerance.
func WithinTolerance(diff decimal.Decimal) bool {
	return diff.Abs().LessThanOrEqual(BalanceTolerance)
}

// JournalFilter narrows a journal entry listing.
type JournalFilter struct {
	ClientID int64
	EntityID *int64
	Status   JournalStatus
	Limit    int
	Offset   int
}
