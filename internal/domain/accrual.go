package domain

import "time"

// AccrualReversalSchedule is a due-work row obliging the ledger to reverse an
// accrual entry on ReversalDate. It moves scheduled -> processed exactly once.
type AccrualReversalSchedule struct {
	ID              string
	EntryID         string
	ClientID        int64
	ReversalDate    time.Time
	Processed       bool
	ProcessedAt     *time.Time
	ReversalEntryID *string
	Attempts        int
	LastError       string
	CreatedAt       time.Time
}

// IsDue reports whether the row is unprocessed and its reversal date is on or
// before asOf's calendar date.
func (s *AccrualReversalSchedule) IsDue(asOf time.Time) bool {
	return !s.Processed && !TruncateDate(s.ReversalDate).After(TruncateDate(asOf))
}

// ScheduleCursor is a keyset position in the (reversal_date, id) order of
// due rows. Listing resumes strictly after it.
type ScheduleCursor struct {
	ReversalDate time.Time
	ID           string
}

// Cursor returns the keyset position of s.
func (s *AccrualReversalSchedule) Cursor() ScheduleCursor {
	return ScheduleCursor{ReversalDate: TruncateDate(s.ReversalDate), ID: s.ID}
}

// After reports whether s sorts strictly after c.
func (s *AccrualReversalSchedule) After(c ScheduleCursor) bool {
	d := TruncateDate(s.ReversalDate)
	if !d.Equal(c.ReversalDate) {
		return d.After(c.ReversalDate)
	}
	return s.ID > c.ID
}

// MarkProcessed records the reversal entry and completion time.
func (s *AccrualReversalSchedule) MarkProcessed(reversalEntryID string, at time.Time) error {
	if s.Processed {
		return ErrAlreadyReversed
	}
	processedAt := at
	s.Processed = true
	s.ProcessedAt = &processedAt
	s.ReversalEntryID = &reversalEntryID
	return nil
}

// ReversalRunResult summarises one execution of the periodic reversal task.
type ReversalRunResult struct {
	SuccessCount int
	FailCount    int
	ReversalIDs  []string
}
