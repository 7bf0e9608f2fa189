package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

func newPostingUseCase(t *testing.T, store *mocks.Store) *usecase.BatchPostingUseCase {
	t.Helper()
	return usecase.NewBatchPostingUseCase(
		store, store, store, store.ScheduleRepo(), store.OutboxRepo(),
		mocks.NewSequentialIDGenerator("id"),
	).WithClock(fixedClock(t, "2024-01-20")).WithAudit(store.AuditRepo())
}

func balancedGroup(t *testing.T, key, day, amount string) domain.EntryGroup {
	return domain.EntryGroup{
		GroupKey: key,
		Date:     datePtr(t, day),
		Lines:    []domain.ProposedLine{line(0, "1", amount), line(1, "2", "-"+amount)},
	}
}

func TestBatchPostingUseCase_PostsSingleGroup(t *testing.T) {
	store := seededStore()
	uc := newPostingUseCase(t, store)

	result, err := uc.Post(context.Background(), usecase.PostBatchInput{
		ClientID: testClientID,
		EntityID: int64Ptr(393),
		Groups:   []domain.EntryGroup{balancedGroup(t, "g1", "2024-01-15", "250.00")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CreatedCount != 1 || result.Status != domain.JournalStatusDraft || result.ScheduledReversals != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.ID != result.CreatedEntryIDs[0] || entry.BatchID != result.BatchID {
		t.Fatalf("entry %s/%s does not match result %+v", entry.ID, entry.BatchID, result)
	}
	if entry.EntityID == nil || *entry.EntityID != 393 {
		t.Fatalf("expected entity 393, got %v", entry.EntityID)
	}
	if got := entry.Date.Format(domain.DateLayout); got != "2024-01-15" {
		t.Fatalf("expected date 2024-01-15, got %s", got)
	}
	if entry.PostedAt != nil {
		t.Fatalf("draft must not carry postedAt, got %v", entry.PostedAt)
	}

	if len(entry.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(entry.Lines))
	}
	debit, credit := entry.Lines[0], entry.Lines[1]
	if debit.Side != domain.SideDebit || debit.Amount.StringFixed(2) != "250.00" || debit.AccountID != 1 {
		t.Fatalf("unexpected debit line: %+v", debit)
	}
	if credit.Side != domain.SideCredit || credit.Amount.StringFixed(2) != "250.00" {
		t.Fatalf("unexpected credit line: %+v", credit)
	}
	if !entry.IsBalanced() {
		t.Fatal("stored entry must balance")
	}

	// Drafts emit only the batch event.
	events := store.OutboxEvents()
	if len(events) != 1 || events[0].EventType != domain.EventTypeJournalBatchPosted {
		t.Fatalf("expected only the batch event, got %+v", events)
	}

	if len(store.AuditLogs) != 1 || store.AuditLogs[0].Status != domain.AuditStatusSuccess {
		t.Fatalf("expected one successful audit row, got %+v", store.AuditLogs)
	}
}

func TestBatchPostingUseCase_RejectsBeforeStorage(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.PostBatchInput
		wantErr error
	}{
		{
			name:    "empty batch",
			input:   usecase.PostBatchInput{ClientID: testClientID},
			wantErr: domain.ErrEmptyBatch,
		},
		{
			name: "missing entity",
			input: usecase.PostBatchInput{
				ClientID: testClientID,
				Groups:   []domain.EntryGroup{{GroupKey: "g", Lines: []domain.ProposedLine{line(0, "1", "1")}}},
			},
			wantErr: domain.ErrMissingEntity,
		},
		{
			name: "accrual without reversal date",
			input: usecase.PostBatchInput{
				ClientID: testClientID,
				EntityID: int64Ptr(1),
				Groups:   []domain.EntryGroup{{GroupKey: "g", Lines: []domain.ProposedLine{line(0, "1", "1")}}},
				Settings: domain.BatchSettings{IsAccrual: true},
			},
			wantErr: domain.ErrMissingReversalDate,
		},
		{
			name: "unbalanced group",
			input: usecase.PostBatchInput{
				ClientID: testClientID,
				EntityID: int64Ptr(1),
				Groups: []domain.EntryGroup{{
					GroupKey: "g",
					Date:     datePtr(t, "2024-01-15"),
					Lines:    []domain.ProposedLine{line(0, "1", "10"), line(1, "2", "-9")},
				}},
			},
			wantErr: domain.ErrUnbalancedEntry,
		},
		{
			name: "group without date",
			input: usecase.PostBatchInput{
				ClientID: testClientID,
				EntityID: int64Ptr(1),
				Groups: []domain.EntryGroup{{
					GroupKey: "g",
					Lines:    []domain.ProposedLine{line(0, "1", "10"), line(1, "2", "-10")},
				}},
			},
			wantErr: domain.ErrMissingEntryDate,
		},
		{
			name: "reversal date not after entry date",
			input: usecase.PostBatchInput{
				ClientID: testClientID,
				EntityID: int64Ptr(1),
				Groups:   []domain.EntryGroup{balancedGroup(t, "g", "2024-01-31", "10")},
				Settings: domain.BatchSettings{IsAccrual: true, ReversalDate: datePtr(t, "2024-01-31")},
			},
			wantErr: domain.ErrInvalidReversalDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			uc := newPostingUseCase(t, store)

			result, err := uc.Post(context.Background(), tt.input)
			if result != nil {
				t.Fatalf("expected no result, got %+v", result)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if store.BeginCalls != 0 || len(store.Entries()) != 0 {
				t.Fatalf("expected rejection before storage, begins=%d entries=%d", store.BeginCalls, len(store.Entries()))
			}
		})
	}
}

func TestBatchPostingUseCase_FailureOnLastGroupSavesNothing(t *testing.T) {
	store := seededStore()
	creates := 0
	store.CreateEntryFunc = func(*domain.JournalEntry) error {
		creates++
		if creates == 3 {
			return errors.New("disk full")
		}
		return nil
	}
	uc := newPostingUseCase(t, store)

	_, err := uc.Post(context.Background(), usecase.PostBatchInput{
		ClientID: testClientID,
		EntityID: int64Ptr(393),
		Groups: []domain.EntryGroup{
			balancedGroup(t, "first", "2024-01-10", "10.00"),
			balancedGroup(t, "second", "2024-01-11", "20.00"),
			balancedGroup(t, "third", "2024-01-12", "30.00"),
		},
		Settings: domain.BatchSettings{IsAccrual: true, ReversalDate: datePtr(t, "2024-02-01")},
	})

	var postErr *domain.BatchPostError
	if !errors.As(err, &postErr) {
		t.Fatalf("expected BatchPostError, got %v", err)
	}
	if len(postErr.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", postErr.Failures)
	}
	if f := postErr.Failures[0]; f.GroupKey != "third" || f.Index != 2 || f.Reason != "storage failure" {
		t.Fatalf("unexpected failure: %+v", f)
	}

	if len(store.Entries()) != 0 || len(store.Schedules()) != 0 || len(store.OutboxEvents()) != 0 {
		t.Fatal("a failed batch must leave nothing behind")
	}
	if store.Rollbacks != 1 || store.Commits != 0 {
		t.Fatalf("expected one rollback and no commit, got rollbacks=%d commits=%d", store.Rollbacks, store.Commits)
	}

	if len(store.AuditLogs) != 1 || store.AuditLogs[0].Status != domain.AuditStatusFailure {
		t.Fatalf("expected one failed audit row, got %+v", store.AuditLogs)
	}
}

func TestBatchPostingUseCase_AccountDeactivatedBeforePosting(t *testing.T) {
	store := seededStore()
	store.SetAccountActive(testClientID, "2", false)
	metrics := mocks.NewRecordingMetrics()
	uc := newPostingUseCase(t, store).WithMetrics(metrics)

	_, err := uc.Post(context.Background(), usecase.PostBatchInput{
		ClientID: testClientID,
		EntityID: int64Ptr(1),
		Groups:   []domain.EntryGroup{balancedGroup(t, "g", "2024-01-15", "5.00")},
	})
	if !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if len(store.Entries()) != 0 {
		t.Fatalf("expected no entries, got %d", len(store.Entries()))
	}
	if metrics.BatchFailures["reference_changed"] != 1 {
		t.Fatalf("expected reference_changed failure metric, got %v", metrics.BatchFailures)
	}
}

func TestBatchPostingUseCase_AccrualCreatesSchedules(t *testing.T) {
	store := seededStore()
	uc := newPostingUseCase(t, store)

	result, err := uc.Post(context.Background(), usecase.PostBatchInput{
		ClientID: testClientID,
		EntityID: int64Ptr(12),
		Groups: []domain.EntryGroup{
			{
				GroupKey: "utilities",
				Date:     datePtr(t, "2024-01-31"),
				Lines:    []domain.ProposedLine{line(0, "6000", "1200.00"), line(1, "2100", "-1200.00")},
			},
			balancedGroup(t, "other", "2024-01-30", "75.00"),
		},
		Settings: domain.BatchSettings{
			IsAccrual:    true,
			PostDirectly: true,
			Description:  "January accruals",
			ReversalDate: datePtr(t, "2024-02-01"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CreatedCount != 2 || result.ScheduledReversals != 2 || result.Status != domain.JournalStatusPosted {
		t.Fatalf("unexpected result: %+v", result)
	}

	schedules := store.Schedules()
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}
	for i, s := range schedules {
		if s.EntryID != result.CreatedEntryIDs[i] || s.ReversalDate.Format(domain.DateLayout) != "2024-02-01" || s.Processed {
			t.Fatalf("unexpected schedule %d: %+v", i, s)
		}
	}

	entries := store.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].IsAccrual || entries[0].Description != "January accruals" || entries[0].PostedAt == nil {
		t.Fatalf("unexpected accrual entry: %+v", entries[0])
	}

	// One journal.posted per entry plus the batch event.
	var posted, batch int
	for _, e := range store.OutboxEvents() {
		switch e.EventType {
		case domain.EventTypeJournalPosted:
			posted++
		case domain.EventTypeJournalBatchPosted:
			batch++
		}
	}
	if posted != 2 || batch != 1 {
		t.Fatalf("expected 2 journal.posted and 1 batch event, got %d and %d", posted, batch)
	}
}

func TestBatchPostingUseCase_LineEntityOverridesBatchEntity(t *testing.T) {
	store := seededStore()
	uc := newPostingUseCase(t, store)

	g := balancedGroup(t, "g", "2024-01-15", "40.00")
	g.Lines[1].EntityID = int64Ptr(77)

	_, err := uc.Post(context.Background(), usecase.PostBatchInput{
		ClientID: testClientID,
		EntityID: int64Ptr(1),
		Groups:   []domain.EntryGroup{g},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Lines[0].EntityID != nil {
		t.Fatalf("expected first line to inherit the batch entity, got %d", *entries[0].Lines[0].EntityID)
	}
	if id := entries[0].Lines[1].EntityID; id == nil || *id != 77 {
		t.Fatalf("expected line entity 77, got %v", id)
	}
}

type retryOnce struct {
	attempts int
}

func (r *retryOnce) Retry(_ context.Context, op func() error) error {
	for {
		r.attempts++
		err := op()
		if err == nil || r.attempts > 1 {
			return err
		}
	}
}

func TestBatchPostingUseCase_RetriesWholeTransaction(t *testing.T) {
	store := seededStore()
	creates := 0
	store.CreateEntryFunc = func(*domain.JournalEntry) error {
		creates++
		if creates == 2 {
			return errors.New("serialization failure")
		}
		return nil
	}
	retrier := &retryOnce{}
	uc := newPostingUseCase(t, store).WithRetrier(retrier)

	result, err := uc.Post(context.Background(), usecase.PostBatchInput{
		ClientID: testClientID,
		EntityID: int64Ptr(1),
		Groups: []domain.EntryGroup{
			balancedGroup(t, "a", "2024-01-15", "1.00"),
			balancedGroup(t, "b", "2024-01-15", "2.00"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrier.attempts != 2 || result.CreatedCount != 2 || len(store.Entries()) != 2 {
		t.Fatalf("expected a clean second attempt, attempts=%d created=%d entries=%d",
			retrier.attempts, result.CreatedCount, len(store.Entries()))
	}
	if store.Rollbacks != 1 || store.Commits != 1 {
		t.Fatalf("expected one rollback and one commit, got rollbacks=%d commits=%d", store.Rollbacks, store.Commits)
	}
}
