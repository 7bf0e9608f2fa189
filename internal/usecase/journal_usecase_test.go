package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

func newJournalUseCase(t *testing.T, store *mocks.Store) *usecase.JournalUseCase {
	return usecase.NewJournalUseCase(store, store, store.OutboxRepo(), mocks.NewSequentialIDGenerator("j")).
		WithClock(fixedClock(t, "2024-01-20")).
		WithAudit(store.AuditRepo())
}

func postDraft(t *testing.T, store *mocks.Store) string {
	t.Helper()
	result, err := newPostingUseCase(t, store).Post(context.Background(), usecase.PostBatchInput{
		ClientID: testClientID,
		EntityID: int64Ptr(5),
		Groups:   []domain.EntryGroup{balancedGroup(t, "g", "2024-01-15", "80.00")},
	})
	if err != nil {
		t.Fatalf("post draft: %v", err)
	}
	return result.CreatedEntryIDs[0]
}

func TestJournalUseCase_Lifecycle(t *testing.T) {
	store := seededStore()
	uc := newJournalUseCase(t, store)
	ctx := context.Background()
	id := postDraft(t, store)

	if _, err := uc.Approve(ctx, id); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("expected draft approval to be rejected, got %v", err)
	}

	submitted, err := uc.SubmitForApproval(ctx, id)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != domain.JournalStatusPendingApproval || submitted.PostedAt != nil {
		t.Fatalf("unexpected submitted entry: status=%s postedAt=%v", submitted.Status, submitted.PostedAt)
	}

	approved, err := uc.Approve(ctx, id)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.JournalStatusPosted || approved.PostedAt == nil {
		t.Fatalf("unexpected approved entry: status=%s postedAt=%v", approved.Status, approved.PostedAt)
	}

	stored, err := uc.GetEntry(ctx, id)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if stored.Status != domain.JournalStatusPosted {
		t.Fatalf("expected stored entry posted, got %s", stored.Status)
	}

	if _, err := uc.SubmitForApproval(ctx, id); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("expected posted entry to be final, got %v", err)
	}

	var posted int
	for _, e := range store.OutboxEvents() {
		if e.EventType == domain.EventTypeJournalPosted && e.AggregateID == id {
			posted++
		}
	}
	if posted != 1 {
		t.Fatalf("expected one journal.posted event, got %d", posted)
	}
}

func TestJournalUseCase_AuditFailureIsLogged(t *testing.T) {
	store := seededStore()
	id := postDraft(t, store)

	var logs bytes.Buffer
	uc := newJournalUseCase(t, store).WithLogger(zerolog.New(&logs))
	store.AuditFunc = func(*domain.AuditLog) error { return errors.New("audit table locked") }

	entry, err := uc.SubmitForApproval(context.Background(), id)
	if err != nil {
		t.Fatalf("audit failure must not fail the transition: %v", err)
	}
	if entry.Status != domain.JournalStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", entry.Status)
	}

	out := logs.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "audit table locked") || !strings.Contains(out, id) {
		t.Fatalf("expected warn log naming the entry and cause, got %s", out)
	}
}

func TestJournalUseCase_GetEntryNotFound(t *testing.T) {
	store := seededStore()
	uc := newJournalUseCase(t, store)

	if _, err := uc.GetEntry(context.Background(), "missing"); !errors.Is(err, domain.ErrJournalEntryNotFound) {
		t.Fatalf("expected ErrJournalEntryNotFound, got %v", err)
	}
	if _, err := uc.SubmitForApproval(context.Background(), "missing"); !errors.Is(err, domain.ErrJournalEntryNotFound) {
		t.Fatalf("expected ErrJournalEntryNotFound, got %v", err)
	}
}

func TestJournalUseCase_ListEntries(t *testing.T) {
	store := seededStore()
	uc := newJournalUseCase(t, store)
	for i := 0; i < 3; i++ {
		postDraft(t, store)
	}

	all, err := uc.ListEntries(context.Background(), domain.JournalFilter{ClientID: testClientID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}

	page, err := uc.ListEntries(context.Background(), domain.JournalFilter{ClientID: testClientID, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 entry on the last page, got %d", len(page))
	}

	none, err := uc.ListEntries(context.Background(), domain.JournalFilter{ClientID: testClientID, Status: domain.JournalStatusPosted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no posted entries, got %d", len(none))
	}
}
