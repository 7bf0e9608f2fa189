package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/bookkeeper/internal/domain"
)

func TestAuditRepositoryCreate(t *testing.T) {
	mockPool := newMockPool(t)
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	log := domain.NewAuditLog("A1", 7, domain.AuditActionAccrualReverse, domain.AuditResourceJournalEntry, "E2", at).
		WithState(domain.JSON{"schedule_id": "S1"})

	mockPool.ExpectExec("INSERT INTO audit_logs").
		WithArgs("A1", int64(7), "accrual.reverse", "journal_entry", "E2", "",
			[]byte(`{"schedule_id":"S1"}`), "success", "", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := newAuditRepositoryWithDB(mockPool).Create(context.Background(), log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAuditRepositoryCreateWrapsError(t *testing.T) {
	mockPool := newMockPool(t)
	dbErr := errors.New("connection reset")
	log := domain.NewAuditLog("A1", 7, domain.AuditActionBatchPost, domain.AuditResourceBatch, "", time.Now()).
		Failed(errors.New("batch rolled back"))

	mockPool.ExpectExec("INSERT INTO audit_logs").WillReturnError(dbErr)

	err := newAuditRepositoryWithDB(mockPool).Create(context.Background(), log)
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
