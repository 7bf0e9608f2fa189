package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewAuditLogDefaultsToSuccessInUTC(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	log := NewAuditLog("a-1", 7, AuditActionBatchPost, AuditResourceBatch, "batch-1", at).
		WithRequestID("req-1").
		WithState(JSON{"entries": 2})

	if log.Status != AuditStatusSuccess {
		t.Fatalf("expected success status, got %s", log.Status)
	}
	if log.CreatedAt.Location() != time.UTC || !log.CreatedAt.Equal(at) {
		t.Fatalf("expected %v in UTC, got %v", at, log.CreatedAt)
	}
	if log.RequestID != "req-1" || log.ErrorMessage != "" {
		t.Fatalf("unexpected log: %+v", log)
	}
	if !reflect.DeepEqual(log.AfterState, JSON{"entries": 2}) {
		t.Fatalf("unexpected state: %v", log.AfterState)
	}
}

func TestAuditLogFailedTruncatesMessage(t *testing.T) {
	long := errors.New(strings.Repeat("x", maxAuditErrorLen+50))

	log := NewAuditLog("a-1", 7, AuditActionBatchPost, AuditResourceBatch, "", time.Now()).Failed(long)

	if log.Status != AuditStatusFailure {
		t.Fatalf("expected failure status, got %s", log.Status)
	}
	if len(log.ErrorMessage) != maxAuditErrorLen {
		t.Fatalf("expected message truncated to %d, got %d", maxAuditErrorLen, len(log.ErrorMessage))
	}
}

func TestMarshalState(t *testing.T) {
	state := MarshalState(struct {
		BatchID string          `json:"batchId"`
		Total   decimal.Decimal `json:"total"`
	}{"b-1", decimal.RequireFromString("100.50")})

	if state["batchId"] != "b-1" || state["total"] != "100.5" {
		t.Fatalf("unexpected state: %v", state)
	}

	if got := MarshalState(nil); got != nil {
		t.Fatalf("expected nil state, got %v", got)
	}
	if got := MarshalState([]int{1}); !reflect.DeepEqual(got, JSON{"error": "state is not a JSON object"}) {
		t.Fatalf("unexpected state for a slice: %v", got)
	}
	if got := MarshalState(make(chan int)); !reflect.DeepEqual(got, JSON{"error": "failed to marshal state"}) {
		t.Fatalf("unexpected state for a channel: %v", got)
	}
}
