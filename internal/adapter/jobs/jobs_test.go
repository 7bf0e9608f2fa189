package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

type processorFunc func(ctx context.Context) (*domain.ReversalRunResult, error)

func (f processorFunc) ProcessDueAccrualReversals(ctx context.Context) (*domain.ReversalRunResult, error) {
	return f(ctx)
}

type checkerFunc func(ctx context.Context) (*usecase.ConsistencyReport, error)

func (f checkerFunc) CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error) {
	return f(ctx)
}

func TestNewAccrualReverseTask(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 5, 0, time.FixedZone("CET", 3600))

	task, err := NewAccrualReverseTask("", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskAccrualReverseDue {
		t.Fatalf("unexpected task type %s", task.Type())
	}

	var payload TriggerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.TriggeredBy != "scheduler" {
		t.Fatalf("expected scheduler trigger, got %q", payload.TriggeredBy)
	}
	if !payload.RequestedAt.Equal(now) || payload.RequestedAt.Location() != time.UTC {
		t.Fatalf("expected %v in UTC, got %v", now, payload.RequestedAt)
	}
}

func TestAccrualReversalJob_Handle(t *testing.T) {
	var logs bytes.Buffer
	calls := 0
	job := NewAccrualReversalJob(processorFunc(func(ctx context.Context) (*domain.ReversalRunResult, error) {
		calls++
		return &domain.ReversalRunResult{SuccessCount: 3, FailCount: 1}, nil
	}), zerolog.New(&logs))

	task, err := NewAccrualReverseTask("cli", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one run, got %d", calls)
	}
	out := logs.String()
	if !strings.Contains(out, `"fail_count":1`) || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("expected warn log with fail count, got %s", out)
	}
}

func TestAccrualReversalJob_AcceptsEmptyPayload(t *testing.T) {
	job := NewAccrualReversalJob(processorFunc(func(ctx context.Context) (*domain.ReversalRunResult, error) {
		return &domain.ReversalRunResult{}, nil
	}), zerolog.Nop())

	if err := job.Handle(context.Background(), asynq.NewTask(TaskAccrualReverseDue, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccrualReversalJob_Errors(t *testing.T) {
	busy := NewAccrualReversalJob(processorFunc(func(ctx context.Context) (*domain.ReversalRunResult, error) {
		return nil, domain.ErrAccrualRunInProgress
	}), zerolog.Nop())
	if err := busy.Handle(context.Background(), asynq.NewTask(TaskAccrualReverseDue, nil)); err != nil {
		t.Fatalf("a concurrent run is not a failure: %v", err)
	}

	dbErr := errors.New("connection reset")
	failing := NewAccrualReversalJob(processorFunc(func(ctx context.Context) (*domain.ReversalRunResult, error) {
		return nil, dbErr
	}), zerolog.Nop())
	err := failing.Handle(context.Background(), asynq.NewTask(TaskAccrualReverseDue, nil))
	if !errors.Is(err, dbErr) || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable db error, got %v", err)
	}

	err = failing.Handle(context.Background(), asynq.NewTask(TaskAccrualReverseDue, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for a bad payload, got %v", err)
	}

	var unconfigured *AccrualReversalJob
	if err := unconfigured.Handle(context.Background(), asynq.NewTask(TaskAccrualReverseDue, nil)); err == nil {
		t.Fatal("expected error from an unconfigured job")
	}
}

func TestLedgerConsistencyJob_Handle(t *testing.T) {
	ok := NewLedgerConsistencyJob(checkerFunc(func(ctx context.Context) (*usecase.ConsistencyReport, error) {
		return &usecase.ConsistencyReport{Consistent: true, TotalDebits: decimal.NewFromInt(5), TotalCredits: decimal.NewFromInt(5)}, nil
	}), zerolog.Nop())
	if err := ok.Handle(context.Background(), asynq.NewTask(TaskLedgerConsistency, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var logs bytes.Buffer
	broken := NewLedgerConsistencyJob(checkerFunc(func(ctx context.Context) (*usecase.ConsistencyReport, error) {
		return &usecase.ConsistencyReport{UnbalancedEntryIDs: []string{"je-1"}}, usecase.ErrInconsistentLedger
	}), zerolog.New(&logs))
	err := broken.Handle(context.Background(), asynq.NewTask(TaskLedgerConsistency, nil))
	if !errors.Is(err, usecase.ErrInconsistentLedger) || !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected non-retryable inconsistency, got %v", err)
	}
	if !strings.Contains(logs.String(), "je-1") {
		t.Fatalf("expected unbalanced entry in logs, got %s", logs.String())
	}
}

func TestNewWorker(t *testing.T) {
	opts := asynq.RedisClientOpt{Addr: "127.0.0.1:0"}

	if _, err := NewWorker(WorkerConfig{}); err == nil {
		t.Fatal("expected error without redis options")
	}

	task, err := NewAccrualReverseTask("", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = NewWorker(WorkerConfig{
		RedisOpts: opts,
		Logger:    zerolog.Nop(),
		Cron:      []CronRegistration{{Cronspec: "every tuesday-ish", Task: task}},
	})
	if err == nil {
		t.Fatal("expected invalid cron expression to be rejected")
	}

	w, err := NewWorker(WorkerConfig{
		RedisOpts: opts,
		Logger:    zerolog.Nop(),
		Handlers: []TaskHandler{
			{Type: TaskAccrualReverseDue, Handler: NewAccrualReversalJob(nil, zerolog.Nop()).Handle},
			{Type: "", Handler: nil},
		},
		Cron: []CronRegistration{{Cronspec: "@daily", Task: task}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.scheduler == nil {
		t.Fatal("expected a scheduler for cron registrations")
	}
}

func TestAsynqLoggerForwardsToZerolog(t *testing.T) {
	var logs bytes.Buffer
	l := &asynqLogger{logger: zerolog.New(&logs)}

	l.Warn("lease ", "expired")

	var line map[string]any
	if err := json.Unmarshal(logs.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["level"] != "warn" || line["message"] != "lease expired" {
		t.Fatalf("unexpected log line: %v", line)
	}
}
