package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyInFlight is the stored value while the first request holding a key runs.
	IdempotencyInFlight = "processing"

	// AccrualRunLockKey guards the periodic reversal run.
	AccrualRunLockKey = "accrual-reversal-run"

	// DefaultAccrualBatchLimit caps the due rows handled by one run.
	DefaultAccrualBatchLimit = 500

	// DefaultReportConcurrency caps parallel per-entity ledger reads.
	DefaultReportConcurrency = 4
)
