package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

const maxReportedUnbalanced = 100

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// ConsistencyReport is the outcome of a ledger-wide integrity check.
type ConsistencyReport struct {
	Consistent         bool
	TotalDebits        decimal.Decimal
	TotalCredits       decimal.Decimal
	UnbalancedEntryIDs []string
}

// CheckConsistency reports ledger-wide posted totals and fails when any posted
// entry is out of balance by more than the tolerance.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	debits, credits, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	unbalanced, err := uc.ledgerRepo.UnbalancedEntries(ctx, domain.BalanceTolerance, maxReportedUnbalanced)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		TotalDebits:        debits,
		TotalCredits:       credits,
		UnbalancedEntryIDs: unbalanced,
	}
	report.Consistent = len(unbalanced) == 0
	if !report.Consistent {
		return report, ErrInconsistentLedger
	}

	return report, nil
}
