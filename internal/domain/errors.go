package domain

import "errors"

var (
	// Request-shape errors, rejected before any transaction is opened.
	ErrEmptyBatch          = errors.New("batch contains no entry groups")
	ErrMissingEntity       = errors.New("entity id is required")
	ErrMissingReversalDate = errors.New("accrual batch requires a reversal date")
	ErrInvalidReversalDate = errors.New("reversal date must be after the entry date")
	ErrMissingEntryDate    = errors.New("entry group has no date")
	ErrEmptyEntryGroup     = errors.New("entry group has no lines")

	// Reference data errors
	ErrClientNotFound  = errors.New("client not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account is inactive")

	// Journal errors
	ErrJournalEntryNotFound    = errors.New("journal entry not found")
	ErrUnbalancedEntry         = errors.New("journal entry debits and credits do not balance")
	ErrInvalidStatusTransition = errors.New("invalid journal entry status transition")
	ErrEntryImmutable          = errors.New("posted journal entry is immutable")
	ErrInvalidAmount           = errors.New("amount must not be negative")

	// Accrual errors
	ErrScheduleNotFound     = errors.New("accrual reversal schedule not found")
	ErrOriginalNotPosted    = errors.New("original accrual entry is not posted")
	ErrAlreadyReversed      = errors.New("journal entry already reversed")
	ErrAccrualRunInProgress = errors.New("accrual reversal run already in progress")

	// Consolidation errors
	ErrGroupNotFound     = errors.New("consolidation group not found")
	ErrMemberNotFound    = errors.New("entity is not a member of the consolidation group")
	ErrDuplicateMember   = errors.New("entity is already a member of the consolidation group")
	ErrInvalidReportType = errors.New("invalid report type")
	ErrInvalidDateRange  = errors.New("start date must not be after end date")
	ErrInvalidPeriodType = errors.New("invalid period type")
	ErrInvalidGroupName  = errors.New("consolidation group name is required")
)
