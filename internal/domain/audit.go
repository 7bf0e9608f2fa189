package domain

import (
	"encoding/json"
	"time"
)

// maxAuditErrorLen bounds the stored error text; batch failures can list
// every rejected group.
const maxAuditErrorLen = 2000

// AuditLog is one row of the bookkeeping audit trail. Entries are written
// after the audited change commits (or after a batch rolls back) and never
// influence the outcome of the operation.
type AuditLog struct {
	ID           string
	ClientID     int64
	Action       AuditAction
	ResourceType string
	ResourceID   string
	RequestID    string
	AfterState   JSON
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a free-form state snapshot stored as jsonb.
type JSON map[string]any

type AuditAction string

const (
	AuditActionBatchPost       AuditAction = "journal.batch_post"
	AuditActionEntrySubmit     AuditAction = "journal.submit"
	AuditActionEntryApprove    AuditAction = "journal.approve"
	AuditActionAccrualReverse  AuditAction = "accrual.reverse"
	AuditActionGroupCreate     AuditAction = "consolidation.group_create"
	AuditActionGroupMembership AuditAction = "consolidation.group_membership"
)

// Audited resource types.
const (
	AuditResourceJournalEntry       = AggregateTypeJournalEntry
	AuditResourceBatch              = AggregateTypeBatch
	AuditResourceConsolidationGroup = "consolidation_group"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// NewAuditLog starts a successful audit entry for one resource.
func NewAuditLog(id string, clientID int64, action AuditAction, resourceType, resourceID string, at time.Time) *AuditLog {
	return &AuditLog{
		ID:           id,
		ClientID:     clientID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       AuditStatusSuccess,
		CreatedAt:    at.UTC(),
	}
}

func (l *AuditLog) WithRequestID(requestID string) *AuditLog {
	l.RequestID = requestID
	return l
}

func (l *AuditLog) WithState(state JSON) *AuditLog {
	l.AfterState = state
	return l
}

// Failed marks the entry as a failure, keeping a bounded copy of the cause.
func (l *AuditLog) Failed(cause error) *AuditLog {
	l.Status = AuditStatusFailure
	if cause != nil {
		msg := cause.Error()
		if len(msg) > maxAuditErrorLen {
			msg = msg[:maxAuditErrorLen]
		}
		l.ErrorMessage = msg
	}
	return l
}

// MarshalState snapshots v through its JSON form. Decimals keep their exact
// string representation.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "state is not a JSON object"}
	}
	return result
}
