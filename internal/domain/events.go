package domain

import "time"

// Event types
const (
	EventTypeJournalBatchPosted = "journal.batch_posted"
	EventTypeJournalPosted      = "journal.posted"
	EventTypeAccrualReversed    = "accrual.reversed"
)

// Aggregate types
const (
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypeBatch        = "journal_batch"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// JournalPostedEvent payload
type JournalPostedEvent struct {
	EntryID  string `json:"entry_id"`
	ClientID int64  `json:"client_id"`
	EntityID *int64 `json:"entity_id,omitempty"`
	Date     string `json:"date"`
	Debits   string `json:"debits"`
	Credits  string `json:"credits"`
}

// BatchPostedEvent payload
type BatchPostedEvent struct {
	BatchID   string   `json:"batch_id"`
	ClientID  int64    `json:"client_id"`
	EntityID  int64    `json:"entity_id"`
	EntryIDs  []string `json:"entry_ids"`
	IsAccrual bool     `json:"is_accrual"`
	Status    string   `json:"status"`
}

// AccrualReversedEvent payload
type AccrualReversedEvent struct {
	ScheduleID      string `json:"schedule_id"`
	OriginalEntryID string `json:"original_entry_id"`
	ReversalEntryID string `json:"reversal_entry_id"`
	ReversalDate    string `json:"reversal_date"`
}

// NewOutboxEvent builds an unpublished event with payload converted via MarshalState.
func NewOutboxEvent(id, aggregateType, aggregateID, eventType string, payload any, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       MarshalState(payload),
		CreatedAt:     at,
	}
}
