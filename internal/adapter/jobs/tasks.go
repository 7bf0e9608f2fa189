package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every bookkeeping task runs on.
	QueueDefault = "default"

	// TaskAccrualReverseDue reverses the accrual entries whose reversal date has arrived.
	TaskAccrualReverseDue = "accrual:reverse-due"
	// TaskLedgerConsistency verifies posted debits equal posted credits.
	TaskLedgerConsistency = "ledger:consistency"
)

const (
	accrualTaskTimeout     = 15 * time.Minute
	consistencyTaskTimeout = 5 * time.Minute
	defaultMaxRetry        = 3
)

// TriggerPayload records who requested a run.
type TriggerPayload struct {
	TriggeredBy string    `json:"triggered_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewAccrualReverseTask creates a task for one reversal pass.
func NewAccrualReverseTask(triggeredBy string, now time.Time) (*asynq.Task, error) {
	return newTriggerTask(TaskAccrualReverseDue, triggeredBy, now, asynq.Timeout(accrualTaskTimeout))
}

// NewLedgerConsistencyTask creates a task for one integrity check.
func NewLedgerConsistencyTask(triggeredBy string, now time.Time) (*asynq.Task, error) {
	return newTriggerTask(TaskLedgerConsistency, triggeredBy, now, asynq.Timeout(consistencyTaskTimeout))
}

func newTriggerTask(taskType, triggeredBy string, now time.Time, opts ...asynq.Option) (*asynq.Task, error) {
	if triggeredBy == "" {
		triggeredBy = "scheduler"
	}
	body, err := json.Marshal(TriggerPayload{TriggeredBy: triggeredBy, RequestedAt: now.UTC()})
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(defaultMaxRetry)}, opts...)
	return asynq.NewTask(taskType, body, opts...), nil
}

// decodeTrigger accepts an empty payload, which cron-registered tasks may carry.
func decodeTrigger(task *asynq.Task) (TriggerPayload, error) {
	var payload TriggerPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
