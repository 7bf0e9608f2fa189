package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
	now    func() time.Time
}

// NewClient constructs an asynq client.
func NewClient(redisOpts asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts), now: time.Now}
}

// EnqueueAccrualReversal queues an immediate reversal pass.
func (c *Client) EnqueueAccrualReversal(ctx context.Context, triggeredBy string) (*asynq.TaskInfo, error) {
	task, err := NewAccrualReverseTask(triggeredBy, c.now())
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// EnqueueLedgerConsistency queues an immediate integrity check.
func (c *Client) EnqueueLedgerConsistency(ctx context.Context, triggeredBy string) (*asynq.TaskInfo, error) {
	task, err := NewLedgerConsistencyTask(triggeredBy, c.now())
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
