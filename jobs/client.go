package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/comanda-erp/comanda/internal/audit"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueAuthEvent enqueues an audit event. A duplicate event id is not an error.
func (c *Client) EnqueueAuthEvent(ctx context.Context, event audit.Event) error {
	task, err := NewAuthEventTask(event)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

var _ audit.Enqueuer = (*Client)(nil)
