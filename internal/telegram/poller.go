package telegram

import (
	"context"
	"errors"
	"time"

	"cvbot_backend/platform/logger"
)

// UpdateHandler consumes a single inbound update. Implementations must not
// panic; the poller still recovers as a last line of defense so one bad
// update cannot stop the dispatch loop.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// Poller drives the getUpdates long-poll loop. Updates are handled to
// completion, in order, before the next batch is fetched.
type Poller struct {
	client  *Client
	handler UpdateHandler
	timeout time.Duration
	log     *logger.Logger
}

func NewPoller(client *Client, handler UpdateHandler, timeout time.Duration, log *logger.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{
		client:  client,
		handler: handler,
		timeout: timeout,
		log:     log,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, next, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				p.log.Info("poller stopped", "reason", "context_canceled")
				return nil
			}
			p.log.Warn("get updates failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(1 * time.Second):
			}
			continue
		}
		offset = next

		for _, u := range updates {
			p.dispatch(ctx, u)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, update Update) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("update handler panicked", "update_id", update.UpdateID, "panic", r)
		}
	}()
	p.handler.HandleUpdate(ctx, update)
}
