package docker

import (
	"context"
	"time"

	"github.com/moby/moby/api/types/events"
	"github.com/moby/moby/client"
)

// EventOptions filters the engine event feed.
type EventOptions struct {
	Types []string // e.g. "container", "image"; empty means all types
	Since time.Time
	Until time.Time
}

// StreamEvents subscribes to the engine's event feed. The returned channels
// follow the engine client's own convention: msgs is closed when the
// subscription ends, and at most one error is ever sent on errs.
func (c *Client) StreamEvents(ctx context.Context, opts EventOptions) (<-chan events.Message, <-chan error) {
	filters := make(client.Filters)
	for _, t := range opts.Types {
		filters.Add("type", t)
	}

	eventOpts := client.EventsListOptions{Filters: filters}
	if !opts.Since.IsZero() {
		eventOpts.Since = opts.Since.Format(time.RFC3339Nano)
	}
	if !opts.Until.IsZero() {
		eventOpts.Until = opts.Until.Format(time.RFC3339Nano)
	}

	return c.api.Events(ctx, eventOpts)
}
