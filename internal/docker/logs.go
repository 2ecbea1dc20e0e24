package docker

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/moby/moby/client"
)

// LogStreamOptions configures a raw log stream from the engine. Since/Until
// are passed straight through to the daemon's log reader; Follow keeps the
// stream open for new lines.
type LogStreamOptions struct {
	Since      time.Time
	Until      time.Time
	Follow     bool
	Tail       int // 0 means "all available"
	Timestamps bool
}

// StreamLogs opens the raw (possibly multiplexed) log stream for a
// container. The caller is responsible for demultiplexing stdout/stderr
// (the engine's 8-byte frame headers) when tty is false, and for closing
// the returned reader.
// The Log Stream Core does that demuxing and line parsing; this method
// stays a thin adapter over the engine's log endpoint.
func (c *Client) StreamLogs(ctx context.Context, id string, opts LogStreamOptions) (r io.ReadCloser, tty bool, err error) {
	inspect, err := c.InspectContainer(ctx, id)
	if err != nil {
		return nil, false, wrapEngineErr("inspect before log stream", err)
	}
	tty = inspect.Config != nil && inspect.Config.Tty

	clientOpts := client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     opts.Follow,
		Timestamps: opts.Timestamps,
	}
	if opts.Tail > 0 {
		clientOpts.Tail = strconv.Itoa(opts.Tail)
	}
	if !opts.Since.IsZero() {
		clientOpts.Since = opts.Since.Format(time.RFC3339Nano)
	}
	if !opts.Until.IsZero() {
		clientOpts.Until = opts.Until.Format(time.RFC3339Nano)
	}

	reader, err := c.api.ContainerLogs(ctx, id, clientOpts)
	if err != nil {
		return nil, tty, wrapEngineErr("stream logs", err)
	}
	return reader, tty, nil
}
