package docker

import (
	"context"
	"encoding/json"
	"io"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
)

// StreamStats opens the engine's streaming stats endpoint for a container.
// Each JSON object decoded off the returned reader is one
// container.StatsResponse frame; the caller decodes with json.Decoder and
// closes the reader when done.
func (c *Client) StreamStats(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := c.api.ContainerStats(ctx, id, client.ContainerStatsOptions{Stream: true})
	if err != nil {
		return nil, wrapEngineErr("stream stats", err)
	}
	return resp.Body, nil
}

// OneShotStats returns a single stats snapshot without opening a stream.
func (c *Client) OneShotStats(ctx context.Context, id string) (container.StatsResponse, error) {
	resp, err := c.api.ContainerStats(ctx, id, client.ContainerStatsOptions{Stream: false})
	if err != nil {
		return container.StatsResponse{}, wrapEngineErr("container stats", err)
	}
	defer resp.Body.Close()

	var stats container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return container.StatsResponse{}, wrapEngineErr("decode stats", err)
	}
	return stats, nil
}
