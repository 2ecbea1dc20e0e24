package agentrpc

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/moby/moby/api/types/container"

	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// StreamStats relays container stat frames, either a single snapshot
// (Follow=false) or the engine's streaming decoder (Follow=true), through
// one conversion into the wire StatsFrame shape.
func (s *Server) StreamStats(req *rpcapi.StreamStatsRequest, stream rpcapi.StatsService_StreamStatsServer) error {
	ctx := stream.Context()

	if !req.Follow {
		raw, err := s.engine.OneShotStats(ctx, req.ContainerID)
		if err != nil {
			return mapErr(err)
		}
		return stream.Send(toStatsFrame(req.ContainerID, raw))
	}

	reader, err := s.engine.StreamStats(ctx, req.ContainerID)
	if err != nil {
		return mapErr(err)
	}
	defer reader.Close()

	dec := json.NewDecoder(reader)
	for {
		var raw container.StatsResponse
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := stream.Send(toStatsFrame(req.ContainerID, raw)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// toStatsFrame derives CPU percent the way the Docker CLI does: the
// fraction of the CPU-delta over the system-delta, scaled by the number
// of online CPUs.
func toStatsFrame(containerID string, raw container.StatsResponse) *rpcapi.StatsFrame {
	frame := &rpcapi.StatsFrame{
		ContainerID:   containerID,
		Timestamp:     raw.Read.Unix(),
		MemUsageBytes: raw.MemoryStats.Usage,
		MemLimitBytes: raw.MemoryStats.Limit,
	}

	cpuDelta := float64(raw.CPUStats.CPUUsage.TotalUsage) - float64(raw.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(raw.CPUStats.SystemUsage) - float64(raw.PreCPUStats.SystemUsage)
	if cpuDelta > 0 && sysDelta > 0 {
		online := float64(raw.CPUStats.OnlineCPUs)
		if online == 0 {
			online = float64(len(raw.CPUStats.CPUUsage.PercpuUsage))
		}
		if online == 0 {
			online = 1
		}
		frame.CPUPercent = (cpuDelta / sysDelta) * online * 100.0
	}

	for _, net := range raw.Networks {
		frame.NetRxBytes += net.RxBytes
		frame.NetTxBytes += net.TxBytes
	}

	for _, entry := range raw.BlkioStats.IoServiceBytesRecursive {
		switch entry.Op {
		case "read", "Read":
			frame.BlockReadBytes += entry.Value
		case "write", "Write":
			frame.BlockWriteBytes += entry.Value
		}
	}

	return frame
}
