package shellbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rosshhun/docktail-go/internal/agentpool"
	"github.com/rosshhun/docktail-go/internal/logging"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
	"github.com/rosshhun/docktail-go/internal/submetrics"
)

// Bridge serves the WebSocket endpoint described in spec §4.6, proxying
// one browser WebSocket to one agent ShellService.OpenShell stream.
type Bridge struct {
	pool     *agentpool.Pool
	sub      *submetrics.Counters
	log      *logging.Logger
	upgrader websocket.Upgrader
}

// New builds a Bridge dispatching through pool and recording activity in
// sub.
func New(pool *agentpool.Pool, sub *submetrics.Counters, log *logging.Logger) *Bridge {
	return &Bridge{
		pool: pool,
		sub:  sub,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades r to a WebSocket and drives the bridge's lifecycle:
// receive init, resolve the agent, open its shell stream, pump frames
// both ways until either side closes.
func (b *Bridge) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("shell bridge upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var init ClientFrame
	if err := conn.ReadJSON(&init); err != nil {
		return
	}
	if init.Type != frameInit || init.ContainerID == "" || init.AgentID == "" {
		b.sendError(conn, CodeInvalidInit, "init frame must set container_id and agent_id")
		return
	}

	snap, err := b.pool.Get(init.AgentID)
	if err != nil || snap.Health == agentpool.HealthUnhealthy {
		b.log.Debug("shell bridge agent unavailable", "agent", init.AgentID, "error", err)
		b.sendError(conn, CodeAgentUnavailable, fmt.Sprintf("agent %q is unavailable", init.AgentID))
		b.sub.SubscriptionFailed()
		return
	}

	agentConn, err := b.pool.Conn(init.AgentID)
	if err != nil {
		b.sendError(conn, CodeAgentUnavailable, err.Error())
		b.sub.SubscriptionFailed()
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := rpcapi.NewShellServiceClient(agentConn)
	stream, err := client.OpenShell(ctx)
	if err != nil {
		b.sendError(conn, CodeStreamFailed, err.Error())
		b.sub.SubscriptionFailed()
		return
	}

	if err := stream.Send(&rpcapi.ShellClientFrame{
		Type:        frameInit,
		ContainerID: init.ContainerID,
		Command:     init.Command,
		Tty:         init.Tty,
		Cols:        init.Cols,
		Rows:        init.Rows,
	}); err != nil {
		b.sendError(conn, CodeExecFailed, err.Error())
		b.sub.SubscriptionFailed()
		return
	}

	b.sub.SubscriptionStarted(init.AgentID)
	defer b.sub.SubscriptionEnded(init.AgentID)

	out := newOutputQueue()
	defer out.close()

	// Three pumps, fanned into one error channel the way the teacher's
	// Agent.Channel fans in its heartbeat and receive loops.
	errCh := make(chan error, 3)
	go func() { errCh <- b.pumpAgentToQueue(stream, out) }()
	go func() { errCh <- b.pumpQueueToWS(conn, out) }()
	go func() { errCh <- b.pumpWSToAgent(conn, stream) }()

	err = <-errCh
	cancel()
	_ = stream.CloseSend()
	// Closing the queue lets pumpQueueToWS flush whatever's already
	// enqueued (e.g. a final exit frame) before it returns; forcing the
	// read deadline unblocks pumpWSToAgent without racing the flush.
	out.close()
	_ = conn.SetReadDeadline(time.Now())
	<-errCh
	<-errCh
	if err != nil && !errors.Is(err, io.EOF) {
		b.log.Debug("shell bridge session ended", "agent", init.AgentID, "container", init.ContainerID, "error", err)
	}
}

func (b *Bridge) sendError(conn *websocket.Conn, code, message string) {
	_ = conn.WriteJSON(ServerFrame{Type: frameError, Code: code, Message: message})
}

// pumpAgentToQueue reads ShellServerFrames off the agent stream, converts
// them to wire frames, and enqueues them for the WebSocket writer. It
// returns once the stream reports exit (real or synthesized) or fails.
func (b *Bridge) pumpAgentToQueue(stream rpcapi.ShellService_OpenShellClient, out *outputQueue) error {
	for {
		frame, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			out.push(&ServerFrame{Type: frameExit, ExitCode: -1, Message: "agent stream closed"})
			return nil
		}
		if err != nil {
			out.push(&ServerFrame{Type: frameError, Code: CodeStreamFailed, Message: err.Error()})
			return err
		}
		out.push(agentFrameToWire(frame))
		if frame.Type == frameExit {
			return nil
		}
	}
}

// pumpQueueToWS drains out and writes each frame to the browser's
// WebSocket, recording subscription byte/message metrics as it goes.
func (b *Bridge) pumpQueueToWS(conn *websocket.Conn, out *outputQueue) error {
	for {
		frame, ok := out.pop()
		if !ok {
			return nil
		}
		encoded, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
			return err
		}
		b.sub.MessageSent(len(frame.Data))
		if frame.Type == frameExit {
			return nil
		}
	}
}

// pumpWSToAgent reads client frames (input/resize) off the browser's
// WebSocket and forwards them to the agent's shell stream. The bounded
// input side of spec §4.6's back-pressure rule falls out naturally here:
// a slow agent stream blocks Send, which blocks this read loop, which
// blocks the browser's own TCP flow control.
func (b *Bridge) pumpWSToAgent(conn *websocket.Conn, stream rpcapi.ShellService_OpenShellClient) error {
	for {
		var cf ClientFrame
		if err := conn.ReadJSON(&cf); err != nil {
			return err
		}
		switch cf.Type {
		case frameInput:
			if err := stream.Send(&rpcapi.ShellClientFrame{Type: frameInput, Input: cf.Data}); err != nil {
				return err
			}
		case frameResize:
			if err := stream.Send(&rpcapi.ShellClientFrame{Type: frameResize, Cols: cf.Cols, Rows: cf.Rows}); err != nil {
				return err
			}
		}
	}
}

func agentFrameToWire(f *rpcapi.ShellServerFrame) *ServerFrame {
	return &ServerFrame{
		Type:     f.Type,
		Data:     f.Output,
		ExitCode: f.ExitCode,
		Message:  f.Message,
		Code:     f.Code,
	}
}
