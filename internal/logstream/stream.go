// Package logstream composes a StreamLogsRequest into a LogResponse
// stream: opening the Engine Adapter's raw log reader, demultiplexing and
// filtering lines, assigning sequence numbers, and optionally grouping
// multi-line records before they're emitted to the RPC Surface (spec
// §4.4).
package logstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rosshhun/docktail-go/internal/clock"
	"github.com/rosshhun/docktail-go/internal/config"
	"github.com/rosshhun/docktail-go/internal/docker"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

// MaxLineSize mirrors the Parser Subsystem's line-size ceiling; the Log
// Stream Core enforces it on its own scanner buffer before a line ever
// reaches the parser.
const MaxLineSize = 1 << 20

// yieldBudget is the cooperative yielding budget from spec §4.4: after
// this many lines without yielding, the stream calls runtime.Gosched so a
// single busy container can't starve its goroutine's P. Go's scheduler
// preempts long-running goroutines on its own, but this keeps the
// stream's behavior legible against the spec's budget.
const yieldBudget = 1024

// ErrInvalidTimeRange is returned when since is after until.
var ErrInvalidTimeRange = fmt.Errorf("logstream: %w: since must not be after until", docker.ErrInvalidArgument)

// Stream runs one StreamLogs request to completion (or until ctx is
// cancelled, for Follow streams).
type Stream struct {
	engine docker.API
	clock  clock.Clock
}

// New builds a Stream backed by engine.
func New(engine docker.API, c clock.Clock) *Stream {
	return &Stream{engine: engine, clock: c}
}

// Emit is called once per outgoing LogResponse, in sequence order.
type Emit func(*rpcapi.LogResponse) error

// Run validates req, opens the engine's log stream, filters and
// sequences lines, and calls emit for each resulting response. If ml is
// non-nil and ml.Enabled, multi-line grouping runs as a downstream stage
// before emission.
func (s *Stream) Run(ctx context.Context, req *rpcapi.StreamLogsRequest, ml *config.MultiLine, emit Emit) error {
	if req.Since != nil && req.Until != nil && req.Since.After(*req.Until) {
		return ErrInvalidTimeRange
	}

	filter, err := CompileFilter(req.FilterPattern, FilterMode(req.FilterMode))
	if err != nil {
		return err
	}

	opts := docker.LogStreamOptions{Follow: req.Follow, Tail: int(req.TailLines)}
	if req.Since != nil {
		opts.Since = *req.Since
	}
	if req.Until != nil {
		opts.Until = *req.Until
	}

	reader, tty, err := s.engine.StreamLogs(ctx, req.ContainerID, opts)
	if err != nil {
		return err
	}
	defer reader.Close()

	var grouper *Grouper
	if ml != nil && ml.Enabled {
		grouper = NewGrouper(req.ContainerID, *ml, s.clock)
	}

	var seq uint64
	src := newLineSource(reader, tty)

	pump := func(l line) error {
		if !filter.Keep(l.data) {
			return nil
		}
		n := atomic.AddUint64(&seq, 1) - 1

		if grouper == nil {
			return emit(&rpcapi.LogResponse{
				ContainerID: req.ContainerID,
				Timestamp:   s.clock.Now().Unix(),
				StreamKind:  l.kind,
				Content:     append([]byte(nil), l.data...),
				Sequence:    n,
			})
		}
		if resp := grouper.Append(l.kind, n, l.data); resp != nil {
			return emit(resp)
		}
		return nil
	}

	type readResult struct {
		l   line
		err error
	}
	lines := make(chan readResult, 1)
	go func() {
		for {
			l, err := src.next()
			select {
			case lines <- readResult{l, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var sinceYield int
	ticker := s.clock.After(100 * time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			s.flushRemaining(grouper, emit)
			return ctx.Err()

		case <-ticker:
			if grouper != nil {
				for _, resp := range grouper.CheckTimeouts() {
					if err := emit(resp); err != nil {
						return err
					}
				}
			}
			ticker = s.clock.After(100 * time.Millisecond)

		case res := <-lines:
			if errors.Is(res.err, io.EOF) {
				s.flushRemaining(grouper, emit)
				return nil
			}
			if res.err != nil {
				s.flushRemaining(grouper, emit)
				return res.err
			}
			if len(res.l.data) > MaxLineSize {
				s.flushRemaining(grouper, emit)
				return docker.ErrLineTooLarge
			}
			if err := pump(res.l); err != nil {
				return err
			}

			sinceYield++
			if sinceYield >= yieldBudget {
				sinceYield = 0
				runtime.Gosched()
			}
		}
	}
}

func (s *Stream) flushRemaining(grouper *Grouper, emit Emit) {
	if grouper == nil {
		return
	}
	for _, resp := range grouper.FlushAll() {
		_ = emit(resp)
	}
}
