package logstream

import (
	"bytes"
	"regexp"
	"time"

	"github.com/rosshhun/docktail-go/internal/clock"
	"github.com/rosshhun/docktail-go/internal/config"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

var (
	timestampAnchorRE  = regexp.MustCompile(`^\s*(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}|\d{2}:\d{2}:\d{2})`)
	levelAnchorRE      = regexp.MustCompile(`(?i)^\s*(\[)?(trace|debug|info|warn|warning|error|fatal|critical|panic)\b`)
	errorAnchorRE      = regexp.MustCompile(ErrorOrWarnPattern)
	stackTraceAnchorRE = regexp.MustCompile(StackTracePattern)
)

// isAnchor reports whether line begins a new multi-line group under cfg's
// heuristics (spec §4.4): a leading timestamp, a leading log-level word, a
// leading JSON '{', or (in RequireErrorAnchor mode) an error/stack token.
func isAnchor(cfg config.MultiLine, l []byte) bool {
	trimmed := bytes.TrimSpace(l)
	if cfg.RequireErrorAnchor {
		return errorAnchorRE.Match(l) || stackTraceAnchorRE.Match(l)
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return true
	}
	return timestampAnchorRE.Match(l) || levelAnchorRE.Match(l)
}

// group is one in-progress multi-line buffer for a single (container,
// stream) pair.
type group struct {
	lines      [][]byte
	seq        uint64
	lastAppend time.Time
}

func (g *group) flush(containerID, kind string) *rpcapi.LogResponse {
	return &rpcapi.LogResponse{
		ContainerID: containerID,
		Timestamp:   g.lastAppend.Unix(),
		StreamKind:  kind,
		Content:     bytes.Join(g.lines, []byte("\n")),
		Sequence:    g.seq,
	}
}

// Grouper buffers per-stream-kind groups for one container, per spec
// §4.4's multi-line grouping stage. It is not safe for concurrent use by
// more than one Stream.Run goroutine.
type Grouper struct {
	containerID string
	cfg         config.MultiLine
	clock       clock.Clock
	groups      map[string]*group
}

// NewGrouper creates a Grouper for one container's log stream.
func NewGrouper(containerID string, cfg config.MultiLine, c clock.Clock) *Grouper {
	return &Grouper{containerID: containerID, cfg: cfg, clock: c, groups: make(map[string]*group)}
}

// Append feeds one raw line into the grouper. It returns a flushed
// LogResponse if appending this line closed out a prior group (a new
// anchor arrived, or max_lines was reached); otherwise nil, meaning the
// line was buffered.
func (gr *Grouper) Append(kind string, seq uint64, l []byte) *rpcapi.LogResponse {
	anchor := isAnchor(gr.cfg, l)
	now := gr.clock.Now()
	copied := append([]byte(nil), l...)

	g, open := gr.groups[kind]
	if !open || len(g.lines) == 0 {
		g = &group{lines: [][]byte{copied}, seq: seq, lastAppend: now}
		gr.groups[kind] = g
		if gr.cfg.RequireErrorAnchor && !anchor {
			// Anchorless lines stand alone outside of an active error group.
			delete(gr.groups, kind)
			return g.flush(gr.containerID, kind)
		}
		return nil
	}

	if anchor {
		flushed := g.flush(gr.containerID, kind)
		gr.groups[kind] = &group{lines: [][]byte{copied}, seq: seq, lastAppend: now}
		return flushed
	}

	g.lines = append(g.lines, copied)
	g.lastAppend = now
	if gr.cfg.MaxLines > 0 && len(g.lines) >= gr.cfg.MaxLines {
		delete(gr.groups, kind)
		return g.flush(gr.containerID, kind)
	}
	return nil
}

// CheckTimeouts flushes any group that has been idle for timeout_ms.
// Callers poll this between reads while Follow is true.
func (gr *Grouper) CheckTimeouts() []*rpcapi.LogResponse {
	timeout := time.Duration(gr.cfg.TimeoutMS) * time.Millisecond
	now := gr.clock.Now()
	var out []*rpcapi.LogResponse
	for kind, g := range gr.groups {
		if len(g.lines) == 0 {
			continue
		}
		if now.Sub(g.lastAppend) >= timeout {
			out = append(out, g.flush(gr.containerID, kind))
			delete(gr.groups, kind)
		}
	}
	return out
}

// FlushAll flushes every open group unconditionally, used when the
// underlying stream ends.
func (gr *Grouper) FlushAll() []*rpcapi.LogResponse {
	var out []*rpcapi.LogResponse
	for kind, g := range gr.groups {
		if len(g.lines) == 0 {
			continue
		}
		out = append(out, g.flush(gr.containerID, kind))
		delete(gr.groups, kind)
	}
	return out
}
