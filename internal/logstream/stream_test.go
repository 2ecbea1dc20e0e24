package logstream

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rosshhun/docktail-go/internal/config"
	"github.com/rosshhun/docktail-go/internal/docker"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(0, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	// Tests don't exercise the idle-timeout-flush path via real time; a
	// channel that never fires keeps the ticker branch inert.
	return make(chan time.Time)
}

func (c *fakeClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }

// muxFrame builds one multiplexed docker log frame: streamType (1=stdout,
// 2=stderr) followed by payload, in the 8-byte-header wire format.
func muxFrame(streamType byte, payload string) []byte {
	buf := make([]byte, 8+len(payload))
	buf[0] = streamType
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[8:], payload)
	return buf
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func newMuxReader(frames ...[]byte) io.ReadCloser {
	var buf bytes.Buffer
	for _, f := range frames {
		buf.Write(f)
	}
	return nopCloser{&buf}
}

func TestRunAssignsSequentialNumbers(t *testing.T) {
	fake := docker.NewFake()
	fake.LogStreamReaders["c1"] = newMuxReader(
		muxFrame(1, "line one\n"),
		muxFrame(1, "line two\n"),
		muxFrame(2, "line three\n"),
	)
	fake.LogStreamTTY = map[string]bool{"c1": false}

	s := New(fake, newFakeClock())
	var got []*rpcapi.LogResponse
	err := s.Run(context.Background(), &rpcapi.StreamLogsRequest{ContainerID: "c1"}, nil, func(r *rpcapi.LogResponse) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d responses, want 3", len(got))
	}
	for i, r := range got {
		if r.Sequence != uint64(i) {
			t.Errorf("response %d sequence = %d, want %d", i, r.Sequence, i)
		}
	}
	if got[2].StreamKind != "stderr" {
		t.Errorf("response 2 kind = %q, want stderr", got[2].StreamKind)
	}
}

func TestRunIncludeFilterDropsNonMatching(t *testing.T) {
	fake := docker.NewFake()
	fake.LogStreamReaders["c1"] = newMuxReader(
		muxFrame(1, "all good here\n"),
		muxFrame(1, "ERROR: disk full\n"),
	)
	fake.LogStreamTTY = map[string]bool{"c1": false}

	s := New(fake, newFakeClock())
	var got []*rpcapi.LogResponse
	err := s.Run(context.Background(), &rpcapi.StreamLogsRequest{
		ContainerID:   "c1",
		FilterPattern: ErrorPattern,
		FilterMode:    string(FilterInclude),
	}, nil, func(r *rpcapi.LogResponse) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || !bytes.Contains(got[0].Content, []byte("ERROR")) {
		t.Fatalf("got = %+v, want only the ERROR line", got)
	}
}

func TestRunRejectsInvalidTimeRange(t *testing.T) {
	fake := docker.NewFake()
	since := time.Unix(100, 0)
	until := time.Unix(50, 0)
	s := New(fake, newFakeClock())
	err := s.Run(context.Background(), &rpcapi.StreamLogsRequest{
		ContainerID: "c1",
		Since:       &since,
		Until:       &until,
	}, nil, func(*rpcapi.LogResponse) error { return nil })
	if err != ErrInvalidTimeRange {
		t.Fatalf("err = %v, want ErrInvalidTimeRange", err)
	}
}

func TestRunGroupsMultiLineStackTrace(t *testing.T) {
	fake := docker.NewFake()
	fake.LogStreamReaders["c1"] = newMuxReader(
		muxFrame(1, "2024-01-01T00:00:00Z ERROR panic: boom\n"),
		muxFrame(1, "  at main.go:10\n"),
		muxFrame(1, "  at main.go:20\n"),
		muxFrame(1, "2024-01-01T00:00:01Z INFO all clear\n"),
	)
	fake.LogStreamTTY = map[string]bool{"c1": false}

	s := New(fake, newFakeClock())
	ml := config.MultiLine{Enabled: true, TimeoutMS: 300, MaxLines: 50}
	var got []*rpcapi.LogResponse
	err := s.Run(context.Background(), &rpcapi.StreamLogsRequest{ContainerID: "c1"}, &ml, func(r *rpcapi.LogResponse) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	if !bytes.Contains(got[0].Content, []byte("at main.go:10")) || !bytes.Contains(got[0].Content, []byte("at main.go:20")) {
		t.Errorf("first group = %q, want stack trace lines merged", got[0].Content)
	}
	if !bytes.Equal(got[1].Content, []byte("2024-01-01T00:00:01Z INFO all clear")) {
		t.Errorf("second group = %q, want standalone info line", got[1].Content)
	}
}

func TestRunTTYStreamIsNotDemultiplexed(t *testing.T) {
	fake := docker.NewFake()
	fake.LogStreamReaders["c1"] = nopCloser{bytes.NewBufferString("raw line one\nraw line two\n")}
	fake.LogStreamTTY = map[string]bool{"c1": true}

	s := New(fake, newFakeClock())
	var got []*rpcapi.LogResponse
	err := s.Run(context.Background(), &rpcapi.StreamLogsRequest{ContainerID: "c1"}, nil, func(r *rpcapi.LogResponse) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 || got[0].StreamKind != "stdout" {
		t.Fatalf("got = %+v", got)
	}
}
