package shellbridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc/metadata"

	"github.com/rosshhun/docktail-go/internal/logging"
	"github.com/rosshhun/docktail-go/internal/rpcapi"
	"github.com/rosshhun/docktail-go/internal/submetrics"
)

// fakeShellStream stands in for rpcapi.ShellService_OpenShellClient: a
// scripted sequence of server frames to Recv, and a record of every frame
// Send was called with.
type fakeShellStream struct {
	mu        sync.Mutex
	toClient  []*rpcapi.ShellServerFrame
	recvIdx   int
	recvErr   error
	sent      []*rpcapi.ShellClientFrame
	sendErr   error
	closeSent bool
}

func (f *fakeShellStream) Send(m *rpcapi.ShellClientFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeShellStream) Recv() (*rpcapi.ShellServerFrame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recvIdx >= len(f.toClient) {
		if f.recvErr != nil {
			return nil, f.recvErr
		}
		return nil, io.EOF
	}
	frame := f.toClient[f.recvIdx]
	f.recvIdx++
	return frame, nil
}

func (f *fakeShellStream) Header() (metadata.MD, error) { return nil, nil }
func (f *fakeShellStream) Trailer() metadata.MD         { return nil }
func (f *fakeShellStream) CloseSend() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeSent = true
	return nil
}
func (f *fakeShellStream) Context() context.Context { return context.Background() }
func (f *fakeShellStream) SendMsg(m any) error       { panic("unused in tests") }
func (f *fakeShellStream) RecvMsg(m any) error       { panic("unused in tests") }

func TestPumpAgentToQueueForwardsUntilExit(t *testing.T) {
	stream := &fakeShellStream{toClient: []*rpcapi.ShellServerFrame{
		{Type: frameOutput, Output: []byte("hello\n")},
		{Type: frameOutput, Output: []byte("world\n")},
		{Type: frameExit, ExitCode: 0},
	}}
	out := newOutputQueue()
	b := &Bridge{log: logging.New(false)}

	err := b.pumpAgentToQueue(stream, out)
	if err != nil {
		t.Fatalf("pumpAgentToQueue: %v", err)
	}

	first, ok := out.pop()
	if !ok || string(first.Data) != "hello\n" {
		t.Fatalf("first frame = %+v", first)
	}
	second, _ := out.pop()
	if string(second.Data) != "world\n" {
		t.Fatalf("second frame = %+v", second)
	}
	third, _ := out.pop()
	if third.Type != frameExit || third.ExitCode != 0 {
		t.Fatalf("third frame = %+v, want exit/0", third)
	}
}

func TestPumpAgentToQueueSynthesizesExitOnEOF(t *testing.T) {
	stream := &fakeShellStream{}
	out := newOutputQueue()
	b := &Bridge{log: logging.New(false)}

	if err := b.pumpAgentToQueue(stream, out); err != nil {
		t.Fatalf("pumpAgentToQueue: %v", err)
	}
	frame, ok := out.pop()
	if !ok || frame.Type != frameExit || frame.ExitCode != -1 {
		t.Fatalf("frame = %+v, want synthesized exit/-1", frame)
	}
}

func TestPumpAgentToQueueSurfacesStreamError(t *testing.T) {
	boom := errors.New("boom")
	stream := &fakeShellStream{recvErr: boom}
	out := newOutputQueue()
	b := &Bridge{log: logging.New(false)}

	err := b.pumpAgentToQueue(stream, out)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	frame, ok := out.pop()
	if !ok || frame.Type != frameError || frame.Code != CodeStreamFailed {
		t.Fatalf("frame = %+v, want error/STREAM_FAILED", frame)
	}
}

func TestPumpWSToAgentForwardsInputAndResize(t *testing.T) {
	stream := &fakeShellStream{}
	b := &Bridge{log: logging.New(false)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		_ = b.pumpWSToAgent(conn, stream)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.WriteJSON(ClientFrame{Type: frameInput, Data: []byte("ls\n")}); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := client.WriteJSON(ClientFrame{Type: frameResize, Cols: 100, Rows: 40}); err != nil {
		t.Fatalf("write resize: %v", err)
	}
	client.Close()

	// Poll for the server goroutine to finish processing both frames.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stream.mu.Lock()
		n := len(stream.sent)
		stream.mu.Unlock()
		if n >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	stream.mu.Lock()
	defer stream.mu.Unlock()
	if len(stream.sent) != 2 {
		t.Fatalf("sent %d frames, want 2: %+v", len(stream.sent), stream.sent)
	}
	if stream.sent[0].Type != frameInput || string(stream.sent[0].Input) != "ls\n" {
		t.Errorf("sent[0] = %+v", stream.sent[0])
	}
	if stream.sent[1].Type != frameResize || stream.sent[1].Cols != 100 || stream.sent[1].Rows != 40 {
		t.Errorf("sent[1] = %+v", stream.sent[1])
	}
}

func TestPumpQueueToWSWritesFramesAndStopsAtExit(t *testing.T) {
	b := &Bridge{sub: submetrics.New(), log: logging.New(false)}
	out := newOutputQueue()
	out.push(&ServerFrame{Type: frameOutput, Data: []byte("hi\n")})
	out.push(&ServerFrame{Type: frameExit, ExitCode: 7})

	var received []ServerFrame
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		_ = b.pumpQueueToWS(conn, out)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	for i := 0; i < 2; i++ {
		_, data, err := client.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var f ServerFrame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		received = append(received, f)
	}

	if len(received) != 2 || string(received[0].Data) != "hi\n" || received[1].Type != frameExit || received[1].ExitCode != 7 {
		t.Fatalf("received = %+v", received)
	}

	snap := b.sub.Snapshot()
	if snap.TotalMessages != 2 {
		t.Errorf("TotalMessages = %d, want 2", snap.TotalMessages)
	}
}
