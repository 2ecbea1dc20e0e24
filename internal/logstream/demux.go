package logstream

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
)

// line is one demultiplexed, newline-delimited chunk from the engine's log
// stream, tagged with which stream it came from.
type line struct {
	kind string
	data []byte
}

// lineSource yields complete lines from a container's log stream in
// arrival order, demultiplexing stdout/stderr when the engine sends a
// multiplexed (non-tty) stream. No demuxing library surfaced in the
// retrieved pack (other_examples' docker drivers only TODO-reference one);
// the 8-byte stream-header framing is small and well documented enough to
// implement directly rather than reach past the pack for it.
type lineSource struct {
	r   io.Reader
	tty bool

	header [8]byte
	buf    map[byte][]byte
	queue  []line

	scanner *bufio.Scanner // used only when tty
}

func newLineSource(r io.Reader, tty bool) *lineSource {
	ls := &lineSource{r: r, tty: tty}
	if tty {
		ls.scanner = bufio.NewScanner(r)
		ls.scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	} else {
		ls.buf = make(map[byte][]byte)
	}
	return ls
}

// next returns the next complete line, or io.EOF once the underlying
// stream is exhausted.
func (ls *lineSource) next() (line, error) {
	if ls.tty {
		if ls.scanner.Scan() {
			return line{kind: "stdout", data: ls.scanner.Bytes()}, nil
		}
		if err := ls.scanner.Err(); err != nil {
			return line{}, err
		}
		return line{}, io.EOF
	}

	for {
		if len(ls.queue) > 0 {
			l := ls.queue[0]
			ls.queue = ls.queue[1:]
			return l, nil
		}
		if err := ls.readFrame(); err != nil {
			return line{}, err
		}
	}
}

// readFrame reads one multiplexed frame (8-byte header: stream type, 3
// reserved bytes, 4-byte big-endian payload length) and appends any
// complete newline-terminated lines it produces to the pending queue.
func (ls *lineSource) readFrame() error {
	if _, err := io.ReadFull(ls.r, ls.header[:]); err != nil {
		return err
	}
	size := binary.BigEndian.Uint32(ls.header[4:8])
	payload := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(ls.r, payload); err != nil {
			return err
		}
	}

	streamType := ls.header[0]
	ls.buf[streamType] = append(ls.buf[streamType], payload...)
	ls.drain(streamType)
	return nil
}

func (ls *lineSource) drain(streamType byte) {
	kind := streamKindName(streamType)
	buf := ls.buf[streamType]
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		ls.queue = append(ls.queue, line{kind: kind, data: append([]byte(nil), buf[:idx]...)})
		buf = buf[idx+1:]
	}
	ls.buf[streamType] = buf
}

func streamKindName(streamType byte) string {
	if streamType == 2 {
		return "stderr"
	}
	return "stdout"
}
