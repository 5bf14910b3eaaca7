package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestEncode(t *testing.T) {
	for _, tt := range []struct {
		name string
		msg  Message
		want string
	}{
		{"progress", ProgressMessage(3.0), "L 3.0\n"},
		{"progress rounds", ProgressMessage(2.96), "L 3.0\n"},
		{"result", ResultMessage("hello world"), "F hello world\n"},
		{"result newline", ResultMessage("a\nb"), "F a b\n"},
		{"empty result", ResultMessage(""), "F \n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.msg.Encode()); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	for _, tt := range []struct {
		line string
		want Message
		ok   bool
	}{
		{"L 3.0", ProgressMessage(3.0), true},
		{"L 12.5\r", ProgressMessage(12.5), true},
		{"F hello world", ResultMessage("hello world"), true},
		{"F  leading space", ResultMessage(" leading space"), true},
		{"F ", ResultMessage(""), true},
		{"L abc", Message{}, false},
		{"L", Message{}, false},
		{"Fhello", Message{}, false},
		{"X 1.0", Message{}, false},
		{"", Message{}, false},
		{"l 1.0", Message{}, false},
	} {
		t.Run(fmt.Sprintf("%q", tt.line), func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLineDecoderSplitReads(t *testing.T) {
	stream := []byte("L 3.0\nF hello world\n")
	var whole LineDecoder
	want := whole.Feed(stream)
	if len(want) != 2 {
		t.Fatalf("single read decoded %d messages, want 2", len(want))
	}

	for split := 1; split < len(stream); split++ {
		var dec LineDecoder
		got := dec.Feed(stream[:split])
		got = append(got, dec.Feed(stream[split:])...)
		if len(got) != len(want) {
			t.Fatalf("split at %d: got %d messages, want %d", split, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("split at %d: message %d = %+v, want %+v", split, i, got[i], want[i])
			}
		}
	}
}

func TestLineDecoderByteAtATime(t *testing.T) {
	var dec LineDecoder
	var got []Message
	for _, b := range []byte("F hi\nbogus\nL 1.5\n") {
		got = append(got, dec.Feed([]byte{b})...)
	}
	want := []Message{ResultMessage("hi"), ProgressMessage(1.5)}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if dec.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", dec.Pending())
	}
}

func TestLineDecoderHoldsPartialLine(t *testing.T) {
	var dec LineDecoder
	if msgs := dec.Feed([]byte("F unterminated")); len(msgs) != 0 {
		t.Fatalf("got %d messages before newline", len(msgs))
	}
	if dec.Pending() != len("F unterminated") {
		t.Errorf("Pending() = %d", dec.Pending())
	}
}

type chunkReader struct {
	chunks [][]byte
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, r.err
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func TestReadMessages(t *testing.T) {
	r := &chunkReader{
		chunks: [][]byte{[]byte("L 3"), []byte(".0\nF hel"), []byte("lo world\n")},
		err:    io.EOF,
	}
	var got []Message
	if err := ReadMessages(r, func(m Message) { got = append(got, m) }); err != nil {
		t.Fatalf("ReadMessages: %v", err)
	}
	if len(got) != 2 || got[0] != ProgressMessage(3.0) || got[1] != ResultMessage("hello world") {
		t.Errorf("got %+v", got)
	}
}

func TestReadMessagesBenignErrors(t *testing.T) {
	for _, err := range []error{io.EOF, net.ErrClosed, syscall.ECONNRESET, syscall.EPIPE} {
		r := &chunkReader{err: &net.OpError{Op: "read", Net: "unix", Err: err}}
		if got := ReadMessages(r, func(Message) {}); got != nil {
			t.Errorf("ReadMessages with %v = %v, want nil", err, got)
		}
	}

	boom := errors.New("boom")
	r := &chunkReader{err: boom}
	if got := ReadMessages(r, func(Message) {}); !errors.Is(got, boom) {
		t.Errorf("ReadMessages = %v, want %v", got, boom)
	}
}

func TestIsClosedConnErr(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want bool
	}{
		{nil, false},
		{io.EOF, true},
		{fmt.Errorf("write: %w", syscall.EPIPE), true},
		{&os.SyscallError{Syscall: "read", Err: syscall.ECONNRESET}, true},
		{os.ErrDeadlineExceeded, true},
		{net.ErrClosed, true},
		{errors.New("other"), false},
		{syscall.EACCES, false},
	} {
		if got := IsClosedConnErr(tt.err); got != tt.want {
			t.Errorf("IsClosedConnErr(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestSampleDecoderCarry(t *testing.T) {
	samples := []float32{0, 0.5, -0.25, 1, float32(math.Pi)}
	raw := EncodeSamples(nil, samples)

	for chunk := 1; chunk <= len(raw); chunk++ {
		var dec SampleDecoder
		var got []float32
		for i := 0; i < len(raw); i += chunk {
			end := min(i+chunk, len(raw))
			got = append(got, dec.Feed(raw[i:end])...)
		}
		if len(got) != len(samples) {
			t.Fatalf("chunk %d: got %d samples, want %d", chunk, len(got), len(samples))
		}
		for i := range samples {
			if got[i] != samples[i] {
				t.Errorf("chunk %d: sample %d = %v, want %v", chunk, i, got[i], samples[i])
			}
		}
		if dec.Pending() != 0 {
			t.Errorf("chunk %d: Pending() = %d", chunk, dec.Pending())
		}
	}
}

func TestSampleDecoderTrailingPartial(t *testing.T) {
	raw := EncodeSamples(nil, []float32{0.1, 0.2})
	raw = append(raw, 0xAA, 0xBB)

	var dec SampleDecoder
	got := dec.Feed(raw)
	if len(got) != 2 {
		t.Fatalf("got %d samples, want 2", len(got))
	}
	if dec.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", dec.Pending())
	}
}

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, ProgressMessage(1.25)); err != nil {
		t.Fatal(err)
	}
	if err := WriteMessage(&buf, ResultMessage("ok")); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "L 1.2\nF ok\n" && got != "L 1.3\nF ok\n" {
		t.Errorf("got %q", got)
	}
	if err := WriteMessage(&buf, Message{}); err == nil {
		t.Error("expected error for zero message")
	}
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := SocketPath(); got != "/run/user/1000/dictation.sock" {
		t.Errorf("SocketPath() = %q", got)
	}
	t.Setenv("XDG_RUNTIME_DIR", "")
	if got := SocketPath(); got != "/tmp/dictation.sock" {
		t.Errorf("SocketPath() = %q", got)
	}
}
