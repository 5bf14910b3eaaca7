package session

import (
	"sync"
	"sync/atomic"

	"dictate/audio"
	"dictate/log"
	"dictate/protocol"
)

// stream carries resampled frames from the capture callback to the daemon
// connection. The callback never blocks: a full queue drops the frame.
type stream struct {
	conn   Conn
	native int
	target int
	frames chan []float32

	stopOnce  sync.Once
	stop      chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	cancelled atomic.Bool
	finished  atomic.Bool
	dropped   atomic.Int64
}

func newStream(conn Conn, native, target, queue int) *stream {
	return &stream{
		conn:   conn,
		native: native,
		target: target,
		frames: make(chan []float32, queue),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// onFrame runs on the capture context.
func (s *stream) onFrame(samples []float32) {
	if s.cancelled.Load() || s.finished.Load() {
		return
	}
	out := audio.Resample(samples, s.native, s.target)
	select {
	case s.frames <- out:
	default:
		s.dropped.Add(1)
	}
}

// write streams queued frames until finish, then drains the queue and
// half-closes the connection. Cancellation is checked between sends.
func (s *stream) write() {
	defer close(s.done)
	var buf []byte
	send := func(frame []float32) bool {
		if s.cancelled.Load() {
			return false
		}
		buf = protocol.EncodeSamples(buf[:0], frame)
		if _, err := s.conn.Write(buf); err != nil {
			if !s.cancelled.Load() && !protocol.IsClosedConnErr(err) {
				log.Warnf("stream audio: %v", err)
			}
			return false
		}
		return true
	}

	for {
		select {
		case frame := <-s.frames:
			if !send(frame) {
				return
			}
		case <-s.stop:
			for {
				select {
				case frame := <-s.frames:
					if !send(frame) {
						return
					}
				default:
					if s.cancelled.Load() {
						return
					}
					if err := s.conn.CloseWrite(); err != nil && !protocol.IsClosedConnErr(err) {
						log.Warnf("half-close: %v", err)
					}
					return
				}
			}
		}
	}
}

// finish asks the writer to drain and half-close. Capture must already be
// stopped so no frame arrives after the drain.
func (s *stream) finish() {
	s.finished.Store(true)
	s.stopOnce.Do(func() { close(s.stop) })
}

// abort stops the writer without draining, closes the connection and
// waits for the writer to exit. It is safe to call more than once.
func (s *stream) abort() {
	s.cancelled.Store(true)
	s.finish()
	s.closeOnce.Do(func() {
		s.conn.Close()
		<-s.done
		if n := s.dropped.Load(); n > 0 {
			log.DroppedFrames(int(n))
		}
	})
}
