// Package daemon accepts one client connection at a time, buffers its audio
// until the client half-closes, and replies with the transcription.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"dictate/engine"
	"dictate/log"
	"dictate/protocol"
	"dictate/timing"
	"dictate/vad"
)

var ErrAlreadyRunning = errors.New("daemon already running")

type Server struct {
	Engine  engine.Engine
	Timing  *timing.Log
	Options engine.Options

	// handled is signalled after each connection, for tests.
	handled chan struct{}
}

func New(eng engine.Engine, timingLog *timing.Log, language string) *Server {
	opts := vad.DefaultOptions
	return &Server{
		Engine:  eng,
		Timing:  timingLog,
		Options: engine.Options{Language: language, VAD: &opts},
	}
}

// Listen binds path, replacing a stale socket file left by a dead daemon.
func Listen(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		if c, err := net.DialTimeout("unix", path, 200*time.Millisecond); err == nil {
			c.Close()
			return nil, fmt.Errorf("%w on %s", ErrAlreadyRunning, path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	return ln, nil
}

// Serve handles connections serially until ctx is cancelled. A failure
// while handling one connection is logged and never stops the loop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	if ua, ok := ln.Addr().(*net.UnixAddr); ok {
		defer os.Remove(ua.Name)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Errorf("accept: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			conn.Close()
			log.ConnectionError(fmt.Errorf("%w: panic: %v", engine.ErrEngineInvocation, r))
		}
		if s.handled != nil {
			s.handled <- struct{}{}
		}
	}()
	if err := s.Handle(ctx, conn); err != nil {
		log.ConnectionError(err)
	}
}

// Handle reads audio until end of input, transcribes it once and replies.
// The connection is always closed on return.
func (s *Server) Handle(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	samples, err := readAudio(conn)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	audioS := float64(len(samples)) / protocol.SampleRate
	send := func(m protocol.Message) {
		if err := protocol.WriteMessage(conn, m); err != nil {
			if protocol.IsClosedConnErr(err) {
				log.Infof("client gone before %s message", m.Kind)
				return
			}
			log.Warnf("send %s: %v", m.Kind, err)
		}
	}
	send(protocol.ProgressMessage(audioS))

	log.Infof("transcribing (%.1fs)", audioS)
	start := time.Now()
	segments, err := s.Engine.Transcribe(ctx, samples, s.Options)
	transcribeS := time.Since(start).Seconds()
	if err != nil {
		if !errors.Is(err, engine.ErrEngineInvocation) {
			err = fmt.Errorf("%w: %v", engine.ErrEngineInvocation, err)
		}
		return err
	}
	log.Infof("done in %.2fs", transcribeS)

	text := engine.JoinSegments(segments)
	if text != "" {
		send(protocol.ResultMessage(text))
		log.TranscriptionText(text)
	}
	log.Transcription(audioS, transcribeS, len(segments), len(text))

	if s.Timing != nil {
		if err := s.Timing.Append(timing.Record{AudioSeconds: audioS, TranscribeSeconds: transcribeS}); err != nil {
			log.Warnf("timing log: %v", err)
		}
	}
	return nil
}

// readAudio reads until the peer closes its write side.
func readAudio(r io.Reader) ([]float32, error) {
	var dec protocol.SampleDecoder
	var samples []float32
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			samples = append(samples, dec.Feed(buf[:n])...)
		}
		if errors.Is(err, io.EOF) {
			if p := dec.Pending(); p > 0 {
				log.Warnf("dropping %d trailing bytes of a partial sample", p)
			}
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
