package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"dictate/audio"
	"dictate/log"
	"dictate/protocol"
)

type command int

const (
	cmdStop command = iota
	cmdCancel
)

type initResult struct {
	capture audio.CaptureDevice
	stream  *stream
	err     error
}

// Events posted to the Run loop by the reader goroutine.
type (
	messageEvent struct{ msg protocol.Message }
	closedEvent  struct{ err error }
)

// Controller owns one RecordingSession. Stop and Cancel may be called from
// any goroutine; everything else happens on the goroutine running Run.
type Controller struct {
	cfg  Config
	view View

	state           atomic.Int32
	cancelRequested atomic.Bool
	cmds            chan command
	events          chan any
	quit            chan struct{}

	initCh      chan initResult
	cancelInit  context.CancelFunc
	capture     audio.CaptureDevice
	stream      *stream
	ticker      *time.Ticker
	recordStart time.Time
	started     time.Time
	stopPending bool
	restored    bool
	text        string
	lost        error
}

func New(cfg Config, view View) *Controller {
	cfg.setDefaults()
	return &Controller{
		cfg:    cfg,
		view:   view,
		cmds:   make(chan command, 4),
		events: make(chan any, 64),
		quit:   make(chan struct{}),
	}
}

func (c *Controller) State() State { return State(c.state.Load()) }

func (c *Controller) setState(s State) { c.state.Store(int32(s)) }

// Stop requests transcription. A stop that arrives while the session is
// still initializing takes effect as soon as recording starts.
func (c *Controller) Stop() { c.send(cmdStop) }

// Cancel aborts the session. Once called, no text is pasted.
func (c *Controller) Cancel() {
	c.cancelRequested.Store(true)
	c.send(cmdCancel)
}

func (c *Controller) send(cmd command) {
	select {
	case c.cmds <- cmd:
	case <-c.quit:
	default:
	}
}

func (c *Controller) post(ev any) {
	select {
	case c.events <- ev:
	case <-c.quit:
	}
}

// Run drives the session to a terminal state. Cancelling ctx cancels the
// session.
func (c *Controller) Run(ctx context.Context) Result {
	defer close(c.quit)
	c.started = c.cfg.Now()
	c.setState(Initializing)
	c.view.SetStatus(StatusStarting)

	initCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelInit = cancel
	c.initCh = make(chan initResult, 1)
	go func() { c.initCh <- c.initialize(initCtx) }()

	for {
		if c.cancelRequested.Load() {
			return c.cancel(ctx)
		}
		select {
		case r := <-c.initCh:
			c.initCh = nil
			if r.err != nil {
				return c.fail(ctx, r.err)
			}
			c.begin(r)
			if c.stopPending {
				c.stop()
			}
		case <-c.tick():
			c.view.SetStatus(RecordingStatus(c.cfg.Now().Sub(c.recordStart)))
		case cmd := <-c.cmds:
			switch cmd {
			case cmdCancel:
				return c.cancel(ctx)
			case cmdStop:
				switch c.State() {
				case Initializing:
					c.stopPending = true
				case Recording:
					c.stop()
				}
			}
		case ev := <-c.events:
			if done := c.handle(ev); done {
				return c.succeed(ctx)
			}
		case <-ctx.Done():
			return c.cancel(ctx)
		}
	}
}

// initialize runs off the UI goroutine: codec negotiation, device
// selection, daemon connection, capture start.
func (c *Controller) initialize(ctx context.Context) initResult {
	preferred := c.cfg.Device
	if c.cfg.Codec != nil {
		if desc := c.cfg.Codec.Negotiate(ctx); desc != "" && preferred == "" {
			preferred = desc
		}
	}

	capture, err := audio.Open(c.cfg.Audio, preferred, c.cfg.Capture)
	if err != nil {
		return initResult{err: err}
	}
	conn, err := c.cfg.Dial(ctx)
	if err != nil {
		capture.Close()
		if !errors.Is(err, ErrDaemonUnreachable) {
			err = fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
		}
		return initResult{err: err}
	}

	s := newStream(conn, capture.SampleRate(), c.cfg.TargetRate, c.cfg.QueueFrames)
	go s.write()
	if err := capture.Start(s.onFrame); err != nil {
		capture.Close()
		s.abort()
		return initResult{err: err}
	}
	return initResult{capture: capture, stream: s}
}

func (c *Controller) begin(r initResult) {
	c.capture, c.stream = r.capture, r.stream
	c.setState(Recording)
	c.recordStart = c.cfg.Now()
	log.SessionStart(c.capture.DeviceName(), c.capture.SampleRate())
	c.cfg.Tones.PlayStart()

	go func(s *stream) {
		err := protocol.ReadMessages(s.conn, func(m protocol.Message) {
			c.post(messageEvent{m})
		})
		c.post(closedEvent{err})
	}(c.stream)

	c.ticker = time.NewTicker(c.cfg.Tick)
	c.view.SetStatus(RecordingStatus(0))
}

func (c *Controller) tick() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *Controller) stop() {
	c.setState(Finishing)
	c.stopTicker()
	c.view.SetStatus(StatusTranscribing)
	c.cfg.Tones.PlayEnd()
	c.capture.Stop()
	c.stream.finish()
}

// handle applies a reader event and reports whether the connection ended.
func (c *Controller) handle(ev any) bool {
	switch ev := ev.(type) {
	case messageEvent:
		switch ev.msg.Kind {
		case protocol.Progress:
			if c.State() == Finishing {
				c.view.SetStatus(ProgressStatus(ev.msg.Seconds))
			}
		case protocol.Result:
			c.text = ev.msg.Text
		}
	case closedEvent:
		switch {
		case ev.err != nil:
			c.lost = fmt.Errorf("%w: %v", ErrConnectionLost, ev.err)
		case c.State() == Recording:
			c.lost = ErrConnectionLost
		}
		if c.lost != nil {
			log.Warnf("%v; finishing with %d chars received", c.lost, len(c.text))
		}
		return true
	}
	return false
}

// succeed finishes with the last text received, whatever ended the
// connection.
func (c *Controller) succeed(ctx context.Context) Result {
	if c.cancelRequested.Load() {
		return c.cancel(ctx)
	}
	c.stopTicker()
	c.teardown()
	c.restore(ctx)
	// Restore can take seconds; a Cancel that arrived meanwhile still wins.
	if c.cancelRequested.Load() {
		c.setState(Cancelled)
		res := Result{State: Cancelled}
		c.end(res)
		return res
	}
	c.setState(Succeeded)

	res := Result{State: Succeeded, Text: c.text, Err: c.lost}
	if res.Text != "" {
		if c.cfg.Clipboard != nil {
			if err := c.cfg.Clipboard.Copy(res.Text); err != nil {
				log.Warnf("clipboard: %v", err)
			} else {
				res.Copied = true
			}
		}
		if c.cfg.Paster != nil {
			if err := c.cfg.Paster.Paste(context.WithoutCancel(ctx), res.Text); err != nil {
				log.Warnf("paste: %v", err)
			} else {
				res.Pasted = true
			}
		}
	}
	c.end(res)
	return res
}

func (c *Controller) cancel(ctx context.Context) Result {
	c.cancelRequested.Store(true)
	c.setState(Cancelled)
	c.stopTicker()
	if c.initCh != nil {
		c.cancelInit()
		if r := <-c.initCh; r.err == nil {
			c.capture, c.stream = r.capture, r.stream
		}
		c.initCh = nil
	}
	c.teardown()
	c.restore(ctx)
	res := Result{State: Cancelled}
	c.end(res)
	return res
}

func (c *Controller) fail(ctx context.Context, err error) Result {
	c.setState(Failed)
	c.restore(ctx)
	log.Errorf("session failed: %v", err)
	c.view.SetStatus(ErrorText(err))
	c.cfg.Tones.PlayError()

	res := Result{State: Failed, Err: err}
	c.end(res)

	timer := time.NewTimer(c.cfg.ErrorDisplay)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return res
		case <-ctx.Done():
			return res
		case cmd := <-c.cmds:
			if cmd == cmdCancel {
				return res
			}
		}
	}
}

// teardown closes capture before the connection so no frame is queued
// after the writer is gone.
func (c *Controller) teardown() {
	if c.capture != nil {
		c.capture.Close()
	}
	if c.stream != nil {
		c.stream.abort()
	}
}

// restore runs the codec restoration once per session.
func (c *Controller) restore(ctx context.Context) {
	if c.restored {
		return
	}
	c.restored = true
	if c.cfg.Codec != nil {
		c.cfg.Codec.Restore(context.WithoutCancel(ctx))
	}
}

func (c *Controller) end(res Result) {
	log.SessionEnd(res.State.String(), len(res.Text), c.cfg.Now().Sub(c.started).Seconds())
}
