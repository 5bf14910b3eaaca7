// Package session runs one recording session: it negotiates the Bluetooth
// codec, captures and streams audio to the daemon, waits for the transcript
// and hands it to the clipboard and paste collaborators.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"dictate/audio"
	"dictate/protocol"
)

var (
	ErrDaemonUnreachable = errors.New("daemon unreachable")
	ErrConnectionLost    = errors.New("connection to daemon lost")
)

const (
	DefaultTick         = 500 * time.Millisecond
	DefaultErrorDisplay = 3 * time.Second
	DefaultQueueFrames  = 2048
)

// Status texts shown by the popup.
const (
	StatusStarting         = "Starting..."
	StatusTranscribing     = "Transcribing..."
	StatusDaemonNotRunning = "Daemon not running"
	StatusNoInputDevice    = "No input device found"
)

type State int32

const (
	Idle State = iota
	Initializing
	Recording
	Finishing
	Succeeded
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Recording:
		return "recording"
	case Finishing:
		return "finishing"
	case Succeeded:
		return "success"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool { return s >= Succeeded }

// View receives status text. It may be called from the controller's Run
// goroutine only, so implementations forward to their own UI loop.
type View interface {
	SetStatus(text string)
}

// CodecManager is satisfied by *bluetooth.Manager.
type CodecManager interface {
	Negotiate(ctx context.Context) string
	Restore(ctx context.Context)
}

type Clipboard interface {
	Copy(text string) error
}

type Paster interface {
	Paste(ctx context.Context, text string) error
}

type Tones interface {
	PlayStart()
	PlayEnd()
	PlayError()
}

// Conn is the client side of a daemon connection.
type Conn interface {
	io.ReadWriteCloser
	CloseWrite() error
}

type Dialer func(ctx context.Context) (Conn, error)

// DialUnix returns a Dialer for the daemon socket at path.
func DialUnix(path string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		var d net.Dialer
		c, err := d.DialContext(ctx, "unix", path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
		}
		return c.(*net.UnixConn), nil
	}
}

type Config struct {
	Audio   audio.Context
	Capture audio.CaptureConfig
	// Device overrides the input device name suggested by the codec manager.
	Device string
	// Codec is optional; nil skips Bluetooth negotiation.
	Codec     CodecManager
	Dial      Dialer
	Clipboard Clipboard
	// Paster is optional; nil leaves the text on the clipboard only.
	Paster Paster
	Tones  Tones

	TargetRate   int
	QueueFrames  int
	Tick         time.Duration
	ErrorDisplay time.Duration
	Now          func() time.Time
}

func (c *Config) setDefaults() {
	if c.TargetRate <= 0 {
		c.TargetRate = protocol.SampleRate
	}
	if c.QueueFrames <= 0 {
		c.QueueFrames = DefaultQueueFrames
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.ErrorDisplay <= 0 {
		c.ErrorDisplay = DefaultErrorDisplay
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Tones == nil {
		c.Tones = silent{}
	}
}

type silent struct{}

func (silent) PlayStart() {}
func (silent) PlayEnd()   {}
func (silent) PlayError() {}

// Result describes how a session ended.
type Result struct {
	State  State
	Text   string
	Copied bool
	Pasted bool
	// Err is the failure for Failed sessions, or ErrConnectionLost when a
	// session finished early because the daemon went away.
	Err error
}

// ErrorText is the status shown for an initialization failure.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, ErrDaemonUnreachable):
		return StatusDaemonNotRunning
	case errors.Is(err, audio.ErrNoInputDevice):
		return StatusNoInputDevice
	default:
		return "Audio error: " + err.Error()
	}
}

// RecordingStatus formats the elapsed-time indicator.
func RecordingStatus(elapsed time.Duration) string {
	secs := int(elapsed / time.Second)
	return fmt.Sprintf("Recording...  %02d:%02d", secs/60, secs%60)
}

// ProgressStatus is shown when the daemon reports the audio length.
func ProgressStatus(seconds float64) string {
	return fmt.Sprintf("Transcribing %.1fs...", seconds)
}
