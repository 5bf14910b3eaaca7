// Package doctor checks the pieces a dictation session depends on.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"dictate/audio"
	"dictate/bluetooth"
	"dictate/extcmd"
	"dictate/protocol"
)

type status int

const (
	pass status = iota
	warn
	fail
)

func (s status) String() string {
	switch s {
	case pass:
		return "PASS"
	case warn:
		return "WARN"
	default:
		return "FAIL"
	}
}

// Env holds what the checks probe. Nil fields skip the checks that need
// them.
type Env struct {
	Out io.Writer
	// Lookup reports whether an external command is on PATH.
	Lookup    func(name string) bool
	Bluetooth bluetooth.Tool
	Audio     audio.Context
	AudioErr  error
	Device    string
	// CaptureFor records briefly from the selected device; zero skips it.
	CaptureFor time.Duration
	Socket     string
	// Clipboard reports whether a clipboard helper is usable.
	Clipboard func() error
	// Keyboard initializes the virtual keyboard used for paste.
	Keyboard func() error
}

type check struct {
	name string
	run  func(context.Context, *Env) (status, string)
}

var checks = []check{
	{"External tools", checkTools},
	{"Bluetooth headset", checkBluetooth},
	{"Input device", checkInput},
	{"Daemon", checkDaemon},
	{"Clipboard and paste", checkClipboard},
}

// Run executes every check and returns an exit code (0 = no failures).
func Run(ctx context.Context, env Env) int {
	fmt.Fprintln(env.Out, "dictate doctor - system diagnostics")
	fmt.Fprintln(env.Out, "===================================")

	failed := false
	for i, c := range checks {
		fmt.Fprintf(env.Out, "\n[%d/%d] %s\n", i+1, len(checks), c.name)
		st, msg := c.run(ctx, &env)
		fmt.Fprintf(env.Out, "  %s: %s\n", st, msg)
		if st == fail {
			failed = true
		}
	}

	fmt.Fprintln(env.Out)
	if failed {
		fmt.Fprintln(env.Out, "Some checks failed. See details above.")
		return 1
	}
	fmt.Fprintln(env.Out, "All checks passed!")
	return 0
}

func checkTools(_ context.Context, env *Env) (status, string) {
	if env.Lookup == nil {
		env.Lookup = extcmd.Available
	}
	var missing []string
	for _, name := range []string{"pactl", "wpctl", "xdotool"} {
		if !env.Lookup(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return warn, fmt.Sprintf("missing %v; Bluetooth switching or paste will be skipped", missing)
	}
	return pass, "pactl, wpctl and xdotool found"
}

func checkBluetooth(ctx context.Context, env *Env) (status, string) {
	if env.Bluetooth == nil {
		return warn, "skipped"
	}
	card, err := env.Bluetooth.Detect(ctx)
	if errors.Is(err, bluetooth.ErrNoCard) {
		return pass, "no Bluetooth card; the default input will be used"
	}
	if err != nil {
		return warn, fmt.Sprintf("cannot query cards: %v", err)
	}
	profiles, err := env.Bluetooth.ListProfiles(ctx, card.Name)
	if err != nil {
		return warn, fmt.Sprintf("%s: cannot list profiles: %v", card.Description, err)
	}
	hfp := bluetooth.PickHeadsetProfile(profiles)
	if hfp == "" {
		return warn, fmt.Sprintf("%s (%s) has no available hands-free profile", card.Description, card.ActiveProfile)
	}
	return pass, fmt.Sprintf("%s: active %s, will switch to %s", card.Description, card.ActiveProfile, hfp)
}

func checkInput(_ context.Context, env *Env) (status, string) {
	if env.AudioErr != nil {
		return fail, fmt.Sprintf("cannot connect to audio: %v", env.AudioErr)
	}
	if env.Audio == nil {
		return warn, "skipped"
	}
	devices, err := env.Audio.Devices()
	if err != nil {
		return fail, fmt.Sprintf("cannot list devices: %v", err)
	}
	dev, err := audio.SelectDevice(devices, env.Device)
	if err != nil {
		return fail, err.Error()
	}
	if env.CaptureFor <= 0 {
		return pass, fmt.Sprintf("would record from %s", dev.Name)
	}

	capture, err := env.Audio.NewCapture(dev, audio.CaptureConfig{})
	if err != nil {
		return fail, fmt.Sprintf("%s: %v", dev.Name, err)
	}
	defer capture.Close()
	var frames atomic.Int64
	if err := capture.Start(func(s []float32) { frames.Add(int64(len(s))) }); err != nil {
		return fail, fmt.Sprintf("%s: %v", dev.Name, err)
	}
	time.Sleep(env.CaptureFor)
	capture.Stop()
	n := frames.Load()
	if n == 0 {
		return fail, fmt.Sprintf("%s delivered no audio", dev.Name)
	}
	return pass, fmt.Sprintf("%s: %d samples at %d Hz", dev.Name, n, capture.SampleRate())
}

func checkDaemon(ctx context.Context, env *Env) (status, string) {
	path := env.Socket
	if path == "" {
		path = protocol.SocketPath()
	}
	var d net.Dialer
	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	conn, err := d.DialContext(dctx, "unix", path)
	if err != nil {
		return fail, fmt.Sprintf("daemon not running on %s (start it with `dictate daemon`)", path)
	}
	conn.Close()
	return pass, "listening on " + path
}

func checkClipboard(_ context.Context, env *Env) (status, string) {
	if env.Clipboard != nil {
		if err := env.Clipboard(); err != nil {
			return fail, fmt.Sprintf("clipboard: %v", err)
		}
	}
	if env.Keyboard != nil {
		if err := env.Keyboard(); err != nil {
			return warn, fmt.Sprintf("virtual keyboard: %v; paste falls back to xdotool", err)
		}
	}
	return pass, "clipboard and paste keystroke available"
}
