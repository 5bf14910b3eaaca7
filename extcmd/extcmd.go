// Package extcmd runs short-lived helper tools (pactl, wpctl, xdotool) with a
// bounded runtime.
package extcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds every helper invocation.
const DefaultTimeout = 5 * time.Second

// ErrToolFailed wraps every failure: missing binary, non-zero exit, timeout.
var ErrToolFailed = errors.New("external tool failed")

type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Exec runs real processes.
type Exec struct {
	Timeout time.Duration
}

func (e Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 500 * time.Millisecond

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%w: %s: %v: %s", ErrToolFailed, name, err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%w: %s: %v", ErrToolFailed, name, err)
	}
	return stdout.Bytes(), nil
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Fake records invocations and answers from a script keyed by the command line.
type Fake struct {
	mu      sync.Mutex
	calls   []Call
	outputs map[string][]byte
	errs    map[string]error
	// Default is returned for unscripted commands.
	Default error
}

func NewFake() *Fake {
	return &Fake{outputs: map[string][]byte{}, errs: map[string]error{}}
}

// On scripts the reply for an exact command line such as "pactl list cards".
func (f *Fake) On(cmdline string, out []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[cmdline] = out
	if err != nil {
		f.errs[cmdline] = fmt.Errorf("%w: %v", ErrToolFailed, err)
	}
}

func (f *Fake) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	key := call.String()
	out, ok := f.outputs[key]
	if err := f.errs[key]; err != nil {
		return out, err
	}
	if !ok && f.Default != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolFailed, f.Default)
	}
	return out, nil
}

func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}

func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
