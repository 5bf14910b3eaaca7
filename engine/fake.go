package engine

import (
	"context"
	"sync"
	"time"
)

// Fake returns scripted segments and records each call.
type Fake struct {
	Segments []Segment
	Err      error
	Delay    time.Duration

	mu      sync.Mutex
	calls   int
	samples [][]float32
	opts    []Options
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, samples []float32, opts Options) ([]Segment, error) {
	f.mu.Lock()
	f.calls++
	f.samples = append(f.samples, samples)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Segments, nil
}

func (f *Fake) Close() error { return nil }

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastCall returns the samples and options of the most recent call.
func (f *Fake) LastCall() ([]float32, Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.samples) == 0 {
		return nil, Options{}
	}
	return f.samples[len(f.samples)-1], f.opts[len(f.opts)-1]
}
