package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"
)

// FakeContext serves a fixed device list and replays a clip through every
// capture it creates.
type FakeContext struct {
	devices  []DeviceInfo
	rate     int
	samples  []float32
	realtime bool
	openErr  error

	mu       sync.Mutex
	captures []*FakeCapture
}

func NewFakeContext(rate int, samples []float32, realtime bool) *FakeContext {
	return &FakeContext{
		devices:  []DeviceInfo{{ID: "fake", Name: "Fake Microphone", Input: true, Default: true}},
		rate:     rate,
		samples:  samples,
		realtime: realtime,
	}
}

// NewFakeContextFromWAV replays a 16-bit PCM WAV file at its own rate.
func NewFakeContextFromWAV(path string, realtime bool) (*FakeContext, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	chans := max(int(dec.NumChans), 1)
	scale := float32(int(1) << (max(int(dec.BitDepth), 1) - 1))
	samples := make([]float32, 0, len(buf.Data)/chans)
	for i := 0; i+chans <= len(buf.Data); i += chans {
		samples = append(samples, float32(buf.Data[i])/scale)
	}
	return NewFakeContext(int(dec.SampleRate), samples, realtime), nil
}

func (f *FakeContext) SetDevices(devices []DeviceInfo) { f.devices = devices }

// FailOpen makes NewCapture return err.
func (f *FakeContext) FailOpen(err error) { f.openErr = err }

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return f.devices, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	name := "fake"
	if device != nil {
		name = device.Name
	}
	c := &FakeCapture{
		name:      name,
		rate:      f.rate,
		samples:   f.samples,
		realtime:  f.realtime,
		blockSize: config.blockSize(f.rate),
		audioDone: make(chan struct{}),
	}
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

// Captures returns every capture created so far.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

type FakeCapture struct {
	name      string
	rate      int
	samples   []float32
	realtime  bool
	blockSize int
	audioDone chan struct{}

	mu       sync.Mutex
	started  bool
	stopped  bool
	closed   bool
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once the whole clip has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SampleRate() int    { return f.rate }
func (f *FakeCapture) DeviceName() string { return f.name }

func (f *FakeCapture) Start(cb FrameCallback) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return ErrDeviceBusy
	}
	f.started = true
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	f.mu.Unlock()

	interval := time.Duration(0)
	if f.realtime {
		interval = time.Duration(f.blockSize) * time.Second / time.Duration(f.rate)
	}
	go func() {
		defer close(f.feedDone)
		defer close(f.audioDone)
		for pos := 0; pos < len(f.samples); pos += f.blockSize {
			select {
			case <-f.stopCh:
				return
			default:
			}
			end := min(pos+f.blockSize, len(f.samples))
			block := make([]float32, end-pos)
			copy(block, f.samples[pos:end])
			cb(block)
			if interval > 0 {
				select {
				case <-f.stopCh:
					return
				case <-time.After(interval):
				}
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started || f.stopped {
		return
	}
	f.stopped = true
	close(f.stopCh)
	<-f.feedDone
}

func (f *FakeCapture) Close() {
	f.Stop()
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *FakeCapture) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *FakeCapture) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
