//go:build linux

package audio

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("dictate"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	defaultID := ""
	if def, err := p.client.DefaultSource(); err == nil && def != nil {
		defaultID = def.ID()
	}
	var devices []DeviceInfo
	for _, s := range sources {
		devices = append(devices, DeviceInfo{
			ID:      s.ID(),
			Name:    s.Name(),
			Input:   !strings.HasSuffix(s.ID(), ".monitor"),
			Default: s.ID() == defaultID,
		})
	}
	return devices, nil
}

func (p *pulseContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	var source *pulse.Source
	var err error
	if device != nil {
		source, err = p.client.SourceByID(device.ID)
	} else {
		source, err = p.client.DefaultSource()
	}
	if err != nil {
		return nil, fmt.Errorf("pulse source: %w", err)
	}
	if source == nil {
		return nil, ErrNoInputDevice
	}
	rate := source.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("%w: source %s reports rate %d", ErrUnsupported, source.ID(), rate)
	}
	return &pulseCapture{
		client: p.client,
		source: source,
		rate:   rate,
		block:  newBlocker(config.blockSize(rate)),
	}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulseCapture struct {
	client   *pulse.Client
	source   *pulse.Source
	rate     int
	block    *blocker
	callback atomic.Pointer[FrameCallback]

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (c *pulseCapture) Start(cb FrameCallback) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return ErrDeviceBusy
	}
	c.callback.Store(&cb)

	writer := pulse.Float32Writer(func(buf []float32) (int, error) {
		fn := c.callback.Load()
		if fn == nil || len(buf) == 0 {
			return len(buf), nil
		}
		c.block.push(buf, *fn)
		return len(buf), nil
	})

	stream, err := c.client.NewRecord(writer,
		pulse.RecordMono,
		pulse.RecordSampleRate(c.rate),
		pulse.RecordLatency(BlockDuration.Seconds()),
		pulse.RecordSource(c.source),
	)
	if err != nil {
		c.callback.Store(nil)
		return startError(fmt.Errorf("pulse record: %w", err))
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go func(stop, done chan struct{}) {
		defer close(done)
		stream.Start()
		<-stop
		stream.Stop()
		stream.Close()
	}(c.stop, c.done)

	return nil
}

// Stop halts the stream and flushes the last partial block.
func (c *pulseCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return
	}
	select {
	case <-c.stop:
		return
	default:
		close(c.stop)
	}
	<-c.done
	if fn := c.callback.Swap(nil); fn != nil {
		c.block.flush(*fn)
	}
}

func (c *pulseCapture) Close() {
	c.Stop()
}

func (c *pulseCapture) SampleRate() int { return c.rate }

func (c *pulseCapture) DeviceName() string {
	if c.source != nil {
		return c.source.Name()
	}
	return "system default"
}
