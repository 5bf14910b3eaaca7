//go:build !linux

package audio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:      hex.EncodeToString(d.ID.Pointer()[:]),
			Name:    d.Name(),
			Input:   true,
			Default: d.IsDefault != 0,
		})
	}
	return result, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = 0 // device native rate
	deviceConfig.PeriodSizeInMilliseconds = uint32(BlockDuration.Milliseconds())

	name := "system default"
	if device != nil {
		idBytes, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
		name = device.Name
	}

	c := &malgoCapture{name: name}
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, frameCount uint32) {
			fn := c.callback.Load()
			if fn == nil {
				return
			}
			samples := make([]float32, frameCount)
			for i := range samples {
				if (i+1)*4 > len(data) {
					samples = samples[:i]
					break
				}
				samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
			}
			c.block.push(samples, *fn)
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, err
	}
	c.device = dev
	c.rate = int(dev.SampleRate())
	if c.rate <= 0 {
		dev.Uninit()
		return nil, fmt.Errorf("%w: device reports rate %d", ErrUnsupported, c.rate)
	}
	c.block = newBlocker(config.blockSize(c.rate))
	return c, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	device   *malgo.Device
	name     string
	rate     int
	block    *blocker
	callback atomic.Pointer[FrameCallback]

	mu      sync.Mutex
	started bool
}

func (c *malgoCapture) Start(cb FrameCallback) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrDeviceBusy
	}
	c.callback.Store(&cb)
	if err := c.device.Start(); err != nil {
		c.callback.Store(nil)
		return startError(err)
	}
	c.started = true
	return nil
}

func (c *malgoCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	c.device.Stop()
	c.started = false
	if fn := c.callback.Swap(nil); fn != nil {
		c.block.flush(*fn)
	}
}

func (c *malgoCapture) Close() {
	c.Stop()
	c.device.Uninit()
}

func (c *malgoCapture) SampleRate() int { return c.rate }

func (c *malgoCapture) DeviceName() string { return c.name }
