package audio

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BlockDuration is the capture block length delivered to FrameCallback.
const BlockDuration = 30 * time.Millisecond

var (
	ErrNoInputDevice    = errors.New("no input device found")
	ErrDeviceOpenFailed = errors.New("audio device open failed")
	ErrDeviceBusy       = errors.New("audio device busy")
	ErrUnsupported      = errors.New("audio format unsupported")
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", "bluez", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FrameCallback receives one block of mono samples at the device's native
// rate. It runs on the capture thread and must not block.
type FrameCallback func(samples []float32)

type CaptureConfig struct {
	// BlockDuration overrides the default block length when non-zero.
	BlockDuration time.Duration
}

func (c CaptureConfig) blockSize(rate int) int {
	d := c.BlockDuration
	if d <= 0 {
		d = BlockDuration
	}
	n := int(int64(rate) * int64(d) / int64(time.Second))
	if n < 1 {
		n = 1
	}
	return n
}

type DeviceInfo struct {
	ID      string // opaque platform-specific identifier
	Name    string
	Input   bool
	Default bool
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start(cb FrameCallback) error
	Stop()
	Close()
	SampleRate() int
	DeviceName() string
}

// SelectDevice picks the capture device: an input whose name contains
// preferred (case-insensitive), then the system default input, then the
// first input. It fails with ErrNoInputDevice when nothing can capture.
func SelectDevice(devices []DeviceInfo, preferred string) (*DeviceInfo, error) {
	if p := strings.ToLower(strings.TrimSpace(preferred)); p != "" {
		for i := range devices {
			if devices[i].Input && strings.Contains(strings.ToLower(devices[i].Name), p) {
				return &devices[i], nil
			}
		}
	}
	for i := range devices {
		if devices[i].Input && devices[i].Default {
			return &devices[i], nil
		}
	}
	for i := range devices {
		if devices[i].Input {
			return &devices[i], nil
		}
	}
	return nil, ErrNoInputDevice
}

// Open selects a device per SelectDevice and prepares it for capture.
func Open(ctx Context, preferred string, config CaptureConfig) (CaptureDevice, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating devices: %v", ErrNoInputDevice, err)
	}
	dev, err := SelectDevice(devices, preferred)
	if err != nil {
		return nil, err
	}
	capture, err := ctx.NewCapture(dev, config)
	if err != nil {
		if errors.Is(err, ErrDeviceBusy) || errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceOpenFailed, dev.Name, err)
	}
	return capture, nil
}

// startError maps a backend failure to start a stream onto the errors
// Start is allowed to return.
func startError(err error) error {
	if errors.Is(err, ErrDeviceBusy) || errors.Is(err, ErrUnsupported) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
}
