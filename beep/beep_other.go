//go:build !linux

package beep

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"dictate/log"
)

var (
	playMu  sync.Mutex
	playBuf atomic.Pointer[[]byte]
	playPos atomic.Uint32
)

// playSamples opens a playback device for one cue and releases it once
// the cue has drained.
func playSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	playMu.Lock()
	defer playMu.Unlock()

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	playBuf.Store(&buf)
	playPos.Store(0)
	done := make(chan struct{})
	var once sync.Once

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Warnf("beep: %v", err)
		return
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	onData := func(out, _ []byte, frames uint32) {
		data := *playBuf.Load()
		pos := playPos.Load()
		n := uint32(copy(out[:frames*2], data[pos:]))
		clear(out[n:])
		playPos.Store(pos + n)
		if int(pos+n) >= len(data) {
			once.Do(func() { close(done) })
		}
	}
	device, err := malgo.InitDevice(ctx.Context, config, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		log.Warnf("beep device: %v", err)
		return
	}
	defer device.Uninit()
	if err := device.Start(); err != nil {
		log.Warnf("beep start: %v", err)
		return
	}
	<-done
	device.Stop()
}
