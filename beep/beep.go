// Package beep plays the short cues for recording start, stop and failure.
package beep

import (
	"math"
	"sync"
)

const (
	sampleRate = 44100

	// Start: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var (
	startSamples []int16
	endSamples   []int16
	errorSamples []int16
	soundOnce    sync.Once
)

func initSound() {
	// The 200 ms tails give the sound server time to fill its buffer.
	startSamples = tick(startFreq, 0.2, startVolume, startDecay)
	endSamples = tick(endFreq, 0.2, endVolume, endDecay)
	errorSamples = doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

// tick is a mono sine burst with an exponential decay envelope.
func tick(freq, duration, volume, decay float64) []int16 {
	n := int(sampleRate * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func doubleBeep(freq, beepDur, gapDur, volume, decay float64) []int16 {
	b := tick(freq, beepDur, volume, decay)
	gap := make([]int16, int(sampleRate*gapDur))
	out := make([]int16, 0, len(b)*2+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	return append(out, b...)
}

// Player plays the cues asynchronously. The zero value plays them; a
// disabled Player is silent.
type Player struct {
	Disabled bool
}

func (p Player) PlayStart() { p.play(func() []int16 { return startSamples }) }
func (p Player) PlayEnd()   { p.play(func() []int16 { return endSamples }) }
func (p Player) PlayError() { p.play(func() []int16 { return errorSamples }) }

func (p Player) play(samples func() []int16) {
	if p.Disabled {
		return
	}
	soundOnce.Do(initSound)
	go playSamples(samples())
}
