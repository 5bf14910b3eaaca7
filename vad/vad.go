// Package vad trims non-speech from a recording before transcription.
package vad

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

const (
	FrameDuration = 20 * time.Millisecond
	defaultMode   = 2
)

type Options struct {
	// MinSilence is the shortest gap that splits two speech regions.
	MinSilence time.Duration
	// SpeechPad is kept on each side of a region so word edges are not clipped.
	SpeechPad time.Duration
}

var DefaultOptions = Options{
	MinSilence: 500 * time.Millisecond,
	SpeechPad:  300 * time.Millisecond,
}

// Region is a half-open range of sample indices.
type Region struct {
	Start, End int
}

func (r Region) Len() int { return r.End - r.Start }

type Detector interface {
	IsSpeech(rate int, frame []int16) (bool, error)
}

// WebRTC is a Detector backed by the WebRTC voice activity detector.
type WebRTC struct {
	mu  sync.Mutex
	vad *webrtcvad.VAD
	buf []byte
}

func NewWebRTC() (*WebRTC, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(defaultMode); err != nil {
		return nil, err
	}
	return &WebRTC{vad: v}, nil
}

func (w *WebRTC) IsSpeech(rate int, frame []int16) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = w.buf[:0]
	for _, s := range frame {
		w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(s))
	}
	return w.vad.Process(rate, w.buf)
}

// Regions classifies 20 ms frames and returns padded speech regions.
// Regions closer than MinSilence are merged before padding.
func Regions(samples []float32, rate int, det Detector, opts Options) ([]Region, error) {
	frameLen := int(int64(rate) * int64(FrameDuration) / int64(time.Second))
	if frameLen <= 0 {
		return nil, fmt.Errorf("vad: invalid rate %d", rate)
	}
	toSamples := func(d time.Duration) int {
		return int(int64(rate) * int64(d) / int64(time.Second))
	}

	var raw []Region
	frame := make([]int16, frameLen)
	inSpeech := false
	for start := 0; start+frameLen <= len(samples); start += frameLen {
		for i, s := range samples[start : start+frameLen] {
			frame[i] = toInt16(s)
		}
		speech, err := det.IsSpeech(rate, frame)
		if err != nil {
			return nil, fmt.Errorf("vad frame at %d: %w", start, err)
		}
		switch {
		case speech && inSpeech:
			raw[len(raw)-1].End = start + frameLen
		case speech:
			raw = append(raw, Region{Start: start, End: start + frameLen})
		}
		inSpeech = speech
	}
	if len(raw) == 0 {
		return nil, nil
	}

	gap := toSamples(opts.MinSilence)
	merged := raw[:1]
	for _, r := range raw[1:] {
		last := &merged[len(merged)-1]
		if r.Start-last.End < gap {
			last.End = r.End
			continue
		}
		merged = append(merged, r)
	}

	pad := toSamples(opts.SpeechPad)
	out := make([]Region, 0, len(merged))
	for _, r := range merged {
		r.Start = max(r.Start-pad, 0)
		r.End = min(r.End+pad, len(samples))
		if n := len(out); n > 0 && r.Start <= out[n-1].End {
			out[n-1].End = r.End
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Filter returns the speech regions of samples concatenated in order, or nil
// if no speech was detected.
func Filter(samples []float32, rate int, det Detector, opts Options) ([]float32, []Region, error) {
	regions, err := Regions(samples, rate, det, opts)
	if err != nil || len(regions) == 0 {
		return nil, regions, err
	}
	total := 0
	for _, r := range regions {
		total += r.Len()
	}
	out := make([]float32, 0, total)
	for _, r := range regions {
		out = append(out, samples[r.Start:r.End]...)
	}
	return out, regions, nil
}

func toInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}
