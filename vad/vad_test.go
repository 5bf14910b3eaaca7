package vad

import (
	"math"
	"testing"
	"time"
)

// energyDetector flags frames whose peak exceeds a threshold.
type energyDetector struct{}

func (energyDetector) IsSpeech(_ int, frame []int16) (bool, error) {
	for _, s := range frame {
		if s > 1000 || s < -1000 {
			return true, nil
		}
	}
	return false, nil
}

const rate = 16000

// clip builds a signal from (duration, loud) spans.
func clip(spans ...any) []float32 {
	var out []float32
	for i := 0; i < len(spans); i += 2 {
		d := spans[i].(time.Duration)
		loud := spans[i+1].(bool)
		n := int(int64(rate) * int64(d) / int64(time.Second))
		for j := 0; j < n; j++ {
			if loud {
				out = append(out, float32(0.5*math.Sin(float64(j)/4)))
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestRegionsSilence(t *testing.T) {
	regions, err := Regions(clip(ms(1000), false), rate, energyDetector{}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 0 {
		t.Errorf("regions = %v, want none", regions)
	}
}

func TestRegionsMergeShortGap(t *testing.T) {
	samples := clip(ms(1000), false, ms(400), true, ms(200), false, ms(400), true, ms(1000), false)
	regions, err := Regions(samples, rate, energyDetector{}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions = %v, want one merged region", regions)
	}
	want := Region{Start: 16000 - 4800, End: 16000 + 16000 + 4800}
	if regions[0] != want {
		t.Errorf("region = %v, want %v", regions[0], want)
	}
}

func TestRegionsSplitLongGap(t *testing.T) {
	samples := clip(ms(400), true, ms(2000), false, ms(400), true)
	regions, err := Regions(samples, rate, energyDetector{}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 2 {
		t.Fatalf("regions = %v, want two", regions)
	}
	if regions[0].Start != 0 {
		t.Errorf("padding not clamped at start: %v", regions[0])
	}
	if regions[1].End != len(samples) {
		t.Errorf("padding not clamped at end: %v", regions[1])
	}
}

func TestRegionsPaddingOverlapMerges(t *testing.T) {
	// 560 ms gap: longer than MinSilence, shorter than two pads.
	samples := clip(ms(400), true, ms(560), false, ms(400), true)
	regions, err := Regions(samples, rate, energyDetector{}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 {
		t.Errorf("regions = %v, want overlapping pads merged", regions)
	}
}

func TestFilter(t *testing.T) {
	samples := clip(ms(2000), false, ms(600), true, ms(2000), false)
	out, regions, err := Filter(samples, rate, energyDetector{}, DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 {
		t.Fatalf("regions = %v", regions)
	}
	if len(out) != regions[0].Len() {
		t.Errorf("filtered %d samples, want %d", len(out), regions[0].Len())
	}
	if want := 16000 * 12 / 10; len(out) != want {
		t.Errorf("filtered %d samples, want %d (speech plus padding)", len(out), want)
	}

	out, _, err = Filter(clip(ms(500), false), rate, energyDetector{}, DefaultOptions)
	if err != nil || out != nil {
		t.Errorf("silence filtered to %d samples, err %v", len(out), err)
	}
}

func TestWebRTCDetector(t *testing.T) {
	det, err := NewWebRTC()
	if err != nil {
		t.Skipf("webrtc vad unavailable: %v", err)
	}
	if _, err := Regions(clip(ms(200), false), rate, det, DefaultOptions); err != nil {
		t.Errorf("Regions with webrtc detector: %v", err)
	}
}
