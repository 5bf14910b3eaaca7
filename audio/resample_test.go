package audio

import (
	"math"
	"testing"
)

func TestResampleLength(t *testing.T) {
	for _, tt := range []struct {
		name           string
		n              int
		native, target int
	}{
		{"48k to 16k", 1440, 48000, 16000},
		{"44.1k to 16k", 1323, 44100, 16000},
		{"8k to 16k", 240, 8000, 16000},
		{"odd length", 7, 48000, 16000},
		{"single sample", 1, 44100, 16000},
		{"empty", 0, 48000, 16000},
	} {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]float32, tt.n)
			for i := range in {
				in[i] = float32(i)
			}
			out := Resample(in, tt.native, tt.target)
			want := int(math.Round(float64(tt.n) * float64(tt.target) / float64(tt.native)))
			if len(out) != want {
				t.Fatalf("len = %d, want %d", len(out), want)
			}
			for i, v := range out {
				idx := min(i*tt.native/tt.target, tt.n-1)
				if v != in[idx] {
					t.Errorf("out[%d] = %v, want in[%d] = %v", i, v, idx, in[idx])
				}
			}
		})
	}
}

func TestResampleIdentity(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestResampleIntroducesNoNewValues(t *testing.T) {
	in := []float32{0.5, -1, 0.25, 0.75, -0.125, 1}
	seen := make(map[float32]bool, len(in))
	for _, v := range in {
		seen[v] = true
	}
	for _, rates := range [][2]int{{48000, 16000}, {16000, 48000}, {44100, 16000}, {22050, 16000}} {
		for i, v := range Resample(in, rates[0], rates[1]) {
			if !seen[v] {
				t.Errorf("%v: out[%d] = %v not present in input", rates, i, v)
			}
		}
	}
}
