package audio

import "math"

// Resample converts samples from native to target rate by nearest-neighbor
// index mapping. Output length is round(len*target/native) and every output
// value is copied from the input.
func Resample(samples []float32, native, target int) []float32 {
	if native == target || native <= 0 || target <= 0 {
		return samples
	}
	n := len(samples)
	if n == 0 {
		return nil
	}
	outLen := int(math.Round(float64(n) * float64(target) / float64(native)))
	out := make([]float32, outLen)
	for i := range out {
		idx := int(int64(i) * int64(native) / int64(target))
		if idx > n-1 {
			idx = n - 1
		}
		out[i] = samples[idx]
	}
	return out
}
