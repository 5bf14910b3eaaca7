package audio

// blocker regroups a variable-size stream of samples into fixed-size blocks.
type blocker struct {
	size int
	buf  []float32
}

func newBlocker(size int) *blocker {
	return &blocker{size: size, buf: make([]float32, 0, size)}
}

// push appends samples and calls emit for each completed block. Each emitted
// slice is freshly allocated so receivers may keep it.
func (b *blocker) push(samples []float32, emit func([]float32)) {
	for len(samples) > 0 {
		n := min(b.size-len(b.buf), len(samples))
		b.buf = append(b.buf, samples[:n]...)
		samples = samples[n:]
		if len(b.buf) == b.size {
			block := make([]float32, b.size)
			copy(block, b.buf)
			b.buf = b.buf[:0]
			emit(block)
		}
	}
}

// flush emits any buffered partial block.
func (b *blocker) flush(emit func([]float32)) {
	if len(b.buf) == 0 {
		return
	}
	block := make([]float32, len(b.buf))
	copy(block, b.buf)
	b.buf = b.buf[:0]
	emit(block)
}
