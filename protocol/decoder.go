package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// LineDecoder splits an arbitrarily chunked control stream into messages.
// Bytes after the last newline are held until the next Feed.
type LineDecoder struct {
	buf []byte
}

// Feed appends p and returns every complete, well-formed message in order.
func (d *LineDecoder) Feed(p []byte) []Message {
	d.buf = append(d.buf, p...)
	var msgs []Message
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		if m, ok := ParseLine(string(d.buf[:i])); ok {
			msgs = append(msgs, m)
		}
		d.buf = d.buf[i+1:]
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return msgs
}

// Pending reports how many bytes of an unterminated line are buffered.
func (d *LineDecoder) Pending() int { return len(d.buf) }

// ReadMessages reads r until it ends, calling fn for each message. A clean
// end of stream, including the connection-teardown errors reported by
// IsClosedConnErr, returns nil.
func ReadMessages(r io.Reader, fn func(Message)) error {
	var dec LineDecoder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, m := range dec.Feed(buf[:n]) {
				fn(m)
			}
		}
		if err != nil {
			if IsClosedConnErr(err) {
				return nil
			}
			return err
		}
	}
}

// SampleDecoder turns a raw PCM byte stream into float32 samples. A trailing
// partial sample is carried into the next Feed.
type SampleDecoder struct {
	carry [BytesPerSample]byte
	n     int
}

func (d *SampleDecoder) Feed(p []byte) []float32 {
	total := d.n + len(p)
	out := make([]float32, 0, total/BytesPerSample)
	if d.n > 0 {
		need := BytesPerSample - d.n
		if len(p) < need {
			copy(d.carry[d.n:], p)
			d.n += len(p)
			return out
		}
		copy(d.carry[d.n:], p[:need])
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(d.carry[:])))
		p = p[need:]
		d.n = 0
	}
	whole := len(p) - len(p)%BytesPerSample
	for i := 0; i < whole; i += BytesPerSample {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(p[i:])))
	}
	d.n = copy(d.carry[:], p[whole:])
	return out
}

// Pending reports the number of buffered bytes of an incomplete sample.
func (d *SampleDecoder) Pending() int { return d.n }

// EncodeSamples appends the little-endian float32 encoding of samples to dst.
func EncodeSamples(dst []byte, samples []float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
	}
	return dst
}
