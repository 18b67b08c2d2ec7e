// Package bitstest builds bitstreams field by field for decoder tests.
package bitstest

// Writer appends bits MSB first.
type Writer struct {
	data []byte
	n    int // bits written
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Flag writes one bit.
func (w *Writer) Flag(v bool) *Writer {
	if w.n%8 == 0 {
		w.data = append(w.data, 0)
	}
	if v {
		w.data[len(w.data)-1] |= 1 << (7 - w.n%8)
	}
	w.n++
	return w
}

// Bits writes the low n bits of v, most significant first.
func (w *Writer) Bits(v uint64, n int) *Writer {
	for i := n - 1; i >= 0; i-- {
		w.Flag(v>>i&1 == 1)
	}
	return w
}

// Bytes writes whole bytes.
func (w *Writer) Bytes(b ...byte) *Writer {
	for _, c := range b {
		w.Bits(uint64(c), 8)
	}
	return w
}

// UE writes an unsigned Exp-Golomb code word.
func (w *Writer) UE(v uint64) *Writer {
	x := v + 1
	lz := 0
	for t := x; t > 1; t >>= 1 {
		lz++
	}
	w.Bits(0, lz)
	return w.Bits(x, lz+1)
}

// SE writes a signed Exp-Golomb code word.
func (w *Writer) SE(v int64) *Writer {
	if v > 0 {
		return w.UE(uint64(2*v - 1))
	}
	return w.UE(uint64(-2 * v))
}

// UVLC writes an AV1 uvlc() code word.
func (w *Writer) UVLC(v uint32) *Writer {
	x := uint64(v) + 1
	lz := 0
	for t := x; t > 1; t >>= 1 {
		lz++
	}
	w.Bits(0, lz)
	w.Flag(true)
	return w.Bits(x, lz)
}

// LEB128 writes v in the smallest leb128() encoding. The writer must be aligned.
func (w *Writer) LEB128(v uint64) *Writer {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			w.Bits(uint64(b|0x80), 8)
			continue
		}
		return w.Bits(uint64(b), 8)
	}
}

// SU writes an n-bit two's complement value.
func (w *Writer) SU(v int64, n int) *Writer {
	return w.Bits(uint64(v)&(1<<n-1), n)
}

// Align pads with zero bits to the next byte boundary.
func (w *Writer) Align() *Writer {
	for w.n%8 != 0 {
		w.Flag(false)
	}
	return w
}

// Trailing writes rbsp_trailing_bits / AV1 trailing_bits: a one then zeros.
func (w *Writer) Trailing() *Writer {
	w.Flag(true)
	return w.Align()
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	return w.n
}

// Data returns the written bytes, the last one zero padded.
func (w *Writer) Data() []byte {
	return w.data
}
