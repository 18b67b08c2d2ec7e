// Package bits implements the bit cursor shared by every syntax decoder in
// this module. Values are read most-significant bit first, as both the H.264
// and the AV1 specifications require.
package bits

import (
	"errors"
)

var (
	// ErrUnexpectedEndOfData is returned when a read needs more bits than remain.
	ErrUnexpectedEndOfData = errors.New("bits: unexpected end of data")
	// ErrMalformedCode is returned for variable length codes that violate bitstream conformance.
	ErrMalformedCode = errors.New("bits: malformed variable length code")
	// ErrNotByteAligned is returned by byte oriented reads on an unaligned cursor.
	ErrNotByteAligned = errors.New("bits: cursor is not byte aligned")
	// ErrInvalidWidth is returned when a fixed width read is asked for an unsupported width.
	ErrInvalidWidth = errors.New("bits: invalid read width")
)

const byteSize = 8

// Reader is a bit cursor over a borrowed byte slice.
//
// The cursor never moves past the end of the buffer: a read that would need
// more bits than remain fails with ErrUnexpectedEndOfData and leaves the
// position untouched.
type Reader struct {
	buf []byte
	pos int  // index of the current byte
	off uint // bit offset inside buf[pos], always < 8
}

// NewReader returns a cursor positioned at the first bit of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Snapshot returns an independent copy of the cursor at its current position.
func (r *Reader) Snapshot() *Reader {
	cp := *r
	return &cp
}

// Position returns the number of bits consumed so far.
func (r *Reader) Position() int {
	return r.pos*byteSize + int(r.off)
}

// ByteOffset returns the index of the byte holding the next unread bit.
func (r *Reader) ByteOffset() int {
	return r.pos
}

// BitsLeft returns the number of unread bits.
func (r *Reader) BitsLeft() int {
	return len(r.buf)*byteSize - r.Position()
}

// IsAligned reports whether the next read starts on a byte boundary.
func (r *Reader) IsAligned() bool {
	return r.off == 0
}

// Len returns the size of the underlying buffer in bytes.
func (r *Reader) Len() int {
	return len(r.buf)
}

// ReadBit consumes exactly one bit.
func (r *Reader) ReadBit() (bool, error) {
	if r.pos >= len(r.buf) {
		return false, ErrUnexpectedEndOfData
	}
	bit := (r.buf[r.pos] >> (7 - r.off)) & 1 //nolint:mnd
	r.advance(1)
	return bit == 1, nil
}

// ReadFlag is ReadBit under the name the codec specifications use for u(1) flags.
func (r *Reader) ReadFlag() (bool, error) {
	return r.ReadBit()
}

// ReadBits reads an unsigned n-bit number, 1 <= n <= 32.
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n < 1 || n > 32 {
		return 0, ErrInvalidWidth
	}
	v, err := r.ReadBits64(n)
	return uint32(v), err //nolint:gosec // n <= 32
}

// ReadBits64 reads an unsigned n-bit number, 0 <= n <= 64. A zero width read
// returns 0 and consumes nothing.
func (r *Reader) ReadBits64(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, ErrInvalidWidth
	}
	if n > r.BitsLeft() {
		return 0, ErrUnexpectedEndOfData
	}

	var v uint64
	for n > 0 {
		avail := byteSize - int(r.off)
		take := min(avail, n)
		cur := uint64(r.buf[r.pos]) >> (avail - take) & (1<<take - 1)
		v = v<<take | cur
		r.advance(uint(take))
		n -= take
	}
	return v, nil
}

// ReadBytes returns the next n bytes as a sub-slice of the underlying buffer.
// The cursor must be byte aligned.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if r.off != 0 {
		return nil, ErrNotByteAligned
	}
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, ErrUnexpectedEndOfData
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Remaining returns the unread bytes of an aligned cursor without consuming them.
func (r *Reader) Remaining() ([]byte, error) {
	if r.off != 0 {
		return nil, ErrNotByteAligned
	}
	return r.buf[r.pos:], nil
}

// SkipBits advances the cursor by n bits.
func (r *Reader) SkipBits(n int) error {
	if n < 0 {
		return ErrInvalidWidth
	}
	if n > r.BitsLeft() {
		return ErrUnexpectedEndOfData
	}
	r.advance(uint(n))
	return nil
}

// SeekBits is SkipBits; reserved fields are usually skipped under this name.
func (r *Reader) SeekBits(n int) error {
	return r.SkipBits(n)
}

// ByteAlign moves the cursor to the next byte boundary. It is a no-op on an
// aligned cursor.
func (r *Reader) ByteAlign() {
	if r.off != 0 {
		r.advance(byteSize - r.off)
	}
}

// MoreRBSPData implements more_rbsp_data() from H.264 7.2: it reports whether
// anything other than the rbsp_stop_one_bit and its alignment zeros is left.
func (r *Reader) MoreRBSPData() bool {
	if r.pos >= len(r.buf) {
		return false
	}

	last := len(r.buf) - 1
	for last > r.pos && r.buf[last] == 0 {
		last--
	}
	if r.buf[last] == 0 {
		return false
	}

	// bit index (from the start of the buffer) of the stop bit
	stop := last*byteSize + byteSize - 1
	for b := r.buf[last]; b&1 == 0; b >>= 1 {
		stop--
	}
	return r.Position() < stop
}

func (r *Reader) advance(n uint) {
	total := r.off + n
	r.pos += int(total / byteSize) //nolint:gosec // bounded by buffer length
	r.off = total % byteSize
}
