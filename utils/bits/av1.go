package bits

import "math"

const (
	maxLEB128Bytes = 8
	uvlcMaxZeros   = 32
)

// ReadUVLC reads uvlc() from AV1 4.10.3. A run of 32 or more leading zeros
// yields the saturated value 0xFFFFFFFF.
func (r *Reader) ReadUVLC() (uint32, error) {
	save := *r

	lz := 0
	for {
		done, err := r.ReadBit()
		if err != nil {
			*r = save
			return 0, err
		}
		if done {
			break
		}
		lz++
	}

	if lz >= uvlcMaxZeros {
		return math.MaxUint32, nil
	}

	v, err := r.ReadBits64(lz)
	if err != nil {
		*r = save
		return 0, err
	}
	return uint32(v + (1<<lz - 1)), nil //nolint:gosec // lz < 32
}

// ReadLEB128 reads leb128() from AV1 4.10.5 and returns the value together
// with the number of bytes it occupied. The cursor must be byte aligned.
//
// A value above 2^32 - 1, or a continuation bit on the eighth byte, is a
// conformance violation and reported as ErrMalformedCode.
func (r *Reader) ReadLEB128() (uint64, int, error) {
	if r.off != 0 {
		return 0, 0, ErrNotByteAligned
	}
	save := *r

	var value uint64
	for i := range maxLEB128Bytes {
		b, err := r.ReadBits(byteSize)
		if err != nil {
			*r = save
			return 0, 0, err
		}
		value |= uint64(b&0x7f) << (i * 7) //nolint:mnd
		if b&0x80 == 0 {
			if value > math.MaxUint32 {
				*r = save
				return 0, 0, ErrMalformedCode
			}
			return value, i + 1, nil
		}
	}

	*r = save
	return 0, 0, ErrMalformedCode
}

// ReadSU reads su(n): an n-bit two's complement signed integer.
func (r *Reader) ReadSU(n int) (int32, error) {
	v, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	signMask := uint32(1) << (n - 1)
	if v&signMask != 0 {
		return int32(int64(v) - 2*int64(signMask)), nil //nolint:gosec // fits by construction
	}
	return int32(v), nil //nolint:gosec // sign bit is clear
}

// ReadLE reads le(n): n little-endian bytes. The cursor must be byte aligned.
func (r *Reader) ReadLE(n int) (uint64, error) {
	if r.off != 0 {
		return 0, ErrNotByteAligned
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (i * byteSize)
	}
	return v, nil
}

// ReadNS reads ns(n) from AV1 4.10.7, a non-symmetric unsigned value in [0, n).
func (r *Reader) ReadNS(n uint32) (uint32, error) {
	if n <= 1 {
		return 0, nil
	}
	save := *r

	w := FloorLog2(n) + 1
	m := (uint32(1) << w) - n

	var v uint32
	if w > 1 {
		var err error
		if v, err = r.ReadBits(w - 1); err != nil {
			return 0, err
		}
	}
	if v < m {
		return v, nil
	}

	extra, err := r.ReadBit()
	if err != nil {
		*r = save
		return 0, err
	}
	v = v<<1 - m
	if extra {
		v++
	}
	return v, nil
}

// FloorLog2 returns floor(log2(x)) for x > 0 and 0 otherwise.
func FloorLog2(x uint32) int {
	s := 0
	for x > 1 {
		x >>= 1
		s++
	}
	return s
}

// CeilLog2 returns ceil(log2(x)) for x >= 2 and 0 otherwise, as in AV1 4.7.
func CeilLog2(x uint32) int {
	if x < 2 { //nolint:mnd
		return 0
	}
	i := 1
	p := uint64(2) //nolint:mnd
	for p < uint64(x) {
		i++
		p <<= 1
	}
	return i
}
