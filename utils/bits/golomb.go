package bits

import "math"

// maxLeadingZeros bounds the prefix of an Exp-Golomb code word.
const maxLeadingZeros = 64

// ReadUE reads an unsigned Exp-Golomb code word, ue(v) in H.264 9.1.
func (r *Reader) ReadUE() (uint64, error) {
	save := *r

	lz := 0
	for {
		bit, err := r.ReadBit()
		if err != nil {
			*r = save
			return 0, err
		}
		if bit {
			break
		}
		lz++
		if lz > maxLeadingZeros {
			*r = save
			return 0, ErrMalformedCode
		}
	}

	suffix, err := r.ReadBits64(lz)
	if err != nil {
		*r = save
		return 0, err
	}

	if lz == maxLeadingZeros {
		// 2^64 - 1 is the only value representable with a 64 bit prefix
		if suffix != 0 {
			*r = save
			return 0, ErrMalformedCode
		}
		return math.MaxUint64, nil
	}
	return (1<<lz - 1) + suffix, nil
}

// ReadUE32 reads ue(v) and rejects values that do not fit in 32 bits.
func (r *Reader) ReadUE32() (uint32, error) {
	save := *r
	v, err := r.ReadUE()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		*r = save
		return 0, ErrMalformedCode
	}
	return uint32(v), nil
}

// ReadSE reads a signed Exp-Golomb code word, se(v) in H.264 9.1.1: code
// number k maps to (-1)^(k+1) * Ceil(k / 2).
func (r *Reader) ReadSE() (int64, error) {
	save := *r
	k, err := r.ReadUE()
	if err != nil {
		return 0, err
	}

	magnitude := k/2 + k%2
	if magnitude > math.MaxInt64 {
		*r = save
		return 0, ErrMalformedCode
	}
	if k%2 == 0 {
		return -int64(magnitude), nil
	}
	return int64(magnitude), nil
}

// ReadSE32 reads se(v) and rejects values outside the int32 range.
func (r *Reader) ReadSE32() (int32, error) {
	save := *r
	v, err := r.ReadSE()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		*r = save
		return 0, ErrMalformedCode
	}
	return int32(v), nil
}

// ReadTE reads a truncated Exp-Golomb code word, te(v). For a range of 1 the
// code word is a single inverted bit; larger ranges use ue(v).
func (r *Reader) ReadTE(rangeMax uint64) (uint64, error) {
	if rangeMax > 1 {
		return r.ReadUE()
	}
	bit, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	if bit {
		return 0, nil
	}
	return 1, nil
}
