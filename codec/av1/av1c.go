package av1

const (
	av1cMarkerVersion  = 0x81
	av1cHeaderSize     = 4
	maskSeqProfile     = 0xe0
	maskSeqLevelIdx    = 0x1f
	maskPresentDelay   = 0x10
	maskPresentDelayM1 = 0x0f
)

// CodecConfigurationRecord is the AV1CodecConfigurationRecord (av1C) of the
// ISOBMFF AV1 binding.
type CodecConfigurationRecord struct {
	SeqProfile           SequenceProfile
	SeqLevelIdx0         uint8
	SeqTier0             bool
	HighBitdepth         bool
	TwelveBit            bool
	MonoChrome           bool
	ChromaSubsamplingX   bool
	ChromaSubsamplingY   bool
	ChromaSamplePosition ChromaSamplePosition
	// InitialPresentationDelayMinusOne is nil when not present.
	InitialPresentationDelayMinusOne *uint8
	// ConfigOBUs holds zero or more OBUs with size fields, usually one
	// sequence header.
	ConfigOBUs []byte
}

func flagBit(b byte, shift uint) bool {
	return b>>shift&1 == 1
}

func bitFlag(v bool, shift uint) byte {
	if v {
		return 1 << shift
	}
	return 0
}

// Unmarshal decodes the record from b and returns the number of bytes read.
// ConfigOBUs borrows from b.
//
//nolint:mnd // bit positions
func (rec *CodecConfigurationRecord) Unmarshal(b []byte) (int, error) {
	if len(b) < av1cHeaderSize || b[0] != av1cMarkerVersion {
		return 0, ErrConfRecordInvalid
	}
	rec.SeqProfile = SequenceProfile(b[1] & maskSeqProfile >> 5)
	rec.SeqLevelIdx0 = b[1] & maskSeqLevelIdx
	rec.SeqTier0 = flagBit(b[2], 7)
	rec.HighBitdepth = flagBit(b[2], 6)
	rec.TwelveBit = flagBit(b[2], 5)
	rec.MonoChrome = flagBit(b[2], 4)
	rec.ChromaSubsamplingX = flagBit(b[2], 3)
	rec.ChromaSubsamplingY = flagBit(b[2], 2)
	rec.ChromaSamplePosition = ChromaSamplePosition(b[2] & 0x03)
	rec.InitialPresentationDelayMinusOne = nil
	if b[3]&maskPresentDelay != 0 {
		d := b[3] & maskPresentDelayM1
		rec.InitialPresentationDelayMinusOne = &d
	}
	rec.ConfigOBUs = b[av1cHeaderSize:]
	return len(b), nil
}

// Len returns the size of the encoded record.
func (rec *CodecConfigurationRecord) Len() int {
	return av1cHeaderSize + len(rec.ConfigOBUs)
}

// Marshal writes the record into b, which must hold at least Len bytes, and
// returns the number of bytes written.
//
//nolint:mnd,gosec // bit positions
func (rec *CodecConfigurationRecord) Marshal(b []byte) int {
	b[0] = av1cMarkerVersion
	b[1] = byte(rec.SeqProfile)<<5 | rec.SeqLevelIdx0&maskSeqLevelIdx
	b[2] = bitFlag(rec.SeqTier0, 7) | bitFlag(rec.HighBitdepth, 6) | bitFlag(rec.TwelveBit, 5) |
		bitFlag(rec.MonoChrome, 4) | bitFlag(rec.ChromaSubsamplingX, 3) | bitFlag(rec.ChromaSubsamplingY, 2) |
		byte(rec.ChromaSamplePosition)&0x03
	b[3] = 0
	if d := rec.InitialPresentationDelayMinusOne; d != nil {
		b[3] = maskPresentDelay | *d&maskPresentDelayM1
	}
	return av1cHeaderSize + copy(b[av1cHeaderSize:], rec.ConfigOBUs)
}

// BitDepth returns the bit depth signalled by high_bitdepth and twelve_bit.
func (rec *CodecConfigurationRecord) BitDepth() uint8 {
	switch {
	case rec.TwelveBit:
		return 12 //nolint:mnd
	case rec.HighBitdepth:
		return 10 //nolint:mnd
	}
	return 8 //nolint:mnd
}
