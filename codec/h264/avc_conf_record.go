package h264

import "encoding/binary"

const (
	maskLengthSizeMinusOne    = 0x03
	maskSPSCount              = 0x1f
	maskLengthSizeMinusOneInv = 0xfc
	maskSPSCountInv           = 0xe0

	avcConfigurationVersion = 1
	avcRecordHeaderSize     = 6
	avcRecordMinSize        = 7
	lengthFieldSize         = 2
)

// AVCDecoderConfRecord is the AVCDecoderConfigurationRecord (avcC) from ISO/IEC 14496-15.
type AVCDecoderConfRecord struct {
	AVCProfileIndication uint8    // Profile indication for the AVC stream.
	ProfileCompatibility uint8    // Profile compatibility for the AVC stream.
	AVCLevelIndication   uint8    // Level indication for the AVC stream.
	LengthSizeMinusOne   uint8    // Length size (in bytes) minus one for the AVC stream.
	SPS                  [][]byte // SPS NAL units, header byte included.
	PPS                  [][]byte // PPS NAL units, header byte included.
}

// readUnits reads count 16-bit length prefixed units starting at b[n:].
func readUnits(b []byte, n, count int) ([][]byte, int, error) {
	units := make([][]byte, 0, count)
	for range count {
		if len(b) < n+lengthFieldSize {
			return nil, n, ErrDecconfInvalid
		}
		size := int(binary.BigEndian.Uint16(b[n:]))
		n += lengthFieldSize
		if len(b) < n+size {
			return nil, n, ErrDecconfInvalid
		}
		units = append(units, b[n:n+size])
		n += size
	}
	return units, n, nil
}

// Unmarshal decodes the binary representation of AVCDecoderConfRecord from the given byte slice.
// It returns the number of bytes read and any decoding error encountered.
func (avc *AVCDecoderConfRecord) Unmarshal(b []byte) (int, error) {
	if len(b) < avcRecordMinSize || b[0] != avcConfigurationVersion {
		return 0, ErrDecconfInvalid
	}

	avc.AVCProfileIndication = b[1]
	avc.ProfileCompatibility = b[2]
	avc.AVCLevelIndication = b[3]
	avc.LengthSizeMinusOne = b[4] & maskLengthSizeMinusOne

	var err error
	n := avcRecordHeaderSize
	if avc.SPS, n, err = readUnits(b, n, int(b[5]&maskSPSCount)); err != nil {
		return n, err
	}
	if len(b) < n+1 {
		return n, ErrDecconfInvalid
	}
	count := int(b[n])
	if avc.PPS, n, err = readUnits(b, n+1, count); err != nil {
		return n, err
	}
	return n, nil
}

// Len calculates and returns the length of the binary representation of AVCDecoderConfRecord.
func (avc *AVCDecoderConfRecord) Len() int {
	n := avcRecordMinSize
	for _, sps := range avc.SPS {
		n += lengthFieldSize + len(sps)
	}
	for _, pps := range avc.PPS {
		n += lengthFieldSize + len(pps)
	}
	return n
}

// Marshal writes the record into b, which must hold at least Len bytes, and
// returns the number of bytes written.
func (avc *AVCDecoderConfRecord) Marshal(b []byte) int {
	b[0] = avcConfigurationVersion
	b[1] = avc.AVCProfileIndication
	b[2] = avc.ProfileCompatibility
	b[3] = avc.AVCLevelIndication
	b[4] = avc.LengthSizeMinusOne | maskLengthSizeMinusOneInv
	b[5] = uint8(len(avc.SPS)) | maskSPSCountInv //nolint:gosec // at most 31 sps
	n := avcRecordHeaderSize

	for _, sps := range avc.SPS {
		binary.BigEndian.PutUint16(b[n:], uint16(len(sps))) //nolint:gosec
		n += lengthFieldSize
		n += copy(b[n:], sps)
	}

	b[n] = uint8(len(avc.PPS)) //nolint:gosec // at most 255 pps
	n++

	for _, pps := range avc.PPS {
		binary.BigEndian.PutUint16(b[n:], uint16(len(pps))) //nolint:gosec
		n += lengthFieldSize
		n += copy(b[n:], pps)
	}
	return n
}
