package nal

import (
	"encoding/binary"

	"github.com/bluenviron/mediacommon/pkg/codecs/h264"
)

// Format is the framing detected by SplitNALUs.
type Format int

// Constants for different NALU (Network Abstraction Layer Unit) formats.
const (
	FormatRaw    Format = iota // Raw NALU format.
	FormatAVCC                 // AVCC NALU format.
	FormatAnnexB               // ANNEXB NALU format.
)

func (f Format) String() string {
	switch f {
	case FormatAVCC:
		return "AVCC"
	case FormatAnnexB:
		return "ANNEXB"
	}
	return "RAW"
}

// MinNaluSize is the minimum size of a Network Abstraction Layer Unit (NALU).
const MinNaluSize = 4

// startCode reports the length of the start code (3 or 4 bytes) beginning at pos.
func startCode(b []byte, pos int) int {
	if pos+2 >= len(b) || b[pos] != 0 || b[pos+1] != 0 {
		return 0
	}
	if b[pos+2] == 1 {
		return 3 //nolint:mnd
	}
	if b[pos+2] == 0 && pos+3 < len(b) && b[pos+3] == 1 {
		return 4 //nolint:mnd
	}
	return 0
}

// SplitAnnexB splits a byte stream on 0x000001 / 0x00000001 start codes.
// Bytes before the first start code are ignored. Trailing zero bytes of a
// unit (trailing_zero_8bits) are trimmed. The returned units alias b.
//
// Streams that h264.AnnexBUnmarshal rejects (leading garbage, empty units,
// more units than one access unit may carry) are split by scanning for start
// codes.
func SplitAnnexB(b []byte) [][]byte {
	if units, err := h264.AnnexBUnmarshal(b); err == nil {
		var nalus [][]byte
		for _, u := range units {
			nalus = appendUnit(nalus, u)
		}
		return nalus
	}
	return scanAnnexB(b)
}

func scanAnnexB(b []byte) [][]byte {
	var nalus [][]byte
	start := -1
	for pos := 0; pos < len(b); {
		n := startCode(b, pos)
		if n == 0 {
			pos++
			continue
		}
		if start >= 0 {
			nalus = appendUnit(nalus, b[start:pos])
		}
		pos += n
		start = pos
	}
	if start >= 0 {
		nalus = appendUnit(nalus, b[start:])
	}
	return nalus
}

func appendUnit(nalus [][]byte, u []byte) [][]byte {
	for len(u) > 0 && u[len(u)-1] == 0 {
		u = u[:len(u)-1]
	}
	if len(u) == 0 {
		return nalus
	}
	return append(nalus, u)
}

// SplitAccessUnit splits a single Annex-B access unit. Unlike SplitAnnexB it
// enforces the per-access-unit NALU count and size limits.
func SplitAccessUnit(b []byte) ([][]byte, error) {
	return h264.AnnexBUnmarshal(b)
}

// SplitAVCC splits a buffer of 4-byte length prefixed NALUs.
func SplitAVCC(b []byte) ([][]byte, error) {
	return h264.AVCCUnmarshal(b)
}

// RBSP returns the NALU payload with emulation prevention bytes removed.
func RBSP(nalu []byte) []byte {
	return h264.EmulationPreventionRemove(nalu)
}

// SplitNALUs splits a byte slice into Network Abstraction Layer Units (NALUs)
// based on different formats (Raw, AVCC, or ANNEXB) and returns the NALUs and the format type.
func SplitNALUs(b []byte) ([][]byte, Format) {
	if len(b) < MinNaluSize {
		return [][]byte{b}, FormatRaw
	}

	if startCode(b, 0) != 0 {
		return SplitAnnexB(b), FormatAnnexB
	}

	if nalus, ok := splitLengthPrefixed(b); ok {
		return nalus, FormatAVCC
	}

	return [][]byte{b}, FormatRaw
}

// splitLengthPrefixed walks 4-byte big endian length prefixes. A length that
// overruns the buffer salvages the remainder as a final partial unit.
func splitLengthPrefixed(b []byte) ([][]byte, bool) {
	size := binary.BigEndian.Uint32(b)
	if size > uint32(len(b)-MinNaluSize) { //nolint:gosec
		return nil, false
	}

	var nalus [][]byte
	rest := b
	for len(rest) >= MinNaluSize {
		size = binary.BigEndian.Uint32(rest)
		rest = rest[MinNaluSize:]
		if size > uint32(len(rest)) { //nolint:gosec
			if len(rest) > 0 {
				nalus = append(nalus, rest)
			}
			break
		}
		if size > 0 {
			nalus = append(nalus, rest[:size])
		}
		rest = rest[size:]
	}
	return nalus, len(nalus) > 0
}
