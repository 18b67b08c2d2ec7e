package h264

import "fmt"

// NalUnitType is nal_unit_type from Table 7-1.
type NalUnitType uint8

const (
	NaluNonIDR           NalUnitType = 1
	NaluPartitionA       NalUnitType = 2
	NaluPartitionB       NalUnitType = 3
	NaluPartitionC       NalUnitType = 4
	NaluCodedIDR         NalUnitType = 5
	NaluSEI              NalUnitType = 6
	NaluSPS              NalUnitType = 7
	NaluPPS              NalUnitType = 8
	NaluAUD              NalUnitType = 9
	NaluEndOfSequence    NalUnitType = 10
	NaluEndOfStream      NalUnitType = 11
	NaluFiller           NalUnitType = 12
	NaluSPSExtension     NalUnitType = 13
	NaluSliceExtension3D NalUnitType = 21
)

var nalUnitTypeNames = map[NalUnitType]string{
	NaluNonIDR:        "slice",
	NaluPartitionA:    "partition_a",
	NaluPartitionB:    "partition_b",
	NaluPartitionC:    "partition_c",
	NaluCodedIDR:      "idr",
	NaluSEI:           "sei",
	NaluSPS:           "sps",
	NaluPPS:           "pps",
	NaluAUD:           "aud",
	NaluEndOfSequence: "end_of_seq",
	NaluEndOfStream:   "end_of_stream",
	NaluFiller:        "filler",
}

func (t NalUnitType) String() string {
	if n, ok := nalUnitTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("nal_unit_type(%d)", uint8(t))
}

// IsSlice reports whether the unit carries a slice header.
func (t NalUnitType) IsSlice() bool {
	return t == NaluNonIDR || t == NaluPartitionA || t == NaluCodedIDR
}

// RefIdc is nal_ref_idc.
type RefIdc uint8

const (
	RefDisposable RefIdc = iota
	RefLow
	RefHigh
	RefHighest
)

// NalHeader is the one byte nal_unit header.
type NalHeader struct {
	RefIdc RefIdc
	Type   NalUnitType
}

// DecodeNalHeader splits the header byte. Reserved and unspecified unit types
// are rejected with an unknown value error, types defined by the SVC, MVC and
// 3D annexes with an unsupported value error.
func DecodeNalHeader(b byte) (NalHeader, error) {
	if b&0x80 != 0 {
		return NalHeader{}, ErrForbiddenBit
	}
	h := NalHeader{
		RefIdc: RefIdc(b >> 5 & 0x03), //nolint:mnd
		Type:   NalUnitType(b & 0x1f), //nolint:mnd
	}
	switch {
	case h.Type >= NaluNonIDR && h.Type <= NaluFiller:
		return h, nil
	case h.Type >= NaluSPSExtension && h.Type <= NaluSliceExtension3D:
		return h, unsupported("nal_unit_type", uint64(h.Type))
	default:
		return h, unknown("nal_unit_type", uint64(h.Type))
	}
}

// IdrPic is IdrPicFlag.
func (h NalHeader) IdrPic() bool {
	return h.Type == NaluCodedIDR
}

// Body is the decoded payload of a NAL unit: *Sps, *Pps, *SliceHeader, *Aud,
// Sei or Raw.
type Body interface {
	isBody()
}

// Raw carries the RBSP of units whose payload is not decoded here.
type Raw struct {
	Data []byte
}

func (*Sps) isBody()         {}
func (*Pps) isBody()         {}
func (*SliceHeader) isBody() {}
func (*Aud) isBody()         {}
func (Sei) isBody()          {}
func (Raw) isBody()          {}

// Nalu is one decoded NAL unit.
type Nalu struct {
	Header NalHeader
	Body   Body
}
