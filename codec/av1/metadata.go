package av1

import (
	"fmt"

	"github.com/ugparu/bitsyntax/utils/bits"
)

// MetadataType is metadata_type.
type MetadataType uint8

const (
	MetadataHdrCll      MetadataType = 1
	MetadataHdrMdcv     MetadataType = 2
	MetadataScalability MetadataType = 3
	MetadataItutT35     MetadataType = 4
	MetadataTimecode    MetadataType = 5

	// Types 6 to 31 are unregistered user private.
	metadataUserPrivateLast MetadataType = 31
)

func (t MetadataType) String() string {
	switch t {
	case MetadataHdrCll:
		return "METADATA_TYPE_HDR_CLL"
	case MetadataHdrMdcv:
		return "METADATA_TYPE_HDR_MDCV"
	case MetadataScalability:
		return "METADATA_TYPE_SCALABILITY"
	case MetadataItutT35:
		return "METADATA_TYPE_ITUT_T35"
	case MetadataTimecode:
		return "METADATA_TYPE_TIMECODE"
	}
	return fmt.Sprintf("METADATA_TYPE_USER_PRIVATE(%d)", uint8(t))
}

// Metadata is the body of a metadata OBU.
type Metadata interface {
	Body
	MetadataType() MetadataType
}

// HdrCll is metadata_hdr_cll().
type HdrCll struct {
	MaxCll  uint16
	MaxFall uint16
}

// HdrMdcv is metadata_hdr_mdcv().
type HdrMdcv struct {
	PrimaryChromaticityX    [3]uint16
	PrimaryChromaticityY    [3]uint16
	WhitePointChromaticityX uint16
	WhitePointChromaticityY uint16
	LuminanceMax            uint32
	LuminanceMin            uint32
}

// ScalabilityModeIdc is scalability_mode_idc.
type ScalabilityModeIdc uint8

const (
	ScalabilityL1T2 ScalabilityModeIdc = iota
	ScalabilityL1T3
	ScalabilityL2T1
	ScalabilityL2T2
	ScalabilityL2T3
	ScalabilityS2T1
	ScalabilityS2T2
	ScalabilityS2T3
	ScalabilityL2T1h
	ScalabilityL2T2h
	ScalabilityL2T3h
	ScalabilityS2T1h
	ScalabilityS2T2h
	ScalabilityS2T3h
	ScalabilitySS
	ScalabilityL3T1
	ScalabilityL3T2
	ScalabilityL3T3
	ScalabilityS3T1
	ScalabilityS3T2
	ScalabilityS3T3
	ScalabilityL3T2Key
	ScalabilityL3T3Key
	ScalabilityL4T5Key
	ScalabilityL4T7Key
	ScalabilityL3T2KeyShift
	ScalabilityL3T3KeyShift
	ScalabilityL4T5KeyShift
	ScalabilityL4T7KeyShift
)

// SpatialLayer is the size of one spatial layer.
type SpatialLayer struct {
	MaxWidth  uint16
	MaxHeight uint16
}

// TemporalGroup is one entry of the temporal group description.
type TemporalGroup struct {
	TemporalID               uint8
	TemporalSwitchingUpPoint bool
	SpatialSwitchingUpPoint  bool
	RefPicDiffs              []uint8
}

// ScalabilityStructure is scalability_structure(). Each slice is nil when
// the corresponding present flag is unset.
type ScalabilityStructure struct {
	SpatialLayersCnt  uint8
	SpatialLayers     []SpatialLayer
	SpatialLayerRefID []uint8
	TemporalGroups    []TemporalGroup
}

// Scalability is metadata_scalability().
type Scalability struct {
	ModeIdc ScalabilityModeIdc
	// Structure is set for ScalabilitySS only.
	Structure *ScalabilityStructure
}

// ItutT35 is metadata_itut_t35(). Payload borrows the remaining bytes.
type ItutT35 struct {
	CountryCode          uint8
	CountryCodeExtension *uint8
	Payload              []byte
}

// Timecode is metadata_timecode(). SecondsValue, MinutesValue and
// HoursValue are nil when not coded; each requires the previous one.
type Timecode struct {
	CountingType     uint8
	FullTimestamp    bool
	Discontinuity    bool
	CntDropped       bool
	NFrames          uint16
	SecondsValue     *uint8
	MinutesValue     *uint8
	HoursValue       *uint8
	TimeOffsetLength uint8
	TimeOffsetValue  uint32
}

// UserPrivate is unregistered user private metadata.
type UserPrivate struct {
	Type    MetadataType
	Payload []byte
}

func (HdrCll) MetadataType() MetadataType       { return MetadataHdrCll }
func (HdrMdcv) MetadataType() MetadataType      { return MetadataHdrMdcv }
func (*Scalability) MetadataType() MetadataType { return MetadataScalability }
func (ItutT35) MetadataType() MetadataType      { return MetadataItutT35 }
func (Timecode) MetadataType() MetadataType     { return MetadataTimecode }
func (u UserPrivate) MetadataType() MetadataType {
	return u.Type
}

func (HdrCll) isBody()       {}
func (HdrMdcv) isBody()      {}
func (*Scalability) isBody() {}
func (ItutT35) isBody()      {}
func (Timecode) isBody()     {}
func (UserPrivate) isBody()  {}

// DecodeMetadata reads metadata_obu() from the aligned start of the payload.
func DecodeMetadata(r *bits.Reader) (Metadata, error) {
	f := bits.NewFieldReader(r)
	raw := f.LEB128("metadata_type")
	if err := f.Err(); err != nil {
		return nil, wrap("metadata", err)
	}
	if raw == 0 || raw > uint64(metadataUserPrivateLast) {
		return nil, unknown("metadata_type", raw)
	}

	var md Metadata
	switch t := MetadataType(raw); t {
	case MetadataHdrCll:
		md = HdrCll{
			MaxCll:  uint16(f.Bits(16, "max_cll")),  //nolint:mnd,gosec
			MaxFall: uint16(f.Bits(16, "max_fall")), //nolint:mnd,gosec
		}
	case MetadataHdrMdcv:
		md = decodeHdrMdcv(f)
	case MetadataScalability:
		s, err := decodeScalability(f)
		if err != nil {
			return nil, err
		}
		md = s
	case MetadataItutT35:
		md = decodeItutT35(f)
	case MetadataTimecode:
		md = decodeTimecode(f)
	default:
		payload, err := r.Remaining()
		f.Fail(err)
		md = UserPrivate{Type: t, Payload: payload}
	}
	if err := f.Err(); err != nil {
		return nil, wrap("metadata", err)
	}
	return md, nil
}

//nolint:mnd,gosec // field widths
func decodeHdrMdcv(f *bits.FieldReader) HdrMdcv {
	var m HdrMdcv
	for i := range 3 {
		m.PrimaryChromaticityX[i] = uint16(f.Bits(16, "primary_chromaticity_x"))
		m.PrimaryChromaticityY[i] = uint16(f.Bits(16, "primary_chromaticity_y"))
	}
	m.WhitePointChromaticityX = uint16(f.Bits(16, "white_point_chromaticity_x"))
	m.WhitePointChromaticityY = uint16(f.Bits(16, "white_point_chromaticity_y"))
	m.LuminanceMax = f.Bits(32, "luminance_max")
	m.LuminanceMin = f.Bits(32, "luminance_min")
	return m
}

//nolint:mnd,gosec // field widths
func decodeScalability(f *bits.FieldReader) (*Scalability, error) {
	mode := f.Bits(8, "scalability_mode_idc")
	if f.Err() != nil {
		return nil, wrap("metadata", f.Err())
	}
	if mode > uint32(ScalabilityL4T7KeyShift) {
		return nil, unknown("scalability_mode_idc", uint64(mode))
	}
	s := &Scalability{ModeIdc: ScalabilityModeIdc(mode)}
	if s.ModeIdc != ScalabilitySS {
		return s, nil
	}

	ss := &ScalabilityStructure{SpatialLayersCnt: uint8(f.Bits(2, "spatial_layers_cnt_minus_1")) + 1}
	dimensionsPresent := f.Flag("spatial_layer_dimensions_present_flag")
	descriptionPresent := f.Flag("spatial_layer_description_present_flag")
	temporalPresent := f.Flag("temporal_group_description_present_flag")
	f.Skip(3, "scalability_structure_reserved_3bits")
	if dimensionsPresent {
		ss.SpatialLayers = make([]SpatialLayer, ss.SpatialLayersCnt)
		for i := range ss.SpatialLayers {
			ss.SpatialLayers[i].MaxWidth = uint16(f.Bits(16, "spatial_layer_max_width"))
			ss.SpatialLayers[i].MaxHeight = uint16(f.Bits(16, "spatial_layer_max_height"))
		}
	}
	if descriptionPresent {
		ss.SpatialLayerRefID = make([]uint8, ss.SpatialLayersCnt)
		for i := range ss.SpatialLayerRefID {
			ss.SpatialLayerRefID[i] = uint8(f.Bits(8, "spatial_layer_ref_id"))
		}
	}
	if temporalPresent {
		ss.TemporalGroups = make([]TemporalGroup, f.Bits(8, "temporal_group_size"))
		for i := range ss.TemporalGroups {
			g := &ss.TemporalGroups[i]
			g.TemporalID = uint8(f.Bits(3, "temporal_group_temporal_id"))
			g.TemporalSwitchingUpPoint = f.Flag("temporal_group_temporal_switching_up_point_flag")
			g.SpatialSwitchingUpPoint = f.Flag("temporal_group_spatial_switching_up_point_flag")
			g.RefPicDiffs = make([]uint8, f.Bits(3, "temporal_group_ref_cnt"))
			for j := range g.RefPicDiffs {
				g.RefPicDiffs[j] = uint8(f.Bits(8, "temporal_group_ref_pic_diff"))
			}
		}
	}
	s.Structure = ss
	return s, nil
}

//nolint:mnd,gosec // field widths
func decodeItutT35(f *bits.FieldReader) ItutT35 {
	m := ItutT35{CountryCode: uint8(f.Bits(8, "itu_t_t35_country_code"))}
	if m.CountryCode == 0xFF {
		ext := uint8(f.Bits(8, "itu_t_t35_country_code_extension_byte"))
		m.CountryCodeExtension = &ext
	}
	if f.Err() == nil {
		payload, err := f.Reader().Remaining()
		f.Fail(err)
		m.Payload = payload
	}
	return m
}

//nolint:mnd,gosec // field widths
func decodeTimecode(f *bits.FieldReader) Timecode {
	tc := Timecode{
		CountingType:  uint8(f.Bits(5, "counting_type")),
		FullTimestamp: f.Flag("full_timestamp_flag"),
		Discontinuity: f.Flag("discontinuity_flag"),
		CntDropped:    f.Flag("cnt_dropped_flag"),
		NFrames:       uint16(f.Bits(9, "n_frames")),
	}
	value := func(n int, field string) *uint8 {
		v := uint8(f.Bits(n, field))
		return &v
	}
	if tc.FullTimestamp {
		tc.SecondsValue = value(6, "seconds_value")
		tc.MinutesValue = value(6, "minutes_value")
		tc.HoursValue = value(5, "hours_value")
	} else if f.Flag("seconds_flag") {
		tc.SecondsValue = value(6, "seconds_value")
		if f.Flag("minutes_flag") {
			tc.MinutesValue = value(6, "minutes_value")
			if f.Flag("hours_flag") {
				tc.HoursValue = value(5, "hours_value")
			}
		}
	}
	tc.TimeOffsetLength = uint8(f.Bits(5, "time_offset_length"))
	tc.TimeOffsetValue = f.Bits(int(tc.TimeOffsetLength), "time_offset_value")
	return tc
}
