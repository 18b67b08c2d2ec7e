package h264

import "github.com/ugparu/bitsyntax/utils/bits"

const aspectRatioExtendedSar = 255

// AspectRatio is aspect_ratio_idc with the explicit SAR for Extended_SAR.
type AspectRatio struct {
	Idc uint8
	Sar *SampleAspectRatio
}

type SampleAspectRatio struct {
	Width  uint16
	Height uint16
}

type VideoSignalType struct {
	VideoFormat       uint8
	FullRange         bool
	ColourDescription *ColourDescription
}

type ColourDescription struct {
	ColourPrimaries         uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8
}

type ChromaLocation struct {
	TopField    uint32
	BottomField uint32
}

type TimingInfo struct {
	NumUnitsInTick uint32
	TimeScale      uint32
	FixedFrameRate bool
}

type BitstreamRestriction struct {
	MotionVectorsOverPicBoundaries bool
	MaxBytesPerPicDenom            uint32
	MaxBitsPerMbDenom              uint32
	Log2MaxMvLengthHorizontal      uint32
	Log2MaxMvLengthVertical        uint32
	MaxNumReorderFrames            uint32
	MaxDecFrameBuffering           uint32
}

// Vui is vui_parameters() from E.1.1. Every pointer field is nil when its
// presence flag was 0.
type Vui struct {
	AspectRatio          *AspectRatio
	OverscanAppropriate  *bool
	VideoSignalType      *VideoSignalType
	ChromaLocation       *ChromaLocation
	TimingInfo           *TimingInfo
	NalHrd               *Hrd
	VclHrd               *Hrd
	LowDelayHrd          *bool
	PicStructPresent     bool
	BitstreamRestriction *BitstreamRestriction
}

func optFlag(r *bits.FieldReader, field string) *bool {
	v := r.Flag(field)
	return &v
}

//nolint:mnd // field widths from E.1.1
func decodeVui(r *bits.FieldReader) *Vui {
	v := &Vui{}

	if r.Flag("aspect_ratio_info_present_flag") {
		v.AspectRatio = &AspectRatio{Idc: uint8(r.Bits(8, "aspect_ratio_idc"))} //nolint:gosec
		if v.AspectRatio.Idc == aspectRatioExtendedSar {
			v.AspectRatio.Sar = &SampleAspectRatio{
				Width:  uint16(r.Bits(16, "sar_width")),  //nolint:gosec
				Height: uint16(r.Bits(16, "sar_height")), //nolint:gosec
			}
		}
	}

	if r.Flag("overscan_info_present_flag") {
		v.OverscanAppropriate = optFlag(r, "overscan_appropriate_flag")
	}

	if r.Flag("video_signal_type_present_flag") {
		v.VideoSignalType = &VideoSignalType{
			VideoFormat: uint8(r.Bits(3, "video_format")), //nolint:gosec
			FullRange:   r.Flag("video_full_range_flag"),
		}
		if r.Flag("colour_description_present_flag") {
			v.VideoSignalType.ColourDescription = &ColourDescription{
				ColourPrimaries:         uint8(r.Bits(8, "colour_primaries")),         //nolint:gosec
				TransferCharacteristics: uint8(r.Bits(8, "transfer_characteristics")), //nolint:gosec
				MatrixCoefficients:      uint8(r.Bits(8, "matrix_coefficients")),      //nolint:gosec
			}
		}
	}

	if r.Flag("chroma_loc_info_present_flag") {
		v.ChromaLocation = &ChromaLocation{
			TopField:    r.UE("chroma_sample_loc_type_top_field"),
			BottomField: r.UE("chroma_sample_loc_type_bottom_field"),
		}
	}

	if r.Flag("timing_info_present_flag") {
		v.TimingInfo = &TimingInfo{
			NumUnitsInTick: r.Bits(32, "num_units_in_tick"),
			TimeScale:      r.Bits(32, "time_scale"),
			FixedFrameRate: r.Flag("fixed_frame_rate_flag"),
		}
	}

	if r.Flag("nal_hrd_parameters_present_flag") {
		v.NalHrd = decodeHrd(r)
	}
	if r.Flag("vcl_hrd_parameters_present_flag") {
		v.VclHrd = decodeHrd(r)
	}
	if v.NalHrd != nil || v.VclHrd != nil {
		v.LowDelayHrd = optFlag(r, "low_delay_hrd_flag")
	}
	v.PicStructPresent = r.Flag("pic_struct_present_flag")

	if r.Flag("bitstream_restriction_flag") {
		v.BitstreamRestriction = &BitstreamRestriction{
			MotionVectorsOverPicBoundaries: r.Flag("motion_vectors_over_pic_boundaries_flag"),
			MaxBytesPerPicDenom:            r.UE("max_bytes_per_pic_denom"),
			MaxBitsPerMbDenom:              r.UE("max_bits_per_mb_denom"),
			Log2MaxMvLengthHorizontal:      r.UE("log2_max_mv_length_horizontal"),
			Log2MaxMvLengthVertical:        r.UE("log2_max_mv_length_vertical"),
			MaxNumReorderFrames:            r.UE("max_num_reorder_frames"),
			MaxDecFrameBuffering:           r.UE("max_dec_frame_buffering"),
		}
	}
	return v
}
