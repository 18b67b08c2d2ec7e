package av1

import (
	"github.com/ugparu/bitsyntax/utils/bits"
	"github.com/ugparu/bitsyntax/utils/logger"
)

// SequenceProfile is seq_profile.
type SequenceProfile uint8

const (
	ProfileMain         SequenceProfile = 0
	ProfileHigh         SequenceProfile = 1
	ProfileProfessional SequenceProfile = 2
)

func (p SequenceProfile) String() string {
	switch p {
	case ProfileMain:
		return "Main"
	case ProfileHigh:
		return "High"
	case ProfileProfessional:
		return "Professional"
	}
	return "Unknown"
}

// TimingInfo is timing_info().
type TimingInfo struct {
	NumUnitsInDisplayTick uint32
	TimeScale             uint32
	// NumTicksPerPictureMinus1 is present for equal_picture_interval.
	NumTicksPerPictureMinus1 *uint32
}

// DecoderModelInfo is decoder_model_info().
type DecoderModelInfo struct {
	BufferDelayLengthMinus1           uint8
	NumUnitsInDecodingTick            uint32
	BufferRemovalTimeLengthMinus1     uint8
	FramePresentationTimeLengthMinus1 uint8
}

// OperatingParameters is operating_parameters_info().
type OperatingParameters struct {
	DecoderBufferDelay uint32
	EncoderBufferDelay uint32
	LowDelayMode       bool
}

// OperatingPoint holds the per operating point fields of the sequence header.
type OperatingPoint struct {
	Idc         uint16
	SeqLevelIdx uint8
	SeqTier     bool
	// DecoderModel is present when decoder_model_present_for_this_op is set.
	DecoderModel *OperatingParameters
	// InitialDisplayDelay is initial_display_delay_minus_1 + 1, or 10 when
	// not signalled.
	InitialDisplayDelay uint8
}

// FrameIDNumbers holds the frame id lengths.
type FrameIDNumbers struct {
	DeltaFrameIDLengthMinus2      uint8
	AdditionalFrameIDLengthMinus1 uint8
}

// IDLen returns idLen, the width of current_frame_id.
func (n *FrameIDNumbers) IDLen() int {
	return int(n.AdditionalFrameIDLengthMinus1) + int(n.DeltaFrameIDLengthMinus2) + 3 //nolint:mnd
}

// DeltaLen returns the width of delta_frame_id_minus_1.
func (n *FrameIDNumbers) DeltaLen() int {
	return int(n.DeltaFrameIDLengthMinus2) + 2 //nolint:mnd
}

// SequenceHeader is sequence_header_obu().
type SequenceHeader struct {
	Profile                   SequenceProfile
	StillPicture              bool
	ReducedStillPictureHeader bool

	TimingInfo                 *TimingInfo
	DecoderModelInfo           *DecoderModelInfo
	InitialDisplayDelayPresent bool
	OperatingPoints            []OperatingPoint

	FrameWidthBitsMinus1  uint8
	FrameHeightBitsMinus1 uint8
	MaxFrameWidthMinus1   uint32
	MaxFrameHeightMinus1  uint32
	FrameIDNumbers        *FrameIDNumbers

	Use128x128Superblock     bool
	EnableFilterIntra        bool
	EnableIntraEdgeFilter    bool
	EnableInterintraCompound bool
	EnableMaskedCompound     bool
	EnableWarpedMotion       bool
	EnableDualFilter         bool
	EnableOrderHint          bool
	EnableJntComp            bool
	EnableRefFrameMvs        bool
	// SeqForceScreenContentTools and SeqForceIntegerMv hold 0, 1 or
	// SelectScreenContentTools / SelectIntegerMv.
	SeqForceScreenContentTools uint8
	SeqForceIntegerMv          uint8
	OrderHintBits              uint8

	EnableSuperres    bool
	EnableCdef        bool
	EnableRestoration bool

	ColorConfig            ColorConfig
	FilmGrainParamsPresent bool
}

// MaxFrameWidth returns max_frame_width_minus_1 + 1.
func (s *SequenceHeader) MaxFrameWidth() uint32 {
	return s.MaxFrameWidthMinus1 + 1
}

// MaxFrameHeight returns max_frame_height_minus_1 + 1.
func (s *SequenceHeader) MaxFrameHeight() uint32 {
	return s.MaxFrameHeightMinus1 + 1
}

// FrameRate returns the signalled display rate, if any.
func (s *SequenceHeader) FrameRate() (float64, bool) {
	ti := s.TimingInfo
	if ti == nil || ti.NumUnitsInDisplayTick == 0 {
		return 0, false
	}
	ticks := 1.0
	if ti.NumTicksPerPictureMinus1 != nil {
		ticks = float64(*ti.NumTicksPerPictureMinus1) + 1
	}
	return float64(ti.TimeScale) / (float64(ti.NumUnitsInDisplayTick) * ticks), true
}

func decodeSequenceProfile(v uint32) (SequenceProfile, error) {
	if v > uint32(ProfileProfessional) {
		return 0, unknown("seq_profile", uint64(v))
	}
	return SequenceProfile(v), nil //nolint:gosec // f(3)
}

// DecodeSequenceHeader reads sequence_header_obu() and makes it the active
// sequence header of ctx.
func DecodeSequenceHeader(ctx *Context, r *bits.Reader) (*SequenceHeader, error) {
	sh, err := decodeSequenceHeader(bits.NewFieldReader(r))
	if err != nil {
		return nil, wrap("sequence_header", err)
	}
	ctx.setSequenceHeader(sh)
	logger.Debugf(ctx, "sequence header %s %dx%d operating point %d idc %#x",
		sh.Profile, sh.MaxFrameWidth(), sh.MaxFrameHeight(), ctx.OperatingPoint, ctx.OperatingPointIdc)
	return sh, nil
}

//nolint:mnd,gosec // field widths
func decodeSequenceHeader(f *bits.FieldReader) (*SequenceHeader, error) {
	sh := &SequenceHeader{}

	profile := f.Bits(3, "seq_profile")
	if err := f.Err(); err != nil {
		return nil, err
	}
	var err error
	if sh.Profile, err = decodeSequenceProfile(profile); err != nil {
		return nil, err
	}
	sh.StillPicture = f.Flag("still_picture")
	sh.ReducedStillPictureHeader = f.Flag("reduced_still_picture_header")

	if sh.ReducedStillPictureHeader {
		sh.OperatingPoints = []OperatingPoint{{
			SeqLevelIdx:         uint8(f.Bits(5, "seq_level_idx")),
			InitialDisplayDelay: defaultDisplayDelay,
		}}
	} else {
		if f.Flag("timing_info_present_flag") {
			sh.TimingInfo = decodeTimingInfo(f)
			if f.Flag("decoder_model_info_present_flag") {
				sh.DecoderModelInfo = &DecoderModelInfo{
					BufferDelayLengthMinus1:           uint8(f.Bits(5, "buffer_delay_length_minus_1")),
					NumUnitsInDecodingTick:            f.Bits(32, "num_units_in_decoding_tick"),
					BufferRemovalTimeLengthMinus1:     uint8(f.Bits(5, "buffer_removal_time_length_minus_1")),
					FramePresentationTimeLengthMinus1: uint8(f.Bits(5, "frame_presentation_time_length_minus_1")),
				}
			}
		}
		sh.InitialDisplayDelayPresent = f.Flag("initial_display_delay_present_flag")

		cnt := int(f.Bits(5, "operating_points_cnt_minus_1")) + 1
		sh.OperatingPoints = make([]OperatingPoint, cnt)
		for i := range sh.OperatingPoints {
			op := &sh.OperatingPoints[i]
			op.Idc = uint16(f.Bits(12, "operating_point_idc"))
			op.SeqLevelIdx = uint8(f.Bits(5, "seq_level_idx"))
			if op.SeqLevelIdx > 7 {
				op.SeqTier = f.Flag("seq_tier")
			}
			if dm := sh.DecoderModelInfo; dm != nil && f.Flag("decoder_model_present_for_this_op") {
				n := int(dm.BufferDelayLengthMinus1) + 1
				op.DecoderModel = &OperatingParameters{
					DecoderBufferDelay: f.Bits(n, "decoder_buffer_delay"),
					EncoderBufferDelay: f.Bits(n, "encoder_buffer_delay"),
					LowDelayMode:       f.Flag("low_delay_mode_flag"),
				}
			}
			op.InitialDisplayDelay = defaultDisplayDelay
			if sh.InitialDisplayDelayPresent && f.Flag("initial_display_delay_present_for_this_op") {
				op.InitialDisplayDelay = uint8(f.Bits(4, "initial_display_delay_minus_1")) + 1
			}
		}
	}

	sh.FrameWidthBitsMinus1 = uint8(f.Bits(4, "frame_width_bits_minus_1"))
	sh.FrameHeightBitsMinus1 = uint8(f.Bits(4, "frame_height_bits_minus_1"))
	sh.MaxFrameWidthMinus1 = f.Bits(int(sh.FrameWidthBitsMinus1)+1, "max_frame_width_minus_1")
	sh.MaxFrameHeightMinus1 = f.Bits(int(sh.FrameHeightBitsMinus1)+1, "max_frame_height_minus_1")
	if !sh.ReducedStillPictureHeader && f.Flag("frame_id_numbers_present_flag") {
		sh.FrameIDNumbers = &FrameIDNumbers{
			DeltaFrameIDLengthMinus2:      uint8(f.Bits(4, "delta_frame_id_length_minus_2")),
			AdditionalFrameIDLengthMinus1: uint8(f.Bits(3, "additional_frame_id_length_minus_1")),
		}
	}

	sh.Use128x128Superblock = f.Flag("use_128x128_superblock")
	sh.EnableFilterIntra = f.Flag("enable_filter_intra")
	sh.EnableIntraEdgeFilter = f.Flag("enable_intra_edge_filter")

	sh.SeqForceScreenContentTools = SelectScreenContentTools
	sh.SeqForceIntegerMv = SelectIntegerMv
	if !sh.ReducedStillPictureHeader {
		sh.EnableInterintraCompound = f.Flag("enable_interintra_compound")
		sh.EnableMaskedCompound = f.Flag("enable_masked_compound")
		sh.EnableWarpedMotion = f.Flag("enable_warped_motion")
		sh.EnableDualFilter = f.Flag("enable_dual_filter")
		sh.EnableOrderHint = f.Flag("enable_order_hint")
		if sh.EnableOrderHint {
			sh.EnableJntComp = f.Flag("enable_jnt_comp")
			sh.EnableRefFrameMvs = f.Flag("enable_ref_frame_mvs")
		}
		if !f.Flag("seq_choose_screen_content_tools") {
			sh.SeqForceScreenContentTools = uint8(f.Bits(1, "seq_force_screen_content_tools"))
		}
		if sh.SeqForceScreenContentTools > 0 {
			if !f.Flag("seq_choose_integer_mv") {
				sh.SeqForceIntegerMv = uint8(f.Bits(1, "seq_force_integer_mv"))
			}
		}
		if sh.EnableOrderHint {
			sh.OrderHintBits = uint8(f.Bits(3, "order_hint_bits_minus_1")) + 1
		}
	}

	sh.EnableSuperres = f.Flag("enable_superres")
	sh.EnableCdef = f.Flag("enable_cdef")
	sh.EnableRestoration = f.Flag("enable_restoration")
	if err := f.Err(); err != nil {
		return nil, err
	}
	if sh.ColorConfig, err = decodeColorConfig(f, sh.Profile); err != nil {
		return nil, err
	}
	sh.FilmGrainParamsPresent = f.Flag("film_grain_params_present")
	if err := f.Err(); err != nil {
		return nil, err
	}
	return sh, nil
}

func decodeTimingInfo(f *bits.FieldReader) *TimingInfo {
	ti := &TimingInfo{
		NumUnitsInDisplayTick: f.Bits(32, "num_units_in_display_tick"), //nolint:mnd
		TimeScale:             f.Bits(32, "time_scale"),                //nolint:mnd
	}
	if f.Flag("equal_picture_interval") {
		n := f.UVLC("num_ticks_per_picture_minus_1")
		ti.NumTicksPerPictureMinus1 = &n
	}
	return ti
}
