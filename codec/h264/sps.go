package h264

import (
	"github.com/ugparu/bitsyntax/utils/bits"
)

// Profile is profile_idc.
type Profile uint8

const (
	ProfileCAVLC444     Profile = 44
	ProfileBaseline     Profile = 66
	ProfileMain         Profile = 77
	ProfileExtended     Profile = 88
	ProfileHigh         Profile = 100
	ProfileHigh10       Profile = 110
	ProfileHigh422      Profile = 122
	ProfileHigh444      Profile = 244
)

func (p Profile) String() string {
	switch p {
	case ProfileBaseline:
		return "Baseline"
	case ProfileMain:
		return "Main"
	case ProfileExtended:
		return "Extended"
	case ProfileHigh:
		return "High"
	case ProfileHigh10:
		return "High 10"
	case ProfileHigh422:
		return "High 4:2:2"
	case ProfileHigh444:
		return "High 4:4:4 Predictive"
	case ProfileCAVLC444:
		return "CAVLC 4:4:4 Intra"
	}
	return "Unknown"
}

func decodeProfile(v uint32) (Profile, error) {
	switch p := Profile(v); p { //nolint:gosec // u(8)
	case ProfileBaseline, ProfileMain, ProfileExtended, ProfileHigh:
		return p, nil
	case ProfileCAVLC444, ProfileHigh10, ProfileHigh422, ProfileHigh444:
		return p, unsupported("profile_idc", uint64(v))
	}
	return 0, unknown("profile_idc", uint64(v))
}

// hasChromaInfo reports whether profile_idc is one of the profiles whose SPS
// carries chroma_format_idc, bit depths and a sequence scaling matrix.
func hasChromaInfo(p uint32) bool {
	switch p {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135: //nolint:mnd
		return true
	}
	return false
}

// ChromaFormat is chroma_format_idc.
type ChromaFormat uint8

const (
	ChromaMonochrome ChromaFormat = iota
	Chroma420
	Chroma422
	Chroma444
)

func (c ChromaFormat) String() string {
	switch c {
	case ChromaMonochrome:
		return "4:0:0"
	case Chroma420:
		return "4:2:0"
	case Chroma422:
		return "4:2:2"
	}
	return "4:4:4"
}

// SubWidthC and SubHeightC from Table 6-1.
func (c ChromaFormat) sub() (w, h uint32) {
	switch c {
	case Chroma420:
		return 2, 2 //nolint:mnd
	case Chroma422:
		return 2, 1 //nolint:mnd
	}
	return 1, 1
}

// BitDepth is a luma or chroma sample bit depth, 8 to 14.
type BitDepth uint8

const (
	minBitDepth = 8
	maxBitDepth = 14
)

func decodeBitDepth(field string, minus8 uint32) (BitDepth, error) {
	if minus8 > maxBitDepth-minBitDepth {
		return 0, unknown(field, uint64(minus8))
	}
	return BitDepth(minus8 + minBitDepth), nil
}

// PicOrderCnt is one of PicOrderCntType0, PicOrderCntType1 or PicOrderCntType2.
type PicOrderCnt interface {
	PicOrderCntType() uint8
}

type PicOrderCntType0 struct {
	Log2MaxPicOrderCntLsbMinus4 uint32
}

type PicOrderCntType1 struct {
	DeltaPicOrderAlwaysZero   bool
	OffsetForNonRefPic        int32
	OffsetForTopToBottomField int32
	OffsetForRefFrame         []int32
}

type PicOrderCntType2 struct{}

func (PicOrderCntType0) PicOrderCntType() uint8 { return 0 }
func (PicOrderCntType1) PicOrderCntType() uint8 { return 1 }
func (PicOrderCntType2) PicOrderCntType() uint8 { return 2 } //nolint:mnd

// FrameMbsOnly is FramesOnly when frame_mbs_only_flag is set, FieldsAllowed otherwise.
type FrameMbsOnly interface {
	FrameMbsOnly() bool
}

type FramesOnly struct{}

type FieldsAllowed struct {
	MbAdaptiveFrameField bool
}

func (FramesOnly) FrameMbsOnly() bool    { return true }
func (FieldsAllowed) FrameMbsOnly() bool { return false }

// FrameCropping holds the frame_crop_*_offset values in crop units.
type FrameCropping struct {
	Left   uint32
	Right  uint32
	Top    uint32
	Bottom uint32
}

// Sps is seq_parameter_set_data() from 7.3.2.1.1.
type Sps struct {
	Profile         Profile
	ConstraintFlags [6]bool
	Level           uint8
	ID              uint32

	ChromaFormat                ChromaFormat
	SeparateColourPlane         bool
	BitDepthLuma                BitDepth
	BitDepthChroma              BitDepth
	QpprimeYZeroTransformBypass bool
	ScalingMatrix               *ScalingMatrix

	Log2MaxFrameNumMinus4     uint32
	PicOrderCnt               PicOrderCnt
	MaxNumRefFrames           uint32
	GapsInFrameNumAllowed     bool
	PicWidthInMbsMinus1       uint32
	PicHeightInMapUnitsMinus1 uint32
	FrameMbsOnly              FrameMbsOnly
	Direct8x8Inference        bool
	FrameCropping             *FrameCropping
	Vui                       *Vui
}

const (
	maxSpsID        = 31
	maxPocCycle     = 255
	maxLog2Minus4   = 12
	macroblockSize  = 16
	scaling8x8Lists = 6
)

// DecodeSps decodes an SPS RBSP, the NAL unit payload after the header byte
// with emulation prevention bytes removed.
func DecodeSps(rbsp []byte) (*Sps, error) {
	sps, err := decodeSps(bits.NewFieldReader(bits.NewReader(rbsp)))
	if err != nil {
		return nil, wrap("sps", err)
	}
	return sps, nil
}

// SpsProfile is the fixed length prefix of an SPS.
type SpsProfile struct {
	Profile         Profile
	ConstraintFlags [6]bool
	Level           uint8
}

// DecodeSpsProfile reads only profile_idc, the constraint flags and level_idc.
// It succeeds on units whose later fields are truncated or corrupt.
func DecodeSpsProfile(rbsp []byte) (SpsProfile, error) {
	var p SpsProfile
	r := bits.NewFieldReader(bits.NewReader(rbsp))
	profileIdc := r.Bits(8, "profile_idc") //nolint:mnd
	if r.Err() != nil {
		return p, wrap("sps", r.Err())
	}
	var err error
	if p.Profile, err = decodeProfile(profileIdc); err != nil {
		return p, wrap("sps", err)
	}
	for i := range p.ConstraintFlags {
		p.ConstraintFlags[i] = r.Flag("constraint_set_flag")
	}
	r.Skip(2, "reserved_zero_2bits")        //nolint:mnd
	p.Level = uint8(r.Bits(8, "level_idc")) //nolint:gosec,mnd
	if r.Err() != nil {
		return p, wrap("sps", r.Err())
	}
	return p, nil
}

//nolint:gocyclo,cyclop,funlen // follows 7.3.2.1.1
func decodeSps(r *bits.FieldReader) (*Sps, error) {
	sps := &Sps{}

	profileIdc := r.Bits(8, "profile_idc") //nolint:mnd
	if r.Err() != nil {
		return nil, r.Err()
	}
	var err error
	if sps.Profile, err = decodeProfile(profileIdc); err != nil {
		return nil, err
	}
	for i := range sps.ConstraintFlags {
		sps.ConstraintFlags[i] = r.Flag("constraint_set_flag")
	}
	r.Skip(2, "reserved_zero_2bits")          //nolint:mnd
	sps.Level = uint8(r.Bits(8, "level_idc")) //nolint:gosec,mnd
	if sps.ID = r.UE("seq_parameter_set_id"); sps.ID > maxSpsID {
		r.Fail(unknown("seq_parameter_set_id", uint64(sps.ID)))
	}

	sps.ChromaFormat = Chroma420
	sps.BitDepthLuma, sps.BitDepthChroma = minBitDepth, minBitDepth
	if hasChromaInfo(profileIdc) {
		cf := r.UE("chroma_format_idc")
		if cf > uint32(Chroma444) {
			r.Fail(unknown("chroma_format_idc", uint64(cf)))
		}
		sps.ChromaFormat = ChromaFormat(cf) //nolint:gosec
		if sps.ChromaFormat == Chroma444 {
			sps.SeparateColourPlane = r.Flag("separate_colour_plane_flag")
		}
		if sps.BitDepthLuma, err = decodeBitDepth("bit_depth_luma_minus8", r.UE("bit_depth_luma_minus8")); err != nil {
			r.Fail(err)
		}
		if sps.BitDepthChroma, err = decodeBitDepth("bit_depth_chroma_minus8", r.UE("bit_depth_chroma_minus8")); err != nil {
			r.Fail(err)
		}
		sps.QpprimeYZeroTransformBypass = r.Flag("qpprime_y_zero_transform_bypass_flag")
		if r.Flag("seq_scaling_matrix_present_flag") {
			n8x8 := 2
			if sps.ChromaFormat == Chroma444 {
				n8x8 = scaling8x8Lists
			}
			sps.ScalingMatrix = readScalingMatrix(r, n8x8)
		}
	}

	if sps.Log2MaxFrameNumMinus4 = r.UE("log2_max_frame_num_minus4"); sps.Log2MaxFrameNumMinus4 > maxLog2Minus4 {
		r.Fail(unknown("log2_max_frame_num_minus4", uint64(sps.Log2MaxFrameNumMinus4)))
	}

	switch pocType := r.UE("pic_order_cnt_type"); pocType {
	case 0:
		poc := PicOrderCntType0{Log2MaxPicOrderCntLsbMinus4: r.UE("log2_max_pic_order_cnt_lsb_minus4")}
		if poc.Log2MaxPicOrderCntLsbMinus4 > maxLog2Minus4 {
			r.Fail(unknown("log2_max_pic_order_cnt_lsb_minus4", uint64(poc.Log2MaxPicOrderCntLsbMinus4)))
		}
		sps.PicOrderCnt = poc
	case 1:
		poc := PicOrderCntType1{
			DeltaPicOrderAlwaysZero:   r.Flag("delta_pic_order_always_zero_flag"),
			OffsetForNonRefPic:        r.SE("offset_for_non_ref_pic"),
			OffsetForTopToBottomField: r.SE("offset_for_top_to_bottom_field"),
		}
		n := r.UE("num_ref_frames_in_pic_order_cnt_cycle")
		if n > maxPocCycle {
			r.Fail(unknown("num_ref_frames_in_pic_order_cnt_cycle", uint64(n)))
			break
		}
		poc.OffsetForRefFrame = make([]int32, n)
		for i := range poc.OffsetForRefFrame {
			poc.OffsetForRefFrame[i] = r.SE("offset_for_ref_frame")
		}
		sps.PicOrderCnt = poc
	case 2: //nolint:mnd
		sps.PicOrderCnt = PicOrderCntType2{}
	default:
		r.Fail(unknown("pic_order_cnt_type", uint64(pocType)))
	}

	sps.MaxNumRefFrames = r.UE("max_num_ref_frames")
	sps.GapsInFrameNumAllowed = r.Flag("gaps_in_frame_num_value_allowed_flag")
	sps.PicWidthInMbsMinus1 = r.UE("pic_width_in_mbs_minus1")
	sps.PicHeightInMapUnitsMinus1 = r.UE("pic_height_in_map_units_minus1")

	if r.Flag("frame_mbs_only_flag") {
		sps.FrameMbsOnly = FramesOnly{}
	} else {
		sps.FrameMbsOnly = FieldsAllowed{MbAdaptiveFrameField: r.Flag("mb_adaptive_frame_field_flag")}
	}
	sps.Direct8x8Inference = r.Flag("direct_8x8_inference_flag")

	if r.Flag("frame_cropping_flag") {
		sps.FrameCropping = &FrameCropping{
			Left:   r.UE("frame_crop_left_offset"),
			Right:  r.UE("frame_crop_right_offset"),
			Top:    r.UE("frame_crop_top_offset"),
			Bottom: r.UE("frame_crop_bottom_offset"),
		}
		if r.Err() == nil {
			if err = sps.checkCropping(); err != nil {
				r.Fail(err)
			}
		}
	}

	if r.Flag("vui_parameters_present_flag") {
		sps.Vui = decodeVui(r)
	}

	if r.Err() != nil {
		return nil, r.Err()
	}
	return sps, nil
}

// ChromaArrayType is 0 with separate colour planes and chroma_format_idc otherwise.
func (sps *Sps) ChromaArrayType() ChromaFormat {
	if sps.SeparateColourPlane {
		return ChromaMonochrome
	}
	return sps.ChromaFormat
}

// MaxFrameNum is 2^(log2_max_frame_num_minus4 + 4).
func (sps *Sps) MaxFrameNum() uint32 {
	return 1 << (sps.Log2MaxFrameNumMinus4 + 4) //nolint:mnd
}

// PicWidthInMbs is pic_width_in_mbs_minus1 + 1.
func (sps *Sps) PicWidthInMbs() uint32 {
	return sps.PicWidthInMbsMinus1 + 1
}

// FrameHeightInMbs is (2 - frame_mbs_only_flag) * PicHeightInMapUnits.
func (sps *Sps) FrameHeightInMbs() uint32 {
	h := sps.PicHeightInMapUnitsMinus1 + 1
	if !sps.FrameMbsOnly.FrameMbsOnly() {
		h *= 2
	}
	return h
}

// PicSizeInMapUnits is PicWidthInMbs * PicHeightInMapUnits.
func (sps *Sps) PicSizeInMapUnits() uint32 {
	return sps.PicWidthInMbs() * (sps.PicHeightInMapUnitsMinus1 + 1)
}

func (sps *Sps) cropUnits() (x, y uint32) {
	fieldMul := uint32(1)
	if !sps.FrameMbsOnly.FrameMbsOnly() {
		fieldMul = 2
	}
	if sps.ChromaArrayType() == ChromaMonochrome {
		return 1, fieldMul
	}
	w, h := sps.ChromaFormat.sub()
	return w, h * fieldMul
}

// checkCropping rejects offsets that crop the whole picture or more.
func (sps *Sps) checkCropping() error {
	c := sps.FrameCropping
	x, y := sps.cropUnits()
	if uint64(x)*(uint64(c.Left)+uint64(c.Right)) >= uint64(sps.PicWidthInMbs())*macroblockSize {
		return unknown("frame_crop_right_offset", uint64(c.Right))
	}
	if uint64(y)*(uint64(c.Top)+uint64(c.Bottom)) >= uint64(sps.FrameHeightInMbs())*macroblockSize {
		return unknown("frame_crop_bottom_offset", uint64(c.Bottom))
	}
	return nil
}

// Width is the cropped luma width in samples.
func (sps *Sps) Width() uint32 {
	w := sps.PicWidthInMbs() * macroblockSize
	if c := sps.FrameCropping; c != nil {
		x, _ := sps.cropUnits()
		w -= x * (c.Left + c.Right)
	}
	return w
}

// Height is the cropped luma height in samples.
func (sps *Sps) Height() uint32 {
	h := sps.FrameHeightInMbs() * macroblockSize
	if c := sps.FrameCropping; c != nil {
		_, y := sps.cropUnits()
		h -= y * (c.Top + c.Bottom)
	}
	return h
}

// FrameRate derives frames per second from the VUI timing info.
func (sps *Sps) FrameRate() (float64, bool) {
	if sps.Vui == nil || sps.Vui.TimingInfo == nil || sps.Vui.TimingInfo.NumUnitsInTick == 0 {
		return 0, false
	}
	t := sps.Vui.TimingInfo
	return float64(t.TimeScale) / float64(2*uint64(t.NumUnitsInTick)), true //nolint:mnd
}
