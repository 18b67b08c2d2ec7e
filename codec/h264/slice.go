package h264

import "github.com/ugparu/bitsyntax/utils/bits"

const (
	maxRefIdxMinus1  = 31
	maxSliceType     = 9
	maxModIdc        = 3
	maxMmco          = 6
	maxCabacInitIdc  = 2
	maxDeblockingIdc = 2
)

// SliceType is slice_type modulo 5.
type SliceType uint8

const (
	SliceP SliceType = iota
	SliceB
	SliceI
	SliceSP
	SliceSI
)

func (t SliceType) String() string {
	switch t {
	case SliceP:
		return "P"
	case SliceB:
		return "B"
	case SliceI:
		return "I"
	case SliceSP:
		return "SP"
	}
	return "SI"
}

// RefPicListModificationOp is one modification_of_pic_nums_idc entry other than the terminating 3.
type RefPicListModificationOp struct {
	Idc   uint32
	Value uint32 // abs_diff_pic_num_minus1 for idc 0 and 1, long_term_pic_num for idc 2
}

// RefPicListModification is ref_pic_list_modification() from 7.3.3.1.
type RefPicListModification struct {
	ModifyL0 bool
	L0       []RefPicListModificationOp
	ModifyL1 bool
	L1       []RefPicListModificationOp
}

type WeightOffset struct {
	Weight int32
	Offset int32
}

// PredWeight holds the explicit weights of one reference index; a nil part
// uses the default weight.
type PredWeight struct {
	Luma   *WeightOffset
	Chroma *[2]WeightOffset
}

// PredWeightTable is pred_weight_table() from 7.3.3.2.
type PredWeightTable struct {
	LumaLog2WeightDenom   uint32
	ChromaLog2WeightDenom *uint32
	L0                    []PredWeight
	L1                    []PredWeight
}

// MemoryManagementOp is one memory_management_control_operation other than the terminating 0.
type MemoryManagementOp struct {
	Operation                 uint32
	DifferenceOfPicNumsMinus1 uint32
	LongTermPicNum            uint32
	LongTermFrameIdx          uint32
	MaxLongTermFrameIdxPlus1  uint32
}

// DecRefPicMarking is dec_ref_pic_marking() from 7.3.3.3.
type DecRefPicMarking struct {
	NoOutputOfPriorPics   bool
	LongTermReference     bool
	AdaptiveRefPicMarking bool
	Operations            []MemoryManagementOp
}

// DeblockingFilter holds the slice level deblocking controls.
type DeblockingFilter struct {
	DisableIdc             uint32
	SliceAlphaC0OffsetDiv2 int32
	SliceBetaOffsetDiv2    int32
}

// SliceHeader is slice_header() from 7.3.3.
type SliceHeader struct {
	FirstMbInSlice          uint32
	SliceType               SliceType
	AllSlicesSameType       bool
	PpsID                   uint32
	ColourPlaneID           *uint8
	FrameNum                uint32
	FieldPic                bool
	BottomField             bool
	IdrPicID                *uint32
	PicOrderCntLsb          *uint32
	DeltaPicOrderCntBottom  *int32
	DeltaPicOrderCnt        []int32
	RedundantPicCnt         *uint32
	DirectSpatialMvPred     *bool
	NumRefIdxActiveOverride bool
	NumRefIdxL0ActiveMinus1 uint32
	NumRefIdxL1ActiveMinus1 uint32
	RefPicListModification  *RefPicListModification
	PredWeightTable         *PredWeightTable
	DecRefPicMarking        *DecRefPicMarking
	CabacInitIdc            *uint32
	SliceQpDelta            int32
	SpForSwitch             *bool
	SliceQsDelta            *int32
	Deblocking              *DeblockingFilter
	SliceGroupChangeCycle   *uint32
}

// DecodeSliceHeader decodes the slice header at the start of a slice RBSP.
// The referenced PPS and its SPS must already be known to sets.
func DecodeSliceHeader(rbsp []byte, hdr NalHeader, sets ParameterSets) (*SliceHeader, error) {
	sh, err := decodeSliceHeader(bits.NewFieldReader(bits.NewReader(rbsp)), hdr, sets)
	if err != nil {
		return nil, wrap("slice_header", err)
	}
	return sh, nil
}

func u32(v uint32) *uint32 { return &v }
func i32(v int32) *int32   { return &v }

//nolint:gocyclo,cyclop,funlen // follows 7.3.3
func decodeSliceHeader(r *bits.FieldReader, hdr NalHeader, sets ParameterSets) (*SliceHeader, error) {
	sh := &SliceHeader{FirstMbInSlice: r.UE("first_mb_in_slice")}

	rawType := r.UE("slice_type")
	if r.Err() == nil && rawType > maxSliceType {
		return nil, unknown("slice_type", uint64(rawType))
	}
	sh.SliceType = SliceType(rawType % 5) //nolint:gosec,mnd
	sh.AllSlicesSameType = rawType > uint32(SliceSI)
	sh.PpsID = r.UE("pic_parameter_set_id")
	if r.Err() != nil {
		return nil, r.Err()
	}

	if sets == nil {
		return nil, ppsNotFound(sh.PpsID)
	}
	pps, ok := sets.Pps(sh.PpsID)
	if !ok {
		return nil, ppsNotFound(sh.PpsID)
	}
	sps, ok := sets.Sps(pps.SpsID)
	if !ok {
		return nil, spsNotFound(pps.SpsID)
	}

	if sps.SeparateColourPlane {
		id := uint8(r.Bits(2, "colour_plane_id")) //nolint:gosec,mnd
		sh.ColourPlaneID = &id
	}
	sh.FrameNum = r.Bits(int(sps.Log2MaxFrameNumMinus4)+4, "frame_num") //nolint:mnd
	if !sps.FrameMbsOnly.FrameMbsOnly() {
		if sh.FieldPic = r.Flag("field_pic_flag"); sh.FieldPic {
			sh.BottomField = r.Flag("bottom_field_flag")
		}
	}
	if hdr.IdrPic() {
		sh.IdrPicID = u32(r.UE("idr_pic_id"))
	}

	switch poc := sps.PicOrderCnt.(type) {
	case PicOrderCntType0:
		sh.PicOrderCntLsb = u32(r.Bits(int(poc.Log2MaxPicOrderCntLsbMinus4)+4, "pic_order_cnt_lsb")) //nolint:mnd
		if pps.BottomFieldPicOrderInFramePresent && !sh.FieldPic {
			sh.DeltaPicOrderCntBottom = i32(r.SE("delta_pic_order_cnt_bottom"))
		}
	case PicOrderCntType1:
		if !poc.DeltaPicOrderAlwaysZero {
			sh.DeltaPicOrderCnt = []int32{r.SE("delta_pic_order_cnt")}
			if pps.BottomFieldPicOrderInFramePresent && !sh.FieldPic {
				sh.DeltaPicOrderCnt = append(sh.DeltaPicOrderCnt, r.SE("delta_pic_order_cnt"))
			}
		}
	}

	if pps.RedundantPicCntPresent {
		sh.RedundantPicCnt = u32(r.UE("redundant_pic_cnt"))
	}
	if sh.SliceType == SliceB {
		v := r.Flag("direct_spatial_mv_pred_flag")
		sh.DirectSpatialMvPred = &v
	}

	sh.NumRefIdxL0ActiveMinus1 = pps.NumRefIdxL0DefaultActiveMinus1
	sh.NumRefIdxL1ActiveMinus1 = pps.NumRefIdxL1DefaultActiveMinus1
	if sh.SliceType == SliceP || sh.SliceType == SliceSP || sh.SliceType == SliceB {
		if sh.NumRefIdxActiveOverride = r.Flag("num_ref_idx_active_override_flag"); sh.NumRefIdxActiveOverride {
			sh.NumRefIdxL0ActiveMinus1 = r.UE("num_ref_idx_l0_active_minus1")
			if sh.SliceType == SliceB {
				sh.NumRefIdxL1ActiveMinus1 = r.UE("num_ref_idx_l1_active_minus1")
			}
		}
	}
	if sh.NumRefIdxL0ActiveMinus1 > maxRefIdxMinus1 {
		r.Fail(unknown("num_ref_idx_l0_active_minus1", uint64(sh.NumRefIdxL0ActiveMinus1)))
	}
	if sh.NumRefIdxL1ActiveMinus1 > maxRefIdxMinus1 {
		r.Fail(unknown("num_ref_idx_l1_active_minus1", uint64(sh.NumRefIdxL1ActiveMinus1)))
	}
	if r.Err() != nil {
		return nil, r.Err()
	}

	sh.RefPicListModification = decodeRefPicListModification(r, sh.SliceType)

	if (pps.WeightedPred && (sh.SliceType == SliceP || sh.SliceType == SliceSP)) ||
		(pps.WeightedBipredIdc == 1 && sh.SliceType == SliceB) {
		sh.PredWeightTable = decodePredWeightTable(r, sh, sps.ChromaArrayType())
	}

	if hdr.RefIdc != RefDisposable {
		sh.DecRefPicMarking = decodeDecRefPicMarking(r, hdr.IdrPic())
	}

	if pps.EntropyCodingMode && sh.SliceType != SliceI && sh.SliceType != SliceSI {
		idc := r.UE("cabac_init_idc")
		if idc > maxCabacInitIdc {
			r.Fail(unknown("cabac_init_idc", uint64(idc)))
		}
		sh.CabacInitIdc = &idc
	}
	sh.SliceQpDelta = r.SE("slice_qp_delta")

	if sh.SliceType == SliceSP || sh.SliceType == SliceSI {
		if sh.SliceType == SliceSP {
			v := r.Flag("sp_for_switch_flag")
			sh.SpForSwitch = &v
		}
		sh.SliceQsDelta = i32(r.SE("slice_qs_delta"))
	}

	if pps.DeblockingFilterControlPresent {
		d := &DeblockingFilter{DisableIdc: r.UE("disable_deblocking_filter_idc")}
		if d.DisableIdc > maxDeblockingIdc {
			r.Fail(unknown("disable_deblocking_filter_idc", uint64(d.DisableIdc)))
		}
		if d.DisableIdc != 1 {
			d.SliceAlphaC0OffsetDiv2 = r.SE("slice_alpha_c0_offset_div2")
			d.SliceBetaOffsetDiv2 = r.SE("slice_beta_offset_div2")
		}
		sh.Deblocking = d
	}

	if pps.NumSliceGroupsMinus1 > 0 {
		if rate, ok := changeRate(pps.SliceGroupMap); ok {
			width := changeCycleBits(sps.PicSizeInMapUnits(), rate)
			sh.SliceGroupChangeCycle = u32(r.Bits(width, "slice_group_change_cycle"))
		}
	}

	if r.Err() != nil {
		return nil, r.Err()
	}
	return sh, nil
}

// changeCycleBits is Ceil(Log2(PicSizeInMapUnits ÷ SliceGroupChangeRate + 1))
// with exact division.
func changeCycleBits(picSize, rate uint32) int {
	n := 0
	for (uint64(1)<<n)*uint64(rate) < uint64(picSize)+uint64(rate) {
		n++
	}
	return n
}

func decodeRefPicListModification(r *bits.FieldReader, st SliceType) *RefPicListModification {
	if st == SliceI || st == SliceSI {
		return nil
	}
	m := &RefPicListModification{}
	if m.ModifyL0 = r.Flag("ref_pic_list_modification_flag_l0"); m.ModifyL0 {
		m.L0 = readModificationOps(r)
	}
	if st == SliceB {
		if m.ModifyL1 = r.Flag("ref_pic_list_modification_flag_l1"); m.ModifyL1 {
			m.L1 = readModificationOps(r)
		}
	}
	return m
}

func readModificationOps(r *bits.FieldReader) []RefPicListModificationOp {
	ops := []RefPicListModificationOp{}
	for r.Err() == nil {
		idc := r.UE("modification_of_pic_nums_idc")
		switch {
		case idc == maxModIdc:
			return ops
		case idc > maxModIdc:
			r.Fail(unknown("modification_of_pic_nums_idc", uint64(idc)))
		case idc == 2: //nolint:mnd
			ops = append(ops, RefPicListModificationOp{Idc: idc, Value: r.UE("long_term_pic_num")})
		default:
			ops = append(ops, RefPicListModificationOp{Idc: idc, Value: r.UE("abs_diff_pic_num_minus1")})
		}
	}
	return ops
}

func decodePredWeightTable(r *bits.FieldReader, sh *SliceHeader, chroma ChromaFormat) *PredWeightTable {
	t := &PredWeightTable{LumaLog2WeightDenom: r.UE("luma_log2_weight_denom")}
	if chroma != ChromaMonochrome {
		t.ChromaLog2WeightDenom = u32(r.UE("chroma_log2_weight_denom"))
	}
	t.L0 = readPredWeights(r, sh.NumRefIdxL0ActiveMinus1+1, chroma != ChromaMonochrome)
	if sh.SliceType == SliceB {
		t.L1 = readPredWeights(r, sh.NumRefIdxL1ActiveMinus1+1, chroma != ChromaMonochrome)
	}
	return t
}

func readPredWeights(r *bits.FieldReader, n uint32, chroma bool) []PredWeight {
	ws := make([]PredWeight, n)
	for i := range ws {
		if r.Flag("luma_weight_flag") {
			ws[i].Luma = &WeightOffset{Weight: r.SE("luma_weight"), Offset: r.SE("luma_offset")}
		}
		if chroma && r.Flag("chroma_weight_flag") {
			var c [2]WeightOffset
			for j := range c {
				c[j] = WeightOffset{Weight: r.SE("chroma_weight"), Offset: r.SE("chroma_offset")}
			}
			ws[i].Chroma = &c
		}
	}
	return ws
}

//nolint:mnd // operation numbers from 7.4.3.3
func decodeDecRefPicMarking(r *bits.FieldReader, idr bool) *DecRefPicMarking {
	m := &DecRefPicMarking{}
	if idr {
		m.NoOutputOfPriorPics = r.Flag("no_output_of_prior_pics_flag")
		m.LongTermReference = r.Flag("long_term_reference_flag")
		return m
	}
	if m.AdaptiveRefPicMarking = r.Flag("adaptive_ref_pic_marking_mode_flag"); !m.AdaptiveRefPicMarking {
		return m
	}
	for r.Err() == nil {
		op := MemoryManagementOp{Operation: r.UE("memory_management_control_operation")}
		if op.Operation == 0 || op.Operation > maxMmco {
			if op.Operation > maxMmco {
				r.Fail(unknown("memory_management_control_operation", uint64(op.Operation)))
			}
			break
		}
		if op.Operation == 1 || op.Operation == 3 {
			op.DifferenceOfPicNumsMinus1 = r.UE("difference_of_pic_nums_minus1")
		}
		if op.Operation == 2 {
			op.LongTermPicNum = r.UE("long_term_pic_num")
		}
		if op.Operation == 3 || op.Operation == 6 {
			op.LongTermFrameIdx = r.UE("long_term_frame_idx")
		}
		if op.Operation == 4 {
			op.MaxLongTermFrameIdxPlus1 = r.UE("max_long_term_frame_idx_plus1")
		}
		m.Operations = append(m.Operations, op)
	}
	return m
}
