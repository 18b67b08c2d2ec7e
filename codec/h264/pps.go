package h264

import "github.com/ugparu/bitsyntax/utils/bits"

const (
	maxPpsID            = 255
	maxSliceGroupsMinus = 7
	maxWeightedBipred   = 2
)

// SliceGroupMap is the slice_group_map_type dependent part of a PPS with
// more than one slice group.
type SliceGroupMap interface {
	MapType() uint8
}

// SliceGroupInterleaved is map type 0.
type SliceGroupInterleaved struct {
	RunLengthMinus1 []uint32
}

// SliceGroupDispersed is map type 1.
type SliceGroupDispersed struct{}

// SliceGroupForeground is map type 2: rectangles for every group but the last.
type SliceGroupForeground struct {
	Boxes []SliceGroupBox
}

type SliceGroupBox struct {
	TopLeft     uint32
	BottomRight uint32
}

// SliceGroupChange holds the evolving map parameters of map types 3 to 5.
type SliceGroupChange struct {
	ChangeDirection  bool
	ChangeRateMinus1 uint32
}

// SliceGroupBoxOut is map type 3.
type SliceGroupBoxOut struct{ SliceGroupChange }

// SliceGroupRasterScan is map type 4.
type SliceGroupRasterScan struct{ SliceGroupChange }

// SliceGroupWipe is map type 5.
type SliceGroupWipe struct{ SliceGroupChange }

// SliceGroupExplicit is map type 6.
type SliceGroupExplicit struct {
	IDs []uint32
}

func (SliceGroupInterleaved) MapType() uint8 { return 0 }
func (SliceGroupDispersed) MapType() uint8   { return 1 }
func (SliceGroupForeground) MapType() uint8  { return 2 } //nolint:mnd
func (SliceGroupBoxOut) MapType() uint8      { return 3 } //nolint:mnd
func (SliceGroupRasterScan) MapType() uint8  { return 4 } //nolint:mnd
func (SliceGroupWipe) MapType() uint8        { return 5 } //nolint:mnd
func (SliceGroupExplicit) MapType() uint8    { return 6 } //nolint:mnd

// changeRate returns SliceGroupChangeRate for map types 3 to 5.
func changeRate(m SliceGroupMap) (uint32, bool) {
	switch c := m.(type) {
	case SliceGroupBoxOut:
		return c.ChangeRateMinus1 + 1, true
	case SliceGroupRasterScan:
		return c.ChangeRateMinus1 + 1, true
	case SliceGroupWipe:
		return c.ChangeRateMinus1 + 1, true
	}
	return 0, false
}

// PpsExtension holds the fields that follow when more_rbsp_data() is true.
type PpsExtension struct {
	Transform8x8Mode          bool
	ScalingMatrix             *ScalingMatrix
	SecondChromaQpIndexOffset int32
}

// Pps is pic_parameter_set_rbsp() from 7.3.2.2.
type Pps struct {
	ID                                uint32
	SpsID                             uint32
	EntropyCodingMode                 bool
	BottomFieldPicOrderInFramePresent bool
	NumSliceGroupsMinus1              uint32
	SliceGroupMap                     SliceGroupMap
	NumRefIdxL0DefaultActiveMinus1    uint32
	NumRefIdxL1DefaultActiveMinus1    uint32
	WeightedPred                      bool
	WeightedBipredIdc                 uint8
	PicInitQpMinus26                  int32
	PicInitQsMinus26                  int32
	ChromaQpIndexOffset               int32
	DeblockingFilterControlPresent    bool
	ConstrainedIntraPred              bool
	RedundantPicCntPresent            bool
	Extension                         *PpsExtension
}

// DecodePps decodes a PPS RBSP. The referenced SPS is only needed, and only
// looked up, when the trailing extension is present.
func DecodePps(rbsp []byte, sets ParameterSets) (*Pps, error) {
	pps, err := decodePps(bits.NewFieldReader(bits.NewReader(rbsp)), sets)
	if err != nil {
		return nil, wrap("pps", err)
	}
	return pps, nil
}

//nolint:gocyclo,cyclop,funlen // follows 7.3.2.2
func decodePps(r *bits.FieldReader, sets ParameterSets) (*Pps, error) {
	pps := &Pps{}
	if pps.ID = r.UE("pic_parameter_set_id"); pps.ID > maxPpsID {
		r.Fail(unknown("pic_parameter_set_id", uint64(pps.ID)))
	}
	if pps.SpsID = r.UE("seq_parameter_set_id"); pps.SpsID > maxSpsID {
		r.Fail(unknown("seq_parameter_set_id", uint64(pps.SpsID)))
	}
	pps.EntropyCodingMode = r.Flag("entropy_coding_mode_flag")
	pps.BottomFieldPicOrderInFramePresent = r.Flag("bottom_field_pic_order_in_frame_present_flag")

	if pps.NumSliceGroupsMinus1 = r.UE("num_slice_groups_minus1"); pps.NumSliceGroupsMinus1 > maxSliceGroupsMinus {
		r.Fail(unknown("num_slice_groups_minus1", uint64(pps.NumSliceGroupsMinus1)))
	}
	if pps.NumSliceGroupsMinus1 > 0 && r.Err() == nil {
		pps.SliceGroupMap = decodeSliceGroupMap(r, pps.NumSliceGroupsMinus1)
	}

	pps.NumRefIdxL0DefaultActiveMinus1 = r.UE("num_ref_idx_l0_default_active_minus1")
	pps.NumRefIdxL1DefaultActiveMinus1 = r.UE("num_ref_idx_l1_default_active_minus1")
	if pps.NumRefIdxL0DefaultActiveMinus1 > maxRefIdxMinus1 {
		r.Fail(unknown("num_ref_idx_l0_default_active_minus1", uint64(pps.NumRefIdxL0DefaultActiveMinus1)))
	}
	if pps.NumRefIdxL1DefaultActiveMinus1 > maxRefIdxMinus1 {
		r.Fail(unknown("num_ref_idx_l1_default_active_minus1", uint64(pps.NumRefIdxL1DefaultActiveMinus1)))
	}
	pps.WeightedPred = r.Flag("weighted_pred_flag")
	if pps.WeightedBipredIdc = uint8(r.Bits(2, "weighted_bipred_idc")); pps.WeightedBipredIdc > maxWeightedBipred { //nolint:gosec,mnd
		r.Fail(unknown("weighted_bipred_idc", uint64(pps.WeightedBipredIdc)))
	}
	pps.PicInitQpMinus26 = r.SE("pic_init_qp_minus26")
	pps.PicInitQsMinus26 = r.SE("pic_init_qs_minus26")
	pps.ChromaQpIndexOffset = r.SE("chroma_qp_index_offset")
	pps.DeblockingFilterControlPresent = r.Flag("deblocking_filter_control_present_flag")
	pps.ConstrainedIntraPred = r.Flag("constrained_intra_pred_flag")
	pps.RedundantPicCntPresent = r.Flag("redundant_pic_cnt_present_flag")

	if r.Err() != nil {
		return nil, r.Err()
	}

	if r.Reader().MoreRBSPData() {
		ext := &PpsExtension{Transform8x8Mode: r.Flag("transform_8x8_mode_flag")}
		if r.Flag("pic_scaling_matrix_present_flag") {
			sps, ok := lookupSps(sets, pps.SpsID)
			if !ok {
				return nil, spsNotFound(pps.SpsID)
			}
			n8x8 := 0
			if ext.Transform8x8Mode {
				n8x8 = 2
				if sps.ChromaFormat == Chroma444 {
					n8x8 = scaling8x8Lists
				}
			}
			ext.ScalingMatrix = readScalingMatrix(r, n8x8)
		}
		ext.SecondChromaQpIndexOffset = r.SE("second_chroma_qp_index_offset")
		pps.Extension = ext
	}

	if r.Err() != nil {
		return nil, r.Err()
	}
	return pps, nil
}

func lookupSps(sets ParameterSets, id uint32) (*Sps, bool) {
	if sets == nil {
		return nil, false
	}
	return sets.Sps(id)
}

//nolint:mnd // map types from 7.4.2.2
func decodeSliceGroupMap(r *bits.FieldReader, groupsMinus1 uint32) SliceGroupMap {
	switch mapType := r.UE("slice_group_map_type"); mapType {
	case 0:
		m := SliceGroupInterleaved{RunLengthMinus1: make([]uint32, groupsMinus1+1)}
		for i := range m.RunLengthMinus1 {
			m.RunLengthMinus1[i] = r.UE("run_length_minus1")
		}
		return m
	case 1:
		return SliceGroupDispersed{}
	case 2:
		m := SliceGroupForeground{Boxes: make([]SliceGroupBox, groupsMinus1)}
		for i := range m.Boxes {
			m.Boxes[i] = SliceGroupBox{
				TopLeft:     r.UE("top_left"),
				BottomRight: r.UE("bottom_right"),
			}
		}
		return m
	case 3, 4, 5:
		c := SliceGroupChange{
			ChangeDirection:  r.Flag("slice_group_change_direction_flag"),
			ChangeRateMinus1: r.UE("slice_group_change_rate_minus1"),
		}
		switch mapType {
		case 3:
			return SliceGroupBoxOut{c}
		case 4:
			return SliceGroupRasterScan{c}
		}
		return SliceGroupWipe{c}
	case 6:
		units := r.UE("pic_size_in_map_units_minus1")
		width := bits.CeilLog2(groupsMinus1 + 1)
		// each id takes at least one bit
		if r.Err() != nil || uint64(units)+1 > uint64(r.Reader().BitsLeft()) {
			r.Fail(&bits.FieldError{Field: "slice_group_id", Err: bits.ErrUnexpectedEndOfData})
			return nil
		}
		m := SliceGroupExplicit{IDs: make([]uint32, units+1)}
		for i := range m.IDs {
			m.IDs[i] = r.Bits(width, "slice_group_id")
		}
		return m
	default:
		r.Fail(unknown("slice_group_map_type", uint64(mapType)))
		return nil
	}
}
