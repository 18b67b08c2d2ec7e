package av1

// QuantizationParams is quantization_params().
type QuantizationParams struct {
	BaseQIdx     uint8
	DeltaQYDc    int32
	DiffUVDelta  bool
	DeltaQUDc    int32
	DeltaQUAc    int32
	DeltaQVDc    int32
	DeltaQVAc    int32
	UsingQmatrix bool
	QmY          uint8
	QmU          uint8
	QmV          uint8
}

// SegmentationFeatures holds FeatureEnabled and FeatureData.
type SegmentationFeatures struct {
	Enabled [MaxSegments][SegLvlMax]bool
	Data    [MaxSegments][SegLvlMax]int32
}

// SegmentationParams is segmentation_params().
type SegmentationParams struct {
	Enabled         bool
	UpdateMap       bool
	TemporalUpdate  bool
	UpdateData      bool
	Features        SegmentationFeatures
	SegIDPreSkip    bool
	LastActiveSegID uint8
}

// DeltaQParams is delta_q_params(). Res is delta_q_res, a log2 scale.
type DeltaQParams struct {
	Present bool
	Res     uint8
}

// DeltaLfParams is delta_lf_params().
type DeltaLfParams struct {
	Present bool
	Res     uint8
	Multi   bool
}

var (
	segmentationFeatureBits   = [SegLvlMax]int{8, 6, 6, 6, 6, 3, 0, 0}
	segmentationFeatureSigned = [SegLvlMax]bool{true, true, true, true, true, false, false, false}
	segmentationFeatureMax    = [SegLvlMax]int32{255, MaxLoopFilter, MaxLoopFilter, MaxLoopFilter, MaxLoopFilter, 7, 0, 0}
)

func clip3(lo, hi, v int32) int32 {
	return max(lo, min(hi, v))
}

//nolint:mnd,gosec // field widths
func (d *frameHeaderDecoder) quantizationParams() {
	f, fh := d.f, d.fh
	if f.Err() != nil {
		return
	}
	q := &fh.Quantization
	cc := &d.seq.ColorConfig

	q.BaseQIdx = uint8(f.Bits(8, "base_q_idx"))
	q.DeltaQYDc = d.readDeltaQ("delta_q_y_dc")
	if d.ctx.NumPlanes > 1 {
		if cc.SeparateUVDeltaQ {
			q.DiffUVDelta = f.Flag("diff_uv_delta")
		}
		q.DeltaQUDc = d.readDeltaQ("delta_q_u_dc")
		q.DeltaQUAc = d.readDeltaQ("delta_q_u_ac")
		if q.DiffUVDelta {
			q.DeltaQVDc = d.readDeltaQ("delta_q_v_dc")
			q.DeltaQVAc = d.readDeltaQ("delta_q_v_ac")
		} else {
			q.DeltaQVDc, q.DeltaQVAc = q.DeltaQUDc, q.DeltaQUAc
		}
	}
	q.UsingQmatrix = f.Flag("using_qmatrix")
	if q.UsingQmatrix {
		q.QmY = uint8(f.Bits(4, "qm_y"))
		q.QmU = uint8(f.Bits(4, "qm_u"))
		if cc.SeparateUVDeltaQ {
			q.QmV = uint8(f.Bits(4, "qm_v"))
		} else {
			q.QmV = q.QmU
		}
	}
}

// readDeltaQ implements read_delta_q().
func (d *frameHeaderDecoder) readDeltaQ(field string) int32 {
	if d.f.Flag("delta_coded") {
		return d.f.SU(7, field) //nolint:mnd
	}
	return 0
}

//nolint:mnd // field widths
func (d *frameHeaderDecoder) segmentationParams() {
	f, fh := d.f, d.fh
	if f.Err() != nil {
		return
	}
	sp := &fh.Segmentation

	sp.Enabled = f.Flag("segmentation_enabled")
	if !sp.Enabled {
		sp.Features = SegmentationFeatures{}
		return
	}
	if fh.PrimaryRefFrame == PrimaryRefNone {
		sp.UpdateMap = true
		sp.UpdateData = true
	} else {
		sp.UpdateMap = f.Flag("segmentation_update_map")
		if sp.UpdateMap {
			sp.TemporalUpdate = f.Flag("segmentation_temporal_update")
		}
		sp.UpdateData = f.Flag("segmentation_update_data")
	}
	if sp.UpdateData {
		for i := range MaxSegments {
			for j := range SegLvlMax {
				enabled := f.Flag("feature_enabled")
				var v int32
				if enabled {
					limit := segmentationFeatureMax[j]
					if segmentationFeatureSigned[j] {
						v = clip3(-limit, limit, f.SU(1+segmentationFeatureBits[j], "feature_value"))
					} else {
						v = clip3(0, limit, int32(f.Bits(segmentationFeatureBits[j], "feature_value"))) //nolint:gosec // at most 8 bits
					}
				}
				sp.Features.Enabled[i][j] = enabled
				sp.Features.Data[i][j] = v
			}
		}
	}

	for i := range MaxSegments {
		for j := range SegLvlMax {
			if sp.Features.Enabled[i][j] {
				sp.LastActiveSegID = uint8(i) //nolint:gosec // i < MaxSegments
				if j >= SegLvlRefFrame {
					sp.SegIDPreSkip = true
				}
			}
		}
	}
}

//nolint:mnd // field widths
func (d *frameHeaderDecoder) deltaParams() {
	f, fh := d.f, d.fh
	if fh.Quantization.BaseQIdx > 0 {
		fh.DeltaQ.Present = f.Flag("delta_q_present")
	}
	if !fh.DeltaQ.Present {
		return
	}
	fh.DeltaQ.Res = uint8(f.Bits(2, "delta_q_res")) //nolint:gosec
	if !fh.AllowIntrabc {
		fh.DeltaLf.Present = f.Flag("delta_lf_present")
	}
	if fh.DeltaLf.Present {
		fh.DeltaLf.Res = uint8(f.Bits(2, "delta_lf_res")) //nolint:gosec
		fh.DeltaLf.Multi = f.Flag("delta_lf_multi")
	}
}

// qindex implements get_qindex(1, segmentID).
func (fh *FrameHeader) qindex(segmentID int) int32 {
	base := int32(fh.Quantization.BaseQIdx)
	sp := &fh.Segmentation
	if sp.Enabled && sp.Features.Enabled[segmentID][SegLvlAltQ] {
		return clip3(0, 255, base+sp.Features.Data[segmentID][SegLvlAltQ]) //nolint:mnd
	}
	return base
}

// losslessState derives LosslessArray, CodedLossless, AllLossless and
// SegQMLevel.
//
//nolint:mnd // qm level 15 disables the matrix
func (d *frameHeaderDecoder) losslessState() {
	fh := d.fh
	q := &fh.Quantization
	fh.CodedLossless = true
	for seg := range MaxSegments {
		lossless := fh.qindex(seg) == 0 && q.DeltaQYDc == 0 &&
			q.DeltaQUAc == 0 && q.DeltaQUDc == 0 && q.DeltaQVAc == 0 && q.DeltaQVDc == 0
		fh.Lossless[seg] = lossless
		if !lossless {
			fh.CodedLossless = false
		}
		if q.UsingQmatrix {
			if lossless {
				fh.SegQMLevel[0][seg], fh.SegQMLevel[1][seg], fh.SegQMLevel[2][seg] = 15, 15, 15
			} else {
				fh.SegQMLevel[0][seg], fh.SegQMLevel[1][seg], fh.SegQMLevel[2][seg] = q.QmY, q.QmU, q.QmV
			}
		}
	}
	fh.AllLossless = fh.CodedLossless && fh.FrameWidth == fh.UpscaledWidth
}
