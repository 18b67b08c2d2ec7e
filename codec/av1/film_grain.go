package av1

import "github.com/ugparu/bitsyntax/utils/logger"

// FilmGrainPoint is one point of a piecewise linear scaling function.
type FilmGrainPoint struct {
	Value   uint8
	Scaling uint8
}

// FilmGrainParams is film_grain_params() with apply_grain set.
type FilmGrainParams struct {
	GrainSeed   uint16
	UpdateGrain bool
	// RefIdx is film_grain_params_ref_idx when the parameters were loaded
	// from a reference frame.
	RefIdx *uint8

	PointY                []FilmGrainPoint
	ChromaScalingFromLuma bool
	PointCb               []FilmGrainPoint
	PointCr               []FilmGrainPoint
	GrainScalingMinus8    uint8
	ArCoeffLag            uint8
	ArCoeffsYPlus128      []uint8
	ArCoeffsCbPlus128     []uint8
	ArCoeffsCrPlus128     []uint8
	ArCoeffShiftMinus6    uint8
	GrainScaleShift       uint8
	CbMult                uint8
	CbLumaMult            uint8
	CbOffset              uint16
	CrMult                uint8
	CrLumaMult            uint8
	CrOffset              uint16
	OverlapFlag           bool
	ClipToRestrictedRange bool
}

const (
	maxNumYPoints      = 14
	maxNumChromaPoints = 10
)

//nolint:mnd,gosec // field widths
func (d *frameHeaderDecoder) filmGrainParams() {
	f, fh := d.f, d.fh
	fh.FilmGrain = nil
	if f.Err() != nil || !d.seq.FilmGrainParamsPresent || (!fh.ShowFrame && !fh.ShowableFrame) {
		return
	}
	if !f.Flag("apply_grain") {
		return
	}

	fg := &FilmGrainParams{GrainSeed: uint16(f.Bits(16, "grain_seed"))}
	if fh.FrameType == InterFrame {
		fg.UpdateGrain = f.Flag("update_grain")
	} else {
		fg.UpdateGrain = true
	}
	if !fg.UpdateGrain {
		idx := uint8(f.Bits(3, "film_grain_params_ref_idx"))
		if f.Err() != nil {
			return
		}
		if !d.refs[idx].Valid {
			f.Fail(refNotFound(idx))
			return
		}
		saved := d.refs[idx].FilmGrain
		if saved == nil {
			// the loaded parameters have apply_grain equal to 0
			logger.Tracef(d.ctx, "film grain loaded from slot %d without grain", idx)
			return
		}
		loaded := *saved
		loaded.GrainSeed = fg.GrainSeed
		loaded.UpdateGrain = false
		loaded.RefIdx = &idx
		fh.FilmGrain = &loaded
		return
	}

	cc := &d.seq.ColorConfig
	fg.PointY = d.grainPoints(maxNumYPoints, "num_y_points", "point_y_value", "point_y_scaling")
	if !cc.MonoChrome {
		fg.ChromaScalingFromLuma = f.Flag("chroma_scaling_from_luma")
	}
	if !cc.MonoChrome && !fg.ChromaScalingFromLuma &&
		(!cc.SubsamplingX || !cc.SubsamplingY || len(fg.PointY) > 0) {
		fg.PointCb = d.grainPoints(maxNumChromaPoints, "num_cb_points", "point_cb_value", "point_cb_scaling")
		fg.PointCr = d.grainPoints(maxNumChromaPoints, "num_cr_points", "point_cr_value", "point_cr_scaling")
	}

	fg.GrainScalingMinus8 = uint8(f.Bits(2, "grain_scaling_minus_8"))
	fg.ArCoeffLag = uint8(f.Bits(2, "ar_coeff_lag"))
	numPosLuma := 2 * int(fg.ArCoeffLag) * (int(fg.ArCoeffLag) + 1)
	numPosChroma := numPosLuma
	if len(fg.PointY) > 0 {
		numPosChroma++
		fg.ArCoeffsYPlus128 = d.grainCoeffs(numPosLuma, "ar_coeffs_y_plus_128")
	}
	if fg.ChromaScalingFromLuma || len(fg.PointCb) > 0 {
		fg.ArCoeffsCbPlus128 = d.grainCoeffs(numPosChroma, "ar_coeffs_cb_plus_128")
	}
	if fg.ChromaScalingFromLuma || len(fg.PointCr) > 0 {
		fg.ArCoeffsCrPlus128 = d.grainCoeffs(numPosChroma, "ar_coeffs_cr_plus_128")
	}
	fg.ArCoeffShiftMinus6 = uint8(f.Bits(2, "ar_coeff_shift_minus_6"))
	fg.GrainScaleShift = uint8(f.Bits(2, "grain_scale_shift"))
	if len(fg.PointCb) > 0 {
		fg.CbMult = uint8(f.Bits(8, "cb_mult"))
		fg.CbLumaMult = uint8(f.Bits(8, "cb_luma_mult"))
		fg.CbOffset = uint16(f.Bits(9, "cb_offset"))
	}
	if len(fg.PointCr) > 0 {
		fg.CrMult = uint8(f.Bits(8, "cr_mult"))
		fg.CrLumaMult = uint8(f.Bits(8, "cr_luma_mult"))
		fg.CrOffset = uint16(f.Bits(9, "cr_offset"))
	}
	fg.OverlapFlag = f.Flag("overlap_flag")
	fg.ClipToRestrictedRange = f.Flag("clip_to_restricted_range")
	if f.Err() == nil {
		fh.FilmGrain = fg
	}
}

//nolint:mnd,gosec // field widths
func (d *frameHeaderDecoder) grainPoints(limit uint32, countField, valueField, scalingField string) []FilmGrainPoint {
	f := d.f
	n := f.Bits(4, countField)
	if n > limit {
		f.Fail(unknown(countField, uint64(n)))
		return nil
	}
	if n == 0 {
		return nil
	}
	points := make([]FilmGrainPoint, n)
	for i := range points {
		points[i].Value = uint8(f.Bits(8, valueField))
		points[i].Scaling = uint8(f.Bits(8, scalingField))
	}
	return points
}

func (d *frameHeaderDecoder) grainCoeffs(n int, field string) []uint8 {
	coeffs := make([]uint8, n)
	for i := range coeffs {
		coeffs[i] = uint8(d.f.Bits(8, field)) //nolint:mnd,gosec
	}
	return coeffs
}
