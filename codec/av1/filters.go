package av1

// LoopFilterDeltas holds loop_filter_ref_deltas, indexed by RefFrame, and
// loop_filter_mode_deltas.
type LoopFilterDeltas struct {
	Ref  [TotalRefsPerFrame]int32
	Mode [2]int32
}

var defaultLoopFilterDeltas = LoopFilterDeltas{
	Ref: [TotalRefsPerFrame]int32{
		IntraFrame:   1,
		GoldenFrame:  -1,
		Altref2Frame: -1,
		AltrefFrame:  -1,
	},
}

// LoopFilterParams is loop_filter_params().
type LoopFilterParams struct {
	Level        [4]uint8
	Sharpness    uint8
	DeltaEnabled bool
	DeltaUpdate  bool
	Deltas       LoopFilterDeltas
}

// CdefParams is cdef_params(). The strength slices hold 1 << Bits entries.
type CdefParams struct {
	Damping       uint8
	Bits          uint8
	YPriStrength  []uint8
	YSecStrength  []uint8
	UVPriStrength []uint8
	UVSecStrength []uint8
}

// RestorationType is FrameRestorationType.
type RestorationType uint8

const (
	RestoreNone       RestorationType = 0
	RestoreWiener     RestorationType = 1
	RestoreSgrproj    RestorationType = 2
	RestoreSwitchable RestorationType = 3
)

var remapLrType = [4]RestorationType{RestoreNone, RestoreSwitchable, RestoreWiener, RestoreSgrproj}

// LoopRestorationParams is lr_params().
type LoopRestorationParams struct {
	Type   [3]RestorationType
	UsesLr bool
	// Size is LoopRestorationSize per plane, set when UsesLr.
	Size [3]uint32
}

//nolint:mnd,gosec // field widths
func (d *frameHeaderDecoder) loopFilterParams() {
	f, fh := d.f, d.fh
	if f.Err() != nil {
		return
	}
	lf := &fh.LoopFilter

	if fh.CodedLossless || fh.AllowIntrabc {
		lf.Deltas = defaultLoopFilterDeltas
		return
	}
	lf.Level[0] = uint8(f.Bits(6, "loop_filter_level"))
	lf.Level[1] = uint8(f.Bits(6, "loop_filter_level"))
	if d.ctx.NumPlanes > 1 && (lf.Level[0] != 0 || lf.Level[1] != 0) {
		lf.Level[2] = uint8(f.Bits(6, "loop_filter_level"))
		lf.Level[3] = uint8(f.Bits(6, "loop_filter_level"))
	}
	lf.Sharpness = uint8(f.Bits(3, "loop_filter_sharpness"))
	lf.DeltaEnabled = f.Flag("loop_filter_delta_enabled")
	if !lf.DeltaEnabled {
		return
	}
	lf.DeltaUpdate = f.Flag("loop_filter_delta_update")
	if !lf.DeltaUpdate {
		return
	}
	for i := range lf.Deltas.Ref {
		if f.Flag("update_ref_delta") {
			lf.Deltas.Ref[i] = f.SU(7, "loop_filter_ref_deltas")
		}
	}
	for i := range lf.Deltas.Mode {
		if f.Flag("update_mode_delta") {
			lf.Deltas.Mode[i] = f.SU(7, "loop_filter_mode_deltas")
		}
	}
}

//nolint:mnd,gosec // field widths
func (d *frameHeaderDecoder) cdefParams() {
	f, fh := d.f, d.fh
	if f.Err() != nil {
		return
	}
	c := &fh.Cdef

	if fh.CodedLossless || fh.AllowIntrabc || !d.seq.EnableCdef {
		*c = CdefParams{
			Damping:       3,
			YPriStrength:  []uint8{0},
			YSecStrength:  []uint8{0},
			UVPriStrength: []uint8{0},
			UVSecStrength: []uint8{0},
		}
		return
	}
	c.Damping = uint8(f.Bits(2, "cdef_damping_minus_3")) + 3
	c.Bits = uint8(f.Bits(2, "cdef_bits"))
	n := 1 << c.Bits
	c.YPriStrength = make([]uint8, n)
	c.YSecStrength = make([]uint8, n)
	c.UVPriStrength = make([]uint8, n)
	c.UVSecStrength = make([]uint8, n)
	for i := range n {
		c.YPriStrength[i] = uint8(f.Bits(4, "cdef_y_pri_strength"))
		c.YSecStrength[i] = secStrength(f.Bits(2, "cdef_y_sec_strength"))
		if d.ctx.NumPlanes > 1 {
			c.UVPriStrength[i] = uint8(f.Bits(4, "cdef_uv_pri_strength"))
			c.UVSecStrength[i] = secStrength(f.Bits(2, "cdef_uv_sec_strength"))
		}
	}
}

// secStrength maps the coded secondary strength 3 to 4.
func secStrength(v uint32) uint8 {
	if v == 3 { //nolint:mnd
		return 4 //nolint:mnd
	}
	return uint8(v) //nolint:gosec // f(2)
}

//nolint:mnd // field widths
func (d *frameHeaderDecoder) lrParams() {
	f, fh := d.f, d.fh
	if f.Err() != nil {
		return
	}
	lr := &fh.LoopRestoration

	if fh.AllLossless || fh.AllowIntrabc || !d.seq.EnableRestoration {
		return
	}
	usesChromaLr := false
	for i := range int(d.ctx.NumPlanes) {
		lr.Type[i] = remapLrType[f.Bits(2, "lr_type")]
		if lr.Type[i] != RestoreNone {
			lr.UsesLr = true
			if i > 0 {
				usesChromaLr = true
			}
		}
	}
	if !lr.UsesLr {
		return
	}

	var shift uint32
	if d.seq.Use128x128Superblock {
		shift = f.Bits(1, "lr_unit_shift") + 1
	} else {
		shift = f.Bits(1, "lr_unit_shift")
		if shift != 0 {
			shift += f.Bits(1, "lr_unit_extra_shift")
		}
	}
	lr.Size[0] = RestorationTileSizeMax >> (2 - shift)

	var uvShift uint32
	cc := &d.seq.ColorConfig
	if cc.SubsamplingX && cc.SubsamplingY && usesChromaLr {
		uvShift = f.Bits(1, "lr_uv_shift")
	}
	lr.Size[1] = lr.Size[0] >> uvShift
	lr.Size[2] = lr.Size[0] >> uvShift
}

func (d *frameHeaderDecoder) txMode() {
	fh := d.fh
	switch {
	case fh.CodedLossless:
		fh.TxMode = TxModeOnly4x4
	case d.f.Flag("tx_mode_select"):
		fh.TxMode = TxModeSelect
	default:
		fh.TxMode = TxModeLargest
	}
}

// skipModeParams implements skip_mode_params(): skip mode needs the nearest
// forward reference and either the nearest backward reference or the second
// nearest forward one.
func (d *frameHeaderDecoder) skipModeParams() {
	f, fh := d.f, d.fh
	if f.Err() != nil || fh.FrameIsIntra || !fh.ReferenceSelect || !d.seq.EnableOrderHint {
		return
	}
	dist := d.ctx.relativeDist

	forwardIdx, backwardIdx := -1, -1
	var forwardHint, backwardHint uint32
	for i, idx := range fh.RefFrameIdx {
		refHint := d.refs[idx].OrderHint
		switch {
		case dist(refHint, fh.OrderHint) < 0:
			if forwardIdx < 0 || dist(refHint, forwardHint) > 0 {
				forwardIdx, forwardHint = i, refHint
			}
		case dist(refHint, fh.OrderHint) > 0:
			if backwardIdx < 0 || dist(refHint, backwardHint) < 0 {
				backwardIdx, backwardHint = i, refHint
			}
		}
	}

	second := backwardIdx
	if forwardIdx >= 0 && backwardIdx < 0 {
		var secondHint uint32
		for i, idx := range fh.RefFrameIdx {
			refHint := d.refs[idx].OrderHint
			if dist(refHint, forwardHint) < 0 && (second < 0 || dist(refHint, secondHint) > 0) {
				second, secondHint = i, refHint
			}
		}
	}
	if forwardIdx < 0 || second < 0 {
		return
	}

	fh.SkipModeFrame[0] = LastFrame + RefFrame(min(forwardIdx, second)) //nolint:gosec // < RefsPerFrame
	fh.SkipModeFrame[1] = LastFrame + RefFrame(max(forwardIdx, second)) //nolint:gosec // < RefsPerFrame
	fh.SkipModePresent = f.Flag("skip_mode_present")
}
